package driver

// Stage describes a phase of the per-file pipeline.
type Stage string

const (
	// StageScan is the return-statement matching stage.
	StageScan Stage = "scan"
	// StageResolve is the merge-variable resolution stage.
	StageResolve Stage = "resolve"
	// StageApply is the backup-and-write stage.
	StageApply Stage = "apply"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the file is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the file is being processed.
	StatusWorking Status = "working"
	// StatusDone indicates the file reached a terminal outcome.
	StatusDone Status = "done"
	// StatusError indicates the file errored.
	StatusError Status = "error"
)

// Event reports progress for a file (or for the whole run when File is empty).
type Event struct {
	File   string
	Stage  Stage
	Status Status
	Err    error
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

type nopSink struct{}

func (nopSink) OnEvent(Event) {}
