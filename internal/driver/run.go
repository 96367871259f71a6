// Package driver orchestrates the per-file patch pipeline: select files,
// scan for candidate returns, resolve merge variables, apply edits behind a
// backup, and aggregate a run report. Files are processed independently and
// in parallel; every failure is contained to its file and the run never
// aborts on one file's error.
package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"statepatch/internal/config"
	"statepatch/internal/diag"
	"statepatch/internal/guard"
	"statepatch/internal/patch"
	"statepatch/internal/scan"
	"statepatch/internal/scope"
	"statepatch/internal/source"
)

// Mode selects the engine variant.
type Mode uint8

const (
	// ModePatch is the merge-rewrite engine.
	ModePatch Mode = iota
	// ModeGuard is the guard-synthesizing engine.
	ModeGuard
)

func (m Mode) String() string {
	switch m {
	case ModePatch:
		return "patch"
	case ModeGuard:
		return "guard"
	}
	return "unknown"
}

// Outcome is the terminal state of one file.
type Outcome string

const (
	// OutcomePatched means edits were applied (or, under check, would be).
	OutcomePatched Outcome = "patched"
	// OutcomeUnchanged means the file needed no rewrite; nothing was touched.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeError means the file failed and was left in its original state.
	OutcomeError Outcome = "error"
)

// FileResult captures the outcome of processing a single file.
type FileResult struct {
	Path       string
	Outcome    Outcome
	Err        error
	EditCount  int
	BackupPath string
	// Fallbacks counts low-confidence scope resolutions in this file.
	Fallbacks int
	CacheHit  bool
	Bag       *diag.Bag
}

// Options configures a run.
type Options struct {
	Mode           Mode
	Check          bool
	Jobs           int
	MaxDiagnostics int
	// Window overrides the configured scope window when positive.
	Window int
	// BaseDir anchors relative path rendering in reports (manifest root
	// when one was found).
	BaseDir  string
	Config   config.Config
	Cache    *ResultCache // nil disables caching
	Progress ProgressSink // nil disables progress events
}

// Run expands patterns, processes every selected file, and returns the
// per-file results in selection order. An empty selection yields an empty
// report and no error.
func Run(ctx context.Context, patterns []string, opts Options) (*source.FileSet, []FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	cfg := opts.Config
	files, err := CollectFiles(ctx, patterns, cfg.Patch.Extensions)
	if err != nil {
		return nil, nil, err
	}

	fileSet := source.NewFileSetWithBase(opts.BaseDir)
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	// Предзагружаем все файлы последовательно: FileSet не потокобезопасен.
	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error, len(files))
	for _, path := range files {
		fileID, err := fileSet.Load(path)
		if err != nil {
			loadErrors[path] = err
			continue
		}
		fileIDs[path] = fileID
	}

	window := opts.Window
	if window <= 0 {
		window = cfg.Patch.Window
	}
	maxDiag := opts.MaxDiagnostics
	if maxDiag <= 0 {
		maxDiag = 100
	}

	matcher := scan.NewMatcher(cfg.Patch.MergeVariables)
	resolver := scope.NewResolver(cfg.Patch.MergeVariables, window)
	synth := guard.NewSynthesizer(cfg.Guard.Variable, cfg.Guard.Placeholder, resolver)

	progress := opts.Progress
	if progress == nil {
		progress = nopSink{}
	}
	for _, path := range files {
		progress.OnEvent(Event{File: path, Stage: StageScan, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = processFile(path, fileParams{
				fileSet:    fileSet,
				fileID:     fileIDs[path],
				loadErr:    loadErrors[path],
				matcher:    matcher,
				resolver:   resolver,
				synth:      synth,
				opts:       opts,
				maxDiag:    maxDiag,
				progress:   progress,
				hasLoadErr: loadErrors[path] != nil,
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}

type fileParams struct {
	fileSet    *source.FileSet
	fileID     source.FileID
	loadErr    error
	hasLoadErr bool
	matcher    *scan.Matcher
	resolver   *scope.Resolver
	synth      *guard.Synthesizer
	opts       Options
	maxDiag    int
	progress   ProgressSink
}

func processFile(path string, p fileParams) FileResult {
	bag := diag.NewBag(p.maxDiag)
	res := FileResult{Path: path, Bag: bag}

	if p.hasLoadErr {
		bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{},
			"failed to load file: "+p.loadErr.Error()))
		res.Outcome = OutcomeError
		res.Err = p.loadErr
		p.progress.OnEvent(Event{File: path, Stage: StageScan, Status: StatusError, Err: p.loadErr})
		return res
	}

	file := p.fileSet.Get(p.fileID)
	cfg := p.opts.Config

	if p.opts.Cache != nil {
		key := Key(file.Hash, p.opts.Mode.String(), cfg.Fingerprint())
		var payload CachePayload
		if hit, err := p.opts.Cache.Get(key, &payload); err == nil && hit &&
			payload.Outcome == string(OutcomeUnchanged) {
			res.Outcome = OutcomeUnchanged
			res.CacheHit = true
			res.Fallbacks = payload.Fallbacks
			p.progress.OnEvent(Event{File: path, Stage: StageApply, Status: StatusDone})
			return res
		}
	}

	p.progress.OnEvent(Event{File: path, Stage: StageScan, Status: StatusWorking})

	var edits []diag.TextEdit
	switch p.opts.Mode {
	case ModeGuard:
		matches := p.matcher.ScanMerged(file, cfg.Guard.Variable)
		guardEdits, guardDiags := p.synth.Edits(file, matches)
		edits = guardEdits
		for _, d := range guardDiags {
			bag.Add(d)
		}
	default:
		matches := p.matcher.Scan(file)
		p.progress.OnEvent(Event{File: path, Stage: StageResolve, Status: StatusWorking})
		for _, m := range matches {
			resol := p.resolver.Resolve(file.Content, m.Span.Start)
			old := string(file.Content[m.Span.Start:m.Span.End])
			edit := patch.MergeReturn(m, resol.Variable, old)
			if resol.Fallback {
				res.Fallbacks++
				bag.Add(diag.NewWarning(diag.ScopeFallback, m.Span,
					fmt.Sprintf("no merge candidate assigned within %d lines of line %d, falling back to %q",
						p.resolver.Window(), m.Line, resol.Variable)).
					WithFix("merge "+resol.Variable, edit))
			} else {
				bag.Add(diag.NewInfo(diag.ScopeResolved, m.Span,
					fmt.Sprintf("line %d merges %q", m.Line, resol.Variable)).
					WithFix("merge "+resol.Variable, edit))
			}
			edits = append(edits, edit)
		}
	}

	p.progress.OnEvent(Event{File: path, Stage: StageApply, Status: StatusWorking})

	applied, err := patch.Apply(file.Path, file.Content, edits, cfg.Patch.BackupSuffix, p.opts.Check)
	res.EditCount = applied.EditCount
	res.BackupPath = applied.BackupPath
	if err != nil {
		code := diag.UnknownCode
		switch {
		case errors.Is(err, patch.ErrMainWriteFailed):
			code = diag.IOWriteFileError
		case errors.Is(err, patch.ErrBackupWriteFailed):
			code = diag.IOWriteBackupError
		}
		d := diag.NewError(code, source.Span{}, err.Error())
		if applied.BackupPath != "" {
			d = d.WithNote(source.Span{}, "original preserved in "+applied.BackupPath)
		}
		bag.Add(d)
		res.Outcome = OutcomeError
		res.Err = err
		p.progress.OnEvent(Event{File: path, Stage: StageApply, Status: StatusError, Err: err})
		return res
	}

	if applied.Changed {
		res.Outcome = OutcomePatched
	} else {
		res.Outcome = OutcomeUnchanged
		if p.opts.Cache != nil {
			key := Key(file.Hash, p.opts.Mode.String(), cfg.Fingerprint())
			_ = p.opts.Cache.Put(key, &CachePayload{
				Schema:    resultCacheSchemaVersion,
				Path:      path,
				Outcome:   string(OutcomeUnchanged),
				Fallbacks: res.Fallbacks,
			})
		}
	}
	p.progress.OnEvent(Event{File: path, Stage: StageApply, Status: StatusDone})
	return res
}
