package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"statepatch/internal/driver"
	"statepatch/internal/source"
	"statepatch/internal/ui"
)

type runOutcome struct {
	fileSet *source.FileSet
	results []driver.FileResult
	err     error
}

func runWithUI(ctx context.Context, title string, patterns []string, opts driver.Options) (*source.FileSet, []driver.FileResult, error) {
	files, err := driver.CollectFiles(ctx, patterns, opts.Config.Patch.Extensions)
	if err != nil {
		return nil, nil, err
	}

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		fileSet, results, runErr := driver.Run(ctx, patterns, optsCopy)
		outcomeCh <- runOutcome{fileSet: fileSet, results: results, err: runErr}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.fileSet, outcome.results, uiErr
	}
	return outcome.fileSet, outcome.results, outcome.err
}
