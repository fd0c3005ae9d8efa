package main

import (
	"context"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"lend/internal/driver"
	"lend/internal/suite"
	"lend/internal/ui"
)

type suiteOutcome struct {
	result *suite.Result
	err    error
}

func runSuiteWithUI(ctx context.Context, m *suite.Manifest, opts suite.RunOptions) (*suite.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan suiteOutcome, 1)

	// события идут по полным путям, как их видит драйвер
	files := make([]string, len(m.Examples))
	for i, ex := range m.Examples {
		files[i] = filepath.Join(m.Dir, ex.File)
	}

	go func() {
		optsCopy := opts
		optsCopy.Sink = driver.ChannelSink{Ch: events}
		res, err := suite.Run(ctx, m, optsCopy)
		outcomeCh <- suiteOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("suite "+m.Name, files, events)
	program := tea.NewProgram(model)
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
