package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// probeStage is one unit of probe work shown in the refresh progress display.
type probeStage struct {
	label string
	run   func(context.Context) error
}

type stageStartMsg struct {
	label string
}

type stageDoneMsg struct {
	label string
	err   error
}

type stagesFinishedMsg struct{}

// probeProgressModel renders a checklist of finished stages above a spinner
// for the stage currently running. Stage events arrive over a channel from
// the worker goroutine in runProbeStages.
type probeProgressModel struct {
	spinner  spinner.Model
	events   <-chan tea.Msg
	current  string
	finished []string
	errs     []error
	done     bool
}

func newProbeProgressModel(events <-chan tea.Msg) probeProgressModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("39"))),
	)

	return probeProgressModel{spinner: s, events: events}
}

func waitForStageEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func (m probeProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForStageEvent(m.events))
}

func (m probeProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case stageStartMsg:
		m.current = msg.label
		return m, waitForStageEvent(m.events)
	case stageDoneMsg:
		mark := "ok"
		if msg.err != nil {
			mark = "failed"
			m.errs = append(m.errs, msg.err)
		}
		m.finished = append(m.finished, fmt.Sprintf("%s %s", msg.label, mark))
		m.current = ""
		return m, waitForStageEvent(m.events)
	case stagesFinishedMsg:
		m.done = true
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m probeProgressModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	for _, line := range m.finished {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.current != "" {
		fmt.Fprintf(&b, "%s Probing %s...", m.spinner.View(), m.current)
	}

	return b.String()
}

// runProbeStages executes the stages in order on a worker goroutine while the
// progress model animates. The channel is buffered for every event the worker
// can emit so it never blocks if the program exits early.
func runProbeStages(ctx context.Context, output io.Writer, stages []probeStage) error {
	events := make(chan tea.Msg, 2*len(stages)+1)

	go func() {
		for _, stage := range stages {
			if err := ctx.Err(); err != nil {
				events <- stageDoneMsg{label: stage.label, err: err}
				break
			}
			events <- stageStartMsg{label: stage.label}
			events <- stageDoneMsg{label: stage.label, err: stage.run(ctx)}
		}
		events <- stagesFinishedMsg{}
	}()

	p := tea.NewProgram(
		newProbeProgressModel(events),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(probeProgressModel)
	if !ok {
		return fmt.Errorf("unexpected final progress model type %T", finalModel)
	}

	return errors.Join(result.errs...)
}
