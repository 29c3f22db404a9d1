// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"
	"time"

	"noiseless/internal/analysis"
	"noiseless/internal/pipeline"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

const maxBarWidth = 60

var stageOrder = []pipeline.Stage{
	pipeline.StageDecode,
	pipeline.StageDenoise,
	pipeline.StageEffects,
	pipeline.StageEncode,
}

// eventMsg wraps one pipeline event read from the channel.
type eventMsg struct{ ev pipeline.Event }

// closedMsg reports that the event channel closed without a terminal event.
type closedMsg struct{}

// ProgressModel follows one pipeline run. It reads events from a channel fed
// by a transport.ChanTransport and quits after the final event.
type ProgressModel struct {
	title   string
	events  <-chan any
	bar     progress.Model
	current pipeline.Stage
	done    map[pipeline.Stage]bool
	last    pipeline.Event
	err     error
	quit    bool
}

// NewProgressModel creates a model titled with the input file name.
func NewProgressModel(title string, events <-chan any) ProgressModel {
	return ProgressModel{
		title:  title,
		events: events,
		bar:    progress.New(progress.WithDefaultGradient()),
		done:   make(map[pipeline.Stage]bool),
	}
}

// Err returns the pipeline error or nil after the program has exited.
func (m ProgressModel) Err() error { return m.err }

// Result returns the final event, zero until the run finished.
func (m ProgressModel) Result() pipeline.Event { return m.last }

func (m ProgressModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func waitForEvent(events <-chan any) tea.Cmd {
	return func() tea.Msg {
		for msg := range events {
			if ev, ok := msg.(pipeline.Event); ok {
				return eventMsg{ev}
			}
		}
		return closedMsg{}
	}
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-4, maxBarWidth)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))) {
			m.err = fmt.Errorf("interrupted")
			m.quit = true
			return m, tea.Quit
		}
		return m, nil

	case eventMsg:
		ev := msg.ev
		if m.current != "" && m.current != ev.Stage {
			m.done[m.current] = true
		}
		m.current = ev.Stage
		m.last = ev

		switch ev.Stage {
		case pipeline.StageFailed:
			m.err = fmt.Errorf("%s", ev.Error)
			m.quit = true
			return m, tea.Quit
		case pipeline.StageDone:
			m.quit = true
			return m, tea.Sequence(m.bar.SetPercent(1), tea.Quit)
		}
		return m, tea.Batch(m.bar.SetPercent(ev.Progress), waitForEvent(m.events))

	case closedMsg:
		m.quit = true
		return m, tea.Quit

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m ProgressModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("noiseless") + " " + infoStyle.Render(m.title) + "\n\n")

	for _, stage := range stageOrder {
		switch {
		case m.done[stage] || m.last.Stage == pipeline.StageDone:
			sb.WriteString(highlightStyle.Render("  ✓ "+string(stage)) + "\n")
		case stage == m.current:
			sb.WriteString(infoStyle.Render("  ▶ "+string(stage)) + "\n")
		default:
			sb.WriteString(dimStyle.Render("    "+string(stage)) + "\n")
		}
	}
	sb.WriteString("\n" + m.bar.View() + "\n")

	if m.err != nil {
		sb.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	if m.last.Stage == pipeline.StageDone {
		elapsed := time.Duration(m.last.Elapsed) * time.Millisecond
		fmt.Fprintf(&sb, "\nWrote %s in %s\n", m.last.File, elapsed)
		sb.WriteString(reportLine("in ", m.last.Input))
		sb.WriteString(reportLine("out", m.last.Output))
	}
	if !m.quit {
		sb.WriteString("\n" + dimStyle.Render("q: Abort") + "\n")
	}
	return sb.String()
}

func reportLine(label string, r *analysis.Report) string {
	if r == nil {
		return ""
	}
	return dimStyle.Render(fmt.Sprintf("  %s rms %6.1f dBFS  peak %6.1f dBFS", label, r.RMSDb, r.PeakDb)) + "\n"
}

// RunProgress shows the progress view until the run finishes or the user
// aborts. abort is called when the user quits early.
func RunProgress(title string, events <-chan any, abort func()) (pipeline.Event, error) {
	p := tea.NewProgram(NewProgressModel(title, events))
	final, err := p.Run()
	if err != nil {
		abort()
		return pipeline.Event{}, fmt.Errorf("progress view failed: %w", err)
	}
	m := final.(ProgressModel)
	if m.err != nil && m.last.Stage != pipeline.StageFailed {
		abort()
	}
	return m.last, m.err
}
