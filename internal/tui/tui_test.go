// SPDX-License-Identifier: MIT
package tui

import (
	"errors"
	"strings"
	"testing"

	"noiseless/internal/analysis"
	"noiseless/internal/pipeline"
	"noiseless/internal/playback"

	tea "github.com/charmbracelet/bubbletea"
)

func TestProgressModelFollowsStages(t *testing.T) {
	var m tea.Model = NewProgressModel("speech.wav", nil)

	for _, ev := range []pipeline.Event{
		{Stage: pipeline.StageDecode},
		{Stage: pipeline.StageDenoise, Progress: 0.25},
	} {
		m, _ = m.Update(eventMsg{ev})
	}
	view := m.View()
	if !strings.Contains(view, "✓ decode") || !strings.Contains(view, "▶ denoise") {
		t.Errorf("unexpected view:\n%s", view)
	}

	m, cmd := m.Update(eventMsg{pipeline.Event{
		Stage:    pipeline.StageDone,
		Progress: 1,
		File:     "noiseless_output.mp3",
		Input:    &analysis.Report{RMSDb: -12},
		Output:   &analysis.Report{RMSDb: -20},
	}})
	if cmd == nil {
		t.Fatal("done event should quit")
	}
	pm := m.(ProgressModel)
	if pm.Err() != nil || pm.Result().File != "noiseless_output.mp3" {
		t.Errorf("err %v, result %+v", pm.Err(), pm.Result())
	}
	if !strings.Contains(pm.View(), "Wrote noiseless_output.mp3") {
		t.Errorf("final view missing file:\n%s", pm.View())
	}
}

func TestProgressModelFailure(t *testing.T) {
	var m tea.Model = NewProgressModel("x.flac", nil)
	m, _ = m.Update(eventMsg{pipeline.Event{Stage: pipeline.StageFailed, Error: "format error"}})
	pm := m.(ProgressModel)
	if pm.Err() == nil || pm.Err().Error() != "format error" {
		t.Errorf("Err() = %v", pm.Err())
	}
	if !strings.Contains(pm.View(), "Error: format error") {
		t.Errorf("view missing error:\n%s", pm.View())
	}
}

func TestWaitForEventSkipsForeignMessages(t *testing.T) {
	ch := make(chan any, 2)
	ch <- "noise"
	ch <- pipeline.Event{Stage: pipeline.StageEncode}
	close(ch)

	msg := waitForEvent(ch)()
	if em, ok := msg.(eventMsg); !ok || em.ev.Stage != pipeline.StageEncode {
		t.Errorf("got %#v", msg)
	}
	if _, ok := waitForEvent(ch)().(closedMsg); !ok {
		t.Error("closed channel should yield closedMsg")
	}
}

func TestDeviceListModel(t *testing.T) {
	fetch := func() ([]playback.Device, error) {
		return []playback.Device{
			{ID: 0, Name: "mic", MaxInputChannels: 1},
			{ID: 1, Name: "speakers", MaxOutputChannels: 2},
			{ID: 2, Name: "headphones", MaxOutputChannels: 2},
		}, nil
	}
	m := NewDeviceListModel(fetch)
	msg := m.Init()()
	dm, ok := msg.(devicesMsg)
	if !ok || len(dm.devices) != 2 {
		t.Fatalf("Init() = %#v, want two output devices", msg)
	}

	var model tea.Model = m
	model, _ = model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model, _ = model.Update(dm)
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should quit")
	}
	if got := model.(DeviceListModel).Chosen(); got != 2 {
		t.Errorf("Chosen() = %d, want 2", got)
	}
}

func TestDeviceListModelError(t *testing.T) {
	m := NewDeviceListModel(func() ([]playback.Device, error) { return nil, errors.New("no portaudio") })
	model, _ := m.Update(m.Init()())
	if !strings.Contains(model.View(), "no portaudio") {
		t.Errorf("view = %q", model.View())
	}
}
