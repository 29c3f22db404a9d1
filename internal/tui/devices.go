// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"noiseless/internal/playback"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DeviceListModel lists the output devices and lets the user pick one for
// playback.
type DeviceListModel struct {
	devices       []playback.Device
	selectedIndex int
	chosen        int
	viewport      viewport.Model
	ready         bool
	err           error
	fetch         func() ([]playback.Device, error)
}

type devicesMsg struct {
	devices []playback.Device
}

type errMsg struct {
	err error
}

// NewDeviceListModel creates a model that loads devices with fetch.
func NewDeviceListModel(fetch func() ([]playback.Device, error)) DeviceListModel {
	return DeviceListModel{chosen: playback.DefaultDeviceID, fetch: fetch}
}

// Chosen returns the picked device ID, or playback.DefaultDeviceID.
func (m DeviceListModel) Chosen() int { return m.chosen }

// Init loads the device list
func (m DeviceListModel) Init() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		all, err := fetch()
		if err != nil {
			return errMsg{err}
		}
		var outputs []playback.Device
		for _, d := range all {
			if d.MaxOutputChannels > 0 {
				outputs = append(outputs, d)
			}
		}
		return devicesMsg{outputs}
	}
}

func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.viewport.SetContent(m.renderDevices())

	case devicesMsg:
		m.devices = msg.devices
		if m.ready {
			m.viewport.SetContent(m.renderDevices())
		}

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"))):
			return m, tea.Quit

		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if m.selectedIndex > 0 {
				m.selectedIndex--
				m.viewport.SetContent(m.renderDevices())
			}

		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if m.selectedIndex < len(m.devices)-1 {
				m.selectedIndex++
				m.viewport.SetContent(m.renderDevices())
			}

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if len(m.devices) > 0 {
				m.chosen = m.devices[m.selectedIndex].ID
				return m, tea.Quit
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m DeviceListModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}
	if !m.ready {
		return "Initializing..."
	}

	title := titleStyle.Render("Output Devices")
	help := infoStyle.Render("↑/↓: Navigate • Enter: Select • q: Quit")
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No output devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		info := fmt.Sprintf("[%d] %s\n    Output channels: %d, Default sample rate: %.0f Hz\n",
			device.ID, device.Name, device.MaxOutputChannels, device.DefaultSampleRate)
		if i == m.selectedIndex {
			info = highlightStyle.Render(info)
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}

// PickDevice runs the device picker and returns the chosen ID.
// PortAudio must be initialized.
func PickDevice() (int, error) {
	p := tea.NewProgram(NewDeviceListModel(playback.HostDevices), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return playback.DefaultDeviceID, err
	}
	m := final.(DeviceListModel)
	return m.chosen, m.err
}
