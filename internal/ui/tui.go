// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the sync client display
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Control carries the quit signal from the TUI back to the app.
type Control struct {
	Quit chan struct{}
}

// NewControl creates a TUI control handle.
func NewControl() *Control {
	return &Control{
		Quit: make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model.
func NewModel(ctrl *Control) Model {
	m := Model{
		quality: QualityLost,
	}
	if ctrl != nil {
		m.quit = ctrl.Quit
	}
	return m
}

// Run starts the TUI program.
func Run(ctrl *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	return p, nil
}
