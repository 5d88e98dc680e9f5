// ABOUTME: Bubbletea model for the sync client TUI
// ABOUTME: Defines display state and update logic for live offset readouts
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Quality classifies how fresh the sync estimate is.
type Quality int

const (
	QualityGood Quality = iota
	QualityDegraded
	QualityLost
)

// Model represents the TUI state
type Model struct {
	// Connection
	connected  bool
	serverAddr string

	// Sync estimate
	offset    int64
	roundTrip uint64
	quality   Quality

	// Counters
	probesSent      uint64
	repliesReceived uint64

	// Identity
	instanceID  string
	monitorAddr string

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int

	quit chan struct{}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderEstimate()
	s += m.renderCounters()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders connection and sync status
func (m Model) renderHeader() string {
	connStatus := "Waiting for server"
	if m.connected {
		connStatus = fmt.Sprintf("Tracking %s", m.serverAddr)
	}

	syncIcon := "✗"
	syncText := "No replies"
	switch m.quality {
	case QualityGood:
		syncIcon = "✓"
		syncText = "Synced"
	case QualityDegraded:
		syncIcon = "⚠"
		syncText = "Stale"
	}

	return fmt.Sprintf(`┌─ TSP Sync Client ────────────────────────────────────┐
│ Status: %-45s │
│ Sync:   %s %-42s │
├──────────────────────────────────────────────────────┤
`, connStatus, syncIcon, syncText)
}

// renderEstimate renders the current offset estimate
func (m Model) renderEstimate() string {
	if m.repliesReceived == 0 {
		return "│ No estimate yet                                      │\n"
	}

	return fmt.Sprintf("│ Offset:     %+12.3f ms%-27s │\n"+
		"│ Round trip: %12.3f ms%-27s │\n",
		float64(m.offset)/1000.0, "",
		float64(m.roundTrip)/1000.0, "")
}

// renderCounters renders probe/reply statistics
func (m Model) renderCounters() string {
	loss := ""
	if m.probesSent > 0 {
		pct := 100.0 * float64(m.probesSent-m.repliesReceived) / float64(m.probesSent)
		loss = fmt.Sprintf(" (%.1f%% lost)", pct)
	}

	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Probes: %d  Replies: %d%s%-12s │
│                                                      │
`, m.probesSent, m.repliesReceived, loss, "")
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ d:Debug  q:Quit                                      │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Instance: %-40s │
│   Monitor:  %-40s │
│   Offset:   %+dμs                                   │
`, truncate(m.instanceID, 40), truncate(m.monitorAddr, 40), m.offset)
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.quit != nil {
			select {
			case m.quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.ServerAddr != "" {
		m.serverAddr = msg.ServerAddr
	}
	if msg.InstanceID != "" {
		m.instanceID = msg.InstanceID
	}
	if msg.MonitorAddr != "" {
		m.monitorAddr = msg.MonitorAddr
	}
	if msg.Quality != nil {
		m.quality = *msg.Quality
	}
	if msg.RepliesReceived != 0 {
		m.offset = msg.Offset
		m.roundTrip = msg.RoundTrip
		m.probesSent = msg.ProbesSent
		m.repliesReceived = msg.RepliesReceived
	} else if msg.ProbesSent != 0 {
		m.probesSent = msg.ProbesSent
	}
}

// StatusMsg updates TUI state. Nil/zero fields leave state untouched.
type StatusMsg struct {
	Connected       *bool
	ServerAddr      string
	InstanceID      string
	MonitorAddr     string
	Offset          int64
	RoundTrip       uint64
	ProbesSent      uint64
	RepliesReceived uint64
	Quality         *Quality
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
