// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/envnode/pkg/dispatch"
	"github.com/Thermoquad/envnode/pkg/jsonlite"
	"github.com/Thermoquad/envnode/pkg/params"
)

// Screens, cycled with space or tab
type screen int

const (
	screenConditions screen = iota
	screenParams
	screenClock
	screenAbout
	screenCount
)

func (s screen) String() string {
	switch s {
	case screenConditions:
		return "CURRENT CONDITIONS"
	case screenParams:
		return "PARAMETERS"
	case screenClock:
		return "CLOCK"
	case screenAbout:
		return "ABOUT"
	default:
		return "UNKNOWN"
	}
}

// paramItem shows one parameter table entry in the parameters list
type paramItem params.Descriptor

// Implement list.Item interface
func (p paramItem) Title() string { return p.Label }
func (p paramItem) Description() string {
	return fmt.Sprintf("%s | %s | %s", p.Topic, p.Kind, displayValue(params.Descriptor(p)))
}
func (p paramItem) FilterValue() string { return p.Topic }

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for dropped messages, false for updates
}

// TUI model
type model struct {
	broker        string
	nodeID        string
	dispatcher    *dispatch.Dispatcher
	zone          *time.Location
	connected     func() bool
	startTime     time.Time
	now           time.Time
	screen        screen
	clock24       bool
	showSeconds   bool
	stats         dispatch.Statistics
	params        []params.Descriptor
	paramList     list.Model
	eventLog      []eventLogEntry
	maxLogEntries int
	width         int
	height        int
	quitting      bool
}

// Messages
type tickMsg time.Time
type updateMsg dispatch.Update
type droppedMsg struct {
	topic string
	err   error
}
type statusMsg struct {
	message string
	isError bool
}

// formatUptime formats uptime in milliseconds to human-friendly string
func formatUptime(ms uint64) string {
	if ms == 0 {
		return "0 seconds"
	}

	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24
	months := days / 30
	years := months / 12

	seconds %= 60
	minutes %= 60
	hours %= 24
	days %= 30
	months %= 12

	plural := func(n uint64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	for _, p := range []struct {
		n    uint64
		unit string
	}{
		{years, "year"}, {months, "month"}, {days, "day"}, {hours, "hour"}, {minutes, "minute"},
	} {
		if p.n > 0 {
			parts = append(parts, plural(p.n, p.unit))
		}
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

// clockText formats t for the clock screen
func clockText(t time.Time, clock24, showSeconds bool) string {
	layout := "3:04"
	if clock24 {
		layout = "15:04"
	}
	if showSeconds {
		layout += ":05"
	}
	if !clock24 {
		layout += " PM"
	}
	return t.Format(layout)
}

// displayValue renders a parameter for the conditions screen
func displayValue(d params.Descriptor) string {
	if !d.Valid {
		return "not set"
	}
	v, err := d.Value()
	if err != nil {
		return jsonlite.Unquote(d.Raw)
	}
	return v.String()
}

func initialModel(broker, nodeID string, d *dispatch.Dispatcher, zone *time.Location) model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	paramList := list.New([]list.Item{}, delegate, 60, 10)
	paramList.Title = "Parameter Table"
	paramList.SetShowStatusBar(false)
	paramList.SetShowHelp(false)
	paramList.SetFilteringEnabled(false)

	now := time.Now()
	m := model{
		broker:        broker,
		nodeID:        nodeID,
		dispatcher:    d,
		zone:          zone,
		connected:     func() bool { return false },
		startTime:     now,
		now:           now,
		screen:        screenConditions,
		clock24:       true,
		paramList:     paramList,
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh copies the parameter table and statistics out of the dispatcher
func (m *model) refresh() {
	m.params = m.dispatcher.Snapshot()
	m.stats = m.dispatcher.Stats()

	items := make([]list.Item, len(m.params))
	for i, d := range m.params {
		items[i] = paramItem(d)
	}
	m.paramList.SetItems(items)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case " ", "tab":
			m.screen = (m.screen + 1) % screenCount
		case "shift+tab":
			m.screen = (m.screen + screenCount - 1) % screenCount
		case "t":
			m.clock24 = !m.clock24
		case "h":
			m.showSeconds = !m.showSeconds
		case "r":
			m.dispatcher.ResetStats()
			m.refresh()
			m.addLogEntry("Statistics reset", false)
		default:
			if m.screen == screenParams {
				var cmd tea.Cmd
				m.paramList, cmd = m.paramList.Update(msg)
				return m, cmd
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := m.height - 18
		if listHeight < 6 {
			listHeight = 6
		}
		m.paramList.SetSize(m.width-8, listHeight)

	case tickMsg:
		m.now = time.Time(msg)
		m.refresh()
		return m, tickCmd()

	case updateMsg:
		m.refresh()
		if showAll {
			entry := fmt.Sprintf("%s = %s", msg.Label, jsonlite.Unquote(msg.Raw))
			if msg.Location != "" {
				entry += fmt.Sprintf(" (%s)", msg.Location)
			}
			m.addLogEntry(entry, false)
		}

	case droppedMsg:
		m.refresh()
		m.addLogEntry(describeDrop(msg.topic, msg.err), true)

	case statusMsg:
		m.addLogEntry(msg.message, msg.isError)
	}

	return m, nil
}

func (m *model) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Padding(1, 4)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("ENVNODE - " + m.screen.String()))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Broker: %s | Press space for next screen, 'q' to quit", m.broker)))
	s.WriteString("\n\n")

	switch m.screen {
	case screenConditions:
		s.WriteString(boxStyle.Render(m.conditionsView()))
	case screenParams:
		s.WriteString(boxStyle.Render(m.paramList.View()))
	case screenClock:
		s.WriteString(boxStyle.Render(m.clockView()))
	case screenAbout:
		s.WriteString(boxStyle.Render(m.aboutView()))
	}
	s.WriteString("\n\n")

	s.WriteString(boxStyle.Render(m.statsView()))
	s.WriteString("\n\n")

	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(m.width - 4).Render(m.logView()))

	return s.String()
}

func (m model) conditionsView() string {
	var b strings.Builder
	shown := 0
	for _, d := range m.params {
		if !d.Display {
			continue
		}
		shown++
		value := valueStyle.Render(displayValue(d))
		if !d.Valid {
			value = warningStyle.Render(displayValue(d))
		}
		b.WriteString(fmt.Sprintf("%s %s", labelStyle.Render(fmt.Sprintf("%-14s", d.Label+":")), value))
		if d.Location != "" {
			b.WriteString(headerStyle.Render("  @ " + d.Location))
		}
		if d.Valid && !d.Updated.IsZero() {
			age := m.now.Sub(d.Updated).Truncate(time.Second)
			if age < 0 {
				age = 0
			}
			b.WriteString(headerStyle.Render(fmt.Sprintf("  (%s ago)", age)))
		}
		b.WriteString("\n")
	}
	if shown == 0 {
		b.WriteString(headerStyle.Render("(no parameters to display)"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m model) clockView() string {
	t := m.now.In(m.zone)
	mode := "24h"
	if !m.clock24 {
		mode = "12h"
	}
	return fmt.Sprintf("%s\n%s\n%s",
		clockStyle.Render(clockText(t, m.clock24, m.showSeconds)),
		valueStyle.Render(t.Format("Monday, January 2 2006")),
		headerStyle.Render(fmt.Sprintf("%s %s | 't' 12/24h, 'h' seconds", t.Format("MST"), mode)),
	)
}

func (m model) aboutView() string {
	connected := errorStyle.Render("disconnected")
	if m.connected() {
		connected = valueStyle.Render("connected")
	}
	nodeID := m.nodeID
	if nodeID == "" {
		nodeID = "(not set)"
	}
	uptime := uint64(m.now.Sub(m.startTime).Milliseconds())

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Version:"), valueStyle.Render(rootCmd.Version)))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Node:"), valueStyle.Render(nodeID)))
	b.WriteString(fmt.Sprintf("%s %s (%s)\n", labelStyle.Render("Broker:"), valueStyle.Render(m.broker), connected))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Parameters:"), valueStyle.Render(fmt.Sprintf("%d", len(m.params)))))
	b.WriteString(fmt.Sprintf("%s %s", labelStyle.Render("Uptime:"), valueStyle.Render(formatUptime(uptime))))
	return b.String()
}

func (m model) statsView() string {
	st := m.stats
	var acceptedPercent, errorPercent float64
	if st.TotalMessages > 0 {
		acceptedPercent = float64(st.Accepted) * 100.0 / float64(st.TotalMessages)
		errorPercent = float64(st.Errors()) * 100.0 / float64(st.TotalMessages)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		labelStyle.Render("Total:"), valueStyle.Render(fmt.Sprintf("%d", st.TotalMessages)),
		labelStyle.Render("Accepted:"), valueStyle.Render(fmt.Sprintf("%d (%.1f%%)", st.Accepted, acceptedPercent)),
		labelStyle.Render("Dropped:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", st.Errors(), errorPercent)),
	))

	if st.Errors() > 0 {
		b.WriteString(headerStyle.Render(fmt.Sprintf("unbalanced: %d, capacity: %d, malformed: %d, no value: %d, unknown topic: %d, rejected: %d",
			st.Unbalanced, st.CapacityErrors, st.Malformed, st.MissingField, st.UnknownTopic, st.Rejected)))
		b.WriteString("\n")
	}

	errorRate := valueStyle.Render(fmt.Sprintf("%.1f err/s", st.ErrorRate))
	if st.ErrorRate > 0 {
		errorRate = errorStyle.Render(fmt.Sprintf("%.1f err/s", st.ErrorRate))
	}
	b.WriteString(fmt.Sprintf("%s %s   %s %s",
		labelStyle.Render("Message Rate:"), valueStyle.Render(fmt.Sprintf("%.1f msgs/s", st.MessageRate)),
		labelStyle.Render("Error Rate:"), errorRate,
	))
	return b.String()
}

func (m model) logView() string {
	logHeight := m.height - 20 // Reserve space for header, screen and stats
	if logHeight < 5 {
		logHeight = 5
	}

	if len(m.eventLog) == 0 {
		return headerStyle.Render("  (no events yet)")
	}

	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	var b strings.Builder
	for i := startIdx; i < len(m.eventLog); i++ {
		entry := m.eventLog[i]
		timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
		if entry.isError {
			b.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), errorStyle.Render("✗ "+entry.message)))
		} else {
			b.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), warningStyle.Render("ℹ "+entry.message)))
		}
	}
	return b.String()
}
