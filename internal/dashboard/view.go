package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/webui"
)

const (
	gridColumns = 3

	// connections are picked from this many recent events
	connectionWindow = 20
	maxConnections   = 10

	defaultWidth = 100
	// rows used by everything except the timeline viewport
	chromeHeight = 26
)

// Connection is one agent-to-agent edge derived from a recent event
type Connection struct {
	From   string
	To     string
	Type   string
	Color  string
	Dashed bool
}

// Connections returns the edges to draw, most recent first
func Connections(events []model.Event) []Connection {
	window := events
	if len(window) > connectionWindow {
		window = window[:connectionWindow]
	}
	var out []Connection
	for _, ev := range window {
		if ev.From == "" || ev.To == "" {
			continue
		}
		out = append(out, Connection{
			From:   ev.From,
			To:     ev.To,
			Type:   ev.Type,
			Color:  ev.Color,
			Dashed: strings.Contains(ev.Type, "error"),
		})
		if len(out) == maxConnections {
			break
		}
	}
	return out
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return defaultWidth
	}
	return max(40, m.width-4)
}

func (m *Model) resize() {
	m.timeline.Width = max(20, m.contentWidth()-4)
	if m.height > 0 {
		m.timeline.Height = max(5, m.height-chromeHeight)
	}
}

func (m Model) View() string {
	sections := []string{
		m.renderHeader(),
		m.renderAgents(),
		m.renderConnections(),
		m.theme.panel.Width(m.contentWidth()).Render(
			m.theme.panelTitle.Render(fmt.Sprintf("Timeline (%d)", len(m.state.Events))) + "\n" + m.timeline.View(),
		),
		m.renderStatus(),
		m.help.View(keys),
	}
	return m.theme.root.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) renderHeader() string {
	line := m.theme.title.Render("AMBER Alert Agent Mesh")
	if m.simulating {
		line += "  " + m.spinner.View() + " Simulating..."
	}
	if m.streamDone {
		line += "  " + m.theme.errorStatus.Render("disconnected")
	}
	return m.theme.header.Width(m.contentWidth()).Render(line)
}

func (m Model) renderAgents() string {
	boxWidth := m.contentWidth()/gridColumns - 2
	var rows []string
	var row []string
	for _, name := range model.AgentNames {
		agent, ok := m.state.Agents[name]
		if !ok {
			agent = model.AgentStatus{Name: name, Status: model.StatusIdle}
		}
		color := lipgloss.Color(agent.Status.Color())
		last := agent.LastEvent
		if last == "" {
			last = "-"
		}
		body := strings.Join([]string{
			m.theme.agentName.Render(name),
			lipgloss.NewStyle().Foreground(color).Render(agent.Status.Label()),
			m.theme.muted.Render(truncate(last, boxWidth-4)),
		}, "\n")
		row = append(row, m.theme.agentBox.BorderForeground(color).Width(boxWidth).Render(body))
		if len(row) == gridColumns {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderConnections() string {
	var b strings.Builder
	b.WriteString(m.theme.panelTitle.Render("Connections"))
	conns := Connections(m.state.Events)
	if len(conns) == 0 {
		b.WriteString("\n" + m.theme.muted.Render("No active connections"))
	}
	for _, c := range conns {
		arrow := "───▶"
		if c.Dashed {
			arrow = "╌╌╌▶"
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color))
		b.WriteString("\n" + style.Render(fmt.Sprintf("%s %s %s", c.From, arrow, c.To)) +
			"  " + m.theme.muted.Render(c.Type))
	}
	return m.theme.panel.Width(m.contentWidth()).Render(b.String())
}

func (m Model) renderStatus() string {
	if m.statusLine == "" {
		return ""
	}
	if m.statusErr {
		return m.theme.errorStatus.Render(m.statusLine)
	}
	return m.theme.status.Render(m.statusLine)
}

// renderTimeline refreshes the viewport content and keeps the cursor visible
func (m *Model) renderTimeline() {
	if len(m.state.Events) == 0 {
		m.timeline.SetContent(m.theme.muted.Render("No events yet. Press t to trigger an alert."))
		m.timeline.GotoTop()
		return
	}

	var b strings.Builder
	lines, cursorTop, cursorBottom := 0, 0, 0
	for i, ev := range m.state.Events {
		if i == m.cursor {
			cursorTop = lines
		}
		entry := m.renderEntry(i, webui.NewEventView(ev))
		b.WriteString(entry)
		b.WriteString("\n")
		lines += strings.Count(entry, "\n") + 1
		if i == m.cursor {
			cursorBottom = lines - 1
		}
	}
	m.timeline.SetContent(strings.TrimRight(b.String(), "\n"))

	switch {
	case cursorTop < m.timeline.YOffset:
		m.timeline.SetYOffset(cursorTop)
	case cursorBottom >= m.timeline.YOffset+m.timeline.Height:
		m.timeline.SetYOffset(cursorBottom - m.timeline.Height + 1)
	}
}

func (m Model) renderEntry(i int, view webui.EventView) string {
	marker := "  "
	if i == m.cursor {
		marker = m.theme.cursor.Render("> ")
	}
	typeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(view.Color)).Bold(true)

	header := fmt.Sprintf("%s%s  %s", marker, typeStyle.Render(view.Type), m.theme.muted.Render(view.Time))
	route := "From: " + view.From
	if view.To != "" {
		route += " → " + view.To
	}
	lines := []string{
		header,
		"   " + route,
		"   " + view.Summary,
	}
	if m.expanded[m.state.Events[i].ID] && view.Raw != "" {
		lines = append(lines, m.theme.raw.Render(view.Raw))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if n <= 3 {
		n = 4
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
