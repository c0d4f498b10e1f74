package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nixlim/mission-control/internal/events"
)

// kindIcons maps activity kinds to their display icons.
var kindIcons = map[events.Kind]string{
	events.KindPoll:     "<<",
	events.KindReport:   ">>",
	events.KindIntake:   "OT",
	events.KindRotation: "RB",
	events.KindControl:  "::",
}

var kindStyles = map[events.Kind]lipgloss.Style{
	events.KindPoll:     lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
	events.KindReport:   lipgloss.NewStyle().Foreground(lipgloss.Color("222")),
	events.KindIntake:   lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
	events.KindRotation: lipgloss.NewStyle().Foreground(lipgloss.Color("183")),
	events.KindControl:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

var failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

// renderEventStreamPanel renders the activity feed, newest at the bottom.
func (m Model) renderEventStreamPanel(w, h int) string {
	contentW := w - 4
	if contentW < 10 {
		contentW = 10
	}
	contentH := h - 2
	if contentH < 1 {
		contentH = 1
	}

	lines := []string{panelTitleStyle.Render("Activity")}

	visible := contentH - 1
	if visible < 1 {
		visible = 1
	}

	var entries []events.Entry
	if m.events != nil {
		entries = m.events.Recent(visible)
	}
	if len(entries) == 0 {
		lines = append(lines, "", dimStyle.Render("No activity yet"))
		return renderBorderedPanel(strings.Join(lines, "\n"), w, h)
	}

	for _, e := range entries {
		lines = append(lines, renderEventLine(e, m.timeFormat(), contentW))
	}
	return renderBorderedPanel(strings.Join(lines, "\n"), w, h)
}

func renderEventLine(e events.Entry, timeFormat string, maxW int) string {
	icon, ok := kindIcons[e.Kind]
	if !ok {
		icon = "  "
	}
	style, ok := kindStyles[e.Kind]
	if !ok {
		style = dimStyle
	}
	if e.Success != nil && !*e.Success {
		style = failureStyle
	}

	ts := e.Timestamp.Format(timeFormat)
	textW := maxW - len(icon) - len(ts) - 2
	if textW < 4 {
		textW = 4
	}
	return dimStyle.Render(ts) + " " + style.Render(icon) + " " + style.Render(truncateStr(e.Text, textW))
}
