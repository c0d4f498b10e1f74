package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nixlim/mission-control/internal/alerts"
	"github.com/nixlim/mission-control/internal/rotation"
)

const sirenMarker = "🚨"

var severityIcons = map[alerts.Severity]string{
	alerts.SeverityCritical: "[!!]",
	alerts.SeverityWarning:  "[!]",
	alerts.SeverityNormal:   "[i]",
}

var bannerStyles = map[alerts.Severity]lipgloss.Style{
	alerts.SeverityCritical: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("196")),
	alerts.SeverityWarning: lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("226")),
	alerts.SeverityNormal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("240")),
}

var (
	dotStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	activeDotStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
)

// bannerLines is the height of the banner when it is visible.
const bannerLines = 2

// renderBanner draws the rotating alert strip. It returns an empty string
// when there is nothing to show.
func (m Model) renderBanner(w int) string {
	v := m.cachedBanner
	if !v.Visible {
		return ""
	}

	style, ok := bannerStyles[v.Item.Severity]
	if !ok {
		style = bannerStyles[alerts.SeverityNormal]
	}

	ts := v.Item.Timestamp.Format(m.timeFormat())
	msg := flattenMessage(v.Item.Message)

	prefix := " " + severityIcons[v.Item.Severity] + " "
	suffix := "  " + ts + " "
	if v.Item.Severity == alerts.SeverityCritical {
		prefix = " " + sirenMarker + prefix
		suffix = suffix + sirenMarker + " "
	}

	avail := w - lipgloss.Width(prefix) - lipgloss.Width(suffix)
	if avail < 4 {
		avail = 4
	}
	msg = truncateStr(msg, avail)

	padding := w - lipgloss.Width(prefix) - lipgloss.Width(msg) - lipgloss.Width(suffix)
	if padding < 0 {
		padding = 0
	}
	line := style.Render(prefix + msg + strings.Repeat(" ", padding) + suffix)

	return line + "\n" + renderDots(v, w)
}

// renderDots draws one dot per ranked item with the current one
// highlighted. A single item gets a blank row.
func renderDots(v rotation.View, w int) string {
	if v.Len <= 1 {
		return ""
	}
	dots := make([]string, 0, v.Len)
	for i := range v.Len {
		if i == v.Index {
			dots = append(dots, activeDotStyle.Render("●"))
		} else {
			dots = append(dots, dotStyle.Render("○"))
		}
	}
	row := strings.Join(dots, " ")
	return lipgloss.PlaceHorizontal(w, lipgloss.Center, row)
}

func (m Model) timeFormat() string {
	if m.cfg.Display.TimeFormat == "" {
		return "15:04:05"
	}
	return m.cfg.Display.TimeFormat
}

func flattenMessage(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateStr shortens s to maxLen display cells, ending with "...".
func truncateStr(s string, maxLen int) string {
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		for len(r) > 0 && lipgloss.Width(string(r)) > maxLen {
			r = r[:len(r)-1]
		}
		return string(r)
	}
	for len(r) > 0 && lipgloss.Width(string(r))+3 > maxLen {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
