package tui

import (
	"fmt"
	"strings"

	"github.com/nixlim/mission-control/internal/alerts"
)

// renderAlertListPanel renders every active alert in display order.
func (m Model) renderAlertListPanel(w, h int) string {
	contentW := w - 4
	if contentW < 10 {
		contentW = 10
	}
	contentH := h - 2
	if contentH < 1 {
		contentH = 1
	}

	counts := alerts.CountBySeverity(m.cachedList)
	title := panelTitleStyle.Render("Alerts") + dimStyle.Render(fmt.Sprintf(" %d critical  %d warning  %d normal",
		counts[alerts.SeverityCritical], counts[alerts.SeverityWarning], counts[alerts.SeverityNormal]))

	lines := []string{title}

	if len(m.cachedList) == 0 {
		lines = append(lines, "", dimStyle.Render("No active alerts"))
		return renderBorderedPanel(strings.Join(lines, "\n"), w, h)
	}

	visible := contentH - 1
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.alertCursor >= visible {
		start = m.alertCursor - visible + 1
	}
	end := min(start+visible, len(m.cachedList))

	for i := start; i < end; i++ {
		line := formatAlertRow(m.cachedList[i], m.timeFormat(), contentW)
		if i == m.alertCursor {
			line = cursorStyle.Render(stripAnsi(line))
		}
		lines = append(lines, line)
	}

	return renderBorderedPanel(strings.Join(lines, "\n"), w, h)
}

func formatAlertRow(a alerts.Item, timeFormat string, maxW int) string {
	icon := severityIcons[a.Severity]
	ts := a.Timestamp.Format(timeFormat)
	msgW := maxW - len(icon) - len(ts) - 3
	if msgW < 4 {
		msgW = 4
	}
	msg := truncateStr(flattenMessage(a.Message), msgW)

	return styleForSeverity(a.Severity).Render(fmt.Sprintf("%-4s %-*s", icon, msgW, msg)) + " " + dimStyle.Render(ts)
}
