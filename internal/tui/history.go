package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nixlim/mission-control/internal/alerts"
	"github.com/nixlim/mission-control/internal/storage"
)

const (
	historySummaryHours = 24
	historyAlertLimit   = 50
	historyReportLimit  = 20
	historyDailyDays    = 14
)

// dailyPollProvider is implemented by journals that keep daily rollups.
type dailyPollProvider interface {
	DailyPolls(days int) []storage.DailyPollStats
}

func (m Model) renderHistory() string {
	var sb strings.Builder

	sb.WriteString(m.renderHeader(" [History]", "Up/Down:Scroll  Tab:Dashboard  q:Quit "))
	sb.WriteByte('\n')

	if !m.isPersistent || m.journal == nil {
		sb.WriteByte('\n')
		sb.WriteString(dimStyle.Render("  persistence is disabled, set storage.db_path to keep a journal"))
		sb.WriteByte('\n')
		return sb.String()
	}

	var rows []string
	rows = append(rows, m.pollSummaryRows()...)
	rows = append(rows, "")
	if daily := m.dailyPollRows(); len(daily) > 0 {
		rows = append(rows, daily...)
		rows = append(rows, "")
	}
	rows = append(rows, m.alertHistoryRows()...)
	rows = append(rows, "")
	rows = append(rows, m.reportHistoryRows()...)

	visibleH := m.height - 2
	if visibleH < 1 {
		visibleH = len(rows)
	}
	startIdx := m.historyScrollPos
	if startIdx > len(rows)-visibleH {
		startIdx = len(rows) - visibleH
	}
	if startIdx < 0 {
		startIdx = 0
	}
	endIdx := min(startIdx+visibleH, len(rows))

	sb.WriteByte('\n')
	for _, r := range rows[startIdx:endIdx] {
		sb.WriteString(r)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (m Model) pollSummaryRows() []string {
	s := m.journal.PollSummary(historySummaryHours)
	rows := []string{panelTitleStyle.Render(fmt.Sprintf("  Polls, last %dh", historySummaryHours))}
	if s.Total == 0 {
		return append(rows, dimStyle.Render("  No polls recorded"))
	}

	last := "never"
	if !s.LastSuccess.IsZero() {
		last = s.LastSuccess.Local().Format("2006-01-02 " + m.timeFormat())
	}
	rows = append(rows,
		fmt.Sprintf("  %d total  %d ok  %d failed  %d stale  avg %s",
			s.Total, s.Succeeded, s.Failed, s.Stale, s.AvgDuration.Round(time.Millisecond)),
		"  last success: "+last,
	)
	return rows
}

func (m Model) dailyPollRows() []string {
	dp, ok := m.journal.(dailyPollProvider)
	if !ok {
		return nil
	}
	days := dp.DailyPolls(historyDailyDays)
	if len(days) == 0 {
		return nil
	}

	rows := []string{
		panelTitleStyle.Render("  Daily polls"),
		fmt.Sprintf("  %-12s %8s %9s %10s %9s", "Date", "Polls", "Failures", "Avg", "Max kept"),
		dimStyle.Render("  " + strings.Repeat("─", 52)),
	}
	for _, d := range days {
		rows = append(rows, fmt.Sprintf("  %-12s %8d %9d %8.0fms %9d",
			d.Date, d.Polls, d.Failures, d.AvgDurationMS, d.MaxKept))
	}
	return rows
}

func (m Model) alertHistoryRows() []string {
	recs := m.journal.RecentAlerts(historyAlertLimit)
	rows := []string{panelTitleStyle.Render("  Alerts seen")}
	if len(recs) == 0 {
		return append(rows, dimStyle.Render("  No alerts recorded"))
	}

	rows = append(rows,
		fmt.Sprintf("  %-9s %-40s %-19s %-19s %6s", "Severity", "Message", "First seen", "Last seen", "Times"),
		dimStyle.Render("  "+strings.Repeat("─", 97)),
	)
	for _, r := range recs {
		line := fmt.Sprintf("  %-9s %-40s %-19s %-19s %6d",
			r.Severity,
			truncateStr(flattenMessage(r.Message), 40),
			r.FirstSeen.Local().Format("2006-01-02 15:04:05"),
			r.LastSeen.Local().Format("2006-01-02 15:04:05"),
			r.TimesSeen)
		rows = append(rows, styleForSeverity(r.Severity).Render(line))
	}
	return rows
}

func (m Model) reportHistoryRows() []string {
	recs := m.journal.RecentReports(historyReportLimit)
	rows := []string{panelTitleStyle.Render("  Reported events")}
	if len(recs) == 0 {
		return append(rows, dimStyle.Render("  No events reported"))
	}

	for _, r := range recs {
		status := "submitted"
		if !r.Submitted {
			status = "failed: " + truncateStr(r.Error, 30)
		}
		rows = append(rows, fmt.Sprintf("  %s %-9s %-40s %-12s %s",
			r.At.Local().Format("2006-01-02 15:04:05"),
			r.Severity,
			truncateStr(flattenMessage(r.Message), 40),
			r.Source,
			status))
	}
	return rows
}

func styleForSeverity(s alerts.Severity) lipgloss.Style {
	switch s {
	case alerts.SeverityCritical:
		return alertCriticalStyle
	case alerts.SeverityWarning:
		return alertWarningStyle
	default:
		return normalRowStyle
	}
}
