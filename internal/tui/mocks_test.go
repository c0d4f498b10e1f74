package tui

import (
	"time"

	"github.com/nixlim/mission-control/internal/alerts"
	"github.com/nixlim/mission-control/internal/events"
	"github.com/nixlim/mission-control/internal/rotation"
	"github.com/nixlim/mission-control/internal/storage"
)

type mockBannerProvider struct {
	view rotation.View
}

func (m *mockBannerProvider) View() rotation.View { return m.view }

type mockAlertListProvider struct {
	items []alerts.Item
}

func (m *mockAlertListProvider) Snapshot() alerts.Snapshot {
	return alerts.Snapshot{Items: m.items}
}

type mockEventProvider struct {
	entries []events.Entry
}

func (m *mockEventProvider) Recent(limit int) []events.Entry {
	if limit < len(m.entries) {
		return m.entries[len(m.entries)-limit:]
	}
	return m.entries
}

type mockPollControl struct {
	running   bool
	busy      bool
	refreshes int
	pauses    int
	resumes   int
}

func (m *mockPollControl) Running() bool { return m.running }
func (m *mockPollControl) Pause()        { m.running = false; m.pauses++ }
func (m *mockPollControl) Resume()       { m.running = true; m.resumes++ }
func (m *mockPollControl) RefreshNow() bool {
	if m.busy {
		return false
	}
	m.refreshes++
	return true
}

type mockJournal struct {
	alerts  []storage.AlertRecord
	reports []storage.ReportRecord
	summary storage.PollSummary
	dropped int64
}

func (m *mockJournal) RecentAlerts(int) []storage.AlertRecord   { return m.alerts }
func (m *mockJournal) RecentReports(int) []storage.ReportRecord { return m.reports }
func (m *mockJournal) PollSummary(int) storage.PollSummary      { return m.summary }
func (m *mockJournal) DroppedWrites() int64                     { return m.dropped }

var testTime = time.Date(2026, 3, 1, 14, 5, 9, 0, time.Local)

func item(id string, sev alerts.Severity, msg string) alerts.Item {
	return alerts.Item{ID: id, Severity: sev, Message: msg, Timestamp: testTime}
}
