package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/nixlim/mission-control/internal/alerts"
)

const memoryJournalLimit = 1000

type alertKey struct {
	severity alerts.Severity
	message  string
}

// MemoryJournal is the non-persistent Journal used when SQLite is disabled
// or unavailable. It keeps a bounded window of recent activity.
type MemoryJournal struct {
	mu      sync.RWMutex
	alerts  map[alertKey]*AlertRecord
	polls   []PollRecord
	reports []ReportRecord
	now     func() time.Time
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{
		alerts: make(map[alertKey]*AlertRecord),
		now:    time.Now,
	}
}

func (m *MemoryJournal) RecordSnapshot(items []alerts.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, it := range items {
		k := alertKey{it.Severity, it.Message}
		rec, ok := m.alerts[k]
		if !ok {
			if len(m.alerts) >= memoryJournalLimit {
				m.evictOldestLocked()
			}
			rec = &AlertRecord{Severity: it.Severity, Message: it.Message, FirstSeen: it.Timestamp}
			m.alerts[k] = rec
		}
		rec.LastID = it.ID
		rec.LastSeen = it.Timestamp
		rec.TimesSeen++
	}
}

func (m *MemoryJournal) evictOldestLocked() {
	var oldest alertKey
	var oldestAt time.Time
	first := true
	for k, rec := range m.alerts {
		if first || rec.LastSeen.Before(oldestAt) {
			oldest, oldestAt, first = k, rec.LastSeen, false
		}
	}
	delete(m.alerts, oldest)
}

func (m *MemoryJournal) RecordPoll(p PollRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polls = append(m.polls, p)
	if len(m.polls) > memoryJournalLimit {
		m.polls = m.polls[len(m.polls)-memoryJournalLimit:]
	}
}

func (m *MemoryJournal) RecordReport(r ReportRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	if len(m.reports) > memoryJournalLimit {
		m.reports = m.reports[len(m.reports)-memoryJournalLimit:]
	}
}

// RecentAlerts returns the most recently seen alerts first.
func (m *MemoryJournal) RecentAlerts(limit int) []AlertRecord {
	m.mu.RLock()
	result := make([]AlertRecord, 0, len(m.alerts))
	for _, rec := range m.alerts {
		result = append(result, *rec)
	}
	m.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].LastSeen.After(result[j].LastSeen)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// RecentReports returns the newest reports first.
func (m *MemoryJournal) RecentReports(limit int) []ReportRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.reports)
	if limit > 0 && n > limit {
		n = limit
	}
	result := make([]ReportRecord, 0, n)
	for i := len(m.reports) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, m.reports[i])
	}
	return result
}

func (m *MemoryJournal) PollSummary(hours int) PollSummary {
	cutoff := m.now().Add(-time.Duration(hours) * time.Hour)

	m.mu.RLock()
	defer m.mu.RUnlock()
	var window []PollRecord
	for _, p := range m.polls {
		if !p.At.Before(cutoff) {
			window = append(window, p)
		}
	}
	return summarize(window)
}

func (m *MemoryJournal) DroppedWrites() int64 { return 0 }

func (m *MemoryJournal) Close() error { return nil }
