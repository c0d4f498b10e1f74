// Package storage keeps a local journal of what the alert banner showed,
// the outcome of each poll and every immediate event reported.
package storage

import (
	"time"

	"github.com/nixlim/mission-control/internal/alerts"
)

// AlertRecord is one (severity, message) pair as observed over time.
type AlertRecord struct {
	Severity  alerts.Severity
	Message   string
	LastID    string
	FirstSeen time.Time
	LastSeen  time.Time
	TimesSeen int
}

// PollRecord is the outcome of one fetch cycle.
type PollRecord struct {
	At       time.Time
	OK       bool
	Stale    bool
	Kept     int
	Expired  int
	Duration time.Duration
	Error    string
}

// ReportRecord is one immediate event submission.
type ReportRecord struct {
	At        time.Time
	ID        string
	Severity  alerts.Severity
	Message   string
	Source    string
	Submitted bool
	Error     string
}

// PollSummary aggregates poll outcomes over a window.
type PollSummary struct {
	Total       int
	Succeeded   int
	Failed      int
	Stale       int
	AvgDuration time.Duration
	LastSuccess time.Time
}

// Journal records alert activity. Writes never block the caller.
type Journal interface {
	RecordSnapshot(items []alerts.Item)
	RecordPoll(p PollRecord)
	RecordReport(r ReportRecord)
	RecentAlerts(limit int) []AlertRecord
	RecentReports(limit int) []ReportRecord
	PollSummary(hours int) PollSummary
	DroppedWrites() int64
	Close() error
}

func summarize(polls []PollRecord) PollSummary {
	var s PollSummary
	var total time.Duration
	for _, p := range polls {
		s.Total++
		total += p.Duration
		switch {
		case p.Stale:
			s.Stale++
		case p.OK:
			s.Succeeded++
			if p.At.After(s.LastSuccess) {
				s.LastSuccess = p.At
			}
		default:
			s.Failed++
		}
	}
	if s.Total > 0 {
		s.AvgDuration = total / time.Duration(s.Total)
	}
	return s
}
