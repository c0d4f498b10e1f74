package storage

import (
	"database/sql"
	"time"

	"github.com/nixlim/mission-control/internal/alerts"
)

func parseTS(s string) time.Time {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

// RecentAlerts returns the most recently seen alerts first.
func (s *SQLiteJournal) RecentAlerts(limit int) []AlertRecord {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT severity, message, last_id, first_seen, last_seen, times_seen
		FROM alert_observations
		ORDER BY last_seen DESC
		LIMIT ?
	`, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("querying recent alerts")
		return nil
	}
	defer func() { _ = rows.Close() }()

	var result []AlertRecord
	for rows.Next() {
		var sev, first, last string
		var lastID sql.NullString
		var rec AlertRecord
		if err := rows.Scan(&sev, &rec.Message, &lastID, &first, &last, &rec.TimesSeen); err != nil {
			s.log.Error().Err(err).Msg("scanning alert row")
			continue
		}
		rec.Severity = alerts.Severity(sev)
		rec.LastID = lastID.String
		rec.FirstSeen = parseTS(first)
		rec.LastSeen = parseTS(last)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		s.log.Error().Err(err).Msg("iterating alert rows")
	}
	return result
}

// RecentReports returns the newest reports first.
func (s *SQLiteJournal) RecentReports(limit int) []ReportRecord {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT reported_at, alert_id, severity, message, source, submitted, error
		FROM reports
		ORDER BY reported_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("querying recent reports")
		return nil
	}
	defer func() { _ = rows.Close() }()

	var result []ReportRecord
	for rows.Next() {
		var at, sev string
		var source, errText sql.NullString
		var submitted int
		var r ReportRecord
		if err := rows.Scan(&at, &r.ID, &sev, &r.Message, &source, &submitted, &errText); err != nil {
			s.log.Error().Err(err).Msg("scanning report row")
			continue
		}
		r.At = parseTS(at)
		r.Severity = alerts.Severity(sev)
		r.Source = source.String
		r.Submitted = submitted == 1
		r.Error = errText.String
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		s.log.Error().Err(err).Msg("iterating report rows")
	}
	return result
}

// PollSummary aggregates poll_log rows from the last hours.
func (s *SQLiteJournal) PollSummary(hours int) PollSummary {
	cutoff := formatTS(time.Now().Add(-time.Duration(hours) * time.Hour))

	var sum PollSummary
	var avgMS sql.NullFloat64
	var lastOK sql.NullString
	err := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN ok = 1 AND stale = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN ok = 0 AND stale = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(stale), 0),
			AVG(duration_ms),
			MAX(CASE WHEN ok = 1 AND stale = 0 THEN polled_at END)
		FROM poll_log
		WHERE polled_at >= ?
	`, cutoff).Scan(&sum.Total, &sum.Succeeded, &sum.Failed, &sum.Stale, &avgMS, &lastOK)
	if err != nil {
		s.log.Error().Err(err).Msg("querying poll summary")
		return PollSummary{}
	}
	if avgMS.Valid {
		sum.AvgDuration = time.Duration(avgMS.Float64 * float64(time.Millisecond))
	}
	if lastOK.Valid {
		sum.LastSuccess = parseTS(lastOK.String)
	}
	return sum
}
