package storage

import (
	"fmt"
	"time"
)

const rollupSQL = `
	INSERT INTO poll_daily (date, polls, failures, avg_duration_ms, max_kept)
	SELECT
		date(polled_at) AS date,
		COUNT(*),
		SUM(CASE WHEN ok = 0 AND stale = 0 THEN 1 ELSE 0 END),
		AVG(duration_ms),
		MAX(kept)
	FROM poll_log
	WHERE %s
	GROUP BY date(polled_at)
	ON CONFLICT(date) DO UPDATE SET
		polls = excluded.polls,
		failures = excluded.failures,
		avg_duration_ms = excluded.avg_duration_ms,
		max_kept = excluded.max_kept
`

// runDailyAggregation refreshes the rollup row for the day containing now.
func (s *SQLiteJournal) runDailyAggregation(now time.Time) error {
	day := now.UTC().Format("2006-01-02")
	if _, err := s.db.Exec(fmt.Sprintf(rollupSQL, "date(polled_at) = ?"), day); err != nil {
		return fmt.Errorf("daily aggregation: %w", err)
	}
	return nil
}

// aggregateBefore rolls up every day that has polls older than cutoff.
// Days straddling the cutoff are recomputed from all their rows.
func (s *SQLiteJournal) aggregateBefore(cutoff string) error {
	_, err := s.db.Exec(fmt.Sprintf(rollupSQL,
		"date(polled_at) IN (SELECT DISTINCT date(polled_at) FROM poll_log WHERE polled_at < ?)"), cutoff)
	return err
}

// DailyPollStats is one rolled-up day of polling.
type DailyPollStats struct {
	Date          string
	Polls         int
	Failures      int
	AvgDurationMS float64
	MaxKept       int
}

// DailyPolls returns the rollups for the last days, newest first.
func (s *SQLiteJournal) DailyPolls(days int) []DailyPollStats {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
	rows, err := s.db.Query(`
		SELECT date, polls, failures, avg_duration_ms, max_kept
		FROM poll_daily WHERE date >= ? ORDER BY date DESC
	`, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("querying daily polls")
		return nil
	}
	defer func() { _ = rows.Close() }()

	var out []DailyPollStats
	for rows.Next() {
		var d DailyPollStats
		if err := rows.Scan(&d.Date, &d.Polls, &d.Failures, &d.AvgDurationMS, &d.MaxKept); err != nil {
			s.log.Error().Err(err).Msg("scanning daily poll row")
			continue
		}
		out = append(out, d)
	}
	return out
}
