package storage

import (
	"database/sql"
	"math"
)

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// sanitizeFloat replaces NaN and Inf with 0.0.
func sanitizeFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.0
	}
	return v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func writeObservations(tx *sql.Tx, rows []observationRow) error {
	stmt, err := tx.Prepare(`
		INSERT INTO alert_observations (severity, message, last_id, first_seen, last_seen, times_seen)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT(severity, message) DO UPDATE SET
			last_id=excluded.last_id,
			last_seen=MAX(alert_observations.last_seen, excluded.last_seen),
			times_seen=alert_observations.times_seen + 1
	`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range rows {
		if _, err := stmt.Exec(r.Severity, r.Message, r.ID, r.SeenAt, r.SeenAt); err != nil {
			return err
		}
	}
	return nil
}

func writePoll(tx *sql.Tx, p *PollRecord) error {
	_, err := tx.Exec(`
		INSERT INTO poll_log (polled_at, ok, stale, kept, expired, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		formatTS(p.At),
		boolInt(p.OK),
		boolInt(p.Stale),
		p.Kept,
		p.Expired,
		sanitizeFloat(float64(p.Duration)/float64(1e6)),
		nullString(p.Error),
	)
	return err
}

func writeReport(tx *sql.Tx, r *ReportRecord) error {
	_, err := tx.Exec(`
		INSERT INTO reports (reported_at, alert_id, severity, message, source, submitted, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		formatTS(r.At),
		r.ID,
		string(r.Severity),
		r.Message,
		nullString(r.Source),
		boolInt(r.Submitted),
		nullString(r.Error),
	)
	return err
}
