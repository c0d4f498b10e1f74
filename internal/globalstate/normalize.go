// Package globalstate synchronizes the alert store with the Status API:
// it polls and normalizes the global state list and submits immediate
// events.
package globalstate

import (
	"strings"
	"time"

	"github.com/nixlim/mission-control/internal/alerts"
	"github.com/nixlim/mission-control/internal/statusapi"
)

// DefaultReason is shown for records that carry no reason.
const DefaultReason = "System status update"

// createdAtLayouts are tried in order when parsing createdAt.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseCreatedAt(s *string) time.Time {
	if s == nil {
		return time.Unix(0, 0)
	}
	v := strings.TrimSpace(*s)
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Unix(0, 0)
}

// Expired reports whether rec has outlived its timeout at now. Records
// without a timeout, or with a zero timeout, never expire. A record with a
// timeout but no usable createdAt counts as created at the Unix epoch.
func Expired(rec statusapi.Record, now time.Time) bool {
	if rec.Timeout == nil || *rec.Timeout == 0 {
		return false
	}
	elapsedMS := float64(now.Sub(parseCreatedAt(rec.CreatedAt))) / float64(time.Millisecond)
	return elapsedMS > *rec.Timeout*1000
}

// Normalize turns wire records into drafts, dropping expired ones. It
// returns the drafts in input order and the number of records dropped.
func Normalize(records []statusapi.Record, now time.Time, newID func() string) ([]alerts.Draft, int) {
	drafts := make([]alerts.Draft, 0, len(records))
	expired := 0
	for _, rec := range records {
		if Expired(rec, now) {
			expired++
			continue
		}
		drafts = append(drafts, normalizeRecord(rec, newID))
	}
	return drafts, expired
}

func normalizeRecord(rec statusapi.Record, newID func() string) alerts.Draft {
	id := ""
	if rec.ID != nil {
		id = strings.TrimSpace(*rec.ID)
	}
	if id == "" {
		id = newID()
	}

	msg := ""
	if rec.Reason != nil {
		msg = strings.TrimSpace(*rec.Reason)
	}
	if msg == "" {
		msg = DefaultReason
	}

	return alerts.Draft{
		ID:       id,
		Message:  msg,
		Severity: alerts.ParseSeverity(rec.State),
	}
}
