package events

import "time"

// Kind classifies an activity entry.
type Kind string

const (
	KindPoll     Kind = "poll"
	KindReport   Kind = "report"
	KindIntake   Kind = "intake"
	KindRotation Kind = "rotation"
	KindControl  Kind = "control"
)

// Entry is one display-ready line of subsystem activity.
type Entry struct {
	Kind      Kind
	Severity  string // alert severity the entry concerns, empty if none
	Text      string
	Timestamp time.Time
	Success   *bool // nil if not applicable
}
