package alerts

import (
	"strings"
	"time"
)

// Severity is the urgency of an alert. Severities are totally ordered:
// critical > warning > normal.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ParseSeverity maps a state label to a Severity. Unknown or empty labels
// map to SeverityNormal so one bad record never fails a batch.
func ParseSeverity(label string) Severity {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "critical":
		return SeverityCritical
	case "warning":
		return SeverityWarning
	default:
		return SeverityNormal
	}
}

// SeverityRank returns the display rank of s: critical=0, warning=1,
// normal=2. Lower ranks are shown first.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Draft is an alert before the store stamps it.
type Draft struct {
	ID       string
	Message  string
	Severity Severity
}

// Item is an alert held by the Store.
type Item struct {
	ID        string
	Message   string
	Severity  Severity
	Timestamp time.Time
}

// key is the deduplication identity of an alert.
type key struct {
	severity Severity
	message  string
}

func (i Item) key() key {
	return key{severity: i.Severity, message: i.Message}
}

// Notifier delivers out-of-band notifications for alerts.
type Notifier interface {
	// Notify sends a notification. Implementations must be non-blocking.
	Notify(item Item)
}
