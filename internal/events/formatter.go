// Package events provides formatting and buffering of alert subsystem
// activity for display.
package events

import (
	"fmt"
	"strings"
	"time"
)

const maxMessageLen = 80

func boolPtr(v bool) *bool { return &v }

func stamp(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now()
	}
	return at
}

// PollSucceeded records a refresh that replaced the alert set.
func PollSucceeded(at time.Time, kept, expired int) Entry {
	text := fmt.Sprintf("Poll ok: %d alert%s", kept, plural(kept))
	if expired > 0 {
		text += fmt.Sprintf(", %d expired", expired)
	}
	return Entry{Kind: KindPoll, Text: text, Timestamp: stamp(at), Success: boolPtr(true)}
}

// PollFailed records a refresh that left the alert set untouched.
func PollFailed(at time.Time, err error) Entry {
	return Entry{
		Kind:      KindPoll,
		Text:      "Poll failed: " + truncate(errText(err), maxMessageLen),
		Timestamp: stamp(at),
		Success:   boolPtr(false),
	}
}

// PollStale records a response discarded because a newer request was issued.
func PollStale(at time.Time) Entry {
	return Entry{Kind: KindPoll, Text: "Poll response superseded, discarded", Timestamp: stamp(at)}
}

// Reported records an immediate event submission.
func Reported(at time.Time, severity, message string, err error) Entry {
	e := Entry{Kind: KindReport, Severity: severity, Timestamp: stamp(at)}
	short := truncate(message, maxMessageLen)
	if err != nil {
		e.Text = fmt.Sprintf("Report %s %q shown locally, submit failed: %s", severity, short, truncate(errText(err), maxMessageLen))
		e.Success = boolPtr(false)
		return e
	}
	e.Text = fmt.Sprintf("Report %s %q submitted", severity, short)
	e.Success = boolPtr(true)
	return e
}

// ReportSkipped records an immediate event that duplicated a shown alert.
func ReportSkipped(at time.Time, severity, message string) Entry {
	return Entry{
		Kind:      KindReport,
		Severity:  severity,
		Text:      fmt.Sprintf("Report %s %q skipped, already shown", severity, truncate(message, maxMessageLen)),
		Timestamp: stamp(at),
	}
}

// Intake records records received by the OTLP receiver.
func Intake(at time.Time, transport string, accepted, skipped int) Entry {
	text := fmt.Sprintf("Intake %s: %d event%s", transport, accepted, plural(accepted))
	if skipped > 0 {
		text += fmt.Sprintf(", %d skipped", skipped)
	}
	return Entry{Kind: KindIntake, Text: text, Timestamp: stamp(at)}
}

// RotationReset records the presenter restarting on a new ranked list.
func RotationReset(at time.Time, size int) Entry {
	if size == 0 {
		return Entry{Kind: KindRotation, Text: "Banner cleared", Timestamp: stamp(at)}
	}
	return Entry{
		Kind:      KindRotation,
		Text:      fmt.Sprintf("Banner rotating %d alert%s", size, plural(size)),
		Timestamp: stamp(at),
	}
}

// Control records an operator action such as pausing polling.
func Control(at time.Time, text string) Entry {
	return Entry{Kind: KindControl, Text: text, Timestamp: stamp(at)}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// truncate shortens s to at most n runes and flattens newlines.
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
