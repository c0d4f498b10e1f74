package receiver

import (
	"context"
	"strconv"
	"strings"
	"time"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"

	"github.com/nixlim/mission-control/internal/alerts"
	"github.com/nixlim/mission-control/internal/events"
	"github.com/nixlim/mission-control/internal/globalstate"
)

// Attribute keys understood on incoming log records.
const (
	AttrSeverity = "mission.severity"
	AttrMessage  = "mission.message"
	AttrTimeout  = "mission.timeout_seconds"
)

// Record outcomes.
const (
	OutcomeReported  = "reported"
	OutcomeDuplicate = "duplicate"
	OutcomeSkipped   = "skipped"
)

// Reporter receives the events mapped from log records.
type Reporter interface {
	Report(ctx context.Context, ev globalstate.Event) (alerts.Item, bool)
}

// Record is one received log record after mapping.
type Record struct {
	Event      globalstate.Event
	Timestamp  time.Time
	Attributes map[string]string
	Outcome    string
}

func anyValueString(v *commonpb.AnyValue) string {
	if v == nil {
		return ""
	}
	switch val := v.Value.(type) {
	case *commonpb.AnyValue_StringValue:
		return val.StringValue
	case *commonpb.AnyValue_IntValue:
		return strconv.FormatInt(val.IntValue, 10)
	case *commonpb.AnyValue_DoubleValue:
		return strconv.FormatFloat(val.DoubleValue, 'f', -1, 64)
	case *commonpb.AnyValue_BoolValue:
		return strconv.FormatBool(val.BoolValue)
	default:
		return ""
	}
}

func attributeMap(kvs []*commonpb.KeyValue) map[string]string {
	if len(kvs) == 0 {
		return nil
	}
	m := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		m[kv.GetKey()] = anyValueString(kv.GetValue())
	}
	return m
}

// severityOf picks the alert severity for a record: the mission.severity
// attribute wins, then SeverityNumber, then SeverityText.
func severityOf(lr *logspb.LogRecord, attrs map[string]string) alerts.Severity {
	if label, ok := attrs[AttrSeverity]; ok && strings.TrimSpace(label) != "" {
		return alerts.ParseSeverity(label)
	}

	switch n := lr.GetSeverityNumber(); {
	case n >= logspb.SeverityNumber_SEVERITY_NUMBER_ERROR:
		return alerts.SeverityCritical
	case n >= logspb.SeverityNumber_SEVERITY_NUMBER_WARN:
		return alerts.SeverityWarning
	case n != logspb.SeverityNumber_SEVERITY_NUMBER_UNSPECIFIED:
		return alerts.SeverityNormal
	}

	switch strings.ToLower(strings.TrimSpace(lr.GetSeverityText())) {
	case "critical", "fatal", "error":
		return alerts.SeverityCritical
	case "warn", "warning":
		return alerts.SeverityWarning
	default:
		return alerts.SeverityNormal
	}
}

// MapRecord converts a log record into an event. Records with neither a
// string body nor a mission.message attribute are rejected.
func MapRecord(lr *logspb.LogRecord, source string) (Record, bool) {
	attrs := attributeMap(lr.GetAttributes())

	msg := strings.TrimSpace(lr.GetBody().GetStringValue())
	if msg == "" {
		msg = strings.TrimSpace(attrs[AttrMessage])
	}

	rec := Record{Attributes: attrs}
	if ts := lr.GetTimeUnixNano(); ts > 0 {
		rec.Timestamp = time.Unix(0, int64(ts))
	} else if ts := lr.GetObservedTimeUnixNano(); ts > 0 {
		rec.Timestamp = time.Unix(0, int64(ts))
	}

	if msg == "" {
		rec.Outcome = OutcomeSkipped
		return rec, false
	}

	rec.Event = globalstate.Event{
		Severity: severityOf(lr, attrs),
		Message:  msg,
		Source:   source,
	}
	if raw, ok := attrs[AttrTimeout]; ok {
		if secs, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && secs > 0 {
			rec.Event.TimeoutSeconds = secs
		}
	}
	return rec, true
}

// intake is the transport-independent part of the receivers.
type intake struct {
	reporter Reporter
	deps
}

// process maps and reports every record in rls. It returns the number of
// records turned into events and the number skipped.
func (in *intake) process(ctx context.Context, transport string, rls []*logspb.ResourceLogs) (accepted, skipped int) {
	// Submissions must outlive a client that disconnects early.
	ctx = context.WithoutCancel(ctx)
	source := "otlp-" + transport

	for _, rl := range rls {
		for _, sl := range rl.GetScopeLogs() {
			for _, lr := range sl.GetLogRecords() {
				rec, ok := MapRecord(lr, source)
				if !ok {
					skipped++
					in.debug.LogRecord(transport, rec)
					continue
				}
				accepted++
				if _, added := in.reporter.Report(ctx, rec.Event); added {
					rec.Outcome = OutcomeReported
				} else {
					rec.Outcome = OutcomeDuplicate
				}
				in.debug.LogRecord(transport, rec)
			}
		}
	}

	if accepted+skipped > 0 {
		in.metrics.Intake(transport, accepted+skipped)
		if in.feed != nil {
			in.feed.Add(events.Intake(time.Now(), transport, accepted, skipped))
		}
		in.log.Debug().Str("transport", transport).Int("accepted", accepted).Int("skipped", skipped).Msg("log records received")
	}
	return accepted, skipped
}
