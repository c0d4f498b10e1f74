package globalstate

import (
	"context"
	"strings"

	"github.com/nixlim/mission-control/internal/alerts"
	"github.com/nixlim/mission-control/internal/events"
	"github.com/nixlim/mission-control/internal/metrics"
	"github.com/nixlim/mission-control/internal/statusapi"
	"github.com/nixlim/mission-control/internal/storage"
)

// DefaultReportTimeoutSeconds is how long a submitted event stays active
// upstream unless the event says otherwise.
const DefaultReportTimeoutSeconds = 3600

// UnauthorizedAccessMessage is the text of the security warning.
const UnauthorizedAccessMessage = "SECURITY ALERT: Unauthorized system access attempt has been detected and logged"

// Creator submits a global state record.
type Creator interface {
	CreateGlobalState(ctx context.Context, rec statusapi.Record) (*statusapi.Response, error)
}

// Event is an immediate alert raised locally.
type Event struct {
	Severity alerts.Severity
	Message  string
	// TimeoutSeconds overrides the default upstream timeout when > 0.
	TimeoutSeconds float64
	// Source names the origin (tui, otlp-grpc, cli) for the journal.
	Source string
}

// Reporter shows immediate events locally and submits them upstream.
type Reporter struct {
	deps
	creator Creator
	store   *alerts.Store
}

func NewReporter(c Creator, store *alerts.Store, opts ...Option) *Reporter {
	r := &Reporter{deps: defaultDeps(), creator: c, store: store}
	for _, opt := range opts {
		opt(&r.deps)
	}
	r.log = r.log.With().Str("component", "reporter").Logger()
	return r
}

// Report adds ev to the store and submits it. If an alert with the same
// severity and message is already shown nothing happens and false is
// returned. A failed submission is logged; the local alert stays.
func (r *Reporter) Report(ctx context.Context, ev Event) (alerts.Item, bool) {
	msg := strings.TrimSpace(ev.Message)
	if msg == "" {
		msg = DefaultReason
	}

	item, added := r.store.AddUnique(alerts.Draft{
		ID:       r.newID(),
		Message:  msg,
		Severity: ev.Severity,
	})
	if !added {
		r.log.Debug().Str("severity", string(ev.Severity)).Str("message", msg).Msg("event already shown, not reported")
		r.metrics.Report(metrics.ReportDuplicate)
		r.addFeed(events.ReportSkipped(r.now(), string(ev.Severity), msg))
		return item, false
	}

	timeout := r.reportTimeout
	if ev.TimeoutSeconds > 0 {
		timeout = ev.TimeoutSeconds
	}

	rec := statusapi.Record{
		ID:        statusapi.Ptr(item.ID),
		State:     string(item.Severity),
		Reason:    statusapi.Ptr(item.Message),
		Timeout:   statusapi.Ptr(timeout),
		CreatedAt: statusapi.Ptr(statusapi.FormatTime(item.Timestamp)),
	}

	_, err := r.creator.CreateGlobalState(ctx, rec)

	journalRec := storage.ReportRecord{
		At:        item.Timestamp,
		ID:        item.ID,
		Severity:  item.Severity,
		Message:   item.Message,
		Source:    ev.Source,
		Submitted: err == nil,
	}
	if err != nil {
		journalRec.Error = err.Error()
		r.log.Warn().Err(err).Str("id", item.ID).Str("severity", string(item.Severity)).Msg("failed to submit event, keeping local alert")
		r.metrics.Report(metrics.ReportFailed)
	} else {
		r.log.Info().Str("id", item.ID).Str("severity", string(item.Severity)).Msg("event submitted")
		r.metrics.Report(metrics.ReportSubmitted)
	}
	r.addFeed(events.Reported(r.now(), string(item.Severity), item.Message, err))
	if r.journal != nil {
		r.journal.RecordReport(journalRec)
	}
	return item, true
}

// ReportUnauthorizedAccess raises the standard security warning.
func (r *Reporter) ReportUnauthorizedAccess(ctx context.Context, source string) (alerts.Item, bool) {
	return r.Report(ctx, Event{
		Severity: alerts.SeverityWarning,
		Message:  UnauthorizedAccessMessage,
		Source:   source,
	})
}
