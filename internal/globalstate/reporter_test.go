package globalstate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nixlim/mission-control/internal/alerts"
	"github.com/nixlim/mission-control/internal/statusapi"
	"github.com/nixlim/mission-control/internal/storage"
)

type recordingCreator struct {
	mu   sync.Mutex
	recs []statusapi.Record
	err  error
}

func (c *recordingCreator) CreateGlobalState(_ context.Context, rec statusapi.Record) (*statusapi.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = append(c.recs, rec)
	if c.err != nil {
		return nil, c.err
	}
	return &statusapi.Response{Success: true}, nil
}

func (c *recordingCreator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.recs)
}

func newReporter(c Creator, store *alerts.Store, opts ...Option) *Reporter {
	base := []Option{WithClock(func() time.Time { return now }), WithIDGenerator(seqIDs())}
	return NewReporter(c, store, append(base, opts...)...)
}

func TestReport_AddsAndSubmits(t *testing.T) {
	store := alerts.NewStore(alerts.WithClock(func() time.Time { return now }))
	creator := &recordingCreator{}
	journal := storage.NewMemoryJournal()
	r := newReporter(creator, store, WithJournal(journal))

	item, added := r.Report(context.Background(), Event{Severity: alerts.SeverityCritical, Message: "Hull breach", Source: "test"})
	if !added {
		t.Fatal("expected event to be added")
	}
	if item.ID != "gen-1" || !item.Timestamp.Equal(now) {
		t.Errorf("unexpected item %+v", item)
	}
	if !store.Has(alerts.SeverityCritical, "Hull breach") {
		t.Error("event not in store")
	}

	if creator.count() != 1 {
		t.Fatalf("expected one submission, got %d", creator.count())
	}
	rec := creator.recs[0]
	if *rec.ID != "gen-1" || rec.State != "critical" || *rec.Reason != "Hull breach" {
		t.Errorf("unexpected record %+v", rec)
	}
	if *rec.Timeout != DefaultReportTimeoutSeconds {
		t.Errorf("timeout: want %d, got %v", DefaultReportTimeoutSeconds, *rec.Timeout)
	}
	if *rec.CreatedAt != "2026-03-01T12:00:00.000Z" {
		t.Errorf("createdAt: got %q", *rec.CreatedAt)
	}

	reports := journal.RecentReports(0)
	if len(reports) != 1 || !reports[0].Submitted || reports[0].Source != "test" {
		t.Errorf("unexpected journal %+v", reports)
	}
}

func TestReport_DuplicateSkipped(t *testing.T) {
	store := alerts.NewStore()
	creator := &recordingCreator{}
	r := newReporter(creator, store)

	store.Add(alerts.Draft{ID: "x", Message: "Wind", Severity: alerts.SeverityWarning})

	item, added := r.Report(context.Background(), Event{Severity: alerts.SeverityWarning, Message: "Wind"})
	if added {
		t.Error("duplicate should not be added")
	}
	if item.ID != "x" {
		t.Errorf("expected existing item, got %+v", item)
	}
	if creator.count() != 0 {
		t.Error("duplicate should not be submitted")
	}
	if store.Len() != 1 {
		t.Errorf("store should still hold 1 item, got %d", store.Len())
	}

	// Same message at another severity is a different alert.
	if _, added := r.Report(context.Background(), Event{Severity: alerts.SeverityCritical, Message: "Wind"}); !added {
		t.Error("different severity should be added")
	}
}

func TestReport_SubmitFailureKeepsLocal(t *testing.T) {
	store := alerts.NewStore()
	creator := &recordingCreator{err: errors.New("status 503")}
	journal := storage.NewMemoryJournal()
	r := newReporter(creator, store, WithJournal(journal))

	_, added := r.Report(context.Background(), Event{Severity: alerts.SeverityWarning, Message: "Intrusion"})
	if !added {
		t.Fatal("event should be added locally even if submission fails")
	}
	if !store.Has(alerts.SeverityWarning, "Intrusion") {
		t.Error("local alert rolled back after failure")
	}
	reports := journal.RecentReports(0)
	if len(reports) != 1 || reports[0].Submitted || reports[0].Error != "status 503" {
		t.Errorf("unexpected journal %+v", reports)
	}
}

func TestReport_TimeoutOverride(t *testing.T) {
	creator := &recordingCreator{}
	r := newReporter(creator, alerts.NewStore(), WithReportTimeout(120))

	r.Report(context.Background(), Event{Severity: alerts.SeverityNormal, Message: "a"})
	r.Report(context.Background(), Event{Severity: alerts.SeverityNormal, Message: "b", TimeoutSeconds: 30})

	if *creator.recs[0].Timeout != 120 {
		t.Errorf("configured default: want 120, got %v", *creator.recs[0].Timeout)
	}
	if *creator.recs[1].Timeout != 30 {
		t.Errorf("event override: want 30, got %v", *creator.recs[1].Timeout)
	}
}

func TestReport_EmptyMessageUsesDefault(t *testing.T) {
	r := newReporter(&recordingCreator{}, alerts.NewStore())
	item, _ := r.Report(context.Background(), Event{Severity: alerts.SeverityNormal, Message: "  "})
	if item.Message != DefaultReason {
		t.Errorf("want %q, got %q", DefaultReason, item.Message)
	}
}

func TestReportUnauthorizedAccess(t *testing.T) {
	store := alerts.NewStore()
	creator := &recordingCreator{}
	r := newReporter(creator, store)

	item, added := r.ReportUnauthorizedAccess(context.Background(), "cli")
	if !added || item.Severity != alerts.SeverityWarning || item.Message != UnauthorizedAccessMessage {
		t.Errorf("unexpected result %+v added=%v", item, added)
	}

	if _, added := r.ReportUnauthorizedAccess(context.Background(), "cli"); added {
		t.Error("second warning should be deduplicated")
	}
	if creator.count() != 1 {
		t.Errorf("expected one submission, got %d", creator.count())
	}
}
