package receiver

import (
	"context"
	"sync"
	"testing"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"

	"github.com/nixlim/mission-control/internal/alerts"
	"github.com/nixlim/mission-control/internal/config"
	"github.com/nixlim/mission-control/internal/globalstate"
)

// fakeReporter records events and deduplicates on (severity, message).
type fakeReporter struct {
	mu     sync.Mutex
	events []globalstate.Event
	seen   map[string]bool
}

func newFakeReporter() *fakeReporter {
	return &fakeReporter{seen: make(map[string]bool)}
}

func (f *fakeReporter) Report(_ context.Context, ev globalstate.Event) (alerts.Item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := string(ev.Severity) + "|" + ev.Message
	if f.seen[k] {
		return alerts.Item{}, false
	}
	f.seen[k] = true
	f.events = append(f.events, ev)
	return alerts.Item{Severity: ev.Severity, Message: ev.Message}, true
}

func (f *fakeReporter) received() []globalstate.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]globalstate.Event(nil), f.events...)
}

func testConfig() config.ReceiverConfig {
	return config.ReceiverConfig{Enabled: true, Bind: "127.0.0.1"}
}

func strAttr(k, v string) *commonpb.KeyValue {
	return &commonpb.KeyValue{Key: k, Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: v}}}
}

func strBody(v string) *commonpb.AnyValue {
	return &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: v}}
}

func resourceLogs(records ...*logspb.LogRecord) []*logspb.ResourceLogs {
	return []*logspb.ResourceLogs{{
		ScopeLogs: []*logspb.ScopeLogs{{LogRecords: records}},
	}}
}

func TestReceiver_StartStop(t *testing.T) {
	r := New(testConfig(), newFakeReporter())
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if r.GRPC.Addr() == nil || r.HTTP.Addr() == nil {
		t.Fatal("expected both listeners bound")
	}
	r.Stop()
}
