package globalstate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nixlim/mission-control/internal/alerts"
	"github.com/nixlim/mission-control/internal/events"
	"github.com/nixlim/mission-control/internal/metrics"
	"github.com/nixlim/mission-control/internal/statusapi"
	"github.com/nixlim/mission-control/internal/storage"
)

// Fetcher retrieves the global state list.
type Fetcher interface {
	FetchGlobalState(ctx context.Context) (*statusapi.Response, error)
}

// Outcome describes one Refresh. Err is informational; Refresh never
// fails its caller.
type Outcome struct {
	OK       bool
	Stale    bool
	Kept     int
	Expired  int
	Duration time.Duration
	Err      error
}

// Adapter fetches the global state list and replaces the store contents
// with its normalized, non-expired records.
type Adapter struct {
	deps
	fetcher Fetcher
	store   *alerts.Store

	issued  atomic.Uint64
	applyMu sync.Mutex
}

func NewAdapter(f Fetcher, store *alerts.Store, opts ...Option) *Adapter {
	a := &Adapter{deps: defaultDeps(), fetcher: f, store: store}
	for _, opt := range opts {
		opt(&a.deps)
	}
	a.log = a.log.With().Str("component", "adapter").Logger()
	return a
}

// Refresh runs one fetch cycle. Only the response of the most recently
// issued request is applied; an older response that completes late is
// discarded. On failure the store is left untouched.
func (a *Adapter) Refresh(ctx context.Context) Outcome {
	seq := a.issued.Add(1)
	start := time.Now()

	resp, err := a.fetcher.FetchGlobalState(ctx)
	elapsed := time.Since(start)

	if err != nil {
		return a.failed(err, elapsed)
	}

	a.applyMu.Lock()
	defer a.applyMu.Unlock()

	if seq != a.issued.Load() {
		return a.stale(seq, elapsed)
	}

	now := a.now()
	drafts, expired := Normalize(resp.Data, now, a.newID)
	snap := a.store.Replace(drafts)

	out := Outcome{OK: true, Kept: len(drafts), Expired: expired, Duration: elapsed}
	a.log.Debug().
		Int("kept", out.Kept).
		Int("expired", expired).
		Uint64("generation", snap.Generation).
		Dur("took", elapsed).
		Msg("global state refreshed")

	a.metrics.ObservePoll(metrics.PollOK, elapsed)
	a.addFeed(events.PollSucceeded(now, out.Kept, expired))
	if a.journal != nil {
		a.journal.RecordPoll(storage.PollRecord{At: now, OK: true, Kept: out.Kept, Expired: expired, Duration: elapsed})
		a.journal.RecordSnapshot(snap.Items)
	}
	return out
}

func (a *Adapter) failed(err error, elapsed time.Duration) Outcome {
	now := a.now()
	a.log.Warn().Err(err).Dur("took", elapsed).Msg("failed to fetch global state")

	a.metrics.ObservePoll(metrics.PollFailed, elapsed)
	a.addFeed(events.PollFailed(now, err))
	if a.journal != nil {
		a.journal.RecordPoll(storage.PollRecord{At: now, Duration: elapsed, Error: err.Error()})
	}
	return Outcome{Err: err, Duration: elapsed}
}

func (a *Adapter) stale(seq uint64, elapsed time.Duration) Outcome {
	now := a.now()
	a.log.Debug().Uint64("seq", seq).Uint64("latest", a.issued.Load()).Msg("discarding superseded global state response")

	a.metrics.ObservePoll(metrics.PollStale, elapsed)
	a.addFeed(events.PollStale(now))
	if a.journal != nil {
		a.journal.RecordPoll(storage.PollRecord{At: now, Stale: true, Duration: elapsed})
	}
	return Outcome{Stale: true, Duration: elapsed}
}
