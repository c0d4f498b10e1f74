package globalstate

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nixlim/mission-control/internal/events"
	"github.com/nixlim/mission-control/internal/metrics"
	"github.com/nixlim/mission-control/internal/storage"
)

// deps are the collaborators shared by Adapter and Reporter.
type deps struct {
	now     func() time.Time
	newID   func() string
	log     zerolog.Logger
	journal storage.Journal
	metrics *metrics.Metrics
	feed    *events.RingBuffer

	reportTimeout float64
}

func defaultDeps() deps {
	return deps{
		now:           time.Now,
		newID:         uuid.NewString,
		log:           zerolog.Nop(),
		reportTimeout: DefaultReportTimeoutSeconds,
	}
}

type Option func(*deps)

func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithIDGenerator replaces uuid.NewString for ids assigned locally.
func WithIDGenerator(fn func() string) Option {
	return func(d *deps) { d.newID = fn }
}

func WithLogger(log zerolog.Logger) Option {
	return func(d *deps) { d.log = log }
}

func WithJournal(j storage.Journal) Option {
	return func(d *deps) { d.journal = j }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

// WithFeed sends activity entries to the given buffer.
func WithFeed(feed *events.RingBuffer) Option {
	return func(d *deps) { d.feed = feed }
}

// WithReportTimeout sets the timeout, in seconds, attached to submitted
// events that do not carry their own. Only the Reporter uses it.
func WithReportTimeout(seconds float64) Option {
	return func(d *deps) {
		if seconds >= 0 {
			d.reportTimeout = seconds
		}
	}
}

func (d *deps) addFeed(e events.Entry) {
	if d.feed != nil {
		d.feed.Add(e)
	}
}
