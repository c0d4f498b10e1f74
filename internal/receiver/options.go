package receiver

import (
	"github.com/rs/zerolog"

	"github.com/nixlim/mission-control/internal/events"
	"github.com/nixlim/mission-control/internal/metrics"
)

type deps struct {
	log     zerolog.Logger
	debug   Logger
	metrics *metrics.Metrics
	feed    *events.RingBuffer
}

func defaultDeps() deps {
	return deps{log: zerolog.Nop(), debug: NopLogger{}}
}

type Option func(*deps)

func WithLogger(log zerolog.Logger) Option {
	return func(d *deps) { d.log = log }
}

// WithDebugLogger records every received log record.
func WithDebugLogger(l Logger) Option {
	return func(d *deps) {
		if l != nil {
			d.debug = l
		}
	}
}

// WithMetrics counts intake and, on the HTTP listener, serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

func WithFeed(feed *events.RingBuffer) Option {
	return func(d *deps) { d.feed = feed }
}

func newIntake(reporter Reporter, component string, opts []Option) intake {
	in := intake{reporter: reporter, deps: defaultDeps()}
	for _, opt := range opts {
		opt(&in.deps)
	}
	in.log = in.log.With().Str("component", component).Logger()
	return in
}
