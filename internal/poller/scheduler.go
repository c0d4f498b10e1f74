// Package poller drives periodic global state refreshes.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/nixlim/mission-control/internal/metrics"
)

const DefaultInterval = 60 * time.Second

type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// CycleFunc performs one refresh. It must not assume it is the only
// cycle ever started, only that no other cycle of the same Scheduler is
// running concurrently.
type CycleFunc func(ctx context.Context)

// Scheduler runs a CycleFunc immediately on Start and then on every tick
// until Stop. A tick that arrives while a cycle is still running is
// skipped.
type Scheduler struct {
	cycle    CycleFunc
	interval time.Duration
	log      zerolog.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	parent context.Context
	runID  uint64

	inFlight  atomic.Bool
	cycleDone chan struct{}
	wg        sync.WaitGroup
}

type Option func(*Scheduler)

// WithInterval sets the tick period. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func New(cycle CycleFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		cycle:    cycle,
		interval: DefaultInterval,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "poller").Logger()
	return s
}

// Start moves the scheduler to Running, runs one cycle right away and arms
// the ticker. It returns false, doing nothing, if already Running. If a
// cycle from an earlier run is still executing, the first cycle of this
// run starts as soon as that one returns.
//
// Cycles run with ctx rather than with the scheduler's own cancellation,
// so a cycle in flight when Stop is called still completes.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	if s.state == Running {
		s.mu.Unlock()
		return false
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.state = Running
	s.cancel = cancel
	s.parent = ctx
	s.runID++
	id := s.runID
	s.mu.Unlock()

	s.log.Info().Dur("interval", s.interval).Msg("polling started")
	s.startCycle(id)
	go s.loop(runCtx, id)
	return true
}

func (s *Scheduler) startCycle(id uint64) {
	s.mu.Lock()
	prev := s.cycleDone
	s.mu.Unlock()

	if prev == nil || !s.inFlight.Load() {
		s.launch(id, "start")
		return
	}

	s.log.Debug().Msg("waiting for previous cycle before first fetch")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-prev
		s.launch(id, "start")
	}()
}

// Stop cancels the ticker. No cycle is launched after Stop returns. It is
// a no-op when already Stopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Stopped {
		return
	}
	s.cancel()
	s.cancel = nil
	s.state = Stopped
	s.log.Info().Msg("polling stopped")
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) Running() bool {
	return s.State() == Running
}

// InFlight reports whether a cycle is currently executing.
func (s *Scheduler) InFlight() bool {
	return s.inFlight.Load()
}

// Trigger runs an extra cycle now. It returns false if the scheduler is
// Stopped or a cycle is already in flight.
func (s *Scheduler) Trigger() bool {
	s.mu.Lock()
	id, running := s.runID, s.state == Running
	s.mu.Unlock()

	if !running {
		return false
	}
	return s.launch(id, "trigger")
}

// Wait blocks until every launched cycle has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, id uint64) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			if s.state == Running && s.runID == id {
				s.cancel()
				s.cancel = nil
				s.state = Stopped
				s.log.Info().Msg("polling stopped: context done")
			}
			s.mu.Unlock()
			return
		case <-ticker.C:
			s.launch(id, "tick")
		}
	}
}

// launch starts a cycle for run id unless the scheduler has since been
// stopped or restarted, or a cycle is still running.
func (s *Scheduler) launch(id uint64, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Running || s.runID != id {
		return false
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		s.log.Debug().Str("reason", reason).Msg("previous cycle still in flight, skipping")
		s.metrics.TickSkipped()
		return false
	}

	ctx := s.parent
	done := make(chan struct{})
	s.cycleDone = done
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)
		defer s.inFlight.Store(false)
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Interface("panic", r).Msg("poll cycle panicked")
			}
		}()
		s.cycle(ctx)
	}()
	return true
}
