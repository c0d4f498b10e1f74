// Package rotation cycles through the ranked alert list, showing one item
// at a time for a dwell that depends on its severity.
package rotation

import (
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nixlim/mission-control/internal/alerts"
	"github.com/nixlim/mission-control/internal/config"
)

// Default dwell times.
const (
	DefaultCriticalDwell = 10 * time.Second
	DefaultWarningDwell  = 7 * time.Second
	DefaultNormalDwell   = 4 * time.Second
)

// Dwell maps a severity to how long its items stay on screen.
type Dwell struct {
	Critical time.Duration
	Warning  time.Duration
	Normal   time.Duration
}

func DefaultDwell() Dwell {
	return Dwell{Critical: DefaultCriticalDwell, Warning: DefaultWarningDwell, Normal: DefaultNormalDwell}
}

// DwellFromConfig converts the [rotation] section. Non-positive values
// fall back to the defaults.
func DwellFromConfig(cfg config.RotationConfig) Dwell {
	d := DefaultDwell()
	if cfg.CriticalSeconds > 0 {
		d.Critical = time.Duration(cfg.CriticalSeconds) * time.Second
	}
	if cfg.WarningSeconds > 0 {
		d.Warning = time.Duration(cfg.WarningSeconds) * time.Second
	}
	if cfg.NormalSeconds > 0 {
		d.Normal = time.Duration(cfg.NormalSeconds) * time.Second
	}
	return d
}

func (d Dwell) For(s alerts.Severity) time.Duration {
	switch s {
	case alerts.SeverityCritical:
		return d.Critical
	case alerts.SeverityWarning:
		return d.Warning
	default:
		return d.Normal
	}
}

// View is what the banner renders.
type View struct {
	Item    alerts.Item
	Index   int
	Len     int
	Visible bool
}

// Presenter holds the ranked list and the index of the item on screen.
type Presenter struct {
	clock Clock
	dwell Dwell
	log   zerolog.Logger

	mu         sync.Mutex
	list       []alerts.Item
	index      int
	generation uint64
	timer      Timer
	listeners  []func(View)
	stopped    bool
}

type Option func(*Presenter)

func WithClock(c Clock) Option {
	return func(p *Presenter) { p.clock = c }
}

func WithDwell(d Dwell) Option {
	return func(p *Presenter) { p.dwell = d }
}

func WithLogger(log zerolog.Logger) Option {
	return func(p *Presenter) { p.log = log }
}

func New(opts ...Option) *Presenter {
	p := &Presenter{
		clock: realClock{},
		dwell: DefaultDwell(),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With().Str("component", "rotation").Logger()
	return p
}

// SetList installs a new ranked list. The index resets to 0 and any
// pending dwell timer is cancelled; a non-empty list arms a timer for its
// first item. An empty list shows nothing and arms no timer.
func (p *Presenter) SetList(list []alerts.Item) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.cancelLocked()
	p.generation++
	p.list = slices.Clone(list)
	p.index = 0
	if len(p.list) > 0 {
		p.armLocked()
	}
	v := p.viewLocked()
	p.mu.Unlock()

	p.log.Debug().Int("len", v.Len).Msg("rotation list reset")
	p.emit(v)
}

// DwellFor returns how long item stays on screen.
func (p *Presenter) DwellFor(item alerts.Item) time.Duration {
	return p.dwell.For(item.Severity)
}

// Current returns the item on screen, or false when there is none.
func (p *Presenter) Current() (alerts.Item, bool) {
	v := p.View()
	return v.Item, v.Visible
}

// Len returns the size of the ranked list.
func (p *Presenter) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.list)
}

func (p *Presenter) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// List returns a copy of the ranked list being rotated.
func (p *Presenter) List() []alerts.Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.list)
}

func (p *Presenter) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

// OnAdvance registers fn to be called whenever the item on screen changes,
// including list resets. fn runs outside the presenter lock.
func (p *Presenter) OnAdvance(fn func(View)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Stop cancels the pending timer. Later SetList calls are ignored.
func (p *Presenter) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelLocked()
	p.generation++
	p.stopped = true
}

func (p *Presenter) viewLocked() View {
	if len(p.list) == 0 {
		return View{}
	}
	return View{Item: p.list[p.index], Index: p.index, Len: len(p.list), Visible: true}
}

func (p *Presenter) cancelLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// armLocked schedules the advance away from the current item.
func (p *Presenter) armLocked() {
	gen := p.generation
	d := p.dwell.For(p.list[p.index].Severity)
	p.timer = p.clock.AfterFunc(d, func() { p.advance(gen) })
}

func (p *Presenter) advance(gen uint64) {
	p.mu.Lock()
	if gen != p.generation || len(p.list) == 0 {
		p.mu.Unlock()
		return
	}
	p.index = (p.index + 1) % len(p.list)
	p.armLocked()
	v := p.viewLocked()
	p.mu.Unlock()

	p.emit(v)
}

func (p *Presenter) emit(v View) {
	p.mu.Lock()
	listeners := slices.Clone(p.listeners)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(v)
	}
}
