package alerts

import (
	"slices"
	"sync"
	"time"
)

// Snapshot is an immutable view of the store contents at one generation.
type Snapshot struct {
	Items      []Item
	Generation uint64
}

// ChangeListener is called after every store mutation with the new snapshot.
type ChangeListener func(Snapshot)

// Store is the in-memory working set of alerts. It is safe for concurrent
// use; readers never observe a partially replaced set.
type Store struct {
	mu         sync.RWMutex
	items      []Item
	generation uint64
	now        func() time.Time

	listenerMu sync.RWMutex
	listeners  []ChangeListener
}

type StoreOption func(*Store)

// WithClock overrides the time source used to stamp new items.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers a listener. Listeners run synchronously on the
// mutating goroutine, after the lock is released, so two mutations on
// different goroutines may notify out of order. Wrap with Ordered when
// only the newest snapshot matters.
func (s *Store) OnChange(fn ChangeListener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Ordered wraps fn so that concurrent notifications are applied one at a
// time and never out of generation order. A snapshot older than or equal
// to the last one delivered to fn is dropped.
func Ordered(fn ChangeListener) ChangeListener {
	var (
		mu   sync.Mutex
		last uint64
	)
	return func(snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if snap.Generation <= last {
			return
		}
		last = snap.Generation
		fn(snap)
	}
}

// Add stamps d with the current time and appends it.
func (s *Store) Add(d Draft) Item {
	s.mu.Lock()
	item := Item{
		ID:        d.ID,
		Message:   d.Message,
		Severity:  d.Severity,
		Timestamp: s.now(),
	}
	s.items = append(s.items, item)
	snap := s.snapshotLocked(true)
	s.mu.Unlock()

	s.notify(snap)
	return item
}

// AddUnique adds d unless an item with the same severity and message is
// already present. The check and the insert happen under one lock.
func (s *Store) AddUnique(d Draft) (Item, bool) {
	s.mu.Lock()
	k := key{severity: d.Severity, message: d.Message}
	for _, it := range s.items {
		if it.key() == k {
			s.mu.Unlock()
			return it, false
		}
	}
	item := Item{
		ID:        d.ID,
		Message:   d.Message,
		Severity:  d.Severity,
		Timestamp: s.now(),
	}
	s.items = append(s.items, item)
	snap := s.snapshotLocked(true)
	s.mu.Unlock()

	s.notify(snap)
	return item, true
}

// Remove deletes the item with the given id. It reports whether an item
// was removed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	idx := slices.IndexFunc(s.items, func(it Item) bool { return it.ID == id })
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.items = slices.Delete(s.items, idx, idx+1)
	snap := s.snapshotLocked(true)
	s.mu.Unlock()

	s.notify(snap)
	return true
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	snap := s.snapshotLocked(true)
	s.mu.Unlock()

	s.notify(snap)
}

// Replace clears the store and adds every draft as one atomic step. All
// new items share one timestamp.
func (s *Store) Replace(drafts []Draft) Snapshot {
	s.mu.Lock()
	now := s.now()
	items := make([]Item, 0, len(drafts))
	for _, d := range drafts {
		items = append(items, Item{
			ID:        d.ID,
			Message:   d.Message,
			Severity:  d.Severity,
			Timestamp: now,
		})
	}
	s.items = items
	snap := s.snapshotLocked(true)
	s.mu.Unlock()

	s.notify(snap)
	return snap
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(false)
}

// Has reports whether an item with the same severity and message exists.
func (s *Store) Has(severity Severity, message string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k := key{severity: severity, message: message}
	for _, it := range s.items {
		if it.key() == k {
			return true
		}
	}
	return false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// snapshotLocked copies the items. When bump is true the generation is
// advanced first. Caller must hold the write lock if bump is true.
func (s *Store) snapshotLocked(bump bool) Snapshot {
	if bump {
		s.generation++
	}
	return Snapshot{
		Items:      slices.Clone(s.items),
		Generation: s.generation,
	}
}

func (s *Store) notify(snap Snapshot) {
	s.listenerMu.RLock()
	listeners := slices.Clone(s.listeners)
	s.listenerMu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
