package alerts

import (
	"sync"

	"github.com/rs/zerolog"
)

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(Item) {}

// truncateMessage shortens an alert message for notification bodies.
func truncateMessage(msg string, limit int) string {
	r := []rune(msg)
	if len(r) <= limit {
		return msg
	}
	return string(r[:limit]) + "..."
}

// Watcher forwards newly appeared warning and critical alerts to a
// Notifier. An alert counts as new when its (severity, message) pair was
// not present in the previous ranked list, so a refresh that re-issues the
// same alerts stays quiet.
type Watcher struct {
	mu       sync.Mutex
	notifier Notifier
	seen     map[key]bool
	primed   bool
	log      zerolog.Logger
}

func NewWatcher(n Notifier, log zerolog.Logger) *Watcher {
	if n == nil {
		n = NopNotifier{}
	}
	return &Watcher{
		notifier: n,
		seen:     make(map[key]bool),
		log:      log.With().Str("component", "notify").Logger(),
	}
}

// Observe compares ranked with the previously observed list and notifies
// for every new non-normal entry. The first observation only records state
// unless notifyInitial is set.
func (w *Watcher) Observe(ranked []Item, notifyInitial bool) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := make(map[key]bool, len(ranked))
	var fresh []Item
	for _, it := range ranked {
		k := it.key()
		next[k] = true
		if it.Severity == SeverityNormal || w.seen[k] {
			continue
		}
		if w.primed || notifyInitial {
			fresh = append(fresh, it)
		}
	}
	w.seen = next
	w.primed = true

	for _, it := range fresh {
		w.log.Debug().Str("severity", string(it.Severity)).Str("message", it.Message).Msg("notifying")
		w.notifier.Notify(it)
	}
	return len(fresh)
}
