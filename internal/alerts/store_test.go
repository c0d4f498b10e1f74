package alerts

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStore_AddStampsTime(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(WithClock(fixedClock(at)))

	item := s.Add(Draft{ID: "a", Message: "Pump failure", Severity: SeverityCritical})
	if !item.Timestamp.Equal(at) {
		t.Errorf("timestamp: want %v, got %v", at, item.Timestamp)
	}

	snap := s.Snapshot()
	if len(snap.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(snap.Items))
	}
	if snap.Items[0] != item {
		t.Errorf("snapshot item mismatch: want %+v, got %+v", item, snap.Items[0])
	}
}

func TestStore_AddPreservesInsertionOrder(t *testing.T) {
	s := NewStore()
	s.Add(Draft{ID: "n", Message: "Heartbeat OK", Severity: SeverityNormal})
	s.Add(Draft{ID: "c", Message: "Pump failure", Severity: SeverityCritical})

	items := s.Snapshot().Items
	if items[0].ID != "n" || items[1].ID != "c" {
		t.Errorf("store must not reorder: got %s, %s", items[0].ID, items[1].ID)
	}
}

func TestStore_Remove(t *testing.T) {
	s := NewStore()
	s.Add(Draft{ID: "a", Message: "one"})
	s.Add(Draft{ID: "b", Message: "two"})

	if !s.Remove("a") {
		t.Error("Remove(a) should report true")
	}
	if s.Remove("missing") {
		t.Error("Remove(missing) should be a no-op returning false")
	}

	items := s.Snapshot().Items
	if len(items) != 1 || items[0].ID != "b" {
		t.Errorf("expected only b to remain, got %+v", items)
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	s.Add(Draft{ID: "a", Message: "one"})
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d items", s.Len())
	}
}

func TestStore_ReplaceIsAtomic(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(WithClock(fixedClock(at)))
	s.Add(Draft{ID: "old", Message: "stale"})

	snap := s.Replace([]Draft{
		{ID: "x", Message: "Pump failure", Severity: SeverityCritical},
		{ID: "y", Message: "Heartbeat OK", Severity: SeverityNormal},
	})

	if len(snap.Items) != 2 {
		t.Fatalf("expected 2 items after replace, got %d", len(snap.Items))
	}
	for _, it := range snap.Items {
		if it.ID == "old" {
			t.Error("replace must drop previous items")
		}
		if !it.Timestamp.Equal(at) {
			t.Errorf("item %s timestamp: want %v, got %v", it.ID, at, it.Timestamp)
		}
	}
}

func TestStore_ReplaceNeverObservedPartially(t *testing.T) {
	s := NewStore()
	batch := make([]Draft, 50)
	for i := range batch {
		batch[i] = Draft{ID: fmt.Sprintf("id-%d", i), Message: fmt.Sprintf("m-%d", i)}
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	bad := make(chan int, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			n := len(s.Snapshot().Items)
			if n != 0 && n != len(batch) {
				select {
				case bad <- n:
				default:
				}
				return
			}
		}
	}()

	for range 200 {
		s.Replace(batch)
	}
	close(stop)
	wg.Wait()

	select {
	case n := <-bad:
		t.Errorf("observed partially replaced store with %d items", n)
	default:
	}
}

func TestStore_GenerationAdvances(t *testing.T) {
	s := NewStore()
	g0 := s.Snapshot().Generation

	s.Add(Draft{ID: "a"})
	g1 := s.Snapshot().Generation
	s.Replace(nil)
	g2 := s.Snapshot().Generation
	s.Remove("nope")
	g3 := s.Snapshot().Generation

	if !(g0 < g1 && g1 < g2) {
		t.Errorf("generation should advance on mutation: %d, %d, %d", g0, g1, g2)
	}
	if g3 != g2 {
		t.Errorf("no-op remove must not advance generation: %d -> %d", g2, g3)
	}
}

func TestStore_OnChange(t *testing.T) {
	s := NewStore()
	var got []int
	s.OnChange(func(snap Snapshot) {
		got = append(got, len(snap.Items))
	})

	s.Add(Draft{ID: "a"})
	s.Add(Draft{ID: "b"})
	s.Remove("a")
	s.Replace([]Draft{{ID: "x"}, {ID: "y"}, {ID: "z"}})
	s.Clear()

	want := []int{1, 2, 1, 3, 0}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("listener saw %v, want %v", got, want)
	}
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	s := NewStore()
	s.Add(Draft{ID: "a", Message: "original"})

	snap := s.Snapshot()
	snap.Items[0].Message = "mutated"

	if s.Snapshot().Items[0].Message != "original" {
		t.Error("mutating a snapshot must not affect the store")
	}
}

func TestStore_Has(t *testing.T) {
	s := NewStore()
	s.Add(Draft{ID: "a", Message: "Pump failure", Severity: SeverityCritical})

	if !s.Has(SeverityCritical, "Pump failure") {
		t.Error("expected Has to find critical Pump failure")
	}
	if s.Has(SeverityWarning, "Pump failure") {
		t.Error("Has must match severity as well as message")
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"critical", SeverityCritical},
		{"warning", SeverityWarning},
		{"normal", SeverityNormal},
		{"CRITICAL", SeverityCritical},
		{"", SeverityNormal},
		{"meltdown", SeverityNormal},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := ParseSeverity(tc.in); got != tc.want {
				t.Errorf("ParseSeverity(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStore_AddUnique(t *testing.T) {
	s := NewStore()
	first, added := s.AddUnique(Draft{ID: "a", Message: "Wind", Severity: SeverityWarning})
	if !added {
		t.Fatal("first AddUnique should add")
	}

	existing, added := s.AddUnique(Draft{ID: "b", Message: "Wind", Severity: SeverityWarning})
	if added {
		t.Error("duplicate (severity, message) should not be added")
	}
	if existing.ID != first.ID {
		t.Errorf("expected existing item back, got %+v", existing)
	}

	if _, added := s.AddUnique(Draft{ID: "c", Message: "Wind", Severity: SeverityCritical}); !added {
		t.Error("same message with different severity is a different alert")
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 items, got %d", s.Len())
	}
}

func TestStore_AddUniqueConcurrent(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AddUnique(Draft{ID: fmt.Sprintf("id-%d", i), Message: "Intrusion", Severity: SeverityWarning})
		}(i)
	}
	wg.Wait()

	if s.Len() != 1 {
		t.Errorf("concurrent AddUnique should keep one item, got %d", s.Len())
	}
}

func TestOrdered_DropsStaleSnapshot(t *testing.T) {
	var got []uint64
	fn := Ordered(func(snap Snapshot) { got = append(got, snap.Generation) })

	fn(Snapshot{Generation: 2})
	fn(Snapshot{Generation: 1})
	fn(Snapshot{Generation: 2})
	fn(Snapshot{Generation: 3})

	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("expected generations [2 3], got %v", got)
	}
}

// A poll Replace whose notification is delayed must not overwrite the
// ranking produced by a later AddUnique from another goroutine.
func TestOrdered_ReplaceInterleavedWithAddUnique(t *testing.T) {
	s := NewStore()

	entered := make(chan struct{})
	release := make(chan struct{})
	s.OnChange(func(snap Snapshot) {
		if snap.Generation == 1 {
			close(entered)
			<-release
		}
	})

	var (
		mu        sync.Mutex
		displayed []Item
	)
	s.OnChange(Ordered(func(snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		displayed = Rank(snap.Items)
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Replace([]Draft{{ID: "p1", Message: "Heartbeat OK", Severity: SeverityNormal}})
	}()
	<-entered

	if _, added := s.AddUnique(Draft{ID: "r1", Message: "Unauthorized access", Severity: SeverityWarning}); !added {
		t.Fatal("AddUnique should add the reported alert")
	}
	close(release)
	<-done

	if s.Len() != 2 {
		t.Fatalf("store should hold 2 items, got %d", s.Len())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(displayed) != 2 {
		t.Fatalf("displayed list is stale: want 2 items, got %+v", displayed)
	}
	if displayed[0].ID != "r1" || displayed[1].ID != "p1" {
		t.Errorf("expected [r1 p1], got [%s %s]", displayed[0].ID, displayed[1].ID)
	}
}
