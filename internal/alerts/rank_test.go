package alerts

import (
	"math/rand"
	"reflect"
	"testing"
	"time"
)

func TestRank_MostRecentWins(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	items := []Item{
		{ID: "old", Severity: SeverityCritical, Message: "Pump failure", Timestamp: base},
		{ID: "new", Severity: SeverityCritical, Message: "Pump failure", Timestamp: base.Add(5 * time.Second)},
	}

	got := Rank(items)
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].ID != "new" {
		t.Errorf("expected most recent item to win, got %s", got[0].ID)
	}

	// Same result regardless of input order.
	got = Rank([]Item{items[1], items[0]})
	if got[0].ID != "new" {
		t.Errorf("expected most recent item to win in reverse order, got %s", got[0].ID)
	}
}

func TestRank_TieKeepsExisting(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := Rank([]Item{
		{ID: "first", Severity: SeverityWarning, Message: "Wind", Timestamp: ts},
		{ID: "second", Severity: SeverityWarning, Message: "Wind", Timestamp: ts},
	})
	if len(got) != 1 || got[0].ID != "first" {
		t.Errorf("tie should keep the existing entry, got %+v", got)
	}
}

func TestRank_SameMessageDifferentSeverity(t *testing.T) {
	got := Rank([]Item{
		{ID: "w", Severity: SeverityWarning, Message: "Pump failure"},
		{ID: "c", Severity: SeverityCritical, Message: "Pump failure"},
	})
	if len(got) != 2 {
		t.Fatalf("different severities are distinct keys, got %d items", len(got))
	}
	if got[0].ID != "c" || got[1].ID != "w" {
		t.Errorf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestRank_StableWithinSeverity(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := Rank([]Item{
		{ID: "n1", Severity: SeverityNormal, Message: "a", Timestamp: base},
		{ID: "w1", Severity: SeverityWarning, Message: "b", Timestamp: base},
		{ID: "n2", Severity: SeverityNormal, Message: "c", Timestamp: base},
		{ID: "c1", Severity: SeverityCritical, Message: "d", Timestamp: base},
		{ID: "w2", Severity: SeverityWarning, Message: "e", Timestamp: base},
		// Later duplicate of "a" replaces n1 but keeps its position.
		{ID: "n3", Severity: SeverityNormal, Message: "a", Timestamp: base.Add(time.Second)},
	})

	var ids []string
	for _, it := range got {
		ids = append(ids, it.ID)
	}
	want := []string{"c1", "w1", "w2", "n3", "n2"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("Rank order = %v, want %v", ids, want)
	}
}

func TestRank_Empty(t *testing.T) {
	if got := Rank(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	in := []Item{
		{ID: "n", Severity: SeverityNormal, Message: "a"},
		{ID: "c", Severity: SeverityCritical, Message: "b"},
	}
	Rank(in)
	if in[0].ID != "n" || in[1].ID != "c" {
		t.Errorf("input was reordered: %+v", in)
	}
}

func randomItems(r *rand.Rand, n int) []Item {
	sevs := []Severity{SeverityNormal, SeverityWarning, SeverityCritical}
	msgs := []string{"Pump failure", "Heartbeat OK", "Wind gusts", "Fuel low"}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{
			ID:        string(rune('a' + i%26)),
			Severity:  sevs[r.Intn(len(sevs))],
			Message:   msgs[r.Intn(len(msgs))],
			Timestamp: base.Add(time.Duration(r.Intn(5)) * time.Second),
		}
	}
	return items
}

func TestRank_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for trial := range 200 {
		in := randomItems(r, r.Intn(30))
		out := Rank(in)

		// Idempotent.
		if again := Rank(out); !reflect.DeepEqual(again, out) {
			t.Fatalf("trial %d: Rank not idempotent\nfirst  %+v\nsecond %+v", trial, out, again)
		}

		// Sorted by severity rank.
		for i := 1; i < len(out); i++ {
			if SeverityRank(out[i-1].Severity) > SeverityRank(out[i].Severity) {
				t.Fatalf("trial %d: out of order at %d: %s before %s", trial, i, out[i-1].Severity, out[i].Severity)
			}
		}

		// Unique keys, each carrying the max timestamp of its group.
		latest := make(map[key]time.Time)
		for _, it := range in {
			if ts, ok := latest[it.key()]; !ok || it.Timestamp.After(ts) {
				latest[it.key()] = it.Timestamp
			}
		}
		seen := make(map[key]bool)
		for _, it := range out {
			if seen[it.key()] {
				t.Fatalf("trial %d: duplicate key %+v", trial, it.key())
			}
			seen[it.key()] = true
			if !it.Timestamp.Equal(latest[it.key()]) {
				t.Fatalf("trial %d: key %+v kept %v, want latest %v", trial, it.key(), it.Timestamp, latest[it.key()])
			}
		}
		if len(seen) != len(latest) {
			t.Fatalf("trial %d: expected %d unique keys, got %d", trial, len(latest), len(seen))
		}
	}
}

func TestCountBySeverity(t *testing.T) {
	counts := CountBySeverity([]Item{
		{Severity: SeverityCritical},
		{Severity: SeverityCritical},
		{Severity: SeverityNormal},
	})
	if counts[SeverityCritical] != 2 || counts[SeverityWarning] != 0 || counts[SeverityNormal] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
