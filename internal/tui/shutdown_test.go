package tui

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestShutdownManager_Order(t *testing.T) {
	var order []string
	sm := NewShutdownManager()
	sm.StopReceiver = func(ctx context.Context) error {
		order = append(order, "receiver")
		return nil
	}
	sm.StopScheduler = func() { order = append(order, "scheduler") }
	sm.WaitScheduler = func() { order = append(order, "wait") }
	sm.StopPresenter = func() { order = append(order, "presenter") }
	sm.CloseJournal = func() error {
		order = append(order, "journal")
		return nil
	}

	if err := sm.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if got := strings.Join(order, ","); got != "receiver,scheduler,wait,presenter,journal" {
		t.Errorf("unexpected order %s", got)
	}
}

func TestShutdownManager_Idempotent(t *testing.T) {
	var calls atomic.Int32
	sm := NewShutdownManager()
	sm.CloseJournal = func() error {
		calls.Add(1)
		return nil
	}

	_ = sm.Shutdown()
	_ = sm.Shutdown()
	if calls.Load() != 1 {
		t.Errorf("journal closed %d times, want 1", calls.Load())
	}
}

func TestShutdownManager_DrainTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	sm := NewShutdownManager()
	sm.DrainTimeout = 50 * time.Millisecond
	sm.WaitScheduler = func() { <-release }
	journalClosed := false
	sm.CloseJournal = func() error {
		journalClosed = true
		return nil
	}

	start := time.Now()
	err := sm.Shutdown()
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Error("shutdown should not wait past the drain timeout")
	}
	if !journalClosed {
		t.Error("journal should still close after a drain timeout")
	}
}

func TestShutdownManager_JoinsErrors(t *testing.T) {
	errRecv := errors.New("receiver")
	errJournal := errors.New("journal")

	sm := NewShutdownManager()
	sm.StopReceiver = func(context.Context) error { return errRecv }
	sm.CloseJournal = func() error { return errJournal }

	err := sm.Shutdown()
	if !errors.Is(err, errRecv) || !errors.Is(err, errJournal) {
		t.Errorf("expected both errors joined, got %v", err)
	}
}
