package tui

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ShutdownManager stops the running components in order. It is safe to
// call Shutdown more than once; only the first call does any work.
type ShutdownManager struct {
	// DrainTimeout bounds the wait for in-flight work to finish.
	DrainTimeout time.Duration

	// StopReceiver stops accepting OTLP connections.
	StopReceiver func(ctx context.Context) error

	// StopScheduler stops polling. Cycles already in flight may finish.
	StopScheduler func()

	// WaitScheduler blocks until in-flight cycles have returned.
	WaitScheduler func()

	// StopPresenter cancels the rotation timer.
	StopPresenter func()

	// CloseJournal flushes and closes the journal.
	CloseJournal func() error

	once sync.Once
	err  error
}

func NewShutdownManager() *ShutdownManager {
	return &ShutdownManager{
		DrainTimeout: 5 * time.Second,
	}
}

// Shutdown runs, in order: receiver, scheduler (waiting up to
// DrainTimeout for an in-flight cycle), presenter, journal.
func (sm *ShutdownManager) Shutdown() error {
	sm.once.Do(func() {
		sm.err = sm.shutdown()
	})
	return sm.err
}

func (sm *ShutdownManager) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), sm.DrainTimeout)
	defer cancel()

	var errs []error

	if sm.StopReceiver != nil {
		if err := sm.StopReceiver(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if sm.StopScheduler != nil {
		sm.StopScheduler()
	}
	if sm.WaitScheduler != nil {
		done := make(chan struct{})
		go func() {
			sm.WaitScheduler()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			errs = append(errs, errors.New("timed out waiting for poll cycle to finish"))
		}
	}

	if sm.StopPresenter != nil {
		sm.StopPresenter()
	}

	if sm.CloseJournal != nil {
		if err := sm.CloseJournal(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
