package main

import (
	"context"
	"time"

	"github.com/nixlim/mission-control/internal/events"
	"github.com/nixlim/mission-control/internal/poller"
)

// pollControl exposes the scheduler to the TUI keyboard handlers.
type pollControl struct {
	ctx   context.Context
	sched *poller.Scheduler
	feed  *events.RingBuffer
}

func (c *pollControl) Running() bool {
	return c.sched.Running()
}

func (c *pollControl) Pause() {
	c.sched.Stop()
	c.feed.Add(events.Control(time.Now(), "Polling paused"))
}

func (c *pollControl) Resume() {
	if c.sched.Start(c.ctx) {
		c.feed.Add(events.Control(time.Now(), "Polling resumed"))
	}
}

func (c *pollControl) RefreshNow() bool {
	if !c.sched.Trigger() {
		return false
	}
	c.feed.Add(events.Control(time.Now(), "Manual refresh"))
	return true
}
