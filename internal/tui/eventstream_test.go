package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/nixlim/mission-control/internal/config"
	"github.com/nixlim/mission-control/internal/events"
)

func TestRenderEventStreamPanel_Empty(t *testing.T) {
	m := NewModel(config.DefaultConfig())
	panel := m.renderEventStreamPanel(60, 20)
	if !strings.Contains(panel, "No activity yet") {
		t.Error("empty activity panel should show 'No activity yet'")
	}
}

func TestRenderEventStreamPanel_WithEntries(t *testing.T) {
	feed := &mockEventProvider{entries: []events.Entry{
		events.PollSucceeded(testTime, 3, 1),
		events.PollFailed(testTime, errors.New("connection refused")),
		events.Reported(testTime, "warning", "Unauthorized access", nil),
	}}
	m := NewModel(config.DefaultConfig(), WithEventProvider(feed))

	panel := stripAnsi(m.renderEventStreamPanel(80, 20))
	for _, want := range []string{"Poll ok: 3 alerts, 1 expired", "Poll failed: connection refused", "submitted", "14:05:09"} {
		if !strings.Contains(panel, want) {
			t.Errorf("panel missing %q:\n%s", want, panel)
		}
	}
}

func TestRenderEventStreamPanel_ShowsNewest(t *testing.T) {
	var entries []events.Entry
	for i := range 50 {
		entries = append(entries, events.Control(testTime, "entry-"+string(rune('A'+i%26))+string(rune('a'+i/26))))
	}
	m := NewModel(config.DefaultConfig(), WithEventProvider(&mockEventProvider{entries: entries}))

	panel := stripAnsi(m.renderEventStreamPanel(60, 10))
	if !strings.Contains(panel, "entry-Xb") {
		t.Errorf("panel should show the newest entry:\n%s", panel)
	}
	if strings.Contains(panel, "entry-Aa") {
		t.Errorf("panel should not show the oldest entry:\n%s", panel)
	}
}

func TestRenderEventLine_Icons(t *testing.T) {
	tests := []struct {
		entry events.Entry
		icon  string
	}{
		{events.PollSucceeded(testTime, 1, 0), "<<"},
		{events.ReportSkipped(testTime, "critical", "x"), ">>"},
		{events.Intake(testTime, "grpc", 2, 0), "OT"},
		{events.RotationReset(testTime, 0), "RB"},
		{events.Control(testTime, "Polling paused"), "::"},
	}
	for _, tc := range tests {
		line := stripAnsi(renderEventLine(tc.entry, "15:04:05", 80))
		if !strings.Contains(line, tc.icon) {
			t.Errorf("line %q should contain icon %q", line, tc.icon)
		}
	}
}
