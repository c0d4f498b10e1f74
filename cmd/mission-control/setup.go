package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/nixlim/mission-control/internal/alerts"
	"github.com/nixlim/mission-control/internal/config"
	"github.com/nixlim/mission-control/internal/events"
	"github.com/nixlim/mission-control/internal/globalstate"
	"github.com/nixlim/mission-control/internal/statusapi"
)

// RunInit writes the default config file to path.
//
// Exit codes:
//   - 0: written
//   - 1: file exists or could not be written
func RunInit(path string) {
	if err := config.WriteDefault(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote default config to %s\n", path)
}

// RunReportUnauthorized submits the unauthorized access warning through
// the regular write path and returns the process exit code.
func RunReportUnauthorized(cfg config.Config, logger zerolog.Logger) int {
	store := alerts.NewStore()
	feed := events.NewRingBuffer(4)
	client := statusapi.New(cfg.StatusAPI)

	reporter := globalstate.NewReporter(client, store,
		globalstate.WithLogger(logger),
		globalstate.WithFeed(feed),
		globalstate.WithReportTimeout(float64(cfg.Reporter.DefaultTimeoutSeconds)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StatusAPI.RequestTimeout()+time.Second)
	defer cancel()

	reporter.ReportUnauthorizedAccess(ctx, "cli")

	recent := feed.Recent(1)
	if len(recent) == 0 {
		fmt.Fprintln(os.Stderr, "Error: nothing was reported")
		return 1
	}
	last := recent[0]
	fmt.Println(last.Text)
	if last.Success != nil && !*last.Success {
		return 1
	}
	return 0
}
