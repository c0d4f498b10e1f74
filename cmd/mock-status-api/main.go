package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nixlim/mission-control/internal/mockapi"
	"github.com/nixlim/mission-control/internal/statusapi"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5000", "Listen address")
	token := flag.String("token", "", "Require this bearer token when set")
	seed := flag.Bool("seed", false, "Start with one alert of each severity")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	srv := mockapi.New(mockapi.WithToken(*token), mockapi.WithLogger(log))
	if *seed {
		now := statusapi.FormatTime(time.Now())
		srv.Seed(
			statusapi.Record{ID: statusapi.Ptr("seed-critical"), State: "critical", Reason: statusapi.Ptr("Reactor coolant pressure low"), CreatedAt: &now},
			statusapi.Record{ID: statusapi.Ptr("seed-warning"), State: "warning", Reason: statusapi.Ptr("Solar array output degraded"), CreatedAt: &now, Timeout: statusapi.Ptr(600.0)},
			statusapi.Record{ID: statusapi.Ptr("seed-normal"), State: "normal", CreatedAt: &now},
		)
	}

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", *addr).Msg("mock status api listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "mock-status-api: %v\n", err)
		os.Exit(1)
	}
}
