package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nixlim/mission-control/internal/alerts"
	"github.com/nixlim/mission-control/internal/config"
	"github.com/nixlim/mission-control/internal/events"
	"github.com/nixlim/mission-control/internal/globalstate"
	"github.com/nixlim/mission-control/internal/metrics"
	"github.com/nixlim/mission-control/internal/poller"
	"github.com/nixlim/mission-control/internal/receiver"
	"github.com/nixlim/mission-control/internal/rotation"
	"github.com/nixlim/mission-control/internal/statusapi"
	"github.com/nixlim/mission-control/internal/storage"
	"github.com/nixlim/mission-control/internal/tui"
)

func main() {
	configFlag := flag.String("config", "", "Path to config file (default ~/.config/mission-control/config.toml)")
	debugFlag := flag.String("debug", "", "Write received OTLP records (JSONL) to the specified file path")
	logFlag := flag.String("log", "", "Write the application log to the specified file path")
	levelFlag := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	initFlag := flag.Bool("init", false, "Write the default config file and exit")
	unauthorizedFlag := flag.Bool("report-unauthorized", false, "Report the unauthorized access warning and exit")
	flag.Parse()

	configPath := *configFlag
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	if *initFlag {
		RunInit(configPath)
		return
	}

	loadResult, err := config.LoadFrom(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mission-control: config error: %v\n", err)
		os.Exit(1)
	}
	cfg := loadResult.Config

	for _, w := range loadResult.Warnings {
		fmt.Fprintf(os.Stderr, "mission-control: config warning: %s\n", w)
	}

	logger, closeLog, err := newLogger(*logFlag, *levelFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mission-control: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if *unauthorizedFlag {
		os.Exit(RunReportUnauthorized(cfg, logger))
	}

	m := metrics.New()

	journal, isPersistent, err := storage.NewJournal(cfg.Storage, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mission-control: storage error: %v\n", err)
		os.Exit(1)
	}
	m.TrackDropped(journal.DroppedWrites)

	feed := events.NewRingBuffer(cfg.Display.EventBufferSize)
	store := alerts.NewStore()
	client := statusapi.New(cfg.StatusAPI)

	gsOpts := []globalstate.Option{
		globalstate.WithLogger(logger),
		globalstate.WithJournal(journal),
		globalstate.WithMetrics(m),
		globalstate.WithFeed(feed),
		globalstate.WithReportTimeout(float64(cfg.Reporter.DefaultTimeoutSeconds)),
	}
	adapter := globalstate.NewAdapter(client, store, gsOpts...)
	reporter := globalstate.NewReporter(client, store, gsOpts...)

	sched := poller.New(func(ctx context.Context) { adapter.Refresh(ctx) },
		poller.WithInterval(cfg.Polling.Interval()),
		poller.WithLogger(logger),
		poller.WithMetrics(m),
	)

	presenter := rotation.New(
		rotation.WithDwell(rotation.DwellFromConfig(cfg.Rotation)),
		rotation.WithLogger(logger),
	)

	watcher := alerts.NewWatcher(alerts.NewPlatformNotifier(cfg.Notifications.SystemNotify, logger), logger)

	store.OnChange(alerts.Ordered(func(snap alerts.Snapshot) {
		ranked := alerts.Rank(snap.Items)
		presenter.SetList(ranked)
		m.SetActive(severityCounts(ranked))
		watcher.Observe(ranked, false)
		feed.Add(events.RotationReset(time.Now(), len(ranked)))
	}))

	var recv *receiver.Receiver
	if cfg.Receiver.Enabled {
		recvOpts := []receiver.Option{
			receiver.WithLogger(logger),
			receiver.WithMetrics(m),
			receiver.WithFeed(feed),
		}
		if *debugFlag != "" {
			debugFile, err := os.OpenFile(*debugFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "mission-control: failed to open debug log %q: %v\n", *debugFlag, err)
				os.Exit(1)
			}
			defer debugFile.Close()
			recvOpts = append(recvOpts, receiver.WithDebugLogger(receiver.NewFileLogger(debugFile)))
		}
		recv = receiver.New(cfg.Receiver, reporter, recvOpts...)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownMgr := tui.NewShutdownManager()
	if recv != nil {
		shutdownMgr.StopReceiver = func(ctx context.Context) error {
			recv.Stop()
			return nil
		}
	}
	shutdownMgr.StopScheduler = sched.Stop
	shutdownMgr.WaitScheduler = sched.Wait
	shutdownMgr.StopPresenter = presenter.Stop
	shutdownMgr.CloseJournal = journal.Close

	shutdown := func() {
		if err := shutdownMgr.Shutdown(); err != nil {
			logger.Warn().Err(err).Msg("shutdown incomplete")
		}
		cancel()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.SetOutput(io.Discard)

	if recv != nil {
		if err := recv.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "mission-control: failed to start receivers: %v\n", err)
			os.Exit(1)
		}
	}

	sched.Start(ctx)

	model := tui.NewModel(cfg,
		tui.WithBannerProvider(presenter),
		tui.WithAlertListProvider(store),
		tui.WithEventProvider(feed),
		tui.WithPollControl(&pollControl{ctx: ctx, sched: sched, feed: feed}),
		tui.WithJournal(journal),
		tui.WithPersistenceFlag(isPersistent),
		tui.WithOnShutdown(shutdown),
	)

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
	)

	go func() {
		select {
		case <-sigCh:
			shutdown()
			p.Quit()
		case <-ctx.Done():
			return
		}
	}()

	if _, err := p.Run(); err != nil {
		shutdown()
		fmt.Fprintf(os.Stderr, "mission-control: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the application logger. The TUI owns the terminal, so
// without a log path all output is discarded.
func newLogger(path, level string) (zerolog.Logger, func(), error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if path == "" {
		return zerolog.New(io.Discard), func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("failed to open log file %q: %w", path, err)
	}
	logger := zerolog.New(f).Level(lvl).With().Timestamp().Logger()
	return logger, func() { _ = f.Close() }, nil
}

func severityCounts(items []alerts.Item) map[string]int {
	counts := make(map[string]int, 3)
	for sev, n := range alerts.CountBySeverity(items) {
		counts[string(sev)] = n
	}
	return counts
}
