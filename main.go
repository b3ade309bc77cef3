package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/boidmind/config"
	"github.com/pthm-cable/boidmind/game"
	"github.com/pthm-cable/boidmind/scenario"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	scenarioPath := flag.String("scenario", "scenarios/skirmish.yaml", "Path to scenario file")
	watch := flag.Bool("watch", false, "Reload scenario directives when the file changes")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for the final snapshot")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = scenario seed)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	workers := flag.Int("workers", 0, "Routine compute workers (0 = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	file, err := scenario.Load(*scenarioPath)
	if err != nil {
		slog.Error("failed to load scenario", "error", err)
		os.Exit(1)
	}

	if *seed == 0 {
		*seed = file.Seed
	}

	g, err := game.NewGame(game.Options{
		Seed:           *seed,
		Scenario:       file.Name,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		SnapshotDir:    *snapshotDir,
		Workers:        *workers,
	})
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}

	res, err := scenario.Apply(g, file, *seed)
	if err != nil {
		slog.Error("failed to apply scenario", "error", err)
		g.Close()
		os.Exit(1)
	}

	var updates <-chan *scenario.File
	var watchErrs <-chan error
	if *watch {
		w, err := scenario.NewWatcher(*scenarioPath)
		if err != nil {
			slog.Error("failed to watch scenario", "error", err)
			g.Close()
			os.Exit(1)
		}
		defer w.Close()
		updates, watchErrs = w.Updates, w.Errors
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting headless simulation",
		"scenario", file.Name,
		"seed", *seed,
		"max_ticks", *maxTicks,
		"watch", *watch,
	)
	start := time.Now()

	g.Run(*maxTicks, func() bool {
		select {
		case <-ctx.Done():
			slog.Info("interrupted", "tick", g.Tick())
			return true
		case f := <-updates:
			n, err := scenario.ApplyDirectives(g, res, f)
			if err != nil {
				slog.Error("failed to reload directives", "error", err)
			} else {
				slog.Info("scenario reloaded", "tick", g.Tick(), "changed", n)
			}
		case err := <-watchErrs:
			slog.Warn("scenario reload rejected", "error", err)
		default:
		}
		return false
	})

	if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
		slog.Info("max ticks reached", "tick", g.Tick())
	}
	if err := g.Close(); err != nil {
		slog.Error("failed to close game", "error", err)
	}
	slog.Info("simulation finished",
		"ticks", g.Tick(),
		"sim_seconds", g.Now(),
		"wall", time.Since(start).Round(time.Millisecond).String(),
		"fire_events", g.FireEvents(),
	)
}
