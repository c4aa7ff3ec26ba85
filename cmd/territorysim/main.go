// Command territorysim runs the territory-claiming simulation and writes
// frames, a video, a leaderboard, and an optional results archive.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/talgya/territory-sim/internal/config"
	"github.com/talgya/territory-sim/internal/engine"
	"github.com/talgya/territory-sim/internal/entropy"
	"github.com/talgya/territory-sim/internal/persistence"
	"github.com/talgya/territory-sim/internal/render"
	"github.com/talgya/territory-sim/internal/report"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("territorysim failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// ── Configuration ────────────────────────────────────────────────
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if seed, drawn := entropy.Resolve(cfg.Seed); drawn {
		cfg.Seed = seed
		slog.Info("no seed configured, drew one", "seed", seed)
	}

	// ── Simulation ───────────────────────────────────────────────────
	sim, err := engine.NewSimulation(cfg.Params())
	if err != nil {
		return fmt.Errorf("initialize simulation: %w", err)
	}

	cfgYAML, err := yaml.Marshal(cfg)
	if err != nil {
		slog.Error("config not recorded in archive", "error", err)
	}
	archive := persistence.NewRun(cfg.Seed, string(cfgYAML))

	frames := render.NewFrameWriter(cfg.OutputDir, frameCellSize(cfg.Width, cfg.Height), cfg.Seed)
	framesOK := true
	var framePaths []string

	eng := engine.NewEngine(sim, cfg.Steps, cfg.SnapshotInterval)
	eng.OnSnapshot = func(step int) {
		if !framesOK {
			return
		}
		path, err := frames.Write(step, sim.Ledger.Snapshot(), sim.Ledger.WarpCells())
		if err != nil {
			// Keep simulating; the final report does not depend on frames.
			slog.Error("frame rendering disabled", "step", step, "error", err)
			framesOK = false
			return
		}
		framePaths = append(framePaths, path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	// ── Report ───────────────────────────────────────────────────────
	entries := report.Leaderboard(sim.FinalReport(), cfg.TopN)
	if err := report.Print(os.Stdout, cfg.TopN, entries); err != nil {
		return err
	}
	fmt.Println("Simulation complete.")

	// ── Peripheral outputs (failures are logged, never fatal) ────────
	if cfg.ChartPath != "" {
		if err := render.LeaderboardChart(cfg.ChartPath, entries); err != nil {
			slog.Error("leaderboard chart failed", "path", cfg.ChartPath, "error", err)
		} else {
			slog.Info("leaderboard chart written", "path", cfg.ChartPath)
		}
	}

	if cfg.VideoPath != "" && framesOK {
		n, err := render.AssembleVideo(framePaths, cfg.VideoPath, cfg.VideoFPS)
		if err != nil {
			slog.Error("video assembly failed", "path", cfg.VideoPath, "error", err)
		} else {
			slog.Info("video written", "path", cfg.VideoPath, "frames", n)
		}
	}

	if cfg.SnapshotPath != "" {
		snap := persistence.NewOwnershipSnapshot(archive.ID, sim)
		if err := persistence.WriteSnapshot(cfg.SnapshotPath, snap); err != nil {
			slog.Error("ownership snapshot failed", "path", cfg.SnapshotPath, "error", err)
		}
	}

	if cfg.DBPath != "" {
		if err := archiveRun(cfg.DBPath, archive, sim); err != nil {
			slog.Error("results archive failed", "path", cfg.DBPath, "error", err)
		}
	}

	return nil
}

// loadConfig applies defaults, then the -config file, then flag overrides.
func loadConfig(args []string) (config.Config, error) {
	cfgPath := ""
	pre := flag.NewFlagSet("territorysim", flag.ContinueOnError)
	pre.SetOutput(io.Discard)
	pre.StringVar(&cfgPath, "config", "", "")
	// Only -config matters here; the full parse below reports other errors.
	_ = pre.Parse(configArgs(args))

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}

	fs := flag.NewFlagSet("territorysim", flag.ContinueOnError)
	fs.String("config", cfgPath, "YAML config file")
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// configArgs extracts the -config flag and its value from args.
func configArgs(args []string) []string {
	for i, a := range args {
		switch a {
		case "-config", "--config":
			if i+1 < len(args) {
				return args[i : i+2]
			}
		}
		if strings.HasPrefix(a, "-config=") || strings.HasPrefix(a, "--config=") {
			return []string{a}
		}
	}
	return nil
}

func archiveRun(path string, run persistence.Run, sim *engine.Simulation) error {
	db, err := persistence.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.SaveRun(run, sim)
}

// frameCellSize picks a pixel size per cell that keeps frames near 800px.
func frameCellSize(width, height int) int {
	return max(1, 800/max(width, height))
}
