// Package config loads the run configuration from YAML and validates it.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/territory-sim/internal/agents"
	"github.com/talgya/territory-sim/internal/engine"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the full run configuration. Nothing changes once the run starts.
type Config struct {
	Width            int   `yaml:"width"`
	Height           int   `yaml:"height"`
	Steps            int   `yaml:"steps"`
	Agents           int   `yaml:"agents"`
	SnapshotInterval int   `yaml:"snapshot_interval"`
	WarpCells        int   `yaml:"warp_cells"`
	Seed             int64 `yaml:"seed"` // 0 draws a fresh seed at startup
	TopN             int   `yaml:"top_n"`

	OutputDir    string `yaml:"output_dir"`
	VideoPath    string `yaml:"video_path"`
	VideoFPS     int    `yaml:"video_fps"`
	ChartPath    string `yaml:"chart_path"`
	DBPath       string `yaml:"db_path"`       // Empty disables the SQLite archive
	SnapshotPath string `yaml:"snapshot_path"` // Empty disables the final ownership snapshot

	LogLevel string `yaml:"log_level"`

	TeleporterJumps            bool `yaml:"teleporter_jumps"`
	ExpanderSkipsWarpNeighbors bool `yaml:"expander_skips_warp_neighbors"`
}

// Default returns the baseline parameters: a 100×100 grid, 20 agents,
// 20 warp cells, 10000 steps with a frame every 100.
func Default() Config {
	return Config{
		Width:            100,
		Height:           100,
		Steps:            10000,
		Agents:           20,
		SnapshotInterval: 100,
		WarpCells:        20,
		Seed:             42,
		TopN:             100,
		OutputDir:        "territory_map",
		VideoPath:        "territory_simulation.avi",
		VideoFPS:         5,
		ChartPath:        "territory_leaderboard.png",
		LogLevel:         "info",
	}
}

// Load reads a YAML file over the defaults. Fields missing from the file
// keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// RegisterFlags binds command-line flags that override c's fields.
// Flag defaults are c's current values.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Width, "width", c.Width, "grid width")
	fs.IntVar(&c.Height, "height", c.Height, "grid height")
	fs.IntVar(&c.Steps, "steps", c.Steps, "total steps to run")
	fs.IntVar(&c.Agents, "agents", c.Agents, "number of agents")
	fs.IntVar(&c.SnapshotInterval, "snapshot-interval", c.SnapshotInterval, "render a frame every N steps")
	fs.IntVar(&c.WarpCells, "warp-cells", c.WarpCells, "number of unclaimable warp cells")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "random seed")
	fs.IntVar(&c.TopN, "top", c.TopN, "leaderboard size")
	fs.StringVar(&c.OutputDir, "out", c.OutputDir, "frame output directory")
	fs.StringVar(&c.VideoPath, "video", c.VideoPath, "MJPEG video path (empty disables)")
	fs.IntVar(&c.VideoFPS, "fps", c.VideoFPS, "video frame rate")
	fs.StringVar(&c.ChartPath, "chart", c.ChartPath, "leaderboard chart path (empty disables)")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "SQLite results archive path (empty disables)")
	fs.StringVar(&c.SnapshotPath, "snapshot", c.SnapshotPath, "zstd ownership snapshot path (empty disables)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.BoolVar(&c.TeleporterJumps, "teleporter-jumps", c.TeleporterJumps, "let Teleporters actually jump every 5th turn")
	fs.BoolVar(&c.ExpanderSkipsWarpNeighbors, "expander-skips-warp", c.ExpanderSkipsWarpNeighbors, "stop Expanders claiming warp neighbors")
}

// Validate checks every construction precondition.
func (c Config) Validate() error {
	var problems []string
	if c.Width < 2 || c.Height < 2 {
		problems = append(problems, fmt.Sprintf("grid must be at least 2x2, got %dx%d", c.Width, c.Height))
	}
	if c.Steps < 0 {
		problems = append(problems, "steps must not be negative")
	}
	if c.Agents < 1 {
		problems = append(problems, "agents must be at least 1")
	}
	if c.SnapshotInterval < 1 {
		problems = append(problems, "snapshot_interval must be at least 1")
	}
	if c.WarpCells < 0 || c.WarpCells >= c.Width*c.Height {
		problems = append(problems, fmt.Sprintf("warp_cells must be in [0, %d)", c.Width*c.Height))
	}
	if c.TopN < 1 {
		problems = append(problems, "top_n must be at least 1")
	}
	if c.VideoFPS < 1 {
		problems = append(problems, "video_fps must be at least 1")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Params converts the config into simulation parameters.
func (c Config) Params() engine.Params {
	return engine.Params{
		Width:     c.Width,
		Height:    c.Height,
		Agents:    c.Agents,
		WarpCells: c.WarpCells,
		Seed:      c.Seed,
		Behavior: agents.Options{
			TeleporterJumps:            c.TeleporterJumps,
			ExpanderSkipsWarpNeighbors: c.ExpanderSkipsWarpNeighbors,
		},
	}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}
