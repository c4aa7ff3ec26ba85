// Package persistence archives finished runs: a SQLite database of run,
// agent, and per-step territory sizes, and a compressed ownership snapshot.
// Archives are write-once records; runs are never resumed from them.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/territory-sim/internal/agents"
	"github.com/talgya/territory-sim/internal/engine"
)

// DB wraps a SQLite connection for the results archive.
type DB struct {
	conn *sqlx.DB
}

// Run describes one archived simulation run.
type Run struct {
	ID         string `db:"id"`
	Seed       int64  `db:"seed"`
	Width      int    `db:"width"`
	Height     int    `db:"height"`
	Steps      int    `db:"steps"`
	Agents     int    `db:"agents"`
	WarpCells  int    `db:"warp_cells"`
	Config     string `db:"config"` // YAML rendering of the run configuration
	StartedAt  string `db:"started_at"`
	FinishedAt string `db:"finished_at"`
}

// NewRun creates a run record with a fresh ID, started now.
func NewRun(seed int64, config string) Run {
	return Run{
		ID:        uuid.NewString(),
		Seed:      seed,
		Config:    config,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		steps INTEGER NOT NULL,
		agents INTEGER NOT NULL,
		warp_cells INTEGER NOT NULL,
		config TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agents (
		run_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		variant INTEGER NOT NULL,
		start_x INTEGER NOT NULL,
		start_y INTEGER NOT NULL,
		pos_x INTEGER NOT NULL,
		pos_y INTEGER NOT NULL,
		peak INTEGER NOT NULL,
		final_size INTEGER NOT NULL,
		PRIMARY KEY (run_id, id)
	);

	CREATE TABLE IF NOT EXISTS step_sizes (
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		agent_id INTEGER NOT NULL,
		size INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS warp_cells (
		run_id TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_step_sizes_run_agent ON step_sizes(run_id, agent_id, step);
	CREATE INDEX IF NOT EXISTS idx_warp_cells_run ON warp_cells(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun archives a finished simulation under run.ID in one transaction.
func (db *DB) SaveRun(run Run, sim *engine.Simulation) error {
	run.Width = sim.Grid.Width
	run.Height = sim.Grid.Height
	run.Steps = sim.StepCount()
	run.Agents = len(sim.Agents)
	run.WarpCells = len(sim.Ledger.WarpCells())
	if run.FinishedAt == "" {
		run.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExec(`INSERT INTO runs
		(id, seed, width, height, steps, agents, warp_cells, config, started_at, finished_at)
		VALUES (:id, :seed, :width, :height, :steps, :agents, :warp_cells, :config, :started_at, :finished_at)`,
		run); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	report := sim.FinalReport()
	for _, st := range report {
		a := sim.AgentIndex[st.ID]
		_, err := tx.Exec(`INSERT INTO agents
			(run_id, id, variant, start_x, start_y, pos_x, pos_y, peak, final_size)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, a.ID, a.Variant, a.Start.X, a.Start.Y, a.Position.X, a.Position.Y, st.Peak, st.Final,
		)
		if err != nil {
			return fmt.Errorf("insert agent %d: %w", a.ID, err)
		}
	}

	for _, c := range sim.Ledger.WarpCells() {
		if _, err := tx.Exec("INSERT INTO warp_cells (run_id, x, y) VALUES (?, ?, ?)", run.ID, c.X, c.Y); err != nil {
			return fmt.Errorf("insert warp cell %s: %w", c, err)
		}
	}

	stmt, err := tx.Preparex("INSERT INTO step_sizes (run_id, step, agent_id, size) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	rows := 0
	for step, sizes := range sim.History() {
		for i, size := range sizes {
			if _, err := stmt.Exec(run.ID, step, sim.Agents[i].ID, size); err != nil {
				return fmt.Errorf("insert step %d: %w", step, err)
			}
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("run archived", "run", run.ID, "agents", len(report), "step_rows", humanize.Comma(int64(rows)))
	return nil
}

// GetRun loads a run record.
func (db *DB) GetRun(id string) (Run, error) {
	var run Run
	err := db.conn.Get(&run, "SELECT * FROM runs WHERE id = ?", id)
	return run, err
}

// Runs lists archived runs, most recent first.
func (db *DB) Runs(limit int) ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT * FROM runs ORDER BY started_at DESC, id LIMIT ?", limit)
	return runs, err
}

// Standings returns a run's final report in ranked order.
func (db *DB) Standings(runID string) ([]engine.Standing, error) {
	var rows []struct {
		ID      int64 `db:"id"`
		Variant int64 `db:"variant"`
		Peak    int   `db:"peak"`
		Final   int   `db:"final"`
	}
	err := db.conn.Select(&rows,
		"SELECT id, variant, peak, final_size AS final FROM agents WHERE run_id = ? ORDER BY peak DESC, id ASC",
		runID,
	)
	if err != nil {
		return nil, err
	}
	standings := make([]engine.Standing, len(rows))
	for i, r := range rows {
		standings[i] = engine.Standing{
			ID:      agents.AgentID(r.ID),
			Variant: agents.Variant(r.Variant),
			Peak:    r.Peak,
			Final:   r.Final,
		}
	}
	return standings, nil
}

// StepSizes returns one agent's recorded territory size for every step.
func (db *DB) StepSizes(runID string, agentID agents.AgentID) ([]int, error) {
	var sizes []int
	err := db.conn.Select(&sizes,
		"SELECT size FROM step_sizes WHERE run_id = ? AND agent_id = ? ORDER BY step",
		runID, int64(agentID),
	)
	return sizes, err
}
