// Package engine provides the territory simulation and the step loop that
// drives it.
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Engine drives a Simulation forward a fixed number of steps.
type Engine struct {
	Sim              *Simulation
	TotalSteps       int
	SnapshotInterval int // OnSnapshot fires when step % SnapshotInterval == 0

	// Callbacks, populated during setup. step is the 0-based index of the
	// step that just completed.
	OnStep     func(step int)
	OnSnapshot func(step int)

	stopped atomic.Bool
}

// NewEngine creates an engine that runs sim for totalSteps steps.
func NewEngine(sim *Simulation, totalSteps, snapshotInterval int) *Engine {
	if snapshotInterval < 1 {
		snapshotInterval = 1
	}
	return &Engine{
		Sim:              sim,
		TotalSteps:       totalSteps,
		SnapshotInterval: snapshotInterval,
	}
}

// Run steps the simulation until TotalSteps have completed, Stop is called,
// or ctx is cancelled. Cancellation is checked between steps, so the
// simulation is always left at a step boundary. Returns ctx.Err() when
// cancelled and nil otherwise.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("simulation engine started", "steps", e.TotalSteps, "snapshot_interval", e.SnapshotInterval)

	for e.Sim.StepCount() < e.TotalSteps {
		if err := ctx.Err(); err != nil {
			slog.Warn("simulation engine cancelled", "step", e.Sim.StepCount(), "error", err)
			return err
		}
		if e.stopped.Load() {
			break
		}

		e.step()
	}

	slog.Info("simulation engine stopped", "steps", e.Sim.StepCount())
	return nil
}

// Stop halts the loop after the current step. Safe to call from another goroutine.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

// step advances the simulation by one step and fires callbacks.
func (e *Engine) step() {
	e.Sim.Step()
	idx := e.Sim.StepCount() - 1

	if e.OnStep != nil {
		e.OnStep(idx)
	}

	if idx%e.SnapshotInterval == 0 {
		st := e.Sim.Stats()
		slog.Info("step completed",
			"step", idx,
			"claimed_cells", st.ClaimedCells,
			"leader", st.LeaderID,
			"leader_size", st.LeaderSize,
		)
		if e.OnSnapshot != nil {
			e.OnSnapshot(idx)
		}
	}
}
