// Simulation ties together the grid, the territory ledger, and the agents,
// and runs one turn per agent each step in fixed creation order.
package engine

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"

	"github.com/talgya/territory-sim/internal/agents"
	"github.com/talgya/territory-sim/internal/world"
)

var (
	// ErrGridTooSmall is returned for grids narrower or shorter than 2 cells.
	ErrGridTooSmall = errors.New("grid must be at least 2x2")
	// ErrNoAgents is returned when a simulation would have no agents.
	ErrNoAgents = errors.New("simulation needs at least one agent")
)

// Placement pins one initial agent's variant and starting cell.
type Placement struct {
	Variant agents.Variant
	Cell    world.Cell
}

// Params configures a new simulation. All fields are fixed for the run.
type Params struct {
	Width     int
	Height    int
	Agents    int
	WarpCells int
	Seed      int64

	// Behavior adjusts variant rules; the zero value is the baseline.
	Behavior agents.Options

	// Placements, when set, replaces random variant and start selection.
	// Agents is ignored and one agent is created per entry.
	Placements []Placement

	// Warp, when set, replaces random warp sampling with a fixed set.
	// WarpCells is ignored.
	Warp []world.Cell
}

// Simulation holds the complete territory state.
type Simulation struct {
	Grid       *world.Grid
	Ledger     *world.Ledger
	Agents     []*agents.Agent
	AgentIndex map[agents.AgentID]*agents.Agent

	// history[step][i] is the territory size of Agents[i] at the start of step.
	history [][]int
	steps   int

	rng *rand.Rand
	env *agents.Env
}

// Standing is one agent's line in the final report.
type Standing struct {
	ID      agents.AgentID `json:"id"`
	Variant agents.Variant `json:"variant"`
	Peak    int            `json:"peak"`  // Largest recorded territory size
	Final   int            `json:"final"` // Territory size when the report was taken
}

// Stats summarizes the current territory state.
type Stats struct {
	Step         int            `json:"step"`
	ClaimedCells int            `json:"claimed_cells"`
	WarpCells    int            `json:"warp_cells"`
	LeaderID     agents.AgentID `json:"leader_id"`
	LeaderSize   int            `json:"leader_size"`
}

// NewSimulation builds the grid and ledger, seeds the warp cells, and spawns
// the agents. Every random draw comes from one source seeded with p.Seed.
func NewSimulation(p Params) (*Simulation, error) {
	if p.Width < 2 || p.Height < 2 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrGridTooSmall, p.Width, p.Height)
	}
	if p.Agents < 1 && len(p.Placements) == 0 {
		return nil, ErrNoAgents
	}

	rng := rand.New(rand.NewSource(p.Seed))
	grid := world.NewGrid(p.Width, p.Height)
	ledger := world.NewLedger(p.Width, p.Height)

	var err error
	if p.Warp != nil {
		err = ledger.SetWarpCells(p.Warp)
	} else {
		err = ledger.InitializeWarpCells(p.WarpCells, rng)
	}
	if err != nil {
		return nil, fmt.Errorf("warp cells: %w", err)
	}

	env := &agents.Env{Grid: grid, Ledger: ledger, Rng: rng}
	spawner := agents.NewSpawner(rng, p.Behavior)

	var population []*agents.Agent
	if len(p.Placements) > 0 {
		for _, pl := range p.Placements {
			if !grid.InBounds(pl.Cell) {
				return nil, fmt.Errorf("placement %s outside %dx%d grid", pl.Cell, p.Width, p.Height)
			}
			population = append(population, spawner.SpawnAt(pl.Variant, pl.Cell, env))
		}
	} else {
		population = spawner.SpawnPopulation(p.Agents, env)
	}

	index := make(map[agents.AgentID]*agents.Agent, len(population))
	for _, a := range population {
		index[a.ID] = a
	}

	sim := &Simulation{
		Grid:       grid,
		Ledger:     ledger,
		Agents:     population,
		AgentIndex: index,
		rng:        rng,
		env:        env,
	}

	counts := make(map[agents.Variant]int)
	for _, a := range population {
		counts[a.Variant]++
	}
	slog.Info("simulation initialized",
		"width", p.Width,
		"height", p.Height,
		"agents", len(population),
		"warp_cells", len(ledger.WarpCells()),
		"seed", p.Seed,
		"standard", counts[agents.VariantStandard],
		"momentum", counts[agents.VariantMomentum],
		"expander", counts[agents.VariantExpander],
		"teleporter", counts[agents.VariantTeleporter],
	)
	return sim, nil
}

// Step records every agent's territory size, then gives each agent one turn
// in creation order. An agent's size is recorded before its own turn.
func (s *Simulation) Step() {
	sizes := make([]int, len(s.Agents))
	for i, a := range s.Agents {
		sizes[i] = a.TerritorySize()
		a.Act(s.env)
	}
	s.history = append(s.history, sizes)
	s.steps++
}

// Run performs n steps sequentially.
func (s *Simulation) Run(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

// StepCount returns the number of steps completed.
func (s *Simulation) StepCount() int {
	return s.steps
}

// History returns the recorded sizes, one row per step in agent order.
// The returned rows must not be modified.
func (s *Simulation) History() [][]int {
	return s.history
}

// FinalReport ranks agents by the largest territory size recorded in any
// step snapshot, descending, ties by ascending ID. Before any step has run
// the current size stands in for the peak.
func (s *Simulation) FinalReport() []Standing {
	standings := make([]Standing, len(s.Agents))
	for i, a := range s.Agents {
		peak := 0
		if len(s.history) == 0 {
			peak = a.TerritorySize()
		}
		for _, row := range s.history {
			peak = max(peak, row[i])
		}
		standings[i] = Standing{
			ID:      a.ID,
			Variant: a.Variant,
			Peak:    peak,
			Final:   a.TerritorySize(),
		}
	}
	slices.SortStableFunc(standings, func(a, b Standing) int {
		if c := cmp.Compare(b.Peak, a.Peak); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return standings
}

// Stats returns a summary of the current state.
func (s *Simulation) Stats() Stats {
	st := Stats{
		Step:         s.steps,
		ClaimedCells: s.Ledger.ClaimedCount(),
		WarpCells:    len(s.Ledger.WarpCells()),
	}
	for _, a := range s.Agents {
		if size := a.TerritorySize(); size > st.LeaderSize {
			st.LeaderSize = size
			st.LeaderID = a.ID
		}
	}
	return st
}
