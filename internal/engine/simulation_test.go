package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/territory-sim/internal/agents"
	"github.com/talgya/territory-sim/internal/world"
)

func newSim(t *testing.T, p Params) *Simulation {
	t.Helper()
	sim, err := NewSimulation(p)
	require.NoError(t, err)
	return sim
}

func TestNewSimulationPreconditions(t *testing.T) {
	_, err := NewSimulation(Params{Width: 1, Height: 5, Agents: 1})
	assert.ErrorIs(t, err, ErrGridTooSmall)

	_, err = NewSimulation(Params{Width: 5, Height: 5})
	assert.ErrorIs(t, err, ErrNoAgents)

	_, err = NewSimulation(Params{Width: 3, Height: 3, Agents: 1, WarpCells: 9})
	assert.ErrorIs(t, err, world.ErrTooManyWarpCells)

	_, err = NewSimulation(Params{Width: 3, Height: 3, Placements: []Placement{{Cell: world.Cell{X: 3, Y: 0}}}})
	assert.Error(t, err)
}

func TestNewSimulationNearlyAllWarp(t *testing.T) {
	sim := newSim(t, Params{Width: 3, Height: 3, Agents: 2, WarpCells: 8, Seed: 5})
	assert.Len(t, sim.Ledger.WarpCells(), 8)
	sim.Run(20)
	assert.Equal(t, 20, sim.StepCount())
}

func TestInitialPlacementClaimsStart(t *testing.T) {
	sim := newSim(t, Params{Width: 10, Height: 10, Agents: 8, WarpCells: 5, Seed: 11})
	require.Len(t, sim.Agents, 8)
	for i, a := range sim.Agents {
		assert.Equal(t, agents.AgentID(i+1), a.ID)
		assert.Equal(t, 1, a.TerritorySize())
		assert.True(t, a.Owns(a.Start))
		assert.Same(t, a, sim.AgentIndex[a.ID])
	}
}

func TestTerritoryNeverShrinks(t *testing.T) {
	sim := newSim(t, Params{Width: 20, Height: 20, Agents: 12, WarpCells: 30, Seed: 7})
	sim.Run(300)

	history := sim.History()
	require.Len(t, history, 300)
	for step := 1; step < len(history); step++ {
		for i := range sim.Agents {
			require.GreaterOrEqual(t, history[step][i], history[step-1][i],
				"agent %d shrank at step %d", sim.Agents[i].ID, step)
		}
	}
}

func TestWarpCellsOnlyOwnedByStartingAgents(t *testing.T) {
	sim := newSim(t, Params{
		Width: 12, Height: 12, Agents: 15, WarpCells: 40, Seed: 3,
		Behavior: agents.Options{ExpanderSkipsWarpNeighbors: true},
	})
	sim.Run(500)

	for _, c := range sim.Ledger.WarpCells() {
		owner, ok := sim.Ledger.Owner(c)
		if !ok {
			continue
		}
		assert.Equal(t, c, sim.AgentIndex[owner].Start, "warp cell %s owned by a non-initial claim", c)
	}
}

func TestWarpCellsNeverClaimedByWalkers(t *testing.T) {
	warp := []world.Cell{{X: 1, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}
	sim := newSim(t, Params{
		Width: 5, Height: 5, Seed: 21, Warp: warp,
		Placements: []Placement{
			{Variant: agents.VariantStandard, Cell: world.Cell{X: 0, Y: 0}},
			{Variant: agents.VariantMomentum, Cell: world.Cell{X: 4, Y: 4}},
			{Variant: agents.VariantTeleporter, Cell: world.Cell{X: 0, Y: 4}},
		},
	})
	sim.Run(400)

	for _, c := range warp {
		_, ok := sim.Ledger.Owner(c)
		assert.False(t, ok, "warp cell %s claimed", c)
		for _, a := range sim.Agents {
			assert.False(t, a.Owns(c))
		}
	}
}

func TestLedgerMatchesAgentTerritories(t *testing.T) {
	sim := newSim(t, Params{Width: 15, Height: 15, Agents: 10, WarpCells: 10, Seed: 17})
	sim.Run(250)

	snap := sim.Ledger.Snapshot()
	for x := range snap {
		for y, id := range snap[x] {
			if id == 0 {
				continue
			}
			assert.True(t, sim.AgentIndex[id].Owns(world.Cell{X: x, Y: y}))
		}
	}
}

func TestOccupancyMatchesPositions(t *testing.T) {
	sim := newSim(t, Params{Width: 8, Height: 8, Agents: 10, WarpCells: 4, Seed: 9})
	for step := 0; step < 50; step++ {
		sim.Step()
		total := 0
		for x := 0; x < sim.Grid.Width; x++ {
			for y := 0; y < sim.Grid.Height; y++ {
				c := world.Cell{X: x, Y: y}
				for _, id := range sim.Grid.Occupants(c) {
					require.Equal(t, c, sim.AgentIndex[id].Position)
					total++
				}
			}
		}
		require.Equal(t, len(sim.Agents), total)
	}
}

func TestDeterministicGivenSeed(t *testing.T) {
	p := Params{Width: 25, Height: 25, Agents: 20, WarpCells: 20, Seed: 42}
	a := newSim(t, p)
	b := newSim(t, p)
	a.Run(400)
	b.Run(400)

	assert.Equal(t, a.Ledger.Snapshot(), b.Ledger.Snapshot())
	assert.Equal(t, a.History(), b.History())
	assert.Equal(t, a.FinalReport(), b.FinalReport())
}

func TestStandardWalkerScenario(t *testing.T) {
	start := world.Cell{X: 2, Y: 2}
	sim := newSim(t, Params{
		Width: 5, Height: 5, Seed: 1234, Warp: []world.Cell{},
		Placements: []Placement{{Variant: agents.VariantStandard, Cell: start}},
	})
	walker := sim.Agents[0]

	visited := map[world.Cell]bool{start: true}
	for i := 0; i < 4; i++ {
		prev := walker.Position
		sim.Step()
		require.Contains(t, sim.Grid.Neighbors(prev, world.Moore), walker.Position)
		visited[walker.Position] = true
	}

	assert.Equal(t, len(visited), walker.TerritorySize())
	assert.LessOrEqual(t, walker.TerritorySize(), 5)
}

func TestFinalReportRanking(t *testing.T) {
	sim := newSim(t, Params{Width: 30, Height: 30, Agents: 16, WarpCells: 10, Seed: 8})
	sim.Run(200)

	report := sim.FinalReport()
	require.Len(t, report, 16)
	for i := 1; i < len(report); i++ {
		prev, cur := report[i-1], report[i]
		require.True(t, prev.Peak > cur.Peak || (prev.Peak == cur.Peak && prev.ID < cur.ID))
	}

	last := sim.History()[len(sim.History())-1]
	for _, st := range report {
		a := sim.AgentIndex[st.ID]
		idx := int(st.ID) - 1
		assert.Equal(t, last[idx], st.Peak, "peak is the last recorded snapshot for a growing set")
		assert.Equal(t, a.TerritorySize(), st.Final)
		assert.LessOrEqual(t, st.Peak, st.Final)
		assert.Equal(t, a.Variant, st.Variant)
	}
}

func TestFinalReportBeforeAnyStep(t *testing.T) {
	sim := newSim(t, Params{Width: 4, Height: 4, Agents: 3, Seed: 2})
	for _, st := range sim.FinalReport() {
		assert.Equal(t, 1, st.Peak)
		assert.Equal(t, 1, st.Final)
	}
}

func TestStats(t *testing.T) {
	sim := newSim(t, Params{Width: 10, Height: 10, Agents: 5, WarpCells: 7, Seed: 4})
	sim.Run(30)

	st := sim.Stats()
	assert.Equal(t, 30, st.Step)
	assert.Equal(t, 7, st.WarpCells)
	assert.Equal(t, sim.Ledger.ClaimedCount(), st.ClaimedCells)
	assert.Equal(t, sim.AgentIndex[st.LeaderID].TerritorySize(), st.LeaderSize)
	for _, a := range sim.Agents {
		assert.LessOrEqual(t, a.TerritorySize(), st.LeaderSize)
	}
}
