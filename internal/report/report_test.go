package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/territory-sim/internal/agents"
	"github.com/talgya/territory-sim/internal/engine"
)

func standings() []engine.Standing {
	return []engine.Standing{
		{ID: 3, Variant: agents.VariantExpander, Peak: 1523, Final: 1530},
		{ID: 1, Variant: agents.VariantMomentum, Peak: 410, Final: 412},
		{ID: 2, Variant: agents.VariantStandard, Peak: 97, Final: 97},
	}
}

func TestLeaderboardTruncates(t *testing.T) {
	entries := Leaderboard(standings(), 2)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Rank: 1, ID: 3, Variant: "Expander", Cells: 1523}, entries[0])
	assert.Equal(t, 2, entries[1].Rank)

	assert.Len(t, Leaderboard(standings(), 100), 3)
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, 100, Leaderboard(standings(), 100)))
	assert.Equal(t, "Top 100 Agents with Largest Territories:\n"+
		"Agent 3 (Expander): 1523 cells\n"+
		"Agent 1 (Momentum): 410 cells\n"+
		"Agent 2 (Standard): 97 cells\n", buf.String())
}

func TestLeaderboardFromSimulation(t *testing.T) {
	sim, err := engine.NewSimulation(engine.Params{Width: 20, Height: 20, Agents: 6, WarpCells: 4, Seed: 10})
	require.NoError(t, err)
	sim.Run(100)

	entries := Leaderboard(sim.FinalReport(), 3)
	require.Len(t, entries, 3)
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].Cells, entries[i].Cells)
	}
}
