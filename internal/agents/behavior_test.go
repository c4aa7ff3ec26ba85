package agents

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/territory-sim/internal/world"
)

// scriptedSource replays fixed Int63 values so Intn and Float64 results can
// be chosen by the test. It fails the test when the script runs out.
type scriptedSource struct {
	t      *testing.T
	values []int64
}

func (s *scriptedSource) Int63() int64 {
	s.t.Helper()
	if len(s.values) == 0 {
		s.t.Fatalf("random source exhausted")
	}
	v := s.values[0]
	s.values = s.values[1:]
	return v
}

func (s *scriptedSource) Seed(int64) {}

// pick scripts an Intn(n) result of k (for k < n).
func pick(k int) int64 { return int64(k) << 32 }

// frac scripts a Float64 result of roughly f.
func frac(f float64) int64 { return int64(f * (1 << 63)) }

func scripted(t *testing.T, values ...int64) *rand.Rand {
	return rand.New(&scriptedSource{t: t, values: values})
}

func newEnv(w, h int, rng *rand.Rand, warp ...world.Cell) *Env {
	l := world.NewLedger(w, h)
	if err := l.SetWarpCells(warp); err != nil {
		panic(err)
	}
	return &Env{Grid: world.NewGrid(w, h), Ledger: l, Rng: rng}
}

func spawn(env *Env, v Variant, pos world.Cell, opts Options) *Agent {
	return NewSpawner(env.Rng, opts).SpawnAt(v, pos, env)
}

func TestSpawnAtClaimsStartEvenOnWarp(t *testing.T) {
	start := world.Cell{X: 1, Y: 1}
	env := newEnv(3, 3, rand.New(rand.NewSource(1)), start)
	a := spawn(env, VariantStandard, start, Options{})

	assert.Equal(t, AgentID(1), a.ID)
	assert.True(t, a.Owns(start))
	owner, ok := env.Ledger.Owner(start)
	require.True(t, ok)
	assert.Equal(t, a.ID, owner)
	assert.Equal(t, []AgentID{a.ID}, env.Grid.Occupants(start))
}

func TestStandardStepsAndClaims(t *testing.T) {
	env := newEnv(5, 5, scripted(t, pick(7)))
	a := spawn(env, VariantStandard, world.Cell{X: 2, Y: 2}, Options{})

	a.Act(env)

	dest := world.Cell{X: 3, Y: 3}
	assert.Equal(t, dest, a.Position)
	assert.True(t, a.Owns(dest))
	assert.Equal(t, 2, a.TerritorySize())
	owner, _ := env.Ledger.Owner(dest)
	assert.Equal(t, a.ID, owner)
	assert.Empty(t, env.Grid.Occupants(world.Cell{X: 2, Y: 2}))
	assert.Equal(t, []AgentID{a.ID}, env.Grid.Occupants(dest))
}

func TestStandardMovesOntoWarpWithoutClaim(t *testing.T) {
	warp := world.Cell{X: 1, Y: 1}
	env := newEnv(3, 3, scripted(t, pick(2)), warp)
	a := spawn(env, VariantStandard, world.Cell{X: 0, Y: 0}, Options{})

	a.Act(env)

	assert.Equal(t, warp, a.Position)
	assert.False(t, a.Owns(warp))
	_, ok := env.Ledger.Owner(warp)
	assert.False(t, ok)
	assert.Equal(t, 1, a.TerritorySize())
}

func TestMomentumDoubleStepClaimsOnlyFinalCell(t *testing.T) {
	env := newEnv(5, 5, scripted(t,
		pick(0), frac(0.9), // turn 1: (2,2) -> (1,1), no second step
		pick(0), frac(0.1), pick(1), // turn 2: (1,1) -> (0,0) -> (1,0)
		pick(4), frac(0.9), // turn 3: (1,0) -> (2,1)
		pick(0), frac(0.9), // turn 4: (2,1) -> (1,0)
		pick(0), frac(0.9), // turn 5: (1,0) -> (0,0)
		// turn 6 rests and draws nothing
	))
	a := spawn(env, VariantMomentum, world.Cell{X: 2, Y: 2}, Options{})

	a.Act(env)
	assert.Equal(t, world.Cell{X: 1, Y: 1}, a.Position)

	a.Act(env)
	assert.Equal(t, world.Cell{X: 1, Y: 0}, a.Position)
	assert.True(t, a.Owns(world.Cell{X: 1, Y: 0}))
	assert.False(t, a.Owns(world.Cell{X: 0, Y: 0}), "intermediate cell must not be claimed")

	a.Act(env)
	a.Act(env)
	a.Act(env)
	assert.Equal(t, world.Cell{X: 0, Y: 0}, a.Position)
	size := a.TerritorySize()

	a.Act(env)
	assert.Equal(t, world.Cell{X: 0, Y: 0}, a.Position)
	assert.Equal(t, size, a.TerritorySize())
	assert.Equal(t, 6, a.Moves())
}

func TestExpanderClaimsPlusShape(t *testing.T) {
	env := newEnv(3, 3, scripted(t, pick(2)))
	a := spawn(env, VariantExpander, world.Cell{X: 0, Y: 0}, Options{})

	a.Act(env)

	center := world.Cell{X: 1, Y: 1}
	require.Equal(t, center, a.Position)
	for _, c := range []world.Cell{center, {X: 0, Y: 1}, {X: 2, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 2}} {
		assert.True(t, a.Owns(c), "missing %s", c)
		owner, ok := env.Ledger.Owner(c)
		require.True(t, ok)
		assert.Equal(t, a.ID, owner)
	}
	assert.Equal(t, 6, a.TerritorySize())
}

func TestExpanderRestsEveryThirdTurn(t *testing.T) {
	env := newEnv(4, 4, scripted(t, pick(0), pick(0)))
	a := spawn(env, VariantExpander, world.Cell{X: 3, Y: 3}, Options{})

	a.Act(env)
	a.Act(env)
	pos, size := a.Position, a.TerritorySize()

	a.Act(env)
	assert.Equal(t, pos, a.Position)
	assert.Equal(t, size, a.TerritorySize())
}

func TestExpanderOnWarpClaimsNothing(t *testing.T) {
	warp := world.Cell{X: 1, Y: 1}
	env := newEnv(3, 3, scripted(t, pick(2)), warp)
	a := spawn(env, VariantExpander, world.Cell{X: 0, Y: 0}, Options{})

	a.Act(env)

	assert.Equal(t, warp, a.Position)
	assert.Equal(t, 1, a.TerritorySize())
	assert.Equal(t, 1, env.Ledger.ClaimedCount())
}

func TestExpanderWarpNeighbors(t *testing.T) {
	warpNeighbor := world.Cell{X: 2, Y: 1}

	env := newEnv(3, 3, scripted(t, pick(2)), warpNeighbor)
	a := spawn(env, VariantExpander, world.Cell{X: 0, Y: 0}, Options{})
	a.Act(env)
	assert.True(t, a.Owns(warpNeighbor), "baseline claims warp neighbors")
	_, ok := env.Ledger.Owner(warpNeighbor)
	assert.True(t, ok)

	env = newEnv(3, 3, scripted(t, pick(2)), warpNeighbor)
	a = spawn(env, VariantExpander, world.Cell{X: 0, Y: 0}, Options{ExpanderSkipsWarpNeighbors: true})
	a.Act(env)
	assert.False(t, a.Owns(warpNeighbor))
	_, ok = env.Ledger.Owner(warpNeighbor)
	assert.False(t, ok)
	assert.Equal(t, 5, a.TerritorySize())
}

func TestTeleporterDiscardsTargetByDefault(t *testing.T) {
	env := newEnv(5, 5, scripted(t,
		pick(7), pick(0), pick(7), pick(0), // turns 1-4: (2,2) <-> (3,3)
		pick(4), pick(4), // turn 5: teleport target (4,4), discarded
		pick(0), // turn 5: ordinary step to (1,1)
	))
	a := spawn(env, VariantTeleporter, world.Cell{X: 2, Y: 2}, Options{})

	for i := 0; i < 5; i++ {
		a.Act(env)
	}
	assert.Equal(t, world.Cell{X: 1, Y: 1}, a.Position)
	assert.False(t, a.Owns(world.Cell{X: 4, Y: 4}))
	assert.Equal(t, 5, a.Moves())
	assert.Equal(t, 3, a.TerritorySize())
}

func TestTeleporterJumpsWhenEnabled(t *testing.T) {
	env := newEnv(5, 5, scripted(t,
		pick(0), pick(7), pick(0), pick(7), // turns 1-4
		pick(4), pick(0), // turn 5: teleport to (4,0)
	))
	a := spawn(env, VariantTeleporter, world.Cell{X: 2, Y: 2}, Options{TeleporterJumps: true})

	for i := 0; i < 5; i++ {
		a.Act(env)
	}
	target := world.Cell{X: 4, Y: 0}
	assert.Equal(t, target, a.Position)
	assert.True(t, a.Owns(target))
	assert.Equal(t, []AgentID{a.ID}, env.Grid.Occupants(target))
}
