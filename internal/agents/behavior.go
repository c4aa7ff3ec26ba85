// Per-turn movement rules. Every variant picks a destination from the
// 8-connected neighborhood, moves there, and claims it unless it is a warp
// cell. Variants differ in when they rest and how far they go.
package agents

import "github.com/talgya/territory-sim/internal/world"

// Behavior decides and applies one turn for an agent.
type Behavior interface {
	Act(a *Agent, env *Env)
}

// Options adjusts variant rules away from their baseline behavior.
type Options struct {
	// TeleporterJumps makes the Teleporter actually move to its teleport
	// target on every 5th turn. Off by default: the target is drawn and
	// discarded and the agent takes an ordinary step.
	TeleporterJumps bool

	// ExpanderSkipsWarpNeighbors stops the Expander from claiming 4-connected
	// neighbors that are warp cells. Off by default: only the destination is
	// checked.
	ExpanderSkipsWarpNeighbors bool
}

const (
	momentumRestEvery   = 6
	momentumSecondStepP = 0.7
	expanderRestEvery   = 3
	teleportEvery       = 5
)

// NewBehavior returns the behavior for a variant.
func NewBehavior(v Variant, opts Options) Behavior {
	switch v {
	case VariantMomentum:
		return &Momentum{}
	case VariantExpander:
		return &Expander{SkipWarpNeighbors: opts.ExpanderSkipsWarpNeighbors}
	case VariantTeleporter:
		return &Teleporter{Jump: opts.TeleporterJumps}
	default:
		return Standard{}
	}
}

// randomStep picks a uniformly random 8-connected neighbor of from.
func randomStep(env *Env, from world.Cell) world.Cell {
	steps := env.Grid.Neighbors(from, world.Moore)
	return steps[env.Rng.Intn(len(steps))]
}

// settle moves the agent to dest and claims it unless it is a warp cell.
// Returns whether a claim was made.
func settle(a *Agent, env *Env, dest world.Cell) bool {
	a.moveTo(env, dest)
	if env.Ledger.IsWarpCell(dest) {
		return false
	}
	a.claim(env, dest)
	return true
}

// Standard takes one random step every turn.
type Standard struct{}

// Act implements Behavior.
func (Standard) Act(a *Agent, env *Env) {
	settle(a, env, randomStep(env, a.Position))
}

// Momentum rests every 6th turn. Otherwise it steps once and, with
// probability 0.7, steps again from there. Only the final cell is claimed.
type Momentum struct {
	moves int
}

// Moves returns the turn counter.
func (m *Momentum) Moves() int { return m.moves }

// Act implements Behavior.
func (m *Momentum) Act(a *Agent, env *Env) {
	m.moves++
	if m.moves%momentumRestEvery == 0 {
		return
	}
	dest := randomStep(env, a.Position)
	if env.Rng.Float64() < momentumSecondStepP {
		dest = randomStep(env, dest)
	}
	settle(a, env, dest)
}

// Expander rests every 3rd turn. Otherwise it steps once and, when the
// destination is claimable, also claims its 4-connected neighbors.
type Expander struct {
	moves int

	// SkipWarpNeighbors excludes warp cells from the neighbor claims.
	SkipWarpNeighbors bool
}

// Moves returns the turn counter.
func (e *Expander) Moves() int { return e.moves }

// Act implements Behavior.
func (e *Expander) Act(a *Agent, env *Env) {
	e.moves++
	if e.moves%expanderRestEvery == 0 {
		return
	}
	dest := randomStep(env, a.Position)
	if !settle(a, env, dest) {
		return
	}
	for _, n := range env.Grid.Neighbors(dest, world.VonNeumann) {
		if e.SkipWarpNeighbors && env.Ledger.IsWarpCell(n) {
			continue
		}
		a.claim(env, n)
	}
}

// Teleporter draws a random teleport target every 5th turn. Unless Jump is
// set the target is discarded and the turn is an ordinary random step, so
// the baseline Teleporter moves exactly like Standard while consuming two
// extra random draws every 5th turn.
type Teleporter struct {
	moves int

	// Jump moves the agent to the teleport target instead of discarding it.
	Jump bool
}

// Moves returns the turn counter.
func (t *Teleporter) Moves() int { return t.moves }

// Act implements Behavior.
func (t *Teleporter) Act(a *Agent, env *Env) {
	t.moves++
	if t.moves%teleportEvery == 0 {
		target := world.Cell{
			X: env.Rng.Intn(env.Grid.Width),
			Y: env.Rng.Intn(env.Grid.Height),
		}
		if t.Jump {
			settle(a, env, target)
			return
		}
	}
	settle(a, env, randomStep(env, a.Position))
}
