// Package agents provides the territory-claiming agents, their four movement
// variants, and the spawner that creates the initial population.
package agents

import (
	"fmt"
	"math/rand"

	"github.com/talgya/territory-sim/internal/world"
)

// AgentID is a unique identifier for an agent. IDs start at 1.
type AgentID = world.AgentID

// Variant tags which movement rule an agent follows.
type Variant uint8

const (
	VariantStandard   Variant = iota // One random step per turn
	VariantMomentum                  // Rests every 6th turn, often double-steps
	VariantExpander                  // Rests every 3rd turn, claims a plus shape
	VariantTeleporter                // Draws a teleport target every 5th turn
)

// NumVariants is the number of movement variants.
const NumVariants = 4

var variantNames = [NumVariants]string{"Standard", "Momentum", "Expander", "Teleporter"}

// String returns the variant label used in reports.
func (v Variant) String() string {
	if int(v) < len(variantNames) {
		return variantNames[v]
	}
	return fmt.Sprintf("Variant(%d)", uint8(v))
}

// ParseVariant resolves a report label back to a Variant.
func ParseVariant(name string) (Variant, error) {
	for i, n := range variantNames {
		if n == name {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("unknown variant %q", name)
}

// Env is the shared world an agent acts on during its turn.
// Only the agent whose turn it is mutates it.
type Env struct {
	Grid   *world.Grid
	Ledger *world.Ledger
	Rng    *rand.Rand
}

// Agent is a mobile entity that claims the cells it visits.
type Agent struct {
	ID       AgentID    `json:"id"`
	Variant  Variant    `json:"variant"`
	Position world.Cell `json:"position"`
	Start    world.Cell `json:"start"`

	territory map[world.Cell]struct{}
	behavior  Behavior
}

// NewAgent creates an agent at pos with the behavior for its variant.
// The agent is not yet placed on any grid.
func NewAgent(id AgentID, v Variant, pos world.Cell, opts Options) *Agent {
	return &Agent{
		ID:        id,
		Variant:   v,
		Position:  pos,
		Start:     pos,
		territory: make(map[world.Cell]struct{}),
		behavior:  NewBehavior(v, opts),
	}
}

// Act runs this agent's per-turn rule.
func (a *Agent) Act(env *Env) {
	a.behavior.Act(a, env)
}

// Moves returns how many turns the agent's behavior has counted.
// Variants without a counter report 0.
func (a *Agent) Moves() int {
	if c, ok := a.behavior.(interface{ Moves() int }); ok {
		return c.Moves()
	}
	return 0
}

// TerritorySize returns the number of distinct cells this agent has claimed.
func (a *Agent) TerritorySize() int {
	return len(a.territory)
}

// Owns reports whether the agent has ever claimed c.
func (a *Agent) Owns(c world.Cell) bool {
	_, ok := a.territory[c]
	return ok
}

// claim adds c to the agent's territory and records it in the ledger.
func (a *Agent) claim(env *Env, c world.Cell) {
	a.territory[c] = struct{}{}
	env.Ledger.Claim(c, a.ID)
}

// moveTo relocates the agent on the grid.
func (a *Agent) moveTo(env *Env, c world.Cell) {
	env.Grid.MoveAgent(a.ID, a.Position, c)
	a.Position = c
}
