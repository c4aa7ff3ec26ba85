// Agent spawning: creates the initial population with a random variant and
// a random starting cell, and claims that cell for the new agent.
package agents

import (
	"math/rand"

	"github.com/talgya/territory-sim/internal/world"
)

// Spawner creates agents for the simulation. It draws from the simulation's
// shared random source so one seed controls the whole run.
type Spawner struct {
	rng    *rand.Rand
	opts   Options
	nextID AgentID
}

// NewSpawner creates an agent spawner drawing from rng.
func NewSpawner(rng *rand.Rand, opts Options) *Spawner {
	return &Spawner{
		rng:    rng,
		opts:   opts,
		nextID: 1,
	}
}

// SpawnPopulation creates count agents, each with a uniformly random variant
// and starting cell, placed on the grid and credited with that cell.
func (s *Spawner) SpawnPopulation(count int, env *Env) []*Agent {
	population := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		v := Variant(s.rng.Intn(NumVariants))
		pos := world.Cell{
			X: s.rng.Intn(env.Grid.Width),
			Y: s.rng.Intn(env.Grid.Height),
		}
		population = append(population, s.SpawnAt(v, pos, env))
	}
	return population
}

// SpawnAt creates one agent of the given variant at pos.
// The starting cell is claimed even when it is a warp cell.
func (s *Spawner) SpawnAt(v Variant, pos world.Cell, env *Env) *Agent {
	id := s.nextID
	s.nextID++

	a := NewAgent(id, v, pos, s.opts)
	env.Grid.PlaceAgent(id, pos)
	a.claim(env, pos)
	return a
}
