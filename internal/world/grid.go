package world

import (
	"fmt"
	"slices"
)

// AgentID identifies an agent for the lifetime of a simulation.
// Zero is reserved as the "unclaimed" sentinel in ledger snapshots.
type AgentID uint64

// Grid is a bounded width×height coordinate space without wraparound.
// Any number of agents may occupy the same cell.
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	occupants map[Cell][]AgentID
}

// NewGrid creates an empty grid. Dimensions must be positive.
func NewGrid(width, height int) *Grid {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("world: invalid grid size %dx%d", width, height))
	}
	return &Grid{
		Width:     width,
		Height:    height,
		occupants: make(map[Cell][]AgentID),
	}
}

// InBounds reports whether the cell lies within the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// Cells returns the total number of cells on the grid.
func (g *Grid) Cells() int {
	return g.Width * g.Height
}

// Neighbors returns the in-bounds cells adjacent to c, excluding c itself.
// Order is deterministic: x ascending, then y ascending.
// Panics if c is out of bounds.
func (g *Grid) Neighbors(c Cell, conn Connectivity) []Cell {
	g.mustContain(c)
	offsets := conn.Offsets()
	result := make([]Cell, 0, len(offsets))
	for _, d := range offsets {
		n := Cell{X: c.X + d.X, Y: c.Y + d.Y}
		if g.InBounds(n) {
			result = append(result, n)
		}
	}
	return result
}

// PlaceAgent registers id as an occupant of c.
func (g *Grid) PlaceAgent(id AgentID, c Cell) {
	g.mustContain(c)
	g.occupants[c] = append(g.occupants[c], id)
}

// MoveAgent moves id from one cell to another. Adjacency is not checked;
// the caller's movement policy decides what a legal move is.
func (g *Grid) MoveAgent(id AgentID, from, to Cell) {
	g.mustContain(to)
	ids := g.occupants[from]
	i := slices.Index(ids, id)
	if i < 0 {
		panic(fmt.Sprintf("world: agent %d is not at %s", id, from))
	}
	ids = slices.Delete(ids, i, i+1)
	if len(ids) == 0 {
		delete(g.occupants, from)
	} else {
		g.occupants[from] = ids
	}
	g.occupants[to] = append(g.occupants[to], id)
}

// Occupants returns a copy of the agent IDs located at c.
func (g *Grid) Occupants(c Cell) []AgentID {
	return slices.Clone(g.occupants[c])
}

// OccupiedCells returns the number of cells holding at least one agent.
func (g *Grid) OccupiedCells() int {
	return len(g.occupants)
}

func (g *Grid) mustContain(c Cell) {
	if !g.InBounds(c) {
		panic(fmt.Sprintf("world: cell %s outside %dx%d grid", c, g.Width, g.Height))
	}
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, occupied=%d)", g.Width, g.Height, g.OccupiedCells())
}
