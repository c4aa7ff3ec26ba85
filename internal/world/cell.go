// Package world provides the bounded rectangular grid, agent occupancy
// bookkeeping, and the territory ledger.
package world

import "fmt"

// Cell is a position on the grid. X runs along the width, Y along the height.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String returns the cell as "(x,y)".
func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Connectivity selects which adjacent cells count as neighbors.
type Connectivity uint8

const (
	Moore      Connectivity = iota // 8-connected, diagonals included
	VonNeumann                     // 4-connected, orthogonal only
)

// mooreOffsets lists the eight neighbor offsets in column-major order
// (dx outer, dy inner), center excluded.
var mooreOffsets = [8]Cell{
	{X: -1, Y: -1}, {X: -1, Y: 0}, {X: -1, Y: 1},
	{X: 0, Y: -1}, {X: 0, Y: 1},
	{X: 1, Y: -1}, {X: 1, Y: 0}, {X: 1, Y: 1},
}

// vonNeumannOffsets lists the four orthogonal neighbor offsets in the same order.
var vonNeumannOffsets = [4]Cell{
	{X: -1, Y: 0},
	{X: 0, Y: -1}, {X: 0, Y: 1},
	{X: 1, Y: 0},
}

// Offsets returns the neighbor offsets for the connectivity.
func (c Connectivity) Offsets() []Cell {
	if c == VonNeumann {
		return vonNeumannOffsets[:]
	}
	return mooreOffsets[:]
}

// String returns the connectivity name.
func (c Connectivity) String() string {
	if c == VonNeumann {
		return "von_neumann"
	}
	return "moore"
}
