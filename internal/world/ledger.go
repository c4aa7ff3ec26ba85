package world

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
)

var (
	// ErrWarpAlreadyInitialized is returned when warp cells are seeded twice.
	ErrWarpAlreadyInitialized = errors.New("warp cells already initialized")
	// ErrTooManyWarpCells is returned when the warp count does not leave a claimable cell.
	ErrTooManyWarpCells = errors.New("warp cell count must be less than grid cell count")
)

// Ledger records which agent owns each claimed cell and which cells are warp
// cells. Ownership is last-writer-wins; there is no deletion.
type Ledger struct {
	Width  int
	Height int

	ownership map[Cell]AgentID
	warp      map[Cell]struct{}
	seeded    bool
}

// NewLedger creates an empty ledger for a width×height grid.
func NewLedger(width, height int) *Ledger {
	return &Ledger{
		Width:     width,
		Height:    height,
		ownership: make(map[Cell]AgentID),
		warp:      make(map[Cell]struct{}),
	}
}

// InitializeWarpCells draws count distinct cells uniformly at random and fixes
// them as the warp set. Duplicate draws are retried. It may be called once.
func (l *Ledger) InitializeWarpCells(count int, rng *rand.Rand) error {
	if l.seeded {
		return ErrWarpAlreadyInitialized
	}
	if count < 0 || count >= l.Width*l.Height {
		return fmt.Errorf("%w: requested %d on %dx%d", ErrTooManyWarpCells, count, l.Width, l.Height)
	}
	for len(l.warp) < count {
		x := rng.Intn(l.Width)
		y := rng.Intn(l.Height)
		l.warp[Cell{X: x, Y: y}] = struct{}{}
	}
	l.seeded = true
	return nil
}

// SetWarpCells fixes an explicit warp set in place of random sampling.
// The same once-only and capacity rules as InitializeWarpCells apply.
func (l *Ledger) SetWarpCells(cells []Cell) error {
	if l.seeded {
		return ErrWarpAlreadyInitialized
	}
	warp := make(map[Cell]struct{}, len(cells))
	for _, c := range cells {
		if c.X < 0 || c.X >= l.Width || c.Y < 0 || c.Y >= l.Height {
			return fmt.Errorf("warp cell %s outside %dx%d grid", c, l.Width, l.Height)
		}
		warp[c] = struct{}{}
	}
	if len(warp) >= l.Width*l.Height {
		return fmt.Errorf("%w: requested %d on %dx%d", ErrTooManyWarpCells, len(warp), l.Width, l.Height)
	}
	l.warp = warp
	l.seeded = true
	return nil
}

// IsWarpCell reports whether c is a warp cell.
func (l *Ledger) IsWarpCell(c Cell) bool {
	_, ok := l.warp[c]
	return ok
}

// WarpCells returns the warp set sorted by x, then y.
func (l *Ledger) WarpCells() []Cell {
	cells := make([]Cell, 0, len(l.warp))
	for c := range l.warp {
		cells = append(cells, c)
	}
	slices.SortFunc(cells, compareCells)
	return cells
}

// Claim records id as the owner of c, overwriting any previous owner.
// Callers must not claim warp cells except where a rule says otherwise.
func (l *Ledger) Claim(c Cell, id AgentID) {
	l.ownership[c] = id
}

// Owner returns the current owner of c.
func (l *Ledger) Owner(c Cell) (AgentID, bool) {
	id, ok := l.ownership[c]
	return id, ok
}

// ClaimedCount returns the number of cells that have an owner.
func (l *Ledger) ClaimedCount() int {
	return len(l.ownership)
}

// Snapshot materializes ownership as a dense grid indexed [x][y].
// Unclaimed cells hold 0.
func (l *Ledger) Snapshot() [][]AgentID {
	grid := make([][]AgentID, l.Width)
	for x := range grid {
		grid[x] = make([]AgentID, l.Height)
	}
	for c, id := range l.ownership {
		grid[c.X][c.Y] = id
	}
	return grid
}

func compareCells(a, b Cell) int {
	if a.X != b.X {
		return a.X - b.X
	}
	return a.Y - b.Y
}
