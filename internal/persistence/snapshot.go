package persistence

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"

	"github.com/talgya/territory-sim/internal/engine"
	"github.com/talgya/territory-sim/internal/world"
)

// SnapshotVersion is the current ownership snapshot format.
const SnapshotVersion = 1

// SnapshotHeader is written as a JSON line ahead of the gob body so the file
// can be identified without decoding it.
type SnapshotHeader struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	Step    int    `json:"step"`
}

// OwnershipSnapshot is the final territory state of a run.
type OwnershipSnapshot struct {
	Header SnapshotHeader

	Width  int
	Height int
	Owners []world.AgentID // Column-major: Owners[x*Height+y]
	Warp   []world.Cell
}

// NewOwnershipSnapshot captures the simulation's current ownership.
func NewOwnershipSnapshot(runID string, sim *engine.Simulation) OwnershipSnapshot {
	snap := OwnershipSnapshot{
		Header: SnapshotHeader{Version: SnapshotVersion, RunID: runID, Step: sim.StepCount()},
		Width:  sim.Grid.Width,
		Height: sim.Grid.Height,
		Owners: make([]world.AgentID, 0, sim.Grid.Cells()),
		Warp:   sim.Ledger.WarpCells(),
	}
	for _, col := range sim.Ledger.Snapshot() {
		snap.Owners = append(snap.Owners, col...)
	}
	return snap
}

// Grid expands the snapshot back to a dense grid indexed [x][y].
func (s OwnershipSnapshot) Grid() [][]world.AgentID {
	grid := make([][]world.AgentID, s.Width)
	for x := range grid {
		grid[x] = s.Owners[x*s.Height : (x+1)*s.Height]
	}
	return grid
}

// WriteSnapshot writes a zstd-compressed snapshot to path.
func WriteSnapshot(path string, snap OwnershipSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := encodeSnapshot(f, snap); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if info, err := os.Stat(path); err == nil {
		slog.Info("ownership snapshot written", "path", path, "size", humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

func encodeSnapshot(f *os.File, snap OwnershipSnapshot) error {
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)
	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadSnapshot reads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (OwnershipSnapshot, error) {
	var snap OwnershipSnapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The header line is repeated inside the gob body.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != SnapshotVersion {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}
