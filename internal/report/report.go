// Package report ranks agents by territory and prints the leaderboard.
package report

import (
	"fmt"
	"io"

	"github.com/talgya/territory-sim/internal/engine"
	"github.com/talgya/territory-sim/internal/world"
)

// Entry is one leaderboard row.
type Entry struct {
	Rank    int           `json:"rank"`
	ID      world.AgentID `json:"id"`
	Variant string        `json:"variant"`
	Cells   int           `json:"cells"`
}

// Leaderboard takes the top n standings. Standings are expected in ranked
// order, as returned by Simulation.FinalReport.
func Leaderboard(standings []engine.Standing, n int) []Entry {
	n = min(n, len(standings))
	entries := make([]Entry, 0, n)
	for i, st := range standings[:n] {
		entries = append(entries, Entry{
			Rank:    i + 1,
			ID:      st.ID,
			Variant: st.Variant.String(),
			Cells:   st.Peak,
		})
	}
	return entries
}

// Print writes the leaderboard in plain text under a "Top n" heading.
func Print(w io.Writer, n int, entries []Entry) error {
	if _, err := fmt.Fprintf(w, "Top %d Agents with Largest Territories:\n", n); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "Agent %d (%s): %d cells\n", e.ID, e.Variant, e.Cells); err != nil {
			return err
		}
	}
	return nil
}
