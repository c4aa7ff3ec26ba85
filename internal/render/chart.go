package render

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/talgya/territory-sim/internal/report"
)

// LeaderboardChart draws the leaderboard as a bar chart PNG at path.
func LeaderboardChart(path string, entries []report.Entry) error {
	if len(entries) == 0 {
		return errors.New("leaderboard is empty")
	}

	bars := make([]chart.Value, len(entries))
	maxCells := 0
	for i, e := range entries {
		bars[i] = chart.Value{
			Label: fmt.Sprintf("#%d", e.ID),
			Value: float64(e.Cells),
			Style: chart.Style{
				FillColor:   toDrawingColor(OwnerColor(e.ID)),
				StrokeColor: toDrawingColor(OwnerColor(e.ID)),
			},
		}
		maxCells = max(maxCells, e.Cells)
	}

	graph := chart.BarChart{
		Title:      "Largest Territories",
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Width:      max(512, 40*len(entries)+120),
		Height:     512,
		BarWidth:   24,
		XAxis:      chart.Style{FontSize: 8},
		YAxis: chart.YAxis{
			Style: chart.Style{FontSize: 10},
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCells)*1.1 + 1},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		Bars: bars,
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create chart dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return f.Close()
}

func toDrawingColor(c color.RGBA) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}
