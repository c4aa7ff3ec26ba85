// Package render turns ledger snapshots into PNG frames, assembles the
// frames into an MJPEG video, and draws the leaderboard chart.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	opensimplex "github.com/ojrac/opensimplex-go"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/talgya/territory-sim/internal/world"
)

const (
	// FramePrefix starts every frame file name; the step follows zero-padded.
	FramePrefix = "territory_map_step_"
	titleHeight = 16
)

// tab20 is the 20-colour qualitative palette; owners cycle through it by ID.
var tab20 = [20]color.RGBA{
	{0x1f, 0x77, 0xb4, 0xff}, {0xae, 0xc7, 0xe8, 0xff},
	{0xff, 0x7f, 0x0e, 0xff}, {0xff, 0xbb, 0x78, 0xff},
	{0x2c, 0xa0, 0x2c, 0xff}, {0x98, 0xdf, 0x8a, 0xff},
	{0xd6, 0x27, 0x28, 0xff}, {0xff, 0x98, 0x96, 0xff},
	{0x94, 0x67, 0xbd, 0xff}, {0xc5, 0xb0, 0xd5, 0xff},
	{0x8c, 0x56, 0x4b, 0xff}, {0xc4, 0x9c, 0x94, 0xff},
	{0xe3, 0x77, 0xc2, 0xff}, {0xf7, 0xb6, 0xd2, 0xff},
	{0x7f, 0x7f, 0x7f, 0xff}, {0xc7, 0xc7, 0xc7, 0xff},
	{0xbc, 0xbd, 0x22, 0xff}, {0xdb, 0xdb, 0x8d, 0xff},
	{0x17, 0xbe, 0xcf, 0xff}, {0x9e, 0xda, 0xe5, 0xff},
}

var (
	warpColor  = color.RGBA{0x28, 0x28, 0x32, 0xff}
	titleColor = color.RGBA{0x10, 0x10, 0x10, 0xff}
)

// OwnerColor returns the palette colour for an owner ID (non-zero).
func OwnerColor(id world.AgentID) color.RGBA {
	return tab20[(id-1)%world.AgentID(len(tab20))]
}

// FrameWriter writes one PNG per sampled step into Dir.
type FrameWriter struct {
	Dir      string
	CellSize int // Pixels per grid cell

	noise opensimplex.Noise
}

// NewFrameWriter creates a frame writer. seed drives the background texture
// of unclaimed cells so frames are reproducible.
func NewFrameWriter(dir string, cellSize int, seed int64) *FrameWriter {
	if cellSize < 1 {
		cellSize = 1
	}
	return &FrameWriter{
		Dir:      dir,
		CellSize: cellSize,
		noise:    opensimplex.NewNormalized(seed),
	}
}

// FrameName returns the file name for a step.
func FrameName(step int) string {
	return fmt.Sprintf("%s%04d.png", FramePrefix, step)
}

// Write renders the ownership grid for step and saves it, creating Dir on
// demand. Returns the written path.
func (fw *FrameWriter) Write(step int, owners [][]world.AgentID, warp []world.Cell) (string, error) {
	if err := os.MkdirAll(fw.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create frame dir: %w", err)
	}
	path := filepath.Join(fw.Dir, FrameName(step))

	img := fw.Frame(step, owners, warp)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create frame: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("encode frame %d: %w", step, err)
	}
	return path, f.Close()
}

// Frame draws the ownership grid indexed [x][y] below a title strip.
// Owned cells take their owner's colour, unowned warp cells are dark, and
// unclaimed cells are a light noise-shaded grey.
func (fw *FrameWriter) Frame(step int, owners [][]world.AgentID, warp []world.Cell) *image.RGBA {
	width := len(owners)
	height := 0
	if width > 0 {
		height = len(owners[0])
	}
	cs := fw.CellSize
	img := image.NewRGBA(image.Rect(0, 0, width*cs, height*cs+titleHeight))
	fill(img, img.Bounds(), color.RGBA{0xff, 0xff, 0xff, 0xff})

	warpSet := make(map[world.Cell]bool, len(warp))
	for _, c := range warp {
		warpSet[c] = true
	}

	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			var col color.RGBA
			switch id := owners[x][y]; {
			case id != 0:
				col = OwnerColor(id)
			case warpSet[world.Cell{X: x, Y: y}]:
				col = warpColor
			default:
				shade := uint8(228 + fw.noise.Eval2(float64(x)*0.08, float64(y)*0.08)*24)
				col = color.RGBA{shade, shade, shade, 0xff}
			}
			r := image.Rect(x*cs, titleHeight+y*cs, (x+1)*cs, titleHeight+(y+1)*cs)
			fill(img, r, col)
		}
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(titleColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(2, titleHeight-3),
	}
	d.DrawString(fmt.Sprintf("Territory Map at Step %04d", step))
	return img
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}
