package render

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/icza/mjpeg"
)

// ErrNoFrames is returned when there is nothing to assemble.
var ErrNoFrames = errors.New("no frames to assemble")

// Frames lists the frame files in dir in step order.
func Frames(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, FramePrefix+"*.png"))
	if err != nil {
		return nil, err
	}
	steps := make(map[string]int, len(paths))
	kept := paths[:0]
	for _, path := range paths {
		step, ok := FrameStep(filepath.Base(path))
		if !ok {
			continue
		}
		steps[path] = step
		kept = append(kept, path)
	}
	slices.SortFunc(kept, func(a, b string) int {
		return cmp.Compare(steps[a], steps[b])
	})
	return kept, nil
}

// FrameStep parses the step number out of a frame file name.
func FrameStep(name string) (int, bool) {
	digits, ok := strings.CutPrefix(name, FramePrefix)
	if !ok {
		return 0, false
	}
	digits, ok = strings.CutSuffix(digits, ".png")
	if !ok {
		return 0, false
	}
	step, err := strconv.Atoi(digits)
	if err != nil || step < 0 {
		return 0, false
	}
	return step, true
}

// AssembleVideo encodes the given frames, in order, into a single MJPEG AVI
// at out. All frames must share the first frame's size.
// Returns the number of frames written.
func AssembleVideo(paths []string, out string, fps int) (int, error) {
	if len(paths) == 0 {
		return 0, ErrNoFrames
	}

	first, err := decodePNG(paths[0])
	if err != nil {
		return 0, err
	}
	size := first.Bounds().Size()

	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create video dir: %w", err)
		}
	}
	aw, err := mjpeg.New(out, int32(size.X), int32(size.Y), int32(fps))
	if err != nil {
		return 0, fmt.Errorf("create video: %w", err)
	}

	var buf bytes.Buffer
	opts := &jpeg.Options{Quality: 90}
	written := 0
	for i, path := range paths {
		img := first
		if i > 0 {
			if img, err = decodePNG(path); err != nil {
				aw.Close()
				return written, err
			}
		}
		if img.Bounds().Size() != size {
			aw.Close()
			return written, fmt.Errorf("frame %s is %v, want %v", path, img.Bounds().Size(), size)
		}

		buf.Reset()
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			aw.Close()
			return written, fmt.Errorf("encode %s: %w", path, err)
		}
		if err := aw.AddFrame(buf.Bytes()); err != nil {
			aw.Close()
			return written, fmt.Errorf("add frame %s: %w", path, err)
		}
		written++
	}

	if err := aw.Close(); err != nil {
		return written, fmt.Errorf("finalize video: %w", err)
	}
	return written, nil
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
