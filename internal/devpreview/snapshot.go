package devpreview

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// snapshotKey dumps the current canvas to a PNG next to the chart file
// for bug reports and visual diffing between runs.
const snapshotKey = ebiten.KeyS

// maybeSnapshot writes screen to <chart file>.snapshot.png (overwriting
// any earlier snapshot) when snapshotKey is pressed, returning the path
// written (if any) for a log message.
func (p *Previewer) maybeSnapshot(screen *ebiten.Image) string {
	if !inpututil.IsKeyJustPressed(snapshotKey) {
		return ""
	}
	path := filepath.Join(filepath.Dir(p.filePath), fmt.Sprintf("%s.snapshot.png", filepath.Base(p.filePath)))
	if err := writePNG(screen, path); err != nil {
		p.log.Warn().Err(err).Msg("snapshot failed")
		return ""
	}
	return path
}

// writePNG encodes img and writes it to path, creating directories as
// needed.
func writePNG(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding snapshot PNG: %w", err)
	}
	return nil
}
