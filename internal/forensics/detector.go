// Package forensics looks for local manipulation traces in still images.
//
// Two detectors run on a luminance grid split into square blocks: a noise
// consistency check (spliced or retouched areas carry a different sensor
// noise level than the rest of the picture) and an optional copy-move check
// (identical textured blocks at distinct positions).
package forensics

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ppiankov/truthscan/internal/model"
)

// minBlocks is the fewest blocks that give a meaningful noise baseline
const minBlocks = 4

// Detector analyzes encoded images
type Detector struct {
	blockSize int
	minDim    int
	maxBytes  int64
	copyMove  bool
}

// NewDetector creates a detector from the forensics configuration
func NewDetector(cfg model.ForensicsConfig) *Detector {
	d := &Detector{
		blockSize: cfg.BlockSize,
		minDim:    cfg.MinDimension,
		maxBytes:  cfg.MaxImageBytes,
		copyMove:  cfg.CopyMove,
	}
	if d.blockSize < 4 {
		d.blockSize = 16
	}
	if d.minDim <= 0 {
		d.minDim = 32
	}
	return d
}

// Analyze decodes data and counts suspicious regions. Undecodable or tiny
// images yield Err, which the normalizer turns into unavailable evidence.
func (d *Detector) Analyze(ctx context.Context, data []byte) model.ImageForensicsRaw {
	if len(data) == 0 {
		return model.ImageForensicsRaw{Err: fmt.Errorf("%w: empty image", model.ErrInvalidInput)}
	}
	if d.maxBytes > 0 && int64(len(data)) > d.maxBytes {
		return model.ImageForensicsRaw{Err: fmt.Errorf("%w: image larger than %d bytes", model.ErrInvalidInput, d.maxBytes)}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return model.ImageForensicsRaw{Err: fmt.Errorf("decode image: %w", err)}
	}

	bounds := img.Bounds()
	raw := model.ImageForensicsRaw{Format: format, Width: bounds.Dx(), Height: bounds.Dy()}
	if raw.Width < d.minDim || raw.Height < d.minDim {
		raw.Err = fmt.Errorf("%w: image %dx%d below %dpx", model.ErrProviderUnavailable, raw.Width, raw.Height, d.minDim)
		return raw
	}

	lum := luminance(img)
	grid := newBlockGrid(lum, d.blockSize)
	if len(grid.blocks) < minBlocks {
		raw.Err = fmt.Errorf("%w: image too small for %dpx blocks", model.ErrProviderUnavailable, d.blockSize)
		return raw
	}

	if err := ctx.Err(); err != nil {
		raw.Err = err
		return raw
	}

	noiseRegions := grid.noiseRegions()
	if noiseRegions > 0 {
		raw.Details = append(raw.Details, fmt.Sprintf("noise-inconsistent areas: %d", noiseRegions))
	}
	raw.SuspiciousRegions += noiseRegions

	if d.copyMove {
		if err := ctx.Err(); err != nil {
			raw.Err = err
			return raw
		}
		copied := grid.copyMoveRegions()
		if copied > 0 {
			raw.Details = append(raw.Details, fmt.Sprintf("duplicated areas: %d", copied))
		}
		raw.SuspiciousRegions += copied
	}

	return raw
}

// luminance converts img to a row-major grid of Rec. 601 luma values (0-255)
func luminance(img image.Image) [][]float64 {
	b := img.Bounds()
	lum := make([][]float64, b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := make([]float64, b.Dx())
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			row[x-b.Min.X] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)) / 257
		}
		lum[y-b.Min.Y] = row
	}
	return lum
}
