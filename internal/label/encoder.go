// Package label converts sparse keypoints into the dense per-cell
// classification grid used as detector supervision.
//
// A frame of H×W pixels is partitioned into 8×8 cells. Each cell carries one
// class: 0..63 for the row-major sub-position of a keypoint inside the cell,
// or Dustbin when the cell is empty.
package label

import (
	"errors"
	"fmt"

	"pointadapt/internal/raster"
	"pointadapt/pkg/geometry"
)

const (
	// CellSize is the side of a label cell in pixels.
	CellSize = 8
	// Channels is the number of intra-cell positions.
	Channels = CellSize * CellSize
	// Dustbin is the "no keypoint" class.
	Dustbin = Channels

	dustbinPrior = float32(0.5)
)

// ErrDimensionMismatch is returned when a frame is not tiled exactly by cells.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Dense is the (H/8)×(W/8) class grid, row-major.
type Dense struct {
	Rows  int
	Cols  int
	Class []int64
}

// At returns the class of cell (r, c).
func (d Dense) At(r, c int) int64 {
	return d.Class[r*d.Cols+c]
}

// Validity is the (H/8)×(W/8) grid of fully valid cells, row-major.
type Validity struct {
	Rows  int
	Cols  int
	Valid []uint8
}

// At returns 1 if cell (r, c) is valid.
func (v Validity) At(r, c int) uint8 {
	return v.Valid[r*v.Cols+c]
}

// Encoder builds label grids for a fixed frame size.
type Encoder struct {
	height int
	width  int
}

// NewEncoder checks the frame size once; per-sample calls never fail on it.
func NewEncoder(height, width int) (*Encoder, error) {
	if height <= 0 || width <= 0 || height%CellSize != 0 || width%CellSize != 0 {
		return nil, fmt.Errorf("%w: %dx%d is not a positive multiple of %d", ErrDimensionMismatch, height, width, CellSize)
	}
	return &Encoder{height: height, width: width}, nil
}

// Rows returns the number of cell rows.
func (e *Encoder) Rows() int { return e.height / CellSize }

// Cols returns the number of cell columns.
func (e *Encoder) Cols() int { return e.width / CellSize }

// Encode returns the class grid for points. Coordinates go through FloorAbs;
// a point that still lies outside the frame is skipped.
func (e *Encoder) Encode(points []geometry.Keypoint) Dense {
	occupancy := make([]float32, e.height*e.width)
	for _, px := range FloorAbs.Pixels(points) {
		if px.Row >= e.height || px.Col >= e.width || px.Row < 0 || px.Col < 0 {
			continue
		}
		occupancy[px.Row*e.width+px.Col] = 1
	}

	volume := SpaceToDepth(occupancy, e.height, e.width)
	rows, cols := e.Rows(), e.Cols()
	cells := rows * cols

	d := Dense{Rows: rows, Cols: cols, Class: make([]int64, cells)}
	for i := 0; i < cells; i++ {
		best, bestVal := 0, volume[i]
		for ch := 1; ch < Channels; ch++ {
			if v := volume[ch*cells+i]; v > bestVal {
				best, bestVal = ch, v
			}
		}
		if dustbinPrior > bestVal {
			best = Dustbin
		}
		d.Class[i] = int64(best)
	}
	return d
}

// EncodeValidity marks a cell valid only when all 64 of its mask pixels are set.
func (e *Encoder) EncodeValidity(mask raster.Mask) (Validity, error) {
	if mask.Height != e.height || mask.Width != e.width {
		return Validity{}, fmt.Errorf("%w: mask %dx%d, encoder %dx%d",
			ErrDimensionMismatch, mask.Height, mask.Width, e.height, e.width)
	}

	volume := SpaceToDepth(mask.Pix, e.height, e.width)
	rows, cols := e.Rows(), e.Cols()
	cells := rows * cols

	v := Validity{Rows: rows, Cols: cols, Valid: make([]uint8, cells)}
	for i := 0; i < cells; i++ {
		valid := uint8(1)
		for ch := 0; ch < Channels; ch++ {
			if volume[ch*cells+i] == 0 {
				valid = 0
				break
			}
		}
		v.Valid[i] = valid
	}
	return v, nil
}

// SpaceToDepth re-indexes a row-major h×w buffer into a 64×(h/8)×(w/8)
// channel-major volume. Channel k holds the pixel at row k/8, column k%8 of
// every cell. h and w must be multiples of CellSize.
func SpaceToDepth[T uint8 | float32](src []T, h, w int) []T {
	rows, cols := h/CellSize, w/CellSize
	cells := rows * cols
	dst := make([]T, Channels*cells)
	for y := 0; y < h; y++ {
		cr, dy := y/CellSize, y%CellSize
		for x := 0; x < w; x++ {
			cc, dx := x/CellSize, x%CellSize
			ch := dy*CellSize + dx
			dst[ch*cells+cr*cols+cc] = src[y*w+x]
		}
	}
	return dst
}
