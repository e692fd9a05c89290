// Package warp applies homographies to rasters and keypoint sets.
package warp

import (
	"errors"
	"fmt"
	"math"

	"pointadapt/internal/config"
	"pointadapt/internal/raster"
	"pointadapt/pkg/geometry"
)

// ErrSingular is returned when the homography cannot be inverted. Callers
// treat it as a broken invariant, not a retryable failure.
var ErrSingular = errors.New("warp: singular homography")

// Interpolation selects how source pixels are sampled.
type Interpolation int

const (
	Bilinear Interpolation = iota
	Nearest
)

// ParseInterpolation maps a config value to an Interpolation.
func ParseInterpolation(name string) (Interpolation, error) {
	switch name {
	case config.InterpolationBilinear:
		return Bilinear, nil
	case config.InterpolationNearest:
		return Nearest, nil
	default:
		return 0, fmt.Errorf("%w: unknown interpolation %q", config.ErrInvalidOption, name)
	}
}

func (i Interpolation) String() string {
	if i == Nearest {
		return config.InterpolationNearest
	}
	return config.InterpolationBilinear
}

// Image warps img by h using inverse mapping. Destination pixels whose
// source falls outside the image are 0 in both outputs.
func Image(img raster.Gray, h geometry.Homography, interp Interpolation) (raster.Gray, raster.Mask, error) {
	inv, err := h.Inverse()
	if err != nil {
		return raster.Gray{}, raster.Mask{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	w, ht := img.Width, img.Height
	out := raster.NewGray(w, ht)
	mask := raster.NewMask(w, ht)
	fw, fh := float64(w), float64(ht)

	for y := 0; y < ht; y++ {
		for x := 0; x < w; x++ {
			src, ok := inv.Apply(geometry.Point2D{X: float64(x), Y: float64(y)})
			if !ok || src.X < 0 || src.X >= fw || src.Y < 0 || src.Y >= fh {
				continue
			}
			i := y*w + x
			if interp == Nearest {
				out.Pix[i] = nearest(img, src.X, src.Y)
			} else {
				out.Pix[i] = bilinear(img, src.X, src.Y)
			}
			mask.Pix[i] = 1
		}
	}
	return out, mask, nil
}

// Identity is the no-warp path: a copy of img and an all-valid mask.
func Identity(img raster.Gray) (raster.Gray, raster.Mask) {
	return img.Clone(), raster.FullMask(img.Width, img.Height)
}

// Points forward-projects points through h and keeps those that land inside
// the frame on a valid mask pixel. Coordinates are not rounded.
func Points(points []geometry.Keypoint, h geometry.Homography, mask raster.Mask) []geometry.Keypoint {
	out := make([]geometry.Keypoint, 0, len(points))
	for _, kp := range points {
		p, ok := h.Apply(kp.Point())
		if !ok {
			continue
		}
		moved := geometry.KeypointFromPoint(p)
		if !moved.InFrame(mask.Height, mask.Width) {
			continue
		}
		if mask.At(int(math.Floor(moved.Col)), int(math.Floor(moved.Row))) == 0 {
			continue
		}
		out = append(out, moved)
	}
	return out
}

// bilinear samples at (sx, sy) with edge-replicated right/bottom neighbours.
func bilinear(img raster.Gray, sx, sy float64) float32 {
	x0 := int(sx)
	y0 := int(sy)
	x1 := min(x0+1, img.Width-1)
	y1 := min(y0+1, img.Height-1)
	fx := float32(sx - float64(x0))
	fy := float32(sy - float64(y0))

	top := img.At(x0, y0)*(1-fx) + img.At(x1, y0)*fx
	bottom := img.At(x0, y1)*(1-fx) + img.At(x1, y1)*fx
	return top*(1-fy) + bottom*fy
}

func nearest(img raster.Gray, sx, sy float64) float32 {
	x := min(int(math.Floor(sx+0.5)), img.Width-1)
	y := min(int(math.Floor(sy+0.5)), img.Height-1)
	return img.At(x, y)
}
