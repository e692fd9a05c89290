// Package preview renders samples with their keypoints for visual checks.
package preview

import (
	"image"

	"pointadapt/internal/label"
	"pointadapt/internal/raster"
	"pointadapt/pkg/colorutil"
	"pointadapt/pkg/geometry"

	"github.com/fogleman/gg"
)

// Options control rendering.
type Options struct {
	Scale        float64 // output pixels per input pixel
	PointRadius  float64
	InvalidAlpha float64 // tint strength for invalid label cells
}

// DefaultOptions returns options suited to 240×320 frames.
func DefaultOptions() Options {
	return Options{Scale: 2, PointRadius: 2, InvalidAlpha: 0.35}
}

// Render draws img in gray, tints every invalid cell of validity (when it
// is non-empty) and marks each keypoint with a filled circle.
func Render(img raster.Gray, points []geometry.Keypoint, validity label.Validity, opts Options) image.Image {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	gray := img.ToImage()
	w := int(float64(img.Width) * opts.Scale)
	h := int(float64(img.Height) * opts.Scale)

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	for py := 0; py < h; py++ {
		y := min(int(float64(py)/opts.Scale), img.Height-1)
		for px := 0; px < w; px++ {
			x := min(int(float64(px)/opts.Scale), img.Width-1)
			c := colorutil.GrayRGBA(gray.Pix[y*gray.Stride+x])
			if len(validity.Valid) > 0 && validity.At(y/label.CellSize, x/label.CellSize) == 0 {
				c = colorutil.Tint(c, colorutil.Invalid, opts.InvalidAlpha)
			}
			canvas.SetRGBA(px, py, c)
		}
	}

	dc := gg.NewContextForRGBA(canvas)
	dc.SetColor(colorutil.Keypoint)
	for _, p := range points {
		dc.DrawCircle((p.Col+0.5)*opts.Scale, (p.Row+0.5)*opts.Scale, opts.PointRadius)
		dc.Fill()
	}
	return dc.Image()
}

// SavePNG renders and writes to path.
func SavePNG(path string, img raster.Gray, points []geometry.Keypoint, validity label.Validity, opts Options) error {
	return gg.SavePNG(path, Render(img, points, validity, opts))
}
