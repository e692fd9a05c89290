// Package colorutil provides shared overlay colors and gray helpers for
// sample previews.
package colorutil

import (
	"image/color"
)

// Overlay colors used by the preview renderers.
var (
	Black    = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Keypoint = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Invalid  = color.RGBA{R: 255, G: 0, B: 255, A: 255}
)

// GrayRGBA expands an 8-bit intensity to an opaque RGBA color.
func GrayRGBA(v uint8) color.RGBA {
	return color.RGBA{R: v, G: v, B: v, A: 255}
}

// Tint blends base toward overlay by alpha in [0,1].
func Tint(base, overlay color.RGBA, alpha float64) color.RGBA {
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a)*(1-alpha) + float64(b)*alpha + 0.5)
	}
	return color.RGBA{
		R: mix(base.R, overlay.R),
		G: mix(base.G, overlay.G),
		B: mix(base.B, overlay.B),
		A: 255,
	}
}
