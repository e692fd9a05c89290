// Package raster provides the owned single-channel buffers that flow through
// the augmentation pipeline, plus image loading.
package raster

import (
	"image"
	"image/color"
	"math"
)

// Gray is a single-channel intensity raster with values in [0,255]. Values
// are float32 so that chained photometric stages are not re-quantised.
type Gray struct {
	Width  int
	Height int
	Pix    []float32 // row-major, len = Width*Height
}

// NewGray allocates a zeroed raster.
func NewGray(width, height int) Gray {
	return Gray{Width: width, Height: height, Pix: make([]float32, width*height)}
}

// At returns the value at (x, y).
func (g Gray) At(x, y int) float32 {
	return g.Pix[y*g.Width+x]
}

// Set stores v at (x, y).
func (g Gray) Set(x, y int, v float32) {
	g.Pix[y*g.Width+x] = v
}

// Clone returns a deep copy.
func (g Gray) Clone() Gray {
	pix := make([]float32, len(g.Pix))
	copy(pix, g.Pix)
	return Gray{Width: g.Width, Height: g.Height, Pix: pix}
}

// SameShape reports whether both rasters have identical dimensions.
func (g Gray) SameShape(other Gray) bool {
	return g.Width == other.Width && g.Height == other.Height
}

// Clamp limits every value to [0,255] in place.
func (g Gray) Clamp() {
	for i, v := range g.Pix {
		g.Pix[i] = Clamp8(v)
	}
}

// Clamp8 limits v to the 8-bit intensity range.
func Clamp8(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// FromImage converts any image to a Gray raster using the standard gray model.
func FromImage(img image.Image) Gray {
	b := img.Bounds()
	g := NewGray(b.Dx(), b.Dy())
	if src, ok := img.(*image.Gray); ok {
		for y := 0; y < g.Height; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+g.Width]
			for x, v := range row {
				g.Pix[y*g.Width+x] = float32(v)
			}
		}
		return g
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			g.Set(x-b.Min.X, y-b.Min.Y, float32(c.Y))
		}
	}
	return g
}

// ToImage rounds the raster to an 8-bit image.
func (g Gray) ToImage() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for i, v := range g.Pix {
		out.Pix[i] = uint8(math.Round(float64(Clamp8(v))))
	}
	return out
}

// Mask is a binary raster; 1 marks pixels with genuine source content.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask allocates an all-zero mask.
func NewMask(width, height int) Mask {
	return Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// FullMask allocates a mask with every pixel valid.
func FullMask(width, height int) Mask {
	m := NewMask(width, height)
	for i := range m.Pix {
		m.Pix[i] = 1
	}
	return m
}

// At returns the value at (x, y).
func (m Mask) At(x, y int) uint8 {
	return m.Pix[y*m.Width+x]
}

// Set stores v at (x, y).
func (m Mask) Set(x, y int, v uint8) {
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of valid pixels.
func (m Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}
