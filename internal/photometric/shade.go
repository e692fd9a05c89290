package photometric

import (
	"image"
	"math/rand/v2"

	"pointadapt/internal/raster"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

type ellipse struct {
	x, y   float64
	ax, ay float64
	angle  float64 // degrees
}

// shade darkens or brightens the image under a soft mask of random
// ellipses. All ellipses share one blur kernel and one transparency.
func (a *Augmentor) shade(img raster.Gray, rng *rand.Rand) error {
	ellipses := sampleEllipses(rng, img.Width, img.Height, a.cfg.ShadeNbEllipses)

	lo, hi := a.cfg.ShadeTransparencyRange[0], a.cfg.ShadeTransparencyRange[1]
	transparency := float32(uniform(rng, lo, hi))
	ksize := randInt(rng, a.cfg.ShadeKernelSizeRange[0], a.cfg.ShadeKernelSizeRange[1])
	if ksize%2 == 0 {
		ksize++
	}

	mask := imaging.Blur(rasterizeEllipses(img.Width, img.Height, ellipses), gaussianSigma(ksize))

	for y := 0; y < img.Height; y++ {
		row := mask.Pix[y*mask.Stride:]
		for x := 0; x < img.Width; x++ {
			m := float32(row[x*4]) / 255
			i := y*img.Width + x
			img.Pix[i] *= 1 - transparency*m
		}
	}
	return nil
}

func sampleEllipses(rng *rand.Rand, width, height, n int) []ellipse {
	minDim := float64(min(width, height)) / 4
	out := make([]ellipse, n)
	for i := range out {
		ax := int(max(rng.Float64()*minDim, minDim/5))
		ay := int(max(rng.Float64()*minDim, minDim/5))
		maxRad := max(ax, ay)
		out[i] = ellipse{
			ax:    float64(ax),
			ay:    float64(ay),
			x:     float64(randInt(rng, maxRad, width-maxRad)),
			y:     float64(randInt(rng, maxRad, height-maxRad)),
			angle: rng.Float64() * 90,
		}
	}
	return out
}

// rasterizeEllipses fills white ellipses on an opaque black canvas.
func rasterizeEllipses(width, height int, ellipses []ellipse) image.Image {
	dc := gg.NewContext(width, height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(1, 1, 1)
	for _, e := range ellipses {
		dc.Push()
		dc.RotateAbout(gg.Radians(e.angle), e.x, e.y)
		dc.DrawEllipse(e.x, e.y, e.ax, e.ay)
		dc.Fill()
		dc.Pop()
	}
	return dc.Image()
}

// gaussianSigma derives sigma from an odd kernel size the way OpenCV does
// when sigma is left at zero.
func gaussianSigma(ksize int) float64 {
	return 0.3*(float64(ksize-1)*0.5-1) + 0.8
}
