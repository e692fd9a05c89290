package photometric

import (
	"fmt"
	"math"
	"math/rand/v2"

	"pointadapt/internal/raster"
	"pointadapt/internal/raster/cvio"
)

type blurMode int

const (
	blurHorizontal blurMode = iota
	blurVertical
	blurDiagonalDown
	blurDiagonalUp
)

func (a *Augmentor) motionBlur(img raster.Gray, rng *rand.Rand) error {
	mode := blurMode(rng.IntN(4))
	ksize := rng.IntN((a.cfg.MotionBlurMaxKernelSize+1)/2)*2 + 1
	if ksize == 1 {
		return nil
	}
	return applyKernel(img, motionKernel(mode, ksize), ksize)
}

// motionKernel returns a normalised ksize×ksize line kernel, row-major,
// weighted by a Gaussian centred on the kernel.
func motionKernel(mode blurMode, ksize int) []float64 {
	center := (ksize - 1) / 2
	variance := float64(ksize*ksize) / 16
	k := make([]float64, ksize*ksize)

	var sum float64
	for r := 0; r < ksize; r++ {
		for c := 0; c < ksize; c++ {
			var on bool
			switch mode {
			case blurHorizontal:
				on = r == center
			case blurVertical:
				on = c == center
			case blurDiagonalDown:
				on = r == c
			case blurDiagonalUp:
				on = r+c == ksize-1
			}
			if !on {
				continue
			}
			dr, dc := float64(r-center), float64(c-center)
			w := math.Exp(-(dr*dr + dc*dc) / (2 * variance))
			k[r*ksize+c] = w
			sum += w
		}
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// applyKernel filters img in place with a ksize×ksize kernel.
func applyKernel(img raster.Gray, kernel []float64, ksize int) error {
	out, err := cvio.Filter2D(img, kernel, ksize)
	if err != nil {
		return fmt.Errorf("motion blur: %w", err)
	}
	copy(img.Pix, out.Pix)
	return nil
}
