// Package photometric implements the pixel-level corruption chain applied to
// warped training images.
//
// Stages run in a fixed order and each clamps to [0,255] before the next one
// sees the image. A disabled stage draws nothing from the random stream, so
// toggling one stage never shifts the draws of another.
package photometric

import (
	"math/rand/v2"

	"pointadapt/internal/config"
	"pointadapt/internal/raster"
)

// Stage names, in application order.
const (
	StageGaussianNoise = "gaussian_noise"
	StageSpeckleNoise  = "speckle_noise"
	StageBrightness    = "random_brightness"
	StageContrast      = "random_contrast"
	StageShade         = "shade"
	StageMotionBlur    = "motion_blur"
)

const midGray = 127.5

type stage struct {
	name  string
	apply func(img raster.Gray, rng *rand.Rand) error
}

// Augmentor applies the enabled stages of a validated Photometric config.
type Augmentor struct {
	cfg    config.Photometric
	stages []stage
}

// New validates cfg and prepares the enabled stages.
func New(cfg config.Photometric) (*Augmentor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Augmentor{cfg: cfg}

	if cfg.DoGaussianNoise {
		a.stages = append(a.stages, stage{StageGaussianNoise, a.gaussianNoise})
	}
	if cfg.DoSpeckleNoise {
		a.stages = append(a.stages, stage{StageSpeckleNoise, a.speckleNoise})
	}
	if cfg.DoRandomBrightness {
		a.stages = append(a.stages, stage{StageBrightness, a.brightness})
	}
	if cfg.DoRandomContrast {
		a.stages = append(a.stages, stage{StageContrast, a.contrast})
	}
	if cfg.DoShade {
		a.stages = append(a.stages, stage{StageShade, a.shade})
	}
	if cfg.DoMotionBlur {
		a.stages = append(a.stages, stage{StageMotionBlur, a.motionBlur})
	}
	return a, nil
}

// Stages returns the names of the enabled stages in application order.
func (a *Augmentor) Stages() []string {
	names := make([]string, len(a.stages))
	for i, s := range a.stages {
		names[i] = s.name
	}
	return names
}

// Apply returns a corrupted copy of img; img itself is not modified.
func (a *Augmentor) Apply(img raster.Gray, rng *rand.Rand) (raster.Gray, error) {
	out := img.Clone()
	for _, s := range a.stages {
		if err := s.apply(out, rng); err != nil {
			return raster.Gray{}, err
		}
		out.Clamp()
	}
	return out, nil
}

func (a *Augmentor) gaussianNoise(img raster.Gray, rng *rand.Rand) error {
	mean, std := a.cfg.GaussianNoiseMean, a.cfg.GaussianNoiseStd
	for i, v := range img.Pix {
		img.Pix[i] = v + float32(rng.NormFloat64()*std+mean)
	}
	return nil
}

func (a *Augmentor) speckleNoise(img raster.Gray, rng *rand.Rand) error {
	p := uniform(rng, a.cfg.SpeckleNoiseMinProb, a.cfg.SpeckleNoiseMaxProb)
	for i := range img.Pix {
		u := rng.Float64()
		if u <= p {
			img.Pix[i] = 0
		}
		if u >= 1-p {
			img.Pix[i] = 255
		}
	}
	return nil
}

func (a *Augmentor) brightness(img raster.Gray, rng *rand.Rand) error {
	m := a.cfg.BrightnessMaxAbsChange
	delta := float32(uniform(rng, -m, m))
	for i, v := range img.Pix {
		img.Pix[i] = v + delta
	}
	return nil
}

func (a *Augmentor) contrast(img raster.Gray, rng *rand.Rand) error {
	f := float32(uniform(rng, a.cfg.ContrastMin, a.cfg.ContrastMax))
	for i, v := range img.Pix {
		img.Pix[i] = (v-midGray)*f + midGray
	}
	return nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// randInt returns an integer in [lo, hi), or lo for an empty range.
func randInt(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo)
}
