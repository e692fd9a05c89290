package config

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
)

// Scaling interval used when neither scaling_amplitude nor
// scaling_low/scaling_up is configured.
const (
	DefaultScalingLow = 0.8
	DefaultScalingUp  = 2.0
)

const (
	DefaultMaxRetries  = 10
	maxRotationRadians = math.Pi
)

// Homography holds the geometric sampling options.
type Homography struct {
	PatchRatio            float64 `yaml:"patch_ratio" toml:"patch_ratio"`
	PerspectiveAmplitudeX float64 `yaml:"perspective_amplitude_x" toml:"perspective_amplitude_x"`
	PerspectiveAmplitudeY float64 `yaml:"perspective_amplitude_y" toml:"perspective_amplitude_y"`
	ScalingSampleNum      int     `yaml:"scaling_sample_num" toml:"scaling_sample_num"`

	// Either ScalingAmplitude or both ScalingLow and ScalingUp.
	ScalingAmplitude *float64 `yaml:"scaling_amplitude,omitempty" toml:"scaling_amplitude,omitempty"`
	ScalingLow       *float64 `yaml:"scaling_low,omitempty" toml:"scaling_low,omitempty"`
	ScalingUp        *float64 `yaml:"scaling_up,omitempty" toml:"scaling_up,omitempty"`

	TranslationOverflow float64 `yaml:"translation_overflow" toml:"translation_overflow"`
	RotationSampleNum   int     `yaml:"rotation_sample_num" toml:"rotation_sample_num"`
	RotationMaxAngle    float64 `yaml:"rotation_max_angle" toml:"rotation_max_angle"` // radians

	DoPerspective  bool `yaml:"do_perspective" toml:"do_perspective"`
	DoScaling      bool `yaml:"do_scaling" toml:"do_scaling"`
	DoRotation     bool `yaml:"do_rotation" toml:"do_rotation"`
	DoTranslation  bool `yaml:"do_translation" toml:"do_translation"`
	AllowArtifacts bool `yaml:"allow_artifacts" toml:"allow_artifacts"`

	MaxRetries int `yaml:"max_retries" toml:"max_retries"`
}

// DefaultHomography returns the geometric options used for training.
func DefaultHomography() Homography {
	return Homography{
		PatchRatio:            0.8,
		PerspectiveAmplitudeX: 0.3,
		PerspectiveAmplitudeY: 0.3,
		ScalingSampleNum:      5,
		TranslationOverflow:   0.05,
		RotationSampleNum:     25,
		RotationMaxAngle:      math.Pi / 3,
		DoPerspective:         true,
		DoScaling:             true,
		DoRotation:            true,
		DoTranslation:         true,
		AllowArtifacts:        true,
		MaxRetries:            DefaultMaxRetries,
	}
}

// WithScalingAmplitude returns a copy using the symmetric scaling variant.
func (h Homography) WithScalingAmplitude(amplitude float64) Homography {
	h.ScalingAmplitude = &amplitude
	h.ScalingLow, h.ScalingUp = nil, nil
	return h
}

// WithScalingRange returns a copy using the explicit interval variant.
func (h Homography) WithScalingRange(low, up float64) Homography {
	h.ScalingLow, h.ScalingUp = &low, &up
	h.ScalingAmplitude = nil
	return h
}

// ScalingRange returns the interval scale candidates are drawn from.
func (h Homography) ScalingRange() (low, up float64) {
	switch {
	case h.ScalingLow != nil && h.ScalingUp != nil:
		return *h.ScalingLow, *h.ScalingUp
	case h.ScalingAmplitude != nil:
		return 1 - *h.ScalingAmplitude, 1 + *h.ScalingAmplitude
	default:
		return DefaultScalingLow, DefaultScalingUp
	}
}

// Validate checks every option against its domain and reports all failures.
func (h Homography) Validate() error {
	var err error
	if h.PatchRatio <= 0 || h.PatchRatio > 1 {
		err = multierr.Append(err, invalid("patch_ratio", h.PatchRatio, "must be in (0, 1]"))
	}
	if h.PerspectiveAmplitudeX < 0 {
		err = multierr.Append(err, invalid("perspective_amplitude_x", h.PerspectiveAmplitudeX, "must be >= 0"))
	}
	if h.PerspectiveAmplitudeY < 0 {
		err = multierr.Append(err, invalid("perspective_amplitude_y", h.PerspectiveAmplitudeY, "must be >= 0"))
	}
	if h.ScalingSampleNum < 1 {
		err = multierr.Append(err, invalid("scaling_sample_num", h.ScalingSampleNum, "must be >= 1"))
	}
	if h.ScalingAmplitude != nil && (h.ScalingLow != nil || h.ScalingUp != nil) {
		err = multierr.Append(err, invalid("scaling_amplitude", *h.ScalingAmplitude, "cannot be combined with scaling_low/scaling_up"))
	}
	if (h.ScalingLow == nil) != (h.ScalingUp == nil) {
		err = multierr.Append(err, invalid("scaling_low/scaling_up", "partial", "must be set together"))
	}
	if h.ScalingAmplitude != nil && (*h.ScalingAmplitude < 0 || *h.ScalingAmplitude >= 1) {
		err = multierr.Append(err, invalid("scaling_amplitude", *h.ScalingAmplitude, "must be in [0, 1)"))
	}
	if h.ScalingLow != nil && h.ScalingUp != nil {
		if *h.ScalingLow <= 0 || *h.ScalingLow > *h.ScalingUp {
			err = multierr.Append(err, invalid("scaling_low", *h.ScalingLow, fmt.Sprintf("must satisfy 0 < scaling_low <= scaling_up (%g)", *h.ScalingUp)))
		}
	}
	if h.TranslationOverflow < 0 {
		err = multierr.Append(err, invalid("translation_overflow", h.TranslationOverflow, "must be >= 0"))
	}
	if h.RotationSampleNum < 1 {
		err = multierr.Append(err, invalid("rotation_sample_num", h.RotationSampleNum, "must be >= 1"))
	}
	if h.RotationMaxAngle < 0 || h.RotationMaxAngle > maxRotationRadians {
		err = multierr.Append(err, invalid("rotation_max_angle", h.RotationMaxAngle, "must be in [0, pi]"))
	}
	if h.MaxRetries < 1 {
		err = multierr.Append(err, invalid("max_retries", h.MaxRetries, "must be >= 1"))
	}
	return err
}

// Photometric holds the pixel corruption options.
type Photometric struct {
	GaussianNoiseMean       float64    `yaml:"gaussian_noise_mean" toml:"gaussian_noise_mean"`
	GaussianNoiseStd        float64    `yaml:"gaussian_noise_std" toml:"gaussian_noise_std"`
	SpeckleNoiseMinProb     float64    `yaml:"speckle_noise_min_prob" toml:"speckle_noise_min_prob"`
	SpeckleNoiseMaxProb     float64    `yaml:"speckle_noise_max_prob" toml:"speckle_noise_max_prob"`
	BrightnessMaxAbsChange  float64    `yaml:"brightness_max_abs_change" toml:"brightness_max_abs_change"`
	ContrastMin             float64    `yaml:"contrast_min" toml:"contrast_min"`
	ContrastMax             float64    `yaml:"contrast_max" toml:"contrast_max"`
	ShadeTransparencyRange  [2]float64 `yaml:"shade_transparency_range" toml:"shade_transparency_range"`
	ShadeKernelSizeRange    [2]int     `yaml:"shade_kernel_size_range" toml:"shade_kernel_size_range"`
	ShadeNbEllipses         int        `yaml:"shade_nb_ellipese" toml:"shade_nb_ellipese"`
	MotionBlurMaxKernelSize int        `yaml:"motion_blur_max_kernel_size" toml:"motion_blur_max_kernel_size"`

	DoGaussianNoise    bool `yaml:"do_gaussian_noise" toml:"do_gaussian_noise"`
	DoSpeckleNoise     bool `yaml:"do_speckle_noise" toml:"do_speckle_noise"`
	DoRandomBrightness bool `yaml:"do_random_brightness" toml:"do_random_brightness"`
	DoRandomContrast   bool `yaml:"do_random_contrast" toml:"do_random_contrast"`
	DoShade            bool `yaml:"do_shade" toml:"do_shade"`
	DoMotionBlur       bool `yaml:"do_motion_blur" toml:"do_motion_blur"`
}

// DefaultPhotometric returns the corruption options used for training.
func DefaultPhotometric() Photometric {
	return Photometric{
		GaussianNoiseMean:       0,
		GaussianNoiseStd:        5,
		SpeckleNoiseMinProb:     0,
		SpeckleNoiseMaxProb:     0.0035,
		BrightnessMaxAbsChange:  15,
		ContrastMin:             0.5,
		ContrastMax:             1.5,
		ShadeTransparencyRange:  [2]float64{-0.5, 0.5},
		ShadeKernelSizeRange:    [2]int{100, 150},
		ShadeNbEllipses:         20,
		MotionBlurMaxKernelSize: 3,
		DoGaussianNoise:         true,
		DoSpeckleNoise:          true,
		DoRandomBrightness:      true,
		DoRandomContrast:        true,
		DoShade:                 true,
		DoMotionBlur:            true,
	}
}

// Enabled reports whether any stage is switched on.
func (p Photometric) Enabled() bool {
	return p.DoGaussianNoise || p.DoSpeckleNoise || p.DoRandomBrightness ||
		p.DoRandomContrast || p.DoShade || p.DoMotionBlur
}

// Validate checks every option against its domain and reports all failures.
func (p Photometric) Validate() error {
	var err error
	if p.GaussianNoiseStd < 0 {
		err = multierr.Append(err, invalid("gaussian_noise_std", p.GaussianNoiseStd, "must be >= 0"))
	}
	if p.SpeckleNoiseMinProb < 0 || p.SpeckleNoiseMaxProb > 1 || p.SpeckleNoiseMinProb > p.SpeckleNoiseMaxProb {
		err = multierr.Append(err, invalid("speckle_noise_min_prob", p.SpeckleNoiseMinProb,
			fmt.Sprintf("must satisfy 0 <= min <= max (%g) <= 1", p.SpeckleNoiseMaxProb)))
	}
	if p.BrightnessMaxAbsChange < 0 {
		err = multierr.Append(err, invalid("brightness_max_abs_change", p.BrightnessMaxAbsChange, "must be >= 0"))
	}
	if p.ContrastMin < 0 || p.ContrastMin > p.ContrastMax {
		err = multierr.Append(err, invalid("contrast_min", p.ContrastMin,
			fmt.Sprintf("must satisfy 0 <= contrast_min <= contrast_max (%g)", p.ContrastMax)))
	}
	if lo, hi := p.ShadeTransparencyRange[0], p.ShadeTransparencyRange[1]; lo > hi || lo < -1 || hi > 1 {
		err = multierr.Append(err, invalid("shade_transparency_range", p.ShadeTransparencyRange, "must be an ordered pair within [-1, 1]"))
	}
	if lo, hi := p.ShadeKernelSizeRange[0], p.ShadeKernelSizeRange[1]; lo < 1 || lo >= hi {
		err = multierr.Append(err, invalid("shade_kernel_size_range", p.ShadeKernelSizeRange, "must satisfy 1 <= low < high"))
	}
	if p.ShadeNbEllipses < 0 {
		err = multierr.Append(err, invalid("shade_nb_ellipese", p.ShadeNbEllipses, "must be >= 0"))
	}
	if p.MotionBlurMaxKernelSize < 1 {
		err = multierr.Append(err, invalid("motion_blur_max_kernel_size", p.MotionBlurMaxKernelSize, "must be >= 1"))
	}
	return err
}
