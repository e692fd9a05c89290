// Package pipeline fixes the per-sample call order of the augmentation
// stages and runs samples in parallel with reproducible randomness.
package pipeline

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"pointadapt/internal/config"
	"pointadapt/internal/dataset"
	"pointadapt/internal/homography"
	"pointadapt/internal/label"
	"pointadapt/internal/photometric"
	"pointadapt/internal/raster"
	"pointadapt/internal/warp"
	"pointadapt/pkg/geometry"

	"go.uber.org/zap"
)

// Modes.
const (
	ModeTrain      = "train"
	ModeValidation = "validation"
)

// TrainSample is the supervision for one training item.
type TrainSample struct {
	Index     int
	Stem      string
	Image     raster.Gray
	Label     label.Dense
	Validity  label.Validity
	Points    []geometry.Keypoint // after warping
	Augmented bool
}

// ValSample is one validation item: the image and its integer keypoints.
type ValSample struct {
	Index  int
	Stem   string
	Image  raster.Gray
	Points []label.Pixel
}

// NewRand returns the random stream owned by sample index under seed.
func NewRand(seed uint64, index int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(index)))
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger used for skipped samples.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assembler) { a.log = l }
}

// WithMetrics records sample outcomes into m.
func WithMetrics(m *Metrics) Option {
	return func(a *Assembler) { a.metrics = m }
}

// Assembler runs the stages for one sample at a time. It holds no
// per-sample state and is safe for concurrent use.
type Assembler struct {
	cfg        config.Config
	sampler    *homography.Sampler
	augmentor  *photometric.Augmentor
	encoder    *label.Encoder
	interp     warp.Interpolation
	valRounder label.RoundingPolicy

	log     *zap.Logger
	metrics *Metrics
}

// NewAssembler validates cfg and builds every stage. All configuration
// errors surface here rather than per sample.
func NewAssembler(cfg config.Config, opts ...Option) (*Assembler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	encoder, err := label.NewEncoder(cfg.Height, cfg.Width)
	if err != nil {
		return nil, err
	}
	sampler, err := homography.NewSampler(cfg.Homography, cfg.Height, cfg.Width)
	if err != nil {
		return nil, err
	}
	augmentor, err := photometric.New(cfg.Photometric)
	if err != nil {
		return nil, err
	}
	interp, err := warp.ParseInterpolation(cfg.Interpolation)
	if err != nil {
		return nil, err
	}
	rounder, err := label.ParseRoundingPolicy(cfg.ValidationRounding)
	if err != nil {
		return nil, err
	}

	a := &Assembler{
		cfg:        cfg,
		sampler:    sampler,
		augmentor:  augmentor,
		encoder:    encoder,
		interp:     interp,
		valRounder: rounder,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Config returns the validated configuration.
func (a *Assembler) Config() config.Config { return a.cfg }

// Train assembles a training sample. The rng draws happen in a fixed order:
// augmentation coin, homography, photometric stages.
func (a *Assembler) Train(item dataset.Item, rng *rand.Rand) (TrainSample, error) {
	start := time.Now()
	if err := a.checkShape(item); err != nil {
		a.metrics.sample(ModeTrain, OutcomeFailed)
		return TrainSample{}, err
	}

	img, mask := warp.Identity(item.Image)
	points := item.Points
	augmented := false

	if a.cfg.DoAugmentation && rng.Float64() < a.cfg.AugmentationProbability {
		h, err := a.sampler.Sample(rng)
		if err != nil {
			a.metrics.sample(ModeTrain, OutcomeFailed)
			a.log.Debug("homography rejected",
				zap.Int("index", item.Index), zap.String("stem", item.Stem), zap.Error(err))
			return TrainSample{}, fmt.Errorf("sample %s: %w", item.Stem, err)
		}

		img, mask, err = warp.Image(item.Image, h, a.interp)
		if err != nil {
			a.metrics.sample(ModeTrain, OutcomeFailed)
			return TrainSample{}, fmt.Errorf("sample %s: %w", item.Stem, err)
		}
		points = warp.Points(item.Points, h, mask)
		a.metrics.points(len(points), len(item.Points)-len(points))

		img, err = a.augmentor.Apply(img, rng)
		if err != nil {
			a.metrics.sample(ModeTrain, OutcomeFailed)
			return TrainSample{}, fmt.Errorf("sample %s: %w", item.Stem, err)
		}
		augmented = true
	}

	validity, err := a.encoder.EncodeValidity(mask)
	if err != nil {
		a.metrics.sample(ModeTrain, OutcomeFailed)
		return TrainSample{}, err
	}

	outcome := OutcomeIdentity
	if augmented {
		outcome = OutcomeAugmented
	}
	a.metrics.sample(ModeTrain, outcome)
	a.metrics.observe(ModeTrain, time.Since(start).Seconds())

	return TrainSample{
		Index:     item.Index,
		Stem:      item.Stem,
		Image:     img,
		Label:     a.encoder.Encode(points),
		Validity:  validity,
		Points:    points,
		Augmented: augmented,
	}, nil
}

// Validate assembles a validation sample: never warped, optionally noised,
// with keypoints converted by the configured rounding policy.
func (a *Assembler) Validate(item dataset.Item, rng *rand.Rand) (ValSample, error) {
	start := time.Now()
	if err := a.checkShape(item); err != nil {
		a.metrics.sample(ModeValidation, OutcomeFailed)
		return ValSample{}, err
	}

	img := item.Image.Clone()
	if a.cfg.ValidationNoise && a.cfg.Photometric.Enabled() {
		noisy, err := a.augmentor.Apply(item.Image, rng)
		if err != nil {
			a.metrics.sample(ModeValidation, OutcomeFailed)
			return ValSample{}, fmt.Errorf("sample %s: %w", item.Stem, err)
		}
		img = noisy
	}

	a.metrics.sample(ModeValidation, OutcomeOK)
	a.metrics.observe(ModeValidation, time.Since(start).Seconds())
	return ValSample{
		Index:  item.Index,
		Stem:   item.Stem,
		Image:  img,
		Points: a.valRounder.Pixels(item.Points),
	}, nil
}

func (a *Assembler) checkShape(item dataset.Item) error {
	if item.Image.Height != a.cfg.Height || item.Image.Width != a.cfg.Width {
		return fmt.Errorf("sample %s: %w: image %dx%d, configured %dx%d", item.Stem, label.ErrDimensionMismatch,
			item.Image.Height, item.Image.Width, a.cfg.Height, a.cfg.Width)
	}
	return nil
}

// Skippable reports whether err only affects its own sample.
func Skippable(err error) bool {
	return errors.Is(err, homography.ErrDegenerateHomography)
}
