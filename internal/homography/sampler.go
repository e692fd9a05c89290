// Package homography samples constrained random projective transforms that
// simulate a change of viewpoint.
package homography

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"pointadapt/internal/config"
	"pointadapt/pkg/geometry"
)

// ErrDegenerateHomography is returned when every attempt produced a
// near-singular or collapsed transform.
var ErrDegenerateHomography = errors.New("degenerate homography")

// Rejection thresholds.
const (
	MinAbsDeterminant = 1e-6
	minCornerDistance = 1e-3 // unit-square coordinates
)

// Sampler draws homographies for a fixed frame size.
type Sampler struct {
	cfg    config.Homography
	height int
	width  int
}

// NewSampler validates cfg and binds it to a height×width frame.
func NewSampler(cfg config.Homography, height, width int) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if height < 2 || width < 2 {
		return nil, fmt.Errorf("%w: frame %dx%d too small", config.ErrInvalidOption, height, width)
	}
	return &Sampler{cfg: cfg, height: height, width: width}, nil
}

// Sample returns a transform mapping source pixel coordinates (x, y) to
// warped pixel coordinates. It resamples up to MaxRetries times before
// failing with ErrDegenerateHomography.
func (s *Sampler) Sample(rng *rand.Rand) (geometry.Homography, error) {
	var last error
	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		h, err := s.attempt(rng)
		if err == nil {
			return h, nil
		}
		last = err
	}
	return geometry.Homography{}, fmt.Errorf("%w after %d attempts: %v", ErrDegenerateHomography, s.cfg.MaxRetries, last)
}

func (s *Sampler) attempt(rng *rand.Rand) (geometry.Homography, error) {
	warped := s.Quad(rng)

	if d := warped.MinCornerDistance(); d < minCornerDistance {
		return geometry.Homography{}, fmt.Errorf("corners collapsed (min distance %.2g)", d)
	}
	if !warped.IsConvex() {
		return geometry.Homography{}, errors.New("quad is not convex")
	}

	sx, sy := float64(s.width-1), float64(s.height-1)
	h, err := geometry.HomographyFromQuads(warped.Scale(sx, sy), geometry.UnitSquare().Scale(sx, sy))
	if err != nil {
		return geometry.Homography{}, err
	}
	if det := h.Det(); math.Abs(det) < MinAbsDeterminant {
		return geometry.Homography{}, fmt.Errorf("determinant %.3g below threshold", det)
	}
	return h, nil
}

// Quad draws the distorted source patch in unit-square coordinates. The
// full frame is the image of this patch under the sampled homography.
func (s *Sampler) Quad(rng *rand.Rand) geometry.Quad {
	cfg := s.cfg
	margin := (1 - cfg.PatchRatio) / 2
	patch := geometry.UnitSquare().Scale(cfg.PatchRatio, cfg.PatchRatio).Translate(margin, margin)

	if cfg.DoPerspective {
		ax, ay := cfg.PerspectiveAmplitudeX, cfg.PerspectiveAmplitudeY
		if !cfg.AllowArtifacts {
			ax = math.Min(ax, margin)
			ay = math.Min(ay, margin)
		}
		for i := range patch {
			patch[i].X += uniform(rng, -ax, ax)
			patch[i].Y += uniform(rng, -ay, ay)
		}
	}

	if cfg.DoScaling {
		low, up := cfg.ScalingRange()
		center := patch.Centroid()
		candidates := make([]geometry.Quad, 0, cfg.ScalingSampleNum+1)
		for i := 0; i < cfg.ScalingSampleNum; i++ {
			candidates = append(candidates, patch.ScaleAbout(center, uniform(rng, low, up)))
		}
		candidates = append(candidates, patch) // identity scale
		patch = s.pick(rng, candidates)
	}

	if cfg.DoTranslation {
		lo, hi := patch.Bounds()
		tMin := lo
		tMax := geometry.Point2D{X: 1 - hi.X, Y: 1 - hi.Y}
		if cfg.AllowArtifacts {
			tMin.X += cfg.TranslationOverflow
			tMin.Y += cfg.TranslationOverflow
			tMax.X += cfg.TranslationOverflow
			tMax.Y += cfg.TranslationOverflow
		}
		dx := uniform(rng, -tMin.X, tMax.X)
		dy := uniform(rng, -tMin.Y, tMax.Y)
		patch = patch.Translate(dx, dy)
	}

	if cfg.DoRotation {
		center := patch.Centroid()
		angles := linspace(-cfg.RotationMaxAngle, cfg.RotationMaxAngle, cfg.RotationSampleNum)
		candidates := make([]geometry.Quad, 0, len(angles)+1)
		for _, a := range angles {
			candidates = append(candidates, patch.RotateAbout(center, a))
		}
		candidates = append(candidates, patch) // zero angle
		patch = s.pick(rng, candidates)
	}

	return patch
}

// pick chooses among candidates whose last element is the identity. With
// artifacts allowed any drawn candidate may be chosen; otherwise only those
// staying inside the unit square, falling back to the identity.
func (s *Sampler) pick(rng *rand.Rand, candidates []geometry.Quad) geometry.Quad {
	drawn := len(candidates) - 1
	if s.cfg.AllowArtifacts {
		return candidates[rng.IntN(drawn)]
	}

	valid := make([]int, 0, len(candidates))
	for i, q := range candidates {
		if q.InsideUnitSquare() {
			valid = append(valid, i)
		}
	}
	if len(valid) == 0 {
		return candidates[drawn]
	}
	return candidates[valid[rng.IntN(len(valid))]]
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// linspace returns n evenly spaced values over [lo, hi]; a single sample is lo.
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
