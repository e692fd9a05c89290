package homography

import (
	"math"
	"math/rand/v2"
	"testing"

	"pointadapt/internal/config"
	"pointadapt/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configs() map[string]config.Homography {
	base := config.DefaultHomography()

	noArtifacts := base
	noArtifacts.AllowArtifacts = false

	amplitude := base.WithScalingAmplitude(0.2)

	identity := base
	identity.DoPerspective = false
	identity.DoScaling = false
	identity.DoRotation = false
	identity.DoTranslation = false
	identity.PatchRatio = 1

	rotationOnly := base
	rotationOnly.DoPerspective = false
	rotationOnly.DoScaling = false
	rotationOnly.DoTranslation = false
	rotationOnly.RotationSampleNum = 1

	return map[string]config.Homography{
		"default":       base,
		"no artifacts":  noArtifacts,
		"amplitude":     amplitude,
		"identity":      identity,
		"rotation only": rotationOnly,
	}
}

func TestSampleNeverDegenerate(t *testing.T) {
	for name, cfg := range configs() {
		t.Run(name, func(t *testing.T) {
			s, err := NewSampler(cfg, 240, 320)
			require.NoError(t, err)

			rng := rand.New(rand.NewPCG(42, 7))
			for i := 0; i < 200; i++ {
				h, err := s.Sample(rng)
				require.NoError(t, err)
				assert.Greater(t, math.Abs(h.Det()), MinAbsDeterminant)
				assert.InDelta(t, 1.0, h[8], 1e-12)
			}
		})
	}
}

func TestSampleDeterministic(t *testing.T) {
	s, err := NewSampler(config.DefaultHomography(), 240, 320)
	require.NoError(t, err)

	a := rand.New(rand.NewPCG(1, 2))
	b := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 20; i++ {
		ha, errA := s.Sample(a)
		hb, errB := s.Sample(b)
		require.NoError(t, errA)
		require.NoError(t, errB)
		require.Equal(t, ha, hb)
	}
}

func TestIdentityConfigYieldsIdentity(t *testing.T) {
	cfg := configs()["identity"]
	s, err := NewSampler(cfg, 240, 320)
	require.NoError(t, err)

	h, err := s.Sample(rand.New(rand.NewPCG(3, 3)))
	require.NoError(t, err)
	id := geometry.IdentityHomography()
	for i := range h {
		assert.InDelta(t, id[i], h[i], 1e-9)
	}
}

func TestPatchCornersMapToFrame(t *testing.T) {
	cfg := config.DefaultHomography()
	cfg.AllowArtifacts = false
	s, err := NewSampler(cfg, 240, 320)
	require.NoError(t, err)

	// Small perturbations keep the quad convex, so the first attempt is
	// accepted and Sample re-derives the same quad when fed an identical stream.
	q := s.Quad(rand.New(rand.NewPCG(9, 9)))
	h, err := s.Sample(rand.New(rand.NewPCG(9, 9)))
	require.NoError(t, err)

	frame := geometry.UnitSquare().Scale(319, 239)
	for i, p := range q.Scale(319, 239) {
		got, ok := h.Apply(p)
		require.True(t, ok)
		assert.InDelta(t, frame[i].X, got.X, 1e-6)
		assert.InDelta(t, frame[i].Y, got.Y, 1e-6)
	}
}

func TestNoArtifactsStaysInside(t *testing.T) {
	cfg := config.DefaultHomography()
	cfg.AllowArtifacts = false
	s, err := NewSampler(cfg, 240, 320)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(11, 0))
	for i := 0; i < 200; i++ {
		q := s.Quad(rng)
		lo, hi := q.Bounds()
		require.GreaterOrEqual(t, lo.X, -1e-12)
		require.GreaterOrEqual(t, lo.Y, -1e-12)
		require.LessOrEqual(t, hi.X, 1+1e-12)
		require.LessOrEqual(t, hi.Y, 1+1e-12)
	}
}

func TestSampleExhaustsRetries(t *testing.T) {
	cfg := config.DefaultHomography()
	cfg.DoScaling = false
	cfg.DoRotation = false
	cfg.DoTranslation = false
	cfg.PerspectiveAmplitudeX = 0
	cfg.PerspectiveAmplitudeY = 0
	cfg.PatchRatio = 1e-9
	cfg.MaxRetries = 3

	s, err := NewSampler(cfg, 240, 320)
	require.NoError(t, err)

	_, err = s.Sample(rand.New(rand.NewPCG(0, 0)))
	assert.ErrorIs(t, err, ErrDegenerateHomography)
}

func TestNewSamplerValidates(t *testing.T) {
	cfg := config.DefaultHomography()
	cfg.PatchRatio = 0
	_, err := NewSampler(cfg, 240, 320)
	assert.ErrorIs(t, err, config.ErrInvalidOption)

	_, err = NewSampler(config.DefaultHomography(), 1, 320)
	assert.ErrorIs(t, err, config.ErrInvalidOption)
}

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{-1}, linspace(-1, 1, 1))
	assert.InDeltaSlice(t, []float64{-1, -0.5, 0, 0.5, 1}, linspace(-1, 1, 5), 1e-12)
}
