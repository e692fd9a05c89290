package photometric

import (
	"math/rand/v2"
	"testing"

	"pointadapt/internal/config"
	"pointadapt/internal/raster"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func texture(w, h int) raster.Gray {
	g := raster.NewGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Set(x, y, float32((x*7+y*13)%256))
		}
	}
	return g
}

func mustApply(t *testing.T, aug *Augmentor, img raster.Gray, rng *rand.Rand) raster.Gray {
	t.Helper()
	out, err := aug.Apply(img, rng)
	require.NoError(t, err)
	return out
}

func withToggles(mask int) config.Photometric {
	cfg := config.DefaultPhotometric()
	cfg.DoGaussianNoise = mask&1 != 0
	cfg.DoSpeckleNoise = mask&2 != 0
	cfg.DoRandomBrightness = mask&4 != 0
	cfg.DoRandomContrast = mask&8 != 0
	cfg.DoShade = mask&16 != 0
	cfg.DoMotionBlur = mask&32 != 0
	// Smaller kernels keep the full toggle grid fast on a small frame.
	cfg.ShadeKernelSizeRange = [2]int{5, 15}
	cfg.MotionBlurMaxKernelSize = 7
	return cfg
}

func TestApplyEveryToggleCombination(t *testing.T) {
	img := texture(64, 48)
	for mask := 0; mask < 64; mask++ {
		aug, err := New(withToggles(mask))
		require.NoError(t, err)

		rng := rand.New(rand.NewPCG(uint64(mask), 1))
		out := mustApply(t, aug, img, rng)
		require.True(t, out.SameShape(img), "toggles %06b", mask)
		for i, v := range out.Pix {
			require.GreaterOrEqual(t, v, float32(0), "toggles %06b pixel %d", mask, i)
			require.LessOrEqual(t, v, float32(255), "toggles %06b pixel %d", mask, i)
		}
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	img := texture(32, 32)
	orig := img.Clone()
	aug, err := New(withToggles(63))
	require.NoError(t, err)

	mustApply(t, aug, img, rand.New(rand.NewPCG(1, 1)))
	assert.Equal(t, orig.Pix, img.Pix)
}

func TestApplyDeterministic(t *testing.T) {
	img := texture(40, 32)
	aug, err := New(withToggles(63))
	require.NoError(t, err)

	a := mustApply(t, aug, img, rand.New(rand.NewPCG(77, 3)))
	b := mustApply(t, aug, img, rand.New(rand.NewPCG(77, 3)))
	assert.Equal(t, a.Pix, b.Pix)
}

func TestNoStagesIsCopy(t *testing.T) {
	img := texture(16, 16)
	aug, err := New(withToggles(0))
	require.NoError(t, err)
	assert.Empty(t, aug.Stages())
	assert.Equal(t, img.Pix, mustApply(t, aug, img, rand.New(rand.NewPCG(0, 0))).Pix)
}

func TestStagesOrder(t *testing.T) {
	aug, err := New(withToggles(63))
	require.NoError(t, err)
	assert.Equal(t, []string{
		StageGaussianNoise, StageSpeckleNoise, StageBrightness,
		StageContrast, StageShade, StageMotionBlur,
	}, aug.Stages())
}

func TestGaussianNoiseStatistics(t *testing.T) {
	cfg := withToggles(1)
	cfg.GaussianNoiseMean = 3
	cfg.GaussianNoiseStd = 4
	aug, err := New(cfg)
	require.NoError(t, err)

	img := raster.NewGray(128, 128)
	for i := range img.Pix {
		img.Pix[i] = 100
	}
	out := mustApply(t, aug, img, rand.New(rand.NewPCG(5, 5)))

	diff := make([]float64, len(out.Pix))
	for i, v := range out.Pix {
		diff[i] = float64(v) - 100
	}
	mean, std := stat.MeanStdDev(diff, nil)
	assert.InDelta(t, 3, mean, 0.2)
	assert.InDelta(t, 4, std, 0.2)
}

func TestContrastAboutMidGray(t *testing.T) {
	cfg := withToggles(8)
	cfg.ContrastMin, cfg.ContrastMax = 2, 2
	aug, err := New(cfg)
	require.NoError(t, err)

	img := raster.NewGray(2, 1)
	img.Pix[0], img.Pix[1] = 127.5, 137.5
	out := mustApply(t, aug, img, rand.New(rand.NewPCG(0, 0)))
	assert.InDelta(t, 127.5, out.Pix[0], 1e-4)
	assert.InDelta(t, 147.5, out.Pix[1], 1e-4)
}

func TestSpeckleExtremes(t *testing.T) {
	cfg := withToggles(2)
	cfg.SpeckleNoiseMinProb, cfg.SpeckleNoiseMaxProb = 0.2, 0.2
	aug, err := New(cfg)
	require.NoError(t, err)

	img := raster.NewGray(100, 100)
	for i := range img.Pix {
		img.Pix[i] = 100
	}
	out := mustApply(t, aug, img, rand.New(rand.NewPCG(8, 8)))

	var pepper, salt int
	for _, v := range out.Pix {
		switch v {
		case 0:
			pepper++
		case 255:
			salt++
		default:
			require.Equal(t, float32(100), v)
		}
	}
	assert.InDelta(t, 2000, pepper, 300)
	assert.InDelta(t, 2000, salt, 300)
}

func TestShadeNeutralTransparency(t *testing.T) {
	cfg := withToggles(16)
	cfg.ShadeTransparencyRange = [2]float64{0, 0}
	aug, err := New(cfg)
	require.NoError(t, err)

	img := texture(48, 40)
	assert.Equal(t, img.Pix, mustApply(t, aug, img, rand.New(rand.NewPCG(2, 2))).Pix)
}

func TestShadeDarkens(t *testing.T) {
	cfg := withToggles(16)
	cfg.ShadeTransparencyRange = [2]float64{0.9, 0.9}
	aug, err := New(cfg)
	require.NoError(t, err)

	img := raster.NewGray(80, 64)
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	out := mustApply(t, aug, img, rand.New(rand.NewPCG(4, 4)))

	var darker int
	for _, v := range out.Pix {
		require.LessOrEqual(t, v, float32(200))
		if v < 200 {
			darker++
		}
	}
	assert.Positive(t, darker)
}

func TestMotionKernel(t *testing.T) {
	for _, mode := range []blurMode{blurHorizontal, blurVertical, blurDiagonalDown, blurDiagonalUp} {
		k := motionKernel(mode, 5)
		var sum float64
		nonzero := 0
		for _, w := range k {
			sum += w
			if w > 0 {
				nonzero++
			}
		}
		assert.InDelta(t, 1, sum, 1e-12)
		assert.Equal(t, 5, nonzero)
		assert.Greater(t, k[2*5+2], k[2*5+0], "centre weighs most (mode %d)", mode)
	}
}

func TestMotionBlurFlatImageUnchanged(t *testing.T) {
	img := raster.NewGray(10, 10)
	for i := range img.Pix {
		img.Pix[i] = 42
	}
	require.NoError(t, applyKernel(img, motionKernel(blurDiagonalUp, 5), 5))
	for _, v := range img.Pix {
		assert.InDelta(t, 42, v, 1e-4)
	}
}

func TestMotionBlurSmearsAlongLine(t *testing.T) {
	img := raster.NewGray(9, 9)
	img.Set(4, 4, 255)
	k := motionKernel(blurHorizontal, 3)

	require.NoError(t, applyKernel(img, k, 3))
	assert.InDelta(t, 255*k[1*3+1], img.At(4, 4), 1e-3)
	assert.InDelta(t, 255*k[1*3+0], img.At(3, 4), 1e-3)
	assert.InDelta(t, 255*k[1*3+2], img.At(5, 4), 1e-3)
	assert.Equal(t, float32(0), img.At(4, 3))
	assert.Equal(t, float32(0), img.At(4, 5))
}

func TestMotionBlurReflectsAtEdge(t *testing.T) {
	img := raster.NewGray(5, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			img.Set(x, y, float32(10*(x+1)))
		}
	}
	k := motionKernel(blurHorizontal, 3)
	side, centre := float32(k[1*3+0]), float32(k[1*3+1])

	require.NoError(t, applyKernel(img, k, 3))
	// Column 0 sees column 1 on both sides.
	assert.InDelta(t, 2*side*20+centre*10, img.At(0, 1), 1e-3)
	assert.InDelta(t, 2*side*40+centre*50, img.At(4, 1), 1e-3)
	assert.InDelta(t, 30, img.At(2, 1), 1e-3)
}

func TestNewValidates(t *testing.T) {
	cfg := config.DefaultPhotometric()
	cfg.ShadeKernelSizeRange = [2]int{-1, 3}
	_, err := New(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidOption)
}
