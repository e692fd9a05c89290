package preview

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"pointadapt/internal/label"
	"pointadapt/internal/raster"
	"pointadapt/pkg/colorutil"
	"pointadapt/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarksPointsAndInvalidCells(t *testing.T) {
	img := raster.NewGray(16, 8)
	for i := range img.Pix {
		img.Pix[i] = 100
	}
	validity := label.Validity{Rows: 1, Cols: 2, Valid: []uint8{1, 0}}
	opts := Options{Scale: 1, PointRadius: 1.5, InvalidAlpha: 0.5}

	out := Render(img, []geometry.Keypoint{{Row: 4, Col: 3}}, validity, opts)
	require.Equal(t, 16, out.Bounds().Dx())
	require.Equal(t, 8, out.Bounds().Dy())

	plain := color.RGBAModel.Convert(out.At(0, 0)).(color.RGBA)
	assert.Equal(t, colorutil.GrayRGBA(100), plain)

	tinted := color.RGBAModel.Convert(out.At(12, 1)).(color.RGBA)
	assert.Equal(t, colorutil.Tint(colorutil.GrayRGBA(100), colorutil.Invalid, 0.5), tinted)

	point := color.RGBAModel.Convert(out.At(3, 4)).(color.RGBA)
	assert.Equal(t, colorutil.Keypoint, point)
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.png")
	img := raster.NewGray(8, 8)
	require.NoError(t, SavePNG(path, img, nil, label.Validity{}, DefaultOptions()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 16, decoded.Bounds().Dx())
}
