package dataset

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"pointadapt/internal/raster"
	"pointadapt/pkg/geometry"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func writeNpy(t *testing.T, path string, val any) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, npyio.Write(f, val))
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 251)
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestDiscoverPairsSortedStems(t *testing.T) {
	dir := t.TempDir()
	for _, stem := range []string{"b", "B", "a", "a_2"} {
		touch(t, filepath.Join(dir, stem+".jpg"))
		touch(t, filepath.Join(dir, stem+".npy"))
	}
	touch(t, filepath.Join(dir, "notes.txt"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755))

	entries, err := Discover(dir, []string{".jpg"}, 0)
	require.NoError(t, err)

	var stems []string
	for _, e := range entries {
		stems = append(stems, e.Stem)
		assert.Equal(t, filepath.Join(dir, e.Stem+".jpg"), e.ImagePath)
		assert.Equal(t, filepath.Join(dir, e.Stem+".npy"), e.PointPath)
	}
	assert.Equal(t, []string{"B", "a", "a_2", "b"}, stems)

	limited, err := Discover(dir, []string{".jpg"}, 2)
	require.NoError(t, err)
	assert.Equal(t, entries[:2], limited)
}

func TestDiscoverMissingPointFile(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "a.npy"))
	touch(t, filepath.Join(dir, "b.jpg"))

	_, err := Discover(dir, []string{".jpg"}, 0)
	assert.ErrorIs(t, err, ErrMissingPseudoLabel)
	assert.Contains(t, err.Error(), "b.npy")
}

func TestDiscoverStrayPointFile(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "a.npy"))
	touch(t, filepath.Join(dir, "orphan.npy"))

	_, err := Discover(dir, []string{".jpg"}, 0)
	assert.ErrorIs(t, err, ErrListMismatch)
	assert.Contains(t, err.Error(), "orphan.npy")
}

func TestDiscoverStrayPointFileSharingStem(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "a.npy"))
	touch(t, filepath.Join(dir, "a.x.npy"))

	_, err := Discover(dir, []string{".jpg"}, 0)
	require.ErrorIs(t, err, ErrListMismatch)
	assert.Contains(t, err.Error(), "unpaired: a.x.npy")
}

func TestDiscoverCaseSensitiveStem(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "Img.jpg"))
	touch(t, filepath.Join(dir, "img.npy"))

	_, err := Discover(dir, []string{".jpg"}, 0)
	assert.ErrorIs(t, err, ErrMissingPseudoLabel)
}

func TestDiscoverSharedStem(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "a.png"))
	touch(t, filepath.Join(dir, "a.npy"))

	_, err := Discover(dir, []string{".jpg", ".png"}, 0)
	assert.ErrorIs(t, err, ErrListMismatch)
}

func TestLoadPoints(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "pts.npy")
	writeNpy(t, path, mat.NewDense(3, 2, []float64{1.5, 2.5, 10, 20, 0.25, 7}))
	pts, err := LoadPoints(path)
	require.NoError(t, err)
	assert.Equal(t, []geometry.Keypoint{{Row: 1.5, Col: 2.5}, {Row: 10, Col: 20}, {Row: 0.25, Col: 7}}, pts)

	empty := filepath.Join(dir, "empty.npy")
	writeNpy(t, empty, []float64{})
	pts, err = LoadPoints(empty)
	require.NoError(t, err)
	assert.Empty(t, pts)

	flat := filepath.Join(dir, "flat.npy")
	writeNpy(t, flat, []float64{1, 2, 3})
	_, err = LoadPoints(flat)
	assert.Error(t, err)

	_, err = LoadPoints(filepath.Join(dir, "missing.npy"))
	assert.Error(t, err)
}

func TestDatasetItem(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "0001.png"), 40, 30)
	writeNpy(t, filepath.Join(dir, "0001.npy"), mat.NewDense(1, 2, []float64{3, 4}))
	writePNG(t, filepath.Join(dir, "0002.png"), 16, 16)
	writeNpy(t, filepath.Join(dir, "0002.npy"), []float64{})

	ds, err := Open(dir, []string{".png"}, 0, raster.NativeLoader{}, 16, 24)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())

	item, err := ds.Item(0)
	require.NoError(t, err)
	assert.Equal(t, "0001", item.Stem)
	assert.Equal(t, 0, item.Index)
	assert.Equal(t, 24, item.Image.Width)
	assert.Equal(t, 16, item.Image.Height)
	assert.Equal(t, []geometry.Keypoint{{Row: 3, Col: 4}}, item.Points)

	item, err = ds.Item(1)
	require.NoError(t, err)
	assert.Empty(t, item.Points)

	_, err = ds.Item(2)
	assert.Error(t, err)
}

func TestStem(t *testing.T) {
	assert.Equal(t, "COCO_train2014_000000000009", Stem("/x/COCO_train2014_000000000009.jpg"))
	assert.Equal(t, "a", Stem("a.tar.gz"))
	assert.Equal(t, "noext", Stem("noext"))
}
