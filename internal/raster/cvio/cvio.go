// Package cvio loads and renders rasters through OpenCV. It mirrors the
// imread/resize path used to produce the pseudo-label files, so loading with
// it reproduces the exact pixels the labels were computed on.
package cvio

import (
	"fmt"
	"image"

	"pointadapt/internal/raster"
	"pointadapt/pkg/colorutil"
	"pointadapt/pkg/geometry"

	"gocv.io/x/gocv"
)

// Loader implements raster.Loader with gocv.
type Loader struct{}

// Load reads path as grayscale and resizes it with linear interpolation.
func (Loader) Load(path string, width, height int) (raster.Gray, error) {
	src := gocv.IMRead(path, gocv.IMReadGrayScale)
	defer src.Close()
	if src.Empty() {
		return raster.Gray{}, fmt.Errorf("failed to read image %s", path)
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(src, &resized, image.Point{X: width, Y: height}, 0, 0, gocv.InterpolationLinear)

	data := resized.ToBytes()
	if len(data) != width*height {
		return raster.Gray{}, fmt.Errorf("unexpected buffer size %d for %dx%d image", len(data), width, height)
	}

	g := raster.NewGray(width, height)
	for i, v := range data {
		g.Pix[i] = float32(v)
	}
	return g, nil
}

// WriteKeypoints draws each keypoint as a small circle over img and writes
// the result to path. The output format follows the file extension.
func WriteKeypoints(path string, img raster.Gray, points []geometry.Keypoint) error {
	gray, err := gocv.ImageGrayToMatGray(img.ToImage())
	if err != nil {
		return fmt.Errorf("convert raster: %w", err)
	}
	defer gray.Close()

	canvas := gocv.NewMat()
	defer canvas.Close()
	gocv.CvtColor(gray, &canvas, gocv.ColorGrayToBGR)

	for _, p := range points {
		center := image.Point{X: int(p.Col), Y: int(p.Row)}
		gocv.Circle(&canvas, center, 1, colorutil.Keypoint, 2)
	}

	if ok := gocv.IMWrite(path, canvas); !ok {
		return fmt.Errorf("failed to write %s", path)
	}
	return nil
}
