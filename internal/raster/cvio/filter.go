package cvio

import (
	"fmt"
	"image"

	"pointadapt/internal/raster"

	"gocv.io/x/gocv"
)

// Filter2D correlates img with a ksize×ksize row-major kernel. Borders are
// reflected without repeating the edge pixel (gfedcb|abcdefgh|gfedcba).
func Filter2D(img raster.Gray, kernel []float64, ksize int) (raster.Gray, error) {
	if ksize < 1 || len(kernel) != ksize*ksize {
		return raster.Gray{}, fmt.Errorf("kernel has %d weights, want %dx%d", len(kernel), ksize, ksize)
	}

	src, err := matFromGray(img)
	if err != nil {
		return raster.Gray{}, err
	}
	defer src.Close()

	k := gocv.NewMatWithSize(ksize, ksize, gocv.MatTypeCV64F)
	defer k.Close()
	weights, err := k.DataPtrFloat64()
	if err != nil {
		return raster.Gray{}, fmt.Errorf("kernel buffer: %w", err)
	}
	copy(weights, kernel)

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Filter2D(src, &dst, -1, k, image.Pt(-1, -1), 0, gocv.BorderReflect101)

	return grayFromMat(dst, img.Width, img.Height)
}

// matFromGray copies img into a single-channel CV_32F Mat.
func matFromGray(img raster.Gray) (gocv.Mat, error) {
	m := gocv.NewMatWithSize(img.Height, img.Width, gocv.MatTypeCV32F)
	data, err := m.DataPtrFloat32()
	if err != nil {
		m.Close()
		return gocv.Mat{}, fmt.Errorf("raster buffer: %w", err)
	}
	copy(data, img.Pix)
	return m, nil
}

func grayFromMat(m gocv.Mat, width, height int) (raster.Gray, error) {
	data, err := m.DataPtrFloat32()
	if err != nil {
		return raster.Gray{}, fmt.Errorf("filtered buffer: %w", err)
	}
	if len(data) != width*height {
		return raster.Gray{}, fmt.Errorf("unexpected buffer size %d for %dx%d image", len(data), width, height)
	}
	g := raster.NewGray(width, height)
	copy(g.Pix, data)
	return g, nil
}
