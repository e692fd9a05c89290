package raster

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Loader reads an image file as a grayscale raster resized to width x height.
type Loader interface {
	Load(path string, width, height int) (Gray, error)
}

// NativeLoader decodes with the Go image packages and resizes bilinearly.
type NativeLoader struct{}

// Load implements Loader.
func (NativeLoader) Load(path string, width, height int) (Gray, error) {
	file, err := os.Open(path)
	if err != nil {
		return Gray{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return Gray{}, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	return Resize(img, width, height), nil
}

// Resize converts img to gray and scales it to width x height. Images that
// already have the target size are converted without resampling.
func Resize(img image.Image, width, height int) Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(gray, gray.Bounds(), img, b.Min, xdraw.Src)
	if b.Dx() == width && b.Dy() == height {
		return FromImage(gray)
	}

	dst := image.NewGray(image.Rect(0, 0, width, height))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), gray, gray.Bounds(), xdraw.Src, nil)
	return FromImage(dst)
}
