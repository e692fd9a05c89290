// Command warptest samples homographies for one image and writes the warped
// images with their keypoints for inspection.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"pointadapt/internal/config"
	"pointadapt/internal/dataset"
	"pointadapt/internal/homography"
	"pointadapt/internal/label"
	"pointadapt/internal/pipeline"
	"pointadapt/internal/raster"
	"pointadapt/internal/raster/cvio"
	"pointadapt/internal/warp"
	"pointadapt/pkg/geometry"
)

func main() {
	imagePath := flag.String("image", "", "Path to image (JPEG, PNG, TIFF, BMP or WebP)")
	pointsPath := flag.String("points", "", "Path to .npy keypoints (defaults to <stem>.npy beside the image)")
	configPath := flag.String("config", "", "YAML or TOML config file")
	count := flag.Int("n", 4, "Number of homographies to sample")
	seed := flag.Uint64("seed", 0, "Random seed (overrides config)")
	outDir := flag.String("out", "warptest", "Output directory")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: warptest -image <path> [-points <npy>] [-config <file>] [-n 4] [-seed 0] [-out dir]")
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	img, err := cvio.Loader{}.Load(*imagePath, cfg.Width, cfg.Height)
	if err != nil {
		fmt.Fprintf(os.Stderr, "OpenCV load failed (%v), falling back to native decoder\n", err)
		img, err = raster.NativeLoader{}.Load(*imagePath, cfg.Width, cfg.Height)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Loaded %s as %dx%d\n", *imagePath, img.Width, img.Height)

	if *pointsPath == "" {
		*pointsPath = filepath.Join(filepath.Dir(*imagePath), dataset.Stem(*imagePath)+dataset.PointExt)
	}
	points, err := dataset.LoadPoints(*pointsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "No keypoints loaded (%v)\n", err)
	}
	fmt.Printf("Keypoints: %d\n", len(points))

	sampler, err := homography.NewSampler(cfg.Homography, cfg.Height, cfg.Width)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid homography config: %v\n", err)
		os.Exit(1)
	}
	interp, err := warp.ParseInterpolation(cfg.Interpolation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	encoder, err := label.NewEncoder(cfg.Height, cfg.Width)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", *outDir, err)
		os.Exit(1)
	}

	fmt.Printf("\n%-4s %12s %8s %8s %8s %s\n", "#", "det", "kept", "valid%", "cells", "file")
	for i := 0; i < *count; i++ {
		rng := pipeline.NewRand(cfg.Seed, i)
		h, err := sampler.Sample(rng)
		if err != nil {
			fmt.Printf("%-4d %s\n", i, err)
			continue
		}

		warped, mask, err := warp.Image(img, h, interp)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warp failed: %v\n", err)
			os.Exit(1)
		}
		moved := warp.Points(points, h, mask)
		validity, err := encoder.EncodeValidity(mask)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

		out := filepath.Join(*outDir, fmt.Sprintf("warp_%02d.png", i))
		if err := cvio.WriteKeypoints(out, warped, moved); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", out, err)
			os.Exit(1)
		}

		validPct := 100 * float64(mask.Count()) / float64(len(mask.Pix))
		fmt.Printf("%-4d %12.5f %8d %7.1f%% %8d %s\n",
			i, h.Det(), len(moved), validPct, countValid(validity), out)
		printMatrix(h)
	}
}

func countValid(v label.Validity) int {
	n := 0
	for _, x := range v.Valid {
		n += int(x)
	}
	return n
}

func printMatrix(h geometry.Homography) {
	for r := 0; r < 3; r++ {
		fmt.Printf("     [%10.5f %10.5f %10.3f]\n", h.At(r, 0), h.At(r, 1), h.At(r, 2))
	}
}
