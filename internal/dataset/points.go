package dataset

import (
	"fmt"
	"os"

	"pointadapt/pkg/geometry"

	"github.com/sbinet/npyio"
)

// LoadPoints reads an N×2 array of (row, col) keypoints. float32 and float64
// arrays in either memory order are accepted; an empty array yields no points.
func LoadPoints(path string) ([]geometry.Keypoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open points: %w", err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read npy header %s: %w", path, err)
	}

	shape := r.Header.Descr.Shape
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n == 0 {
		return nil, nil
	}
	if len(shape) != 2 || shape[1] != 2 {
		return nil, fmt.Errorf("points %s: shape %v, want (N, 2)", path, shape)
	}

	var data []float64
	switch r.Header.Descr.Type {
	case "<f8", "float64":
		if err := r.Read(&data); err != nil {
			return nil, fmt.Errorf("failed to read points %s: %w", path, err)
		}
	case "<f4", "float32":
		var f32 []float32
		if err := r.Read(&f32); err != nil {
			return nil, fmt.Errorf("failed to read points %s: %w", path, err)
		}
		data = make([]float64, len(f32))
		for i, v := range f32 {
			data[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("points %s: unsupported dtype %q", path, r.Header.Descr.Type)
	}

	rows := shape[0]
	points := make([]geometry.Keypoint, rows)
	for i := range points {
		if r.Header.Descr.Fortran {
			points[i] = geometry.Keypoint{Row: data[i], Col: data[rows+i]}
		} else {
			points[i] = geometry.Keypoint{Row: data[2*i], Col: data[2*i+1]}
		}
	}
	return points, nil
}
