// Package dataset pairs images with their pseudo-label point files and loads
// them for the pipeline.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PointExt is the extension of pseudo-label point files.
const PointExt = ".npy"

var (
	// ErrMissingPseudoLabel is returned when an image has no point file.
	ErrMissingPseudoLabel = errors.New("missing pseudo-label file")
	// ErrListMismatch is returned when image and point lists do not pair up.
	ErrListMismatch = errors.New("image and point lists do not match")
)

// Entry is one image and its point file, sharing a stem.
type Entry struct {
	Stem      string
	ImagePath string
	PointPath string
}

// Discover lists images in dir with one of exts, sorted case-sensitively,
// and pairs each with <stem>.npy. A limit above zero keeps only the first
// limit entries.
func Discover(dir string, exts []string, limit int) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	accepted := make(map[string]bool, len(exts))
	for _, e := range exts {
		accepted[e] = true
	}

	var images, points []string
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := f.Name()
		ext := filepath.Ext(name)
		switch {
		case accepted[ext]:
			images = append(images, name)
		case ext == PointExt:
			points = append(points, name)
		}
	}
	sort.Strings(images)
	sort.Strings(points)

	pointSet := make(map[string]bool, len(points))
	for _, p := range points {
		pointSet[p] = true
	}

	entries := make([]Entry, 0, len(images))
	seen := make(map[string]string, len(images))
	paired := make(map[string]bool, len(images))
	for _, img := range images {
		stem := Stem(img)
		if prev, dup := seen[stem]; dup {
			return nil, fmt.Errorf("%w: %s and %s share stem %q", ErrListMismatch, prev, img, stem)
		}
		seen[stem] = img

		pointName := stem + PointExt
		if !pointSet[pointName] {
			return nil, fmt.Errorf("%w: %s has no %s", ErrMissingPseudoLabel, img, pointName)
		}
		paired[pointName] = true
		entries = append(entries, Entry{
			Stem:      stem,
			ImagePath: filepath.Join(dir, img),
			PointPath: filepath.Join(dir, pointName),
		})
	}

	if len(entries) != len(points) {
		var stray []string
		for _, p := range points {
			if !paired[p] {
				stray = append(stray, p)
			}
		}
		return nil, fmt.Errorf("%w: %d images, %d point files (unpaired: %s)",
			ErrListMismatch, len(entries), len(points), strings.Join(stray, ", "))
	}

	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

// Stem returns the file name up to its first dot.
func Stem(name string) string {
	base := filepath.Base(name)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}
