package dataset

import (
	"fmt"

	"pointadapt/internal/raster"
	"pointadapt/pkg/geometry"
)

// Item is one loaded sample: an H×W image and its sub-pixel keypoints.
type Item struct {
	Index  int
	Stem   string
	Image  raster.Gray
	Points []geometry.Keypoint
}

// Dataset loads entries on demand at a fixed frame size.
type Dataset struct {
	entries []Entry
	loader  raster.Loader
	height  int
	width   int
}

// New wraps entries; images are resized to height×width by loader.
func New(entries []Entry, loader raster.Loader, height, width int) *Dataset {
	return &Dataset{entries: entries, loader: loader, height: height, width: width}
}

// Open discovers dir and wraps the result.
func Open(dir string, exts []string, limit int, loader raster.Loader, height, width int) (*Dataset, error) {
	entries, err := Discover(dir, exts, limit)
	if err != nil {
		return nil, err
	}
	return New(entries, loader, height, width), nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.entries) }

// Entries returns the discovered pairs in order.
func (d *Dataset) Entries() []Entry { return d.entries }

// Item loads sample i.
func (d *Dataset) Item(i int) (Item, error) {
	if i < 0 || i >= len(d.entries) {
		return Item{}, fmt.Errorf("index %d out of range [0, %d)", i, len(d.entries))
	}
	e := d.entries[i]

	img, err := d.loader.Load(e.ImagePath, d.width, d.height)
	if err != nil {
		return Item{}, fmt.Errorf("sample %s: %w", e.Stem, err)
	}
	points, err := LoadPoints(e.PointPath)
	if err != nil {
		return Item{}, fmt.Errorf("sample %s: %w", e.Stem, err)
	}
	return Item{Index: i, Stem: e.Stem, Image: img, Points: points}, nil
}
