// Package export writes assembled samples as .npy tensors plus a YAML
// manifest describing the run.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"pointadapt/internal/config"
	"pointadapt/internal/label"
	"pointadapt/internal/pipeline"

	"github.com/google/uuid"
	"github.com/sbinet/npyio"
	"gopkg.in/yaml.v3"
)

// ManifestName is the manifest file written by Close.
const ManifestName = "manifest.yaml"

// File suffixes per tensor.
const (
	SuffixImage  = "_image.npy"
	SuffixLabel  = "_label.npy"
	SuffixMask   = "_mask.npy"
	SuffixPoints = "_points.npy"
)

// Manifest describes an export directory.
//
// Every tensor file holds a flat, row-major 1-D array. Readers reshape
// _image.npy to ImageShape (1×H×W), _label.npy and _mask.npy to LabelShape
// (H/8×W/8), and _points.npy to N×2 (row, col) pairs.
type Manifest struct {
	RunID      string          `yaml:"run_id"`
	CreatedAt  time.Time       `yaml:"created_at"`
	Mode       string          `yaml:"mode"`
	Seed       uint64          `yaml:"seed"`
	Height     int             `yaml:"height"`
	Width      int             `yaml:"width"`
	ImageShape [3]int          `yaml:"image_shape"`
	LabelShape [2]int          `yaml:"label_shape"`
	Samples    []string        `yaml:"samples"`
	Report     pipeline.Report `yaml:"report"`
}

// Writer stores samples under a directory. Its Write methods are safe for
// concurrent use, so they can serve directly as runner sinks.
type Writer struct {
	dir   string
	mode  string
	mu    sync.Mutex
	stems []string
}

// NewWriter creates dir if needed.
func NewWriter(dir, mode string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return &Writer{dir: dir, mode: mode}, nil
}

// WriteTrain stores image (float32, H·W), label (int64, H/8·W/8) and
// validity mask (uint8, H/8·W/8).
func (w *Writer) WriteTrain(s pipeline.TrainSample) error {
	if err := w.write(s.Stem+SuffixImage, s.Image.Pix); err != nil {
		return err
	}
	if err := w.write(s.Stem+SuffixLabel, s.Label.Class); err != nil {
		return err
	}
	if err := w.write(s.Stem+SuffixMask, s.Validity.Valid); err != nil {
		return err
	}
	w.record(s.Stem)
	return nil
}

// WriteVal stores the image and the keypoints as interleaved (row, col)
// int64 pairs.
func (w *Writer) WriteVal(s pipeline.ValSample) error {
	if err := w.write(s.Stem+SuffixImage, s.Image.Pix); err != nil {
		return err
	}
	if err := w.write(s.Stem+SuffixPoints, flattenPixels(s.Points)); err != nil {
		return err
	}
	w.record(s.Stem)
	return nil
}

// Close writes the manifest and returns it.
func (w *Writer) Close(cfg config.Config, report pipeline.Report) (Manifest, error) {
	w.mu.Lock()
	stems := append([]string(nil), w.stems...)
	w.mu.Unlock()
	sort.Strings(stems)

	m := Manifest{
		RunID:      uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Mode:       w.mode,
		Seed:       cfg.Seed,
		Height:     cfg.Height,
		Width:      cfg.Width,
		ImageShape: [3]int{1, cfg.Height, cfg.Width},
		LabelShape: [2]int{cfg.Height / label.CellSize, cfg.Width / label.CellSize},
		Samples:    stems,
		Report:     report,
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, ManifestName), data, 0o644); err != nil {
		return Manifest{}, fmt.Errorf("failed to write manifest: %w", err)
	}
	return m, nil
}

// LoadManifest reads the manifest of an export directory.
func LoadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return m, nil
}

func (w *Writer) write(name string, val any) error {
	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := npyio.Write(f, val); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func (w *Writer) record(stem string) {
	w.mu.Lock()
	w.stems = append(w.stems, stem)
	w.mu.Unlock()
}

func flattenPixels(points []label.Pixel) []int64 {
	out := make([]int64, 0, 2*len(points))
	for _, p := range points {
		out = append(out, int64(p.Row), int64(p.Col))
	}
	return out
}
