// Package config defines the validated run and augmentation configuration.
//
// Configuration is read once from YAML or TOML on top of Default(), then
// validated as a whole; the pipeline never sees an unchecked value.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// ErrInvalidOption is wrapped by every validation failure.
var ErrInvalidOption = errors.New("invalid option")

// Accepted values for the string-valued options.
const (
	InterpolationBilinear = "bilinear"
	InterpolationNearest  = "nearest"

	RoundingFloor = "floor"
	RoundingRound = "round"

	LoaderNative = "native"
	LoaderOpenCV = "opencv"
)

// Config holds everything a run needs.
type Config struct {
	DatasetDir              string   `yaml:"dataset_dir" toml:"dataset_dir"`
	Height                  int      `yaml:"height" toml:"height"`
	Width                   int      `yaml:"width" toml:"width"`
	Seed                    uint64   `yaml:"seed" toml:"seed"`
	Workers                 int      `yaml:"workers" toml:"workers"`
	DoAugmentation          bool     `yaml:"do_augmentation" toml:"do_augmentation"`
	AugmentationProbability float64  `yaml:"augmentation_probability" toml:"augmentation_probability"`
	Interpolation           string   `yaml:"interpolation" toml:"interpolation"`
	ValidationRounding      string   `yaml:"validation_rounding" toml:"validation_rounding"`
	ValidationNoise         bool     `yaml:"validation_noise" toml:"validation_noise"`
	Limit                   int      `yaml:"limit" toml:"limit"`
	ImageExtensions         []string `yaml:"image_extensions" toml:"image_extensions"`
	Loader                  string   `yaml:"loader" toml:"loader"`

	Homography  Homography  `yaml:"homography" toml:"homography"`
	Photometric Photometric `yaml:"photometric" toml:"photometric"`
}

// Default returns the training configuration for 240x320 inputs.
func Default() Config {
	return Config{
		Height:                  240,
		Width:                   320,
		Seed:                    2933,
		Workers:                 4,
		DoAugmentation:          true,
		AugmentationProbability: 0.5,
		Interpolation:           InterpolationBilinear,
		ValidationRounding:      RoundingFloor,
		ImageExtensions:         []string{".jpg"},
		Loader:                  LoaderNative,
		Homography:              DefaultHomography(),
		Photometric:             DefaultPhotometric(),
	}
}

// Load reads path on top of Default and validates the result. The format is
// chosen by extension: .toml for TOML, anything else is parsed as YAML.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := Decode(data, filepath.Ext(path), &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses data into cfg, keeping fields the document does not set.
func Decode(data []byte, ext string, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

// Validate checks the run options and both augmentation sections.
func (c Config) Validate() error {
	var err error
	if c.Height <= 0 || c.Height%8 != 0 {
		err = multierr.Append(err, invalid("height", c.Height, "must be a positive multiple of 8"))
	}
	if c.Width <= 0 || c.Width%8 != 0 {
		err = multierr.Append(err, invalid("width", c.Width, "must be a positive multiple of 8"))
	}
	if c.Workers < 1 {
		err = multierr.Append(err, invalid("workers", c.Workers, "must be >= 1"))
	}
	if c.AugmentationProbability < 0 || c.AugmentationProbability > 1 {
		err = multierr.Append(err, invalid("augmentation_probability", c.AugmentationProbability, "must be in [0, 1]"))
	}
	if c.Interpolation != InterpolationBilinear && c.Interpolation != InterpolationNearest {
		err = multierr.Append(err, invalid("interpolation", c.Interpolation, "must be bilinear or nearest"))
	}
	if c.ValidationRounding != RoundingFloor && c.ValidationRounding != RoundingRound {
		err = multierr.Append(err, invalid("validation_rounding", c.ValidationRounding, "must be floor or round"))
	}
	if c.Limit < 0 {
		err = multierr.Append(err, invalid("limit", c.Limit, "must be >= 0"))
	}
	if len(c.ImageExtensions) == 0 {
		err = multierr.Append(err, invalid("image_extensions", c.ImageExtensions, "must list at least one extension"))
	}
	if c.Loader != LoaderNative && c.Loader != LoaderOpenCV {
		err = multierr.Append(err, invalid("loader", c.Loader, "must be native or opencv"))
	}
	err = multierr.Append(err, c.Homography.Validate())
	err = multierr.Append(err, c.Photometric.Validate())
	return err
}

func invalid(name string, value any, reason string) error {
	return fmt.Errorf("%w: %s=%v %s", ErrInvalidOption, name, value, reason)
}
