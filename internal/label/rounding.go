package label

import (
	"fmt"
	"math"

	"pointadapt/internal/config"
	"pointadapt/pkg/geometry"
)

// Pixel is an integer (row, col) position.
type Pixel struct {
	Row int
	Col int
}

// RoundingPolicy converts sub-pixel keypoints to integer pixels.
type RoundingPolicy int

const (
	// FloorAbs floors and drops the sign; used for training labels.
	FloorAbs RoundingPolicy = iota
	// Floor floors each coordinate.
	Floor
	// Round rounds half to even.
	Round
)

// ParseRoundingPolicy maps a validation_rounding value to a policy.
func ParseRoundingPolicy(name string) (RoundingPolicy, error) {
	switch name {
	case config.RoundingFloor:
		return Floor, nil
	case config.RoundingRound:
		return Round, nil
	case "floor_abs":
		return FloorAbs, nil
	default:
		return 0, fmt.Errorf("%w: unknown rounding policy %q", config.ErrInvalidOption, name)
	}
}

func (p RoundingPolicy) String() string {
	switch p {
	case FloorAbs:
		return "floor_abs"
	case Floor:
		return config.RoundingFloor
	case Round:
		return config.RoundingRound
	default:
		return fmt.Sprintf("RoundingPolicy(%d)", int(p))
	}
}

// Apply converts a single coordinate.
func (p RoundingPolicy) Apply(v float64) int {
	switch p {
	case Floor:
		return int(math.Floor(v))
	case Round:
		return int(math.RoundToEven(v))
	default:
		return int(math.Abs(math.Floor(v)))
	}
}

// Pixels converts every point, preserving order.
func (p RoundingPolicy) Pixels(points []geometry.Keypoint) []Pixel {
	out := make([]Pixel, len(points))
	for i, kp := range points {
		out[i] = Pixel{Row: p.Apply(kp.Row), Col: p.Apply(kp.Col)}
	}
	return out
}
