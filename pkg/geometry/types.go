// Package geometry provides basic geometric types used throughout the pipeline.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates in (x, y) order.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// Keypoint is a sub-pixel keypoint location in (row, col) order, the layout
// used by the pseudo-label files.
type Keypoint struct {
	Row float64 `json:"row" yaml:"row"`
	Col float64 `json:"col" yaml:"col"`
}

// Point converts the keypoint to image (x, y) coordinates.
func (k Keypoint) Point() Point2D {
	return Point2D{X: k.Col, Y: k.Row}
}

// KeypointFromPoint converts an (x, y) point back to (row, col) order.
func KeypointFromPoint(p Point2D) Keypoint {
	return Keypoint{Row: p.Y, Col: p.X}
}

// InFrame reports whether the keypoint lies in [0,height)x[0,width).
func (k Keypoint) InFrame(height, width int) bool {
	return k.Row >= 0 && k.Row < float64(height) && k.Col >= 0 && k.Col < float64(width)
}

// Centroid computes the centroid (average position) of a set of points.
func Centroid(points []Point2D) Point2D {
	if len(points) == 0 {
		return Point2D{}
	}
	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(points))
	return Point2D{X: sumX / n, Y: sumY / n}
}

// Quad is a quadrilateral given by its four corners. The unit square corners
// are ordered (0,0), (0,1), (1,1), (1,0).
type Quad [4]Point2D

// UnitSquare returns the corners of the unit square.
func UnitSquare() Quad {
	return Quad{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}}
}

// Centroid returns the mean of the four corners.
func (q Quad) Centroid() Point2D {
	return Centroid(q[:])
}

// Scale multiplies every corner by (sx, sy) about the origin.
func (q Quad) Scale(sx, sy float64) Quad {
	for i := range q {
		q[i].X *= sx
		q[i].Y *= sy
	}
	return q
}

// Translate shifts every corner by (dx, dy).
func (q Quad) Translate(dx, dy float64) Quad {
	for i := range q {
		q[i].X += dx
		q[i].Y += dy
	}
	return q
}

// ScaleAbout scales the quad uniformly about center.
func (q Quad) ScaleAbout(center Point2D, factor float64) Quad {
	for i := range q {
		q[i] = q[i].Sub(center).Scale(factor).Add(center)
	}
	return q
}

// RotateAbout rotates the quad about center. A positive angle turns the
// corners clockwise in image coordinates (y down).
func (q Quad) RotateAbout(center Point2D, radians float64) Quad {
	cos := math.Cos(radians)
	sin := math.Sin(radians)
	for i := range q {
		d := q[i].Sub(center)
		q[i] = Point2D{
			X: d.X*cos + d.Y*sin + center.X,
			Y: -d.X*sin + d.Y*cos + center.Y,
		}
	}
	return q
}

// InsideUnitSquare reports whether every corner lies in [0,1)x[0,1).
func (q Quad) InsideUnitSquare() bool {
	for _, p := range q {
		if p.X < 0 || p.X >= 1 || p.Y < 0 || p.Y >= 1 {
			return false
		}
	}
	return true
}

// MinCornerDistance returns the smallest distance between any two corners.
func (q Quad) MinCornerDistance() float64 {
	best := math.Inf(1)
	for i := 0; i < len(q); i++ {
		for j := i + 1; j < len(q); j++ {
			best = math.Min(best, q[i].Distance(q[j]))
		}
	}
	return best
}

// Bounds returns the per-axis minimum and maximum corner coordinates.
func (q Quad) Bounds() (lo, hi Point2D) {
	lo, hi = q[0], q[0]
	for _, p := range q[1:] {
		lo.X = math.Min(lo.X, p.X)
		lo.Y = math.Min(lo.Y, p.Y)
		hi.X = math.Max(hi.X, p.X)
		hi.Y = math.Max(hi.Y, p.Y)
	}
	return lo, hi
}
