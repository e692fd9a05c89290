package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when a homography has no inverse.
var ErrSingular = errors.New("singular homography")

// Homography is a 3x3 projective transform stored row-major and normalised
// so that the bottom-right entry is 1. It is a value type.
//
//	[h0 h1 h2]
//	[h3 h4 h5]
//	[h6 h7 1 ]
type Homography [9]float64

// IdentityHomography returns the identity transform.
func IdentityHomography() Homography {
	return Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// NewHomography normalises m by its bottom-right entry.
func NewHomography(m [9]float64) (Homography, error) {
	if math.Abs(m[8]) < 1e-12 {
		return Homography{}, fmt.Errorf("%w: bottom-right entry is zero", ErrSingular)
	}
	var h Homography
	for i, v := range m {
		h[i] = v / m[8]
	}
	return h, nil
}

// HomographyFromQuads solves the direct linear system for the transform that
// maps each src corner onto the matching dst corner (8 unknowns, h8 = 1).
func HomographyFromQuads(src, dst Quad) (Homography, error) {
	A := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		X, Y := src[i].X, src[i].Y
		x, y := dst[i].X, dst[i].Y
		r := 2 * i

		// x = (h0 X + h1 Y + h2) / (h6 X + h7 Y + 1)
		A.SetRow(r, []float64{X, Y, 1, 0, 0, 0, -X * x, -Y * x})
		b.SetVec(r, x)

		// y = (h3 X + h4 Y + h5) / (h6 X + h7 Y + 1)
		A.SetRow(r+1, []float64{0, 0, 0, X, Y, 1, -X * y, -Y * y})
		b.SetVec(r+1, y)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, b); err != nil {
		return Homography{}, fmt.Errorf("solve correspondence: %w", err)
	}

	var h Homography
	for i := 0; i < 8; i++ {
		h[i] = params.AtVec(i)
	}
	h[8] = 1
	return h, nil
}

// At returns the entry at row r, column c.
func (h Homography) At(r, c int) float64 {
	return h[r*3+c]
}

// Dense returns the transform as a gonum matrix.
func (h Homography) Dense() *mat.Dense {
	data := make([]float64, 9)
	copy(data, h[:])
	return mat.NewDense(3, 3, data)
}

// Det returns the determinant.
func (h Homography) Det() float64 {
	return mat.Det(h.Dense())
}

// Apply projects p through the transform. The boolean is false when the
// point maps to infinity.
func (h Homography) Apply(p Point2D) (Point2D, bool) {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if math.Abs(w) < 1e-12 {
		return Point2D{}, false
	}
	return Point2D{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}, true
}

// Inverse returns the normalised inverse transform.
func (h Homography) Inverse() (Homography, error) {
	if math.Abs(h.Det()) < 1e-12 {
		return Homography{}, ErrSingular
	}
	var inv mat.Dense
	if err := inv.Inverse(h.Dense()); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	var m [9]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m[r*3+c] = inv.At(r, c)
		}
	}
	return NewHomography(m)
}
