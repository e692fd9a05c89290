package geometry

// IsStrictlyConvex returns true if the polygon vertices form a convex polygon
// with no collinear consecutive vertices. The polygon is assumed to be given
// in a consistent winding order.
func IsStrictlyConvex(polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	n := len(polygon)
	var sign int

	for i := 0; i < n; i++ {
		cross := crossProduct(
			polygon[i],
			polygon[(i+1)%n],
			polygon[(i+2)%n],
		)
		if cross == 0 {
			return false
		}

		currentSign := 1
		if cross < 0 {
			currentSign = -1
		}

		if sign == 0 {
			sign = currentSign
		} else if currentSign != sign {
			return false
		}
	}

	return true
}

// IsConvex reports whether the quad is strictly convex.
func (q Quad) IsConvex() bool {
	return IsStrictlyConvex(q[:])
}

// crossProduct returns the z-component of (b-a) x (c-b).
func crossProduct(a, b, c Point2D) float64 {
	return (b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X)
}
