package model

// Point is an integer tile coordinate on the map grid.
type Point struct {
	X int
	Y int
}

// Chebyshev returns the Chebyshev (king-move) distance between two tiles.
// All range and radius checks in the combat core use this metric.
func (p Point) Chebyshev(q Point) int {
	dx := absInt(p.X - q.X)
	dy := absInt(p.Y - q.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Equals reports whether two points are the same tile.
func (p Point) Equals(q Point) bool {
	return p.X == q.X && p.Y == q.Y
}

// WithinFootprint reports whether tile p lies inside the 3x3 footprint
// centered on anchor (Chebyshev distance <= 1).
func (p Point) WithinFootprint(anchor Point) bool {
	return p.Chebyshev(anchor) <= 1
}

// SignStep returns the one-tile step from p toward q on each axis
// (-1, 0 or 1 per axis).
func (p Point) SignStep(q Point) (dx, dy int) {
	return signInt(q.X - p.X), signInt(q.Y - p.Y)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func signInt(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
