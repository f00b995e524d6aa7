package geo

// HasLineOfSight traces the tile line between two cells and reports
// whether any solid tile blocks the view. Endpoints themselves never
// block: an actor standing in a doorway can still be seen.
func (g *Grid) HasLineOfSight(x1, y1, x2, y2 int) bool {
	it := NewLineIterator(x1, y1, x2, y2)
	it.Next() // skip the start cell

	for it.Next() {
		if it.X() == x2 && it.Y() == y2 {
			return true
		}
		if !g.IsWalkable(it.X(), it.Y()) {
			return false
		}
	}
	return true
}

// LineIterator implements the Bresenham line algorithm over grid cells.
// Steps through every cell from start to end inclusive.
type LineIterator struct {
	currentX, currentY int
	targetX, targetY   int
	deltaX, deltaY     int
	stepX, stepY       int
	errorAcc           int
	started            bool
}

// NewLineIterator creates a Bresenham line iterator.
func NewLineIterator(sx, sy, ex, ey int) *LineIterator {
	it := &LineIterator{
		currentX: sx, currentY: sy,
		targetX: ex, targetY: ey,
	}

	it.deltaX = absCell(ex - sx)
	it.deltaY = absCell(ey - sy)

	if sx < ex {
		it.stepX = 1
	} else {
		it.stepX = -1
	}
	if sy < ey {
		it.stepY = 1
	} else {
		it.stepY = -1
	}

	it.errorAcc = it.deltaX - it.deltaY
	return it
}

// Next advances the iterator to the next cell.
// Returns false once the target has been emitted.
func (it *LineIterator) Next() bool {
	if !it.started {
		it.started = true
		return true // emit start point
	}

	if it.currentX == it.targetX && it.currentY == it.targetY {
		return false
	}

	e2 := it.errorAcc * 2
	if e2 > -it.deltaY {
		it.errorAcc -= it.deltaY
		it.currentX += it.stepX
	}
	if e2 < it.deltaX {
		it.errorAcc += it.deltaX
		it.currentY += it.stepY
	}
	return true
}

// X returns the current cell X.
func (it *LineIterator) X() int { return it.currentX }

// Y returns the current cell Y.
func (it *LineIterator) Y() int { return it.currentY }

func absCell(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
