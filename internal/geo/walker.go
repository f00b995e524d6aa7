package geo

import (
	"fmt"

	"github.com/udisondev/emberfall/internal/model"
)

// Walker is a straight-line movement executor for the player: PathTo sets
// a destination and Step (called once per tick by the outer loop) walks
// one tile at a time around solid cells. It satisfies the combat core's
// Mover interface; real pathfinding lives outside the core.
type Walker struct {
	grid *Grid
	pos  *model.Point
	dest *model.Point
}

// NewWalker creates a movement executor over the player's position.
func NewWalker(grid *Grid, pos *model.Point) *Walker {
	return &Walker{grid: grid, pos: pos}
}

// PathTo starts walking toward the tile. Rejects solid destinations.
func (w *Walker) PathTo(x, y int) error {
	if !w.grid.IsWalkable(x, y) {
		// Walk adjacent to a solid/occupied goal instead of onto it.
		if step, ok := w.nearestWalkableNeighbor(x, y); ok {
			w.dest = &step
			return nil
		}
		return fmt.Errorf("tile (%d,%d) is not walkable", x, y)
	}
	dest := model.Point{X: x, Y: y}
	w.dest = &dest
	return nil
}

// CancelPath stops the walk in place.
func (w *Walker) CancelPath() {
	w.dest = nil
}

// IsMoving reports whether a walk is in progress.
func (w *Walker) IsMoving() bool {
	return w.dest != nil && !w.pos.Equals(*w.dest)
}

// Step advances one tile toward the destination. Called once per tick by
// the driving loop.
func (w *Walker) Step() {
	if !w.IsMoving() {
		w.dest = nil
		return
	}
	dx, dy := w.pos.SignStep(*w.dest)
	candidates := []model.Point{
		{X: w.pos.X + dx, Y: w.pos.Y + dy},
		{X: w.pos.X + dx, Y: w.pos.Y},
		{X: w.pos.X, Y: w.pos.Y + dy},
	}
	// Slide: when the direct steps are solid, any neighbor strictly
	// closer to the destination keeps the walk alive.
	cur := w.pos.Chebyshev(*w.dest)
	for ny := -1; ny <= 1; ny++ {
		for nx := -1; nx <= 1; nx++ {
			c := model.Point{X: w.pos.X + nx, Y: w.pos.Y + ny}
			if c.Chebyshev(*w.dest) < cur {
				candidates = append(candidates, c)
			}
		}
	}
	for _, c := range candidates {
		if !c.Equals(*w.pos) && w.grid.IsWalkable(c.X, c.Y) {
			*w.pos = c
			if w.pos.Equals(*w.dest) {
				w.dest = nil
			}
			return
		}
	}
	// Boxed in: give up rather than loop forever.
	w.dest = nil
}

func (w *Walker) nearestWalkableNeighbor(x, y int) (model.Point, bool) {
	goal := model.Point{X: x, Y: y}
	var best model.Point
	bestDist := -1
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			c := model.Point{X: x + dx, Y: y + dy}
			if !w.grid.IsWalkable(c.X, c.Y) {
				continue
			}
			d := c.Chebyshev(*w.pos) + c.Chebyshev(goal)
			if bestDist < 0 || d < bestDist {
				best = c
				bestDist = d
			}
		}
	}
	return best, bestDist >= 0
}
