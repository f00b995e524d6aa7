package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineIterator_WalksStraightLine(t *testing.T) {
	it := NewLineIterator(0, 0, 3, 0)

	var cells [][2]int
	for it.Next() {
		cells = append(cells, [2]int{it.X(), it.Y()})
	}

	assert.Equal(t, [][2]int{{0, 0}, {1, 0}, {2, 0}, {3, 0}}, cells)
}

func TestLineIterator_WalksDiagonal(t *testing.T) {
	it := NewLineIterator(0, 0, 3, 3)

	var cells [][2]int
	for it.Next() {
		cells = append(cells, [2]int{it.X(), it.Y()})
	}

	assert.Equal(t, [][2]int{{0, 0}, {1, 1}, {2, 2}, {3, 3}}, cells)
}

func TestLineIterator_SinglePoint(t *testing.T) {
	it := NewLineIterator(2, 2, 2, 2)

	assert.True(t, it.Next())
	assert.Equal(t, 2, it.X())
	assert.False(t, it.Next())
}

func TestHasLineOfSight_OpenField(t *testing.T) {
	g := NewGrid(20, 20, nil)
	assert.True(t, g.HasLineOfSight(1, 1, 15, 9))
}

func TestHasLineOfSight_WallBlocks(t *testing.T) {
	g := NewGrid(20, 20, nil)
	for y := 0; y < 20; y++ {
		g.SetWall(10, y)
	}

	assert.False(t, g.HasLineOfSight(5, 5, 15, 5))
	assert.True(t, g.HasLineOfSight(5, 5, 9, 5))
}

func TestHasLineOfSight_EndpointsNeverBlock(t *testing.T) {
	g := NewGrid(20, 20, nil)
	g.SetWall(5, 5)
	g.SetWall(8, 5)

	// Looking from one solid cell to another with nothing in between.
	assert.True(t, g.HasLineOfSight(5, 5, 8, 5))
}

func TestHasLineOfSight_ConditionalWall(t *testing.T) {
	flags := map[string]bool{}
	g := NewGrid(20, 20, func(name string) bool { return flags[name] })
	g.SetConditionalWall(10, 5, "gate_opened")

	assert.False(t, g.HasLineOfSight(5, 5, 15, 5))

	flags["gate_opened"] = true
	assert.True(t, g.HasLineOfSight(5, 5, 15, 5))
}
