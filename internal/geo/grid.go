package geo

import (
	"github.com/udisondev/emberfall/internal/combat"
	"github.com/udisondev/emberfall/internal/model"
)

// FlagFunc reports whether a named story flag is set. Conditional tiles
// and entities consult it on every query.
type FlagFunc func(name string) bool

// Tile holds the static properties of one grid cell.
type Tile struct {
	Walkable bool
	// SolidUnlessFlag makes a walkable tile solid until the named flag is
	// set (e.g. a magically sealed door).
	SolidUnlessFlag string
}

// placedEntity is an entity pinned to a tile, optionally gated by a flag.
type placedEntity struct {
	ref combat.EntityRef
	// existsOnlyIfFlag hides the entity until the named flag is set.
	existsOnlyIfFlag string
}

// Grid is the tile map backing the spatial query service. Read-mostly:
// built once from already-loaded map data, then only queried by the
// combat core.
type Grid struct {
	width    int
	height   int
	tiles    []Tile
	entities map[model.Point]placedEntity
	guards   []combat.GuardPost
	flags    FlagFunc
}

// NewGrid creates an all-walkable grid of the given size.
func NewGrid(width, height int, flags FlagFunc) *Grid {
	if flags == nil {
		flags = func(string) bool { return false }
	}
	tiles := make([]Tile, width*height)
	for i := range tiles {
		tiles[i].Walkable = true
	}
	return &Grid{
		width:    width,
		height:   height,
		tiles:    tiles,
		entities: make(map[model.Point]placedEntity),
		flags:    flags,
	}
}

// Width returns the grid width in tiles.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height in tiles.
func (g *Grid) Height() int { return g.height }

// SetWall marks a tile unconditionally solid.
func (g *Grid) SetWall(x, y int) {
	if i, ok := g.index(x, y); ok {
		g.tiles[i].Walkable = false
	}
}

// SetConditionalWall makes a tile solid only while the flag is unset.
func (g *Grid) SetConditionalWall(x, y int, flag string) {
	if i, ok := g.index(x, y); ok {
		g.tiles[i].Walkable = true
		g.tiles[i].SolidUnlessFlag = flag
	}
}

// PlaceEntity pins an entity to a tile.
func (g *Grid) PlaceEntity(x, y int, ref combat.EntityRef) {
	g.entities[model.Point{X: x, Y: y}] = placedEntity{ref: ref}
}

// PlaceConditionalEntity pins an entity that exists only once the flag is
// set.
func (g *Grid) PlaceConditionalEntity(x, y int, ref combat.EntityRef, flag string) {
	g.entities[model.Point{X: x, Y: y}] = placedEntity{ref: ref, existsOnlyIfFlag: flag}
}

// RemoveEntity clears the entity on a tile.
func (g *Grid) RemoveEntity(x, y int) {
	delete(g.entities, model.Point{X: x, Y: y})
}

// AddGuard registers a protective guard post.
func (g *Grid) AddGuard(x, y, level int) {
	g.guards = append(g.guards, combat.GuardPost{
		Pos:   model.Point{X: x, Y: y},
		Level: level,
	})
}

// IsWalkable reports whether the tile can be stood on, honoring
// flag-gated solidity. Out-of-bounds tiles are solid.
func (g *Grid) IsWalkable(x, y int) bool {
	i, ok := g.index(x, y)
	if !ok {
		return false
	}
	t := g.tiles[i]
	if !t.Walkable {
		return false
	}
	if t.SolidUnlessFlag != "" && !g.flags(t.SolidUnlessFlag) {
		return false
	}
	return true
}

// EntityAt returns the entity occupying the tile, honoring flag-gated
// existence.
func (g *Grid) EntityAt(x, y int) (combat.EntityRef, bool) {
	p, ok := g.entities[model.Point{X: x, Y: y}]
	if !ok {
		return combat.EntityRef{}, false
	}
	if p.existsOnlyIfFlag != "" && !g.flags(p.existsOnlyIfFlag) {
		return combat.EntityRef{}, false
	}
	return p.ref, true
}

// NearestGuard returns the guard post closest to (x, y).
func (g *Grid) NearestGuard(x, y int) (combat.GuardPost, bool) {
	from := model.Point{X: x, Y: y}
	var best combat.GuardPost
	bestDist := -1
	for _, guard := range g.guards {
		d := guard.Pos.Chebyshev(from)
		if bestDist < 0 || d < bestDist {
			best = guard
			bestDist = d
		}
	}
	return best, bestDist >= 0
}

func (g *Grid) index(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return 0, false
	}
	return y*g.width + x, true
}
