package model

// EnemyList is the single shared collection of live enemies. Enemies are
// pushed in by the spawn collaborator and removed exactly once, on death.
// The combat core only touches it synchronously within a tick, so it is a
// plain map with a stable iteration order slice.
type EnemyList struct {
	byID  map[uint32]*Enemy
	order []uint32
}

// NewEnemyList creates an empty live-enemy collection.
func NewEnemyList() *EnemyList {
	return &EnemyList{byID: make(map[uint32]*Enemy)}
}

// Add inserts an enemy. Re-adding an existing ID is a no-op.
func (l *EnemyList) Add(e *Enemy) {
	if _, ok := l.byID[e.ID]; ok {
		return
	}
	l.byID[e.ID] = e
	l.order = append(l.order, e.ID)
}

// Remove deletes an enemy by ID. Returns true if it was present.
func (l *EnemyList) Remove(id uint32) bool {
	if _, ok := l.byID[id]; !ok {
		return false
	}
	delete(l.byID, id)
	for i, oid := range l.order {
		if oid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the enemy with the given ID.
func (l *EnemyList) Get(id uint32) (*Enemy, bool) {
	e, ok := l.byID[id]
	return e, ok
}

// Len returns the number of live enemies.
func (l *EnemyList) Len() int {
	return len(l.byID)
}

// ForEach calls fn for every live enemy in insertion order. fn returning
// false stops the iteration. The snapshot tolerates removals during
// iteration (dead enemies handled mid-pass).
func (l *EnemyList) ForEach(fn func(*Enemy) bool) {
	ids := make([]uint32, len(l.order))
	copy(ids, l.order)
	for _, id := range ids {
		e, ok := l.byID[id]
		if !ok {
			continue
		}
		if !fn(e) {
			return
		}
	}
}

// ForEachInPack calls fn for every live enemy sharing the pack ID,
// excluding exceptID. PackID 0 never matches.
func (l *EnemyList) ForEachInPack(packID int32, exceptID uint32, fn func(*Enemy)) {
	if packID == 0 {
		return
	}
	l.ForEach(func(e *Enemy) bool {
		if e.PackID == packID && e.ID != exceptID {
			fn(e)
		}
		return true
	})
}

// Closest returns the live enemy nearest to p among those matching the
// filter. ok is false when none match.
func (l *EnemyList) Closest(p Point, filter func(*Enemy) bool) (*Enemy, bool) {
	var best *Enemy
	bestDist := 0
	l.ForEach(func(e *Enemy) bool {
		if filter != nil && !filter(e) {
			return true
		}
		d := e.Pos.Chebyshev(p)
		if best == nil || d < bestDist {
			best = e
			bestDist = d
		}
		return true
	})
	return best, best != nil
}

// EnemyAt returns the living enemy standing on the given tile, if any.
func (l *EnemyList) EnemyAt(p Point) (*Enemy, bool) {
	var found *Enemy
	l.ForEach(func(e *Enemy) bool {
		if !e.IsDead() && e.Pos.Equals(p) {
			found = e
			return false
		}
		return true
	})
	return found, found != nil
}
