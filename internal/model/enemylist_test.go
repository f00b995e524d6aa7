package model

import "testing"

func listEnemy(id uint32, pos Point, packID int32) *Enemy {
	return &Enemy{
		Actor:  Actor{ID: id, Name: "Wolf", Pos: pos, HP: 10, MaxHP: 10},
		PackID: packID,
		Home:   pos,
	}
}

func TestEnemyList_AddRemoveGet(t *testing.T) {
	l := NewEnemyList()

	e := listEnemy(1, Point{1, 1}, 0)
	l.Add(e)
	l.Add(e) // duplicate add is a no-op

	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}

	got, ok := l.Get(1)
	if !ok || got != e {
		t.Fatal("Get() did not return the added enemy")
	}

	if !l.Remove(1) {
		t.Error("Remove() = false for present enemy")
	}
	if l.Remove(1) {
		t.Error("Remove() = true for absent enemy")
	}
	if l.Len() != 0 {
		t.Errorf("Len() after remove = %d, want 0", l.Len())
	}
}

func TestEnemyList_ForEachInsertionOrder(t *testing.T) {
	l := NewEnemyList()
	l.Add(listEnemy(3, Point{}, 0))
	l.Add(listEnemy(1, Point{}, 0))
	l.Add(listEnemy(2, Point{}, 0))

	var ids []uint32
	l.ForEach(func(e *Enemy) bool {
		ids = append(ids, e.ID)
		return true
	})

	want := []uint32{3, 1, 2}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("iteration order = %v, want %v", ids, want)
		}
	}
}

func TestEnemyList_ForEachToleratesRemovalMidPass(t *testing.T) {
	l := NewEnemyList()
	l.Add(listEnemy(1, Point{}, 0))
	l.Add(listEnemy(2, Point{}, 0))
	l.Add(listEnemy(3, Point{}, 0))

	visited := 0
	l.ForEach(func(e *Enemy) bool {
		visited++
		if e.ID == 1 {
			l.Remove(2)
		}
		return true
	})

	if visited != 2 {
		t.Errorf("visited %d enemies, want 2 (removed mid-pass)", visited)
	}
}

func TestEnemyList_ForEachInPack(t *testing.T) {
	l := NewEnemyList()
	l.Add(listEnemy(1, Point{}, 5))
	l.Add(listEnemy(2, Point{}, 5))
	l.Add(listEnemy(3, Point{}, 0))
	l.Add(listEnemy(4, Point{}, 6))

	var ids []uint32
	l.ForEachInPack(5, 1, func(e *Enemy) {
		ids = append(ids, e.ID)
	})
	if len(ids) != 1 || ids[0] != 2 {
		t.Errorf("pack members = %v, want [2]", ids)
	}

	// Pack 0 means no pack: nothing ever matches.
	count := 0
	l.ForEachInPack(0, 1, func(e *Enemy) { count++ })
	if count != 0 {
		t.Errorf("pack 0 matched %d enemies, want 0", count)
	}
}

func TestEnemyList_Closest(t *testing.T) {
	l := NewEnemyList()
	l.Add(listEnemy(1, Point{5, 5}, 0))
	l.Add(listEnemy(2, Point{2, 2}, 0))
	l.Add(listEnemy(3, Point{9, 9}, 0))

	e, ok := l.Closest(Point{0, 0}, nil)
	if !ok || e.ID != 2 {
		t.Errorf("Closest() = %v, want enemy 2", e)
	}

	e, ok = l.Closest(Point{0, 0}, func(e *Enemy) bool { return e.ID != 2 })
	if !ok || e.ID != 1 {
		t.Errorf("Closest() with filter = %v, want enemy 1", e)
	}

	_, ok = l.Closest(Point{0, 0}, func(e *Enemy) bool { return false })
	if ok {
		t.Error("Closest() with rejecting filter found an enemy")
	}
}

func TestEnemyList_EnemyAt(t *testing.T) {
	l := NewEnemyList()
	alive := listEnemy(1, Point{4, 4}, 0)
	dead := listEnemy(2, Point{6, 6}, 0)
	dead.HP = 0
	l.Add(alive)
	l.Add(dead)

	if _, ok := l.EnemyAt(Point{4, 4}); !ok {
		t.Error("EnemyAt() missed a living enemy")
	}
	// Corpses do not occupy tiles.
	if _, ok := l.EnemyAt(Point{6, 6}); ok {
		t.Error("EnemyAt() found a dead enemy")
	}
	if _, ok := l.EnemyAt(Point{0, 0}); ok {
		t.Error("EnemyAt() found an enemy on an empty tile")
	}
}
