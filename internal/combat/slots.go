package combat

import (
	"time"

	"github.com/udisondev/emberfall/internal/model"
)

// SlotTable is the attacker-slot leaseholder: a capacity-bounded
// reservation table mapping enemy ID to a lease expiry. Holding a lease is
// necessary but not sufficient to attack; range, LOS and cooldown still
// apply. Leases not renewed by expiry are silently reclaimed on the next
// cleanup pass. The table is only touched synchronously within a tick, so
// a plain map suffices.
type SlotTable struct {
	capacity int
	lease    time.Duration
	expiry   map[uint32]time.Time
}

// NewSlotTable creates a slot table with the given capacity and lease
// duration.
func NewSlotTable(capacity int, lease time.Duration) *SlotTable {
	if capacity < 1 {
		capacity = 1
	}
	return &SlotTable{
		capacity: capacity,
		lease:    lease,
		expiry:   make(map[uint32]time.Time),
	}
}

// Acquire grants or renews a lease for the enemy. An existing holder is
// always renewed (extend expiry by the lease duration). Otherwise a new
// lease is granted only while non-expired holders are below capacity.
// Returning false is backpressure, not an error: the caller repositions
// and retries on a later tick.
func (t *SlotTable) Acquire(enemyID uint32, now time.Time) bool {
	// An expired lease still in the map does not count as held; the holder
	// re-contends like everyone else.
	if exp, held := t.expiry[enemyID]; held && now.Before(exp) {
		t.expiry[enemyID] = now.Add(t.lease)
		return true
	}
	if t.ActiveCount(now) >= t.capacity {
		return false
	}
	t.expiry[enemyID] = now.Add(t.lease)
	return true
}

// Release removes the enemy's lease, if any.
func (t *SlotTable) Release(enemyID uint32) {
	delete(t.expiry, enemyID)
}

// Holds reports whether the enemy holds a non-expired lease.
func (t *SlotTable) Holds(enemyID uint32, now time.Time) bool {
	exp, ok := t.expiry[enemyID]
	return ok && now.Before(exp)
}

// ActiveCount returns the number of non-expired leases.
func (t *SlotTable) ActiveCount(now time.Time) int {
	n := 0
	for _, exp := range t.expiry {
		if now.Before(exp) {
			n++
		}
	}
	return n
}

// Capacity returns the maximum number of concurrent holders.
func (t *SlotTable) Capacity() int {
	return t.capacity
}

// Cleanup evicts stale leases: expired ones, and any whose holder the keep
// predicate rejects (dead, missing, retreating, broken-off, or too far
// from the player). Invoked opportunistically each tick rather than on its
// own timer.
func (t *SlotTable) Cleanup(now time.Time, keep func(enemyID uint32) bool) {
	for id, exp := range t.expiry {
		if !now.Before(exp) {
			delete(t.expiry, id)
			continue
		}
		if keep != nil && !keep(id) {
			delete(t.expiry, id)
		}
	}
}

// slotKeepFunc builds the cleanup predicate for the session's live-enemy
// collection and player position.
func slotKeepFunc(enemies *model.EnemyList, playerPos model.Point, giveUpDistance int, now time.Time) func(uint32) bool {
	return func(enemyID uint32) bool {
		e, ok := enemies.Get(enemyID)
		if !ok || e.IsDead() {
			return false
		}
		if e.IsRetreating() || e.IsBrokenOff(now) {
			return false
		}
		if giveUpDistance > 0 && e.Pos.Chebyshev(playerPos) > giveUpDistance {
			return false
		}
		return true
	}
}
