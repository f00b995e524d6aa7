package model

import "time"

// Actor holds the stats and status timers shared by the player and enemies.
// The combat core mutates actors synchronously within a tick, so fields are
// plain values rather than atomics.
type Actor struct {
	ID    uint32
	Name  string
	Pos   Point
	HP    int
	MaxHP int
	Level int
	Atk   int
	Def   int
	Luck  int

	// Timestamped status windows. Zero value means "never applied".
	StunUntil        time.Time
	RootUntil        time.Time
	SlowUntil        time.Time
	VulnerableUntil  time.Time
	SpawnImmuneUntil time.Time
	SpawnSettleUntil time.Time

	// Burn damage-over-time bookkeeping.
	BurnUntil    time.Time
	BurnDamage   int
	BurnNextTick time.Time
}

// IsDead reports whether the actor's HP has reached zero.
func (a *Actor) IsDead() bool {
	return a.HP <= 0
}

// ReduceHP subtracts damage, clamping HP at zero.
// HP is never negative in combat logic; crossing zero is what triggers
// death handling, exactly once.
func (a *Actor) ReduceHP(damage int) {
	if damage <= 0 {
		return
	}
	a.HP -= damage
	if a.HP < 0 {
		a.HP = 0
	}
}

// Heal restores HP, clamping at MaxHP. Dead actors are not healed.
func (a *Actor) Heal(amount int) {
	if amount <= 0 || a.IsDead() {
		return
	}
	a.HP += amount
	if a.HP > a.MaxHP {
		a.HP = a.MaxHP
	}
}

// RestoreFull resets HP to maximum.
func (a *Actor) RestoreFull() {
	a.HP = a.MaxHP
}

// IsStunned reports whether the actor is stunned at the given instant.
// Stun suppresses both movement and attacks.
func (a *Actor) IsStunned(now time.Time) bool {
	return now.Before(a.StunUntil)
}

// IsRooted reports whether the actor is rooted (movement suppressed).
func (a *Actor) IsRooted(now time.Time) bool {
	return now.Before(a.RootUntil)
}

// IsSlowed reports whether the actor is slowed.
func (a *Actor) IsSlowed(now time.Time) bool {
	return now.Before(a.SlowUntil)
}

// IsVulnerable reports whether the actor carries the vulnerable status.
// The basic damage path multiplies damage by the vulnerability factor.
func (a *Actor) IsVulnerable(now time.Time) bool {
	return now.Before(a.VulnerableUntil)
}

// IsSpawnImmune reports whether the actor is inside its post-spawn or
// post-retreat immunity window. Immunity blocks being attacked, never
// detection.
func (a *Actor) IsSpawnImmune(now time.Time) bool {
	return now.Before(a.SpawnImmuneUntil)
}

// IsSpawnSettling reports whether the actor is inside its spawn-settle
// window. Settling permits positioning but blocks the actual strike.
func (a *Actor) IsSpawnSettling(now time.Time) bool {
	return now.Before(a.SpawnSettleUntil)
}

// IsBurning reports whether the burn status is active.
func (a *Actor) IsBurning(now time.Time) bool {
	return now.Before(a.BurnUntil) && a.BurnDamage > 0
}

// ApplyBurn starts or refreshes a burn: damagePerTick every interval
// until the given deadline.
func (a *Actor) ApplyBurn(damagePerTick int, until time.Time, firstTick time.Time) {
	a.BurnDamage = damagePerTick
	a.BurnUntil = until
	a.BurnNextTick = firstTick
}
