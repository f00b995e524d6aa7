package model

import "time"

// Enemy is a hostile actor driven by the AI state machine once per tick.
type Enemy struct {
	Actor

	Type     string
	Behavior Behavior
	Weapon   *WeaponTemplate
	IsAlpha  bool
	IsBoss   bool
	// Passive enemies ignore detection until provoked.
	Passive bool
	// ConditionalFlag names a story flag; while the flag is unset the enemy
	// behaves as passive (unless provoked). Empty means unconditional.
	ConditionalFlag string

	// PackID groups enemies spawned together. Zero means no pack.
	// Packs only fan out provoke/retreat/footprint checks; they never share
	// health or identity.
	PackID int32

	// Home is the spawn anchor; the enemy's footprint is the 3x3 zone
	// around it.
	Home Point
	// LeashRadius is the maximum Chebyshev distance from Home before a
	// forced retreat. AggroRange is the detection radius.
	LeashRadius int
	AggroRange  int

	State CombatState

	// Detection bookkeeping.
	AlertSince time.Time
	LastSeenAt time.Time

	// AttackReadyAt is the next instant this enemy may strike.
	AttackReadyAt time.Time

	// Retreat bookkeeping. RetreatTo is fixed once at retreat start and
	// never recomputed for the duration of the episode.
	RetreatTo         *Point
	RetreatStartedAt  time.Time
	RetreatStuckSince time.Time

	// Broken-off side channel: forcibly disengaged (e.g. by guards) until
	// the deadline; PendingAggro re-provokes without the alert delay once
	// the window expires.
	BrokenOffUntil time.Time
	PendingAggro   bool

	// Idle regeneration bookkeeping.
	NextRegenAt time.Time
	// NextRepositionAt throttles "occasionally reposition" moves.
	NextRepositionAt time.Time

	// DeathHandled is the one-shot guard making death handling idempotent
	// when near-simultaneous damage events (burst ticks) each observe
	// lethal HP.
	DeathHandled bool
}

// IsBrokenOff reports whether the enemy is inside its forced-disengage
// window.
func (e *Enemy) IsBrokenOff(now time.Time) bool {
	return now.Before(e.BrokenOffUntil)
}

// IsRetreating reports whether the enemy is in the retreating state.
func (e *Enemy) IsRetreating() bool {
	return e.State == StateRetreating
}

// AttackRange returns the weapon range, defaulting to 1 tile when the
// enemy has no weapon template.
func (e *Enemy) AttackRange() int {
	if e.Weapon == nil || e.Weapon.Range <= 0 {
		return 1
	}
	return e.Weapon.Range
}

// AtHome reports whether the enemy stands inside the 1-tile footprint
// around its spawn anchor.
func (e *Enemy) AtHome() bool {
	return e.Pos.WithinFootprint(e.Home)
}
