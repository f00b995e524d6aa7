package model

import "time"

// PlayerMode is the player's availability for combat.
type PlayerMode int32

const (
	// ModeNormal - player can fight and be fought
	ModeNormal PlayerMode = iota
	// ModeDowned - player is incapacitated; enemies disengage
	ModeDowned
	// ModeGhost - player is dead/spectating; untouchable
	ModeGhost
)

// String returns human-readable mode name
func (m PlayerMode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeDowned:
		return "DOWNED"
	case ModeGhost:
		return "GHOST"
	default:
		return "UNKNOWN"
	}
}

// Player is the player-controlled actor.
type Player struct {
	Actor

	Mode   PlayerMode
	Weapon *WeaponTemplate

	// ReviveImmuneUntil is the post-revival immunity window; enemies treat
	// the player as untouchable while it lasts.
	ReviveImmuneUntil time.Time
}

// IsUntouchable reports whether enemies must disengage from the player:
// ghost/downed mode or post-revival immunity.
func (p *Player) IsUntouchable(now time.Time) bool {
	if p.Mode != ModeNormal {
		return true
	}
	return now.Before(p.ReviveImmuneUntil)
}

// BasicRange returns the weapon's basic attack range (1 tile unarmed).
func (p *Player) BasicRange() int {
	if p.Weapon == nil || p.Weapon.Range <= 0 {
		return 1
	}
	return p.Weapon.Range
}
