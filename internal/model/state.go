package model

// CombatState represents the AI state of an enemy.
// Legal transitions run Unaware → Alert → Engaged → Retreating → Unaware.
// The broken-off/pending-aggro side channel lives on Enemy fields and is
// independent of this value.
type CombatState int32

const (
	// StateUnaware - enemy has not noticed the player; idles near home
	StateUnaware CombatState = iota
	// StateAlert - enemy detected the player and is in the warning window
	StateAlert
	// StateEngaged - enemy actively fights the player
	StateEngaged
	// StateRetreating - enemy walks back toward its spawn anchor
	StateRetreating
)

// String returns human-readable state name
func (s CombatState) String() string {
	switch s {
	case StateUnaware:
		return "UNAWARE"
	case StateAlert:
		return "ALERT"
	case StateEngaged:
		return "ENGAGED"
	case StateRetreating:
		return "RETREATING"
	default:
		return "UNKNOWN"
	}
}
