package model

import "time"

// WeaponTemplate describes the attack parameters of a weapon or natural
// attack. Enemies reference one template per type; the player's weapon
// additionally carries abilities.
type WeaponTemplate struct {
	Name       string
	BaseDamage int
	// Range is the maximum attack range in tiles (Chebyshev).
	Range int
	// MinRange is the stand-off distance for ranged attackers; attackers
	// closer than this back away one step. Zero for melee.
	MinRange int
	// Cooldown between attacks.
	Cooldown time.Duration
	// RequiresLOS gates the attack on line of sight.
	RequiresLOS bool
	// BurstCount > 1 fires extra shots at BurstInterval after the first.
	BurstCount    int
	BurstInterval time.Duration

	Abilities []Ability
}

// Ability is a weapon ability the player can trigger in a numbered slot.
type Ability struct {
	Name       string
	BaseDamage int
	SkillMult  float64
	Range      int
	// RequiresLOS gates execution on line of sight to the target.
	RequiresLOS bool
	// BurstCount > 1 schedules extra hits at BurstInterval, each
	// independently cancellable by target.
	BurstCount    int
	BurstInterval time.Duration
}

// AbilityAt returns the ability in the given slot (0-based).
// ok is false for out-of-range slots.
func (w *WeaponTemplate) AbilityAt(slot int) (Ability, bool) {
	if w == nil || slot < 0 || slot >= len(w.Abilities) {
		return Ability{}, false
	}
	return w.Abilities[slot], true
}
