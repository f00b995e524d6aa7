package model

// Behavior is the combat behavior variant of an enemy type.
// Every switch over Behavior must handle all variants; there is no string
// dispatch anywhere in the core.
type Behavior int32

const (
	// BehaviorMelee - closes to weapon range, rotates attacker slots
	BehaviorMelee Behavior = iota
	// BehaviorRanged - keeps a stand-off distance, capped concurrent volleys
	BehaviorRanged
	// BehaviorAggressive - bosses/alphas: always advances, ignores slots
	BehaviorAggressive
	// BehaviorGuard - stationary, never initiates movement or pursuit
	BehaviorGuard
)

// String returns human-readable behavior name
func (b Behavior) String() string {
	switch b {
	case BehaviorMelee:
		return "MELEE"
	case BehaviorRanged:
		return "RANGED"
	case BehaviorAggressive:
		return "AGGRESSIVE"
	case BehaviorGuard:
		return "GUARD"
	default:
		return "UNKNOWN"
	}
}
