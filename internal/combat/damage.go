package combat

import (
	"math"

	"github.com/udisondev/emberfall/internal/config"
)

// SkillDamageInput are the inputs to the full damage curve.
type SkillDamageInput struct {
	AttackerLevel int
	AttackerAtk   int
	AttackerLuck  int
	DefenderLevel int
	DefenderDef   int
	BaseDamage    int
	SkillMult     float64
	// ForceNoCrit suppresses the crit roll entirely.
	ForceNoCrit bool
}

// BasicDamageInput are the inputs to the simplified basic-attack path.
type BasicDamageInput struct {
	AttackerLevel    int
	AttackerAtk      int
	AttackerLuck     int
	BaseDamage       int
	TargetVulnerable bool
	ForceNoCrit      bool
}

// DamageBreakdown is the per-hit debug snapshot: every multiplier that went
// into the final number.
type DamageBreakdown struct {
	Base      int
	Atk       int
	SkillMult float64
	LevelMult float64
	DefMult   float64
	VulnMult  float64
	Variance  float64
	CritMult  float64
	Raw       float64
}

// DamageResult is the outcome of one damage computation.
type DamageResult struct {
	Damage    int
	Crit      bool
	Breakdown DamageBreakdown
}

// CalcSkillDamage computes damage on the full curve:
//
//	floor(max(1, (base+atk) * skillMult * levelMult * defMult * variance * critMult))
//
// defMult = K/(K+def); levelMult is capped above and floored below; variance
// is uniform in [low, high]; crit multiplies by CritMult with probability
// CritBase + luck*CritPerLuck unless suppressed.
// Pure aside from the rolls, which come from the supplied Roller.
func CalcSkillDamage(bal config.Balance, roll Roller, in SkillDamageInput) DamageResult {
	levelMult := levelMultiplier(bal, in.AttackerLevel, in.DefenderLevel)

	def := float64(in.DefenderDef)
	if def < 0 {
		def = 0
	}
	defMult := bal.DefenseK / (bal.DefenseK + def)

	variance := roll.Variance(bal.VarianceLow, bal.VarianceHigh)

	crit := false
	critMult := 1.0
	if !in.ForceNoCrit {
		critChance := bal.CritBase + float64(in.AttackerLuck)*bal.CritPerLuck
		if roll.Chance(critChance) {
			crit = true
			critMult = bal.CritMult
		}
	}

	raw := float64(in.BaseDamage+in.AttackerAtk) * in.SkillMult * levelMult * defMult * variance * critMult
	final := floorClamp(raw)

	return DamageResult{
		Damage: final,
		Crit:   crit,
		Breakdown: DamageBreakdown{
			Base:      in.BaseDamage,
			Atk:       in.AttackerAtk,
			SkillMult: in.SkillMult,
			LevelMult: levelMult,
			DefMult:   defMult,
			VulnMult:  1,
			Variance:  variance,
			CritMult:  critMult,
			Raw:       raw,
		},
	}
}

// CalcBasicDamage computes damage on the simplified basic-attack path:
// flatter level scaling (1 + (level-1)*scale) and a vulnerability
// multiplier instead of the defense/level-delta curve. The two paths are
// intentionally different formulas and must never be unified.
func CalcBasicDamage(bal config.Balance, roll Roller, in BasicDamageInput) DamageResult {
	levelMult := 1 + float64(in.AttackerLevel-1)*bal.BasicLevelScale

	vulnMult := 1.0
	if in.TargetVulnerable {
		vulnMult = bal.VulnerableMult
	}

	variance := roll.Variance(bal.VarianceLow, bal.VarianceHigh)

	crit := false
	critMult := 1.0
	if !in.ForceNoCrit {
		critChance := bal.CritBase + float64(in.AttackerLuck)*bal.CritPerLuck
		if roll.Chance(critChance) {
			crit = true
			critMult = bal.CritMult
		}
	}

	raw := float64(in.BaseDamage+in.AttackerAtk) * levelMult * vulnMult * variance * critMult
	final := floorClamp(raw)

	return DamageResult{
		Damage: final,
		Crit:   crit,
		Breakdown: DamageBreakdown{
			Base:      in.BaseDamage,
			Atk:       in.AttackerAtk,
			SkillMult: 1,
			LevelMult: levelMult,
			DefMult:   1,
			VulnMult:  vulnMult,
			Variance:  variance,
			CritMult:  critMult,
			Raw:       raw,
		},
	}
}

// levelMultiplier returns the level-delta scaling of the full curve:
// above the defender 1 + delta*up capped at capUp, below the defender
// 1 + delta*down (delta negative) floored at capDown, 1.0 at equal levels.
func levelMultiplier(bal config.Balance, attackerLevel, defenderLevel int) float64 {
	delta := attackerLevel - defenderLevel
	switch {
	case delta > 0:
		return math.Min(bal.LevelCapUp, 1+float64(delta)*bal.LevelUpPerDelta)
	case delta < 0:
		return math.Max(bal.LevelCapDown, 1+float64(delta)*bal.LevelDownPerDelta)
	default:
		return 1
	}
}

// floorClamp floors the raw value with a minimum final damage of 1.
func floorClamp(raw float64) int {
	if raw < 1 {
		raw = 1
	}
	return int(math.Floor(raw))
}
