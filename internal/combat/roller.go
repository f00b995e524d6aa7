package combat

import "math/rand/v2"

// Roller is the source of all combat randomness. Every variance, crit and
// behavior roll goes through it, so a session seeded with a fixed value
// replays deterministically and tests can pin individual rolls.
type Roller interface {
	// Variance returns a uniform value in [lo, hi).
	Variance(lo, hi float64) float64
	// Chance returns true with probability p (clamped to [0, 1]).
	Chance(p float64) bool
	// IntN returns a uniform value in [0, n).
	IntN(n int) int
}

type randRoller struct {
	rng *rand.Rand
}

// NewRoller creates a PCG-backed roller from a seed.
func NewRoller(seed uint64) Roller {
	return &randRoller{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *randRoller) Variance(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + r.rng.Float64()*(hi-lo)
}

func (r *randRoller) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.rng.Float64() < p
}

func (r *randRoller) IntN(n int) int {
	if n <= 1 {
		return 0
	}
	return r.rng.IntN(n)
}
