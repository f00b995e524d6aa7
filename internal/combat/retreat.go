package combat

import (
	"log/slog"
	"time"

	"github.com/udisondev/emberfall/internal/model"
)

// RetreatReason records why a retreat started.
type RetreatReason int32

const (
	retreatLeash RetreatReason = iota
	retreatLostSight
	retreatGuards
	retreatPack
)

// String returns human-readable reason name
func (r RetreatReason) String() string {
	switch r {
	case retreatLeash:
		return "LEASH"
	case retreatLostSight:
		return "LOST_SIGHT"
	case retreatGuards:
		return "GUARDS"
	case retreatPack:
		return "PACK"
	default:
		return "UNKNOWN"
	}
}

// startRetreat begins a retreat episode. The destination is fixed here,
// once, to the enemy's own unique spawn anchor; it is never recomputed
// and never shared with pack members. That per-member destination is the
// anti-clumping invariant. Engagement and any attacker-slot lease are
// dropped, and the retreat fans out to pack members still fighting.
func (s *Session) startRetreat(e *model.Enemy, reason RetreatReason, now time.Time) {
	if e.IsRetreating() {
		return
	}

	dest := e.Home
	e.RetreatTo = &dest
	e.RetreatStartedAt = now
	e.RetreatStuckSince = time.Time{}
	e.State = model.StateRetreating
	e.PendingAggro = false
	s.slots.Release(e.ID)
	s.emitStatus(e.ID)

	// The player's pursuit of this exact target ends now, not next tick.
	s.NotifyEnemyDisengaged(e.ID)

	if IsDebugEnabled() {
		slog.Debug("enemy retreating",
			"enemy", e.Name,
			"id", e.ID,
			"reason", reason,
			"dest", dest)
	}

	// Propagate to pack members; each retreats to its own anchor.
	if reason != retreatPack {
		s.enemies.ForEachInPack(e.PackID, e.ID, func(member *model.Enemy) {
			if member.State == model.StateEngaged || member.State == model.StateAlert {
				s.startRetreat(member, retreatPack, now)
			}
		})
	}
}

// tickRetreat advances one retreat tick: heal, step toward the fixed
// destination, or resolve a blockage.
func (s *Session) tickRetreat(e *model.Enemy, now time.Time) {
	if e.RetreatTo == nil {
		// Missing destination: fall back to the anchor.
		dest := e.Home
		e.RetreatTo = &dest
	}
	dest := *e.RetreatTo

	// Fixed percentage heal per tick while retreating.
	e.Heal(e.MaxHP * s.bal.RetreatHealPercent / 100)

	// Arrival requires an exact tile match; "close enough" would
	// oscillate.
	if e.Pos.Equals(dest) {
		s.finishRetreat(e, now)
		return
	}

	if s.retreatStep(e, dest, now) {
		e.RetreatStuckSince = time.Time{}
		if e.Pos.Equals(dest) {
			s.finishRetreat(e, now)
		}
		return
	}

	// Blocked: accrue the stuck timer and snap as a last resort.
	if e.RetreatStuckSince.IsZero() {
		e.RetreatStuckSince = now
		return
	}
	if now.Sub(e.RetreatStuckSince) < s.snapThreshold(e, dest) {
		return
	}
	s.snapRetreat(e, dest, now)
}

// retreatStep moves one tile toward dest. Step preference is cardinal,
// diagonal, then any strictly-closer tile. Another enemy's 3x3 home
// footprint blocks a step unless no alternative exists; the enemy's own
// footprint is always allowed.
func (s *Session) retreatStep(e *model.Enemy, dest model.Point, now time.Time) bool {
	if !s.canMove(e, now) {
		return false
	}

	candidates := stepCandidates(e.Pos, dest)

	for _, c := range candidates {
		if s.tileFree(c) && !s.crossesForeignFootprint(e, c) {
			e.Pos = c
			return true
		}
	}
	// No clean step: allow crossing foreign footprints rather than
	// freezing in place.
	for _, c := range candidates {
		if s.tileFree(c) {
			e.Pos = c
			return true
		}
	}
	return false
}

// crossesForeignFootprint reports whether the tile lies inside another
// living enemy's reserved footprint. An enemy's own footprint never
// blocks it.
func (s *Session) crossesForeignFootprint(e *model.Enemy, tile model.Point) bool {
	if tile.WithinFootprint(e.Home) {
		return false
	}
	blocked := false
	s.enemies.ForEach(func(other *model.Enemy) bool {
		if other.ID == e.ID || other.IsDead() {
			return true
		}
		if tile.WithinFootprint(other.Home) {
			blocked = true
			return false
		}
		return true
	})
	return blocked
}

// snapThreshold returns how long a blocked retreater waits before
// teleporting. Asymmetric on purpose: near home a fix is probably
// imminent and a visible teleport would be jarring, so the wait is long;
// far from home the deadlock is real and recovery should be quick.
func (s *Session) snapThreshold(e *model.Enemy, dest model.Point) time.Duration {
	if e.Pos.Chebyshev(dest) <= 2 {
		return s.bal.RetreatStuckNear()
	}
	return s.bal.RetreatStuckFar()
}

// snapRetreat is the last-resort unstick. If the exact destination tile
// is taken (a living enemy, the player, or a solid cell), the retreater
// instead snaps to the nearest free tile inside its own 3x3 footprint and
// stays retreating; that is not an arrival. Otherwise it snaps home and
// arrives.
func (s *Session) snapRetreat(e *model.Enemy, dest model.Point, now time.Time) {
	if !s.tileFree(dest) {
		if tile, ok := s.freeFootprintTile(e, dest); ok {
			e.Pos = tile
			e.RetreatStuckSince = time.Time{}

			if IsDebugEnabled() {
				slog.Debug("retreat snapped into footprint",
					"enemy", e.Name, "id", e.ID, "tile", tile)
			}
		}
		return
	}

	e.Pos = dest

	if IsDebugEnabled() {
		slog.Debug("retreat snapped to anchor", "enemy", e.Name, "id", e.ID)
	}
	s.finishRetreat(e, now)
}

// freeFootprintTile returns the free tile nearest to the enemy inside its
// own footprint, excluding the occupied anchor itself.
func (s *Session) freeFootprintTile(e *model.Enemy, anchor model.Point) (model.Point, bool) {
	var best model.Point
	bestDist := -1
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			tile := model.Point{X: anchor.X + dx, Y: anchor.Y + dy}
			if tile.Equals(anchor) || !s.tileFree(tile) {
				continue
			}
			d := tile.Chebyshev(e.Pos)
			if bestDist < 0 || d < bestDist {
				best = tile
				bestDist = d
			}
		}
	}
	return best, bestDist >= 0
}

// finishRetreat is the arrival pass: back to unaware at full health with
// a fresh spawn-immunity window (blocks being attacked, not detection),
// provoked flag cleared.
func (s *Session) finishRetreat(e *model.Enemy, now time.Time) {
	e.State = model.StateUnaware
	e.RetreatTo = nil
	e.RetreatStuckSince = time.Time{}
	e.RestoreFull()
	e.SpawnImmuneUntil = now.Add(s.bal.SpawnImmunity())
	s.ClearProvoked(e.ID)
	s.emitStatus(e.ID)

	if IsDebugEnabled() {
		slog.Debug("enemy returned home", "enemy", e.Name, "id", e.ID)
	}
}
