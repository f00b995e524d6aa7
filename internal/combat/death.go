package combat

import (
	"fmt"
	"log/slog"

	"github.com/udisondev/emberfall/internal/model"
)

// HandleEnemyDeath runs the one-shot death pass for an enemy. Timer-based
// multi-hit attacks can each independently observe lethal HP, so the pass
// is guarded by the DeathHandled flag: only the first caller does the
// work, later calls are no-ops. Returns true for that first caller.
func (s *Session) HandleEnemyDeath(e *model.Enemy, killerID uint32) bool {
	if e.DeathHandled {
		return false
	}
	e.DeathHandled = true

	// Removed from the live collection exactly once.
	s.enemies.Remove(e.ID)
	s.slots.Release(e.ID)
	s.ClearProvoked(e.ID)
	// Cancel only this target's in-flight shots, nothing else.
	s.deferred.CancelTarget(e.ID)

	s.emitStatus(e.ID)
	s.emitLog(fmt.Sprintf("%s dies.", e.Name))

	for _, fn := range s.deathObservers {
		fn(e, killerID)
	}

	s.requestSave("enemy-death")

	slog.Info("enemy died",
		"enemy", e.Name,
		"id", e.ID,
		"type", e.Type,
		"pack", e.PackID,
		"alpha", e.IsAlpha,
		"boss", e.IsBoss,
		"killer", killerID)

	return true
}

// damagePlayer applies enemy damage to the player and reports death.
// Player death handling (downed mode, revival) belongs to the outer game
// loop; the core only flips the mode so enemies disengage next tick.
func (s *Session) damagePlayer(attacker *model.Enemy, damage int, crit bool) {
	if s.player.IsDead() || s.player.Mode != model.ModeNormal {
		return
	}
	s.player.ReduceHP(damage)
	s.emitDamage(s.player.ID, damage, crit)

	if s.player.IsDead() {
		s.player.Mode = model.ModeDowned
		s.emitLog("You collapse.")
		s.requestSave("player-downed")

		slog.Info("player downed", "killer", attacker.Name)
	}
}
