package combat

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/emberfall/internal/model"
)

// IntentKind distinguishes the two player intents.
type IntentKind int32

const (
	// IntentBasic - persistent auto-attack, retried until invalidated
	IntentBasic IntentKind = iota
	// IntentAbility - one-shot weapon ability, cleared on execution
	IntentAbility
)

// String returns human-readable intent kind
func (k IntentKind) String() string {
	switch k {
	case IntentBasic:
		return "BASIC"
	case IntentAbility:
		return "ABILITY"
	default:
		return "UNKNOWN"
	}
}

// Intent is the single record of what the player's next automatic action
// is. At most one exists; creating a new one replaces the old.
type Intent struct {
	Kind        IntentKind
	TargetID    uint32
	Range       int
	NeedsLOS    bool
	AbilitySlot int

	// NextAttackAt is the shared basic-attack cadence timer. Preserved
	// when the same target is re-selected so input spam cannot reset it.
	NextAttackAt time.Time
	// RetryAt throttles re-evaluation while waiting on external state.
	RetryAt time.Time
	// ExpiresAt is the inactivity timeout.
	ExpiresAt time.Time

	// landed records that at least one attack hit; range losses after the
	// first landed hit do not auto-chase, so the player can kite.
	landed        bool
	pathRequested bool
}

// SetBasicAttackIntent installs or refreshes the persistent basic-attack
// intent on the target. Invalid targets (dead, retreating, broken-off and
// not engaged) are rejected.
func (s *Session) SetBasicAttackIntent(targetID uint32) error {
	now := s.now()
	e, err := s.validIntentTarget(targetID, now)
	if err != nil {
		return err
	}

	cadence := now
	if s.intent != nil && s.intent.Kind == IntentBasic && s.intent.TargetID == targetID {
		// Same target re-selected: keep the cadence timer.
		cadence = s.intent.NextAttackAt
	}

	s.intent = &Intent{
		Kind:         IntentBasic,
		TargetID:     targetID,
		Range:        s.player.BasicRange(),
		NeedsLOS:     s.player.Weapon == nil || s.player.Weapon.RequiresLOS,
		NextAttackAt: cadence,
		ExpiresAt:    now.Add(s.bal.IntentTimeout()),
	}
	s.autoAttack = true

	if IsDebugEnabled() {
		slog.Debug("basic attack intent set", "target", e.Name, "targetID", targetID)
	}
	return nil
}

// SetAbilityIntent installs a one-shot weapon-ability intent. An
// out-of-range slot is rejected with a user-facing log line and no state
// is mutated.
func (s *Session) SetAbilityIntent(slot int, targetID uint32) error {
	ability, ok := s.player.Weapon.AbilityAt(slot)
	if !ok {
		s.emitLog(fmt.Sprintf("No ability in slot %d.", slot+1))
		return fmt.Errorf("ability slot %d out of range", slot)
	}

	now := s.now()
	if _, err := s.validIntentTarget(targetID, now); err != nil {
		return err
	}

	s.intent = &Intent{
		Kind:        IntentAbility,
		TargetID:    targetID,
		Range:       ability.Range,
		NeedsLOS:    ability.RequiresLOS,
		AbilitySlot: slot,
		ExpiresAt:   now.Add(s.bal.IntentTimeout()),
	}

	if IsDebugEnabled() {
		slog.Debug("ability intent set", "slot", slot, "ability", ability.Name, "targetID", targetID)
	}
	return nil
}

// CurrentIntent returns the pending intent, or nil.
func (s *Session) CurrentIntent() *Intent {
	return s.intent
}

// CancelIntent drops the pending intent without touching anything else.
func (s *Session) CancelIntent() {
	s.intent = nil
	s.autoAttack = false
}

// Disengage is the full combat stop: intent, auto-attack, every deferred
// sub-attack and any in-progress pursuit path.
func (s *Session) Disengage() {
	s.intent = nil
	s.autoAttack = false
	s.deferred.CancelAll()
	if s.mover != nil {
		s.mover.CancelPath()
	}
}

// NotifyEnemyDisengaged clears the player's pursuit immediately when its
// exact current target disengages, instead of waiting for the next tick to
// notice.
func (s *Session) NotifyEnemyDisengaged(enemyID uint32) {
	if s.intent == nil || s.intent.TargetID != enemyID {
		return
	}
	s.intent = nil
	if s.mover != nil {
		s.mover.CancelPath()
	}
	if IsDebugEnabled() {
		slog.Debug("intent cleared: target disengaged", "enemyID", enemyID)
	}
}

// validIntentTarget resolves and validates an intent target. Dead,
// retreating, and broken-off-but-unengaged enemies are invalid.
func (s *Session) validIntentTarget(targetID uint32, now time.Time) (*model.Enemy, error) {
	e, ok := s.enemies.Get(targetID)
	if !ok {
		return nil, fmt.Errorf("target %d not found", targetID)
	}
	if e.IsDead() {
		return nil, fmt.Errorf("target %s is dead", e.Name)
	}
	if e.IsRetreating() {
		return nil, fmt.Errorf("target %s is retreating", e.Name)
	}
	if e.IsBrokenOff(now) && e.State != model.StateEngaged {
		return nil, fmt.Errorf("target %s has disengaged", e.Name)
	}
	return e, nil
}

// tryExecuteIntent advances the pending intent by one tick.
func (s *Session) tryExecuteIntent(now time.Time) {
	in := s.intent
	if in == nil {
		return
	}

	// Inactivity expiry: a stalled intent self-heals by timing out.
	if !now.Before(in.ExpiresAt) {
		s.intent = nil
		if IsDebugEnabled() {
			slog.Debug("intent expired", "targetID", in.TargetID)
		}
		return
	}

	target, ok := s.enemies.Get(in.TargetID)
	if !ok || target.IsDead() {
		// Dead targets are handled by re-acquisition, not disengage.
		s.reacquireAfterKill(in, now)
		return
	}

	if _, err := s.validIntentTarget(in.TargetID, now); err != nil {
		// Invalid for a reason other than dead: stop and disengage.
		s.intent = nil
		if s.mover != nil {
			s.mover.CancelPath()
		}
		return
	}

	// Throttle while waiting on external state.
	if now.Before(in.RetryAt) {
		return
	}

	// Defer entirely while the movement executor is busy.
	if s.mover != nil && s.mover.IsMoving() {
		return
	}

	dist := s.player.Pos.Chebyshev(target.Pos)
	visible := !in.NeedsLOS || s.hasLOS(s.player.Pos, target.Pos)

	if dist > in.Range || !visible {
		// One-time path into range before the first landed hit; later
		// range losses never auto-chase so the player can kite.
		if !in.landed && !in.pathRequested && s.mover != nil {
			if err := s.mover.PathTo(target.Pos.X, target.Pos.Y); err != nil {
				slog.Warn("path into range failed", "target", target.Name, "err", err)
			}
			in.pathRequested = true
		}
		in.RetryAt = now.Add(s.bal.IntentRetry())
		return
	}

	// Target temporarily immune (fresh spawn or just returned home):
	// wait, do not disengage.
	if target.IsSpawnImmune(now) {
		in.RetryAt = now.Add(s.bal.IntentRetry())
		return
	}

	switch in.Kind {
	case IntentBasic:
		if now.Before(in.NextAttackAt) {
			return
		}
		s.executePlayerBasic(in, target, now)
	case IntentAbility:
		s.executePlayerAbility(in, target, now)
	}
}

// reacquireAfterKill retargets a basic intent to the closest
// currently-aggressive enemy after the old target died. Ability intents
// simply clear.
func (s *Session) reacquireAfterKill(in *Intent, now time.Time) {
	if in.Kind != IntentBasic {
		s.intent = nil
		return
	}
	next, ok := s.enemies.Closest(s.player.Pos, func(e *model.Enemy) bool {
		return !e.IsDead() && e.State == model.StateEngaged
	})
	if !ok {
		s.intent = nil
		return
	}
	in.TargetID = next.ID
	in.NextAttackAt = now // fresh target, fresh cadence
	in.ExpiresAt = now.Add(s.bal.IntentTimeout())
	in.pathRequested = false

	if IsDebugEnabled() {
		slog.Debug("intent re-acquired target", "target", next.Name, "targetID", next.ID)
	}
}

// executePlayerBasic lands one basic attack and schedules the next
// cadence slot.
func (s *Session) executePlayerBasic(in *Intent, target *model.Enemy, now time.Time) {
	weapon := s.player.Weapon
	base := 1
	ranged := false
	if weapon != nil {
		base = weapon.BaseDamage
		ranged = weapon.Range > 1
	}

	res := CalcBasicDamage(s.bal, s.roll, BasicDamageInput{
		AttackerLevel:    s.player.Level,
		AttackerAtk:      s.player.Atk,
		AttackerLuck:     s.player.Luck,
		BaseDamage:       base,
		TargetVulnerable: target.IsVulnerable(now),
	})
	s.lastHit = &res.Breakdown

	s.emitAttack(s.player.ID, target.ID, ranged)
	s.applyPlayerHit(target, res, now)

	in.landed = true
	in.NextAttackAt = now.Add(s.bal.AttackCadence())
	in.ExpiresAt = now.Add(s.bal.IntentTimeout())
}

// executePlayerAbility fires the one-shot ability, scheduling burst
// follow-up rounds as cancellable deferred tasks keyed by target. On
// success the intent clears itself; if auto-attack was active a fresh
// basic intent lands on the same target immediately, deliberately allowing
// ability-weaving instead of preserving the old cadence offset.
func (s *Session) executePlayerAbility(in *Intent, target *model.Enemy, now time.Time) {
	ability, ok := s.player.Weapon.AbilityAt(in.AbilitySlot)
	if !ok {
		s.intent = nil
		return
	}

	res := CalcSkillDamage(s.bal, s.roll, SkillDamageInput{
		AttackerLevel: s.player.Level,
		AttackerAtk:   s.player.Atk,
		AttackerLuck:  s.player.Luck,
		DefenderLevel: target.Level,
		DefenderDef:   target.Def,
		BaseDamage:    ability.BaseDamage,
		SkillMult:     ability.SkillMult,
	})
	s.lastHit = &res.Breakdown

	s.emitAttack(s.player.ID, target.ID, ability.Range > 1)
	s.applyPlayerHit(target, res, now)

	// Burst rounds: each an independently cancellable deferred task tagged
	// by target, so a swap or death cancels only these.
	for i := 1; i < ability.BurstCount; i++ {
		runAt := now.Add(time.Duration(i) * ability.BurstInterval)
		targetID := target.ID
		s.deferred.Schedule(runAt, targetID, func(tick time.Time) {
			s.fireBurstRound(targetID, ability, tick)
		})
	}

	s.intent = nil
	if s.autoAttack {
		if err := s.SetBasicAttackIntent(target.ID); err == nil {
			s.intent.NextAttackAt = now // instant follow-up
		} else if target.IsDead() {
			// The ability killed its own target; the auto-attack chain
			// continues on the closest engaged enemy instead of going idle.
			next := &Intent{
				Kind:     IntentBasic,
				Range:    s.player.BasicRange(),
				NeedsLOS: s.player.Weapon == nil || s.player.Weapon.RequiresLOS,
			}
			s.intent = next
			s.reacquireAfterKill(next, now)
		}
	}
}

// fireBurstRound lands one deferred burst round if the target still
// qualifies.
func (s *Session) fireBurstRound(targetID uint32, ability model.Ability, now time.Time) {
	target, ok := s.enemies.Get(targetID)
	if !ok || target.IsDead() || target.IsSpawnImmune(now) {
		return
	}
	res := CalcSkillDamage(s.bal, s.roll, SkillDamageInput{
		AttackerLevel: s.player.Level,
		AttackerAtk:   s.player.Atk,
		AttackerLuck:  s.player.Luck,
		DefenderLevel: target.Level,
		DefenderDef:   target.Def,
		BaseDamage:    ability.BaseDamage,
		SkillMult:     ability.SkillMult,
	})
	s.lastHit = &res.Breakdown
	s.applyPlayerHit(target, res, now)
}

// applyPlayerHit applies a resolved hit to an enemy: damage, provocation,
// the pending-aggro fast path, and death handling.
func (s *Session) applyPlayerHit(target *model.Enemy, res DamageResult, now time.Time) {
	target.ReduceHP(res.Damage)
	s.emitDamage(target.ID, res.Damage, res.Crit)

	// Being struck provokes: passive/conditional enemies turn hostile for
	// a while, and non-engaged enemies take the fast path to ENGAGED.
	s.Provoke(target.ID)
	if target.State != model.StateEngaged && !target.IsRetreating() {
		target.PendingAggro = true
	}

	if target.IsDead() {
		s.HandleEnemyDeath(target, s.player.ID)
	}
}
