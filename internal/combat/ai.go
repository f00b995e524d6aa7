package combat

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/emberfall/internal/model"
)

// tickEnemy drives one enemy's AI for one tick. Rules run in fixed
// priority order; the first matching rule wins and returns.
func (s *Session) tickEnemy(e *model.Enemy, now time.Time) {
	// 1. Dead enemies do nothing; removal happened in the death pass.
	if e.IsDead() {
		return
	}

	// 2. Untouchable player (ghost/downed/post-revival): force-disengage
	// and head home.
	if s.player.IsUntouchable(now) {
		s.forceDisengage(e, now)
		return
	}

	// 3. Stun suppresses movement and attacks alike.
	if e.IsStunned(now) {
		return
	}

	// 4. Retreating enemies only retreat.
	if e.IsRetreating() {
		s.tickRetreat(e, now)
		return
	}

	// 5. Pending aggro resolves straight to ENGAGED, skipping the alert
	// delay, as soon as re-aggro is allowed again.
	if e.PendingAggro && !e.IsBrokenOff(now) {
		e.PendingAggro = false
		s.engage(e, now)
		return
	}

	// 6. Broken-off enemies walk home or idle until the window expires.
	if e.IsBrokenOff(now) {
		s.walkHomeOrIdle(e, now)
		return
	}

	// 7. Outclassed enemies flee protective guards.
	if s.fleesGuards(e, now) {
		return
	}

	// 8. Passive and conditional enemies act unaware until provoked or
	// unlocked by their story flag.
	if s.isPacified(e, now) {
		s.idleBehavior(e, now)
		return
	}

	// 9. Engaged: leash/de-aggro first, then type-specific combat.
	if e.State == model.StateEngaged {
		if s.checkLeash(e, now) {
			return
		}
		s.combatBehavior(e, now)
		return
	}

	// 10. Detection. Runs during spawn settle and spawn immunity: those
	// windows gate attacks and being attacked, never awareness.
	s.detect(e, now)
}

// forceDisengage drops any engagement on an untouchable player and walks
// the enemy back toward its spawn footprint.
func (s *Session) forceDisengage(e *model.Enemy, now time.Time) {
	if e.State == model.StateEngaged || e.State == model.StateAlert {
		e.State = model.StateUnaware
		s.slots.Release(e.ID)
		s.emitStatus(e.ID)
	}
	e.PendingAggro = false
	if !e.AtHome() {
		s.stepEnemyToward(e, e.Home, now)
	}
}

// fleesGuards begins a guard retreat when the enemy stands too close to a
// protective guard that outclasses it. Unaware enemies are left alone so
// static spawns near guard posts don't retreat in place forever.
func (s *Session) fleesGuards(e *model.Enemy, now time.Time) bool {
	if e.State == model.StateUnaware {
		return false
	}
	if s.spatial == nil {
		return false
	}
	guard, ok := s.spatial.NearestGuard(e.Pos.X, e.Pos.Y)
	if !ok {
		return false
	}
	if e.Pos.Chebyshev(guard.Pos) > s.bal.GuardFearRadius {
		return false
	}
	if guard.Level < e.Level+s.bal.GuardLevelMargin {
		return false
	}

	// Forced disengage: block re-aggro for a while; the enemy can still be
	// re-provoked (pendingAggro) once the window passes.
	e.BrokenOffUntil = now.Add(s.bal.BrokenOffDuration())
	s.startRetreat(e, retreatGuards, now)
	return true
}

// isPacified reports whether detection is suppressed for this enemy:
// passive (explicit tag or the legacy type rule) or conditional on an
// unset story flag, and not currently provoked.
func (s *Session) isPacified(e *model.Enemy, now time.Time) bool {
	if s.IsProvoked(e.ID, now) {
		return false
	}
	if e.Passive || isLegacyPassive(e) {
		return true
	}
	if e.ConditionalFlag != "" && !s.FlagSet(e.ConditionalFlag) {
		return true
	}
	return false
}

// isLegacyPassive is the pre-tag classification rule kept for old map
// data: level-1 melee critters without alpha/boss standing are passive.
func isLegacyPassive(e *model.Enemy) bool {
	return e.Level <= 1 && e.Behavior == model.BehaviorMelee && !e.IsAlpha && !e.IsBoss
}

// checkLeash evaluates de-aggro while engaged: beyond the leash radius
// from home, or line of sight lost for longer than the timeout. Returns
// true when a retreat started.
func (s *Session) checkLeash(e *model.Enemy, now time.Time) bool {
	if e.Pos.Chebyshev(e.Home) > e.LeashRadius {
		s.startRetreat(e, retreatLeash, now)
		return true
	}

	if s.hasLOS(e.Pos, s.player.Pos) {
		e.LastSeenAt = now
		return false
	}
	if now.Sub(e.LastSeenAt) > s.bal.LostSightTimeout() {
		s.startRetreat(e, retreatLostSight, now)
		return true
	}
	return false
}

// detect runs awareness for unaware/alert enemies: UNAWARE→ALERT on
// sighting, ALERT→ENGAGED after the warning window.
func (s *Session) detect(e *model.Enemy, now time.Time) {
	dist := e.Pos.Chebyshev(s.player.Pos)
	visible := dist <= e.AggroRange && s.hasLOS(e.Pos, s.player.Pos)

	switch e.State {
	case model.StateAlert:
		if visible {
			e.LastSeenAt = now
		}
		if now.Sub(e.AlertSince) >= s.bal.AlertDelay() {
			s.engage(e, now)
			return
		}
		if !visible && now.Sub(e.LastSeenAt) > s.bal.LostSightTimeout() {
			e.State = model.StateUnaware
			s.emitStatus(e.ID)
		}

	case model.StateUnaware:
		if visible {
			e.State = model.StateAlert
			e.AlertSince = now
			e.LastSeenAt = now
			s.emitStatus(e.ID)

			if IsDebugEnabled() {
				slog.Debug("enemy alerted", "enemy", e.Name, "id", e.ID, "dist", dist)
			}
			return
		}
		s.idleBehavior(e, now)

	case model.StateEngaged, model.StateRetreating:
		// Handled by earlier rules; nothing to detect.
	}
}

// engage transitions the enemy to ENGAGED.
func (s *Session) engage(e *model.Enemy, now time.Time) {
	e.State = model.StateEngaged
	e.LastSeenAt = now
	s.emitStatus(e.ID)

	if IsDebugEnabled() {
		slog.Debug("enemy engaged", "enemy", e.Name, "id", e.ID)
	}
}

// walkHomeOrIdle moves a disengaged enemy toward home, idling once there.
func (s *Session) walkHomeOrIdle(e *model.Enemy, now time.Time) {
	if !e.AtHome() {
		s.stepEnemyToward(e, e.Home, now)
		return
	}
	s.idleBehavior(e, now)
}

// idleBehavior is the unaware routine: periodic regeneration and a small
// patrol near home.
func (s *Session) idleBehavior(e *model.Enemy, now time.Time) {
	if e.HP < e.MaxHP && !now.Before(e.NextRegenAt) {
		e.Heal(e.MaxHP * s.bal.IdleRegenPercent / 100)
		e.NextRegenAt = now.Add(s.bal.IdleRegenInterval())
		s.emitStatus(e.ID)
	}

	if !s.roll.Chance(s.bal.PatrolChance) {
		return
	}
	dx := s.roll.IntN(3) - 1
	dy := s.roll.IntN(3) - 1
	step := model.Point{X: e.Pos.X + dx, Y: e.Pos.Y + dy}
	if step.Equals(e.Pos) || step.Chebyshev(e.Home) > s.bal.PatrolRadius {
		return
	}
	s.stepEnemyTo(e, step, now)
}

// combatBehavior executes the type-specific fighting routine.
func (s *Session) combatBehavior(e *model.Enemy, now time.Time) {
	switch e.Behavior {
	case model.BehaviorMelee:
		s.meleeCombat(e, now)
	case model.BehaviorRanged:
		s.rangedCombat(e, now)
	case model.BehaviorAggressive:
		s.aggressiveCombat(e, now)
	case model.BehaviorGuard:
		// Stationary: never initiates movement or pursuit, strikes only
		// what comes within reach.
		s.guardCombat(e, now)
	}
}

// meleeCombat: in range and visible, contend for an attacker slot; denied
// holders occasionally shuffle to a surrounding tile instead of spamming
// movement. Out of range, advance while visible, otherwise intermittently
// seek a line-of-sight tile.
func (s *Session) meleeCombat(e *model.Enemy, now time.Time) {
	dist := e.Pos.Chebyshev(s.player.Pos)
	visible := s.hasLOS(e.Pos, s.player.Pos)

	if dist <= e.AttackRange() && visible {
		if s.slots.Acquire(e.ID, now) {
			s.tryEnemyStrike(e, now)
			return
		}
		// Backpressure, not an error: reposition and retry later.
		if !now.Before(e.NextRepositionAt) && s.roll.Chance(s.bal.RepositionChance) {
			s.repositionAroundPlayer(e, now)
			e.NextRepositionAt = now.Add(time.Second)
		}
		return
	}

	if visible {
		s.stepEnemyToward(e, s.player.Pos, now)
		return
	}
	if s.roll.Chance(s.bal.RepositionChance) {
		s.seekLineOfSight(e, now)
	}
}

// rangedCombat keeps a stand-off band: back away inside the minimum,
// volley inside [min, range] with slot contention, advance to a preferred
// distance (range-2) when too far, reposition when sight is lost.
func (s *Session) rangedCombat(e *model.Enemy, now time.Time) {
	dist := e.Pos.Chebyshev(s.player.Pos)

	if e.Weapon != nil && e.Weapon.MinRange > 0 && dist < e.Weapon.MinRange {
		s.stepEnemyAway(e, now)
		return
	}

	visible := s.hasLOS(e.Pos, s.player.Pos)
	if !visible {
		if s.roll.Chance(s.bal.RepositionChance) {
			s.seekLineOfSight(e, now)
		}
		return
	}

	if dist <= e.AttackRange() {
		if s.slots.Acquire(e.ID, now) {
			s.tryEnemyStrike(e, now)
			return
		}
		if !now.Before(e.NextRepositionAt) && s.roll.Chance(s.bal.RepositionChance) {
			s.repositionAroundPlayer(e, now)
			e.NextRepositionAt = now.Add(time.Second)
		}
		return
	}

	// Advance toward the preferred distance rather than point-blank.
	preferred := e.AttackRange() - 2
	if preferred < 1 {
		preferred = 1
	}
	if dist > preferred {
		s.stepEnemyToward(e, s.player.Pos, now)
	}
}

// aggressiveCombat is the boss/alpha routine: always advance, always
// strike, no stand-off and no slot contention. Unbounded concurrency here
// is deliberate.
func (s *Session) aggressiveCombat(e *model.Enemy, now time.Time) {
	dist := e.Pos.Chebyshev(s.player.Pos)
	visible := s.hasLOS(e.Pos, s.player.Pos)

	if dist <= e.AttackRange() && visible {
		s.tryEnemyStrike(e, now)
		return
	}
	if visible {
		s.stepEnemyToward(e, s.player.Pos, now)
		return
	}
	if s.roll.Chance(s.bal.RepositionChance) {
		s.seekLineOfSight(e, now)
	}
}

// guardCombat strikes targets in reach but never moves.
func (s *Session) guardCombat(e *model.Enemy, now time.Time) {
	dist := e.Pos.Chebyshev(s.player.Pos)
	if dist <= e.AttackRange() && s.hasLOS(e.Pos, s.player.Pos) {
		if s.slots.Acquire(e.ID, now) {
			s.tryEnemyStrike(e, now)
		}
	}
}

// tryEnemyStrike attacks the player if the cooldown elapsed and the
// spawn-settle window (which blocks the strike, not positioning) is over.
func (s *Session) tryEnemyStrike(e *model.Enemy, now time.Time) {
	if e.IsSpawnSettling(now) {
		return
	}
	if now.Before(e.AttackReadyAt) {
		return
	}
	s.enemyAttack(e, now)
}

// enemyAttack resolves one enemy hit on the player via the full damage
// curve, schedules burst rounds, and arms the cooldown.
func (s *Session) enemyAttack(e *model.Enemy, now time.Time) {
	base := 1
	cooldown := 1500 * time.Millisecond
	ranged := false
	burst := 1
	interval := time.Duration(0)
	if e.Weapon != nil {
		base = e.Weapon.BaseDamage
		if e.Weapon.Cooldown > 0 {
			cooldown = e.Weapon.Cooldown
		}
		ranged = e.Weapon.Range > 1
		burst = e.Weapon.BurstCount
		interval = e.Weapon.BurstInterval
	}

	res := CalcSkillDamage(s.bal, s.roll, SkillDamageInput{
		AttackerLevel: e.Level,
		AttackerAtk:   e.Atk,
		AttackerLuck:  e.Luck,
		DefenderLevel: s.player.Level,
		DefenderDef:   s.player.Def,
		BaseDamage:    base,
		SkillMult:     1,
	})
	s.lastHit = &res.Breakdown

	s.emitAttack(e.ID, s.player.ID, ranged)
	s.damagePlayer(e, res.Damage, res.Crit)
	e.AttackReadyAt = now.Add(cooldown)

	// Burst follow-ups target the player; cancellable by identity if the
	// encounter ends.
	for i := 1; i < burst; i++ {
		attackerID := e.ID
		s.deferred.Schedule(now.Add(time.Duration(i)*interval), s.player.ID, func(tick time.Time) {
			attacker, ok := s.enemies.Get(attackerID)
			if !ok || attacker.IsDead() || s.player.IsUntouchable(tick) {
				return
			}
			round := CalcSkillDamage(s.bal, s.roll, SkillDamageInput{
				AttackerLevel: attacker.Level,
				AttackerAtk:   attacker.Atk,
				AttackerLuck:  attacker.Luck,
				DefenderLevel: s.player.Level,
				DefenderDef:   s.player.Def,
				BaseDamage:    base,
				SkillMult:     1,
			})
			s.lastHit = &round.Breakdown
			s.damagePlayer(attacker, round.Damage, round.Crit)
		})
	}

	if IsDebugEnabled() {
		slog.Debug("enemy attacked player",
			"enemy", e.Name,
			"id", e.ID,
			"damage", res.Damage,
			"crit", res.Crit)
	}
}

// --- movement helpers ---

// stepCandidates returns one-tile steps from from toward dest in
// preference order: straight cardinal steps, the single diagonal, then
// every neighbor strictly closer to the destination.
func stepCandidates(from, dest model.Point) []model.Point {
	dx, dy := from.SignStep(dest)
	var out []model.Point
	seen := make(map[model.Point]bool)
	push := func(p model.Point) {
		if !seen[p] && !p.Equals(from) {
			seen[p] = true
			out = append(out, p)
		}
	}

	if dx != 0 {
		push(model.Point{X: from.X + dx, Y: from.Y})
	}
	if dy != 0 {
		push(model.Point{X: from.X, Y: from.Y + dy})
	}
	if dx != 0 && dy != 0 {
		push(model.Point{X: from.X + dx, Y: from.Y + dy})
	}

	cur := from.Chebyshev(dest)
	for ny := -1; ny <= 1; ny++ {
		for nx := -1; nx <= 1; nx++ {
			p := model.Point{X: from.X + nx, Y: from.Y + ny}
			if p.Chebyshev(dest) < cur {
				push(p)
			}
		}
	}
	return out
}

// canMove reports whether the enemy may move at all this tick (root and
// slow statuses).
func (s *Session) canMove(e *model.Enemy, now time.Time) bool {
	if e.IsRooted(now) {
		return false
	}
	// Slow halves effective movement by skipping steps.
	if e.IsSlowed(now) && s.roll.Chance(0.5) {
		return false
	}
	return true
}

// stepEnemyToward moves the enemy one tile toward dest, honoring tile
// occupancy. Returns true if a step happened.
func (s *Session) stepEnemyToward(e *model.Enemy, dest model.Point, now time.Time) bool {
	if !s.canMove(e, now) {
		return false
	}
	for _, c := range stepCandidates(e.Pos, dest) {
		if s.tileFree(c) {
			e.Pos = c
			return true
		}
	}
	return false
}

// stepEnemyTo moves the enemy onto an adjacent tile if free.
func (s *Session) stepEnemyTo(e *model.Enemy, tile model.Point, now time.Time) bool {
	if !s.canMove(e, now) {
		return false
	}
	if e.Pos.Chebyshev(tile) != 1 || !s.tileFree(tile) {
		return false
	}
	e.Pos = tile
	return true
}

// stepEnemyAway backs the enemy one tile away from the player.
func (s *Session) stepEnemyAway(e *model.Enemy, now time.Time) bool {
	if !s.canMove(e, now) {
		return false
	}
	dx, dy := s.player.Pos.SignStep(e.Pos) // direction away from the player
	candidates := []model.Point{
		{X: e.Pos.X + dx, Y: e.Pos.Y + dy},
		{X: e.Pos.X + dx, Y: e.Pos.Y},
		{X: e.Pos.X, Y: e.Pos.Y + dy},
	}
	for _, c := range candidates {
		if !c.Equals(e.Pos) && c.Chebyshev(s.player.Pos) > e.Pos.Chebyshev(s.player.Pos) && s.tileFree(c) {
			e.Pos = c
			return true
		}
	}
	return false
}

// repositionAroundPlayer shuffles a slot-denied attacker to another free
// tile that keeps the player in weapon range.
func (s *Session) repositionAroundPlayer(e *model.Enemy, now time.Time) {
	if !s.canMove(e, now) {
		return
	}
	start := s.roll.IntN(8)
	for i := range 8 {
		nx, ny := neighborOffset((start + i) % 8)
		c := model.Point{X: e.Pos.X + nx, Y: e.Pos.Y + ny}
		if c.Chebyshev(s.player.Pos) <= e.AttackRange() && s.tileFree(c) {
			e.Pos = c
			return
		}
	}
}

// seekLineOfSight tries a neighboring tile from which the player is
// visible.
func (s *Session) seekLineOfSight(e *model.Enemy, now time.Time) {
	if !s.canMove(e, now) {
		return
	}
	start := s.roll.IntN(8)
	for i := range 8 {
		nx, ny := neighborOffset((start + i) % 8)
		c := model.Point{X: e.Pos.X + nx, Y: e.Pos.Y + ny}
		if s.tileFree(c) && s.hasLOS(c, s.player.Pos) {
			e.Pos = c
			return
		}
	}
	// No sight from any neighbor: drift toward the last known position.
	s.stepEnemyToward(e, s.player.Pos, now)
}

// neighborOffset maps 0..7 to the 8 surrounding tile offsets.
func neighborOffset(i int) (int, int) {
	offsets := [8][2]int{
		{1, 0}, {-1, 0}, {0, 1}, {0, -1},
		{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
	}
	return offsets[i][0], offsets[i][1]
}

// ProvokeEnemy is the external entry point for scripted provocation
// (e.g. quest triggers): marks the enemy provoked and fans out to its
// pack.
func (s *Session) ProvokeEnemy(enemyID uint32) error {
	e, ok := s.enemies.Get(enemyID)
	if !ok {
		return fmt.Errorf("enemy %d not found", enemyID)
	}
	s.Provoke(e.ID)
	if e.State != model.StateEngaged && !e.IsRetreating() {
		e.PendingAggro = true
	}
	s.enemies.ForEachInPack(e.PackID, e.ID, func(member *model.Enemy) {
		s.Provoke(member.ID)
		if member.State != model.StateEngaged && !member.IsRetreating() {
			member.PendingAggro = true
		}
	})
	return nil
}
