package combat

import (
	"context"
	"log/slog"
	"time"

	"github.com/udisondev/emberfall/internal/model"
)

// Tick runs one full simulation step at the given instant, in fixed
// order: spawn intake, deferred sub-attacks, the player intent, every
// enemy's AI, slot
// lease cleanup, then status-effect ticks. Cooldowns and status windows
// are timestamps, so "aging" them is implicit in the comparisons each
// stage makes. Nothing here blocks; all waiting is a retry timestamp
// checked on a later tick.
func (s *Session) Tick(now time.Time) {
	s.drainIncoming()

	s.deferred.RunDue(now)

	s.tryExecuteIntent(now)

	s.enemies.ForEach(func(e *model.Enemy) bool {
		s.tickEnemy(e, now)
		return true
	})

	s.slots.Cleanup(now, slotKeepFunc(s.enemies, s.player.Pos, s.bal.SlotGiveUpDistance, now))

	s.tickStatusEffects(now)
}

// tickStatusEffects applies damage-over-time and expiry side effects that
// are not plain timestamp reads: burn ticks on the player and on enemies.
func (s *Session) tickStatusEffects(now time.Time) {
	s.tickBurn(&s.player.Actor, now, func() {
		// Burn never downs the player outright; it stops at 1 HP.
		if s.player.HP < 1 {
			s.player.HP = 1
		}
	})

	s.enemies.ForEach(func(e *model.Enemy) bool {
		s.tickBurn(&e.Actor, now, func() {
			if e.IsDead() {
				s.HandleEnemyDeath(e, s.player.ID)
			}
		})
		return true
	})
}

func (s *Session) tickBurn(a *model.Actor, now time.Time, after func()) {
	if !a.IsBurning(now) || now.Before(a.BurnNextTick) {
		return
	}
	a.ReduceHP(a.BurnDamage)
	a.BurnNextTick = now.Add(time.Second)
	s.emitDamage(a.ID, a.BurnDamage, false)
	after()
}

// Scheduler drives a session at a fixed period (100 ms by default).
// Single-threaded and cooperative: each tick runs to completion before
// the next fires.
type Scheduler struct {
	session *Session
	period  time.Duration
	stopCh  chan struct{}
	onTick  func(now time.Time)
}

// NewScheduler creates a tick scheduler for the session.
func NewScheduler(session *Session, period time.Duration) *Scheduler {
	if period <= 0 {
		period = 100 * time.Millisecond
	}
	return &Scheduler{
		session: session,
		period:  period,
		stopCh:  make(chan struct{}),
	}
}

// OnTick installs a hook that runs before each session tick, on the
// scheduler goroutine. Used to drive collaborators that advance in
// lockstep with the simulation (e.g. the movement executor).
func (sch *Scheduler) OnTick(fn func(now time.Time)) {
	sch.onTick = fn
}

// Run starts the tick loop (blocks until the context is canceled or Stop
// is called).
func (sch *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(sch.period)
	defer ticker.Stop()

	slog.Info("tick scheduler started", "period", sch.period)

	for {
		select {
		case <-ctx.Done():
			slog.Info("tick scheduler stopping")
			return ctx.Err()

		case <-sch.stopCh:
			slog.Info("tick scheduler stopped")
			return nil

		case <-ticker.C:
			now := sch.session.Now()
			if sch.onTick != nil {
				sch.onTick(now)
			}
			sch.session.Tick(now)
		}
	}
}

// Stop stops the tick loop.
func (sch *Scheduler) Stop() {
	close(sch.stopCh)
}
