package combat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/emberfall/internal/model"
)

func TestBasicIntent_LandsAndSchedulesCadence(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))

	require.NoError(t, f.session.SetBasicAttackIntent(e.ID))
	now := f.clock.Now()
	f.session.tryExecuteIntent(now)

	// (12+9) * (1 + 4*0.05) = 25.2 -> 25
	assert.Equal(t, 25, 50-e.HP)

	in := f.session.CurrentIntent()
	require.NotNil(t, in)
	assert.Equal(t, now.Add(f.session.bal.AttackCadence()), in.NextAttackAt)
	assert.True(t, in.landed)
}

func TestBasicIntent_ReselectPreservesCadence(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))

	require.NoError(t, f.session.SetBasicAttackIntent(e.ID))
	f.session.tryExecuteIntent(f.clock.Now())
	armed := f.session.CurrentIntent().NextAttackAt

	// Spamming the same target must not reset the cadence timer.
	f.clock.Advance(100 * time.Millisecond)
	require.NoError(t, f.session.SetBasicAttackIntent(e.ID))
	assert.Equal(t, armed, f.session.CurrentIntent().NextAttackAt)

	// And the attack does not fire early.
	hp := e.HP
	f.session.tryExecuteIntent(f.clock.Now())
	assert.Equal(t, hp, e.HP)
}

func TestBasicIntent_CadenceElapsesThenFires(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))

	require.NoError(t, f.session.SetBasicAttackIntent(e.ID))
	f.session.tryExecuteIntent(f.clock.Now())
	first := e.HP

	f.clock.Advance(f.session.bal.AttackCadence())
	f.session.tryExecuteIntent(f.clock.Now())
	assert.Less(t, e.HP, first)
}

func TestAbilityIntent_OneShot(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))

	require.NoError(t, f.session.SetAbilityIntent(0, e.ID))
	f.session.tryExecuteIntent(f.clock.Now())

	// Cleave: (15+9) * 1.2 * 1.07 * 20/24 = 25.68 -> hits for 25.
	assert.Equal(t, 25, 50-e.HP)
	// One-shot: no auto-attack was armed, so the intent is gone.
	assert.Nil(t, f.session.CurrentIntent())
}

func TestAbilityIntent_WeavesBackIntoAutoAttack(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))
	e.HP, e.MaxHP = 200, 200 // survives the basic hit plus the ability

	require.NoError(t, f.session.SetBasicAttackIntent(e.ID))
	f.session.tryExecuteIntent(f.clock.Now())

	f.clock.Advance(200 * time.Millisecond)
	require.NoError(t, f.session.SetAbilityIntent(0, e.ID))
	now := f.clock.Now()
	f.session.tryExecuteIntent(now)

	// Auto-attack reinstalls on the same target with an immediate swing.
	in := f.session.CurrentIntent()
	require.NotNil(t, in)
	assert.Equal(t, IntentBasic, in.Kind)
	assert.Equal(t, e.ID, in.TargetID)
	assert.Equal(t, now, in.NextAttackAt)
}

func TestAbilityIntent_KillContinuesAutoAttack(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))
	e.HP = 20 // Cleave alone finishes it
	next := f.addEnemy(testEnemy(101, model.Point{X: 12, Y: 10}))
	next.State = model.StateEngaged

	require.NoError(t, f.session.SetBasicAttackIntent(e.ID))
	require.NoError(t, f.session.SetAbilityIntent(0, e.ID))
	now := f.clock.Now()
	f.session.tryExecuteIntent(now)

	_, alive := f.session.Enemies().Get(e.ID)
	require.False(t, alive)

	// The auto-attack chain survives its own target's death.
	in := f.session.CurrentIntent()
	require.NotNil(t, in)
	assert.Equal(t, IntentBasic, in.Kind)
	assert.Equal(t, next.ID, in.TargetID)
	assert.Equal(t, now, in.NextAttackAt)
}

func TestAbilityIntent_KillWithNoCandidateClearsIntent(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))
	e.HP = 20

	require.NoError(t, f.session.SetBasicAttackIntent(e.ID))
	require.NoError(t, f.session.SetAbilityIntent(0, e.ID))
	f.session.tryExecuteIntent(f.clock.Now())

	assert.Nil(t, f.session.CurrentIntent())
}

func TestAbilityIntent_BadSlotRejectedWithoutMutation(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))

	require.NoError(t, f.session.SetBasicAttackIntent(e.ID))
	before := f.session.CurrentIntent()

	err := f.session.SetAbilityIntent(7, e.ID)
	require.Error(t, err)
	assert.Same(t, before, f.session.CurrentIntent())
	require.NotEmpty(t, f.effects.logs)
	assert.Equal(t, "No ability in slot 8.", f.effects.logs[len(f.effects.logs)-1])
}

func TestAbilityIntent_BurstRoundsDeferred(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))
	e.HP, e.MaxHP = 500, 500

	require.NoError(t, f.session.SetAbilityIntent(1, e.ID)) // Flurry, 3 rounds
	f.session.tryExecuteIntent(f.clock.Now())

	assert.Equal(t, 2, f.session.deferred.PendingFor(e.ID))

	// Rounds land as their times come.
	hp := e.HP
	f.clock.Advance(200 * time.Millisecond)
	f.session.deferred.RunDue(f.clock.Now())
	assert.Less(t, e.HP, hp)
	assert.Equal(t, 1, f.session.deferred.PendingFor(e.ID))

	f.clock.Advance(200 * time.Millisecond)
	f.session.deferred.RunDue(f.clock.Now())
	assert.Equal(t, 0, f.session.deferred.PendingFor(e.ID))
}

func TestIntent_ReacquiresAfterKill(t *testing.T) {
	f := newFixture(openField{})
	a := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))
	b := f.addEnemy(testEnemy(101, model.Point{X: 12, Y: 10}))
	b.State = model.StateEngaged
	far := f.addEnemy(testEnemy(102, model.Point{X: 30, Y: 10}))
	far.State = model.StateEngaged

	require.NoError(t, f.session.SetBasicAttackIntent(a.ID))
	f.session.tryExecuteIntent(f.clock.Now())

	a.HP = 0
	f.session.HandleEnemyDeath(a, f.player.ID)

	f.clock.Advance(100 * time.Millisecond)
	now := f.clock.Now()
	f.session.tryExecuteIntent(now)

	// Closest engaged enemy becomes the new target with a fresh cadence.
	in := f.session.CurrentIntent()
	require.NotNil(t, in)
	assert.Equal(t, b.ID, in.TargetID)
	assert.Equal(t, now, in.NextAttackAt)
}

func TestIntent_ClearsWhenNoReacquireCandidate(t *testing.T) {
	f := newFixture(openField{})
	a := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))

	require.NoError(t, f.session.SetBasicAttackIntent(a.ID))
	a.HP = 0
	f.session.HandleEnemyDeath(a, f.player.ID)

	f.session.tryExecuteIntent(f.clock.Now())
	assert.Nil(t, f.session.CurrentIntent())
}

func TestIntent_ExpiresAfterInactivity(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 20, Y: 10})) // out of reach
	_ = e

	require.NoError(t, f.session.SetBasicAttackIntent(e.ID))
	f.clock.Advance(f.session.bal.IntentTimeout())
	f.session.tryExecuteIntent(f.clock.Now())

	assert.Nil(t, f.session.CurrentIntent())
}

func TestIntent_PathsIntoRangeOnce(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 15, Y: 10}))

	require.NoError(t, f.session.SetBasicAttackIntent(e.ID))
	f.session.tryExecuteIntent(f.clock.Now())
	assert.Equal(t, 1, f.mover.pathCalls)
	assert.Equal(t, 15, f.mover.lastX)

	// Retries do not re-path.
	f.clock.Advance(f.session.bal.IntentRetry())
	f.session.tryExecuteIntent(f.clock.Now())
	assert.Equal(t, 1, f.mover.pathCalls)
}

func TestIntent_NoAutoChaseAfterFirstHit(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))

	require.NoError(t, f.session.SetBasicAttackIntent(e.ID))
	f.session.tryExecuteIntent(f.clock.Now())
	require.True(t, f.session.CurrentIntent().landed)

	// The player kites away; the intent must not path after them.
	f.player.Pos = model.Point{X: 20, Y: 10}
	f.clock.Advance(f.session.bal.AttackCadence())
	f.session.tryExecuteIntent(f.clock.Now())

	assert.Equal(t, 0, f.mover.pathCalls)
	assert.NotNil(t, f.session.CurrentIntent())
}

func TestIntent_WaitsOutTargetImmunity(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))
	e.SpawnImmuneUntil = f.clock.Now().Add(2 * time.Second)

	require.NoError(t, f.session.SetBasicAttackIntent(e.ID))
	f.session.tryExecuteIntent(f.clock.Now())

	assert.Equal(t, 50, e.HP)
	assert.NotNil(t, f.session.CurrentIntent())

	f.clock.Advance(2500 * time.Millisecond)
	f.session.tryExecuteIntent(f.clock.Now())
	assert.Less(t, e.HP, 50)
}

func TestIntent_DefersWhileMoving(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))

	require.NoError(t, f.session.SetBasicAttackIntent(e.ID))
	f.mover.moving = true
	f.session.tryExecuteIntent(f.clock.Now())
	assert.Equal(t, 50, e.HP)

	f.mover.moving = false
	f.session.tryExecuteIntent(f.clock.Now())
	assert.Less(t, e.HP, 50)
}

func TestNotifyEnemyDisengaged(t *testing.T) {
	f := newFixture(openField{})
	a := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))
	b := f.addEnemy(testEnemy(101, model.Point{X: 12, Y: 10}))

	require.NoError(t, f.session.SetBasicAttackIntent(a.ID))

	// A different enemy disengaging leaves the intent alone.
	f.session.NotifyEnemyDisengaged(b.ID)
	assert.NotNil(t, f.session.CurrentIntent())

	f.session.NotifyEnemyDisengaged(a.ID)
	assert.Nil(t, f.session.CurrentIntent())
	assert.Equal(t, 1, f.mover.cancelCalls)
}

func TestDisengage_CancelsEverything(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))
	e.HP, e.MaxHP = 500, 500

	require.NoError(t, f.session.SetAbilityIntent(1, e.ID))
	f.session.tryExecuteIntent(f.clock.Now())
	require.NotZero(t, f.session.deferred.Pending())

	f.session.Disengage()

	assert.Nil(t, f.session.CurrentIntent())
	assert.Zero(t, f.session.deferred.Pending())
	assert.Equal(t, 1, f.mover.cancelCalls)
}

func TestSetIntent_RejectsInvalidTargets(t *testing.T) {
	f := newFixture(openField{})

	dead := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))
	dead.HP = 0
	retreating := f.addEnemy(testEnemy(101, model.Point{X: 12, Y: 10}))
	retreating.State = model.StateRetreating

	assert.Error(t, f.session.SetBasicAttackIntent(dead.ID))
	assert.Error(t, f.session.SetBasicAttackIntent(retreating.ID))
	assert.Error(t, f.session.SetBasicAttackIntent(999))
	assert.Nil(t, f.session.CurrentIntent())
}
