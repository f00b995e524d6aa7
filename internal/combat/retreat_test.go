package combat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/emberfall/internal/model"
)

func TestStartRetreat_FixesDestinationAndDropsEngagement(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))
	e.Home = model.Point{X: 18, Y: 10}
	e.State = model.StateEngaged

	now := f.clock.Now()
	require.True(t, f.session.slots.Acquire(e.ID, now))
	require.NoError(t, f.session.SetBasicAttackIntent(e.ID))

	f.session.startRetreat(e, retreatLeash, now)

	assert.Equal(t, model.StateRetreating, e.State)
	require.NotNil(t, e.RetreatTo)
	assert.Equal(t, e.Home, *e.RetreatTo)
	assert.False(t, f.session.slots.Holds(e.ID, now))
	// The player's pursuit of this target ends immediately.
	assert.Nil(t, f.session.CurrentIntent())
}

func TestStartRetreat_PackMembersKeepOwnAnchors(t *testing.T) {
	f := newFixture(openField{})
	a := f.addEnemy(testEnemy(100, model.Point{X: 11, Y: 10}))
	a.Home = model.Point{X: 20, Y: 10}
	a.PackID = 3
	a.State = model.StateEngaged
	b := f.addEnemy(testEnemy(101, model.Point{X: 12, Y: 10}))
	b.Home = model.Point{X: 24, Y: 14}
	b.PackID = 3
	b.State = model.StateEngaged
	idle := f.addEnemy(testEnemy(102, model.Point{X: 13, Y: 10}))
	idle.PackID = 3

	f.session.startRetreat(a, retreatLeash, f.clock.Now())

	// Every fighting member retreats, each to its own anchor; unaware
	// members are left alone.
	require.NotNil(t, a.RetreatTo)
	require.NotNil(t, b.RetreatTo)
	assert.Equal(t, a.Home, *a.RetreatTo)
	assert.Equal(t, b.Home, *b.RetreatTo)
	assert.Equal(t, model.StateUnaware, idle.State)
}

func TestTickRetreat_StepsAndHeals(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 14, Y: 10}))
	e.Home = model.Point{X: 18, Y: 10}
	e.HP = 25
	e.State = model.StateEngaged

	now := f.clock.Now()
	f.session.startRetreat(e, retreatLeash, now)
	f.session.tickRetreat(e, now)

	assert.Equal(t, model.Point{X: 15, Y: 10}, e.Pos)
	assert.Equal(t, 26, e.HP) // +2% of 50
}

func TestTickRetreat_ArrivalRestoresAndProtects(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 17, Y: 10}))
	e.Home = model.Point{X: 18, Y: 10}
	e.HP = 10
	e.State = model.StateEngaged
	f.session.Provoke(e.ID)

	now := f.clock.Now()
	f.session.startRetreat(e, retreatLeash, now)
	f.session.tickRetreat(e, now)

	assert.Equal(t, e.Home, e.Pos)
	assert.Equal(t, model.StateUnaware, e.State)
	assert.Equal(t, e.MaxHP, e.HP)
	assert.Nil(t, e.RetreatTo)
	assert.True(t, e.IsSpawnImmune(now.Add(time.Second)))
	assert.False(t, f.session.IsProvoked(e.ID, now))
}

func TestTickRetreat_AvoidsForeignFootprint(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 14, Y: 10}))
	e.Home = model.Point{X: 18, Y: 10}
	e.State = model.StateEngaged

	// Another living enemy's 3x3 footprint covers the straight path.
	other := f.addEnemy(testEnemy(101, model.Point{X: 16, Y: 9}))
	other.Home = model.Point{X: 16, Y: 9}

	now := f.clock.Now()
	f.session.startRetreat(e, retreatLeash, now)
	f.session.tickRetreat(e, now)

	// Detours below the footprint instead of cutting through it.
	assert.Equal(t, model.Point{X: 15, Y: 11}, e.Pos)
}

func TestTickRetreat_CrossesFootprintWhenNoAlternative(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 14, Y: 10}))
	e.Home = model.Point{X: 18, Y: 10}
	e.State = model.StateEngaged

	// Footprint wide enough that every closer tile is inside it.
	other := f.addEnemy(testEnemy(101, model.Point{X: 15, Y: 10}))
	other.Home = model.Point{X: 15, Y: 10}
	other.Pos = model.Point{X: 16, Y: 10} // off the stepped tile

	now := f.clock.Now()
	f.session.startRetreat(e, retreatLeash, now)
	f.session.tickRetreat(e, now)

	// Crossing beats freezing in place.
	assert.Equal(t, model.Point{X: 15, Y: 10}, e.Pos)
}

func TestTickRetreat_SnapsAfterStuckTimeout(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 13, Y: 10}))
	e.Home = model.Point{X: 18, Y: 10}
	e.State = model.StateEngaged
	e.RootUntil = f.clock.Now().Add(time.Hour) // permanently blocked

	now := f.clock.Now()
	f.session.startRetreat(e, retreatLeash, now)

	f.session.tickRetreat(e, now)
	assert.Equal(t, model.Point{X: 13, Y: 10}, e.Pos)

	// Short of the threshold: still waiting.
	f.clock.Advance(f.session.bal.RetreatStuckFar() - time.Second)
	f.session.tickRetreat(e, f.clock.Now())
	assert.Equal(t, model.Point{X: 13, Y: 10}, e.Pos)

	// Past it: teleported home and recovered.
	f.clock.Advance(2 * time.Second)
	f.session.tickRetreat(e, f.clock.Now())
	assert.Equal(t, e.Home, e.Pos)
	assert.Equal(t, model.StateUnaware, e.State)
}

func TestTickRetreat_SnapIntoFootprintWhenAnchorOccupied(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 13, Y: 10}))
	e.Home = model.Point{X: 18, Y: 10}
	e.State = model.StateEngaged
	e.RootUntil = f.clock.Now().Add(time.Hour)

	// A living enemy parked exactly on the anchor.
	squatter := f.addEnemy(testEnemy(101, model.Point{X: 18, Y: 10}))
	_ = squatter

	now := f.clock.Now()
	f.session.startRetreat(e, retreatLeash, now)
	f.session.tickRetreat(e, now)

	f.clock.Advance(f.session.bal.RetreatStuckFar() + time.Second)
	f.session.tickRetreat(e, f.clock.Now())

	// Landed inside its own 3x3 footprint, not on the anchor, and the
	// retreat is still running: footprint snaps are not arrivals.
	assert.True(t, e.Pos.WithinFootprint(e.Home))
	assert.NotEqual(t, e.Home, e.Pos)
	assert.Equal(t, model.StateRetreating, e.State)
}

func TestTickRetreat_SnapIntoFootprintWhenPlayerOnAnchor(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 13, Y: 10}))
	e.Home = model.Point{X: 18, Y: 10}
	e.State = model.StateEngaged
	e.RootUntil = f.clock.Now().Add(time.Hour)

	// The player parked exactly on the anchor.
	f.player.Pos = model.Point{X: 18, Y: 10}

	now := f.clock.Now()
	f.session.startRetreat(e, retreatLeash, now)
	f.session.tickRetreat(e, now)

	f.clock.Advance(f.session.bal.RetreatStuckFar() + time.Second)
	f.session.tickRetreat(e, f.clock.Now())

	// Never teleports onto the player; lands beside the anchor instead.
	assert.True(t, e.Pos.WithinFootprint(e.Home))
	assert.NotEqual(t, f.player.Pos, e.Pos)
	assert.Equal(t, model.StateRetreating, e.State)
}

func TestSnapThreshold_AsymmetricNearVsFar(t *testing.T) {
	f := newFixture(openField{})
	e := f.addEnemy(testEnemy(100, model.Point{X: 17, Y: 10}))
	e.Home = model.Point{X: 18, Y: 10}

	near := f.session.snapThreshold(e, e.Home)
	e.Pos = model.Point{X: 10, Y: 10}
	far := f.session.snapThreshold(e, e.Home)

	assert.Equal(t, f.session.bal.RetreatStuckNear(), near)
	assert.Equal(t, f.session.bal.RetreatStuckFar(), far)
	assert.Greater(t, near, far)
}
