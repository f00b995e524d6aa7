package combat

import (
	"time"

	"github.com/udisondev/emberfall/internal/config"
	"github.com/udisondev/emberfall/internal/model"
)

// stubRoller pins every roll: Variance always returns variance, Chance
// always returns crit, IntN always returns 0. With crit=false the random
// behaviors (patrol, reposition, slow skips) never fire, which keeps AI
// tests deterministic.
type stubRoller struct {
	variance float64
	crit     bool
}

func (r stubRoller) Variance(lo, hi float64) float64 { return r.variance }
func (r stubRoller) Chance(p float64) bool           { return r.crit }
func (r stubRoller) IntN(n int) int                  { return 0 }

// testClock is a manually advanced clock.
type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// openField is an unobstructed spatial service without guards.
type openField struct{}

func (openField) IsWalkable(x, y int) bool                { return true }
func (openField) HasLineOfSight(x1, y1, x2, y2 int) bool  { return true }
func (openField) EntityAt(x, y int) (EntityRef, bool)     { return EntityRef{}, false }
func (openField) NearestGuard(x, y int) (GuardPost, bool) { return GuardPost{}, false }

// wallField blocks line of sight across a vertical wall at x=wallX and
// optionally hosts one guard.
type wallField struct {
	wallX    int
	guard    GuardPost
	hasGuard bool
}

func (f wallField) IsWalkable(x, y int) bool { return x != f.wallX }

func (f wallField) HasLineOfSight(x1, y1, x2, y2 int) bool {
	if x1 == x2 {
		return true
	}
	lo, hi := x1, x2
	if lo > hi {
		lo, hi = hi, lo
	}
	return !(lo < f.wallX && f.wallX < hi)
}

func (f wallField) EntityAt(x, y int) (EntityRef, bool) { return EntityRef{}, false }

func (f wallField) NearestGuard(x, y int) (GuardPost, bool) {
	return f.guard, f.hasGuard
}

// recordingMover counts pathing calls without moving anything.
type recordingMover struct {
	pathCalls   int
	lastX       int
	lastY       int
	cancelCalls int
	moving      bool
}

func (m *recordingMover) PathTo(x, y int) error {
	m.pathCalls++
	m.lastX, m.lastY = x, y
	return nil
}

func (m *recordingMover) CancelPath()    { m.cancelCalls++ }
func (m *recordingMover) IsMoving() bool { return m.moving }

// recordingEffects captures emitted effects for assertions.
type recordingEffects struct {
	damage []int
	logs   []string
}

func (e *recordingEffects) DamageNumber(targetID uint32, amount int, crit bool) {
	e.damage = append(e.damage, amount)
}
func (e *recordingEffects) ShowAttack(attackerID, targetID uint32, ranged bool) {}
func (e *recordingEffects) HealthChanged(id uint32)                            {}
func (e *recordingEffects) StatusChanged(id uint32)                            {}
func (e *recordingEffects) LogLine(text string) {
	e.logs = append(e.logs, text)
}

type sessionFixture struct {
	session *Session
	clock   *testClock
	mover   *recordingMover
	effects *recordingEffects
	player  *model.Player
}

func newFixture(spatial SpatialQuery) *sessionFixture {
	clock := newTestClock()
	mover := &recordingMover{}
	effects := &recordingEffects{}

	player := &model.Player{
		Actor: model.Actor{
			ID:    1,
			Name:  "Hero",
			Pos:   model.Point{X: 10, Y: 10},
			HP:    100,
			MaxHP: 100,
			Level: 5,
			Atk:   9,
			Def:   6,
			Luck:  0,
		},
		Mode: model.ModeNormal,
		Weapon: &model.WeaponTemplate{
			Name:       "Sword",
			BaseDamage: 12,
			Range:      1,
			Abilities: []model.Ability{
				{Name: "Cleave", BaseDamage: 15, SkillMult: 1.2, Range: 1},
				{
					Name:          "Flurry",
					BaseDamage:    6,
					SkillMult:     0.8,
					Range:         1,
					BurstCount:    3,
					BurstInterval: 200 * time.Millisecond,
				},
			},
		},
	}

	s := NewSession(SessionOptions{
		Balance: config.DefaultBalance(),
		Now:     clock.Now,
		Player:  player,
		Spatial: spatial,
		Mover:   mover,
		Effects: effects,
	})
	s.SetRoller(stubRoller{variance: 1})

	return &sessionFixture{
		session: s,
		clock:   clock,
		mover:   mover,
		effects: effects,
		player:  player,
	}
}

// addEnemy inserts an enemy directly, bypassing the spawn windows that
// AddEnemy would start.
func (f *sessionFixture) addEnemy(e *model.Enemy) *model.Enemy {
	f.session.enemies.Add(e)
	return e
}

func testEnemy(id uint32, pos model.Point) *model.Enemy {
	return &model.Enemy{
		Actor: model.Actor{
			ID:    id,
			Name:  "Wolf",
			Pos:   pos,
			HP:    50,
			MaxHP: 50,
			Level: 4,
			Atk:   6,
			Def:   4,
		},
		Type:     "wolf",
		Behavior: model.BehaviorMelee,
		Weapon: &model.WeaponTemplate{
			Name:       "Bite",
			BaseDamage: 5,
			Range:      1,
			Cooldown:   1500 * time.Millisecond,
		},
		Home:        pos,
		LeashRadius: 10,
		AggroRange:  6,
		State:       model.StateUnaware,
	}
}
