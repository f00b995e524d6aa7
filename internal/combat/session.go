package combat

import (
	"log/slog"
	"time"

	"github.com/udisondev/emberfall/internal/config"
	"github.com/udisondev/emberfall/internal/model"
)

// EntityKind classifies what occupies a tile.
type EntityKind int32

const (
	EntityObject EntityKind = iota
	EntityNpc
	EntityEnemy
	EntityBoss
)

// EntityRef identifies an entity found on a tile.
type EntityRef struct {
	ID   uint32
	Kind EntityKind
}

// GuardPost is a stationary protective guard on the map (friendly-side
// mechanism, distinct from the GUARD enemy behavior).
type GuardPost struct {
	Pos   model.Point
	Level int
}

// SpatialQuery is the read-only spatial service the core consumes. A grid
// implementation lives in internal/geo; tests supply fakes. Implementations
// must respect conditional, flag-gated visibility.
type SpatialQuery interface {
	IsWalkable(x, y int) bool
	HasLineOfSight(x1, y1, x2, y2 int) bool
	EntityAt(x, y int) (EntityRef, bool)
	NearestGuard(x, y int) (GuardPost, bool)
}

// Mover is the player's movement/pathing collaborator.
type Mover interface {
	PathTo(x, y int) error
	CancelPath()
	IsMoving() bool
}

// EffectSink receives fire-and-forget rendering events. No return values;
// the core never depends on the renderer.
type EffectSink interface {
	DamageNumber(targetID uint32, amount int, crit bool)
	ShowAttack(attackerID, targetID uint32, ranged bool)
	HealthChanged(id uint32)
	StatusChanged(id uint32)
	LogLine(text string)
}

// SaveRequester receives a save request after any state-changing combat
// outcome. Implementations must not block the tick.
type SaveRequester interface {
	RequestSave(reason string)
}

// DeathObserverFunc is notified once per enemy death, carrying identity
// for respawn bookkeeping and quest progress.
type DeathObserverFunc func(e *model.Enemy, killerID uint32)

// Session is the combat simulation context: all mutable combat state
// (current intent, attacker-slot table, provoked set, live enemies) hangs
// off it explicitly so multiple simulations can run side by side and tests
// need no global resets.
type Session struct {
	bal  config.Balance
	roll Roller
	now  func() time.Time

	player  *model.Player
	enemies *model.EnemyList

	slots  *SlotTable
	intent *Intent
	// autoAttack remembers that the player wants basic attacks to continue,
	// so a one-shot ability execution re-installs a basic intent.
	autoAttack bool

	// provoked maps enemy ID to expiry; reclaimed lazily on access.
	// Lets passive enemies become temporarily hostile without
	// reclassification.
	provoked map[uint32]time.Time

	// storyFlags gate conditional enemies and conditional tiles.
	storyFlags map[string]bool

	deferred taskQueue

	// incoming delivers enemies spawned on other goroutines to the tick
	// thread; drained at the top of every Tick. All other session state is
	// touched by the tick goroutine only.
	incoming chan *model.Enemy

	lastHit *DamageBreakdown

	spatial SpatialQuery
	mover   Mover
	effects EffectSink
	saver   SaveRequester

	deathObservers []DeathObserverFunc
}

// SessionOptions carries the collaborators a session is built from.
// Spatial and Mover are required; the rest are optional (missing ones are
// logged once as warnings and combat proceeds without the side effect).
type SessionOptions struct {
	Balance config.Balance
	Seed    uint64
	Now     func() time.Time
	Player  *model.Player
	Spatial SpatialQuery
	Mover   Mover
	Effects EffectSink
	Saver   SaveRequester
}

// NewSession creates a combat session.
func NewSession(opts SessionOptions) *Session {
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	s := &Session{
		bal:        opts.Balance,
		roll:       NewRoller(opts.Seed),
		now:        nowFn,
		player:     opts.Player,
		enemies:    model.NewEnemyList(),
		slots:      NewSlotTable(opts.Balance.SlotCapacity, opts.Balance.SlotLease()),
		provoked:   make(map[uint32]time.Time),
		incoming:   make(chan *model.Enemy, incomingBuffer),
		storyFlags: make(map[string]bool),
		spatial:    opts.Spatial,
		mover:      opts.Mover,
		effects:    opts.Effects,
		saver:      opts.Saver,
	}
	return s
}

// SetRoller replaces the session's randomness source (tests pin rolls).
func (s *Session) SetRoller(r Roller) {
	s.roll = r
}

// Now returns the session's current time.
func (s *Session) Now() time.Time {
	return s.now()
}

// Player returns the player actor.
func (s *Session) Player() *model.Player {
	return s.player
}

// Enemies returns the shared live-enemy collection.
func (s *Session) Enemies() *model.EnemyList {
	return s.enemies
}

// Slots returns the attacker-slot table.
func (s *Session) Slots() *SlotTable {
	return s.slots
}

// LastHit returns the debug breakdown of the most recent damage
// computation, or nil before the first hit.
func (s *Session) LastHit() *DamageBreakdown {
	return s.lastHit
}

// OnEnemyDeath registers a death observer (spawn director, quest tracker).
func (s *Session) OnEnemyDeath(fn DeathObserverFunc) {
	s.deathObservers = append(s.deathObservers, fn)
}

// incomingBuffer bounds the spawn intake channel; a burst beyond it
// drops spawns instead of blocking the spawner.
const incomingBuffer = 128

// EnqueueEnemy hands a freshly spawned enemy to the tick thread. Safe to
// call from any goroutine; the enemy joins the session at the start of
// the next Tick.
func (s *Session) EnqueueEnemy(e *model.Enemy) {
	select {
	case s.incoming <- e:
	default:
		slog.Warn("spawn intake full, enemy dropped", "id", e.ID, "type", e.Type)
	}
}

func (s *Session) drainIncoming() {
	for {
		select {
		case e := <-s.incoming:
			s.AddEnemy(e)
		default:
			return
		}
	}
}

// AddEnemy pushes a freshly spawned enemy into the live collection and
// starts its settle/immunity windows. Tick-thread only; spawners on
// other goroutines go through EnqueueEnemy.
func (s *Session) AddEnemy(e *model.Enemy) {
	now := s.now()
	e.SpawnSettleUntil = now.Add(s.bal.SpawnSettle())
	e.SpawnImmuneUntil = now.Add(s.bal.SpawnImmunity())
	s.enemies.Add(e)

	if IsDebugEnabled() {
		slog.Debug("enemy spawned",
			"enemy", e.Name,
			"id", e.ID,
			"behavior", e.Behavior,
			"home", e.Home)
	}
}

// SetStoryFlag sets a story flag; conditional enemies keyed on it become
// aggressive, flag-gated tiles flip visibility/solidity.
func (s *Session) SetStoryFlag(name string) {
	s.storyFlags[name] = true
}

// FlagSet reports whether a story flag is set.
func (s *Session) FlagSet(name string) bool {
	return s.storyFlags[name]
}

// Provoke marks an enemy temporarily hostile (e.g. the player struck a
// passive one). The entry expires on its own; reclaimed lazily.
func (s *Session) Provoke(enemyID uint32) {
	s.provoked[enemyID] = s.now().Add(s.bal.ProvokeDuration())
}

// IsProvoked reports whether an enemy is currently provoked, lazily
// evicting expired entries.
func (s *Session) IsProvoked(enemyID uint32, now time.Time) bool {
	exp, ok := s.provoked[enemyID]
	if !ok {
		return false
	}
	if !now.Before(exp) {
		delete(s.provoked, enemyID)
		return false
	}
	return true
}

// ClearProvoked removes an enemy's provoked entry.
func (s *Session) ClearProvoked(enemyID uint32) {
	delete(s.provoked, enemyID)
}

// emit helpers tolerate missing collaborators (error taxonomy: missing
// external data degrades to a warning-free no-op for effects, which are
// purely cosmetic).

func (s *Session) emitDamage(targetID uint32, amount int, crit bool) {
	if s.effects != nil {
		s.effects.DamageNumber(targetID, amount, crit)
		s.effects.HealthChanged(targetID)
	}
}

func (s *Session) emitAttack(attackerID, targetID uint32, ranged bool) {
	if s.effects != nil {
		s.effects.ShowAttack(attackerID, targetID, ranged)
	}
}

func (s *Session) emitStatus(id uint32) {
	if s.effects != nil {
		s.effects.StatusChanged(id)
	}
}

func (s *Session) emitLog(text string) {
	if s.effects != nil {
		s.effects.LogLine(text)
	}
}

func (s *Session) requestSave(reason string) {
	if s.saver == nil {
		slog.Warn("save requested but no persistence hooked up", "reason", reason)
		return
	}
	s.saver.RequestSave(reason)
}

// hasLOS checks line of sight between two points via the spatial service.
func (s *Session) hasLOS(a, b model.Point) bool {
	if s.spatial == nil {
		return true
	}
	return s.spatial.HasLineOfSight(a.X, a.Y, b.X, b.Y)
}

// tileFree reports whether a tile is walkable and unoccupied by a living
// actor.
func (s *Session) tileFree(p model.Point) bool {
	if s.spatial != nil && !s.spatial.IsWalkable(p.X, p.Y) {
		return false
	}
	if s.player != nil && !s.player.IsDead() && s.player.Pos.Equals(p) {
		return false
	}
	if _, occupied := s.enemies.EnemyAt(p); occupied {
		return false
	}
	return true
}
