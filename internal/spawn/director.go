// Package spawn populates the session with enemies and brings them back
// after a delay when they die. The director owns the enemy templates and
// the respawn schedule; the combat core only ever sees finished
// model.Enemy values.
package spawn

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/udisondev/emberfall/internal/model"
)

// firstEnemyID is the base of the object ID range handed to spawned
// enemies, keeping them disjoint from player and guard IDs.
const firstEnemyID uint32 = 0x20000000

// Template describes one enemy kind. SpawnAt stamps a template into a
// live model.Enemy; the template itself is never mutated.
type Template struct {
	Type     string
	Name     string
	Behavior model.Behavior
	Weapon   *model.WeaponTemplate

	MaxHP int
	Level int
	Atk   int
	Def   int
	Luck  int

	IsAlpha         bool
	IsBoss          bool
	Passive         bool
	ConditionalFlag string

	LeashRadius int
	AggroRange  int

	// RespawnDelay is the base delay between death and respawn.
	// RespawnJitter widens it to [delay, delay+jitter). Zero delay
	// disables respawning for this template.
	RespawnDelay  time.Duration
	RespawnJitter time.Duration
}

// AddFunc injects a freshly built enemy into the live session.
type AddFunc func(e *model.Enemy)

type respawnTask struct {
	templateType string
	home         model.Point
	packID       int32
	dueAt        time.Time
}

// Director registers enemy templates, performs initial placement and
// schedules respawns when it observes deaths. It runs its own coarse
// ticker; respawn timing does not need combat-tick resolution.
type Director struct {
	add    AddFunc
	now    func() time.Time
	rng    *rand.Rand
	stopCh chan struct{}

	mu        sync.Mutex
	templates map[string]*Template
	tasks     []respawnTask
	nextID    uint32
}

// NewDirector creates a director that pushes spawned enemies through add.
// A nil now defaults to time.Now.
func NewDirector(add AddFunc, now func() time.Time) *Director {
	if now == nil {
		now = time.Now
	}
	return &Director{
		add:       add,
		now:       now,
		rng:       rand.New(rand.NewPCG(uint64(now().UnixNano()), 0xda3e39cb94b95bdb)),
		stopCh:    make(chan struct{}),
		templates: make(map[string]*Template),
		nextID:    firstEnemyID,
	}
}

// RegisterTemplate makes a template available for spawning, replacing any
// previous template of the same type.
func (d *Director) RegisterTemplate(t *Template) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.templates[t.Type] = t
}

// SpawnAt places one enemy of the given template type with the given home
// anchor and pack. Returns the spawned enemy, or nil for an unknown type.
func (d *Director) SpawnAt(templateType string, home model.Point, packID int32) *model.Enemy {
	d.mu.Lock()
	t, ok := d.templates[templateType]
	if !ok {
		d.mu.Unlock()
		slog.Error("spawn skipped (unknown template)", "type", templateType)
		return nil
	}
	id := d.nextID
	d.nextID++
	d.mu.Unlock()

	e := d.build(t, id, home, packID)
	d.add(e)
	return e
}

// EnemyDied is wired as a session death observer. It schedules a respawn
// of the dead enemy's template at its original home anchor.
func (d *Director) EnemyDied(e *model.Enemy, killerID uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.templates[e.Type]
	if !ok || t.RespawnDelay <= 0 {
		return
	}

	delay := t.RespawnDelay
	if t.RespawnJitter > 0 {
		delay += time.Duration(d.rng.Int64N(int64(t.RespawnJitter)))
	}
	dueAt := d.now().Add(delay)

	d.tasks = append(d.tasks, respawnTask{
		templateType: e.Type,
		home:         e.Home,
		packID:       e.PackID,
		dueAt:        dueAt,
	})

	slog.Debug("respawn scheduled",
		"type", e.Type,
		"home", e.Home,
		"delay", delay,
		"dueAt", dueAt.Format(time.RFC3339))
}

// Run executes due respawns once per second (blocks until the context is
// canceled or Stop is called).
func (d *Director) Run(ctx context.Context) error {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	slog.Info("spawn director started", "interval", "1s")

	for {
		select {
		case <-ctx.Done():
			slog.Info("spawn director stopping")
			return ctx.Err()

		case <-d.stopCh:
			slog.Info("spawn director stopped")
			return nil

		case <-ticker.C:
			d.Tick(d.now())
		}
	}
}

// Stop stops the director's run loop.
func (d *Director) Stop() {
	close(d.stopCh)
}

// Tick executes every respawn task due at now. Exposed so tests can drive
// the director without the ticker.
func (d *Director) Tick(now time.Time) {
	d.mu.Lock()
	due := make([]respawnTask, 0)
	remaining := d.tasks[:0]
	for _, task := range d.tasks {
		if !task.dueAt.After(now) {
			due = append(due, task)
		} else {
			remaining = append(remaining, task)
		}
	}
	d.tasks = remaining
	d.mu.Unlock()

	for _, task := range due {
		e := d.SpawnAt(task.templateType, task.home, task.packID)
		if e != nil {
			slog.Info("enemy respawned", "type", e.Type, "id", e.ID, "home", e.Home)
		}
	}
}

// TaskCount returns the number of pending respawn tasks.
func (d *Director) TaskCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}

func (d *Director) build(t *Template, id uint32, home model.Point, packID int32) *model.Enemy {
	return &model.Enemy{
		Actor: model.Actor{
			ID:    id,
			Name:  t.Name,
			Pos:   home,
			HP:    t.MaxHP,
			MaxHP: t.MaxHP,
			Level: t.Level,
			Atk:   t.Atk,
			Def:   t.Def,
			Luck:  t.Luck,
		},
		Type:            t.Type,
		Behavior:        t.Behavior,
		Weapon:          t.Weapon,
		IsAlpha:         t.IsAlpha,
		IsBoss:          t.IsBoss,
		Passive:         t.Passive,
		ConditionalFlag: t.ConditionalFlag,
		PackID:          packID,
		Home:            home,
		LeashRadius:     t.LeashRadius,
		AggroRange:      t.AggroRange,
		State:           model.StateUnaware,
	}
}
