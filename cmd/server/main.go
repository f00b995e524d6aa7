package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/emberfall/internal/combat"
	"github.com/udisondev/emberfall/internal/config"
	"github.com/udisondev/emberfall/internal/geo"
	"github.com/udisondev/emberfall/internal/model"
	"github.com/udisondev/emberfall/internal/persist"
	"github.com/udisondev/emberfall/internal/spawn"
)

const DefaultConfigPath = "config/server.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil && err != context.Canceled {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := flag.String("config", DefaultConfigPath, "path to server config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	combat.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("emberfall combat server starting",
		"log_level", cfg.LogLevel,
		"tick", cfg.TickPeriod())

	g, gctx := errgroup.WithContext(ctx)

	// Persistence is optional for local runs: warn and continue without it.
	var journal *persist.Journal
	if cfg.Database.Host != "" {
		if err := persist.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			slog.Warn("migrations failed, running without persistence", "error", err)
		} else if journal, err = persist.New(ctx, cfg.Database.DSN()); err != nil {
			slog.Warn("database unavailable, running without persistence", "error", err)
			journal = nil
		} else {
			defer journal.Close()
			slog.Info("combat journal connected", "host", cfg.Database.Host)
			g.Go(func() error {
				return journal.Run(gctx)
			})
		}
	}

	// The grid consults story flags held by the session; the session needs
	// the grid as its spatial service. Close over the session variable and
	// assign it below.
	var session *combat.Session
	grid := buildDemoGrid(func(flag string) bool {
		return session != nil && session.FlagSet(flag)
	})

	player := &model.Player{
		Actor: model.Actor{
			ID:    1,
			Name:  "Wanderer",
			Pos:   model.Point{X: 20, Y: 20},
			HP:    120,
			MaxHP: 120,
			Level: 5,
			Atk:   9,
			Def:   6,
			Luck:  2,
		},
		Mode:   model.ModeNormal,
		Weapon: demoPlayerWeapon(),
	}

	walker := geo.NewWalker(grid, &player.Pos)

	opts := combat.SessionOptions{
		Balance: cfg.Balance,
		Seed:    uint64(time.Now().UnixNano()),
		Player:  player,
		Spatial: grid,
		Mover:   walker,
		Effects: &logEffects{},
	}
	if journal != nil {
		opts.Saver = journal
	}
	session = combat.NewSession(opts)
	if journal != nil {
		session.OnEnemyDeath(journal.RecordKill)
	}

	// The director runs on its own goroutine; spawned enemies cross to the
	// tick thread through the session's intake channel, never directly.
	director := spawn.NewDirector(session.EnqueueEnemy, nil)
	session.OnEnemyDeath(director.EnemyDied)
	registerDemoTemplates(director)
	spawned := placeDemoSpawns(director, grid)

	scheduler := combat.NewScheduler(session, cfg.TickPeriod())
	scheduler.OnTick(func(now time.Time) {
		walker.Step()
	})

	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		return director.Run(gctx)
	})

	slog.Info("simulation running",
		"spawns", spawned,
		"grid", fmt.Sprintf("%dx%d", grid.Width(), grid.Height()))

	return g.Wait()
}

// buildDemoGrid assembles a small arena: an open field, a wall segment
// that blocks line of sight, a flag-gated passage and a guard post.
func buildDemoGrid(flags geo.FlagFunc) *geo.Grid {
	grid := geo.NewGrid(64, 64, flags)

	for y := 10; y <= 16; y++ {
		grid.SetWall(30, y)
	}
	for x := 40; x <= 44; x++ {
		grid.SetConditionalWall(x, 25, "gate_opened")
	}

	grid.AddGuard(18, 18, 10)

	return grid
}

func demoPlayerWeapon() *model.WeaponTemplate {
	return &model.WeaponTemplate{
		Name:       "Worn Shortbow",
		BaseDamage: 7,
		Range:      6,
		Cooldown:   1500 * time.Millisecond,
		Abilities: []model.Ability{
			{
				Name:        "Piercing Shot",
				BaseDamage:  12,
				SkillMult:   1.4,
				Range:       7,
				RequiresLOS: true,
			},
			{
				Name:          "Triple Volley",
				BaseDamage:    6,
				SkillMult:     0.8,
				Range:         6,
				RequiresLOS:   true,
				BurstCount:    3,
				BurstInterval: 200 * time.Millisecond,
			},
		},
	}
}

func registerDemoTemplates(director *spawn.Director) {
	director.RegisterTemplate(&spawn.Template{
		Type:     "forest_wolf",
		Name:     "Forest Wolf",
		Behavior: model.BehaviorMelee,
		Weapon: &model.WeaponTemplate{
			Name:       "Bite",
			BaseDamage: 5,
			Range:      1,
			Cooldown:   1800 * time.Millisecond,
		},
		MaxHP:        45,
		Level:        4,
		Atk:          6,
		Def:          4,
		LeashRadius:  12,
		AggroRange:   7,
		RespawnDelay: 20 * time.Second, RespawnJitter: 10 * time.Second,
	})

	director.RegisterTemplate(&spawn.Template{
		Type:     "ember_archer",
		Name:     "Ember Archer",
		Behavior: model.BehaviorRanged,
		Weapon: &model.WeaponTemplate{
			Name:        "Ember Bow",
			BaseDamage:  8,
			Range:       8,
			MinRange:    3,
			Cooldown:    2200 * time.Millisecond,
			RequiresLOS: true,
		},
		MaxHP:        38,
		Level:        6,
		Atk:          8,
		Def:          3,
		LeashRadius:  14,
		AggroRange:   9,
		RespawnDelay: 30 * time.Second, RespawnJitter: 10 * time.Second,
	})

	director.RegisterTemplate(&spawn.Template{
		Type:     "alpha_wolf",
		Name:     "Alpha Wolf",
		Behavior: model.BehaviorMelee,
		Weapon: &model.WeaponTemplate{
			Name:       "Savage Bite",
			BaseDamage: 9,
			Range:      1,
			Cooldown:   1500 * time.Millisecond,
		},
		MaxHP:        90,
		Level:        7,
		Atk:          10,
		Def:          6,
		IsAlpha:      true,
		LeashRadius:  12,
		AggroRange:   8,
		RespawnDelay: 60 * time.Second, RespawnJitter: 20 * time.Second,
	})

	// Passive until attacked.
	director.RegisterTemplate(&spawn.Template{
		Type:     "grazing_deer",
		Name:     "Grazing Deer",
		Behavior: model.BehaviorMelee,
		Weapon: &model.WeaponTemplate{
			Name:       "Kick",
			BaseDamage: 2,
			Range:      1,
			Cooldown:   2000 * time.Millisecond,
		},
		MaxHP:        20,
		Level:        1,
		Atk:          2,
		Def:          1,
		Passive:      true,
		LeashRadius:  10,
		AggroRange:   5,
		RespawnDelay: 15 * time.Second,
	})
}

func placeDemoSpawns(director *spawn.Director, grid *geo.Grid) int {
	spawns := []struct {
		templateType string
		at           model.Point
		pack         int32
	}{
		// A wolf pack east of the player.
		{"alpha_wolf", model.Point{X: 34, Y: 20}, 1},
		{"forest_wolf", model.Point{X: 36, Y: 19}, 1},
		{"forest_wolf", model.Point{X: 36, Y: 22}, 1},
		// Lone archer behind the wall segment.
		{"ember_archer", model.Point{X: 28, Y: 13}, 0},
		// Harmless wildlife near the guard post.
		{"grazing_deer", model.Point{X: 15, Y: 22}, 0},
	}

	placed := 0
	for _, sp := range spawns {
		if director.SpawnAt(sp.templateType, sp.at, sp.pack) != nil {
			placed++
		}
	}
	return placed
}

// logEffects renders combat events as log lines. A real client would
// subscribe here instead.
type logEffects struct{}

func (logEffects) DamageNumber(targetID uint32, amount int, crit bool) {
	slog.Info("damage", "target", targetID, "amount", amount, "crit", crit)
}

func (logEffects) ShowAttack(attackerID, targetID uint32, ranged bool) {
	slog.Debug("attack", "attacker", attackerID, "target", targetID, "ranged", ranged)
}

func (logEffects) HealthChanged(id uint32) {}

func (logEffects) StatusChanged(id uint32) {
	slog.Debug("status changed", "id", id)
}

func (logEffects) LogLine(text string) {
	slog.Info(text)
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
