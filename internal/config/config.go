package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Server holds all configuration for the simulation server.
type Server struct {
	LogLevel string `yaml:"log_level"`

	// TickMillis is the fixed simulation tick period.
	TickMillis int `yaml:"tick_millis"`

	// Database connection for the combat journal. Optional: on connection
	// failure the server logs a warning and runs without persistence.
	Database DatabaseConfig `yaml:"database"`

	Balance Balance `yaml:"balance"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Balance is the tunable numeric combat model. Every knob the damage
// engine, slot leaseholder, intent system and retreat logic consume lives
// here so encounters can be re-balanced without code changes.
// Time values are milliseconds in YAML; Duration accessors convert.
type Balance struct {
	// Damage engine, full curve.
	DefenseK          float64 `yaml:"defense_k"`            // tankiness curve constant (lower = stronger defense)
	LevelUpPerDelta   float64 `yaml:"level_up_per_delta"`   // bonus per level above defender
	LevelCapUp        float64 `yaml:"level_cap_up"`         // cap when attacker outlevels defender
	LevelDownPerDelta float64 `yaml:"level_down_per_delta"` // penalty per level below attacker
	LevelCapDown      float64 `yaml:"level_cap_down"`       // floor when defender outlevels attacker
	VarianceLow       float64 `yaml:"variance_low"`
	VarianceHigh      float64 `yaml:"variance_high"`
	CritBase          float64 `yaml:"crit_base"`
	CritPerLuck       float64 `yaml:"crit_per_luck"`
	CritMult          float64 `yaml:"crit_mult"`

	// Damage engine, simplified basic path.
	BasicLevelScale float64 `yaml:"basic_level_scale"`
	VulnerableMult  float64 `yaml:"vulnerable_mult"`

	// Attacker slot leases.
	SlotCapacity       int `yaml:"slot_capacity"`
	SlotLeaseMillis    int `yaml:"slot_lease_millis"`
	SlotGiveUpDistance int `yaml:"slot_give_up_distance"` // tiles from player before a holder is evicted

	// Player intent.
	AttackCadenceMillis int `yaml:"attack_cadence_millis"`
	IntentTimeoutMillis int `yaml:"intent_timeout_millis"`
	IntentRetryMillis   int `yaml:"intent_retry_millis"`

	// Enemy AI.
	AlertDelayMillis        int     `yaml:"alert_delay_millis"`        // warning window before ALERT becomes ENGAGED
	LostSightTimeoutMillis  int     `yaml:"lost_sight_timeout_millis"` // LOS lost this long while engaged => de-aggro
	RepositionChance        float64 `yaml:"reposition_chance"`         // per-tick chance to reposition instead of spamming movement
	PatrolChance            float64 `yaml:"patrol_chance"`             // per-tick chance of a small idle patrol step
	PatrolRadius            int     `yaml:"patrol_radius"`             // max drift from home while unaware
	IdleRegenPercent        int     `yaml:"idle_regen_percent"`        // % of max HP per regen interval while unaware
	IdleRegenIntervalMillis int     `yaml:"idle_regen_interval_millis"`
	SpawnImmunityMillis     int     `yaml:"spawn_immunity_millis"` // blocks being attacked, not detection
	SpawnSettleMillis       int     `yaml:"spawn_settle_millis"`   // blocks attacking, not detection
	ProvokeDurationMillis   int     `yaml:"provoke_duration_millis"`
	BrokenOffMillis         int     `yaml:"broken_off_millis"`

	// Guard avoidance.
	GuardFearRadius  int `yaml:"guard_fear_radius"`
	GuardLevelMargin int `yaml:"guard_level_margin"` // guard outclasses the enemy at level >= enemy level + margin

	// Retreat.
	RetreatHealPercent     int `yaml:"retreat_heal_percent"`      // % of max HP per tick while retreating
	RetreatStuckNearMillis int `yaml:"retreat_stuck_near_millis"` // snap threshold within 2 tiles of home
	RetreatStuckFarMillis  int `yaml:"retreat_stuck_far_millis"`  // minimum snap threshold far from home
	RetreatTimeoutMillis   int `yaml:"retreat_timeout_millis"`    // global stuck timeout; far snap is 1.5x this
}

func millis(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// SlotLease returns the attacker-slot lease duration.
func (b Balance) SlotLease() time.Duration { return millis(b.SlotLeaseMillis) }

// AttackCadence returns the basic-attack cadence.
func (b Balance) AttackCadence() time.Duration { return millis(b.AttackCadenceMillis) }

// IntentTimeout returns the intent inactivity expiry.
func (b Balance) IntentTimeout() time.Duration { return millis(b.IntentTimeoutMillis) }

// IntentRetry returns the intent retry throttle.
func (b Balance) IntentRetry() time.Duration { return millis(b.IntentRetryMillis) }

// AlertDelay returns the warning window before ALERT resolves to ENGAGED.
func (b Balance) AlertDelay() time.Duration { return millis(b.AlertDelayMillis) }

// LostSightTimeout returns the de-aggro timeout after losing line of sight.
func (b Balance) LostSightTimeout() time.Duration { return millis(b.LostSightTimeoutMillis) }

// IdleRegenInterval returns the idle regeneration period.
func (b Balance) IdleRegenInterval() time.Duration { return millis(b.IdleRegenIntervalMillis) }

// SpawnImmunity returns the post-spawn/post-retreat immunity window.
func (b Balance) SpawnImmunity() time.Duration { return millis(b.SpawnImmunityMillis) }

// SpawnSettle returns the post-spawn settle window.
func (b Balance) SpawnSettle() time.Duration { return millis(b.SpawnSettleMillis) }

// ProvokeDuration returns how long a provoked entry lasts.
func (b Balance) ProvokeDuration() time.Duration { return millis(b.ProvokeDurationMillis) }

// BrokenOffDuration returns the forced-disengage window.
func (b Balance) BrokenOffDuration() time.Duration { return millis(b.BrokenOffMillis) }

// RetreatStuckNear returns the snap threshold for enemies near home.
func (b Balance) RetreatStuckNear() time.Duration { return millis(b.RetreatStuckNearMillis) }

// RetreatStuckFar returns the snap threshold for enemies far from home.
// The effective far threshold is max(this, 1.5x RetreatTimeout).
func (b Balance) RetreatStuckFar() time.Duration {
	far := millis(b.RetreatStuckFarMillis)
	global := millis(b.RetreatTimeoutMillis) * 3 / 2
	if global > far {
		return global
	}
	return far
}

// Default returns server configuration with the balance table the
// simulation was tuned against.
func Default() Server {
	return Server{
		LogLevel:   "info",
		TickMillis: 100,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "emberfall",
			Password: "emberfall",
			DBName:   "emberfall",
			SSLMode:  "disable",
		},
		Balance: DefaultBalance(),
	}
}

// DefaultBalance returns the tuned combat balance constants.
func DefaultBalance() Balance {
	return Balance{
		DefenseK:          20,
		LevelUpPerDelta:   0.07,
		LevelCapUp:        1.60,
		LevelDownPerDelta: 0.06,
		LevelCapDown:      0.55,
		VarianceLow:       0.95,
		VarianceHigh:      1.05,
		CritBase:          0.05,
		CritPerLuck:       0.02,
		CritMult:          1.5,

		BasicLevelScale: 0.05,
		VulnerableMult:  1.3,

		SlotCapacity:       2,
		SlotLeaseMillis:    1200,
		SlotGiveUpDistance: 12,

		AttackCadenceMillis: 1500,
		IntentTimeoutMillis: 20000,
		IntentRetryMillis:   250,

		AlertDelayMillis:        900,
		LostSightTimeoutMillis:  4000,
		RepositionChance:        0.3,
		PatrolChance:            0.05,
		PatrolRadius:            2,
		IdleRegenPercent:        2,
		IdleRegenIntervalMillis: 1000,
		SpawnImmunityMillis:     2000,
		SpawnSettleMillis:       1000,
		ProvokeDurationMillis:   15000,
		BrokenOffMillis:         6000,

		GuardFearRadius:  3,
		GuardLevelMargin: 2,

		RetreatHealPercent:     2,
		RetreatStuckNearMillis: 9000,
		RetreatStuckFarMillis:  2000,
		RetreatTimeoutMillis:   3000,
	}
}

// Load loads server config from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (Server, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// TickPeriod returns the tick period as a duration.
func (s Server) TickPeriod() time.Duration {
	if s.TickMillis <= 0 {
		return 100 * time.Millisecond
	}
	return millis(s.TickMillis)
}
