// Package persist writes combat outcomes to PostgreSQL. The combat core
// runs single-threaded at tick cadence and must never wait on the
// database, so everything here goes through a buffered channel drained by
// a background flusher; a full buffer drops the event with a warning
// rather than stalling the tick.
package persist

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/emberfall/internal/model"
)

const eventBuffer = 256

type eventKind int

const (
	eventSave eventKind = iota
	eventKill
)

type event struct {
	kind   eventKind
	at     time.Time
	reason string

	// Kill fields.
	enemyType string
	enemyID   uint32
	killerID  uint32
	packID    int32
	alpha     bool
	boss      bool
}

// Journal records save requests and enemy kills. It implements
// combat.SaveRequester and its RecordKill method matches
// combat.DeathObserverFunc.
type Journal struct {
	pool   *pgxpool.Pool
	events chan event
}

// New connects to PostgreSQL and returns a journal handle.
func New(ctx context.Context, dsn string) (*Journal, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Journal{
		pool:   pool,
		events: make(chan event, eventBuffer),
	}, nil
}

// Close closes the database connection pool.
func (j *Journal) Close() {
	j.pool.Close()
}

// RequestSave enqueues a save-point record. Never blocks.
func (j *Journal) RequestSave(reason string) {
	j.enqueue(event{kind: eventSave, at: time.Now(), reason: reason})
}

// RecordKill enqueues a kill record. Wired as a session death observer.
func (j *Journal) RecordKill(e *model.Enemy, killerID uint32) {
	j.enqueue(event{
		kind:      eventKill,
		at:        time.Now(),
		enemyType: e.Type,
		enemyID:   e.ID,
		killerID:  killerID,
		packID:    e.PackID,
		alpha:     e.IsAlpha,
		boss:      e.IsBoss,
	})
}

func (j *Journal) enqueue(ev event) {
	select {
	case j.events <- ev:
	default:
		slog.Warn("journal buffer full, dropping event", "kind", ev.kind)
	}
}

// Run drains the event queue into PostgreSQL (blocks until the context is
// canceled). Remaining buffered events are flushed before returning.
func (j *Journal) Run(ctx context.Context) error {
	slog.Info("combat journal started")

	for {
		select {
		case <-ctx.Done():
			j.drain()
			slog.Info("combat journal stopped")
			return ctx.Err()

		case ev := <-j.events:
			j.write(context.Background(), ev)
		}
	}
}

// drain flushes whatever is still buffered, with a short deadline so
// shutdown cannot hang on a dead database.
func (j *Journal) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for {
		select {
		case ev := <-j.events:
			j.write(ctx, ev)
		default:
			return
		}
	}
}

func (j *Journal) write(ctx context.Context, ev event) {
	var err error
	switch ev.kind {
	case eventSave:
		_, err = j.pool.Exec(ctx,
			`INSERT INTO combat_journal (recorded_at, reason) VALUES ($1, $2)`,
			ev.at, ev.reason,
		)
	case eventKill:
		_, err = j.pool.Exec(ctx,
			`INSERT INTO enemy_kills (recorded_at, enemy_type, enemy_id, killer_id, pack_id, is_alpha, is_boss)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			ev.at, ev.enemyType, ev.enemyID, ev.killerID, ev.packID, ev.alpha, ev.boss,
		)
	}
	if err != nil {
		slog.Error("journal write failed", "kind", ev.kind, "error", err)
	}
}
