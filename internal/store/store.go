// Package store is the optional results sink: it persists recorded
// matches to Postgres via pgx so a leaderboard or dashboard can query
// across tournament runs. Nothing in internal/referee imports this
// package; the CLI driver opens it only when --results-dsn is set, and
// a persistence failure is logged but never changes a tournament's
// outcome.
package store

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/higcompetition/tournament/internal/boterrors"
)

//go:embed schema.sql
var schemaFS embed.FS

// DB is a thin wrapper over a pgx connection pool.
type DB struct {
	*pgxpool.Pool
}

// Open lazily opens a pool against dsn. Opening does not itself verify
// connectivity; callers that want a fail-fast check should call Ping.
func Open(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

// Close releases the pool's connections.
func (db *DB) Close() { db.Pool.Close() }

// Migrate applies the embedded schema. It is idempotent: every
// statement in schema.sql is guarded with IF NOT EXISTS.
func (db *DB) Migrate(ctx context.Context) error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(schema))
	return err
}

// RecordMatch persists one played match and its per-bot stats under
// runID, the opaque identifier the CLI driver stamps on a tournament
// invocation.
func (db *DB) RecordMatch(ctx context.Context, runID, gameName string, terminalHistory []int64, errs []boterrors.Counters, returns []float64) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var matchID int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO matches (run_id, game_name, terminal_history)
		VALUES ($1, $2, $3)
		RETURNING id
	`, runID, gameName, terminalHistory).Scan(&matchID); err != nil {
		return err
	}

	for pl, e := range errs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO match_bot_stats (match_id, bot_index, return, protocol_error, illegal_actions, ponder_error, time_over)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, matchID, pl, returns[pl], e.ProtocolError, e.IllegalAction, e.PonderError, e.TimeOver); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
