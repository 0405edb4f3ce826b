// internal/store/mysqlstore/mysqlstore.go
// MySQL-backed implementation of store.Port, grounded in the teacher's
// repository-per-entity layout (MatchRepository, ParticipantRepository):
// *sql.DB, `?` placeholders, QueryRowContext/QueryContext/ExecContext,
// sql.ErrNoRows translated to coreerr.NotFound.
//
// Minimal schema this adapter's queries assume (not applied by this repo --
// migrations stay out of scope):
//
//	CREATE TABLE group_settings (
//	    group_id VARCHAR(36) PRIMARY KEY,
//	    rating_system VARCHAR(16) NOT NULL,
//	    initial_rating INT NOT NULL,
//	    k_factor INT NOT NULL,
//	    elo_const DOUBLE NOT NULL,
//	    constraints JSON NOT NULL,
//	    elo_diff DOUBLE NOT NULL,
//	    auto_relax_elo_diff BOOLEAN NOT NULL,
//	    auto_relax_step DOUBLE NOT NULL,
//	    auto_relax_max_elo_diff DOUBLE NOT NULL,
//	    archived BOOLEAN NOT NULL DEFAULT FALSE
//	);
//	CREATE TABLE players (
//	    id VARCHAR(36) PRIMARY KEY,
//	    group_id VARCHAR(36) NOT NULL,
//	    display_name VARCHAR(255) NOT NULL,
//	    rating DOUBLE NOT NULL,
//	    games_played INT NOT NULL DEFAULT 0,
//	    wins INT NOT NULL DEFAULT 0,
//	    losses INT NOT NULL DEFAULT 0,
//	    ties INT NOT NULL DEFAULT 0,
//	    membership VARCHAR(16) NOT NULL,
//	    skill_tier VARCHAR(16) NULL,
//	    created_at DATETIME NOT NULL,
//	    updated_at DATETIME NOT NULL,
//	    INDEX idx_players_group (group_id)
//	);
//	CREATE TABLE events (
//	    id VARCHAR(36) PRIMARY KEY,
//	    group_id VARCHAR(36) NOT NULL,
//	    name VARCHAR(255) NULL,
//	    starts_at DATETIME NULL,
//	    courts INT NOT NULL,
//	    rounds INT NOT NULL,
//	    status VARCHAR(16) NOT NULL,
//	    generation_metadata JSON NULL,
//	    created_at DATETIME NOT NULL,
//	    updated_at DATETIME NOT NULL,
//	    INDEX idx_events_group (group_id)
//	);
//	CREATE TABLE event_participants (
//	    event_id VARCHAR(36) NOT NULL,
//	    player_id VARCHAR(36) NOT NULL,
//	    PRIMARY KEY (event_id, player_id)
//	);
//	CREATE TABLE games (
//	    id VARCHAR(36) PRIMARY KEY,
//	    event_id VARCHAR(36) NOT NULL,
//	    round_index INT NOT NULL,
//	    court_index INT NOT NULL,
//	    team1_player1 VARCHAR(36) NOT NULL,
//	    team1_player2 VARCHAR(36) NOT NULL,
//	    team2_player1 VARCHAR(36) NOT NULL,
//	    team2_player2 VARCHAR(36) NOT NULL,
//	    score1 INT NULL,
//	    score2 INT NULL,
//	    result VARCHAR(16) NOT NULL,
//	    team1_elo DOUBLE NOT NULL DEFAULT 0,
//	    team2_elo DOUBLE NOT NULL DEFAULT 0,
//	    swapped BOOLEAN NOT NULL DEFAULT FALSE,
//	    INDEX idx_games_event (event_id, round_index, court_index)
//	);
//	CREATE TABLE rating_updates (
//	    id VARCHAR(36) PRIMARY KEY,
//	    event_id VARCHAR(36) NOT NULL,
//	    group_id VARCHAR(36) NOT NULL,
//	    player_id VARCHAR(36) NOT NULL,
//	    rating_before DOUBLE NOT NULL,
//	    rating_after DOUBLE NOT NULL,
//	    delta DOUBLE NOT NULL,
//	    rating_system VARCHAR(16) NOT NULL,
//	    INDEX idx_ru_group (group_id),
//	    INDEX idx_ru_player (group_id, player_id),
//	    INDEX idx_ru_event (event_id)
//	);
package mysqlstore

import (
	"context"
	"database/sql"

	"matchcore/internal/coreerr"
	"matchcore/internal/store"
)

// Store is a MySQL-backed implementation of store.Port.
type Store struct {
	db *sql.DB
}

var _ store.Port = (*Store)(nil)

// New wraps an already-connected *sql.DB (see internal/database.Connections).
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn with a tx-scoped Store so complete/recalculate can commit
// all their writes atomically, per the concurrency model's requirement
// that those two operations be atomic.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Port) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return coreerr.Persistence(err, "beginning transaction")
	}

	txStore := &txStore{tx: tx}
	if err := fn(ctx, txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return coreerr.Persistence(rbErr, "rolling back transaction after error: %v", err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return coreerr.Persistence(err, "committing transaction")
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx, letting every query
// method below run against either a bare connection or a transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *Store) q() querier { return s.db }

// txStore is the tx-scoped Store handed to fn by WithTx. It shares every
// method with Store by embedding the same entity files' logic through q().
type txStore struct {
	tx *sql.Tx
}

var _ store.Port = (*txStore)(nil)

func (t *txStore) q() querier { return t.tx }

func (t *txStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Port) error) error {
	// Nested transactions aren't supported; run fn against the same tx.
	return fn(ctx, t)
}
