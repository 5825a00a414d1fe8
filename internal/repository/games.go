package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no save exists for a game ID.
var ErrNotFound = errors.New("saved game not found")

// SavedGameRecord is a persisted save image with its metadata row.
type SavedGameRecord struct {
	GameID     string
	Definition string
	Players    []string
	ActionLen  int
	SavedAt    time.Time
	Data       []byte
}

// GameRepository stores save images keyed by game ID.
type GameRepository struct {
	pool *pgxpool.Pool
}

func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

// Bootstrap creates the saved_games table when missing.
func (r *GameRepository) Bootstrap(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS saved_games (
			game_id    TEXT PRIMARY KEY,
			definition TEXT NOT NULL,
			players    TEXT[] NOT NULL,
			action_len INTEGER NOT NULL,
			saved_at   TIMESTAMPTZ NOT NULL,
			data       BYTEA NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create saved_games table: %w", err)
	}
	return nil
}

// Upsert writes or replaces the save image for a game.
func (r *GameRepository) Upsert(ctx context.Context, rec SavedGameRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO saved_games (game_id, definition, players, action_len, saved_at, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id) DO UPDATE SET
			action_len = EXCLUDED.action_len,
			saved_at   = EXCLUDED.saved_at,
			data       = EXCLUDED.data`,
		rec.GameID, rec.Definition, rec.Players, rec.ActionLen, rec.SavedAt, rec.Data)
	if err != nil {
		return fmt.Errorf("upsert saved game %s: %w", rec.GameID, err)
	}
	return nil
}

// Get fetches the save image for a game.
func (r *GameRepository) Get(ctx context.Context, gameID string) (SavedGameRecord, error) {
	var rec SavedGameRecord
	err := r.pool.QueryRow(ctx, `
		SELECT game_id, definition, players, action_len, saved_at, data
		FROM saved_games WHERE game_id = $1`, gameID).
		Scan(&rec.GameID, &rec.Definition, &rec.Players, &rec.ActionLen, &rec.SavedAt, &rec.Data)
	if err == pgx.ErrNoRows {
		return SavedGameRecord{}, ErrNotFound
	}
	if err != nil {
		return SavedGameRecord{}, fmt.Errorf("get saved game %s: %w", gameID, err)
	}
	return rec, nil
}

// List returns save metadata (no blobs), newest first.
func (r *GameRepository) List(ctx context.Context) ([]SavedGameRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT game_id, definition, players, action_len, saved_at
		FROM saved_games ORDER BY saved_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list saved games: %w", err)
	}
	defer rows.Close()

	var out []SavedGameRecord
	for rows.Next() {
		var rec SavedGameRecord
		if err := rows.Scan(&rec.GameID, &rec.Definition, &rec.Players, &rec.ActionLen, &rec.SavedAt); err != nil {
			return nil, fmt.Errorf("scan saved game: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes the save image for a game. Missing rows are not an error.
func (r *GameRepository) Delete(ctx context.Context, gameID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM saved_games WHERE game_id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("delete saved game %s: %w", gameID, err)
	}
	return nil
}
