package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Score is one device's private win/loss ledger plus the display name
// last used. Nothing here is shared between players.
type Score struct {
	PlayerID string `db:"player_id"`
	Name     string `db:"name"`
	Wins     int    `db:"wins"`
	Losses   int    `db:"losses"`
}

type ScoreRepository interface {
	Get(ctx context.Context, playerID string) (*Score, error)
	IncrementWins(ctx context.Context, playerID string) error
	IncrementLosses(ctx context.Context, playerID string) error
	SetPlayerName(ctx context.Context, playerID, name string) error
	Reset(ctx context.Context, playerID string) error
}

type scoreRepo struct {
	db *sqlx.DB
}

func NewScoreRepo(db *sqlx.DB) ScoreRepository {
	return &scoreRepo{db: db}
}

func (r *scoreRepo) Get(ctx context.Context, playerID string) (*Score, error) {
	var score Score

	query := "SELECT player_id, name, wins, losses FROM scores WHERE player_id = $1"

	err := r.db.GetContext(ctx, &score, query, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		// No row yet just means a fresh ledger.
		return &Score{PlayerID: playerID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get score: %w", err)
	}

	return &score, nil
}

func (r *scoreRepo) IncrementWins(ctx context.Context, playerID string) error {
	query := `
		INSERT INTO scores (player_id, wins, losses) VALUES ($1, 1, 0)
		ON CONFLICT (player_id) DO UPDATE SET wins = scores.wins + 1, updated_at = now()`

	if _, err := r.db.ExecContext(ctx, query, playerID); err != nil {
		return fmt.Errorf("increment wins: %w", err)
	}

	return nil
}

func (r *scoreRepo) IncrementLosses(ctx context.Context, playerID string) error {
	query := `
		INSERT INTO scores (player_id, wins, losses) VALUES ($1, 0, 1)
		ON CONFLICT (player_id) DO UPDATE SET losses = scores.losses + 1, updated_at = now()`

	if _, err := r.db.ExecContext(ctx, query, playerID); err != nil {
		return fmt.Errorf("increment losses: %w", err)
	}

	return nil
}

func (r *scoreRepo) SetPlayerName(ctx context.Context, playerID, name string) error {
	query := `
		INSERT INTO scores (player_id, name) VALUES ($1, $2)
		ON CONFLICT (player_id) DO UPDATE SET name = EXCLUDED.name, updated_at = now()`

	if _, err := r.db.ExecContext(ctx, query, playerID, name); err != nil {
		return fmt.Errorf("set player name: %w", err)
	}

	return nil
}

func (r *scoreRepo) Reset(ctx context.Context, playerID string) error {
	query := "UPDATE scores SET wins = 0, losses = 0, updated_at = now() WHERE player_id = $1"

	if _, err := r.db.ExecContext(ctx, query, playerID); err != nil {
		return fmt.Errorf("reset score: %w", err)
	}

	return nil
}
