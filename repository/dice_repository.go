package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"plombir/database"

	"github.com/jackc/pgx/v5"
)

// DiceRepository implements the DiceRepository interface
type DiceRepository struct {
	q queryable
}

// NewDiceRepository creates a new dice repository
func NewDiceRepository(db *database.DB) *DiceRepository {
	return &DiceRepository{q: db.Pool}
}

func newDiceRepositoryWithTx(tx queryable) *DiceRepository {
	return &DiceRepository{q: tx}
}

// GetLastRoll returns when the user last rolled, nil if never
func (r *DiceRepository) GetLastRoll(ctx context.Context, userID int64) (*time.Time, error) {
	var last time.Time
	err := r.q.QueryRow(ctx, `SELECT last_roll FROM dice_rolls WHERE user_id = $1`, userID).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last roll for user %d: %w", userID, err)
	}
	return &last, nil
}

// ClaimRoll stores now as the last roll when the previous one is at or
// before notAfter. It returns false if another roll got there first.
func (r *DiceRepository) ClaimRoll(ctx context.Context, userID int64, now, notAfter time.Time) (bool, error) {
	query := `
		INSERT INTO dice_rolls (user_id, last_roll)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET last_roll = EXCLUDED.last_roll
		WHERE dice_rolls.last_roll <= $3
	`

	result, err := r.q.Exec(ctx, query, userID, now, notAfter)
	if err != nil {
		return false, fmt.Errorf("failed to claim roll for user %d: %w", userID, err)
	}
	return result.RowsAffected() == 1, nil
}
