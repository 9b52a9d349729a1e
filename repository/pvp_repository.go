package repository

import (
	"context"
	"errors"
	"fmt"

	"plombir/database"
	"plombir/models"

	"github.com/jackc/pgx/v5"
)

// PvPRepository implements the PvPRepository interface
type PvPRepository struct {
	q queryable
}

// NewPvPRepository creates a new duel repository
func NewPvPRepository(db *database.DB) *PvPRepository {
	return &PvPRepository{q: db.Pool}
}

func newPvPRepositoryWithTx(tx queryable) *PvPRepository {
	return &PvPRepository{q: tx}
}

// Create inserts a pending offer and fills in its id and creation time
func (r *PvPRepository) Create(ctx context.Context, battle *models.PvPBattle) error {
	query := `
		INSERT INTO pvp_battles (challenger_id, bet, status)
		VALUES ($1, $2, $3)
		RETURNING battle_id, created_at
	`

	err := r.q.QueryRow(ctx, query, battle.ChallengerID, battle.Bet, battle.Status).
		Scan(&battle.BattleID, &battle.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create battle for user %d: %w", battle.ChallengerID, err)
	}
	return nil
}

// ListPending returns open offers with challenger display data, newest first
func (r *PvPRepository) ListPending(ctx context.Context) ([]*models.PvPOffer, error) {
	query := `
		SELECT b.battle_id, b.challenger_id, b.bet, b.status, b.created_at, u.name, u.short_id
		FROM pvp_battles b
		JOIN users u ON u.user_id = b.challenger_id
		WHERE b.status = $1
		ORDER BY b.created_at DESC, b.battle_id DESC
	`

	rows, err := r.q.Query(ctx, query, models.BattleStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending battles: %w", err)
	}
	defer rows.Close()

	offers := make([]*models.PvPOffer, 0)
	for rows.Next() {
		var o models.PvPOffer
		if err := rows.Scan(&o.BattleID, &o.ChallengerID, &o.Bet, &o.Status, &o.CreatedAt, &o.ChallengerName, &o.ChallengerShortID); err != nil {
			return nil, fmt.Errorf("failed to scan battle offer: %w", err)
		}
		offers = append(offers, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate battle offers: %w", err)
	}

	return offers, nil
}

// GetByIDForUpdate loads a battle and locks its row until the transaction ends
func (r *PvPRepository) GetByIDForUpdate(ctx context.Context, battleID int64) (*models.PvPBattle, error) {
	query := `
		SELECT battle_id, challenger_id, opponent_id, bet, status, challenger_roll,
		       opponent_roll, winner_id, created_at, finished_at
		FROM pvp_battles
		WHERE battle_id = $1
		FOR UPDATE
	`

	var b models.PvPBattle
	err := r.q.QueryRow(ctx, query, battleID).Scan(
		&b.BattleID,
		&b.ChallengerID,
		&b.OpponentID,
		&b.Bet,
		&b.Status,
		&b.ChallengerRoll,
		&b.OpponentRoll,
		&b.WinnerID,
		&b.CreatedAt,
		&b.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get battle %d: %w", battleID, err)
	}
	return &b, nil
}

// Finish writes the outcome of a pending battle. It returns false when the
// battle had already left the pending state.
func (r *PvPRepository) Finish(ctx context.Context, battle *models.PvPBattle) (bool, error) {
	query := `
		UPDATE pvp_battles
		SET opponent_id = $2,
		    status = $3,
		    challenger_roll = $4,
		    opponent_roll = $5,
		    winner_id = $6,
		    finished_at = $7
		WHERE battle_id = $1 AND status = $8
	`

	result, err := r.q.Exec(ctx, query,
		battle.BattleID,
		battle.OpponentID,
		models.BattleStatusFinished,
		battle.ChallengerRoll,
		battle.OpponentRoll,
		battle.WinnerID,
		battle.FinishedAt,
		models.BattleStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to finish battle %d: %w", battle.BattleID, err)
	}
	return result.RowsAffected() == 1, nil
}

// RecordOutcome adds one result to the user's duel record
func (r *PvPRepository) RecordOutcome(ctx context.Context, userID int64, won, lost, draw bool) error {
	query := `
		INSERT INTO pvp_stats (user_id, wins, losses, draws)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET wins = pvp_stats.wins + EXCLUDED.wins,
		    losses = pvp_stats.losses + EXCLUDED.losses,
		    draws = pvp_stats.draws + EXCLUDED.draws
	`

	if _, err := r.q.Exec(ctx, query, userID, boolToInt(won), boolToInt(lost), boolToInt(draw)); err != nil {
		return fmt.Errorf("failed to record duel outcome for user %d: %w", userID, err)
	}
	return nil
}

// GetStats returns the user's duel record; users without duels get zeros
func (r *PvPRepository) GetStats(ctx context.Context, userID int64) (*models.PvPStats, error) {
	stats := models.PvPStats{UserID: userID}
	err := r.q.QueryRow(ctx,
		`SELECT wins, losses, draws FROM pvp_stats WHERE user_id = $1`,
		userID,
	).Scan(&stats.Wins, &stats.Losses, &stats.Draws)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get duel stats for user %d: %w", userID, err)
	}
	return &stats, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
