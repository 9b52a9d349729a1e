package repository

import (
	"context"
	"errors"
	"fmt"

	"plombir/database"
	"plombir/models"

	"github.com/jackc/pgx/v5"
)

// GiveawayRepository implements the GiveawayRepository interface
type GiveawayRepository struct {
	q queryable
}

// NewGiveawayRepository creates a new giveaway repository
func NewGiveawayRepository(db *database.DB) *GiveawayRepository {
	return &GiveawayRepository{q: db.Pool}
}

func newGiveawayRepositoryWithTx(tx queryable) *GiveawayRepository {
	return &GiveawayRepository{q: tx}
}

const giveawaySelect = `
	SELECT g.id, g.title, g.description, g.prize, g.status, g.ends_at, g.created_at,
	       (SELECT COUNT(*) FROM giveaway_users gu WHERE gu.giveaway_id = g.id)
	FROM giveaways g`

func scanGiveaway(row pgx.Row) (*models.Giveaway, error) {
	var g models.Giveaway
	err := row.Scan(&g.ID, &g.Title, &g.Description, &g.Prize, &g.Status, &g.EndsAt, &g.CreatedAt, &g.Participants)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListActive returns active giveaways, newest first
func (r *GiveawayRepository) ListActive(ctx context.Context) ([]*models.Giveaway, error) {
	rows, err := r.q.Query(ctx, giveawaySelect+` WHERE g.status = $1 ORDER BY g.created_at DESC, g.id DESC`,
		models.GiveawayStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list giveaways: %w", err)
	}
	defer rows.Close()

	giveaways := make([]*models.Giveaway, 0)
	for rows.Next() {
		g, err := scanGiveaway(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan giveaway: %w", err)
		}
		giveaways = append(giveaways, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate giveaways: %w", err)
	}

	return giveaways, nil
}

// GetByID returns a giveaway of any status, nil when absent
func (r *GiveawayRepository) GetByID(ctx context.Context, giveawayID int64) (*models.Giveaway, error) {
	g, err := scanGiveaway(r.q.QueryRow(ctx, giveawaySelect+` WHERE g.id = $1`, giveawayID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get giveaway %d: %w", giveawayID, err)
	}
	return g, nil
}

// AddParticipant enters the user, returning false if they had already joined
func (r *GiveawayRepository) AddParticipant(ctx context.Context, giveawayID, userID int64) (bool, error) {
	result, err := r.q.Exec(ctx,
		`INSERT INTO giveaway_users (giveaway_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		giveawayID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to add user %d to giveaway %d: %w", userID, giveawayID, err)
	}
	return result.RowsAffected() == 1, nil
}
