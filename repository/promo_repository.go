package repository

import (
	"context"
	"errors"
	"fmt"

	"plombir/database"
	"plombir/models"
	"plombir/service"

	"github.com/jackc/pgx/v5"
)

// PromoRepository implements the PromoRepository interface
type PromoRepository struct {
	q queryable
}

// NewPromoRepository creates a new promo code repository
func NewPromoRepository(db *database.DB) *PromoRepository {
	return &PromoRepository{q: db.Pool}
}

func newPromoRepositoryWithTx(tx queryable) *PromoRepository {
	return &PromoRepository{q: tx}
}

// GetByCodeForUpdate loads and row-locks a promo code, nil when absent
func (r *PromoRepository) GetByCodeForUpdate(ctx context.Context, code string) (*models.PromoCode, error) {
	var p models.PromoCode
	err := r.q.QueryRow(ctx,
		`SELECT code, reward, max_uses, current_uses, created_at FROM promo_codes WHERE code = $1 FOR UPDATE`,
		code,
	).Scan(&p.Code, &p.Reward, &p.MaxUses, &p.CurrentUses, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get promo code %s: %w", code, err)
	}
	return &p, nil
}

// HasRedeemed reports whether the user already used the code
func (r *PromoRepository) HasRedeemed(ctx context.Context, userID int64, code string) (bool, error) {
	var used bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM promo_history WHERE user_id = $1 AND code = $2)`,
		userID, code,
	).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("failed to check promo history for user %d: %w", userID, err)
	}
	return used, nil
}

// IncrementUses consumes one use of the code while it is below its cap
func (r *PromoRepository) IncrementUses(ctx context.Context, code string) error {
	result, err := r.q.Exec(ctx,
		`UPDATE promo_codes SET current_uses = current_uses + 1 WHERE code = $1 AND current_uses < max_uses`,
		code,
	)
	if err != nil {
		return fmt.Errorf("failed to increment uses of %s: %w", code, err)
	}
	if result.RowsAffected() == 0 {
		return service.ErrPromoExhausted
	}
	return nil
}

// RecordRedemption stores that the user used the code
func (r *PromoRepository) RecordRedemption(ctx context.Context, userID int64, code string) error {
	_, err := r.q.Exec(ctx, `INSERT INTO promo_history (user_id, code) VALUES ($1, $2)`, userID, code)
	if isUniqueViolation(err) {
		return service.ErrPromoAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("failed to record promo %s for user %d: %w", code, userID, err)
	}
	return nil
}
