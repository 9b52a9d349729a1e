package repository

import (
	"context"
	"fmt"

	"plombir/database"
	"plombir/models"
)

// FarmRepository implements the FarmRepository interface
type FarmRepository struct {
	q queryable
}

// NewFarmRepository creates a new farm repository
func NewFarmRepository(db *database.DB) *FarmRepository {
	return &FarmRepository{q: db.Pool}
}

func newFarmRepositoryWithTx(tx queryable) *FarmRepository {
	return &FarmRepository{q: tx}
}

// AddAnimal stores one purchased animal and returns its row id
func (r *FarmRepository) AddAnimal(ctx context.Context, userID int64, animalKey string) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx,
		`INSERT INTO user_farm (user_id, animal_key) VALUES ($1, $2) RETURNING id`,
		userID, animalKey,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to add animal %s for user %d: %w", animalKey, userID, err)
	}
	return id, nil
}

// CountAnimals groups owned animals by kind in order of first purchase
func (r *FarmRepository) CountAnimals(ctx context.Context, userID int64) ([]*models.AnimalCount, error) {
	query := `
		SELECT animal_key, COUNT(*)
		FROM user_farm
		WHERE user_id = $1
		GROUP BY animal_key
		ORDER BY MIN(id)
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count animals for user %d: %w", userID, err)
	}
	defer rows.Close()

	var counts []*models.AnimalCount
	for rows.Next() {
		var c models.AnimalCount
		if err := rows.Scan(&c.AnimalKey, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan animal count: %w", err)
		}
		counts = append(counts, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate animal counts: %w", err)
	}

	return counts, nil
}

// HasProtection reports whether the user owns the item
func (r *FarmRepository) HasProtection(ctx context.Context, userID int64, itemKey string) (bool, error) {
	var owned bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_protection WHERE user_id = $1 AND item_key = $2)`,
		userID, itemKey,
	).Scan(&owned)
	if err != nil {
		return false, fmt.Errorf("failed to check protection %s for user %d: %w", itemKey, userID, err)
	}
	return owned, nil
}

// AddProtection records ownership, returning false if the item was already owned
func (r *FarmRepository) AddProtection(ctx context.Context, userID int64, itemKey string) (bool, error) {
	result, err := r.q.Exec(ctx,
		`INSERT INTO user_protection (user_id, item_key) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, itemKey,
	)
	if err != nil {
		return false, fmt.Errorf("failed to add protection %s for user %d: %w", itemKey, userID, err)
	}
	return result.RowsAffected() == 1, nil
}

// ListProtection returns owned protection items in purchase order
func (r *FarmRepository) ListProtection(ctx context.Context, userID int64) ([]*models.OwnedProtection, error) {
	rows, err := r.q.Query(ctx,
		`SELECT item_key, purchased_at FROM user_protection WHERE user_id = $1 ORDER BY purchased_at, item_key`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list protection for user %d: %w", userID, err)
	}
	defer rows.Close()

	var owned []*models.OwnedProtection
	for rows.Next() {
		var p models.OwnedProtection
		if err := rows.Scan(&p.ItemKey, &p.PurchasedAt); err != nil {
			return nil, fmt.Errorf("failed to scan protection: %w", err)
		}
		owned = append(owned, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate protection: %w", err)
	}

	return owned, nil
}
