package testutil

import (
	"context"
	"fmt"
	"testing"

	"plombir/database"
	"plombir/models"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// CreateTestUser inserts a user with the given rating. Short ids follow insertion order.
func CreateTestUser(t *testing.T, db *database.DB, userID int64, rating int64) *models.User {
	t.Helper()

	user := &models.User{
		UserID:   userID,
		Name:     fmt.Sprintf("User %d", userID),
		Username: fmt.Sprintf("user%d", userID),
		Rating:   rating,
	}
	err := db.QueryRow(context.Background(), `
		INSERT INTO users (user_id, short_id, name, username, rating)
		SELECT $1, COALESCE(MAX(short_id), 0) + 1, $2, $3, $4 FROM users
		RETURNING short_id, created_at, updated_at`,
		user.UserID, user.Name, user.Username, user.Rating,
	).Scan(&user.ShortID, &user.CreatedAt, &user.UpdatedAt)
	require.NoError(t, err)

	return user
}

// CreateTestUsers inserts several users in one transaction, keyed by id with their rating
func CreateTestUsers(t *testing.T, db *database.DB, ratings map[int64]int64) {
	t.Helper()

	err := db.WithTransaction(context.Background(), func(tx pgx.Tx) error {
		for id, rating := range ratings {
			_, err := tx.Exec(context.Background(), `
				INSERT INTO users (user_id, short_id, name, rating)
				SELECT $1, COALESCE(MAX(short_id), 0) + 1, $2, $3 FROM users`,
				id, fmt.Sprintf("User %d", id), rating,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

// CreateTestAdmin marks an existing user as administrator
func CreateTestAdmin(t *testing.T, db *database.DB, userID int64) {
	t.Helper()
	_, err := db.Exec(context.Background(), `INSERT INTO admins (user_id) VALUES ($1)`, userID)
	require.NoError(t, err)
}

// CreateTestTask inserts an active task
func CreateTestTask(t *testing.T, db *database.DB, title string, reward int64) *models.Task {
	t.Helper()

	task := &models.Task{Title: title, Reward: reward, Link: "https://t.me/plombir"}
	err := db.QueryRow(context.Background(),
		`INSERT INTO active_tasks (title, reward, link) VALUES ($1, $2, $3) RETURNING id, created_at`,
		task.Title, task.Reward, task.Link,
	).Scan(&task.ID, &task.CreatedAt)
	require.NoError(t, err)

	return task
}

// CompleteTestTask marks a task as completed for the user, as a moderator would
func CompleteTestTask(t *testing.T, db *database.DB, userID, taskID int64) {
	t.Helper()
	_, err := db.Exec(context.Background(), `
		INSERT INTO completed_tasks (user_id, task_id, status) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, task_id) DO UPDATE SET status = EXCLUDED.status`,
		userID, taskID, models.CompletionCompleted,
	)
	require.NoError(t, err)
}

// CreateTestPromo inserts a promo code
func CreateTestPromo(t *testing.T, db *database.DB, code string, reward, maxUses int64) {
	t.Helper()
	_, err := db.Exec(context.Background(),
		`INSERT INTO promo_codes (code, reward, max_uses) VALUES ($1, $2, $3)`,
		code, reward, maxUses,
	)
	require.NoError(t, err)
}

// CreateTestGiveaway inserts a giveaway with the given status
func CreateTestGiveaway(t *testing.T, db *database.DB, title string, status models.GiveawayStatus) *models.Giveaway {
	t.Helper()

	g := &models.Giveaway{Title: title, Prize: "Ice cream", Status: status}
	err := db.QueryRow(context.Background(),
		`INSERT INTO giveaways (title, prize, status) VALUES ($1, $2, $3) RETURNING id, created_at`,
		g.Title, g.Prize, g.Status,
	).Scan(&g.ID, &g.CreatedAt)
	require.NoError(t, err)

	return g
}

// GetRating reads a user's current rating directly
func GetRating(t *testing.T, db *database.DB, userID int64) int64 {
	t.Helper()
	var rating int64
	err := db.QueryRow(context.Background(), `SELECT rating FROM users WHERE user_id = $1`, userID).Scan(&rating)
	require.NoError(t, err)
	return rating
}
