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

// registrationLockKey identifies the advisory lock that serializes short id allocation
const registrationLockKey int64 = 0x706c6f6d626972

const userColumns = `
	user_id, short_id, name, username, faculty, insta, tiktok, phone, rating,
	insta_verified, tiktok_verified, phone_verified, pvp_notifications, agreed,
	created_at, updated_at`

// Each editable field has a fixed statement; column names never come from input.
var profileFieldQueries = map[models.ProfileField]string{
	models.ProfileFieldName:    `UPDATE users SET name = $1, edit_name = NOW(), updated_at = NOW() WHERE user_id = $2`,
	models.ProfileFieldFaculty: `UPDATE users SET faculty = $1, edit_faculty = NOW(), updated_at = NOW() WHERE user_id = $2`,
	models.ProfileFieldInsta:   `UPDATE users SET insta = $1, edit_insta = NOW(), updated_at = NOW() WHERE user_id = $2`,
	models.ProfileFieldTikTok:  `UPDATE users SET tiktok = $1, edit_tiktok = NOW(), updated_at = NOW() WHERE user_id = $2`,
	models.ProfileFieldPhone:   `UPDATE users SET phone = $1, edit_phone = NOW(), updated_at = NOW() WHERE user_id = $2`,
}

var socialSubmitQueries = map[models.SocialPlatform]string{
	models.SocialPlatformInsta:  `UPDATE users SET insta = $1, insta_verified = $3, edit_insta = NOW(), updated_at = NOW() WHERE user_id = $2`,
	models.SocialPlatformTikTok: `UPDATE users SET tiktok = $1, tiktok_verified = $3, edit_tiktok = NOW(), updated_at = NOW() WHERE user_id = $2`,
}

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.UserID,
		&user.ShortID,
		&user.Name,
		&user.Username,
		&user.Faculty,
		&user.Insta,
		&user.TikTok,
		&user.Phone,
		&user.Rating,
		&user.InstaVerified,
		&user.TikTokVerified,
		&user.PhoneVerified,
		&user.PvPNotifications,
		&user.Agreed,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by their Telegram ID
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	return user, nil
}

// LockRegistration takes a transaction-scoped advisory lock
func (r *UserRepository) LockRegistration(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, registrationLockKey); err != nil {
		return fmt.Errorf("failed to acquire registration lock: %w", err)
	}
	return nil
}

// Create inserts a user with short id one greater than the current maximum.
// Callers hold the registration lock so two inserts never race for the same id.
func (r *UserRepository) Create(ctx context.Context, profile models.TelegramProfile, initialBalance int64) (*models.User, error) {
	query := `
		INSERT INTO users (user_id, short_id, name, username, rating, agreed)
		SELECT $1, COALESCE(MAX(short_id), 0) + 1, $2, $3, $4, TRUE
		FROM users
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, profile.ID, profile.FirstName, profile.Username, initialBalance))
	if err != nil {
		return nil, fmt.Errorf("failed to create user %d: %w", profile.ID, err)
	}

	return user, nil
}

// GetView returns the client view of a user with admin flag and duel wins
func (r *UserRepository) GetView(ctx context.Context, userID int64) (*models.UserView, error) {
	query := `
		SELECT
			u.user_id,
			u.short_id,
			u.name,
			u.username,
			u.rating,
			u.insta_verified,
			u.tiktok_verified,
			u.phone_verified,
			u.pvp_notifications,
			COALESCE(s.wins, 0),
			EXISTS (SELECT 1 FROM admins a WHERE a.user_id = u.user_id)
		FROM users u
		LEFT JOIN pvp_stats s ON s.user_id = u.user_id
		WHERE u.user_id = $1
	`

	var view models.UserView
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&view.ID,
		&view.ShortID,
		&view.Name,
		&view.Username,
		&view.Rating,
		&view.InstaVerified,
		&view.TikTokVerified,
		&view.PhoneVerified,
		&view.PvPNotifications,
		&view.PvPWins,
		&view.IsAdmin,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get view for user %d: %w", userID, err)
	}

	return &view, nil
}

// AddBalance credits a user's rating and returns the new value
func (r *UserRepository) AddBalance(ctx context.Context, userID int64, amount int64) (int64, error) {
	query := `
		UPDATE users
		SET rating = rating + $1, updated_at = NOW()
		WHERE user_id = $2
		RETURNING rating
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, service.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add balance for user %d: %w", userID, err)
	}

	return balance, nil
}

// DeductBalance debits a user's rating only when it covers amount
func (r *UserRepository) DeductBalance(ctx context.Context, userID int64, amount int64) (int64, error) {
	query := `
		UPDATE users
		SET rating = rating - $1, updated_at = NOW()
		WHERE user_id = $2 AND rating >= $1
		RETURNING rating
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to deduct balance for user %d: %w", userID, err)
	}

	// Either the user is missing or the balance is too low
	var current int64
	err = r.q.QueryRow(ctx, `SELECT rating FROM users WHERE user_id = $1`, userID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, service.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to check user %d: %w", userID, err)
	}
	return 0, fmt.Errorf("%w: have %d, need %d", service.ErrInsufficientFunds, current, amount)
}

// IsAdmin reports whether the user is listed as an administrator
func (r *UserRepository) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var isAdmin bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM admins WHERE user_id = $1)`, userID).Scan(&isAdmin)
	if err != nil {
		return false, fmt.Errorf("failed to check admin %d: %w", userID, err)
	}
	return isAdmin, nil
}

// GetTop returns the highest rated users; ties go to the earlier registration
func (r *UserRepository) GetTop(ctx context.Context, limit int) ([]*models.TopEntry, error) {
	query := `
		SELECT user_id, short_id, name, username, rating
		FROM users
		ORDER BY rating DESC, short_id ASC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.TopEntry, 0, limit)
	for rows.Next() {
		var entry models.TopEntry
		if err := rows.Scan(&entry.UserID, &entry.ShortID, &entry.Name, &entry.Username, &entry.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan top user: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate top users: %w", err)
	}

	return entries, nil
}

// Count returns the number of registered users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// UpdateProfileField sets one editable column and its edit timestamp
func (r *UserRepository) UpdateProfileField(ctx context.Context, userID int64, field models.ProfileField, value string) error {
	query, ok := profileFieldQueries[field]
	if !ok {
		return service.ErrInvalidField
	}

	result, err := r.q.Exec(ctx, query, value, userID)
	if err != nil {
		return fmt.Errorf("failed to update %s for user %d: %w", field, userID, err)
	}
	if result.RowsAffected() == 0 {
		return service.ErrUserNotFound
	}

	return nil
}

// SubmitSocial stores a handle and marks it pending moderation
func (r *UserRepository) SubmitSocial(ctx context.Context, userID int64, platform models.SocialPlatform, nick string) error {
	query, ok := socialSubmitQueries[platform]
	if !ok {
		return service.ErrInvalidPlatform
	}

	result, err := r.q.Exec(ctx, query, nick, userID, models.VerificationPending)
	if err != nil {
		return fmt.Errorf("failed to submit %s for user %d: %w", platform, userID, err)
	}
	if result.RowsAffected() == 0 {
		return service.ErrUserNotFound
	}

	return nil
}

// MarkPhoneVerified flags the phone as verified; false if it already was
func (r *UserRepository) MarkPhoneVerified(ctx context.Context, userID int64) (bool, error) {
	query := `
		UPDATE users
		SET phone_verified = $2, updated_at = NOW()
		WHERE user_id = $1 AND phone_verified <> $2
	`

	result, err := r.q.Exec(ctx, query, userID, models.VerificationVerified)
	if err != nil {
		return false, fmt.Errorf("failed to verify phone for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 1 {
		return true, nil
	}

	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, service.ErrUserNotFound
	}
	return false, nil
}
