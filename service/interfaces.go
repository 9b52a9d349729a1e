package service

import (
	"context"
	"time"

	"plombir/events"
	"plombir/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by their Telegram ID, nil when absent
	GetByID(ctx context.Context, userID int64) (*models.User, error)

	// LockRegistration serializes short id allocation for the current transaction
	LockRegistration(ctx context.Context) error

	// Create inserts a user with the next sequential short id
	Create(ctx context.Context, profile models.TelegramProfile, initialBalance int64) (*models.User, error)

	// GetView returns the public user view including admin flag and duel wins
	GetView(ctx context.Context, userID int64) (*models.UserView, error)

	// AddBalance credits amount and returns the new balance
	AddBalance(ctx context.Context, userID int64, amount int64) (int64, error)

	// DeductBalance debits amount only if the balance covers it and returns the new balance
	DeductBalance(ctx context.Context, userID int64, amount int64) (int64, error)

	// IsAdmin reports whether the user is in the administrators list
	IsAdmin(ctx context.Context, userID int64) (bool, error)

	// GetTop returns users ordered by rating descending
	GetTop(ctx context.Context, limit int) ([]*models.TopEntry, error)

	// Count returns the number of registered users
	Count(ctx context.Context) (int64, error)

	// UpdateProfileField sets one editable field and stamps its edit time
	UpdateProfileField(ctx context.Context, userID int64, field models.ProfileField, value string) error

	// SubmitSocial stores a social handle and marks it pending moderation
	SubmitSocial(ctx context.Context, userID int64, platform models.SocialPlatform, nick string) error

	// MarkPhoneVerified flags the phone as verified, false if it already was
	MarkPhoneVerified(ctx context.Context, userID int64) (bool, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error
}

// FarmRepository defines the interface for farm and protection ownership
type FarmRepository interface {
	AddAnimal(ctx context.Context, userID int64, animalKey string) (int64, error)
	CountAnimals(ctx context.Context, userID int64) ([]*models.AnimalCount, error)
	HasProtection(ctx context.Context, userID int64, itemKey string) (bool, error)
	// AddProtection returns false when the item was already owned
	AddProtection(ctx context.Context, userID int64, itemKey string) (bool, error)
	ListProtection(ctx context.Context, userID int64) ([]*models.OwnedProtection, error)
}

// TaskRepository defines the interface for tasks and their completion records
type TaskRepository interface {
	GetByID(ctx context.Context, taskID int64) (*models.Task, error)
	// ListForUser returns tasks the user has not completed, with derived status
	ListForUser(ctx context.Context, userID int64) ([]*models.UserTask, error)
	// MarkPending upserts a pending completion record, leaving completed ones intact
	MarkPending(ctx context.Context, userID, taskID int64) error
}

// PvPRepository defines the interface for duel offers and statistics
type PvPRepository interface {
	Create(ctx context.Context, battle *models.PvPBattle) error
	ListPending(ctx context.Context) ([]*models.PvPOffer, error)
	// GetByIDForUpdate loads and row-locks a battle, nil when absent
	GetByIDForUpdate(ctx context.Context, battleID int64) (*models.PvPBattle, error)
	// Finish closes a pending battle, false if it was no longer pending
	Finish(ctx context.Context, battle *models.PvPBattle) (bool, error)
	RecordOutcome(ctx context.Context, userID int64, won, lost, draw bool) error
	GetStats(ctx context.Context, userID int64) (*models.PvPStats, error)
}

// GiveawayRepository defines the interface for giveaways and participation
type GiveawayRepository interface {
	ListActive(ctx context.Context) ([]*models.Giveaway, error)
	GetByID(ctx context.Context, giveawayID int64) (*models.Giveaway, error)
	// AddParticipant returns false when the user had already joined
	AddParticipant(ctx context.Context, giveawayID, userID int64) (bool, error)
}

// PromoRepository defines the interface for promo codes and redemption history
type PromoRepository interface {
	GetByCodeForUpdate(ctx context.Context, code string) (*models.PromoCode, error)
	HasRedeemed(ctx context.Context, userID int64, code string) (bool, error)
	IncrementUses(ctx context.Context, code string) error
	RecordRedemption(ctx context.Context, userID int64, code string) error
}

// DiceRepository defines the interface for daily roll timestamps
type DiceRepository interface {
	GetLastRoll(ctx context.Context, userID int64) (*time.Time, error)
	// ClaimRoll stores now as the last roll if the previous one is at or before notAfter
	ClaimRoll(ctx context.Context, userID int64, now, notAfter time.Time) (bool, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork groups repositories over one database transaction
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	FarmRepository() FarmRepository
	TaskRepository() TaskRepository
	PvPRepository() PvPRepository
	GiveawayRepository() GiveawayRepository
	PromoRepository() PromoRepository
	DiceRepository() DiceRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// TopCache caches the leaderboard between balance changes
type TopCache interface {
	Get(ctx context.Context) ([]*models.TopEntry, bool, error)
	// Generation changes on every Invalidate
	Generation(ctx context.Context) (int64, error)
	// Set stores entries only if no invalidation happened since generation was read
	Set(ctx context.Context, entries []*models.TopEntry, generation int64) (bool, error)
	Invalidate(ctx context.Context) error
}

// UserService defines the interface for user operations
type UserService interface {
	// Authenticate returns the user for a verified Telegram profile, registering it on first sight
	Authenticate(ctx context.Context, profile models.TelegramProfile) (*models.UserView, error)

	// GetView returns the public view of an existing user
	GetView(ctx context.Context, userID int64) (*models.UserView, error)
}

// PvPService defines the interface for duel operations
type PvPService interface {
	CreateOffer(ctx context.Context, challengerID int64, bet int64) (*models.PvPBattle, error)
	ListOffers(ctx context.Context) ([]*models.PvPOffer, error)
	AcceptOffer(ctx context.Context, acceptorID int64, battleID int64) (*models.DuelResult, error)
}

// FarmService defines the interface for farm operations
type FarmService interface {
	GetFarm(ctx context.Context, userID int64) (*models.Farm, error)
	BuyAnimal(ctx context.Context, userID int64, animalKey string) error
	BuyProtection(ctx context.Context, userID int64, itemKey string) error
}

// TaskService defines the interface for task operations
type TaskService interface {
	ListTasks(ctx context.Context, userID int64) ([]*models.UserTask, error)
	StartTask(ctx context.Context, userID int64, taskID int64) error
}

// GiveawayService defines the interface for giveaway operations
type GiveawayService interface {
	ListActive(ctx context.Context) ([]*models.Giveaway, error)
	Join(ctx context.Context, userID int64, giveawayID int64) error
}

// PromoService defines the interface for promo code redemption
type PromoService interface {
	Activate(ctx context.Context, userID int64, code string) (int64, error)
}

// ProfileService defines the interface for profile and verification operations
type ProfileService interface {
	UpdateField(ctx context.Context, userID int64, field string, value string) error
	SubmitSocial(ctx context.Context, userID int64, platform string, nick string) error
	VerifyPhone(ctx context.Context, userID int64) error
}

// DiceService defines the interface for the daily dice bonus
type DiceService interface {
	Roll(ctx context.Context, userID int64) (*models.DiceRoll, error)
}

// LeaderboardService defines the interface for the rating leaderboard
type LeaderboardService interface {
	Top(ctx context.Context) ([]*models.TopEntry, error)
}

// AdminService defines the interface for administrator-only operations
type AdminService interface {
	Export(ctx context.Context, userID int64) (int64, error)
}
