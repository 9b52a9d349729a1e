package service

import (
	"context"
	"time"

	"plombir/events"
	"plombir/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) LockRegistration(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUserRepository) Create(ctx context.Context, profile models.TelegramProfile, initialBalance int64) (*models.User, error) {
	args := m.Called(ctx, profile, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetView(ctx context.Context, userID int64) (*models.UserView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserView), args.Error(1)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, userID int64, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, userID int64, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetTop(ctx context.Context, limit int) ([]*models.TopEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TopEntry), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) UpdateProfileField(ctx context.Context, userID int64, field models.ProfileField, value string) error {
	args := m.Called(ctx, userID, field, value)
	return args.Error(0)
}

func (m *MockUserRepository) SubmitSocial(ctx context.Context, userID int64, platform models.SocialPlatform, nick string) error {
	args := m.Called(ctx, userID, platform, nick)
	return args.Error(0)
}

func (m *MockUserRepository) MarkPhoneVerified(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

// MockFarmRepository is a mock implementation of FarmRepository
type MockFarmRepository struct {
	mock.Mock
}

func (m *MockFarmRepository) AddAnimal(ctx context.Context, userID int64, animalKey string) (int64, error) {
	args := m.Called(ctx, userID, animalKey)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFarmRepository) CountAnimals(ctx context.Context, userID int64) ([]*models.AnimalCount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AnimalCount), args.Error(1)
}

func (m *MockFarmRepository) HasProtection(ctx context.Context, userID int64, itemKey string) (bool, error) {
	args := m.Called(ctx, userID, itemKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockFarmRepository) AddProtection(ctx context.Context, userID int64, itemKey string) (bool, error) {
	args := m.Called(ctx, userID, itemKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockFarmRepository) ListProtection(ctx context.Context, userID int64) ([]*models.OwnedProtection, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OwnedProtection), args.Error(1)
}

// MockTaskRepository is a mock implementation of TaskRepository
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) GetByID(ctx context.Context, taskID int64) (*models.Task, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskRepository) ListForUser(ctx context.Context, userID int64) ([]*models.UserTask, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserTask), args.Error(1)
}

func (m *MockTaskRepository) MarkPending(ctx context.Context, userID, taskID int64) error {
	args := m.Called(ctx, userID, taskID)
	return args.Error(0)
}

// MockPvPRepository is a mock implementation of PvPRepository
type MockPvPRepository struct {
	mock.Mock
}

func (m *MockPvPRepository) Create(ctx context.Context, battle *models.PvPBattle) error {
	args := m.Called(ctx, battle)
	return args.Error(0)
}

func (m *MockPvPRepository) ListPending(ctx context.Context) ([]*models.PvPOffer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PvPOffer), args.Error(1)
}

func (m *MockPvPRepository) GetByIDForUpdate(ctx context.Context, battleID int64) (*models.PvPBattle, error) {
	args := m.Called(ctx, battleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PvPBattle), args.Error(1)
}

func (m *MockPvPRepository) Finish(ctx context.Context, battle *models.PvPBattle) (bool, error) {
	args := m.Called(ctx, battle)
	return args.Bool(0), args.Error(1)
}

func (m *MockPvPRepository) RecordOutcome(ctx context.Context, userID int64, won, lost, draw bool) error {
	args := m.Called(ctx, userID, won, lost, draw)
	return args.Error(0)
}

func (m *MockPvPRepository) GetStats(ctx context.Context, userID int64) (*models.PvPStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PvPStats), args.Error(1)
}

// MockGiveawayRepository is a mock implementation of GiveawayRepository
type MockGiveawayRepository struct {
	mock.Mock
}

func (m *MockGiveawayRepository) ListActive(ctx context.Context) ([]*models.Giveaway, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Giveaway), args.Error(1)
}

func (m *MockGiveawayRepository) GetByID(ctx context.Context, giveawayID int64) (*models.Giveaway, error) {
	args := m.Called(ctx, giveawayID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Giveaway), args.Error(1)
}

func (m *MockGiveawayRepository) AddParticipant(ctx context.Context, giveawayID, userID int64) (bool, error) {
	args := m.Called(ctx, giveawayID, userID)
	return args.Bool(0), args.Error(1)
}

// MockPromoRepository is a mock implementation of PromoRepository
type MockPromoRepository struct {
	mock.Mock
}

func (m *MockPromoRepository) GetByCodeForUpdate(ctx context.Context, code string) (*models.PromoCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PromoCode), args.Error(1)
}

func (m *MockPromoRepository) HasRedeemed(ctx context.Context, userID int64, code string) (bool, error) {
	args := m.Called(ctx, userID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockPromoRepository) IncrementUses(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockPromoRepository) RecordRedemption(ctx context.Context, userID int64, code string) error {
	args := m.Called(ctx, userID, code)
	return args.Error(0)
}

// MockDiceRepository is a mock implementation of DiceRepository
type MockDiceRepository struct {
	mock.Mock
}

func (m *MockDiceRepository) GetLastRoll(ctx context.Context, userID int64) (*time.Time, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockDiceRepository) ClaimRoll(ctx context.Context, userID int64, now, notAfter time.Time) (bool, error) {
	args := m.Called(ctx, userID, now, notAfter)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockTopCache is a mock implementation of TopCache
type MockTopCache struct {
	mock.Mock
}

func (m *MockTopCache) Get(ctx context.Context) ([]*models.TopEntry, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]*models.TopEntry), args.Bool(1), args.Error(2)
}

func (m *MockTopCache) Generation(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTopCache) Set(ctx context.Context, entries []*models.TopEntry, generation int64) (bool, error) {
	args := m.Called(ctx, entries, generation)
	return args.Bool(0), args.Error(1)
}

func (m *MockTopCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// injected with SetRepositories; events are collected in Published.
type MockUnitOfWork struct {
	mock.Mock
	userRepo           UserRepository
	balanceHistoryRepo BalanceHistoryRepository
	farmRepo           FarmRepository
	taskRepo           TaskRepository
	pvpRepo            PvPRepository
	giveawayRepo       GiveawayRepository
	promoRepo          PromoRepository
	diceRepo           DiceRepository
	publisher          *RecordingPublisher
}

// MockRepositories lists the repositories a MockUnitOfWork hands out
type MockRepositories struct {
	User           UserRepository
	BalanceHistory BalanceHistoryRepository
	Farm           FarmRepository
	Task           TaskRepository
	PvP            PvPRepository
	Giveaway       GiveawayRepository
	Promo          PromoRepository
	Dice           DiceRepository
}

// SetRepositories configures the repositories returned by the unit of work
func (m *MockUnitOfWork) SetRepositories(repos MockRepositories) {
	m.userRepo = repos.User
	m.balanceHistoryRepo = repos.BalanceHistory
	m.farmRepo = repos.Farm
	m.taskRepo = repos.Task
	m.pvpRepo = repos.PvP
	m.giveawayRepo = repos.Giveaway
	m.promoRepo = repos.Promo
	m.diceRepo = repos.Dice
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository                     { return m.userRepo }
func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository { return m.balanceHistoryRepo }
func (m *MockUnitOfWork) FarmRepository() FarmRepository                     { return m.farmRepo }
func (m *MockUnitOfWork) TaskRepository() TaskRepository                     { return m.taskRepo }
func (m *MockUnitOfWork) PvPRepository() PvPRepository                       { return m.pvpRepo }
func (m *MockUnitOfWork) GiveawayRepository() GiveawayRepository             { return m.giveawayRepo }
func (m *MockUnitOfWork) PromoRepository() PromoRepository                   { return m.promoRepo }
func (m *MockUnitOfWork) DiceRepository() DiceRepository                     { return m.diceRepo }

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.publisher == nil {
		m.publisher = &RecordingPublisher{}
	}
	return m.publisher
}

// Published returns the events raised through this unit of work
func (m *MockUnitOfWork) Published() []events.Event {
	if m.publisher == nil {
		return nil
	}
	return m.publisher.Events
}

// RecordingPublisher collects published events in order
type RecordingPublisher struct {
	Events []events.Event
}

func (p *RecordingPublisher) Publish(event events.Event) {
	p.Events = append(p.Events, event)
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// SequenceRoller returns the configured values in order
type SequenceRoller struct {
	Values []int
	next   int
}

func (r *SequenceRoller) Roll() int {
	v := r.Values[r.next%len(r.Values)]
	r.next++
	return v
}
