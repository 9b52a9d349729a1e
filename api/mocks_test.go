package api

import (
	"context"

	"plombir/models"

	"github.com/stretchr/testify/mock"
)

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) Authenticate(ctx context.Context, profile models.TelegramProfile) (*models.UserView, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserView), args.Error(1)
}

func (m *mockUserService) GetView(ctx context.Context, userID int64) (*models.UserView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserView), args.Error(1)
}

type mockPvPService struct {
	mock.Mock
}

func (m *mockPvPService) CreateOffer(ctx context.Context, challengerID int64, bet int64) (*models.PvPBattle, error) {
	args := m.Called(ctx, challengerID, bet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PvPBattle), args.Error(1)
}

func (m *mockPvPService) ListOffers(ctx context.Context) ([]*models.PvPOffer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PvPOffer), args.Error(1)
}

func (m *mockPvPService) AcceptOffer(ctx context.Context, acceptorID int64, battleID int64) (*models.DuelResult, error) {
	args := m.Called(ctx, acceptorID, battleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DuelResult), args.Error(1)
}

type mockFarmService struct {
	mock.Mock
}

func (m *mockFarmService) GetFarm(ctx context.Context, userID int64) (*models.Farm, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Farm), args.Error(1)
}

func (m *mockFarmService) BuyAnimal(ctx context.Context, userID int64, animalKey string) error {
	return m.Called(ctx, userID, animalKey).Error(0)
}

func (m *mockFarmService) BuyProtection(ctx context.Context, userID int64, itemKey string) error {
	return m.Called(ctx, userID, itemKey).Error(0)
}

type mockPromoService struct {
	mock.Mock
}

func (m *mockPromoService) Activate(ctx context.Context, userID int64, code string) (int64, error) {
	args := m.Called(ctx, userID, code)
	return args.Get(0).(int64), args.Error(1)
}

type mockProfileService struct {
	mock.Mock
}

func (m *mockProfileService) UpdateField(ctx context.Context, userID int64, field string, value string) error {
	return m.Called(ctx, userID, field, value).Error(0)
}

func (m *mockProfileService) SubmitSocial(ctx context.Context, userID int64, platform string, nick string) error {
	return m.Called(ctx, userID, platform, nick).Error(0)
}

func (m *mockProfileService) VerifyPhone(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

type mockDiceService struct {
	mock.Mock
}

func (m *mockDiceService) Roll(ctx context.Context, userID int64) (*models.DiceRoll, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DiceRoll), args.Error(1)
}

type mockLeaderboardService struct {
	mock.Mock
}

func (m *mockLeaderboardService) Top(ctx context.Context) ([]*models.TopEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TopEntry), args.Error(1)
}

type mockAdminService struct {
	mock.Mock
}

func (m *mockAdminService) Export(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
