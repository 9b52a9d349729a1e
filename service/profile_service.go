package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"plombir/events"
	"plombir/models"

	log "github.com/sirupsen/logrus"
)

// PhoneVerificationReward is credited the first time a phone is verified
const PhoneVerificationReward int64 = 20

const maxProfileValueLength = 256

// profileService implements the ProfileService interface
type profileService struct {
	uowFactory UnitOfWorkFactory
}

// NewProfileService creates a new profile service
func NewProfileService(uowFactory UnitOfWorkFactory) ProfileService {
	return &profileService{uowFactory: uowFactory}
}

// UpdateField sets one of the editable profile fields
func (s *profileService) UpdateField(ctx context.Context, userID int64, rawField string, value string) error {
	field, ok := models.ParseProfileField(rawField)
	if !ok {
		return ErrInvalidField
	}
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) > maxProfileValueLength {
		return ErrInvalidField
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().UpdateProfileField(ctx, userID, field, value); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SubmitSocial stores a social handle and queues it for moderation
func (s *profileService) SubmitSocial(ctx context.Context, userID int64, rawPlatform string, nick string) error {
	platform, ok := models.ParseSocialPlatform(rawPlatform)
	if !ok {
		return ErrInvalidPlatform
	}
	nick = strings.TrimSpace(nick)
	if nick == "" || utf8.RuneCountInString(nick) > maxProfileValueLength {
		return ErrInvalidField
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().SubmitSocial(ctx, userID, platform, nick); err != nil {
		return fmt.Errorf("failed to submit social account: %w", err)
	}

	uow.EventBus().Publish(events.SocialSubmittedEvent{UserID: userID, Platform: platform, Nick: nick})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// VerifyPhone flags the phone as verified and pays the one-time reward
func (s *profileService) VerifyPhone(ctx context.Context, userID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	changed, err := uow.UserRepository().MarkPhoneVerified(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to verify phone: %w", err)
	}
	if !changed {
		// Already verified, nothing to pay out
		return nil
	}

	if _, err := Credit(ctx, uow, BalanceChange{
		UserID: userID,
		Amount: PhoneVerificationReward,
		Type:   models.TransactionTypePhoneVerifyBonus,
	}); err != nil {
		return fmt.Errorf("failed to credit phone reward: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("userID", userID).Info("Phone verified")
	return nil
}
