package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// adminService implements the AdminService interface
type adminService struct {
	uowFactory UnitOfWorkFactory
}

// NewAdminService creates a new admin service
func NewAdminService(uowFactory UnitOfWorkFactory) AdminService {
	return &adminService{uowFactory: uowFactory}
}

// Export checks that the caller is an administrator and returns the number of users
func (s *adminService) Export(ctx context.Context, userID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	isAdmin, err := uow.UserRepository().IsAdmin(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to check admin: %w", err)
	}
	if !isAdmin {
		log.WithField("userID", userID).Warn("Non-admin attempted export")
		return 0, ErrNotAdmin
	}

	count, err := uow.UserRepository().Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
