package repository

import (
	"context"
	"errors"
	"fmt"

	"plombir/database"
	"plombir/events"
	"plombir/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                 *database.DB
	tx                 pgx.Tx
	ctx                context.Context
	transactionalBus   *events.TransactionalBus
	userRepo           service.UserRepository
	balanceHistoryRepo service.BalanceHistoryRepository
	farmRepo           service.FarmRepository
	taskRepo           service.TaskRepository
	pvpRepo            service.PvPRepository
	giveawayRepo       service.GiveawayRepository
	promoRepo          service.PromoRepository
	diceRepo           service.DiceRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.userRepo = newUserRepositoryWithTx(tx)
	u.balanceHistoryRepo = newBalanceHistoryRepositoryWithTx(tx)
	u.farmRepo = newFarmRepositoryWithTx(tx)
	u.taskRepo = newTaskRepositoryWithTx(tx)
	u.pvpRepo = newPvPRepositoryWithTx(tx)
	u.giveawayRepo = newGiveawayRepositoryWithTx(tx)
	u.promoRepo = newPromoRepositoryWithTx(tx)
	u.diceRepo = newDiceRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and then releases queued events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction. It is safe to call after Commit.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Events raised by a failed operation never reach subscribers
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

func mustBegin[T any](repo T) T {
	if any(repo) == nil {
		panic("unit of work not started - call Begin() first")
	}
	return repo
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() service.UserRepository {
	return mustBegin(u.userRepo)
}

// BalanceHistoryRepository returns the balance history repository for this unit of work
func (u *unitOfWork) BalanceHistoryRepository() service.BalanceHistoryRepository {
	return mustBegin(u.balanceHistoryRepo)
}

func (u *unitOfWork) FarmRepository() service.FarmRepository {
	return mustBegin(u.farmRepo)
}

func (u *unitOfWork) TaskRepository() service.TaskRepository {
	return mustBegin(u.taskRepo)
}

func (u *unitOfWork) PvPRepository() service.PvPRepository {
	return mustBegin(u.pvpRepo)
}

func (u *unitOfWork) GiveawayRepository() service.GiveawayRepository {
	return mustBegin(u.giveawayRepo)
}

func (u *unitOfWork) PromoRepository() service.PromoRepository {
	return mustBegin(u.promoRepo)
}

func (u *unitOfWork) DiceRepository() service.DiceRepository {
	return mustBegin(u.diceRepo)
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
