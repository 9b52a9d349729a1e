package service

import (
	"context"
	"fmt"

	"plombir/catalog"
	"plombir/models"

	log "github.com/sirupsen/logrus"
)

// farmService implements the FarmService interface
type farmService struct {
	uowFactory UnitOfWorkFactory
	catalog    *catalog.Catalog
}

// NewFarmService creates a new farm service
func NewFarmService(uowFactory UnitOfWorkFactory, c *catalog.Catalog) FarmService {
	return &farmService{
		uowFactory: uowFactory,
		catalog:    c,
	}
}

// GetFarm returns owned animals grouped by kind and owned protection, enriched from the catalog
func (s *farmService) GetFarm(ctx context.Context, userID int64) (*models.Farm, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	counts, err := uow.FarmRepository().CountAnimals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count animals: %w", err)
	}
	owned, err := uow.FarmRepository().ListProtection(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list protection: %w", err)
	}

	farm := &models.Farm{
		Animals:    make([]models.FarmAnimal, 0, len(counts)),
		Protection: make([]models.ProtectionItem, 0, len(owned)),
	}
	for _, c := range counts {
		animal, ok := s.catalog.Animal(c.AnimalKey)
		if !ok {
			// Rows for animals removed from the catalog are still shown by key
			animal = models.Animal{Key: c.AnimalKey}
		}
		farm.Animals = append(farm.Animals, models.FarmAnimal{Animal: animal, Count: c.Count})
	}
	for _, p := range owned {
		item, ok := s.catalog.ProtectionItem(p.ItemKey)
		if !ok {
			item = models.ProtectionItem{Key: p.ItemKey}
		}
		farm.Protection = append(farm.Protection, item)
	}

	return farm, nil
}

// BuyAnimal debits the catalog price and adds one animal
func (s *farmService) BuyAnimal(ctx context.Context, userID int64, animalKey string) error {
	animal, ok := s.catalog.Animal(animalKey)
	if !ok {
		return ErrUnknownAnimal
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rowID, err := uow.FarmRepository().AddAnimal(ctx, userID, animal.Key)
	if err != nil {
		return fmt.Errorf("failed to add animal: %w", err)
	}

	relatedID, relatedType := relatedTo(rowID, models.RelatedTypeUserFarm)
	if _, err := Debit(ctx, uow, BalanceChange{
		UserID:      userID,
		Amount:      animal.Price,
		Type:        models.TransactionTypeAnimalPurchase,
		Metadata:    map[string]any{"animal_key": animal.Key},
		RelatedID:   relatedID,
		RelatedType: relatedType,
	}); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":    userID,
		"animalKey": animal.Key,
		"price":     animal.Price,
	}).Info("Animal purchased")
	return nil
}

// BuyProtection debits the catalog price and records ownership; each item can be owned once
func (s *farmService) BuyProtection(ctx context.Context, userID int64, itemKey string) error {
	item, ok := s.catalog.ProtectionItem(itemKey)
	if !ok {
		return ErrUnknownItem
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	owned, err := uow.FarmRepository().HasProtection(ctx, userID, item.Key)
	if err != nil {
		return fmt.Errorf("failed to check protection: %w", err)
	}
	if owned {
		return ErrAlreadyOwned
	}

	if _, err := Debit(ctx, uow, BalanceChange{
		UserID:   userID,
		Amount:   item.Price,
		Type:     models.TransactionTypeProtectionBuy,
		Metadata: map[string]any{"item_key": item.Key},
	}); err != nil {
		return err
	}

	inserted, err := uow.FarmRepository().AddProtection(ctx, userID, item.Key)
	if err != nil {
		return fmt.Errorf("failed to add protection: %w", err)
	}
	if !inserted {
		// Bought by a concurrent request after our check
		return ErrAlreadyOwned
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":  userID,
		"itemKey": item.Key,
		"price":   item.Price,
	}).Info("Protection purchased")
	return nil
}
