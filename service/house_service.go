package service

import (
	"context"
	"errors"
	"fmt"

	"coinflip/derivation"
	"coinflip/events"
	"coinflip/ledger"
	"coinflip/models"

	log "github.com/sirupsen/logrus"
)

type houseService struct {
	uowFactory UnitOfWorkFactory
}

// NewHouseService creates a new house service
func NewHouseService(uowFactory UnitOfWorkFactory) HouseService {
	return &houseService{
		uowFactory: uowFactory,
	}
}

func (s *houseService) InitializeHouse(ctx context.Context, req InitializeHouseRequest) (*models.HouseTreasury, error) {
	if req.Authority.IsZero() {
		return nil, fmt.Errorf("%w: authority is required", models.ErrUnauthorized)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	houseAddress := derivation.HouseAddress()
	treasuryAddress := derivation.TreasuryAddress(houseAddress)

	// The treasury account is created first since the house row references it
	if _, err := newLedger(uow).OpenAccount(ctx, treasuryAddress, houseAddress); err != nil {
		if errors.Is(err, models.ErrAccountExists) {
			return nil, fmt.Errorf("%w: house %s", models.ErrAlreadyExists, houseAddress)
		}
		return nil, fmt.Errorf("failed to open treasury account: %w", err)
	}

	house := &models.HouseTreasury{
		Address:         houseAddress,
		Bump:            derivation.CanonicalBump,
		Authority:       req.Authority,
		TreasuryAccount: treasuryAddress,
	}
	if err := uow.HouseRepository().Create(ctx, house); err != nil {
		return nil, fmt.Errorf("failed to create house: %w", err)
	}

	uow.EventBus().Publish(events.HouseInitializedEvent{House: *house})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"house":     house.Address.String(),
		"authority": house.Authority.String(),
		"treasury":  house.TreasuryAccount.String(),
	}).Info("House initialized")

	return house, nil
}

func (s *houseService) DepositHouse(ctx context.Context, req DepositRequest) (*models.HouseView, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	house, err := s.authorizedHouse(ctx, uow, req.Authority, req.TreasuryAccount)
	if err != nil {
		return nil, err
	}

	relatedType, relatedID := relatedTo(models.RelatedTypeHouse, house.Address)
	_, err = MoveFunds(ctx, uow, ledger.Transfer{
		From:        req.AuthorityAccount,
		To:          house.TreasuryAccount,
		Amount:      req.Amount,
		Authority:   ledger.OwnerConsent(req.Authority),
		Kind:        models.TransferKindDeposit,
		RelatedID:   relatedID,
		RelatedType: relatedType,
	})
	if err != nil {
		return nil, err
	}

	balance, err := accountBalance(ctx, uow, house.TreasuryAccount)
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.HouseDepositedEvent{
		House:           *house,
		Amount:          req.Amount,
		TreasuryBalance: balance,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.HouseView{House: house, TreasuryBalance: balance}, nil
}

func (s *houseService) WithdrawHouse(ctx context.Context, req WithdrawRequest) (*models.HouseView, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	house, err := s.authorizedHouse(ctx, uow, req.Authority, req.TreasuryAccount)
	if err != nil {
		return nil, err
	}

	treasury, err := loadAccount(ctx, uow, house.TreasuryAccount)
	if err != nil {
		return nil, err
	}
	capability, err := derivation.Authorize(derivation.ForHouse(house), treasury)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize treasury: %w", err)
	}

	relatedType, relatedID := relatedTo(models.RelatedTypeHouse, house.Address)
	_, err = MoveFunds(ctx, uow, ledger.Transfer{
		From:        house.TreasuryAccount,
		To:          req.AuthorityAccount,
		Amount:      req.Amount,
		Authority:   ledger.Delegated(capability),
		Kind:        models.TransferKindWithdraw,
		RelatedID:   relatedID,
		RelatedType: relatedType,
	})
	if err != nil {
		return nil, err
	}

	balance, err := accountBalance(ctx, uow, house.TreasuryAccount)
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.HouseWithdrawnEvent{
		House:           *house,
		Amount:          req.Amount,
		TreasuryBalance: balance,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.HouseView{House: house, TreasuryBalance: balance}, nil
}

func (s *houseService) GetHouse(ctx context.Context) (*models.HouseView, error) {
	// Create unit of work for read operation
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	house, err := loadHouse(ctx, uow)
	if err != nil {
		return nil, err
	}

	balance, err := accountBalance(ctx, uow, house.TreasuryAccount)
	if err != nil {
		return nil, err
	}

	return &models.HouseView{House: house, TreasuryBalance: balance}, nil
}

// authorizedHouse loads the house and checks the caller and treasury account
// against what the house recorded.
func (s *houseService) authorizedHouse(ctx context.Context, uow UnitOfWork, caller, treasuryAccount models.Address) (*models.HouseTreasury, error) {
	house, err := loadHouse(ctx, uow)
	if err != nil {
		return nil, err
	}
	if !house.IsAuthority(caller) {
		return nil, fmt.Errorf("%w: %s is not the house authority", models.ErrUnauthorized, caller)
	}
	if house.TreasuryAccount != treasuryAccount {
		return nil, fmt.Errorf("%w: %s is not the house treasury account", models.ErrUnauthorized, treasuryAccount)
	}
	return house, nil
}

func loadHouse(ctx context.Context, uow UnitOfWork) (*models.HouseTreasury, error) {
	house, err := uow.HouseRepository().GetByAddress(ctx, derivation.HouseAddress())
	if err != nil {
		return nil, fmt.Errorf("failed to get house: %w", err)
	}
	if house == nil {
		return nil, models.ErrHouseNotInitialized
	}
	return house, nil
}
