package service

import (
	"context"
	"fmt"

	"coinflip/config"
	"coinflip/derivation"
	"coinflip/models"

	log "github.com/sirupsen/logrus"
)

type accountService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory, cfg *config.Config) AccountService {
	return &accountService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

func (s *accountService) OpenWallet(ctx context.Context, owner models.Address) (*models.TokenAccount, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner is required", models.ErrUnauthorized)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	account, err := newLedger(uow).OpenAccount(ctx, derivation.WalletAddress(owner), owner)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"owner":   owner.String(),
		"account": account.Address.String(),
	}).Info("Wallet opened")

	return account, nil
}

func (s *accountService) GetAccount(ctx context.Context, address models.Address) (*models.TokenAccount, error) {
	// Create unit of work for read operation
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return loadAccount(ctx, uow, address)
}

func (s *accountService) Mint(ctx context.Context, req MintRequest) (*models.TokenAccount, error) {
	if !s.config.MintingEnabled() || req.Minter != s.config.MintAuthority {
		return nil, fmt.Errorf("%w: %s may not mint", models.ErrUnauthorized, req.Minter)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if _, err := newLedger(uow).Mint(ctx, req.Account, req.Amount, req.Minter); err != nil {
		return nil, err
	}

	account, err := loadAccount(ctx, uow, req.Account)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"account": account.Address.String(),
		"amount":  req.Amount,
		"balance": account.Balance,
	}).Info("Minted funds")

	return account, nil
}
