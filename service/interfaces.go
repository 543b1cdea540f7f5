package service

import (
	"context"

	"coinflip/events"
	"coinflip/ledger"
	"coinflip/models"
)

// HouseRepository defines the interface for house data access
type HouseRepository interface {
	// Create inserts the house, failing with models.ErrAlreadyExists if the address is taken
	Create(ctx context.Context, house *models.HouseTreasury) error

	// GetByAddress retrieves a house, returning nil if it does not exist
	GetByAddress(ctx context.Context, address models.Address) (*models.HouseTreasury, error)

	// GetForUpdate retrieves a house and locks it for the rest of the transaction
	GetForUpdate(ctx context.Context, address models.Address) (*models.HouseTreasury, error)

	// UpdateCounters persists the win and loss counters
	UpdateCounters(ctx context.Context, house *models.HouseTreasury) error
}

// BetRecordRepository defines the interface for bet data access
type BetRecordRepository interface {
	// Create inserts an unsettled bet, failing with models.ErrDuplicateWager if the address is taken
	Create(ctx context.Context, bet *models.BetRecord) error

	// GetByAddress retrieves a bet, returning nil if it does not exist
	GetByAddress(ctx context.Context, address models.Address) (*models.BetRecord, error)

	// GetForUpdate retrieves a bet and locks it for the rest of the transaction
	GetForUpdate(ctx context.Context, address models.Address) (*models.BetRecord, error)

	// GetByUser returns the most recent bets placed by a user
	GetByUser(ctx context.Context, user models.Address, limit int) ([]*models.BetRecord, error)

	// MarkSettled persists the settlement of a bet that is still unsettled in storage
	MarkSettled(ctx context.Context, bet *models.BetRecord) error
}

// TokenAccountRepository defines the interface for ledger account data access
type TokenAccountRepository interface {
	ledger.AccountStore

	// GetByAddress retrieves an account without locking it
	GetByAddress(ctx context.Context, address models.Address) (*models.TokenAccount, error)

	// GetByOwner returns all accounts owned by an identity
	GetByOwner(ctx context.Context, owner models.Address) ([]*models.TokenAccount, error)
}

// TransferRecordRepository defines the interface for the transfer audit trail
type TransferRecordRepository interface {
	ledger.TransferRecorder

	// GetByRelated returns every leg recorded for a house or bet, oldest first
	GetByRelated(ctx context.Context, relatedType models.RelatedType, relatedID models.Address) ([]*models.TransferRecord, error)

	// GetByAccount returns the most recent legs touching an account
	GetByAccount(ctx context.Context, account models.Address, limit int) ([]*models.TransferRecord, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// HouseService defines the interface for treasury operations
type HouseService interface {
	// InitializeHouse creates the house singleton with the caller as authority
	InitializeHouse(ctx context.Context, req InitializeHouseRequest) (*models.HouseTreasury, error)

	// DepositHouse moves funds from the authority into the treasury
	DepositHouse(ctx context.Context, req DepositRequest) (*models.HouseView, error)

	// WithdrawHouse moves funds from the treasury to the authority
	WithdrawHouse(ctx context.Context, req WithdrawRequest) (*models.HouseView, error)

	// GetHouse returns the house with its treasury balance
	GetHouse(ctx context.Context) (*models.HouseView, error)
}

// BettingService defines the interface for placing wagers
type BettingService interface {
	// PlaceBet stakes funds into a fresh escrow and records the wager
	PlaceBet(ctx context.Context, req PlaceBetRequest) (*models.BetRecord, error)

	// GetBet retrieves a bet by address
	GetBet(ctx context.Context, address models.Address) (*models.BetRecord, error)

	// ListBetsByUser returns the most recent bets of a user
	ListBetsByUser(ctx context.Context, user models.Address, limit int) ([]*models.BetRecord, error)
}

// SettlementService defines the interface for resolving wagers
type SettlementService interface {
	// SettleBet computes the outcome of an open bet and routes its funds
	SettleBet(ctx context.Context, req SettleBetRequest) (*models.BetResult, error)
}

// AccountService defines the interface for ledger account bootstrapping
type AccountService interface {
	// OpenWallet opens the personal account of an owner
	OpenWallet(ctx context.Context, owner models.Address) (*models.TokenAccount, error)

	// GetAccount retrieves a ledger account
	GetAccount(ctx context.Context, address models.Address) (*models.TokenAccount, error)

	// Mint credits an account, allowed only for the configured mint authority
	Mint(ctx context.Context, req MintRequest) (*models.TokenAccount, error)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	HouseRepository() HouseRepository
	BetRecordRepository() BetRecordRepository
	TokenAccountRepository() TokenAccountRepository
	TransferRecordRepository() TransferRecordRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
