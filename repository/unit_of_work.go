package repository

import (
	"context"
	"errors"
	"fmt"

	"coinflip/database"
	"coinflip/events"
	"coinflip/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	houseRepo        service.HouseRepository
	betRepo          service.BetRecordRepository
	accountRepo      service.TokenAccountRepository
	transferRepo     service.TransferRecordRepository
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

	// Create repositories with the transaction
	u.houseRepo = newHouseRepositoryWithTx(tx)
	u.betRepo = newBetRecordRepositoryWithTx(tx)
	u.accountRepo = newTokenAccountRepositoryWithTx(tx)
	u.transferRepo = newTransferRecordRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// HouseRepository returns the house repository for this unit of work
func (u *unitOfWork) HouseRepository() service.HouseRepository {
	if u.houseRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.houseRepo
}

// BetRecordRepository returns the bet record repository for this unit of work
func (u *unitOfWork) BetRecordRepository() service.BetRecordRepository {
	if u.betRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.betRepo
}

// TokenAccountRepository returns the ledger account repository for this unit of work
func (u *unitOfWork) TokenAccountRepository() service.TokenAccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

// TransferRecordRepository returns the transfer audit repository for this unit of work
func (u *unitOfWork) TransferRecordRepository() service.TransferRecordRepository {
	if u.transferRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transferRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
