package service

import (
	"context"
	"fmt"

	"coinflip/events"
	"coinflip/ledger"
	"coinflip/models"
)

// newLedger builds a ledger bound to the unit of work's transaction
func newLedger(uow UnitOfWork) *ledger.Ledger {
	return ledger.New(uow.TokenAccountRepository(), uow.TransferRecordRepository())
}

// MoveFunds performs one ledger leg inside the unit of work and emits a
// transfer event. This is the single entry point for fund movement.
func MoveFunds(ctx context.Context, uow UnitOfWork, transfer ledger.Transfer) (*models.TransferRecord, error) {
	record, err := newLedger(uow).Transfer(ctx, transfer)
	if err != nil {
		return nil, fmt.Errorf("%s transfer failed: %w", transfer.Kind, err)
	}

	// Flushed after the transaction commits
	uow.EventBus().Publish(events.FundsTransferredEvent{
		Kind:      record.Kind,
		Amount:    record.Amount,
		Delegated: record.Delegated,
	})

	return record, nil
}

// loadAccount reads a ledger account without locking it. Ownership never
// changes, so the result is safe for capability checks; the ledger locks rows
// itself when it moves funds.
func loadAccount(ctx context.Context, uow UnitOfWork, address models.Address) (*models.TokenAccount, error) {
	account, err := uow.TokenAccountRepository().GetByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", address, err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrAccountNotFound, address)
	}
	return account, nil
}

// accountBalance reads the balance of an account without locking it
func accountBalance(ctx context.Context, uow UnitOfWork, address models.Address) (uint64, error) {
	account, err := loadAccount(ctx, uow, address)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func relatedTo(kind models.RelatedType, id models.Address) (*models.RelatedType, *models.Address) {
	return &kind, &id
}
