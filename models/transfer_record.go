package models

import (
	"errors"
	"time"
)

// TransferKind represents why funds moved between two ledger accounts
type TransferKind string

const (
	TransferKindDeposit     TransferKind = "deposit"
	TransferKindWithdraw    TransferKind = "withdraw"
	TransferKindStake       TransferKind = "stake"
	TransferKindStakeReturn TransferKind = "stake_return"
	TransferKindPayout      TransferKind = "payout"
	TransferKindForfeit     TransferKind = "forfeit"
	TransferKindMint        TransferKind = "mint"
)

// RelatedType represents what kind of entity a transfer belongs to
type RelatedType string

const (
	RelatedTypeHouse RelatedType = "house"
	RelatedTypeBet   RelatedType = "bet"
)

// TransferRecord is one completed leg of a fund movement
type TransferRecord struct {
	ID          int64          `db:"id"`
	From        *Address       `db:"from_account"`
	To          Address        `db:"to_account"`
	Amount      uint64         `db:"amount"`
	Kind        TransferKind   `db:"kind"`
	Signer      Address        `db:"signer"`
	Delegated   bool           `db:"delegated"`
	Metadata    map[string]any `db:"metadata"`
	RelatedID   *Address       `db:"related_id"`
	RelatedType *RelatedType   `db:"related_type"`
	CreatedAt   time.Time      `db:"created_at"`
}

// IsSettlementLeg returns true for legs moved by a settlement
func (k TransferKind) IsSettlementLeg() bool {
	return k == TransferKindStakeReturn ||
		k == TransferKindPayout ||
		k == TransferKindForfeit
}

// IsHouseFunding returns true for authority deposits and withdrawals
func (k TransferKind) IsHouseFunding() bool {
	return k == TransferKindDeposit || k == TransferKindWithdraw
}

func (k TransferKind) String() string {
	return string(k)
}

// Validate performs basic validation on the record
func (r *TransferRecord) Validate() error {
	if r.To.IsZero() {
		return errors.New("transfer destination is required")
	}
	if r.From == nil && r.Kind != TransferKindMint {
		return errors.New("only mints may omit the source account")
	}
	if r.From != nil && *r.From == r.To {
		return errors.New("transfer source and destination must differ")
	}
	return nil
}
