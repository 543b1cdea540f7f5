// Package ledger moves funds between custody accounts. Every debit needs
// either the owner's consent or a capability derived for the owner.
package ledger

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"coinflip/derivation"
	"coinflip/models"

	log "github.com/sirupsen/logrus"
)

// AccountStore is the account storage the ledger needs. Implementations must
// lock rows returned by GetForUpdate until the surrounding transaction ends.
type AccountStore interface {
	GetForUpdate(ctx context.Context, address models.Address) (*models.TokenAccount, error)
	Create(ctx context.Context, account *models.TokenAccount) error
	UpdateBalance(ctx context.Context, address models.Address, balance uint64) error
}

// TransferRecorder persists completed transfer legs
type TransferRecorder interface {
	Record(ctx context.Context, record *models.TransferRecord) error
}

// Authority is the right to debit an account
type Authority struct {
	consent    models.Address
	capability derivation.Capability
}

// OwnerConsent is the signature of the account owner
func OwnerConsent(signer models.Address) Authority {
	return Authority{consent: signer}
}

// Delegated wraps a capability issued for a derived owner
func Delegated(capability derivation.Capability) Authority {
	return Authority{capability: capability}
}

// Signer returns the identity on whose behalf funds are moved
func (a Authority) Signer() models.Address {
	if !a.capability.IsZero() {
		return a.capability.Signer()
	}
	return a.consent
}

// IsDelegated reports whether the authority is a derived capability
func (a Authority) IsDelegated() bool {
	return !a.capability.IsZero()
}

func (a Authority) permits(from *models.TokenAccount) bool {
	if a.IsDelegated() {
		return a.capability.Permits(from)
	}
	return !a.consent.IsZero() && from.IsOwnedBy(a.consent)
}

// Transfer describes a single fund movement
type Transfer struct {
	From        models.Address
	To          models.Address
	Amount      uint64
	Authority   Authority
	Kind        models.TransferKind
	RelatedID   *models.Address
	RelatedType *models.RelatedType
	Metadata    map[string]any
}

// Ledger performs transfers on top of an account store
type Ledger struct {
	accounts AccountStore
	records  TransferRecorder
}

// New creates a ledger over stores that share one transaction
func New(accounts AccountStore, records TransferRecorder) *Ledger {
	return &Ledger{
		accounts: accounts,
		records:  records,
	}
}

// OpenAccount creates an empty account. An occupied address fails with
// models.ErrAccountExists.
func (l *Ledger) OpenAccount(ctx context.Context, address, owner models.Address) (*models.TokenAccount, error) {
	if address.IsZero() || owner.IsZero() {
		return nil, fmt.Errorf("account address and owner are required")
	}

	account := &models.TokenAccount{
		Address: address,
		Owner:   owner,
	}
	if err := l.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to open account %s: %w", address, err)
	}
	return account, nil
}

// Transfer debits t.From and credits t.To, returning the recorded leg.
// Zero amounts leave balances untouched but are still authorized and recorded.
func (l *Ledger) Transfer(ctx context.Context, t Transfer) (*models.TransferRecord, error) {
	if t.From == t.To {
		return nil, fmt.Errorf("%w: cannot transfer from %s to itself", models.ErrInvalidTransfer, t.From)
	}

	from, to, err := l.lockPair(ctx, t.From, t.To)
	if err != nil {
		return nil, err
	}

	if !t.Authority.permits(from) {
		return nil, fmt.Errorf("%w: %s may not debit account %s", models.ErrUnauthorized, t.Authority.Signer(), from.Address)
	}
	if !from.CanCover(t.Amount) {
		return nil, fmt.Errorf("%w: account %s holds %d, needs %d", models.ErrInsufficientFunds, from.Address, from.Balance, t.Amount)
	}

	credited, err := models.CheckedAdd(to.Balance, t.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to credit account %s: %w", to.Address, err)
	}
	if _, err := models.ToStoredAmount(credited); err != nil {
		return nil, fmt.Errorf("failed to credit account %s: %w", to.Address, err)
	}

	if t.Amount > 0 {
		if err := l.accounts.UpdateBalance(ctx, from.Address, from.Balance-t.Amount); err != nil {
			return nil, fmt.Errorf("failed to debit account %s: %w", from.Address, err)
		}
		if err := l.accounts.UpdateBalance(ctx, to.Address, credited); err != nil {
			return nil, fmt.Errorf("failed to credit account %s: %w", to.Address, err)
		}
		from.Balance -= t.Amount
		to.Balance = credited
	}

	source := from.Address
	record := &models.TransferRecord{
		From:        &source,
		To:          to.Address,
		Amount:      t.Amount,
		Kind:        t.Kind,
		Signer:      t.Authority.Signer(),
		Delegated:   t.Authority.IsDelegated(),
		Metadata:    t.Metadata,
		RelatedID:   t.RelatedID,
		RelatedType: t.RelatedType,
	}
	if err := l.records.Record(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record transfer: %w", err)
	}

	log.WithFields(log.Fields{
		"from":      from.Address.String(),
		"to":        to.Address.String(),
		"amount":    t.Amount,
		"kind":      t.Kind,
		"delegated": record.Delegated,
	}).Debug("Ledger transfer applied")

	return record, nil
}

// Mint credits an account without a source. Callers gate who may mint.
func (l *Ledger) Mint(ctx context.Context, address models.Address, amount uint64, minter models.Address) (*models.TransferRecord, error) {
	account, err := l.lock(ctx, address)
	if err != nil {
		return nil, err
	}

	credited, err := models.CheckedAdd(account.Balance, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to mint into account %s: %w", address, err)
	}
	if _, err := models.ToStoredAmount(credited); err != nil {
		return nil, fmt.Errorf("failed to mint into account %s: %w", address, err)
	}
	if err := l.accounts.UpdateBalance(ctx, address, credited); err != nil {
		return nil, fmt.Errorf("failed to mint into account %s: %w", address, err)
	}
	account.Balance = credited

	record := &models.TransferRecord{
		To:     address,
		Amount: amount,
		Kind:   models.TransferKindMint,
		Signer: minter,
	}
	if err := l.records.Record(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record mint: %w", err)
	}
	return record, nil
}

// LockAccounts locks every listed account in address order. Multi-leg
// operations call it up front so their later per-leg locks are already held
// and cannot interleave with a concurrent transaction in a different order.
func (l *Ledger) LockAccounts(ctx context.Context, addresses ...models.Address) error {
	ordered := make([]models.Address, 0, len(addresses))
	for _, address := range addresses {
		if !slices.Contains(ordered, address) {
			ordered = append(ordered, address)
		}
	}
	slices.SortFunc(ordered, func(a, b models.Address) int {
		return bytes.Compare(a[:], b[:])
	})

	for _, address := range ordered {
		if _, err := l.lock(ctx, address); err != nil {
			return err
		}
	}
	return nil
}

// lockPair locks both accounts in address order so concurrent transfers over
// the same pair cannot deadlock.
func (l *Ledger) lockPair(ctx context.Context, fromAddr, toAddr models.Address) (*models.TokenAccount, *models.TokenAccount, error) {
	first, second := fromAddr, toAddr
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}

	a, err := l.lock(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := l.lock(ctx, second)
	if err != nil {
		return nil, nil, err
	}

	if a.Address == fromAddr {
		return a, b, nil
	}
	return b, a, nil
}

func (l *Ledger) lock(ctx context.Context, address models.Address) (*models.TokenAccount, error) {
	account, err := l.accounts.GetForUpdate(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", address, err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrAccountNotFound, address)
	}
	return account, nil
}
