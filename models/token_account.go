package models

import "time"

// TokenAccount is a custody account in the ledger. Only its owner, or a
// capability derived for the owner, may debit it.
type TokenAccount struct {
	Address   Address   `db:"address"`
	Owner     Address   `db:"owner"`
	Balance   uint64    `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CanCover reports whether the account holds at least amount
func (a *TokenAccount) CanCover(amount uint64) bool {
	return a.Balance >= amount
}

// IsOwnedBy reports whether the owner is the given identity
func (a *TokenAccount) IsOwnedBy(owner Address) bool {
	return a.Owner == owner
}
