package models

import (
	"fmt"
	"time"
)

// Coin faces as used by UserGuess and Settlement.Result
const (
	Heads = true
	Tails = false
)

// BetRecord is a single wager keyed by (user, user seed)
type BetRecord struct {
	Address       Address   `db:"address"`
	User          Address   `db:"user_address"`
	House         Address   `db:"house_address"`
	Amount        uint64    `db:"amount"`
	UserGuess     bool      `db:"user_guess"`
	UserSeed      uint64    `db:"user_seed"`
	EscrowAccount Address   `db:"escrow_account"`
	Bump          uint8     `db:"bump"`
	CreatedAt     time.Time `db:"created_at"`

	// Settlement is nil while the bet is open. Once set it is never cleared.
	Settlement *Settlement
}

// Settlement is the terminal state of a bet
type Settlement struct {
	HouseSeed uint64    `db:"house_seed"`
	Result    bool      `db:"result"`
	SettledAt time.Time `db:"settled_at"`
}

// BetResult is returned to callers of a settlement. Payout is the amount paid
// out of the treasury; a winning stake is returned from escrow on top of it.
type BetResult struct {
	Bet       *BetRecord
	Combined  uint64
	Result    bool
	UserWon   bool
	Payout    uint64
	WinCount  uint64
	LossCount uint64
}

// IsSettled reports whether the bet has reached its terminal state
func (b *BetRecord) IsSettled() bool {
	return b.Settlement != nil
}

// Settle moves the bet into the settled state exactly once
func (b *BetRecord) Settle(houseSeed uint64, result bool, at time.Time) error {
	if b.Settlement != nil {
		return fmt.Errorf("%w: bet %s", ErrBetAlreadySettled, b.Address)
	}
	b.Settlement = &Settlement{
		HouseSeed: houseSeed,
		Result:    result,
		SettledAt: at,
	}
	return nil
}

// HouseSeed returns the house seed, or zero while unsettled
func (b *BetRecord) HouseSeed() uint64 {
	if b.Settlement == nil {
		return 0
	}
	return b.Settlement.HouseSeed
}

// Result returns the coin face, or false while unsettled
func (b *BetRecord) Result() bool {
	if b.Settlement == nil {
		return false
	}
	return b.Settlement.Result
}

// UserWon reports whether a settled bet went to the user
func (b *BetRecord) UserWon() bool {
	return b.Settlement != nil && b.Settlement.Result == b.UserGuess
}

// Validate checks the invariants a bet must satisfy at creation
func (b *BetRecord) Validate() error {
	if b.Amount == 0 {
		return ErrInvalidBetAmount
	}
	if b.User.IsZero() || b.House.IsZero() || b.EscrowAccount.IsZero() {
		return fmt.Errorf("bet %s is missing a linked identity", b.Address)
	}
	return nil
}

// FaceName returns a readable name for a coin face
func FaceName(face bool) string {
	if face == Heads {
		return "heads"
	}
	return "tails"
}
