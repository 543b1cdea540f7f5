package service

import "coinflip/models"

// InitializeHouseRequest asks for the house singleton to be created
type InitializeHouseRequest struct {
	Authority models.Address `json:"authority"`
}

// DepositRequest funds the treasury from the authority's account
type DepositRequest struct {
	Authority        models.Address `json:"authority"`
	AuthorityAccount models.Address `json:"authority_account"`
	TreasuryAccount  models.Address `json:"treasury_account"`
	Amount           uint64         `json:"amount"`
}

// WithdrawRequest drains the treasury into the authority's account
type WithdrawRequest struct {
	Authority        models.Address `json:"authority"`
	AuthorityAccount models.Address `json:"authority_account"`
	TreasuryAccount  models.Address `json:"treasury_account"`
	Amount           uint64         `json:"amount"`
}

// PlaceBetRequest stakes Amount on UserGuess (true is heads)
type PlaceBetRequest struct {
	User        models.Address `json:"user"`
	UserAccount models.Address `json:"user_account"`
	UserSeed    uint64         `json:"user_seed"`
	Amount      uint64         `json:"amount"`
	UserGuess   bool           `json:"user_guess"`
}

// SettleBetRequest resolves a bet with the house seed. The account fields
// must match what the bet and house recorded.
type SettleBetRequest struct {
	Bet             models.Address `json:"bet"`
	HouseSeed       uint64         `json:"house_seed"`
	UserAccount     models.Address `json:"user_account"`
	TreasuryAccount models.Address `json:"treasury_account"`
	EscrowAccount   models.Address `json:"escrow_account"`
}

// MintRequest credits Amount to Account on behalf of Minter
type MintRequest struct {
	Minter  models.Address `json:"minter"`
	Account models.Address `json:"account"`
	Amount  uint64         `json:"amount"`
}
