package testutil

import (
	"coinflip/derivation"
	"coinflip/models"
)

// CreateTestIdentity returns an address filled with b
func CreateTestIdentity(b byte) models.Address {
	var a models.Address
	for i := range a {
		a[i] = b
	}
	return a
}

// CreateTestAccount creates an unsaved ledger account
func CreateTestAccount(address, owner models.Address, balance uint64) *models.TokenAccount {
	return &models.TokenAccount{
		Address: address,
		Owner:   owner,
		Balance: balance,
	}
}

// CreateTestWallet creates an unsaved wallet at the owner's derived address
func CreateTestWallet(owner models.Address, balance uint64) *models.TokenAccount {
	return CreateTestAccount(derivation.WalletAddress(owner), owner, balance)
}

// CreateTestHouse creates an unsaved house with the given authority
func CreateTestHouse(authority models.Address) *models.HouseTreasury {
	address := derivation.HouseAddress()
	return &models.HouseTreasury{
		Address:         address,
		Bump:            derivation.CanonicalBump,
		Authority:       authority,
		TreasuryAccount: derivation.TreasuryAddress(address),
	}
}

// CreateTestTreasury creates the unsaved treasury account of a house
func CreateTestTreasury(house *models.HouseTreasury, balance uint64) *models.TokenAccount {
	return CreateTestAccount(house.TreasuryAccount, house.Address, balance)
}

// CreateTestBet creates an unsaved, unsettled bet
func CreateTestBet(user models.Address, seed, amount uint64, guess bool) *models.BetRecord {
	address := derivation.BetAddress(user, seed)
	return &models.BetRecord{
		Address:       address,
		User:          user,
		House:         derivation.HouseAddress(),
		Amount:        amount,
		UserGuess:     guess,
		UserSeed:      seed,
		EscrowAccount: derivation.EscrowAddress(address),
		Bump:          derivation.CanonicalBump,
	}
}

// CreateTestEscrow creates the unsaved escrow account of a bet
func CreateTestEscrow(bet *models.BetRecord, balance uint64) *models.TokenAccount {
	return CreateTestAccount(bet.EscrowAccount, bet.Address, balance)
}
