package service

import (
	"context"
	"testing"

	"coinflip/derivation"
	"coinflip/models"
)

// Test amounts from the reference scenarios
const (
	TestDeposit  = 1000
	TestStake    = 100
	TestUserSeed = 5
)

// TestMocks holds all mock repositories for easy access
type TestMocks struct {
	Factory        *MockUnitOfWorkFactory
	UoW            *MockUnitOfWork
	HouseRepo      *MockHouseRepository
	BetRepo        *MockBetRecordRepository
	AccountRepo    *MockTokenAccountRepository
	TransferRepo   *MockTransferRecordRepository
	EventPublisher *MockEventPublisher
}

// NewTestMocks creates a new set of mocks wired into one unit of work
func NewTestMocks() *TestMocks {
	m := &TestMocks{
		Factory:        new(MockUnitOfWorkFactory),
		UoW:            new(MockUnitOfWork),
		HouseRepo:      new(MockHouseRepository),
		BetRepo:        new(MockBetRecordRepository),
		AccountRepo:    new(MockTokenAccountRepository),
		TransferRepo:   new(MockTransferRecordRepository),
		EventPublisher: new(MockEventPublisher),
	}
	m.UoW.SetRepositories(m.HouseRepo, m.BetRepo, m.AccountRepo, m.TransferRepo, m.EventPublisher)
	return m
}

// ExpectTransaction sets up the factory and the begin/rollback pair every
// operation performs. Commit is only expected when commit is true.
func (m *TestMocks) ExpectTransaction(ctx context.Context, commit bool) {
	m.Factory.On("Create").Return(m.UoW)
	m.UoW.On("Begin", ctx).Return(nil)
	m.UoW.On("Rollback").Return(nil)
	if commit {
		m.UoW.On("Commit").Return(nil)
	}
}

// AssertAllExpectations asserts all mock expectations
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.Factory.AssertExpectations(t)
	m.UoW.AssertExpectations(t)
	m.HouseRepo.AssertExpectations(t)
	m.BetRepo.AssertExpectations(t)
	m.AccountRepo.AssertExpectations(t)
	m.TransferRepo.AssertExpectations(t)
	m.EventPublisher.AssertExpectations(t)
}

// testIdentity returns an address filled with b
func testIdentity(b byte) models.Address {
	var a models.Address
	for i := range a {
		a[i] = b
	}
	return a
}

// testHouse returns a house as InitializeHouse would have created it
func testHouse(authority models.Address) *models.HouseTreasury {
	address := derivation.HouseAddress()
	return &models.HouseTreasury{
		Address:         address,
		Bump:            derivation.CanonicalBump,
		Authority:       authority,
		TreasuryAccount: derivation.TreasuryAddress(address),
	}
}

// testBet returns an unsettled bet as PlaceBet would have created it
func testBet(user models.Address, seed uint64, amount uint64, guess bool) *models.BetRecord {
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
