package service

import (
	"context"

	"coinflip/events"
	"coinflip/models"

	"github.com/stretchr/testify/mock"
)

// MockHouseRepository is a mock implementation of HouseRepository
type MockHouseRepository struct {
	mock.Mock
}

func (m *MockHouseRepository) Create(ctx context.Context, house *models.HouseTreasury) error {
	args := m.Called(ctx, house)
	return args.Error(0)
}

func (m *MockHouseRepository) GetByAddress(ctx context.Context, address models.Address) (*models.HouseTreasury, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HouseTreasury), args.Error(1)
}

func (m *MockHouseRepository) GetForUpdate(ctx context.Context, address models.Address) (*models.HouseTreasury, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HouseTreasury), args.Error(1)
}

func (m *MockHouseRepository) UpdateCounters(ctx context.Context, house *models.HouseTreasury) error {
	args := m.Called(ctx, house)
	return args.Error(0)
}

// MockBetRecordRepository is a mock implementation of BetRecordRepository
type MockBetRecordRepository struct {
	mock.Mock
}

func (m *MockBetRecordRepository) Create(ctx context.Context, bet *models.BetRecord) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRecordRepository) GetByAddress(ctx context.Context, address models.Address) (*models.BetRecord, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetRecord), args.Error(1)
}

func (m *MockBetRecordRepository) GetForUpdate(ctx context.Context, address models.Address) (*models.BetRecord, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetRecord), args.Error(1)
}

func (m *MockBetRecordRepository) GetByUser(ctx context.Context, user models.Address, limit int) ([]*models.BetRecord, error) {
	args := m.Called(ctx, user, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BetRecord), args.Error(1)
}

func (m *MockBetRecordRepository) MarkSettled(ctx context.Context, bet *models.BetRecord) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

// MockTokenAccountRepository is a mock implementation of TokenAccountRepository
type MockTokenAccountRepository struct {
	mock.Mock
}

func (m *MockTokenAccountRepository) GetForUpdate(ctx context.Context, address models.Address) (*models.TokenAccount, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenAccount), args.Error(1)
}

func (m *MockTokenAccountRepository) Create(ctx context.Context, account *models.TokenAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockTokenAccountRepository) UpdateBalance(ctx context.Context, address models.Address, balance uint64) error {
	args := m.Called(ctx, address, balance)
	return args.Error(0)
}

func (m *MockTokenAccountRepository) GetByAddress(ctx context.Context, address models.Address) (*models.TokenAccount, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenAccount), args.Error(1)
}

func (m *MockTokenAccountRepository) GetByOwner(ctx context.Context, owner models.Address) ([]*models.TokenAccount, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TokenAccount), args.Error(1)
}

// MockTransferRecordRepository is a mock implementation of TransferRecordRepository
type MockTransferRecordRepository struct {
	mock.Mock
}

func (m *MockTransferRecordRepository) Record(ctx context.Context, record *models.TransferRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockTransferRecordRepository) GetByRelated(ctx context.Context, relatedType models.RelatedType, relatedID models.Address) ([]*models.TransferRecord, error) {
	args := m.Called(ctx, relatedType, relatedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TransferRecord), args.Error(1)
}

func (m *MockTransferRecordRepository) GetByAccount(ctx context.Context, account models.Address, limit int) ([]*models.TransferRecord, error) {
	args := m.Called(ctx, account, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TransferRecord), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository getters
// return whatever SetRepositories installed.
type MockUnitOfWork struct {
	mock.Mock
	houseRepo    HouseRepository
	betRepo      BetRecordRepository
	accountRepo  TokenAccountRepository
	transferRepo TransferRecordRepository
	eventBus     EventPublisher
}

// SetRepositories installs the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(house HouseRepository, bet BetRecordRepository, account TokenAccountRepository, transfer TransferRecordRepository, bus EventPublisher) {
	m.houseRepo = house
	m.betRepo = bet
	m.accountRepo = account
	m.transferRepo = transfer
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) HouseRepository() HouseRepository {
	return m.houseRepo
}

func (m *MockUnitOfWork) BetRecordRepository() BetRecordRepository {
	return m.betRepo
}

func (m *MockUnitOfWork) TokenAccountRepository() TokenAccountRepository {
	return m.accountRepo
}

func (m *MockUnitOfWork) TransferRecordRepository() TransferRecordRepository {
	return m.transferRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
