package infrastructure

import (
	"context"

	"coinflip/models"
	"coinflip/service"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/mock"
)

type mockHouseService struct {
	mock.Mock
}

func (m *mockHouseService) InitializeHouse(ctx context.Context, req service.InitializeHouseRequest) (*models.HouseTreasury, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HouseTreasury), args.Error(1)
}

func (m *mockHouseService) DepositHouse(ctx context.Context, req service.DepositRequest) (*models.HouseView, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HouseView), args.Error(1)
}

func (m *mockHouseService) WithdrawHouse(ctx context.Context, req service.WithdrawRequest) (*models.HouseView, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HouseView), args.Error(1)
}

func (m *mockHouseService) GetHouse(ctx context.Context) (*models.HouseView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HouseView), args.Error(1)
}

type mockBettingService struct {
	mock.Mock
}

func (m *mockBettingService) PlaceBet(ctx context.Context, req service.PlaceBetRequest) (*models.BetRecord, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetRecord), args.Error(1)
}

func (m *mockBettingService) GetBet(ctx context.Context, address models.Address) (*models.BetRecord, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetRecord), args.Error(1)
}

func (m *mockBettingService) ListBetsByUser(ctx context.Context, user models.Address, limit int) ([]*models.BetRecord, error) {
	args := m.Called(ctx, user, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BetRecord), args.Error(1)
}

type mockSettlementService struct {
	mock.Mock
}

func (m *mockSettlementService) SettleBet(ctx context.Context, req service.SettleBetRequest) (*models.BetResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetResult), args.Error(1)
}

type mockAccountService struct {
	mock.Mock
}

func (m *mockAccountService) OpenWallet(ctx context.Context, owner models.Address) (*models.TokenAccount, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenAccount), args.Error(1)
}

func (m *mockAccountService) GetAccount(ctx context.Context, address models.Address) (*models.TokenAccount, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenAccount), args.Error(1)
}

func (m *mockAccountService) Mint(ctx context.Context, req service.MintRequest) (*models.TokenAccount, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenAccount), args.Error(1)
}

type mockSubscriber struct {
	mock.Mock
}

func (m *mockSubscriber) QueueSubscribe(subject, queue string, handler nats.MsgHandler) error {
	args := m.Called(subject, queue, handler)
	return args.Error(0)
}
