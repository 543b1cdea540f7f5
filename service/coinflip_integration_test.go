package service_test

import (
	"context"
	"math"
	"testing"

	"coinflip/config"
	"coinflip/derivation"
	"coinflip/events"
	"coinflip/models"
	"coinflip/repository"
	"coinflip/repository/testutil"
	"coinflip/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// coinflipHarness wires every service against a real database
type coinflipHarness struct {
	houses     service.HouseService
	betting    service.BettingService
	settlement service.SettlementService
	accounts   service.AccountService

	minter    models.Address
	authority models.Address
	user      models.Address
}

func newCoinflipHarness(t *testing.T) *coinflipHarness {
	testDB := testutil.SetupTestDatabase(t)
	factory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())

	h := &coinflipHarness{
		minter:    testutil.CreateTestIdentity(0xee),
		authority: testutil.CreateTestIdentity(0xa1),
		user:      testutil.CreateTestIdentity(0x01),
	}

	cfg := config.NewTestConfig()
	cfg.MintAuthority = h.minter

	h.houses = service.NewHouseService(factory)
	h.betting = service.NewBettingService(factory)
	h.settlement = service.NewSettlementService(factory)
	h.accounts = service.NewAccountService(factory, cfg)
	return h
}

// fundWallet opens a wallet for owner and mints amount into it
func (h *coinflipHarness) fundWallet(t *testing.T, ctx context.Context, owner models.Address, amount uint64) models.Address {
	wallet, err := h.accounts.OpenWallet(ctx, owner)
	require.NoError(t, err)
	_, err = h.accounts.Mint(ctx, service.MintRequest{Minter: h.minter, Account: wallet.Address, Amount: amount})
	require.NoError(t, err)
	return wallet.Address
}

// openHouse initializes the house and deposits amount from the authority
func (h *coinflipHarness) openHouse(t *testing.T, ctx context.Context, amount uint64) *models.HouseTreasury {
	authorityWallet := h.fundWallet(t, ctx, h.authority, 10000)

	house, err := h.houses.InitializeHouse(ctx, service.InitializeHouseRequest{Authority: h.authority})
	require.NoError(t, err)

	if amount > 0 {
		_, err = h.houses.DepositHouse(ctx, service.DepositRequest{
			Authority:        h.authority,
			AuthorityAccount: authorityWallet,
			TreasuryAccount:  house.TreasuryAccount,
			Amount:           amount,
		})
		require.NoError(t, err)
	}
	return house
}

func (h *coinflipHarness) balance(t *testing.T, ctx context.Context, address models.Address) uint64 {
	account, err := h.accounts.GetAccount(ctx, address)
	require.NoError(t, err)
	return account.Balance
}

func settleRequest(bet *models.BetRecord, house *models.HouseTreasury, userAccount models.Address, houseSeed uint64) service.SettleBetRequest {
	return service.SettleBetRequest{
		Bet:             bet.Address,
		HouseSeed:       houseSeed,
		UserAccount:     userAccount,
		TreasuryAccount: house.TreasuryAccount,
		EscrowAccount:   bet.EscrowAccount,
	}
}

func TestCoinflip_UserWins(t *testing.T) {
	ctx := context.Background()
	h := newCoinflipHarness(t)

	house := h.openHouse(t, ctx, 1000)
	wallet := h.fundWallet(t, ctx, h.user, 500)

	bet, err := h.betting.PlaceBet(ctx, service.PlaceBetRequest{
		User:        h.user,
		UserAccount: wallet,
		UserSeed:    5,
		Amount:      100,
		UserGuess:   models.Heads,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), h.balance(t, ctx, bet.EscrowAccount))
	assert.Equal(t, uint64(400), h.balance(t, ctx, wallet))

	result, err := h.settlement.SettleBet(ctx, settleRequest(bet, house, wallet, 5))
	require.NoError(t, err)

	assert.Equal(t, uint64(10), result.Combined)
	assert.True(t, result.UserWon)
	assert.Equal(t, uint64(900), h.balance(t, ctx, house.TreasuryAccount))
	assert.Equal(t, uint64(600), h.balance(t, ctx, wallet))
	assert.Equal(t, uint64(0), h.balance(t, ctx, bet.EscrowAccount))

	view, err := h.houses.GetHouse(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), view.House.LossCount)
	assert.Equal(t, uint64(0), view.House.WinCount)

	stored, err := h.betting.GetBet(ctx, bet.Address)
	require.NoError(t, err)
	assert.True(t, stored.IsSettled())
	assert.Equal(t, uint64(5), stored.HouseSeed())
	assert.True(t, stored.Result())
}

func TestCoinflip_UserLoses(t *testing.T) {
	ctx := context.Background()
	h := newCoinflipHarness(t)

	house := h.openHouse(t, ctx, 1000)
	wallet := h.fundWallet(t, ctx, h.user, 500)

	bet, err := h.betting.PlaceBet(ctx, service.PlaceBetRequest{
		User:        h.user,
		UserAccount: wallet,
		UserSeed:    5,
		Amount:      100,
		UserGuess:   models.Heads,
	})
	require.NoError(t, err)

	result, err := h.settlement.SettleBet(ctx, settleRequest(bet, house, wallet, 6))
	require.NoError(t, err)

	assert.Equal(t, uint64(11), result.Combined)
	assert.False(t, result.UserWon)
	assert.Equal(t, uint64(1100), h.balance(t, ctx, house.TreasuryAccount))
	assert.Equal(t, uint64(400), h.balance(t, ctx, wallet))
	assert.Equal(t, uint64(0), h.balance(t, ctx, bet.EscrowAccount))

	view, err := h.houses.GetHouse(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), view.House.WinCount)
	assert.Equal(t, uint64(0), view.House.LossCount)

	t.Run("second settlement rejected", func(t *testing.T) {
		_, err := h.settlement.SettleBet(ctx, settleRequest(bet, house, wallet, 5))
		assert.ErrorIs(t, err, models.ErrBetAlreadySettled)

		stored, err := h.betting.GetBet(ctx, bet.Address)
		require.NoError(t, err)
		assert.Equal(t, uint64(6), stored.HouseSeed())
		assert.Equal(t, uint64(1100), h.balance(t, ctx, house.TreasuryAccount))
	})
}

func TestCoinflip_SeedWraparound(t *testing.T) {
	ctx := context.Background()
	h := newCoinflipHarness(t)

	house := h.openHouse(t, ctx, 1000)
	wallet := h.fundWallet(t, ctx, h.user, 500)

	bet, err := h.betting.PlaceBet(ctx, service.PlaceBetRequest{
		User:        h.user,
		UserAccount: wallet,
		UserSeed:    math.MaxUint64,
		Amount:      100,
		UserGuess:   models.Heads,
	})
	require.NoError(t, err)

	result, err := h.settlement.SettleBet(ctx, settleRequest(bet, house, wallet, 1))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), result.Combined)
	assert.True(t, result.Result)
	assert.True(t, result.UserWon)
}

func TestCoinflip_FailedPayoutLeavesBetOpen(t *testing.T) {
	ctx := context.Background()
	h := newCoinflipHarness(t)

	house := h.openHouse(t, ctx, 100)
	wallet := h.fundWallet(t, ctx, h.user, 500)

	bet, err := h.betting.PlaceBet(ctx, service.PlaceBetRequest{
		User:        h.user,
		UserAccount: wallet,
		UserSeed:    5,
		Amount:      100,
		UserGuess:   models.Heads,
	})
	require.NoError(t, err)

	// Drain the treasury so the payout leg cannot be covered
	_, err = h.houses.WithdrawHouse(ctx, service.WithdrawRequest{
		Authority:        h.authority,
		AuthorityAccount: derivation.WalletAddress(h.authority),
		TreasuryAccount:  house.TreasuryAccount,
		Amount:           100,
	})
	require.NoError(t, err)

	_, err = h.settlement.SettleBet(ctx, settleRequest(bet, house, wallet, 5))
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	stored, err := h.betting.GetBet(ctx, bet.Address)
	require.NoError(t, err)
	assert.False(t, stored.IsSettled())
	assert.Equal(t, uint64(100), h.balance(t, ctx, bet.EscrowAccount))
	assert.Equal(t, uint64(400), h.balance(t, ctx, wallet))

	view, err := h.houses.GetHouse(ctx)
	require.NoError(t, err)
	assert.Zero(t, view.House.WinCount)
	assert.Zero(t, view.House.LossCount)
}

func TestCoinflip_Rejections(t *testing.T) {
	ctx := context.Background()
	h := newCoinflipHarness(t)

	house := h.openHouse(t, ctx, 1000)
	wallet := h.fundWallet(t, ctx, h.user, 500)

	t.Run("second initialization", func(t *testing.T) {
		_, err := h.houses.InitializeHouse(ctx, service.InitializeHouseRequest{Authority: h.user})
		assert.ErrorIs(t, err, models.ErrAlreadyExists)
	})

	t.Run("withdraw by non-authority", func(t *testing.T) {
		_, err := h.houses.WithdrawHouse(ctx, service.WithdrawRequest{
			Authority:        h.user,
			AuthorityAccount: wallet,
			TreasuryAccount:  house.TreasuryAccount,
			Amount:           1,
		})
		assert.ErrorIs(t, err, models.ErrUnauthorized)
		assert.Equal(t, uint64(1000), h.balance(t, ctx, house.TreasuryAccount))
	})

	t.Run("bet larger than treasury", func(t *testing.T) {
		_, err := h.betting.PlaceBet(ctx, service.PlaceBetRequest{
			User:        h.user,
			UserAccount: wallet,
			UserSeed:    1,
			Amount:      1001,
		})
		assert.ErrorIs(t, err, models.ErrInsufficientHouseBalance)
	})

	t.Run("seed reuse", func(t *testing.T) {
		req := service.PlaceBetRequest{
			User:        h.user,
			UserAccount: wallet,
			UserSeed:    9,
			Amount:      10,
		}
		_, err := h.betting.PlaceBet(ctx, req)
		require.NoError(t, err)

		_, err = h.betting.PlaceBet(ctx, req)
		assert.ErrorIs(t, err, models.ErrDuplicateWager)
		assert.Equal(t, uint64(490), h.balance(t, ctx, wallet))
	})

	t.Run("settle against another escrow", func(t *testing.T) {
		bet, err := h.betting.PlaceBet(ctx, service.PlaceBetRequest{
			User:        h.user,
			UserAccount: wallet,
			UserSeed:    10,
			Amount:      10,
		})
		require.NoError(t, err)

		req := settleRequest(bet, house, wallet, 1)
		req.EscrowAccount = derivation.EscrowAddress(derivation.BetAddress(h.user, 9))
		_, err = h.settlement.SettleBet(ctx, req)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})
}
