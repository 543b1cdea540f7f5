package repository

import (
	"context"
	"math"
	"testing"

	"coinflip/models"
	"coinflip/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenAccountRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewTokenAccountRepository(testDB.DB)
	ctx := context.Background()

	owner := testutil.CreateTestIdentity(0x01)

	t.Run("missing account", func(t *testing.T) {
		account, err := repo.GetByAddress(ctx, testutil.CreateTestIdentity(0x99))
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("create and read back", func(t *testing.T) {
		wallet := testutil.CreateTestWallet(owner, 500)
		require.NoError(t, repo.Create(ctx, wallet))
		assert.False(t, wallet.CreatedAt.IsZero())

		account, err := repo.GetByAddress(ctx, wallet.Address)
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, wallet.Address, account.Address)
		assert.Equal(t, owner, account.Owner)
		assert.Equal(t, uint64(500), account.Balance)
	})

	t.Run("occupied address", func(t *testing.T) {
		wallet := testutil.CreateTestWallet(owner, 0)
		err := repo.Create(ctx, wallet)
		assert.ErrorIs(t, err, models.ErrAccountExists)
	})

	t.Run("balance beyond storage range", func(t *testing.T) {
		account := testutil.CreateTestAccount(testutil.CreateTestIdentity(0x42), owner, math.MaxUint64)
		err := repo.Create(ctx, account)
		assert.ErrorIs(t, err, models.ErrAmountOutOfRange)
	})

	t.Run("get by owner", func(t *testing.T) {
		extra := testutil.CreateTestAccount(testutil.CreateTestIdentity(0x43), owner, 7)
		require.NoError(t, repo.Create(ctx, extra))

		accounts, err := repo.GetByOwner(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, accounts, 2)
	})
}

func TestTokenAccountRepository_UpdateBalance(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewTokenAccountRepository(testDB.DB)
	ctx := context.Background()

	wallet := testutil.CreateTestWallet(testutil.CreateTestIdentity(0x01), 500)
	require.NoError(t, repo.Create(ctx, wallet))

	t.Run("updates balance", func(t *testing.T) {
		require.NoError(t, repo.UpdateBalance(ctx, wallet.Address, 400))

		account, err := repo.GetByAddress(ctx, wallet.Address)
		require.NoError(t, err)
		assert.Equal(t, uint64(400), account.Balance)
	})

	t.Run("missing account", func(t *testing.T) {
		err := repo.UpdateBalance(ctx, testutil.CreateTestIdentity(0x99), 1)
		assert.ErrorIs(t, err, models.ErrAccountNotFound)
	})

	t.Run("out of range", func(t *testing.T) {
		err := repo.UpdateBalance(ctx, wallet.Address, math.MaxInt64+1)
		assert.ErrorIs(t, err, models.ErrAmountOutOfRange)
	})
}

func TestTokenAccountRepository_GetForUpdate(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	wallet := testutil.CreateTestWallet(testutil.CreateTestIdentity(0x01), 500)
	require.NoError(t, NewTokenAccountRepository(testDB.DB).Create(ctx, wallet))

	tx, err := testDB.DB.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	repo := newTokenAccountRepositoryWithTx(tx)
	account, err := repo.GetForUpdate(ctx, wallet.Address)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, uint64(500), account.Balance)

	missing, err := repo.GetForUpdate(ctx, testutil.CreateTestIdentity(0x99))
	require.NoError(t, err)
	assert.Nil(t, missing)
}
