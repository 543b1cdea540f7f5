package repository

import (
	"context"
	"testing"

	"coinflip/models"
	"coinflip/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferRecordRepository_Record(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewTransferRecordRepository(testDB.DB)
	accounts := NewTokenAccountRepository(testDB.DB)
	ctx := context.Background()

	user := testutil.CreateTestIdentity(0x01)
	wallet := testutil.CreateTestWallet(user, 0)
	require.NoError(t, accounts.Create(ctx, wallet))

	house := createTestHouse(t, ctx, testDB, 0)
	relatedType := models.RelatedTypeHouse
	relatedID := house.Address

	t.Run("mint without source", func(t *testing.T) {
		record := &models.TransferRecord{
			To:     wallet.Address,
			Amount: 5000,
			Kind:   models.TransferKindMint,
			Signer: testutil.CreateTestIdentity(0xee),
		}
		require.NoError(t, repo.Record(ctx, record))
		assert.NotZero(t, record.ID)
		assert.False(t, record.CreatedAt.IsZero())
	})

	t.Run("deposit with metadata", func(t *testing.T) {
		from := wallet.Address
		record := &models.TransferRecord{
			From:        &from,
			To:          house.TreasuryAccount,
			Amount:      1000,
			Kind:        models.TransferKindDeposit,
			Signer:      user,
			Metadata:    map[string]any{"note": "seed capital"},
			RelatedID:   &relatedID,
			RelatedType: &relatedType,
		}
		require.NoError(t, repo.Record(ctx, record))

		records, err := repo.GetByRelated(ctx, models.RelatedTypeHouse, house.Address)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, wallet.Address, *records[0].From)
		assert.Equal(t, house.TreasuryAccount, records[0].To)
		assert.Equal(t, uint64(1000), records[0].Amount)
		assert.Equal(t, models.TransferKindDeposit, records[0].Kind)
		assert.Equal(t, "seed capital", records[0].Metadata["note"])
	})

	t.Run("non-mint without source rejected", func(t *testing.T) {
		record := &models.TransferRecord{
			To:     wallet.Address,
			Amount: 1,
			Kind:   models.TransferKindPayout,
			Signer: user,
		}
		assert.Error(t, repo.Record(ctx, record))
	})

	t.Run("history by account newest first", func(t *testing.T) {
		records, err := repo.GetByAccount(ctx, wallet.Address, 10)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, models.TransferKindDeposit, records[0].Kind)
		assert.Equal(t, models.TransferKindMint, records[1].Kind)
		assert.Nil(t, records[1].From)
		assert.Nil(t, records[1].RelatedID)
	})
}
