package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckedAdd(t *testing.T) {
	sum, err := CheckedAdd(math.MaxUint64-1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), sum)

	_, err = CheckedAdd(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestHouseTreasury_RecordOutcome(t *testing.T) {
	t.Run("user win counts as a house loss", func(t *testing.T) {
		h := &HouseTreasury{}
		require.NoError(t, h.RecordOutcome(true))
		assert.Equal(t, uint64(1), h.LossCount)
		assert.Zero(t, h.WinCount)
	})

	t.Run("user loss counts as a house win", func(t *testing.T) {
		h := &HouseTreasury{}
		require.NoError(t, h.RecordOutcome(false))
		assert.Equal(t, uint64(1), h.WinCount)
		assert.Zero(t, h.LossCount)
	})

	t.Run("saturated counter is left untouched", func(t *testing.T) {
		h := &HouseTreasury{WinCount: math.MaxUint64}
		assert.ErrorIs(t, h.RecordOutcome(false), ErrArithmeticOverflow)
		assert.Equal(t, uint64(math.MaxUint64), h.WinCount)
	})
}

func TestToStoredAmount(t *testing.T) {
	stored, err := ToStoredAmount(math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), stored)

	_, err = ToStoredAmount(math.MaxInt64 + 1)
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
}
