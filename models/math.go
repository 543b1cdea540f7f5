package models

import (
	"fmt"
	"math"
)

// CheckedAdd adds two counters, failing instead of wrapping
func CheckedAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, fmt.Errorf("%w: %d + %d", ErrArithmeticOverflow, a, b)
	}
	return a + b, nil
}

// ToStoredAmount converts an amount to the signed column type used by the ledger tables
func ToStoredAmount(amount uint64) (int64, error) {
	if amount > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d", ErrAmountOutOfRange, amount)
	}
	return int64(amount), nil
}
