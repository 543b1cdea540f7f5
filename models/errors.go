package models

import "errors"

// Errors returned by the house, betting, settlement and ledger operations.
// Every one of them aborts the enclosing transaction.
var (
	ErrInvalidBetAmount         = errors.New("invalid bet amount")
	ErrInsufficientHouseBalance = errors.New("insufficient house balance")
	ErrDuplicateWager           = errors.New("duplicate wager")
	ErrBetAlreadySettled        = errors.New("bet already settled")
	ErrUnauthorized             = errors.New("unauthorized")
	ErrArithmeticOverflow       = errors.New("arithmetic overflow")
	ErrInsufficientFunds        = errors.New("insufficient funds")

	ErrAlreadyExists       = errors.New("already exists")
	ErrHouseNotInitialized = errors.New("house not initialized")
	ErrBetNotFound         = errors.New("bet not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrAmountOutOfRange    = errors.New("amount out of range")
	ErrInvalidTransfer     = errors.New("invalid transfer")
)
