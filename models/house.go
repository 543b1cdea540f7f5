package models

import "time"

// HouseTreasury is the singleton holding pooled collateral for one namespace
type HouseTreasury struct {
	Address         Address   `db:"address"`
	Bump            uint8     `db:"bump"`
	Authority       Address   `db:"authority"`
	TreasuryAccount Address   `db:"treasury_account"`
	WinCount        uint64    `db:"win_count"`
	LossCount       uint64    `db:"loss_count"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// HouseView is a house together with its treasury balance
type HouseView struct {
	House           *HouseTreasury
	TreasuryBalance uint64
}

// IsAuthority checks whether the caller is the recorded authority
func (h *HouseTreasury) IsAuthority(caller Address) bool {
	return !caller.IsZero() && h.Authority == caller
}

// RecordOutcome bumps the loss counter when the user won and the win counter otherwise
func (h *HouseTreasury) RecordOutcome(userWon bool) error {
	if userWon {
		next, err := CheckedAdd(h.LossCount, 1)
		if err != nil {
			return err
		}
		h.LossCount = next
		return nil
	}

	next, err := CheckedAdd(h.WinCount, 1)
	if err != nil {
		return err
	}
	h.WinCount = next
	return nil
}
