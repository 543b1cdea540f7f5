package infrastructure

import (
	"time"

	"coinflip/models"
)

// HouseDTO is the wire form of a house and, when known, its treasury balance
type HouseDTO struct {
	Address         models.Address `json:"address"`
	Bump            uint8          `json:"bump"`
	Authority       models.Address `json:"authority"`
	TreasuryAccount models.Address `json:"treasury_account"`
	WinCount        uint64         `json:"win_count"`
	LossCount       uint64         `json:"loss_count"`
	TreasuryBalance *uint64        `json:"treasury_balance,omitempty"`
}

// BetDTO is the wire form of a bet. Settlement fields are omitted while open.
type BetDTO struct {
	Address       models.Address `json:"address"`
	User          models.Address `json:"user"`
	House         models.Address `json:"house"`
	Amount        uint64         `json:"amount"`
	UserGuess     bool           `json:"user_guess"`
	UserSeed      uint64         `json:"user_seed"`
	EscrowAccount models.Address `json:"escrow_account"`
	Bump          uint8          `json:"bump"`
	Settled       bool           `json:"settled"`
	HouseSeed     *uint64        `json:"house_seed,omitempty"`
	Result        *bool          `json:"result,omitempty"`
	SettledAt     *time.Time     `json:"settled_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// SettlementDTO is the reply to a settlement
type SettlementDTO struct {
	Bet       BetDTO `json:"bet"`
	Combined  uint64 `json:"combined"`
	Result    bool   `json:"result"`
	UserWon   bool   `json:"user_won"`
	Payout    uint64 `json:"payout"`
	WinCount  uint64 `json:"win_count"`
	LossCount uint64 `json:"loss_count"`
}

// AccountDTO is the wire form of a ledger account
type AccountDTO struct {
	Address models.Address `json:"address"`
	Owner   models.Address `json:"owner"`
	Balance uint64         `json:"balance"`
}

// TransferDTO is the wire form of a committed ledger leg
type TransferDTO struct {
	Kind      models.TransferKind `json:"kind"`
	Amount    uint64              `json:"amount"`
	Delegated bool                `json:"delegated"`
}

func newHouseDTO(h *models.HouseTreasury) HouseDTO {
	return HouseDTO{
		Address:         h.Address,
		Bump:            h.Bump,
		Authority:       h.Authority,
		TreasuryAccount: h.TreasuryAccount,
		WinCount:        h.WinCount,
		LossCount:       h.LossCount,
	}
}

func newHouseViewDTO(v *models.HouseView) HouseDTO {
	dto := newHouseDTO(v.House)
	balance := v.TreasuryBalance
	dto.TreasuryBalance = &balance
	return dto
}

func newBetDTO(b *models.BetRecord) BetDTO {
	dto := BetDTO{
		Address:       b.Address,
		User:          b.User,
		House:         b.House,
		Amount:        b.Amount,
		UserGuess:     b.UserGuess,
		UserSeed:      b.UserSeed,
		EscrowAccount: b.EscrowAccount,
		Bump:          b.Bump,
		CreatedAt:     b.CreatedAt,
	}
	if s := b.Settlement; s != nil {
		houseSeed, result, settledAt := s.HouseSeed, s.Result, s.SettledAt
		dto.Settled = true
		dto.HouseSeed = &houseSeed
		dto.Result = &result
		dto.SettledAt = &settledAt
	}
	return dto
}

func newBetDTOs(bets []*models.BetRecord) []BetDTO {
	dtos := make([]BetDTO, 0, len(bets))
	for _, b := range bets {
		dtos = append(dtos, newBetDTO(b))
	}
	return dtos
}

func newSettlementDTO(r *models.BetResult) SettlementDTO {
	return SettlementDTO{
		Bet:       newBetDTO(r.Bet),
		Combined:  r.Combined,
		Result:    r.Result,
		UserWon:   r.UserWon,
		Payout:    r.Payout,
		WinCount:  r.WinCount,
		LossCount: r.LossCount,
	}
}

func newAccountDTO(a *models.TokenAccount) AccountDTO {
	return AccountDTO{
		Address: a.Address,
		Owner:   a.Owner,
		Balance: a.Balance,
	}
}
