package service

import (
	"context"
	"fmt"
	"time"

	"coinflip/derivation"
	"coinflip/events"
	"coinflip/ledger"
	"coinflip/models"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// SettleBet resolves an open bet. Any caller may settle; only the linkage
// between the bet, the house and the supplied accounts is verified.
// Every step runs in one transaction, so a failed leg leaves the bet open
// and the counters untouched.
func (s *settlementService) SettleBet(ctx context.Context, req SettleBetRequest) (*models.BetResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	// Lock bet then house so concurrent settlements serialize
	bet, err := uow.BetRecordRepository().GetForUpdate(ctx, req.Bet)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrBetNotFound, req.Bet)
	}

	house, err := uow.HouseRepository().GetForUpdate(ctx, derivation.HouseAddress())
	if err != nil {
		return nil, fmt.Errorf("failed to get house: %w", err)
	}
	if house == nil {
		return nil, models.ErrHouseNotInitialized
	}

	userAccount, err := checkLinkage(ctx, uow, req, bet, house)
	if err != nil {
		return nil, err
	}

	if bet.IsSettled() {
		return nil, fmt.Errorf("%w: bet %s", models.ErrBetAlreadySettled, bet.Address)
	}

	outcome := Flip(bet.UserSeed, req.HouseSeed, bet.UserGuess)

	if err := bet.Settle(req.HouseSeed, outcome.Result, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := house.RecordOutcome(outcome.UserWon); err != nil {
		return nil, fmt.Errorf("failed to record outcome: %w", err)
	}

	payout, err := s.disburse(ctx, uow, bet, house, userAccount, outcome.UserWon)
	if err != nil {
		return nil, err
	}

	if err := uow.BetRecordRepository().MarkSettled(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to persist settlement: %w", err)
	}
	if err := uow.HouseRepository().UpdateCounters(ctx, house); err != nil {
		return nil, fmt.Errorf("failed to persist house counters: %w", err)
	}

	var forfeited uint64
	if !outcome.UserWon {
		forfeited = bet.Amount
	}
	uow.EventBus().Publish(events.BetSettledEvent{
		Bet:       *bet,
		House:     *house,
		Combined:  outcome.Combined,
		UserWon:   outcome.UserWon,
		Payout:    payout,
		Forfeited: forfeited,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"bet":       bet.Address.String(),
		"userSeed":  bet.UserSeed,
		"houseSeed": req.HouseSeed,
		"result":    models.FaceName(outcome.Result),
		"userWon":   outcome.UserWon,
		"winCount":  house.WinCount,
		"lossCount": house.LossCount,
	}).Info("Bet settled")

	return &models.BetResult{
		Bet:       bet,
		Combined:  outcome.Combined,
		Result:    outcome.Result,
		UserWon:   outcome.UserWon,
		Payout:    payout,
		WinCount:  house.WinCount,
		LossCount: house.LossCount,
	}, nil
}

// checkLinkage verifies the supplied accounts are the ones the bet and house
// recorded and returns the user's payout account.
func checkLinkage(ctx context.Context, uow UnitOfWork, req SettleBetRequest, bet *models.BetRecord, house *models.HouseTreasury) (*models.TokenAccount, error) {
	if bet.House != house.Address {
		return nil, fmt.Errorf("%w: bet %s belongs to house %s", models.ErrUnauthorized, bet.Address, bet.House)
	}
	if bet.EscrowAccount != req.EscrowAccount {
		return nil, fmt.Errorf("%w: %s is not the escrow of bet %s", models.ErrUnauthorized, req.EscrowAccount, bet.Address)
	}
	if house.TreasuryAccount != req.TreasuryAccount {
		return nil, fmt.Errorf("%w: %s is not the house treasury account", models.ErrUnauthorized, req.TreasuryAccount)
	}

	userAccount, err := loadAccount(ctx, uow, req.UserAccount)
	if err != nil {
		return nil, err
	}
	if !userAccount.IsOwnedBy(bet.User) {
		return nil, fmt.Errorf("%w: account %s is not owned by bettor %s", models.ErrUnauthorized, userAccount.Address, bet.User)
	}
	return userAccount, nil
}

// disburse empties the escrow and, when the user won, pays the matching
// amount out of the treasury. It returns the treasury payout.
func (s *settlementService) disburse(ctx context.Context, uow UnitOfWork, bet *models.BetRecord, house *models.HouseTreasury, userAccount *models.TokenAccount, userWon bool) (uint64, error) {
	// Take every row lock up front in address order; house deposits and
	// withdrawals lock the treasury against wallets too.
	if err := newLedger(uow).LockAccounts(ctx, bet.EscrowAccount, house.TreasuryAccount, userAccount.Address); err != nil {
		return 0, fmt.Errorf("failed to lock settlement accounts: %w", err)
	}

	escrow, err := loadAccount(ctx, uow, bet.EscrowAccount)
	if err != nil {
		return 0, err
	}
	betCapability, err := derivation.Authorize(derivation.ForBet(bet), escrow)
	if err != nil {
		return 0, fmt.Errorf("failed to authorize escrow: %w", err)
	}

	relatedType, relatedID := relatedTo(models.RelatedTypeBet, bet.Address)

	if !userWon {
		_, err := MoveFunds(ctx, uow, ledger.Transfer{
			From:        escrow.Address,
			To:          house.TreasuryAccount,
			Amount:      bet.Amount,
			Authority:   ledger.Delegated(betCapability),
			Kind:        models.TransferKindForfeit,
			RelatedID:   relatedID,
			RelatedType: relatedType,
		})
		return 0, err
	}

	_, err = MoveFunds(ctx, uow, ledger.Transfer{
		From:        escrow.Address,
		To:          userAccount.Address,
		Amount:      bet.Amount,
		Authority:   ledger.Delegated(betCapability),
		Kind:        models.TransferKindStakeReturn,
		RelatedID:   relatedID,
		RelatedType: relatedType,
	})
	if err != nil {
		return 0, err
	}

	treasury, err := loadAccount(ctx, uow, house.TreasuryAccount)
	if err != nil {
		return 0, err
	}
	houseCapability, err := derivation.Authorize(derivation.ForHouse(house), treasury)
	if err != nil {
		return 0, fmt.Errorf("failed to authorize treasury: %w", err)
	}

	_, err = MoveFunds(ctx, uow, ledger.Transfer{
		From:        treasury.Address,
		To:          userAccount.Address,
		Amount:      bet.Amount,
		Authority:   ledger.Delegated(houseCapability),
		Kind:        models.TransferKindPayout,
		RelatedID:   relatedID,
		RelatedType: relatedType,
	})
	if err != nil {
		return 0, err
	}

	return bet.Amount, nil
}
