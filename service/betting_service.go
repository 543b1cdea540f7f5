package service

import (
	"context"
	"errors"
	"fmt"

	"coinflip/derivation"
	"coinflip/events"
	"coinflip/ledger"
	"coinflip/models"

	log "github.com/sirupsen/logrus"
)

// DefaultBetListLimit caps ListBetsByUser when no limit is given
const DefaultBetListLimit = 50

type bettingService struct {
	uowFactory UnitOfWorkFactory
}

// NewBettingService creates a new betting service
func NewBettingService(uowFactory UnitOfWorkFactory) BettingService {
	return &bettingService{
		uowFactory: uowFactory,
	}
}

func (s *bettingService) PlaceBet(ctx context.Context, req PlaceBetRequest) (*models.BetRecord, error) {
	// Validate inputs
	if req.Amount == 0 {
		return nil, models.ErrInvalidBetAmount
	}
	if req.User.IsZero() {
		return nil, fmt.Errorf("%w: user is required", models.ErrUnauthorized)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	house, err := loadHouse(ctx, uow)
	if err != nil {
		return nil, err
	}

	// The house must be able to cover a win before the wager is accepted
	treasuryBalance, err := accountBalance(ctx, uow, house.TreasuryAccount)
	if err != nil {
		return nil, err
	}
	if treasuryBalance < req.Amount {
		return nil, fmt.Errorf("%w: treasury holds %d, bet needs %d", models.ErrInsufficientHouseBalance, treasuryBalance, req.Amount)
	}

	betAddress := derivation.BetAddress(req.User, req.UserSeed)
	escrowAddress := derivation.EscrowAddress(betAddress)

	if _, err := newLedger(uow).OpenAccount(ctx, escrowAddress, betAddress); err != nil {
		if errors.Is(err, models.ErrAccountExists) {
			return nil, fmt.Errorf("%w: user %s already used seed %d", models.ErrDuplicateWager, req.User, req.UserSeed)
		}
		return nil, fmt.Errorf("failed to open escrow: %w", err)
	}

	relatedType, relatedID := relatedTo(models.RelatedTypeBet, betAddress)
	_, err = MoveFunds(ctx, uow, ledger.Transfer{
		From:        req.UserAccount,
		To:          escrowAddress,
		Amount:      req.Amount,
		Authority:   ledger.OwnerConsent(req.User),
		Kind:        models.TransferKindStake,
		RelatedID:   relatedID,
		RelatedType: relatedType,
		Metadata: map[string]any{
			"user_guess": models.FaceName(req.UserGuess),
			"user_seed":  req.UserSeed,
		},
	})
	if err != nil {
		return nil, err
	}

	bet := &models.BetRecord{
		Address:       betAddress,
		User:          req.User,
		House:         house.Address,
		Amount:        req.Amount,
		UserGuess:     req.UserGuess,
		UserSeed:      req.UserSeed,
		EscrowAccount: escrowAddress,
		Bump:          derivation.CanonicalBump,
	}
	if err := bet.Validate(); err != nil {
		return nil, err
	}
	if err := uow.BetRecordRepository().Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet record: %w", err)
	}

	uow.EventBus().Publish(events.BetPlacedEvent{Bet: *bet})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"bet":    bet.Address.String(),
		"user":   bet.User.String(),
		"amount": bet.Amount,
		"guess":  models.FaceName(bet.UserGuess),
	}).Info("Bet placed")

	return bet, nil
}

func (s *bettingService) GetBet(ctx context.Context, address models.Address) (*models.BetRecord, error) {
	// Create unit of work for read operation
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRecordRepository().GetByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrBetNotFound, address)
	}

	return bet, nil
}

func (s *bettingService) ListBetsByUser(ctx context.Context, user models.Address, limit int) ([]*models.BetRecord, error) {
	if limit <= 0 || limit > DefaultBetListLimit {
		limit = DefaultBetListLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRecordRepository().GetByUser(ctx, user, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets for user %s: %w", user, err)
	}

	return bets, nil
}
