package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coinflip/database"
	"coinflip/models"

	"github.com/jackc/pgx/v5"
)

// BetRecordRepository implements the BetRecordRepository interface
type BetRecordRepository struct {
	q queryable
}

// NewBetRecordRepository creates a new bet record repository
func NewBetRecordRepository(db *database.DB) *BetRecordRepository {
	return &BetRecordRepository{q: db.Pool}
}

// newBetRecordRepositoryWithTx creates a new bet record repository with a transaction
func newBetRecordRepositoryWithTx(tx queryable) *BetRecordRepository {
	return &BetRecordRepository{q: tx}
}

const betColumns = `
	address, user_address, house_address, amount, user_guess, user_seed,
	escrow_account, bump, house_seed, result, settled_at, created_at
`

// Create inserts an unsettled bet. A reused (user, seed) pair yields models.ErrDuplicateWager.
func (r *BetRecordRepository) Create(ctx context.Context, bet *models.BetRecord) error {
	if bet.IsSettled() {
		return fmt.Errorf("bet %s must be created unsettled", bet.Address)
	}
	amount, err := models.ToStoredAmount(bet.Amount)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bet_records
		(address, user_address, house_address, amount, user_guess, user_seed, escrow_account, bump)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err = r.q.QueryRow(ctx, query,
		addressArg(bet.Address),
		addressArg(bet.User),
		addressArg(bet.House),
		amount,
		bet.UserGuess,
		storeUint64(bet.UserSeed),
		addressArg(bet.EscrowAccount),
		int16(bet.Bump),
	).Scan(&bet.CreatedAt)

	if isUniqueViolation(err) {
		return fmt.Errorf("%w: bet %s", models.ErrDuplicateWager, bet.Address)
	}
	if err != nil {
		return fmt.Errorf("failed to create bet %s: %w", bet.Address, err)
	}

	return nil
}

// GetByAddress retrieves a bet, returning nil if it does not exist
func (r *BetRecordRepository) GetByAddress(ctx context.Context, address models.Address) (*models.BetRecord, error) {
	query := `SELECT ` + betColumns + ` FROM bet_records WHERE address = $1`
	return r.getOne(ctx, query, address)
}

// GetForUpdate retrieves a bet and holds a row lock until the transaction ends
func (r *BetRecordRepository) GetForUpdate(ctx context.Context, address models.Address) (*models.BetRecord, error) {
	query := `SELECT ` + betColumns + ` FROM bet_records WHERE address = $1 FOR UPDATE`
	return r.getOne(ctx, query, address)
}

func (r *BetRecordRepository) getOne(ctx context.Context, query string, address models.Address) (*models.BetRecord, error) {
	bet, err := scanBetRecord(r.q.QueryRow(ctx, query, addressArg(address)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %s: %w", address, err)
	}
	return bet, nil
}

// GetByUser returns the most recent bets placed by a user
func (r *BetRecordRepository) GetByUser(ctx context.Context, user models.Address, limit int) ([]*models.BetRecord, error) {
	query := `
		SELECT ` + betColumns + `
		FROM bet_records
		WHERE user_address = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, addressArg(user), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for user %s: %w", user, err)
	}
	defer rows.Close()

	var bets []*models.BetRecord
	for rows.Next() {
		bet, err := scanBetRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}

	return bets, rows.Err()
}

// MarkSettled writes the settlement of a bet. It only matches rows that are
// still open, so a bet can never be settled twice in storage.
func (r *BetRecordRepository) MarkSettled(ctx context.Context, bet *models.BetRecord) error {
	if !bet.IsSettled() {
		return fmt.Errorf("bet %s has no settlement to persist", bet.Address)
	}

	query := `
		UPDATE bet_records
		SET house_seed = $1, result = $2, settled_at = $3
		WHERE address = $4 AND settled_at IS NULL
	`

	result, err := r.q.Exec(ctx, query,
		storeUint64(bet.Settlement.HouseSeed),
		bet.Settlement.Result,
		bet.Settlement.SettledAt,
		addressArg(bet.Address),
	)
	if err != nil {
		return fmt.Errorf("failed to settle bet %s: %w", bet.Address, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: bet %s", models.ErrBetAlreadySettled, bet.Address)
	}

	return nil
}

func scanBetRecord(row pgx.Row) (*models.BetRecord, error) {
	var (
		bet                          models.BetRecord
		address, user, house, escrow []byte
		amount, userSeed             int64
		bump                         int16
		houseSeed                    *int64
		result                       *bool
		settledAt                    *time.Time
	)

	err := row.Scan(
		&address,
		&user,
		&house,
		&amount,
		&bet.UserGuess,
		&userSeed,
		&escrow,
		&bump,
		&houseSeed,
		&result,
		&settledAt,
		&bet.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if bet.Address, err = scanAddress(address); err != nil {
		return nil, err
	}
	if bet.User, err = scanAddress(user); err != nil {
		return nil, err
	}
	if bet.House, err = scanAddress(house); err != nil {
		return nil, err
	}
	if bet.EscrowAccount, err = scanAddress(escrow); err != nil {
		return nil, err
	}
	bet.Amount = uint64(amount)
	bet.UserSeed = loadUint64(userSeed)
	bet.Bump = uint8(bump)

	// The table constraint keeps the three settlement columns all set or all null
	if settledAt != nil {
		bet.Settlement = &models.Settlement{
			HouseSeed: loadUint64(*houseSeed),
			Result:    *result,
			SettledAt: settledAt.UTC(),
		}
	}

	return &bet, nil
}
