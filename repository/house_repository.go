package repository

import (
	"context"
	"errors"
	"fmt"

	"coinflip/database"
	"coinflip/models"

	"github.com/jackc/pgx/v5"
)

// HouseRepository implements the HouseRepository interface
type HouseRepository struct {
	q queryable
}

// NewHouseRepository creates a new house repository
func NewHouseRepository(db *database.DB) *HouseRepository {
	return &HouseRepository{q: db.Pool}
}

// newHouseRepositoryWithTx creates a new house repository with a transaction
func newHouseRepositoryWithTx(tx queryable) *HouseRepository {
	return &HouseRepository{q: tx}
}

const houseColumns = `address, bump, authority, treasury_account, win_count, loss_count, created_at, updated_at`

// Create inserts the house singleton
func (r *HouseRepository) Create(ctx context.Context, house *models.HouseTreasury) error {
	query := `
		INSERT INTO house_treasuries (address, bump, authority, treasury_account, win_count, loss_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		addressArg(house.Address),
		int16(house.Bump),
		addressArg(house.Authority),
		addressArg(house.TreasuryAccount),
		storeUint64(house.WinCount),
		storeUint64(house.LossCount),
	).Scan(&house.CreatedAt, &house.UpdatedAt)

	if isUniqueViolation(err) {
		return fmt.Errorf("%w: house %s", models.ErrAlreadyExists, house.Address)
	}
	if err != nil {
		return fmt.Errorf("failed to create house %s: %w", house.Address, err)
	}

	return nil
}

// GetByAddress retrieves a house, returning nil if it does not exist
func (r *HouseRepository) GetByAddress(ctx context.Context, address models.Address) (*models.HouseTreasury, error) {
	query := `SELECT ` + houseColumns + ` FROM house_treasuries WHERE address = $1`
	return r.getOne(ctx, query, address)
}

// GetForUpdate retrieves a house and holds a row lock until the transaction ends
func (r *HouseRepository) GetForUpdate(ctx context.Context, address models.Address) (*models.HouseTreasury, error) {
	query := `SELECT ` + houseColumns + ` FROM house_treasuries WHERE address = $1 FOR UPDATE`
	return r.getOne(ctx, query, address)
}

func (r *HouseRepository) getOne(ctx context.Context, query string, address models.Address) (*models.HouseTreasury, error) {
	var (
		house                     models.HouseTreasury
		addr, authority, treasury []byte
		bump                      int16
		winCount, lossCount       int64
	)

	err := r.q.QueryRow(ctx, query, addressArg(address)).Scan(
		&addr,
		&bump,
		&authority,
		&treasury,
		&winCount,
		&lossCount,
		&house.CreatedAt,
		&house.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get house %s: %w", address, err)
	}

	if house.Address, err = scanAddress(addr); err != nil {
		return nil, err
	}
	if house.Authority, err = scanAddress(authority); err != nil {
		return nil, err
	}
	if house.TreasuryAccount, err = scanAddress(treasury); err != nil {
		return nil, err
	}
	house.Bump = uint8(bump)
	house.WinCount = loadUint64(winCount)
	house.LossCount = loadUint64(lossCount)

	return &house, nil
}

// UpdateCounters persists the win and loss counters
func (r *HouseRepository) UpdateCounters(ctx context.Context, house *models.HouseTreasury) error {
	query := `
		UPDATE house_treasuries
		SET win_count = $1, loss_count = $2, updated_at = NOW()
		WHERE address = $3
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		storeUint64(house.WinCount),
		storeUint64(house.LossCount),
		addressArg(house.Address),
	).Scan(&house.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrHouseNotInitialized
	}
	if err != nil {
		return fmt.Errorf("failed to update counters for house %s: %w", house.Address, err)
	}

	return nil
}
