package repository

import (
	"context"
	"errors"
	"fmt"

	"coinflip/database"
	"coinflip/models"

	"github.com/jackc/pgx/v5"
)

// TokenAccountRepository implements the TokenAccountRepository interface
type TokenAccountRepository struct {
	q queryable
}

// NewTokenAccountRepository creates a new token account repository
func NewTokenAccountRepository(db *database.DB) *TokenAccountRepository {
	return &TokenAccountRepository{q: db.Pool}
}

// newTokenAccountRepositoryWithTx creates a new token account repository with a transaction
func newTokenAccountRepositoryWithTx(tx queryable) *TokenAccountRepository {
	return &TokenAccountRepository{q: tx}
}

const tokenAccountColumns = `address, owner, balance, created_at, updated_at`

// Create opens an account. An occupied address yields models.ErrAccountExists.
func (r *TokenAccountRepository) Create(ctx context.Context, account *models.TokenAccount) error {
	balance, err := models.ToStoredAmount(account.Balance)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO token_accounts (address, owner, balance)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`

	err = r.q.QueryRow(ctx, query,
		addressArg(account.Address),
		addressArg(account.Owner),
		balance,
	).Scan(&account.CreatedAt, &account.UpdatedAt)

	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", models.ErrAccountExists, account.Address)
	}
	if err != nil {
		return fmt.Errorf("failed to create token account %s: %w", account.Address, err)
	}

	return nil
}

// GetByAddress retrieves an account, returning nil if it does not exist
func (r *TokenAccountRepository) GetByAddress(ctx context.Context, address models.Address) (*models.TokenAccount, error) {
	query := `SELECT ` + tokenAccountColumns + ` FROM token_accounts WHERE address = $1`
	return r.getOne(ctx, query, address)
}

// GetForUpdate retrieves an account and holds a row lock until the transaction ends
func (r *TokenAccountRepository) GetForUpdate(ctx context.Context, address models.Address) (*models.TokenAccount, error) {
	query := `SELECT ` + tokenAccountColumns + ` FROM token_accounts WHERE address = $1 FOR UPDATE`
	return r.getOne(ctx, query, address)
}

func (r *TokenAccountRepository) getOne(ctx context.Context, query string, address models.Address) (*models.TokenAccount, error) {
	account, err := scanTokenAccount(r.q.QueryRow(ctx, query, addressArg(address)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token account %s: %w", address, err)
	}
	return account, nil
}

// UpdateBalance sets the balance of an account
func (r *TokenAccountRepository) UpdateBalance(ctx context.Context, address models.Address, balance uint64) error {
	stored, err := models.ToStoredAmount(balance)
	if err != nil {
		return err
	}

	query := `
		UPDATE token_accounts
		SET balance = $1, updated_at = NOW()
		WHERE address = $2
	`

	result, err := r.q.Exec(ctx, query, stored, addressArg(address))
	if err != nil {
		return fmt.Errorf("failed to update balance for account %s: %w", address, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", models.ErrAccountNotFound, address)
	}

	return nil
}

// GetByOwner returns all accounts owned by an identity
func (r *TokenAccountRepository) GetByOwner(ctx context.Context, owner models.Address) ([]*models.TokenAccount, error) {
	query := `
		SELECT ` + tokenAccountColumns + `
		FROM token_accounts
		WHERE owner = $1
		ORDER BY created_at ASC
	`

	rows, err := r.q.Query(ctx, query, addressArg(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts for owner %s: %w", owner, err)
	}
	defer rows.Close()

	var accounts []*models.TokenAccount
	for rows.Next() {
		account, err := scanTokenAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token account: %w", err)
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanTokenAccount(row pgx.Row) (*models.TokenAccount, error) {
	var (
		account        models.TokenAccount
		address, owner []byte
		balance        int64
	)
	if err := row.Scan(&address, &owner, &balance, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if account.Address, err = scanAddress(address); err != nil {
		return nil, err
	}
	if account.Owner, err = scanAddress(owner); err != nil {
		return nil, err
	}
	account.Balance = uint64(balance)

	return &account, nil
}
