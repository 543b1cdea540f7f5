package repository

import (
	"context"
	"errors"
	"fmt"

	"coinflip/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// queryable is satisfied by both *pgxpool.Pool and pgx.Tx
type queryable interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// uniqueViolation is the SQLSTATE for a duplicate key
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// addressArg converts an address to its BYTEA argument
func addressArg(a models.Address) []byte {
	return a[:]
}

// optionalAddressArg converts a nullable address to its BYTEA argument
func optionalAddressArg(a *models.Address) []byte {
	if a == nil {
		return nil
	}
	return a.Bytes()
}

func scanAddress(b []byte) (models.Address, error) {
	a, err := models.AddressFromBytes(b)
	if err != nil {
		return a, fmt.Errorf("corrupt address column: %w", err)
	}
	return a, nil
}

func scanOptionalAddress(b []byte) (*models.Address, error) {
	if b == nil {
		return nil, nil
	}
	a, err := scanAddress(b)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Seeds and counters use the full unsigned range and are stored bit-cast
func storeUint64(v uint64) int64 {
	return int64(v)
}

func loadUint64(v int64) uint64 {
	return uint64(v)
}
