package repository

import (
	"context"
	"fmt"
	"time"

	"coinflip/database"
	"coinflip/models"
)

// CommandNonceRepository remembers which signed command nonces were used
type CommandNonceRepository struct {
	q queryable
}

// NewCommandNonceRepository creates a new command nonce repository
func NewCommandNonceRepository(db *database.DB) *CommandNonceRepository {
	return &CommandNonceRepository{q: db.Pool}
}

// Claim records nonce for signer until expiresAt. It returns false when the
// pair was already claimed and has not expired yet.
func (r *CommandNonceRepository) Claim(ctx context.Context, signer models.Address, nonce string, expiresAt time.Time) (bool, error) {
	if _, err := r.q.Exec(ctx, `DELETE FROM command_nonces WHERE expires_at < NOW()`); err != nil {
		return false, fmt.Errorf("failed to prune command nonces: %w", err)
	}

	query := `
		INSERT INTO command_nonces (signer, nonce, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (signer, nonce) DO NOTHING
	`
	tag, err := r.q.Exec(ctx, query, addressArg(signer), nonce, expiresAt)
	if err != nil {
		return false, fmt.Errorf("failed to claim command nonce: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
