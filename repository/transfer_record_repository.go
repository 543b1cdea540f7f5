package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"coinflip/database"
	"coinflip/models"

	"github.com/jackc/pgx/v5"
)

// TransferRecordRepository implements the TransferRecordRepository interface
type TransferRecordRepository struct {
	q queryable
}

// NewTransferRecordRepository creates a new transfer record repository
func NewTransferRecordRepository(db *database.DB) *TransferRecordRepository {
	return &TransferRecordRepository{q: db.Pool}
}

// newTransferRecordRepositoryWithTx creates a new transfer record repository with a transaction
func newTransferRecordRepositoryWithTx(tx queryable) *TransferRecordRepository {
	return &TransferRecordRepository{q: tx}
}

const transferColumns = `
	id, from_account, to_account, amount, kind, signer, delegated,
	metadata, related_id, related_type, created_at
`

// Record appends a transfer leg to the audit trail
func (r *TransferRecordRepository) Record(ctx context.Context, record *models.TransferRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid transfer record: %w", err)
	}
	amount, err := models.ToStoredAmount(record.Amount)
	if err != nil {
		return err
	}

	// Convert metadata to JSON
	var metadataJSON []byte
	if record.Metadata != nil {
		metadataJSON, err = json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal transfer metadata: %w", err)
		}
	}

	var relatedType *string
	if record.RelatedType != nil {
		t := string(*record.RelatedType)
		relatedType = &t
	}

	query := `
		INSERT INTO transfer_records
		(from_account, to_account, amount, kind, signer, delegated, metadata, related_id, related_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		optionalAddressArg(record.From),
		addressArg(record.To),
		amount,
		string(record.Kind),
		addressArg(record.Signer),
		record.Delegated,
		metadataJSON,
		optionalAddressArg(record.RelatedID),
		relatedType,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record %s transfer to %s: %w", record.Kind, record.To, err)
	}

	return nil
}

// GetByRelated returns every leg recorded for a house or bet, oldest first
func (r *TransferRecordRepository) GetByRelated(ctx context.Context, relatedType models.RelatedType, relatedID models.Address) ([]*models.TransferRecord, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfer_records
		WHERE related_type = $1 AND related_id = $2
		ORDER BY id ASC
	`

	rows, err := r.q.Query(ctx, query, string(relatedType), addressArg(relatedID))
	if err != nil {
		return nil, fmt.Errorf("failed to get transfers for %s %s: %w", relatedType, relatedID, err)
	}
	return collectTransfers(rows)
}

// GetByAccount returns the most recent legs touching an account
func (r *TransferRecordRepository) GetByAccount(ctx context.Context, account models.Address, limit int) ([]*models.TransferRecord, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfer_records
		WHERE from_account = $1 OR to_account = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, addressArg(account), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transfers for account %s: %w", account, err)
	}
	return collectTransfers(rows)
}

func collectTransfers(rows pgx.Rows) ([]*models.TransferRecord, error) {
	defer rows.Close()

	var records []*models.TransferRecord
	for rows.Next() {
		var (
			record                      models.TransferRecord
			from, to, signer, relatedID []byte
			amount                      int64
			kind                        string
			metadataJSON                []byte
			relatedType                 *string
		)

		err := rows.Scan(
			&record.ID,
			&from,
			&to,
			&amount,
			&kind,
			&signer,
			&record.Delegated,
			&metadataJSON,
			&relatedID,
			&relatedType,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer record: %w", err)
		}

		if record.From, err = scanOptionalAddress(from); err != nil {
			return nil, err
		}
		if record.To, err = scanAddress(to); err != nil {
			return nil, err
		}
		if record.Signer, err = scanAddress(signer); err != nil {
			return nil, err
		}
		if record.RelatedID, err = scanOptionalAddress(relatedID); err != nil {
			return nil, err
		}
		if relatedType != nil {
			t := models.RelatedType(*relatedType)
			record.RelatedType = &t
		}
		record.Amount = uint64(amount)
		record.Kind = models.TransferKind(kind)

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal transfer metadata: %w", err)
			}
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}
