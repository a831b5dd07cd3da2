package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitbook/splitbook/internal/models"
	"github.com/splitbook/splitbook/internal/storage"
)

// CreateEntryAmount persists one participant share, assigning ID and CreatedAt.
func (s *SQLiteStore) CreateEntryAmount(ctx context.Context, ea *models.ParticipantEntryAmount) error {
	if ea.ID == "" {
		ea.ID = uuid.New().String()
	}
	if ea.CreatedAt == 0 {
		ea.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO participant_entry_amounts (id, field_value_id, participant_id, amount, created_at) VALUES (?, ?, ?, ?, ?)",
		ea.ID, ea.FieldValueID, ea.ParticipantID, ea.Amount.String(), ea.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry amount: %w", err)
	}
	return nil
}

// CreateEntryAmounts persists a batch of shares in one transaction,
// assigning ID and CreatedAt to each. A failed insert rolls back the whole
// batch. An empty batch is a no-op.
func (s *SQLiteStore) CreateEntryAmounts(ctx context.Context, eas []*models.ParticipantEntryAmount) error {
	if len(eas) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ea := range eas {
		if ea.ID == "" {
			ea.ID = uuid.New().String()
		}
		if ea.CreatedAt == 0 {
			ea.CreatedAt = time.Now().Unix()
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO participant_entry_amounts (id, field_value_id, participant_id, amount, created_at) VALUES (?, ?, ?, ?, ?)",
			ea.ID, ea.FieldValueID, ea.ParticipantID, ea.Amount.String(), ea.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert entry amount: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetEntryAmount retrieves one participant share by ID.
func (s *SQLiteStore) GetEntryAmount(ctx context.Context, id string) (*models.ParticipantEntryAmount, error) {
	ea := &models.ParticipantEntryAmount{}
	var amount string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, field_value_id, participant_id, amount, created_at FROM participant_entry_amounts WHERE id = ?",
		id,
	).Scan(&ea.ID, &ea.FieldValueID, &ea.ParticipantID, &amount, &ea.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("entry amount %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry amount: %w", err)
	}
	if ea.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	return ea, nil
}

// UpdateEntryAmount overwrites the amount of one share.
func (s *SQLiteStore) UpdateEntryAmount(ctx context.Context, ea *models.ParticipantEntryAmount) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE participant_entry_amounts SET amount = ? WHERE id = ?",
		ea.Amount.String(), ea.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry amount: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("entry amount %s: %w", ea.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteEntryAmount removes one share.
func (s *SQLiteStore) DeleteEntryAmount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM participant_entry_amounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete entry amount: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("entry amount %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// ListEntryAmounts returns every share in the store, oldest first.
func (s *SQLiteStore) ListEntryAmounts(ctx context.Context) ([]models.ParticipantEntryAmount, error) {
	return s.listEntryAmounts(ctx,
		"SELECT id, field_value_id, participant_id, amount, created_at FROM participant_entry_amounts ORDER BY created_at, id")
}

// ListEntryAmountsByFieldValue returns the shares of one entry.
func (s *SQLiteStore) ListEntryAmountsByFieldValue(ctx context.Context, fieldValueID string) ([]models.ParticipantEntryAmount, error) {
	return s.listEntryAmounts(ctx,
		"SELECT id, field_value_id, participant_id, amount, created_at FROM participant_entry_amounts WHERE field_value_id = ? ORDER BY created_at, id",
		fieldValueID)
}

// ListEntryAmountsByParticipant returns every share owed by one participant.
func (s *SQLiteStore) ListEntryAmountsByParticipant(ctx context.Context, participantID string) ([]models.ParticipantEntryAmount, error) {
	return s.listEntryAmounts(ctx,
		"SELECT id, field_value_id, participant_id, amount, created_at FROM participant_entry_amounts WHERE participant_id = ? ORDER BY created_at, id",
		participantID)
}

// DeleteEntryAmountsByFieldValue removes every share of one entry.
// Deleting zero rows is not an error.
func (s *SQLiteStore) DeleteEntryAmountsByFieldValue(ctx context.Context, fieldValueID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM participant_entry_amounts WHERE field_value_id = ?", fieldValueID); err != nil {
		return fmt.Errorf("failed to delete entry amounts by field value: %w", err)
	}
	return nil
}

// DeleteEntryAmountsByParticipant removes every share owed by one participant.
// Deleting zero rows is not an error.
func (s *SQLiteStore) DeleteEntryAmountsByParticipant(ctx context.Context, participantID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM participant_entry_amounts WHERE participant_id = ?", participantID); err != nil {
		return fmt.Errorf("failed to delete entry amounts by participant: %w", err)
	}
	return nil
}

func (s *SQLiteStore) listEntryAmounts(ctx context.Context, query string, args ...any) ([]models.ParticipantEntryAmount, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entry amounts: %w", err)
	}
	defer rows.Close()

	var amounts []models.ParticipantEntryAmount
	for rows.Next() {
		var ea models.ParticipantEntryAmount
		var amount string
		if err := rows.Scan(&ea.ID, &ea.FieldValueID, &ea.ParticipantID, &amount, &ea.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry amount: %w", err)
		}
		if ea.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		amounts = append(amounts, ea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entry amounts: %w", err)
	}
	return amounts, nil
}
