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

// CreateInstance persists a new instance, assigning ID and CreatedAt.
// Status defaults to IN_PROGRESS when unset.
func (s *SQLiteStore) CreateInstance(ctx context.Context, in *models.TemplateInstance) error {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.CreatedAt == 0 {
		in.CreatedAt = time.Now().Unix()
	}
	if in.Status == "" {
		in.Status = models.StatusInProgress
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO template_instances (id, template_id, name, status, created_at) VALUES (?, ?, ?, ?, ?)",
		in.ID, in.TemplateID, in.Name, string(in.Status), in.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert instance: %w", err)
	}
	return nil
}

// GetInstance retrieves an instance by ID.
func (s *SQLiteStore) GetInstance(ctx context.Context, id string) (*models.TemplateInstance, error) {
	in := &models.TemplateInstance{}
	var status string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, template_id, name, status, created_at FROM template_instances WHERE id = ?",
		id,
	).Scan(&in.ID, &in.TemplateID, &in.Name, &status, &in.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("instance %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	in.Status = models.InstanceStatus(status)
	return in, nil
}

// UpdateInstance persists name and status. created_at is immutable and
// deliberately excluded from the statement.
func (s *SQLiteStore) UpdateInstance(ctx context.Context, in *models.TemplateInstance) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE template_instances SET name = ?, status = ? WHERE id = ?",
		in.Name, string(in.Status), in.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update instance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("instance %s: %w", in.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteInstance removes the instance, its field values and their entry
// amounts in one transaction.
func (s *SQLiteStore) DeleteInstance(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM participant_entry_amounts WHERE field_value_id IN (
			SELECT id FROM instance_field_values WHERE instance_id = ?)`, id); err != nil {
		return fmt.Errorf("failed to delete entry amounts: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM instance_field_values WHERE instance_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete field values: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM template_instances WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete instance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("instance %s: %w", id, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListInstances returns all instances, newest first.
func (s *SQLiteStore) ListInstances(ctx context.Context) ([]models.TemplateInstance, error) {
	return s.listInstances(ctx,
		"SELECT id, template_id, name, status, created_at FROM template_instances ORDER BY created_at DESC, id")
}

// ListInstancesByTemplate returns a template's instances, newest first.
func (s *SQLiteStore) ListInstancesByTemplate(ctx context.Context, templateID string) ([]models.TemplateInstance, error) {
	return s.listInstances(ctx,
		"SELECT id, template_id, name, status, created_at FROM template_instances WHERE template_id = ? ORDER BY created_at DESC, id",
		templateID)
}

// ListInstancesByTemplateAndStatus filters a template's instances by status.
func (s *SQLiteStore) ListInstancesByTemplateAndStatus(ctx context.Context, templateID string, status models.InstanceStatus) ([]models.TemplateInstance, error) {
	return s.listInstances(ctx,
		"SELECT id, template_id, name, status, created_at FROM template_instances WHERE template_id = ? AND status = ? ORDER BY created_at DESC, id",
		templateID, string(status))
}

func (s *SQLiteStore) listInstances(ctx context.Context, query string, args ...any) ([]models.TemplateInstance, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	defer rows.Close()

	var instances []models.TemplateInstance
	for rows.Next() {
		var in models.TemplateInstance
		var status string
		if err := rows.Scan(&in.ID, &in.TemplateID, &in.Name, &status, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}
		in.Status = models.InstanceStatus(status)
		instances = append(instances, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate instances: %w", err)
	}
	return instances, nil
}

// CreateFieldValue persists a new cost entry, assigning ID and CreatedAt.
// Split mode defaults to DEFAULT when unset.
func (s *SQLiteStore) CreateFieldValue(ctx context.Context, fv *models.InstanceFieldValue) error {
	if fv.ID == "" {
		fv.ID = uuid.New().String()
	}
	if fv.CreatedAt == 0 {
		fv.CreatedAt = time.Now().Unix()
	}
	if fv.SplitMode == "" {
		fv.SplitMode = models.SplitModeDefault
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO instance_field_values (id, instance_id, field_id, amount, note, entry_date, split_mode, override_split_rule_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fv.ID, fv.InstanceID, fv.FieldID, fv.Amount.String(), nullable(fv.Note), nullable(fv.EntryDate),
		string(fv.SplitMode), nullable(fv.OverrideSplitRuleID), fv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert field value: %w", err)
	}
	return nil
}

// GetFieldValue retrieves a cost entry by ID.
func (s *SQLiteStore) GetFieldValue(ctx context.Context, id string) (*models.InstanceFieldValue, error) {
	fv, err := s.scanFieldValue(s.db.QueryRowContext(ctx,
		`SELECT id, instance_id, field_id, amount, note, entry_date, split_mode, override_split_rule_id, created_at
		 FROM instance_field_values WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("field value %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return fv, nil
}

// UpdateFieldValue overwrites amount, note, entry date, split mode and
// override rule. Entry amounts computed earlier are left untouched.
func (s *SQLiteStore) UpdateFieldValue(ctx context.Context, fv *models.InstanceFieldValue) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE instance_field_values SET amount = ?, note = ?, entry_date = ?, split_mode = ?, override_split_rule_id = ?
		 WHERE id = ?`,
		fv.Amount.String(), nullable(fv.Note), nullable(fv.EntryDate), string(fv.SplitMode),
		nullable(fv.OverrideSplitRuleID), fv.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update field value: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("field value %s: %w", fv.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteFieldValue removes only the entry row. Its entry amounts are the
// caller's concern; see DeleteEntryAmountsByFieldValue.
func (s *SQLiteStore) DeleteFieldValue(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM instance_field_values WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete field value: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("field value %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// ListFieldValuesByInstance returns an instance's cost entries in creation order.
func (s *SQLiteStore) ListFieldValuesByInstance(ctx context.Context, instanceID string) ([]models.InstanceFieldValue, error) {
	return s.listFieldValues(ctx,
		`SELECT id, instance_id, field_id, amount, note, entry_date, split_mode, override_split_rule_id, created_at
		 FROM instance_field_values WHERE instance_id = ? ORDER BY created_at, id`,
		instanceID)
}

// ListFieldValuesByInstanceAndField narrows an instance's entries to one field.
func (s *SQLiteStore) ListFieldValuesByInstanceAndField(ctx context.Context, instanceID, fieldID string) ([]models.InstanceFieldValue, error) {
	return s.listFieldValues(ctx,
		`SELECT id, instance_id, field_id, amount, note, entry_date, split_mode, override_split_rule_id, created_at
		 FROM instance_field_values WHERE instance_id = ? AND field_id = ? ORDER BY created_at, id`,
		instanceID, fieldID)
}

func (s *SQLiteStore) listFieldValues(ctx context.Context, query string, args ...any) ([]models.InstanceFieldValue, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list field values: %w", err)
	}
	defer rows.Close()

	var values []models.InstanceFieldValue
	for rows.Next() {
		fv, err := s.scanFieldValue(rows)
		if err != nil {
			return nil, err
		}
		values = append(values, *fv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate field values: %w", err)
	}
	return values, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanFieldValue(row rowScanner) (*models.InstanceFieldValue, error) {
	fv := &models.InstanceFieldValue{}
	var amount, splitMode string
	var note, entryDate, overrideRule sql.NullString
	err := row.Scan(&fv.ID, &fv.InstanceID, &fv.FieldID, &amount, &note, &entryDate, &splitMode, &overrideRule, &fv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan field value: %w", err)
	}
	if fv.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	fv.Note = note.String
	fv.EntryDate = entryDate.String
	fv.SplitMode = models.SplitMode(splitMode)
	fv.OverrideSplitRuleID = overrideRule.String
	return fv, nil
}
