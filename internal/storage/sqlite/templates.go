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

// CreateTemplate persists a new template, assigning ID and CreatedAt.
func (s *SQLiteStore) CreateTemplate(ctx context.Context, t *models.Template) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO templates (id, user_id, name, description, created_at) VALUES (?, ?, ?, ?, ?)",
		t.ID, nullable(t.UserID), t.Name, nullable(t.Description), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}
	return nil
}

// GetTemplate retrieves a template by ID.
func (s *SQLiteStore) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	t := &models.Template{}
	var userID, description sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, description, created_at FROM templates WHERE id = ?",
		id,
	).Scan(&t.ID, &userID, &t.Name, &description, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("template %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	t.UserID = userID.String
	t.Description = description.String
	return t, nil
}

// UpdateTemplate overwrites name and description of an existing template.
func (s *SQLiteStore) UpdateTemplate(ctx context.Context, t *models.Template) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE templates SET name = ?, description = ? WHERE id = ?",
		t.Name, nullable(t.Description), t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("template %s: %w", t.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteTemplate removes the template and all of its dependents in one
// transaction: entry amounts, field values, instances, rule allocations,
// fields, split rules and participants.
func (s *SQLiteStore) DeleteTemplate(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	steps := []struct {
		desc  string
		query string
	}{
		{"entry amounts", `DELETE FROM participant_entry_amounts WHERE field_value_id IN (
			SELECT fv.id FROM instance_field_values fv
			JOIN template_instances ti ON ti.id = fv.instance_id
			WHERE ti.template_id = ?)`},
		{"field values", `DELETE FROM instance_field_values WHERE instance_id IN (
			SELECT id FROM template_instances WHERE template_id = ?)`},
		{"instances", "DELETE FROM template_instances WHERE template_id = ?"},
		{"rule allocations", `DELETE FROM split_rule_allocations WHERE split_rule_id IN (
			SELECT id FROM split_rules WHERE template_id = ?)`},
		{"fields", "DELETE FROM template_fields WHERE template_id = ?"},
		{"split rules", "DELETE FROM split_rules WHERE template_id = ?"},
		{"participants", "DELETE FROM template_participants WHERE template_id = ?"},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, id); err != nil {
			return fmt.Errorf("failed to delete %s: %w", step.desc, err)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM templates WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("template %s: %w", id, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListTemplates returns all templates, newest first.
func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]models.Template, error) {
	return s.listTemplates(ctx,
		"SELECT id, user_id, name, description, created_at FROM templates ORDER BY created_at DESC, id")
}

// ListTemplatesByUser returns the templates owned by a user, newest first.
func (s *SQLiteStore) ListTemplatesByUser(ctx context.Context, userID string) ([]models.Template, error) {
	return s.listTemplates(ctx,
		"SELECT id, user_id, name, description, created_at FROM templates WHERE user_id = ? ORDER BY created_at DESC, id",
		userID)
}

func (s *SQLiteStore) listTemplates(ctx context.Context, query string, args ...any) ([]models.Template, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		var t models.Template
		var userID, description sql.NullString
		if err := rows.Scan(&t.ID, &userID, &t.Name, &description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		t.UserID = userID.String
		t.Description = description.String
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate templates: %w", err)
	}
	return templates, nil
}

// CreateParticipant persists a new participant, assigning ID and CreatedAt.
func (s *SQLiteStore) CreateParticipant(ctx context.Context, p *models.TemplateParticipant) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO template_participants (id, template_id, name, display_order, created_at) VALUES (?, ?, ?, ?, ?)",
		p.ID, p.TemplateID, p.Name, p.DisplayOrder, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

// GetParticipant retrieves a participant by ID.
func (s *SQLiteStore) GetParticipant(ctx context.Context, id string) (*models.TemplateParticipant, error) {
	p := &models.TemplateParticipant{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, template_id, name, display_order, created_at FROM template_participants WHERE id = ?",
		id,
	).Scan(&p.ID, &p.TemplateID, &p.Name, &p.DisplayOrder, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("participant %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// DeleteParticipant removes a participant together with their rule
// allocations and entry amounts.
func (s *SQLiteStore) DeleteParticipant(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM split_rule_allocations WHERE participant_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete rule allocations: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM participant_entry_amounts WHERE participant_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete entry amounts: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM template_participants WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("participant %s: %w", id, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListParticipantsByTemplate returns a template's participants ordered by
// display_order, ties broken by creation order then ID for determinism.
func (s *SQLiteStore) ListParticipantsByTemplate(ctx context.Context, templateID string) ([]models.TemplateParticipant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, template_id, name, display_order, created_at FROM template_participants
		 WHERE template_id = ? ORDER BY display_order, created_at, id`,
		templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []models.TemplateParticipant
	for rows.Next() {
		var p models.TemplateParticipant
		if err := rows.Scan(&p.ID, &p.TemplateID, &p.Name, &p.DisplayOrder, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

// CreateField persists a new template field, assigning ID and CreatedAt.
func (s *SQLiteStore) CreateField(ctx context.Context, f *models.TemplateField) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAt == 0 {
		f.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO template_fields (id, template_id, label, field_type, default_split_rule_id, display_order, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.TemplateID, f.Label, string(f.FieldType), nullable(f.DefaultSplitRuleID), f.DisplayOrder, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert field: %w", err)
	}
	return nil
}

// GetField retrieves a template field by ID.
func (s *SQLiteStore) GetField(ctx context.Context, id string) (*models.TemplateField, error) {
	f := &models.TemplateField{}
	var fieldType string
	var defaultRule sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, template_id, label, field_type, default_split_rule_id, display_order, created_at
		 FROM template_fields WHERE id = ?`,
		id,
	).Scan(&f.ID, &f.TemplateID, &f.Label, &fieldType, &defaultRule, &f.DisplayOrder, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("field %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get field: %w", err)
	}
	f.FieldType = models.FieldType(fieldType)
	f.DefaultSplitRuleID = defaultRule.String
	return f, nil
}

// DeleteField removes a template field. Field values referencing it block
// the delete via the foreign key, acting as a deletion guard.
func (s *SQLiteStore) DeleteField(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM template_fields WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete field: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("field %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// ListFieldsByTemplate returns a template's fields ordered by display_order,
// ties broken by creation order then ID.
func (s *SQLiteStore) ListFieldsByTemplate(ctx context.Context, templateID string) ([]models.TemplateField, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, template_id, label, field_type, default_split_rule_id, display_order, created_at
		 FROM template_fields WHERE template_id = ? ORDER BY display_order, created_at, id`,
		templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	defer rows.Close()

	var fields []models.TemplateField
	for rows.Next() {
		var f models.TemplateField
		var fieldType string
		var defaultRule sql.NullString
		if err := rows.Scan(&f.ID, &f.TemplateID, &f.Label, &fieldType, &defaultRule, &f.DisplayOrder, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		f.FieldType = models.FieldType(fieldType)
		f.DefaultSplitRuleID = defaultRule.String
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fields: %w", err)
	}
	return fields, nil
}
