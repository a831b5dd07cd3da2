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

// CreateSplitRule persists a new split rule, assigning ID and CreatedAt.
func (s *SQLiteStore) CreateSplitRule(ctx context.Context, r *models.SplitRule) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO split_rules (id, template_id, name, created_at) VALUES (?, ?, ?, ?)",
		r.ID, r.TemplateID, r.Name, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert split rule: %w", err)
	}
	return nil
}

// GetSplitRule retrieves a split rule by ID.
func (s *SQLiteStore) GetSplitRule(ctx context.Context, id string) (*models.SplitRule, error) {
	r := &models.SplitRule{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, template_id, name, created_at FROM split_rules WHERE id = ?",
		id,
	).Scan(&r.ID, &r.TemplateID, &r.Name, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("split rule %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split rule: %w", err)
	}
	return r, nil
}

// DeleteSplitRule removes a rule and its allocations, clearing any field
// default or entry override that still references it.
func (s *SQLiteStore) DeleteSplitRule(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM split_rule_allocations WHERE split_rule_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete rule allocations: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE template_fields SET default_split_rule_id = NULL WHERE default_split_rule_id = ?", id); err != nil {
		return fmt.Errorf("failed to clear field defaults: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE instance_field_values SET override_split_rule_id = NULL WHERE override_split_rule_id = ?", id); err != nil {
		return fmt.Errorf("failed to clear entry overrides: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM split_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete split rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("split rule %s: %w", id, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListSplitRulesByTemplate returns a template's split rules in creation order.
func (s *SQLiteStore) ListSplitRulesByTemplate(ctx context.Context, templateID string) ([]models.SplitRule, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, template_id, name, created_at FROM split_rules WHERE template_id = ? ORDER BY created_at, id",
		templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list split rules: %w", err)
	}
	defer rows.Close()

	var rules []models.SplitRule
	for rows.Next() {
		var r models.SplitRule
		if err := rows.Scan(&r.ID, &r.TemplateID, &r.Name, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan split rule: %w", err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate split rules: %w", err)
	}
	return rules, nil
}

// CreateRuleAllocation persists one (participant, percent) pair under a rule.
func (s *SQLiteStore) CreateRuleAllocation(ctx context.Context, a *models.SplitRuleAllocation) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO split_rule_allocations (id, split_rule_id, participant_id, percent, created_at) VALUES (?, ?, ?, ?, ?)",
		a.ID, a.SplitRuleID, a.ParticipantID, a.Percent.String(), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rule allocation: %w", err)
	}
	return nil
}

// GetRuleAllocation retrieves a rule allocation by ID.
func (s *SQLiteStore) GetRuleAllocation(ctx context.Context, id string) (*models.SplitRuleAllocation, error) {
	a := &models.SplitRuleAllocation{}
	var percent string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, split_rule_id, participant_id, percent, created_at FROM split_rule_allocations WHERE id = ?",
		id,
	).Scan(&a.ID, &a.SplitRuleID, &a.ParticipantID, &percent, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rule allocation %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule allocation: %w", err)
	}
	if a.Percent, err = parseDecimal(percent); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteRuleAllocation removes one rule allocation.
func (s *SQLiteStore) DeleteRuleAllocation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM split_rule_allocations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule allocation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("rule allocation %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// ListRuleAllocationsByRule returns the (participant, percent) pairs of a
// rule. Order carries no meaning for allocation; creation order is used for
// determinism only.
func (s *SQLiteStore) ListRuleAllocationsByRule(ctx context.Context, ruleID string) ([]models.SplitRuleAllocation, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, split_rule_id, participant_id, percent, created_at FROM split_rule_allocations WHERE split_rule_id = ? ORDER BY created_at, id",
		ruleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rule allocations: %w", err)
	}
	defer rows.Close()

	var allocations []models.SplitRuleAllocation
	for rows.Next() {
		var a models.SplitRuleAllocation
		var percent string
		if err := rows.Scan(&a.ID, &a.SplitRuleID, &a.ParticipantID, &percent, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule allocation: %w", err)
		}
		if a.Percent, err = parseDecimal(percent); err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rule allocations: %w", err)
	}
	return allocations, nil
}
