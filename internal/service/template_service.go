package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/splitbook/splitbook/internal/allocator"
	"github.com/splitbook/splitbook/internal/models"
	"github.com/splitbook/splitbook/internal/storage"
)

// TemplateService owns the design-time side of the system: templates and
// their participants, fields, split rules and rule allocations.
type TemplateService struct {
	store storage.Store
}

// NewTemplateService creates a TemplateService with the given storage backend.
func NewTemplateService(store storage.Store) *TemplateService {
	return &TemplateService{store: store}
}

// CreateTemplate creates a new template owned by userID.
func (s *TemplateService) CreateTemplate(ctx context.Context, userID, name, description string) (*models.Template, error) {
	t := &models.Template{
		UserID:      userID,
		Name:        name,
		Description: description,
	}
	if err := s.store.CreateTemplate(ctx, t); err != nil {
		slog.Error("CreateTemplate failed", "error", err)
		return nil, err
	}
	slog.Info("Template created", "template_id", t.ID, "name", t.Name)
	return t, nil
}

// GetTemplate retrieves a template by ID.
func (s *TemplateService) GetTemplate(ctx context.Context, templateID string) (*models.Template, error) {
	return s.store.GetTemplate(ctx, templateID)
}

// ListTemplates returns all templates.
func (s *TemplateService) ListTemplates(ctx context.Context) ([]models.Template, error) {
	return s.store.ListTemplates(ctx)
}

// ListTemplatesByUser returns the templates owned by one user.
func (s *TemplateService) ListTemplatesByUser(ctx context.Context, userID string) ([]models.Template, error) {
	return s.store.ListTemplatesByUser(ctx, userID)
}

// UpdateTemplate overwrites name and description.
func (s *TemplateService) UpdateTemplate(ctx context.Context, templateID, name, description string) (*models.Template, error) {
	t, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	t.Name = name
	t.Description = description
	if err := s.store.UpdateTemplate(ctx, t); err != nil {
		slog.Error("UpdateTemplate failed", "template_id", templateID, "error", err)
		return nil, err
	}
	return t, nil
}

// DeleteTemplate removes a template and everything hanging off it:
// participants, fields, rules, instances and allocations.
func (s *TemplateService) DeleteTemplate(ctx context.Context, templateID string) error {
	if err := s.store.DeleteTemplate(ctx, templateID); err != nil {
		slog.Error("DeleteTemplate failed", "template_id", templateID, "error", err)
		return err
	}
	slog.Info("Template deleted", "template_id", templateID)
	return nil
}

// AddParticipant adds a person to a template.
func (s *TemplateService) AddParticipant(ctx context.Context, templateID, name string, displayOrder int) (*models.TemplateParticipant, error) {
	if _, err := s.store.GetTemplate(ctx, templateID); err != nil {
		return nil, err
	}
	p := &models.TemplateParticipant{
		TemplateID:   templateID,
		Name:         name,
		DisplayOrder: displayOrder,
	}
	if err := s.store.CreateParticipant(ctx, p); err != nil {
		slog.Error("AddParticipant failed", "template_id", templateID, "error", err)
		return nil, err
	}
	return p, nil
}

// GetParticipant retrieves a participant by ID.
func (s *TemplateService) GetParticipant(ctx context.Context, participantID string) (*models.TemplateParticipant, error) {
	return s.store.GetParticipant(ctx, participantID)
}

// ListParticipants returns a template's participants in display order.
func (s *TemplateService) ListParticipants(ctx context.Context, templateID string) ([]models.TemplateParticipant, error) {
	return s.store.ListParticipantsByTemplate(ctx, templateID)
}

// DeleteParticipant removes a participant, their rule allocations and their
// entry amounts.
func (s *TemplateService) DeleteParticipant(ctx context.Context, participantID string) error {
	if err := s.store.DeleteParticipant(ctx, participantID); err != nil {
		slog.Error("DeleteParticipant failed", "participant_id", participantID, "error", err)
		return err
	}
	return nil
}

// AddField adds a cost category to a template. defaultSplitRuleID may be
// empty; when given it must resolve.
func (s *TemplateService) AddField(ctx context.Context, templateID, label string, fieldType models.FieldType, defaultSplitRuleID string, displayOrder int) (*models.TemplateField, error) {
	if _, err := s.store.GetTemplate(ctx, templateID); err != nil {
		return nil, err
	}
	if defaultSplitRuleID != "" {
		if _, err := s.store.GetSplitRule(ctx, defaultSplitRuleID); err != nil {
			return nil, err
		}
	}
	f := &models.TemplateField{
		TemplateID:         templateID,
		Label:              label,
		FieldType:          fieldType,
		DefaultSplitRuleID: defaultSplitRuleID,
		DisplayOrder:       displayOrder,
	}
	if err := s.store.CreateField(ctx, f); err != nil {
		slog.Error("AddField failed", "template_id", templateID, "error", err)
		return nil, err
	}
	return f, nil
}

// GetField retrieves a template field by ID.
func (s *TemplateService) GetField(ctx context.Context, fieldID string) (*models.TemplateField, error) {
	return s.store.GetField(ctx, fieldID)
}

// ListFields returns a template's fields in display order.
func (s *TemplateService) ListFields(ctx context.Context, templateID string) ([]models.TemplateField, error) {
	return s.store.ListFieldsByTemplate(ctx, templateID)
}

// DeleteField removes a template field.
func (s *TemplateService) DeleteField(ctx context.Context, fieldID string) error {
	if err := s.store.DeleteField(ctx, fieldID); err != nil {
		slog.Error("DeleteField failed", "field_id", fieldID, "error", err)
		return err
	}
	return nil
}

// CreateSplitRule creates an empty named rule under a template. Allocations
// are added separately and the total is not checked at write time; see
// ValidateRuleTotal.
func (s *TemplateService) CreateSplitRule(ctx context.Context, templateID, name string) (*models.SplitRule, error) {
	if _, err := s.store.GetTemplate(ctx, templateID); err != nil {
		return nil, err
	}
	r := &models.SplitRule{
		TemplateID: templateID,
		Name:       name,
	}
	if err := s.store.CreateSplitRule(ctx, r); err != nil {
		slog.Error("CreateSplitRule failed", "template_id", templateID, "error", err)
		return nil, err
	}
	return r, nil
}

// GetSplitRule retrieves a split rule by ID.
func (s *TemplateService) GetSplitRule(ctx context.Context, ruleID string) (*models.SplitRule, error) {
	return s.store.GetSplitRule(ctx, ruleID)
}

// ListSplitRules returns a template's split rules.
func (s *TemplateService) ListSplitRules(ctx context.Context, templateID string) ([]models.SplitRule, error) {
	return s.store.ListSplitRulesByTemplate(ctx, templateID)
}

// DeleteSplitRule removes a rule and its allocations; fields and entries
// pointing at it fall back to having no rule.
func (s *TemplateService) DeleteSplitRule(ctx context.Context, ruleID string) error {
	if err := s.store.DeleteSplitRule(ctx, ruleID); err != nil {
		slog.Error("DeleteSplitRule failed", "rule_id", ruleID, "error", err)
		return err
	}
	return nil
}

// AddRuleAllocation pairs a participant with a percentage under a rule.
// Percent is stored at two decimal places. The rule's running total is
// deliberately not checked here.
func (s *TemplateService) AddRuleAllocation(ctx context.Context, ruleID, participantID string, percent decimal.Decimal) (*models.SplitRuleAllocation, error) {
	if _, err := s.store.GetSplitRule(ctx, ruleID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetParticipant(ctx, participantID); err != nil {
		return nil, err
	}
	a := &models.SplitRuleAllocation{
		SplitRuleID:   ruleID,
		ParticipantID: participantID,
		Percent:       percent.Round(2),
	}
	if err := s.store.CreateRuleAllocation(ctx, a); err != nil {
		slog.Error("AddRuleAllocation failed", "rule_id", ruleID, "error", err)
		return nil, err
	}
	return a, nil
}

// GetRuleAllocation retrieves one rule allocation by ID.
func (s *TemplateService) GetRuleAllocation(ctx context.Context, allocationID string) (*models.SplitRuleAllocation, error) {
	return s.store.GetRuleAllocation(ctx, allocationID)
}

// ListRuleAllocations returns the (participant, percent) pairs of a rule.
func (s *TemplateService) ListRuleAllocations(ctx context.Context, ruleID string) ([]models.SplitRuleAllocation, error) {
	if _, err := s.store.GetSplitRule(ctx, ruleID); err != nil {
		return nil, err
	}
	return s.store.ListRuleAllocationsByRule(ctx, ruleID)
}

// DeleteRuleAllocation removes one rule allocation.
func (s *TemplateService) DeleteRuleAllocation(ctx context.Context, allocationID string) error {
	return s.store.DeleteRuleAllocation(ctx, allocationID)
}

// ValidateRuleTotal is the opt-in completeness check: it returns a
// ValidationError when the rule's percents do not total exactly 100.00.
// Rules are allowed to be incomplete at write time, so callers invoke this
// explicitly when they want the guarantee.
func (s *TemplateService) ValidateRuleTotal(ctx context.Context, ruleID string) error {
	allocs, err := s.ListRuleAllocations(ctx, ruleID)
	if err != nil {
		return err
	}
	ruleAllocs := make([]allocator.RuleAllocation, len(allocs))
	for i, a := range allocs {
		ruleAllocs[i] = allocator.RuleAllocation{ParticipantID: a.ParticipantID, Percent: a.Percent}
	}
	total := allocator.RuleTotal(ruleAllocs)
	if !total.Equal(decimal.NewFromInt(100)) {
		return fmt.Errorf("rule total check: %w", &ValidationError{RuleID: ruleID, Total: total})
	}
	return nil
}
