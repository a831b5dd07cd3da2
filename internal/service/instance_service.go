package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/splitbook/splitbook/internal/models"
	"github.com/splitbook/splitbook/internal/storage"
)

// InstanceService owns template instances and their cost entries. Creating
// an entry hands off to the allocation engine unless the entry uses manual
// fixed amounts.
type InstanceService struct {
	store storage.Store
	alloc *AllocationService
}

// NewInstanceService creates an InstanceService with the given storage
// backend and allocation engine.
func NewInstanceService(store storage.Store, alloc *AllocationService) *InstanceService {
	return &InstanceService{store: store, alloc: alloc}
}

// CreateInstance stamps a new occurrence of a template. It starts
// IN_PROGRESS with an immutable creation timestamp.
func (s *InstanceService) CreateInstance(ctx context.Context, templateID, name string) (*models.TemplateInstance, error) {
	if _, err := s.store.GetTemplate(ctx, templateID); err != nil {
		return nil, err
	}
	in := &models.TemplateInstance{
		TemplateID: templateID,
		Name:       name,
		Status:     models.StatusInProgress,
	}
	if err := s.store.CreateInstance(ctx, in); err != nil {
		slog.Error("CreateInstance failed", "template_id", templateID, "error", err)
		return nil, err
	}
	slog.Info("Instance created", "instance_id", in.ID, "template_id", templateID)
	return in, nil
}

// GetInstance retrieves an instance by ID.
func (s *InstanceService) GetInstance(ctx context.Context, instanceID string) (*models.TemplateInstance, error) {
	return s.store.GetInstance(ctx, instanceID)
}

// ListInstances returns all instances.
func (s *InstanceService) ListInstances(ctx context.Context) ([]models.TemplateInstance, error) {
	return s.store.ListInstances(ctx)
}

// ListInstancesByTemplate returns a template's instances.
func (s *InstanceService) ListInstancesByTemplate(ctx context.Context, templateID string) ([]models.TemplateInstance, error) {
	return s.store.ListInstancesByTemplate(ctx, templateID)
}

// ListInstancesByTemplateAndStatus filters a template's instances by status.
func (s *InstanceService) ListInstancesByTemplateAndStatus(ctx context.Context, templateID string, status models.InstanceStatus) ([]models.TemplateInstance, error) {
	return s.store.ListInstancesByTemplateAndStatus(ctx, templateID, status)
}

// RenameInstance updates the instance name.
func (s *InstanceService) RenameInstance(ctx context.Context, instanceID, name string) (*models.TemplateInstance, error) {
	in, err := s.store.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	in.Name = name
	if err := s.store.UpdateInstance(ctx, in); err != nil {
		slog.Error("RenameInstance failed", "instance_id", instanceID, "error", err)
		return nil, err
	}
	return in, nil
}

// MarkSettled moves the instance to SETTLED. The transition is
// unconditional: no outstanding-balance or allocation checks, and settling
// an already settled instance succeeds.
func (s *InstanceService) MarkSettled(ctx context.Context, instanceID string) (*models.TemplateInstance, error) {
	return s.setStatus(ctx, instanceID, models.StatusSettled)
}

// Reopen moves the instance back to IN_PROGRESS from any state.
func (s *InstanceService) Reopen(ctx context.Context, instanceID string) (*models.TemplateInstance, error) {
	return s.setStatus(ctx, instanceID, models.StatusInProgress)
}

func (s *InstanceService) setStatus(ctx context.Context, instanceID string, status models.InstanceStatus) (*models.TemplateInstance, error) {
	in, err := s.store.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	in.Status = status
	if err := s.store.UpdateInstance(ctx, in); err != nil {
		slog.Error("Instance status change failed", "instance_id", instanceID, "status", status, "error", err)
		return nil, err
	}
	slog.Info("Instance status changed", "instance_id", instanceID, "status", status)
	return in, nil
}

// DeleteInstance removes an instance with its field values and their entry
// amounts.
func (s *InstanceService) DeleteInstance(ctx context.Context, instanceID string) error {
	if err := s.store.DeleteInstance(ctx, instanceID); err != nil {
		slog.Error("DeleteInstance failed", "instance_id", instanceID, "error", err)
		return err
	}
	return nil
}

// AddFieldValue records a cost entry against an instance and, unless the
// split mode is FIXED_AMOUNTS, immediately materializes per-participant
// shares through the allocation engine.
//
// The entry is persisted before materialization runs. When materialization
// fails (most notably with ErrMissingSplitRule) the entry stays persisted
// with zero allocation rows and the error is returned to the caller — a
// deliberately loose consistency boundary the caller must handle.
func (s *InstanceService) AddFieldValue(ctx context.Context, instanceID, fieldID string, amount decimal.Decimal, note, entryDate string, splitMode models.SplitMode, overrideRuleID string) (*models.InstanceFieldValue, error) {
	if _, err := s.store.GetInstance(ctx, instanceID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetField(ctx, fieldID); err != nil {
		return nil, err
	}
	if splitMode == "" {
		splitMode = models.SplitModeDefault
	}
	if overrideRuleID != "" {
		if _, err := s.store.GetSplitRule(ctx, overrideRuleID); err != nil {
			return nil, err
		}
	}

	fv := &models.InstanceFieldValue{
		InstanceID:          instanceID,
		FieldID:             fieldID,
		Amount:              amount,
		Note:                note,
		EntryDate:           entryDate,
		SplitMode:           splitMode,
		OverrideSplitRuleID: overrideRuleID,
	}
	if err := s.store.CreateFieldValue(ctx, fv); err != nil {
		slog.Error("AddFieldValue failed", "instance_id", instanceID, "error", err)
		return nil, err
	}

	if fv.SplitMode != models.SplitModeFixedAmounts {
		if _, err := s.alloc.Materialize(ctx, fv); err != nil {
			slog.Warn("AddFieldValue: materialization failed, entry kept",
				"field_value_id", fv.ID, "error", err)
			return fv, err
		}
	}
	return fv, nil
}

// GetFieldValue retrieves a cost entry by ID.
func (s *InstanceService) GetFieldValue(ctx context.Context, fieldValueID string) (*models.InstanceFieldValue, error) {
	return s.store.GetFieldValue(ctx, fieldValueID)
}

// ListFieldValues returns an instance's cost entries.
func (s *InstanceService) ListFieldValues(ctx context.Context, instanceID string) ([]models.InstanceFieldValue, error) {
	return s.store.ListFieldValuesByInstance(ctx, instanceID)
}

// ListFieldValuesByField narrows an instance's entries to one field.
func (s *InstanceService) ListFieldValuesByField(ctx context.Context, instanceID, fieldID string) ([]models.InstanceFieldValue, error) {
	return s.store.ListFieldValuesByInstanceAndField(ctx, instanceID, fieldID)
}

// UpdateFieldValue overwrites amount, note, entry date, split mode and
// override rule. The allocation engine is not re-run: shares are computed
// at creation and frozen thereafter, so existing rows go stale relative to
// the new amount. Delete the shares and re-materialize explicitly to
// refresh them.
func (s *InstanceService) UpdateFieldValue(ctx context.Context, fieldValueID string, amount decimal.Decimal, note, entryDate string, splitMode models.SplitMode, overrideRuleID string) (*models.InstanceFieldValue, error) {
	fv, err := s.store.GetFieldValue(ctx, fieldValueID)
	if err != nil {
		return nil, err
	}
	if overrideRuleID != "" {
		if _, err := s.store.GetSplitRule(ctx, overrideRuleID); err != nil {
			return nil, err
		}
	}

	fv.Amount = amount
	fv.Note = note
	fv.EntryDate = entryDate
	fv.SplitMode = splitMode
	fv.OverrideSplitRuleID = overrideRuleID
	if err := s.store.UpdateFieldValue(ctx, fv); err != nil {
		slog.Error("UpdateFieldValue failed", "field_value_id", fieldValueID, "error", err)
		return nil, err
	}
	return fv, nil
}

// DeleteFieldValue removes a cost entry. Its entry amounts are not removed
// here; callers use DeleteEntryAmountsByFieldValue on the allocation
// service when they want them gone.
func (s *InstanceService) DeleteFieldValue(ctx context.Context, fieldValueID string) error {
	if err := s.store.DeleteFieldValue(ctx, fieldValueID); err != nil {
		slog.Error("DeleteFieldValue failed", "field_value_id", fieldValueID, "error", err)
		return err
	}
	return nil
}
