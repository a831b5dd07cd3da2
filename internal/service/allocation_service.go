package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/splitbook/splitbook/internal/allocator"
	"github.com/splitbook/splitbook/internal/metrics"
	"github.com/splitbook/splitbook/internal/models"
	"github.com/splitbook/splitbook/internal/storage"
)

// AllocationService is the allocation engine plus the ledger of
// ParticipantEntryAmount rows. Materialize is invoked by the instance
// service when a cost entry is created; the remaining operations manage
// manual (FIXED_AMOUNTS) shares and aggregates.
type AllocationService struct {
	store storage.Store
}

// NewAllocationService creates an AllocationService with the given storage backend.
func NewAllocationService(store storage.Store) *AllocationService {
	return &AllocationService{store: store}
}

// Materialize computes and persists one ParticipantEntryAmount per
// allocation entry of the field value's effective split rule: the override
// rule when set, otherwise the field's default rule.
//
// With neither rule present it fails with ErrMissingSplitRule and writes
// nothing; the already-persisted field value is left as is. The produced
// rows correspond 1:1 to the rule's allocation entries at the time of the
// call — a rule with zero entries silently yields zero rows — and are
// written in a single transaction, so a storage failure leaves no partial
// row set. Calling Materialize twice for the same field value appends a
// second set of rows; there is no idempotence guarantee.
func (s *AllocationService) Materialize(ctx context.Context, fv *models.InstanceFieldValue) ([]models.ParticipantEntryAmount, error) {
	ruleID := fv.OverrideSplitRuleID
	if ruleID == "" {
		field, err := s.store.GetField(ctx, fv.FieldID)
		if err != nil {
			metrics.MaterializationFailures.Inc()
			return nil, err
		}
		ruleID = field.DefaultSplitRuleID
	}
	if ruleID == "" {
		metrics.MaterializationFailures.Inc()
		return nil, fmt.Errorf("field value %s: %w", fv.ID, ErrMissingSplitRule)
	}

	ruleAllocs, err := s.store.ListRuleAllocationsByRule(ctx, ruleID)
	if err != nil {
		metrics.MaterializationFailures.Inc()
		return nil, err
	}

	allocs := make([]allocator.RuleAllocation, len(ruleAllocs))
	for i, ra := range ruleAllocs {
		allocs[i] = allocator.RuleAllocation{ParticipantID: ra.ParticipantID, Percent: ra.Percent}
	}

	shares := allocator.Shares(fv.Amount, allocs)
	batch := make([]*models.ParticipantEntryAmount, len(shares))
	for i, share := range shares {
		batch[i] = &models.ParticipantEntryAmount{
			FieldValueID:  fv.ID,
			ParticipantID: share.ParticipantID,
			Amount:        share.Amount,
		}
	}
	// Single transaction: a failure writes no rows at all.
	if err := s.store.CreateEntryAmounts(ctx, batch); err != nil {
		metrics.MaterializationFailures.Inc()
		slog.Error("Materialize failed", "field_value_id", fv.ID, "error", err)
		return nil, err
	}
	created := make([]models.ParticipantEntryAmount, len(batch))
	for i, ea := range batch {
		created[i] = *ea
	}

	metrics.Materializations.Inc()
	metrics.AllocationRows.Add(float64(len(created)))
	slog.Info("Field value materialized",
		"field_value_id", fv.ID,
		"rule_id", ruleID,
		"rows", len(created),
	)
	return created, nil
}

// CreateEntryAmount records a manual share, used for FIXED_AMOUNTS entries.
func (s *AllocationService) CreateEntryAmount(ctx context.Context, fieldValueID, participantID string, amount decimal.Decimal) (*models.ParticipantEntryAmount, error) {
	if _, err := s.store.GetFieldValue(ctx, fieldValueID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetParticipant(ctx, participantID); err != nil {
		return nil, err
	}
	ea := &models.ParticipantEntryAmount{
		FieldValueID:  fieldValueID,
		ParticipantID: participantID,
		Amount:        amount,
	}
	if err := s.store.CreateEntryAmount(ctx, ea); err != nil {
		slog.Error("CreateEntryAmount failed", "field_value_id", fieldValueID, "error", err)
		return nil, err
	}
	return ea, nil
}

// GetEntryAmount retrieves one share by ID.
func (s *AllocationService) GetEntryAmount(ctx context.Context, id string) (*models.ParticipantEntryAmount, error) {
	return s.store.GetEntryAmount(ctx, id)
}

// ListEntryAmounts returns every share in the store.
func (s *AllocationService) ListEntryAmounts(ctx context.Context) ([]models.ParticipantEntryAmount, error) {
	return s.store.ListEntryAmounts(ctx)
}

// ListEntryAmountsByFieldValue returns the shares of one cost entry.
func (s *AllocationService) ListEntryAmountsByFieldValue(ctx context.Context, fieldValueID string) ([]models.ParticipantEntryAmount, error) {
	return s.store.ListEntryAmountsByFieldValue(ctx, fieldValueID)
}

// ListEntryAmountsByParticipant returns every share owed by one participant.
func (s *AllocationService) ListEntryAmountsByParticipant(ctx context.Context, participantID string) ([]models.ParticipantEntryAmount, error) {
	return s.store.ListEntryAmountsByParticipant(ctx, participantID)
}

// UpdateEntryAmount overwrites one share's amount.
func (s *AllocationService) UpdateEntryAmount(ctx context.Context, id string, amount decimal.Decimal) (*models.ParticipantEntryAmount, error) {
	ea, err := s.store.GetEntryAmount(ctx, id)
	if err != nil {
		return nil, err
	}
	ea.Amount = amount
	if err := s.store.UpdateEntryAmount(ctx, ea); err != nil {
		slog.Error("UpdateEntryAmount failed", "entry_amount_id", id, "error", err)
		return nil, err
	}
	return ea, nil
}

// DeleteEntryAmount removes one share.
func (s *AllocationService) DeleteEntryAmount(ctx context.Context, id string) error {
	return s.store.DeleteEntryAmount(ctx, id)
}

// DeleteEntryAmountsByFieldValue removes all shares of one entry, typically
// before deleting the entry itself or re-running Materialize.
func (s *AllocationService) DeleteEntryAmountsByFieldValue(ctx context.Context, fieldValueID string) error {
	return s.store.DeleteEntryAmountsByFieldValue(ctx, fieldValueID)
}

// DeleteEntryAmountsByParticipant removes every share owed by one participant.
func (s *AllocationService) DeleteEntryAmountsByParticipant(ctx context.Context, participantID string) error {
	return s.store.DeleteEntryAmountsByParticipant(ctx, participantID)
}

// TotalForParticipantInInstance sums the participant's shares across every
// cost entry of the instance, starting from zero. Recomputed from persisted
// rows on each call; nothing is cached.
func (s *AllocationService) TotalForParticipantInInstance(ctx context.Context, instanceID, participantID string) (decimal.Decimal, error) {
	if _, err := s.store.GetInstance(ctx, instanceID); err != nil {
		return decimal.Zero, err
	}
	fieldValues, err := s.store.ListFieldValuesByInstance(ctx, instanceID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, fv := range fieldValues {
		amounts, err := s.store.ListEntryAmountsByFieldValue(ctx, fv.ID)
		if err != nil {
			return decimal.Zero, err
		}
		for _, ea := range amounts {
			if ea.ParticipantID == participantID {
				total = total.Add(ea.Amount)
			}
		}
	}
	return total, nil
}
