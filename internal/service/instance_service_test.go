package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/splitbook/splitbook/internal/models"
	"github.com/splitbook/splitbook/internal/storage"
)

func TestInstanceService_CreateStartsInProgress(t *testing.T) {
	ts, is, _ := setupServices(t)
	fix := setupFixture(t, ts)

	in, err := is.CreateInstance(context.Background(), fix.template.ID, "March rent")
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	if in.Status != models.StatusInProgress {
		t.Errorf("expected status IN_PROGRESS, got %s", in.Status)
	}
	if in.ID == "" || in.CreatedAt == 0 {
		t.Errorf("expected ID and CreatedAt assigned, got %+v", in)
	}
}

func TestInstanceService_SettleAndReopenAreUnconditional(t *testing.T) {
	ts, is, _ := setupServices(t)
	fix := setupFixture(t, ts)
	ctx := context.Background()

	in, err := is.CreateInstance(ctx, fix.template.ID, "March")
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}

	// Settle with no entries at all.
	settled, err := is.MarkSettled(ctx, in.ID)
	if err != nil {
		t.Fatalf("MarkSettled failed: %v", err)
	}
	if settled.Status != models.StatusSettled {
		t.Errorf("expected SETTLED, got %s", settled.Status)
	}

	// Settling again succeeds.
	if _, err := is.MarkSettled(ctx, in.ID); err != nil {
		t.Errorf("repeated MarkSettled failed: %v", err)
	}

	reopened, err := is.Reopen(ctx, in.ID)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if reopened.Status != models.StatusInProgress {
		t.Errorf("expected IN_PROGRESS after reopen, got %s", reopened.Status)
	}

	// Reopening an open instance succeeds too.
	if _, err := is.Reopen(ctx, in.ID); err != nil {
		t.Errorf("repeated Reopen failed: %v", err)
	}
}

func TestInstanceService_AddFieldValueMaterializesShares(t *testing.T) {
	ts, is, alloc := setupServices(t)
	fix := setupFixture(t, ts)
	ctx := context.Background()

	in, err := is.CreateInstance(ctx, fix.template.ID, "March")
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}

	fv, err := is.AddFieldValue(ctx, in.ID, fix.field.ID, decimal.RequireFromString("100.00"), "", "", models.SplitModeDefault, "")
	if err != nil {
		t.Fatalf("AddFieldValue failed: %v", err)
	}

	amounts, err := alloc.ListEntryAmountsByFieldValue(ctx, fv.ID)
	if err != nil {
		t.Fatalf("ListEntryAmountsByFieldValue failed: %v", err)
	}
	if len(amounts) != 2 {
		t.Fatalf("expected 2 shares, got %d", len(amounts))
	}
	if got := shareFor(t, amounts, fix.alice.ID).Amount; !got.Equal(decimal.RequireFromString("60.00")) {
		t.Errorf("expected Alice share 60.00, got %s", got)
	}
	if got := shareFor(t, amounts, fix.bob.ID).Amount; !got.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("expected Bob share 40.00, got %s", got)
	}
}

func TestInstanceService_AddFieldValueOverrideRuleWins(t *testing.T) {
	ts, is, alloc := setupServices(t)
	fix := setupFixture(t, ts)
	ctx := context.Background()

	override, err := ts.CreateSplitRule(ctx, fix.template.ID, "all alice")
	if err != nil {
		t.Fatalf("CreateSplitRule failed: %v", err)
	}
	if _, err := ts.AddRuleAllocation(ctx, override.ID, fix.alice.ID, decimal.RequireFromString("100")); err != nil {
		t.Fatalf("AddRuleAllocation failed: %v", err)
	}

	in, err := is.CreateInstance(ctx, fix.template.ID, "March")
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	fv, err := is.AddFieldValue(ctx, in.ID, fix.field.ID, decimal.RequireFromString("50.00"), "", "", models.SplitModeOverride, override.ID)
	if err != nil {
		t.Fatalf("AddFieldValue failed: %v", err)
	}

	amounts, err := alloc.ListEntryAmountsByFieldValue(ctx, fv.ID)
	if err != nil {
		t.Fatalf("ListEntryAmountsByFieldValue failed: %v", err)
	}
	if len(amounts) != 1 {
		t.Fatalf("expected 1 share from the override rule, got %d", len(amounts))
	}
	if amounts[0].ParticipantID != fix.alice.ID || !amounts[0].Amount.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("expected Alice owing 50.00, got %+v", amounts[0])
	}
}

func TestInstanceService_AddFieldValueFixedAmountsSkipsEngine(t *testing.T) {
	ts, is, alloc := setupServices(t)
	fix := setupFixture(t, ts)
	ctx := context.Background()

	in, err := is.CreateInstance(ctx, fix.template.ID, "March")
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	fv, err := is.AddFieldValue(ctx, in.ID, fix.field.ID, decimal.RequireFromString("75.00"), "", "", models.SplitModeFixedAmounts, "")
	if err != nil {
		t.Fatalf("AddFieldValue failed: %v", err)
	}

	amounts, err := alloc.ListEntryAmountsByFieldValue(ctx, fv.ID)
	if err != nil {
		t.Fatalf("ListEntryAmountsByFieldValue failed: %v", err)
	}
	if len(amounts) != 0 {
		t.Errorf("expected no automatic shares for FIXED_AMOUNTS, got %d", len(amounts))
	}
}

func TestInstanceService_AddFieldValueMissingRuleKeepsEntry(t *testing.T) {
	ts, is, alloc := setupServices(t)
	fix := setupFixture(t, ts)
	ctx := context.Background()

	// A field with no default rule.
	bare, err := ts.AddField(ctx, fix.template.ID, "Misc", models.FieldTypeAmount, "", 9)
	if err != nil {
		t.Fatalf("AddField failed: %v", err)
	}
	in, err := is.CreateInstance(ctx, fix.template.ID, "March")
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}

	fv, err := is.AddFieldValue(ctx, in.ID, bare.ID, decimal.RequireFromString("10.00"), "", "", models.SplitModeDefault, "")
	if !errors.Is(err, ErrMissingSplitRule) {
		t.Fatalf("expected ErrMissingSplitRule, got %v", err)
	}
	if fv == nil || fv.ID == "" {
		t.Fatal("expected the entry to be returned despite the error")
	}

	// The entry is persisted with zero shares.
	got, err := is.GetFieldValue(ctx, fv.ID)
	if err != nil {
		t.Fatalf("GetFieldValue failed: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("expected persisted amount 10.00, got %s", got.Amount)
	}
	amounts, err := alloc.ListEntryAmountsByFieldValue(ctx, fv.ID)
	if err != nil {
		t.Fatalf("ListEntryAmountsByFieldValue failed: %v", err)
	}
	if len(amounts) != 0 {
		t.Errorf("expected zero shares, got %d", len(amounts))
	}
}

func TestInstanceService_UpdateFieldValueDoesNotRecompute(t *testing.T) {
	ts, is, alloc := setupServices(t)
	fix := setupFixture(t, ts)
	ctx := context.Background()

	in, err := is.CreateInstance(ctx, fix.template.ID, "March")
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	fv, err := is.AddFieldValue(ctx, in.ID, fix.field.ID, decimal.RequireFromString("100.00"), "", "", models.SplitModeDefault, "")
	if err != nil {
		t.Fatalf("AddFieldValue failed: %v", err)
	}

	if _, err := is.UpdateFieldValue(ctx, fv.ID, decimal.RequireFromString("200.00"), "bigger", "", models.SplitModeDefault, ""); err != nil {
		t.Fatalf("UpdateFieldValue failed: %v", err)
	}

	// Shares still reflect the original 100.00.
	amounts, err := alloc.ListEntryAmountsByFieldValue(ctx, fv.ID)
	if err != nil {
		t.Fatalf("ListEntryAmountsByFieldValue failed: %v", err)
	}
	if len(amounts) != 2 {
		t.Fatalf("expected 2 frozen shares, got %d", len(amounts))
	}
	if got := shareFor(t, amounts, fix.alice.ID).Amount; !got.Equal(decimal.RequireFromString("60.00")) {
		t.Errorf("expected frozen share 60.00, got %s", got)
	}
}

func TestInstanceService_DoubleMaterializeAppendsRows(t *testing.T) {
	ts, is, alloc := setupServices(t)
	fix := setupFixture(t, ts)
	ctx := context.Background()

	in, err := is.CreateInstance(ctx, fix.template.ID, "March")
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	fv, err := is.AddFieldValue(ctx, in.ID, fix.field.ID, decimal.RequireFromString("100.00"), "", "", models.SplitModeDefault, "")
	if err != nil {
		t.Fatalf("AddFieldValue failed: %v", err)
	}

	if _, err := alloc.Materialize(ctx, fv); err != nil {
		t.Fatalf("second Materialize failed: %v", err)
	}

	amounts, err := alloc.ListEntryAmountsByFieldValue(ctx, fv.ID)
	if err != nil {
		t.Fatalf("ListEntryAmountsByFieldValue failed: %v", err)
	}
	if len(amounts) != 4 {
		t.Errorf("expected 4 rows after a second materialization, got %d", len(amounts))
	}
}

func TestInstanceService_ListInstancesByStatus(t *testing.T) {
	ts, is, _ := setupServices(t)
	fix := setupFixture(t, ts)
	ctx := context.Background()

	open, err := is.CreateInstance(ctx, fix.template.ID, "May")
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	done, err := is.CreateInstance(ctx, fix.template.ID, "April")
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	if _, err := is.MarkSettled(ctx, done.ID); err != nil {
		t.Fatalf("MarkSettled failed: %v", err)
	}

	got, err := is.ListInstancesByTemplateAndStatus(ctx, fix.template.ID, models.StatusInProgress)
	if err != nil {
		t.Fatalf("ListInstancesByTemplateAndStatus failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != open.ID {
		t.Errorf("expected only the open instance, got %+v", got)
	}
}

func TestInstanceService_DeleteFieldValueLeavesShares(t *testing.T) {
	ts, is, alloc := setupServices(t)
	fix := setupFixture(t, ts)
	ctx := context.Background()

	in, err := is.CreateInstance(ctx, fix.template.ID, "March")
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	fv, err := is.AddFieldValue(ctx, in.ID, fix.field.ID, decimal.RequireFromString("100.00"), "", "", models.SplitModeDefault, "")
	if err != nil {
		t.Fatalf("AddFieldValue failed: %v", err)
	}

	if err := is.DeleteFieldValue(ctx, fv.ID); err != nil {
		t.Fatalf("DeleteFieldValue failed: %v", err)
	}
	if _, err := is.GetFieldValue(ctx, fv.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected entry gone, got %v", err)
	}

	amounts, err := alloc.ListEntryAmountsByFieldValue(ctx, fv.ID)
	if err != nil {
		t.Fatalf("ListEntryAmountsByFieldValue failed: %v", err)
	}
	if len(amounts) != 2 {
		t.Errorf("expected shares kept after entry delete, got %d", len(amounts))
	}

	// Explicit cleanup removes them.
	if err := alloc.DeleteEntryAmountsByFieldValue(ctx, fv.ID); err != nil {
		t.Fatalf("DeleteEntryAmountsByFieldValue failed: %v", err)
	}
	amounts, err = alloc.ListEntryAmountsByFieldValue(ctx, fv.ID)
	if err != nil {
		t.Fatalf("ListEntryAmountsByFieldValue failed: %v", err)
	}
	if len(amounts) != 0 {
		t.Errorf("expected shares gone after explicit cleanup, got %d", len(amounts))
	}
}
