package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/splitbook/splitbook/internal/models"
	"github.com/splitbook/splitbook/internal/storage/sqlite"
)

// setupServices creates the three services over a temp SQLite database.
func setupServices(t *testing.T) (*TemplateService, *InstanceService, *AllocationService) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "splitbook-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	alloc := NewAllocationService(store)
	return NewTemplateService(store), NewInstanceService(store, alloc), alloc
}

// fixture is a template with two participants, a 60/40 rule and an AMOUNT
// field defaulting to that rule.
type fixture struct {
	template *models.Template
	alice    *models.TemplateParticipant
	bob      *models.TemplateParticipant
	rule     *models.SplitRule
	field    *models.TemplateField
}

func setupFixture(t *testing.T, ts *TemplateService) *fixture {
	t.Helper()
	ctx := context.Background()

	tmpl, err := ts.CreateTemplate(ctx, "user-1", "Apartment", "")
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	alice, err := ts.AddParticipant(ctx, tmpl.ID, "Alice", 1)
	if err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}
	bob, err := ts.AddParticipant(ctx, tmpl.ID, "Bob", 2)
	if err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}
	rule, err := ts.CreateSplitRule(ctx, tmpl.ID, "60/40")
	if err != nil {
		t.Fatalf("CreateSplitRule failed: %v", err)
	}
	if _, err := ts.AddRuleAllocation(ctx, rule.ID, alice.ID, decimal.RequireFromString("60")); err != nil {
		t.Fatalf("AddRuleAllocation failed: %v", err)
	}
	if _, err := ts.AddRuleAllocation(ctx, rule.ID, bob.ID, decimal.RequireFromString("40")); err != nil {
		t.Fatalf("AddRuleAllocation failed: %v", err)
	}
	field, err := ts.AddField(ctx, tmpl.ID, "Rent", models.FieldTypeAmount, rule.ID, 1)
	if err != nil {
		t.Fatalf("AddField failed: %v", err)
	}

	return &fixture{template: tmpl, alice: alice, bob: bob, rule: rule, field: field}
}

// shareFor finds the one share owed by the given participant, failing the
// test when it is absent or duplicated.
func shareFor(t *testing.T, amounts []models.ParticipantEntryAmount, participantID string) models.ParticipantEntryAmount {
	t.Helper()
	var found []models.ParticipantEntryAmount
	for _, ea := range amounts {
		if ea.ParticipantID == participantID {
			found = append(found, ea)
		}
	}
	if len(found) != 1 {
		t.Fatalf("expected exactly one share for %s, got %d", participantID, len(found))
	}
	return found[0]
}
