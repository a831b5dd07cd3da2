// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/splitbook/splitbook/internal/models"
)

// ErrNotFound is returned when an entity ID does not resolve. Implementations
// wrap it with entity context; callers test with errors.Is.
var ErrNotFound = errors.New("not found")

// Store defines the persistence boundary for all Splitbook entities.
// Every query is either keyed by ID or filtered by a single foreign key;
// the service layer never needs ad hoc query shapes beyond these.
//
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
type Store interface {
	// Templates.
	CreateTemplate(ctx context.Context, t *models.Template) error
	GetTemplate(ctx context.Context, id string) (*models.Template, error)
	UpdateTemplate(ctx context.Context, t *models.Template) error
	// DeleteTemplate removes the template and, in the same transaction, every
	// dependent row: participants, fields, split rules and their allocations,
	// instances, field values and entry amounts.
	DeleteTemplate(ctx context.Context, id string) error
	ListTemplates(ctx context.Context) ([]models.Template, error)
	ListTemplatesByUser(ctx context.Context, userID string) ([]models.Template, error)

	// Participants.
	CreateParticipant(ctx context.Context, p *models.TemplateParticipant) error
	GetParticipant(ctx context.Context, id string) (*models.TemplateParticipant, error)
	// DeleteParticipant also removes the participant's split rule allocations
	// and entry amounts.
	DeleteParticipant(ctx context.Context, id string) error
	// ListParticipantsByTemplate orders by display_order, ties broken by
	// creation order.
	ListParticipantsByTemplate(ctx context.Context, templateID string) ([]models.TemplateParticipant, error)

	// Fields.
	CreateField(ctx context.Context, f *models.TemplateField) error
	GetField(ctx context.Context, id string) (*models.TemplateField, error)
	DeleteField(ctx context.Context, id string) error
	// ListFieldsByTemplate orders by display_order, ties broken by creation order.
	ListFieldsByTemplate(ctx context.Context, templateID string) ([]models.TemplateField, error)

	// Split rules.
	CreateSplitRule(ctx context.Context, r *models.SplitRule) error
	GetSplitRule(ctx context.Context, id string) (*models.SplitRule, error)
	// DeleteSplitRule removes the rule's allocations and clears any field
	// default or entry override that references it.
	DeleteSplitRule(ctx context.Context, id string) error
	ListSplitRulesByTemplate(ctx context.Context, templateID string) ([]models.SplitRule, error)

	// Split rule allocations.
	CreateRuleAllocation(ctx context.Context, a *models.SplitRuleAllocation) error
	GetRuleAllocation(ctx context.Context, id string) (*models.SplitRuleAllocation, error)
	DeleteRuleAllocation(ctx context.Context, id string) error
	ListRuleAllocationsByRule(ctx context.Context, ruleID string) ([]models.SplitRuleAllocation, error)

	// Instances.
	CreateInstance(ctx context.Context, in *models.TemplateInstance) error
	GetInstance(ctx context.Context, id string) (*models.TemplateInstance, error)
	// UpdateInstance persists name and status; CreatedAt is never touched.
	UpdateInstance(ctx context.Context, in *models.TemplateInstance) error
	// DeleteInstance removes the instance, its field values and their entry
	// amounts.
	DeleteInstance(ctx context.Context, id string) error
	ListInstances(ctx context.Context) ([]models.TemplateInstance, error)
	ListInstancesByTemplate(ctx context.Context, templateID string) ([]models.TemplateInstance, error)
	ListInstancesByTemplateAndStatus(ctx context.Context, templateID string, status models.InstanceStatus) ([]models.TemplateInstance, error)

	// Field values.
	CreateFieldValue(ctx context.Context, fv *models.InstanceFieldValue) error
	GetFieldValue(ctx context.Context, id string) (*models.InstanceFieldValue, error)
	UpdateFieldValue(ctx context.Context, fv *models.InstanceFieldValue) error
	// DeleteFieldValue removes only the field value row. Dependent entry
	// amounts are the caller's concern; see DeleteEntryAmountsByFieldValue.
	DeleteFieldValue(ctx context.Context, id string) error
	ListFieldValuesByInstance(ctx context.Context, instanceID string) ([]models.InstanceFieldValue, error)
	ListFieldValuesByInstanceAndField(ctx context.Context, instanceID, fieldID string) ([]models.InstanceFieldValue, error)

	// Entry amounts (materialized or manual allocations).
	CreateEntryAmount(ctx context.Context, ea *models.ParticipantEntryAmount) error
	// CreateEntryAmounts persists a batch in one transaction: either every
	// share lands or none do.
	CreateEntryAmounts(ctx context.Context, eas []*models.ParticipantEntryAmount) error
	GetEntryAmount(ctx context.Context, id string) (*models.ParticipantEntryAmount, error)
	UpdateEntryAmount(ctx context.Context, ea *models.ParticipantEntryAmount) error
	DeleteEntryAmount(ctx context.Context, id string) error
	ListEntryAmounts(ctx context.Context) ([]models.ParticipantEntryAmount, error)
	ListEntryAmountsByFieldValue(ctx context.Context, fieldValueID string) ([]models.ParticipantEntryAmount, error)
	ListEntryAmountsByParticipant(ctx context.Context, participantID string) ([]models.ParticipantEntryAmount, error)
	DeleteEntryAmountsByFieldValue(ctx context.Context, fieldValueID string) error
	DeleteEntryAmountsByParticipant(ctx context.Context, participantID string) error

	// Close releases any resources held by the store.
	Close() error
}
