package models

import "github.com/shopspring/decimal"

// SplitMode selects how a field value's cost is divided.
type SplitMode string

const (
	// SplitModeDefault divides the cost by the field's default split rule.
	SplitModeDefault SplitMode = "DEFAULT"

	// SplitModeFixedAmounts disables automatic allocation; per-participant
	// amounts are entered manually.
	SplitModeFixedAmounts SplitMode = "FIXED_AMOUNTS"

	// SplitModeOverride divides the cost by an explicitly referenced rule
	// instead of the field's default.
	SplitModeOverride SplitMode = "OVERRIDE"
)

// InstanceFieldValue is one cost line item recorded against an instance.
type InstanceFieldValue struct {
	ID string `json:"id"`

	// InstanceID is the owning instance.
	InstanceID string `json:"instance_id"`

	// FieldID is the template field this entry fills in.
	FieldID string `json:"field_id"`

	Amount decimal.Decimal `json:"amount"`

	// Note is optional free text.
	Note string `json:"note,omitempty"`

	// EntryDate is an optional date for the expense, formatted YYYY-MM-DD.
	// Empty when not provided.
	EntryDate string `json:"entry_date,omitempty"`

	SplitMode SplitMode `json:"split_mode"`

	// OverrideSplitRuleID references the rule used instead of the field's
	// default. Only meaningful when SplitMode selects an explicit rule.
	OverrideSplitRuleID string `json:"override_split_rule_id,omitempty"`

	CreatedAt int64 `json:"created_at"`
}
