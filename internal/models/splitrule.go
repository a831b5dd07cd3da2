package models

import "github.com/shopspring/decimal"

// SplitRule is a named percentage split owned by a template.
//
// A rule's allocations should cover 100.00% of a cost, but that is not
// enforced at write time: rules may be built up incrementally or left
// incomplete. Use the explicit validation on the template service when the
// caller wants the total checked.
type SplitRule struct {
	ID string `json:"id"`

	// TemplateID is the owning template.
	TemplateID string `json:"template_id"`

	Name string `json:"name"`

	CreatedAt int64 `json:"created_at"`
}

// SplitRuleAllocation pairs one participant with their percentage share
// under a split rule. Percent carries two decimal digits (0-100).
type SplitRuleAllocation struct {
	ID string `json:"id"`

	// SplitRuleID is the owning rule.
	SplitRuleID string `json:"split_rule_id"`

	// ParticipantID references a TemplateParticipant of the same template.
	ParticipantID string `json:"participant_id"`

	Percent decimal.Decimal `json:"percent"`

	CreatedAt int64 `json:"created_at"`
}
