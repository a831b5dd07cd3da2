package models

// FieldType describes what kind of value a template field records.
type FieldType string

const (
	FieldTypeAmount FieldType = "AMOUNT"
	FieldTypeDate   FieldType = "DATE"
	FieldTypeText   FieldType = "TEXT"
)

// Template represents a reusable expense-sharing arrangement.
// It owns participants, fields and split rules; instances are stamped from it.
type Template struct {
	// ID is the unique identifier for the template (UUID format).
	ID string `json:"id"`

	// UserID references the owning user. Account management lives outside
	// this service, so this is an opaque reference.
	UserID string `json:"user_id,omitempty"`

	// Name is the display name (e.g. "Apartment 4B").
	Name string `json:"name"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// CreatedAt is the Unix timestamp when the template was created.
	CreatedAt int64 `json:"created_at"`
}

// TemplateParticipant is one person sharing costs under a template.
type TemplateParticipant struct {
	ID string `json:"id"`

	// TemplateID is the owning template.
	TemplateID string `json:"template_id"`

	Name string `json:"name"`

	// DisplayOrder defines stable iteration/UI ordering. Not required to be
	// unique; ties are broken by creation order.
	DisplayOrder int `json:"display_order"`

	CreatedAt int64 `json:"created_at"`
}

// TemplateField is one cost category defined by a template.
type TemplateField struct {
	ID string `json:"id"`

	// TemplateID is the owning template.
	TemplateID string `json:"template_id"`

	// Label is the human-readable name of the field (e.g. "Electricity").
	Label string `json:"label"`

	FieldType FieldType `json:"field_type"`

	// DefaultSplitRuleID optionally names the rule used when an entry does
	// not override the split. Empty when no default is configured.
	DefaultSplitRuleID string `json:"default_split_rule_id,omitempty"`

	// DisplayOrder defines stable iteration/UI ordering.
	DisplayOrder int `json:"display_order"`

	CreatedAt int64 `json:"created_at"`
}
