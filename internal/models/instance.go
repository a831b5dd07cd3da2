package models

// InstanceStatus is the lifecycle state of a template instance.
//
// SETTLED is terminal only in the domain sense: Reopen moves any instance
// back to IN_PROGRESS, so there is no true terminal state.
type InstanceStatus string

const (
	StatusInProgress InstanceStatus = "IN_PROGRESS"
	StatusSettled    InstanceStatus = "SETTLED"
)

// TemplateInstance is one concrete occurrence of a template, typically a
// billing period ("March rent").
type TemplateInstance struct {
	ID string `json:"id"`

	// TemplateID is the template this instance was stamped from.
	TemplateID string `json:"template_id"`

	Name string `json:"name"`

	Status InstanceStatus `json:"status"`

	// CreatedAt is set once on creation and never updated.
	CreatedAt int64 `json:"created_at"`
}
