package models

import "github.com/shopspring/decimal"

// ParticipantEntryAmount is one participant's share of a field value's
// amount. Rows are produced by the allocation engine when an entry is
// created, or entered manually for FIXED_AMOUNTS entries.
type ParticipantEntryAmount struct {
	ID string `json:"id"`

	// FieldValueID is the entry this share belongs to.
	FieldValueID string `json:"field_value_id"`

	// ParticipantID is who owes this share.
	ParticipantID string `json:"participant_id"`

	Amount decimal.Decimal `json:"amount"`

	CreatedAt int64 `json:"created_at"`
}
