package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrMissingSplitRule is returned by the allocation engine when a field
// value has neither an override rule nor a field default. The field value
// itself stays persisted; only the materialization step fails, with zero
// allocation rows created. Callers test with errors.Is.
var ErrMissingSplitRule = errors.New("no split rule defined")

// ValidationError reports a failed opt-in consistency check, currently only
// the split rule percent total.
type ValidationError struct {
	RuleID string
	Total  decimal.Decimal
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("split rule %s allocations total %s%%, want 100", e.RuleID, e.Total)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
