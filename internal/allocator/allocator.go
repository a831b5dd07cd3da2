// Package allocator computes per-participant shares of a cost from a split
// rule's percentage allocations. It is pure computation; persistence lives
// in the service layer.
package allocator

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// RuleAllocation is one (participant, percent) pair of a split rule.
type RuleAllocation struct {
	ParticipantID string
	Percent       decimal.Decimal
}

// Share is one participant's computed share of an amount.
type Share struct {
	ParticipantID string
	Amount        decimal.Decimal
}

// Shares computes amount × percent / 100 for each allocation, rounded to two
// decimal places half-up (ties round away from zero).
//
// Each entry rounds independently and no remainder is redistributed, so the
// sum of shares can drift from amount by up to 0.01 per participant when the
// percentages do not divide evenly (100/3 being the classic case). That
// drift is a documented property of the engine, not an error.
//
// The result has exactly one share per allocation entry, in input order; an
// empty allocation list yields no shares.
func Shares(amount decimal.Decimal, allocs []RuleAllocation) []Share {
	shares := make([]Share, len(allocs))
	for i, a := range allocs {
		shares[i] = Share{
			ParticipantID: a.ParticipantID,
			Amount:        amount.Mul(a.Percent).Div(hundred).Round(2),
		}
	}
	return shares
}

// Sum adds up the share amounts, starting from zero.
func Sum(shares []Share) decimal.Decimal {
	total := decimal.Zero
	for _, sh := range shares {
		total = total.Add(sh.Amount)
	}
	return total
}

// RuleTotal adds up the percent values of a rule's allocations. A complete
// rule totals exactly 100.00, but incomplete rules are legal; callers decide
// whether to check.
func RuleTotal(allocs []RuleAllocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.Percent)
	}
	return total
}
