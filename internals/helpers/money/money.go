package money

import "github.com/shopspring/decimal"

/* =========================================================
   Money helpers — all ledger amounts are IDR with 2 decimal
   places (numeric(18,2) in Postgres).
========================================================= */

var Zero = decimal.Zero

// Round2 normalizes an amount to ledger precision.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MulRate applies a fractional rate (e.g. 0.05) to a base amount and rounds
// to ledger precision. Used for commission and late-payment penalties.
func MulRate(base decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	return Round2(base.Mul(rate))
}

// IsPositive reports amount > 0.
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero)
}

// IsNegative reports amount < 0.
func IsNegative(d decimal.Decimal) bool {
	return d.LessThan(decimal.Zero)
}

// FromInt builds a ledger amount from a whole-rupiah value.
func FromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
