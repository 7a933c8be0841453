// Package money provides an exact, integer-cent representation of monetary
// amounts. All arithmetic is integer-only; there is no floating point anywhere
// in the ledger's math.
package money

import (
	"fmt"
	"strings"

	"github.com/tripmate/ledger/internal/ledger"
)

// Money is an amount in the smallest unit of its currency (cents, pence, ...).
// The currency tag is inherited from the trip; the ledger never mixes
// currencies within a trip.
type Money struct {
	Cents    int64  `json:"cents"`
	Currency string `json:"currency"`
}

// New builds a Money value, rejecting negative amounts. Expense amounts must
// additionally be strictly positive; callers enforce that via IsPositive.
func New(cents int64, currency string) (Money, error) {
	if cents < 0 {
		return Money{}, ledger.Validationf("amount must not be negative, got %d", cents)
	}
	if currency == "" {
		return Money{}, ledger.Validationf("currency is required")
	}
	return Money{Cents: cents, Currency: strings.ToUpper(currency)}, nil
}

// MustNew is New for statically known amounts; it panics on invalid input.
func MustNew(cents int64, currency string) Money {
	m, err := New(cents, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Cents: 0, Currency: strings.ToUpper(currency)}
}

// Add returns m + other. Panics if the currencies differ; that is a
// programming error, not a user-facing condition.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Cents: m.Cents + other.Cents, Currency: m.Currency}
}

// Sub returns m - other. Panics if the currencies differ.
func (m Money) Sub(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Cents: m.Cents - other.Cents, Currency: m.Currency}
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents, Currency: m.Currency}
}

// Divmod divides the amount by n and returns the integer quotient and the
// remainder, both in the same currency. The remainder is always non-negative
// and strictly smaller than n for non-negative amounts. Panics if n <= 0.
func (m Money) Divmod(n int64) (quotient, remainder Money) {
	if n <= 0 {
		panic(fmt.Sprintf("money: divmod by non-positive %d", n))
	}
	q := m.Cents / n
	r := m.Cents - q*n
	return Money{Cents: q, Currency: m.Currency}, Money{Cents: r, Currency: m.Currency}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Cents == 0 }

// IsPositive reports whether the amount is strictly positive.
func (m Money) IsPositive() bool { return m.Cents > 0 }

// IsNegative reports whether the amount is strictly negative.
func (m Money) IsNegative() bool { return m.Cents < 0 }

// Equal reports whether both amount and currency match.
func (m Money) Equal(other Money) bool {
	return m.Cents == other.Cents && m.Currency == other.Currency
}

// Cmp compares two amounts of the same currency: -1 if m < other, 0 if equal,
// +1 if m > other. Panics if the currencies differ.
func (m Money) Cmp(other Money) int {
	m.assertSameCurrency(other)
	switch {
	case m.Cents < other.Cents:
		return -1
	case m.Cents > other.Cents:
		return 1
	default:
		return 0
	}
}

// String formats the amount with two decimal places, e.g. "12.34 USD".
func (m Money) String() string {
	sign := ""
	cents := m.Cents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, m.Currency)
}

func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch %q vs %q", m.Currency, other.Currency))
	}
}
