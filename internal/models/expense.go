package models

import (
	"time"

	"github.com/tripmate/ledger/internal/money"
)

// ExpenseType distinguishes original entries from corrections.
type ExpenseType string

const (
	// TypeExpense is a regular shared expense.
	TypeExpense ExpenseType = "EXPENSE"

	// TypeAdjustment is an independent correcting entry. It references an
	// earlier expense informationally and never mutates it.
	TypeAdjustment ExpenseType = "ADJUSTMENT"
)

// ExpenseStatus is the lifecycle state of an expense.
type ExpenseStatus string

const (
	// StatusActive means the expense counts toward balances.
	StatusActive ExpenseStatus = "ACTIVE"

	// StatusVoid means the expense was cancelled. It stays visible for audit
	// but is excluded from every balance computation.
	StatusVoid ExpenseStatus = "VOID"
)

// Expense represents a single recorded payment made by one participant on
// behalf of a group subset within a trip.
type Expense struct {
	// ID is the unique identifier (UUID format).
	ID string

	// TripID is the trip this expense belongs to.
	TripID string

	// PayerID is the participant who fronted the money.
	PayerID string

	// CreatedBy is the participant who recorded the expense. May differ from
	// the payer.
	CreatedBy string

	// Amount is the total amount of the expense, always strictly positive.
	Amount money.Money

	// Description is an optional free-form note.
	Description string

	// Type is EXPENSE or ADJUSTMENT.
	Type ExpenseType

	// Status is ACTIVE or VOID. VOID is terminal for mutation purposes.
	Status ExpenseStatus

	// Locked is set when the expense's settlement becomes PAID. A locked
	// expense can never be edited or voided again.
	Locked bool

	// AdjustsExpenseID references the corrected expense; set only when
	// Type is ADJUSTMENT. Informational link, never a mutation.
	AdjustsExpenseID string

	// CreatedAt is the authoritative creation time, taken from the server
	// clock, never from client input.
	CreatedAt time.Time

	// Version supports optimistic concurrency: every successful mutation
	// increments it, and stale writers lose with a Conflict.
	Version int64

	// Splits is the per-participant share breakdown. Invariant: the shares
	// sum exactly to Amount.
	Splits []Split
}

// Split is one participant's exact share of an expense.
type Split struct {
	ExpenseID string

	UserID string

	// Share is a non-negative amount; all shares of an expense sum exactly
	// to the expense amount.
	Share money.Money

	// Weight is the relative weight this share was computed from, or zero
	// for an equal split. Recorded so edits can recompute the same
	// proportions.
	Weight int64
}

// ParticipantIDs returns the user ids of the expense's splits in stored
// order. The order is stable: it is the caller-supplied order at creation.
func (e *Expense) ParticipantIDs() []string {
	ids := make([]string, len(e.Splits))
	for i, s := range e.Splits {
		ids[i] = s.UserID
	}
	return ids
}

// Weighted reports whether the expense's splits were computed from relative
// weights rather than an equal division.
func (e *Expense) Weighted() bool {
	for _, s := range e.Splits {
		if s.Weight > 0 {
			return true
		}
	}
	return false
}

// Eligible reports whether the expense may join a new settlement.
func (e *Expense) Eligible() bool {
	return e.Status == StatusActive && !e.Locked
}
