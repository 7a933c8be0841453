package models

import "time"

// SettlementStatus is the lifecycle state of a settlement.
type SettlementStatus string

const (
	// SettlementPending means the settlement awaits payment confirmation.
	SettlementPending SettlementStatus = "PENDING"

	// SettlementPaid is terminal. Reaching it locks every member expense
	// atomically with the status change.
	SettlementPaid SettlementStatus = "PAID"
)

// Settlement bundles a set of eligible expenses for reconciliation.
type Settlement struct {
	// ID is the unique identifier (UUID format).
	ID string

	// TripID is the trip all member expenses belong to.
	TripID string

	// ExpenseIDs are the member expenses, non-empty. Every member was
	// ACTIVE and unlocked at the moment of creation.
	ExpenseIDs []string

	// Status is PENDING or PAID; the transition is monotonic.
	Status SettlementStatus

	// CreatedBy is the participant who created the settlement.
	CreatedBy string

	// CreatedAt is the server-clock creation time.
	CreatedAt time.Time

	// PaidAt is set only when the settlement transitions to PAID.
	PaidAt *time.Time
}
