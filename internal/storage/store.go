// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"time"

	"github.com/tripmate/ledger/internal/models"
)

// Store defines the persistence contract of the ledger. Implementations must
// honor the transactional guarantees spelled out per method; the service
// layer relies on them instead of duplicating locking logic.
//
// Backends: sqlite (default), postgres, memory (tests/dev).
type Store interface {
	// CreateExpense persists an expense and all of its splits as one atomic
	// unit. The caller supplies ID, CreatedAt, and Version.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense with its splits, or KindNotFound.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense replaces the expense row and its splits atomically,
	// guarded by an optimistic version check: the write only applies when
	// the stored Version matches expense.Version, and increments it.
	// A lost race surfaces as KindConflict.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// ListTripExpenses returns all of a trip's expenses (ACTIVE and VOID)
	// with splits, newest first.
	ListTripExpenses(ctx context.Context, tripID string) ([]models.Expense, error)

	// GetExpenses retrieves the given expenses with splits. Any missing id
	// is KindNotFound.
	GetExpenses(ctx context.Context, expenseIDs []string) ([]models.Expense, error)

	// CreateSettlement persists a PENDING settlement. Inside the same
	// transaction it re-checks that every member expense is still ACTIVE
	// and unlocked; any ineligible member aborts the whole call with
	// KindIneligibleExpense and nothing is persisted.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// GetSettlement retrieves a settlement, or KindNotFound.
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// MarkSettlementPaid flips the settlement to PAID, records paidAt, and
	// locks every member expense, all in one transaction. Partial locking
	// must never be observable. A settlement already PAID surfaces as
	// KindAlreadyPaid and changes nothing.
	MarkSettlementPaid(ctx context.Context, settlementID string, paidAt time.Time) (*models.Settlement, error)

	// ListTripSettlements returns a trip's settlements, newest first.
	ListTripSettlements(ctx context.Context, tripID string) ([]models.Settlement, error)

	// UpsertTrip replaces the trip read model (creator, currency,
	// participants) fed by the external trip service.
	UpsertTrip(ctx context.Context, trip *models.Trip) error

	// GetTrip retrieves the trip read model, or KindNotFound.
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)

	// Close releases any resources held by the store.
	Close() error
}
