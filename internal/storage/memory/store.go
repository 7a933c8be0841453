// Package memory provides an in-memory implementation of storage.Store,
// used by service tests and local development. The single mutex gives the
// same atomicity guarantees the transactional backends provide.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tripmate/ledger/internal/ledger"
	"github.com/tripmate/ledger/internal/models"
	"github.com/tripmate/ledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store holds everything in maps guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex

	expenses    map[string]*models.Expense
	settlements map[string]*models.Settlement
	trips       map[string]*models.Trip
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		expenses:    make(map[string]*models.Expense),
		settlements: make(map[string]*models.Settlement),
		trips:       make(map[string]*models.Trip),
	}
}

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

func (s *Store) CreateExpense(_ context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expenses[expense.ID]; exists {
		return ledger.Conflictf("expense %s already exists", expense.ID)
	}
	s.expenses[expense.ID] = cloneExpense(expense)
	return nil
}

func (s *Store) GetExpense(_ context.Context, expenseID string) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getExpenseLocked(expenseID)
}

func (s *Store) GetExpenses(_ context.Context, expenseIDs []string) ([]models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]models.Expense, 0, len(expenseIDs))
	for _, id := range expenseIDs {
		e, err := s.getExpenseLocked(id)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, nil
}

func (s *Store) UpdateExpense(_ context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.expenses[expense.ID]
	if !ok {
		return ledger.NotFoundf("expense %s not found", expense.ID)
	}
	if stored.Version != expense.Version {
		return ledger.Conflictf("expense %s was modified concurrently", expense.ID)
	}

	updated := cloneExpense(expense)
	updated.Version++
	s.expenses[expense.ID] = updated
	expense.Version++
	return nil
}

func (s *Store) ListTripExpenses(_ context.Context, tripID string) ([]models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expenses []models.Expense
	for _, e := range s.expenses {
		if e.TripID == tripID {
			expenses = append(expenses, *cloneExpense(e))
		}
	}
	sort.Slice(expenses, func(i, j int) bool {
		if expenses[i].CreatedAt.Equal(expenses[j].CreatedAt) {
			return expenses[i].ID > expenses[j].ID
		}
		return expenses[i].CreatedAt.After(expenses[j].CreatedAt)
	})
	return expenses, nil
}

func (s *Store) CreateSettlement(_ context.Context, settlement *models.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Eligibility re-check under the same lock the mutation takes; mirrors
	// the in-transaction check of the SQL backends.
	for _, expenseID := range settlement.ExpenseIDs {
		e, ok := s.expenses[expenseID]
		if !ok {
			return ledger.NotFoundf("expense %s not found", expenseID)
		}
		if !e.Eligible() {
			return ledger.Ineligiblef("expense %s is not eligible for settlement", expenseID)
		}
	}

	if _, exists := s.settlements[settlement.ID]; exists {
		return ledger.Conflictf("settlement %s already exists", settlement.ID)
	}
	s.settlements[settlement.ID] = cloneSettlement(settlement)
	return nil
}

func (s *Store) GetSettlement(_ context.Context, settlementID string) (*models.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.settlements[settlementID]
	if !ok {
		return nil, ledger.NotFoundf("settlement %s not found", settlementID)
	}
	return cloneSettlement(st), nil
}

func (s *Store) MarkSettlementPaid(_ context.Context, settlementID string, paidAt time.Time) (*models.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.settlements[settlementID]
	if !ok {
		return nil, ledger.NotFoundf("settlement %s not found", settlementID)
	}
	if st.Status == models.SettlementPaid {
		return nil, ledger.AlreadyPaidf("settlement %s is already paid", settlementID)
	}

	st.Status = models.SettlementPaid
	t := paidAt
	st.PaidAt = &t
	for _, expenseID := range st.ExpenseIDs {
		if e, ok := s.expenses[expenseID]; ok {
			e.Locked = true
			e.Version++
		}
	}
	return cloneSettlement(st), nil
}

func (s *Store) ListTripSettlements(_ context.Context, tripID string) ([]models.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var settlements []models.Settlement
	for _, st := range s.settlements {
		if st.TripID == tripID {
			settlements = append(settlements, *cloneSettlement(st))
		}
	}
	sort.Slice(settlements, func(i, j int) bool {
		if settlements[i].CreatedAt.Equal(settlements[j].CreatedAt) {
			return settlements[i].ID > settlements[j].ID
		}
		return settlements[i].CreatedAt.After(settlements[j].CreatedAt)
	})
	return settlements, nil
}

func (s *Store) UpsertTrip(_ context.Context, trip *models.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips[trip.ID] = cloneTrip(trip)
	return nil
}

func (s *Store) GetTrip(_ context.Context, tripID string) (*models.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trip, ok := s.trips[tripID]
	if !ok {
		return nil, ledger.NotFoundf("trip %s not found", tripID)
	}
	return cloneTrip(trip), nil
}

func (s *Store) getExpenseLocked(expenseID string) (*models.Expense, error) {
	e, ok := s.expenses[expenseID]
	if !ok {
		return nil, ledger.NotFoundf("expense %s not found", expenseID)
	}
	return cloneExpense(e), nil
}

// Clones keep callers from mutating shared state outside the lock.

func cloneExpense(e *models.Expense) *models.Expense {
	out := *e
	out.Splits = append([]models.Split(nil), e.Splits...)
	return &out
}

func cloneSettlement(st *models.Settlement) *models.Settlement {
	out := *st
	out.ExpenseIDs = append([]string(nil), st.ExpenseIDs...)
	if st.PaidAt != nil {
		t := *st.PaidAt
		out.PaidAt = &t
	}
	return &out
}

func cloneTrip(trip *models.Trip) *models.Trip {
	out := *trip
	out.Participants = append([]models.Participant(nil), trip.Participants...)
	return &out
}
