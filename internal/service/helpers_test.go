package service

import (
	"context"
	"testing"
	"time"

	"github.com/tripmate/ledger/internal/models"
	"github.com/tripmate/ledger/internal/policy"
	"github.com/tripmate/ledger/internal/storage/memory"
	"github.com/tripmate/ledger/internal/trips"
)

// fakeClock is an adjustable policy.Clock for window tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fixture wires the three services over a memory store with one seeded trip:
// creator carol, accepted participants alice and bob, pending dave.
type fixture struct {
	ctx         context.Context
	store       *memory.Store
	clock       *fakeClock
	expenses    *ExpenseService
	settlements *SettlementService
	queries     *QueryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	seedTrip(t, store, "t1", "carol")

	directory := trips.New(store)
	pol := policy.New(directory, clock)

	return &fixture{
		ctx:         ctx,
		store:       store,
		clock:       clock,
		expenses:    NewExpenseService(store, directory, pol, clock),
		settlements: NewSettlementService(store, pol, clock),
		queries:     NewQueryService(store, directory, pol),
	}
}

func seedTrip(t *testing.T, store *memory.Store, tripID, creator string) {
	t.Helper()

	err := store.UpsertTrip(context.Background(), &models.Trip{
		ID:        tripID,
		CreatorID: creator,
		Currency:  "USD",
		Participants: []models.Participant{
			{TripID: tripID, UserID: "alice", Status: models.ParticipantAccepted},
			{TripID: tripID, UserID: "bob", Status: models.ParticipantAccepted},
			{TripID: tripID, UserID: creator, Status: models.ParticipantAccepted},
			{TripID: tripID, UserID: "dave", Status: models.ParticipantPending},
			{TripID: tripID, UserID: "erin", Status: models.ParticipantDeclined},
		},
	})
	if err != nil {
		t.Fatalf("failed to seed trip: %v", err)
	}
}

// mustCreateExpense creates an equal-split expense and fails the test on
// error.
func (f *fixture) mustCreateExpense(t *testing.T, actor, payer string, participants []string, cents int64) *models.Expense {
	t.Helper()

	expense, err := f.expenses.CreateExpense(f.ctx, CreateExpenseInput{
		TripID:         "t1",
		ActorID:        actor,
		PayerID:        payer,
		ParticipantIDs: participants,
		AmountCents:    cents,
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	return expense
}

func shareOf(t *testing.T, expense *models.Expense, userID string) int64 {
	t.Helper()
	for _, s := range expense.Splits {
		if s.UserID == userID {
			return s.Share.Cents
		}
	}
	t.Fatalf("no split for %s in expense %s", userID, expense.ID)
	return 0
}

func splitSum(expense *models.Expense) int64 {
	var sum int64
	for _, s := range expense.Splits {
		sum += s.Share.Cents
	}
	return sum
}
