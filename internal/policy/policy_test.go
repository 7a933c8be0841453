package policy

import (
	"context"
	"testing"
	"time"

	"github.com/tripmate/ledger/internal/ledger"
	"github.com/tripmate/ledger/internal/models"
)

// fakeDirectory is an in-memory TripDirectory for policy tests.
type fakeDirectory struct {
	creator  string
	accepted map[string]bool
}

func (d *fakeDirectory) IsAcceptedParticipant(_ context.Context, _, userID string) (bool, error) {
	return d.accepted[userID] || userID == d.creator, nil
}

func (d *fakeDirectory) IsCreator(_ context.Context, _, userID string) (bool, error) {
	return userID == d.creator, nil
}

// fakeClock returns a fixed instant.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestAuthorize(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{
		creator:  "carol",
		accepted: map[string]bool{"alice": true, "bob": true},
	}

	ownExpense := func(author string, age time.Duration) *models.Expense {
		return &models.Expense{ID: "e1", TripID: "t1", CreatedBy: author, CreatedAt: base.Add(-age)}
	}

	tests := []struct {
		name    string
		req     Request
		allowed bool
	}{
		{
			name:    "accepted participant may view",
			req:     Request{Action: ActionViewLedger, ActorID: "alice", TripID: "t1"},
			allowed: true,
		},
		{
			name:    "outsider may not view",
			req:     Request{Action: ActionViewLedger, ActorID: "mallory", TripID: "t1"},
			allowed: false,
		},
		{
			name:    "pending participant may not create",
			req:     Request{Action: ActionCreateExpense, ActorID: "dave", TripID: "t1"},
			allowed: false,
		},
		{
			name:    "author edits own expense",
			req:     Request{Action: ActionEditExpense, ActorID: "alice", TripID: "t1", Expense: ownExpense("alice", time.Hour)},
			allowed: true,
		},
		{
			name:    "other participant may not edit",
			req:     Request{Action: ActionEditExpense, ActorID: "bob", TripID: "t1", Expense: ownExpense("alice", time.Hour)},
			allowed: false,
		},
		{
			name:    "creator edits anyone's expense",
			req:     Request{Action: ActionEditExpense, ActorID: "carol", TripID: "t1", Expense: ownExpense("alice", time.Hour)},
			allowed: true,
		},
		{
			name:    "author voids own expense inside window",
			req:     Request{Action: ActionVoidExpense, ActorID: "alice", TripID: "t1", Expense: ownExpense("alice", 10*time.Minute)},
			allowed: true,
		},
		{
			name:    "author voids own expense at exactly the window edge",
			req:     Request{Action: ActionVoidExpense, ActorID: "alice", TripID: "t1", Expense: ownExpense("alice", DefaultVoidWindow)},
			allowed: true,
		},
		{
			name:    "author may not void own expense after 20 minutes",
			req:     Request{Action: ActionVoidExpense, ActorID: "alice", TripID: "t1", Expense: ownExpense("alice", 20*time.Minute)},
			allowed: false,
		},
		{
			name:    "creator voids another user's expense an hour later",
			req:     Request{Action: ActionVoidExpense, ActorID: "carol", TripID: "t1", Expense: ownExpense("alice", time.Hour)},
			allowed: true,
		},
		{
			name:    "creator voids own old expense via override",
			req:     Request{Action: ActionVoidExpense, ActorID: "carol", TripID: "t1", Expense: ownExpense("carol", time.Hour)},
			allowed: true,
		},
		{
			name:    "only creator marks settlements paid",
			req:     Request{Action: ActionMarkPaid, ActorID: "alice", TripID: "t1"},
			allowed: false,
		},
		{
			name:    "creator marks settlements paid",
			req:     Request{Action: ActionMarkPaid, ActorID: "carol", TripID: "t1"},
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pol := New(dir, &fakeClock{now: base})
			err := pol.Authorize(context.Background(), tt.req)
			if tt.allowed && err != nil {
				t.Fatalf("Authorize denied: %v", err)
			}
			if !tt.allowed {
				if err == nil {
					t.Fatal("Authorize allowed, want Forbidden")
				}
				if !ledger.IsKind(err, ledger.KindForbidden) {
					t.Fatalf("error kind = %s, want FORBIDDEN", ledger.KindOf(err))
				}
			}
		})
	}
}

func TestVoidWindowOverride(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{creator: "carol", accepted: map[string]bool{"alice": true}}
	pol := New(dir, &fakeClock{now: base}).WithVoidWindow(time.Hour)

	expense := &models.Expense{ID: "e1", TripID: "t1", CreatedBy: "alice", CreatedAt: base.Add(-30 * time.Minute)}
	err := pol.Authorize(context.Background(), Request{
		Action: ActionVoidExpense, ActorID: "alice", TripID: "t1", Expense: expense,
	})
	if err != nil {
		t.Fatalf("void within extended window denied: %v", err)
	}
}
