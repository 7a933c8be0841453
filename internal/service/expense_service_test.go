package service

import (
	"testing"
	"time"

	"github.com/tripmate/ledger/internal/calculator"
	"github.com/tripmate/ledger/internal/ledger"
	"github.com/tripmate/ledger/internal/models"
)

func TestCreateExpense(t *testing.T) {
	f := newFixture(t)

	expense := f.mustCreateExpense(t, "alice", "alice", []string{"alice", "bob", "carol"}, 100)

	if expense.Amount.Cents != 100 || expense.Amount.Currency != "USD" {
		t.Errorf("amount = %s, want 1.00 USD", expense.Amount)
	}
	if expense.Status != models.StatusActive || expense.Type != models.TypeExpense {
		t.Errorf("status/type = %s/%s, want ACTIVE/EXPENSE", expense.Status, expense.Type)
	}
	if expense.Version != 1 {
		t.Errorf("version = %d, want 1", expense.Version)
	}
	if sum := splitSum(expense); sum != 100 {
		t.Errorf("splits sum to %d, want 100", sum)
	}
	// Remainder cent lands on the payer.
	if got := shareOf(t, expense, "alice"); got != 34 {
		t.Errorf("payer share = %d, want 34", got)
	}

	stored, err := f.store.GetExpense(f.ctx, expense.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if len(stored.Splits) != 3 {
		t.Errorf("stored %d splits, want 3", len(stored.Splits))
	}
}

func TestCreateExpenseWeighted(t *testing.T) {
	f := newFixture(t)

	expense, err := f.expenses.CreateExpense(f.ctx, CreateExpenseInput{
		TripID:  "t1",
		ActorID: "bob",
		PayerID: "bob",
		Weights: []calculator.Weight{{UserID: "alice", Weight: 1}, {UserID: "bob", Weight: 2}},
		// floor shares 33/66, remainder to payer bob.
		AmountCents: 100,
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if got := shareOf(t, expense, "alice"); got != 33 {
		t.Errorf("alice share = %d, want 33", got)
	}
	if got := shareOf(t, expense, "bob"); got != 67 {
		t.Errorf("bob share = %d, want 67", got)
	}
}

func TestEditWeightedExpenseKeepsProportions(t *testing.T) {
	f := newFixture(t)

	created, err := f.expenses.CreateExpense(f.ctx, CreateExpenseInput{
		TripID:  "t1",
		ActorID: "alice",
		PayerID: "alice",
		Weights: []calculator.Weight{{UserID: "alice", Weight: 1}, {UserID: "bob", Weight: 2}},
		// 1:2 of 90 divides cleanly into 30/60.
		AmountCents: 90,
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	for _, s := range created.Splits {
		if s.Weight == 0 {
			t.Errorf("weight for %s not recorded", s.UserID)
		}
	}

	edited, err := f.expenses.EditExpense(f.ctx, EditExpenseInput{
		ExpenseID:   created.ID,
		ActorID:     "alice",
		AmountCents: 120,
	})
	if err != nil {
		t.Fatalf("EditExpense failed: %v", err)
	}
	if got := shareOf(t, edited, "alice"); got != 40 {
		t.Errorf("alice share after edit = %d, want 40", got)
	}
	if got := shareOf(t, edited, "bob"); got != 80 {
		t.Errorf("bob share after edit = %d, want 80", got)
	}

	// An edit that leaves the amount alone must not change the shares either.
	again, err := f.expenses.EditExpense(f.ctx, EditExpenseInput{
		ExpenseID:   created.ID,
		ActorID:     "alice",
		AmountCents: 120,
		Description: "reworded",
	})
	if err != nil {
		t.Fatalf("EditExpense failed: %v", err)
	}
	if got := shareOf(t, again, "alice"); got != 40 {
		t.Errorf("alice share after no-op edit = %d, want 40", got)
	}
	if got := shareOf(t, again, "bob"); got != 80 {
		t.Errorf("bob share after no-op edit = %d, want 80", got)
	}
}

func TestCreateExpenseRejections(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		in       CreateExpenseInput
		wantKind ledger.Kind
	}{
		{
			name: "non-participant actor",
			in: CreateExpenseInput{
				TripID: "t1", ActorID: "mallory", PayerID: "alice",
				ParticipantIDs: []string{"alice", "bob"}, AmountCents: 100,
			},
			wantKind: ledger.KindForbidden,
		},
		{
			name: "pending participant actor",
			in: CreateExpenseInput{
				TripID: "t1", ActorID: "dave", PayerID: "alice",
				ParticipantIDs: []string{"alice", "bob"}, AmountCents: 100,
			},
			wantKind: ledger.KindForbidden,
		},
		{
			name: "pending user in the split",
			in: CreateExpenseInput{
				TripID: "t1", ActorID: "alice", PayerID: "alice",
				ParticipantIDs: []string{"alice", "dave"}, AmountCents: 100,
			},
			wantKind: ledger.KindValidation,
		},
		{
			name: "declined payer",
			in: CreateExpenseInput{
				TripID: "t1", ActorID: "alice", PayerID: "erin",
				ParticipantIDs: []string{"alice", "bob"}, AmountCents: 100,
			},
			wantKind: ledger.KindValidation,
		},
		{
			name: "zero amount",
			in: CreateExpenseInput{
				TripID: "t1", ActorID: "alice", PayerID: "alice",
				ParticipantIDs: []string{"alice", "bob"}, AmountCents: 0,
			},
			wantKind: ledger.KindValidation,
		},
		{
			name: "negative amount",
			in: CreateExpenseInput{
				TripID: "t1", ActorID: "alice", PayerID: "alice",
				ParticipantIDs: []string{"alice", "bob"}, AmountCents: -50,
			},
			wantKind: ledger.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.expenses.CreateExpense(f.ctx, tt.in)
			if !ledger.IsKind(err, tt.wantKind) {
				t.Fatalf("CreateExpense error = %v, want kind %s", err, tt.wantKind)
			}
		})
	}

	// Nothing was persisted by any rejected command.
	expenses, err := f.store.ListTripExpenses(f.ctx, "t1")
	if err != nil {
		t.Fatalf("ListTripExpenses failed: %v", err)
	}
	if len(expenses) != 0 {
		t.Errorf("rejected commands persisted %d expenses", len(expenses))
	}
}

func TestEditExpenseRecomputesSplits(t *testing.T) {
	f := newFixture(t)
	created := f.mustCreateExpense(t, "alice", "alice", []string{"alice", "bob", "carol"}, 90)

	edited, err := f.expenses.EditExpense(f.ctx, EditExpenseInput{
		ExpenseID:   created.ID,
		ActorID:     "alice",
		AmountCents: 100,
		Description: "dinner, corrected",
	})
	if err != nil {
		t.Fatalf("EditExpense failed: %v", err)
	}
	if edited.Version != 2 {
		t.Errorf("version = %d, want 2", edited.Version)
	}
	if sum := splitSum(edited); sum != 100 {
		t.Errorf("splits sum to %d, want 100", sum)
	}
	if got := shareOf(t, edited, "alice"); got != 34 {
		t.Errorf("payer share after edit = %d, want 34", got)
	}
	if edited.Description != "dinner, corrected" {
		t.Errorf("description = %q", edited.Description)
	}
}

func TestEditExpensePermissions(t *testing.T) {
	f := newFixture(t)
	created := f.mustCreateExpense(t, "alice", "alice", []string{"alice", "bob"}, 100)

	// Another participant may not edit.
	_, err := f.expenses.EditExpense(f.ctx, EditExpenseInput{ExpenseID: created.ID, ActorID: "bob", AmountCents: 120})
	if !ledger.IsKind(err, ledger.KindForbidden) {
		t.Fatalf("bob's edit error = %v, want FORBIDDEN", err)
	}

	// The trip creator may edit anyone's expense.
	if _, err := f.expenses.EditExpense(f.ctx, EditExpenseInput{ExpenseID: created.ID, ActorID: "carol", AmountCents: 120}); err != nil {
		t.Fatalf("creator edit failed: %v", err)
	}
}

func TestEditVoidedExpense(t *testing.T) {
	f := newFixture(t)
	created := f.mustCreateExpense(t, "alice", "alice", []string{"alice", "bob"}, 100)
	if _, err := f.expenses.VoidExpense(f.ctx, created.ID, "alice"); err != nil {
		t.Fatalf("VoidExpense failed: %v", err)
	}

	// NotEditable beats any role, including the creator's override.
	for _, actor := range []string{"alice", "carol"} {
		_, err := f.expenses.EditExpense(f.ctx, EditExpenseInput{ExpenseID: created.ID, ActorID: actor, AmountCents: 120})
		if !ledger.IsKind(err, ledger.KindNotEditable) {
			t.Errorf("edit of voided expense by %s = %v, want NOT_EDITABLE", actor, err)
		}
	}
}

func TestVoidExpense(t *testing.T) {
	f := newFixture(t)
	created := f.mustCreateExpense(t, "alice", "alice", []string{"alice", "bob"}, 100)

	voided, err := f.expenses.VoidExpense(f.ctx, created.ID, "alice")
	if err != nil {
		t.Fatalf("VoidExpense failed: %v", err)
	}
	if voided.Status != models.StatusVoid {
		t.Errorf("status = %s, want VOID", voided.Status)
	}
	// Splits stay on record for audit.
	if len(voided.Splits) != 2 {
		t.Errorf("voided expense kept %d splits, want 2", len(voided.Splits))
	}

	// A second void reports NotVoidable.
	if _, err := f.expenses.VoidExpense(f.ctx, created.ID, "carol"); !ledger.IsKind(err, ledger.KindNotVoidable) {
		t.Errorf("double void = %v, want NOT_VOIDABLE", err)
	}
}

func TestVoidWindowExpiry(t *testing.T) {
	f := newFixture(t)
	created := f.mustCreateExpense(t, "alice", "alice", []string{"alice", "bob"}, 100)

	f.clock.Advance(20 * time.Minute)

	// The author's window has closed.
	if _, err := f.expenses.VoidExpense(f.ctx, created.ID, "alice"); !ledger.IsKind(err, ledger.KindForbidden) {
		t.Fatalf("late self-void = %v, want FORBIDDEN", err)
	}

	// The creator can still void it.
	f.clock.Advance(time.Hour)
	if _, err := f.expenses.VoidExpense(f.ctx, created.ID, "carol"); err != nil {
		t.Fatalf("creator void failed: %v", err)
	}
}

func TestLockedExpenseIsImmutable(t *testing.T) {
	f := newFixture(t)
	created := f.mustCreateExpense(t, "alice", "alice", []string{"alice", "bob"}, 100)

	settlement, err := f.settlements.CreateSettlement(f.ctx, []string{created.ID}, "carol")
	if err != nil {
		t.Fatalf("CreateSettlement failed: %v", err)
	}
	if _, err := f.settlements.MarkPaid(f.ctx, settlement.ID, "carol"); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}

	_, err = f.expenses.EditExpense(f.ctx, EditExpenseInput{ExpenseID: created.ID, ActorID: "carol", AmountCents: 120})
	if !ledger.IsKind(err, ledger.KindNotEditable) {
		t.Errorf("edit of locked expense = %v, want NOT_EDITABLE", err)
	}
	_, err = f.expenses.VoidExpense(f.ctx, created.ID, "carol")
	if !ledger.IsKind(err, ledger.KindNotVoidable) {
		t.Errorf("void of locked expense = %v, want NOT_VOIDABLE", err)
	}
}

func TestCreateAdjustment(t *testing.T) {
	f := newFixture(t)
	original := f.mustCreateExpense(t, "alice", "alice", []string{"alice", "bob"}, 100)

	// Lock the original through a paid settlement; adjustments must still be
	// possible against it.
	settlement, err := f.settlements.CreateSettlement(f.ctx, []string{original.ID}, "carol")
	if err != nil {
		t.Fatalf("CreateSettlement failed: %v", err)
	}
	if _, err := f.settlements.MarkPaid(f.ctx, settlement.ID, "carol"); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}

	adj, err := f.expenses.CreateAdjustment(f.ctx, CreateAdjustmentInput{
		OriginalExpenseID: original.ID,
		ActorID:           "bob",
		PayerID:           "bob",
		ParticipantIDs:    []string{"alice", "bob"},
		AmountCents:       20,
		Description:       "forgot the tip",
	})
	if err != nil {
		t.Fatalf("CreateAdjustment failed: %v", err)
	}
	if adj.Type != models.TypeAdjustment {
		t.Errorf("type = %s, want ADJUSTMENT", adj.Type)
	}
	if adj.AdjustsExpenseID != original.ID {
		t.Errorf("adjusts = %s, want %s", adj.AdjustsExpenseID, original.ID)
	}

	// The original is untouched by the adjustment.
	stored, err := f.store.GetExpense(f.ctx, original.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if stored.Amount.Cents != 100 || !stored.Locked {
		t.Errorf("original changed: amount %d locked %v", stored.Amount.Cents, stored.Locked)
	}
}

func TestCreateAdjustmentAgainstVoidedExpense(t *testing.T) {
	f := newFixture(t)
	original := f.mustCreateExpense(t, "alice", "alice", []string{"alice", "bob"}, 100)
	if _, err := f.expenses.VoidExpense(f.ctx, original.ID, "alice"); err != nil {
		t.Fatalf("VoidExpense failed: %v", err)
	}

	adj, err := f.expenses.CreateAdjustment(f.ctx, CreateAdjustmentInput{
		OriginalExpenseID: original.ID,
		ActorID:           "alice",
		PayerID:           "alice",
		ParticipantIDs:    []string{"alice", "bob"},
		AmountCents:       50,
	})
	if err != nil {
		t.Fatalf("CreateAdjustment against voided original failed: %v", err)
	}
	if adj.Status != models.StatusActive {
		t.Errorf("adjustment status = %s, want ACTIVE", adj.Status)
	}
}

func TestCreateAdjustmentUnknownOriginal(t *testing.T) {
	f := newFixture(t)
	_, err := f.expenses.CreateAdjustment(f.ctx, CreateAdjustmentInput{
		OriginalExpenseID: "nope",
		ActorID:           "alice",
		PayerID:           "alice",
		ParticipantIDs:    []string{"alice"},
		AmountCents:       50,
	})
	if !ledger.IsKind(err, ledger.KindNotFound) {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}
}
