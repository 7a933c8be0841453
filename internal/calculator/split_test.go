package calculator

import (
	"testing"

	"github.com/tripmate/ledger/internal/ledger"
	"github.com/tripmate/ledger/internal/money"
)

func usd(cents int64) money.Money {
	return money.Money{Cents: cents, Currency: "USD"}
}

func TestEqualSplit(t *testing.T) {
	tests := []struct {
		name         string
		amount       money.Money
		payerID      string
		participants []string
		policy       RemainderPolicy
		wantErr      ledger.Kind
		wantShares   map[string]int64
	}{
		{
			name:         "remainder goes to payer",
			amount:       usd(100),
			payerID:      "A",
			participants: []string{"A", "B", "C"},
			policy:       RemainderToPayer,
			wantShares:   map[string]int64{"A": 34, "B": 33, "C": 33},
		},
		{
			name:         "payer not a participant falls back to first",
			amount:       usd(100),
			payerID:      "X",
			participants: []string{"P1", "P2", "P3"},
			policy:       RemainderToPayer,
			wantShares:   map[string]int64{"P1": 34, "P2": 33, "P3": 33},
		},
		{
			name:         "remainder-to-first ignores the payer",
			amount:       usd(100),
			payerID:      "C",
			participants: []string{"A", "B", "C"},
			policy:       RemainderToFirst,
			wantShares:   map[string]int64{"A": 34, "B": 33, "C": 33},
		},
		{
			name:         "exact division leaves no remainder anywhere",
			amount:       usd(90),
			payerID:      "A",
			participants: []string{"A", "B", "C"},
			policy:       RemainderToPayer,
			wantShares:   map[string]int64{"A": 30, "B": 30, "C": 30},
		},
		{
			name:         "single participant takes everything",
			amount:       usd(101),
			payerID:      "A",
			participants: []string{"A"},
			policy:       RemainderToPayer,
			wantShares:   map[string]int64{"A": 101},
		},
		{
			name:         "amount smaller than group",
			amount:       usd(2),
			payerID:      "B",
			participants: []string{"A", "B", "C"},
			policy:       RemainderToPayer,
			wantShares:   map[string]int64{"A": 0, "B": 2, "C": 0},
		},
		{
			name:         "zero amount rejected",
			amount:       usd(0),
			payerID:      "A",
			participants: []string{"A", "B"},
			policy:       RemainderToPayer,
			wantErr:      ledger.KindValidation,
		},
		{
			name:         "empty participants rejected",
			amount:       usd(100),
			payerID:      "A",
			participants: []string{},
			policy:       RemainderToPayer,
			wantErr:      ledger.KindValidation,
		},
		{
			name:         "duplicate participants rejected",
			amount:       usd(100),
			payerID:      "A",
			participants: []string{"A", "B", "A"},
			policy:       RemainderToPayer,
			wantErr:      ledger.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := EqualSplit(tt.amount, tt.payerID, tt.participants, tt.policy)
			if tt.wantErr != "" {
				if !ledger.IsKind(err, tt.wantErr) {
					t.Fatalf("EqualSplit error = %v, want kind %s", err, tt.wantErr)
				}
				if shares != nil {
					t.Fatal("partial result returned alongside error")
				}
				return
			}
			if err != nil {
				t.Fatalf("EqualSplit failed: %v", err)
			}
			assertShares(t, shares, tt.amount, tt.wantShares)
		})
	}
}

func TestEqualSplitIsDeterministic(t *testing.T) {
	first, err := EqualSplit(usd(1001), "B", []string{"A", "B", "C", "D"}, RemainderToPayer)
	if err != nil {
		t.Fatalf("EqualSplit failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := EqualSplit(usd(1001), "B", []string{"A", "B", "C", "D"}, RemainderToPayer)
		if err != nil {
			t.Fatalf("EqualSplit failed: %v", err)
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d differs at %d: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
}

func TestWeightedSplit(t *testing.T) {
	tests := []struct {
		name       string
		amount     money.Money
		payerID    string
		weights    []Weight
		wantErr    ledger.Kind
		wantShares map[string]int64
	}{
		{
			name:    "proportional with remainder to payer",
			amount:  usd(100),
			payerID: "A",
			weights: []Weight{{"A", 1}, {"B", 2}},
			// floor: A=33, B=66; remainder 1 to payer A.
			wantShares: map[string]int64{"A": 34, "B": 66},
		},
		{
			name:       "zero-weight participant owes nothing",
			amount:     usd(100),
			payerID:    "B",
			weights:    []Weight{{"A", 0}, {"B", 1}},
			wantShares: map[string]int64{"A": 0, "B": 100},
		},
		{
			name:    "oversized weight rejected before it can overflow",
			amount:  usd(100),
			payerID: "A",
			weights: []Weight{{"A", MaxWeight + 1}, {"B", 1}},
			wantErr: ledger.KindValidation,
		},
		{
			name:    "negative weight rejected",
			amount:  usd(100),
			payerID: "A",
			weights: []Weight{{"A", -1}, {"B", 2}},
			wantErr: ledger.KindValidation,
		},
		{
			name:    "all-zero weights rejected",
			amount:  usd(100),
			payerID: "A",
			weights: []Weight{{"A", 0}, {"B", 0}},
			wantErr: ledger.KindValidation,
		},
		{
			name:    "duplicate user rejected",
			amount:  usd(100),
			payerID: "A",
			weights: []Weight{{"A", 1}, {"A", 1}},
			wantErr: ledger.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := WeightedSplit(tt.amount, tt.payerID, tt.weights, RemainderToPayer)
			if tt.wantErr != "" {
				if !ledger.IsKind(err, tt.wantErr) {
					t.Fatalf("WeightedSplit error = %v, want kind %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("WeightedSplit failed: %v", err)
			}
			assertShares(t, shares, tt.amount, tt.wantShares)
		})
	}
}

// assertShares checks the exact-sum invariant and the expected per-user
// amounts.
func assertShares(t *testing.T, shares []Share, amount money.Money, want map[string]int64) {
	t.Helper()

	sum := money.Zero(amount.Currency)
	for _, s := range shares {
		if s.Amount.IsNegative() {
			t.Errorf("share for %s is negative: %s", s.UserID, s.Amount)
		}
		sum = sum.Add(s.Amount)
	}
	if !sum.Equal(amount) {
		t.Errorf("shares sum to %s, want %s", sum, amount)
	}

	if len(shares) != len(want) {
		t.Fatalf("got %d shares, want %d", len(shares), len(want))
	}
	for _, s := range shares {
		if s.Amount.Cents != want[s.UserID] {
			t.Errorf("share for %s = %d, want %d", s.UserID, s.Amount.Cents, want[s.UserID])
		}
	}
}
