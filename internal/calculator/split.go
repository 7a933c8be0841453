// Package calculator implements the exact split and balance math of the
// ledger. Everything here is pure: no storage, no clock, no side effects.
package calculator

import (
	"github.com/tripmate/ledger/internal/ledger"
	"github.com/tripmate/ledger/internal/money"
)

// Share is one participant's computed portion of an amount.
type Share struct {
	UserID string
	Amount money.Money
}

// Weight assigns a relative weight to a participant for uneven splits.
type Weight struct {
	UserID string
	Weight int64
}

// MaxWeight bounds a single weight. Weights are ratios, so a million steps
// of resolution is plenty, and the bound keeps amount*weight inside int64
// for any representable amount.
const MaxWeight = 1_000_000

// RemainderPolicy names the rule for assigning the indivisible remainder of
// an integer split. It is a named, swappable policy because the production
// rule was only ever observed informally in the clients.
type RemainderPolicy string

const (
	// RemainderToPayer gives the whole remainder to the payer's own share
	// when the payer is among the participants, falling back to the first
	// participant otherwise. This is the default.
	RemainderToPayer RemainderPolicy = "payer"

	// RemainderToFirst always gives the remainder to the first participant
	// in the caller-supplied stable ordering.
	RemainderToFirst RemainderPolicy = "first"
)

// EqualSplit divides amount evenly across participants, assigning the
// remainder per policy. The result covers exactly the input participant set,
// in input order, and the shares always sum exactly to amount.
//
// Error conditions: non-positive amount, empty participant list, duplicate
// participant ids. No partial result is ever produced.
func EqualSplit(amount money.Money, payerID string, participants []string, policy RemainderPolicy) ([]Share, error) {
	if err := validateParticipants(amount, participants); err != nil {
		return nil, err
	}

	n := int64(len(participants))
	base, rem := amount.Divmod(n)

	shares := make([]Share, len(participants))
	for i, userID := range participants {
		shares[i] = Share{UserID: userID, Amount: base}
	}
	if !rem.IsZero() {
		i := remainderIndex(payerID, participants, policy)
		shares[i].Amount = shares[i].Amount.Add(rem)
	}
	return shares, nil
}

// WeightedSplit divides amount proportionally to the given weights, then
// assigns the rounding remainder per policy. Weights must be non-negative
// and sum to a positive total. The same exact-sum guarantee as EqualSplit
// holds.
func WeightedSplit(amount money.Money, payerID string, weights []Weight, policy RemainderPolicy) ([]Share, error) {
	participants := make([]string, len(weights))
	var total int64
	for i, w := range weights {
		if w.Weight < 0 {
			return nil, ledger.Validationf("negative weight %d for user %s", w.Weight, w.UserID)
		}
		if w.Weight > MaxWeight {
			return nil, ledger.Validationf("weight %d for user %s exceeds maximum %d", w.Weight, w.UserID, MaxWeight)
		}
		participants[i] = w.UserID
		total += w.Weight
	}
	if err := validateParticipants(amount, participants); err != nil {
		return nil, err
	}
	if total <= 0 {
		return nil, ledger.Validationf("weights must sum to a positive total")
	}

	shares := make([]Share, len(weights))
	assigned := money.Zero(amount.Currency)
	for i, w := range weights {
		cents := amount.Cents * w.Weight / total
		shares[i] = Share{UserID: w.UserID, Amount: money.Money{Cents: cents, Currency: amount.Currency}}
		assigned = assigned.Add(shares[i].Amount)
	}
	if rem := amount.Sub(assigned); !rem.IsZero() {
		i := remainderIndex(payerID, participants, policy)
		shares[i].Amount = shares[i].Amount.Add(rem)
	}
	return shares, nil
}

// remainderIndex picks the share that absorbs the remainder. Deterministic
// for identical inputs.
func remainderIndex(payerID string, participants []string, policy RemainderPolicy) int {
	if policy == RemainderToPayer {
		for i, p := range participants {
			if p == payerID {
				return i
			}
		}
	}
	return 0
}

func validateParticipants(amount money.Money, participants []string) error {
	if !amount.IsPositive() {
		return ledger.Validationf("amount must be positive, got %s", amount)
	}
	if len(participants) == 0 {
		return ledger.Validationf("participant list must not be empty")
	}
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if p == "" {
			return ledger.Validationf("participant id must not be empty")
		}
		if seen[p] {
			return ledger.Validationf("duplicate participant %s", p)
		}
		seen[p] = true
	}
	return nil
}
