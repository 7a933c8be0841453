package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tripmate/ledger/internal/ledger"
	"github.com/tripmate/ledger/internal/metrics"
	"github.com/tripmate/ledger/internal/models"
	"github.com/tripmate/ledger/internal/policy"
	"github.com/tripmate/ledger/internal/storage"
)

// SettlementService groups eligible expenses into settlements and drives
// the PENDING to PAID transition.
type SettlementService struct {
	store  storage.Store
	policy *policy.Policy
	clock  policy.Clock
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(store storage.Store, pol *policy.Policy, clock policy.Clock) *SettlementService {
	return &SettlementService{store: store, policy: pol, clock: clock}
}

// CreateSettlement bundles the given expenses into a new PENDING settlement.
// Every expense must exist, belong to the same trip, and be ACTIVE and
// unlocked; one ineligible member rejects the whole call. The store re-checks
// eligibility inside its transaction, so a concurrent void or lock between
// this validation and the commit also aborts.
func (s *SettlementService) CreateSettlement(ctx context.Context, expenseIDs []string, actorID string) (*models.Settlement, error) {
	if len(expenseIDs) == 0 {
		return nil, reject("CreateSettlement", ledger.Validationf("expense set must not be empty"), "actor", actorID)
	}
	seen := make(map[string]bool, len(expenseIDs))
	for _, id := range expenseIDs {
		if seen[id] {
			return nil, reject("CreateSettlement", ledger.Validationf("duplicate expense %s", id), "actor", actorID)
		}
		seen[id] = true
	}

	expenses, err := s.store.GetExpenses(ctx, expenseIDs)
	if err != nil {
		return nil, reject("CreateSettlement", err, "actor", actorID)
	}

	tripID := expenses[0].TripID
	for _, e := range expenses {
		if e.TripID != tripID {
			return nil, reject("CreateSettlement",
				ledger.Validationf("expenses span multiple trips (%s and %s)", tripID, e.TripID), "actor", actorID)
		}
		if !e.Eligible() {
			return nil, reject("CreateSettlement",
				ledger.Ineligiblef("expense %s is not eligible for settlement", e.ID), "actor", actorID)
		}
	}

	err = s.policy.Authorize(ctx, policy.Request{
		Action:  policy.ActionCreateSettlement,
		ActorID: actorID,
		TripID:  tripID,
	})
	if err != nil {
		return nil, reject("CreateSettlement", err, "trip_id", tripID, "actor", actorID)
	}

	settlement := &models.Settlement{
		ID:         uuid.New().String(),
		TripID:     tripID,
		ExpenseIDs: expenseIDs,
		Status:     models.SettlementPending,
		CreatedBy:  actorID,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		return nil, reject("CreateSettlement", err, "trip_id", tripID, "actor", actorID)
	}

	metrics.SettlementsCreated.Inc()
	slog.Info("Settlement created", "settlement_id", settlement.ID, "trip_id", tripID, "expenses", len(expenseIDs))
	return settlement, nil
}

// MarkPaid transitions a settlement to PAID and locks every member expense,
// atomically. Only the trip creator may call it; a second call reports
// AlreadyPaid and changes nothing.
func (s *SettlementService) MarkPaid(ctx context.Context, settlementID, actorID string) (*models.Settlement, error) {
	settlement, err := s.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, reject("MarkPaid", err, "settlement_id", settlementID, "actor", actorID)
	}

	err = s.policy.Authorize(ctx, policy.Request{
		Action:  policy.ActionMarkPaid,
		ActorID: actorID,
		TripID:  settlement.TripID,
	})
	if err != nil {
		return nil, reject("MarkPaid", err, "settlement_id", settlementID, "actor", actorID)
	}

	paid, err := s.store.MarkSettlementPaid(ctx, settlementID, s.clock.Now())
	if err != nil {
		return nil, reject("MarkPaid", err, "settlement_id", settlementID, "actor", actorID)
	}

	metrics.SettlementsPaid.Inc()
	slog.Info("Settlement paid", "settlement_id", paid.ID, "trip_id", paid.TripID, "paid_at", paid.PaidAt)
	return paid, nil
}
