package service

import (
	"context"

	"github.com/tripmate/ledger/internal/calculator"
	"github.com/tripmate/ledger/internal/models"
	"github.com/tripmate/ledger/internal/money"
	"github.com/tripmate/ledger/internal/policy"
	"github.com/tripmate/ledger/internal/storage"
	"github.com/tripmate/ledger/internal/trips"
)

// QueryService serves the read-only projections the presentation layer
// consumes. It never mutates state and is safe to call concurrently with any
// write; each call reads a consistent snapshot from the store.
type QueryService struct {
	store  storage.Store
	trips  *trips.Directory
	policy *policy.Policy
}

// NewQueryService creates a QueryService.
func NewQueryService(store storage.Store, directory *trips.Directory, pol *policy.Policy) *QueryService {
	return &QueryService{store: store, trips: directory, policy: pol}
}

// SettlementDetail is a settlement with its member expenses and computed
// total. The total is derived, never stored.
type SettlementDetail struct {
	Settlement models.Settlement
	Expenses   []models.Expense
	Total      money.Money
}

// TripExpenses returns the trip's expense feed, ACTIVE and VOID alike,
// newest first.
func (s *QueryService) TripExpenses(ctx context.Context, tripID, actorID string) ([]models.Expense, error) {
	if err := s.authorizeView(ctx, tripID, actorID); err != nil {
		return nil, err
	}
	return s.store.ListTripExpenses(ctx, tripID)
}

// TripBalances returns each participant's net position over ACTIVE expenses
// only.
func (s *QueryService) TripBalances(ctx context.Context, tripID, actorID string) ([]calculator.Balance, error) {
	if err := s.authorizeView(ctx, tripID, actorID); err != nil {
		return nil, err
	}
	trip, err := s.trips.Trip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListTripExpenses(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return calculator.NetBalances(expenses, trip.Currency), nil
}

// SuggestedTransfers returns an advisory minimal payment list that would
// clear the trip's net balances.
func (s *QueryService) SuggestedTransfers(ctx context.Context, tripID, actorID string) ([]calculator.Transfer, error) {
	balances, err := s.TripBalances(ctx, tripID, actorID)
	if err != nil {
		return nil, err
	}
	return calculator.SuggestTransfers(balances), nil
}

// SettlementDetail returns a settlement with its member expenses and the
// derived total.
func (s *QueryService) SettlementDetail(ctx context.Context, settlementID, actorID string) (*SettlementDetail, error) {
	settlement, err := s.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, settlement.TripID, actorID); err != nil {
		return nil, err
	}
	return s.detail(ctx, settlement)
}

// TripSettlements returns the trip's settlements with computed totals,
// newest first.
func (s *QueryService) TripSettlements(ctx context.Context, tripID, actorID string) ([]SettlementDetail, error) {
	if err := s.authorizeView(ctx, tripID, actorID); err != nil {
		return nil, err
	}
	settlements, err := s.store.ListTripSettlements(ctx, tripID)
	if err != nil {
		return nil, err
	}
	details := make([]SettlementDetail, 0, len(settlements))
	for i := range settlements {
		d, err := s.detail(ctx, &settlements[i])
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	return details, nil
}

func (s *QueryService) detail(ctx context.Context, settlement *models.Settlement) (*SettlementDetail, error) {
	expenses, err := s.store.GetExpenses(ctx, settlement.ExpenseIDs)
	if err != nil {
		return nil, err
	}
	trip, err := s.trips.Trip(ctx, settlement.TripID)
	if err != nil {
		return nil, err
	}
	total := money.Zero(trip.Currency)
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return &SettlementDetail{Settlement: *settlement, Expenses: expenses, Total: total}, nil
}

func (s *QueryService) authorizeView(ctx context.Context, tripID, actorID string) error {
	return s.policy.Authorize(ctx, policy.Request{
		Action:  policy.ActionViewLedger,
		ActorID: actorID,
		TripID:  tripID,
	})
}
