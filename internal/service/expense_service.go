// Package service implements the ledger's command and query operations on
// top of the storage contract. Services validate, authorize, then persist;
// a rejected command never touches the store.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tripmate/ledger/internal/calculator"
	"github.com/tripmate/ledger/internal/ledger"
	"github.com/tripmate/ledger/internal/metrics"
	"github.com/tripmate/ledger/internal/models"
	"github.com/tripmate/ledger/internal/money"
	"github.com/tripmate/ledger/internal/policy"
	"github.com/tripmate/ledger/internal/storage"
	"github.com/tripmate/ledger/internal/trips"
)

// ExpenseService owns expense records, their status transitions, and the
// edit/void permission checks.
type ExpenseService struct {
	store     storage.Store
	trips     *trips.Directory
	policy    *policy.Policy
	clock     policy.Clock
	remainder calculator.RemainderPolicy
}

// NewExpenseService creates an ExpenseService with the default
// remainder-to-payer split policy.
func NewExpenseService(store storage.Store, directory *trips.Directory, pol *policy.Policy, clock policy.Clock) *ExpenseService {
	return &ExpenseService{
		store:     store,
		trips:     directory,
		policy:    pol,
		clock:     clock,
		remainder: calculator.RemainderToPayer,
	}
}

// WithRemainderPolicy overrides the split remainder rule.
func (s *ExpenseService) WithRemainderPolicy(p calculator.RemainderPolicy) *ExpenseService {
	s.remainder = p
	return s
}

// CreateExpenseInput carries a create-expense command.
type CreateExpenseInput struct {
	TripID         string
	ActorID        string
	PayerID        string
	ParticipantIDs []string
	// Weights optionally replaces the equal split; when set, its user ids
	// are the participant set.
	Weights     []calculator.Weight
	AmountCents int64
	Description string
}

// CreateAdjustmentInput carries a create-adjustment command. The original
// expense may be VOID or locked; the adjustment is an independent entry and
// never touches it.
type CreateAdjustmentInput struct {
	OriginalExpenseID string
	ActorID           string
	PayerID           string
	ParticipantIDs    []string
	Weights           []calculator.Weight
	AmountCents       int64
	Description       string
}

// EditExpenseInput carries an edit command. Amount and description replace
// the stored values; the participant set is untouched and splits are
// recomputed over it, with the original weighting when one was recorded.
type EditExpenseInput struct {
	ExpenseID   string
	ActorID     string
	AmountCents int64
	Description string
}

// CreateExpense validates, authorizes, splits, and persists a new expense
// with its splits as one atomic unit.
func (s *ExpenseService) CreateExpense(ctx context.Context, in CreateExpenseInput) (*models.Expense, error) {
	expense, err := s.create(ctx, in.TripID, in.ActorID, in, models.TypeExpense, "")
	if err != nil {
		return nil, reject("CreateExpense", err, "trip_id", in.TripID, "actor", in.ActorID)
	}
	metrics.ExpensesCreated.WithLabelValues(string(models.TypeExpense)).Inc()
	slog.Info("Expense created", "expense_id", expense.ID, "trip_id", expense.TripID, "amount", expense.Amount)
	return expense, nil
}

// CreateAdjustment creates an independent correcting entry referencing the
// original expense.
func (s *ExpenseService) CreateAdjustment(ctx context.Context, in CreateAdjustmentInput) (*models.Expense, error) {
	original, err := s.store.GetExpense(ctx, in.OriginalExpenseID)
	if err != nil {
		return nil, reject("CreateAdjustment", err, "original_id", in.OriginalExpenseID, "actor", in.ActorID)
	}

	createIn := CreateExpenseInput{
		TripID:         original.TripID,
		ActorID:        in.ActorID,
		PayerID:        in.PayerID,
		ParticipantIDs: in.ParticipantIDs,
		Weights:        in.Weights,
		AmountCents:    in.AmountCents,
		Description:    in.Description,
	}
	expense, err := s.create(ctx, original.TripID, in.ActorID, createIn, models.TypeAdjustment, original.ID)
	if err != nil {
		return nil, reject("CreateAdjustment", err, "original_id", in.OriginalExpenseID, "actor", in.ActorID)
	}
	metrics.ExpensesCreated.WithLabelValues(string(models.TypeAdjustment)).Inc()
	slog.Info("Adjustment created", "expense_id", expense.ID, "adjusts", original.ID, "amount", expense.Amount)
	return expense, nil
}

// EditExpense recomputes splits for the new amount over the existing
// participant set and replaces them atomically. Fails with NotEditable for
// voided or locked expenses regardless of actor role.
func (s *ExpenseService) EditExpense(ctx context.Context, in EditExpenseInput) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, in.ExpenseID)
	if err != nil {
		return nil, reject("EditExpense", err, "expense_id", in.ExpenseID, "actor", in.ActorID)
	}

	if err := editable(expense, ledger.NotEditablef); err != nil {
		return nil, reject("EditExpense", err, "expense_id", in.ExpenseID, "actor", in.ActorID)
	}

	err = s.policy.Authorize(ctx, policy.Request{
		Action:  policy.ActionEditExpense,
		ActorID: in.ActorID,
		TripID:  expense.TripID,
		Expense: expense,
	})
	if err != nil {
		return nil, reject("EditExpense", err, "expense_id", in.ExpenseID, "actor", in.ActorID)
	}

	amount, err := money.New(in.AmountCents, expense.Amount.Currency)
	if err != nil {
		return nil, reject("EditExpense", err, "expense_id", in.ExpenseID)
	}

	// Recompute with the recorded weights so a weighted expense keeps its
	// proportions across edits.
	var shares []calculator.Share
	weights := splitWeights(expense)
	if len(weights) > 0 {
		shares, err = calculator.WeightedSplit(amount, expense.PayerID, weights, s.remainder)
	} else {
		shares, err = calculator.EqualSplit(amount, expense.PayerID, expense.ParticipantIDs(), s.remainder)
	}
	if err != nil {
		return nil, reject("EditExpense", err, "expense_id", in.ExpenseID)
	}

	expense.Amount = amount
	expense.Description = in.Description
	expense.Splits = toSplits(expense.ID, shares, weights)
	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return nil, reject("EditExpense", err, "expense_id", in.ExpenseID, "actor", in.ActorID)
	}

	slog.Info("Expense edited", "expense_id", expense.ID, "amount", expense.Amount, "version", expense.Version)
	return expense, nil
}

// VoidExpense transitions an expense to VOID. Splits are retained for audit
// and excluded from balances thereafter.
func (s *ExpenseService) VoidExpense(ctx context.Context, expenseID, actorID string) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, reject("VoidExpense", err, "expense_id", expenseID, "actor", actorID)
	}

	if err := editable(expense, ledger.NotVoidablef); err != nil {
		return nil, reject("VoidExpense", err, "expense_id", expenseID, "actor", actorID)
	}

	err = s.policy.Authorize(ctx, policy.Request{
		Action:  policy.ActionVoidExpense,
		ActorID: actorID,
		TripID:  expense.TripID,
		Expense: expense,
	})
	if err != nil {
		return nil, reject("VoidExpense", err, "expense_id", expenseID, "actor", actorID)
	}

	expense.Status = models.StatusVoid
	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return nil, reject("VoidExpense", err, "expense_id", expenseID, "actor", actorID)
	}

	metrics.ExpensesVoided.Inc()
	slog.Info("Expense voided", "expense_id", expense.ID, "actor", actorID)
	return expense, nil
}

// create is the shared path of CreateExpense and CreateAdjustment.
func (s *ExpenseService) create(ctx context.Context, tripID, actorID string, in CreateExpenseInput, typ models.ExpenseType, adjustsID string) (*models.Expense, error) {
	err := s.policy.Authorize(ctx, policy.Request{
		Action:  policy.ActionCreateExpense,
		ActorID: actorID,
		TripID:  tripID,
	})
	if err != nil {
		return nil, err
	}

	trip, err := s.trips.Trip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	participants := in.ParticipantIDs
	if len(in.Weights) > 0 {
		participants = make([]string, len(in.Weights))
		for i, w := range in.Weights {
			participants[i] = w.UserID
		}
	}
	if err := s.requireAccepted(ctx, tripID, in.PayerID, participants); err != nil {
		return nil, err
	}

	amount, err := money.New(in.AmountCents, trip.Currency)
	if err != nil {
		return nil, err
	}

	var shares []calculator.Share
	if len(in.Weights) > 0 {
		shares, err = calculator.WeightedSplit(amount, in.PayerID, in.Weights, s.remainder)
	} else {
		shares, err = calculator.EqualSplit(amount, in.PayerID, participants, s.remainder)
	}
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		ID:               uuid.New().String(),
		TripID:           tripID,
		PayerID:          in.PayerID,
		CreatedBy:        actorID,
		Amount:           amount,
		Description:      in.Description,
		Type:             typ,
		Status:           models.StatusActive,
		AdjustsExpenseID: adjustsID,
		CreatedAt:        s.clock.Now(),
		Version:          1,
	}
	expense.Splits = toSplits(expense.ID, shares, in.Weights)

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// requireAccepted checks the payer and every split participant against the
// trip's accepted membership.
func (s *ExpenseService) requireAccepted(ctx context.Context, tripID, payerID string, participants []string) error {
	accepted, err := s.trips.IsAcceptedParticipant(ctx, tripID, payerID)
	if err != nil {
		return err
	}
	if !accepted {
		return ledger.Validationf("payer %s is not an accepted participant of trip %s", payerID, tripID)
	}
	for _, userID := range participants {
		accepted, err := s.trips.IsAcceptedParticipant(ctx, tripID, userID)
		if err != nil {
			return err
		}
		if !accepted {
			return ledger.Validationf("participant %s is not an accepted participant of trip %s", userID, tripID)
		}
	}
	return nil
}

// editable rejects mutations of voided or locked expenses with the given
// error kind constructor.
func editable(expense *models.Expense, errf func(string, ...any) error) error {
	if expense.Status != models.StatusActive {
		return errf("expense %s is void", expense.ID)
	}
	if expense.Locked {
		return errf("expense %s is locked by a paid settlement", expense.ID)
	}
	return nil
}

// toSplits pairs computed shares with their weights. The weight slice is
// either empty (equal split) or index-aligned with shares; both splitters
// preserve input order.
func toSplits(expenseID string, shares []calculator.Share, weights []calculator.Weight) []models.Split {
	splits := make([]models.Split, len(shares))
	for i, sh := range shares {
		splits[i] = models.Split{ExpenseID: expenseID, UserID: sh.UserID, Share: sh.Amount}
		if len(weights) > 0 {
			splits[i].Weight = weights[i].Weight
		}
	}
	return splits
}

// splitWeights reconstructs the creation-time weighting from the stored
// splits, or nil for an equal split.
func splitWeights(e *models.Expense) []calculator.Weight {
	if !e.Weighted() {
		return nil
	}
	weights := make([]calculator.Weight, len(e.Splits))
	for i, s := range e.Splits {
		weights[i] = calculator.Weight{UserID: s.UserID, Weight: s.Weight}
	}
	return weights
}

// reject counts and logs a rejected command, then passes the error through.
func reject(op string, err error, attrs ...any) error {
	metrics.Rejected(err)
	slog.Warn(op+" rejected", append(attrs, "error", err)...)
	return err
}
