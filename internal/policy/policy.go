// Package policy centralizes every authorization decision the ledger and the
// settlement engine make, so the two can never drift apart. Decisions are
// pure functions of the trip directory, the server clock, and the record
// under mutation; client-supplied timestamps are never consulted.
package policy

import (
	"context"
	"time"

	"github.com/tripmate/ledger/internal/ledger"
	"github.com/tripmate/ledger/internal/models"
)

// DefaultVoidWindow is how long a participant may void their own expense.
// The trip creator is not bound by it.
const DefaultVoidWindow = 15 * time.Minute

// Clock is the single authoritative time source for window checks.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// TripDirectory answers membership questions about the external trip entity.
type TripDirectory interface {
	IsAcceptedParticipant(ctx context.Context, tripID, userID string) (bool, error)
	IsCreator(ctx context.Context, tripID, userID string) (bool, error)
}

// Action names a ledger command for authorization purposes.
type Action string

const (
	ActionViewLedger       Action = "view_ledger"
	ActionCreateExpense    Action = "create_expense"
	ActionEditExpense      Action = "edit_expense"
	ActionVoidExpense      Action = "void_expense"
	ActionCreateSettlement Action = "create_settlement"
	ActionMarkPaid         Action = "mark_paid"
)

// Request carries everything a decision needs. Expense is set only for
// edit/void actions.
type Request struct {
	Action  Action
	ActorID string
	TripID  string
	Expense *models.Expense
}

// Policy evaluates authorization requests.
type Policy struct {
	trips      TripDirectory
	clock      Clock
	voidWindow time.Duration
}

// New builds a Policy with the default void window.
func New(trips TripDirectory, clock Clock) *Policy {
	return &Policy{trips: trips, clock: clock, voidWindow: DefaultVoidWindow}
}

// WithVoidWindow overrides the self-void window. Zero or negative disables
// self-void entirely, leaving only the creator override.
func (p *Policy) WithVoidWindow(d time.Duration) *Policy {
	p.voidWindow = d
	return p
}

// Authorize returns nil to allow, or a Forbidden error naming the reason.
// Status-based checks (voided, locked) are the services' job; Authorize only
// decides roles and windows.
func (p *Policy) Authorize(ctx context.Context, req Request) error {
	accepted, err := p.trips.IsAcceptedParticipant(ctx, req.TripID, req.ActorID)
	if err != nil {
		return err
	}
	if !accepted {
		return ledger.Forbiddenf("user %s is not an accepted participant of trip %s", req.ActorID, req.TripID)
	}

	switch req.Action {
	case ActionViewLedger, ActionCreateExpense, ActionCreateSettlement:
		// Accepted-participant gate is sufficient.
		return nil

	case ActionEditExpense:
		if req.Expense.CreatedBy == req.ActorID {
			return nil
		}
		return p.requireCreator(ctx, req, "only the expense author or the trip creator may edit")

	case ActionVoidExpense:
		if req.Expense.CreatedBy == req.ActorID {
			elapsed := p.clock.Now().Sub(req.Expense.CreatedAt)
			if elapsed <= p.voidWindow {
				return nil
			}
			// Author outside the window still qualifies if they happen to
			// be the trip creator.
			return p.requireCreator(ctx, req, "void window has elapsed")
		}
		return p.requireCreator(ctx, req, "only the expense author or the trip creator may void")

	case ActionMarkPaid:
		return p.requireCreator(ctx, req, "only the trip creator may mark a settlement paid")

	default:
		return ledger.Forbiddenf("unknown action %q", req.Action)
	}
}

func (p *Policy) requireCreator(ctx context.Context, req Request, reason string) error {
	creator, err := p.trips.IsCreator(ctx, req.TripID, req.ActorID)
	if err != nil {
		return err
	}
	if !creator {
		return ledger.Forbiddenf("%s", reason)
	}
	return nil
}
