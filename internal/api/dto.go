package api

import (
	"time"

	"github.com/tripmate/ledger/internal/calculator"
	"github.com/tripmate/ledger/internal/models"
	"github.com/tripmate/ledger/internal/service"
)

// Wire representations. Statuses cross the boundary as plain strings; the
// domain's closed enums are normalized exactly here and nowhere else.

type expenseResponse struct {
	ID               string          `json:"id"`
	TripID           string          `json:"trip_id"`
	PayerUserID      string          `json:"payer_user_id"`
	CreatedByUserID  string          `json:"created_by_user_id"`
	AmountCents      int64           `json:"amount_cents"`
	Currency         string          `json:"currency"`
	Description      string          `json:"description,omitempty"`
	Type             string          `json:"type"`
	Status           string          `json:"status"`
	IsLocked         bool            `json:"is_locked"`
	AdjustsExpenseID string          `json:"adjusts_expense_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	Splits           []splitResponse `json:"splits"`
}

type splitResponse struct {
	UserID     string `json:"user_id"`
	ShareCents int64  `json:"share_cents"`
}

type settlementResponse struct {
	ID          string     `json:"id"`
	TripID      string     `json:"trip_id"`
	ExpenseIDs  []string   `json:"expense_ids"`
	Status      string     `json:"status"`
	CreatedBy   string     `json:"created_by_user_id"`
	CreatedAt   time.Time  `json:"created_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	TotalCents  int64      `json:"total_cents,omitempty"`
	Currency    string     `json:"currency,omitempty"`
}

type balanceResponse struct {
	UserID    string `json:"user_id"`
	PaidCents int64  `json:"paid_cents"`
	OwedCents int64  `json:"owed_cents"`
	NetCents  int64  `json:"net_cents"`
	Currency  string `json:"currency"`
}

type transferResponse struct {
	FromUserID  string `json:"from_user_id"`
	ToUserID    string `json:"to_user_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	resp := expenseResponse{
		ID:               e.ID,
		TripID:           e.TripID,
		PayerUserID:      e.PayerID,
		CreatedByUserID:  e.CreatedBy,
		AmountCents:      e.Amount.Cents,
		Currency:         e.Amount.Currency,
		Description:      e.Description,
		Type:             string(e.Type),
		Status:           string(e.Status),
		IsLocked:         e.Locked,
		AdjustsExpenseID: e.AdjustsExpenseID,
		CreatedAt:        e.CreatedAt,
	}
	for _, s := range e.Splits {
		resp.Splits = append(resp.Splits, splitResponse{UserID: s.UserID, ShareCents: s.Share.Cents})
	}
	return resp
}

func toExpenseResponses(expenses []models.Expense) []expenseResponse {
	out := make([]expenseResponse, len(expenses))
	for i := range expenses {
		out[i] = toExpenseResponse(&expenses[i])
	}
	return out
}

func toSettlementResponse(st *models.Settlement) settlementResponse {
	return settlementResponse{
		ID:         st.ID,
		TripID:     st.TripID,
		ExpenseIDs: st.ExpenseIDs,
		Status:     string(st.Status),
		CreatedBy:  st.CreatedBy,
		CreatedAt:  st.CreatedAt,
		PaidAt:     st.PaidAt,
	}
}

func toSettlementDetailResponse(d *service.SettlementDetail) settlementResponse {
	resp := toSettlementResponse(&d.Settlement)
	resp.TotalCents = d.Total.Cents
	resp.Currency = d.Total.Currency
	return resp
}

func toBalanceResponses(balances []calculator.Balance) []balanceResponse {
	out := make([]balanceResponse, len(balances))
	for i, b := range balances {
		out[i] = balanceResponse{
			UserID:    b.UserID,
			PaidCents: b.Paid.Cents,
			OwedCents: b.Owed.Cents,
			NetCents:  b.Net.Cents,
			Currency:  b.Net.Currency,
		}
	}
	return out
}

func toTransferResponses(transfers []calculator.Transfer) []transferResponse {
	out := make([]transferResponse, len(transfers))
	for i, t := range transfers {
		out[i] = transferResponse{
			FromUserID:  t.From,
			ToUserID:    t.To,
			AmountCents: t.Amount.Cents,
			Currency:    t.Amount.Currency,
		}
	}
	return out
}
