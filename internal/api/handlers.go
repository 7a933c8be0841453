// Package api exposes the ledger core over HTTP. It is a thin adapter: JSON
// in, domain command out, error kind mapped to a status code. Authentication
// happens upstream; the actor arrives as the X-User-ID header.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripmate/ledger/internal/calculator"
	"github.com/tripmate/ledger/internal/service"
)

// Handlers bundles the three services behind the HTTP surface.
type Handlers struct {
	expenses    *service.ExpenseService
	settlements *service.SettlementService
	queries     *service.QueryService
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(expenses *service.ExpenseService, settlements *service.SettlementService, queries *service.QueryService) *Handlers {
	return &Handlers{expenses: expenses, settlements: settlements, queries: queries}
}

type weightInput struct {
	UserID string `json:"user_id" binding:"required"`
	Weight int64  `json:"weight"`
}

type createExpenseRequest struct {
	PayerUserID    string        `json:"payer_user_id" binding:"required"`
	ParticipantIDs []string      `json:"participant_ids"`
	Weights        []weightInput `json:"weights"`
	AmountCents    int64         `json:"amount_cents" binding:"required"`
	Description    string        `json:"description"`
}

type editExpenseRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Description string `json:"description"`
}

type createSettlementRequest struct {
	ExpenseIDs []string `json:"expense_ids" binding:"required"`
}

// POST /api/trips/:id/expenses
func (h *Handlers) CreateExpense(c *gin.Context) {
	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	expense, err := h.expenses.CreateExpense(c.Request.Context(), service.CreateExpenseInput{
		TripID:         c.Param("id"),
		ActorID:        actorID(c),
		PayerID:        req.PayerUserID,
		ParticipantIDs: req.ParticipantIDs,
		Weights:        toWeights(req.Weights),
		AmountCents:    req.AmountCents,
		Description:    req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, toExpenseResponse(expense))
}

// POST /api/expenses/:id/adjustments
func (h *Handlers) CreateAdjustment(c *gin.Context) {
	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	expense, err := h.expenses.CreateAdjustment(c.Request.Context(), service.CreateAdjustmentInput{
		OriginalExpenseID: c.Param("id"),
		ActorID:           actorID(c),
		PayerID:           req.PayerUserID,
		ParticipantIDs:    req.ParticipantIDs,
		Weights:           toWeights(req.Weights),
		AmountCents:       req.AmountCents,
		Description:       req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, toExpenseResponse(expense))
}

// PATCH /api/expenses/:id
func (h *Handlers) EditExpense(c *gin.Context) {
	var req editExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	expense, err := h.expenses.EditExpense(c.Request.Context(), service.EditExpenseInput{
		ExpenseID:   c.Param("id"),
		ActorID:     actorID(c),
		AmountCents: req.AmountCents,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toExpenseResponse(expense))
}

// POST /api/expenses/:id/void
func (h *Handlers) VoidExpense(c *gin.Context) {
	expense, err := h.expenses.VoidExpense(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toExpenseResponse(expense))
}

// GET /api/trips/:id/expenses
func (h *Handlers) ListExpenses(c *gin.Context) {
	expenses, err := h.queries.TripExpenses(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toExpenseResponses(expenses))
}

// GET /api/trips/:id/balances
func (h *Handlers) Balances(c *gin.Context) {
	balances, err := h.queries.TripBalances(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toBalanceResponses(balances))
}

// GET /api/trips/:id/transfers
func (h *Handlers) Transfers(c *gin.Context) {
	transfers, err := h.queries.SuggestedTransfers(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toTransferResponses(transfers))
}

// POST /api/trips/:id/settlements
func (h *Handlers) CreateSettlement(c *gin.Context) {
	var req createSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	settlement, err := h.settlements.CreateSettlement(c.Request.Context(), req.ExpenseIDs, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, toSettlementResponse(settlement))
}

// GET /api/trips/:id/settlements
func (h *Handlers) ListSettlements(c *gin.Context) {
	details, err := h.queries.TripSettlements(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]settlementResponse, len(details))
	for i := range details {
		out[i] = toSettlementDetailResponse(&details[i])
	}
	respond(c, http.StatusOK, out)
}

// GET /api/settlements/:id
func (h *Handlers) GetSettlement(c *gin.Context) {
	detail, err := h.queries.SettlementDetail(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := toSettlementDetailResponse(detail)
	respond(c, http.StatusOK, gin.H{
		"settlement": resp,
		"expenses":   toExpenseResponses(detail.Expenses),
	})
}

// POST /api/settlements/:id/pay
func (h *Handlers) MarkPaid(c *gin.Context) {
	settlement, err := h.settlements.MarkPaid(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toSettlementResponse(settlement))
}

func toWeights(in []weightInput) []calculator.Weight {
	if len(in) == 0 {
		return nil
	}
	weights := make([]calculator.Weight, len(in))
	for i, w := range in {
		weights[i] = calculator.Weight{UserID: w.UserID, Weight: w.Weight}
	}
	return weights
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, APIResponse{
		Success: false,
		Kind:    "VALIDATION",
		Message: err.Error(),
	})
}
