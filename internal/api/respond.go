package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripmate/ledger/internal/ledger"
)

// APIResponse is the uniform envelope every endpoint returns.
type APIResponse struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, APIResponse{Success: true, Data: data})
}

// respondError maps a ledger error kind to an HTTP status and surfaces the
// kind verbatim so clients can explain why an action was blocked.
func respondError(c *gin.Context, err error) {
	kind := ledger.KindOf(err)
	status := statusFor(kind)

	message := err.Error()
	if status == http.StatusInternalServerError {
		// Internal details stay in the log.
		message = "internal error"
	}
	c.JSON(status, APIResponse{Success: false, Kind: string(kind), Message: message})
}

func statusFor(kind ledger.Kind) int {
	switch kind {
	case ledger.KindValidation:
		return http.StatusBadRequest
	case ledger.KindForbidden:
		return http.StatusForbidden
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindNotEditable, ledger.KindNotVoidable,
		ledger.KindIneligibleExpense, ledger.KindAlreadyPaid, ledger.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
