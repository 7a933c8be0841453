package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tripmate/ledger/internal/middleware"
)

// NewRouter wires middleware and routes.
func NewRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logging())
	r.Use(middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-User-ID"},
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := r.Group("/api")
	authed.Use(requireIdentity())

	authed.POST("/trips/:id/expenses", h.CreateExpense)
	authed.GET("/trips/:id/expenses", h.ListExpenses)
	authed.GET("/trips/:id/balances", h.Balances)
	authed.GET("/trips/:id/transfers", h.Transfers)
	authed.POST("/trips/:id/settlements", h.CreateSettlement)
	authed.GET("/trips/:id/settlements", h.ListSettlements)

	authed.POST("/expenses/:id/adjustments", h.CreateAdjustment)
	authed.PATCH("/expenses/:id", h.EditExpense)
	authed.POST("/expenses/:id/void", h.VoidExpense)

	authed.GET("/settlements/:id", h.GetSettlement)
	authed.POST("/settlements/:id/pay", h.MarkPaid)

	return r
}

// requireIdentity rejects requests missing the actor header. The upstream
// auth proxy is responsible for authenticating and setting it.
func requireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-User-ID") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIResponse{
				Success: false,
				Message: "missing X-User-ID header",
			})
			return
		}
		c.Next()
	}
}

func actorID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}
