// Package metrics exposes the ledger's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tripmate/ledger/internal/ledger"
)

var (
	// ExpensesCreated counts successful expense and adjustment creations.
	ExpensesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_expenses_created_total",
		Help: "Expenses created, labeled by type (EXPENSE or ADJUSTMENT).",
	}, []string{"type"})

	// ExpensesVoided counts successful voids.
	ExpensesVoided = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_expenses_voided_total",
		Help: "Expenses voided.",
	})

	// SettlementsCreated counts settlements entering PENDING.
	SettlementsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_settlements_created_total",
		Help: "Settlements created.",
	})

	// SettlementsPaid counts PENDING to PAID transitions.
	SettlementsPaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_settlements_paid_total",
		Help: "Settlements marked paid.",
	})

	// CommandsRejected counts rejected commands by error kind.
	CommandsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_commands_rejected_total",
		Help: "Rejected ledger commands, labeled by error kind.",
	}, []string{"kind"})

	// HTTPDuration observes request latency per route and status.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Rejected records a rejected command when err carries a ledger kind.
func Rejected(err error) {
	if kind := ledger.KindOf(err); kind != "" {
		CommandsRejected.WithLabelValues(string(kind)).Inc()
	}
}
