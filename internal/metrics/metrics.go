// Package metrics exposes prometheus instrumentation for ledger operations.
// It observes the domain through the OperationLogger hook so pkg/ledger stays
// free of metrics concerns.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/reachpay/ledger/pkg/ledger"
)

// Collector implements ledger.OperationLogger and records per-operation
// counters plus daily-cap gauges.
type Collector struct {
	registry *prometheus.Registry

	operationsTotal     *prometheus.CounterVec
	submissionsResolved *prometheus.CounterVec
	payoutsResolved     *prometheus.CounterVec
	payoutsHeld         prometheus.Counter
	limitRefusals       prometheus.Counter

	dailyLimitCents     prometheus.Gauge
	dailySpentCents     prometheus.Gauge
	dailyRemainingCents prometheus.Gauge
}

// NewCollector registers the ledger metric families on a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Collector{
		registry: registry,
		operationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Ledger service operations by name and outcome.",
		}, []string{"operation", "status"}),
		submissionsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_submissions_resolved_total",
			Help: "Submissions resolved, by decision.",
		}, []string{"decision"}),
		payoutsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_payouts_resolved_total",
			Help: "Payouts resolved, by decision.",
		}, []string{"decision"}),
		payoutsHeld: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_payouts_held_total",
			Help: "Payouts moved to hold, including cap-reduction sweeps.",
		}),
		limitRefusals: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_daily_limit_refusals_total",
			Help: "Payout approvals refused by the daily cashflow cap.",
		}),
		dailyLimitCents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_daily_limit_cents",
			Help: "Configured daily payout cap.",
		}),
		dailySpentCents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_daily_spent_cents",
			Help: "Payout cents approved inside the current window.",
		}),
		dailyRemainingCents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_daily_remaining_cents",
			Help: "Headroom left under the daily payout cap.",
		}),
	}
}

// Handler serves the registry in the prometheus exposition format.
func (collector *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(collector.registry, promhttp.HandlerOpts{})
}

// LogOperation satisfies ledger.OperationLogger.
func (collector *Collector) LogOperation(_ context.Context, entry ledger.OperationLog) {
	collector.operationsTotal.WithLabelValues(entry.Operation, entry.Status).Inc()

	if errors.Is(entry.Error, ledger.ErrDailyLimitExceeded) {
		collector.limitRefusals.Inc()
	}
	if entry.Error != nil {
		return
	}

	switch entry.Operation {
	case ledger.OperationApproveSubmission:
		collector.submissionsResolved.WithLabelValues(ledger.DecisionApprove.String()).Inc()
	case ledger.OperationRejectSubmission:
		collector.submissionsResolved.WithLabelValues(ledger.DecisionReject.String()).Inc()
	case ledger.OperationApprovePayout:
		collector.payoutsResolved.WithLabelValues(ledger.DecisionApprove.String()).Inc()
	case ledger.OperationRejectPayout:
		collector.payoutsResolved.WithLabelValues(ledger.DecisionReject.String()).Inc()
	case ledger.OperationHoldPayout:
		collector.payoutsHeld.Inc()
	}
}

// ObserveCashflow refreshes the daily-cap gauges from a governor snapshot.
func (collector *Collector) ObserveCashflow(status ledger.CashflowStatus) {
	collector.dailyLimitCents.Set(float64(status.LimitCents.Int64()))
	collector.dailySpentCents.Set(float64(status.SpentCents.Int64()))
	collector.dailyRemainingCents.Set(float64(status.RemainingCents.Int64()))
}
