// Package metrics exposes Prometheus collectors for the RPC layer and the ledger.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coven"

// Metrics holds the registry and every collector the server exports.
type Metrics struct {
	registry *prometheus.Registry

	RPCRequests         *prometheus.CounterVec
	RPCDuration         *prometheus.HistogramVec
	ExpensesRecorded    prometheus.Counter
	ExpenseFailures     *prometheus.CounterVec
	SettlementsRecorded prometheus.Counter
}

// New creates a Metrics with its own registry, including Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		ExpensesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_recorded_total",
			Help:      "Expenses fully applied to guest balances.",
		}),
		ExpenseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expense_failures_total",
			Help:      "Rejected or failed expenses by reason.",
		}, []string{"reason"}),
		SettlementsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_recorded_total",
			Help:      "Payments between guests applied to balances.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RPCRequests,
		m.RPCDuration,
		m.ExpensesRecorded,
		m.ExpenseFailures,
		m.SettlementsRecorded,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRPC counts one call and records its latency.
func (m *Metrics) ObserveRPC(procedure, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.RPCRequests.WithLabelValues(procedure, code).Inc()
	m.RPCDuration.WithLabelValues(procedure).Observe(d.Seconds())
}

// ExpenseRecorded counts one fully applied expense.
func (m *Metrics) ExpenseRecorded() {
	if m == nil {
		return
	}
	m.ExpensesRecorded.Inc()
}

// ExpenseFailed counts one rejected or failed expense.
func (m *Metrics) ExpenseFailed(reason string) {
	if m == nil {
		return
	}
	m.ExpenseFailures.WithLabelValues(reason).Inc()
}

// SettlementRecorded counts one applied settlement.
func (m *Metrics) SettlementRecorded() {
	if m == nil {
		return
	}
	m.SettlementsRecorded.Inc()
}
