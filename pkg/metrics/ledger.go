package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation labels for the ledger engine metrics.
const (
	OpDirectTrade      = "direct_trade"
	OpPoolContribution = "pool_contribution"
	OpPoolSale         = "pool_sale"
	OpMembershipJoin   = "membership_join"
)

// LedgerMetrics records outcomes and latency of the core ledger operations.
type LedgerMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	minted   prometheus.Counter
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_operation_duration_seconds",
		Help:    "Duration of ledger engine operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operation_success",
		Help: "Successful ledger engine operations.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operation_failure",
		Help: "Failed ledger engine operations.",
	}, []string{"operation"})
	minted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_certificates_minted_total",
		Help: "Certificates minted by committed trades.",
	})
	reg.MustRegister(duration, success, failure, minted)
	return &LedgerMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		minted:   minted,
	}
}

// ObserveDuration records the duration for the named operation.
func (m *LedgerMetrics) ObserveDuration(operation string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (m *LedgerMetrics) IncSuccess(operation string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (m *LedgerMetrics) IncFailure(operation string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(operation)).Inc()
}

// AddMinted adds committed certificate mints to the running total.
func (m *LedgerMetrics) AddMinted(count int) {
	if m == nil || m.minted == nil || count <= 0 {
		return
	}
	m.minted.Add(float64(count))
}

func normalizeLabel(operation string) string {
	if operation == "" {
		return "unknown"
	}
	return operation
}
