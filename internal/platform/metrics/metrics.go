// Package metrics exposes Prometheus instruments for the ledger pipeline
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/startup-investment-ledger/internal/domain/shared"
)

const namespace = "investment_ledger"

// Metrics groups the counters and histograms recorded by the services
type Metrics struct {
	confirmations     *prometheus.CounterVec
	checkoutSessions  *prometheus.CounterVec
	reconcileRuns     *prometheus.CounterVec
	reconcileDrift    prometheus.Counter
	writeDuration     prometheus.Histogram
	outboxPublished   *prometheus.CounterVec
	partialCommits    prometheus.Counter
	webhookRejections prometheus.Counter
}

// New registers the instruments on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		confirmations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmations_total",
			Help:      "Payment confirmations handled by the ledger writer, by source and outcome.",
		}, []string{"source", "outcome"}),
		checkoutSessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_sessions_total",
			Help:      "Checkout sessions requested from the payment processor, by result.",
		}, []string{"provider", "result"}),
		reconcileRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Startup reconciliations, by whether the counter was adjusted.",
		}, []string{"adjusted"}),
		reconcileDrift: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_drift_minor_units_total",
			Help:      "Absolute funding counter drift corrected by reconciliation, in minor units.",
		}),
		writeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_write_duration_seconds",
			Help:      "Latency of ledger write transactions.",
			Buckets:   prometheus.DefBuckets,
		}),
		outboxPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_messages_total",
			Help:      "Outbox messages handled by the poller, by status.",
		}, []string{"status"}),
		partialCommits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partial_commits_total",
			Help:      "Ledger writes whose commit outcome was unknown.",
		}),
		webhookRejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_signature_rejections_total",
			Help:      "Webhook deliveries rejected for a bad signature.",
		}),
	}
}

// Noop returns instruments bound to a private registry, for tools and tests
// that do not expose /metrics
func Noop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) ObserveConfirmation(source shared.ConfirmationSource, outcome string) {
	m.confirmations.WithLabelValues(string(source), outcome).Inc()
}

func (m *Metrics) ObserveCheckoutSession(provider string, err error) {
	result := "created"
	if err != nil {
		result = "error"
	}
	m.checkoutSessions.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) ObserveReconcile(result *shared.ReconcileResult) {
	if !result.Adjusted {
		m.reconcileRuns.WithLabelValues("false").Inc()
		return
	}
	m.reconcileRuns.WithLabelValues("true").Inc()

	drift := result.Recomputed - result.Previous
	if drift < 0 {
		drift = -drift
	}
	m.reconcileDrift.Add(float64(drift))
}

func (m *Metrics) ObserveWrite(start time.Time) {
	m.writeDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveOutbox(status shared.OutboxStatus) {
	m.outboxPublished.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) ObservePartialCommit() {
	m.partialCommits.Inc()
}

func (m *Metrics) ObserveWebhookRejection() {
	m.webhookRejections.Inc()
}
