// Package metrics provides Prometheus metrics collection for clubgate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for clubgate.
type Collector struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Billing metrics
	InvoicesCreated  *prometheus.CounterVec
	ReferenceRetries prometheus.Counter
	InvoiceConflicts *prometheus.CounterVec

	// Lifecycle metrics
	TransactionsCompleted prometheus.Counter
	ExpiryExtensions      prometheus.Counter
	VersionConflicts      prometheus.Counter
	SubscriptionsExpired  prometheus.Counter

	// Renewal metrics
	Renewals          *prometheus.CounterVec
	Upgrades          prometheus.Counter
	EligibilityDenied *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a new metrics collector registered on the default
// registry.
func New() *Collector {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a collector registered on reg. Tests pass their own
// registry so parallel tests do not collide.
func NewWith(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "clubgate",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "clubgate",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "path"},
		),
		InvoicesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "clubgate",
				Name:      "invoices_created_total",
				Help:      "Invoices created, by billing type",
			},
			[]string{"billing_type"},
		),
		ReferenceRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "clubgate",
				Name:      "invoice_reference_retries_total",
				Help:      "Invoice reference candidates regenerated after a uniqueness conflict",
			},
		),
		InvoiceConflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "clubgate",
				Name:      "invoice_conflicts_total",
				Help:      "Invoice creations rejected, by reason",
			},
			[]string{"reason"},
		),
		TransactionsCompleted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "clubgate",
				Name:      "transactions_completed_total",
				Help:      "Payment transactions marked completed",
			},
		),
		ExpiryExtensions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "clubgate",
				Name:      "expiry_extensions_total",
				Help:      "Subscription end dates extended by a completed payment",
			},
		),
		VersionConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "clubgate",
				Name:      "subscription_version_conflicts_total",
				Help:      "Optimistic concurrency conflicts on subscription writes",
			},
		),
		SubscriptionsExpired: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "clubgate",
				Name:      "subscriptions_expired_total",
				Help:      "Subscriptions moved to expired by the due sweep",
			},
		),
		Renewals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "clubgate",
				Name:      "renewals_total",
				Help:      "Renewals executed, by renewal kind",
			},
			[]string{"kind"},
		),
		Upgrades: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "clubgate",
				Name:      "upgrades_total",
				Help:      "Plan upgrades executed",
			},
		),
		EligibilityDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "clubgate",
				Name:      "eligibility_denied_total",
				Help:      "Renewal/upgrade requests denied, by operation",
			},
			[]string{"operation"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "clubgate",
				Name:      "config_reloads_total",
				Help:      "Successful configuration reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "clubgate",
				Name:      "config_reload_errors_total",
				Help:      "Failed configuration reloads",
			},
		),
	}
}
