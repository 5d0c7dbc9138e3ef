package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/clubgate/clubgate/adapters/metrics"
)

func TestCollectorRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewWith(reg)

	c.InvoicesCreated.WithLabelValues("per_pass").Inc()
	c.InvoicesCreated.WithLabelValues("per_pass").Inc()
	c.TransactionsCompleted.Inc()
	c.Renewals.WithLabelValues("early_renewal").Inc()

	if got := testutil.ToFloat64(c.InvoicesCreated.WithLabelValues("per_pass")); got != 2 {
		t.Errorf("invoices_created_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.TransactionsCompleted); got != 1 {
		t.Errorf("transactions_completed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.Renewals.WithLabelValues("early_renewal")); got != 1 {
		t.Errorf("renewals_total = %v, want 1", got)
	}
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	a := metrics.NewWith(prometheus.NewRegistry())
	b := metrics.NewWith(prometheus.NewRegistry())

	a.Upgrades.Inc()
	if got := testutil.ToFloat64(b.Upgrades); got != 0 {
		t.Errorf("second registry saw %v increments", got)
	}
}
