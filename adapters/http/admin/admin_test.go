package admin_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clubgate/clubgate/adapters/clock"
	"github.com/clubgate/clubgate/adapters/http/admin"
	"github.com/clubgate/clubgate/adapters/idgen"
	"github.com/clubgate/clubgate/adapters/memory"
	"github.com/clubgate/clubgate/adapters/metrics"
	"github.com/clubgate/clubgate/adapters/random"
	"github.com/clubgate/clubgate/app"
)

func newTestServer(t *testing.T) (*httptest.Server, *clock.Fake) {
	t.Helper()

	fakeClock := clock.NewFake(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	plans := memory.NewPlanStore()
	members := memory.NewMemberStore()
	subs := memory.NewSubscriptionStore()
	txns := memory.NewTransactionStore()
	invoices := memory.NewInvoiceStore()
	checkins := memory.NewCheckInStore()

	ids := idgen.NewSequential("id-")
	collector := metrics.NewWith(prometheus.NewRegistry())
	logger := zerolog.Nop()
	params := func() app.BillingParams {
		return app.BillingParams{
			Currency:        "USD",
			TaxRatePercent:  decimal.Zero,
			ReferenceScheme: "sequential",
			DueDays:         14,
		}
	}

	membership := app.NewMembershipService(plans, members, subs, checkins, fakeClock, ids, logger)
	billing := app.NewBillingService(subs, plans, invoices, checkins, fakeClock, ids,
		random.NewFake(), params, collector, logger)
	lifecycle := app.NewLifecycleService(subs, plans, members, txns, invoices, fakeClock, ids, collector, logger)
	renewal := app.NewRenewalService(subs, plans, billing, lifecycle, fakeClock, collector, logger)

	h := admin.NewHandler(admin.Deps{
		Membership: membership,
		Billing:    billing,
		Lifecycle:  lifecycle,
		Renewal:    renewal,
		Logger:     logger,
	})

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv, fakeClock
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp, decoded
}

func mustStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("status = %d, want %d", resp.StatusCode, want)
	}
}

func TestPlanEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/plans", map[string]interface{}{
		"name":          "Monthly",
		"price":         "49.90",
		"duration":      1,
		"duration_unit": "months",
	})
	mustStatus(t, resp, http.StatusCreated)
	planID := created["id"].(string)

	resp, got := doJSON(t, http.MethodGet, srv.URL+"/plans/"+planID, nil)
	mustStatus(t, resp, http.StatusOK)
	if got["price"] != "49.9" {
		t.Errorf("price = %v, want 49.9", got["price"])
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/plans/ghost", nil)
	mustStatus(t, resp, http.StatusNotFound)
}

// Full happy path: plan, member, subscription, payment, renewal.
func TestSubscriptionFlow(t *testing.T) {
	srv, fakeClock := newTestServer(t)

	_, p := doJSON(t, http.MethodPost, srv.URL+"/plans", map[string]interface{}{
		"name": "Monthly", "price": "50", "duration": 1, "duration_unit": "months",
	})
	_, m := doJSON(t, http.MethodPost, srv.URL+"/members", map[string]interface{}{
		"name": "Ada", "email": "ada@example.com",
	})

	resp, sub := doJSON(t, http.MethodPost, srv.URL+"/subscriptions", map[string]interface{}{
		"subscriber_type": "member",
		"subscriber_id":   m["id"],
		"plan_id":         p["id"],
		"billing_type":    "retail_fixed",
	})
	mustStatus(t, resp, http.StatusCreated)
	if sub["status"] != "pending" {
		t.Errorf("status = %v, want pending", sub["status"])
	}
	subID := sub["id"].(string)

	resp, txn := doJSON(t, http.MethodPost, srv.URL+"/transactions", map[string]interface{}{
		"subscription_id": subID,
	})
	mustStatus(t, resp, http.StatusCreated)
	if txn["amount_due"] != "50" {
		t.Errorf("amount_due = %v, want 50", txn["amount_due"])
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/transactions/"+txn["id"].(string)+"/complete", nil)
	mustStatus(t, resp, http.StatusOK)

	resp, got := doJSON(t, http.MethodGet, srv.URL+"/subscriptions/"+subID, nil)
	mustStatus(t, resp, http.StatusOK)
	if got["status"] != "in_progress" {
		t.Errorf("status after payment = %v, want in_progress", got["status"])
	}
	if got["end_date"] != "2024-04-10T12:00:00Z" {
		t.Errorf("end_date = %v, want 2024-04-10T12:00:00Z", got["end_date"])
	}

	// Duplicate completion conflicts.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/transactions/"+txn["id"].(string)+"/complete", nil)
	mustStatus(t, resp, http.StatusConflict)

	// 25 days later a renewal is within the early window.
	fakeClock.Advance(25 * 24 * time.Hour)
	resp, renewed := doJSON(t, http.MethodPost, srv.URL+"/subscriptions/"+subID+"/renew", nil)
	mustStatus(t, resp, http.StatusCreated)
	terms := renewed["terms"].(map[string]interface{})
	if terms["kind"] != "early_renewal" {
		t.Errorf("kind = %v, want early_renewal", terms["kind"])
	}
	inv := renewed["invoice"].(map[string]interface{})
	if inv["reference"] != "INV-202404-000001" {
		t.Errorf("reference = %v, want INV-202404-000001", inv["reference"])
	}

	// A second renewal is blocked by the open invoice.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/subscriptions/"+subID+"/renew", nil)
	mustStatus(t, resp, http.StatusConflict)
}

func TestRenew_FutureNeedsForce(t *testing.T) {
	srv, _ := newTestServer(t)

	_, p := doJSON(t, http.MethodPost, srv.URL+"/plans", map[string]interface{}{
		"name": "Annual", "price": "500", "duration": 1, "duration_unit": "years",
	})
	_, m := doJSON(t, http.MethodPost, srv.URL+"/members", map[string]interface{}{"name": "Ada"})
	_, sub := doJSON(t, http.MethodPost, srv.URL+"/subscriptions", map[string]interface{}{
		"subscriber_type": "member", "subscriber_id": m["id"],
		"plan_id": p["id"], "billing_type": "retail_fixed",
	})
	subID := sub["id"].(string)

	_, txn := doJSON(t, http.MethodPost, srv.URL+"/transactions", map[string]interface{}{
		"subscription_id": subID,
	})
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/transactions/"+txn["id"].(string)+"/complete", nil)
	mustStatus(t, resp, http.StatusOK)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/subscriptions/"+subID+"/renew", nil)
	mustStatus(t, resp, http.StatusUnprocessableEntity)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/subscriptions/"+subID+"/renew",
		map[string]interface{}{"force": true})
	mustStatus(t, resp, http.StatusCreated)
}

func TestCheckInsAndPerPassAmountDue(t *testing.T) {
	srv, _ := newTestServer(t)

	_, p := doJSON(t, http.MethodPost, srv.URL+"/plans", map[string]interface{}{
		"name": "Passes", "price": "15", "duration": 1, "duration_unit": "months",
	})
	_, m := doJSON(t, http.MethodPost, srv.URL+"/members", map[string]interface{}{"name": "Ada"})
	_, sub := doJSON(t, http.MethodPost, srv.URL+"/subscriptions", map[string]interface{}{
		"subscriber_type": "member", "subscriber_id": m["id"],
		"plan_id": p["id"], "billing_type": "per_pass",
	})
	subID := sub["id"].(string)

	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/subscriptions/"+subID+"/checkins",
			map[string]interface{}{"member_id": m["id"]})
		mustStatus(t, resp, http.StatusCreated)
	}

	resp, due := doJSON(t, http.MethodGet, srv.URL+"/subscriptions/"+subID+"/amount-due", nil)
	mustStatus(t, resp, http.StatusOK)
	if due["amount"] != "30" {
		t.Errorf("amount = %v, want 30", due["amount"])
	}
	if due["check_ins"] != float64(2) {
		t.Errorf("check_ins = %v, want 2", due["check_ins"])
	}
}

func TestInvalidBodyRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/plans", bytes.NewBufferString("{not json"))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
