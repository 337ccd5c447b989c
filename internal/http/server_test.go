package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reisftw/duogesto/internal/storage/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(":0", memory.New(), nil)
	t.Cleanup(func() {
		_ = s.Shutdown(context.Background())
	})
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
	}
}

func TestLoginFlow(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/users", map[string]string{
		"name":     "Ana",
		"username": "ana",
		"password": "correct-horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body)
	}
	created := decodeBody[userView](t, rec)
	if created.ID == "" || created.Username != "ana" {
		t.Fatalf("unexpected register response: %+v", created)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/login", map[string]string{
		"username": "ana",
		"password": "correct-horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/login", map[string]string{
		"username": "ana",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", rec.Code)
	}
}

func TestCreateExpense_StatusMapping(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "valid installment expense",
			body: map[string]any{
				"description":    "Sofa",
				"amount":         "2400",
				"type":           "installment",
				"is_installment": true,
				"installments":   12,
				"start_date":     "2026-01-15",
			},
			want: http.StatusCreated,
		},
		{
			name: "bad amount",
			body: map[string]any{"description": "Sofa", "amount": "not-a-number"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "empty description",
			body: map[string]any{"description": "   ", "amount": "10"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown field",
			body: map[string]any{"description": "Sofa", "amount": "10", "surprise": true},
			want: http.StatusUnprocessableEntity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/api/expenses", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d, body %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestTogglePayment_RoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"description":    "Fridge",
		"amount":         "1200",
		"type":           "installment",
		"is_installment": true,
		"installments":   6,
		"start_date":     "2026-02-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	expense := decodeBody[expenseView](t, rec)
	if expense.InstallmentUnit != "200" {
		t.Errorf("installment unit = %q, want 200", expense.InstallmentUnit)
	}

	toggle := func(want bool) {
		t.Helper()
		rec := doJSON(t, s, http.MethodPost, "/api/expenses/"+expense.ID+"/payments/3", map[string]string{"by": "ana"})
		if rec.Code != http.StatusOK {
			t.Fatalf("toggle status = %d, body %s", rec.Code, rec.Body)
		}
		resp := decodeBody[struct {
			Paid    bool        `json:"paid"`
			Expense expenseView `json:"expense"`
		}](t, rec)
		if resp.Paid != want {
			t.Errorf("paid = %v, want %v", resp.Paid, want)
		}
	}
	toggle(true)
	toggle(false)

	rec = doJSON(t, s, http.MethodPost, "/api/expenses/"+expense.ID+"/payments/zero", map[string]string{"by": "ana"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad installment number status = %d, want 422", rec.Code)
	}
}

func TestGoalMovements(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/goals", map[string]string{
		"title":       "House fund",
		"goal_amount": "50000",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal status = %d, body %s", rec.Code, rec.Body)
	}
	goal := decodeBody[goalView](t, rec)

	rec = doJSON(t, s, http.MethodPost, "/api/goals/"+goal.ID+"/deposit", map[string]string{
		"amount": "300",
		"by":     "bruno",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("deposit status = %d, body %s", rec.Code, rec.Body)
	}
	deposit := decodeBody[movementView](t, rec)
	if deposit.Amount != "300" {
		t.Errorf("deposit amount = %q, want 300", deposit.Amount)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/goals/"+goal.ID+"/withdraw", map[string]string{
		"amount": "500",
		"by":     "bruno",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("overdraw status = %d, want 409, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/movements/"+deposit.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("reverse status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/goals/"+goal.ID+"/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	history := decodeBody[[]movementView](t, rec)
	if len(history) != 0 {
		t.Errorf("history length = %d after reverse, want 0", len(history))
	}

	rec = doJSON(t, s, http.MethodGet, "/api/goals/missing/history", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown goal history status = %d, want 404", rec.Code)
	}
}

func TestRegisterValidationStatus(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/users", map[string]string{
		"name":     "Ana",
		"username": "ana",
		"password": "short",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("short password status = %d, want 422, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/users", map[string]string{
		"name":     "Ana",
		"username": "",
		"password": "correct-horse",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty username status = %d, want 422, body %s", rec.Code, rec.Body)
	}
}

func TestUpdateGoalKeepsBalance(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/goals", map[string]string{
		"title": "House fund",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal status = %d, body %s", rec.Code, rec.Body)
	}
	goal := decodeBody[goalView](t, rec)

	rec = doJSON(t, s, http.MethodPost, "/api/goals/"+goal.ID+"/deposit", map[string]string{
		"amount": "100",
		"by":     "ana",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("deposit status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/goals/"+goal.ID, map[string]string{
		"title": "Renamed fund",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}
	updated := decodeBody[goalView](t, rec)
	if updated.Title != "Renamed fund" {
		t.Errorf("title = %q, want Renamed fund", updated.Title)
	}
	if updated.CurrentAmount != "100" {
		t.Errorf("current amount after rename = %s, want 100", updated.CurrentAmount)
	}
}

func TestDashboardTotals(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/incomes", map[string]any{
		"description":    "Salary",
		"amount":         "3000",
		"type":           "fixed",
		"effective_date": "2026-01-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create income status = %d, body %s", rec.Code, rec.Body)
	}
	rec = doJSON(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"description": "Concert tickets",
		"amount":      "450",
		"type":        "one_time",
		"start_date":  "2026-03-10",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expense status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/dashboard?year=2026&month=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, body %s", rec.Code, rec.Body)
	}
	dash := decodeBody[DashboardResponse](t, rec)
	if dash.Income != "3000" || dash.Expense != "450" || dash.Net != "2550" {
		t.Errorf("month totals = %s/%s/%s, want 3000/450/2550", dash.Income, dash.Expense, dash.Net)
	}
	if dash.Accumulated != "8550" {
		t.Errorf("accumulated = %s, want 8550", dash.Accumulated)
	}
	if len(dash.Incomes) != 1 || len(dash.Expenses) != 1 {
		t.Errorf("active records = %d incomes, %d expenses, want 1 and 1", len(dash.Incomes), len(dash.Expenses))
	}

	// February predates the one-time expense.
	rec = doJSON(t, s, http.MethodGet, "/api/dashboard?year=2026&month=2", nil)
	dash = decodeBody[DashboardResponse](t, rec)
	if dash.Expense != "0" {
		t.Errorf("february expense = %s, want 0", dash.Expense)
	}
}

func TestReportRequiresUser(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/report?year=2026&month=3", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing user_id status = %d, want 422", rec.Code)
	}
}

func TestRateLimitWrites(t *testing.T) {
	s := newTestServer(t)

	var limited bool
	for i := 0; i < 70; i++ {
		rec := doJSON(t, s, http.MethodPost, "/api/rooms", map[string]string{"name": "Kitchen"})
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("writes were never rate limited")
	}

	// Reads stay unthrottled.
	rec := doJSON(t, s, http.MethodGet, "/api/rooms", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("read after limit status = %d, want 200", rec.Code)
	}
}

func TestTravelComments(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/travels", map[string]any{
		"title":       "Lisbon",
		"destination": "Portugal",
		"budget":      "1500",
		"start_date":  "2026-06-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create travel status = %d, body %s", rec.Code, rec.Body)
	}
	travel := decodeBody[travelView](t, rec)

	rec = doJSON(t, s, http.MethodPost, "/api/travels/"+travel.ID+"/comments", map[string]string{
		"by":   "ana",
		"text": "book flights early",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add comment status = %d, body %s", rec.Code, rec.Body)
	}
	updated := decodeBody[travelView](t, rec)
	if len(updated.Comments) != 1 || updated.Comments[0].Text != "book flights early" {
		t.Fatalf("comments = %+v, want the one added", updated.Comments)
	}

	// Editing the travel keeps the thread.
	rec = doJSON(t, s, http.MethodPut, "/api/travels/"+travel.ID, map[string]any{
		"title":       "Lisbon",
		"destination": "Portugal",
		"budget":      "1800",
		"start_date":  "2026-06-01",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update travel status = %d, body %s", rec.Code, rec.Body)
	}
	updated = decodeBody[travelView](t, rec)
	if updated.Budget != "1800" {
		t.Errorf("budget = %s, want 1800", updated.Budget)
	}
	if len(updated.Comments) != 1 {
		t.Errorf("comments lost on update: %+v", updated.Comments)
	}
}

func TestHomeItemToggle(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/home-items", map[string]string{
		"name":  "Dining table",
		"price": "899.90",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create item status = %d, body %s", rec.Code, rec.Body)
	}
	item := decodeBody[homeItemView](t, rec)
	if item.Bought {
		t.Error("new item already marked bought")
	}

	rec = doJSON(t, s, http.MethodPost, "/api/home-items/"+item.ID+"/toggle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decodeBody[struct {
		Bought bool `json:"bought"`
	}](t, rec)
	if !resp.Bought {
		t.Error("toggle did not mark the item bought")
	}
}
