package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/reisftw/duogesto/internal/core"
	"github.com/reisftw/duogesto/internal/services"
)

// DashboardResponse is the month view over the current records: what is
// active this month, the month's totals and the balance accumulated since
// the accounting start.
type DashboardResponse struct {
	Year        int           `json:"year"`
	Month       int           `json:"month"`
	Income      string        `json:"income"`
	Expense     string        `json:"expense"`
	Net         string        `json:"net"`
	Accumulated string        `json:"accumulated"`
	Incomes     []incomeView  `json:"incomes"`
	Expenses    []expenseView `json:"expenses"`
}

func (s *Server) dashboardKey(userID string, year int, month time.Month) string {
	return userID + "|" + strconv.Itoa(year) + "-" + strconv.Itoa(int(month))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year, month, err := monthQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	userID := r.URL.Query().Get("user_id")

	key := s.dashboardKey(userID, year, month)
	if cached, found := s.dashboardCache.Get(key); found {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	var start time.Time
	if userID != "" {
		user, err := s.store.GetUser(r.Context(), userID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		start = user.AccountingStartDate
	}

	incomes, err := s.store.ListIncomes(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	expenses, err := s.store.ListExpenses(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	stats := services.StatsForMonth(incomes, expenses, year, month)
	accumulated := services.AccumulatedBalance(incomes, expenses, start, year, month)

	resp := DashboardResponse{
		Year:        year,
		Month:       int(month),
		Income:      stats.Income.String(),
		Expense:     stats.Expense.String(),
		Net:         stats.Net.String(),
		Accumulated: accumulated.String(),
	}
	for _, in := range incomes {
		if services.IncomeActivity(in, year, month).Active {
			resp.Incomes = append(resp.Incomes, toIncomeView(in))
		}
	}
	for _, e := range expenses {
		if services.ExpenseActivity(e, year, month).Active {
			resp.Expenses = append(resp.Expenses, toExpenseView(e))
		}
	}

	s.dashboardCache.Set(key, resp)
	respondJSON(w, http.StatusOK, resp)
}

type categoryAmountView struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Color    string `json:"color,omitempty"`
	Amount   string `json:"amount"`
}

type reportResponse struct {
	Year        int                  `json:"year"`
	Month       int                  `json:"month"`
	Income      string               `json:"income"`
	Expense     string               `json:"expense"`
	Net         string               `json:"net"`
	Accumulated string               `json:"accumulated"`
	Entries     []transactionView    `json:"entries"`
	ByCategory  []categoryAmountView `json:"by_category"`
}

// handleReport serves the legacy couple report over the finances ledger.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	year, month, err := monthQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, r, badRequest("user_id is required"))
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	key := s.dashboardKey(userID, year, month)
	report, found := s.reportCache.Get(key)
	if !found {
		ledger, err := s.store.ListTransactions(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		categories, err := s.store.ListCategories(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		report = services.BuildCoupleReport(ledger, categories, user, year, month)
		s.reportCache.Set(key, report)
	}

	resp := reportResponse{
		Year:        report.Year,
		Month:       int(report.Month),
		Income:      report.Income.String(),
		Expense:     report.Expense.String(),
		Net:         report.Net.String(),
		Accumulated: report.Accumulated.String(),
		Entries:     make([]transactionView, 0, len(report.Entries)),
	}
	for _, tr := range report.Entries {
		resp.Entries = append(resp.Entries, toTransactionView(tr))
	}
	for _, c := range report.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryAmountView{
			Category: c.Category,
			Label:    c.Label,
			Color:    c.Color,
			Amount:   c.Amount.String(),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

type transactionRequest struct {
	UserID      string `json:"user_id"`
	Description string `json:"description"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Recurrence  string `json:"recurrence"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	EndDate     string `json:"end_date"`
}

type transactionView struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Description string `json:"description"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Recurrence  string `json:"recurrence"`
	Category    string `json:"category,omitempty"`
	Date        string `json:"date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

func toTransactionView(tr core.Transaction) transactionView {
	return transactionView{
		ID:          tr.ID,
		UserID:      tr.UserID,
		Description: tr.Description,
		Value:       tr.Value.String(),
		Type:        string(tr.Type),
		Recurrence:  string(tr.Recurrence),
		Category:    tr.Category,
		Date:        viewDate(tr.Date),
		EndDate:     viewDate(tr.EndDate),
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.store.ListTransactions(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	views := make([]transactionView, 0, len(ledger))
	for _, tr := range ledger {
		views = append(views, toTransactionView(tr))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	value, err := core.ParseAmount(req.Value)
	if err != nil {
		respondError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(w, r, err)
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		respondError(w, r, err)
		return
	}

	typ := core.TransactionType(req.Type)
	if typ != core.Gain && typ != core.Expenditure {
		respondError(w, r, badRequest("invalid transaction type %q", req.Type))
		return
	}
	recurrence := core.LegacyRecurrence(req.Recurrence)
	if recurrence == "" {
		recurrence = core.LegacyOnce
	}

	tr := core.Transaction{
		UserID:      req.UserID,
		Description: sanitizeInput(req.Description),
		Value:       value,
		Type:        typ,
		Recurrence:  recurrence,
		Category:    req.Category,
		Date:        date,
		EndDate:     endDate,
	}
	tr.ID, err = s.store.CreateTransaction(r.Context(), tr)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateViews()
	s.publish(r, "finances", "create", tr.ID)
	respondJSON(w, http.StatusCreated, toTransactionView(tr))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteTransaction(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateViews()
	s.publish(r, "finances", "delete", id)
	respondJSON(w, http.StatusNoContent, nil)
}
