package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/reisftw/duogesto/internal/core"
)

// Record payloads accept the loose legacy field combinations (type strings,
// isFixed/isInstallment flags, month-count sentinels) and normalize them to
// the closed recurrence kinds at this boundary.

type incomeRequest struct {
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	Category      string `json:"category"`
	Type          string `json:"type"`
	TotalMonths   int    `json:"total_months"`
	EffectiveDate string `json:"effective_date"`
	Owner         string `json:"owner"`
}

type incomeView struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	Category      string `json:"category"`
	Type          string `json:"type"`
	TotalMonths   int    `json:"total_months,omitempty"`
	EffectiveDate string `json:"effective_date,omitempty"`
	Owner         string `json:"owner,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func viewDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toIncomeView(in core.Income) incomeView {
	return incomeView{
		ID:            in.ID,
		Description:   in.Description,
		Amount:        in.Amount.String(),
		Category:      in.Category,
		Type:          string(in.Recurrence),
		TotalMonths:   in.PeriodMonths,
		EffectiveDate: viewDate(in.EffectiveDate),
		Owner:         in.Owner,
		CreatedAt:     viewDate(in.CreatedAt),
	}
}

func (s *Server) incomeFromRequest(req incomeRequest) (core.Income, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Income{}, err
	}
	effective, err := parseDate(req.EffectiveDate)
	if err != nil {
		return core.Income{}, err
	}
	kind, months := core.NormalizeIncomeKind(req.Type, req.TotalMonths)
	return core.Income{
		Description:   sanitizeInput(req.Description),
		Amount:        amount,
		Category:      sanitizeInput(req.Category),
		Recurrence:    kind,
		PeriodMonths:  months,
		EffectiveDate: effective,
		Owner:         req.Owner,
	}, nil
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	incomes, err := s.store.ListIncomes(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	views := make([]incomeView, 0, len(incomes))
	for _, in := range incomes {
		views = append(views, toIncomeView(in))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	income, err := s.incomeFromRequest(req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := s.store.CreateIncome(r.Context(), income)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateViews()
	s.publish(r, "incomes", "create", id)

	created, err := s.store.GetIncome(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toIncomeView(created))
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	income, err := s.incomeFromRequest(req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	income.ID = r.PathValue("id")
	if err := s.store.UpdateIncome(r.Context(), income); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateViews()
	s.publish(r, "incomes", "update", income.ID)
	respondJSON(w, http.StatusOK, toIncomeView(income))
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteIncome(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateViews()
	s.publish(r, "incomes", "delete", id)
	respondJSON(w, http.StatusNoContent, nil)
}

type expenseRequest struct {
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	Category      string `json:"category"`
	Type          string `json:"type"`
	IsFixed       bool   `json:"is_fixed"`
	IsInstallment bool   `json:"is_installment"`
	Installments  int    `json:"installments"`
	StartDate     string `json:"start_date"`
	Owner         string `json:"owner"`
}

type paymentView struct {
	Installment int    `json:"installment"`
	PaidAt      string `json:"paid_at"`
	By          string `json:"by"`
}

type expenseView struct {
	ID              string        `json:"id"`
	Description     string        `json:"description"`
	Amount          string        `json:"amount"`
	Category        string        `json:"category"`
	Type            string        `json:"type"`
	Installments    int           `json:"installments,omitempty"`
	InstallmentUnit string        `json:"installment_unit,omitempty"`
	StartDate       string        `json:"start_date,omitempty"`
	Payments        []paymentView `json:"payments"`
	Owner           string        `json:"owner,omitempty"`
	CreatedAt       string        `json:"created_at"`
}

func toExpenseView(e core.Expense) expenseView {
	view := expenseView{
		ID:           e.ID,
		Description:  e.Description,
		Amount:       e.Amount.String(),
		Category:     e.Category,
		Type:         string(e.Recurrence),
		Installments: e.InstallmentCount,
		StartDate:    viewDate(e.StartDate),
		Payments:     make([]paymentView, 0, len(e.Payments)),
		Owner:        e.Owner,
		CreatedAt:    viewDate(e.CreatedAt),
	}
	if e.Recurrence == core.Installment {
		view.InstallmentUnit = e.InstallmentUnit().String()
	}
	for _, p := range e.Payments {
		view.Payments = append(view.Payments, paymentView{
			Installment: p.Installment,
			PaidAt:      viewDate(p.PaidAt),
			By:          p.By,
		})
	}
	return view
}

func (s *Server) expenseFromRequest(req expenseRequest) (core.Expense, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return core.Expense{}, err
	}
	kind, count := core.NormalizeExpenseKind(req.Type, req.IsFixed, req.IsInstallment, req.Installments)
	return core.Expense{
		Description:      sanitizeInput(req.Description),
		Amount:           amount,
		Category:         sanitizeInput(req.Category),
		Recurrence:       kind,
		InstallmentCount: count,
		StartDate:        start,
		Owner:            req.Owner,
	}, nil
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.store.ListExpenses(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	views := make([]expenseView, 0, len(expenses))
	for _, e := range expenses {
		views = append(views, toExpenseView(e))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	expense, err := s.expenseFromRequest(req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := s.store.CreateExpense(r.Context(), expense)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateViews()
	s.publish(r, "expenses", "create", id)

	created, err := s.store.GetExpense(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toExpenseView(created))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	expense, err := s.expenseFromRequest(req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	expense.ID = r.PathValue("id")

	// Updates keep the existing payment marks.
	current, err := s.store.GetExpense(r.Context(), expense.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	expense.Payments = current.Payments
	expense.CreatedAt = current.CreatedAt

	if err := s.store.UpdateExpense(r.Context(), expense); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateViews()
	s.publish(r, "expenses", "update", expense.ID)
	respondJSON(w, http.StatusOK, toExpenseView(expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteExpense(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateViews()
	s.publish(r, "expenses", "delete", id)
	respondJSON(w, http.StatusNoContent, nil)
}

type togglePaymentRequest struct {
	By string `json:"by"`
}

func (s *Server) handleTogglePayment(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || n < 1 {
		respondError(w, r, badRequest("invalid installment number %q", r.PathValue("n")))
		return
	}
	var req togglePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	id := r.PathValue("id")
	paid, err := s.installments.TogglePayment(r.Context(), id, n, req.By)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateViews()

	expense, err := s.store.GetExpense(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Paid    bool        `json:"paid"`
		Expense expenseView `json:"expense"`
	}{Paid: paid, Expense: toExpenseView(expense)})
}
