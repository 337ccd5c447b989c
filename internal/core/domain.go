package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// Income recurrence kinds.
	OneTime      RecurrenceKind = "one_time"
	FixedMonthly RecurrenceKind = "fixed"
	Period       RecurrenceKind = "period"

	// Expense-only recurrence kind. Expenses also use OneTime and FixedMonthly.
	Installment RecurrenceKind = "installment"
)

const (
	IncomeCategory  CategoryKind = "income"
	ExpenseCategory CategoryKind = "expense"
)

const (
	RoleAdmin     Role = "admin"
	RoleSuperuser Role = "superuser"
	RoleUser      Role = "user"
)

type (
	RecurrenceKind string
	CategoryKind   string
	Role           string

	// Income is a money inflow. For Period incomes, PeriodMonths bounds the
	// number of months the record stays active; it is ignored otherwise.
	Income struct {
		ID            string
		Description   string
		Amount        decimal.Decimal
		Category      string
		Recurrence    RecurrenceKind
		PeriodMonths  int
		EffectiveDate time.Time
		Owner         string
		CreatedAt     time.Time
	}

	// Payment marks a single numbered installment of an Expense as paid.
	Payment struct {
		Installment int       `json:"installment"`
		PaidAt      time.Time `json:"paid_at"`
		By          string    `json:"by"`
	}

	// Expense is a money outflow. When Recurrence is Installment, Amount is
	// the total debt and the per-month unit is Amount / InstallmentCount.
	Expense struct {
		ID               string
		Description      string
		Amount           decimal.Decimal
		Category         string
		Recurrence       RecurrenceKind
		InstallmentCount int
		StartDate        time.Time
		Payments         []Payment
		Owner            string
		CreatedAt        time.Time
	}

	// Goal is a named savings target. CurrentAmount is a cached sum of the
	// goal's movements, maintained by the callers that write movements.
	Goal struct {
		ID            string
		Title         string
		Institution   string
		AccountRef    string
		Owner         string
		CurrentAmount decimal.Decimal
		GoalAmount    decimal.Decimal
		MonthlyTarget decimal.Decimal
		CreatedAt     time.Time
	}

	// Movement is one entry in a goal's append-only history. Amount is
	// signed: positive deposits, negative withdrawals.
	Movement struct {
		ID     string
		GoalID string
		Amount decimal.Decimal
		By     string
		Reason string
		Date   time.Time
	}

	Category struct {
		ID    string
		Label string
		Icon  string
		Color string
		Kind  CategoryKind
	}

	User struct {
		ID                  string
		Name                string
		Username            string
		PasswordHash        string
		Role                Role
		PartnerID           string
		AccountingStartDate time.Time
		CreatedAt           time.Time
	}
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrInvalidPeriod       = errors.New("period must be at least one month")
	ErrInvalidInstallments = errors.New("installment count must be at least one")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmptyUsername       = errors.New("empty username")
	ErrWeakPassword        = errors.New("password must be at least 8 characters")
	ErrSelfLink            = errors.New("cannot link a user to themselves")
)

// Transfer bookkeeping: a dashboard transfer into a goal mirrors itself as a
// pre-paid one-time expense so the cash-flow view reflects the outflow.
const (
	TransferCategory = "Investment"
	TransferReason   = "Goal transfer"
	DepositReason    = "Deposit"
)

func (k RecurrenceKind) ValidForIncome() bool {
	switch k {
	case OneTime, FixedMonthly, Period:
		return true
	}
	return false
}

func (k RecurrenceKind) ValidForExpense() bool {
	switch k {
	case OneTime, FixedMonthly, Installment:
		return true
	}
	return false
}

func (i Income) Validate() error {
	if len(strings.TrimSpace(i.Description)) == 0 {
		return ErrEmptyDescription
	}
	if !i.Recurrence.ValidForIncome() {
		return errors.New("invalid income recurrence: " + string(i.Recurrence))
	}
	if i.Recurrence == Period && i.PeriodMonths < 1 {
		return ErrInvalidPeriod
	}
	return nil
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if !e.Recurrence.ValidForExpense() {
		return errors.New("invalid expense recurrence: " + string(e.Recurrence))
	}
	if e.Recurrence == Installment && e.InstallmentCount < 1 {
		return ErrInvalidInstallments
	}
	return nil
}

// InstallmentUnit returns the per-month contribution of an installment
// expense. For non-installment expenses it returns the full amount.
func (e Expense) InstallmentUnit() decimal.Decimal {
	if e.Recurrence != Installment || e.InstallmentCount < 1 {
		return e.Amount
	}
	return e.Amount.Div(decimal.NewFromInt(int64(e.InstallmentCount)))
}

// IsPaid reports whether installment n has been marked paid.
func (e Expense) IsPaid(n int) bool {
	for _, p := range e.Payments {
		if p.Installment == n {
			return true
		}
	}
	return false
}

func (g Goal) Validate() error {
	if len(strings.TrimSpace(g.Title)) == 0 {
		return errors.New("empty goal title")
	}
	if g.GoalAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// CoupleIDs returns the ids whose records belong to the household: the user
// and, when linked, the partner.
func (u User) CoupleIDs() []string {
	ids := []string{u.ID}
	if u.PartnerID != "" {
		ids = append(ids, u.PartnerID)
	}
	return ids
}
