// Package services contains the business logic: monthly accrual of recurring
// records, balance aggregation, goal ledger bookkeeping and installment
// tracking. Everything here is deterministic given its inputs.
package services

import (
	"time"

	"github.com/reisftw/duogesto/internal/core"
	"github.com/shopspring/decimal"
)

// Activity is the outcome of testing one record against a target month:
// whether the record contributes that month and how much.
type Activity struct {
	Active bool
	Amount decimal.Decimal

	// Installment is the 1-based installment number due in the target month.
	// Only set for installment expenses.
	Installment int
}

var inactive = Activity{Amount: decimal.Zero}

// monthsSince returns whole months elapsed from the reference date's month
// to the target month. The boolean is false when the reference date is
// unusable; callers must treat that as "inactive" rather than letting a
// garbage diff poison the monthly sums.
func monthsSince(ref time.Time, year int, month time.Month) (int, bool) {
	if ref.IsZero() {
		return 0, false
	}
	diff := (year*12 + int(month) - 1) - (ref.Year()*12 + int(ref.Month()) - 1)
	return diff, true
}

// IncomeActivity decides whether an income contributes to the target month.
//
// One-time incomes hit exactly their own month, fixed-monthly incomes every
// month from the effective date onward, and period incomes the first
// PeriodMonths months. A record never activates before its effective month.
func IncomeActivity(in core.Income, year int, month time.Month) Activity {
	ref := in.EffectiveDate
	if ref.IsZero() {
		ref = in.CreatedAt
	}
	diff, ok := monthsSince(ref, year, month)
	if !ok || diff < 0 {
		return inactive
	}

	switch in.Recurrence {
	case core.FixedMonthly:
		return Activity{Active: true, Amount: in.Amount}
	case core.Period:
		if diff < in.PeriodMonths {
			return Activity{Active: true, Amount: in.Amount}
		}
	default:
		if diff == 0 {
			return Activity{Active: true, Amount: in.Amount}
		}
	}
	return inactive
}

// ExpenseActivity decides whether an expense contributes to the target month.
//
// Installment expenses contribute their per-installment unit for
// InstallmentCount consecutive months, and the installment number due in the
// target month is diff+1.
func ExpenseActivity(e core.Expense, year int, month time.Month) Activity {
	ref := e.StartDate
	if ref.IsZero() {
		ref = e.CreatedAt
	}
	diff, ok := monthsSince(ref, year, month)
	if !ok || diff < 0 {
		return inactive
	}

	switch e.Recurrence {
	case core.FixedMonthly:
		return Activity{Active: true, Amount: e.Amount}
	case core.Installment:
		if diff < e.InstallmentCount {
			return Activity{Active: true, Amount: e.InstallmentUnit(), Installment: diff + 1}
		}
	default:
		if diff == 0 {
			return Activity{Active: true, Amount: e.Amount}
		}
	}
	return inactive
}

// MonthStats aggregates one month's active contributions.
type MonthStats struct {
	Year    int
	Month   time.Month
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// StatsForMonth runs the activity tests over full record sets. Each record is
// tested independently, so a record can never be counted twice for the same
// month.
func StatsForMonth(incomes []core.Income, expenses []core.Expense, year int, month time.Month) MonthStats {
	s := MonthStats{Year: year, Month: month, Income: decimal.Zero, Expense: decimal.Zero}
	for _, in := range incomes {
		if a := IncomeActivity(in, year, month); a.Active {
			s.Income = s.Income.Add(a.Amount)
		}
	}
	for _, e := range expenses {
		if a := ExpenseActivity(e, year, month); a.Active {
			s.Expense = s.Expense.Add(a.Amount)
		}
	}
	s.Net = s.Income.Sub(s.Expense)
	return s
}
