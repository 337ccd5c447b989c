package services

import (
	"time"

	"github.com/reisftw/duogesto/internal/core"
	"github.com/shopspring/decimal"
)

// AccumulatedBalance replays every month from the accounting start up to and
// including the target month and returns the running net balance.
//
// start is the user's accounting start date, or a later reset checkpoint if
// the ledger was zeroed; records dated before it never contribute. A zero
// start falls back to the earliest record date, so a fresh account replays
// its full history. The replay is O(months x records) on purpose; callers
// that need it faster cache the result keyed by the same inputs.
func AccumulatedBalance(incomes []core.Income, expenses []core.Expense, start time.Time, year int, month time.Month) decimal.Decimal {
	if start.IsZero() {
		start = earliestReference(incomes, expenses)
	}
	if start.IsZero() {
		return decimal.Zero
	}

	cutoff := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	incomes = incomesSince(incomes, cutoff)
	expenses = expensesSince(expenses, cutoff)

	total := decimal.Zero
	cursor := cutoff
	target := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(target) {
		s := StatsForMonth(incomes, expenses, cursor.Year(), cursor.Month())
		total = total.Add(s.Net)
		cursor = cursor.AddDate(0, 1, 0)
	}
	return total
}

func incomesSince(incomes []core.Income, cutoff time.Time) []core.Income {
	out := make([]core.Income, 0, len(incomes))
	for _, in := range incomes {
		ref := in.EffectiveDate
		if ref.IsZero() {
			ref = in.CreatedAt
		}
		if !ref.IsZero() && !ref.Before(cutoff) {
			out = append(out, in)
		}
	}
	return out
}

func expensesSince(expenses []core.Expense, cutoff time.Time) []core.Expense {
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		ref := e.StartDate
		if ref.IsZero() {
			ref = e.CreatedAt
		}
		if !ref.IsZero() && !ref.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

func earliestReference(incomes []core.Income, expenses []core.Expense) time.Time {
	var earliest time.Time
	consider := func(t time.Time) {
		if t.IsZero() {
			return
		}
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
	}
	for _, in := range incomes {
		if in.EffectiveDate.IsZero() {
			consider(in.CreatedAt)
		} else {
			consider(in.EffectiveDate)
		}
	}
	for _, e := range expenses {
		if e.StartDate.IsZero() {
			consider(e.CreatedAt)
		} else {
			consider(e.StartDate)
		}
	}
	return earliest
}
