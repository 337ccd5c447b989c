package services

import (
	"time"

	"github.com/reisftw/duogesto/internal/core"
	"github.com/shopspring/decimal"
)

// CategoryAmount is one slice of the report's expense breakdown.
type CategoryAmount struct {
	Category string
	Label    string
	Color    string
	Amount   decimal.Decimal
}

// CoupleReport is the month view over the legacy "finances" ledger: the
// couple's gains, expenditures and running balance, plus the per-category
// expense breakdown for the chart.
type CoupleReport struct {
	Year        int
	Month       time.Month
	Income      decimal.Decimal
	Expense     decimal.Decimal
	Net         decimal.Decimal
	Accumulated decimal.Decimal
	Entries     []core.Transaction
	ByCategory  []CategoryAmount
}

// legacyMonthEntries selects the ledger entries counting toward one month.
// Fixed entries recur from their date onward, duration entries cover the
// months their [date, endDate] range overlaps, everything else hits exactly
// its own month. Entries owned by outsiders or dated before the accounting
// start never count.
func legacyMonthEntries(ledger []core.Transaction, coupleIDs []string, start time.Time, year int, month time.Month) []core.Transaction {
	firstDay := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstDay.AddDate(0, 1, 0).Add(-time.Second)

	owned := make(map[string]bool, len(coupleIDs))
	for _, id := range coupleIDs {
		owned[id] = true
	}

	var out []core.Transaction
	for _, tr := range ledger {
		if !owned[tr.UserID] || tr.Date.IsZero() {
			continue
		}
		if !start.IsZero() && tr.Date.Before(start) {
			continue
		}
		switch tr.Recurrence {
		case core.LegacyFixed:
			if !tr.Date.After(lastDay) {
				out = append(out, tr)
			}
		case core.LegacyDuration:
			if !tr.Date.After(lastDay) && !tr.EndDate.Before(firstDay) {
				out = append(out, tr)
			}
		default:
			if tr.Date.Year() == year && tr.Date.Month() == month {
				out = append(out, tr)
			}
		}
	}
	return out
}

func legacyMonthNet(entries []core.Transaction) (income, expense decimal.Decimal) {
	income, expense = decimal.Zero, decimal.Zero
	for _, tr := range entries {
		switch tr.Type {
		case core.Gain:
			income = income.Add(tr.Value)
		case core.Expenditure:
			expense = expense.Add(tr.Value)
		}
	}
	return income, expense
}

// BuildCoupleReport replays the legacy ledger from the user's accounting
// start month through the target month.
func BuildCoupleReport(ledger []core.Transaction, categories []core.Category, user core.User, year int, month time.Month) CoupleReport {
	ids := user.CoupleIDs()
	start := user.AccountingStartDate

	accumulated := decimal.Zero
	if !start.IsZero() {
		cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		target := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		for cursor.Before(target) {
			in, out := legacyMonthNet(legacyMonthEntries(ledger, ids, start, cursor.Year(), cursor.Month()))
			accumulated = accumulated.Add(in.Sub(out))
			cursor = cursor.AddDate(0, 1, 0)
		}
	}

	entries := legacyMonthEntries(ledger, ids, start, year, month)
	income, expense := legacyMonthNet(entries)
	net := income.Sub(expense)

	report := CoupleReport{
		Year:        year,
		Month:       month,
		Income:      income,
		Expense:     expense,
		Net:         net,
		Accumulated: accumulated.Add(net),
		Entries:     entries,
	}

	for _, cat := range categories {
		total := decimal.Zero
		for _, tr := range entries {
			if tr.Type == core.Expenditure && tr.Category == cat.ID {
				total = total.Add(tr.Value)
			}
		}
		if total.IsPositive() {
			report.ByCategory = append(report.ByCategory, CategoryAmount{
				Category: cat.ID,
				Label:    cat.Label,
				Color:    cat.Color,
				Amount:   total,
			})
		}
	}
	return report
}
