package services

import (
	"testing"
	"time"

	"github.com/reisftw/duogesto/internal/core"
	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIncomeActivity_FixedNeverExpires(t *testing.T) {
	in := core.Income{
		Description:   "Salary",
		Amount:        decimal.NewFromInt(4200),
		Recurrence:    core.FixedMonthly,
		EffectiveDate: date(2024, time.January, 1),
	}

	months := []struct {
		year  int
		month time.Month
	}{
		{2024, time.January},
		{2024, time.June},
		{2025, time.December},
		{2031, time.March},
	}
	for _, m := range months {
		a := IncomeActivity(in, m.year, m.month)
		if !a.Active || !a.Amount.Equal(in.Amount) {
			t.Fatalf("%d-%d: got (active=%v, amount=%s), want full amount", m.year, m.month, a.Active, a.Amount)
		}
	}

	// Never pre-activated before the effective month.
	if a := IncomeActivity(in, 2023, time.December); a.Active {
		t.Fatal("fixed income active before effective date")
	}
}

func TestIncomeActivity_PeriodBounds(t *testing.T) {
	in := core.Income{
		Description:   "Contract",
		Amount:        decimal.NewFromInt(1000),
		Recurrence:    core.Period,
		PeriodMonths:  3,
		EffectiveDate: date(2024, time.January, 1),
	}

	tests := []struct {
		name  string
		year  int
		month time.Month
		want  bool
	}{
		{"first month", 2024, time.January, true},
		{"second month", 2024, time.February, true},
		{"third month", 2024, time.March, true},
		{"fourth month is out", 2024, time.April, false},
		{"before start", 2023, time.December, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := IncomeActivity(in, tt.year, tt.month)
			if a.Active != tt.want {
				t.Fatalf("active = %v, want %v", a.Active, tt.want)
			}
			if a.Active && !a.Amount.Equal(in.Amount) {
				t.Fatalf("amount = %s, want %s", a.Amount, in.Amount)
			}
		})
	}
}

func TestIncomeActivity_PeriodOfOneBehavesLikeOneTime(t *testing.T) {
	period := core.Income{
		Description: "Bonus", Amount: decimal.NewFromInt(500),
		Recurrence: core.Period, PeriodMonths: 1,
		EffectiveDate: date(2024, time.May, 10),
	}
	oneTime := period
	oneTime.Recurrence = core.OneTime

	for m := time.January; m <= time.December; m++ {
		a := IncomeActivity(period, 2024, m)
		b := IncomeActivity(oneTime, 2024, m)
		if a.Active != b.Active {
			t.Fatalf("month %s: period-of-one (%v) differs from one-time (%v)", m, a.Active, b.Active)
		}
	}
}

func TestExpenseActivity_InstallmentUnitAndNumbering(t *testing.T) {
	e := core.Expense{
		Description:      "Sofa",
		Amount:           decimal.NewFromInt(1200),
		Recurrence:       core.Installment,
		InstallmentCount: 12,
		StartDate:        date(2024, time.January, 15),
	}

	unit := decimal.NewFromInt(100)
	for m := time.January; m <= time.December; m++ {
		a := ExpenseActivity(e, 2024, m)
		if !a.Active {
			t.Fatalf("month %s: expected active", m)
		}
		if !a.Amount.Equal(unit) {
			t.Fatalf("month %s: amount = %s, want 100", m, a.Amount)
		}
		if a.Installment != int(m) {
			t.Fatalf("month %s: installment = %d, want %d", m, a.Installment, int(m))
		}
	}

	if a := ExpenseActivity(e, 2025, time.January); a.Active {
		t.Fatal("13th month should be inactive")
	}
	if a := ExpenseActivity(e, 2023, time.December); a.Active {
		t.Fatal("month before start should be inactive")
	}
}

func TestExpenseActivity_OneTimeExclusivity(t *testing.T) {
	e := core.Expense{
		Description: "Concert tickets",
		Amount:      decimal.NewFromInt(350),
		Recurrence:  core.OneTime,
		StartDate:   date(2024, time.March, 10),
	}

	if a := ExpenseActivity(e, 2024, time.March); !a.Active || !a.Amount.Equal(e.Amount) {
		t.Fatalf("March: got (active=%v, amount=%s)", a.Active, a.Amount)
	}
	for _, m := range []time.Month{time.February, time.April} {
		if a := ExpenseActivity(e, 2024, m); a.Active {
			t.Fatalf("%s: one-time expense should be inactive", m)
		}
	}
}

func TestActivity_ZeroDatesFailClosed(t *testing.T) {
	in := core.Income{Description: "ghost", Amount: decimal.NewFromInt(100), Recurrence: core.FixedMonthly}
	if a := IncomeActivity(in, 2024, time.June); a.Active {
		t.Fatal("income with no usable date must be inactive")
	}

	e := core.Expense{Description: "ghost", Amount: decimal.NewFromInt(100), Recurrence: core.FixedMonthly}
	if a := ExpenseActivity(e, 2024, time.June); a.Active {
		t.Fatal("expense with no usable date must be inactive")
	}

	// CreatedAt is the fallback reference when the explicit date is missing.
	e.CreatedAt = date(2024, time.May, 2)
	if a := ExpenseActivity(e, 2024, time.June); !a.Active {
		t.Fatal("expense should fall back to CreatedAt")
	}
}

func TestActivity_NegativeAmountFlowsThrough(t *testing.T) {
	in := core.Income{
		Description:   "correction",
		Amount:        decimal.NewFromInt(-50),
		Recurrence:    core.OneTime,
		EffectiveDate: date(2024, time.July, 1),
	}
	a := IncomeActivity(in, 2024, time.July)
	if !a.Active || !a.Amount.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("got (active=%v, amount=%s), want (-50, active)", a.Active, a.Amount)
	}
}

func TestStatsForMonth(t *testing.T) {
	incomes := []core.Income{
		{Description: "Salary", Amount: decimal.NewFromInt(3000), Recurrence: core.FixedMonthly, EffectiveDate: date(2024, time.January, 1)},
		{Description: "Bonus", Amount: decimal.NewFromInt(500), Recurrence: core.OneTime, EffectiveDate: date(2024, time.March, 5)},
	}
	expenses := []core.Expense{
		{Description: "Rent", Amount: decimal.NewFromInt(1200), Recurrence: core.FixedMonthly, StartDate: date(2024, time.January, 1)},
		{Description: "TV", Amount: decimal.NewFromInt(1200), Recurrence: core.Installment, InstallmentCount: 12, StartDate: date(2024, time.February, 1)},
	}

	s := StatsForMonth(incomes, expenses, 2024, time.March)
	if !s.Income.Equal(decimal.NewFromInt(3500)) {
		t.Fatalf("income = %s, want 3500", s.Income)
	}
	if !s.Expense.Equal(decimal.NewFromInt(1300)) {
		t.Fatalf("expense = %s, want 1300", s.Expense)
	}
	if !s.Net.Equal(decimal.NewFromInt(2200)) {
		t.Fatalf("net = %s, want 2200", s.Net)
	}
}
