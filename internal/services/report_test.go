package services

import (
	"testing"
	"time"

	"github.com/reisftw/duogesto/internal/core"
	"github.com/shopspring/decimal"
)

func testLedger() []core.Transaction {
	return []core.Transaction{
		{UserID: "ana", Description: "Salary", Value: decimal.NewFromInt(4000), Type: core.Gain, Recurrence: core.LegacyFixed, Date: date(2024, time.January, 5)},
		{UserID: "bruno", Description: "Rent", Value: decimal.NewFromInt(1500), Type: core.Expenditure, Recurrence: core.LegacyFixed, Category: "housing", Date: date(2024, time.January, 1)},
		{UserID: "ana", Description: "Course", Value: decimal.NewFromInt(300), Type: core.Expenditure, Recurrence: core.LegacyDuration, Category: "education", Date: date(2024, time.February, 1), EndDate: date(2024, time.April, 30)},
		{UserID: "bruno", Description: "Concert", Value: decimal.NewFromInt(200), Type: core.Expenditure, Recurrence: core.LegacyOnce, Category: "leisure", Date: date(2024, time.March, 12)},
		{UserID: "carla", Description: "Outsider salary", Value: decimal.NewFromInt(9000), Type: core.Gain, Recurrence: core.LegacyFixed, Date: date(2024, time.January, 1)},
	}
}

func testCouple() core.User {
	return core.User{
		ID:                  "ana",
		PartnerID:           "bruno",
		AccountingStartDate: date(2024, time.January, 1),
	}
}

func TestLegacyMonthEntries_RecurrenceRules(t *testing.T) {
	ledger := testLedger()
	ids := []string{"ana", "bruno"}
	start := date(2024, time.January, 1)

	cases := []struct {
		name  string
		month time.Month
		want  []string
	}{
		{"before duration starts", time.January, []string{"Salary", "Rent"}},
		{"duration first month", time.February, []string{"Salary", "Rent", "Course"}},
		{"one-time month", time.March, []string{"Salary", "Rent", "Course", "Concert"}},
		{"duration last month", time.April, []string{"Salary", "Rent", "Course"}},
		{"after duration ends", time.May, []string{"Salary", "Rent"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entries := legacyMonthEntries(ledger, ids, start, 2024, tc.month)
			got := map[string]bool{}
			for _, e := range entries {
				got[e.Description] = true
			}
			if len(entries) != len(tc.want) {
				t.Fatalf("got %d entries %v, want %v", len(entries), got, tc.want)
			}
			for _, desc := range tc.want {
				if !got[desc] {
					t.Fatalf("missing %q in %v", desc, got)
				}
			}
		})
	}
}

func TestLegacyMonthEntries_ExcludesOutsiders(t *testing.T) {
	entries := legacyMonthEntries(testLedger(), []string{"ana", "bruno"}, time.Time{}, 2024, time.January)
	for _, e := range entries {
		if e.UserID == "carla" {
			t.Fatalf("outsider entry leaked into the couple's month: %+v", e)
		}
	}
}

func TestLegacyMonthEntries_AccountingStartCutoff(t *testing.T) {
	// Resetting accounting at March drops the January fixed entries even
	// though fixed entries would otherwise recur forever.
	entries := legacyMonthEntries(testLedger(), []string{"ana", "bruno"}, date(2024, time.March, 1), 2024, time.March)
	if len(entries) != 1 || entries[0].Description != "Concert" {
		t.Fatalf("entries after reset = %+v, want only Concert", entries)
	}
}

func TestBuildCoupleReport(t *testing.T) {
	categories := []core.Category{
		{ID: "housing", Label: "Housing", Color: "#c0392b"},
		{ID: "education", Label: "Education", Color: "#2980b9"},
		{ID: "leisure", Label: "Leisure", Color: "#27ae60"},
		{ID: "health", Label: "Health", Color: "#8e44ad"},
	}

	report := BuildCoupleReport(testLedger(), categories, testCouple(), 2024, time.March)

	if !report.Income.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("income = %s, want 4000", report.Income)
	}
	if want := decimal.NewFromInt(2000); !report.Expense.Equal(want) { // 1500 + 300 + 200
		t.Fatalf("expense = %s, want %s", report.Expense, want)
	}
	if want := decimal.NewFromInt(2000); !report.Net.Equal(want) {
		t.Fatalf("net = %s, want %s", report.Net, want)
	}

	// Jan: 4000-1500, Feb: 4000-1800, Mar: 4000-2000.
	if want := decimal.NewFromInt(6700); !report.Accumulated.Equal(want) {
		t.Fatalf("accumulated = %s, want %s", report.Accumulated, want)
	}

	byCat := map[string]decimal.Decimal{}
	for _, c := range report.ByCategory {
		byCat[c.Category] = c.Amount
	}
	if len(byCat) != 3 {
		t.Fatalf("breakdown has %d categories, want 3 (health must be absent): %v", len(byCat), byCat)
	}
	for cat, want := range map[string]int64{"housing": 1500, "education": 300, "leisure": 200} {
		if got, ok := byCat[cat]; !ok || !got.Equal(decimal.NewFromInt(want)) {
			t.Fatalf("%s total = %s, want %d", cat, got, want)
		}
	}
}

func TestBuildCoupleReport_ReplayIsAssociative(t *testing.T) {
	ledger := testLedger()
	user := testCouple()

	for m := time.February; m <= time.June; m++ {
		prev := BuildCoupleReport(ledger, nil, user, 2024, m-1)
		cur := BuildCoupleReport(ledger, nil, user, 2024, m)
		if !cur.Accumulated.Equal(prev.Accumulated.Add(cur.Net)) {
			t.Fatalf("month %s: accumulated %s != %s + %s", m, cur.Accumulated, prev.Accumulated, cur.Net)
		}
	}
}
