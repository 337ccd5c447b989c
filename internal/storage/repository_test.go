package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/reisftw/duogesto/internal/core"
	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "duogesto.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestExpenseRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	paidAt := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	id, err := repo.CreateExpense(ctx, core.Expense{
		Description:      "Sofa",
		Amount:           decimal.RequireFromString("1800.50"),
		Category:         "furniture",
		Recurrence:       core.Installment,
		InstallmentCount: 10,
		StartDate:        time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
		Payments:         []core.Payment{{Installment: 1, PaidAt: paidAt, By: "ana"}},
		Owner:            "ana",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetExpense(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("1800.50")) {
		t.Fatalf("amount = %s, want 1800.50", got.Amount)
	}
	if got.Recurrence != core.Installment || got.InstallmentCount != 10 {
		t.Fatalf("recurrence = %s/%d, want installment/10", got.Recurrence, got.InstallmentCount)
	}
	if len(got.Payments) != 1 || got.Payments[0].By != "ana" || !got.Payments[0].PaidAt.Equal(paidAt) {
		t.Fatalf("payments = %+v", got.Payments)
	}
	if !got.IsPaid(1) || got.IsPaid(2) {
		t.Fatal("paid state did not survive the round trip")
	}
}

func TestSetExpensePayments(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateExpense(ctx, core.Expense{
		Description: "Course",
		Amount:      decimal.NewFromInt(600),
		Recurrence:  core.OneTime,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	payments := []core.Payment{{Installment: 1, PaidAt: time.Now().UTC(), By: "bruno"}}
	if err := repo.SetExpensePayments(ctx, id, payments); err != nil {
		t.Fatalf("set payments: %v", err)
	}
	got, _ := repo.GetExpense(ctx, id)
	if !got.IsPaid(1) {
		t.Fatal("payment not persisted")
	}

	if err := repo.SetExpensePayments(ctx, id, nil); err != nil {
		t.Fatalf("clear payments: %v", err)
	}
	got, _ = repo.GetExpense(ctx, id)
	if len(got.Payments) != 0 {
		t.Fatalf("payments after clear = %+v, want empty", got.Payments)
	}
}

func TestGoalAndMovements(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	goalID, err := repo.CreateGoal(ctx, core.Goal{
		Title:      "Trip fund",
		GoalAmount: decimal.NewFromInt(5000),
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	if err := repo.SetGoalAmount(ctx, goalID, decimal.RequireFromString("123.45")); err != nil {
		t.Fatalf("set amount: %v", err)
	}
	goal, err := repo.GetGoal(ctx, goalID)
	if err != nil {
		t.Fatalf("get goal: %v", err)
	}
	if !goal.CurrentAmount.Equal(decimal.RequireFromString("123.45")) {
		t.Fatalf("current amount = %s", goal.CurrentAmount)
	}

	movID, err := repo.CreateMovement(ctx, core.Movement{
		GoalID: goalID,
		Amount: decimal.NewFromInt(-40),
		By:     "bruno",
		Reason: "groceries",
	})
	if err != nil {
		t.Fatalf("create movement: %v", err)
	}

	history, err := repo.ListMovements(ctx, goalID)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(history) != 1 || history[0].ID != movID {
		t.Fatalf("history = %+v", history)
	}
	if !history[0].Amount.Equal(decimal.NewFromInt(-40)) {
		t.Fatalf("movement amount = %s, want -40", history[0].Amount)
	}

	// Deleting the goal cascades to its movements.
	if err := repo.DeleteGoal(ctx, goalID); err != nil {
		t.Fatalf("delete goal: %v", err)
	}
	if _, err := repo.GetMovement(ctx, movID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("movement survived goal deletion: %v", err)
	}
}

func TestNotFoundMapping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
	}{
		{"get expense", func() error { _, err := repo.GetExpense(ctx, "nope"); return err }},
		{"get goal", func() error { _, err := repo.GetGoal(ctx, "nope"); return err }},
		{"get user", func() error { _, err := repo.GetUser(ctx, "nope"); return err }},
		{"delete income", func() error { return repo.DeleteIncome(ctx, "nope") }},
		{"update travel", func() error { return repo.UpdateTravel(ctx, core.Travel{ID: "nope", Title: "x"}) }},
		{"toggle home item", func() error { _, err := repo.ToggleHomeItemBought(ctx, "nope"); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); !errors.Is(err, core.ErrNotFound) {
				t.Fatalf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestUserUniqueUsername(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := core.User{Username: "ana", PasswordHash: "x", Role: core.RoleUser}
	if _, err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreateUser(ctx, u); err == nil {
		t.Fatal("duplicate username accepted")
	}
}

func TestZeroDatesSurviveRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:      "ana",
		Description: "Old entry",
		Value:       decimal.NewFromInt(10),
		Type:        core.Expenditure,
		Recurrence:  core.LegacyOnce,
		Date:        time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].ID != id {
		t.Fatalf("transactions = %+v", all)
	}
	if !all[0].EndDate.IsZero() {
		t.Fatalf("unset end date decoded as %v, want zero", all[0].EndDate)
	}
}
