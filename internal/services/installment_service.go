package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reisftw/duogesto/internal/core"
)

// InstallmentStore is the persistence surface for toggling payments.
type InstallmentStore interface {
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	SetExpensePayments(ctx context.Context, id string, payments []core.Payment) error
}

// InstallmentService toggles paid/unpaid state for numbered installments.
// Installments may be paid out of order; no completeness invariant exists.
type InstallmentService struct {
	store  InstallmentStore
	events Publisher
	now    func() time.Time
}

func NewInstallmentService(store InstallmentStore, events Publisher) *InstallmentService {
	return &InstallmentService{store: store, events: events, now: time.Now}
}

// TogglePayment flips installment n: removes the payment entry if present,
// appends one otherwise. Calling it twice restores the original state.
// Returns the new paid state.
func (s *InstallmentService) TogglePayment(ctx context.Context, expenseID string, n int, by string) (bool, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return false, fmt.Errorf("get expense: %w", err)
	}

	var payments []core.Payment
	paid := false
	if expense.IsPaid(n) {
		for _, p := range expense.Payments {
			if p.Installment != n {
				payments = append(payments, p)
			}
		}
	} else {
		payments = append(expense.Payments, core.Payment{
			Installment: n,
			PaidAt:      s.now(),
			By:          by,
		})
		paid = true
	}

	if err := s.store.SetExpensePayments(ctx, expenseID, payments); err != nil {
		return false, fmt.Errorf("update payments: %w", err)
	}

	slog.InfoContext(ctx, "Installment toggled",
		"expense_id", expenseID,
		"installment", n,
		"paid", paid)
	if s.events != nil {
		if err := s.events.PublishChange(ctx, "expenses", "update", expenseID); err != nil {
			slog.WarnContext(ctx, "Failed to publish change event", "expense_id", expenseID, "error", err)
		}
	}
	return paid, nil
}
