package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reisftw/duogesto/internal/core"
	"github.com/shopspring/decimal"
)

// GoalStore is the persistence surface the goal ledger needs.
type GoalStore interface {
	GetGoal(ctx context.Context, id string) (core.Goal, error)
	SetGoalAmount(ctx context.Context, id string, amount decimal.Decimal) error
	CreateMovement(ctx context.Context, m core.Movement) (string, error)
	GetMovement(ctx context.Context, id string) (core.Movement, error)
	DeleteMovement(ctx context.Context, id string) error
}

// ExpenseWriter creates the mirroring expense a transfer leaves in the
// cash-flow view.
type ExpenseWriter interface {
	CreateExpense(ctx context.Context, e core.Expense) (string, error)
}

// Publisher fans a record change out to the partner's client. A nil
// publisher disables notifications; writes still succeed.
type Publisher interface {
	PublishChange(ctx context.Context, collection, op, id string) error
}

// GoalService keeps a goal's cached balance in lock-step with its
// append-only movement history. The read-modify-write on the cached amount
// is not atomic; at household scale that is an accepted risk.
type GoalService struct {
	store    GoalStore
	expenses ExpenseWriter
	events   Publisher
	now      func() time.Time
}

func NewGoalService(store GoalStore, expenses ExpenseWriter, events Publisher) *GoalService {
	return &GoalService{store: store, expenses: expenses, events: events, now: time.Now}
}

// Deposit appends a positive movement and bumps the cached balance.
func (s *GoalService) Deposit(ctx context.Context, goalID string, amount decimal.Decimal, by, reason string) (core.Movement, error) {
	if !amount.IsPositive() {
		return core.Movement{}, core.ErrInvalidAmount
	}
	if reason == "" {
		reason = core.DepositReason
	}
	return s.apply(ctx, goalID, amount, by, reason)
}

// Withdraw appends a negative movement after checking the cached balance.
// On failure nothing is written and the balance is untouched.
func (s *GoalService) Withdraw(ctx context.Context, goalID string, amount decimal.Decimal, by, reason string) (core.Movement, error) {
	if !amount.IsPositive() {
		return core.Movement{}, core.ErrInvalidAmount
	}
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return core.Movement{}, fmt.Errorf("get goal: %w", err)
	}
	if amount.GreaterThan(goal.CurrentAmount) {
		return core.Movement{}, core.ErrInsufficientFunds
	}
	return s.apply(ctx, goalID, amount.Neg(), by, reason)
}

// Transfer deposits into the goal and mirrors the outflow as a pre-paid
// one-time expense so the month's cash-flow view reflects it.
func (s *GoalService) Transfer(ctx context.Context, goalID string, amount decimal.Decimal, by string) (core.Movement, error) {
	if !amount.IsPositive() {
		return core.Movement{}, core.ErrInvalidAmount
	}
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return core.Movement{}, fmt.Errorf("get goal: %w", err)
	}

	now := s.now()
	expense := core.Expense{
		Description: "Transfer to reserve: " + goal.Title,
		Amount:      amount,
		Category:    core.TransferCategory,
		Recurrence:  core.OneTime,
		StartDate:   now,
		Payments:    []core.Payment{{Installment: 1, PaidAt: now, By: by}},
		Owner:       by,
		CreatedAt:   now,
	}
	expenseID, err := s.expenses.CreateExpense(ctx, expense)
	if err != nil {
		return core.Movement{}, fmt.Errorf("mirror transfer expense: %w", err)
	}
	s.publish(ctx, "expenses", "create", expenseID)

	return s.apply(ctx, goalID, amount, by, core.TransferReason)
}

// Reverse deletes a movement and applies the inverse delta to the goal's
// cached balance, undoing the movement's effect.
func (s *GoalService) Reverse(ctx context.Context, movementID string) error {
	entry, err := s.store.GetMovement(ctx, movementID)
	if err != nil {
		return fmt.Errorf("get movement: %w", err)
	}
	goal, err := s.store.GetGoal(ctx, entry.GoalID)
	if err != nil {
		return fmt.Errorf("get goal: %w", err)
	}

	if err := s.store.DeleteMovement(ctx, movementID); err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if err := s.store.SetGoalAmount(ctx, goal.ID, goal.CurrentAmount.Sub(entry.Amount)); err != nil {
		return fmt.Errorf("adjust goal balance: %w", err)
	}

	slog.InfoContext(ctx, "Movement reversed",
		"movement_id", movementID,
		"goal_id", goal.ID,
		"amount", entry.Amount.String())
	s.publish(ctx, "bank_history", "delete", movementID)
	s.publish(ctx, "duo_banks", "update", goal.ID)
	return nil
}

func (s *GoalService) apply(ctx context.Context, goalID string, delta decimal.Decimal, by, reason string) (core.Movement, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return core.Movement{}, fmt.Errorf("get goal: %w", err)
	}

	m := core.Movement{
		GoalID: goalID,
		Amount: delta,
		By:     by,
		Reason: reason,
		Date:   s.now(),
	}
	m.ID, err = s.store.CreateMovement(ctx, m)
	if err != nil {
		return core.Movement{}, fmt.Errorf("append movement: %w", err)
	}
	if err := s.store.SetGoalAmount(ctx, goalID, goal.CurrentAmount.Add(delta)); err != nil {
		return core.Movement{}, fmt.Errorf("adjust goal balance: %w", err)
	}

	slog.InfoContext(ctx, "Goal movement recorded",
		"goal_id", goalID,
		"amount", delta.String(),
		"reason", reason)
	s.publish(ctx, "bank_history", "create", m.ID)
	s.publish(ctx, "duo_banks", "update", goalID)
	return m, nil
}

func (s *GoalService) publish(ctx context.Context, collection, op, id string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishChange(ctx, collection, op, id); err != nil {
		slog.WarnContext(ctx, "Failed to publish change event",
			"collection", collection, "op", op, "id", id, "error", err)
	}
}
