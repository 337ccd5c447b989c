// Package storage is the SQLite persistence layer. Amounts are stored as
// decimal strings, timestamps as RFC 3339 text with the empty string standing
// for the zero time, and the payment and comment arrays as JSON.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/reisftw/duogesto/internal/core"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func newID() string { return uuid.NewString() }

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func decodeDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func notFound(entity, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, core.ErrNotFound)
	}
	return fmt.Errorf("get %s %s: %w", entity, id, err)
}

// affected turns an UPDATE/DELETE result into ErrNotFound when no row matched.
func affected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, core.ErrNotFound)
	}
	return nil
}

// --- incomes ---

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.Income) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	in.ID = newID()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO incomes (id, description, amount, category, recurrence, period_months, effective_date, owner, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Description, in.Amount.String(), in.Category, string(in.Recurrence),
		in.PeriodMonths, encodeTime(in.EffectiveDate), in.Owner, encodeTime(in.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("insert income: %w", err)
	}
	return in.ID, nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id string) (core.Income, error) {
	var in core.Income
	var amount, recurrence, effective, created string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, description, amount, category, recurrence, period_months, effective_date, owner, created_at
		FROM incomes WHERE id = ?`, id).
		Scan(&in.ID, &in.Description, &amount, &in.Category, &recurrence,
			&in.PeriodMonths, &effective, &in.Owner, &created)
	if err != nil {
		return core.Income{}, notFound("income", id, err)
	}
	in.Amount = decodeDecimal(amount)
	in.Recurrence = core.RecurrenceKind(recurrence)
	in.EffectiveDate = decodeTime(effective)
	in.CreatedAt = decodeTime(created)
	return in, nil
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, description, amount, category, recurrence, period_months, effective_date, owner, created_at
		FROM incomes ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		var in core.Income
		var amount, recurrence, effective, created string
		if err := rows.Scan(&in.ID, &in.Description, &amount, &in.Category, &recurrence,
			&in.PeriodMonths, &effective, &in.Owner, &created); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		in.Amount = decodeDecimal(amount)
		in.Recurrence = core.RecurrenceKind(recurrence)
		in.EffectiveDate = decodeTime(effective)
		in.CreatedAt = decodeTime(created)
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, in core.Income) error {
	if err := in.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE incomes SET description = ?, amount = ?, category = ?, recurrence = ?,
			period_months = ?, effective_date = ?, owner = ?
		WHERE id = ?`,
		in.Description, in.Amount.String(), in.Category, string(in.Recurrence),
		in.PeriodMonths, encodeTime(in.EffectiveDate), in.Owner, in.ID)
	if err != nil {
		return fmt.Errorf("update income: %w", err)
	}
	return affected(res, "income", in.ID)
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM incomes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	return affected(res, "income", id)
}

// --- expenses ---

func encodePayments(payments []core.Payment) (string, error) {
	if payments == nil {
		payments = []core.Payment{}
	}
	b, err := json.Marshal(payments)
	if err != nil {
		return "", fmt.Errorf("encode payments: %w", err)
	}
	return string(b), nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	e.ID = newID()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	payments, err := encodePayments(e.Payments)
	if err != nil {
		return "", err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, description, amount, category, recurrence, installment_count, start_date, payments, owner, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Description, e.Amount.String(), e.Category, string(e.Recurrence),
		e.InstallmentCount, encodeTime(e.StartDate), payments, e.Owner, encodeTime(e.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}
	return e.ID, nil
}

func scanExpense(scan func(dest ...any) error) (core.Expense, error) {
	var e core.Expense
	var amount, recurrence, start, payments, created string
	if err := scan(&e.ID, &e.Description, &amount, &e.Category, &recurrence,
		&e.InstallmentCount, &start, &payments, &e.Owner, &created); err != nil {
		return core.Expense{}, err
	}
	e.Amount = decodeDecimal(amount)
	e.Recurrence = core.RecurrenceKind(recurrence)
	e.StartDate = decodeTime(start)
	e.CreatedAt = decodeTime(created)
	if err := json.Unmarshal([]byte(payments), &e.Payments); err != nil {
		return core.Expense{}, fmt.Errorf("decode payments: %w", err)
	}
	return e, nil
}

const expenseColumns = `id, description, amount, category, recurrence, installment_count, start_date, payments, owner, created_at`

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row.Scan)
	if err != nil {
		return core.Expense{}, notFound("expense", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	payments, err := encodePayments(e.Payments)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET description = ?, amount = ?, category = ?, recurrence = ?,
			installment_count = ?, start_date = ?, payments = ?, owner = ?
		WHERE id = ?`,
		e.Description, e.Amount.String(), e.Category, string(e.Recurrence),
		e.InstallmentCount, encodeTime(e.StartDate), payments, e.Owner, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return affected(res, "expense", e.ID)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return affected(res, "expense", id)
}

func (r *SQLiteRepository) SetExpensePayments(ctx context.Context, id string, payments []core.Payment) error {
	encoded, err := encodePayments(payments)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE expenses SET payments = ? WHERE id = ?`, encoded, id)
	if err != nil {
		return fmt.Errorf("update payments: %w", err)
	}
	return affected(res, "expense", id)
}

// --- goals and movements ---

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	g.ID = newID()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, title, institution, account_ref, owner, current_amount, goal_amount, monthly_target, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Title, g.Institution, g.AccountRef, g.Owner,
		g.CurrentAmount.String(), g.GoalAmount.String(), g.MonthlyTarget.String(), encodeTime(g.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("insert goal: %w", err)
	}
	return g.ID, nil
}

func scanGoal(scan func(dest ...any) error) (core.Goal, error) {
	var g core.Goal
	var current, target, monthly, created string
	if err := scan(&g.ID, &g.Title, &g.Institution, &g.AccountRef, &g.Owner,
		&current, &target, &monthly, &created); err != nil {
		return core.Goal{}, err
	}
	g.CurrentAmount = decodeDecimal(current)
	g.GoalAmount = decodeDecimal(target)
	g.MonthlyTarget = decodeDecimal(monthly)
	g.CreatedAt = decodeTime(created)
	return g, nil
}

const goalColumns = `id, title, institution, account_ref, owner, current_amount, goal_amount, monthly_target, created_at`

func (r *SQLiteRepository) GetGoal(ctx context.Context, id string) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row.Scan)
	if err != nil {
		return core.Goal{}, notFound("goal", id, err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+goalColumns+` FROM goals ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE goals SET title = ?, institution = ?, account_ref = ?, owner = ?,
			goal_amount = ?, monthly_target = ?
		WHERE id = ?`,
		g.Title, g.Institution, g.AccountRef, g.Owner,
		g.GoalAmount.String(), g.MonthlyTarget.String(), g.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return affected(res, "goal", g.ID)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return affected(res, "goal", id)
}

func (r *SQLiteRepository) SetGoalAmount(ctx context.Context, id string, amount decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `UPDATE goals SET current_amount = ? WHERE id = ?`, amount.String(), id)
	if err != nil {
		return fmt.Errorf("set goal amount: %w", err)
	}
	return affected(res, "goal", id)
}

func (r *SQLiteRepository) CreateMovement(ctx context.Context, m core.Movement) (string, error) {
	m.ID = newID()
	if m.Date.IsZero() {
		m.Date = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO movements (id, goal_id, amount, made_by, reason, date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.GoalID, m.Amount.String(), m.By, m.Reason, encodeTime(m.Date))
	if err != nil {
		return "", fmt.Errorf("insert movement: %w", err)
	}
	return m.ID, nil
}

func (r *SQLiteRepository) GetMovement(ctx context.Context, id string) (core.Movement, error) {
	var m core.Movement
	var amount, date string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, goal_id, amount, made_by, reason, date FROM movements WHERE id = ?`, id).
		Scan(&m.ID, &m.GoalID, &amount, &m.By, &m.Reason, &date)
	if err != nil {
		return core.Movement{}, notFound("movement", id, err)
	}
	m.Amount = decodeDecimal(amount)
	m.Date = decodeTime(date)
	return m, nil
}

func (r *SQLiteRepository) ListMovements(ctx context.Context, goalID string) ([]core.Movement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, goal_id, amount, made_by, reason, date FROM movements
		WHERE goal_id = ? ORDER BY date`, goalID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var out []core.Movement
	for rows.Next() {
		var m core.Movement
		var amount, date string
		if err := rows.Scan(&m.ID, &m.GoalID, &amount, &m.By, &m.Reason, &date); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.Amount = decodeDecimal(amount)
		m.Date = decodeTime(date)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteMovement(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	return affected(res, "movement", id)
}

// --- legacy ledger ---

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tr core.Transaction) (string, error) {
	tr.ID = newID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, description, value, type, recurrence, category, date, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.ID, tr.UserID, tr.Description, tr.Value.String(), string(tr.Type),
		string(tr.Recurrence), tr.Category, encodeTime(tr.Date), encodeTime(tr.EndDate))
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	return tr.ID, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, description, value, type, recurrence, category, date, end_date
		FROM transactions ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var tr core.Transaction
		var value, typ, recurrence, date, endDate string
		if err := rows.Scan(&tr.ID, &tr.UserID, &tr.Description, &value, &typ,
			&recurrence, &tr.Category, &date, &endDate); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tr.Value = decodeDecimal(value)
		tr.Type = core.TransactionType(typ)
		tr.Recurrence = core.LegacyRecurrence(recurrence)
		tr.Date = decodeTime(date)
		tr.EndDate = decodeTime(endDate)
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return affected(res, "transaction", id)
}
