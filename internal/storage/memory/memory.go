// Package memory is an in-memory record store. It backs tests and the
// zero-dependency DATA_BACKEND=memory mode with the same surface as the
// SQLite repository.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reisftw/duogesto/internal/core"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu         sync.Mutex
	incomes    map[string]core.Income
	expenses   map[string]core.Expense
	goals      map[string]core.Goal
	movements  map[string]core.Movement
	ledger     map[string]core.Transaction
	categories map[string]core.Category
	users      map[string]core.User
	rooms      map[string]core.Room
	homeItems  map[string]core.HomeItem
	properties map[string]core.Property
	travels    map[string]core.Travel
}

func New() *Store {
	return &Store{
		incomes:    map[string]core.Income{},
		expenses:   map[string]core.Expense{},
		goals:      map[string]core.Goal{},
		movements:  map[string]core.Movement{},
		ledger:     map[string]core.Transaction{},
		categories: map[string]core.Category{},
		users:      map[string]core.User{},
		rooms:      map[string]core.Room{},
		homeItems:  map[string]core.HomeItem{},
		properties: map[string]core.Property{},
		travels:    map[string]core.Travel{},
	}
}

func newID() string { return uuid.NewString() }

// --- incomes ---

func (s *Store) CreateIncome(_ context.Context, in core.Income) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = newID()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	s.incomes[in.ID] = in
	return in.ID, nil
}

func (s *Store) GetIncome(_ context.Context, id string) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.incomes[id]
	if !ok {
		return core.Income{}, fmt.Errorf("income %s: %w", id, core.ErrNotFound)
	}
	return in, nil
}

func (s *Store) ListIncomes(context.Context) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Income, 0, len(s.incomes))
	for _, in := range s.incomes {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateIncome(_ context.Context, in core.Income) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.incomes[in.ID]
	if !ok {
		return fmt.Errorf("income %s: %w", in.ID, core.ErrNotFound)
	}
	in.CreatedAt = current.CreatedAt
	s.incomes[in.ID] = in
	return nil
}

func (s *Store) DeleteIncome(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.incomes[id]; !ok {
		return fmt.Errorf("income %s: %w", id, core.ErrNotFound)
	}
	delete(s.incomes, id)
	return nil
}

// --- expenses ---

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = newID()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	s.expenses[e.ID] = e
	return e.ID, nil
}

func (s *Store) GetExpense(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	return e, nil
}

func (s *Store) ListExpenses(context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.expenses[e.ID]
	if !ok {
		return fmt.Errorf("expense %s: %w", e.ID, core.ErrNotFound)
	}
	e.CreatedAt = current.CreatedAt
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) SetExpensePayments(_ context.Context, id string, payments []core.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	e.Payments = payments
	s.expenses[id] = e
	return nil
}

// --- goals and movements ---

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = newID()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	s.goals[g.ID] = g
	return g.ID, nil
}

func (s *Store) GetGoal(_ context.Context, id string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok {
		return core.Goal{}, fmt.Errorf("goal %s: %w", id, core.ErrNotFound)
	}
	return g, nil
}

func (s *Store) ListGoals(context.Context) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Goal, 0, len(s.goals))
	for _, g := range s.goals {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// UpdateGoal edits the goal's descriptive fields. The cached balance belongs
// to the movement writers; only SetGoalAmount touches it.
func (s *Store) UpdateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.goals[g.ID]
	if !ok {
		return fmt.Errorf("goal %s: %w", g.ID, core.ErrNotFound)
	}
	g.CurrentAmount = current.CurrentAmount
	g.CreatedAt = current.CreatedAt
	s.goals[g.ID] = g
	return nil
}

func (s *Store) DeleteGoal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[id]; !ok {
		return fmt.Errorf("goal %s: %w", id, core.ErrNotFound)
	}
	delete(s.goals, id)
	for mid, m := range s.movements {
		if m.GoalID == id {
			delete(s.movements, mid)
		}
	}
	return nil
}

func (s *Store) SetGoalAmount(_ context.Context, id string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok {
		return fmt.Errorf("goal %s: %w", id, core.ErrNotFound)
	}
	g.CurrentAmount = amount
	s.goals[id] = g
	return nil
}

func (s *Store) CreateMovement(_ context.Context, m core.Movement) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = newID()
	if m.Date.IsZero() {
		m.Date = time.Now()
	}
	s.movements[m.ID] = m
	return m.ID, nil
}

func (s *Store) GetMovement(_ context.Context, id string) (core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movements[id]
	if !ok {
		return core.Movement{}, fmt.Errorf("movement %s: %w", id, core.ErrNotFound)
	}
	return m, nil
}

func (s *Store) ListMovements(_ context.Context, goalID string) ([]core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Movement
	for _, m := range s.movements {
		if m.GoalID == goalID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) DeleteMovement(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movements[id]; !ok {
		return fmt.Errorf("movement %s: %w", id, core.ErrNotFound)
	}
	delete(s.movements, id)
	return nil
}

// --- legacy ledger ---

func (s *Store) CreateTransaction(_ context.Context, tr core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr.ID = newID()
	s.ledger[tr.ID] = tr
	return tr.ID, nil
}

func (s *Store) ListTransactions(context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.ledger))
	for _, tr := range s.ledger {
		out = append(out, tr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ledger[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	delete(s.ledger, id)
	return nil
}

// --- categories ---

func (s *Store) CreateCategory(_ context.Context, c core.Category) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = newID()
	s.categories[c.ID] = c
	return c.ID, nil
}

func (s *Store) ListCategories(context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	delete(s.categories, id)
	return nil
}

// --- users ---

func (s *Store) CreateUser(_ context.Context, u core.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Same constraint as the users.username UNIQUE column.
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return "", fmt.Errorf("user %q: username already taken", u.Username)
		}
	}
	u.ID = newID()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.users[u.ID] = u
	return u.ID, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", id, core.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %q: %w", username, core.ErrNotFound)
}

func (s *Store) ListUsers(context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return fmt.Errorf("user %s: %w", u.ID, core.ErrNotFound)
	}
	s.users[u.ID] = u
	return nil
}

// --- household planning ---

func (s *Store) CreateRoom(_ context.Context, r core.Room) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = newID()
	s.rooms[r.ID] = r
	return r.ID, nil
}

func (s *Store) ListRooms(context.Context) ([]core.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteRoom(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return fmt.Errorf("room %s: %w", id, core.ErrNotFound)
	}
	delete(s.rooms, id)
	return nil
}

func (s *Store) CreateHomeItem(_ context.Context, it core.HomeItem) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it.ID = newID()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now()
	}
	s.homeItems[it.ID] = it
	return it.ID, nil
}

func (s *Store) ListHomeItems(context.Context) ([]core.HomeItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.HomeItem, 0, len(s.homeItems))
	for _, it := range s.homeItems {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ToggleHomeItemBought(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.homeItems[id]
	if !ok {
		return false, fmt.Errorf("home item %s: %w", id, core.ErrNotFound)
	}
	it.Bought = !it.Bought
	s.homeItems[id] = it
	return it.Bought, nil
}

func (s *Store) DeleteHomeItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.homeItems[id]; !ok {
		return fmt.Errorf("home item %s: %w", id, core.ErrNotFound)
	}
	delete(s.homeItems, id)
	return nil
}

func (s *Store) CreateProperty(_ context.Context, p core.Property) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = newID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.properties[p.ID] = p
	return p.ID, nil
}

func (s *Store) ListProperties(context.Context) ([]core.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Property, 0, len(s.properties))
	for _, p := range s.properties {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateProperty(_ context.Context, p core.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.properties[p.ID]; !ok {
		return fmt.Errorf("property %s: %w", p.ID, core.ErrNotFound)
	}
	s.properties[p.ID] = p
	return nil
}

func (s *Store) DeleteProperty(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.properties[id]; !ok {
		return fmt.Errorf("property %s: %w", id, core.ErrNotFound)
	}
	delete(s.properties, id)
	return nil
}

func (s *Store) CreateTravel(_ context.Context, t core.Travel) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = newID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.travels[t.ID] = t
	return t.ID, nil
}

func (s *Store) ListTravels(context.Context) ([]core.Travel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Travel, 0, len(s.travels))
	for _, t := range s.travels {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateTravel(_ context.Context, t core.Travel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.travels[t.ID]; !ok {
		return fmt.Errorf("travel %s: %w", t.ID, core.ErrNotFound)
	}
	s.travels[t.ID] = t
	return nil
}

func (s *Store) DeleteTravel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.travels[id]; !ok {
		return fmt.Errorf("travel %s: %w", id, core.ErrNotFound)
	}
	delete(s.travels, id)
	return nil
}
