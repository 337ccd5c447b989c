package http

import (
	"net/http"

	"github.com/reisftw/duogesto/internal/core"
)

type goalRequest struct {
	Title         string `json:"title"`
	Institution   string `json:"institution"`
	AccountRef    string `json:"account_ref"`
	Owner         string `json:"owner"`
	GoalAmount    string `json:"goal_amount"`
	MonthlyTarget string `json:"monthly_target"`
}

type goalView struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Institution   string `json:"institution,omitempty"`
	AccountRef    string `json:"account_ref,omitempty"`
	Owner         string `json:"owner,omitempty"`
	CurrentAmount string `json:"current_amount"`
	GoalAmount    string `json:"goal_amount"`
	MonthlyTarget string `json:"monthly_target,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toGoalView(g core.Goal) goalView {
	return goalView{
		ID:            g.ID,
		Title:         g.Title,
		Institution:   g.Institution,
		AccountRef:    g.AccountRef,
		Owner:         g.Owner,
		CurrentAmount: g.CurrentAmount.String(),
		GoalAmount:    g.GoalAmount.String(),
		MonthlyTarget: g.MonthlyTarget.String(),
		CreatedAt:     viewDate(g.CreatedAt),
	}
}

type movementView struct {
	ID     string `json:"id"`
	GoalID string `json:"goal_id"`
	Amount string `json:"amount"`
	By     string `json:"by,omitempty"`
	Reason string `json:"reason,omitempty"`
	Date   string `json:"date"`
}

func toMovementView(m core.Movement) movementView {
	return movementView{
		ID:     m.ID,
		GoalID: m.GoalID,
		Amount: m.Amount.String(),
		By:     m.By,
		Reason: m.Reason,
		Date:   viewDate(m.Date),
	}
}

func (s *Server) goalFromRequest(req goalRequest) (core.Goal, error) {
	goal := core.Goal{
		Title:       sanitizeInput(req.Title),
		Institution: sanitizeInput(req.Institution),
		AccountRef:  sanitizeInput(req.AccountRef),
		Owner:       req.Owner,
	}
	var err error
	if req.GoalAmount != "" {
		if goal.GoalAmount, err = core.ParseAmount(req.GoalAmount); err != nil {
			return core.Goal{}, err
		}
	}
	if req.MonthlyTarget != "" {
		if goal.MonthlyTarget, err = core.ParseAmount(req.MonthlyTarget); err != nil {
			return core.Goal{}, err
		}
	}
	return goal, nil
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.store.ListGoals(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	views := make([]goalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, toGoalView(g))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	goal, err := s.goalFromRequest(req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := s.store.CreateGoal(r.Context(), goal)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.publish(r, "duo_banks", "create", id)

	created, err := s.store.GetGoal(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toGoalView(created))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	goal, err := s.goalFromRequest(req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	goal.ID = r.PathValue("id")
	if err := s.store.UpdateGoal(r.Context(), goal); err != nil {
		respondError(w, r, err)
		return
	}
	s.publish(r, "duo_banks", "update", goal.ID)

	updated, err := s.store.GetGoal(r.Context(), goal.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toGoalView(updated))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteGoal(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	s.publish(r, "duo_banks", "delete", id)
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGoalHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.GetGoal(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	history, err := s.store.ListMovements(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	views := make([]movementView, 0, len(history))
	for _, m := range history {
		views = append(views, toMovementView(m))
	}
	respondJSON(w, http.StatusOK, views)
}

type movementRequest struct {
	Amount string `json:"amount"`
	By     string `json:"by"`
	Reason string `json:"reason"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	amount, err := core.ParsePositiveAmount(req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	mov, err := s.goals.Deposit(r.Context(), r.PathValue("id"), amount, req.By, sanitizeInput(req.Reason))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toMovementView(mov))
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	amount, err := core.ParsePositiveAmount(req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	mov, err := s.goals.Withdraw(r.Context(), r.PathValue("id"), amount, req.By, sanitizeInput(req.Reason))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toMovementView(mov))
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	amount, err := core.ParsePositiveAmount(req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	mov, err := s.goals.Transfer(r.Context(), r.PathValue("id"), amount, req.By)
	if err != nil {
		respondError(w, r, err)
		return
	}
	// The transfer also wrote a mirroring expense.
	s.invalidateViews()
	respondJSON(w, http.StatusCreated, toMovementView(mov))
}

func (s *Server) handleReverseMovement(w http.ResponseWriter, r *http.Request) {
	if err := s.goals.Reverse(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
