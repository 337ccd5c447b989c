package http

import (
	"net/http"

	"github.com/reisftw/duogesto/internal/core"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userView struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Username            string `json:"username"`
	Role                string `json:"role"`
	PartnerID           string `json:"partner_id,omitempty"`
	AccountingStartDate string `json:"accounting_start_date,omitempty"`
}

func toUserView(u core.User) userView {
	return userView{
		ID:                  u.ID,
		Name:                u.Name,
		Username:            u.Username,
		Role:                string(u.Role),
		PartnerID:           u.PartnerID,
		AccountingStartDate: viewDate(u.AccountingStartDate),
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	user, err := s.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserView(user))
}

type registerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	user, err := s.accounts.Register(r.Context(), sanitizeInput(req.Name), req.Username, req.Password, core.Role(req.Role))
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.publish(r, "users", "create", user.ID)
	respondJSON(w, http.StatusCreated, toUserView(user))
}

type linkPartnerRequest struct {
	PartnerUsername string `json:"partner_username"`
}

func (s *Server) handleLinkPartner(w http.ResponseWriter, r *http.Request) {
	var req linkPartnerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	userID := r.PathValue("id")
	if err := s.accounts.LinkPartners(r.Context(), userID, req.PartnerUsername); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateViews()
	s.publish(r, "users", "update", userID)

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserView(user))
}

type changePasswordRequest struct {
	Current string `json:"current"`
	Next    string `json:"next"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.accounts.ChangePassword(r.Context(), r.PathValue("id"), req.Current, req.Next); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type accountingStartRequest struct {
	Start string `json:"start"`
}

func (s *Server) handleAccountingStart(w http.ResponseWriter, r *http.Request) {
	var req accountingStartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	start, err := parseDate(req.Start)
	if err != nil {
		respondError(w, r, err)
		return
	}
	userID := r.PathValue("id")
	if err := s.accounts.SetAccountingStart(r.Context(), userID, start); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateViews()
	s.publish(r, "users", "update", userID)
	respondJSON(w, http.StatusNoContent, nil)
}
