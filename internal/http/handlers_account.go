package http

import (
	"log/slog"
	"net/http"

	"tesoro/internal/core"
)

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request, user core.User) {
	switch r.Method {
	case http.MethodGet:
		s.listAccounts(w, r, user)
	case http.MethodPost:
		s.createAccount(w, r, user)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request, user core.User) {
	sess, ok := s.sessionFor(w, r, user)
	if !ok {
		return
	}
	accounts := sess.Accounts()
	respondJSON(w, http.StatusOK, map[string]any{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request, user core.User) {
	var account core.Account
	if err := decodeJSON(w, r, &account, maxBodyBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, ok := s.sessionFor(w, r, user)
	if !ok {
		return
	}
	created, err := sess.CreateAccount(r.Context(), account)
	if err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}
	s.invalidateOverview(user.ID)

	slog.InfoContext(r.Context(), "Account created",
		"user_id", user.ID,
		"account_id", created.ID,
		"type", string(created.Type),
		"currency", string(created.Currency))
	respondJSON(w, http.StatusCreated, created)
}

type checkInRequest struct {
	AccountID string `json:"accountId"`
}

// handleAccountCheckIn stamps an investment account as reviewed now.
func (s *Server) handleAccountCheckIn(w http.ResponseWriter, r *http.Request, user core.User) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req checkInRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AccountID == "" {
		respondError(w, http.StatusBadRequest, "accountId is required")
		return
	}

	sess, ok := s.sessionFor(w, r, user)
	if !ok {
		return
	}
	account, err := sess.CheckInAccount(r.Context(), req.AccountID)
	if err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}
	s.invalidateOverview(user.ID)
	respondJSON(w, http.StatusOK, account)
}

type holdingsRequest struct {
	AccountID string         `json:"accountId"`
	Holdings  []core.Holding `json:"holdings"`
}

// handleAccountHoldings replaces an investment account's holdings wholesale
// and recomputes its balance.
func (s *Server) handleAccountHoldings(w http.ResponseWriter, r *http.Request, user core.User) {
	if r.Method != http.MethodPut {
		w.Header().Set("Allow", "PUT")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req holdingsRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AccountID == "" {
		respondError(w, http.StatusBadRequest, "accountId is required")
		return
	}

	sess, ok := s.sessionFor(w, r, user)
	if !ok {
		return
	}
	account, err := sess.ReplaceHoldings(r.Context(), req.AccountID, req.Holdings)
	if err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}
	s.invalidateOverview(user.ID)

	slog.InfoContext(r.Context(), "Holdings replaced",
		"user_id", user.ID,
		"account_id", account.ID,
		"holdings", len(account.Holdings))
	respondJSON(w, http.StatusOK, account)
}
