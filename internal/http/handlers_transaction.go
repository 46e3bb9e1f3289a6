package http

import (
	"log/slog"
	"net/http"

	"tesoro/internal/core"
)

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request, user core.User) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r, user)
	case http.MethodPost:
		s.createTransaction(w, r, user)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request, user core.User) {
	sess, ok := s.sessionFor(w, r, user)
	if !ok {
		return
	}
	transactions := sess.Transactions()
	respondJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	var tx core.Transaction
	if err := decodeJSON(w, r, &tx, maxBodyBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Logging a transaction without an explicit status means it already
	// happened.
	if tx.Status == "" {
		tx.Status = core.Completed
	}

	sess, ok := s.sessionFor(w, r, user)
	if !ok {
		return
	}
	created, err := sess.CreateTransaction(r.Context(), tx)
	if err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}
	s.invalidateOverview(user.ID)

	slog.InfoContext(r.Context(), "Transaction created",
		"user_id", user.ID,
		"transaction_id", created.ID,
		"type", string(created.Type),
		"status", string(created.Status),
		"amount", created.Amount.String(),
		"currency", string(created.Currency))
	respondJSON(w, http.StatusCreated, created)
}

type receiveRequest struct {
	TransactionID string `json:"transactionId"`
}

// handleTransactionReceive completes a pending transaction, applying its
// balance effect exactly once.
func (s *Server) handleTransactionReceive(w http.ResponseWriter, r *http.Request, user core.User) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req receiveRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TransactionID == "" {
		respondError(w, http.StatusBadRequest, "transactionId is required")
		return
	}

	sess, ok := s.sessionFor(w, r, user)
	if !ok {
		return
	}
	received, err := sess.MarkReceived(r.Context(), req.TransactionID)
	if err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}
	s.invalidateOverview(user.ID)

	slog.InfoContext(r.Context(), "Transaction received",
		"user_id", user.ID,
		"transaction_id", received.ID)
	respondJSON(w, http.StatusOK, received)
}
