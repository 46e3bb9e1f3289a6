package http

import (
	"log/slog"
	"net/http"
	"time"

	"tesoro/internal/core"
)

// handleOverview serves the derived dashboard values, cached per user until
// the TTL lapses or a mutation invalidates it.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request, user core.User) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if overview, found := s.overviewCache.Get(user.ID); found {
		slog.DebugContext(r.Context(), "Overview cache hit", "user_id", user.ID)
		respondJSON(w, http.StatusOK, overview)
		return
	}

	sess, ok := s.sessionFor(w, r, user)
	if !ok {
		return
	}
	overview, err := sess.Overview(time.Now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Overview computation failed",
			"user_id", user.ID,
			"error", err)
		respondError(w, http.StatusInternalServerError, "failed to compute overview")
		return
	}

	s.overviewCache.Set(user.ID, overview)
	respondJSON(w, http.StatusOK, overview)
}

type baseCurrencyRequest struct {
	BaseCurrency core.Currency `json:"baseCurrency"`
}

// handleBaseCurrency switches the reporting currency. Account balances stay
// in their own currencies; only aggregation output changes.
func (s *Server) handleBaseCurrency(w http.ResponseWriter, r *http.Request, user core.User) {
	if r.Method != http.MethodPut {
		w.Header().Set("Allow", "PUT")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req baseCurrencyRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, ok := s.sessionFor(w, r, user)
	if !ok {
		return
	}
	if err := sess.SetBaseCurrency(r.Context(), req.BaseCurrency); err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}
	s.invalidateOverview(user.ID)

	slog.InfoContext(r.Context(), "Base currency changed",
		"user_id", user.ID,
		"base_currency", string(req.BaseCurrency))
	respondJSON(w, http.StatusOK, map[string]core.Currency{"baseCurrency": req.BaseCurrency})
}
