package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tesoro/internal/auth"
	"tesoro/internal/core"
	"tesoro/internal/ledger"
	"tesoro/internal/session"
)

// maxBodyBytes bounds ordinary request bodies. Chat requests may carry an
// inline image and get a larger cap.
const (
	maxBodyBytes     = 1 << 20  // 1MB
	maxChatBodyBytes = 10 << 20 // 10MB
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a bounded JSON body into dst. Callers treat any error as a
// 400: malformed bodies are a client problem.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return json.NewDecoder(r.Body).Decode(dst)
}

// statusFromError maps book command failures onto HTTP statuses: unknown ids
// are 404, a double receive is 409, everything else a validation 400.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, ledger.ErrRuleNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrAlreadyCompleted):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// requireUser authenticates the bearer token and hands the verified user to
// the wrapped handler. Every operation behind it is scoped to that user.
func (s *Server) requireUser(next func(http.ResponseWriter, *http.Request, core.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		user, err := s.auth.Verify(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r, user)
	}
}

// sessionFor loads the caller's live session, responding with a 500 on
// storage failure. The bool reports whether the handler may proceed.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request, user core.User) (*session.Session, bool) {
	sess, err := s.sessions.Session(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load session",
			"user_id", user.ID,
			"error", err)
		respondError(w, http.StatusInternalServerError, "failed to load session")
		return nil, false
	}
	return sess, true
}

// invalidateOverview drops the cached overview after any mutation by the
// user; the next read recomputes from live state.
func (s *Server) invalidateOverview(userID string) {
	s.overviewCache.Delete(userID)
}
