package http

import (
	"errors"
	"log/slog"
	"net/http"

	"tesoro/internal/auth"
	"tesoro/internal/core"
	"tesoro/internal/storage"
)

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

// handleLogin issues a token for the credential pair and records the global
// session user so a returning client can resume. The user's session is loaded
// eagerly, seeding defaults for first-time users.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.auth.Login(req.Username, req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrMissingCredentials) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Login failed", "error", err)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	if _, err := s.sessions.Session(r.Context(), user.ID); err != nil {
		slog.ErrorContext(r.Context(), "Failed to load session at login",
			"user_id", user.ID,
			"error", err)
		respondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if err := s.sessions.SetSessionUser(r.Context(), user); err != nil {
		slog.ErrorContext(r.Context(), "Failed to persist session user",
			"user_id", user.ID,
			"error", err)
		respondError(w, http.StatusInternalServerError, "failed to persist session")
		return
	}

	slog.InfoContext(r.Context(), "User logged in",
		"user_id", user.ID,
		"username", user.Username)
	respondJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// handleLogout flushes the caller's session synchronously and clears the
// global session record.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, user core.User) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := s.sessions.Flush(r.Context(), user.ID); err != nil {
		slog.ErrorContext(r.Context(), "Failed to flush session at logout",
			"user_id", user.ID,
			"error", err)
		respondError(w, http.StatusInternalServerError, "failed to persist session")
		return
	}
	if err := s.sessions.ClearSessionUser(r.Context()); err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.ErrorContext(r.Context(), "Failed to clear session user",
			"user_id", user.ID,
			"error", err)
		respondError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}

	slog.InfoContext(r.Context(), "User logged out", "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// handleSession reports the persisted session user, if any.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, err := s.sessions.SessionUser(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "no active session")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to read session user", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to read session")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
