package http

import (
	"log/slog"
	"net/http"
	"time"

	"tesoro/internal/core"
	"tesoro/internal/ledger"
)

// ruleWithDue decorates a rule with its derived due flag; the rule itself is
// never mutated by display.
type ruleWithDue struct {
	core.RecurringRule
	Due bool `json:"due"`
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request, user core.User) {
	switch r.Method {
	case http.MethodGet:
		s.listRules(w, r, user)
	case http.MethodPost:
		s.createRule(w, r, user)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request, user core.User) {
	sess, ok := s.sessionFor(w, r, user)
	if !ok {
		return
	}
	now := time.Now()
	rules := sess.Rules()
	decorated := make([]ruleWithDue, 0, len(rules))
	for _, rule := range rules {
		decorated = append(decorated, ruleWithDue{
			RecurringRule: rule,
			Due:           ledger.RuleDue(rule, now),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"rules": decorated,
		"count": len(decorated),
	})
}

func (s *Server) createRule(w http.ResponseWriter, r *http.Request, user core.User) {
	var rule core.RecurringRule
	if err := decodeJSON(w, r, &rule, maxBodyBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, ok := s.sessionFor(w, r, user)
	if !ok {
		return
	}
	created, err := sess.CreateRule(r.Context(), rule)
	if err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}

	slog.InfoContext(r.Context(), "Recurring rule created",
		"user_id", user.ID,
		"rule_id", created.ID,
		"frequency", string(created.Frequency))
	respondJSON(w, http.StatusCreated, created)
}

type materializeRequest struct {
	RuleID string `json:"ruleId"`
}

// handleMaterialize turns a rule into a completed expense transaction. The
// rule's next due date is untouched; materialization is always user-driven.
func (s *Server) handleMaterialize(w http.ResponseWriter, r *http.Request, user core.User) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req materializeRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RuleID == "" {
		respondError(w, http.StatusBadRequest, "ruleId is required")
		return
	}

	sess, ok := s.sessionFor(w, r, user)
	if !ok {
		return
	}
	tx, err := sess.Materialize(r.Context(), req.RuleID)
	if err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}
	s.invalidateOverview(user.ID)

	slog.InfoContext(r.Context(), "Recurring rule materialized",
		"user_id", user.ID,
		"rule_id", req.RuleID,
		"transaction_id", tx.ID)
	respondJSON(w, http.StatusCreated, tx)
}
