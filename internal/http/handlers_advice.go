package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"tesoro/internal/advisor"
	"tesoro/internal/core"
	"tesoro/internal/session"
)

// snapshotTransactionLimit caps how many recent transactions ride along in
// the advice prompt.
const snapshotTransactionLimit = 20

// handleAdvice generates fresh commentary from a snapshot of the caller's
// finances. The advice record is persisted only on success, so staleness
// tracking never advances on a failed call.
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request, user core.User) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, ok := s.sessionFor(w, r, user)
	if !ok {
		return
	}

	snapshot, err := buildSnapshot(sess, time.Now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Snapshot build failed",
			"user_id", user.ID,
			"error", err)
		respondError(w, http.StatusInternalServerError, "failed to build finance snapshot")
		return
	}

	text, err := s.advisor.Advise(r.Context(), snapshot)
	if err != nil {
		s.respondAdvisorError(w, r, user, err, "advice")
		return
	}

	advice := sess.SetAdvice(r.Context(), text)
	slog.InfoContext(r.Context(), "Advice generated", "user_id", user.ID)
	respondJSON(w, http.StatusOK, advice)
}

type chatImage struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

type chatRequest struct {
	AccountID string     `json:"accountId,omitempty"`
	Message   string     `json:"message"`
	Image     *chatImage `json:"image,omitempty"`
}

type chatResponse struct {
	Response string         `json:"response"`
	Holdings []core.Holding `json:"holdings,omitempty"`
}

// handleChat relays a message (and optional image) about an account's
// holdings. When the model returns a parseable holdings list and the request
// names an account, the account's holdings are replaced wholesale; otherwise
// existing holdings are untouched.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, user core.User) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := decodeJSON(w, r, &req, maxChatBodyBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" && req.Image == nil {
		respondError(w, http.StatusBadRequest, "message or image is required")
		return
	}

	sess, ok := s.sessionFor(w, r, user)
	if !ok {
		return
	}

	var holdings []core.Holding
	if req.AccountID != "" {
		account, err := sess.AccountByID(req.AccountID)
		if err != nil {
			respondError(w, statusFromError(err), err.Error())
			return
		}
		holdings = account.Holdings
	}

	chatReq := advisor.ChatRequest{
		Holdings: holdings,
		Message:  req.Message,
	}
	if req.Image != nil {
		chatReq.Image = &advisor.Image{
			MIMEType: req.Image.MIMEType,
			Data:     req.Image.Data,
		}
	}

	reply, err := s.advisor.Chat(r.Context(), chatReq)
	if err != nil {
		s.respondAdvisorError(w, r, user, err, "chat")
		return
	}

	resp := chatResponse{Response: reply.Response}
	if reply.Holdings != nil && req.AccountID != "" {
		account, err := sess.ReplaceHoldings(r.Context(), req.AccountID, reply.Holdings)
		if err != nil {
			respondError(w, statusFromError(err), err.Error())
			return
		}
		s.invalidateOverview(user.ID)
		resp.Holdings = account.Holdings
		slog.InfoContext(r.Context(), "Holdings updated from chat",
			"user_id", user.ID,
			"account_id", account.ID,
			"holdings", len(account.Holdings))
	}
	respondJSON(w, http.StatusOK, resp)
}

// respondAdvisorError maps gateway failures onto statuses: a missing API key
// is a configuration error (503), anything else a failed upstream call (502).
// Both carry a user-visible message; state is untouched either way.
func (s *Server) respondAdvisorError(w http.ResponseWriter, r *http.Request, user core.User, err error, op string) {
	if errors.Is(err, advisor.ErrNotConfigured) {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	slog.ErrorContext(r.Context(), "Advisor call failed",
		"user_id", user.ID,
		"op", op,
		"error", err)
	respondError(w, http.StatusBadGateway, op+" failed: "+err.Error())
}

// buildSnapshot assembles the read-only summary the advice prompt embeds:
// formatted balances, the derived totals and the most recent transactions.
func buildSnapshot(sess *session.Session, now time.Time) (advisor.Snapshot, error) {
	overview, err := sess.Overview(now)
	if err != nil {
		return advisor.Snapshot{}, err
	}

	accounts := sess.Accounts()
	snapAccounts := make([]advisor.SnapshotAccount, 0, len(accounts))
	for _, account := range accounts {
		snapAccounts = append(snapAccounts, advisor.SnapshotAccount{
			Name:     account.Name,
			Type:     account.Type,
			Currency: account.Currency,
			Balance:  core.Format(account.Balance, account.Currency),
		})
	}

	transactions := sess.Transactions()
	if len(transactions) > snapshotTransactionLimit {
		transactions = transactions[:snapshotTransactionLimit]
	}

	return advisor.Snapshot{
		BaseCurrency:    overview.BaseCurrency,
		NetWorth:        overview.NetWorthDisplay,
		PendingIncome:   overview.PendingIncomeDisplay,
		MonthlyExpenses: overview.MonthlyExpensesDisplay,
		Accounts:        snapAccounts,
		Transactions:    transactions,
	}, nil
}
