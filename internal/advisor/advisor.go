// Package advisor talks to the generative model for finance commentary and
// portfolio extraction. The collaborator is unreliable by contract: callers
// must surface failures as user-visible strings and never let a failed or
// half-parsed reply touch existing holdings.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"tesoro/internal/core"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

var ErrNotConfigured = errors.New("advice service not configured: missing API key")

type (
	// Snapshot is the read-only finance summary embedded into the advice
	// prompt.
	Snapshot struct {
		BaseCurrency    core.Currency      `json:"baseCurrency"`
		NetWorth        string             `json:"netWorth"`
		PendingIncome   string             `json:"pendingIncome"`
		MonthlyExpenses string             `json:"monthlyExpenses"`
		Accounts        []SnapshotAccount  `json:"accounts"`
		Transactions    []core.Transaction `json:"recentTransactions"`
	}

	// SnapshotAccount carries a formatted balance so the model never has to
	// reason about raw decimals and currency codes separately.
	SnapshotAccount struct {
		Name     string           `json:"name"`
		Type     core.AccountType `json:"type"`
		Currency core.Currency    `json:"currency"`
		Balance  string           `json:"balance"`
	}

	// Image is an optional inline attachment for the chat variant.
	Image struct {
		MIMEType string
		Data     []byte
	}

	ChatRequest struct {
		Holdings []core.Holding
		Message  string
		Image    *Image
	}

	// ChatReply carries the model's text plus, when the reply parsed as the
	// structured form, a full replacement holdings list.
	ChatReply struct {
		Response string
		Holdings []core.Holding
	}
)

// Client wraps the generative model. An unconfigured client constructs fine
// and fails fast on use, per the configuration-error contract.
type Client struct {
	client *genai.Client
	model  string
}

// New builds the gateway client. An empty API key yields an unconfigured
// client whose calls return ErrNotConfigured immediately, with no retry.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}
	if apiKey == "" {
		return &Client{model: model}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// Configured reports whether an API key was present at startup.
func (c *Client) Configured() bool {
	return c != nil && c.client != nil
}

// Advise sends the snapshot and returns free-text commentary.
func (c *Client) Advise(ctx context.Context, snapshot Snapshot) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: advisePrompt(string(payload))},
			},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate advice: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("empty response from model")
	}
	return text, nil
}

// Chat sends the account's holdings plus the user message (and an optional
// inline image) and parses the reply. The reply is either plain text or the
// structured {response, holdings} object; holdings come back non-nil only
// when the structured form parsed completely.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (ChatReply, error) {
	if !c.Configured() {
		return ChatReply{}, ErrNotConfigured
	}

	payload, err := json.Marshal(req.Holdings)
	if err != nil {
		return ChatReply{}, fmt.Errorf("marshal holdings: %w", err)
	}

	parts := []*genai.Part{
		{Text: chatPrompt(string(payload), req.Message)},
	}
	if req.Image != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: req.Image.MIMEType,
				Data:     req.Image.Data,
			},
		})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return ChatReply{}, fmt.Errorf("generate chat reply: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return ChatReply{}, errors.New("empty response from model")
	}
	return parseChatReply(text), nil
}
