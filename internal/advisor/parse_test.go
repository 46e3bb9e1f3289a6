package advisor

import (
	"context"
	"errors"
	"testing"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "bare object untouched",
			raw:  `{"response":"hi"}`,
			want: `{"response":"hi"}`,
		},
		{
			name: "json fence stripped",
			raw:  "```json\n{\"response\":\"hi\"}\n```",
			want: `{"response":"hi"}`,
		},
		{
			name: "anonymous fence stripped",
			raw:  "```\n{\"response\":\"hi\"}\n```",
			want: `{"response":"hi"}`,
		},
		{
			name: "prose around object dropped",
			raw:  "Here you go:\n{\"response\":\"hi\"}\nHope that helps!",
			want: `{"response":"hi"}`,
		},
		{
			name: "whitespace trimmed",
			raw:  "  \n{\"response\":\"hi\"}\n  ",
			want: `{"response":"hi"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseChatReplyPlainText(t *testing.T) {
	reply := parseChatReply("  You hold mostly index funds, which is sensible.\n")

	if reply.Response != "You hold mostly index funds, which is sensible." {
		t.Errorf("Response = %q", reply.Response)
	}
	if reply.Holdings != nil {
		t.Errorf("Holdings = %v, want nil for plain text", reply.Holdings)
	}
}

func TestParseChatReplyPlainTextWithBraces(t *testing.T) {
	raw := "Use the {ticker} syntax when searching."
	reply := parseChatReply(raw)

	if reply.Response != raw {
		t.Errorf("Response = %q, want original text", reply.Response)
	}
	if reply.Holdings != nil {
		t.Errorf("Holdings = %v, want nil", reply.Holdings)
	}
}

func TestParseChatReplyStructured(t *testing.T) {
	raw := "```json\n" +
		`{"response":"Updated from your screenshot.","holdings":[` +
		`{"name":"VWCE","amount":5200.50,"dailyChange":-12.3,"quantity":41},` +
		`{"name":"Cash","amount":800}]}` +
		"\n```"

	reply := parseChatReply(raw)

	if reply.Response != "Updated from your screenshot." {
		t.Errorf("Response = %q", reply.Response)
	}
	if len(reply.Holdings) != 2 {
		t.Fatalf("len(Holdings) = %d, want 2", len(reply.Holdings))
	}
	if reply.Holdings[0].Name != "VWCE" {
		t.Errorf("Holdings[0].Name = %q", reply.Holdings[0].Name)
	}
	if reply.Holdings[0].Amount.String() != "5200.5" {
		t.Errorf("Holdings[0].Amount = %s", reply.Holdings[0].Amount)
	}
	if reply.Holdings[0].DailyChange.String() != "-12.3" {
		t.Errorf("Holdings[0].DailyChange = %s", reply.Holdings[0].DailyChange)
	}
	if reply.Holdings[0].Quantity.String() != "41" {
		t.Errorf("Holdings[0].Quantity = %s", reply.Holdings[0].Quantity)
	}
	if !reply.Holdings[1].DailyChange.IsZero() || !reply.Holdings[1].Quantity.IsZero() {
		t.Errorf("omitted fields should be zero, got %+v", reply.Holdings[1])
	}
}

func TestParseChatReplyStringAmounts(t *testing.T) {
	raw := `{"response":"ok","holdings":[{"name":"Bond fund","amount":"1234.56"}]}`

	reply := parseChatReply(raw)

	if len(reply.Holdings) != 1 {
		t.Fatalf("len(Holdings) = %d, want 1", len(reply.Holdings))
	}
	if reply.Holdings[0].Amount.String() != "1234.56" {
		t.Errorf("Amount = %s, want 1234.56", reply.Holdings[0].Amount)
	}
}

func TestParseChatReplyBadEntryDropsHoldings(t *testing.T) {
	raw := `{"response":"partial read","holdings":[{"name":"VWCE","amount":100},{"name":"  ","amount":5}]}`

	reply := parseChatReply(raw)

	if reply.Response != "partial read" {
		t.Errorf("Response = %q", reply.Response)
	}
	if reply.Holdings != nil {
		t.Errorf("Holdings = %v, want nil when any entry is unusable", reply.Holdings)
	}
}

func TestParseChatReplyEmptyHoldingsList(t *testing.T) {
	reply := parseChatReply(`{"response":"nothing to change","holdings":[]}`)

	if reply.Response != "nothing to change" {
		t.Errorf("Response = %q", reply.Response)
	}
	if reply.Holdings != nil {
		t.Errorf("Holdings = %v, want nil for empty list", reply.Holdings)
	}
}

func TestParseChatReplyMissingResponseFallsBack(t *testing.T) {
	raw := `{"holdings":[{"name":"VWCE","amount":100}]}`

	reply := parseChatReply(raw)

	if reply.Response != raw {
		t.Errorf("Response = %q, want raw text", reply.Response)
	}
	if reply.Holdings != nil {
		t.Errorf("Holdings = %v, want nil without response text", reply.Holdings)
	}
}

func TestUnconfiguredClient(t *testing.T) {
	ctx := context.Background()

	client, err := New(ctx, "", "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.Configured() {
		t.Fatal("Configured() = true without API key")
	}
	if client.model != DefaultModel {
		t.Errorf("model = %q, want %q", client.model, DefaultModel)
	}

	if _, err := client.Advise(ctx, Snapshot{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Advise() error = %v, want ErrNotConfigured", err)
	}
	if _, err := client.Chat(ctx, ChatRequest{Message: "hi"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Chat() error = %v, want ErrNotConfigured", err)
	}
}
