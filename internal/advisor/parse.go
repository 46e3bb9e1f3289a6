package advisor

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"tesoro/internal/core"
)

type (
	chatWire struct {
		Response string        `json:"response"`
		Holdings []holdingWire `json:"holdings"`
	}

	holdingWire struct {
		Name        string          `json:"name"`
		Amount      decimal.Decimal `json:"amount"`
		DailyChange decimal.Decimal `json:"dailyChange"`
		Quantity    decimal.Decimal `json:"quantity"`
	}
)

// parseChatReply interprets the raw model text. The structured form replaces
// holdings only when it parses completely; anything else is treated as plain
// conversation and leaves holdings alone.
func parseChatReply(raw string) ChatReply {
	trimmed := strings.TrimSpace(raw)

	var wire chatWire
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &wire); err != nil {
		return ChatReply{Response: trimmed}
	}
	if wire.Response == "" {
		return ChatReply{Response: trimmed}
	}

	holdings := make([]core.Holding, 0, len(wire.Holdings))
	for _, h := range wire.Holdings {
		name := strings.TrimSpace(h.Name)
		if name == "" {
			// One bad entry poisons the whole list.
			return ChatReply{Response: wire.Response}
		}
		holdings = append(holdings, core.Holding{
			Name:        name,
			Amount:      h.Amount,
			DailyChange: h.DailyChange,
			Quantity:    h.Quantity,
		})
	}
	if len(holdings) == 0 {
		return ChatReply{Response: wire.Response}
	}
	return ChatReply{Response: wire.Response, Holdings: holdings}
}

// cleanModelJSON strips Markdown fences and surrounding prose the model
// sometimes adds despite instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Extra safety: if there's still junk around the JSON object,
	// keep only from the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = s[start : end+1]
			s = strings.TrimSpace(s)
		}
	}

	return s
}
