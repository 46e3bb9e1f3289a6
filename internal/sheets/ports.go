package sheets

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"tesoro/internal/core"
)

// LedgerEntry is one exported row of the transaction ledger.
type LedgerEntry struct {
	Date     time.Time
	UserID   string
	Type     core.TransactionType
	Category string
	Note     string
	Amount   decimal.Decimal
	Currency core.Currency
	Tags     []string
}

// Ports for outbound adapters.
type (
	LedgerWriter interface {
		Append(ctx context.Context, entry LedgerEntry) (rowRef string, err error)
	}
)
