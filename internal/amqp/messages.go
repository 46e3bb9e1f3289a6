package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"tesoro/internal/core"
)

// TransactionEvent carries everything the export worker needs to append one
// ledger row, so the worker never has to read the primary store.
type TransactionEvent struct {
	UserID        string               `json:"userId"`
	TransactionID string               `json:"transactionId"`
	Type          core.TransactionType `json:"type"`
	Status        core.Status          `json:"status"`
	AccountID     string               `json:"accountId"`
	DestinationID string               `json:"destinationId,omitempty"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      core.Currency        `json:"currency"`
	Category      string               `json:"category"`
	Note          string               `json:"note,omitempty"`
	Tags          []string             `json:"tags,omitempty"`
	Date          time.Time            `json:"date"`
	Timestamp     time.Time            `json:"timestamp"`
}

// NewTransactionEvent builds an event from an applied transaction.
func NewTransactionEvent(userID string, tx core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		UserID:        userID,
		TransactionID: tx.ID,
		Type:          tx.Type,
		Status:        tx.Status,
		AccountID:     tx.AccountID,
		DestinationID: tx.DestinationID,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Category:      tx.Category.String(),
		Note:          tx.Note,
		Tags:          tx.Tags,
		Date:          tx.Date,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON creates an event from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var event TransactionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
