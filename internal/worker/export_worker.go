// Package worker turns consumed transaction events into ledger rows.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"tesoro/internal/amqp"
	"tesoro/internal/sheets"
)

// ExportWorker appends each transaction event to the export ledger.
type ExportWorker struct {
	writer sheets.LedgerWriter
}

func NewExportWorker(writer sheets.LedgerWriter) *ExportWorker {
	return &ExportWorker{writer: writer}
}

// HandleTransactionEvent processes a single transaction event from AMQP.
// Returning an error makes the consumer nack-with-requeue, so only transient
// failures should bubble up from here.
func (w *ExportWorker) HandleTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"transaction_id", event.TransactionID,
		"user_id", event.UserID)

	entry := sheets.LedgerEntry{
		Date:     event.Date,
		UserID:   event.UserID,
		Type:     event.Type,
		Category: event.Category,
		Note:     event.Note,
		Amount:   event.Amount,
		Currency: event.Currency,
		Tags:     event.Tags,
	}

	ref, err := w.writer.Append(ctx, entry)
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"transaction_id", event.TransactionID,
		"sheets_ref", ref,
		"amount", event.Amount.String(),
		"currency", event.Currency)

	return nil
}

// Run consumes the queue until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeTransactions(ctx, func(event *amqp.TransactionEvent) error {
		return w.HandleTransactionEvent(ctx, event)
	})
}
