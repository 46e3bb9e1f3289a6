package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	ports "tesoro/internal/sheets"
)

// Client appends ledger rows to a Google Sheets spreadsheet using service
// account credentials.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	appendRange   string
}

// Ensure interface conformance
var _ ports.LedgerWriter = (*Client)(nil)

// New creates a Sheets client from inline service account JSON. appendRange
// is the A1 range rows are appended under, e.g. "Ledger!A:H".
func New(ctx context.Context, credentialsJSON []byte, spreadsheetID, appendRange string) (*Client, error) {
	if len(credentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if appendRange == "" {
		appendRange = "Ledger!A:H"
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		appendRange:   appendRange,
	}, nil
}

// Append writes one ledger row and returns the updated range as reference.
func (c *Client) Append(ctx context.Context, entry ports.LedgerEntry) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	row := []any{
		entry.Date.Format("2006-01-02"),
		entry.UserID,
		string(entry.Type),
		entry.Category,
		entry.Note,
		entry.Amount.InexactFloat64(),
		string(entry.Currency),
		strings.Join(entry.Tags, ", "),
	}
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.appendRange, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.appendRange, err)
	}

	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return c.appendRange, nil
}
