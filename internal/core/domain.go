package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Savings    AccountType = "savings"
	Investment AccountType = "investment"
	Credit     AccountType = "credit"
	Loan       AccountType = "loan"
)

const (
	Expense  TransactionType = "expense"
	Income   TransactionType = "income"
	Transfer TransactionType = "transfer"
)

const (
	Completed Status = "completed"
	Pending   Status = "pending"
)

const (
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// TagRecurring marks transactions materialized from a recurring rule.
const TagRecurring = "Recurring"

type (
	AccountType     string
	TransactionType string
	Status          string
	Frequency       string

	Account struct {
		ID          string          `json:"id"`
		Name        string          `json:"name"`
		Type        AccountType     `json:"type"`
		Currency    Currency        `json:"currency"`
		Balance     decimal.Decimal `json:"balance"`
		Color       string          `json:"color,omitempty"`
		LastCheckIn time.Time       `json:"lastCheckIn,omitzero"`
		Holdings    []Holding       `json:"holdings,omitempty"`
	}

	Holding struct {
		Name        string          `json:"name"`
		Amount      decimal.Decimal `json:"amount"`
		DailyChange decimal.Decimal `json:"dailyChange,omitzero"`
		Quantity    decimal.Decimal `json:"quantity,omitzero"`
	}

	Transaction struct {
		ID              string          `json:"id"`
		Date            time.Time       `json:"date"`
		ExpectedDate    time.Time       `json:"expectedDate,omitzero"`
		Amount          decimal.Decimal `json:"amount"`
		Currency        Currency        `json:"currency"`
		Type            TransactionType `json:"type"`
		Category        Category        `json:"category"`
		Tags            []string        `json:"tags,omitempty"`
		AccountID       string          `json:"accountId"`
		DestinationID   string          `json:"destinationId,omitempty"`
		Note            string          `json:"note,omitempty"`
		Status          Status          `json:"status"`
		Amortized       bool            `json:"amortized,omitempty"`
		AmortizedMonths int             `json:"amortizedMonths,omitempty"`
		Recurring       bool            `json:"recurring,omitempty"`
	}

	RecurringRule struct {
		ID          string          `json:"id"`
		Name        string          `json:"name"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    Currency        `json:"currency"`
		Category    Category        `json:"category"`
		Frequency   Frequency       `json:"frequency"`
		NextDueDate time.Time       `json:"nextDueDate"`
		AccountID   string          `json:"accountId"`
	}

	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	// Advice is the last generated AI commentary, kept per user so
	// staleness survives restarts.
	Advice struct {
		Text        string    `json:"text"`
		GeneratedAt time.Time `json:"generatedAt"`
	}
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrEmptyName              = errors.New("empty name")
	ErrNameTooLong            = errors.New("name too long (max 200 characters)")
	ErrNoteTooLong            = errors.New("note too long (max 500 characters)")
	ErrUnknownAccountType     = errors.New("unknown account type")
	ErrUnknownTransactionType = errors.New("unknown transaction type")
	ErrUnknownStatus          = errors.New("unknown status")
	ErrUnknownFrequency       = errors.New("unknown frequency")
	ErrMissingAccount         = errors.New("missing source account")
	ErrMissingDestination     = errors.New("transfer requires a destination account")
	ErrSameTransferAccounts   = errors.New("transfer accounts must differ")
	ErrUnexpectedDestination  = errors.New("destination account only allowed on transfers")
	ErrHoldingsNotInvestment  = errors.New("holdings only allowed on investment accounts")
	ErrAmortizedNotExpense    = errors.New("amortization only allowed on expenses")
	ErrInvalidAmortization    = errors.New("amortization months must be at least 1")
	ErrMissingDueDate         = errors.New("missing next due date")
)

func (t AccountType) Validate() error {
	switch t {
	case Savings, Investment, Credit, Loan:
		return nil
	default:
		return ErrUnknownAccountType
	}
}

func (t TransactionType) Validate() error {
	switch t {
	case Expense, Income, Transfer:
		return nil
	default:
		return ErrUnknownTransactionType
	}
}

func (s Status) Validate() error {
	switch s {
	case Completed, Pending:
		return nil
	default:
		return ErrUnknownStatus
	}
}

func (f Frequency) Validate() error {
	switch f {
	case Monthly, Yearly:
		return nil
	default:
		return ErrUnknownFrequency
	}
}

func (a Account) Validate() error {
	if len(strings.TrimSpace(a.Name)) == 0 {
		return ErrEmptyName
	}
	if len(a.Name) > 200 {
		return ErrNameTooLong
	}
	if err := a.Type.Validate(); err != nil {
		return err
	}
	if err := a.Currency.Validate(); err != nil {
		return err
	}
	if len(a.Holdings) > 0 && a.Type != Investment {
		return ErrHoldingsNotInvestment
	}
	for _, h := range a.Holdings {
		if err := h.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (h Holding) Validate() error {
	if len(strings.TrimSpace(h.Name)) == 0 {
		return ErrEmptyName
	}
	return nil
}

// HoldingsTotal sums holding amounts; an investment account's balance is
// recomputed from this whenever its holdings are replaced.
func HoldingsTotal(holdings []Holding) decimal.Decimal {
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(h.Amount)
	}
	return total
}

func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := t.Currency.Validate(); err != nil {
		return err
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Status.Validate(); err != nil {
		return err
	}
	if err := t.Category.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrMissingAccount
	}
	switch t.Type {
	case Transfer:
		if strings.TrimSpace(t.DestinationID) == "" {
			return ErrMissingDestination
		}
		if t.DestinationID == t.AccountID {
			return ErrSameTransferAccounts
		}
	default:
		if t.DestinationID != "" {
			return ErrUnexpectedDestination
		}
	}
	if t.Amortized && t.Type != Expense {
		return ErrAmortizedNotExpense
	}
	if t.Amortized && t.AmortizedMonths < 1 {
		return ErrInvalidAmortization
	}
	if len(t.Note) > 500 {
		return ErrNoteTooLong
	}
	return nil
}

// HasTag reports whether the transaction carries the given tag.
func (t Transaction) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

func (r RecurringRule) Validate() error {
	if len(strings.TrimSpace(r.Name)) == 0 {
		return ErrEmptyName
	}
	if len(r.Name) > 200 {
		return ErrNameTooLong
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := r.Currency.Validate(); err != nil {
		return err
	}
	if err := r.Category.Validate(); err != nil {
		return err
	}
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if r.NextDueDate.IsZero() {
		return ErrMissingDueDate
	}
	if strings.TrimSpace(r.AccountID) == "" {
		return ErrMissingAccount
	}
	return nil
}

// NormalizeTags trims, drops empties and deduplicates while preserving the
// first occurrence order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
