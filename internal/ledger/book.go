// Package ledger implements the transaction lifecycle over a single user's
// working set of accounts, transactions and recurring rules. A Book is an
// explicit store object: handlers mutate through its command methods and
// never through shared module state. Books are not safe for concurrent use;
// the session layer serializes access per user.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tesoro/internal/core"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrRuleNotFound        = errors.New("recurring rule not found")
	ErrAlreadyCompleted    = errors.New("transaction already completed")
	ErrNotInvestment       = errors.New("account is not an investment account")
)

// Book holds one user's collections plus the derived advice record. The
// transaction slice is kept most-recent-first.
type Book struct {
	Accounts     []core.Account
	Transactions []core.Transaction
	Rules        []core.RecurringRule
	BaseCurrency core.Currency
	Advice       core.Advice
}

func NewBook(base core.Currency) *Book {
	return &Book{BaseCurrency: base}
}

// AccountByID returns a pointer into the accounts slice so balance effects
// mutate in place.
func (b *Book) AccountByID(id string) (*core.Account, error) {
	for i := range b.Accounts {
		if b.Accounts[i].ID == id {
			return &b.Accounts[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
}

func (b *Book) transactionByID(id string) (*core.Transaction, error) {
	for i := range b.Transactions {
		if b.Transactions[i].ID == id {
			return &b.Transactions[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
}

// CreateAccount validates the account, assigns a fresh id and appends it.
func (b *Book) CreateAccount(account core.Account) (core.Account, error) {
	if err := account.Validate(); err != nil {
		return core.Account{}, err
	}
	account.ID = uuid.NewString()
	if account.Type == core.Investment && len(account.Holdings) > 0 {
		account.Balance = core.HoldingsTotal(account.Holdings)
	}
	b.Accounts = append(b.Accounts, account)
	return account, nil
}

// CheckInAccount stamps an investment account as reviewed today.
func (b *Book) CheckInAccount(id string, now time.Time) (core.Account, error) {
	account, err := b.AccountByID(id)
	if err != nil {
		return core.Account{}, err
	}
	if account.Type != core.Investment {
		return core.Account{}, fmt.Errorf("%w: %s", ErrNotInvestment, id)
	}
	account.LastCheckIn = now
	return *account, nil
}

// ReplaceHoldings swaps an investment account's holdings wholesale and
// recomputes its balance as the sum of holding amounts. Holdings have no
// independent lifecycle, so partial updates never happen.
func (b *Book) ReplaceHoldings(id string, holdings []core.Holding) (core.Account, error) {
	account, err := b.AccountByID(id)
	if err != nil {
		return core.Account{}, err
	}
	if account.Type != core.Investment {
		return core.Account{}, fmt.Errorf("%w: %s", ErrNotInvestment, id)
	}
	for _, h := range holdings {
		if err := h.Validate(); err != nil {
			return core.Account{}, err
		}
	}
	account.Holdings = append([]core.Holding(nil), holdings...)
	account.Balance = core.HoldingsTotal(account.Holdings)
	return *account, nil
}

// SetBaseCurrency switches the reporting currency. Balances stay in each
// account's own currency; only aggregation output changes.
func (b *Book) SetBaseCurrency(currency core.Currency) error {
	if err := currency.Validate(); err != nil {
		return err
	}
	b.BaseCurrency = currency
	return nil
}

// SetAdvice records freshly generated advice with its generation time.
func (b *Book) SetAdvice(text string, now time.Time) {
	b.Advice = core.Advice{Text: text, GeneratedAt: now}
}

// CreateTransaction validates the transaction, assigns a fresh id, prepends
// it (most-recent-first) and, only when it is already completed, applies its
// balance effect.
func (b *Book) CreateTransaction(tx core.Transaction, now time.Time) (core.Transaction, error) {
	tx.Tags = core.NormalizeTags(tx.Tags)
	if tx.Date.IsZero() {
		tx.Date = now
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if _, err := b.AccountByID(tx.AccountID); err != nil {
		return core.Transaction{}, err
	}
	if tx.Type == core.Transfer {
		if _, err := b.AccountByID(tx.DestinationID); err != nil {
			return core.Transaction{}, err
		}
	}
	tx.ID = uuid.NewString()
	if tx.Status == core.Completed {
		if err := b.applyEffect(tx); err != nil {
			return core.Transaction{}, err
		}
	}
	b.Transactions = append([]core.Transaction{tx}, b.Transactions...)
	return tx, nil
}

// MarkReceived transitions a pending transaction to completed: it back-fills
// the occurrence date to now and applies the balance effect exactly once.
// Calling it on an already completed transaction is rejected so the effect
// can never double-apply.
func (b *Book) MarkReceived(id string, now time.Time) (core.Transaction, error) {
	tx, err := b.transactionByID(id)
	if err != nil {
		return core.Transaction{}, err
	}
	if tx.Status != core.Pending {
		return core.Transaction{}, fmt.Errorf("%w: %s", ErrAlreadyCompleted, id)
	}
	if err := b.applyEffect(*tx); err != nil {
		return core.Transaction{}, err
	}
	tx.Status = core.Completed
	tx.Date = now
	return *tx, nil
}

// applyEffect applies a completed transaction's balance delta. Expense and
// income adjust the source account by the raw amount in the transaction's
// currency with no conversion; only transfers normalize, from the source
// account's currency into the destination account's. At most the two named
// accounts are touched.
func (b *Book) applyEffect(tx core.Transaction) error {
	source, err := b.AccountByID(tx.AccountID)
	if err != nil {
		return err
	}
	switch tx.Type {
	case core.Expense:
		source.Balance = source.Balance.Sub(tx.Amount)
	case core.Income:
		source.Balance = source.Balance.Add(tx.Amount)
	case core.Transfer:
		destination, err := b.AccountByID(tx.DestinationID)
		if err != nil {
			return err
		}
		converted, err := core.Convert(tx.Amount, source.Currency, destination.Currency)
		if err != nil {
			return fmt.Errorf("transfer %s: %w", tx.ID, err)
		}
		source.Balance = source.Balance.Sub(tx.Amount)
		destination.Balance = destination.Balance.Add(converted)
	default:
		return core.ErrUnknownTransactionType
	}
	return nil
}

// Overview recomputes every derived value from the current collections.
func (b *Book) Overview(now time.Time) (core.Overview, error) {
	return core.BuildOverview(b.Accounts, b.Transactions, b.BaseCurrency, b.Advice, now)
}
