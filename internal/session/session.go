// Package session owns the live per-user working sets. Each Session wraps a
// ledger.Book behind a mutex so concurrent HTTP handlers act as a single
// logical writer, and decouples persistence from mutation with a debounced,
// coalesced save. The durable store only ever sees whole serialized
// collections.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tesoro/internal/core"
	"tesoro/internal/ledger"
	"tesoro/internal/storage"
)

// EventPublisher receives every applied transaction. Implementations must be
// safe for concurrent use. A nil publisher disables eventing.
type EventPublisher interface {
	PublishTransaction(ctx context.Context, userID string, tx core.Transaction) error
}

const saveTimeout = 10 * time.Second

// Session serializes all access to one user's Book and schedules persistence
// after each mutation.
type Session struct {
	UserID string

	mu     sync.Mutex
	book   *ledger.Book
	store  storage.Store
	saver  *debouncer
	events EventPublisher
}

func newSession(userID string, book *ledger.Book, store storage.Store, debounce time.Duration, events EventPublisher) *Session {
	s := &Session{
		UserID: userID,
		book:   book,
		store:  store,
		events: events,
	}
	s.saver = newDebouncer(debounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := s.save(ctx); err != nil {
			slog.Error("Debounced save failed", "user_id", userID, "error", err)
		}
	})
	return s
}

// Accounts returns a snapshot copy of the account list.
func (s *Session) Accounts() []core.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Account(nil), s.book.Accounts...)
}

// Transactions returns a snapshot copy, most recent first.
func (s *Session) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.book.Transactions...)
}

// Rules returns a snapshot copy of the recurring rules.
func (s *Session) Rules() []core.RecurringRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.RecurringRule(nil), s.book.Rules...)
}

func (s *Session) BaseCurrency() core.Currency {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.BaseCurrency
}

func (s *Session) AdviceRecord() core.Advice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Advice
}

// Overview recomputes the derived dashboard values from the current state.
func (s *Session) Overview(now time.Time) (core.Overview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Overview(now)
}

// AccountByID returns a copy of one account.
func (s *Session) AccountByID(id string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, err := s.book.AccountByID(id)
	if err != nil {
		return core.Account{}, err
	}
	return *account, nil
}

func (s *Session) CreateAccount(ctx context.Context, account core.Account) (core.Account, error) {
	s.mu.Lock()
	created, err := s.book.CreateAccount(account)
	s.mu.Unlock()
	if err != nil {
		return core.Account{}, err
	}
	s.saver.Schedule()
	return created, nil
}

func (s *Session) CheckInAccount(ctx context.Context, id string) (core.Account, error) {
	s.mu.Lock()
	account, err := s.book.CheckInAccount(id, time.Now())
	s.mu.Unlock()
	if err != nil {
		return core.Account{}, err
	}
	s.saver.Schedule()
	return account, nil
}

// ReplaceHoldings swaps an investment account's holdings wholesale. Callers
// invoke this only with a fully parsed replacement list, so a failed
// extraction can never leave partial holdings behind.
func (s *Session) ReplaceHoldings(ctx context.Context, id string, holdings []core.Holding) (core.Account, error) {
	s.mu.Lock()
	account, err := s.book.ReplaceHoldings(id, holdings)
	s.mu.Unlock()
	if err != nil {
		return core.Account{}, err
	}
	s.saver.Schedule()
	return account, nil
}

func (s *Session) SetBaseCurrency(ctx context.Context, currency core.Currency) error {
	s.mu.Lock()
	err := s.book.SetBaseCurrency(currency)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.saver.Schedule()
	return nil
}

func (s *Session) SetAdvice(ctx context.Context, text string) core.Advice {
	s.mu.Lock()
	s.book.SetAdvice(text, time.Now())
	advice := s.book.Advice
	s.mu.Unlock()
	s.saver.Schedule()
	return advice
}

func (s *Session) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	created, err := s.book.CreateTransaction(tx, time.Now())
	s.mu.Unlock()
	if err != nil {
		return core.Transaction{}, err
	}
	s.saver.Schedule()
	s.publish(ctx, created)
	return created, nil
}

func (s *Session) MarkReceived(ctx context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	received, err := s.book.MarkReceived(id, time.Now())
	s.mu.Unlock()
	if err != nil {
		return core.Transaction{}, err
	}
	s.saver.Schedule()
	s.publish(ctx, received)
	return received, nil
}

func (s *Session) CreateRule(ctx context.Context, rule core.RecurringRule) (core.RecurringRule, error) {
	s.mu.Lock()
	created, err := s.book.CreateRule(rule)
	s.mu.Unlock()
	if err != nil {
		return core.RecurringRule{}, err
	}
	s.saver.Schedule()
	return created, nil
}

func (s *Session) Materialize(ctx context.Context, ruleID string) (core.Transaction, error) {
	s.mu.Lock()
	tx, err := s.book.Materialize(ruleID, time.Now())
	s.mu.Unlock()
	if err != nil {
		return core.Transaction{}, err
	}
	s.saver.Schedule()
	s.publish(ctx, tx)
	return tx, nil
}

// publish hands an applied transaction to the event stream. Publishing is
// best effort: the mutation already succeeded locally, so failures only log.
func (s *Session) publish(ctx context.Context, tx core.Transaction) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransaction(ctx, s.UserID, tx); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"user_id", s.UserID,
			"transaction_id", tx.ID,
			"error", err)
	}
}

// Flush cancels any pending debounced save and persists synchronously. Used
// at logout and shutdown.
func (s *Session) Flush(ctx context.Context) error {
	s.saver.Cancel()
	return s.save(ctx)
}

// save serializes the collections under the session lock and writes them
// outside it, whole values per key.
func (s *Session) save(ctx context.Context) error {
	s.mu.Lock()
	records, err := s.marshalLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := s.store.Put(ctx, s.UserID, record.key, record.value); err != nil {
			return fmt.Errorf("persist %s: %w", record.key, err)
		}
	}
	return nil
}

type record struct {
	key   string
	value []byte
}

func (s *Session) marshalLocked() ([]record, error) {
	records := []record{}
	for _, item := range []struct {
		key string
		val any
	}{
		{storage.KeyAccounts, s.book.Accounts},
		{storage.KeyTransactions, s.book.Transactions},
		{storage.KeyRules, s.book.Rules},
		{storage.KeyBaseCurrency, s.book.BaseCurrency},
		{storage.KeyAdvice, s.book.Advice},
	} {
		value, err := json.Marshal(item.val)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", item.key, err)
		}
		records = append(records, record{key: item.key, value: value})
	}
	return records, nil
}
