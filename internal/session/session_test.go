package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tesoro/internal/core"
	"tesoro/internal/storage"
)

// countingStore wraps a memory store and counts writes, so tests can assert
// how many saves the debouncer let through.
type countingStore struct {
	storage.Store
	mu   sync.Mutex
	puts int
}

func newCountingStore() *countingStore {
	return &countingStore{Store: storage.NewMemoryStore()}
}

func (c *countingStore) Put(ctx context.Context, userID, key string, value []byte) error {
	c.mu.Lock()
	c.puts++
	c.mu.Unlock()
	return c.Store.Put(ctx, userID, key, value)
}

func (c *countingStore) putCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.puts
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.Transaction
}

func (p *recordingPublisher) PublishTransaction(_ context.Context, _ string, tx core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, tx)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testAccount() core.Account {
	return core.Account{Name: "Daily", Type: core.Savings, Currency: core.CNY, Balance: dec("200")}
}

func expenseFor(accountID string) core.Transaction {
	return core.Transaction{
		Amount:    dec("50"),
		Currency:  core.CNY,
		Type:      core.Expense,
		Category:  core.NewCategory(core.CategoryGroceries),
		AccountID: accountID,
		Status:    core.Completed,
	}
}

// A burst of mutations within the debounce window must persist exactly once:
// one write per record key, not one per mutation.
func TestMutationsCoalesceIntoOneSave(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	m := NewManager(store, Config{Debounce: 30 * time.Millisecond})

	s, err := m.Session(ctx, "u1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}

	account, err := s.CreateAccount(ctx, testAccount())
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if _, err := s.CreateTransaction(ctx, expenseFor(account.ID)); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if _, err := s.CreateTransaction(ctx, expenseFor(account.ID)); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	// Five record keys written by the single coalesced save.
	if got := store.putCount(); got != 5 {
		t.Fatalf("puts = %d, want 5 (one save)", got)
	}
}

func TestFlushPersistsAndCancelsPending(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	m := NewManager(store, Config{Debounce: 10 * time.Second})

	s, err := m.Session(ctx, "u1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if _, err := s.CreateAccount(ctx, testAccount()); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := store.putCount(); got != 5 {
		t.Fatalf("puts = %d, want 5 after flush", got)
	}

	// The pending debounced save was cancelled; nothing else arrives.
	time.Sleep(100 * time.Millisecond)
	if got := store.putCount(); got != 5 {
		t.Fatalf("puts = %d after wait, want still 5", got)
	}

	value, err := store.Get(ctx, "u1", storage.KeyAccounts)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(value) == 0 || string(value) == "null" {
		t.Fatalf("accounts record empty after flush: %s", value)
	}
}

func TestSessionStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	first := NewManager(store, Config{Debounce: time.Hour})
	s, err := first.Session(ctx, "u1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	account, err := s.CreateAccount(ctx, testAccount())
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if _, err := s.CreateTransaction(ctx, expenseFor(account.ID)); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if err := s.SetBaseCurrency(ctx, core.USD); err != nil {
		t.Fatalf("SetBaseCurrency: %v", err)
	}
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	// A fresh manager over the same store sees the persisted working set.
	second := NewManager(store, Config{Debounce: time.Hour})
	reloaded, err := second.Session(ctx, "u1")
	if err != nil {
		t.Fatalf("reload Session: %v", err)
	}
	accounts := reloaded.Accounts()
	if len(accounts) != 1 || accounts[0].ID != account.ID {
		t.Fatalf("reloaded accounts = %+v", accounts)
	}
	if got := accounts[0].Balance; !got.Equal(dec("150")) {
		t.Fatalf("reloaded balance = %s, want 150", got)
	}
	if got := reloaded.BaseCurrency(); got != core.USD {
		t.Fatalf("reloaded base = %s, want USD", got)
	}
	transactions := reloaded.Transactions()
	if len(transactions) != 1 {
		t.Fatalf("reloaded transactions = %d, want 1", len(transactions))
	}
	// The rule seeded on first run came back; no second seed happened.
	if rules := reloaded.Rules(); len(rules) != 1 {
		t.Fatalf("reloaded rules = %d, want the single seeded rule", len(rules))
	}
}

func TestSessionSeedsDefaultRule(t *testing.T) {
	ctx := context.Background()
	m := NewManager(storage.NewMemoryStore(), Config{Debounce: time.Hour})
	s, err := m.Session(ctx, "fresh")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	rules := s.Rules()
	if len(rules) != 1 {
		t.Fatalf("rules = %d, want seeded default", len(rules))
	}
	if rules[0].Name != "Health Insurance" {
		t.Fatalf("seeded rule = %q", rules[0].Name)
	}
}

func TestSessionReuse(t *testing.T) {
	ctx := context.Background()
	m := NewManager(storage.NewMemoryStore(), Config{})
	a, err := m.Session(ctx, "u1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	b, err := m.Session(ctx, "u1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if a != b {
		t.Fatal("expected the same session instance per user")
	}
}

func TestTransactionEventsPublished(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	m := NewManager(storage.NewMemoryStore(), Config{Debounce: time.Hour, Events: pub})

	s, err := m.Session(ctx, "u1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	account, err := s.CreateAccount(ctx, testAccount())
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if pub.count() != 0 {
		t.Fatal("account creation must not publish transaction events")
	}

	if _, err := s.CreateTransaction(ctx, expenseFor(account.ID)); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	pending := core.Transaction{
		Amount:    dec("500"),
		Currency:  core.CNY,
		Type:      core.Income,
		Category:  core.NewCategory(core.CategorySalary),
		AccountID: account.ID,
		Status:    core.Pending,
	}
	created, err := s.CreateTransaction(ctx, pending)
	if err != nil {
		t.Fatalf("CreateTransaction pending: %v", err)
	}
	if _, err := s.MarkReceived(ctx, created.ID); err != nil {
		t.Fatalf("MarkReceived: %v", err)
	}

	if got := pub.count(); got != 3 {
		t.Fatalf("events = %d, want 3 (create, create, receive)", got)
	}
}

func TestSessionUserRecord(t *testing.T) {
	ctx := context.Background()
	m := NewManager(storage.NewMemoryStore(), Config{})

	if _, err := m.SessionUser(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound with no session, got %v", err)
	}

	user := core.User{ID: "u1", Username: "ada", Email: "ada@example.com"}
	if err := m.SetSessionUser(ctx, user); err != nil {
		t.Fatalf("SetSessionUser: %v", err)
	}
	got, err := m.SessionUser(ctx)
	if err != nil {
		t.Fatalf("SessionUser: %v", err)
	}
	if got != user {
		t.Fatalf("session user = %+v, want %+v", got, user)
	}

	if err := m.ClearSessionUser(ctx); err != nil {
		t.Fatalf("ClearSessionUser: %v", err)
	}
	if _, err := m.SessionUser(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
}

func TestMarkReceivedRejectionDoesNotPublish(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	m := NewManager(storage.NewMemoryStore(), Config{Debounce: time.Hour, Events: pub})

	s, err := m.Session(ctx, "u1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	account, err := s.CreateAccount(ctx, testAccount())
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	created, err := s.CreateTransaction(ctx, expenseFor(account.ID))
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	before := pub.count()

	if _, err := s.MarkReceived(ctx, created.ID); err == nil {
		t.Fatal("expected rejection for already completed transaction")
	}
	if got := pub.count(); got != before {
		t.Fatalf("events = %d, want unchanged %d after rejection", got, before)
	}
}
