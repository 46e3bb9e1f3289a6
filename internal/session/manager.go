package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tesoro/internal/core"
	"tesoro/internal/ledger"
	"tesoro/internal/storage"
)

// Config tunes the manager. Zero values fall back to the defaults below.
type Config struct {
	Debounce     time.Duration
	BaseCurrency core.Currency
	Events       EventPublisher
}

const defaultDebounce = 800 * time.Millisecond

// Manager hands out one live Session per user, loading the user's records on
// first touch and keeping the session alive for the life of the process.
type Manager struct {
	store    storage.Store
	debounce time.Duration
	base     core.Currency
	events   EventPublisher

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(store storage.Store, cfg Config) *Manager {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = core.CNY
	}
	return &Manager{
		store:    store,
		debounce: cfg.Debounce,
		base:     cfg.BaseCurrency,
		events:   cfg.Events,
		sessions: make(map[string]*Session),
	}
}

// Session returns the live session for a user, loading and seeding state
// from the store the first time the user shows up.
func (m *Manager) Session(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s, nil
	}

	book, seeded, err := m.load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load session for %s: %w", userID, err)
	}
	s := newSession(userID, book, m.store, m.debounce, m.events)
	m.sessions[userID] = s
	if seeded {
		s.saver.Schedule()
	}
	return s, nil
}

// load reads every record for the user, tolerating missing ones so a brand
// new user starts from defaults. An empty rule collection gets the single
// default rule seeded.
func (m *Manager) load(ctx context.Context, userID string) (*ledger.Book, bool, error) {
	book := ledger.NewBook(m.base)

	if err := m.loadRecord(ctx, userID, storage.KeyAccounts, &book.Accounts); err != nil {
		return nil, false, err
	}
	if err := m.loadRecord(ctx, userID, storage.KeyTransactions, &book.Transactions); err != nil {
		return nil, false, err
	}
	if err := m.loadRecord(ctx, userID, storage.KeyRules, &book.Rules); err != nil {
		return nil, false, err
	}
	if err := m.loadRecord(ctx, userID, storage.KeyBaseCurrency, &book.BaseCurrency); err != nil {
		return nil, false, err
	}
	if book.BaseCurrency == "" {
		book.BaseCurrency = m.base
	}
	if err := m.loadRecord(ctx, userID, storage.KeyAdvice, &book.Advice); err != nil {
		return nil, false, err
	}

	seeded := false
	if len(book.Rules) == 0 {
		rule := book.SeedDefaultRule(time.Now())
		seeded = true
		slog.InfoContext(ctx, "Seeded default recurring rule",
			"user_id", userID,
			"rule_id", rule.ID)
	}
	return book, seeded, nil
}

func (m *Manager) loadRecord(ctx context.Context, userID, key string, dst any) error {
	value, err := m.store.Get(ctx, userID, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(value, dst); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// FlushAll persists every live session concurrently. Called on shutdown.
func (m *Manager) FlushAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range sessions {
		g.Go(func() error {
			if err := s.Flush(ctx); err != nil {
				return fmt.Errorf("flush %s: %w", s.UserID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Flush persists one user's session if it is live.
func (m *Manager) Flush(ctx context.Context, userID string) error {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return s.Flush(ctx)
}

// SetSessionUser stores the global current-session-user record so a
// returning client can resume without logging in again.
func (m *Manager) SetSessionUser(ctx context.Context, user core.User) error {
	value, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal session user: %w", err)
	}
	if err := m.store.Put(ctx, storage.GlobalScope, storage.KeySessionUser, value); err != nil {
		return fmt.Errorf("store session user: %w", err)
	}
	return nil
}

// SessionUser reads the global current-session-user record. Returns
// storage.ErrNotFound when nobody is logged in.
func (m *Manager) SessionUser(ctx context.Context) (core.User, error) {
	value, err := m.store.Get(ctx, storage.GlobalScope, storage.KeySessionUser)
	if err != nil {
		return core.User{}, err
	}
	var user core.User
	if err := json.Unmarshal(value, &user); err != nil {
		return core.User{}, fmt.Errorf("unmarshal session user: %w", err)
	}
	return user, nil
}

// ClearSessionUser removes the global session record at logout.
func (m *Manager) ClearSessionUser(ctx context.Context) error {
	return m.store.Delete(ctx, storage.GlobalScope, storage.KeySessionUser)
}
