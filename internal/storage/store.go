// Package storage persists one durable record per (user id, logical key)
// pair. Collections are stored as their serialized whole: callers read,
// modify and write entire values, never incremental rows.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Logical keys under which a user's state is stored.
const (
	KeyAccounts     = "accounts"
	KeyTransactions = "transactions"
	KeyRules        = "recurringRules"
	KeyBaseCurrency = "baseCurrency"
	KeyAdvice       = "advice"

	// KeySessionUser is the single global record tracking the current
	// session user; it lives under GlobalScope instead of a user id.
	KeySessionUser = "sessionUser"
	GlobalScope    = "_global"
)

var ErrNotFound = errors.New("record not found")

type Store interface {
	// Get returns the record value, or ErrNotFound.
	Get(ctx context.Context, userID, key string) ([]byte, error)

	// Put writes the record value, replacing any previous one.
	Put(ctx context.Context, userID, key string, value []byte) error

	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, userID, key string) error

	Close() error
}

// Open builds a store for the configured backend.
func Open(backend, dbPath string) (Store, error) {
	switch backend {
	case "sqlite":
		return NewSQLiteStore(dbPath)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
