package storage

import (
	"context"
	"errors"
	"fmt"
)

// Store is the key-value port behind the persisted cart and session snapshots.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

var ErrNotFound = errors.New("key not found")

// CorruptionError marks a stored value that exists but cannot be decoded.
// Callers fall back to the empty state and never surface it to users.
type CorruptionError struct {
	Key string
	Err error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("corrupt value under %q: %v", e.Key, e.Err)
}

func (e *CorruptionError) Unwrap() error {
	return e.Err
}

func CartKey(clientID string) string {
	return fmt.Sprintf("cart:%s", clientID)
}

func SessionKey(clientID string) string {
	return fmt.Sprintf("session:%s", clientID)
}
