// Package storage defines the ports for shopper session state: byte
// snapshots with a TTL, and a lock that serialises writers per session.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrLockNotObtained is returned when a session lock is held elsewhere for
// longer than the caller is willing to wait.
var ErrLockNotObtained = errors.New("session lock not obtained")

// Store keeps opaque session snapshots.
type Store interface {
	// Get returns ok=false when the key is absent or expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Clear(ctx context.Context, key string) error
}

// Locker serialises read-modify-write cycles on one key.
type Locker interface {
	// Lock blocks until the key is held or ctx ends and returns the release func.
	Lock(ctx context.Context, key string) (release func(), err error)
}

// GetJSON decodes the snapshot at key into dest. ok is false when absent.
func GetJSON(ctx context.Context, s Store, key string, dest any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes value and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw, ttl)
}
