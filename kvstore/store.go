// Package kvstore provides the key-value persistence used for filter state.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when a backend cannot be reached.
var ErrUnavailable = errors.New("key-value store unavailable")

// DefaultTimeout bounds a single call on networked backends.
const DefaultTimeout = 5 * time.Second

// Store is a flat string key-value store. Each Set replaces the whole value.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}

// opContext returns a context bounded by timeout, falling back to DefaultTimeout.
func opContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}
