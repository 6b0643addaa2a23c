package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a key with no stored value.
	ErrNotFound = errors.New("key not found")
	// ErrQuotaExceeded reports a write rejected because the value is too large.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// KV is durable key-value storage holding UTF-8 JSON strings. A KV has a
// single writer per key.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// CheckQuota returns ErrQuotaExceeded when value is longer than max bytes.
// A max of zero or less disables the check.
func CheckQuota(key, value string, max int) error {
	if max > 0 && len(value) > max {
		return &QuotaError{Key: key, Size: len(value), Max: max}
	}
	return nil
}

// QuotaError describes a rejected oversized write.
type QuotaError struct {
	Key  string
	Size int
	Max  int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("storage quota exceeded: %s is %d bytes, limit %d", e.Key, e.Size, e.Max)
}

// Unwrap lets errors.Is match ErrQuotaExceeded.
func (e *QuotaError) Unwrap() error {
	return ErrQuotaExceeded
}
