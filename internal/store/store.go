// Package store is the persisted key-value store behind the storefront.
//
// The storefront keeps exactly two keys, KeyUsername and KeyCart, each holding
// JSON text. Backends do read and write whole values only; there is no
// compare-and-swap, so two writers of the same key end with last-writer-wins.
package store

import (
	"context"
	"errors"
)

const (
	KeyUsername = "username"
	KeyCart     = "cart"
)

var ErrEmptyKey = errors.New("store: empty key")

// KV is implemented by every backend. A missing key is reported with ok set to
// false, never as an error.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
