// Package storage provides the device-local key-value store backing the
// seed record, the block cursor, and pending transaction bookkeeping.
package storage

import "errors"

// ErrKeyNotFound is returned by Get for missing keys.
var ErrKeyNotFound = errors.New("key not found")

// KV is the persistence contract the wallet core consumes. The host
// environment may supply any implementation; Badger is the default.
type KV interface {
	// Get retrieves a value by key. Returns ErrKeyNotFound if absent.
	Get(key []byte) ([]byte, error)

	// Put stores a key-value pair.
	Put(key, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key []byte) error

	// Has checks if a key exists.
	Has(key []byte) (bool, error)

	// ForEach iterates over all keys with the given prefix.
	ForEach(prefix []byte, fn func(key, value []byte) error) error

	// Close releases the store.
	Close() error
}
