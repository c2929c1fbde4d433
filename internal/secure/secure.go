// Package secure provides memory hygiene for key material: explicit
// zeroing and best-effort memory locking so the seed never reaches swap.
package secure

import (
	"crypto/rand"
	"io"
	"runtime"
	"sync"
)

// Reader is the cryptographically secure random number generator.
// It wraps crypto/rand.Reader for consistency and testability.
//
//nolint:gochecknoglobals // Package-level RNG is required for testability
var Reader io.Reader = rand.Reader

// RandomBytes generates cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Zero overwrites the slice with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Bytes is a wrapper for sensitive byte slices that provides secure
// memory handling with mlock and explicit zeroing.
type Bytes struct {
	data   []byte
	locked bool
	mu     sync.Mutex
}

// NewBytes creates a new Bytes container of the given size.
// The memory is locked if the system supports it.
func NewBytes(size int) *Bytes {
	data := make([]byte, size)

	sb := &Bytes{
		data:   data,
		locked: mlock(data),
	}

	// Finalizer ensures memory is cleared even if Destroy isn't called.
	runtime.SetFinalizer(sb, func(s *Bytes) {
		s.Destroy()
	})

	return sb
}

// FromSlice copies existing data into secure memory.
func FromSlice(data []byte) *Bytes {
	sb := NewBytes(len(data))
	copy(sb.data, data)
	return sb
}

// Bytes returns the underlying byte slice, or nil after Destroy.
func (s *Bytes) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// IsLocked returns whether the memory is mlocked.
func (s *Bytes) IsLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Len returns the length of the data, or zero after Destroy.
func (s *Bytes) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Destroy zeros the memory and unlocks it. Safe to call multiple times.
func (s *Bytes) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return
	}

	for i := range s.data {
		s.data[i] = 0
	}

	if s.locked {
		munlock(s.data)
		s.locked = false
	}

	s.data = nil
	runtime.SetFinalizer(s, nil)
}
