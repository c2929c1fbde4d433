// Package seedstore owns the wallet's root secret: a BIP39 mnemonic
// persisted in the device key-value store, generated once on first run
// and encrypted at rest to a device-local age identity.
package seedstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"filippo.io/age"

	"github.com/goodwallet/goodwallet/internal/keys"
	"github.com/goodwallet/goodwallet/internal/log"
	"github.com/goodwallet/goodwallet/internal/storage"
)

// Storage keys. MnemonicKey is the host-visible record name for the
// encrypted seed phrase.
const (
	MnemonicKey = "GD_USER_MNEMONIC"
	identityKey = "GD_DEVICE_IDENTITY"
)

// Store provides scoped, persistent storage of the seed phrase.
// The acquire-generate-store path is one critical section: concurrent
// first loads observe a single persisted seed.
type Store struct {
	mu sync.Mutex
	kv storage.KV
}

// New creates a seed store over a KV store.
func New(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// Load returns the persisted mnemonic, generating and persisting a
// fresh cryptographically-random one when none exists.
func (s *Store) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, err := s.loadOrCreateIdentity()
	if err != nil {
		return "", err
	}

	ciphertext, err := s.kv.Get([]byte(MnemonicKey))
	switch {
	case err == nil:
		mnemonic, decErr := decrypt(ciphertext, identity)
		if decErr != nil {
			return "", fmt.Errorf("decrypting stored mnemonic: %w", decErr)
		}
		if valErr := keys.ValidateMnemonic(mnemonic); valErr != nil {
			return "", fmt.Errorf("stored mnemonic is corrupt: %w", valErr)
		}
		return mnemonic, nil

	case errors.Is(err, storage.ErrKeyNotFound):
		return s.generateAndPersist(identity)

	default:
		return "", fmt.Errorf("reading stored mnemonic: %w", err)
	}
}

// Clear removes the persisted seed. Idempotent; used on wallet reset.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete([]byte(MnemonicKey)); err != nil {
		return fmt.Errorf("deleting stored mnemonic: %w", err)
	}
	return nil
}

// Exists reports whether a seed has been persisted.
func (s *Store) Exists() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Has([]byte(MnemonicKey))
}

func (s *Store) generateAndPersist(identity *age.X25519Identity) (string, error) {
	mnemonic, err := keys.GenerateMnemonic()
	if err != nil {
		return "", fmt.Errorf("generating mnemonic: %w", err)
	}

	ciphertext, err := encrypt(mnemonic, identity.Recipient())
	if err != nil {
		return "", fmt.Errorf("encrypting mnemonic: %w", err)
	}

	if err := s.kv.Put([]byte(MnemonicKey), ciphertext); err != nil {
		return "", fmt.Errorf("persisting mnemonic: %w", err)
	}

	log.Seed.Info().Msg("generated and persisted new seed phrase")
	return mnemonic, nil
}

// loadOrCreateIdentity returns the device age identity, creating one on
// first run. The identity only guards the seed record at rest; it is
// not a substitute for device-level encryption.
func (s *Store) loadOrCreateIdentity() (*age.X25519Identity, error) {
	raw, err := s.kv.Get([]byte(identityKey))
	if err == nil {
		identity, parseErr := age.ParseX25519Identity(string(raw))
		if parseErr != nil {
			return nil, fmt.Errorf("parsing device identity: %w", parseErr)
		}
		return identity, nil
	}
	if !errors.Is(err, storage.ErrKeyNotFound) {
		return nil, fmt.Errorf("reading device identity: %w", err)
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating device identity: %w", err)
	}

	if err := s.kv.Put([]byte(identityKey), []byte(identity.String())); err != nil {
		return nil, fmt.Errorf("persisting device identity: %w", err)
	}

	return identity, nil
}

func encrypt(plaintext string, recipient age.Recipient) ([]byte, error) {
	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}

	if _, err := io.WriteString(w, plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}

	return buf.Bytes(), nil
}

func decrypt(ciphertext []byte, identity age.Identity) (string, error) {
	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return "", fmt.Errorf("initializing decryption: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading decrypted data: %w", err)
	}

	return string(plaintext), nil
}
