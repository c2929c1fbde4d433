package storage

import (
	"encoding/json"
	"fmt"
	"time"
)

// Pending transaction terminal states.
const (
	TxStatePending   = "pending"
	TxStateConfirmed = "confirmed"
	TxStateFailed    = "failed"
	TxStateTimedOut  = "timed_out"
)

// pendingTxPrefix namespaces pending transaction records in the KV store.
var pendingTxPrefix = []byte("tx/")

// PendingTxRecord is a write-ahead record for an in-flight transaction,
// persisted as soon as the network assigns a hash so the outcome can be
// reconciled after a restart or an observation timeout.
type PendingTxRecord struct {
	Hash      string    `json:"hash"`
	Kind      string    `json:"kind"` // transfer, link_deposit, claim, link_withdraw
	LinkCode  string    `json:"link_code,omitempty"`
	To        string    `json:"to,omitempty"`
	Amount    string    `json:"amount"`
	Reason    string    `json:"reason,omitempty"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PendingTxStore persists pending transaction records keyed by hash.
type PendingTxStore struct {
	kv KV
}

// NewPendingTxStore creates a pending transaction store over a KV store.
func NewPendingTxStore(kv KV) *PendingTxStore {
	return &PendingTxStore{kv: kv}
}

// Save writes a record keyed by its transaction hash.
func (s *PendingTxStore) Save(rec *PendingTxRecord) error {
	if rec.Hash == "" {
		return fmt.Errorf("pending record requires a transaction hash")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding pending record: %w", err)
	}
	return s.kv.Put(s.key(rec.Hash), data)
}

// Get retrieves a record by transaction hash.
func (s *PendingTxStore) Get(hash string) (*PendingTxRecord, error) {
	data, err := s.kv.Get(s.key(hash))
	if err != nil {
		return nil, err
	}

	var rec PendingTxRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding pending record: %w", err)
	}
	return &rec, nil
}

// MarkState transitions a record to a terminal state. Records never
// re-enter the pending state after leaving it.
func (s *PendingTxStore) MarkState(hash, state string) error {
	rec, err := s.Get(hash)
	if err != nil {
		return err
	}
	if rec.State != TxStatePending {
		return nil
	}
	rec.State = state
	return s.Save(rec)
}

// List returns all records, oldest key first.
func (s *PendingTxStore) List() ([]*PendingTxRecord, error) {
	var records []*PendingTxRecord
	err := s.kv.ForEach(pendingTxPrefix, func(_, value []byte) error {
		var rec PendingTxRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decoding pending record: %w", err)
		}
		records = append(records, &rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes a record.
func (s *PendingTxStore) Delete(hash string) error {
	return s.kv.Delete(s.key(hash))
}

func (s *PendingTxStore) key(hash string) []byte {
	return append(append([]byte{}, pendingTxPrefix...), hash...)
}
