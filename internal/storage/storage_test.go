package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKVRoundTrip(t *testing.T) {
	t.Parallel()
	kv := NewMemoryKV()

	_, err := kv.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, kv.Put([]byte("k"), []byte("v")))
	value, err := kv.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)

	has, err := kv.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, kv.Delete([]byte("k")))
	has, err = kv.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, has)

	// Deleting a missing key is not an error.
	require.NoError(t, kv.Delete([]byte("k")))
}

func TestMemoryKVCopiesValues(t *testing.T) {
	t.Parallel()
	kv := NewMemoryKV()

	value := []byte("original")
	require.NoError(t, kv.Put([]byte("k"), value))
	value[0] = 'X'

	stored, err := kv.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), stored)

	// Mutating a returned value must not affect the store either.
	stored[0] = 'Y'
	again, err := kv.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestMemoryKVForEachPrefix(t *testing.T) {
	t.Parallel()
	kv := NewMemoryKV()

	require.NoError(t, kv.Put([]byte("tx/b"), []byte("2")))
	require.NoError(t, kv.Put([]byte("tx/a"), []byte("1")))
	require.NoError(t, kv.Put([]byte("other"), []byte("x")))

	var keys []string
	err := kv.ForEach([]byte("tx/"), func(key, _ []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tx/a", "tx/b"}, keys)
}

func TestPendingTxStoreRoundTrip(t *testing.T) {
	t.Parallel()
	store := NewPendingTxStore(NewMemoryKV())

	rec := &PendingTxRecord{
		Hash:     "0xabc",
		Kind:     "link_deposit",
		LinkCode: "0xcode",
		Amount:   "500",
		State:    TxStatePending,
	}
	require.NoError(t, store.Save(rec))
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := store.Get("0xabc")
	require.NoError(t, err)
	assert.Equal(t, "link_deposit", got.Kind)
	assert.Equal(t, "500", got.Amount)
	assert.Equal(t, TxStatePending, got.State)
}

func TestPendingTxStoreRequiresHash(t *testing.T) {
	t.Parallel()
	store := NewPendingTxStore(NewMemoryKV())
	require.Error(t, store.Save(&PendingTxRecord{State: TxStatePending}))
}

func TestPendingTxStoreMarkState(t *testing.T) {
	t.Parallel()
	store := NewPendingTxStore(NewMemoryKV())

	require.NoError(t, store.Save(&PendingTxRecord{Hash: "0x1", State: TxStatePending}))
	require.NoError(t, store.MarkState("0x1", TxStateConfirmed))

	got, err := store.Get("0x1")
	require.NoError(t, err)
	assert.Equal(t, TxStateConfirmed, got.State)

	// Terminal states are sticky.
	require.NoError(t, store.MarkState("0x1", TxStateFailed))
	got, err = store.Get("0x1")
	require.NoError(t, err)
	assert.Equal(t, TxStateConfirmed, got.State)
}

func TestPendingTxStoreList(t *testing.T) {
	t.Parallel()
	kv := NewMemoryKV()
	store := NewPendingTxStore(kv)

	require.NoError(t, store.Save(&PendingTxRecord{Hash: "0x1", State: TxStatePending}))
	require.NoError(t, store.Save(&PendingTxRecord{Hash: "0x2", State: TxStatePending}))

	// Unrelated keys in the same KV are invisible to the store.
	require.NoError(t, kv.Put([]byte("GD_LAST_BLOCK"), []byte("7")))

	records, err := store.List()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestPendingTxStoreDelete(t *testing.T) {
	t.Parallel()
	store := NewPendingTxStore(NewMemoryKV())

	require.NoError(t, store.Save(&PendingTxRecord{Hash: "0x1", State: TxStatePending}))
	require.NoError(t, store.Delete("0x1"))

	_, err := store.Get("0x1")
	require.ErrorIs(t, err, ErrKeyNotFound)
}
