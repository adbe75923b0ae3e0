package statestore_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/custodia-net/vault-escrow-contract/common"
	"github.com/custodia-net/vault-escrow-contract/statestore"
)

func openStore(t *testing.T) *statestore.Store {
	t.Helper()
	store, err := statestore.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func addr(b byte) common.Address {
	var a common.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func sampleRecord(mint, authority byte) *statestore.Record {
	return &statestore.Record{
		ID:           uuid.New(),
		CreatedUnix:  time.Now().Unix(),
		Mint:         addr(mint),
		Authority:    addr(authority),
		Vault:        addr(0xa0),
		VaultBump:    254,
		VaultHolding: addr(0xb0),
	}
}

func TestPutGetRoundtrip(t *testing.T) {
	store := openStore(t)

	rec := sampleRecord(1, 2)
	rec.Seller = addr(3)
	rec.Escrow = addr(4)
	require.NoError(t, store.Put(rec))

	got, err := store.Get(rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec, got)
}

func TestGetUnknownID(t *testing.T) {
	store := openStore(t)

	_, err := store.Get(uuid.New())
	require.ErrorIs(t, err, statestore.ErrNotFound)
}

func TestPutRequiresRunID(t *testing.T) {
	store := openStore(t)

	rec := sampleRecord(1, 2)
	rec.ID = uuid.Nil
	require.Error(t, store.Put(rec))
}

func TestByPairReplacesPrevious(t *testing.T) {
	store := openStore(t)

	first := sampleRecord(1, 2)
	require.NoError(t, store.Put(first))

	second := sampleRecord(1, 2)
	second.VaultBump = 253
	require.NoError(t, store.Put(second))

	got, err := store.ByPair(addr(1), addr(2))
	require.NoError(t, err)
	require.Equal(t, second.ID, got.ID)
	require.EqualValues(t, 253, got.VaultBump)

	// The older run is still reachable by its own ID.
	old, err := store.Get(first.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, old.ID)
}

func TestByPairUnknown(t *testing.T) {
	store := openStore(t)

	_, err := store.ByPair(addr(9), addr(9))
	require.ErrorIs(t, err, statestore.ErrNotFound)
}

func TestList(t *testing.T) {
	store := openStore(t)

	a := sampleRecord(1, 2)
	b := sampleRecord(3, 4)
	require.NoError(t, store.Put(a))
	require.NoError(t, store.Put(b))

	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 2)

	ids := map[uuid.UUID]bool{all[0].ID: true, all[1].ID: true}
	require.True(t, ids[a.ID])
	require.True(t, ids[b.ID])
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	store, err := statestore.Open(path)
	require.NoError(t, err)
	rec := sampleRecord(1, 2)
	require.NoError(t, store.Put(rec))
	require.NoError(t, store.Close())

	store, err = statestore.Open(path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Get(rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.Mint, got.Mint)
}