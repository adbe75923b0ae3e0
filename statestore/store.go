// Package statestore persists the derived addresses of completed setup
// runs so that later runs can resume without re-deriving from scratch. The
// store is a caller-side convenience cache and is never authoritative: the
// ledger state and the pure derivations always win.
package statestore

import (
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/custodia-net/vault-escrow-contract/common"
)

var (
	bucketRuns   = []byte("setup_runs")
	bucketByPair = []byte("runs_by_pair")
)

// ErrNotFound is returned when no record matches the query.
var ErrNotFound = errors.New("statestore: record not found")

// encMode encodes records with Core Deterministic Encoding so that equal
// records always produce identical bytes. Addresses and run IDs serialize
// through their base58/text forms.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	var err error
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("statestore: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("statestore: CBOR decoder initialization failed: " + err.Error())
	}
}

// Record maps one completed setup run to everything it derived.
type Record struct {
	ID          uuid.UUID      `cbor:"id"`
	CreatedUnix int64          `cbor:"created_unix"`
	Mint        common.Address `cbor:"mint"`
	Authority   common.Address `cbor:"authority"`
	Vault       common.Address `cbor:"vault"`
	VaultBump   uint8          `cbor:"vault_bump"`
	// VaultHolding is the custody holding account ensured during setup.
	VaultHolding common.Address `cbor:"vault_holding"`
	// Seller and Escrow are set once an agreement was created in this run.
	Seller common.Address `cbor:"seller,omitempty"`
	Escrow common.Address `cbor:"escrow,omitempty"`
}

// Store is a bbolt-backed record store.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("statestore: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketRuns, bucketByPair} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("statestore: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores the record and indexes it by its (mint, authority) pair,
// replacing any previous record for the same pair.
func (s *Store) Put(rec *Record) error {
	if rec.ID == uuid.Nil {
		return fmt.Errorf("statestore: record has no run ID")
	}
	raw, err := encMode.Marshal(rec)
	if err != nil {
		return fmt.Errorf("statestore: encode record: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketRuns).Put(rec.ID[:], raw); err != nil {
			return err
		}
		return tx.Bucket(bucketByPair).Put(pairKey(rec.Mint, rec.Authority), rec.ID[:])
	})
}

// Get loads a record by its run ID.
func (s *Store) Get(id uuid.UUID) (*Record, error) {
	var rec *Record
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketRuns).Get(id[:])
		if raw == nil {
			return ErrNotFound
		}
		rec = new(Record)
		return decMode.Unmarshal(raw, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ByPair loads the most recent record for a (mint, authority) pair.
func (s *Store) ByPair(mint, authority common.Address) (*Record, error) {
	var rec *Record
	err := s.db.View(func(tx *bolt.Tx) error {
		idRaw := tx.Bucket(bucketByPair).Get(pairKey(mint, authority))
		if idRaw == nil {
			return ErrNotFound
		}
		raw := tx.Bucket(bucketRuns).Get(idRaw)
		if raw == nil {
			return ErrNotFound
		}
		rec = new(Record)
		return decMode.Unmarshal(raw, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns all stored records in key order.
func (s *Store) List() ([]*Record, error) {
	var out []*Record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(_, raw []byte) error {
			rec := new(Record)
			if err := decMode.Unmarshal(raw, rec); err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func pairKey(mint, authority common.Address) []byte {
	key := make([]byte, 0, 2*common.AddressLen)
	key = append(key, mint[:]...)
	key = append(key, authority[:]...)
	return key
}
