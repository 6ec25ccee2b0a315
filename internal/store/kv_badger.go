package store

import (
	"errors"

	"github.com/dgraph-io/badger/v4"

	"tipjar/internal/domain"
)

// BadgerKV stores values in an embedded badger database.
type BadgerKV struct {
	db *badger.DB
}

// OpenBadgerKV opens (or creates) a badger database in dir. An empty dir opens
// an in-memory database.
func OpenBadgerKV(dir string) (*BadgerKV, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerKV{db: db}, nil
}

// Get returns the value stored under key.
func (s *BadgerKV) Get(key string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// Put overwrites the value stored under key.
func (s *BadgerKV) Put(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Delete removes key.
func (s *BadgerKV) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close releases the database.
func (s *BadgerKV) Close() error { return s.db.Close() }

// Compile-time assertion that BadgerKV implements domain.KV.
var _ domain.KV = (*BadgerKV)(nil)
