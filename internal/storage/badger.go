package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerKV implements KV on top of BadgerDB. It holds an exclusive lock on
// its directory, so only one process can open it at a time.
type BadgerKV struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a BadgerDB database under dataDir.
// Pass ":memory:" for an in-memory database (used by tests).
func OpenBadger(dataDir string) (*BadgerKV, error) {
	var opts badger.Options
	if dataDir == ":memory:" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dataDir)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}
	return &BadgerKV{db: db}, nil
}

// Close closes the underlying database.
func (b *BadgerKV) Close() error {
	return b.db.Close()
}

func (b *BadgerKV) Get(_ context.Context, key string) (string, bool, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return string(value), true, nil
}

func (b *BadgerKV) Set(_ context.Context, key, value string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

func (b *BadgerKV) Remove(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Entries returns every stored pair ordered by key.
func (b *BadgerKV) Entries(_ context.Context) ([]Entry, error) {
	var out []Entry
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, Entry{Key: string(item.KeyCopy(nil)), Value: string(v)})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return out, nil
}
