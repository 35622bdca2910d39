package tokenstore

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// Badger: встроенное долговременное хранилище на диске.
type Badger struct {
	db *badger.DB
}

// NewBadger открывает базу badger в каталоге path.
// Пустой path открывает базу в памяти.
func NewBadger(path string) (*Badger, error) {
	const op = "tokenstore.NewBadger"

	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(_ context.Context, key string) (string, bool, error) {
	const op = "tokenstore.Badger.Get"

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
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return string(value), true, nil
}

func (b *Badger) Set(_ context.Context, key, value string) error {
	const op = "tokenstore.Badger.Set"
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (b *Badger) Delete(_ context.Context, keys ...string) error {
	const op = "tokenstore.Badger.Delete"
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}
