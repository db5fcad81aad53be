// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/Juneo-io/epochminter/database"
)

const (
	Name = "pebble"

	defaultCacheSize = 512 * 1024 * 1024
)

var (
	_ database.Database = (*Database)(nil)
	_ database.Batch    = (*batch)(nil)
	_ database.Iterator = (*iter)(nil)
)

type Database struct {
	lock   sync.RWMutex
	pebble *pebble.DB
	closed bool
}

// New opens (or creates) a pebble database at [file].
func New(file string, log *zap.Logger) (*Database, error) {
	cache := pebble.NewCache(defaultCacheSize)
	defer cache.Unref()

	db, err := pebble.Open(file, &pebble.Options{
		Cache: cache,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %q: %w", file, err)
	}
	log.Info("opened pebble", zap.String("path", file))
	return &Database{pebble: db}, nil
}

func (db *Database) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.closed {
		return database.ErrClosed
	}
	db.closed = true
	return updateError(db.pebble.Close())
}

func (db *Database) Has(key []byte) (bool, error) {
	_, err := db.Get(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, database.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (db *Database) Get(key []byte) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return nil, database.ErrClosed
	}

	data, closer, err := db.pebble.Get(key)
	if err != nil {
		return nil, updateError(err)
	}
	defer closer.Close()
	return slices.Clone(data), nil
}

func (db *Database) Put(key []byte, value []byte) error {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return database.ErrClosed
	}
	return updateError(db.pebble.Set(key, value, pebble.Sync))
}

func (db *Database) Delete(key []byte) error {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return database.ErrClosed
	}
	return updateError(db.pebble.Delete(key, pebble.Sync))
}

func (db *Database) NewBatch() database.Batch {
	return &batch{
		db:    db,
		batch: db.pebble.NewBatch(),
	}
}

func (db *Database) NewIteratorWithPrefix(prefix []byte) database.Iterator {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return &iter{err: database.ErrClosed}
	}
	return &iter{
		iter: db.pebble.NewIter(&pebble.IterOptions{
			LowerBound: prefix,
			UpperBound: prefixUpperBound(prefix),
		}),
	}
}

// prefixUpperBound returns the smallest key that is larger than every key
// starting with [prefix], or nil if no such key exists.
func prefixUpperBound(prefix []byte) []byte {
	upper := slices.Clone(prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper[:i+1]
		}
	}
	return nil
}

type batch struct {
	db    *Database
	batch *pebble.Batch
	size  int
}

func (b *batch) Put(key, value []byte) error {
	b.size += len(key) + len(value)
	return b.batch.Set(key, value, nil)
}

func (b *batch) Delete(key []byte) error {
	b.size += len(key)
	return b.batch.Delete(key, nil)
}

func (b *batch) Size() int {
	return b.size
}

func (b *batch) Write() error {
	b.db.lock.RLock()
	defer b.db.lock.RUnlock()

	if b.db.closed {
		return database.ErrClosed
	}
	return updateError(b.batch.Commit(pebble.Sync))
}

func (b *batch) Reset() {
	b.batch.Reset()
	b.size = 0
}

type iter struct {
	iter    *pebble.Iterator
	started bool
	valid   bool
	err     error
	key     []byte
	value   []byte
}

func (it *iter) Next() bool {
	if it.err != nil || it.iter == nil {
		return false
	}
	if !it.started {
		it.valid = it.iter.First()
		it.started = true
	} else {
		it.valid = it.iter.Next()
	}
	if !it.valid {
		it.key = nil
		it.value = nil
		return false
	}
	it.key = slices.Clone(it.iter.Key())
	it.value = slices.Clone(it.iter.Value())
	return true
}

func (it *iter) Error() error {
	if it.err != nil {
		return it.err
	}
	if it.iter == nil {
		return nil
	}
	return updateError(it.iter.Error())
}

func (it *iter) Key() []byte {
	return it.key
}

func (it *iter) Value() []byte {
	return it.value
}

func (it *iter) Release() {
	if it.iter != nil {
		_ = it.iter.Close()
		it.iter = nil
	}
}

func updateError(err error) error {
	switch {
	case errors.Is(err, pebble.ErrClosed):
		return database.ErrClosed
	case errors.Is(err, pebble.ErrNotFound):
		return database.ErrNotFound
	default:
		return err
	}
}
