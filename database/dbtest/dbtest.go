// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dbtest holds the behavioral tests every database backend must pass.
package dbtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Juneo-io/epochminter/database"
)

// Tests is a list of all database tests
var Tests = map[string]func(t *testing.T, db database.Database){
	"SimpleKeyValue":        TestSimpleKeyValue,
	"OverwriteKeyValue":     TestOverwriteKeyValue,
	"BatchPut":              TestBatchPut,
	"BatchDelete":           TestBatchDelete,
	"BatchReset":            TestBatchReset,
	"IteratorPrefix":        TestIteratorPrefix,
	"IteratorEmptyPrefix":   TestIteratorEmptyPrefix,
	"IteratorAfterClose":    TestIteratorAfterClose,
	"GetAfterClose":         TestGetAfterClose,
	"ValueIsNotAliased":     TestValueIsNotAliased,
	"IteratorReleaseTwice":  TestIteratorReleaseTwice,
	"MissingKeyNotFound":    TestMissingKeyNotFound,
	"DeleteMissingKeyNoErr": TestDeleteMissingKeyNoErr,
}

func TestSimpleKeyValue(t *testing.T, db database.Database) {
	require := require.New(t)

	key := []byte("hello")
	value := []byte("world")

	has, err := db.Has(key)
	require.NoError(err)
	require.False(has)

	require.NoError(db.Put(key, value))

	has, err = db.Has(key)
	require.NoError(err)
	require.True(has)

	v, err := db.Get(key)
	require.NoError(err)
	require.Equal(value, v)

	require.NoError(db.Delete(key))

	has, err = db.Has(key)
	require.NoError(err)
	require.False(has)
}

func TestOverwriteKeyValue(t *testing.T, db database.Database) {
	require := require.New(t)

	key := []byte("hello")
	require.NoError(db.Put(key, []byte("world1")))
	require.NoError(db.Put(key, []byte("world2")))

	v, err := db.Get(key)
	require.NoError(err)
	require.Equal([]byte("world2"), v)
}

func TestMissingKeyNotFound(t *testing.T, db database.Database) {
	_, err := db.Get([]byte("missing"))
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestDeleteMissingKeyNoErr(t *testing.T, db database.Database) {
	require.NoError(t, db.Delete([]byte("missing")))
}

func TestBatchPut(t *testing.T, db database.Database) {
	require := require.New(t)

	key := []byte("hello")
	value := []byte("world")

	batch := db.NewBatch()
	require.NoError(batch.Put(key, value))
	require.Positive(batch.Size())

	has, err := db.Has(key)
	require.NoError(err)
	require.False(has)

	require.NoError(batch.Write())

	v, err := db.Get(key)
	require.NoError(err)
	require.Equal(value, v)
}

func TestBatchDelete(t *testing.T, db database.Database) {
	require := require.New(t)

	key := []byte("hello")
	require.NoError(db.Put(key, []byte("world")))

	batch := db.NewBatch()
	require.NoError(batch.Delete(key))
	require.NoError(batch.Write())

	has, err := db.Has(key)
	require.NoError(err)
	require.False(has)
}

func TestBatchReset(t *testing.T, db database.Database) {
	require := require.New(t)

	key := []byte("hello")

	batch := db.NewBatch()
	require.NoError(batch.Put(key, []byte("world")))
	batch.Reset()
	require.Zero(batch.Size())
	require.NoError(batch.Write())

	has, err := db.Has(key)
	require.NoError(err)
	require.False(has)
}

func TestIteratorPrefix(t *testing.T, db database.Database) {
	require := require.New(t)

	require.NoError(db.Put([]byte("a1"), []byte("v0")))
	require.NoError(db.Put([]byte("b2"), []byte("v2")))
	require.NoError(db.Put([]byte("b1"), []byte("v1")))
	require.NoError(db.Put([]byte("c1"), []byte("v3")))

	it := db.NewIteratorWithPrefix([]byte("b"))
	defer it.Release()

	require.True(it.Next())
	require.Equal([]byte("b1"), it.Key())
	require.Equal([]byte("v1"), it.Value())

	require.True(it.Next())
	require.Equal([]byte("b2"), it.Key())
	require.Equal([]byte("v2"), it.Value())

	require.False(it.Next())
	require.Nil(it.Key())
	require.Nil(it.Value())
	require.NoError(it.Error())
}

func TestIteratorEmptyPrefix(t *testing.T, db database.Database) {
	require := require.New(t)

	require.NoError(db.Put([]byte{0x00}, []byte("v0")))
	require.NoError(db.Put([]byte{0xff}, []byte("v1")))

	it := db.NewIteratorWithPrefix(nil)
	defer it.Release()

	count := 0
	for it.Next() {
		count++
	}
	require.NoError(it.Error())
	require.Equal(2, count)
}

func TestIteratorAfterClose(t *testing.T, db database.Database) {
	require := require.New(t)

	require.NoError(db.Put([]byte("k"), []byte("v")))
	require.NoError(db.Close())

	it := db.NewIteratorWithPrefix(nil)
	defer it.Release()

	require.False(it.Next())
	require.ErrorIs(it.Error(), database.ErrClosed)
}

func TestGetAfterClose(t *testing.T, db database.Database) {
	require := require.New(t)

	require.NoError(db.Close())

	_, err := db.Get([]byte("k"))
	require.ErrorIs(err, database.ErrClosed)
}

func TestValueIsNotAliased(t *testing.T, db database.Database) {
	require := require.New(t)

	key := []byte("hello")
	value := []byte("world")
	require.NoError(db.Put(key, value))

	value[0] = 'W'
	v, err := db.Get(key)
	require.NoError(err)
	require.Equal([]byte("world"), v)

	v[0] = 'W'
	v, err = db.Get(key)
	require.NoError(err)
	require.Equal([]byte("world"), v)
}

func TestIteratorReleaseTwice(t *testing.T, db database.Database) {
	it := db.NewIteratorWithPrefix(nil)
	it.Release()
	it.Release()
}
