// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package manager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Juneo-io/epochminter/database"
	"github.com/Juneo-io/epochminter/database/leveldb"
	"github.com/Juneo-io/epochminter/database/memdb"
	"github.com/Juneo-io/epochminter/database/pebble"
	"github.com/Juneo-io/epochminter/version"
)

const (
	LevelDB  = "leveldb"
	PebbleDB = "pebbledb"
	MemDB    = "memdb"

	perms = 0o750
)

var ErrUnknownBackend = errors.New("unknown database backend")

type VersionedDatabase struct {
	Database database.Database
	Version  *version.Semantic
	// Path is the directory holding the database. Empty for in-memory
	// databases.
	Path string
}

// Close the underlying database
func (db *VersionedDatabase) Close() error {
	return db.Database.Close()
}

// Open opens the [backend] database of the current database version under
// [dir]. Every database version lives in its own sub-directory so a layout
// change never reads the state of an older version.
func Open(backend string, dir string, log *zap.Logger) (*VersionedDatabase, error) {
	v := version.CurrentDatabase
	if backend == MemDB {
		log.Info("opening in-memory database")
		return &VersionedDatabase{
			Database: memdb.New(),
			Version:  v,
		}, nil
	}

	path := filepath.Join(dir, backend, v.String())
	if err := os.MkdirAll(path, perms); err != nil {
		return nil, fmt.Errorf("couldn't create database directory %q: %w", path, err)
	}

	log.Info("opening database",
		zap.String("backend", backend),
		zap.String("path", path),
		zap.Stringer("version", v),
	)

	var (
		db  database.Database
		err error
	)
	switch backend {
	case LevelDB:
		db, err = leveldb.New(path, log)
	case PebbleDB:
		db, err = pebble.New(path, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	if err != nil {
		return nil, fmt.Errorf("couldn't open %s database at %q: %w", backend, path, err)
	}
	return &VersionedDatabase{
		Database: db,
		Version:  v,
		Path:     path,
	}, nil
}
