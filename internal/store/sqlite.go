// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/qustavo/sqlhooks/v2"

	"github.com/forensiq/ddup/internal/metrics"
	"github.com/forensiq/ddup/internal/model"
	"github.com/forensiq/ddup/pkg/log"
)

// DefaultFlushThreshold is the pending-insert count at which a batched
// transaction is committed and a fresh one opened.
const DefaultFlushThreshold = 1000

var registerDriverOnce sync.Once

const namedInsert = `INSERT INTO elements (sha1, sha256, md5, deviceid, path, fileslack)
	VALUES (:sha1, :sha256, :md5, :deviceid, :path, :fileslack)`

// SQLiteBackend is the reference entry store: sqlite3 via jmoiron/sqlx,
// traced through qustavo/sqlhooks/v2, schema-migrated with
// golang-migrate/migrate/v4, batched inserts through a prepared named
// statement, and the uniques query built with Masterminds/squirrel.
type SQLiteBackend struct {
	dsn             string
	flushThreshold  int
	db              *sqlx.DB
	mu              sync.Mutex
	tx              *sqlx.Tx
	stmt            *sqlx.NamedStmt
	pending         int
}

// NewSQLite returns a SQLiteBackend for dsn. flushThreshold <= 0 uses
// DefaultFlushThreshold.
func NewSQLite(dsn string, flushThreshold int) *SQLiteBackend {
	if flushThreshold <= 0 {
		flushThreshold = DefaultFlushThreshold
	}
	return &SQLiteBackend{dsn: dsn, flushThreshold: flushThreshold}
}

// insertRow is the wire shape bound to namedInsert; nil digest fields
// marshal to SQL NULL, distinguishing "not selected" from "empty string"
// (I3).
type insertRow struct {
	SHA1      *string `db:"sha1"`
	SHA256    *string `db:"sha256"`
	MD5       *string `db:"md5"`
	DeviceID  int64   `db:"deviceid"`
	Path      string  `db:"path"`
	FileSlack []byte  `db:"fileslack"`
}

func (s *SQLiteBackend) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	registerDriverOnce.Do(func() {
		sql.Register("sqlite3WithHooks", sqlhooks.Wrap(&sqlite3.SQLiteDriver{}, hooks{}))
	})

	db, err := sqlx.Open("sqlite3WithHooks", fmt.Sprintf("%s?_foreign_keys=on", s.dsn))
	if err != nil {
		return fmt.Errorf("store: open %s: %w", s.dsn, err)
	}
	// sqlite has no real concurrent-writer story; one connection avoids
	// waiting on the database's own lock from within our own process.
	db.SetMaxOpenConns(1)
	s.db = db

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		s.db = nil
		return err
	}

	if err := s.beginLocked(); err != nil {
		db.Close()
		s.db = nil
		return err
	}

	return nil
}

// beginLocked starts a fresh transaction and prepares the insert
// statement against it. Caller must hold s.mu.
func (s *SQLiteBackend) beginLocked() error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	stmt, err := tx.PrepareNamed(namedInsert)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("store: prepare insert: %w", err)
	}
	s.tx = tx
	s.stmt = stmt
	s.pending = 0
	return nil
}

func (s *SQLiteBackend) StoreEntry(e model.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return errors.New("store: StoreEntry called before Open")
	}

	_, err := s.stmt.Exec(insertRow{
		SHA1:      e.SHA1,
		SHA256:    e.SHA256,
		MD5:       e.MD5,
		DeviceID:  e.DeviceID,
		Path:      e.FilePath,
		FileSlack: e.FileSlack,
	})
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			log.Errorf("store: duplicate entry for device %d path %s, skipped", e.DeviceID, e.FilePath)
			metrics.DuplicatesSkipped.Inc()
			return nil
		}
		return fmt.Errorf("store: insert entry: %w", err)
	}

	s.pending++
	if s.pending >= s.flushThreshold {
		if err := s.commitAndReopenLocked(); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteBackend) commitAndReopenLocked() error {
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("store: commit batch: %w", err)
	}
	return s.beginLocked()
}

func (s *SQLiteBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx != nil {
		if err := s.tx.Commit(); err != nil {
			return fmt.Errorf("store: final commit: %w", err)
		}
		s.tx = nil
	}
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *SQLiteBackend) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx != nil {
		s.tx.Rollback()
		s.tx = nil
	}
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// sqliteUniqueIterator prefetches rows in batches of chunkSize so the
// caller never holds more than one batch's worth of paths in memory at
// once. chunkSize <= 0 disables batching: every row is fetched directly
// off the live cursor.
type sqliteUniqueIterator struct {
	rows      *sqlx.Rows
	chunkSize int
	buf       []string
	pos       int
	path      string
	err       error
	done      bool
}

func (it *sqliteUniqueIterator) Next() bool {
	if it.err != nil || it.done {
		return false
	}

	if it.chunkSize <= 0 {
		if !it.rows.Next() {
			it.done = true
			return false
		}
		it.err = it.rows.Scan(&it.path)
		return it.err == nil
	}

	if it.pos >= len(it.buf) {
		it.buf = it.buf[:0]
		it.pos = 0
		for len(it.buf) < it.chunkSize && it.rows.Next() {
			var p string
			if err := it.rows.Scan(&p); err != nil {
				it.err = err
				return false
			}
			it.buf = append(it.buf, p)
		}
		if len(it.buf) == 0 {
			it.done = true
			return false
		}
	}

	it.path = it.buf[it.pos]
	it.pos++
	return true
}

func (it *sqliteUniqueIterator) Path() string { return it.path }
func (it *sqliteUniqueIterator) Err() error    { return it.err }
func (it *sqliteUniqueIterator) Close() error  { return it.rows.Close() }

// GetUniquesForDevice streams the uniques view for deviceID, batching
// fetches in chunks of chunkSize (chunkSize <= 0 means one batch). The
// grouping key and lexicographic tie-break live in the
// get_unique_elements_all view (see migrations/sqlite3), not here.
func (s *SQLiteBackend) GetUniquesForDevice(deviceID int64, chunkSize int) (UniqueIterator, error) {
	s.mu.Lock()
	db := s.db
	// The open batch transaction holds the backend's only connection;
	// commit it so the query can run and sees every stored entry.
	if s.tx != nil {
		if err := s.tx.Commit(); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("store: commit before uniques query: %w", err)
		}
		s.tx = nil
		s.stmt = nil
	}
	s.mu.Unlock()
	if db == nil {
		return nil, errors.New("store: GetUniquesForDevice called before Open")
	}

	query, args, err := sq.Select("path").
		From("get_unique_elements_all").
		Where(sq.Eq{"deviceid": deviceID}).
		OrderBy("path ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("store: build uniques query: %w", err)
	}

	rows, err := db.Queryx(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: uniques query: %w", err)
	}

	return &sqliteUniqueIterator{rows: rows, chunkSize: chunkSize}, nil
}
