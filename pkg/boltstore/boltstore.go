// Package boltstore keeps named record lists in a bbolt database.
//
// Each list is one msgpack value (see [codec]) in the "lists" bucket, keyed
// by name. A Put replaces the whole list in one bbolt transaction.
package boltstore

import (
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/calvinalkan/reclist/pkg/reclist"
	"github.com/calvinalkan/reclist/pkg/reclist/codec"
)

var bucketName = []byte("lists")

var (
	// ErrNotFound indicates no list is stored under the name.
	ErrNotFound = errors.New("boltstore: not found")

	// ErrEmptyName indicates an empty list name.
	ErrEmptyName = errors.New("boltstore: empty name")
)

// Options configures [Open].
type Options struct {
	// Timeout bounds the wait for the file lock. Zero means 10s.
	Timeout time.Duration

	// NoSync skips fsync on commit. Only for tests.
	NoSync bool

	// ReadOnly opens the database shared and read-only.
	ReadOnly bool
}

// Store is a bbolt-backed set of named lists. Safe for concurrent use; the
// lists it returns are not shared with the store.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database at path.
func Open(path string, opts Options) (*Store, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = opts.Timeout
	bopt.NoSync = opts.NoSync
	bopt.ReadOnly = opts.ReadOnly

	if bopt.Timeout == 0 {
		bopt.Timeout = 10 * time.Second
	}

	db, err := bbolt.Open(path, 0o644, &bopt)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}

	if !opts.ReadOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(bucketName)

			return err
		})
		if err != nil {
			_ = db.Close()

			return nil, fmt.Errorf("boltstore: init: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores l under name, replacing any previous list.
func (s *Store) Put(name string, l *reclist.List) error {
	if name == "" {
		return ErrEmptyName
	}

	data, err := codec.Marshal(l)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(name), data)
	})
}

// Get returns a fresh copy of the list stored under name.
func (s *Store) Get(name string) (*reclist.List, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	var data []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}

		// Bytes are only valid inside the transaction.
		if v := b.Get([]byte(name)); v != nil {
			data = append([]byte(nil), v...)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return codec.Unmarshal(data)
}

// Delete removes name. Deleting a missing name returns [ErrNotFound].
func (s *Store) Delete(name string) error {
	if name == "" {
		return ErrEmptyName
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get([]byte(name)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}

		return b.Delete([]byte(name))
	})
}

// Names returns the stored list names in byte order.
func (s *Store) Names() ([]string, error) {
	var names []string

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))

			return nil
		})
	})

	return names, err
}
