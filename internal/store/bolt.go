package store

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var documentsBucket = []byte("documents")

// BoltStore is a DocumentStore backed by a local bbolt file. This is the
// default backend: a single-user local key/value file, matching the app's
// browser-storage heritage.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the bbolt file at path
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(documentsBucket)
		return err
	})
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, fmt.Errorf("failed to create documents bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Load returns the document stored under key, or ErrNotFound
func (s *BoltStore) Load(_ context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		stored := tx.Bucket(documentsBucket).Get([]byte(key))
		if stored == nil {
			return ErrNotFound
		}
		data = make([]byte, len(stored))
		copy(data, stored)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Save overwrites the document stored under key
func (s *BoltStore) Save(_ context.Context, key string, data []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(documentsBucket).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying bbolt file
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// HealthCheck verifies the bbolt file is readable
func (s *BoltStore) HealthCheck(_ context.Context) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(documentsBucket) == nil {
			return fmt.Errorf("documents bucket missing")
		}
		return nil
	})
}
