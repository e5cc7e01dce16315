// Package bolt provides a BoltDB-backed implementation of the storage.Store interface.
// Sessions are stored as JSON documents keyed by session ID.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/mmynk/godutch/internal/models"
	"github.com/mmynk/godutch/internal/storage"
)

const sessionsBucket = "sessions"

// Ensure BoltStore implements storage.Store
var _ storage.Store = (*BoltStore)(nil)

// BoltStore implements storage.Store using BoltDB.
type BoltStore struct {
	db *bbolt.DB
}

// New opens (or creates) the BoltDB file at path.
func New(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// CreateSession saves a new session. It fails if the ID is already taken.
func (b *BoltStore) CreateSession(ctx context.Context, session *models.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if session.ID == "" {
		return fmt.Errorf("session ID is required")
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionsBucket))
		if bucket.Get([]byte(session.ID)) != nil {
			return fmt.Errorf("session already exists: %s", session.ID)
		}
		return putSession(bucket, session)
	})
}

// GetSession retrieves a session by ID.
func (b *BoltStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var session *models.Session
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(sessionsBucket)).Get([]byte(sessionID))
		if data == nil {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, sessionID)
		}
		if err := json.Unmarshal(data, &session); err != nil {
			return fmt.Errorf("unmarshaling session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateSession overwrites an existing session.
func (b *BoltStore) UpdateSession(ctx context.Context, session *models.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionsBucket))
		if bucket.Get([]byte(session.ID)) == nil {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, session.ID)
		}
		return putSession(bucket, session)
	})
}

// DeleteSession removes a session.
func (b *BoltStore) DeleteSession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionsBucket))
		if bucket.Get([]byte(sessionID)) == nil {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, sessionID)
		}
		return bucket.Delete([]byte(sessionID))
	})
}

// Close closes the database.
func (b *BoltStore) Close() error {
	return b.db.Close()
}

func putSession(bucket *bbolt.Bucket, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	return bucket.Put([]byte(session.ID), data)
}
