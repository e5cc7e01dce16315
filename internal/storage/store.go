// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/godutch/internal/models"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// Store defines the interface for session storage operations.
// This abstraction allows swapping storage backends (SQLite, BoltDB, etc.)
// without changing the service layer.
type Store interface {
	// CreateSession persists a new session.
	// The session.ID field must already be set.
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves a session by its ID.
	// Returns an error wrapping ErrNotFound if the session does not exist.
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)

	// UpdateSession replaces the stored state of an existing session.
	// Returns an error wrapping ErrNotFound if the session does not exist.
	UpdateSession(ctx context.Context, session *models.Session) error

	// DeleteSession removes a session and everything it owns.
	DeleteSession(ctx context.Context, sessionID string) error

	// Close releases any resources held by the store.
	Close() error
}
