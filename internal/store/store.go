// Package store defines persistence of chat sessions. Every backend variant
// implements Store with identical semantics; durable variants additionally
// survive process restarts.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/capitalize-ai/curator-chat/internal/model"
)

var (
	// ErrNotFound is returned when writing to a session that does not exist.
	// Reads signal absence with a nil session instead.
	ErrNotFound = errors.New("chat session not found")

	// ErrMissingCategory is returned when creating a session without a category.
	ErrMissingCategory = errors.New("chat session category is required")

	// ErrConflict is returned by revision-checked backends when a concurrent
	// write replaced the session between read and write.
	ErrConflict = errors.New("chat session was modified concurrently")
)

// Store persists chat sessions.
type Store interface {
	// GetByID returns the session, or nil with a nil error when absent.
	GetByID(ctx context.Context, id string) (*model.ChatSession, error)

	// Create allocates a fresh id, stamps createdAt and updatedAt, and stores
	// the given messages. userID may be empty for guest sessions.
	Create(ctx context.Context, category model.Category, messages []model.Message, userID string) (*model.ChatSession, error)

	// AppendAndSave replaces the session's messages with the full sequence
	// given and refreshes updatedAt.
	AppendAndSave(ctx context.Context, id string, messages []model.Message) (*model.ChatSession, error)

	// ListByOwner returns the owner's sessions, most recently updated first.
	ListByOwner(ctx context.Context, userID string) ([]*model.ChatSession, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Name is the backend label used in logs and metrics.
	Name() string

	Close() error
}

// Touch returns the next updatedAt for a session, never earlier than prev.
func Touch(prev, now time.Time) time.Time {
	if now.Before(prev) {
		return prev
	}
	return now
}

// CheckCategory rejects an empty category without coercing it.
func CheckCategory(c model.Category) error {
	if c == "" {
		return ErrMissingCategory
	}
	return nil
}
