package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/khlee2637/storyforge/pkg/story"
)

// ErrNotFound is returned when a story does not exist in storage.
var ErrNotFound = errors.New("story not found")

// HealthChecker defines basic health check capabilities
type HealthChecker interface {
	// Ping tests the service connection
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities
type Closer interface {
	// Close closes the service connection
	Close() error
}

// Storage defines the interface for story persistence
type Storage interface {
	HealthChecker
	Closer

	// SaveStory saves a story under its UUID
	SaveStory(ctx context.Context, s *story.Story) error

	// GetStory retrieves a story by UUID.
	// Returns ErrNotFound if the story doesn't exist.
	GetStory(ctx context.Context, id uuid.UUID) (*story.Story, error)

	// ListStories returns summaries of all stored stories
	ListStories(ctx context.Context) ([]story.Summary, error)

	// DeleteStory removes a story by UUID.
	// Returns ErrNotFound if the story doesn't exist.
	DeleteStory(ctx context.Context, id uuid.UUID) error
}
