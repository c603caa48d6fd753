package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/khlee2637/storyforge/pkg/story"
)

// MockStorage is an in-memory implementation of Storage for testing
type MockStorage struct {
	PingFunc        func(ctx context.Context) error
	SaveStoryFunc   func(ctx context.Context, s *story.Story) error
	GetStoryFunc    func(ctx context.Context, id uuid.UUID) (*story.Story, error)
	ListStoriesFunc func(ctx context.Context) ([]story.Summary, error)
	DeleteStoryFunc func(ctx context.Context, id uuid.UUID) error

	stories map[uuid.UUID]*story.Story
	mu      sync.Mutex
}

var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new in-memory mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		stories: make(map[uuid.UUID]*story.Story),
	}
}

func (m *MockStorage) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveStory(ctx context.Context, s *story.Story) error {
	if m.SaveStoryFunc != nil {
		return m.SaveStoryFunc(ctx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories[s.ID] = s
	return nil
}

func (m *MockStorage) GetStory(ctx context.Context, id uuid.UUID) (*story.Story, error) {
	if m.GetStoryFunc != nil {
		return m.GetStoryFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *MockStorage) ListStories(ctx context.Context) ([]story.Summary, error) {
	if m.ListStoriesFunc != nil {
		return m.ListStoriesFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	summaries := make([]story.Summary, 0, len(m.stories))
	for _, s := range m.stories {
		summaries = append(summaries, s.Summarize())
	}
	return summaries, nil
}

func (m *MockStorage) DeleteStory(ctx context.Context, id uuid.UUID) error {
	if m.DeleteStoryFunc != nil {
		return m.DeleteStoryFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stories[id]; !ok {
		return ErrNotFound
	}
	delete(m.stories, id)
	return nil
}
