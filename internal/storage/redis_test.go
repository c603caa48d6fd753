package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/khlee2637/storyforge/pkg/story"
)

func setupTestRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := NewRedisStorage(mr.Addr(), logger)

	return store, mr
}

func TestRedisStorage_SaveAndGetStory(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	ctx := context.Background()

	s := story.NewStory("The Haunted Lighthouse")
	s.Description = "A short mystery"

	if err := store.SaveStory(ctx, s); err != nil {
		t.Fatalf("Failed to save story: %v", err)
	}

	loaded, err := store.GetStory(ctx, s.ID)
	if err != nil {
		t.Fatalf("Failed to load story: %v", err)
	}

	if loaded.ID != s.ID {
		t.Errorf("Expected ID %v, got %v", s.ID, loaded.ID)
	}
	if loaded.Title != "The Haunted Lighthouse" {
		t.Errorf("Expected title to round-trip, got %q", loaded.Title)
	}
	if len(loaded.Graph.Nodes) != 1 {
		t.Errorf("Expected 1 node, got %d", len(loaded.Graph.Nodes))
	}
	if loaded.UpdatedAt.IsZero() {
		t.Error("Expected UpdatedAt to be set on save")
	}
}

func TestRedisStorage_GetNonExistentStory(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	_, err := store.GetStory(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRedisStorage_ListStories(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	ctx := context.Background()

	summaries, err := store.ListStories(ctx)
	if err != nil {
		t.Fatalf("Failed to list empty storage: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("Expected no stories, got %d", len(summaries))
	}

	first := story.NewStory("First")
	second := story.NewStory("Second")
	if err := store.SaveStory(ctx, first); err != nil {
		t.Fatalf("Failed to save story: %v", err)
	}
	if err := store.SaveStory(ctx, second); err != nil {
		t.Fatalf("Failed to save story: %v", err)
	}

	summaries, err = store.ListStories(ctx)
	if err != nil {
		t.Fatalf("Failed to list stories: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("Expected 2 stories, got %d", len(summaries))
	}

	titles := map[string]bool{}
	for _, s := range summaries {
		titles[s.Title] = true
	}
	if !titles["First"] || !titles["Second"] {
		t.Errorf("Expected both titles in listing, got %v", titles)
	}
}

func TestRedisStorage_ListSkipsStaleIndexEntries(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	ctx := context.Background()

	s := story.NewStory("Survivor")
	if err := store.SaveStory(ctx, s); err != nil {
		t.Fatalf("Failed to save story: %v", err)
	}

	// Simulate an index entry whose record has expired or been removed.
	mr.SAdd(storyIndexKey, uuid.NewString())

	summaries, err := store.ListStories(ctx)
	if err != nil {
		t.Fatalf("Failed to list stories: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 story, got %d", len(summaries))
	}
	if summaries[0].Title != "Survivor" {
		t.Errorf("Expected surviving story, got %q", summaries[0].Title)
	}
}

func TestRedisStorage_DeleteStory(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	ctx := context.Background()

	s := story.NewStory("Doomed")
	if err := store.SaveStory(ctx, s); err != nil {
		t.Fatalf("Failed to save story: %v", err)
	}

	if err := store.DeleteStory(ctx, s.ID); err != nil {
		t.Fatalf("Failed to delete story: %v", err)
	}

	if _, err := store.GetStory(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	if err := store.DeleteStory(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}

	summaries, err := store.ListStories(ctx)
	if err != nil {
		t.Fatalf("Failed to list stories: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("Expected empty listing after delete, got %d", len(summaries))
	}
}

func TestRedisStorage_Ping(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer func() { _ = store.Close() }()

	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Expected ping to succeed: %v", err)
	}

	mr.Close()
	if err := store.Ping(context.Background()); err == nil {
		t.Error("Expected ping to fail after server shutdown")
	}
}
