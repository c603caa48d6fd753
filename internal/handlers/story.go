package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/khlee2637/storyforge/internal/storage"
	"github.com/khlee2637/storyforge/pkg/stats"
	"github.com/khlee2637/storyforge/pkg/story"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// StoryRequest is the editor's payload for creating or replacing a
// story.
type StoryRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Rating      string         `json:"rating,omitempty"`
	Graph       *story.Graph   `json:"graph,omitempty"`
	Stats       []stats.Config `json:"stats,omitempty"`
}

// StoryHandler serves story CRUD and play requests.
//
// Routes:
// POST   /v1/stories              - Create a story
// GET    /v1/stories              - List story summaries
// GET    /v1/stories/{id}         - Read a story
// PUT    /v1/stories/{id}         - Replace a story
// DELETE /v1/stories/{id}         - Delete a story
// POST   /v1/stories/{id}/play/*  - Play endpoints (see PlayHandler)
type StoryHandler struct {
	storage storage.Storage
	play    *PlayHandler
	logger  *slog.Logger
}

func NewStoryHandler(storage storage.Storage, play *PlayHandler, logger *slog.Logger) *StoryHandler {
	return &StoryHandler{
		storage: storage,
		play:    play,
		logger:  logger,
	}
}

func (h *StoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/stories"), "/")
	if path == "" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	segments := strings.Split(path, "/")
	storyID, err := uuid.Parse(segments[0])
	if err != nil {
		h.logger.Warn("Invalid story ID", "id", segments[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid story ID format")
		return
	}

	if len(segments) > 1 {
		if segments[1] == "play" && h.play != nil {
			action := ""
			if len(segments) > 2 {
				action = segments[2]
			}
			h.play.Handle(w, r, storyID, action)
			return
		}
		writeError(w, h.logger, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleRead(w, r, storyID)
	case http.MethodPut:
		h.handleReplace(w, r, storyID)
	case http.MethodDelete:
		h.handleDelete(w, r, storyID)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *StoryHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req StoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Title is required")
		return
	}

	s := story.NewStory(req.Title)
	s.Description = req.Description
	s.Rating = req.Rating
	if req.Graph != nil {
		s.Graph = *req.Graph
	}
	s.Stats = req.Stats

	if err := s.Graph.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid story graph: "+err.Error())
		return
	}

	if err := h.storage.SaveStory(r.Context(), s); err != nil {
		h.logger.Error("Failed to save story", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save story")
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(s); err != nil {
		h.logger.Error("Failed to encode story response", "error", err)
	}
}

func (h *StoryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.storage.ListStories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list stories", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list stories")
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(summaries); err != nil {
		h.logger.Error("Failed to encode story list", "error", err)
	}
}

func (h *StoryHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	s, err := h.storage.GetStory(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Story not found")
			return
		}
		h.logger.Error("Failed to load story", "error", err, "uuid", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load story")
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(s); err != nil {
		h.logger.Error("Failed to encode story response", "error", err)
	}
}

func (h *StoryHandler) handleReplace(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	existing, err := h.storage.GetStory(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Story not found")
			return
		}
		h.logger.Error("Failed to load story", "error", err, "uuid", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load story")
		return
	}

	var req StoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Title is required")
		return
	}

	existing.Title = req.Title
	existing.Description = req.Description
	existing.Rating = req.Rating
	if req.Graph != nil {
		existing.Graph = *req.Graph
	}
	existing.Stats = req.Stats

	if err := existing.Graph.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid story graph: "+err.Error())
		return
	}

	if err := h.storage.SaveStory(r.Context(), existing); err != nil {
		h.logger.Error("Failed to save story", "error", err, "uuid", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save story")
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(existing); err != nil {
		h.logger.Error("Failed to encode story response", "error", err)
	}
}

func (h *StoryHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.storage.DeleteStory(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Story not found")
			return
		}
		h.logger.Error("Failed to delete story", "error", err, "uuid", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete story")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

