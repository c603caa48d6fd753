package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/khlee2637/storyforge/internal/storage"
	"github.com/khlee2637/storyforge/pkg/engine"
	"github.com/khlee2637/storyforge/pkg/story"
	"github.com/khlee2637/storyforge/pkg/textfilter"
)

// PlayHandler serves play-session endpoints under a story:
//
// POST /v1/stories/{id}/play/start   - Resolve the opening position
// POST /v1/stories/{id}/play/proceed - Process one player action
//
// Play is stateless on the server: the client carries its position and
// stats in each request, so any replica can answer any turn.
type PlayHandler struct {
	storage storage.Storage
	engine  *engine.Engine
	masker  *textfilter.Masker
	logger  *slog.Logger
}

func NewPlayHandler(storage storage.Storage, eng *engine.Engine, logger *slog.Logger) *PlayHandler {
	return &PlayHandler{
		storage: storage,
		engine:  eng,
		masker:  textfilter.NewMasker(),
		logger:  logger,
	}
}

// Handle dispatches a play request for the given story. The story
// handler owns path parsing and calls in with the parsed ID and
// action.
func (h *PlayHandler) Handle(w http.ResponseWriter, r *http.Request, storyID uuid.UUID, action string) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s, err := h.storage.GetStory(r.Context(), storyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Story not found")
			return
		}
		h.logger.Error("Failed to load story for play", "error", err, "uuid", storyID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load story")
		return
	}

	switch action {
	case "start":
		h.handleStart(w, r, s)
	case "proceed":
		h.handleProceed(w, r, s)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown play action")
	}
}

func (h *PlayHandler) handleStart(w http.ResponseWriter, r *http.Request, s *story.Story) {
	resp, err := h.engine.Start(&s.Graph, s.InitialStats())
	if err != nil {
		h.logger.Error("Failed to start play", "error", err, "uuid", s.ID)
		writeError(w, h.logger, http.StatusUnprocessableEntity, "Story has no start node")
		return
	}

	resp.UpdatedStats = resp.UpdatedStats.ClampTo(s.Stats)
	h.maskResponse(s, resp)

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode play response", "error", err)
	}
}

func (h *PlayHandler) handleProceed(w http.ResponseWriter, r *http.Request, s *story.Story) {
	var req engine.PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CurrentNodeID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "current_node_id is required")
		return
	}

	resp, err := h.engine.Advance(r.Context(), &s.Graph, req)
	if err != nil {
		if errors.Is(err, engine.ErrMissingInput) || errors.Is(err, engine.ErrInvalidChoice) {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to process turn", "error", err, "uuid", s.ID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to process turn")
		return
	}

	resp.UpdatedStats = resp.UpdatedStats.ClampTo(s.Stats)
	h.maskResponse(s, resp)

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode play response", "error", err)
	}
}

// maskResponse tames strong language in player-visible text when the
// story's content rating calls for it. Stories rated R or unrated pass
// through untouched.
func (h *PlayHandler) maskResponse(s *story.Story, resp *engine.PlayResponse) {
	if !textfilter.ShouldFilterContent(s.Rating) {
		return
	}
	resp.NextNodeData.TextContent = h.masker.Mask(resp.NextNodeData.TextContent)
	if resp.FinalMessage != "" {
		resp.FinalMessage = h.masker.Mask(resp.FinalMessage)
	}
}
