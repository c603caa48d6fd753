package story

import (
	"time"

	"github.com/google/uuid"

	"github.com/khlee2637/storyforge/pkg/stats"
)

// Story is one authored interactive story: a title, its branching
// graph, and the stats it tracks during play.
type Story struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Rating      string         `json:"rating,omitempty"`
	Graph       Graph          `json:"graph"`
	Stats       []stats.Config `json:"stats,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewStory creates a story with a default START node, so a fresh story
// is always playable (and Validate-clean) before any editing happens.
func NewStory(title string) *Story {
	return &Story{
		ID:    uuid.New(),
		Title: title,
		Graph: Graph{
			Nodes: []Node{
				{
					ID:   "start",
					Type: NodeStart,
					Data: NodeData{
						Label:       "Start",
						TextContent: "Your story begins here.",
					},
				},
			},
		},
		CreatedAt: time.Now(),
	}
}

// Summary is the listing view of a story, without the graph payload.
type Summary struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summarize returns the listing view of the story.
func (s *Story) Summarize() Summary {
	return Summary{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		UpdatedAt:   s.UpdatedAt,
	}
}

// InitialStats builds the starting stat values for a play session:
// the story's stat configs, overlaid with any initial_stats the START
// node carries. The START node values win, matching how the editor
// stores per-story starting values on the entry node.
func (s *Story) InitialStats() stats.Stats {
	out := stats.InitialFrom(s.Stats)
	start, err := s.Graph.StartNode()
	if err != nil {
		return out
	}
	for name, v := range start.Data.InitialStats {
		out[name] = v
	}
	return out
}
