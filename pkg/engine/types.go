package engine

import (
	"github.com/khlee2637/storyforge/pkg/stats"
	"github.com/khlee2637/storyforge/pkg/story"
)

// PlayRequest is one player action against a story graph. Stats and
// position are carried by the caller; the engine holds no session
// state.
type PlayRequest struct {
	CurrentNodeID string      `json:"current_node_id"`
	ChosenEdgeID  string      `json:"chosen_edge_id,omitempty"`
	UserInput     string      `json:"user_input,omitempty"`
	CurrentStats  stats.Stats `json:"current_stats"`
}

// Choice is one selectable transition out of the node a PlayResponse
// lands on, surfaced so play clients can render options without
// re-walking the graph.
type Choice struct {
	EdgeID string `json:"edge_id"`
	Label  string `json:"label,omitempty"`
	Target string `json:"target"`
}

// PlayResponse is the outcome of one turn.
//
// IsGameOver is true both when the story genuinely ended and when the
// turn could not continue; IsError distinguishes the two. Retryable
// marks generation failures where repeating the same request may
// succeed. AwaitingResolution marks a free-text turn the gateway could
// not route; the player should answer again.
type PlayResponse struct {
	NextNodeID         string         `json:"next_node_id"`
	NextNodeData       story.NodeData `json:"next_node_data"`
	UpdatedStats       stats.Stats    `json:"updated_stats"`
	IsGameOver         bool           `json:"is_game_over"`
	FinalMessage       string         `json:"final_message,omitempty"`
	IsError            bool           `json:"is_error,omitempty"`
	Retryable          bool           `json:"retryable,omitempty"`
	AwaitingResolution bool           `json:"awaiting_resolution,omitempty"`
	Choices            []Choice       `json:"choices,omitempty"`
}

func choicesFor(g *story.Graph, nodeID string) []Choice {
	edges := g.OutgoingEdges(nodeID)
	if len(edges) == 0 {
		return nil
	}
	out := make([]Choice, 0, len(edges))
	for _, e := range edges {
		out = append(out, Choice{EdgeID: e.ID, Label: e.Label, Target: e.Target})
	}
	return out
}
