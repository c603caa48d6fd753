package story

import (
	"errors"
	"fmt"
)

// NodeType identifies the behavior of a narrative node. The set is
// closed: the turn engine dispatches on it with an exhaustive switch,
// and Validate rejects anything outside it at the load boundary.
type NodeType string

const (
	NodeStart         NodeType = "START"          // single entry point, exactly one per story
	NodeStory         NodeType = "STORY"          // linear narration
	NodeQuestion      NodeType = "QUESTION"       // branches on an explicit player choice
	NodeQuestionInput NodeType = "QUESTION_INPUT" // branches on free-text input
	NodeAIStory       NodeType = "AI_STORY"       // narration produced by the generation gateway
	NodeEnd           NodeType = "END"            // terminal
)

// knownNodeTypes is what Validate accepts.
var knownNodeTypes = map[NodeType]bool{
	NodeStart:         true,
	NodeStory:         true,
	NodeQuestion:      true,
	NodeQuestionInput: true,
	NodeAIStory:       true,
	NodeEnd:           true,
}

var (
	ErrNodeNotFound = errors.New("node not found")
	ErrEdgeNotFound = errors.New("edge not found")
	ErrNoStartNode  = errors.New("story graph has no START node")
)

// NodeData is the typed payload of a node. Label and TextContent are
// always present; the remaining fields are meaningful only for certain
// node types and are checked by Validate.
type NodeData struct {
	Label       string `json:"label"`
	TextContent string `json:"text_content"`

	CharacterName string `json:"character_name,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`

	// QUESTION_INPUT: the question shown to the player.
	InputPrompt string `json:"input_prompt,omitempty"`

	// AI_STORY and QUESTION_INPUT: template handed to the generation
	// gateway, combined with player input and accumulated stats.
	GenerationPrompt string `json:"generation_prompt,omitempty"`

	// END only.
	EndingType   string `json:"ending_type,omitempty"`
	EndingPrompt string `json:"ending_message_prompt,omitempty"`

	// START only: stat values seeded on top of the story's stat configs.
	InitialStats map[string]int `json:"initial_stats,omitempty"`
}

// Position is the node's location on the editor canvas. The engine
// never reads it; it round-trips for the editing client.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one narrative unit: a scene, a question, or an ending.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Data     NodeData `json:"data"`
	Position Position `json:"position"`
}

// Edge is a directed, labeled transition between two nodes. StatEffects
// are additive integer deltas applied when the edge is followed.
type Edge struct {
	ID          string         `json:"id"`
	Source      string         `json:"source"`
	Target      string         `json:"target"`
	Label       string         `json:"label,omitempty"`
	StatEffects map[string]int `json:"stat_effects,omitempty"`
}

// Graph is the complete, self-contained branching structure of one
// story. It is loaded whole per play call and never mutated by the
// turn engine.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// FindNode returns the node with the given ID, or ErrNodeNotFound.
func (g *Graph) FindNode(id string) (*Node, error) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, id)
}

// FindEdge returns the edge with the given ID, or ErrEdgeNotFound.
func (g *Graph) FindEdge(id string) (*Edge, error) {
	for i := range g.Edges {
		if g.Edges[i].ID == id {
			return &g.Edges[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrEdgeNotFound, id)
}

// OutgoingEdges returns the edges leaving the given node, preserving
// graph edge order. A node with no outgoing edges yields an empty slice.
func (g *Graph) OutgoingEdges(nodeID string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// StartNode returns the graph's single START node.
func (g *Graph) StartNode() (*Node, error) {
	for i := range g.Nodes {
		if g.Nodes[i].Type == NodeStart {
			return &g.Nodes[i], nil
		}
	}
	return nil, ErrNoStartNode
}
