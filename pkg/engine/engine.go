package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/khlee2637/storyforge/pkg/prompts"
	"github.com/khlee2637/storyforge/pkg/stats"
	"github.com/khlee2637/storyforge/pkg/story"
	"github.com/khlee2637/storyforge/pkg/textfilter"
)

// Fallback messages for turns that cannot proceed normally.
const (
	MsgStoryConcluded   = "The story has concluded."
	MsgNoContent        = "This story has no content yet."
	MsgCurrentNodeLost  = "The current scene could not be found in this story. The story cannot continue."
	MsgBrokenPath       = "The story data is broken at this point, and the story cannot continue."
	MsgGenerationFailed = "The narrator is momentarily lost for words. Please try again."
)

// Generator is the Generation Gateway: the external capability that
// produces narrative text for a prompt. Implementations may be slow
// and must honor ctx cancellation; they are never assumed to be
// deterministic.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Engine advances play through a story graph. It is stateless: every
// Advance call is a pure function of (graph, request), apart from
// invoking the Generator. A single Engine may serve any number of
// concurrent requests.
type Engine struct {
	gen    Generator
	logger *slog.Logger
}

// New creates a turn engine with the given Generation Gateway.
func New(gen Generator, logger *slog.Logger) *Engine {
	return &Engine{
		gen:    gen,
		logger: logger,
	}
}

// Start resolves the opening position of a story: the START node and
// the initial stats. The first real transition happens on the
// following Advance call.
func (e *Engine) Start(g *story.Graph, initial stats.Stats) (*PlayResponse, error) {
	start, err := g.StartNode()
	if err != nil {
		return nil, err
	}
	return &PlayResponse{
		NextNodeID:   start.ID,
		NextNodeData: start.Data,
		UpdatedStats: initial.Clone(),
		Choices:      choicesFor(g, start.ID),
	}, nil
}

// Advance processes one player action and computes the next position.
//
// Caller mistakes (missing input, invalid choice) are returned as
// errors so the HTTP layer can answer 400. Corrupt story data is never
// returned as an error: it surfaces as a terminal response with
// IsError set, because the player can do nothing about it.
func (e *Engine) Advance(ctx context.Context, g *story.Graph, req PlayRequest) (*PlayResponse, error) {
	cur, err := g.FindNode(req.CurrentNodeID)
	if err != nil {
		e.logger.Warn("current node missing from graph", "node_id", req.CurrentNodeID)
		return e.brokenResponse(req, MsgCurrentNodeLost), nil
	}

	switch cur.Type {
	case story.NodeStart:
		return e.advanceLinear(ctx, g, cur, req)

	case story.NodeStory:
		return e.advanceLinear(ctx, g, cur, req)

	case story.NodeQuestion:
		return e.advanceQuestion(ctx, g, cur, req)

	case story.NodeQuestionInput:
		return e.advanceQuestionInput(ctx, g, cur, req)

	case story.NodeAIStory:
		return e.advanceLinear(ctx, g, cur, req)

	case story.NodeEnd:
		// The engine never leaves an END node. Repeating the call
		// repeats the same terminal response.
		return e.endResponse(ctx, cur, req.CurrentStats), nil

	default:
		// Validate rejects unknown types at load; reaching this means
		// the graph bypassed validation.
		e.logger.Error("unknown node type in play", "node_id", cur.ID, "type", cur.Type)
		return e.brokenResponse(req, MsgBrokenPath), nil
	}
}

// advanceLinear handles START, STORY and AI_STORY nodes: no action is
// required, and play follows a single expected outgoing edge.
//
// A node with several outgoing edges is a misconfigured graph. Policy:
// an explicitly supplied chosen_edge_id is honored if it leaves this
// node; otherwise the first edge in graph order is taken and a warning
// is logged.
func (e *Engine) advanceLinear(ctx context.Context, g *story.Graph, cur *story.Node, req PlayRequest) (*PlayResponse, error) {
	outgoing := g.OutgoingEdges(cur.ID)
	if len(outgoing) == 0 {
		if cur.Type == story.NodeStart {
			return e.brokenResponse(req, MsgNoContent), nil
		}
		// Dead end: treated as an ending, with the node's own text as
		// the closing message.
		msg := cur.Data.TextContent
		if msg == "" {
			msg = MsgStoryConcluded
		}
		return &PlayResponse{
			NextNodeID:   cur.ID,
			NextNodeData: cur.Data,
			UpdatedStats: req.CurrentStats.Clone(),
			IsGameOver:   true,
			FinalMessage: msg,
		}, nil
	}

	edge := &outgoing[0]
	if req.ChosenEdgeID != "" {
		chosen, err := pickEdge(outgoing, req.ChosenEdgeID)
		if err != nil {
			return nil, err
		}
		edge = chosen
	} else if len(outgoing) > 1 {
		e.logger.Warn("node has multiple outgoing edges, following first",
			"node_id", cur.ID, "type", cur.Type, "edge_id", edge.ID)
	}

	return e.follow(ctx, g, cur, edge, req, "")
}

// advanceQuestion handles QUESTION nodes: the player must have picked
// one of the node's outgoing edges.
func (e *Engine) advanceQuestion(ctx context.Context, g *story.Graph, cur *story.Node, req PlayRequest) (*PlayResponse, error) {
	if req.ChosenEdgeID == "" {
		return nil, fmt.Errorf("%w: QUESTION node %q requires chosen_edge_id", ErrMissingInput, cur.ID)
	}

	edge, err := g.FindEdge(req.ChosenEdgeID)
	if err != nil {
		return nil, fmt.Errorf("%w: edge %q does not exist", ErrInvalidChoice, req.ChosenEdgeID)
	}
	if edge.Source != cur.ID {
		return nil, fmt.Errorf("%w: edge %q does not leave node %q", ErrInvalidChoice, edge.ID, cur.ID)
	}

	return e.follow(ctx, g, cur, edge, req, "")
}

// advanceQuestionInput handles QUESTION_INPUT nodes.
//
// Policy: with a single outgoing edge, that edge is the deterministic
// default; the free text only feeds the gateway to produce display
// content for the next node. With several outgoing edges the
// destination choice is delegated to the gateway, which must answer
// with one of the edge IDs; if it cannot decide, the turn comes back
// as awaiting-resolution rather than failing.
func (e *Engine) advanceQuestionInput(ctx context.Context, g *story.Graph, cur *story.Node, req PlayRequest) (*PlayResponse, error) {
	if strings.TrimSpace(req.UserInput) == "" {
		return nil, fmt.Errorf("%w: QUESTION_INPUT node %q requires user_input", ErrMissingInput, cur.ID)
	}

	outgoing := g.OutgoingEdges(cur.ID)
	switch len(outgoing) {
	case 0:
		msg := cur.Data.TextContent
		if msg == "" {
			msg = MsgStoryConcluded
		}
		return &PlayResponse{
			NextNodeID:   cur.ID,
			NextNodeData: cur.Data,
			UpdatedStats: req.CurrentStats.Clone(),
			IsGameOver:   true,
			FinalMessage: msg,
		}, nil

	case 1:
		edge := &outgoing[0]
		return e.follow(ctx, g, cur, edge, req, e.overrideFor(ctx, g, cur, edge, req))

	default:
		edge, ok := e.routeByInput(ctx, cur, outgoing, req)
		if !ok {
			return &PlayResponse{
				NextNodeID:         cur.ID,
				NextNodeData:       cur.Data,
				UpdatedStats:       req.CurrentStats.Clone(),
				AwaitingResolution: true,
				Retryable:          true,
				Choices:            choicesFor(g, cur.ID),
			}, nil
		}
		return e.follow(ctx, g, cur, edge, req, e.overrideFor(ctx, g, cur, edge, req))
	}
}

// overrideFor produces the display override for following an edge out
// of a QUESTION_INPUT node. END and AI_STORY targets resolve their own
// display text, so no gateway call is made for them.
func (e *Engine) overrideFor(ctx context.Context, g *story.Graph, cur *story.Node, edge *story.Edge, req PlayRequest) string {
	if next, err := g.FindNode(edge.Target); err == nil &&
		(next.Type == story.NodeEnd || next.Type == story.NodeAIStory) {
		return ""
	}
	return e.inputOverride(ctx, cur, req)
}

// inputOverride asks the gateway for display content derived from the
// player's free text. Failure is non-fatal: the next node's static
// text is the deterministic fallback.
func (e *Engine) inputOverride(ctx context.Context, cur *story.Node, req PlayRequest) string {
	if cur.Data.GenerationPrompt == "" {
		return ""
	}
	prompt, err := prompts.New().
		WithNode(cur).
		WithStats(req.CurrentStats).
		WithUserInput(req.UserInput).
		BuildNarration()
	if err != nil {
		e.logger.Warn("failed to build narration prompt", "node_id", cur.ID, "error", err)
		return ""
	}
	text, err := e.gen.GenerateText(ctx, prompt)
	if err != nil {
		e.logger.Warn("generation failed, falling back to static content", "node_id", cur.ID, "error", err)
		return ""
	}
	return textfilter.Clean(text)
}

// routeByInput delegates branch selection to the gateway. The gateway
// must answer with one of the candidate edge IDs; anything else means
// it could not decide.
func (e *Engine) routeByInput(ctx context.Context, cur *story.Node, outgoing []story.Edge, req PlayRequest) (*story.Edge, bool) {
	prompt, err := prompts.New().
		WithNode(cur).
		WithChoices(outgoing).
		WithUserInput(req.UserInput).
		BuildRouting()
	if err != nil {
		e.logger.Warn("failed to build routing prompt", "node_id", cur.ID, "error", err)
		return nil, false
	}

	answer, err := e.gen.GenerateText(ctx, prompt)
	if err != nil {
		e.logger.Warn("routing generation failed", "node_id", cur.ID, "error", err)
		return nil, false
	}

	answer = strings.TrimSpace(textfilter.Clean(answer))
	if strings.EqualFold(answer, prompts.Undecided) {
		return nil, false
	}
	for i := range outgoing {
		if outgoing[i].ID == answer {
			return &outgoing[i], true
		}
	}
	e.logger.Warn("gateway routing answer did not match a candidate edge",
		"node_id", cur.ID, "answer", answer)
	return nil, false
}

// follow applies the edge's stat effects, resolves the target node and
// builds the response for landing on it. textOverride, when non-empty,
// replaces the target node's display text.
func (e *Engine) follow(ctx context.Context, g *story.Graph, cur *story.Node, edge *story.Edge, req PlayRequest, textOverride string) (*PlayResponse, error) {
	updated := stats.Apply(req.CurrentStats, edge.StatEffects)

	next, err := g.FindNode(edge.Target)
	if err != nil {
		// The edge points at a node that does not exist: the story
		// data itself is corrupt, not the request.
		e.logger.Error("edge target missing from graph",
			"edge_id", edge.ID, "target", edge.Target)
		return e.brokenResponse(req, MsgBrokenPath), nil
	}

	if next.Type == story.NodeEnd {
		resp := e.endResponse(ctx, next, updated)
		return resp, nil
	}

	data := next.Data
	if next.Type == story.NodeAIStory {
		generated, ok := e.generateArrival(ctx, next, updated, req.UserInput)
		switch {
		case ok:
			data.TextContent = generated
		case data.TextContent == "":
			// No deterministic fallback for this node's content: the
			// turn fails retryably, leaving position and stats as they
			// were so the same request can be repeated.
			return &PlayResponse{
				NextNodeID:   cur.ID,
				NextNodeData: cur.Data,
				UpdatedStats: req.CurrentStats.Clone(),
				IsGameOver:   true,
				IsError:      true,
				Retryable:    true,
				FinalMessage: MsgGenerationFailed,
			}, nil
		}
	}
	if textOverride != "" && next.Type != story.NodeAIStory {
		data.TextContent = textOverride
	}

	return &PlayResponse{
		NextNodeID:   next.ID,
		NextNodeData: data,
		UpdatedStats: updated,
		Choices:      choicesFor(g, next.ID),
	}, nil
}

// generateArrival produces the display content of an AI_STORY node.
func (e *Engine) generateArrival(ctx context.Context, n *story.Node, st stats.Stats, userInput string) (string, bool) {
	prompt, err := prompts.New().
		WithNode(n).
		WithStats(st).
		WithUserInput(userInput).
		BuildNarration()
	if err != nil {
		e.logger.Warn("failed to build narration prompt", "node_id", n.ID, "error", err)
		return "", false
	}
	text, err := e.gen.GenerateText(ctx, prompt)
	if err != nil {
		e.logger.Warn("generation failed for AI_STORY node", "node_id", n.ID, "error", err)
		return "", false
	}
	return textfilter.Clean(text), true
}

// endResponse builds the terminal response for landing on (or sitting
// at) an END node. The closing message prefers the gateway when the
// node defines an ending prompt, then the node's static text, then a
// generic fallback.
func (e *Engine) endResponse(ctx context.Context, end *story.Node, st stats.Stats) *PlayResponse {
	msg := end.Data.TextContent

	if end.Data.EndingPrompt != "" {
		prompt, err := prompts.New().WithNode(end).WithStats(st).BuildEnding()
		if err == nil {
			if generated, genErr := e.gen.GenerateText(ctx, prompt); genErr == nil {
				msg = textfilter.Clean(generated)
			} else {
				e.logger.Warn("ending generation failed, using static text",
					"node_id", end.ID, "error", genErr)
			}
		}
	}
	if msg == "" {
		msg = MsgStoryConcluded
	}

	return &PlayResponse{
		NextNodeID:   end.ID,
		NextNodeData: end.Data,
		UpdatedStats: st.Clone(),
		IsGameOver:   true,
		FinalMessage: msg,
	}
}

// brokenResponse reports corrupt story data as a terminal, flagged
// response. The position and stats echo the request so nothing is
// lost.
func (e *Engine) brokenResponse(req PlayRequest, msg string) *PlayResponse {
	return &PlayResponse{
		NextNodeID:   req.CurrentNodeID,
		UpdatedStats: req.CurrentStats.Clone(),
		IsGameOver:   true,
		IsError:      true,
		FinalMessage: msg,
	}
}

func pickEdge(edges []story.Edge, id string) (*story.Edge, error) {
	for i := range edges {
		if edges[i].ID == id {
			return &edges[i], nil
		}
	}
	return nil, fmt.Errorf("%w: edge %q does not leave the current node", ErrInvalidChoice, id)
}
