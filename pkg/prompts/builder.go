package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/khlee2637/storyforge/pkg/stats"
	"github.com/khlee2637/storyforge/pkg/story"
)

// Builder composes Generation Gateway prompts from a node's template,
// the accumulated stats, and any player input, using a fluent
// interface. It keeps prompt wording out of the turn engine.
type Builder struct {
	node      *story.Node
	stats     stats.Stats
	userInput string
	choices   []story.Edge
}

// New creates a new prompt builder.
func New() *Builder {
	return &Builder{}
}

// WithNode sets the node whose template drives the prompt.
func (b *Builder) WithNode(n *story.Node) *Builder {
	b.node = n
	return b
}

// WithStats sets the player's accumulated stats.
func (b *Builder) WithStats(s stats.Stats) *Builder {
	b.stats = s
	return b
}

// WithUserInput sets the player's free-text answer, if any.
func (b *Builder) WithUserInput(input string) *Builder {
	b.userInput = input
	return b
}

// WithChoices sets the candidate edges for routing prompts.
func (b *Builder) WithChoices(edges []story.Edge) *Builder {
	b.choices = edges
	return b
}

// BuildNarration builds the prompt for AI_STORY content and
// QUESTION_INPUT text overrides.
func (b *Builder) BuildNarration() (string, error) {
	if b.node == nil {
		return "", fmt.Errorf("node is required")
	}

	var sb strings.Builder
	sb.WriteString(BaseNarrationPrompt)
	sb.WriteString("\n\n")

	if t := b.node.Data.GenerationPrompt; t != "" {
		sb.WriteString("### Author's instructions for this scene:\n")
		sb.WriteString(t)
		sb.WriteString("\n\n")
	}
	if b.node.Data.TextContent != "" {
		sb.WriteString("### Scene so far:\n")
		sb.WriteString(b.node.Data.TextContent)
		sb.WriteString("\n\n")
	}

	b.writeStats(&sb)

	if b.userInput != "" {
		sb.WriteString("### The player said:\n")
		sb.WriteString(b.userInput)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// BuildRouting builds the prompt that asks the gateway to pick one of
// the candidate edges for a free-text answer.
func (b *Builder) BuildRouting() (string, error) {
	if b.node == nil {
		return "", fmt.Errorf("node is required")
	}
	if len(b.choices) == 0 {
		return "", fmt.Errorf("at least one candidate edge is required")
	}
	if b.userInput == "" {
		return "", fmt.Errorf("user input is required")
	}

	var sb strings.Builder
	sb.WriteString(RoutingInstructions)
	sb.WriteString("\n\n")

	if q := b.node.Data.InputPrompt; q != "" {
		sb.WriteString("### The question:\n")
		sb.WriteString(q)
		sb.WriteString("\n\n")
	}

	sb.WriteString("### The player's answer:\n")
	sb.WriteString(b.userInput)
	sb.WriteString("\n\n")

	sb.WriteString("### Branches:\n")
	for _, e := range b.choices {
		label := e.Label
		if label == "" {
			label = "(unlabeled)"
		}
		sb.WriteString(fmt.Sprintf("- %s: %s\n", e.ID, label))
	}

	return sb.String(), nil
}

// BuildEnding builds the prompt for an END node's generated closing
// message.
func (b *Builder) BuildEnding() (string, error) {
	if b.node == nil {
		return "", fmt.Errorf("node is required")
	}
	if b.node.Data.EndingPrompt == "" {
		return "", fmt.Errorf("node has no ending prompt")
	}

	var sb strings.Builder
	sb.WriteString(EndingInstructions)
	sb.WriteString("\n\n")
	sb.WriteString("### Author's instructions for this ending:\n")
	sb.WriteString(b.node.Data.EndingPrompt)
	sb.WriteString("\n\n")

	if b.node.Data.EndingType != "" {
		sb.WriteString(fmt.Sprintf("### Ending type: %s\n\n", b.node.Data.EndingType))
	}

	b.writeStats(&sb)

	return sb.String(), nil
}

// writeStats appends the player's stats in a stable order, so prompt
// output is deterministic for identical inputs.
func (b *Builder) writeStats(sb *strings.Builder) {
	if len(b.stats) == 0 {
		return
	}
	names := make([]string, 0, len(b.stats))
	for name := range b.stats {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString("### The player's current stats:\n")
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", name, b.stats[name]))
	}
	sb.WriteString("\n")
}
