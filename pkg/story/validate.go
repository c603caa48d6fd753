package story

import (
	"fmt"
	"strings"
)

// IntegrityError reports structural problems found in a story graph.
// All problems are collected so an editor can show them at once.
type IntegrityError struct {
	Problems []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("graph integrity: %s", strings.Join(e.Problems, "; "))
}

// Validate checks the structural invariants of the graph: unique node
// and edge IDs, exactly one START node, known node types, and edge
// endpoints that resolve to nodes in the same graph. It returns an
// *IntegrityError listing every violation, or nil if the graph is sound.
//
// Validate runs at the load boundary so the turn engine can assume a
// well-formed graph internally.
func (g *Graph) Validate() error {
	var problems []string

	nodeIDs := make(map[string]bool, len(g.Nodes))
	startCount := 0
	for _, n := range g.Nodes {
		if n.ID == "" {
			problems = append(problems, "node with empty id")
			continue
		}
		if nodeIDs[n.ID] {
			problems = append(problems, fmt.Sprintf("duplicate node id %q", n.ID))
		}
		nodeIDs[n.ID] = true

		if !knownNodeTypes[n.Type] {
			problems = append(problems, fmt.Sprintf("node %q has unknown type %q", n.ID, n.Type))
		}
		if n.Type == NodeStart {
			startCount++
		}
	}

	switch {
	case startCount == 0:
		problems = append(problems, "no START node")
	case startCount > 1:
		problems = append(problems, fmt.Sprintf("%d START nodes, expected exactly one", startCount))
	}

	edgeIDs := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		if e.ID == "" {
			problems = append(problems, "edge with empty id")
			continue
		}
		if edgeIDs[e.ID] {
			problems = append(problems, fmt.Sprintf("duplicate edge id %q", e.ID))
		}
		edgeIDs[e.ID] = true

		if !nodeIDs[e.Source] {
			problems = append(problems, fmt.Sprintf("edge %q source %q does not exist", e.ID, e.Source))
		}
		if !nodeIDs[e.Target] {
			problems = append(problems, fmt.Sprintf("edge %q target %q does not exist", e.ID, e.Target))
		}
	}

	if len(problems) > 0 {
		return &IntegrityError{Problems: problems}
	}
	return nil
}
