package engine

import "errors"

// Caller errors: the request itself is wrong for the current node.
// The HTTP layer maps these to 400 responses, distinct from graph
// corruption which surfaces inside a terminal PlayResponse.
var (
	// ErrMissingInput means the current node needs an action field the
	// request did not carry: chosen_edge_id for QUESTION nodes,
	// user_input for QUESTION_INPUT nodes.
	ErrMissingInput = errors.New("missing input for current node")

	// ErrInvalidChoice means chosen_edge_id names an edge that does not
	// exist or does not leave the current node.
	ErrInvalidChoice = errors.New("invalid choice for current node")
)
