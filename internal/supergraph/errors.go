package supergraph

import "errors"

// Error taxonomy for supergraph loading (spec §7, SupergraphLoad class).
// Failures here are fatal for the version being loaded; callers keep
// serving the previously accepted version.
var (
	// ErrUnknownGraphId is returned by ResolveGraphID when the alias does
	// not name a join__Graph enum value.
	ErrUnknownGraphId = errors.New("supergraph: unknown join graph id")

	// ErrInvalidKeySelection is returned when a federation key string (or a
	// @requires/@provides selection string) fails to parse as a selection
	// set.
	ErrInvalidKeySelection = errors.New("supergraph: invalid key selection")

	// ErrInconsistentFederationMetadata is returned when a join__field names
	// a graph_id absent from its parent type's join__type set.
	ErrInconsistentFederationMetadata = errors.New("supergraph: inconsistent federation metadata")

	// ErrParse wraps SDL parse failures from the underlying lexer/parser.
	ErrParse = errors.New("supergraph: parse error")
)
