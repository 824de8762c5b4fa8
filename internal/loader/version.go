package loader

import (
	"fmt"
	"sync/atomic"

	"github.com/n9te9/hive-query-router/internal/authz"
	"github.com/n9te9/hive-query-router/internal/consumer"
	"github.com/n9te9/hive-query-router/internal/satisfiability"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

// Version is everything built from one accepted supergraph SDL: the state
// every downstream pass reads are immutable once constructed here, and are
// shared across every request that sees this version.
type Version struct {
	SDL          string
	State        *supergraph.State
	Consumer     *consumer.Schema
	Satisfiability *satisfiability.Graph
	AuthMetadata *authz.Metadata
}

// BuildVersion parses sdl and constructs every immutable artifact a request
// needs. A failure here is a SupergraphLoad error (§7): fatal for the
// version being loaded, never for the process — callers keep whatever
// Version Source.Current() already holds.
func BuildVersion(sdl string) (*Version, error) {
	state, err := supergraph.Parse([]byte(sdl))
	if err != nil {
		return nil, fmt.Errorf("loader: parse supergraph: %w", err)
	}
	return &Version{
		SDL:            sdl,
		State:          state,
		Consumer:       consumer.New(state),
		Satisfiability: satisfiability.Build(state),
		AuthMetadata:   authz.BuildMetadata(state),
	}, nil
}

// Source holds the currently accepted Version, swapped atomically on
// reload. The zero value has no current version; Current returns nil until
// the first successful Swap.
type Source struct {
	current atomic.Pointer[Version]
}

// Current returns the currently accepted Version, or nil if none has been
// loaded yet.
func (s *Source) Current() *Version {
	return s.current.Load()
}

// Swap atomically installs v as the current version. Requests already in
// flight keep the *Version pointer they read at the start of the request,
// so they finish against the version they started with (copy-on-reload).
func (s *Source) Swap(v *Version) {
	s.current.Store(v)
}
