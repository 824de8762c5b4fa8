// Package loader fetches a supergraph SDL from disk or a remote CDN and
// reports whether it changed since the last successful fetch, the
// suspension point §5 carves out of an otherwise synchronous planner.
package loader

import "context"

// Result is the outcome of one load attempt: either the SDL changed (first
// load included) or it is identical to what was last accepted.
type Result interface {
	isResult()
}

// Changed carries the newly fetched SDL.
type Changed struct {
	SDL string
}

func (Changed) isResult() {}

// Unchanged means the source has nothing new: a file whose mtime didn't
// advance, or a CDN response of 304 Not Modified.
type Unchanged struct{}

func (Unchanged) isResult() {}

// Loader fetches the current supergraph SDL, reporting Unchanged when nothing
// has to be reloaded.
type Loader interface {
	Load(ctx context.Context) (Result, error)
}
