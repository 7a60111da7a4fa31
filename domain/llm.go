package domain

import (
	"context"
	"errors"
)

// ErrNoChoices is returned when an upstream reply carries no completion choice.
var ErrNoChoices = errors.New("upstream reply has no choices")

// Llm abstracts any chat completion provider.
type Llm interface {
	// Complete sends the turns and returns the full assistant reply.
	Complete(ctx context.Context, turns []Turn) (string, error)
	// Stream sends the turns and returns the reply as a sequence of deltas.
	Stream(ctx context.Context, turns []Turn) (DeltaStream, error)
}

// DeltaStream is a lazy, finite, non-restartable sequence of content fragments.
// Recv returns io.EOF once the upstream signals completion. A fragment may be
// empty when an upstream chunk carried no content.
type DeltaStream interface {
	Recv() (string, error)
	Close() error
}
