package llm

import (
	"context"
)

// Client is the text-generation provider contract. Implementations
// must honor temperature 0 for deterministic decoding and bound each
// call with the configured timeout. The interface keeps providers
// swappable and lets tests substitute fakes without global mutation.
type Client interface {
	InvokeModel(ctx context.Context, request Request) (*Response, error)
	InvokeModelWithRetry(ctx context.Context, request Request) (*Response, error)
}
