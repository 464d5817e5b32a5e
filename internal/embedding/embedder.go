package embedding

import "context"

// Embedder is the embedding provider contract: an ordered sequence of
// texts in, one fixed-dimension vector per text out. Failure of any
// batch fails the whole call.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
