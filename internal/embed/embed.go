package embed

import "context"

// Embedder computes a fixed-length vector embedding for a still
// image. Implementations are external, swappable providers; the
// pipeline only depends on this call contract.
type Embedder interface {
	Model() string
	EmbedImage(ctx context.Context, imagePath string) ([]float32, error)
}
