// Package embedding generates vector embeddings for similarity search.
package embedding

import "context"

// Embedder turns text into vectors. Queries and documents use different
// retrieval task types, so they embed through separate methods.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}
