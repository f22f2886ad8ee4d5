package retriever

import (
	"context"

	"material-search-be/pkg/store"

	"github.com/google/uuid"
)

// Query carries everything an adapter needs for one retrieval call. Vector is
// populated by the orchestrator (the query is embedded once per request) and
// is empty when embedding failed; adapters that need it must then error.
type Query struct {
	Text        string
	Vector      []float32
	WorkspaceId uuid.UUID
	Filters     store.Filters
	Limit       int
}

// Retriever is the uniform contract over the heterogeneous backends. Every
// implementation must honor ctx cancellation and return whatever partial
// result (or none) it has when the deadline fires.
type Retriever interface {
	Name() store.Backend
	NeedsQueryVector() bool
	Retrieve(ctx context.Context, q Query) ([]store.RetrievalResult, error)
}
