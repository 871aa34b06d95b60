package pipeline

import (
	"context"
	"iter"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
)

// CatalogReader supplies the reference catalog of a scope. The pipeline
// depends on this interface, not on a concrete store.
//
//go:generate mockgen -destination=mocks/mock_interface.go -source=interface.go
type CatalogReader interface {
	Entries(ctx context.Context, scope string) iter.Seq2[types.CatalogEntry, error]
}

// ArtifactSink persists rendered artifacts. Discard is called for every
// artifact already stored when a later one fails.
type ArtifactSink interface {
	Store(ctx context.Context, a types.Artifact) (types.ArtifactRef, error)
	Discard(ctx context.Context, ref types.ArtifactRef) error
}
