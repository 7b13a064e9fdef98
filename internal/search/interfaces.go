package search

import (
	"context"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

// Indexer is the operator-facing search surface over artifact metadata: one
// global full-text index (job id, original filename, language, kind) with
// no tenant scoping — this system has no multi-tenancy concept.
type Indexer interface {
	Index(ctx context.Context, meta domain.ArtifactMetadata) error
	Search(ctx context.Context, query string, limit int) ([]domain.ArtifactMetadata, error)
	Delete(uniqueID string) error
	Close() error
}
