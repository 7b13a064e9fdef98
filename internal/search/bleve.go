package search

import (
	"context"
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

// BleveIndex is the single operator-wide full-text index over artifact
// metadata. Unlike a per-tenant index manager, there is exactly one index
// for the whole deployment: this system has no multi-tenancy concept.
type BleveIndex struct {
	idx bleve.Index
}

// NewBleveIndex opens the index at path, creating it with the artifact
// metadata mapping if it does not yet exist.
func NewBleveIndex(path string) (*BleveIndex, error) {
	idx, err := bleve.Open(path)
	if err == nil {
		return &BleveIndex{idx: idx}, nil
	}

	idx, err = bleve.New(path, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("bleve: create index at %s: %w", path, err)
	}
	return &BleveIndex{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = "standard"

	keywordField := bleve.NewKeywordFieldMapping()
	dateField := bleve.NewDateTimeFieldMapping()
	numericField := bleve.NewNumericFieldMapping()

	artifactMapping := bleve.NewDocumentMapping()
	artifactMapping.AddFieldMappingsAt("job_id", keywordField)
	artifactMapping.AddFieldMappingsAt("original_filename", textField)
	artifactMapping.AddFieldMappingsAt("language", keywordField)
	artifactMapping.AddFieldMappingsAt("kind", keywordField)
	artifactMapping.AddFieldMappingsAt("num_callables", numericField)
	artifactMapping.AddFieldMappingsAt("go_module_name", textField)
	artifactMapping.AddFieldMappingsAt("created_at", dateField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = artifactMapping
	return indexMapping
}

// artifactDoc is the flattened shape stored and searched in Bleve.
type artifactDoc struct {
	JobID            string    `json:"job_id"`
	OriginalFilename string    `json:"original_filename"`
	Language         string    `json:"language"`
	Kind             string    `json:"kind"`
	NumCallables     int       `json:"num_callables"`
	GoModuleName     string    `json:"go_module_name"`
	CreatedAt        time.Time `json:"created_at"`
}

// Index adds or replaces the document for one artifact's metadata row,
// keyed by its storage-unique id.
func (b *BleveIndex) Index(ctx context.Context, meta domain.ArtifactMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := artifactDoc{
		JobID:            meta.JobID,
		OriginalFilename: meta.OriginalFilename,
		Language:         string(meta.Language),
		Kind:             string(meta.Kind),
		NumCallables:     meta.NumCallables,
		GoModuleName:     meta.GoModuleName,
		CreatedAt:        meta.CreatedAt,
	}
	return b.idx.Index(meta.UniqueID, doc)
}

// Search runs a full-text query across job ids and original filenames,
// returning up to limit matching artifact metadata rows.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]domain.ArtifactMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	q := bleve.NewQueryStringQuery(query)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"job_id", "original_filename", "language", "kind", "num_callables", "go_module_name", "created_at"}

	result, err := b.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve: search %q: %w", query, err)
	}

	hits := make([]domain.ArtifactMetadata, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, domain.ArtifactMetadata{
			UniqueID:         hit.ID,
			JobID:            fieldString(hit.Fields, "job_id"),
			OriginalFilename: fieldString(hit.Fields, "original_filename"),
			Language:         domain.Language(fieldString(hit.Fields, "language")),
			Kind:             domain.ArtifactKind(fieldString(hit.Fields, "kind")),
			GoModuleName:     fieldString(hit.Fields, "go_module_name"),
		})
	}
	return hits, nil
}

func fieldString(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

// Delete removes one artifact's document from the index.
func (b *BleveIndex) Delete(uniqueID string) error {
	return b.idx.Delete(uniqueID)
}

// Close releases the underlying index handle.
func (b *BleveIndex) Close() error {
	return b.idx.Close()
}
