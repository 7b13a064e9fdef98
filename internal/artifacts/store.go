// Package artifacts implements the durable per-job artifact store: a
// content container plus a metadata index, shared by every stage worker and
// the ingress upload handler.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

// ErrAbsent is never returned to callers of Store — Load/Delete report
// absence via a boolean, matching the contract's "absent is not an error"
// rule. It exists only as a sentinel for ByteStore and MetadataIndex
// implementations to share internally.
var ErrAbsent = errors.New("artifacts: absent")

// ByteStore is the minimal content-addressed byte container a Store is
// built on. Implementations (disk, S3) only need to satisfy this; all kind
// and metadata-index bookkeeping lives in Store itself.
type ByteStore interface {
	Put(ctx context.Context, jobID, objectName string, data []byte) error
	// Get returns found=false (never an error) when the object does not
	// exist or the underlying I/O failed — both cases are "absent" per
	// the contract, after a warning log.
	Get(ctx context.Context, jobID, objectName string) (data []byte, found bool)
	Delete(ctx context.Context, jobID, objectName string) error
}

// MetadataIndex persists ArtifactMetadata rows, one table per artifact
// kind (Results and Output share one), keyed by the storage-unique id.
type MetadataIndex interface {
	Put(ctx context.Context, m domain.ArtifactMetadata) error
	Get(ctx context.Context, kind domain.ArtifactKind, uniqueID string) (domain.ArtifactMetadata, bool)
	Delete(ctx context.Context, kind domain.ArtifactKind, uniqueID string) error
	ListByJob(ctx context.Context, kind domain.ArtifactKind, jobID string) ([]domain.ArtifactMetadata, error)
}

// suffix maps an artifact kind to the filename suffix used within a job's
// subdirectory, per the "filenames encode artifact kind and index" policy.
var suffix = map[domain.ArtifactKind]string{
	domain.KindSourceFile:   ".src",
	domain.KindNativeAst:    ".native.ast",
	domain.KindDhscannerAst: ".dhscanner.ast.json",
	domain.KindCallables:    ".callable.json",
	domain.KindFacts:        ".facts.txt",
	domain.KindResults:      ".results.txt",
	domain.KindOutput:       ".sarif.json",
}

// Store is the C3 contract: save/load/delete plus list_by_job, and the
// *_i variants for the indexed kinds (Callables, Facts). It is backend
// agnostic over bytes (disk or S3) and over the metadata index (Postgres).
type Store struct {
	bytes ByteStore
	index MetadataIndex
}

// New builds a Store over the given byte and metadata backends.
func New(bytes ByteStore, index MetadataIndex) *Store {
	return &Store{bytes: bytes, index: index}
}

// Save writes a non-indexed artifact (SourceFile, NativeAst, DhscannerAst,
// Results, Output) and its metadata row, returning the allocated
// storage-unique id.
func (s *Store) Save(ctx context.Context, kind domain.ArtifactKind, jobID, originalFilename string, lang domain.Language, goModuleName string, data []byte) (string, error) {
	id := uuid.NewString()
	objectName := id + suffix[kind]

	if err := s.bytes.Put(ctx, jobID, objectName, data); err != nil {
		return "", err
	}

	meta := domain.ArtifactMetadata{
		UniqueID:         id,
		JobID:            jobID,
		OriginalFilename: originalFilename,
		Language:         lang,
		Kind:             kind,
		GoModuleName:     goModuleName,
	}
	if err := s.index.Put(ctx, meta); err != nil {
		return "", err
	}
	return id, nil
}

// Load returns the exact bytes written under uniqueID, or found=false if
// the artifact was never created, was already deleted, or an I/O error
// occurred (logged by the backend, never surfaced as an error here).
func (s *Store) Load(ctx context.Context, kind domain.ArtifactKind, jobID, uniqueID string) ([]byte, bool) {
	objectName := uniqueID + suffix[kind]
	return s.bytes.Get(ctx, jobID, objectName)
}

// Delete removes an artifact's bytes and metadata row. It is idempotent:
// deleting an absent target is a no-op, and any failure is logged and
// swallowed.
func (s *Store) Delete(ctx context.Context, kind domain.ArtifactKind, jobID, uniqueID string) error {
	objectName := uniqueID + suffix[kind]
	if err := s.bytes.Delete(ctx, jobID, objectName); err != nil {
		slog.Warn("artifact delete failed", "job_id", jobID, "object", objectName, "error", err)
	}
	if err := s.index.Delete(ctx, kind, uniqueID); err != nil {
		slog.Warn("artifact metadata delete failed", "job_id", jobID, "unique_id", uniqueID, "error", err)
	}
	return nil
}

// ListByJob returns the metadata rows of every live artifact of kind for
// jobID.
func (s *Store) ListByJob(ctx context.Context, kind domain.ArtifactKind, jobID string) ([]domain.ArtifactMetadata, error) {
	return s.index.ListByJob(ctx, kind, jobID)
}

// indexedObjectName builds the filename for the i'th physical file of an
// indexed artifact (Callables or Facts), keyed by its parent id.
func indexedObjectName(kind domain.ArtifactKind, parentID string, i int) string {
	return fmt.Sprintf("%s.%d%s", parentID, i, suffix[kind])
}

// SaveIndexed writes the i'th physical file of an indexed artifact kind.
// The parent metadata row (numCallables, job/filename/language) is written
// once by the caller via SaveParent (or SaveParentWithID) before the first
// SaveIndexed call, or is
// updated in place — callers pass the already-allocated parentID.
func (s *Store) SaveIndexed(ctx context.Context, kind domain.ArtifactKind, jobID, parentID string, i int, data []byte) error {
	return s.bytes.Put(ctx, jobID, indexedObjectName(kind, parentID, i), data)
}

// LoadIndexed returns the i'th physical file of an indexed artifact.
func (s *Store) LoadIndexed(ctx context.Context, kind domain.ArtifactKind, jobID, parentID string, i int) ([]byte, bool) {
	return s.bytes.Get(ctx, jobID, indexedObjectName(kind, parentID, i))
}

// DeleteIndexed removes the i'th physical file of an indexed artifact.
func (s *Store) DeleteIndexed(ctx context.Context, kind domain.ArtifactKind, jobID, parentID string, i int) error {
	return s.bytes.Delete(ctx, jobID, indexedObjectName(kind, parentID, i))
}

// SaveParent allocates a new parent id and writes its metadata row for an
// indexed kind, recording numCallables per the invariant that it equals
// the number of physical files ultimately written.
func (s *Store) SaveParent(ctx context.Context, kind domain.ArtifactKind, jobID, originalFilename string, lang domain.Language, numCallables int) (string, error) {
	id := uuid.NewString()
	return id, s.SaveParentWithID(ctx, kind, jobID, originalFilename, lang, numCallables, id)
}

// SaveParentWithID writes a parent metadata row for an indexed kind under
// an already-known id. It is used when an indexed kind's id must match a
// sibling kind's id — Facts shares its parent Callables' unique id so both
// kinds' i'th physical file live under the same key.
func (s *Store) SaveParentWithID(ctx context.Context, kind domain.ArtifactKind, jobID, originalFilename string, lang domain.Language, numCallables int, id string) error {
	meta := domain.ArtifactMetadata{
		UniqueID:         id,
		JobID:            jobID,
		OriginalFilename: originalFilename,
		Language:         lang,
		Kind:             kind,
		NumCallables:     numCallables,
	}
	return s.index.Put(ctx, meta)
}
