package artifacts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

// memBytes is a minimal in-memory ByteStore used to test Store's
// kind/suffix bookkeeping without touching disk or S3.
type memBytes struct {
	objects map[string][]byte
}

func newMemBytes() *memBytes { return &memBytes{objects: map[string][]byte{}} }

func (m *memBytes) Put(_ context.Context, jobID, objectName string, data []byte) error {
	m.objects[jobID+"/"+objectName] = data
	return nil
}

func (m *memBytes) Get(_ context.Context, jobID, objectName string) ([]byte, bool) {
	data, ok := m.objects[jobID+"/"+objectName]
	return data, ok
}

func (m *memBytes) Delete(_ context.Context, jobID, objectName string) error {
	delete(m.objects, jobID+"/"+objectName)
	return nil
}

// memIndex is a minimal in-memory MetadataIndex.
type memIndex struct {
	rows map[string]domain.ArtifactMetadata
}

func newMemIndex() *memIndex { return &memIndex{rows: map[string]domain.ArtifactMetadata{}} }

func (m *memIndex) Put(_ context.Context, meta domain.ArtifactMetadata) error {
	m.rows[string(meta.Kind)+"/"+meta.UniqueID] = meta
	return nil
}

func (m *memIndex) Get(_ context.Context, kind domain.ArtifactKind, uniqueID string) (domain.ArtifactMetadata, bool) {
	meta, ok := m.rows[string(kind)+"/"+uniqueID]
	return meta, ok
}

func (m *memIndex) Delete(_ context.Context, kind domain.ArtifactKind, uniqueID string) error {
	delete(m.rows, string(kind)+"/"+uniqueID)
	return nil
}

func (m *memIndex) ListByJob(_ context.Context, kind domain.ArtifactKind, jobID string) ([]domain.ArtifactMetadata, error) {
	var out []domain.ArtifactMetadata
	for _, meta := range m.rows {
		if meta.Kind == kind && meta.JobID == jobID {
			out = append(out, meta)
		}
	}
	return out, nil
}

func TestStore_SaveLoadDelete(t *testing.T) {
	s := New(newMemBytes(), newMemIndex())

	id, err := s.Save(t.Context(), domain.KindSourceFile, "job-1", "main.go", domain.LanguageGo, "", []byte("package main"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	data, found := s.Load(t.Context(), domain.KindSourceFile, "job-1", id)
	assert.True(t, found)
	assert.Equal(t, []byte("package main"), data)

	rows, err := s.ListByJob(t.Context(), domain.KindSourceFile, "job-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "main.go", rows[0].OriginalFilename)

	require.NoError(t, s.Delete(t.Context(), domain.KindSourceFile, "job-1", id))

	_, found = s.Load(t.Context(), domain.KindSourceFile, "job-1", id)
	assert.False(t, found)
}

func TestStore_DistinctKindsDoNotCollideOnSameID(t *testing.T) {
	bytesStore := newMemBytes()
	s := New(bytesStore, newMemIndex())

	srcID, err := s.Save(t.Context(), domain.KindSourceFile, "job-1", "a.py", domain.LanguagePY, "", []byte("src"))
	require.NoError(t, err)

	// Manually save an artifact of a different kind directly on the byte
	// store to confirm the suffix distinguishes object names even when two
	// kinds happen to reuse a uuid in a contrived test.
	require.NoError(t, bytesStore.Put(t.Context(), "job-1", srcID+suffix[domain.KindNativeAst], []byte("native")))

	srcData, _ := s.Load(t.Context(), domain.KindSourceFile, "job-1", srcID)
	nativeData, _ := s.Load(t.Context(), domain.KindNativeAst, "job-1", srcID)
	assert.Equal(t, []byte("src"), srcData)
	assert.Equal(t, []byte("native"), nativeData)
}

func TestStore_IndexedArtifacts(t *testing.T) {
	s := New(newMemBytes(), newMemIndex())

	parentID, err := s.SaveParent(t.Context(), domain.KindCallables, "job-1", "a.py", domain.LanguagePY, 2)
	require.NoError(t, err)

	require.NoError(t, s.SaveIndexed(t.Context(), domain.KindCallables, "job-1", parentID, 0, []byte("callable-0")))
	require.NoError(t, s.SaveIndexed(t.Context(), domain.KindCallables, "job-1", parentID, 1, []byte("callable-1")))

	data0, found0 := s.LoadIndexed(t.Context(), domain.KindCallables, "job-1", parentID, 0)
	data1, found1 := s.LoadIndexed(t.Context(), domain.KindCallables, "job-1", parentID, 1)
	assert.True(t, found0)
	assert.True(t, found1)
	assert.Equal(t, []byte("callable-0"), data0)
	assert.Equal(t, []byte("callable-1"), data1)

	require.NoError(t, s.DeleteIndexed(t.Context(), domain.KindCallables, "job-1", parentID, 0))
	_, found0 = s.LoadIndexed(t.Context(), domain.KindCallables, "job-1", parentID, 0)
	assert.False(t, found0)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	s := New(newMemBytes(), newMemIndex())
	assert.NoError(t, s.Delete(t.Context(), domain.KindSourceFile, "job-1", "never-saved"))
}
