package handlers

import (
	"context"
	"sync"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/logsink"
)

// memBytes and memIndex are minimal in-memory doubles for artifacts.Store's
// two backend interfaces, used so handler tests never touch a real disk,
// S3 bucket, or Postgres instance.

type memBytes struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemBytes() *memBytes { return &memBytes{data: map[string][]byte{}} }

func (m *memBytes) key(jobID, objectName string) string { return jobID + "/" + objectName }

func (m *memBytes) Put(_ context.Context, jobID, objectName string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[m.key(jobID, objectName)] = append([]byte(nil), data...)
	return nil
}

func (m *memBytes) Get(_ context.Context, jobID, objectName string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[m.key(jobID, objectName)]
	return d, ok
}

func (m *memBytes) Delete(_ context.Context, jobID, objectName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, m.key(jobID, objectName))
	return nil
}

type memIndex struct {
	mu   sync.Mutex
	rows map[domain.ArtifactKind]map[string]domain.ArtifactMetadata
}

func newMemIndex() *memIndex {
	return &memIndex{rows: map[domain.ArtifactKind]map[string]domain.ArtifactMetadata{}}
}

func (m *memIndex) Put(_ context.Context, meta domain.ArtifactMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows[meta.Kind] == nil {
		m.rows[meta.Kind] = map[string]domain.ArtifactMetadata{}
	}
	m.rows[meta.Kind][meta.UniqueID] = meta
	return nil
}

func (m *memIndex) Get(_ context.Context, kind domain.ArtifactKind, uniqueID string) (domain.ArtifactMetadata, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.rows[kind][uniqueID]
	return meta, ok
}

func (m *memIndex) Delete(_ context.Context, kind domain.ArtifactKind, uniqueID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows[kind], uniqueID)
	return nil
}

func (m *memIndex) ListByJob(_ context.Context, kind domain.ArtifactKind, jobID string) ([]domain.ArtifactMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ArtifactMetadata
	for _, meta := range m.rows[kind] {
		if meta.JobID == jobID {
			out = append(out, meta)
		}
	}
	return out, nil
}

func discardLogSink() *logsink.Client {
	return logsink.NewClient("http://127.0.0.1:0")
}

// memCoordinator is a minimal in-memory StatusCoordinator double.
type memCoordinator struct {
	mu     sync.Mutex
	status map[string]domain.JobStatus
}

func newMemCoordinator() *memCoordinator {
	return &memCoordinator{status: map[string]domain.JobStatus{}}
}

func (c *memCoordinator) SetStatus(_ context.Context, jobID string, status domain.JobStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status[jobID] = status
	return nil
}

func (c *memCoordinator) GetStatus(_ context.Context, jobID string) (domain.JobStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.status[jobID]
	return s, ok
}
