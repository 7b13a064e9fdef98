package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/ai"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

// MockByteStore is a testify mock of artifacts.ByteStore.
type MockByteStore struct {
	mock.Mock
}

func (m *MockByteStore) Put(ctx context.Context, jobID, objectName string, data []byte) error {
	args := m.Called(ctx, jobID, objectName, data)
	return args.Error(0)
}

func (m *MockByteStore) Get(ctx context.Context, jobID, objectName string) ([]byte, bool) {
	args := m.Called(ctx, jobID, objectName)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]byte), args.Bool(1)
}

func (m *MockByteStore) Delete(ctx context.Context, jobID, objectName string) error {
	args := m.Called(ctx, jobID, objectName)
	return args.Error(0)
}

// MockMetadataIndex is a testify mock of artifacts.MetadataIndex.
type MockMetadataIndex struct {
	mock.Mock
}

func (m *MockMetadataIndex) Put(ctx context.Context, meta domain.ArtifactMetadata) error {
	args := m.Called(ctx, meta)
	return args.Error(0)
}

func (m *MockMetadataIndex) Get(ctx context.Context, kind domain.ArtifactKind, uniqueID string) (domain.ArtifactMetadata, bool) {
	args := m.Called(ctx, kind, uniqueID)
	if args.Get(0) == nil {
		return domain.ArtifactMetadata{}, args.Bool(1)
	}
	return args.Get(0).(domain.ArtifactMetadata), args.Bool(1)
}

func (m *MockMetadataIndex) Delete(ctx context.Context, kind domain.ArtifactKind, uniqueID string) error {
	args := m.Called(ctx, kind, uniqueID)
	return args.Error(0)
}

func (m *MockMetadataIndex) ListByJob(ctx context.Context, kind domain.ArtifactKind, jobID string) ([]domain.ArtifactMetadata, error) {
	args := m.Called(ctx, kind, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ArtifactMetadata), args.Error(1)
}

// MockStatusCoordinator is a testify mock of handlers.StatusCoordinator,
// redeclared here (rather than imported) so that package testutil never
// depends on internal/api/handlers.
type MockStatusCoordinator struct {
	mock.Mock
}

func (m *MockStatusCoordinator) SetStatus(ctx context.Context, jobID string, status domain.JobStatus) error {
	args := m.Called(ctx, jobID, status)
	return args.Error(0)
}

func (m *MockStatusCoordinator) GetStatus(ctx context.Context, jobID string) (domain.JobStatus, bool) {
	args := m.Called(ctx, jobID)
	return args.Get(0).(domain.JobStatus), args.Bool(1)
}

// MockEventBus is a testify mock of streaming.EventBus.
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) EnsureStream(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEventBus) Publish(ctx context.Context, event domain.PipelineEvent) {
	m.Called(ctx, event)
}

func (m *MockEventBus) Subscribe(ctx context.Context, jobID string, handler func(domain.PipelineEvent)) error {
	args := m.Called(ctx, jobID, handler)
	return args.Error(0)
}

func (m *MockEventBus) Ping() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockEventBus) Close() {
	m.Called()
}

// MockSearchIndexer is a testify mock of search.Indexer.
type MockSearchIndexer struct {
	mock.Mock
}

func (m *MockSearchIndexer) Index(ctx context.Context, meta domain.ArtifactMetadata) error {
	args := m.Called(ctx, meta)
	return args.Error(0)
}

func (m *MockSearchIndexer) Search(ctx context.Context, query string, limit int) ([]domain.ArtifactMetadata, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ArtifactMetadata), args.Error(1)
}

func (m *MockSearchIndexer) Delete(uniqueID string) error {
	args := m.Called(uniqueID)
	return args.Error(0)
}

func (m *MockSearchIndexer) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockAIQuerier is a testify mock of ai.AIQuerier.
type MockAIQuerier struct {
	mock.Mock
}

func (m *MockAIQuerier) Query(ctx context.Context, systemPrompt string, messages []ai.Message, maxTokens int) (*ai.Response, error) {
	args := m.Called(ctx, systemPrompt, messages, maxTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ai.Response), args.Error(1)
}

func (m *MockAIQuerier) Narrate(ctx context.Context, sarifReport []byte) (*ai.Response, error) {
	args := m.Called(ctx, sarifReport)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ai.Response), args.Error(1)
}

func (m *MockAIQuerier) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}
