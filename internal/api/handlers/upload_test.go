package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/artifacts"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

func newUploadRequest(jobID, path, contentType string, body []byte) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/upload?job_id="+jobID, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if path != "" {
		req.Header.Set("X-Path", path)
	}
	return req
}

func TestUploadHandler_StoresRecognizedLanguage(t *testing.T) {
	bytesStore := newMemBytes()
	index := newMemIndex()
	store := artifacts.New(bytesStore, index)

	req := newUploadRequest("job-1", "src/main.go", "application/octet-stream", []byte("package main"))
	w := httptest.NewRecorder()

	UploadHandler(store, discardLogSink(), nil)(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "src/main.go")

	rows, err := store.ListByJob(req.Context(), domain.KindSourceFile, "job-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.LanguageGo, rows[0].Language)
}

func TestUploadHandler_UnrecognizedLanguageNotStored(t *testing.T) {
	store := artifacts.New(newMemBytes(), newMemIndex())

	req := newUploadRequest("job-2", "README.weirdext", "application/octet-stream", []byte("hello"))
	w := httptest.NewRecorder()

	UploadHandler(store, discardLogSink(), nil)(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	rows, err := store.ListByJob(req.Context(), domain.KindSourceFile, "job-2")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUploadHandler_MissingJobID(t *testing.T) {
	store := artifacts.New(newMemBytes(), newMemIndex())
	req := newUploadRequest("", "a.go", "application/octet-stream", []byte("x"))
	w := httptest.NewRecorder()

	UploadHandler(store, discardLogSink(), nil)(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadHandler_WrongContentType(t *testing.T) {
	store := artifacts.New(newMemBytes(), newMemIndex())
	req := newUploadRequest("job-3", "a.go", "text/plain", []byte("x"))
	w := httptest.NewRecorder()

	UploadHandler(store, discardLogSink(), nil)(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadHandler_MissingPathHeader(t *testing.T) {
	store := artifacts.New(newMemBytes(), newMemIndex())
	req := newUploadRequest("job-4", "", "application/octet-stream", []byte("x"))
	w := httptest.NewRecorder()

	UploadHandler(store, discardLogSink(), nil)(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
