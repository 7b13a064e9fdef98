package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/api"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/artifacts"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/logsink"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/search"
)

// maxUploadBytes bounds a single uploaded file's body. The ingress streams
// the body as application/octet-stream; this is a sanity ceiling, not a
// tuning knob clients are expected to approach.
const maxUploadBytes = 64 << 20 // 64 MiB

// moduleNameHeader is the optional Go-module-name hint a client attaches to
// a .go upload so it can be threaded through to native-parse. Per §9's
// resolved open question, it is stored on SourceFile and propagated only
// as far as NativeAst.
const moduleNameHeader = "X-Module-Name-Resolver-Go.mod"

// UploadHandler serves POST /upload?job_id=<id>. It is the only endpoint
// that writes artifacts: it reads the body as a raw byte stream, infers
// the source language from the X-Path header, and — if the language is
// recognized — saves a SourceFile artifact. An unrecognized language is
// accepted silently (200) and only logged, never stored.
func UploadHandler(store *artifacts.Store, log *logsink.Client, index search.Indexer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := r.URL.Query().Get("job_id")
		if jobID == "" {
			api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "job_id is required")
			return
		}

		if ct := r.Header.Get("Content-Type"); ct != "application/octet-stream" {
			api.Error(w, http.StatusBadRequest, api.ErrCodeUnsupportedMedia, "Content-Type must be application/octet-stream")
			return
		}

		originalPath := r.Header.Get("X-Path")
		if originalPath == "" {
			api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "X-Path header is required")
			return
		}
		moduleName := r.Header.Get(moduleNameHeader)

		data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
		if err != nil {
			api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "failed to read upload body")
			return
		}
		if len(data) > maxUploadBytes {
			api.Error(w, http.StatusRequestEntityTooLarge, api.ErrCodeFileTooLarge, "upload exceeds maximum size")
			return
		}

		lang, ok := domain.LanguageFromFilename(originalPath)
		if !ok {
			log.Info(r.Context(), logsink.Message{
				JobID: jobID, Context: logsink.ContextUploadFile,
				OriginalFilename: originalPath,
				MoreDetails:      "unrecognized language, file not stored",
			})
			api.JSON(w, http.StatusOK, map[string]string{
				"status":                   "ok",
				"original_upload_filename": originalPath,
			})
			return
		}

		start := time.Now()
		uniqueID, err := store.Save(r.Context(), domain.KindSourceFile, jobID, originalPath, lang, moduleName, data)
		if err != nil {
			log.Error(r.Context(), logsink.Message{
				JobID: jobID, Context: logsink.ContextUploadFile,
				OriginalFilename: originalPath, Language: lang,
				MoreDetails: err.Error(),
			})
			api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to store uploaded file")
			return
		}

		if index != nil {
			_ = index.Index(r.Context(), domain.ArtifactMetadata{
				UniqueID: uniqueID, JobID: jobID, OriginalFilename: originalPath,
				Language: lang, Kind: domain.KindSourceFile, GoModuleName: moduleName,
			})
		}

		log.Info(r.Context(), logsink.Message{
			FileUniqueID: uniqueID, JobID: jobID, Context: logsink.ContextUploadFile,
			OriginalFilename: originalPath, Language: lang, Duration: time.Since(start),
			CorrespondingByteSize: int64(len(data)),
		})

		api.JSON(w, http.StatusOK, map[string]string{
			"status":                   "ok",
			"original_upload_filename": originalPath,
		})
	}
}
