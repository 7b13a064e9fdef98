package stageworker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/artifacts"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/engine"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/httpclient"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/logsink"
)

type normalizeRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// dhscannerResponse is decoded loosely: a domain-level parse failure is
// reported as a JSON body with status:"FAILED" rather than a non-200
// status code, and must not be confused with a system/transport failure.
type dhscannerResponse struct {
	Status   string          `json:"status"`
	Location json.RawMessage `json:"location,omitempty"`
}

// DhscannerParse builds the T=WaitingForDhscannerParsing handler.
func DhscannerParse(store *artifacts.Store, client *httpclient.Client, log *logsink.Client, endpoints Endpoints) engine.Handler {
	return func(ctx context.Context, jobID string) error {
		asts, err := store.ListByJob(ctx, domain.KindNativeAst, jobID)
		if err != nil {
			return err
		}

		var wg sync.WaitGroup
		for _, ast := range asts {
			ast := ast
			wg.Add(1)
			go func() {
				defer wg.Done()
				processDhscannerParseUnit(ctx, store, client, log, endpoints, jobID, ast)
			}()
		}
		wg.Wait()
		return nil
	}
}

func processDhscannerParseUnit(ctx context.Context, store *artifacts.Store, client *httpclient.Client, log *logsink.Client, endpoints Endpoints, jobID string, ast domain.ArtifactMetadata) {
	start := time.Now()
	defer store.Delete(ctx, domain.KindNativeAst, jobID, ast.UniqueID)

	data, found := store.Load(ctx, domain.KindNativeAst, jobID, ast.UniqueID)
	if !found {
		return
	}

	url := endpoints.DhscannerParseURL(ast.Language)

	raw, err := client.PostJSONRaw(ctx, url, normalizeRequest{
		Filename: ast.OriginalFilename,
		Content:  string(data),
	})
	if err != nil {
		log.Error(ctx, logsink.Message{
			FileUniqueID: ast.UniqueID, JobID: jobID, Context: logsink.ContextDhscannerParsingFailed,
			OriginalFilename: ast.OriginalFilename, Language: ast.Language, Duration: time.Since(start),
			MoreDetails: err.Error(),
		})
		return
	}

	var resp dhscannerResponse
	_ = json.Unmarshal(raw, &resp)
	if resp.Status == "FAILED" {
		// A domain-level parse failure, not a system failure: the job
		// still advances, it simply carries no DhscannerAst for this file.
		log.Warning(ctx, logsink.Message{
			FileUniqueID: ast.UniqueID, JobID: jobID, Context: logsink.ContextDhscannerParsingFailed,
			OriginalFilename: ast.OriginalFilename, Language: ast.Language, Duration: time.Since(start),
			MoreDetails: string(resp.Location),
		})
		return
	}

	if _, err := store.Save(ctx, domain.KindDhscannerAst, jobID, ast.OriginalFilename, ast.Language, ast.GoModuleName, raw); err != nil {
		log.Error(ctx, logsink.Message{
			FileUniqueID: ast.UniqueID, JobID: jobID, Context: logsink.ContextDhscannerParsingFailed,
			OriginalFilename: ast.OriginalFilename, Language: ast.Language, Duration: time.Since(start),
			MoreDetails: err.Error(),
		})
		return
	}

	log.Info(ctx, logsink.Message{
		FileUniqueID: ast.UniqueID, JobID: jobID, Context: logsink.ContextDhscannerParsingSucceeded,
		OriginalFilename: ast.OriginalFilename, Language: ast.Language, Duration: time.Since(start),
		CorrespondingByteSize: int64(len(raw)),
	})
}
