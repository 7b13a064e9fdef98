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

type codegenResponse struct {
	ActualCallables []json.RawMessage `json:"actualCallables"`
}

// Codegen builds the T=WaitingForCodegen handler: POST each DhscannerAst
// to codegen, then write its actualCallables elements as one indexed
// Callables parent with num_callables set to the element count.
func Codegen(store *artifacts.Store, client *httpclient.Client, log *logsink.Client, endpoints Endpoints) engine.Handler {
	return func(ctx context.Context, jobID string) error {
		asts, err := store.ListByJob(ctx, domain.KindDhscannerAst, jobID)
		if err != nil {
			return err
		}

		var wg sync.WaitGroup
		for _, ast := range asts {
			ast := ast
			wg.Add(1)
			go func() {
				defer wg.Done()
				processCodegenUnit(ctx, store, client, log, endpoints, jobID, ast)
			}()
		}
		wg.Wait()
		return nil
	}
}

func processCodegenUnit(ctx context.Context, store *artifacts.Store, client *httpclient.Client, log *logsink.Client, endpoints Endpoints, jobID string, ast domain.ArtifactMetadata) {
	start := time.Now()
	defer store.Delete(ctx, domain.KindDhscannerAst, jobID, ast.UniqueID)

	data, found := store.Load(ctx, domain.KindDhscannerAst, jobID, ast.UniqueID)
	if !found {
		return
	}

	var resp codegenResponse
	if err := client.PostJSON(ctx, endpoints.CodegenURL, json.RawMessage(data), &resp); err != nil {
		log.Error(ctx, logsink.Message{
			FileUniqueID: ast.UniqueID, JobID: jobID, Context: logsink.ContextCodegenFailed,
			OriginalFilename: ast.OriginalFilename, Language: ast.Language, Duration: time.Since(start),
			MoreDetails: err.Error(),
		})
		return
	}

	if len(resp.ActualCallables) == 0 {
		log.Warning(ctx, logsink.Message{
			FileUniqueID: ast.UniqueID, JobID: jobID, Context: logsink.ContextCodegenFailed,
			OriginalFilename: ast.OriginalFilename, Language: ast.Language, Duration: time.Since(start),
			MoreDetails: "codegen returned no callables",
		})
		return
	}

	parentID, err := store.SaveParent(ctx, domain.KindCallables, jobID, ast.OriginalFilename, ast.Language, len(resp.ActualCallables))
	if err != nil {
		log.Error(ctx, logsink.Message{
			FileUniqueID: ast.UniqueID, JobID: jobID, Context: logsink.ContextCodegenFailed,
			OriginalFilename: ast.OriginalFilename, Language: ast.Language, Duration: time.Since(start),
			MoreDetails: err.Error(),
		})
		return
	}

	for i, callable := range resp.ActualCallables {
		if err := store.SaveIndexed(ctx, domain.KindCallables, jobID, parentID, i, callable); err != nil {
			log.Error(ctx, logsink.Message{
				FileUniqueID: parentID, JobID: jobID, Context: logsink.ContextCodegenFailed,
				OriginalFilename: ast.OriginalFilename, Language: ast.Language,
				MoreDetails: err.Error(),
			})
		}
	}

	log.Info(ctx, logsink.Message{
		FileUniqueID: parentID, JobID: jobID, Context: logsink.ContextCodegenSucceeded,
		OriginalFilename: ast.OriginalFilename, Language: ast.Language, Duration: time.Since(start),
	})
}
