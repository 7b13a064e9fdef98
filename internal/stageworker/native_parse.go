package stageworker

import (
	"context"
	"sync"
	"time"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/artifacts"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/engine"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/httpclient"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/logsink"
)

// NativeParse builds the T=WaitingForNativeParsing handler: for every
// SourceFile of the job, POST a multipart upload to the language's native
// AST front end, write the resulting NativeAst, and always delete the
// source file afterward regardless of outcome.
func NativeParse(store *artifacts.Store, client *httpclient.Client, log *logsink.Client, endpoints Endpoints) engine.Handler {
	return func(ctx context.Context, jobID string) error {
		files, err := store.ListByJob(ctx, domain.KindSourceFile, jobID)
		if err != nil {
			return err
		}

		var wg sync.WaitGroup
		for _, f := range files {
			f := f
			wg.Add(1)
			go func() {
				defer wg.Done()
				processNativeParseUnit(ctx, store, client, log, endpoints, jobID, f)
			}()
		}
		wg.Wait()
		return nil
	}
}

func processNativeParseUnit(ctx context.Context, store *artifacts.Store, client *httpclient.Client, log *logsink.Client, endpoints Endpoints, jobID string, f domain.ArtifactMetadata) {
	start := time.Now()
	defer store.Delete(ctx, domain.KindSourceFile, jobID, f.UniqueID)

	data, found := store.Load(ctx, domain.KindSourceFile, jobID, f.UniqueID)
	if !found {
		return
	}

	url, ok := endpoints.NativeParseByLanguage[f.Language]
	if !ok {
		log.Warning(ctx, logsink.Message{
			FileUniqueID: f.UniqueID, JobID: jobID, Context: logsink.ContextNativeParsingFailed,
			OriginalFilename: f.OriginalFilename, Language: f.Language,
			MoreDetails: "no native-parse endpoint configured for language",
		})
		return
	}

	if f.Language == domain.LanguageBladePHP && endpoints.BladePreflightURL != "" {
		_, _ = client.PostMultipartRaw(ctx, endpoints.BladePreflightURL, "source", f.OriginalFilename, data)
	}

	body, err := client.PostMultipartRaw(ctx, url, "source", f.OriginalFilename, data)
	if err != nil || len(body) == 0 {
		log.Warning(ctx, logsink.Message{
			FileUniqueID: f.UniqueID, JobID: jobID, Context: logsink.ContextNativeParsingFailed,
			OriginalFilename: f.OriginalFilename, Language: f.Language, Duration: time.Since(start),
		})
		return
	}

	if _, err := store.Save(ctx, domain.KindNativeAst, jobID, f.OriginalFilename, f.Language, f.GoModuleName, body); err != nil {
		log.Error(ctx, logsink.Message{
			FileUniqueID: f.UniqueID, JobID: jobID, Context: logsink.ContextNativeParsingFailed,
			OriginalFilename: f.OriginalFilename, Language: f.Language, Duration: time.Since(start),
			MoreDetails: err.Error(),
		})
		return
	}

	log.Info(ctx, logsink.Message{
		FileUniqueID: f.UniqueID, JobID: jobID, Context: logsink.ContextNativeParsingSucceeded,
		OriginalFilename: f.OriginalFilename, Language: f.Language, Duration: time.Since(start),
		CorrespondingByteSize: int64(len(body)),
	})
}
