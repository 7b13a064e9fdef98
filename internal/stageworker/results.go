package stageworker

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/artifacts"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/engine"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/logsink"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/sarif"
)

// queryEngineFailedOutput is the literal JSON body written when the
// results content carries no satisfied query — not a pipeline error, a
// clean scan with nothing to report.
var queryEngineFailedOutput = mustMarshal(map[string]string{"debug": "query engine failed"})

func mustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Results builds the T=WaitingForResultsGeneration handler: turn the job's
// Results text into its final SARIF Output artifact. Advancing past this
// stage moves the job to Finished.
func Results(store *artifacts.Store, log *logsink.Client) engine.Handler {
	return func(ctx context.Context, jobID string) error {
		start := time.Now()

		results, err := store.ListByJob(ctx, domain.KindResults, jobID)
		if err != nil {
			return err
		}

		var content string
		for _, r := range results {
			data, found := store.Load(ctx, domain.KindResults, jobID, r.UniqueID)
			store.Delete(ctx, domain.KindResults, jobID, r.UniqueID)
			if found {
				content = string(data)
			}
		}

		output := queryEngineFailedOutput
		if strings.Contains(content, ": yes") {
			report := sarif.GenerateFromResultsContent(content)
			if b, err := json.Marshal(report); err == nil {
				output = b
			}
		}

		if _, err := store.Save(ctx, domain.KindOutput, jobID, jobID, domain.LanguageAll, "", output); err != nil {
			log.Error(ctx, logsink.Message{
				JobID: jobID, Context: logsink.ContextResultsFailed,
				Duration: time.Since(start), MoreDetails: err.Error(),
			})
			return err
		}

		log.Info(ctx, logsink.Message{
			JobID: jobID, Context: logsink.ContextResultsSucceeded,
			Duration: time.Since(start), CorrespondingByteSize: int64(len(output)),
		})
		return nil
	}
}
