package stageworker

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/artifacts"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/engine"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/httpclient"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/logsink"
)

type kbgenResponse struct {
	Content []string `json:"content"`
}

// Kbgen builds the T=WaitingForKbgen handler: for every (Callables parent,
// index i), POST the i'th callable and write the returned facts as
// Facts(i), keyed by the same parent id and index.
func Kbgen(store *artifacts.Store, client *httpclient.Client, log *logsink.Client, endpoints Endpoints) engine.Handler {
	return func(ctx context.Context, jobID string) error {
		parents, err := store.ListByJob(ctx, domain.KindCallables, jobID)
		if err != nil {
			return err
		}

		var outer sync.WaitGroup
		for _, parent := range parents {
			parent := parent
			if parent.NumCallables == 0 {
				_ = store.Delete(ctx, domain.KindCallables, jobID, parent.UniqueID)
				continue
			}
			if err := store.SaveParentWithID(ctx, domain.KindFacts, jobID, parent.OriginalFilename, parent.Language, parent.NumCallables, parent.UniqueID); err != nil {
				log.Error(ctx, logsink.Message{
					FileUniqueID: parent.UniqueID, JobID: jobID, Context: logsink.ContextKbgenFailed,
					OriginalFilename: parent.OriginalFilename, Language: parent.Language,
					MoreDetails: err.Error(),
				})
				continue
			}

			outer.Add(1)
			go func() {
				defer outer.Done()
				var inner sync.WaitGroup
				for i := 0; i < parent.NumCallables; i++ {
					i := i
					inner.Add(1)
					go func() {
						defer inner.Done()
						processKbgenUnit(ctx, store, client, log, jobID, parent, i, endpoints)
					}()
				}
				inner.Wait()
				// Every index consumed: drop the Callables parent row too,
				// its bytes having been deleted index-by-index already.
				_ = store.Delete(ctx, domain.KindCallables, jobID, parent.UniqueID)
			}()
		}
		outer.Wait()
		return nil
	}
}

func processKbgenUnit(ctx context.Context, store *artifacts.Store, client *httpclient.Client, log *logsink.Client, jobID string, parent domain.ArtifactMetadata, i int, endpoints Endpoints) {
	start := time.Now()
	defer store.DeleteIndexed(ctx, domain.KindCallables, jobID, parent.UniqueID, i)

	callable, found := store.LoadIndexed(ctx, domain.KindCallables, jobID, parent.UniqueID, i)
	if !found {
		return
	}

	var resp kbgenResponse
	if err := client.PostJSON(ctx, endpoints.KbgenURL, json.RawMessage(callable), &resp); err != nil {
		log.Error(ctx, logsink.Message{
			FileUniqueID: parent.UniqueID, JobID: jobID, Context: logsink.ContextKbgenFailed,
			OriginalFilename: parent.OriginalFilename, Language: parent.Language, Duration: time.Since(start),
			MoreDetails: err.Error(),
		})
		return
	}

	facts := []byte(strings.Join(resp.Content, "\n"))

	if err := store.SaveIndexed(ctx, domain.KindFacts, jobID, parent.UniqueID, i, facts); err != nil {
		log.Error(ctx, logsink.Message{
			FileUniqueID: parent.UniqueID, JobID: jobID, Context: logsink.ContextKbgenFailed,
			OriginalFilename: parent.OriginalFilename, Language: parent.Language, Duration: time.Since(start),
			MoreDetails: err.Error(),
		})
		return
	}

	log.Info(ctx, logsink.Message{
		FileUniqueID: parent.UniqueID, JobID: jobID, Context: logsink.ContextKbgenSucceeded,
		OriginalFilename: parent.OriginalFilename, Language: parent.Language, Duration: time.Since(start),
		CorrespondingByteSize: int64(len(facts)),
	})
}
