package stageworker

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/artifacts"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/engine"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/httpclient"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/logsink"
)

// Queryengine builds the T=WaitingForQueryengine handler. Unlike the
// other stages this one operates job-wide rather than per-file: every
// Facts artifact produced for the job is merged into a single
// deduplicated, sorted knowledge-base blob, then submitted to the query
// engine under both the "kb" and "queries" fields (the engine matches its
// own rule set against the facts it was just handed). The response text
// becomes the job's one Results artifact.
func Queryengine(store *artifacts.Store, client *httpclient.Client, log *logsink.Client, endpoints Endpoints) engine.Handler {
	return func(ctx context.Context, jobID string) error {
		start := time.Now()

		parents, err := store.ListByJob(ctx, domain.KindFacts, jobID)
		if err != nil {
			return err
		}
		defer deleteAllFacts(ctx, store, jobID, parents)

		kb := gatherFacts(ctx, store, jobID, parents)
		if len(kb) == 0 {
			log.Warning(ctx, logsink.Message{
				JobID: jobID, Context: logsink.ContextQueryengineFailed,
				Duration: time.Since(start), MoreDetails: "no facts gathered for job",
			})
			return nil
		}

		raw, err := client.PostMultipartFieldsRaw(ctx, endpoints.QueryengineURL, map[string][]byte{
			"kb":      kb,
			"queries": kb,
		})
		if err != nil {
			log.Error(ctx, logsink.Message{
				JobID: jobID, Context: logsink.ContextQueryengineFailed,
				Duration: time.Since(start), MoreDetails: err.Error(),
			})
			return nil
		}

		if _, err := store.Save(ctx, domain.KindResults, jobID, jobID, domain.LanguageAll, "", raw); err != nil {
			log.Error(ctx, logsink.Message{
				JobID: jobID, Context: logsink.ContextQueryengineFailed,
				Duration: time.Since(start), MoreDetails: err.Error(),
			})
			return nil
		}

		log.Info(ctx, logsink.Message{
			JobID: jobID, Context: logsink.ContextQueryengineSucceeded,
			Duration: time.Since(start), CorrespondingByteSize: int64(len(raw)),
		})
		return nil
	}
}

// gatherFacts loads every indexed Facts file under every parent, dedupes
// lines across the whole job, and joins them on LF in sorted order.
func gatherFacts(ctx context.Context, store *artifacts.Store, jobID string, parents []domain.ArtifactMetadata) []byte {
	seen := map[string]struct{}{}
	for _, parent := range parents {
		for i := 0; i < parent.NumCallables; i++ {
			data, found := store.LoadIndexed(ctx, domain.KindFacts, jobID, parent.UniqueID, i)
			if !found {
				continue
			}
			for _, line := range strings.Split(string(data), "\n") {
				if line == "" {
					continue
				}
				seen[line] = struct{}{}
			}
		}
	}

	lines := make([]string, 0, len(seen))
	for line := range seen {
		lines = append(lines, line)
	}
	sort.Strings(lines)
	return []byte(strings.Join(lines, "\n"))
}

// deleteAllFacts removes every Facts parent's physical files and metadata
// row, regardless of whether the queryengine call succeeded.
func deleteAllFacts(ctx context.Context, store *artifacts.Store, jobID string, parents []domain.ArtifactMetadata) {
	for _, parent := range parents {
		for i := 0; i < parent.NumCallables; i++ {
			_ = store.DeleteIndexed(ctx, domain.KindFacts, jobID, parent.UniqueID, i)
		}
		_ = store.Delete(ctx, domain.KindFacts, jobID, parent.UniqueID)
	}
}
