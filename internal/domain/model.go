package domain

import "time"

// JobStatus is the per-job pipeline state. Values advance monotonically
// along the order declared below; there are no backward transitions.
type JobStatus string

const (
	StatusWaitingForNativeParsing      JobStatus = "WaitingForNativeParsing"
	StatusWaitingForDhscannerParsing   JobStatus = "WaitingForDhscannerParsing"
	StatusWaitingForCodegen            JobStatus = "WaitingForCodegen"
	StatusWaitingForKbgen              JobStatus = "WaitingForKbgen"
	StatusWaitingForQueryengine        JobStatus = "WaitingForQueryengine"
	StatusWaitingForResultsGeneration  JobStatus = "WaitingForResultsGeneration"
	StatusFinished                     JobStatus = "Finished"
)

// PipelineOrder lists every status in advancement order. It is used both to
// validate monotonicity in tests and to compute "next" transitions.
var PipelineOrder = []JobStatus{
	StatusWaitingForNativeParsing,
	StatusWaitingForDhscannerParsing,
	StatusWaitingForCodegen,
	StatusWaitingForKbgen,
	StatusWaitingForQueryengine,
	StatusWaitingForResultsGeneration,
	StatusFinished,
}

// ArtifactKind tags the seven artifact kinds of the data model.
type ArtifactKind string

const (
	KindSourceFile    ArtifactKind = "SourceFile"
	KindNativeAst     ArtifactKind = "NativeAst"
	KindDhscannerAst  ArtifactKind = "DhscannerAst"
	KindCallables     ArtifactKind = "Callables"
	KindFacts         ArtifactKind = "Facts"
	KindResults       ArtifactKind = "Results"
	KindOutput        ArtifactKind = "Output"
)

// ArtifactMetadata is the index row persisted alongside every saved
// artifact's bytes: {job_id, original_filename, language} plus the
// storage-unique id that is its primary key.
type ArtifactMetadata struct {
	UniqueID         string
	JobID            string
	OriginalFilename string
	Language         Language
	Kind             ArtifactKind
	// NumCallables is populated for Callables and Facts parents; it
	// records the count of physical indexed files written.
	NumCallables int
	// GoModuleName is the optional X-Module-Name-Resolver-Go.mod hint,
	// carried only on SourceFile and propagated to NativeAst.
	GoModuleName string
	CreatedAt    time.Time
}

// PipelineEvent is an observability record published whenever a worker
// advances a job's status. It is not part of the pipeline's
// correctness-critical state — the status coordinator remains the single
// source of truth regardless of whether any event is ever delivered.
type PipelineEvent struct {
	JobID      string    `json:"job_id"`
	FromStatus JobStatus `json:"from_status"`
	ToStatus   JobStatus `json:"to_status"`
	Stage      string    `json:"stage"`
	At         time.Time `json:"at"`
}

// NextStatus returns the status immediately following cur in PipelineOrder,
// and ok=false if cur is terminal or unrecognized.
func NextStatus(cur JobStatus) (JobStatus, bool) {
	for i, s := range PipelineOrder {
		if s == cur && i+1 < len(PipelineOrder) {
			return PipelineOrder[i+1], true
		}
	}
	return "", false
}
