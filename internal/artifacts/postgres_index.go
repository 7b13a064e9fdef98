package artifacts

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

// tableFor routes an artifact kind to its metadata table. The tables mirror
// the original storage model: a dedicated table per kind rather than one
// polymorphic table, so a kind's columns never carry NULLs for attributes
// that don't apply to it. The one exception is Results and Output, which
// share the results table.
var tableFor = map[domain.ArtifactKind]string{
	domain.KindSourceFile:   "files",
	domain.KindNativeAst:    "native_asts",
	domain.KindDhscannerAst: "dhscanner_asts",
	domain.KindCallables:    "callables",
	domain.KindFacts:        "knowledge_base_facts",
	domain.KindResults:      "results",
	domain.KindOutput:       "results",
}

// PostgresIndex implements MetadataIndex over a pgx pool.
type PostgresIndex struct {
	pool *pgxpool.Pool
}

// NewPostgresIndex wraps an already-connected pool. The pool's lifecycle
// (creation, ping, close) is owned by the caller, matching how the rest of
// this codebase shares one pool across several indexes.
func NewPostgresIndex(pool *pgxpool.Pool) *PostgresIndex {
	return &PostgresIndex{pool: pool}
}

func (p *PostgresIndex) Put(ctx context.Context, m domain.ArtifactMetadata) error {
	table, ok := tableFor[m.Kind]
	if !ok {
		return fmt.Errorf("artifacts: unknown kind %q", m.Kind)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	_, err := p.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (
			unique_id, job_id, original_filename, language,
			num_callables, go_module_name, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (unique_id) DO UPDATE SET
			num_callables = EXCLUDED.num_callables
	`, table), m.UniqueID, m.JobID, m.OriginalFilename, m.Language,
		m.NumCallables, m.GoModuleName, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("artifacts: insert into %s: %w", table, err)
	}
	return nil
}

func (p *PostgresIndex) Get(ctx context.Context, kind domain.ArtifactKind, uniqueID string) (domain.ArtifactMetadata, bool) {
	table, ok := tableFor[kind]
	if !ok {
		return domain.ArtifactMetadata{}, false
	}

	var m domain.ArtifactMetadata
	err := p.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT unique_id, job_id, original_filename, language,
		       num_callables, go_module_name, created_at
		FROM %s WHERE unique_id = $1
	`, table), uniqueID).Scan(
		&m.UniqueID, &m.JobID, &m.OriginalFilename, &m.Language,
		&m.NumCallables, &m.GoModuleName, &m.CreatedAt,
	)
	if err != nil {
		return domain.ArtifactMetadata{}, false
	}
	m.Kind = kind
	return m, true
}

func (p *PostgresIndex) Delete(ctx context.Context, kind domain.ArtifactKind, uniqueID string) error {
	table, ok := tableFor[kind]
	if !ok {
		return fmt.Errorf("artifacts: unknown kind %q", kind)
	}
	_, err := p.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE unique_id = $1`, table), uniqueID)
	if err != nil {
		return fmt.Errorf("artifacts: delete from %s: %w", table, err)
	}
	return nil
}

func (p *PostgresIndex) ListByJob(ctx context.Context, kind domain.ArtifactKind, jobID string) ([]domain.ArtifactMetadata, error) {
	table, ok := tableFor[kind]
	if !ok {
		return nil, fmt.Errorf("artifacts: unknown kind %q", kind)
	}

	rows, err := p.pool.Query(ctx, fmt.Sprintf(`
		SELECT unique_id, job_id, original_filename, language,
		       num_callables, go_module_name, created_at
		FROM %s WHERE job_id = $1
		ORDER BY created_at ASC
	`, table), jobID)
	if err != nil {
		return nil, fmt.Errorf("artifacts: list %s: %w", table, err)
	}
	defer rows.Close()

	var out []domain.ArtifactMetadata
	for rows.Next() {
		var m domain.ArtifactMetadata
		if err := rows.Scan(
			&m.UniqueID, &m.JobID, &m.OriginalFilename, &m.Language,
			&m.NumCallables, &m.GoModuleName, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("artifacts: scan %s row: %w", table, err)
		}
		m.Kind = kind
		out = append(out, m)
	}
	return out, rows.Err()
}

// isNotFound reports whether err is pgx's no-rows sentinel, matching the
// convention used throughout this codebase's Postgres-backed stores.
func isNotFound(err error) bool {
	return err == pgx.ErrNoRows
}
