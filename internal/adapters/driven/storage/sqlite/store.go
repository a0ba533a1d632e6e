package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IngestLedger = (*Store)(nil)

// Store is a SQLite-backed ingestion ledger.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.askdocs/data/ledger.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".askdocs", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "ledger.db")

	// WAL lets CLI reads proceed while an index run writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies every numbered .up.sql file newer than the recorded version.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		version, formatTime(time.Now())); err != nil {
		return err
	}
	return tx.Commit()
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// ==================== Runs ====================

// SaveRun stores or updates a run.
func (s *Store) SaveRun(ctx context.Context, run *domain.IngestRun) error {
	failures := run.Failures
	if failures == nil {
		failures = []domain.FailedDocument{}
	}
	failuresJSON, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("marshalling failures: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (id, kind, status, started_at, finished_at,
			chunks_indexed, documents_processed, failures, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			finished_at = excluded.finished_at,
			chunks_indexed = excluded.chunks_indexed,
			documents_processed = excluded.documents_processed,
			failures = excluded.failures,
			error = excluded.error
	`, run.ID, string(run.Kind), string(run.Status), formatTime(run.StartedAt), formatTime(run.FinishedAt),
		run.ChunksIndexed, run.DocumentsProcessed, string(failuresJSON), run.Error)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

const runColumns = `id, kind, status, started_at, finished_at,
	chunks_indexed, documents_processed, failures, error`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.IngestRun, error) {
	var (
		run                       domain.IngestRun
		kind, status              string
		started, finished, failed string
	)
	if err := row.Scan(&run.ID, &kind, &status, &started, &finished,
		&run.ChunksIndexed, &run.DocumentsProcessed, &failed, &run.Error); err != nil {
		return nil, err
	}
	run.Kind = domain.RunKind(kind)
	run.Status = domain.RunStatus(status)

	var err error
	if run.StartedAt, err = parseTime(started); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return nil, fmt.Errorf("parsing finished_at: %w", err)
	}
	if err := json.Unmarshal([]byte(failed), &run.Failures); err != nil {
		return nil, fmt.Errorf("unmarshalling failures: %w", err)
	}
	if len(run.Failures) == 0 {
		run.Failures = nil
	}
	return &run, nil
}

// LastRun returns the most recently started run.
func (s *Store) LastRun(ctx context.Context) (*domain.IngestRun, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM ingest_runs ORDER BY started_at DESC, rowid DESC LIMIT 1")
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.IngestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM ingest_runs ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.IngestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ==================== Indexed Documents ====================

// MarkIndexed upserts indexed documents in one transaction.
func (s *Store) MarkIndexed(ctx context.Context, docs []domain.IndexedDocument) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO indexed_documents (document_id, name, modified_time, chunks, run_id, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			name = excluded.name,
			modified_time = excluded.modified_time,
			chunks = excluded.chunks,
			run_id = excluded.run_id,
			indexed_at = excluded.indexed_at
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx, d.ID, d.Name, d.ModifiedTime, d.Chunks, d.RunID, formatTime(d.IndexedAt)); err != nil {
			return fmt.Errorf("saving indexed document %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

// IndexedDocuments returns every indexed document keyed by ID.
func (s *Store) IndexedDocuments(ctx context.Context) (map[string]domain.IndexedDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, name, modified_time, chunks, run_id, indexed_at
		FROM indexed_documents
	`)
	if err != nil {
		return nil, fmt.Errorf("querying indexed documents: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.IndexedDocument)
	for rows.Next() {
		var (
			d       domain.IndexedDocument
			indexed string
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.ModifiedTime, &d.Chunks, &d.RunID, &indexed); err != nil {
			return nil, fmt.Errorf("scanning indexed document: %w", err)
		}
		if d.IndexedAt, err = parseTime(indexed); err != nil {
			return nil, fmt.Errorf("parsing indexed_at: %w", err)
		}
		out[d.ID] = d
	}
	return out, rows.Err()
}

// ClearDocuments forgets every indexed document.
func (s *Store) ClearDocuments(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM indexed_documents"); err != nil {
		return fmt.Errorf("clearing indexed documents: %w", err)
	}
	return nil
}
