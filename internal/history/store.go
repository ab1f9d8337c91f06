package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"docpress/internal/job"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; mismatched databases must be deleted and recreated.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrNotFound indicates no job record exists for the requested id.
var ErrNotFound = errors.New("job not found")

// Store manages job-audit persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path. Schema
// creation is guarded by a file lock so concurrent CLI invocations do not
// race on a fresh database.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to recreate)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Entry is one persisted job record.
type Entry struct {
	ID           string           `json:"job_id"`
	State        job.State        `json:"state"`
	Engine       string           `json:"engine_used"`
	Filename     string           `json:"filename"`
	SizeBytes    int              `json:"size_bytes"`
	Pages        int              `json:"pages"`
	InputHash    string           `json:"input_hash"`
	ContentHash  string           `json:"content_hash"`
	ChecksPassed *int             `json:"checks_passed,omitempty"`
	ChecksTotal  *int             `json:"checks_total,omitempty"`
	Steps        []job.StepRecord `json:"timings"`
	Warnings     []string         `json:"warnings,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Record persists one finished job.
func (s *Store) Record(ctx context.Context, j *job.Job) error {
	stepsJSON, err := json.Marshal(j.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	warningsJSON, err := json.Marshal(j.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	var checksPassed, checksTotal any
	if j.Verification != nil {
		checksPassed = j.Verification.ChecksPassed
		checksTotal = j.Verification.ChecksTotal
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (
            id, state, engine, filename, size_bytes, pages,
            input_hash, content_hash, checks_passed, checks_total,
            steps_json, warnings_json, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID,
		string(j.State),
		j.EngineUsed,
		j.Artifact.Filename,
		j.Artifact.SizeBytes,
		j.Artifact.Pages,
		j.InputHash,
		j.Artifact.ContentHash,
		checksPassed,
		checksTotal,
		string(stepsJSON),
		string(warningsJSON),
		j.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Get returns one job record by id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM jobs WHERE id = ?", id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return entry, err
}

// List returns the most recent job records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		selectColumns+" FROM jobs ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Prune deletes records older than the retention window and returns the
// number removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return res.RowsAffected()
}

const selectColumns = `SELECT id, state, engine, filename, size_bytes, pages,
    input_hash, content_hash, checks_passed, checks_total,
    steps_json, warnings_json, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		entry        Entry
		state        string
		checksPassed sql.NullInt64
		checksTotal  sql.NullInt64
		stepsJSON    string
		warningsJSON string
		createdAt    string
	)
	err := row.Scan(
		&entry.ID, &state, &entry.Engine, &entry.Filename,
		&entry.SizeBytes, &entry.Pages, &entry.InputHash, &entry.ContentHash,
		&checksPassed, &checksTotal, &stepsJSON, &warningsJSON, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	entry.State = job.State(state)
	if checksPassed.Valid {
		v := int(checksPassed.Int64)
		entry.ChecksPassed = &v
	}
	if checksTotal.Valid {
		v := int(checksTotal.Int64)
		entry.ChecksTotal = &v
	}
	if err := json.Unmarshal([]byte(stepsJSON), &entry.Steps); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	if err := json.Unmarshal([]byte(warningsJSON), &entry.Warnings); err != nil {
		return nil, fmt.Errorf("decode warnings: %w", err)
	}
	if entry.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &entry, nil
}
