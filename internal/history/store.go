package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes incompatibly.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was written by an incompatible version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

const runColumns = "id, mode, status, input_file, output_dir, source_language, target_language, tts_engine, utterances, modified, output_file, error_message, exit_code, started_at, finished_at"

// Store persists run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
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

	store := &Store{db: db, path: path, now: func() time.Time { return time.Now().UTC() }}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
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
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to start a fresh history)",
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

// Begin records a new running entry and returns it with a fresh id.
func (s *Store) Begin(ctx context.Context, run Run) (Run, error) {
	if run.OutputDir == "" || run.TargetLanguage == "" {
		return Run{}, errors.New("history: output dir and target language are required")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Mode == "" {
		run.Mode = ModeDub
	}
	run.Status = StatusRunning
	run.StartedAt = s.now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (
            id, mode, status, input_file, output_dir, source_language,
            target_language, tts_engine, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Mode,
		run.Status,
		nullableString(run.InputFile),
		run.OutputDir,
		nullableString(run.SourceLanguage),
		run.TargetLanguage,
		nullableString(run.TTSEngine),
		run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Finish records the outcome and stage timings of a run.
func (s *Store) Finish(ctx context.Context, id string, outcome Outcome) error {
	if outcome.Status == "" {
		outcome.Status = StatusCompleted
	}
	finished := s.now().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finish tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE runs
         SET status = ?, source_language = COALESCE(?, source_language), utterances = ?, modified = ?,
             output_file = ?, error_message = ?, exit_code = ?, finished_at = ?
         WHERE id = ?`,
		outcome.Status,
		nullableString(outcome.SourceLanguage),
		outcome.Utterances,
		outcome.Modified,
		nullableString(outcome.OutputFile),
		nullableString(outcome.ErrorMessage),
		outcome.ExitCode,
		finished,
		id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM run_stages WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("clear stages: %w", err)
	}
	for i, stage := range outcome.Stages {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO run_stages (run_id, position, name, duration_ms, max_rss_kb) VALUES (?, ?, ?, ?, ?)",
			id, i, stage.Name, stage.Duration.Milliseconds(), stage.MaxRSSKB,
		); err != nil {
			return fmt.Errorf("insert stage %s: %w", stage.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finish: %w", err)
	}
	return nil
}

// Get returns a run with its stages.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	if run.Stages, err = s.stages(ctx, id); err != nil {
		return Run{}, err
	}
	return run, nil
}

// List returns the most recent runs, newest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Latest returns the newest completed run for an output directory and
// target language.
func (s *Store) Latest(ctx context.Context, outputDir, targetLanguage string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs
         WHERE output_dir = ? AND target_language = ? AND status = ?
         ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		outputDir, targetLanguage, StatusCompleted,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: no completed run for %s (%s)", ErrRunNotFound, outputDir, targetLanguage)
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// MarkAbandoned fails runs left in the running state by a process that
// exited without finishing them.
func (s *Store) MarkAbandoned(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan).Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ?
         WHERE status = ? AND started_at < ?`,
		StatusFailed, "run abandoned", s.now().Format(time.RFC3339Nano), StatusRunning, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned runs: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) stages(ctx context.Context, id string) ([]Stage, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, duration_ms, max_rss_kb FROM run_stages WHERE run_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()
	var out []Stage
	for rows.Next() {
		var (
			stage Stage
			ms    int64
		)
		if err := rows.Scan(&stage.Name, &ms, &stage.MaxRSSKB); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stage.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, stage)
	}
	return out, rows.Err()
}
