package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	recordColumns    = "id, kind, status, source, artifact, detail, error_message, created_at, finished_at"
)

// Store persists job records in SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or connects to the ledger database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
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

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Start records a running job.
func (s *Store) Start(ctx context.Context, id string, kind Kind, source string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("job id required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, kind, status, source, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(kind), string(StatusRunning), nullableString(source), formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Complete marks a job completed with its artifact and a free-form detail.
func (s *Store) Complete(ctx context.Context, id, artifact, detail string) error {
	return s.finish(ctx, id, StatusCompleted, artifact, detail, "")
}

// Fail marks a job failed.
func (s *Store) Fail(ctx context.Context, id, message string) error {
	return s.finish(ctx, id, StatusFailed, "", "", message)
}

func (s *Store) finish(ctx context.Context, id string, status Status, artifact, detail, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, artifact = ?, detail = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		string(status), nullableString(artifact), nullableString(detail), nullableString(message), formatTime(s.now()), id,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update job %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// Get fetches a job by id, returning nil when it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM jobs WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return rec, nil
}

// List returns the newest jobs first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Record, error) {
	limit := filter.Limit
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}

	query := `SELECT ` + recordColumns + ` FROM jobs`
	args := make([]any, 0, len(filter.Kinds)+1)
	if len(filter.Kinds) > 0 {
		placeholders := make([]string, len(filter.Kinds))
		for i, kind := range filter.Kinds {
			placeholders[i] = "?"
			args = append(args, string(kind))
		}
		query += ` WHERE kind IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Prune deletes finished jobs created before the cutoff. Running jobs are kept.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE created_at < ? AND status != ?`,
		formatTime(before), string(StatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return res.RowsAffected()
}

// Counts returns the number of jobs per status.
func (s *Store) Counts(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()
	out := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[Status(status)] = count
	}
	return out, rows.Err()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		rec         Record
		kind        string
		status      string
		source      sql.NullString
		artifact    sql.NullString
		detail      sql.NullString
		message     sql.NullString
		createdRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(&rec.ID, &kind, &status, &source, &artifact, &detail, &message, &createdRaw, &finishedRaw); err != nil {
		return nil, err
	}
	rec.Kind = Kind(kind)
	rec.Status = Status(status)
	rec.Source = source.String
	rec.Artifact = artifact.String
	rec.Detail = detail.String
	rec.ErrorMessage = message.String
	rec.CreatedAt = parseTime(createdRaw)
	if finishedRaw.Valid && finishedRaw.String != "" {
		finished := parseTime(finishedRaw.String)
		rec.FinishedAt = &finished
	}
	return &rec, nil
}

// formatTime uses a fixed-width layout so stored timestamps sort as text.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
