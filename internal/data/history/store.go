package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName        = "sqlite"
	maxAttempts       = 5
	defaultProjectKey = "default"

	// Fixed width so that lexical order in sqlite matches time order.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Build is one recorded graph build.
type Build struct {
	BuildID        string        `json:"buildId"`
	ProjectKey     string        `json:"projectKey"`
	GeneratedAt    time.Time     `json:"generated"`
	TargetLanguage string        `json:"targetLanguage"`
	TotalFiles     int           `json:"totalFiles"`
	TotalEdges     int           `json:"totalEdges"`
	CycleCount     int           `json:"cycleCount"`
	Skipped        int           `json:"skipped"`
	Duration       time.Duration `json:"durationNs"`
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// RecordBuild stores b. Recording the same build ID twice updates the row.
func (s *Store) RecordBuild(ctx context.Context, b Build) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(b.BuildID) == "" {
		return fmt.Errorf("build id must not be empty")
	}
	b.ProjectKey = normalizeProjectKey(b.ProjectKey)
	if b.GeneratedAt.IsZero() {
		b.GeneratedAt = time.Now().UTC()
	}

	query := `
INSERT INTO builds (
  build_id, project_key, generated_utc, target_language, total_files, total_edges,
  cycle_count, skipped, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(build_id) DO UPDATE SET
  project_key=excluded.project_key,
  generated_utc=excluded.generated_utc,
  target_language=excluded.target_language,
  total_files=excluded.total_files,
  total_edges=excluded.total_edges,
  cycle_count=excluded.cycle_count,
  skipped=excluded.skipped,
  duration_ms=excluded.duration_ms
`
	return s.withRetry("record build", func() error {
		_, err := s.db.ExecContext(ctx, query,
			b.BuildID,
			b.ProjectKey,
			b.GeneratedAt.UTC().Format(timeLayout),
			b.TargetLanguage,
			b.TotalFiles,
			b.TotalEdges,
			b.CycleCount,
			b.Skipped,
			b.Duration.Milliseconds(),
		)
		return err
	})
}

// RecentBuilds returns up to limit builds for a project, oldest first.
// A non-positive limit returns every build.
func (s *Store) RecentBuilds(ctx context.Context, projectKey string, limit int) ([]Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT build_id, project_key, generated_utc, target_language, total_files, total_edges,
  cycle_count, skipped, duration_ms
FROM builds
WHERE project_key = ?
ORDER BY generated_utc DESC, build_id DESC
`
	args := []any{normalizeProjectKey(projectKey)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("load builds", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	builds := make([]Build, 0)
	for rows.Next() {
		var (
			b          Build
			generated  string
			durationMS int64
		)
		if err := rows.Scan(
			&b.BuildID,
			&b.ProjectKey,
			&generated,
			&b.TargetLanguage,
			&b.TotalFiles,
			&b.TotalEdges,
			&b.CycleCount,
			&b.Skipped,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan build row: %w", err)
		}
		ts, err := time.Parse(timeLayout, generated)
		if err != nil {
			return nil, fmt.Errorf("parse build timestamp %q: %w", generated, err)
		}
		b.GeneratedAt = ts.UTC()
		b.Duration = time.Duration(durationMS) * time.Millisecond
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate build rows: %w", err)
	}

	for i, j := 0, len(builds)-1; i < j; i, j = i+1, j-1 {
		builds[i], builds[j] = builds[j], builds[i]
	}
	return builds, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func normalizeProjectKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return defaultProjectKey
	}
	return key
}

// IsCorruptError reports sqlite failures that indicate a damaged database file.
func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
