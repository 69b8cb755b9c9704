// Package history persists completed search runs to a SQLite database
// so past runs can be listed, inspected, exported and reported on.
package history

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/searchex/internal/filelock"
	"github.com/harrison/searchex/internal/models"
)

// ErrNotFound reports a run id with no recorded run.
var ErrNotFound = errors.New("run not found")

// exportLockTimeout bounds how long an export waits on a lock held by
// another process writing the same file.
const exportLockTimeout = 5 * time.Second

// RunRecord summarizes one completed search run.
type RunRecord struct {
	ID            int64
	RunID         string
	Root          string
	Patterns      []string
	CaseSensitive bool
	UseRegex      bool
	WholeWord     bool
	MatchNames    bool
	IncludeHidden bool
	Impl          string
	FilesTotal    int64
	FilesDone     int64
	FilesMatched  int64
	TotalMatches  int64
	Problems      int64
	Cancelled     bool
	Duration      time.Duration
	StartedAt     time.Time
}

// FileRecord is one file outcome within a run. Only files that matched
// or failed are recorded; clean zero-hit files live in the run counters.
type FileRecord struct {
	ID         int64
	RunID      string
	Path       string
	Matches    int
	MatchLines []int
	IsBinary   bool
	Size       int64
	Error      string
}

// BuildRunRecord assembles the run row for a finished run from its
// request, final progress snapshot and consumer-side counters.
func BuildRunRecord(runID string, req models.SearchRequest, progress models.RunProgress,
	matched, totalMatches int, impl string, startedAt time.Time, duration time.Duration) *RunRecord {
	return &RunRecord{
		RunID:         runID,
		Root:          req.Root,
		Patterns:      req.Patterns,
		CaseSensitive: req.CaseSensitive,
		UseRegex:      req.UseRegex,
		WholeWord:     req.WholeWord,
		MatchNames:    req.MatchNames,
		IncludeHidden: req.IncludeHidden,
		Impl:          impl,
		FilesTotal:    progress.FilesTotal,
		FilesDone:     progress.FilesDone,
		FilesMatched:  int64(matched),
		TotalMatches:  int64(totalMatches),
		Problems:      progress.Problems,
		Cancelled:     progress.Cancelled,
		Duration:      duration,
		StartedAt:     startedAt,
	}
}

// BuildFileRecord converts a scan result into its history row.
func BuildFileRecord(runID string, res *models.FileResult) *FileRecord {
	return &FileRecord{
		RunID:      runID,
		Path:       res.Path,
		Matches:    res.MatchCount(),
		MatchLines: res.UniqueLines(),
		IsBinary:   res.IsBinary,
		Size:       res.Size,
	}
}

// BuildProblemRecord converts a scan problem into its history row.
func BuildProblemRecord(runID string, p models.Problem) *FileRecord {
	return &FileRecord{
		RunID: runID,
		Path:  p.Path,
		Error: p.Message,
	}
}

// Store manages the SQLite database holding run history
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new Store instance and initializes the database
func NewStore(dbPath string) (*Store, error) {
	// Handle in-memory database
	if dbPath == ":memory:" {
		return openAndInitStore(dbPath)
	}

	// Ensure parent directory exists for file-based databases
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	return openAndInitStore(dbPath)
}

func openAndInitStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure SQLite for concurrent access. busy_timeout goes first so
	// the remaining pragmas already wait on locks; the retry covers
	// "database is locked" errors during concurrent initialization of
	// the same file.
	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000", // 64MB cache
	}

	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return store, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, sqlStr string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(sqlStr)
		if err == nil {
			return nil
		}

		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		delay := baseDelay * time.Duration(1<<attempt)
		time.Sleep(delay)
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// tableExists checks if a table exists in the database
func (s *Store) tableExists(tableName string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`
	err := s.db.QueryRow(query, tableName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check table existence: %w", err)
	}
	return count > 0, nil
}

// RecordRun inserts a run and its file rows in one transaction. The
// run's database id is written back into rec.
func (s *Store) RecordRun(ctx context.Context, rec *RunRecord, files []*FileRecord) error {
	patternsJSON := "[]"
	if len(rec.Patterns) > 0 {
		data, err := json.Marshal(rec.Patterns)
		if err != nil {
			return fmt.Errorf("marshal patterns: %w", err)
		}
		patternsJSON = string(data)
	}

	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	query := `INSERT INTO runs
		(run_id, root, patterns, case_sensitive, use_regex, whole_word, match_names, include_hidden, impl,
		 files_total, files_done, files_matched, total_matches, problems, cancelled, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := tx.ExecContext(ctx, query,
		rec.RunID,
		rec.Root,
		patternsJSON,
		rec.CaseSensitive,
		rec.UseRegex,
		rec.WholeWord,
		rec.MatchNames,
		rec.IncludeHidden,
		rec.Impl,
		rec.FilesTotal,
		rec.FilesDone,
		rec.FilesMatched,
		rec.TotalMatches,
		rec.Problems,
		rec.Cancelled,
		rec.Duration.Milliseconds(),
		rec.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	rec.ID = id

	if len(files) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_files
			(run_id, path, matches, match_lines, is_binary, size_bytes, error)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare file insert: %w", err)
		}
		defer stmt.Close()

		for _, f := range files {
			linesJSON := "[]"
			if len(f.MatchLines) > 0 {
				data, err := json.Marshal(f.MatchLines)
				if err != nil {
					return fmt.Errorf("marshal match lines: %w", err)
				}
				linesJSON = string(data)
			}
			if _, err := stmt.ExecContext(ctx, rec.RunID, f.Path, f.Matches, linesJSON, f.IsBinary, f.Size, f.Error); err != nil {
				return fmt.Errorf("insert run file %s: %w", f.Path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}

	return nil
}

const runColumns = `id, run_id, root, patterns, case_sensitive, use_regex, whole_word, match_names, include_hidden,
	COALESCE(impl, ''), files_total, files_done, files_matched, total_matches, problems, cancelled, duration_ms, started_at`

func scanRun(scan func(dest ...any) error) (*RunRecord, error) {
	rec := &RunRecord{}
	var patterns sql.NullString
	var durationMS int64
	err := scan(
		&rec.ID,
		&rec.RunID,
		&rec.Root,
		&patterns,
		&rec.CaseSensitive,
		&rec.UseRegex,
		&rec.WholeWord,
		&rec.MatchNames,
		&rec.IncludeHidden,
		&rec.Impl,
		&rec.FilesTotal,
		&rec.FilesDone,
		&rec.FilesMatched,
		&rec.TotalMatches,
		&rec.Problems,
		&rec.Cancelled,
		&durationMS,
		&rec.StartedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Duration = time.Duration(durationMS) * time.Millisecond
	if patterns.Valid && patterns.String != "" {
		if err := json.Unmarshal([]byte(patterns.String), &rec.Patterns); err != nil {
			return nil, fmt.Errorf("unmarshal patterns: %w", err)
		}
	}
	return rec, nil
}

// ListRuns retrieves the most recent runs, newest first. A limit of 0
// or less means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

// GetRun retrieves a single run by its run id.
func (s *Store) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE run_id = ?`
	rec, err := scanRun(s.db.QueryRowContext(ctx, query, runID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, fmt.Errorf("query run: %w", err)
	}
	return rec, nil
}

// ErrAmbiguous reports a run id prefix matching more than one run.
var ErrAmbiguous = errors.New("run id prefix is ambiguous")

// FindRun resolves a run by its full id or by a unique prefix, so
// callers can use the shortened ids shown in listings.
func (s *Store) FindRun(ctx context.Context, idOrPrefix string) (*RunRecord, error) {
	rec, err := s.GetRun(ctx, idOrPrefix)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	query := `SELECT ` + runColumns + ` FROM runs
		WHERE substr(run_id, 1, length(?)) = ?
		ORDER BY id DESC LIMIT 2`
	rows, err := s.db.QueryContext(ctx, query, idOrPrefix, idOrPrefix)
	if err != nil {
		return nil, fmt.Errorf("query run prefix: %w", err)
	}
	defer rows.Close()

	var matches []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		matches = append(matches, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, idOrPrefix)
	}
}

// FileDetails retrieves the file rows of a run, most matches first. A
// limit of 0 or less means no limit.
func (s *Store) FileDetails(ctx context.Context, runID string, limit int) ([]*FileRecord, error) {
	query := `SELECT id, run_id, path, matches, match_lines, is_binary, size_bytes, error
		FROM run_files
		WHERE run_id = ?
		ORDER BY matches DESC, path ASC`
	args := []any{runID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query run files: %w", err)
	}
	defer rows.Close()

	var files []*FileRecord
	for rows.Next() {
		f := &FileRecord{}
		var matchLines, errText sql.NullString
		if err := rows.Scan(&f.ID, &f.RunID, &f.Path, &f.Matches, &matchLines, &f.IsBinary, &f.Size, &errText); err != nil {
			return nil, fmt.Errorf("scan run file row: %w", err)
		}
		if matchLines.Valid && matchLines.String != "" {
			if err := json.Unmarshal([]byte(matchLines.String), &f.MatchLines); err != nil {
				return nil, fmt.Errorf("unmarshal match lines: %w", err)
			}
		}
		if errText.Valid {
			f.Error = errText.String
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run file rows: %w", err)
	}

	return files, nil
}

// PruneRuns deletes all but the newest keep runs along with their file
// rows. It returns the number of runs removed.
func (s *Store) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	result, err := tx.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count pruned runs: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM run_files WHERE run_id NOT IN (SELECT run_id FROM runs)`); err != nil {
		return 0, fmt.Errorf("prune run files: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}

	return pruned, nil
}

// ExportCSV writes the file rows of a run to outPath as CSV. The write
// is atomic and guarded by a lock so concurrent exports to the same
// path cannot interleave.
func (s *Store) ExportCSV(ctx context.Context, runID, outPath string) error {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return err
	}
	files, err := s.FileDetails(ctx, runID, 0)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"path", "matches", "match_lines", "is_binary", "size_bytes", "error"})
	for _, f := range files {
		lines := make([]string, len(f.MatchLines))
		for i, ln := range f.MatchLines {
			lines[i] = strconv.Itoa(ln)
		}
		w.Write([]string{
			f.Path,
			strconv.Itoa(f.Matches),
			strings.Join(lines, ";"),
			strconv.FormatBool(f.IsBinary),
			strconv.FormatInt(f.Size, 10),
			f.Error,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}

	lockPath := outPath + ".lock"
	lock := filelock.NewFileLock(lockPath)
	if err := lock.LockWithTimeout(exportLockTimeout); err != nil {
		return err
	}
	defer func() {
		lock.Unlock()
		os.Remove(lockPath)
	}()

	return filelock.AtomicWrite(outPath, buf.Bytes())
}
