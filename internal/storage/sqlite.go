package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database with methods for questionnaire answers,
// twins, writing samples, books, chapters, and the job queue.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "liquidbooks.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection for tests and maintenance tasks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate applies any embedded SQL migrations that haven't run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// --- Questionnaire answers ---

// SetAnswers upserts one instrument's answers for a user in a single
// transaction. Existing answers for other question ids are left in place.
func (s *Store) SetAnswers(userID, instrument string, answers map[string]int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning answers transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for qid, value := range answers {
		if _, err := tx.Exec(`
			INSERT INTO answers (user_id, instrument, question_id, value, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(user_id, instrument, question_id)
			DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			userID, instrument, qid, value, now,
		); err != nil {
			return fmt.Errorf("upserting answer %s/%s: %w", instrument, qid, err)
		}
	}

	return tx.Commit()
}

// GetAnswers returns one instrument's answers for a user. An unanswered
// instrument yields an empty, non-nil map.
func (s *Store) GetAnswers(userID, instrument string) (map[string]int, error) {
	rows, err := s.db.Query(
		"SELECT question_id, value FROM answers WHERE user_id = ? AND instrument = ?",
		userID, instrument,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var qid string
		var value int
		if err := rows.Scan(&qid, &value); err != nil {
			return nil, err
		}
		result[qid] = value
	}
	return result, rows.Err()
}

// GetAllAnswers returns every stored answer for a user, grouped by instrument.
func (s *Store) GetAllAnswers(userID string) (map[string]map[string]int, error) {
	rows, err := s.db.Query(
		"SELECT instrument, question_id, value FROM answers WHERE user_id = ?",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]map[string]int)
	for rows.Next() {
		var instrument, qid string
		var value int
		if err := rows.Scan(&instrument, &qid, &value); err != nil {
			return nil, err
		}
		if result[instrument] == nil {
			result[instrument] = make(map[string]int)
		}
		result[instrument][qid] = value
	}
	return result, rows.Err()
}

// --- Twins ---

func (s *Store) SaveTwin(t TwinRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO twins (id, user_id, name, dossier_json, tone_json, styles_json, completion, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Name, t.DossierJSON, t.ToneJSON, t.StylesJSON, t.Completion,
		t.CreatedAt.UTC().Format(time.RFC3339), t.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

const twinColumns = "id, user_id, name, dossier_json, tone_json, styles_json, completion, created_at, updated_at"

func (s *Store) scanTwin(row *sql.Row) (TwinRecord, error) {
	var t TwinRecord
	var createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.DossierJSON, &t.ToneJSON, &t.StylesJSON, &t.Completion, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return TwinRecord{}, ErrNotFound
	}
	if err != nil {
		return TwinRecord{}, err
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return TwinRecord{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return TwinRecord{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return t, nil
}

// LatestTwin returns the most recently created twin for a user.
func (s *Store) LatestTwin(userID string) (TwinRecord, error) {
	row := s.db.QueryRow(
		"SELECT "+twinColumns+" FROM twins WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1",
		userID,
	)
	return s.scanTwin(row)
}

func (s *Store) GetTwin(id string) (TwinRecord, error) {
	row := s.db.QueryRow("SELECT "+twinColumns+" FROM twins WHERE id = ?", id)
	return s.scanTwin(row)
}

// --- Writing samples ---

func (s *Store) SaveWritingSample(ws WritingSample) error {
	_, err := s.db.Exec(`
		INSERT INTO writing_samples (id, user_id, title, content, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ws.ID, ws.UserID, ws.Title, ws.Content, ws.Source,
		ws.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) ListWritingSamples(userID string, limit int) ([]WritingSample, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, title, content, source, created_at
		FROM writing_samples WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []WritingSample
	for rows.Next() {
		var ws WritingSample
		var createdAt string
		if err := rows.Scan(&ws.ID, &ws.UserID, &ws.Title, &ws.Content, &ws.Source, &createdAt); err != nil {
			return nil, err
		}
		if ws.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		results = append(results, ws)
	}
	return results, rows.Err()
}

// --- Books ---

func (s *Store) CreateBook(b Book) error {
	_, err := s.db.Exec(`
		INSERT INTO books (id, user_id, title, description, genre, style_id, status, repo_name, site_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Title, b.Description, b.Genre, b.StyleID, b.Status, b.RepoName, b.SiteURL,
		b.CreatedAt.UTC().Format(time.RFC3339), b.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

const bookColumns = "id, user_id, title, description, genre, style_id, status, repo_name, site_url, created_at, updated_at"

func scanBook(scan func(dest ...any) error) (Book, error) {
	var b Book
	var createdAt, updatedAt string
	err := scan(&b.ID, &b.UserID, &b.Title, &b.Description, &b.Genre, &b.StyleID, &b.Status, &b.RepoName, &b.SiteURL, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return Book{}, ErrNotFound
	}
	if err != nil {
		return Book{}, err
	}
	if b.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Book{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if b.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Book{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return b, nil
}

func (s *Store) GetBook(id string) (Book, error) {
	row := s.db.QueryRow("SELECT "+bookColumns+" FROM books WHERE id = ?", id)
	return scanBook(row.Scan)
}

func (s *Store) ListBooks(userID string, limit, offset int) ([]Book, error) {
	rows, err := s.db.Query(
		"SELECT "+bookColumns+" FROM books WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?",
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Book
	for rows.Next() {
		b, err := scanBook(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, b)
	}
	return results, rows.Err()
}

func (s *Store) UpdateBookStatus(id, status string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec("UPDATE books SET status = ?, updated_at = ? WHERE id = ?", status, now, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// SetBookPublication records where a published book lives.
func (s *Store) SetBookPublication(id, repoName, siteURL string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		"UPDATE books SET repo_name = ?, site_url = ?, status = ?, updated_at = ? WHERE id = ?",
		repoName, siteURL, BookStatusPublished, now, id,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// --- Chapters ---

func (s *Store) CreateChapter(c Chapter) error {
	_, err := s.db.Exec(`
		INSERT INTO chapters (id, book_id, position, title, summary, content, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.BookID, c.Position, c.Title, c.Summary, c.Content, c.Status,
		c.CreatedAt.UTC().Format(time.RFC3339), c.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

const chapterColumns = "id, book_id, position, title, summary, content, status, created_at, updated_at"

func scanChapter(scan func(dest ...any) error) (Chapter, error) {
	var c Chapter
	var createdAt, updatedAt string
	err := scan(&c.ID, &c.BookID, &c.Position, &c.Title, &c.Summary, &c.Content, &c.Status, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return Chapter{}, ErrNotFound
	}
	if err != nil {
		return Chapter{}, err
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Chapter{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Chapter{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return c, nil
}

func (s *Store) GetChapter(id string) (Chapter, error) {
	row := s.db.QueryRow("SELECT "+chapterColumns+" FROM chapters WHERE id = ?", id)
	return scanChapter(row.Scan)
}

// ListChapters returns a book's chapters in reading order.
func (s *Store) ListChapters(bookID string) ([]Chapter, error) {
	rows, err := s.db.Query(
		"SELECT "+chapterColumns+" FROM chapters WHERE book_id = ? ORDER BY position ASC",
		bookID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Chapter
	for rows.Next() {
		c, err := scanChapter(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// UpdateChapterDraft stores generated content and moves the chapter to the
// given status.
func (s *Store) UpdateChapterDraft(id, content, status string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		"UPDATE chapters SET content = ?, status = ?, updated_at = ? WHERE id = ?",
		content, status, now, id,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *Store) UpdateChapterStatus(id, status string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		"UPDATE chapters SET status = ?, updated_at = ? WHERE id = ?",
		status, now, id,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Jobs ---

func (s *Store) EnqueueJob(job Job) error {
	now := time.Now().UTC().Format(time.RFC3339)
	runAfter := now
	if !job.RunAfter.IsZero() {
		runAfter = job.RunAfter.UTC().Format(time.RFC3339)
	}
	maxAttempts := job.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 3
	}
	_, err := s.db.Exec(`
		INSERT INTO jobs (id, type, payload_json, status, attempts, max_attempts, run_after, created_at, updated_at)
		VALUES (?, ?, ?, 'pending', 0, ?, ?, ?, ?)`,
		job.ID, job.Type, job.PayloadJSON, maxAttempts, runAfter, now, now,
	)
	return err
}

// ClaimNextJob atomically claims the oldest runnable pending job of the given
// types, marking it running. Returns nil when no job is due.
func (s *Store) ClaimNextJob(types []string) (*Job, error) {
	if len(types) == 0 {
		return nil, nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	placeholders := strings.Repeat(",?", len(types)-1)
	query := `SELECT id, type, payload_json, status, attempts, max_attempts, run_after, created_at, updated_at, last_error
		FROM jobs
		WHERE status = 'pending' AND run_after <= ? AND type IN (?` + placeholders + `)
		ORDER BY run_after ASC, created_at ASC
		LIMIT 1`

	args := make([]any, 0, len(types)+1)
	args = append(args, now)
	for _, t := range types {
		args = append(args, t)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning claim transaction: %w", err)
	}

	var j Job
	var runAfter, createdAt, updatedAt string
	var lastError sql.NullString
	err = tx.QueryRow(query, args...).Scan(
		&j.ID, &j.Type, &j.PayloadJSON, &j.Status, &j.Attempts, &j.MaxAttempts,
		&runAfter, &createdAt, &updatedAt, &lastError,
	)
	if err == sql.ErrNoRows {
		tx.Rollback()
		return nil, nil
	}
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("selecting next job: %w", err)
	}

	res, err := tx.Exec(`UPDATE jobs SET status = 'running', updated_at = ? WHERE id = ? AND status = 'pending'`, now, j.ID)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("updating job status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("checking updated job rows: %w", err)
	}
	if n != 1 {
		tx.Rollback()
		return nil, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim: %w", err)
	}

	j.Status = "running"
	j.LastError = lastError.String
	if j.RunAfter, err = time.Parse(time.RFC3339, runAfter); err != nil {
		return nil, fmt.Errorf("parsing run_after for job %s: %w", j.ID, err)
	}
	if j.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at for job %s: %w", j.ID, err)
	}
	if j.UpdatedAt, err = time.Parse(time.RFC3339, now); err != nil {
		return nil, fmt.Errorf("parsing updated_at for job %s: %w", j.ID, err)
	}
	return &j, nil
}

func (s *Store) CompleteJob(id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`UPDATE jobs SET status = 'completed', updated_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// FailJob records a failure, rescheduling with exponential backoff until the
// attempt budget is spent.
func (s *Store) FailJob(id string, errMsg string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning fail transaction: %w", err)
	}
	defer tx.Rollback()

	var attempts, maxAttempts int
	err = tx.QueryRow(`SELECT attempts, max_attempts FROM jobs WHERE id = ?`, id).Scan(&attempts, &maxAttempts)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	attempts++

	if attempts >= maxAttempts {
		_, err = tx.Exec(`UPDATE jobs SET status = 'failed', attempts = ?, last_error = ?, updated_at = ? WHERE id = ?`,
			attempts, errMsg, now.Format(time.RFC3339), id)
	} else {
		backoff := time.Duration(math.Pow(2, float64(attempts))) * time.Second
		runAfter := now.Add(backoff)
		_, err = tx.Exec(`UPDATE jobs SET status = 'pending', attempts = ?, last_error = ?, run_after = ?, updated_at = ? WHERE id = ?`,
			attempts, errMsg, runAfter.Format(time.RFC3339), now.Format(time.RFC3339), id)
	}

	if err != nil {
		return err
	}

	return tx.Commit()
}
