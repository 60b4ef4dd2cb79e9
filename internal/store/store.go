// Package store is the sqlite-backed translation memory. Segments are
// cached per language pair so re-running a file (or translating a
// series with recurring lines) skips the backend for text it has seen
// before. It also records one job row per processed file so past runs
// can be inspected.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS segment_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		service_used TEXT,
		usage_count INTEGER DEFAULT 1,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, source_lang, target_lang)
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		input_file TEXT NOT NULL,
		output_file TEXT NOT NULL,
		format TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		segments INTEGER DEFAULT 0,
		translated INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		cached INTEGER DEFAULT 0,
		status TEXT DEFAULT 'running',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		finished_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_segment_lookup ON segment_memory(source_text, source_lang, target_lang);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Lookup returns the cached translation for a segment, if present.
// Hits bump the usage counter.
func (s *Store) Lookup(ctx context.Context, sourceText, sourceLang, targetLang string) (string, bool, error) {
	var translated string

	err := s.db.QueryRowContext(ctx,
		`SELECT translated_text FROM segment_memory WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		normalizeText(sourceText), sourceLang, targetLang).Scan(&translated)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE segment_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		time.Now(), normalizeText(sourceText), sourceLang, targetLang)

	return translated, true, err
}

// Save records a translated segment, replacing any previous entry for
// the same text and language pair.
func (s *Store) Save(ctx context.Context, sourceText, sourceLang, targetLang, translatedText, serviceUsed string) error {
	id := fmt.Sprintf("seg_%d", time.Now().UnixNano())
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO segment_memory (id, source_text, source_lang, target_lang, translated_text, service_used, usage_count, last_used, created_at) VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		id, normalizeText(sourceText), sourceLang, targetLang, translatedText, serviceUsed, time.Now(), time.Now())
	return err
}

// CreateJob opens a job row for one file run and returns its id.
func (s *Store) CreateJob(ctx context.Context, inputFile, outputFile, formatName, sourceLang, targetLang string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, input_file, output_file, format, source_lang, target_lang) VALUES (?, ?, ?, ?, ?, ?)`,
		id, inputFile, outputFile, formatName, sourceLang, targetLang)
	if err != nil {
		return "", err
	}
	return id, nil
}

// FinishJob closes a job row with its final counts and status.
func (s *Store) FinishJob(ctx context.Context, id string, segments, translated, failed, cached int, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET segments = ?, translated = ?, failed = ?, cached = ?, status = ?, finished_at = ? WHERE id = ?`,
		segments, translated, failed, cached, status, time.Now(), id)
	return err
}

// JobEntry is a row from the jobs table.
type JobEntry struct {
	ID         string
	InputFile  string
	OutputFile string
	Format     string
	SourceLang string
	TargetLang string
	Segments   int
	Translated int
	Failed     int
	Cached     int
	Status     string
	CreatedAt  time.Time
}

// ListJobs returns the most recent job rows, newest first.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]JobEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input_file, output_file, format, source_lang, target_lang, segments, translated, failed, cached, status, created_at
		 FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []JobEntry
	for rows.Next() {
		var j JobEntry
		if err := rows.Scan(&j.ID, &j.InputFile, &j.OutputFile, &j.Format, &j.SourceLang, &j.TargetLang,
			&j.Segments, &j.Translated, &j.Failed, &j.Cached, &j.Status, &j.CreatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// ClearMemory removes all cached segments and returns how many were
// deleted.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM segment_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText applies NFC normalization so that visually identical
// strings with different code point sequences share one cache entry.
func normalizeText(text string) string {
	return norm.NFC.String(text)
}
