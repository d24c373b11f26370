// Package sqlite persists audio files, processing jobs and subtitles in a
// single-writer sqlite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"

	"github.com/torisu/jimaku/internal/domain"
	"github.com/torisu/jimaku/internal/port"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db *sql.DB
}

var hookOnce sync.Once

func registerHook() {
	hookOnce.Do(func() {
		sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, dsn string) error {
			pragmas := []string{
				"PRAGMA journal_mode = WAL",
				"PRAGMA busy_timeout = 5000",
				"PRAGMA synchronous = NORMAL",
				"PRAGMA foreign_keys = ON",
			}
			for _, p := range pragmas {
				if _, err := conn.ExecContext(context.Background(), p, nil); err != nil {
					return fmt.Errorf("execute %s: %w", p, err)
				}
			}
			return nil
		})
	})
}

func NewStore(dataDir string) (*Store, error) {
	registerHook()

	dbPath := filepath.Join(dataDir, "jimaku.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection for SQLite (WAL allows concurrent reads but only one writer)
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateAudioFile(a *domain.AudioFile) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO audio_files (id, filename, original_name, duration, status, error_message, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Filename, a.OriginalName, a.Duration, string(a.Status), a.ErrorMessage,
		a.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert audio file: %w", err)
	}
	return nil
}

func (s *Store) GetAudioFile(id string) (*domain.AudioFile, error) {
	row := s.db.QueryRow(
		`SELECT id, filename, original_name, duration, status, error_message, created_at
         FROM audio_files WHERE id = ?`, id)
	return scanAudioFile(row)
}

func (s *Store) UpdateAudioFileStatus(id string, status domain.AudioStatus, errMsg string) error {
	res, err := s.db.Exec(
		`UPDATE audio_files SET status = ?, error_message = ? WHERE id = ?`,
		string(status), errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("update audio status: %w", err)
	}
	return requireRow(res)
}

func (s *Store) UpdateAudioFileDuration(id string, seconds float64) error {
	res, err := s.db.Exec(`UPDATE audio_files SET duration = ? WHERE id = ?`, seconds, id)
	if err != nil {
		return fmt.Errorf("update audio duration: %w", err)
	}
	return requireRow(res)
}

func (s *Store) CreateSubtitle(sub *domain.Subtitle) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO subtitles (audio_file_id, start_ms, end_ms, source_text, target_text, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		sub.AudioFileID, sub.StartMS, sub.EndMS, sub.SourceText, sub.TargetText,
		sub.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert subtitle: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	sub.ID = id
	return nil
}

func (s *Store) ListSubtitlesByAudioFile(audioFileID string) ([]domain.Subtitle, error) {
	rows, err := s.db.Query(
		`SELECT id, audio_file_id, start_ms, end_ms, source_text, target_text, created_at
         FROM subtitles WHERE audio_file_id = ? ORDER BY start_ms, id`, audioFileID)
	if err != nil {
		return nil, fmt.Errorf("list subtitles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Subtitle
	for rows.Next() {
		var sub domain.Subtitle
		var createdAt string
		if err := rows.Scan(&sub.ID, &sub.AudioFileID, &sub.StartMS, &sub.EndMS,
			&sub.SourceText, &sub.TargetText, &createdAt); err != nil {
			return nil, fmt.Errorf("scan subtitle: %w", err)
		}
		sub.CreatedAt = parseTime(createdAt)
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *Store) CreateProcessingJob(j *domain.ProcessingJob) error {
	_, err := s.db.Exec(
		`INSERT INTO processing_jobs (id, audio_file_id, stage, progress, status, error_message, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.AudioFileID, string(j.Stage), j.Progress, string(j.Status), j.ErrorMessage,
		j.CreatedAt.UTC().Format(time.RFC3339Nano), j.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (s *Store) GetProcessingJob(id string) (*domain.ProcessingJob, error) {
	row := s.db.QueryRow(
		`SELECT id, audio_file_id, stage, progress, status, error_message, created_at, updated_at
         FROM processing_jobs WHERE id = ?`, id)
	return scanJob(row)
}

func (s *Store) UpdateProcessingJob(j *domain.ProcessingJob) error {
	j.UpdatedAt = time.Now()
	res, err := s.db.Exec(
		`UPDATE processing_jobs SET stage = ?, progress = ?, status = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		string(j.Stage), j.Progress, string(j.Status), j.ErrorMessage,
		j.UpdatedAt.UTC().Format(time.RFC3339Nano), j.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return requireRow(res)
}

func (s *Store) ListActiveProcessingJobs() ([]*domain.ProcessingJob, error) {
	rows, err := s.db.Query(
		`SELECT id, audio_file_id, stage, progress, status, error_message, created_at, updated_at
         FROM processing_jobs WHERE status IN (?, ?) ORDER BY created_at`,
		string(domain.JobStatusPending), string(domain.JobStatusProcessing))
	if err != nil {
		return nil, fmt.Errorf("list active jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.ProcessingJob
	for rows.Next() {
		job, err := scanJobRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAudioFile(row rowScanner) (*domain.AudioFile, error) {
	var a domain.AudioFile
	var status, createdAt string
	err := row.Scan(&a.ID, &a.Filename, &a.OriginalName, &a.Duration, &status, &a.ErrorMessage, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan audio file: %w", err)
	}
	a.Status = domain.AudioStatus(status)
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}

func scanJob(row rowScanner) (*domain.ProcessingJob, error) {
	job, err := scanJobFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return job, err
}

func scanJobRows(rows *sql.Rows) (*domain.ProcessingJob, error) {
	return scanJobFrom(rows)
}

func scanJobFrom(row rowScanner) (*domain.ProcessingJob, error) {
	var j domain.ProcessingJob
	var stage, status, createdAt, updatedAt string
	err := row.Scan(&j.ID, &j.AudioFileID, &stage, &j.Progress, &status, &j.ErrorMessage, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	j.Stage = domain.JobStage(stage)
	j.Status = domain.JobStatus(status)
	j.CreatedAt = parseTime(createdAt)
	j.UpdatedAt = parseTime(updatedAt)
	return &j, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t.Local()
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ port.Store = (*Store)(nil)
