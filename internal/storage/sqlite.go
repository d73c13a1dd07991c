// Package storage provides data persistence for crawl jobs.
// It implements the crawler.ProjectStore interface on SQLite, keeping
// job lifecycle rows, per-page results, and accumulated errors.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nishajoths/Data-Wizards/internal/crawler"
	"github.com/nishajoths/Data-Wizards/internal/page"
	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// SQLiteStore implements crawler.ProjectStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database and initializes the
// schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents lock conflicts between job workers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateJob inserts a new job row.
func (s *SQLiteStore) CreateJob(snap crawler.JobSnapshot) error {
	keywords, err := marshalJSON(snap.Spec.Keywords)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO jobs (
			id, seed_url, domain, max_depth, max_pages, keywords,
			include_meta, card_selector, pagination_selector, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.Spec.SeedURL, snap.Domain, snap.Spec.MaxDepth, snap.Spec.MaxPages,
		keywords, snap.Spec.IncludeMeta, snap.Spec.CardSelector, snap.Spec.PaginationSelector,
		string(snap.Status))
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// UpdateJobStatus writes the job's current status, counters, and
// timestamps.
func (s *SQLiteStore) UpdateJobStatus(snap crawler.JobSnapshot) error {
	robots, err := marshalJSON(snap.Robots)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		UPDATE jobs SET
			status = ?, pages_found = ?, pages_scraped = ?, items_found = ?,
			error_message = ?, robots_report = ?, started_at = ?, ended_at = ?
		WHERE id = ?
	`, string(snap.Status), snap.PagesFound, snap.PagesScraped, snap.ItemsFound,
		snap.ErrorMessage, robots, nullTime(snap.StartedAt), nullTime(snap.EndedAt), snap.ID)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", snap.ID, err)
	}
	return nil
}

// AppendPageResult upserts one page outcome keyed on (job_id, url).
func (s *SQLiteStore) AppendPageResult(jobID string, outcome *crawler.PageOutcome) error {
	matched, err := marshalJSON(outcome.MatchedKeywords)
	if err != nil {
		return err
	}
	contexts, err := marshalJSON(outcome.Contexts)
	if err != nil {
		return err
	}
	record, err := marshalJSON(outcome.Record)
	if err != nil {
		return err
	}
	cards, err := marshalJSON(outcome.CardRecords)
	if err != nil {
		return err
	}
	children, err := marshalJSON(outcome.ChildLinks)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO page_results (
			job_id, url, depth, source_url, status_code,
			ttfb_ms, duration_ms, size_bytes, retained,
			matched_keywords, contexts, record, card_records, child_links, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id, url) DO UPDATE SET
			depth = excluded.depth,
			source_url = excluded.source_url,
			status_code = excluded.status_code,
			ttfb_ms = excluded.ttfb_ms,
			duration_ms = excluded.duration_ms,
			size_bytes = excluded.size_bytes,
			retained = excluded.retained,
			matched_keywords = excluded.matched_keywords,
			contexts = excluded.contexts,
			record = excluded.record,
			card_records = excluded.card_records,
			child_links = excluded.child_links,
			fetched_at = excluded.fetched_at
	`, jobID, outcome.URL, outcome.Depth, outcome.SourceURL, outcome.Status,
		outcome.Metrics.TTFB.Milliseconds(), outcome.Metrics.Duration.Milliseconds(),
		outcome.Metrics.Size, outcome.Retained,
		matched, contexts, record, cards, children, nullTime(outcome.FetchedAt))
	if err != nil {
		return fmt.Errorf("failed to save page result for %s: %w", outcome.URL, err)
	}
	return nil
}

// AppendJobError records one page-level error.
func (s *SQLiteStore) AppendJobError(jobID string, jobErr crawler.JobError) error {
	_, err := s.db.Exec(`
		INSERT INTO job_errors (job_id, url, error_type, error_message, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`, jobID, jobErr.URL, jobErr.Kind, jobErr.Message, jobErr.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to save job error: %w", err)
	}
	return nil
}

// GetJob rebuilds a job snapshot, including its accumulated errors.
func (s *SQLiteStore) GetJob(jobID string) (*crawler.JobSnapshot, error) {
	var (
		snap      crawler.JobSnapshot
		status    string
		keywords  sql.NullString
		errMsg    sql.NullString
		robots    sql.NullString
		startedAt sql.NullTime
		endedAt   sql.NullTime
	)

	err := s.db.QueryRow(`
		SELECT id, seed_url, domain, max_depth, max_pages, keywords,
			include_meta, card_selector, pagination_selector, status,
			pages_found, pages_scraped, items_found, error_message,
			robots_report, started_at, ended_at
		FROM jobs WHERE id = ?
	`, jobID).Scan(
		&snap.ID, &snap.Spec.SeedURL, &snap.Domain, &snap.Spec.MaxDepth, &snap.Spec.MaxPages,
		&keywords, &snap.Spec.IncludeMeta, &snap.Spec.CardSelector, &snap.Spec.PaginationSelector,
		&status, &snap.PagesFound, &snap.PagesScraped, &snap.ItemsFound, &errMsg,
		&robots, &startedAt, &endedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	snap.Status = crawler.JobStatus(status)
	snap.ErrorMessage = errMsg.String
	if startedAt.Valid {
		snap.StartedAt = startedAt.Time
	}
	if endedAt.Valid {
		snap.EndedAt = endedAt.Time
	}
	if err := unmarshalJSON(keywords, &snap.Spec.Keywords); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(robots, &snap.Robots); err != nil {
		return nil, err
	}

	errs, err := s.loadJobErrors(jobID)
	if err != nil {
		return nil, err
	}
	snap.Errors = errs

	return &snap, nil
}

// GetPageResults returns a job's page outcomes in fetch order.
func (s *SQLiteStore) GetPageResults(jobID string) ([]*crawler.PageOutcome, error) {
	rows, err := s.db.Query(`
		SELECT url, depth, source_url, status_code, ttfb_ms, duration_ms,
			size_bytes, retained, matched_keywords, contexts, record,
			card_records, child_links, fetched_at
		FROM page_results WHERE job_id = ? ORDER BY id ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query page results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var outcomes []*crawler.PageOutcome
	for rows.Next() {
		var (
			outcome    crawler.PageOutcome
			sourceURL  sql.NullString
			ttfbMS     int64
			durationMS int64
			matched    sql.NullString
			contexts   sql.NullString
			record     sql.NullString
			cards      sql.NullString
			children   sql.NullString
			fetchedAt  sql.NullTime
		)
		if err := rows.Scan(&outcome.URL, &outcome.Depth, &sourceURL, &outcome.Status,
			&ttfbMS, &durationMS, &outcome.Metrics.Size, &outcome.Retained,
			&matched, &contexts, &record, &cards, &children, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page result: %w", err)
		}

		outcome.SourceURL = sourceURL.String
		outcome.Metrics.TTFB = time.Duration(ttfbMS) * time.Millisecond
		outcome.Metrics.Duration = time.Duration(durationMS) * time.Millisecond
		outcome.Metrics.Status = outcome.Status
		if fetchedAt.Valid {
			outcome.FetchedAt = fetchedAt.Time
		}
		if err := unmarshalJSON(matched, &outcome.MatchedKeywords); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(contexts, &outcome.Contexts); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(record, &outcome.Record); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(cards, &outcome.CardRecords); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(children, &outcome.ChildLinks); err != nil {
			return nil, err
		}

		outcomes = append(outcomes, &outcome)
	}
	return outcomes, rows.Err()
}

// GetRetainedRecords returns the extracted records of a job's retained
// pages, page records first, then card records, in fetch order.
func (s *SQLiteStore) GetRetainedRecords(jobID string) ([]*page.Record, error) {
	outcomes, err := s.GetPageResults(jobID)
	if err != nil {
		return nil, err
	}

	var records []*page.Record
	for _, outcome := range outcomes {
		if !outcome.Retained {
			continue
		}
		if outcome.Record != nil {
			records = append(records, outcome.Record)
		}
		records = append(records, outcome.CardRecords...)
	}
	return records, nil
}

// ListJobs returns the most recent jobs, newest first.
func (s *SQLiteStore) ListJobs(limit int) ([]*crawler.JobSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT id FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	snaps := make([]*crawler.JobSnapshot, 0, len(ids))
	for _, id := range ids {
		snap, err := s.GetJob(id)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func (s *SQLiteStore) loadJobErrors(jobID string) ([]crawler.JobError, error) {
	rows, err := s.db.Query(`
		SELECT url, error_type, error_message, occurred_at
		FROM job_errors WHERE job_id = ? ORDER BY id ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query job errors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var errs []crawler.JobError
	for rows.Next() {
		var (
			jobErr     crawler.JobError
			occurredAt sql.NullTime
		)
		if err := rows.Scan(&jobErr.URL, &jobErr.Kind, &jobErr.Message, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan job error: %w", err)
		}
		if occurredAt.Valid {
			jobErr.OccurredAt = occurredAt.Time
		}
		errs = append(errs, jobErr)
	}
	return errs, rows.Err()
}

// marshalJSON renders v as JSON, mapping empty values to NULL.
func marshalJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	text := string(data)
	if text == "null" || text == "[]" || text == "{}" {
		return nil, nil
	}
	return text, nil
}

func unmarshalJSON(src sql.NullString, dst any) error {
	if !src.Valid || src.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(src.String), dst); err != nil {
		return fmt.Errorf("failed to unmarshal stored value: %w", err)
	}
	return nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
