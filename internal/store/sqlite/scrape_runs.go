package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shelterscout/shelterscout-server/internal/domain"
	"github.com/shelterscout/shelterscout-server/internal/store"
)

// runColumns is the ordered list of columns selected in scrape run queries.
// Must match the scan order in scanScrapeRun.
const runColumns = `id, organization_id, started_at, completed_at, status,
	animals_found, animals_added, animals_updated, rejected,
	data_quality_score, flagged_for_review, error_message`

// scanScrapeRun scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.ScrapeRun.
func scanScrapeRun(scanner interface{ Scan(dest ...any) error }) (*domain.ScrapeRun, error) {
	var r domain.ScrapeRun

	var (
		startedAt   string
		completedAt sql.NullString
		flagged     int
		errorMsg    sql.NullString
	)

	err := scanner.Scan(
		&r.ID,
		&r.OrganizationID,
		&startedAt,
		&completedAt,
		&r.Status,
		&r.AnimalsFound,
		&r.AnimalsAdded,
		&r.AnimalsUpdated,
		&r.Rejected,
		&r.DataQualityScore,
		&flagged,
		&errorMsg,
	)
	if err != nil {
		return nil, err
	}

	r.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return nil, err
	}
	r.CompletedAt, err = parseNullableTime(completedAt)
	if err != nil {
		return nil, err
	}

	r.FlaggedForReview = flagged != 0
	if errorMsg.Valid {
		r.ErrorMessage = errorMsg.String
	}

	return &r, nil
}

// CreateScrapeRun inserts a new run in running state. The row is committed
// immediately so an in-flight pass is visible to observers even if it later
// fails or times out.
func (s *Store) CreateScrapeRun(ctx context.Context, run *domain.ScrapeRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scrape_runs (id, organization_id, started_at, status)
		VALUES (?, ?, ?, ?)`,
		run.ID,
		run.OrganizationID,
		formatTime(run.StartedAt),
		string(run.Status),
	)
	if err != nil {
		return fmt.Errorf("insert scrape run: %w", err)
	}
	return nil
}

// CompleteScrapeRun writes the terminal state of a run: status, counters,
// quality score and optional error. The guard on completed_at makes completed
// runs immutable; a second completion attempt gets store.ErrRunCompleted.
func (s *Store) CompleteScrapeRun(ctx context.Context, run *domain.ScrapeRun) error {
	if run.CompletedAt == nil {
		return fmt.Errorf("complete scrape run %s: no completion time set", run.ID)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE scrape_runs
		SET completed_at = ?, status = ?, animals_found = ?, animals_added = ?,
			animals_updated = ?, rejected = ?, data_quality_score = ?,
			flagged_for_review = ?, error_message = ?
		WHERE id = ? AND completed_at IS NULL`,
		formatTime(*run.CompletedAt),
		string(run.Status),
		run.AnimalsFound,
		run.AnimalsAdded,
		run.AnimalsUpdated,
		run.Rejected,
		run.DataQualityScore,
		boolToInt(run.FlaggedForReview),
		nullString(run.ErrorMessage),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("complete scrape run %s: %w", run.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the run does not exist or it already completed.
		if _, getErr := s.GetScrapeRun(ctx, run.ID); getErr != nil {
			return getErr
		}
		return store.ErrRunCompleted
	}
	return nil
}

// GetScrapeRun retrieves a run by ID.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetScrapeRun(ctx context.Context, id string) (*domain.ScrapeRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM scrape_runs WHERE id = ?`, id)
	run, err := scanScrapeRun(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scrape run %s: %w", id, err)
	}
	return run, nil
}

// ListScrapeRuns returns an organization's runs newest first, optionally
// bounded to those started at or after since. A limit <= 0 means no limit.
func (s *Store) ListScrapeRuns(ctx context.Context, orgID string, since time.Time, limit int) ([]*domain.ScrapeRun, error) {
	query := `SELECT ` + runColumns + ` FROM scrape_runs WHERE organization_id = ?`
	args := []any{orgID}
	if !since.IsZero() {
		query += ` AND started_at >= ?`
		args = append(args, formatTime(since))
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scrape runs for organization %s: %w", orgID, err)
	}
	defer rows.Close()

	var runs []*domain.ScrapeRun
	for rows.Next() {
		run, err := scanScrapeRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scrape run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListFlaggedScrapeRuns returns runs flagged for human review, newest first.
func (s *Store) ListFlaggedScrapeRuns(ctx context.Context, limit int) ([]*domain.ScrapeRun, error) {
	query := `SELECT ` + runColumns + ` FROM scrape_runs
		WHERE flagged_for_review = 1 ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list flagged scrape runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.ScrapeRun
	for rows.Next() {
		run, err := scanScrapeRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scrape run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
