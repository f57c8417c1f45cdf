// Package sqlite provides SQLite-backed persistence for the ShelterScout server.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shelterscout/shelterscout-server/internal/domain"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// AnimalIndexer receives animal upserts and deletions for search indexing.
type AnimalIndexer interface {
	IndexAnimal(animal *domain.Animal) error
	DeleteAnimal(animalID string) error
}

type noopIndexer struct{}

func (noopIndexer) IndexAnimal(*domain.Animal) error { return nil }
func (noopIndexer) DeleteAnimal(string) error        { return nil }

// NewNoopIndexer returns an indexer that discards all updates.
func NewNoopIndexer() AnimalIndexer { return noopIndexer{} }

// Store provides SQLite-backed persistence for the ShelterScout server.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	indexer AnimalIndexer
}

// Open creates a new SQLite store at the given path.
// It configures WAL mode, sets pragmas, and runs schema migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	// _txlock=immediate makes every transaction BEGIN IMMEDIATE: the write
	// lock is taken up front, so a reconciliation pass queues behind other
	// writers at start instead of failing a deferred lock upgrade mid-pass.
	db, err := sql.Open("sqlite", path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite allows one writer; keep the pool small.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{
		db:      db,
		logger:  logger,
		indexer: noopIndexer{},
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetIndexer sets the search indexer notified on animal writes.
func (s *Store) SetIndexer(indexer AnimalIndexer) {
	s.indexer = indexer
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx is a transactional view of the store used by the reconciler so that a
// whole pass commits or rolls back as one unit.
type Tx struct {
	tx    *sql.Tx
	store *Store

	// indexed animals are flushed to the search indexer only after commit,
	// so a rolled-back pass leaves the index untouched.
	pendingIndex []*domain.Animal
}

// WithTx runs fn inside a transaction. On error or context cancellation
// everything rolls back.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	tx := &Tx{tx: sqlTx, store: s}

	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", "error", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	// Index outside the transaction; index staleness is tolerable,
	// database inconsistency is not.
	for _, animal := range tx.pendingIndex {
		if err := s.indexer.IndexAnimal(animal); err != nil {
			s.logger.Warn("index animal after commit", "animal_id", animal.ID, "error", err)
		}
	}

	return nil
}

// queryer abstracts *sql.DB and *sql.Tx for shared query helpers.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// parseNullableTime parses an optional time string.
func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// nullString returns a sql.NullString from a string, empty meaning NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullTimeString returns a sql.NullString from a *time.Time.
func nullTimeString(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// boolToInt converts a bool to sqlite's 0/1.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
