package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shelterscout/shelterscout-server/internal/domain"
	domainerrors "github.com/shelterscout/shelterscout-server/internal/errors"
	"github.com/shelterscout/shelterscout-server/internal/store"
	"github.com/shelterscout/shelterscout-server/internal/store/sqlite"
)

// RunService exposes the scrape run audit trail.
type RunService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewRunService creates a new run service.
func NewRunService(st *sqlite.Store, logger *slog.Logger) *RunService {
	return &RunService{store: st, logger: logger}
}

// GetRun retrieves a single scrape run by ID.
func (s *RunService) GetRun(ctx context.Context, runID string) (*domain.ScrapeRun, error) {
	run, err := s.store.GetScrapeRun(ctx, runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("scrape run not found")
		}
		return nil, err
	}
	return run, nil
}

// ListRuns returns an organization's scrape runs, newest first. A zero since
// means no lower bound; a non-positive limit returns everything.
func (s *RunService) ListRuns(ctx context.Context, orgID string, since time.Time, limit int) ([]*domain.ScrapeRun, error) {
	if _, err := s.store.GetOrganization(ctx, orgID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("organization not found")
		}
		return nil, err
	}
	return s.store.ListScrapeRuns(ctx, orgID, since, limit)
}

// ListFlaggedRuns returns recent runs flagged for quality review across all
// organizations.
func (s *RunService) ListFlaggedRuns(ctx context.Context, limit int) ([]*domain.ScrapeRun, error) {
	return s.store.ListFlaggedScrapeRuns(ctx, limit)
}
