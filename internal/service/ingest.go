package service

import (
	"context"
	"log/slog"

	"github.com/shelterscout/shelterscout-server/internal/config"
	"github.com/shelterscout/shelterscout-server/internal/domain"
	domainerrors "github.com/shelterscout/shelterscout-server/internal/errors"
	"github.com/shelterscout/shelterscout-server/internal/quota"
	"github.com/shelterscout/shelterscout-server/internal/ratelimit"
	"github.com/shelterscout/shelterscout-server/internal/reconcile"
)

// IngestService is the front door for observation batches. It enforces
// per-organization rate limits and daily quotas before handing the batch to
// the reconciler.
type IngestService struct {
	reconciler *reconcile.Reconciler
	limiter    *ratelimit.KeyedRateLimiter
	quota      *quota.Store
	cfg        config.IngestConfig
	logger     *slog.Logger
}

// NewIngestService creates a new ingest service.
func NewIngestService(rec *reconcile.Reconciler, limiter *ratelimit.KeyedRateLimiter, q *quota.Store, cfg config.IngestConfig, logger *slog.Logger) *IngestService {
	return &IngestService{
		reconciler: rec,
		limiter:    limiter,
		quota:      q,
		cfg:        cfg,
		logger:     logger,
	}
}

// Submit runs one reconciliation pass for the organization's observations.
// Rate-limit and quota rejections happen before any scrape run is recorded,
// so a throttled submission leaves no trace in the audit trail.
func (s *IngestService) Submit(ctx context.Context, orgID string, observations []domain.Observation) (*domain.ScrapeRun, error) {
	if !s.limiter.Allow(orgID) {
		s.logger.Warn("ingest rate limited", "org_id", orgID)
		return nil, domainerrors.RateLimited("too many submissions, slow down")
	}

	allowed, err := s.quota.Allow(orgID, int64(s.cfg.DailyQuota))
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.logger.Warn("ingest daily quota exhausted", "org_id", orgID, "quota", s.cfg.DailyQuota)
		return nil, domainerrors.RateLimitedf("daily submission quota of %d reached", s.cfg.DailyQuota)
	}

	return s.reconciler.Pass(ctx, orgID, observations)
}

// QuotaUsed reports how many submissions the organization has made today.
func (s *IngestService) QuotaUsed(orgID string) (int64, error) {
	return s.quota.Used(orgID)
}
