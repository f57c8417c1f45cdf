package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelterscout/shelterscout-server/internal/auth"
	"github.com/shelterscout/shelterscout-server/internal/config"
	"github.com/shelterscout/shelterscout-server/internal/domain"
	"github.com/shelterscout/shelterscout-server/internal/logger"
	"github.com/shelterscout/shelterscout-server/internal/quota"
	"github.com/shelterscout/shelterscout-server/internal/ratelimit"
	"github.com/shelterscout/shelterscout-server/internal/reconcile"
	"github.com/shelterscout/shelterscout-server/internal/search"
	"github.com/shelterscout/shelterscout-server/internal/store/sqlite"
)

// testEnv bundles every service wired against temporary storage.
type testEnv struct {
	store      *sqlite.Store
	index      *search.Index
	reconciler *reconcile.Reconciler
	quota      *quota.Store
	logger     *slog.Logger
	orgs       *OrganizationService
	animals    *AnimalService
	over       *OverrideService
	runs       *RunService
	ingest     *IngestService
	auth       *AuthService
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()

	tmpDir := t.TempDir()
	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appLog := logger.New(logger.Config{Writer: io.Discard, Format: "json"})

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), slogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	idx, err := search.New(search.Options{
		DataPath: filepath.Join(tmpDir, "search"),
		Logger:   slogger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	st.SetIndexer(idx)

	quotaStore, err := quota.Open(filepath.Join(tmpDir, "quota"), slogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = quotaStore.Close() })

	reconCfg := config.ReconcileConfig{
		MediumThreshold:   1,
		DemotionThreshold: 3,
		PinWindow:         0,
		PassTimeout:       time.Minute,
		QualityFloor:      0.5,
	}
	rec, err := reconcile.New(st, appLog, reconCfg)
	require.NoError(t, err)

	ingestCfg := config.IngestConfig{
		RatePerSecond: 100,
		Burst:         100,
		DailyQuota:    0,
	}
	limiter := ratelimit.New(ingestCfg.RatePerSecond, ingestCfg.Burst)

	tokenService, err := auth.NewTokenService(
		"0101010101010101010101010101010101010101010101010101010101010101",
		15*time.Minute,
	)
	require.NoError(t, err)

	return &testEnv{
		store:      st,
		index:      idx,
		reconciler: rec,
		quota:      quotaStore,
		logger:     slogger,
		orgs:       NewOrganizationService(st, slogger),
		animals:    NewAnimalService(st, idx, slogger),
		over:       NewOverrideService(st, slogger),
		runs:       NewRunService(st, slogger),
		ingest:     NewIngestService(rec, limiter, quotaStore, ingestCfg, slogger),
		auth:       NewAuthService(st, tokenService, slogger),
	}
}

func (e *testEnv) createOrg(t *testing.T, name string) *domain.Organization {
	t.Helper()
	org, err := e.orgs.CreateOrganization(context.Background(), CreateOrganizationRequest{
		Name:           name,
		WebsiteURL:     "https://example.org",
		ServiceRegions: []string{"north"},
	})
	require.NoError(t, err)
	return org
}

func (e *testEnv) submitBatch(t *testing.T, orgID string, obs []domain.Observation) *domain.ScrapeRun {
	t.Helper()
	run, err := e.ingest.Submit(context.Background(), orgID, obs)
	require.NoError(t, err)
	return run
}

func obs(externalID, name, breed string) domain.Observation {
	return domain.Observation{
		ExternalID: externalID,
		Attributes: map[string]any{"name": name, "breed": breed},
	}
}

