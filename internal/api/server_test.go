package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelterscout/shelterscout-server/internal/auth"
	"github.com/shelterscout/shelterscout-server/internal/config"
	"github.com/shelterscout/shelterscout-server/internal/logger"
	"github.com/shelterscout/shelterscout-server/internal/quota"
	"github.com/shelterscout/shelterscout-server/internal/ratelimit"
	"github.com/shelterscout/shelterscout-server/internal/reconcile"
	"github.com/shelterscout/shelterscout-server/internal/search"
	"github.com/shelterscout/shelterscout-server/internal/service"
	"github.com/shelterscout/shelterscout-server/internal/store/sqlite"
)

// testEnvelope mirrors the wire envelope for decoding in tests.
type testEnvelope[T any] struct {
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Success bool   `json:"success"`
}

// testServer wraps the API server for endpoint testing.
type testServer struct {
	*Server
	api humatest.TestAPI
}

// setupTestServer creates a fully wired server over temporary storage.
func setupTestServer(t *testing.T) *testServer {
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

	rec, err := reconcile.New(st, appLog, config.ReconcileConfig{
		MediumThreshold:   1,
		DemotionThreshold: 3,
		PassTimeout:       time.Minute,
		QualityFloor:      0.5,
	})
	require.NoError(t, err)

	ingestCfg := config.IngestConfig{RatePerSecond: 100, Burst: 100, DailyQuota: 0}

	tokenService, err := auth.NewTokenService(
		"0202020202020202020202020202020202020202020202020202020202020202",
		15*time.Minute,
	)
	require.NoError(t, err)

	services := &Services{
		Organization: service.NewOrganizationService(st, slogger),
		Animal:       service.NewAnimalService(st, idx, slogger),
		Override:     service.NewOverrideService(st, slogger),
		Run:          service.NewRunService(st, slogger),
		Ingest:       service.NewIngestService(rec, ratelimit.New(ingestCfg.RatePerSecond, ingestCfg.Burst), quotaStore, ingestCfg, slogger),
		Auth:         service.NewAuthService(st, tokenService, slogger),
	}

	s := NewServer(st, idx, services, slogger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
	}
}

// setupRootOperator runs first-time setup and returns a Bearer header value.
func (ts *testServer) setupRootOperator(t *testing.T) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/setup", map[string]any{
		"email":    "admin@shelterscout.test",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Setup failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)

	return "Bearer " + envelope.Data.AccessToken
}

// createOrganization registers an organization via the API.
func (ts *testServer) createOrganization(t *testing.T, token, name string) OrganizationResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/organizations",
		"Authorization: "+token,
		map[string]any{"name": name, "website_url": "https://example.org"},
	)
	require.Equal(t, http.StatusOK, resp.Code, "Create organization failed: %s", resp.Body.String())

	var envelope testEnvelope[OrganizationResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

// submitObservations pushes a batch through the ingest endpoint.
func (ts *testServer) submitObservations(t *testing.T, token, orgID string, observations []map[string]any) RunResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/organizations/"+orgID+"/observations",
		"Authorization: "+token,
		map[string]any{"observations": observations},
	)
	require.Equal(t, http.StatusOK, resp.Code, "Submit failed: %s", resp.Body.String())

	var envelope testEnvelope[RunResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

func observationBody(externalID, name, breed string) map[string]any {
	return map[string]any{
		"external_id": externalID,
		"attributes":  map[string]any{"name": name, "breed": breed},
	}
}

func TestServer_HealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[HealthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "healthy", envelope.Data.Status)
	assert.Equal(t, "healthy", envelope.Data.Components["database"].Status)
	assert.Equal(t, "healthy", envelope.Data.Components["search"].Status)
}
