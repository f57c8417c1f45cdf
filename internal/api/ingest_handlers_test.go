package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitObservations(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootOperator(t)
	org := ts.createOrganization(t, token, "Ingest Shelter")

	run := ts.submitObservations(t, token, org.ID, []map[string]any{
		observationBody("ext-1", "Rex", "Labrador"),
		observationBody("ext-2", "Nata", "Beagle"),
	})

	assert.Equal(t, "success", run.Status)
	assert.Equal(t, 2, run.AnimalsFound)
	assert.Equal(t, 2, run.AnimalsAdded)
	assert.NotNil(t, run.CompletedAt)

	// The animals are immediately visible.
	resp := ts.api.Get("/api/v1/organizations/" + org.ID + "/animals")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListAnimalsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.Animals, 2)
	for _, a := range envelope.Data.Animals {
		assert.Equal(t, "available", a.Status)
		assert.Equal(t, "high", a.AvailabilityConfidence)
	}
}

func TestSubmitObservations_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootOperator(t)
	org := ts.createOrganization(t, token, "Locked Shelter")

	resp := ts.api.Post("/api/v1/organizations/"+org.ID+"/observations",
		map[string]any{"observations": []map[string]any{observationBody("ext-1", "Rex", "Labrador")}},
	)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestSubmitObservations_EmptyBatchFails(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootOperator(t)
	org := ts.createOrganization(t, token, "Empty Shelter")

	ts.submitObservations(t, token, org.ID, []map[string]any{
		observationBody("ext-1", "Rex", "Labrador"),
	})

	// An empty batch records a failed run and leaves the animal untouched.
	run := ts.submitObservations(t, token, org.ID, []map[string]any{})
	assert.Equal(t, "failed", run.Status)

	resp := ts.api.Get("/api/v1/organizations/" + org.ID + "/animals")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListAnimalsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Animals, 1)
	assert.Equal(t, 0, envelope.Data.Animals[0].ConsecutiveScrapesMissing)
}

func TestConfidenceDecayOverRuns(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootOperator(t)
	org := ts.createOrganization(t, token, "Decay Shelter")

	ts.submitObservations(t, token, org.ID, []map[string]any{
		observationBody("ext-1", "Rex", "Labrador"),
		observationBody("ext-2", "Nata", "Beagle"),
	})

	// Rex vanishes for three consecutive scrapes.
	for i := 0; i < 3; i++ {
		ts.submitObservations(t, token, org.ID, []map[string]any{
			observationBody("ext-2", "Nata", "Beagle"),
		})
	}

	resp := ts.api.Get("/api/v1/organizations/" + org.ID + "/animals")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListAnimalsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Animals, 2)

	for _, a := range envelope.Data.Animals {
		switch a.ExternalID {
		case "ext-1":
			assert.Equal(t, "unknown", a.Status)
			assert.Equal(t, "low", a.AvailabilityConfidence)
			assert.Equal(t, 3, a.ConsecutiveScrapesMissing)
		case "ext-2":
			assert.Equal(t, "available", a.Status)
			assert.Equal(t, "high", a.AvailabilityConfidence)
		}
	}
}

func TestRunAuditTrail(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootOperator(t)
	org := ts.createOrganization(t, token, "Audit Shelter")

	run := ts.submitObservations(t, token, org.ID, []map[string]any{
		observationBody("ext-1", "Rex", "Labrador"),
	})

	resp := ts.api.Get("/api/v1/runs/"+run.ID, "Authorization: "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[RunResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, run.ID, envelope.Data.ID)

	resp = ts.api.Get("/api/v1/organizations/"+org.ID+"/runs", "Authorization: "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var listEnvelope testEnvelope[ListRunsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listEnvelope))
	assert.Len(t, listEnvelope.Data.Runs, 1)
}

func TestSearchEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootOperator(t)
	org := ts.createOrganization(t, token, "Search Shelter")

	ts.submitObservations(t, token, org.ID, []map[string]any{
		observationBody("ext-1", "Biscuit", "Golden Retriever"),
		observationBody("ext-2", "Shadow", "Border Collie"),
	})

	resp := ts.api.Get("/api/v1/search?q=biscuit")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[SearchResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Hits, 1)
	assert.Equal(t, "Biscuit", envelope.Data.Hits[0].Name)
}

func TestOverrideFlow(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootOperator(t)
	org := ts.createOrganization(t, token, "Override Shelter")

	ts.submitObservations(t, token, org.ID, []map[string]any{
		observationBody("ext-1", "Rex", "Labrador"),
	})

	resp := ts.api.Get("/api/v1/organizations/" + org.ID + "/animals")
	require.Equal(t, http.StatusOK, resp.Code)
	var listEnvelope testEnvelope[ListAnimalsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listEnvelope))
	require.Len(t, listEnvelope.Data.Animals, 1)
	animalID := listEnvelope.Data.Animals[0].ID

	// Mark it unknown by hand.
	resp = ts.api.Post("/api/v1/animals/"+animalID+"/override",
		"Authorization: "+token,
		map[string]any{
			"organization_id": org.ID,
			"correction":      "listing page shows a pending hold",
			"new_status":      "unknown",
		},
	)
	require.Equal(t, http.StatusOK, resp.Code, "Override failed: %s", resp.Body.String())

	var animalEnvelope testEnvelope[AnimalResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &animalEnvelope))
	assert.Equal(t, "unknown", animalEnvelope.Data.Status)

	// The pin holds across a scrape that still lists the animal.
	ts.submitObservations(t, token, org.ID, []map[string]any{
		observationBody("ext-1", "Rex", "Labrador"),
	})

	resp = ts.api.Get("/api/v1/animals/" + animalID)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &animalEnvelope))
	assert.Equal(t, "unknown", animalEnvelope.Data.Status)

	// Clearing the pin lets the next scrape restore availability.
	resp = ts.api.Delete("/api/v1/animals/"+animalID+"/override", "Authorization: "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	ts.submitObservations(t, token, org.ID, []map[string]any{
		observationBody("ext-1", "Rex", "Labrador"),
	})

	resp = ts.api.Get("/api/v1/animals/" + animalID)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &animalEnvelope))
	assert.Equal(t, "available", animalEnvelope.Data.Status)
}

func TestOverride_AdoptedIsTerminal(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootOperator(t)
	org := ts.createOrganization(t, token, "Terminal Shelter")

	ts.submitObservations(t, token, org.ID, []map[string]any{
		observationBody("ext-1", "Rex", "Labrador"),
	})

	resp := ts.api.Get("/api/v1/organizations/" + org.ID + "/animals")
	require.Equal(t, http.StatusOK, resp.Code)
	var listEnvelope testEnvelope[ListAnimalsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listEnvelope))
	require.Len(t, listEnvelope.Data.Animals, 1)
	animalID := listEnvelope.Data.Animals[0].ID

	resp = ts.api.Post("/api/v1/animals/"+animalID+"/override",
		"Authorization: "+token,
		map[string]any{
			"organization_id": org.ID,
			"correction":      "confirmed adopted by phone",
			"new_status":      "adopted",
		},
	)
	require.Equal(t, http.StatusOK, resp.Code, "Override failed: %s", resp.Body.String())

	// Even after the correction is cleared, a scrape never resurrects an
	// adopted animal on its own.
	resp = ts.api.Delete("/api/v1/animals/"+animalID+"/override", "Authorization: "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	ts.submitObservations(t, token, org.ID, []map[string]any{
		observationBody("ext-1", "Rex", "Labrador"),
	})

	resp = ts.api.Get("/api/v1/animals/" + animalID)
	require.Equal(t, http.StatusOK, resp.Code)
	var animalEnvelope testEnvelope[AnimalResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &animalEnvelope))
	assert.Equal(t, "adopted", animalEnvelope.Data.Status)
}

func TestOverride_CrossTenantRejected(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootOperator(t)
	orgA := ts.createOrganization(t, token, "Shelter A")
	orgB := ts.createOrganization(t, token, "Shelter B")

	ts.submitObservations(t, token, orgA.ID, []map[string]any{
		observationBody("ext-1", "Rex", "Labrador"),
	})

	resp := ts.api.Get("/api/v1/organizations/" + orgA.ID + "/animals")
	require.Equal(t, http.StatusOK, resp.Code)
	var listEnvelope testEnvelope[ListAnimalsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listEnvelope))
	require.Len(t, listEnvelope.Data.Animals, 1)
	animalID := listEnvelope.Data.Animals[0].ID

	resp = ts.api.Post("/api/v1/animals/"+animalID+"/override",
		"Authorization: "+token,
		map[string]any{
			"organization_id": orgB.ID,
			"correction":      "wrong tenant",
			"new_status":      "adopted",
		},
	)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	var errEnvelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errEnvelope))
	assert.Equal(t, "FORBIDDEN", errEnvelope.Code)
	assert.False(t, errEnvelope.Success)
}

func TestOverride_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/animals/ani_missing/override",
		map[string]any{
			"organization_id": "org_missing",
			"correction":      "no token",
			"new_status":      "adopted",
		},
	)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestFlaggedRuns(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootOperator(t)
	org := ts.createOrganization(t, token, "Flagged Shelter")

	// Observations with no breed drag the quality score under the floor.
	run := ts.submitObservations(t, token, org.ID, []map[string]any{
		{"external_id": "ext-1", "attributes": map[string]any{"name": "Rex"}},
		{"external_id": "ext-2", "attributes": map[string]any{"name": "Nata"}},
	})
	require.True(t, run.FlaggedForReview)

	resp := ts.api.Get("/api/v1/runs/flagged", "Authorization: "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListRunsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Runs, 1)
	assert.Equal(t, run.ID, envelope.Data.Runs[0].ID)
}
