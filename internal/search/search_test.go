package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelterscout/shelterscout-server/internal/domain"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func indexedAnimal(id, orgID, name, breed string, status domain.Status) *domain.Animal {
	now := time.Now()
	return &domain.Animal{
		Entity:                 domain.Entity{ID: id, CreatedAt: now, UpdatedAt: now},
		OrganizationID:         orgID,
		ExternalID:             "ext-" + id,
		Name:                   name,
		Breed:                  breed,
		Status:                 status,
		AvailabilityConfidence: domain.ConfidenceHigh,
	}
}

func TestIndexAndSearchByName(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexAnimal(indexedAnimal("animal-1", "org-1", "Nata", "border collie", domain.StatusAvailable)))
	require.NoError(t, idx.IndexAnimal(indexedAnimal("animal-2", "org-1", "Rex", "boxer", domain.StatusAvailable)))

	result, err := idx.Search(ctx, Params{Query: "nata", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "animal-1", result.Hits[0].ID)
	assert.Equal(t, "Nata", result.Hits[0].Name)
	assert.Equal(t, "org-1", result.Hits[0].OrganizationID)
}

func TestSearchByBreed(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexAnimal(indexedAnimal("animal-1", "org-1", "Nata", "border collie", domain.StatusAvailable)))
	require.NoError(t, idx.IndexAnimal(indexedAnimal("animal-2", "org-1", "Rex", "boxer", domain.StatusAvailable)))

	result, err := idx.Search(ctx, Params{Query: "collie", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "animal-1", result.Hits[0].ID)
}

func TestSearchFilters(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexAnimal(indexedAnimal("animal-1", "org-1", "Luna", "husky", domain.StatusAvailable)))
	require.NoError(t, idx.IndexAnimal(indexedAnimal("animal-2", "org-2", "Luna", "husky", domain.StatusAvailable)))
	require.NoError(t, idx.IndexAnimal(indexedAnimal("animal-3", "org-1", "Luna", "husky", domain.StatusUnknown)))

	result, err := idx.Search(ctx, Params{Query: "luna", OrganizationID: "org-1", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Total)

	result, err = idx.Search(ctx, Params{Query: "luna", OrganizationID: "org-1", Status: "available", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "animal-1", result.Hits[0].ID)
}

func TestSearchEmptyQueryMatchesAll(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexAnimal(indexedAnimal("animal-1", "org-1", "Nata", "collie", domain.StatusAvailable)))
	require.NoError(t, idx.IndexAnimal(indexedAnimal("animal-2", "org-2", "Rex", "boxer", domain.StatusAvailable)))

	result, err := idx.Search(ctx, Params{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Total)
}

func TestDeleteAnimal(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexAnimal(indexedAnimal("animal-1", "org-1", "Nata", "collie", domain.StatusAvailable)))
	require.NoError(t, idx.DeleteAnimal("animal-1"))

	result, err := idx.Search(ctx, Params{Query: "nata", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
}

func TestReindexUpdatesDocument(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	a := indexedAnimal("animal-1", "org-1", "Nata", "collie", domain.StatusAvailable)
	require.NoError(t, idx.IndexAnimal(a))

	a.Status = domain.StatusUnknown
	require.NoError(t, idx.IndexAnimal(a))

	result, err := idx.Search(ctx, Params{Query: "nata", Status: "unknown", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)

	result, err = idx.Search(ctx, Params{Query: "nata", Status: "available", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
}

func TestIndexAnimalsBatch(t *testing.T) {
	idx := newTestIndex(t)

	animals := []*domain.Animal{
		indexedAnimal("animal-1", "org-1", "Nata", "collie", domain.StatusAvailable),
		indexedAnimal("animal-2", "org-1", "Rex", "boxer", domain.StatusAvailable),
		indexedAnimal("animal-3", "org-1", "Luna", "husky", domain.StatusAvailable),
	}
	require.NoError(t, idx.IndexAnimals(animals))

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}
