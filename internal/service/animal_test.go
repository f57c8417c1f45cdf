package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelterscout/shelterscout-server/internal/domain"
	domainerrors "github.com/shelterscout/shelterscout-server/internal/errors"
	"github.com/shelterscout/shelterscout-server/internal/search"
)

func TestAnimalService_ListAnimals(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	org := env.createOrg(t, "List Shelter")
	env.submitBatch(t, org.ID, []domain.Observation{
		obs("ext-1", "Rex", "Labrador"),
		obs("ext-2", "Nata", "Beagle"),
	})

	animals, err := env.animals.ListAnimals(ctx, org.ID, "")
	require.NoError(t, err)
	assert.Len(t, animals, 2)

	available, err := env.animals.ListAnimals(ctx, org.ID, "available")
	require.NoError(t, err)
	assert.Len(t, available, 2)

	adopted, err := env.animals.ListAnimals(ctx, org.ID, "adopted")
	require.NoError(t, err)
	assert.Empty(t, adopted)
}

func TestAnimalService_ListAnimalsInvalidStatus(t *testing.T) {
	env := setupServices(t)

	org := env.createOrg(t, "Status Shelter")
	_, err := env.animals.ListAnimals(context.Background(), org.ID, "vanished")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestAnimalService_ListAnimalsUnknownOrg(t *testing.T) {
	env := setupServices(t)

	_, err := env.animals.ListAnimals(context.Background(), "org-nope", "")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestAnimalService_GetBySlug(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	org := env.createOrg(t, "Slug Shelter")
	env.submitBatch(t, org.ID, []domain.Observation{obs("ext-1", "Rex", "Labrador")})

	animals, err := env.animals.ListAnimals(ctx, org.ID, "")
	require.NoError(t, err)
	require.Len(t, animals, 1)

	got, err := env.animals.GetAnimalBySlug(ctx, animals[0].Slug)
	require.NoError(t, err)
	assert.Equal(t, animals[0].ID, got.ID)
}

func TestAnimalService_Search(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	org := env.createOrg(t, "Search Shelter")
	env.submitBatch(t, org.ID, []domain.Observation{
		obs("ext-1", "Biscuit", "Golden Retriever"),
		obs("ext-2", "Shadow", "Border Collie"),
	})

	result, err := env.animals.SearchAnimals(ctx, search.Params{Query: "biscuit"})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "Biscuit", result.Hits[0].Name)
}

func TestAnimalService_RebuildSearchIndex(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	org := env.createOrg(t, "Rebuild Shelter")
	env.submitBatch(t, org.ID, []domain.Observation{
		obs("ext-1", "Rex", "Labrador"),
		obs("ext-2", "Nata", "Beagle"),
	})

	indexed, err := env.animals.RebuildSearchIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, indexed)
}
