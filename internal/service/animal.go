package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shelterscout/shelterscout-server/internal/domain"
	domainerrors "github.com/shelterscout/shelterscout-server/internal/errors"
	"github.com/shelterscout/shelterscout-server/internal/search"
	"github.com/shelterscout/shelterscout-server/internal/store"
	"github.com/shelterscout/shelterscout-server/internal/store/sqlite"
)

// AnimalService exposes the read surface over reconciled animal state.
type AnimalService struct {
	store  *sqlite.Store
	index  *search.Index
	logger *slog.Logger
}

// NewAnimalService creates a new animal service.
func NewAnimalService(st *sqlite.Store, index *search.Index, logger *slog.Logger) *AnimalService {
	return &AnimalService{
		store:  st,
		index:  index,
		logger: logger,
	}
}

// GetAnimal returns an animal by ID.
func (s *AnimalService) GetAnimal(ctx context.Context, animalID string) (*domain.Animal, error) {
	animal, err := s.store.GetAnimal(ctx, animalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("animal not found")
		}
		return nil, err
	}
	return animal, nil
}

// GetAnimalBySlug returns an animal by its URL slug.
func (s *AnimalService) GetAnimalBySlug(ctx context.Context, animalSlug string) (*domain.Animal, error) {
	animal, err := s.store.GetAnimalBySlug(ctx, animalSlug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("animal not found")
		}
		return nil, err
	}
	return animal, nil
}

// ListAnimals returns an organization's animals, optionally filtered by
// status.
func (s *AnimalService) ListAnimals(ctx context.Context, orgID string, status string) ([]*domain.Animal, error) {
	if status != "" && !domain.Status(status).Valid() {
		return nil, domainerrors.Validationf("unknown status %q", status)
	}
	// Verify the organization exists so a typo'd org reads as 404, not [].
	if _, err := s.store.GetOrganization(ctx, orgID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("organization not found")
		}
		return nil, err
	}
	return s.store.ListAnimalsByOrganization(ctx, orgID, domain.Status(status))
}

// SearchAnimals runs a full-text search over the animal index.
func (s *AnimalService) SearchAnimals(ctx context.Context, params search.Params) (*search.Result, error) {
	if params.Status != "" && !domain.Status(params.Status).Valid() {
		return nil, domainerrors.Validationf("unknown status %q", params.Status)
	}
	return s.index.Search(ctx, params)
}

// RebuildSearchIndex reindexes every animal of every organization. Used after
// mapping changes or index loss.
func (s *AnimalService) RebuildSearchIndex(ctx context.Context) (int, error) {
	orgs, err := s.store.ListOrganizations(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, org := range orgs {
		animals, err := s.store.ListAnimalsByOrganization(ctx, org.ID, "")
		if err != nil {
			return total, err
		}
		if err := s.index.IndexAnimals(animals); err != nil {
			return total, err
		}
		total += len(animals)
	}

	s.logger.Info("search index rebuilt", "animals", total)
	return total, nil
}
