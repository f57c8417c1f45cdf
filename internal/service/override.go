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
	"github.com/shelterscout/shelterscout-server/internal/validation"
)

// OverrideService records operator corrections to animal availability.
// A recorded correction pins the animal: automated reconciliation stops
// touching its status and confidence until the pin expires.
type OverrideService struct {
	store     *sqlite.Store
	logger    *slog.Logger
	validator *validation.Validator
}

// NewOverrideService creates a new override service.
func NewOverrideService(st *sqlite.Store, logger *slog.Logger) *OverrideService {
	return &OverrideService{
		store:     st,
		logger:    logger,
		validator: validation.New(),
	}
}

// RecordOverrideRequest contains fields for a manual correction.
type RecordOverrideRequest struct {
	AnimalID       string `json:"animal_id" validate:"required"`
	OrganizationID string `json:"organization_id" validate:"required"`
	Correction     string `json:"correction" validate:"required,min=1,max=2000"`
	NewStatus      string `json:"new_status" validate:"required,oneof=available unknown adopted"`
}

// RecordOverride applies a manual correction: the animal's status is set by
// hand, the correction is written to the adoption check ledger, and the row
// version is bumped so any concurrently running reconciliation pass loses its
// conditional status write.
func (s *OverrideService) RecordOverride(ctx context.Context, operatorID string, req RecordOverrideRequest) (*domain.Animal, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	animal, err := s.store.GetAnimal(ctx, req.AnimalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("animal not found")
		}
		return nil, err
	}

	// Cross-tenant guard: the caller must name the organization the animal
	// actually belongs to.
	if animal.OrganizationID != req.OrganizationID {
		return nil, domainerrors.Forbiddenf("animal %s does not belong to organization %s", req.AnimalID, req.OrganizationID)
	}

	now := time.Now()
	animal.Status = domain.Status(req.NewStatus)
	// The operator checked the listing by hand, so the miss counter no
	// longer reflects anything real.
	animal.ConsecutiveScrapesMissing = 0
	animal.AvailabilityConfidence = domain.ConfidenceHigh
	if animal.AdoptionCheck == nil {
		animal.AdoptionCheck = &domain.AdoptionCheckData{}
	}
	animal.AdoptionCheck.ManualCorrection = req.Correction
	animal.AdoptionCheck.CheckedBy = operatorID
	animal.AdoptionCheckedAt = &now
	animal.UpdatedAt = now

	if err := s.store.ApplyManualOverride(ctx, animal); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("animal not found")
		}
		return nil, err
	}

	s.logger.Info("manual override recorded",
		"animal_id", animal.ID,
		"org_id", animal.OrganizationID,
		"operator_id", operatorID,
		"new_status", animal.Status,
	)
	return animal, nil
}

// ClearOverride removes an animal's pin so automated reconciliation resumes
// on the next pass. Status is left as-is; the reconciler re-derives it.
func (s *OverrideService) ClearOverride(ctx context.Context, operatorID, animalID string) (*domain.Animal, error) {
	animal, err := s.store.GetAnimal(ctx, animalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("animal not found")
		}
		return nil, err
	}

	if !animal.AdoptionCheck.HasManualCorrection() {
		return nil, domainerrors.Conflict("animal has no manual correction to clear")
	}

	now := time.Now()
	animal.AdoptionCheck.ManualCorrection = ""
	animal.AdoptionCheck.CheckedBy = operatorID
	animal.AdoptionCheckedAt = &now
	animal.UpdatedAt = now

	if err := s.store.ApplyManualOverride(ctx, animal); err != nil {
		return nil, err
	}

	s.logger.Info("manual override cleared", "animal_id", animal.ID, "operator_id", operatorID)
	return animal, nil
}
