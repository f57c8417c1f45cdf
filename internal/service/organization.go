// Package service orchestrates domain operations on top of the store and the
// reconciliation core.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shelterscout/shelterscout-server/internal/domain"
	domainerrors "github.com/shelterscout/shelterscout-server/internal/errors"
	"github.com/shelterscout/shelterscout-server/internal/id"
	"github.com/shelterscout/shelterscout-server/internal/slug"
	"github.com/shelterscout/shelterscout-server/internal/store"
	"github.com/shelterscout/shelterscout-server/internal/store/sqlite"
	"github.com/shelterscout/shelterscout-server/internal/validation"
)

// OrganizationService orchestrates organization operations.
type OrganizationService struct {
	store     *sqlite.Store
	logger    *slog.Logger
	validator *validation.Validator
}

// NewOrganizationService creates a new organization service.
func NewOrganizationService(st *sqlite.Store, logger *slog.Logger) *OrganizationService {
	return &OrganizationService{
		store:     st,
		logger:    logger,
		validator: validation.New(),
	}
}

// ListOrganizations returns all organizations.
func (s *OrganizationService) ListOrganizations(ctx context.Context) ([]*domain.Organization, error) {
	return s.store.ListOrganizations(ctx)
}

// GetOrganization returns an organization by ID.
func (s *OrganizationService) GetOrganization(ctx context.Context, orgID string) (*domain.Organization, error) {
	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("organization not found")
		}
		return nil, err
	}
	return org, nil
}

// GetOrganizationBySlug returns an organization by its URL slug.
func (s *OrganizationService) GetOrganizationBySlug(ctx context.Context, orgSlug string) (*domain.Organization, error) {
	org, err := s.store.GetOrganizationBySlug(ctx, orgSlug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("organization not found")
		}
		return nil, err
	}
	return org, nil
}

// CreateOrganizationRequest contains fields for registering an organization.
type CreateOrganizationRequest struct {
	Name           string   `json:"name" validate:"required,min=1,max=200"`
	WebsiteURL     string   `json:"website_url" validate:"omitempty,url"`
	ServiceRegions []string `json:"service_regions" validate:"omitempty,dive,min=1"`
}

// CreateOrganization registers a new rescue organization.
func (s *OrganizationService) CreateOrganization(ctx context.Context, req CreateOrganizationRequest) (*domain.Organization, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	orgID, err := id.Generate(id.PrefixOrganization)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate organization id")
	}

	org := &domain.Organization{
		Entity:         domain.Entity{ID: orgID},
		Name:           req.Name,
		Slug:           slug.ForOrganization(req.Name, orgID),
		WebsiteURL:     req.WebsiteURL,
		Active:         true,
		ServiceRegions: req.ServiceRegions,
	}
	org.InitTimestamps()

	if err := s.store.CreateOrganization(ctx, org); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("organization with this name already exists")
		}
		return nil, err
	}

	s.logger.Info("organization registered", "org_id", org.ID, "name", org.Name)
	return org, nil
}

// DisableOrganization soft-disables an organization; its animals stay but
// scrapers stop feeding it.
func (s *OrganizationService) DisableOrganization(ctx context.Context, orgID string) (*domain.Organization, error) {
	org, err := s.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !org.Active {
		return org, nil
	}

	org.Disable()
	if err := s.store.UpdateOrganization(ctx, org); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("organization not found")
		}
		return nil, err
	}

	s.logger.Info("organization disabled", "org_id", org.ID)
	return org, nil
}
