package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelterscout/shelterscout-server/internal/domain"
	"github.com/shelterscout/shelterscout-server/internal/service"
)

func (s *Server) registerOrganizationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listOrganizations",
		Method:      http.MethodGet,
		Path:        "/api/v1/organizations",
		Summary:     "List organizations",
		Description: "Returns all registered rescue organizations",
		Tags:        []string{"Organizations"},
	}, s.handleListOrganizations)

	huma.Register(s.api, huma.Operation{
		OperationID: "getOrganization",
		Method:      http.MethodGet,
		Path:        "/api/v1/organizations/{id}",
		Summary:     "Get organization",
		Description: "Returns an organization by ID",
		Tags:        []string{"Organizations"},
	}, s.handleGetOrganization)

	huma.Register(s.api, huma.Operation{
		OperationID: "getOrganizationBySlug",
		Method:      http.MethodGet,
		Path:        "/api/v1/organizations/slug/{slug}",
		Summary:     "Get organization by slug",
		Description: "Returns an organization by its URL slug",
		Tags:        []string{"Organizations"},
	}, s.handleGetOrganizationBySlug)

	huma.Register(s.api, huma.Operation{
		OperationID: "createOrganization",
		Method:      http.MethodPost,
		Path:        "/api/v1/organizations",
		Summary:     "Register organization",
		Description: "Registers a new rescue organization. Root only.",
		Tags:        []string{"Organizations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateOrganization)

	huma.Register(s.api, huma.Operation{
		OperationID: "disableOrganization",
		Method:      http.MethodDelete,
		Path:        "/api/v1/organizations/{id}",
		Summary:     "Disable organization",
		Description: "Soft-disables an organization. Its animals stay; scrapers stop feeding it. Root only.",
		Tags:        []string{"Organizations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDisableOrganization)
}

// === DTOs ===

// OrganizationResponse contains organization data in API responses.
type OrganizationResponse struct {
	ID             string    `json:"id" doc:"Organization ID"`
	Name           string    `json:"name" doc:"Organization name"`
	Slug           string    `json:"slug" doc:"URL-safe slug"`
	WebsiteURL     string    `json:"website_url,omitempty" doc:"Public website"`
	Active         bool      `json:"active" doc:"Whether scrapers feed this organization"`
	ServiceRegions []string  `json:"service_regions,omitempty" doc:"Regions the organization serves"`
	TotalAnimals   int       `json:"total_animals" doc:"Active animal count"`
	NewThisWeek    int       `json:"new_this_week" doc:"Animals first seen in the last 7 days"`
	CreatedAt      time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt      time.Time `json:"updated_at" doc:"Last update time"`
}

// ListOrganizationsResponse contains a list of organizations.
type ListOrganizationsResponse struct {
	Organizations []OrganizationResponse `json:"organizations" doc:"List of organizations"`
}

// ListOrganizationsOutput wraps the list response for Huma.
type ListOrganizationsOutput struct {
	Body ListOrganizationsResponse
}

// OrganizationOutput wraps a single organization for Huma.
type OrganizationOutput struct {
	Body OrganizationResponse
}

// GetOrganizationInput contains parameters for getting an organization.
type GetOrganizationInput struct {
	ID string `path:"id" doc:"Organization ID"`
}

// GetOrganizationBySlugInput contains parameters for slug lookup.
type GetOrganizationBySlugInput struct {
	Slug string `path:"slug" doc:"Organization slug"`
}

// CreateOrganizationRequest is the request body for registering an organization.
type CreateOrganizationRequest struct {
	Name           string   `json:"name" validate:"required,min=1,max=200" doc:"Organization name"`
	WebsiteURL     string   `json:"website_url,omitempty" validate:"omitempty,url" doc:"Public website"`
	ServiceRegions []string `json:"service_regions,omitempty" doc:"Regions the organization serves"`
}

// CreateOrganizationInput wraps the create request for Huma.
type CreateOrganizationInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateOrganizationRequest
}

// DisableOrganizationInput contains parameters for disabling an organization.
type DisableOrganizationInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Organization ID"`
}

// === Handlers ===

func (s *Server) handleListOrganizations(ctx context.Context, _ *struct{}) (*ListOrganizationsOutput, error) {
	orgs, err := s.services.Organization.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]OrganizationResponse, len(orgs))
	for i, org := range orgs {
		resp[i] = mapOrganization(org)
	}

	return &ListOrganizationsOutput{Body: ListOrganizationsResponse{Organizations: resp}}, nil
}

func (s *Server) handleGetOrganization(ctx context.Context, input *GetOrganizationInput) (*OrganizationOutput, error) {
	org, err := s.services.Organization.GetOrganization(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &OrganizationOutput{Body: mapOrganization(org)}, nil
}

func (s *Server) handleGetOrganizationBySlug(ctx context.Context, input *GetOrganizationBySlugInput) (*OrganizationOutput, error) {
	org, err := s.services.Organization.GetOrganizationBySlug(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	return &OrganizationOutput{Body: mapOrganization(org)}, nil
}

func (s *Server) handleCreateOrganization(ctx context.Context, input *CreateOrganizationInput) (*OrganizationOutput, error) {
	if _, err := RequireRoot(ctx); err != nil {
		return nil, err
	}

	org, err := s.services.Organization.CreateOrganization(ctx, service.CreateOrganizationRequest{
		Name:           input.Body.Name,
		WebsiteURL:     input.Body.WebsiteURL,
		ServiceRegions: input.Body.ServiceRegions,
	})
	if err != nil {
		return nil, err
	}

	return &OrganizationOutput{Body: mapOrganization(org)}, nil
}

func (s *Server) handleDisableOrganization(ctx context.Context, input *DisableOrganizationInput) (*OrganizationOutput, error) {
	if _, err := RequireRoot(ctx); err != nil {
		return nil, err
	}

	org, err := s.services.Organization.DisableOrganization(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &OrganizationOutput{Body: mapOrganization(org)}, nil
}

// === Helpers ===

func mapOrganization(org *domain.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:             org.ID,
		Name:           org.Name,
		Slug:           org.Slug,
		WebsiteURL:     org.WebsiteURL,
		Active:         org.Active,
		ServiceRegions: org.ServiceRegions,
		TotalAnimals:   org.TotalAnimals,
		NewThisWeek:    org.NewThisWeek,
		CreatedAt:      org.CreatedAt,
		UpdatedAt:      org.UpdatedAt,
	}
}
