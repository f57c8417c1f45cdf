package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelterscout/shelterscout-server/internal/domain"
	"github.com/shelterscout/shelterscout-server/internal/search"
)

func (s *Server) registerAnimalRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listAnimals",
		Method:      http.MethodGet,
		Path:        "/api/v1/organizations/{id}/animals",
		Summary:     "List animals",
		Description: "Returns an organization's animals, optionally filtered by status",
		Tags:        []string{"Animals"},
	}, s.handleListAnimals)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAnimal",
		Method:      http.MethodGet,
		Path:        "/api/v1/animals/{id}",
		Summary:     "Get animal",
		Description: "Returns an animal by ID",
		Tags:        []string{"Animals"},
	}, s.handleGetAnimal)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAnimalBySlug",
		Method:      http.MethodGet,
		Path:        "/api/v1/animals/slug/{slug}",
		Summary:     "Get animal by slug",
		Description: "Returns an animal by its URL slug",
		Tags:        []string{"Animals"},
	}, s.handleGetAnimalBySlug)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchAnimals",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search animals",
		Description: "Full-text search over animal names and breeds",
		Tags:        []string{"Search"},
	}, s.handleSearchAnimals)

	huma.Register(s.api, huma.Operation{
		OperationID: "rebuildSearchIndex",
		Method:      http.MethodPost,
		Path:        "/api/v1/search/rebuild",
		Summary:     "Rebuild search index",
		Description: "Reindexes every animal from the database. Root only.",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRebuildSearchIndex)
}

// === DTOs ===

// AnimalImageResponse contains one listing image.
type AnimalImageResponse struct {
	URL      string `json:"url" doc:"Image URL"`
	Position int    `json:"position" doc:"Display order"`
}

// AnimalResponse contains animal data in API responses.
type AnimalResponse struct {
	ID                        string                `json:"id" doc:"Animal ID"`
	OrganizationID            string                `json:"organization_id" doc:"Owning organization"`
	ExternalID                string                `json:"external_id" doc:"Source listing identifier"`
	Name                      string                `json:"name" doc:"Animal name"`
	Breed                     string                `json:"breed,omitempty" doc:"Primary breed"`
	SecondaryBreed            string                `json:"secondary_breed,omitempty" doc:"Secondary breed"`
	Slug                      string                `json:"slug" doc:"URL-safe slug"`
	Status                    string                `json:"status" doc:"Availability status"`
	AvailabilityConfidence    string                `json:"availability_confidence" doc:"Confidence in the status"`
	ConsecutiveScrapesMissing int                   `json:"consecutive_scrapes_missing" doc:"Scrapes since last seen"`
	LastSeenAt                time.Time             `json:"last_seen_at" doc:"Last observation time"`
	Properties                domain.Properties     `json:"properties" doc:"Listing attributes"`
	Images                    []AnimalImageResponse `json:"images,omitempty" doc:"Listing images"`
	CreatedAt                 time.Time             `json:"created_at" doc:"First observation time"`
	UpdatedAt                 time.Time             `json:"updated_at" doc:"Last update time"`
}

// ListAnimalsInput contains parameters for listing animals.
type ListAnimalsInput struct {
	ID     string `path:"id" doc:"Organization ID"`
	Status string `query:"status" doc:"Optional status filter (available, unknown, adopted)"`
}

// ListAnimalsResponse contains a list of animals.
type ListAnimalsResponse struct {
	Animals []AnimalResponse `json:"animals" doc:"List of animals"`
}

// ListAnimalsOutput wraps the list response for Huma.
type ListAnimalsOutput struct {
	Body ListAnimalsResponse
}

// AnimalOutput wraps a single animal for Huma.
type AnimalOutput struct {
	Body AnimalResponse
}

// GetAnimalInput contains parameters for getting an animal.
type GetAnimalInput struct {
	ID string `path:"id" doc:"Animal ID"`
}

// GetAnimalBySlugInput contains parameters for slug lookup.
type GetAnimalBySlugInput struct {
	Slug string `path:"slug" doc:"Animal slug"`
}

// SearchInput contains full-text search parameters.
type SearchInput struct {
	Query          string `query:"q" doc:"Search query"`
	OrganizationID string `query:"organization_id" doc:"Restrict to one organization"`
	Status         string `query:"status" doc:"Restrict to one status"`
	Limit          int    `query:"limit" doc:"Maximum hits to return"`
	Offset         int    `query:"offset" doc:"Hits to skip"`
}

// SearchHitResponse is one search match.
type SearchHitResponse struct {
	ID             string  `json:"id" doc:"Animal ID"`
	Score          float64 `json:"score" doc:"Relevance score"`
	Name           string  `json:"name" doc:"Animal name"`
	Breed          string  `json:"breed,omitempty" doc:"Primary breed"`
	OrganizationID string  `json:"organization_id" doc:"Owning organization"`
	Status         string  `json:"status" doc:"Availability status"`
	Confidence     string  `json:"confidence" doc:"Availability confidence"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Query  string              `json:"query" doc:"Echoed search query"`
	Total  uint64              `json:"total" doc:"Total matching documents"`
	TookMs int64               `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResponse `json:"hits" doc:"Matching animals"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// RebuildIndexInput contains parameters for an index rebuild.
type RebuildIndexInput struct {
	Authorization string `header:"Authorization"`
}

// RebuildIndexResponse reports how many animals were reindexed.
type RebuildIndexResponse struct {
	Indexed int `json:"indexed" doc:"Number of animals reindexed"`
}

// RebuildIndexOutput wraps the rebuild response for Huma.
type RebuildIndexOutput struct {
	Body RebuildIndexResponse
}

// === Handlers ===

func (s *Server) handleListAnimals(ctx context.Context, input *ListAnimalsInput) (*ListAnimalsOutput, error) {
	animals, err := s.services.Animal.ListAnimals(ctx, input.ID, input.Status)
	if err != nil {
		return nil, err
	}

	resp := make([]AnimalResponse, len(animals))
	for i, a := range animals {
		resp[i] = mapAnimal(a)
	}

	return &ListAnimalsOutput{Body: ListAnimalsResponse{Animals: resp}}, nil
}

func (s *Server) handleGetAnimal(ctx context.Context, input *GetAnimalInput) (*AnimalOutput, error) {
	animal, err := s.services.Animal.GetAnimal(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &AnimalOutput{Body: mapAnimal(animal)}, nil
}

func (s *Server) handleGetAnimalBySlug(ctx context.Context, input *GetAnimalBySlugInput) (*AnimalOutput, error) {
	animal, err := s.services.Animal.GetAnimalBySlug(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	return &AnimalOutput{Body: mapAnimal(animal)}, nil
}

func (s *Server) handleSearchAnimals(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	result, err := s.services.Animal.SearchAnimals(ctx, search.Params{
		Query:          input.Query,
		OrganizationID: input.OrganizationID,
		Status:         input.Status,
		Limit:          input.Limit,
		Offset:         input.Offset,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHitResponse, len(result.Hits))
	for i, h := range result.Hits {
		hits[i] = SearchHitResponse{
			ID:             h.ID,
			Score:          h.Score,
			Name:           h.Name,
			Breed:          h.Breed,
			OrganizationID: h.OrganizationID,
			Status:         h.Status,
			Confidence:     h.Confidence,
		}
	}

	return &SearchOutput{
		Body: SearchResponse{
			Query:  result.Query,
			Total:  result.Total,
			TookMs: result.TookMs,
			Hits:   hits,
		},
	}, nil
}

func (s *Server) handleRebuildSearchIndex(ctx context.Context, _ *RebuildIndexInput) (*RebuildIndexOutput, error) {
	if _, err := RequireRoot(ctx); err != nil {
		return nil, err
	}

	indexed, err := s.services.Animal.RebuildSearchIndex(ctx)
	if err != nil {
		return nil, err
	}

	return &RebuildIndexOutput{Body: RebuildIndexResponse{Indexed: indexed}}, nil
}

// === Helpers ===

func mapAnimal(a *domain.Animal) AnimalResponse {
	images := make([]AnimalImageResponse, len(a.Images))
	for i, img := range a.Images {
		images[i] = AnimalImageResponse{URL: img.URL, Position: img.Position}
	}
	if len(images) == 0 {
		images = nil
	}

	return AnimalResponse{
		ID:                        a.ID,
		OrganizationID:            a.OrganizationID,
		ExternalID:                a.ExternalID,
		Name:                      a.Name,
		Breed:                     a.Breed,
		SecondaryBreed:            a.SecondaryBreed,
		Slug:                      a.Slug,
		Status:                    string(a.Status),
		AvailabilityConfidence:    string(a.AvailabilityConfidence),
		ConsecutiveScrapesMissing: a.ConsecutiveScrapesMissing,
		LastSeenAt:                a.LastSeenAt,
		Properties:                a.Properties,
		Images:                    images,
		CreatedAt:                 a.CreatedAt,
		UpdatedAt:                 a.UpdatedAt,
	}
}
