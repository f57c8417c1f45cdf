package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelterscout/shelterscout-server/internal/domain"
)

func (s *Server) registerRunRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRuns",
		Method:      http.MethodGet,
		Path:        "/api/v1/organizations/{id}/runs",
		Summary:     "List scrape runs",
		Description: "Returns an organization's scrape run history, newest first",
		Tags:        []string{"Runs"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListRuns)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRun",
		Method:      http.MethodGet,
		Path:        "/api/v1/runs/{id}",
		Summary:     "Get scrape run",
		Description: "Returns a single scrape run by ID",
		Tags:        []string{"Runs"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRun)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFlaggedRuns",
		Method:      http.MethodGet,
		Path:        "/api/v1/runs/flagged",
		Summary:     "List flagged runs",
		Description: "Returns recent runs flagged for data quality review",
		Tags:        []string{"Runs"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListFlaggedRuns)
}

// === DTOs ===

// RunResponse contains scrape run data in API responses.
type RunResponse struct {
	ID               string     `json:"id" doc:"Run ID"`
	OrganizationID   string     `json:"organization_id" doc:"Organization the run belongs to"`
	StartedAt        time.Time  `json:"started_at" doc:"Run start time"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" doc:"Run completion time"`
	Status           string     `json:"status" doc:"running, success, partial, or failed"`
	AnimalsFound     int        `json:"animals_found" doc:"Observations accepted"`
	AnimalsAdded     int        `json:"animals_added" doc:"New animals created"`
	AnimalsUpdated   int        `json:"animals_updated" doc:"Existing animals refreshed"`
	Rejected         int        `json:"rejected" doc:"Observations rejected"`
	DataQualityScore float64    `json:"data_quality_score" doc:"Fraction of observations with required fields"`
	FlaggedForReview bool       `json:"flagged_for_review" doc:"Quality fell below the review floor"`
	ErrorMessage     string     `json:"error_message,omitempty" doc:"Failure reason, if failed"`
}

// ListRunsInput contains parameters for listing runs.
type ListRunsInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Organization ID"`
	Since         string `query:"since" doc:"RFC3339 lower bound on start time"`
	Limit         int    `query:"limit" doc:"Maximum runs to return"`
}

// ListRunsResponse contains a list of runs.
type ListRunsResponse struct {
	Runs []RunResponse `json:"runs" doc:"Scrape runs, newest first"`
}

// ListRunsOutput wraps the list response for Huma.
type ListRunsOutput struct {
	Body ListRunsResponse
}

// GetRunInput contains parameters for getting a run.
type GetRunInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Run ID"`
}

// RunOutput wraps a single run for Huma.
type RunOutput struct {
	Body RunResponse
}

// ListFlaggedRunsInput contains parameters for listing flagged runs.
type ListFlaggedRunsInput struct {
	Authorization string `header:"Authorization"`
	Limit         int    `query:"limit" doc:"Maximum runs to return"`
}

// === Handlers ===

func (s *Server) handleListRuns(ctx context.Context, input *ListRunsInput) (*ListRunsOutput, error) {
	if _, err := GetOperatorID(ctx); err != nil {
		return nil, err
	}

	var since time.Time
	if input.Since != "" {
		parsed, err := time.Parse(time.RFC3339, input.Since)
		if err != nil {
			return nil, huma.Error400BadRequest("since must be an RFC3339 timestamp")
		}
		since = parsed
	}

	runs, err := s.services.Run.ListRuns(ctx, input.ID, since, input.Limit)
	if err != nil {
		return nil, err
	}

	return &ListRunsOutput{Body: ListRunsResponse{Runs: mapRuns(runs)}}, nil
}

func (s *Server) handleGetRun(ctx context.Context, input *GetRunInput) (*RunOutput, error) {
	if _, err := GetOperatorID(ctx); err != nil {
		return nil, err
	}

	run, err := s.services.Run.GetRun(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &RunOutput{Body: mapRun(run)}, nil
}

func (s *Server) handleListFlaggedRuns(ctx context.Context, input *ListFlaggedRunsInput) (*ListRunsOutput, error) {
	if _, err := GetOperatorID(ctx); err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	runs, err := s.services.Run.ListFlaggedRuns(ctx, limit)
	if err != nil {
		return nil, err
	}

	return &ListRunsOutput{Body: ListRunsResponse{Runs: mapRuns(runs)}}, nil
}

// === Helpers ===

func mapRun(run *domain.ScrapeRun) RunResponse {
	return RunResponse{
		ID:               run.ID,
		OrganizationID:   run.OrganizationID,
		StartedAt:        run.StartedAt,
		CompletedAt:      run.CompletedAt,
		Status:           string(run.Status),
		AnimalsFound:     run.AnimalsFound,
		AnimalsAdded:     run.AnimalsAdded,
		AnimalsUpdated:   run.AnimalsUpdated,
		Rejected:         run.Rejected,
		DataQualityScore: run.DataQualityScore,
		FlaggedForReview: run.FlaggedForReview,
		ErrorMessage:     run.ErrorMessage,
	}
}

func mapRuns(runs []*domain.ScrapeRun) []RunResponse {
	resp := make([]RunResponse, len(runs))
	for i, run := range runs {
		resp[i] = mapRun(run)
	}
	return resp
}
