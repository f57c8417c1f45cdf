package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelterscout/shelterscout-server/internal/domain"
)

func (s *Server) registerIngestRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "submitObservations",
		Method:      http.MethodPost,
		Path:        "/api/v1/organizations/{id}/observations",
		Summary:     "Submit observation batch",
		Description: "Runs one reconciliation pass over a scraped observation batch for the organization.",
		Tags:        []string{"Ingest"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSubmitObservations)
}

// === DTOs ===

// ObservationRequest is one scraped listing in a batch.
type ObservationRequest struct {
	ExternalID string         `json:"external_id" doc:"Source listing identifier"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Raw listing attributes (name, breed, images, ...)"`
}

// SubmitObservationsRequest is the request body for a batch submission.
type SubmitObservationsRequest struct {
	Observations []ObservationRequest `json:"observations" doc:"Scraped listings, one per animal"`
}

// SubmitObservationsInput wraps the submission for Huma.
type SubmitObservationsInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Organization ID"`
	Body          SubmitObservationsRequest
}

// SubmitObservationsOutput wraps the resulting run for Huma.
type SubmitObservationsOutput struct {
	Body RunResponse
}

// === Handlers ===

func (s *Server) handleSubmitObservations(ctx context.Context, input *SubmitObservationsInput) (*SubmitObservationsOutput, error) {
	operatorID, err := GetOperatorID(ctx)
	if err != nil {
		return nil, err
	}

	observations := make([]domain.Observation, len(input.Body.Observations))
	for i, o := range input.Body.Observations {
		observations[i] = domain.Observation{
			ExternalID: o.ExternalID,
			Attributes: o.Attributes,
		}
	}

	run, err := s.services.Ingest.Submit(ctx, input.ID, observations)
	if err != nil {
		s.logger.Warn("observation batch rejected",
			"org_id", input.ID,
			"operator_id", operatorID,
			"error", err,
		)
		return nil, err
	}

	return &SubmitObservationsOutput{Body: mapRun(run)}, nil
}
