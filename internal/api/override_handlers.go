package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelterscout/shelterscout-server/internal/service"
)

func (s *Server) registerOverrideRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "recordOverride",
		Method:      http.MethodPost,
		Path:        "/api/v1/animals/{id}/override",
		Summary:     "Record manual override",
		Description: "Records an operator correction for an animal. The correction pins the animal against automated status changes.",
		Tags:        []string{"Overrides"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRecordOverride)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearOverride",
		Method:      http.MethodDelete,
		Path:        "/api/v1/animals/{id}/override",
		Summary:     "Clear manual override",
		Description: "Removes an animal's pin so automated reconciliation resumes.",
		Tags:        []string{"Overrides"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleClearOverride)
}

// === DTOs ===

// RecordOverrideRequest is the request body for recording a correction.
type RecordOverrideRequest struct {
	OrganizationID string `json:"organization_id" validate:"required" doc:"Organization the animal belongs to"`
	Correction     string `json:"correction" validate:"required,min=1,max=2000" doc:"Human-entered correction note"`
	NewStatus      string `json:"new_status" validate:"required,oneof=available unknown adopted" doc:"Status to set"`
}

// RecordOverrideInput wraps the override request for Huma.
type RecordOverrideInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Animal ID"`
	Body          RecordOverrideRequest
}

// ClearOverrideInput contains parameters for clearing an override.
type ClearOverrideInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Animal ID"`
}

// === Handlers ===

func (s *Server) handleRecordOverride(ctx context.Context, input *RecordOverrideInput) (*AnimalOutput, error) {
	operatorID, err := GetOperatorID(ctx)
	if err != nil {
		return nil, err
	}

	animal, err := s.services.Override.RecordOverride(ctx, operatorID, service.RecordOverrideRequest{
		AnimalID:       input.ID,
		OrganizationID: input.Body.OrganizationID,
		Correction:     input.Body.Correction,
		NewStatus:      input.Body.NewStatus,
	})
	if err != nil {
		return nil, err
	}

	return &AnimalOutput{Body: mapAnimal(animal)}, nil
}

func (s *Server) handleClearOverride(ctx context.Context, input *ClearOverrideInput) (*AnimalOutput, error) {
	operatorID, err := GetOperatorID(ctx)
	if err != nil {
		return nil, err
	}

	animal, err := s.services.Override.ClearOverride(ctx, operatorID, input.ID)
	if err != nil {
		return nil, err
	}

	return &AnimalOutput{Body: mapAnimal(animal)}, nil
}
