package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/shelterscout/shelterscout-server/internal/errors"
	"github.com/shelterscout/shelterscout-server/internal/validation"
)

type overrideRequest struct {
	AnimalID       string `json:"animal_id" validate:"required"`
	OrganizationID string `json:"organization_id" validate:"required"`
	Correction     string `json:"correction" validate:"required,min=3"`
	NewStatus      string `json:"new_status" validate:"required,oneof=available unknown adopted"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	req := overrideRequest{
		AnimalID:       "animal-1",
		OrganizationID: "org-1",
		Correction:     "died in fire",
		NewStatus:      "unknown",
	}

	assert.NoError(t, v.Validate(req))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       overrideRequest
		wantField string
	}{
		{
			name: "missing animal id",
			req: overrideRequest{
				OrganizationID: "org-1",
				Correction:     "died in fire",
				NewStatus:      "unknown",
			},
			wantField: "animal_id",
		},
		{
			name: "correction too short",
			req: overrideRequest{
				AnimalID:       "animal-1",
				OrganizationID: "org-1",
				Correction:     "ok",
				NewStatus:      "unknown",
			},
			wantField: "correction",
		},
		{
			name: "status not in enum",
			req: overrideRequest{
				AnimalID:       "animal-1",
				OrganizationID: "org-1",
				Correction:     "page deleted",
				NewStatus:      "euthanized",
			},
			wantField: "new_status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}
