package api

import (
	"github.com/shelterscout/shelterscout-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Organization *service.OrganizationService
	Animal       *service.AnimalService
	Override     *service.OverrideService
	Run          *service.RunService
	Ingest       *service.IngestService
	Auth         *service.AuthService
}
