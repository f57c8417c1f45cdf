package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelterscout/shelterscout-server/internal/auth"
	"github.com/shelterscout/shelterscout-server/internal/config"
	"github.com/shelterscout/shelterscout-server/internal/logger"
	"github.com/shelterscout/shelterscout-server/internal/ratelimit"
	"github.com/shelterscout/shelterscout-server/internal/reconcile"
	"github.com/shelterscout/shelterscout-server/internal/service"
)

// ProvideOrganizationService provides the organization service.
func ProvideOrganizationService(i do.Injector) (*service.OrganizationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewOrganizationService(storeHandle.Store, log.Logger), nil
}

// ProvideAnimalService provides the animal read service.
func ProvideAnimalService(i do.Injector) (*service.AnimalService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAnimalService(storeHandle.Store, indexHandle.Index, log.Logger), nil
}

// ProvideOverrideService provides the manual correction service.
func ProvideOverrideService(i do.Injector) (*service.OverrideService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewOverrideService(storeHandle.Store, log.Logger), nil
}

// ProvideRunService provides the scrape run audit service.
func ProvideRunService(i do.Injector) (*service.RunService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRunService(storeHandle.Store, log.Logger), nil
}

// ProvideIngestService provides the observation ingest service.
func ProvideIngestService(i do.Injector) (*service.IngestService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	rec := do.MustInvoke[*reconcile.Reconciler](i)
	limiter := do.MustInvoke[*ratelimit.KeyedRateLimiter](i)
	quotaHandle := do.MustInvoke[*QuotaStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewIngestService(rec, limiter, quotaHandle.Store, cfg.Ingest, log.Logger), nil
}

// ProvideAuthService provides the operator authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokens, log.Logger), nil
}
