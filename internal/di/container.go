// Package di provides dependency injection configuration for the ShelterScout server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/shelterscout/shelterscout-server/internal/auth"
	"github.com/shelterscout/shelterscout-server/internal/config"
	"github.com/shelterscout/shelterscout-server/internal/di/providers"
	"github.com/shelterscout/shelterscout-server/internal/logger"
	"github.com/shelterscout/shelterscout-server/internal/reconcile"
	"github.com/shelterscout/shelterscout-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideQuotaStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// Reconciliation core
	do.Provide(injector, providers.ProvideReconciler)
	do.Provide(injector, providers.ProvideIngestLimiter)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideOrganizationService)
	do.Provide(injector, providers.ProvideAnimalService)
	do.Provide(injector, providers.ProvideOverrideService)
	do.Provide(injector, providers.ProvideRunService)
	do.Provide(injector, providers.ProvideIngestService)
	do.Provide(injector, providers.ProvideAuthService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.QuotaStoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*reconcile.Reconciler](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.OrganizationService](injector)
	_ = do.MustInvoke[*service.AnimalService](injector)
	_ = do.MustInvoke[*service.OverrideService](injector)
	_ = do.MustInvoke[*service.RunService](injector)
	_ = do.MustInvoke[*service.IngestService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Rebuild the search index if it was lost or never built
	providers.TriggerSearchRebuildIfNeeded(injector)

	return nil
}
