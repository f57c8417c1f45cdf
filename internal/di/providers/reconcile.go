package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelterscout/shelterscout-server/internal/config"
	"github.com/shelterscout/shelterscout-server/internal/logger"
	"github.com/shelterscout/shelterscout-server/internal/ratelimit"
	"github.com/shelterscout/shelterscout-server/internal/reconcile"
)

// ProvideReconciler provides the presence reconciliation core.
func ProvideReconciler(i do.Injector) (*reconcile.Reconciler, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	rec, err := reconcile.New(storeHandle.Store, log, cfg.Reconcile)
	if err != nil {
		return nil, err
	}

	log.Info("Reconciler ready",
		"medium_threshold", cfg.Reconcile.MediumThreshold,
		"demotion_threshold", cfg.Reconcile.DemotionThreshold,
		"pin_window", cfg.Reconcile.PinWindow,
		"quality_floor", cfg.Reconcile.QualityFloor,
	)

	return rec, nil
}

// ProvideIngestLimiter provides the per-organization submission rate limiter.
func ProvideIngestLimiter(i do.Injector) (*ratelimit.KeyedRateLimiter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return ratelimit.New(cfg.Ingest.RatePerSecond, cfg.Ingest.Burst), nil
}
