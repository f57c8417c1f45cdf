package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/shelterscout/shelterscout-server/internal/config"
	"github.com/shelterscout/shelterscout-server/internal/logger"
	"github.com/shelterscout/shelterscout-server/internal/quota"
	"github.com/shelterscout/shelterscout-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "shelterscout.db")
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// QuotaStoreHandle wraps the quota store with shutdown capability.
type QuotaStoreHandle struct {
	*quota.Store
}

// Shutdown implements do.Shutdownable.
func (h *QuotaStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideQuotaStore provides the daily submission quota store.
func ProvideQuotaStore(i do.Injector) (*QuotaStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	quotaPath := filepath.Join(cfg.Data.BasePath, "quota")
	q, err := quota.Open(quotaPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Quota store initialized", "path", quotaPath, "daily_quota", cfg.Ingest.DailyQuota)

	return &QuotaStoreHandle{Store: q}, nil
}
