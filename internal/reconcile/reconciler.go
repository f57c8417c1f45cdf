// Package reconcile turns normalized observation batches into animal presence
// state: diffing each batch against the previously known active set, decaying
// availability confidence for animals that stop appearing, and recording an
// audit trail of every run.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shelterscout/shelterscout-server/internal/config"
	"github.com/shelterscout/shelterscout-server/internal/domain"
	domainerrors "github.com/shelterscout/shelterscout-server/internal/errors"
	"github.com/shelterscout/shelterscout-server/internal/id"
	"github.com/shelterscout/shelterscout-server/internal/ingest"
	"github.com/shelterscout/shelterscout-server/internal/logger"
	"github.com/shelterscout/shelterscout-server/internal/slug"
	"github.com/shelterscout/shelterscout-server/internal/store"
	"github.com/shelterscout/shelterscout-server/internal/store/sqlite"
)

// Reconciler runs presence reconciliation passes. One pass per organization
// at a time; a pass is atomic, it either fully commits or leaves the animal
// table untouched (the run audit record is written either way).
type Reconciler struct {
	store  *sqlite.Store
	logger *logger.Logger
	cfg    config.ReconcileConfig
	policy Policy
	locks  *keyedLocks

	// now is swapped out in tests.
	now func() time.Time
}

// New creates a Reconciler.
func New(st *sqlite.Store, log *logger.Logger, cfg config.ReconcileConfig) (*Reconciler, error) {
	policy := Policy{
		MediumAfter: cfg.MediumThreshold,
		DemoteAfter: cfg.DemotionThreshold,
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("decay policy: %w", err)
	}
	return &Reconciler{
		store:  st,
		logger: log,
		cfg:    cfg,
		policy: policy,
		locks:  newKeyedLocks(),
		now:    time.Now,
	}, nil
}

// passState accumulates counters while a pass walks the diff.
type passState struct {
	added   int
	updated int
}

// Pass reconciles one delivery of raw observations for an organization and
// returns the completed scrape run record. The returned error is non-nil only
// for infrastructure or programming failures; a rejected delivery (for
// example an empty observation set) is reported through the run's status.
func (r *Reconciler) Pass(ctx context.Context, orgID string, raw []domain.Observation) (*domain.ScrapeRun, error) {
	release := r.locks.acquire(orgID)
	defer release()

	org, err := r.store.GetOrganization(ctx, orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("organization %s not found", orgID)
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "load organization")
	}
	if !org.Active {
		return nil, domainerrors.Conflictf("organization %s is disabled", orgID)
	}

	run := &domain.ScrapeRun{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		StartedAt:      r.now(),
		Status:         domain.RunStatusRunning,
	}
	// The running record commits before any reconciliation work so an
	// aborted pass still leaves a trace.
	if err := r.store.CreateScrapeRun(ctx, run); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "record scrape run")
	}

	batch := ingest.Normalize(raw)
	run.AnimalsFound = len(batch.Observations)
	run.Rejected = batch.Rejected
	run.DataQualityScore = batch.QualityScore
	run.FlaggedForReview = batch.QualityScore < r.cfg.QualityFloor

	log := r.logger.WithField("org_id", orgID).WithField("run_id", run.ID)

	// An empty observed set means the scrape itself failed, not that every
	// animal vanished overnight. Record the failure and mutate nothing.
	if len(batch.Observations) == 0 {
		run.Status = domain.RunStatusFailed
		run.ErrorMessage = "empty observation set"
		run.FlaggedForReview = false
		r.completeRun(ctx, run)
		log.Warn("reconcile pass rejected", "reason", "empty observation set", "rejected", batch.Rejected)
		return run, nil
	}

	passCtx := ctx
	if r.cfg.PassTimeout > 0 {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(ctx, r.cfg.PassTimeout)
		defer cancel()
	}

	var state passState
	err = r.store.WithTx(passCtx, func(tx *sqlite.Tx) error {
		return r.applyBatch(passCtx, tx, org, batch.Observations, &state)
	})
	if err != nil {
		run.Status = domain.RunStatusFailed
		run.ErrorMessage = err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			run.ErrorMessage = fmt.Sprintf("pass exceeded %s budget", r.cfg.PassTimeout)
		}
		r.completeRun(ctx, run)
		log.WithError(err).Error("reconcile pass failed")
		return run, domainerrors.Wrap(err, domainerrors.CodeInternal, "reconcile pass")
	}

	run.AnimalsAdded = state.added
	run.AnimalsUpdated = state.updated
	if run.Rejected > 0 {
		run.Status = domain.RunStatusPartial
	} else {
		run.Status = domain.RunStatusSuccess
	}
	r.completeRun(ctx, run)

	log.Info("reconcile pass complete",
		"status", run.Status,
		"found", run.AnimalsFound,
		"added", run.AnimalsAdded,
		"updated", run.AnimalsUpdated,
		"rejected", run.Rejected,
		"quality", run.DataQualityScore,
		"flagged", run.FlaggedForReview,
	)
	return run, nil
}

// applyBatch walks the observed-vs-known diff inside one transaction.
func (r *Reconciler) applyBatch(ctx context.Context, tx *sqlite.Tx, org *domain.Organization, observations []domain.Observation, state *passState) error {
	active, err := tx.ListActiveAnimals(ctx, org.ID)
	if err != nil {
		return err
	}
	known := make(map[string]*domain.Animal, len(active))
	for _, a := range active {
		known[a.ExternalID] = a
	}

	now := r.now()
	observed := make(map[string]bool, len(observations))

	for _, obs := range observations {
		observed[obs.ExternalID] = true

		animal, ok := known[obs.ExternalID]
		if !ok {
			// Not in the active set. It may still exist as an adopted
			// row; external ids are unique per organization.
			animal, err = tx.GetAnimalByExternalID(ctx, org.ID, obs.ExternalID)
			if errors.Is(err, store.ErrNotFound) {
				if err := r.createAnimal(ctx, tx, org.ID, &obs, now); err != nil {
					return err
				}
				state.added++
				continue
			}
			if err != nil {
				return err
			}
		}

		if err := r.markObserved(ctx, tx, animal, &obs, now); err != nil {
			return err
		}
		state.updated++
	}

	for externalID, animal := range known {
		if observed[externalID] {
			continue
		}
		if animal.IsPinned(now, r.cfg.PinWindow) {
			continue
		}
		if err := r.markMissing(ctx, tx, animal, now); err != nil {
			return err
		}
	}

	return r.refreshCounters(ctx, tx, org.ID, now)
}

// createAnimal inserts a first-time observation as a fresh available animal.
func (r *Reconciler) createAnimal(ctx context.Context, tx *sqlite.Tx, orgID string, obs *domain.Observation, now time.Time) error {
	animalID, err := id.Generate(id.PrefixAnimal)
	if err != nil {
		return err
	}

	animal := &domain.Animal{
		Entity: domain.Entity{
			ID:        animalID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		OrganizationID:         orgID,
		ExternalID:             obs.ExternalID,
		Name:                   obs.Name(),
		Breed:                  obs.Breed(),
		SecondaryBreed:         obs.SecondaryBreed(),
		Status:                 domain.StatusAvailable,
		Properties:             domain.PropertiesFromMap(obs.Attributes),
		LastSeenAt:             now,
		AvailabilityConfidence: domain.ConfidenceHigh,
		Version:                1,
	}
	animal.Slug = slug.ForAnimal(animal.Name, animal.Breed, animalID)

	if err := tx.CreateAnimal(ctx, animal); err != nil {
		return err
	}
	return r.syncImages(ctx, tx, animal.ID, obs)
}

// markObserved handles a still-present animal: attributes always refresh from
// the newest observation; status and confidence reset only when the animal is
// not pinned by a manual correction.
func (r *Reconciler) markObserved(ctx context.Context, tx *sqlite.Tx, animal *domain.Animal, obs *domain.Observation, now time.Time) error {
	r.applyAttributes(animal, obs, now)
	if err := tx.UpdateAnimalAttributes(ctx, animal); err != nil {
		return err
	}
	if err := r.syncImages(ctx, tx, animal.ID, obs); err != nil {
		return err
	}

	if animal.IsPinned(now, r.cfg.PinWindow) {
		return tx.TouchAnimalLastSeen(ctx, animal.ID, now)
	}

	if err := r.policy.MarkObserved(animal, now); err != nil {
		return err
	}
	return r.writePresence(ctx, tx, animal, now)
}

// markMissing advances the decay state of an animal absent from this run.
func (r *Reconciler) markMissing(ctx context.Context, tx *sqlite.Tx, animal *domain.Animal, now time.Time) error {
	if err := r.policy.MarkMissing(animal, now); err != nil {
		return err
	}
	return r.writePresence(ctx, tx, animal, now)
}

// writePresence performs the version-guarded presence write. Losing the
// version race means a manual override landed after this pass read the row;
// the override wins, so the row is re-read, the pin re-checked, and the
// decayed state recomputed from the fresh row before one retry.
func (r *Reconciler) writePresence(ctx context.Context, tx *sqlite.Tx, animal *domain.Animal, now time.Time) error {
	err := tx.UpdateAnimalPresence(ctx, animal)
	if !errors.Is(err, store.ErrVersionConflict) {
		return err
	}

	fresh, err := tx.GetAnimal(ctx, animal.ID)
	if err != nil {
		return err
	}
	if fresh.IsPinned(now, r.cfg.PinWindow) {
		*animal = *fresh
		return nil
	}
	fresh.Status = animal.Status
	fresh.AvailabilityConfidence = animal.AvailabilityConfidence
	fresh.ConsecutiveScrapesMissing = animal.ConsecutiveScrapesMissing
	fresh.LastSeenAt = animal.LastSeenAt
	fresh.UpdatedAt = now
	if err := tx.UpdateAnimalPresence(ctx, fresh); err != nil {
		return err
	}
	*animal = *fresh
	return nil
}

// applyAttributes overwrites the scraped attribute fields from an observation.
// The slug stays stable once minted so published URLs keep working.
func (r *Reconciler) applyAttributes(animal *domain.Animal, obs *domain.Observation, now time.Time) {
	if name := obs.Name(); name != "" {
		animal.Name = name
	}
	if breed := obs.Breed(); breed != "" {
		animal.Breed = breed
	}
	if secondary := obs.SecondaryBreed(); secondary != "" {
		animal.SecondaryBreed = secondary
	}
	animal.Properties = domain.PropertiesFromMap(obs.Attributes)
	animal.UpdatedAt = now
}

// syncImages replaces the animal's image rows when the observation carries an
// image list.
func (r *Reconciler) syncImages(ctx context.Context, tx *sqlite.Tx, animalID string, obs *domain.Observation) error {
	raw, ok := obs.Attributes["images"].([]any)
	if !ok {
		return nil
	}
	var images []domain.AnimalImage
	for i, entry := range raw {
		url, ok := entry.(string)
		if !ok || url == "" {
			continue
		}
		imageID, err := id.Generate(id.PrefixImage)
		if err != nil {
			return err
		}
		images = append(images, domain.AnimalImage{
			ID:       imageID,
			AnimalID: animalID,
			URL:      url,
			Position: i,
		})
	}
	return tx.ReplaceAnimalImages(ctx, animalID, images)
}

// refreshCounters updates the organization's denormalized aggregates.
func (r *Reconciler) refreshCounters(ctx context.Context, tx *sqlite.Tx, orgID string, now time.Time) error {
	total, err := tx.CountActiveAnimals(ctx, orgID)
	if err != nil {
		return err
	}
	newThisWeek, err := tx.CountAnimalsCreatedSince(ctx, orgID, now.AddDate(0, 0, -7))
	if err != nil {
		return err
	}
	return tx.UpdateOrganizationCounters(ctx, orgID, total, newThisWeek)
}

// completeRun writes the run's terminal state. The parent context may already
// be dead (timeout), so completion runs on a detached context; losing the
// audit record would be worse than extending a doomed request slightly.
func (r *Reconciler) completeRun(ctx context.Context, run *domain.ScrapeRun) {
	completedAt := r.now()
	run.CompletedAt = &completedAt
	if err := r.store.CompleteScrapeRun(context.WithoutCancel(ctx), run); err != nil {
		r.logger.WithError(err).Error("complete scrape run", "run_id", run.ID)
	}
}
