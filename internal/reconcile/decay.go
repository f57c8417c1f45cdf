package reconcile

import (
	"fmt"
	"time"

	"github.com/shelterscout/shelterscout-server/internal/domain"
)

// Policy holds the confidence decay thresholds. Confidence is a pure function
// of the consecutive-misses counter; the thresholds decide where the bands
// fall and where status demotion happens.
type Policy struct {
	// MediumAfter is the miss count at which confidence drops from high
	// to medium.
	MediumAfter int

	// DemoteAfter is the miss count at which confidence drops to low and,
	// exactly on crossing it, an available animal becomes unknown.
	DemoteAfter int
}

// Validate checks the thresholds are ordered and positive.
func (p Policy) Validate() error {
	if p.MediumAfter < 1 {
		return fmt.Errorf("medium threshold must be >= 1, got %d", p.MediumAfter)
	}
	if p.DemoteAfter <= p.MediumAfter {
		return fmt.Errorf("demotion threshold %d must exceed medium threshold %d", p.DemoteAfter, p.MediumAfter)
	}
	return nil
}

// ConfidenceFor derives the availability confidence for a miss count.
// A negative count is a programming error in the caller and comes back as an
// error, never silently clamped.
func (p Policy) ConfidenceFor(misses int) (domain.Confidence, error) {
	if misses < 0 {
		return "", fmt.Errorf("negative consecutive miss count %d", misses)
	}
	switch {
	case misses < p.MediumAfter:
		return domain.ConfidenceHigh, nil
	case misses < p.DemoteAfter:
		return domain.ConfidenceMedium, nil
	default:
		return domain.ConfidenceLow, nil
	}
}

// MarkMissing advances an animal's decay state by one missed scrape:
// the counter increments, confidence re-derives, and at or past the demotion
// threshold an available animal is demoted to unknown. The comparison is >=
// so a row whose counter already sits beyond the threshold (a lowered
// threshold between runs) still demotes on its next miss. The caller is
// responsible for skipping pinned animals.
func (p Policy) MarkMissing(a *domain.Animal, now time.Time) error {
	if err := a.Validate(); err != nil {
		return err
	}

	a.ConsecutiveScrapesMissing++

	confidence, err := p.ConfidenceFor(a.ConsecutiveScrapesMissing)
	if err != nil {
		return err
	}
	a.AvailabilityConfidence = confidence

	if a.ConsecutiveScrapesMissing >= p.DemoteAfter && a.Status == domain.StatusAvailable {
		a.Status = domain.StatusUnknown
	}

	a.UpdatedAt = now
	return nil
}

// MarkObserved resets an animal's decay state after it reappears in a scrape:
// counter back to zero, confidence back to high, and an unknown animal
// recovers to available. Adopted stays adopted; that status is terminal and
// only an operator takes an animal out of it. The caller is responsible for
// skipping pinned animals.
func (p Policy) MarkObserved(a *domain.Animal, now time.Time) error {
	if err := a.Validate(); err != nil {
		return err
	}

	a.ConsecutiveScrapesMissing = 0
	a.AvailabilityConfidence = domain.ConfidenceHigh
	if a.Status == domain.StatusUnknown {
		a.Status = domain.StatusAvailable
	}

	a.LastSeenAt = now
	a.UpdatedAt = now
	return nil
}
