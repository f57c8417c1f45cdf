package domain

import (
	"fmt"
	"time"
)

// Status is the listing status of an animal.
type Status string

// Animal statuses. StatusAdopted is reachable only through a manual override;
// disappearance from a scrape alone is never proof of adoption.
const (
	StatusAvailable Status = "available"
	StatusUnknown   Status = "unknown"
	StatusAdopted   Status = "adopted"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusUnknown, StatusAdopted:
		return true
	}
	return false
}

// Confidence is the derived trust level in an animal's current status.
type Confidence string

// Availability confidence levels, derived from the consecutive-misses counter.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is a known confidence level.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// Properties is the normalized attribute bag scraped for an animal.
// Recognized keys get typed fields; anything else lands in Extra so
// site-specific attributes survive without loosening the schema.
type Properties struct {
	Age         string         `json:"age,omitempty"`
	Sex         string         `json:"sex,omitempty"`
	Size        string         `json:"size,omitempty"`
	Description string         `json:"description,omitempty"`
	ImageURL    string         `json:"image_url,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// PropertiesFromMap splits a raw attribute map into recognized fields and Extra.
// Recognized keys with non-string values are kept in Extra rather than dropped.
func PropertiesFromMap(raw map[string]any) Properties {
	var p Properties
	for k, v := range raw {
		s, isString := v.(string)
		switch {
		case k == "age" && isString:
			p.Age = s
		case k == "sex" && isString:
			p.Sex = s
		case k == "size" && isString:
			p.Size = s
		case k == "description" && isString:
			p.Description = s
		case k == "image_url" && isString:
			p.ImageURL = s
		default:
			if p.Extra == nil {
				p.Extra = make(map[string]any)
			}
			p.Extra[k] = v
		}
	}
	return p
}

// AdoptionCheckData is the structured ledger of manual and automated findings
// about an animal's real-world availability. It is owned exclusively by the
// reconciliation core; nothing else writes it.
type AdoptionCheckData struct {
	// ManualCorrection is a human-entered note (e.g. "died in fire",
	// "page deleted"). While present the animal is pinned: automated
	// reconciliation must not touch status or confidence.
	ManualCorrection string `json:"manual_correction,omitempty"`

	// CheckedBy identifies the operator who recorded the correction.
	CheckedBy string `json:"checked_by,omitempty"`

	// Extra holds additional findings that have no typed field yet.
	Extra map[string]any `json:"extra,omitempty"`
}

// HasManualCorrection reports whether a human correction is recorded.
func (d *AdoptionCheckData) HasManualCorrection() bool {
	return d != nil && d.ManualCorrection != ""
}

// Animal is one observed listing, unique per (organization, external ID).
type Animal struct {
	Entity
	OrganizationID string     `json:"organization_id"`
	ExternalID     string     `json:"external_id"`
	Name           string     `json:"name"`
	Breed          string     `json:"breed,omitempty"`
	SecondaryBreed string     `json:"secondary_breed,omitempty"`
	Slug           string     `json:"slug"`
	Status         Status     `json:"status"`
	Properties     Properties `json:"properties"`

	// Presence-tracking state, maintained by the reconciler.
	LastSeenAt                time.Time  `json:"last_seen_at"`
	ConsecutiveScrapesMissing int        `json:"consecutive_scrapes_missing"`
	AvailabilityConfidence    Confidence `json:"availability_confidence"`

	AdoptionCheck     *AdoptionCheckData `json:"adoption_check_data,omitempty"`
	AdoptionCheckedAt *time.Time         `json:"adoption_checked_at,omitempty"`

	// Version is the optimistic concurrency token guarding status writes.
	// A manual override bumps it, so a reconciliation pass that read the row
	// earlier fails its conditional status update and the override wins.
	Version int64 `json:"version"`

	Images []AnimalImage `json:"images,omitempty"`
}

// AnimalImage is a dependent image row; cascades on animal deletion.
type AnimalImage struct {
	ID       string `json:"id"`
	AnimalID string `json:"animal_id"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// IsPinned reports whether a manual correction suppresses automated status
// and confidence mutation for this animal. A zero pinWindow pins indefinitely;
// otherwise the pin expires once the correction is older than the window.
func (a *Animal) IsPinned(now time.Time, pinWindow time.Duration) bool {
	if !a.AdoptionCheck.HasManualCorrection() {
		return false
	}
	if pinWindow <= 0 {
		return true
	}
	if a.AdoptionCheckedAt == nil {
		return true
	}
	return now.Sub(*a.AdoptionCheckedAt) < pinWindow
}

// Validate checks internal consistency of the presence-tracking fields.
// A violation is a programming error in the caller, not recoverable state.
func (a *Animal) Validate() error {
	if a.ConsecutiveScrapesMissing < 0 {
		return fmt.Errorf("animal %s: negative consecutive_scrapes_missing %d", a.ID, a.ConsecutiveScrapesMissing)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("animal %s: unknown status %q", a.ID, a.Status)
	}
	if !a.AvailabilityConfidence.Valid() {
		return fmt.Errorf("animal %s: unknown availability confidence %q", a.ID, a.AvailabilityConfidence)
	}
	if a.AvailabilityConfidence == ConfidenceHigh && a.ConsecutiveScrapesMissing != 0 {
		return fmt.Errorf("animal %s: high confidence with %d consecutive misses", a.ID, a.ConsecutiveScrapesMissing)
	}
	return nil
}
