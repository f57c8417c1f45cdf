package domain

import "time"

// RunStatus is the outcome of a scrape run.
type RunStatus string

// Scrape run statuses.
const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"
	RunStatusFailed  RunStatus = "failed"
)

// ScrapeRun is one audited execution of data collection for one organization.
// Immutable once completed; later runs never mutate it.
type ScrapeRun struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Status         RunStatus  `json:"status"`

	AnimalsFound   int `json:"animals_found"`
	AnimalsAdded   int `json:"animals_added"`
	AnimalsUpdated int `json:"animals_updated"`
	Rejected       int `json:"rejected"`

	// DataQualityScore in [0,1]: the ratio of observations carrying the
	// required fields. Informational; never gates reconciliation.
	DataQualityScore float64 `json:"data_quality_score"`

	// FlaggedForReview is set when the quality score falls below the
	// configured floor. The run still applies; a human takes a look.
	FlaggedForReview bool `json:"flagged_for_review"`

	ErrorMessage string `json:"error_message,omitempty"`
}

// Duration returns the wall-clock duration of the run, or zero while running.
func (r *ScrapeRun) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Completed reports whether the run has finished (in any terminal status).
func (r *ScrapeRun) Completed() bool {
	return r.CompletedAt != nil
}
