// Package ingest normalizes raw observation batches before reconciliation.
package ingest

import (
	"strings"

	"github.com/shelterscout/shelterscout-server/internal/domain"
)

// Batch is the result of normalizing one delivery of raw observations.
type Batch struct {
	// Observations is the deduplicated set that goes to reconciliation,
	// keyed order preserved by first appearance.
	Observations []domain.Observation

	// Rejected counts observations dropped for having no usable external ID.
	Rejected int

	// QualityScore in [0,1] is the fraction of accepted observations that
	// carry the required fields. An empty batch scores zero.
	QualityScore float64
}

// requiredFields are the attributes an observation needs to count as
// complete for quality scoring. Incomplete observations are still accepted;
// the score only informs review flagging.
var requiredFields = []string{"name", "breed"}

// Normalize cleans a raw observation batch: observations without an external
// ID are rejected, duplicates of the same external ID collapse to the last
// occurrence, and the quality score is computed over what remains.
func Normalize(raw []domain.Observation) Batch {
	var batch Batch

	index := make(map[string]int, len(raw))
	for _, obs := range raw {
		externalID := strings.TrimSpace(obs.ExternalID)
		if externalID == "" {
			batch.Rejected++
			continue
		}
		obs.ExternalID = externalID

		// Last occurrence wins, keeping the position of the first.
		if at, seen := index[externalID]; seen {
			batch.Observations[at] = obs
			continue
		}
		index[externalID] = len(batch.Observations)
		batch.Observations = append(batch.Observations, obs)
	}

	batch.QualityScore = qualityScore(batch.Observations)
	return batch
}

// qualityScore returns the fraction of observations carrying every required
// field as a non-empty string.
func qualityScore(observations []domain.Observation) float64 {
	if len(observations) == 0 {
		return 0
	}
	complete := 0
	for _, obs := range observations {
		if isComplete(&obs) {
			complete++
		}
	}
	return float64(complete) / float64(len(observations))
}

func isComplete(obs *domain.Observation) bool {
	for _, field := range requiredFields {
		if obs.Attributes == nil {
			return false
		}
		s, ok := obs.Attributes[field].(string)
		if !ok || strings.TrimSpace(s) == "" {
			return false
		}
	}
	return true
}
