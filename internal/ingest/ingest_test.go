package ingest

import (
	"testing"

	"github.com/shelterscout/shelterscout-server/internal/domain"
)

func obs(externalID string, attrs map[string]any) domain.Observation {
	return domain.Observation{ExternalID: externalID, Attributes: attrs}
}

func TestNormalizeRejectsMissingExternalID(t *testing.T) {
	batch := Normalize([]domain.Observation{
		obs("", map[string]any{"name": "Nata", "breed": "collie"}),
		obs("   ", map[string]any{"name": "Luna", "breed": "husky"}),
		obs("ext-1", map[string]any{"name": "Rex", "breed": "boxer"}),
	})

	if batch.Rejected != 2 {
		t.Errorf("Rejected: got %d, want 2", batch.Rejected)
	}
	if len(batch.Observations) != 1 {
		t.Fatalf("Observations: got %d, want 1", len(batch.Observations))
	}
	if batch.Observations[0].ExternalID != "ext-1" {
		t.Errorf("ExternalID: got %q", batch.Observations[0].ExternalID)
	}
}

func TestNormalizeDeduplicatesKeepingLast(t *testing.T) {
	batch := Normalize([]domain.Observation{
		obs("ext-1", map[string]any{"name": "Rex", "breed": "boxer"}),
		obs("ext-2", map[string]any{"name": "Luna", "breed": "husky"}),
		obs("ext-1", map[string]any{"name": "Rex Updated", "breed": "boxer"}),
	})

	if len(batch.Observations) != 2 {
		t.Fatalf("Observations: got %d, want 2", len(batch.Observations))
	}
	// Later duplicate replaces the earlier one in place.
	if batch.Observations[0].Name() != "Rex Updated" {
		t.Errorf("deduped name: got %q, want last occurrence", batch.Observations[0].Name())
	}
	if batch.Observations[1].ExternalID != "ext-2" {
		t.Errorf("order: got %q second", batch.Observations[1].ExternalID)
	}
	if batch.Rejected != 0 {
		t.Errorf("Rejected: got %d, want 0", batch.Rejected)
	}
}

func TestNormalizeTrimsExternalID(t *testing.T) {
	batch := Normalize([]domain.Observation{
		obs("  ext-9  ", map[string]any{"name": "Milo", "breed": "beagle"}),
	})
	if len(batch.Observations) != 1 || batch.Observations[0].ExternalID != "ext-9" {
		t.Errorf("got %+v", batch.Observations)
	}
}

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name  string
		raw   []domain.Observation
		score float64
	}{
		{
			name:  "empty batch",
			raw:   nil,
			score: 0,
		},
		{
			name: "all complete",
			raw: []domain.Observation{
				obs("a", map[string]any{"name": "Rex", "breed": "boxer"}),
				obs("b", map[string]any{"name": "Luna", "breed": "husky"}),
			},
			score: 1,
		},
		{
			name: "half complete",
			raw: []domain.Observation{
				obs("a", map[string]any{"name": "Rex", "breed": "boxer"}),
				obs("b", map[string]any{"name": "Luna"}),
			},
			score: 0.5,
		},
		{
			name: "blank required field does not count",
			raw: []domain.Observation{
				obs("a", map[string]any{"name": "Rex", "breed": "  "}),
			},
			score: 0,
		},
		{
			name: "non-string required field does not count",
			raw: []domain.Observation{
				obs("a", map[string]any{"name": "Rex", "breed": 7}),
			},
			score: 0,
		},
		{
			name: "nil attributes",
			raw: []domain.Observation{
				obs("a", nil),
			},
			score: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := Normalize(tt.raw)
			if batch.QualityScore != tt.score {
				t.Errorf("QualityScore: got %f, want %f", batch.QualityScore, tt.score)
			}
		})
	}
}

func TestQualityScoreIgnoresRejected(t *testing.T) {
	// Rejected observations must not drag the score down.
	batch := Normalize([]domain.Observation{
		obs("", nil),
		obs("a", map[string]any{"name": "Rex", "breed": "boxer"}),
	})
	if batch.QualityScore != 1 {
		t.Errorf("QualityScore: got %f, want 1", batch.QualityScore)
	}
}
