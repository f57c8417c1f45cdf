package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertiesFromMap(t *testing.T) {
	raw := map[string]any{
		"age":         "2 years",
		"sex":         "female",
		"size":        "medium",
		"description": "very good dog",
		"image_url":   "https://example.org/nata.jpg",
		"color":       "brown",
		"weight_kg":   12.5,
	}

	p := PropertiesFromMap(raw)

	assert.Equal(t, "2 years", p.Age)
	assert.Equal(t, "female", p.Sex)
	assert.Equal(t, "medium", p.Size)
	assert.Equal(t, "very good dog", p.Description)
	assert.Equal(t, "https://example.org/nata.jpg", p.ImageURL)
	assert.Equal(t, "brown", p.Extra["color"])
	assert.Equal(t, 12.5, p.Extra["weight_kg"])
}

func TestPropertiesFromMap_WrongTypeGoesToExtra(t *testing.T) {
	// A scraper bug shipping a dict where a string belongs must not panic
	// or silently drop data.
	p := PropertiesFromMap(map[string]any{
		"age": map[string]any{"value": 2, "unit": "years"},
	})

	assert.Empty(t, p.Age)
	require.Contains(t, p.Extra, "age")
}

func TestAnimal_IsPinned(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-48 * time.Hour)

	tests := []struct {
		name      string
		check     *AdoptionCheckData
		checkedAt *time.Time
		pinWindow time.Duration
		want      bool
	}{
		{"no check data", nil, nil, 0, false},
		{"check without correction", &AdoptionCheckData{CheckedBy: "op-1"}, &now, 0, false},
		{"correction pins indefinitely", &AdoptionCheckData{ManualCorrection: "died in fire"}, &earlier, 0, true},
		{"correction within window", &AdoptionCheckData{ManualCorrection: "page deleted"}, &earlier, 72 * time.Hour, true},
		{"correction outside window", &AdoptionCheckData{ManualCorrection: "page deleted"}, &earlier, 24 * time.Hour, false},
		{"correction with no timestamp stays pinned", &AdoptionCheckData{ManualCorrection: "x"}, nil, 24 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Animal{AdoptionCheck: tt.check, AdoptionCheckedAt: tt.checkedAt}
			assert.Equal(t, tt.want, a.IsPinned(now, tt.pinWindow))
		})
	}
}

func TestAnimal_Validate(t *testing.T) {
	valid := &Animal{
		Entity:                 Entity{ID: "animal-1"},
		Status:                 StatusAvailable,
		AvailabilityConfidence: ConfidenceHigh,
	}
	require.NoError(t, valid.Validate())

	negative := &Animal{
		Entity:                    Entity{ID: "animal-2"},
		Status:                    StatusAvailable,
		AvailabilityConfidence:    ConfidenceLow,
		ConsecutiveScrapesMissing: -1,
	}
	assert.Error(t, negative.Validate())

	badStatus := &Animal{
		Entity:                 Entity{ID: "animal-3"},
		Status:                 Status("euthanized"),
		AvailabilityConfidence: ConfidenceHigh,
	}
	assert.Error(t, badStatus.Validate())

	badConfidence := &Animal{
		Entity:                 Entity{ID: "animal-4"},
		Status:                 StatusAvailable,
		AvailabilityConfidence: Confidence("absolute"),
	}
	assert.Error(t, badConfidence.Validate())

	// high confidence requires a zero miss counter
	inconsistent := &Animal{
		Entity:                    Entity{ID: "animal-5"},
		Status:                    StatusAvailable,
		AvailabilityConfidence:    ConfidenceHigh,
		ConsecutiveScrapesMissing: 2,
	}
	assert.Error(t, inconsistent.Validate())
}

func TestStatusAndConfidenceValid(t *testing.T) {
	assert.True(t, StatusAvailable.Valid())
	assert.True(t, StatusUnknown.Valid())
	assert.True(t, StatusAdopted.Valid())
	assert.False(t, Status("").Valid())

	assert.True(t, ConfidenceHigh.Valid())
	assert.True(t, ConfidenceMedium.Valid())
	assert.True(t, ConfidenceLow.Valid())
	assert.False(t, Confidence("").Valid())
}
