package reconcile

import (
	"testing"
	"time"

	"github.com/shelterscout/shelterscout-server/internal/domain"
)

func defaultPolicy() Policy {
	return Policy{MediumAfter: 1, DemoteAfter: 3}
}

func TestPolicyValidate(t *testing.T) {
	if err := defaultPolicy().Validate(); err != nil {
		t.Errorf("default policy should validate: %v", err)
	}
	if err := (Policy{MediumAfter: 0, DemoteAfter: 3}).Validate(); err == nil {
		t.Error("zero medium threshold should fail")
	}
	if err := (Policy{MediumAfter: 3, DemoteAfter: 3}).Validate(); err == nil {
		t.Error("demotion threshold equal to medium should fail")
	}
}

func TestConfidenceFor(t *testing.T) {
	p := defaultPolicy()

	tests := []struct {
		misses int
		want   domain.Confidence
	}{
		{0, domain.ConfidenceHigh},
		{1, domain.ConfidenceMedium},
		{2, domain.ConfidenceMedium},
		{3, domain.ConfidenceLow},
		{4, domain.ConfidenceLow},
		{10, domain.ConfidenceLow},
	}
	for _, tt := range tests {
		got, err := p.ConfidenceFor(tt.misses)
		if err != nil {
			t.Errorf("ConfidenceFor(%d): %v", tt.misses, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ConfidenceFor(%d) = %q, want %q", tt.misses, got, tt.want)
		}
	}
}

func TestConfidenceForNegativeIsError(t *testing.T) {
	if _, err := defaultPolicy().ConfidenceFor(-1); err == nil {
		t.Error("negative miss count must be rejected, not clamped")
	}
}

func testAnimal(status domain.Status, misses int, confidence domain.Confidence) *domain.Animal {
	now := time.Now()
	return &domain.Animal{
		Entity: domain.Entity{
			ID:        "animal-1",
			CreatedAt: now,
			UpdatedAt: now,
		},
		OrganizationID:            "org-1",
		ExternalID:                "ext-1",
		Name:                      "Nata",
		Status:                    status,
		LastSeenAt:                now,
		ConsecutiveScrapesMissing: misses,
		AvailabilityConfidence:    confidence,
		Version:                   1,
	}
}

func TestMarkMissingProgression(t *testing.T) {
	p := defaultPolicy()
	now := time.Now()
	a := testAnimal(domain.StatusAvailable, 0, domain.ConfidenceHigh)

	steps := []struct {
		wantMisses     int
		wantConfidence domain.Confidence
		wantStatus     domain.Status
	}{
		{1, domain.ConfidenceMedium, domain.StatusAvailable},
		{2, domain.ConfidenceMedium, domain.StatusAvailable},
		{3, domain.ConfidenceLow, domain.StatusUnknown},
		{4, domain.ConfidenceLow, domain.StatusUnknown},
	}
	for i, step := range steps {
		if err := p.MarkMissing(a, now); err != nil {
			t.Fatalf("step %d: %v", i+1, err)
		}
		if a.ConsecutiveScrapesMissing != step.wantMisses {
			t.Errorf("step %d: misses = %d, want %d", i+1, a.ConsecutiveScrapesMissing, step.wantMisses)
		}
		if a.AvailabilityConfidence != step.wantConfidence {
			t.Errorf("step %d: confidence = %q, want %q", i+1, a.AvailabilityConfidence, step.wantConfidence)
		}
		if a.Status != step.wantStatus {
			t.Errorf("step %d: status = %q, want %q", i+1, a.Status, step.wantStatus)
		}
	}
}

func TestMarkMissingDemotesPastThreshold(t *testing.T) {
	p := defaultPolicy()
	now := time.Now()

	// A lowered demotion threshold can leave an available animal with a
	// counter already beyond it. The next miss must still demote.
	a := testAnimal(domain.StatusAvailable, 4, domain.ConfidenceLow)
	if err := p.MarkMissing(a, now); err != nil {
		t.Fatalf("MarkMissing: %v", err)
	}
	if a.ConsecutiveScrapesMissing != 5 {
		t.Errorf("misses = %d, want 5", a.ConsecutiveScrapesMissing)
	}
	if a.Status != domain.StatusUnknown {
		t.Errorf("status = %q, want unknown", a.Status)
	}
	if a.AvailabilityConfidence != domain.ConfidenceLow {
		t.Errorf("confidence = %q, want low", a.AvailabilityConfidence)
	}
}

func TestMarkMissingRejectsCorruptState(t *testing.T) {
	p := defaultPolicy()
	now := time.Now()

	corrupt := testAnimal(domain.StatusAvailable, -1, domain.ConfidenceHigh)
	if err := p.MarkMissing(corrupt, now); err == nil {
		t.Error("negative counter must surface as an error")
	}

	badConfidence := testAnimal(domain.StatusAvailable, 2, "suspicious")
	if err := p.MarkMissing(badConfidence, now); err == nil {
		t.Error("unknown confidence must surface as an error")
	}
}

func TestMarkObservedRecovers(t *testing.T) {
	p := defaultPolicy()
	now := time.Now()

	a := testAnimal(domain.StatusUnknown, 5, domain.ConfidenceLow)
	if err := p.MarkObserved(a, now); err != nil {
		t.Fatalf("MarkObserved: %v", err)
	}
	if a.ConsecutiveScrapesMissing != 0 {
		t.Errorf("misses = %d, want 0", a.ConsecutiveScrapesMissing)
	}
	if a.AvailabilityConfidence != domain.ConfidenceHigh {
		t.Errorf("confidence = %q, want high", a.AvailabilityConfidence)
	}
	if a.Status != domain.StatusAvailable {
		t.Errorf("status = %q, want available", a.Status)
	}
	if !a.LastSeenAt.Equal(now) {
		t.Errorf("LastSeenAt not updated")
	}
}

func TestMarkObservedLeavesAdoptedAlone(t *testing.T) {
	p := defaultPolicy()
	a := testAnimal(domain.StatusAdopted, 2, domain.ConfidenceMedium)
	if err := p.MarkObserved(a, time.Now()); err != nil {
		t.Fatalf("MarkObserved: %v", err)
	}
	if a.Status != domain.StatusAdopted {
		t.Errorf("status = %q, adopted is terminal for automated writes", a.Status)
	}
	if a.ConsecutiveScrapesMissing != 0 || a.AvailabilityConfidence != domain.ConfidenceHigh {
		t.Errorf("presence state should still reset: misses=%d confidence=%q",
			a.ConsecutiveScrapesMissing, a.AvailabilityConfidence)
	}
}
