// Package main provides a tool to seed the database with sample shelter data.
//
// It creates a few organizations and replays several scrape deliveries through
// the reconciler, including animals that vanish between deliveries, so the
// confidence decay and audit trail have realistic data to show.
//
// Usage:
//
//	DATA_PATH=~/shelterscout/data go run ./cmd/seed
//	DATA_PATH=~/shelterscout/data go run ./cmd/seed --passes 5
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shelterscout/shelterscout-server/internal/config"
	"github.com/shelterscout/shelterscout-server/internal/domain"
	"github.com/shelterscout/shelterscout-server/internal/id"
	"github.com/shelterscout/shelterscout-server/internal/logger"
	"github.com/shelterscout/shelterscout-server/internal/reconcile"
	"github.com/shelterscout/shelterscout-server/internal/slug"
	"github.com/shelterscout/shelterscout-server/internal/store/sqlite"
)

var passes = flag.Int("passes", 4, "Number of scrape deliveries to replay per organization")

var sampleOrgs = []struct {
	name    string
	website string
	regions []string
}{
	{"Happy Tails Rescue", "https://happytails.example.org", []string{"north", "east"}},
	{"Second Chance Shelter", "https://secondchance.example.org", []string{"south"}},
	{"Paws and Whiskers", "https://pawsandwhiskers.example.org", []string{"west", "central"}},
}

var sampleNames = []string{
	"Biscuit", "Shadow", "Luna", "Rex", "Daisy", "Milo", "Bella", "Charlie",
	"Pepper", "Rosie", "Gus", "Willow", "Scout", "Maple", "Ziggy", "Olive",
}

var sampleBreeds = []string{
	"Labrador Retriever", "Border Collie", "Beagle", "Domestic Shorthair",
	"German Shepherd", "Terrier Mix", "Siamese", "Hound Mix",
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/shelterscout/data")
	}

	fmt.Printf("Seeding data under: %s\n", dataPath)

	appLog := logger.New(logger.Config{Level: logger.ParseLevel("warn")})

	st, err := sqlite.Open(filepath.Join(dataPath, "shelterscout.db"), appLog.Logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	rec, err := reconcile.New(st, appLog, config.ReconcileConfig{
		MediumThreshold:   1,
		DemotionThreshold: 3,
		PassTimeout:       2 * time.Minute,
		QualityFloor:      0.5,
	})
	if err != nil {
		log.Fatalf("Failed to create reconciler: %v", err)
	}

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, sample := range sampleOrgs {
		org, err := ensureOrganization(ctx, st, sample.name, sample.website, sample.regions)
		if err != nil {
			log.Fatalf("Failed to create organization %q: %v", sample.name, err)
		}
		fmt.Printf("\nOrganization: %s (%s)\n", org.Name, org.ID)

		roster := buildRoster(rng, 6+rng.Intn(6))

		for pass := 0; pass < *passes; pass++ {
			observations := observeRoster(rng, roster, pass)
			run, err := rec.Pass(ctx, org.ID, observations)
			if err != nil {
				log.Fatalf("Reconcile pass failed for %s: %v", org.ID, err)
			}
			fmt.Printf("  pass %d: status=%s found=%d added=%d updated=%d quality=%.2f\n",
				pass+1, run.Status, run.AnimalsFound, run.AnimalsAdded, run.AnimalsUpdated, run.DataQualityScore)
		}

		animals, err := st.ListAnimalsByOrganization(ctx, org.ID, "")
		if err != nil {
			log.Fatalf("Failed to list animals: %v", err)
		}
		for _, a := range animals {
			fmt.Printf("  %-12s status=%-9s confidence=%-6s misses=%d\n",
				a.Name, a.Status, a.AvailabilityConfidence, a.ConsecutiveScrapesMissing)
		}
	}

	fmt.Println("\nDone.")
}

// ensureOrganization reuses an existing organization with the same slugged
// name, so re-running the seeder does not pile up duplicates.
func ensureOrganization(ctx context.Context, st *sqlite.Store, name, website string, regions []string) (*domain.Organization, error) {
	existing, err := st.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	for _, org := range existing {
		if org.Name == name {
			return org, nil
		}
	}

	orgID, err := id.Generate(id.PrefixOrganization)
	if err != nil {
		return nil, err
	}

	org := &domain.Organization{
		Name:           name,
		WebsiteURL:     website,
		Active:         true,
		ServiceRegions: regions,
	}
	org.ID = orgID
	org.Slug = slug.ForOrganization(name, orgID)
	org.InitTimestamps()

	if err := st.CreateOrganization(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

type rosterEntry struct {
	externalID string
	name       string
	breed      string
	// vanishAt is the pass index after which this animal stops appearing,
	// or -1 if it stays listed.
	vanishAt int
}

func buildRoster(rng *rand.Rand, size int) []rosterEntry {
	roster := make([]rosterEntry, 0, size)
	for i := 0; i < size; i++ {
		entry := rosterEntry{
			externalID: fmt.Sprintf("pet-%04d", rng.Intn(10000)),
			name:       sampleNames[rng.Intn(len(sampleNames))],
			breed:      sampleBreeds[rng.Intn(len(sampleBreeds))],
			vanishAt:   -1,
		}
		// Roughly a quarter of the roster disappears partway through.
		if rng.Intn(4) == 0 {
			entry.vanishAt = 1 + rng.Intn(2)
		}
		roster = append(roster, entry)
	}
	return roster
}

func observeRoster(rng *rand.Rand, roster []rosterEntry, pass int) []domain.Observation {
	observations := make([]domain.Observation, 0, len(roster))
	for _, entry := range roster {
		if entry.vanishAt >= 0 && pass >= entry.vanishAt {
			continue
		}
		attrs := map[string]any{
			"name":  entry.name,
			"breed": entry.breed,
		}
		// The occasional incomplete listing keeps quality scores interesting.
		if rng.Intn(10) == 0 {
			delete(attrs, "breed")
		}
		observations = append(observations, domain.Observation{
			ExternalID: entry.externalID,
			Attributes: attrs,
		})
	}
	return observations
}
