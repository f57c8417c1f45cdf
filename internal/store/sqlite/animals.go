package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"fmt"
	"time"

	"github.com/shelterscout/shelterscout-server/internal/domain"
	"github.com/shelterscout/shelterscout-server/internal/store"
)

// animalColumns is the ordered list of columns selected in animal queries.
// Must match the scan order in scanAnimal.
const animalColumns = `id, created_at, updated_at, organization_id, external_id,
	name, breed, secondary_breed, slug, status, properties,
	last_seen_at, consecutive_scrapes_missing, availability_confidence,
	adoption_check_data, adoption_checked_at, version`

// scanAnimal scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Animal. Images are loaded separately.
func scanAnimal(scanner interface{ Scan(dest ...any) error }) (*domain.Animal, error) {
	var a domain.Animal

	var (
		createdAt      string
		updatedAt      string
		breed          sql.NullString
		secondaryBreed sql.NullString
		properties     string
		lastSeenAt     string
		checkData      sql.NullString
		checkedAt      sql.NullString
	)

	err := scanner.Scan(
		&a.ID,
		&createdAt,
		&updatedAt,
		&a.OrganizationID,
		&a.ExternalID,
		&a.Name,
		&breed,
		&secondaryBreed,
		&a.Slug,
		&a.Status,
		&properties,
		&lastSeenAt,
		&a.ConsecutiveScrapesMissing,
		&a.AvailabilityConfidence,
		&checkData,
		&checkedAt,
		&a.Version,
	)
	if err != nil {
		return nil, err
	}

	a.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	a.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	a.LastSeenAt, err = parseTime(lastSeenAt)
	if err != nil {
		return nil, err
	}
	a.AdoptionCheckedAt, err = parseNullableTime(checkedAt)
	if err != nil {
		return nil, err
	}

	if breed.Valid {
		a.Breed = breed.String
	}
	if secondaryBreed.Valid {
		a.SecondaryBreed = secondaryBreed.String
	}

	if properties != "" && properties != "{}" {
		if err := json.Unmarshal([]byte(properties), &a.Properties); err != nil {
			return nil, fmt.Errorf("parse properties for animal %s: %w", a.ID, err)
		}
	}
	if checkData.Valid && checkData.String != "" {
		var d domain.AdoptionCheckData
		if err := json.Unmarshal([]byte(checkData.String), &d); err != nil {
			return nil, fmt.Errorf("parse adoption_check_data for animal %s: %w", a.ID, err)
		}
		a.AdoptionCheck = &d
	}

	return &a, nil
}

func marshalProperties(p domain.Properties) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal properties: %w", err)
	}
	return string(data), nil
}

func marshalCheckData(d *domain.AdoptionCheckData) (sql.NullString, error) {
	if d == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal adoption_check_data: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// CreateAnimal inserts a new animal row.
// Returns store.ErrAlreadyExists if (organization_id, external_id) is taken.
func (s *Store) CreateAnimal(ctx context.Context, animal *domain.Animal) error {
	if err := createAnimal(ctx, s.db, animal); err != nil {
		return err
	}
	if err := s.indexer.IndexAnimal(animal); err != nil {
		s.logger.Warn("index animal", "animal_id", animal.ID, "error", err)
	}
	return nil
}

// CreateAnimal inserts a new animal inside the transaction. The search index
// update is deferred until the transaction commits.
func (tx *Tx) CreateAnimal(ctx context.Context, animal *domain.Animal) error {
	if err := createAnimal(ctx, tx.tx, animal); err != nil {
		return err
	}
	tx.pendingIndex = append(tx.pendingIndex, animal)
	return nil
}

func createAnimal(ctx context.Context, q queryer, animal *domain.Animal) error {
	props, err := marshalProperties(animal.Properties)
	if err != nil {
		return err
	}
	checkData, err := marshalCheckData(animal.AdoptionCheck)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO animals (id, created_at, updated_at, organization_id,
			external_id, name, breed, secondary_breed, slug, status, properties,
			last_seen_at, consecutive_scrapes_missing, availability_confidence,
			adoption_check_data, adoption_checked_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		animal.ID,
		formatTime(animal.CreatedAt),
		formatTime(animal.UpdatedAt),
		animal.OrganizationID,
		animal.ExternalID,
		animal.Name,
		nullString(animal.Breed),
		nullString(animal.SecondaryBreed),
		animal.Slug,
		string(animal.Status),
		props,
		formatTime(animal.LastSeenAt),
		animal.ConsecutiveScrapesMissing,
		string(animal.AvailabilityConfidence),
		checkData,
		nullTimeString(animal.AdoptionCheckedAt),
		animal.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithCause(err)
		}
		return fmt.Errorf("insert animal: %w", err)
	}
	return nil
}

// GetAnimal retrieves an animal by ID, with its images.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetAnimal(ctx context.Context, id string) (*domain.Animal, error) {
	animal, err := getAnimal(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	animal.Images, err = listAnimalImages(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return animal, nil
}

func getAnimal(ctx context.Context, q queryer, id string) (*domain.Animal, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+animalColumns+` FROM animals WHERE id = ?`, id)
	animal, err := scanAnimal(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get animal %s: %w", id, err)
	}
	return animal, nil
}

// GetAnimal retrieves an animal inside the transaction.
func (tx *Tx) GetAnimal(ctx context.Context, id string) (*domain.Animal, error) {
	return getAnimal(ctx, tx.tx, id)
}

// GetAnimalBySlug retrieves an animal by its URL slug.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetAnimalBySlug(ctx context.Context, slug string) (*domain.Animal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+animalColumns+` FROM animals WHERE slug = ?`, slug)
	animal, err := scanAnimal(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get animal by slug %s: %w", slug, err)
	}
	animal.Images, err = listAnimalImages(ctx, s.db, animal.ID)
	if err != nil {
		return nil, err
	}
	return animal, nil
}

// GetAnimalByExternalID retrieves an animal by its per-organization external ID.
// Returns store.ErrNotFound if it does not exist.
func (tx *Tx) GetAnimalByExternalID(ctx context.Context, orgID, externalID string) (*domain.Animal, error) {
	row := tx.tx.QueryRowContext(ctx,
		`SELECT `+animalColumns+` FROM animals WHERE organization_id = ? AND external_id = ?`,
		orgID, externalID)
	animal, err := scanAnimal(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get animal by external id %s/%s: %w", orgID, externalID, err)
	}
	return animal, nil
}

// ListAnimalsByOrganization returns an organization's animals, optionally
// filtered by status, newest first.
func (s *Store) ListAnimalsByOrganization(ctx context.Context, orgID string, status domain.Status) ([]*domain.Animal, error) {
	query := `SELECT ` + animalColumns + ` FROM animals WHERE organization_id = ?`
	args := []any{orgID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list animals for organization %s: %w", orgID, err)
	}
	defer rows.Close()
	return collectAnimals(rows)
}

// ListActiveAnimals returns the organization's animals whose status is not a
// terminal one. This is the previously-known-active set a reconciliation pass
// diffs observations against; adopted animals are out of play.
func (tx *Tx) ListActiveAnimals(ctx context.Context, orgID string) ([]*domain.Animal, error) {
	rows, err := tx.tx.QueryContext(ctx, `
		SELECT `+animalColumns+` FROM animals
		WHERE organization_id = ? AND status != ?`,
		orgID, string(domain.StatusAdopted))
	if err != nil {
		return nil, fmt.Errorf("list active animals for organization %s: %w", orgID, err)
	}
	defer rows.Close()
	return collectAnimals(rows)
}

func collectAnimals(rows *sql.Rows) ([]*domain.Animal, error) {
	var animals []*domain.Animal
	for rows.Next() {
		animal, err := scanAnimal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan animal: %w", err)
		}
		animals = append(animals, animal)
	}
	return animals, rows.Err()
}

// UpdateAnimalAttributes overwrites the scraped attribute fields. It is
// unconditional: freshly observed attributes always win, pinned or not.
func (tx *Tx) UpdateAnimalAttributes(ctx context.Context, animal *domain.Animal) error {
	props, err := marshalProperties(animal.Properties)
	if err != nil {
		return err
	}

	result, err := tx.tx.ExecContext(ctx, `
		UPDATE animals
		SET updated_at = ?, name = ?, breed = ?, secondary_breed = ?,
			slug = ?, properties = ?
		WHERE id = ?`,
		formatTime(animal.UpdatedAt),
		animal.Name,
		nullString(animal.Breed),
		nullString(animal.SecondaryBreed),
		animal.Slug,
		props,
		animal.ID,
	)
	if err != nil {
		return fmt.Errorf("update animal attributes %s: %w", animal.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	tx.pendingIndex = append(tx.pendingIndex, animal)
	return nil
}

// UpdateAnimalPresence writes the presence-tracking state (status, confidence,
// miss counter, last-seen timestamp) guarded by the optimistic version the
// caller read. Returns store.ErrVersionConflict when another writer, such as a
// manual override, bumped the version in between; the caller must re-read and
// reconsider before retrying.
func (tx *Tx) UpdateAnimalPresence(ctx context.Context, animal *domain.Animal) error {
	result, err := tx.tx.ExecContext(ctx, `
		UPDATE animals
		SET updated_at = ?, status = ?, availability_confidence = ?,
			consecutive_scrapes_missing = ?, last_seen_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		formatTime(animal.UpdatedAt),
		string(animal.Status),
		string(animal.AvailabilityConfidence),
		animal.ConsecutiveScrapesMissing,
		formatTime(animal.LastSeenAt),
		animal.ID,
		animal.Version,
	)
	if err != nil {
		return fmt.Errorf("update animal presence %s: %w", animal.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrVersionConflict
	}
	animal.Version++
	tx.pendingIndex = append(tx.pendingIndex, animal)
	return nil
}

// TouchAnimalLastSeen records a sighting without going through the versioned
// presence write. Used for pinned animals, whose status and confidence are
// frozen but whose presence is still a fact worth recording.
func (tx *Tx) TouchAnimalLastSeen(ctx context.Context, animalID string, seenAt time.Time) error {
	result, err := tx.tx.ExecContext(ctx, `
		UPDATE animals SET last_seen_at = ? WHERE id = ?`,
		formatTime(seenAt), animalID)
	if err != nil {
		return fmt.Errorf("touch last_seen for animal %s: %w", animalID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ApplyManualOverride records an operator correction: new status, the
// correction ledger, and a version bump so any in-flight reconciliation pass
// loses its conditional status write.
func (s *Store) ApplyManualOverride(ctx context.Context, animal *domain.Animal) error {
	checkData, err := marshalCheckData(animal.AdoptionCheck)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE animals
		SET updated_at = ?, status = ?, availability_confidence = ?,
			consecutive_scrapes_missing = ?, adoption_check_data = ?,
			adoption_checked_at = ?, version = version + 1
		WHERE id = ?`,
		formatTime(animal.UpdatedAt),
		string(animal.Status),
		string(animal.AvailabilityConfidence),
		animal.ConsecutiveScrapesMissing,
		checkData,
		nullTimeString(animal.AdoptionCheckedAt),
		animal.ID,
	)
	if err != nil {
		return fmt.Errorf("apply override to animal %s: %w", animal.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	animal.Version++

	if err := s.indexer.IndexAnimal(animal); err != nil {
		s.logger.Warn("index animal after override", "animal_id", animal.ID, "error", err)
	}
	return nil
}

// CountActiveAnimals counts the organization's non-terminal animals.
func (tx *Tx) CountActiveAnimals(ctx context.Context, orgID string) (int, error) {
	var n int
	err := tx.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM animals
		WHERE organization_id = ? AND status != ?`,
		orgID, string(domain.StatusAdopted)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active animals for organization %s: %w", orgID, err)
	}
	return n, nil
}

// CountAnimalsCreatedSince counts the organization's animals first seen at or
// after the cutoff.
func (tx *Tx) CountAnimalsCreatedSince(ctx context.Context, orgID string, cutoff time.Time) (int, error) {
	var n int
	err := tx.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM animals
		WHERE organization_id = ? AND created_at >= ?`,
		orgID, formatTime(cutoff)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count new animals for organization %s: %w", orgID, err)
	}
	return n, nil
}

// ReplaceAnimalImages swaps the animal's image rows for the given set.
func (tx *Tx) ReplaceAnimalImages(ctx context.Context, animalID string, images []domain.AnimalImage) error {
	if _, err := tx.tx.ExecContext(ctx,
		`DELETE FROM animal_images WHERE animal_id = ?`, animalID); err != nil {
		return fmt.Errorf("clear images for animal %s: %w", animalID, err)
	}
	for _, img := range images {
		if _, err := tx.tx.ExecContext(ctx, `
			INSERT INTO animal_images (id, animal_id, url, position)
			VALUES (?, ?, ?, ?)`,
			img.ID, animalID, img.URL, img.Position); err != nil {
			return fmt.Errorf("insert image for animal %s: %w", animalID, err)
		}
	}
	return nil
}

func listAnimalImages(ctx context.Context, q queryer, animalID string) ([]domain.AnimalImage, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, animal_id, url, position FROM animal_images
		WHERE animal_id = ? ORDER BY position`, animalID)
	if err != nil {
		return nil, fmt.Errorf("list images for animal %s: %w", animalID, err)
	}
	defer rows.Close()

	var images []domain.AnimalImage
	for rows.Next() {
		var img domain.AnimalImage
		if err := rows.Scan(&img.ID, &img.AnimalID, &img.URL, &img.Position); err != nil {
			return nil, fmt.Errorf("scan animal image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}
