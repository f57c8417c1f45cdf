package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"fmt"

	"github.com/shelterscout/shelterscout-server/internal/domain"
	"github.com/shelterscout/shelterscout-server/internal/store"
)

// orgColumns is the ordered list of columns selected in organization queries.
// Must match the scan order in scanOrganization.
const orgColumns = `id, created_at, updated_at, name, slug, website_url,
	active, service_regions, total_animals, new_this_week`

// scanOrganization scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Organization.
func scanOrganization(scanner interface{ Scan(dest ...any) error }) (*domain.Organization, error) {
	var o domain.Organization

	var (
		createdAt  string
		updatedAt  string
		websiteURL sql.NullString
		active     int
		regions    string
	)

	err := scanner.Scan(
		&o.ID,
		&createdAt,
		&updatedAt,
		&o.Name,
		&o.Slug,
		&websiteURL,
		&active,
		&regions,
		&o.TotalAnimals,
		&o.NewThisWeek,
	)
	if err != nil {
		return nil, err
	}

	o.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	o.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	if websiteURL.Valid {
		o.WebsiteURL = websiteURL.String
	}
	o.Active = active != 0

	if regions != "" && regions != "[]" {
		if err := json.Unmarshal([]byte(regions), &o.ServiceRegions); err != nil {
			return nil, fmt.Errorf("parse service_regions for org %s: %w", o.ID, err)
		}
	}

	return &o, nil
}

// CreateOrganization inserts a new organization.
// Returns store.ErrAlreadyExists if the slug is taken.
func (s *Store) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	return createOrganization(ctx, s.db, org)
}

func createOrganization(ctx context.Context, q queryer, org *domain.Organization) error {
	regions, err := json.Marshal(org.ServiceRegions)
	if err != nil {
		return fmt.Errorf("marshal service_regions: %w", err)
	}
	if org.ServiceRegions == nil {
		regions = []byte("[]")
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO organizations (id, created_at, updated_at, name, slug,
			website_url, active, service_regions, total_animals, new_this_week)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		org.ID,
		formatTime(org.CreatedAt),
		formatTime(org.UpdatedAt),
		org.Name,
		org.Slug,
		nullString(org.WebsiteURL),
		boolToInt(org.Active),
		string(regions),
		org.TotalAnimals,
		org.NewThisWeek,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithCause(err)
		}
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

// GetOrganization retrieves an organization by ID.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	return getOrganization(ctx, s.db, id)
}

func getOrganization(ctx context.Context, q queryer, id string) (*domain.Organization, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE id = ?`, id)
	org, err := scanOrganization(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get organization %s: %w", id, err)
	}
	return org, nil
}

// GetOrganizationBySlug retrieves an organization by its URL slug.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetOrganizationBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE slug = ?`, slug)
	org, err := scanOrganization(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get organization by slug %s: %w", slug, err)
	}
	return org, nil
}

// ListOrganizations returns all organizations, active first, then by name.
func (s *Store) ListOrganizations(ctx context.Context) ([]*domain.Organization, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orgColumns+` FROM organizations ORDER BY active DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*domain.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// UpdateOrganization updates an organization's mutable fields.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) UpdateOrganization(ctx context.Context, org *domain.Organization) error {
	regions, err := json.Marshal(org.ServiceRegions)
	if err != nil {
		return fmt.Errorf("marshal service_regions: %w", err)
	}
	if org.ServiceRegions == nil {
		regions = []byte("[]")
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE organizations
		SET updated_at = ?, name = ?, slug = ?, website_url = ?, active = ?,
			service_regions = ?
		WHERE id = ?`,
		formatTime(org.UpdatedAt),
		org.Name,
		org.Slug,
		nullString(org.WebsiteURL),
		boolToInt(org.Active),
		string(regions),
		org.ID,
	)
	if err != nil {
		return fmt.Errorf("update organization %s: %w", org.ID, err)
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

// UpdateOrganizationCounters refreshes the denormalized animal counters after
// a reconciliation pass, inside the same transaction as the pass itself.
func (tx *Tx) UpdateOrganizationCounters(ctx context.Context, orgID string, totalAnimals, newThisWeek int) error {
	result, err := tx.tx.ExecContext(ctx, `
		UPDATE organizations
		SET total_animals = ?, new_this_week = ?
		WHERE id = ?`,
		totalAnimals, newThisWeek, orgID,
	)
	if err != nil {
		return fmt.Errorf("update counters for organization %s: %w", orgID, err)
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

// GetOrganization retrieves an organization inside the transaction.
func (tx *Tx) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	return getOrganization(ctx, tx.tx, id)
}
