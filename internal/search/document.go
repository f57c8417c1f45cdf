// Package search provides full-text search over animals using Bleve.
package search

import (
	"github.com/shelterscout/shelterscout-server/internal/domain"
)

// Document is the indexed representation of an animal. Organization and
// status are denormalized so one query can filter without touching the store.
type Document struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Breed          string `json:"breed,omitempty"`
	SecondaryBreed string `json:"secondary_breed,omitempty"`
	Description    string `json:"description,omitempty"`
	Status         string `json:"status"`
	Confidence     string `json:"confidence"`
	UpdatedAt      int64  `json:"updated_at"` // Unix millis
}

// FromAnimal builds the index document for an animal.
func FromAnimal(a *domain.Animal) *Document {
	return &Document{
		ID:             a.ID,
		OrganizationID: a.OrganizationID,
		Name:           a.Name,
		Breed:          a.Breed,
		SecondaryBreed: a.SecondaryBreed,
		Description:    a.Properties.Description,
		Status:         string(a.Status),
		Confidence:     string(a.AvailabilityConfidence),
		UpdatedAt:      a.UpdatedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map with lowercase field names so they
// match the index mapping; Bleve would otherwise use the Go field names.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"id":              d.ID,
		"organization_id": d.OrganizationID,
		"name":            d.Name,
		"status":          d.Status,
		"confidence":      d.Confidence,
		"updated_at":      d.UpdatedAt,
	}
	if d.Breed != "" {
		m["breed"] = d.Breed
	}
	if d.SecondaryBreed != "" {
		m["secondary_breed"] = d.SecondaryBreed
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	return m
}
