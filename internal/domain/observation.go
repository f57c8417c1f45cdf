package domain

// Observation is one raw scraped record for one external ID in one run,
// exactly as delivered by a scraper collaborator. No transport is implied.
type Observation struct {
	ExternalID string         `json:"external_id"`
	Attributes map[string]any `json:"attributes"`
}

// Name extracts the animal name from the attribute bag, if present.
func (o *Observation) Name() string {
	return o.stringAttr("name")
}

// Breed extracts the primary breed from the attribute bag, if present.
func (o *Observation) Breed() string {
	return o.stringAttr("breed")
}

// SecondaryBreed extracts the secondary breed from the attribute bag, if present.
func (o *Observation) SecondaryBreed() string {
	return o.stringAttr("secondary_breed")
}

func (o *Observation) stringAttr(key string) string {
	if o.Attributes == nil {
		return ""
	}
	if s, ok := o.Attributes[key].(string); ok {
		return s
	}
	return ""
}
