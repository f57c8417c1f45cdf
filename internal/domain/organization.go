package domain

// Organization is a rescue source whose listings are aggregated.
type Organization struct {
	Entity
	Name           string   `json:"name"`
	Slug           string   `json:"slug"`
	WebsiteURL     string   `json:"website_url,omitempty"`
	Active         bool     `json:"active"`
	ServiceRegions []string `json:"service_regions,omitempty"`

	// Aggregate counters, refreshed after each successful reconciliation pass.
	TotalAnimals int `json:"total_animals"`
	NewThisWeek  int `json:"new_this_week"`
}

// Disable soft-disables the organization. Rows are kept; scrapers stop feeding it.
func (o *Organization) Disable() {
	o.Active = false
	o.Touch()
}
