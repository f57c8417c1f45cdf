package search

import (
	"context"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures an animal search.
type Params struct {
	Query          string
	OrganizationID string // exact filter, empty = all organizations
	Status         string // exact filter, empty = all statuses

	Limit  int
	Offset int
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{Limit: 20}
}

// Result is one page of search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit is a single matching animal.
type Hit struct {
	ID             string  `json:"id"`
	Score          float64 `json:"score"`
	Name           string  `json:"name"`
	Breed          string  `json:"breed,omitempty"`
	OrganizationID string  `json:"organization_id"`
	Status         string  `json:"status"`
	Confidence     string  `json:"confidence"`
}

// Search executes a query over the animal index.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 20
	}

	searchRequest := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	searchRequest.Fields = []string{"name", "breed", "organization_id", "status", "confidence"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}
	for _, hit := range searchResult.Hits {
		result.Hits = append(result.Hits, Hit{
			ID:             hit.ID,
			Score:          hit.Score,
			Name:           stringField(hit.Fields, "name"),
			Breed:          stringField(hit.Fields, "breed"),
			OrganizationID: stringField(hit.Fields, "organization_id"),
			Status:         stringField(hit.Fields, "status"),
			Confidence:     stringField(hit.Fields, "confidence"),
		})
	}
	return result, nil
}

func buildQuery(params Params) query.Query {
	var must []query.Query

	q := strings.TrimSpace(params.Query)
	if q == "" {
		must = append(must, bleve.NewMatchAllQuery())
	} else {
		// Match on name, breeds and description; prefix helps partially
		// typed names.
		match := bleve.NewMatchQuery(q)
		match.SetFuzziness(1)

		prefix := bleve.NewPrefixQuery(strings.ToLower(q))
		prefix.SetField("name")

		must = append(must, bleve.NewDisjunctionQuery(match, prefix))
	}

	if params.OrganizationID != "" {
		term := bleve.NewTermQuery(params.OrganizationID)
		term.SetField("organization_id")
		must = append(must, term)
	}
	if params.Status != "" {
		term := bleve.NewTermQuery(params.Status)
		term.SetField("status")
		must = append(must, term)
	}

	if len(must) == 1 {
		return must[0]
	}
	return bleve.NewConjunctionQuery(must...)
}

func stringField(fields map[string]any, name string) string {
	if s, ok := fields[name].(string); ok {
		return s
	}
	return ""
}
