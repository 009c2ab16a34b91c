package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meilisearch/meilisearch-go"
)

type FilterParams struct {
	Query         string
	Operation     string
	PropertyTypes []string
	CitySlug      string
	MinPrice      *float64
	MaxPrice      *float64
	MinBedrooms   *int
	FeaturedOnly  bool
	SortBy        string
	Limit         int64
}

// FilterSearch performs advanced search with structured filters. Only
// ACTIVE listings are returned regardless of the parameters.
func (s *SearchClient) FilterSearch(params FilterParams) ([]PropertyDocument, error) {
	filters := []string{"status = 'ACTIVE'"}

	if params.Operation != "" {
		filters = append(filters, fmt.Sprintf("operation = '%s'", params.Operation))
	}

	if len(params.PropertyTypes) > 0 {
		typeFilters := make([]string, len(params.PropertyTypes))
		for i, t := range params.PropertyTypes {
			typeFilters[i] = fmt.Sprintf("property_type = '%s'", t)
		}
		filters = append(filters, fmt.Sprintf("(%s)", strings.Join(typeFilters, " OR ")))
	}

	if params.CitySlug != "" {
		filters = append(filters, fmt.Sprintf("city_slug = '%s'", params.CitySlug))
	}

	// Price range filter
	if params.MinPrice != nil {
		filters = append(filters, fmt.Sprintf("price >= %.0f", *params.MinPrice))
	}
	if params.MaxPrice != nil {
		filters = append(filters, fmt.Sprintf("price <= %.0f", *params.MaxPrice))
	}

	if params.MinBedrooms != nil {
		filters = append(filters, fmt.Sprintf("bedrooms >= %d", *params.MinBedrooms))
	}

	if params.FeaturedOnly {
		filters = append(filters, "is_featured = true")
	}

	var sort []string
	if params.SortBy != "" {
		sort = []string{params.SortBy}
	}

	if params.Limit == 0 {
		params.Limit = 20
	}

	searchReq := &meilisearch.SearchRequest{
		Limit:  params.Limit,
		Filter: strings.Join(filters, " AND "),
	}

	if len(sort) > 0 {
		searchReq.Sort = sort
	}

	searchRes, err := s.client.Index(s.index).Search(params.Query, searchReq)
	if err != nil {
		return nil, err
	}

	// Convert hits to documents
	var documents []PropertyDocument
	for _, hit := range searchRes.Hits {
		hitJSON, err := json.Marshal(hit)
		if err != nil {
			continue
		}

		var doc PropertyDocument
		if err := json.Unmarshal(hitJSON, &doc); err != nil {
			continue
		}

		documents = append(documents, doc)
	}

	return documents, nil
}
