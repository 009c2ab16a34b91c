package search

import (
	"fmt"

	"github.com/meilisearch/meilisearch-go"

	"github.com/masahu84/Korvalia-backend/internal/emblematic"
	"github.com/masahu84/Korvalia-backend/internal/models"
)

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  "site_properties",
	}
}

// PropertyDocument is the flattened shape indexed for full-text search over
// the managed catalog.
type PropertyDocument struct {
	ID           uint     `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Slug         string   `json:"slug"`
	Operation    string   `json:"operation"`
	PropertyType string   `json:"property_type"`
	Price        float64  `json:"price"`
	City         string   `json:"city"`
	CitySlug     string   `json:"city_slug"`
	Neighborhood string   `json:"neighborhood"`
	Bedrooms     *int     `json:"bedrooms,omitempty"`
	Bathrooms    *int     `json:"bathrooms,omitempty"`
	AreaM2       *float64 `json:"area_m2,omitempty"`
	Status       string   `json:"status"`
	IsFeatured   bool     `json:"is_featured"`
	Image        string   `json:"image,omitempty"`
	CreatedAt    int64    `json:"created_at"`
}

// DocumentFromProperty flattens a listing for indexing. Descriptions are
// reduced to a plain-text excerpt so HTML markup never pollutes search
// ranking.
func DocumentFromProperty(p *models.SiteProperty) PropertyDocument {
	doc := PropertyDocument{
		ID:           p.ID,
		Title:        p.Title,
		Description:  emblematic.DescriptionExcerpt(p.Description, 500),
		Slug:         p.Slug,
		Operation:    p.Operation,
		PropertyType: p.PropertyType,
		Price:        p.Price,
		Neighborhood: p.Neighborhood,
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		AreaM2:       p.AreaM2,
		Status:       string(p.Status),
		IsFeatured:   p.IsFeatured,
		Image:        p.PrimaryImage(),
		CreatedAt:    p.CreatedAt.Unix(),
	}
	if p.City != nil {
		doc.City = p.City.Name
		doc.CitySlug = p.City.Slug
	}
	return doc
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"title",
		"description",
		"city",
		"neighborhood",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"id",
		"operation",
		"property_type",
		"price",
		"city_slug",
		"bedrooms",
		"bathrooms",
		"area_m2",
		"status",
		"is_featured",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"price",
		"area_m2",
		"created_at",
	})
	if err != nil {
		return err
	}

	return nil
}

// IndexProperty indexes a single listing
func (s *SearchClient) IndexProperty(property *models.SiteProperty) error {
	_, err := s.client.Index(s.index).AddDocuments([]PropertyDocument{DocumentFromProperty(property)})
	return err
}

// IndexProperties indexes a batch of listings
func (s *SearchClient) IndexProperties(properties []models.SiteProperty) error {
	if len(properties) == 0 {
		return nil
	}
	docs := make([]PropertyDocument, 0, len(properties))
	for i := range properties {
		docs = append(docs, DocumentFromProperty(&properties[i]))
	}
	_, err := s.client.Index(s.index).AddDocuments(docs)
	return err
}

// RemoveProperty drops a listing from the index
func (s *SearchClient) RemoveProperty(id uint) error {
	_, err := s.client.Index(s.index).DeleteDocument(fmt.Sprintf("%d", id))
	return err
}

// SearchRequest represents advanced search parameters
type SearchRequest struct {
	Query  string
	Limit  int64
	Offset int64
	Filter []string
	Sort   []string
	Facets []string
}

// SearchResult represents search results with facets
type SearchResult struct {
	Hits           []PropertyDocument
	TotalHits      int64
	Facets         map[string]interface{}
	ProcessingTime int64
}

// Search searches listings with basic options
func (s *SearchClient) Search(query string, limit int64) ([]PropertyDocument, error) {
	result, err := s.AdvancedSearch(SearchRequest{
		Query: query,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	return result.Hits, nil
}

// AdvancedSearch performs filtered, faceted search over the catalog
func (s *SearchClient) AdvancedSearch(req SearchRequest) (*SearchResult, error) {
	if req.Limit == 0 {
		req.Limit = 20
	}

	searchReq := &meilisearch.SearchRequest{
		Limit:  req.Limit,
		Offset: req.Offset,
	}

	if len(req.Filter) > 0 {
		filterStr := ""
		for i, f := range req.Filter {
			if i > 0 {
				filterStr += " AND "
			}
			filterStr += f
		}
		searchReq.Filter = filterStr
	}

	if len(req.Sort) > 0 {
		searchReq.Sort = req.Sort
	}

	if len(req.Facets) > 0 {
		searchReq.Facets = req.Facets
	}

	searchRes, err := s.client.Index(s.index).Search(req.Query, searchReq)
	if err != nil {
		return nil, err
	}

	documents := make([]PropertyDocument, 0, len(searchRes.Hits))
	for _, hit := range searchRes.Hits {
		documents = append(documents, parseDocumentFromHit(hit))
	}

	var facets map[string]interface{}
	if searchRes.FacetDistribution != nil {
		facets, _ = searchRes.FacetDistribution.(map[string]interface{})
	}

	return &SearchResult{
		Hits:           documents,
		TotalHits:      searchRes.EstimatedTotalHits,
		Facets:         facets,
		ProcessingTime: searchRes.ProcessingTimeMs,
	}, nil
}

// parseDocumentFromHit converts a search hit back to a document
func parseDocumentFromHit(hit interface{}) PropertyDocument {
	hitMap, ok := hit.(map[string]interface{})
	if !ok {
		return PropertyDocument{}
	}

	doc := PropertyDocument{
		Title:        getString(hitMap, "title"),
		Description:  getString(hitMap, "description"),
		Slug:         getString(hitMap, "slug"),
		Operation:    getString(hitMap, "operation"),
		PropertyType: getString(hitMap, "property_type"),
		City:         getString(hitMap, "city"),
		CitySlug:     getString(hitMap, "city_slug"),
		Neighborhood: getString(hitMap, "neighborhood"),
		Status:       getString(hitMap, "status"),
		Image:        getString(hitMap, "image"),
	}

	if id, ok := hitMap["id"].(float64); ok {
		doc.ID = uint(id)
	}
	if price, ok := hitMap["price"].(float64); ok {
		doc.Price = price
	}
	if bedrooms, ok := hitMap["bedrooms"].(float64); ok {
		n := int(bedrooms)
		doc.Bedrooms = &n
	}
	if bathrooms, ok := hitMap["bathrooms"].(float64); ok {
		n := int(bathrooms)
		doc.Bathrooms = &n
	}
	if area, ok := hitMap["area_m2"].(float64); ok {
		doc.AreaM2 = &area
	}
	if featured, ok := hitMap["is_featured"].(bool); ok {
		doc.IsFeatured = featured
	}
	if created, ok := hitMap["created_at"].(float64); ok {
		doc.CreatedAt = int64(created)
	}

	return doc
}

// getString safely extracts a string from map
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

// GetFacets retrieves facet distribution for specified fields
func (s *SearchClient) GetFacets(facets []string) (map[string]interface{}, error) {
	searchRes, err := s.client.Index(s.index).Search("", &meilisearch.SearchRequest{
		Limit:  0,
		Facets: facets,
	})
	if err != nil {
		return nil, err
	}

	if searchRes.FacetDistribution != nil {
		if facetMap, ok := searchRes.FacetDistribution.(map[string]interface{}); ok {
			return facetMap, nil
		}
	}
	return map[string]interface{}{}, nil
}
