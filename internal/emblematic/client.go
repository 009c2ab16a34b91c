package emblematic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Error taxonomy surfaced to callers. ErrNotFound is a soft outcome of the
// reference lookup, not an upstream failure; callers must treat it as a valid
// result.
var (
	ErrNotConfigured = errors.New("emblematic: API token not configured")
	ErrUnauthorized  = errors.New("emblematic: upstream rejected credentials")
	ErrRateLimited   = errors.New("emblematic: upstream rate limit exceeded")
	ErrNotFound      = errors.New("emblematic: offer not found")
	errCircuitOpen   = errors.New("emblematic: circuit breaker open")
)

// UpstreamError wraps any other non-success upstream response, preserving the
// status code for diagnostics. Transport and decode failures carry status 0.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("emblematic: upstream error %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("emblematic: upstream error: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ClientConfig configures the feed client.
type ClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is a typed, paginated client for the Emblematic CRM feed.
// It is stateless apart from the shared circuit breaker and safe for
// concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *circuitBreaker
}

const defaultBaseURL = "https://app.emblematic.es/api/v1"

func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    newCircuitBreaker(8, 5*time.Minute),
	}
}

// IsConfigured reports whether an upstream token is present. Checked before
// any network call so a misconfigured deployment fails fast and uniformly.
func (c *Client) IsConfigured() bool {
	return c.token != ""
}

// fetch performs one authenticated GET and decodes the JSON body into out.
// Array-valued params serialize as repeated key[] entries, matching the
// upstream's query convention.
func (c *Client) fetch(ctx context.Context, endpoint string, params map[string]interface{}, out interface{}) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if !c.breaker.canProceed() {
		return &UpstreamError{Err: errCircuitOpen}
	}

	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return &UpstreamError{Err: err}
	}

	q := u.Query()
	// Deterministic param order keeps request logs and test fixtures stable.
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := params[k].(type) {
		case []string:
			for _, item := range v {
				q.Add(k+"[]", item)
			}
		case []int:
			for _, item := range v {
				q.Add(k+"[]", strconv.Itoa(item))
			}
		case int:
			if v != 0 {
				q.Add(k, strconv.Itoa(v))
			}
		case string:
			if v != "" {
				q.Add(k, v)
			}
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &UpstreamError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	log.Printf("[Emblematic] GET %s", u.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Caller cancellation is not an upstream fault.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.breaker.recordFailure(0)
		return &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("[Emblematic] error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		c.breaker.recordFailure(resp.StatusCode)

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return ErrUnauthorized
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return &UpstreamError{Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.breaker.recordFailure(0)
		return &UpstreamError{Err: fmt.Errorf("decoding response: %w", err)}
	}

	c.breaker.recordSuccess()
	return nil
}

// CheckStatus verifies the upstream API is reachable with the current token.
func (c *Client) CheckStatus(ctx context.Context) (*StatusResponse, error) {
	var status StatusResponse
	if err := c.fetch(ctx, "/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Offers fetches one page of the raw listing with the given upstream filters.
func (c *Client) Offers(ctx context.Context, params SearchParams) (*OffersResponse, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}

	query := map[string]interface{}{
		"order_key":                params.OrderKey,
		"order_direction":          params.OrderDirection,
		"mode_id":                  params.ModeID,
		"type_id":                  params.TypeID,
		"subtype_id":               params.SubtypeID,
		"country_id":               params.CountryID,
		"region_id":                params.RegionID,
		"city_id":                  params.CityID,
		"zone_id":                  params.ZoneID,
		"feature_area_from":        params.AreaFrom,
		"feature_area_to":          params.AreaTo,
		"feature_area_built_from":  params.AreaBuiltFrom,
		"feature_area_built_to":    params.AreaBuiltTo,
		"feature_price_from":       params.PriceFrom,
		"feature_price_to":         params.PriceTo,
		"rooms":                    params.Rooms,
		"bathrooms":                params.Bathrooms,
	}
	if len(params.Reference) > 0 {
		query["reference"] = params.Reference
	}
	if len(params.Features) > 0 {
		query["features"] = params.Features
	}

	var resp OffersResponse
	if err := c.fetch(ctx, fmt.Sprintf("/offers/%d", page), query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Properties fetches one listing page and normalizes every offer on it.
func (c *Client) Properties(ctx context.Context, params SearchParams) (*PropertyPage, error) {
	resp, err := c.Offers(ctx, params)
	if err != nil {
		return nil, err
	}
	return normalizePage(resp), nil
}

func normalizePage(resp *OffersResponse) *PropertyPage {
	page := &PropertyPage{
		Total:       resp.Total,
		PerPage:     resp.PerPage,
		CurrentPage: resp.CurrentPage,
		LastPage:    resp.LastPage,
		Properties:  make([]Property, 0, len(resp.Offers)),
	}
	for i := range resp.Offers {
		page.Properties = append(page.Properties, NormalizeOffer(&resp.Offers[i]))
	}
	return page
}

// offerEnvelope covers the by-reference endpoint's habit of nesting the
// offer under different keys depending on the listing's state.
type offerEnvelope struct {
	Offer    *RawOffer `json:"offer"`
	Featured *RawOffer `json:"featured"`
}

// OfferByReference attempts the direct single-offer lookup. The direct
// endpoint returns a reduced shape for some listings; when the response
// lacks a title, or carries neither features nor address, the client falls
// back to scanning the paginated listing, whose records are complete.
func (c *Client) OfferByReference(ctx context.Context, reference string) (*RawOffer, error) {
	var raw json.RawMessage
	err := c.fetch(ctx, "/offer/"+url.PathEscape(reference), nil, &raw)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, ErrNotConfigured) {
			return nil, err
		}
		log.Printf("[Emblematic] direct lookup for %s failed (%v), scanning listing", reference, err)
		return c.findInListing(ctx, reference)
	}

	offer := decodeOfferEnvelope(raw)
	if offerIsComplete(offer) {
		return offer, nil
	}

	log.Printf("[Emblematic] direct lookup for %s returned incomplete data, scanning listing", reference)
	return c.findInListing(ctx, reference)
}

func decodeOfferEnvelope(raw json.RawMessage) *RawOffer {
	var env offerEnvelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Offer != nil {
			return env.Offer
		}
		if env.Featured != nil {
			return env.Featured
		}
	}
	var offer RawOffer
	if err := json.Unmarshal(raw, &offer); err != nil {
		return nil
	}
	return &offer
}

// offerIsComplete is the minimum-fields check behind the listing fallback:
// a usable record has a title and at least one of features or address.
func offerIsComplete(o *RawOffer) bool {
	if o == nil || o.Title == "" {
		return false
	}
	return rawPresent(o.Features) || rawPresent(o.Address)
}

func rawPresent(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null" && s != "{}" && s != "[]"
}

// findInListing scans the paginated listing for the reference, page by page
// in order, returning the first match. Exhausting every page is a soft
// ErrNotFound. A cancelled context aborts the scan with the cancellation
// error, never a false "not found".
func (c *Client) findInListing(ctx context.Context, reference string) (*RawOffer, error) {
	first, err := c.Offers(ctx, SearchParams{Page: 1})
	if err != nil {
		return nil, err
	}
	if offer := matchReference(first.Offers, reference); offer != nil {
		return offer, nil
	}

	for page := 2; page <= first.LastPage; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := c.Offers(ctx, SearchParams{Page: page})
		if err != nil {
			return nil, err
		}
		if offer := matchReference(resp.Offers, reference); offer != nil {
			log.Printf("[Emblematic] offer %s found on listing page %d", reference, page)
			return offer, nil
		}
	}

	return nil, ErrNotFound
}

func matchReference(offers []RawOffer, reference string) *RawOffer {
	for i := range offers {
		if string(offers[i].Reference) == reference {
			return &offers[i]
		}
	}
	return nil
}

// PropertyByReference returns the normalized property for a reference.
func (c *Client) PropertyByReference(ctx context.Context, reference string) (*Property, error) {
	offer, err := c.OfferByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	p := NormalizeOffer(offer)
	return &p, nil
}

// Featured fetches the raw featured/latest/footer bundle.
func (c *Client) Featured(ctx context.Context) (*FeaturedResponse, error) {
	var resp FeaturedResponse
	if err := c.fetch(ctx, "/offers/featured", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FeaturedProperties returns the normalized featured bundle. When the
// upstream returns both main segments empty, the first regular listing page
// is repurposed as "latest" rather than treated as an error.
func (c *Client) FeaturedProperties(ctx context.Context) (*FeaturedProperties, error) {
	resp, err := c.Featured(ctx)
	if err != nil {
		return nil, err
	}

	out := &FeaturedProperties{
		Featured: normalizeAll(resp.Featured),
		Latest:   normalizeAll(resp.Latest),
		Footer:   normalizeAll(resp.Footer),
	}

	if len(out.Featured) == 0 && len(out.Latest) == 0 {
		log.Printf("[Emblematic] featured bundle empty, falling back to regular listing")
		page, err := c.Offers(ctx, SearchParams{Page: 1})
		if err != nil {
			log.Printf("[Emblematic] featured fallback failed: %v", err)
			return out, nil
		}
		out.Latest = normalizeAll(page.Offers)
	}

	return out, nil
}

func normalizeAll(offers []RawOffer) []Property {
	properties := make([]Property, 0, len(offers))
	for i := range offers {
		properties = append(properties, NormalizeOffer(&offers[i]))
	}
	return properties
}

// Lists fetches the dynamic filter-value lists (modes, types, subtypes,
// features, geographic hierarchies), optionally scoped by location IDs.
func (c *Client) Lists(ctx context.Context, params ListsParams) (*ListsResponse, error) {
	query := map[string]interface{}{
		"lists":      params.Lists,
		"country_id": params.CountryID,
		"region_id":  params.RegionID,
		"city_id":    params.CityID,
	}
	var resp ListsResponse
	if err := c.fetch(ctx, "/lists", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchProperties translates the friendly filter set into upstream
// parameters and returns a normalized page.
func (c *Client) SearchProperties(ctx context.Context, filters SearchFilters) (*PropertyPage, error) {
	params := SearchParams{
		Page:      filters.Page,
		SubtypeID: filters.SubtypeID,
		PriceFrom: filters.PriceMin,
		PriceTo:   filters.PriceMax,
		Rooms:     filters.Rooms,
		Bathrooms: filters.Bathrooms,
	}
	switch filters.Operation {
	case OperationSale:
		params.ModeID = modeIDSale
	case OperationRent:
		params.ModeID = modeIDRent
	}
	return c.Properties(ctx, params)
}

// AvailableCities derives the distinct city list from the live listing set;
// the upstream offers no city enumeration of its own. Every page is scanned;
// a listing that fails to yield a city only drops that listing from the
// count, never the whole batch.
func (c *Client) AvailableCities(ctx context.Context) ([]CityCount, error) {
	first, err := c.Offers(ctx, SearchParams{Page: 1})
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	tally := func(offers []RawOffer) {
		for i := range offers {
			city := strings.TrimSpace(NormalizeOffer(&offers[i]).City)
			if city != "" {
				counts[city]++
			}
		}
	}
	tally(first.Offers)

	for page := 2; page <= first.LastPage; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := c.Offers(ctx, SearchParams{Page: page})
		if err != nil {
			return nil, err
		}
		tally(resp.Offers)
	}

	cities := make([]CityCount, 0, len(counts))
	for name, count := range counts {
		cities = append(cities, CityCount{Name: name, Count: count})
	}
	// Spanish collation keeps accented names in their natural position
	// instead of sorting them after z.
	coll := collate.New(language.Spanish)
	sort.Slice(cities, func(i, j int) bool {
		return coll.CompareString(cities[i].Name, cities[j].Name) < 0
	})
	return cities, nil
}
