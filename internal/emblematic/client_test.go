package emblematic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(serverURL string) *Client {
	return NewClient(ClientConfig{BaseURL: serverURL, Token: "test-token"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func listingPage(page, lastPage int, refs ...string) OffersResponse {
	offers := make([]RawOffer, 0, len(refs))
	for _, ref := range refs {
		offers = append(offers, RawOffer{
			Reference:   FlexString(ref),
			Title:       "Piso " + ref,
			SubtypeName: "Piso",
			Address:     json.RawMessage(`{"city": {"name": "Cádiz"}}`),
			Features:    json.RawMessage(`{"prices": [{"name": "Venta", "value": 100000, "type": "price"}]}`),
		})
	}
	return OffersResponse{
		Total:       lastPage * len(refs),
		PerPage:     len(refs),
		CurrentPage: page,
		LastPage:    lastPage,
		Offers:      offers,
	}
}

func TestClientNotConfigured(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})
	_, err := client.CheckStatus(context.Background())
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v; want ErrNotConfigured", err)
	}
	if called {
		t.Error("request was sent without a token")
	}
}

func TestClientQuerySerialization(t *testing.T) {
	var captured *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(context.Background())
		writeJSON(w, listingPage(1, 1))
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.Offers(context.Background(), SearchParams{
		Page:      2,
		ModeID:    1,
		SubtypeID: 46458,
		PriceTo:   200000,
		Reference: []string{"R1", "R2"},
		Features:  []int{10, 20},
	})
	if err != nil {
		t.Fatalf("Offers: %v", err)
	}

	if captured.URL.Path != "/offers/2" {
		t.Errorf("path = %q; want /offers/2", captured.URL.Path)
	}
	if got := captured.Header.Get("Authorization"); got != "Bearer test-token" {
		t.Errorf("Authorization = %q", got)
	}

	q := captured.URL.Query()
	if got := q["reference[]"]; len(got) != 2 || got[0] != "R1" || got[1] != "R2" {
		t.Errorf("reference[] = %v; want [R1 R2]", got)
	}
	if got := q["features[]"]; len(got) != 2 || got[0] != "10" || got[1] != "20" {
		t.Errorf("features[] = %v; want [10 20]", got)
	}
	if q.Get("mode_id") != "1" || q.Get("subtype_id") != "46458" || q.Get("feature_price_to") != "200000" {
		t.Errorf("scalar params wrong: %v", q)
	}
	// Unset filters must not appear at all
	for _, absent := range []string{"type_id", "city_id", "rooms", "order_key", "feature_price_from"} {
		if q.Has(absent) {
			t.Errorf("zero-valued param %q was serialized", absent)
		}
	}
}

func TestClientErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
		name   string
	}{
		{http.StatusUnauthorized, func(err error) bool { return errors.Is(err, ErrUnauthorized) }, "unauthorized"},
		{http.StatusTooManyRequests, func(err error) bool { return errors.Is(err, ErrRateLimited) }, "rate limited"},
		{http.StatusBadGateway, func(err error) bool {
			var ue *UpstreamError
			return errors.As(err, &ue) && ue.Status == http.StatusBadGateway
		}, "upstream error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := testClient(server.URL).CheckStatus(context.Background())
			if err == nil || !tt.check(err) {
				t.Errorf("status %d mapped to %v", tt.status, err)
			}
		})
	}
}

func TestClientDecodeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer server.Close()

	_, err := testClient(server.URL).CheckStatus(context.Background())
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Status != 0 {
		t.Fatalf("err = %v; want UpstreamError with status 0", err)
	}
}

func TestOfferByReferenceDirectHit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/offer/R7" {
			t.Errorf("unexpected request %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]interface{}{
			"offer": map[string]interface{}{
				"reference": "R7",
				"title":     "Piso completo",
				"address":   map[string]interface{}{"city": map[string]interface{}{"name": "Rota"}},
			},
		})
	}))
	defer server.Close()

	offer, err := testClient(server.URL).OfferByReference(context.Background(), "R7")
	if err != nil {
		t.Fatalf("OfferByReference: %v", err)
	}
	if string(offer.Reference) != "R7" || offer.Title != "Piso completo" {
		t.Errorf("offer = %+v", offer)
	}
}

func TestOfferByReferenceIncompleteFallsBack(t *testing.T) {
	var listingPages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/offer/"):
			// Reduced shape: title present but no features and no address
			writeJSON(w, map[string]interface{}{"offer": map[string]interface{}{
				"reference": "R2",
				"title":     "Piso recortado",
			}})
		case r.URL.Path == "/offers/1":
			listingPages = append(listingPages, "1")
			writeJSON(w, listingPage(1, 2, "R1"))
		case r.URL.Path == "/offers/2":
			listingPages = append(listingPages, "2")
			writeJSON(w, listingPage(2, 2, "R2"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	offer, err := testClient(server.URL).OfferByReference(context.Background(), "R2")
	if err != nil {
		t.Fatalf("OfferByReference: %v", err)
	}
	if string(offer.Reference) != "R2" || offer.Title != "Piso R2" {
		t.Errorf("offer = %+v; want complete record from listing page 2", offer)
	}
	if len(listingPages) != 2 {
		t.Errorf("scanned pages %v; want [1 2]", listingPages)
	}
}

func TestOfferByReferenceExhaustionIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/offer/"):
			w.WriteHeader(http.StatusInternalServerError)
		case strings.HasPrefix(r.URL.Path, "/offers/"):
			writeJSON(w, listingPage(1, 2, "OTHER"))
		}
	}))
	defer server.Close()

	_, err := testClient(server.URL).OfferByReference(context.Background(), "MISSING")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}
}

func TestFindInListingHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Cancel after serving the first page so the scan aborts mid-way
		cancel()
		writeJSON(w, listingPage(1, 50, "OTHER"))
	}))
	defer server.Close()

	_, err := testClient(server.URL).findInListing(ctx, "MISSING")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v; want context.Canceled", err)
	}
}

func TestFeaturedPropertiesFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/offers/featured":
			writeJSON(w, FeaturedResponse{})
		case "/offers/1":
			writeJSON(w, listingPage(1, 1, "L1", "L2"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	bundle, err := testClient(server.URL).FeaturedProperties(context.Background())
	if err != nil {
		t.Fatalf("FeaturedProperties: %v", err)
	}
	if len(bundle.Featured) != 0 {
		t.Errorf("Featured = %d entries; want 0", len(bundle.Featured))
	}
	if len(bundle.Latest) != 2 {
		t.Fatalf("Latest = %d entries; want 2 from regular listing", len(bundle.Latest))
	}
	if bundle.Latest[0].Reference != "L1" {
		t.Errorf("Latest[0].Reference = %q", bundle.Latest[0].Reference)
	}
}

func TestFeaturedPropertiesFallbackDegradesOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/offers/featured":
			writeJSON(w, FeaturedResponse{})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	bundle, err := testClient(server.URL).FeaturedProperties(context.Background())
	if err != nil {
		t.Fatalf("FeaturedProperties: %v; degraded bundle should not error", err)
	}
	if len(bundle.Featured) != 0 || len(bundle.Latest) != 0 {
		t.Errorf("bundle = %+v; want empty", bundle)
	}
}

func TestSearchPropertiesTranslatesOperation(t *testing.T) {
	var captured *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(context.Background())
		writeJSON(w, listingPage(1, 1, "R1"))
	}))
	defer server.Close()

	client := testClient(server.URL)
	page, err := client.SearchProperties(context.Background(), SearchFilters{
		Operation: OperationRent,
		PriceMax:  1200,
	})
	if err != nil {
		t.Fatalf("SearchProperties: %v", err)
	}

	q := captured.URL.Query()
	if q.Get("mode_id") != "2" {
		t.Errorf("mode_id = %q; want 2 for rentals", q.Get("mode_id"))
	}
	if q.Get("feature_price_to") != "1200" {
		t.Errorf("feature_price_to = %q; want 1200", q.Get("feature_price_to"))
	}
	if len(page.Properties) != 1 || page.Properties[0].Operation != OperationSale {
		t.Errorf("normalized page unexpected: %+v", page.Properties)
	}
}

func TestAvailableCities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/offers/1":
			resp := listingPage(1, 2, "A1", "A2")
			writeJSON(w, resp)
		case "/offers/2":
			resp := listingPage(2, 2, "B1", "B2")
			resp.Offers[0].Address = json.RawMessage(`{"city": {"name": "Rota"}}`)
			resp.Offers[1].Address = json.RawMessage(`{"city": {"name": "Álora"}}`)
			writeJSON(w, resp)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cities, err := testClient(server.URL).AvailableCities(context.Background())
	if err != nil {
		t.Fatalf("AvailableCities: %v", err)
	}
	if len(cities) != 3 {
		t.Fatalf("cities = %v; want 3 distinct", cities)
	}
	// Spanish collation: Álora sorts before Cádiz, not after Rota.
	want := []CityCount{
		{Name: "Álora", Count: 1},
		{Name: "Cádiz", Count: 2},
		{Name: "Rota", Count: 1},
	}
	for i := range want {
		if cities[i] != want[i] {
			t.Errorf("cities[%d] = %+v; want %+v", i, cities[i], want[i])
		}
	}
}
