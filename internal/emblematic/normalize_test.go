package emblematic

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestClassifyOperation(t *testing.T) {
	tests := []struct {
		mode string
		want Operation
	}{
		{"Alquiler mensual", OperationRent},
		{"ALQUILER", OperationRent},
		{"Alquiler vacacional", OperationRent},
		{"Venta", OperationSale},
		{"Venta de obra nueva", OperationSale},
		{"", OperationSale},
		{"Traspaso", OperationSale},
	}

	for _, tt := range tests {
		if got := classifyOperation(tt.mode); got != tt.want {
			t.Errorf("classifyOperation(%q) = %s; want %s", tt.mode, got, tt.want)
		}
	}
}

func TestExtractPricePreference(t *testing.T) {
	tests := []struct {
		name   string
		prices []featureEntry
		want   float64
	}{
		{
			name: "sale wins over rental",
			prices: []featureEntry{
				{Name: "Alquiler", Value: 950.0, Type: "price"},
				{Name: "Venta", Value: 250000.0, Type: "price"},
			},
			want: 250000,
		},
		{
			name: "rental when no sale",
			prices: []featureEntry{
				{Name: "Alquiler", Value: "950", Type: "price"},
			},
			want: 950,
		},
		{
			name: "first price-typed entry as last resort",
			prices: []featureEntry{
				{Name: "Fianza", Value: 1900.0, Type: "deposit"},
				{Name: "Opción a compra", Value: 180000.0, Type: "price"},
			},
			want: 180000,
		},
		{
			name: "zero entries are absent",
			prices: []featureEntry{
				{Name: "Venta", Value: 0.0, Type: "price"},
				{Name: "Alquiler", Value: 800.0, Type: "price"},
			},
			want: 800,
		},
		{
			name:   "nothing resolves",
			prices: []featureEntry{},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractPrice(rawFeatures{Prices: tt.prices})
			if got != tt.want {
				t.Errorf("extractPrice() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestExtractAreasPrecedence(t *testing.T) {
	f := rawFeatures{Areas: []featureEntry{
		{Name: "Superficie útil", Value: 85.0},
		{Name: "Superficie construida", Value: 100.0},
		{Name: "Superficie parcela", Value: "500"},
	}}

	area, built, plot := extractAreas(f)
	if area == nil || *area != 100 {
		t.Errorf("area = %v; want 100, built area overrides usable", deref(area))
	}
	if built == nil || *built != 100 {
		t.Errorf("areaBuilt = %v; want 100", deref(built))
	}
	if plot == nil || *plot != 500 {
		t.Errorf("areaPlot = %v; want 500", deref(plot))
	}
}

func TestExtractAreasUsableOnly(t *testing.T) {
	f := rawFeatures{Areas: []featureEntry{
		{Name: "Superficie útil", Value: 85.0},
	}}

	area, built, plot := extractAreas(f)
	if area == nil || *area != 85 {
		t.Errorf("area = %v; want 85 from usable area", deref(area))
	}
	if built != nil {
		t.Errorf("areaBuilt = %v; want nil", *built)
	}
	if plot != nil {
		t.Errorf("areaPlot = %v; want nil", *plot)
	}
}

func deref(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// rentalOfferFixture is a realistic rental record with every shape quirk the
// feed is known to produce at once.
const rentalOfferFixture = `{
	"reference": "X9",
	"title": "Ático luminoso junto a la playa",
	"mode_id": "2",
	"mode_name": "Alquiler mensual",
	"type_name": "Vivienda",
	"subtype_name": "Ático",
	"latitude": "36.778",
	"longitude": -6.353,
	"description": {"es": "Precioso ático con terraza.", "en": "Lovely penthouse."},
	"address": [{
		"city": {"name": "Sanlúcar de Barrameda"},
		"region": [{"name": "Cádiz"}],
		"country": {"name": "España"}
	}],
	"features": {
		"prices": [{"name": "Alquiler", "value": "950", "type": "price"}],
		"areas": [{"name": "Superficie construida", "value": 92}],
		"more_features": [
			{"name": "Hab.", "value": "3"},
			{"name": "Baños", "value": 2},
			{"name": "Ascensor", "value": true}
		],
		"qualities": [{"name": "Terraza", "value": true}]
	},
	"images": [{"thumb_800_600": "https://cdn.example.com/x9_800.jpg", "url": "https://cdn.example.com/x9.jpg"}],
	"videos": 0,
	"energy_rating_consumption": "120.4",
	"energy_rating_consumption_letter": "E"
}`

func TestNormalizeOfferEndToEnd(t *testing.T) {
	var offer RawOffer
	if err := json.Unmarshal([]byte(rentalOfferFixture), &offer); err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}

	p := NormalizeOffer(&offer)

	if p.Reference != "X9" {
		t.Errorf("Reference = %q; want X9", p.Reference)
	}
	if p.Operation != OperationRent {
		t.Errorf("Operation = %s; want RENT", p.Operation)
	}
	if p.Price != 950 {
		t.Errorf("Price = %v; want 950", p.Price)
	}
	if p.Currency != "EUR" {
		t.Errorf("Currency = %q; want EUR", p.Currency)
	}
	if p.Description != "Precioso ático con terraza." {
		t.Errorf("Description = %q; want Spanish variant", p.Description)
	}
	if p.City != "Sanlúcar de Barrameda" || p.Region != "Cádiz" || p.Country != "España" {
		t.Errorf("address = %q/%q/%q", p.City, p.Region, p.Country)
	}
	if p.AreaBuilt == nil || *p.AreaBuilt != 92 || p.Area == nil || *p.Area != 92 {
		t.Errorf("areas = %v/%v; want 92/92", deref(p.Area), deref(p.AreaBuilt))
	}
	if p.Rooms == nil || *p.Rooms != 3 {
		t.Errorf("Rooms = %v; want 3", deref(p.Rooms))
	}
	if p.Bathrooms == nil || *p.Bathrooms != 2 {
		t.Errorf("Bathrooms = %v; want 2", deref(p.Bathrooms))
	}
	if !p.HasElevator || !p.HasTerrace {
		t.Errorf("amenities: elevator=%v terrace=%v; want both true", p.HasElevator, p.HasTerrace)
	}
	if p.HasPool || p.HasGarden {
		t.Error("unreported amenities should stay false")
	}
	if !reflect.DeepEqual(p.Images, []string{"https://cdn.example.com/x9_800.jpg"}) {
		t.Errorf("Images = %v; want the sized variant only", p.Images)
	}
	if p.VideosCount != 0 || len(p.Videos) != 0 {
		t.Errorf("videos = %v (count %d); want none", p.Videos, p.VideosCount)
	}
	if p.EnergyRating != "E" {
		t.Errorf("EnergyRating = %q; want E", p.EnergyRating)
	}
	if p.EnergyConsumption == nil || *p.EnergyConsumption != 120.4 {
		t.Errorf("EnergyConsumption = %v; want 120.4", deref(p.EnergyConsumption))
	}
	if p.Latitude != 36.778 || p.Longitude != -6.353 {
		t.Errorf("coords = %v,%v", p.Latitude, p.Longitude)
	}
	if p.CanonicalURL != "/X9/atico-en-sanlucar-de-barrameda" {
		t.Errorf("CanonicalURL = %q; want /X9/atico-en-sanlucar-de-barrameda", p.CanonicalURL)
	}
	if p.Slug != "atico-en-sanlucar-de-barrameda" {
		t.Errorf("Slug = %q", p.Slug)
	}
}

func TestNormalizeOfferDegradesGracefully(t *testing.T) {
	offer := RawOffer{
		Reference: "EMPTY",
		Title:     "Sin datos",
		Address:   json.RawMessage(`"garbage"`),
		Features:  json.RawMessage(`{broken`),
		Images:    json.RawMessage(`[null, 7]`),
	}

	p := NormalizeOffer(&offer)

	if p.Reference != "EMPTY" || p.Title != "Sin datos" {
		t.Errorf("identity fields lost: %q %q", p.Reference, p.Title)
	}
	if p.Operation != OperationSale {
		t.Errorf("Operation = %s; want SALE default", p.Operation)
	}
	if p.Price != 0 || p.Area != nil || p.Rooms != nil {
		t.Error("malformed features should degrade to zero values")
	}
	if p.Country != "España" {
		t.Errorf("Country = %q; want default", p.Country)
	}
	if len(p.Images) != 0 {
		t.Errorf("Images = %v; want none", p.Images)
	}
	if p.CanonicalURL != "/EMPTY/inmueble-en-espana" {
		t.Errorf("CanonicalURL = %q", p.CanonicalURL)
	}
}

func TestNormalizeOfferDeterministic(t *testing.T) {
	var offer RawOffer
	if err := json.Unmarshal([]byte(rentalOfferFixture), &offer); err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}

	first := NormalizeOffer(&offer)
	second := NormalizeOffer(&offer)
	if !reflect.DeepEqual(first, second) {
		t.Error("NormalizeOffer is not deterministic for identical input")
	}
}

func TestVideosCountShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"array of records", `[{"url": "v1.mp4"}, {"url": "v2.mp4"}]`, 2},
		{"bare count", `3`, 3},
		{"single url string", `"https://cdn.example.com/tour.mp4"`, 0},
		{"absent", ``, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := json.RawMessage(tt.raw)
			if got := videosCount(raw); got != tt.want {
				t.Errorf("videosCount(%q) = %d; want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDescriptionExcerpt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"plain short", "Piso céntrico.", 100, "Piso céntrico."},
		{"html stripped", "<p>Piso <b>céntrico</b> y luminoso.</p>", 100, "Piso céntrico y luminoso."},
		{"whitespace collapsed", "dos   saltos\n\nde línea", 100, "dos saltos de línea"},
		{"truncated at word", "uno dos tres cuatro", 12, "uno dos…"},
		{"no limit", "texto", 0, "texto"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DescriptionExcerpt(tt.in, tt.max); got != tt.want {
				t.Errorf("DescriptionExcerpt(%q, %d) = %q; want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
