package emblematic

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Feature labels as the feed ships them. Several attributes have more than
// one known label, so lookups walk a small synonym list.
const (
	priceSale   = "Venta"
	priceRental = "Alquiler"

	labelBathrooms = "Baños"
	labelFloor     = "Planta"

	defaultCountry = "España"
)

var (
	labelRooms = []string{"Hab.", "Habitaciones"}

	amenityElevator = []string{"Ascensor"}
	amenityGarage   = []string{"Garaje propio", "Garaje comunitario"}
	amenityPool     = []string{"Piscina", "Piscina comunitaria"}
	amenityTerrace  = []string{"Terraza"}
	amenityGarden   = []string{"Jardín"}
)

// NormalizeOffer converts one raw feed record into the canonical property
// representation. It is pure and total: no step aborts the transform, a
// malformed sub-structure only degrades the field it feeds.
func NormalizeOffer(o *RawOffer) Property {
	addr := resolveAddress(o.Address)
	features := resolveFeatures(o.Features)

	p := Property{
		Reference:       string(o.Reference),
		Title:           o.Title,
		Description:     localizedText(decodeAny(o.Description)),
		Currency:        "EUR",
		Operation:       classifyOperation(o.ModeName),
		PropertyType:    o.TypeName,
		PropertySubtype: o.SubtypeName,
		Latitude:        float64(o.Latitude),
		Longitude:       float64(o.Longitude),
		IsVPO:           o.IsVPO,
	}

	p.Price = extractPrice(features)

	area, areaBuilt, areaPlot := extractAreas(features)
	p.Area = area
	p.AreaBuilt = areaBuilt
	p.AreaPlot = areaPlot

	p.Rooms = firstNamedValue(features.MoreFeatures, labelRooms...)
	p.Bathrooms = firstNamedValue(features.MoreFeatures, labelBathrooms)
	p.Floor = firstNamedValue(features.MoreFeatures, labelFloor)

	p.City = addressComponent(addr, "city")
	p.Zone = addressComponent(addr, "zone")
	p.Region = addressComponent(addr, "region")
	p.Country = addressComponent(addr, "country")
	if p.Country == "" {
		p.Country = defaultCountry
	}

	p.HasElevator = anyFeatureBool(features, amenityElevator)
	p.HasGarage = anyFeatureBool(features, amenityGarage)
	p.HasPool = anyFeatureBool(features, amenityPool)
	p.HasTerrace = anyFeatureBool(features, amenityTerrace)
	p.HasGarden = anyFeatureBool(features, amenityGarden)

	p.EnergyRating = o.EnergyRatingConsumptionLetter
	if v, ok := rawNumeric(o.EnergyRatingConsumption); ok {
		p.EnergyConsumption = &v
	}
	if v, ok := rawNumeric(o.EnergyRatingEmissions); ok {
		p.EnergyEmissions = &v
	}

	p.Images = imageURLs(o.Images)
	p.VirtualTour = o.VirtualTour
	p.Videos = videoURLs(o.Videos)
	p.VideosCount = videosCount(o.Videos)

	p.CanonicalURL = GenerateCanonicalURL(o)
	p.Slug = SlugOf(o)

	return p
}

// classifyOperation is a binary classifier with a sale-biased default: any
// mode label containing the rental keyword is RENT, everything else
// (including missing labels) is SALE.
func classifyOperation(modeName string) Operation {
	if strings.Contains(strings.ToLower(modeName), "alquiler") {
		return OperationRent
	}
	return OperationSale
}

// extractPrice scans the prices array with a fixed preference: the sale entry
// first, then the rental entry, then the first entry marked as a price. The
// feed fills both sale and rental inconsistently, so the order never depends
// on the listing's own operation. Zero when nothing resolves.
func extractPrice(f rawFeatures) float64 {
	if v, ok := namedValue(f.Prices, priceSale); ok {
		return v
	}
	if v, ok := namedValue(f.Prices, priceRental); ok {
		return v
	}
	for _, e := range f.Prices {
		if e.Type != "price" {
			continue
		}
		if v, ok := numeric(e.Value); ok && v != 0 {
			return v
		}
	}
	return 0
}

// extractAreas classifies each area entry by substring on its label. The
// built area wins as the canonical display area; a usable area only fills it
// when no built area exists. The plot area is captured independently and is
// never promoted to the canonical area.
func extractAreas(f rawFeatures) (area, areaBuilt, areaPlot *float64) {
	for _, e := range f.Areas {
		v, ok := numeric(e.Value)
		if !ok || v == 0 {
			continue
		}
		name := strings.ToLower(e.Name)
		switch {
		case strings.Contains(name, "construida"):
			val := v
			areaBuilt = &val
			area = &val
		case strings.Contains(name, "útil") || strings.Contains(name, "util"):
			if area == nil {
				val := v
				area = &val
			}
		case strings.Contains(name, "parcela") || strings.Contains(name, "terreno"):
			val := v
			areaPlot = &val
		}
	}
	return area, areaBuilt, areaPlot
}

func firstNamedValue(entries []featureEntry, names ...string) *float64 {
	for _, name := range names {
		if v, ok := namedValue(entries, name); ok {
			return &v
		}
	}
	return nil
}

func anyFeatureBool(f rawFeatures, names []string) bool {
	for _, name := range names {
		if featureBool(f, name) {
			return true
		}
	}
	return false
}

// videosCount prefers the array length when the feed ships actual video
// records; some responses carry a bare count instead. Any other shape,
// including a lone URL string, counts as zero.
func videosCount(raw []byte) int {
	if arr, ok := decodeAny(raw).([]interface{}); ok {
		return len(arr)
	}
	if v, ok := rawNumeric(raw); ok {
		return int(v)
	}
	return 0
}

// DescriptionExcerpt strips any HTML markup from a property description and
// truncates it at a word boundary. Used for chat cards and meta descriptions.
func DescriptionExcerpt(description string, max int) string {
	text := description
	if strings.ContainsAny(description, "<>") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(description)); err == nil {
			text = doc.Text()
		}
	}
	text = strings.Join(strings.Fields(text), " ")
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := text[:max]
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
