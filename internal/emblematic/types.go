package emblematic

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Operation is the normalized commercial mode of a listing.
type Operation string

const (
	OperationSale Operation = "SALE"
	OperationRent Operation = "RENT"
)

// Upstream mode identifiers for the two commercial operations.
const (
	modeIDSale = 1
	modeIDRent = 2
)

// Upstream subtype identifiers for the property categories the site exposes.
const (
	SubtypeFlat       = 46458
	SubtypeApartment  = 46449
	SubtypeHouse      = 46452
	SubtypePenthouse  = 46450
	SubtypeDuplex     = 46455
	SubtypeLand       = 46498
	SubtypeCommercial = 46484
	SubtypeGarage     = 46468
)

// FlexString decodes a JSON string or number into a string. The feed is not
// consistent about whether references and codes are quoted.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		*f = ""
		return nil
	}
	if s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return nil
		}
		*f = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

// FlexFloat decodes a JSON number or numeric string into a float64,
// degrading to zero on anything else.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		*f = 0
		return nil
	}
	if s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return nil
		}
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			*f = FlexFloat(n)
		}
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return nil
	}
	*f = FlexFloat(n)
	return nil
}

// RawOffer is one listing record as the feed returns it. Fields whose shape
// varies between responses (object vs one-element array, number vs named
// feature arrays, string array vs descriptor objects) are kept as raw JSON
// and resolved by the extractors at normalization time.
type RawOffer struct {
	Reference   FlexString `json:"reference"`
	Title       string     `json:"title"`
	IsVPO       bool       `json:"is_vpo"`
	ModeID      FlexFloat  `json:"mode_id"`
	ModeName    string     `json:"mode_name"`
	TypeID      FlexFloat  `json:"type_id"`
	TypeName    string     `json:"type_name"`
	SubtypeID   FlexFloat  `json:"subtype_id"`
	SubtypeName string     `json:"subtype_name"`
	Latitude    FlexFloat  `json:"latitude"`
	Longitude   FlexFloat  `json:"longitude"`

	Description json.RawMessage `json:"description"`
	Images      json.RawMessage `json:"images"`
	VirtualTour string          `json:"virtual_tour"`
	Videos      json.RawMessage `json:"videos"`
	Features    json.RawMessage `json:"features"`
	Address     json.RawMessage `json:"address"`

	EnergyRatingConsumption       json.RawMessage `json:"energy_rating_consumption"`
	EnergyRatingConsumptionLetter string          `json:"energy_rating_consumption_letter"`
	EnergyRatingEmissions         json.RawMessage `json:"energy_rating_emissions"`
	EnergyRatingEmissionsLetter   string          `json:"energy_rating_emissions_letter"`
}

// featureEntry is one {name, value} record inside the feed's named feature
// arrays (prices, areas, more_features, qualities).
type featureEntry struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
	Type  string      `json:"type"`
}

// rawFeatures is the object form of an offer's features field.
type rawFeatures struct {
	Prices       []featureEntry `json:"prices"`
	Areas        []featureEntry `json:"areas"`
	MoreFeatures []featureEntry `json:"more_features"`
	Qualities    []featureEntry `json:"qualities"`
}

// Property is the canonical normalized representation served to the site.
type Property struct {
	Reference       string    `json:"reference"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Slug            string    `json:"slug"`
	Price           float64   `json:"price"`
	Currency        string    `json:"currency"`
	Operation       Operation `json:"operation"`
	PropertyType    string    `json:"propertyType"`
	PropertySubtype string    `json:"propertySubtype"`

	City      string  `json:"city"`
	Zone      string  `json:"zone,omitempty"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	Area      *float64 `json:"area,omitempty"`
	AreaBuilt *float64 `json:"areaBuilt,omitempty"`
	AreaPlot  *float64 `json:"areaPlot,omitempty"`
	Rooms     *float64 `json:"rooms,omitempty"`
	Bathrooms *float64 `json:"bathrooms,omitempty"`
	Floor     *float64 `json:"floor,omitempty"`

	HasElevator bool `json:"hasElevator"`
	HasGarage   bool `json:"hasGarage"`
	HasPool     bool `json:"hasPool"`
	HasTerrace  bool `json:"hasTerrace"`
	HasGarden   bool `json:"hasGarden"`

	EnergyRating      string   `json:"energyRating,omitempty"`
	EnergyConsumption *float64 `json:"energyConsumption,omitempty"`
	EnergyEmissions   *float64 `json:"energyEmissions,omitempty"`

	Images      []string `json:"images"`
	VirtualTour string   `json:"virtualTour,omitempty"`
	Videos      []string `json:"videos"`
	VideosCount int      `json:"videosCount"`

	IsVPO bool `json:"isVPO"`

	CanonicalURL string `json:"canonicalUrl"`
}

// StatusResponse is the upstream health check payload.
type StatusResponse struct {
	Message string `json:"message"`
}

// OffersResponse is the paginated listing envelope.
type OffersResponse struct {
	Total       int        `json:"total"`
	PerPage     int        `json:"per_page"`
	CurrentPage int        `json:"current_page"`
	LastPage    int        `json:"last_page"`
	Offers      []RawOffer `json:"offers"`
}

// FeaturedResponse is the featured/latest/footer bundle as returned upstream.
type FeaturedResponse struct {
	Featured []RawOffer `json:"featured"`
	Latest   []RawOffer `json:"latest"`
	Footer   []RawOffer `json:"footer"`
}

// PropertyPage is a normalized page of listings.
type PropertyPage struct {
	Total       int        `json:"total"`
	PerPage     int        `json:"perPage"`
	CurrentPage int        `json:"currentPage"`
	LastPage    int        `json:"lastPage"`
	Properties  []Property `json:"properties"`
}

// FeaturedProperties is the normalized featured bundle.
type FeaturedProperties struct {
	Featured []Property `json:"featured"`
	Latest   []Property `json:"latest"`
	Footer   []Property `json:"footer"`
}

// ListItem is one entry of a dynamic filter-value list (mode, type, city...).
type ListItem struct {
	ID       FlexFloat  `json:"id"`
	Name     string     `json:"name"`
	Code     string     `json:"code,omitempty"`
	TypeID   FlexString `json:"type_id,omitempty"`
	RegionID FlexString `json:"region_id,omitempty"`
	CityID   FlexString `json:"city_id,omitempty"`
	Section  string     `json:"section,omitempty"`
}

// ListsResponse holds the dynamic filter-value lists used to build search UIs.
type ListsResponse struct {
	Modes     []ListItem `json:"modes,omitempty"`
	Types     []ListItem `json:"types,omitempty"`
	Subtypes  []ListItem `json:"subtypes,omitempty"`
	Features  []ListItem `json:"features,omitempty"`
	Countries []ListItem `json:"countries,omitempty"`
	Regions   []ListItem `json:"regions,omitempty"`
	Cities    []ListItem `json:"cities,omitempty"`
	Zones     []ListItem `json:"zones,omitempty"`
	RoadTypes []ListItem `json:"roadTypes,omitempty"`
}

// ListsParams scopes a dynamic lists request.
type ListsParams struct {
	Lists     []string
	CountryID int
	RegionID  int
	CityID    int
}

// SearchParams are the raw upstream query parameters for /offers/{page}.
type SearchParams struct {
	Page           int
	OrderKey       string
	OrderDirection string
	Reference      []string
	ModeID         int
	TypeID         int
	SubtypeID      int
	CountryID      int
	RegionID       int
	CityID         int
	ZoneID         int
	AreaFrom       int
	AreaTo         int
	AreaBuiltFrom  int
	AreaBuiltTo    int
	PriceFrom      int
	PriceTo        int
	Rooms          int
	Bathrooms      int
	Features       []int
}

// SearchFilters are the friendly filters exposed to the site and the chatbot;
// translated to SearchParams before hitting the feed.
type SearchFilters struct {
	Operation Operation
	SubtypeID int
	PriceMin  int
	PriceMax  int
	Rooms     int
	Bathrooms int
	Page      int
}

// CityCount is one distinct city extracted from the live listing set.
type CityCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
