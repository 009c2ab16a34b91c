package emblematic

import (
	"encoding/json"
	"testing"
)

func TestFirstOrSelf(t *testing.T) {
	obj := map[string]interface{}{"name": "x"}

	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"bare object", obj, obj},
		{"one-element array", []interface{}{obj}, obj},
		{"empty array", []interface{}{}, nil},
		{"nil", nil, nil},
		{"scalar", "hello", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := firstOrSelf(tt.in)
			switch want := tt.want.(type) {
			case map[string]interface{}:
				gotMap, ok := got.(map[string]interface{})
				if !ok || gotMap["name"] != want["name"] {
					t.Errorf("firstOrSelf() = %v; want %v", got, want)
				}
			default:
				if got != tt.want {
					t.Errorf("firstOrSelf() = %v; want %v", got, tt.want)
				}
			}
		})
	}
}

func TestNumeric(t *testing.T) {
	tests := []struct {
		name   string
		in     interface{}
		want   float64
		wantOK bool
	}{
		{"float", 950.0, 950, true},
		{"numeric string", "950", 950, true},
		{"padded string", " 120.5 ", 120.5, true},
		{"non-numeric string", "caro", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
		{"array", []interface{}{1.0}, 0, false},
		{"object", map[string]interface{}{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := numeric(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("numeric(%v) = (%v, %v); want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNamedValueZeroIsAbsent(t *testing.T) {
	entries := []featureEntry{
		{Name: "Hab.", Value: 0.0},
		{Name: "Hab.", Value: 3.0},
		{Name: "Baños", Value: "0"},
	}

	if v, ok := namedValue(entries, "Hab."); !ok || v != 3 {
		t.Errorf(`namedValue("Hab.") = (%v, %v); want (3, true), zero entries skipped`, v, ok)
	}
	if _, ok := namedValue(entries, "Baños"); ok {
		t.Error(`namedValue("Baños") reported present for a zero-valued entry`)
	}
	if _, ok := namedValue(entries, "Planta"); ok {
		t.Error(`namedValue("Planta") reported present for a missing entry`)
	}
}

func TestLocalizedText(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"plain string", "hola", "hola"},
		{"spanish preferred", map[string]interface{}{"es": "hola", "en": "hello"}, "hola"},
		{"english fallback", map[string]interface{}{"es": "", "en": "hello"}, "hello"},
		{"english only", map[string]interface{}{"en": "hello"}, "hello"},
		{"nil", nil, ""},
		{"number", 42.0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := localizedText(tt.in); got != tt.want {
				t.Errorf("localizedText(%v) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAddressComponent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		key  string
		want string
	}{
		{"bare object", `{"city": {"name": "Cádiz"}}`, "city", "Cádiz"},
		{"component as array", `{"city": [{"name": "Rota"}]}`, "city", "Rota"},
		{"address as array", `[{"zone": {"name": "Centro"}}]`, "zone", "Centro"},
		{"missing component", `{"city": {"name": "Cádiz"}}`, "zone", ""},
		{"empty component array", `{"city": []}`, "city", ""},
		{"malformed address", `"just a string"`, "city", ""},
		{"absent", ``, "city", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := resolveAddress(json.RawMessage(tt.raw))
			if got := addressComponent(addr, tt.key); got != tt.want {
				t.Errorf("addressComponent(%q, %q) = %q; want %q", tt.raw, tt.key, got, tt.want)
			}
		})
	}
}

func TestImageURLs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"string array", `["a.jpg", "b.jpg"]`, []string{"a.jpg", "b.jpg"}},
		{
			"descriptor prefers sized variant",
			`[{"thumb_800_600": "small.jpg", "url": "big.jpg"}]`,
			[]string{"small.jpg"},
		},
		{
			"descriptor without sized variant",
			`[{"url": "big.jpg"}, {"original": "raw.jpg"}]`,
			[]string{"big.jpg", "raw.jpg"},
		},
		{"single descriptor", `{"url": "only.jpg"}`, []string{"only.jpg"}},
		{"single string", `"solo.jpg"`, []string{"solo.jpg"}},
		{"drops empties", `["", "keep.jpg", {}]`, []string{"keep.jpg"}},
		{"absent", ``, []string{}},
		{"malformed", `{broken`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := imageURLs(json.RawMessage(tt.raw))
			if len(got) != len(tt.want) {
				t.Fatalf("imageURLs(%q) = %v; want %v", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("imageURLs(%q)[%d] = %q; want %q", tt.raw, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFeatureBoolFirstMatchWins(t *testing.T) {
	f := rawFeatures{
		MoreFeatures: []featureEntry{
			{Name: "Ascensor", Value: false},
		},
		Qualities: []featureEntry{
			{Name: "Ascensor", Value: true},
			{Name: "Piscina", Value: true},
		},
	}

	// The more_features entry is consulted first; its false is final even
	// though qualities carries a true for the same flag.
	if featureBool(f, "Ascensor") {
		t.Error(`featureBool("Ascensor") = true; first match in more_features should win`)
	}
	if !featureBool(f, "Piscina") {
		t.Error(`featureBool("Piscina") = false; want true from qualities`)
	}
	if featureBool(f, "Jardín") {
		t.Error(`featureBool("Jardín") = true for an unreported flag`)
	}
}

func TestFeatureBoolNonBooleanValues(t *testing.T) {
	f := rawFeatures{
		MoreFeatures: []featureEntry{
			{Name: "Terraza", Value: "sí"},
			{Name: "Garaje propio", Value: 1.0},
		},
	}
	if featureBool(f, "Terraza") || featureBool(f, "Garaje propio") {
		t.Error("featureBool treated a non-boolean value as true")
	}
}

func TestResolveFeaturesBareCount(t *testing.T) {
	// Some endpoints ship features as a number instead of an object.
	f := resolveFeatures(json.RawMessage(`12`))
	if len(f.Prices) != 0 || len(f.Areas) != 0 || len(f.MoreFeatures) != 0 {
		t.Errorf("resolveFeatures(12) = %+v; want empty feature set", f)
	}
}

func TestFlexStringDecoding(t *testing.T) {
	var payload struct {
		Ref FlexString `json:"ref"`
	}

	tests := []struct {
		raw  string
		want FlexString
	}{
		{`{"ref": "X9"}`, "X9"},
		{`{"ref": 1234}`, "1234"},
		{`{"ref": null}`, ""},
		{`{}`, ""},
	}

	for _, tt := range tests {
		payload.Ref = ""
		if err := json.Unmarshal([]byte(tt.raw), &payload); err != nil {
			t.Fatalf("unmarshal %q: %v", tt.raw, err)
		}
		if payload.Ref != tt.want {
			t.Errorf("FlexString from %q = %q; want %q", tt.raw, payload.Ref, tt.want)
		}
	}
}

func TestFlexFloatDecoding(t *testing.T) {
	var payload struct {
		Lat FlexFloat `json:"lat"`
	}

	tests := []struct {
		raw  string
		want FlexFloat
	}{
		{`{"lat": 36.53}`, 36.53},
		{`{"lat": "36.53"}`, 36.53},
		{`{"lat": "not a number"}`, 0},
		{`{"lat": null}`, 0},
	}

	for _, tt := range tests {
		payload.Lat = 0
		if err := json.Unmarshal([]byte(tt.raw), &payload); err != nil {
			t.Fatalf("unmarshal %q: %v", tt.raw, err)
		}
		if payload.Lat != tt.want {
			t.Errorf("FlexFloat from %q = %v; want %v", tt.raw, payload.Lat, tt.want)
		}
	}
}
