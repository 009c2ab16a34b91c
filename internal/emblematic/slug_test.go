package emblematic

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Piso en Cádiz", "piso-en-cadiz"},
		{"Ático", "atico"},
		{"Sanlúcar de Barrameda", "sanlucar-de-barrameda"},
		{"  Casa   adosada  ", "casa-adosada"},
		{"España, S.L. (2ª fase)", "espana-sl-2-fase"},
		{"Ñandú", "nandu"},
		{"---", ""},
		{"", ""},
		{"123", "123"},
		{"Dúplex - céntrico", "duplex-centrico"},
	}

	for _, tt := range tests {
		got := Slugify(tt.in)
		if got != tt.want {
			t.Errorf("Slugify(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{"Piso en Cádiz", "Ático Dúplex", "with  spaces", "already-a-slug"}
	for _, in := range inputs {
		once := Slugify(in)
		twice := Slugify(once)
		if once != twice {
			t.Errorf("Slugify not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestSlugifyCharset(t *testing.T) {
	out := Slugify("Çürious înput → with/symbols&stuff 42º")
	for _, r := range out {
		valid := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-'
		if !valid {
			t.Fatalf("Slugify output %q contains invalid rune %q", out, r)
		}
	}
	if strings.HasPrefix(out, "-") || strings.HasSuffix(out, "-") || strings.Contains(out, "--") {
		t.Fatalf("Slugify output %q has stray hyphens", out)
	}
}

func addressJSON(city, zone string) json.RawMessage {
	addr := map[string]interface{}{}
	if city != "" {
		addr["city"] = map[string]interface{}{"name": city}
	}
	if zone != "" {
		addr["zone"] = []interface{}{map[string]interface{}{"name": zone}}
	}
	data, _ := json.Marshal(addr)
	return data
}

func TestGenerateCanonicalURL(t *testing.T) {
	tests := []struct {
		name  string
		offer RawOffer
		want  string
	}{
		{
			name: "subtype and city",
			offer: RawOffer{
				Reference:   "R1",
				SubtypeName: "Piso",
				Address:     addressJSON("Cádiz", ""),
			},
			want: "/R1/piso-en-cadiz",
		},
		{
			name: "with zone",
			offer: RawOffer{
				Reference:   "R1",
				SubtypeName: "Piso",
				Address:     addressJSON("Cádiz", "Centro Histórico"),
			},
			want: "/R1/piso-en-cadiz-centro-historico",
		},
		{
			name: "missing subtype falls back",
			offer: RawOffer{
				Reference: "X2",
				Address:   addressJSON("Rota", ""),
			},
			want: "/X2/inmueble-en-rota",
		},
		{
			name: "missing city falls back",
			offer: RawOffer{
				Reference:   "X3",
				SubtypeName: "Chalet",
			},
			want: "/X3/chalet-en-espana",
		},
		{
			name: "address as array",
			offer: RawOffer{
				Reference:   "A4",
				SubtypeName: "Ático",
				Address:     json.RawMessage(`[{"city": {"name": "Jerez de la Frontera"}}]`),
			},
			want: "/A4/atico-en-jerez-de-la-frontera",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateCanonicalURL(&tt.offer)
			if got != tt.want {
				t.Errorf("GenerateCanonicalURL() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestSlugOf(t *testing.T) {
	offer := RawOffer{
		Reference:   "R9",
		SubtypeName: "Piso",
		Address:     addressJSON("Cádiz", ""),
	}
	if got := SlugOf(&offer); got != "piso-en-cadiz" {
		t.Errorf("SlugOf() = %q; want %q", got, "piso-en-cadiz")
	}
}
