package emblematic

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes accented characters and removes the combining marks,
// so "Cádiz" slugs as "cadiz".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

const (
	fallbackSubtypeSlug = "inmueble"
	fallbackCitySlug    = "espana"
)

// Slugify turns arbitrary text into a lowercase URL slug: accents stripped,
// everything outside [a-z0-9 -] dropped, whitespace runs collapsed to single
// hyphens. Pure and idempotent; empty in, empty out.
func Slugify(text string) string {
	lower := strings.ToLower(text)
	stripped, _, err := transform.String(stripMarks, lower)
	if err != nil {
		stripped = lower
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	slug := strings.Join(strings.Fields(b.String()), "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}

// GenerateCanonicalURL builds the listing's stable external path:
// /{reference}/{subtype}-en-{city}[-{zone}]. The subtype falls back to a
// generic label and the city to a country-level token when unresolvable; the
// zone segment only appears when the address carries one.
//
// The trailing slug is not unique across listings sharing subtype, city and
// zone; the reference segment is what disambiguates the full path.
func GenerateCanonicalURL(o *RawOffer) string {
	subtype := Slugify(o.SubtypeName)
	if subtype == "" {
		subtype = fallbackSubtypeSlug
	}

	addr := resolveAddress(o.Address)
	city := Slugify(addressComponent(addr, "city"))
	if city == "" {
		city = fallbackCitySlug
	}

	slug := subtype + "-en-" + city
	if zone := Slugify(addressComponent(addr, "zone")); zone != "" {
		slug += "-" + zone
	}

	return "/" + string(o.Reference) + "/" + slug
}

// SlugOf returns just the last path segment of the canonical URL.
func SlugOf(o *RawOffer) string {
	url := GenerateCanonicalURL(o)
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}
