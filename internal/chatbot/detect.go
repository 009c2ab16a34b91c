package chatbot

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeText lowercases and strips diacritics so "Ático" and "atico"
// compare equal.
func normalizeText(text string) string {
	lower := strings.ToLower(text)
	normalized, _, err := transform.String(stripMarks, lower)
	if err != nil {
		return lower
	}
	return normalized
}

// containsKeyword reports whether the normalized message contains any of
// the (also normalized) keywords as a substring.
func containsKeyword(message string, keywords []string) bool {
	normalized := normalizeText(message)
	for _, keyword := range keywords {
		if strings.Contains(normalized, normalizeText(keyword)) {
			return true
		}
	}
	return false
}

// detectPropertyType returns the first normalized category whose Spanish
// term appears in the message, or "" when none matches.
func detectPropertyType(message string) string {
	normalized := normalizeText(message)
	for _, entry := range propertyTypeWords {
		if strings.Contains(normalized, normalizeText(entry.word)) {
			return entry.category
		}
	}
	return ""
}

var bedroomPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*(?:habitacion|habitaciones|dormitorio|dormitorios|cuarto|cuartos)`),
	regexp.MustCompile(`(?i)(?:de\s+)?(\d+)\s*(?:hab|dorm)`),
	regexp.MustCompile(`(?i)(\d+)\s*(?:h|d)(?:\s|$|,|\.)`),
}

// extractBedrooms pulls a bedroom count out of phrases like "3 habitaciones"
// or "2 hab". Counts outside 1..10 are discarded as noise.
func extractBedrooms(message string) int {
	for _, pattern := range bedroomPatterns {
		if m := pattern.FindStringSubmatch(message); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil && n >= 1 && n <= 10 {
				return n
			}
		}
	}
	return 0
}

var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d{3})*)\s*(?:€|euros?|eur)`),
	regexp.MustCompile(`(?i)(?:€|euros?)\s*(\d+(?:[.,]\d{3})*)`),
	regexp.MustCompile(`(?i)(\d{3,})\s*(?:€|euros?|eur|al mes|mensuales?)?`),
}

var maxBoundWords = []string{"hasta", "máximo", "maximo", "menos de", "no más de", "como mucho"}
var minBoundWords = []string{"desde", "mínimo", "minimo", "más de", "al menos", "como poco"}

// priceRange is a half-open budget extracted from free text. A zero bound
// means unbounded on that side.
type priceRange struct {
	min float64
	max float64
}

// extractPriceRange collects every amount in the message and interprets the
// set by the surrounding wording: an upper-bound phrase keeps the largest
// amount as maximum, a lower-bound phrase keeps the smallest as minimum, a
// single bare amount becomes a ±20% band, several amounts become a range.
func extractPriceRange(message string) priceRange {
	var result priceRange
	lower := strings.ToLower(message)

	var prices []float64
	for _, pattern := range pricePatterns {
		for _, m := range pattern.FindAllStringSubmatch(message, -1) {
			raw := strings.ReplaceAll(m[1], ".", "")
			raw = strings.ReplaceAll(raw, ",", ".")
			price, err := strconv.ParseFloat(raw, 64)
			if err == nil && price > 0 && price < 10000000 {
				prices = append(prices, price)
			}
		}
	}
	if len(prices) == 0 {
		return result
	}

	minPrice, maxPrice := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < minPrice {
			minPrice = p
		}
		if p > maxPrice {
			maxPrice = p
		}
	}

	switch {
	case containsAny(lower, maxBoundWords):
		result.max = maxPrice
	case containsAny(lower, minBoundWords):
		result.min = minPrice
	case len(prices) == 1:
		result.min = prices[0] * 0.8
		result.max = prices[0] * 1.2
	default:
		result.min = minPrice
		result.max = maxPrice
	}
	return result
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

var (
	emailPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w{2,}`)
	phonePattern = regexp.MustCompile(`(?:\+34\s?)?[6789]\d{2}[\s.-]?\d{3}[\s.-]?\d{3}`)
	namePattern  = regexp.MustCompile(`(?i)(?:me llamo|soy|mi nombre es)\s+([A-Za-záéíóúñÁÉÍÓÚÑ]+(?:\s+[A-Za-záéíóúñÁÉÍÓÚÑ]+)?)`)
	phoneNoise   = regexp.MustCompile(`[\s.-]`)
)

// contactInfo holds whatever reachable data a message volunteered.
type contactInfo struct {
	Name  string
	Email string
	Phone string
}

// extractContactInfo scans the message for an email address, a Spanish
// mobile or landline number, and a self-introduction name.
func extractContactInfo(message string) contactInfo {
	var info contactInfo
	if m := emailPattern.FindString(message); m != "" {
		info.Email = m
	}
	if m := phonePattern.FindString(message); m != "" {
		info.Phone = phoneNoise.ReplaceAllString(m, "")
	}
	if m := namePattern.FindStringSubmatch(message); m != nil {
		info.Name = strings.TrimSpace(m[1])
	}
	return info
}
