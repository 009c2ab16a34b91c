package chatbot

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/masahu84/Korvalia-backend/internal/emblematic"
)

// PropertyCard is the compact listing representation attached to bot
// replies; the widget renders these as tappable cards.
type PropertyCard struct {
	ID           string   `json:"id"`
	Reference    string   `json:"reference"`
	Title        string   `json:"title"`
	Slug         string   `json:"slug"`
	Price        float64  `json:"price"`
	Operation    string   `json:"operation"`
	PropertyType string   `json:"propertyType"`
	Bedrooms     *float64 `json:"bedrooms,omitempty"`
	Bathrooms    *float64 `json:"bathrooms,omitempty"`
	AreaM2       *float64 `json:"areaM2,omitempty"`
	City         string   `json:"city"`
	Image        string   `json:"image,omitempty"`
	CanonicalURL string   `json:"canonicalUrl"`
}

func cardFromProperty(p *emblematic.Property) PropertyCard {
	card := PropertyCard{
		ID:           p.Reference,
		Reference:    p.Reference,
		Title:        p.Title,
		Slug:         p.Slug,
		Price:        p.Price,
		Operation:    string(p.Operation),
		PropertyType: p.PropertySubtype,
		Bedrooms:     p.Rooms,
		Bathrooms:    p.Bathrooms,
		City:         p.City,
		CanonicalURL: p.CanonicalURL,
	}
	if card.PropertyType == "" {
		card.PropertyType = p.PropertyType
	}
	if p.Area != nil {
		card.AreaM2 = p.Area
	} else {
		card.AreaM2 = p.AreaBuilt
	}
	if len(p.Images) > 0 {
		card.Image = p.Images[0]
	}
	return card
}

var spanishPrinter = message.NewPrinter(language.Spanish)

// formatPrice renders an amount with Spanish digit grouping.
func formatPrice(price float64) string {
	return spanishPrinter.Sprint(number.Decimal(price, number.MaxFractionDigits(0)))
}

const noMatchesMessage = "Actualmente no tenemos propiedades que coincidan exactamente con esos criterios, " +
	"pero nuestro catálogo se actualiza constantemente. ¿Te gustaría que te avisemos cuando tengamos algo disponible?"

// formatCardsMessage renders the text block accompanying property cards.
func formatCardsMessage(cards []PropertyCard, intro string) string {
	if len(cards) == 0 {
		return noMatchesMessage
	}

	if intro == "" {
		plural := ""
		if len(cards) > 1 {
			plural = "es"
		}
		intro = fmt.Sprintf("Te muestro %d propiedad%s que podrían interesarte:", len(cards), plural)
	}

	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n\n")

	for _, card := range cards {
		priceText := formatPrice(card.Price) + " €"
		opLabel := "Venta"
		if card.Operation == string(emblematic.OperationRent) {
			priceText += "/mes"
			opLabel = "Alquiler"
		}

		fmt.Fprintf(&b, "🏠 %s\n", card.Title)
		fmt.Fprintf(&b, "📍 %s • %s\n", card.City, opLabel)
		fmt.Fprintf(&b, "💰 %s", priceText)
		if card.Bedrooms != nil && *card.Bedrooms > 0 {
			fmt.Fprintf(&b, " • %.0f hab.", *card.Bedrooms)
		}
		if card.AreaM2 != nil && *card.AreaM2 > 0 {
			fmt.Fprintf(&b, " • %.0fm²", *card.AreaM2)
		}
		b.WriteString("\n\n")
	}

	return strings.TrimSpace(b.String())
}
