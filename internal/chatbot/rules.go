package chatbot

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/masahu84/Korvalia-backend/internal/emblematic"
	"github.com/masahu84/Korvalia-backend/internal/models"
)

// respond routes one visitor message through the rule table. Order matters:
// exact suggestion-chip phrases win over keyword classes, keyword classes
// win over contact capture, and the fallback only fires when nothing else
// matched.
func (r *Responder) respond(ctx context.Context, conv *models.ChatConversation, message string) *Response {
	lower := strings.ToLower(message)

	if resp := r.exactPhrase(ctx, lower); resp != nil {
		return resp
	}
	if resp := r.keywordClass(ctx, message, lower); resp != nil {
		return resp
	}
	return r.captureOrFallback(conv, message)
}

// exactPhrase answers the suggestion chips the widget offers. These are
// matched verbatim against the lowercased message so a chip tap always
// lands on its intended branch.
func (r *Responder) exactPhrase(ctx context.Context, lower string) *Response {
	switch lower {
	case "pisos en alquiler", "ver pisos en alquiler":
		cards := r.search(ctx, emblematic.SearchFilters{Operation: emblematic.OperationRent, SubtypeID: emblematic.SubtypeFlat}, 4)
		return r.cardsResponse(cards, "🔑 Pisos en alquiler:",
			"Ver más pisos", "Me interesa uno", "Ver casas", "Contactar")

	case "pisos en venta", "ver pisos en venta":
		cards := r.search(ctx, emblematic.SearchFilters{Operation: emblematic.OperationSale, SubtypeID: emblematic.SubtypeFlat}, 4)
		return r.cardsResponse(cards, "🏷️ Pisos en venta:",
			"Ver más pisos", "Me interesa uno", "Ver casas", "Contactar")

	case "casas en alquiler", "ver casas en alquiler":
		cards := r.search(ctx, emblematic.SearchFilters{Operation: emblematic.OperationRent, SubtypeID: emblematic.SubtypeHouse}, 4)
		return r.cardsResponse(cards, "🔑 Casas en alquiler:",
			"Ver más casas", "Me interesa una", "Ver pisos", "Contactar")

	case "casas en venta", "ver casas en venta":
		cards := r.search(ctx, emblematic.SearchFilters{Operation: emblematic.OperationSale, SubtypeID: emblematic.SubtypeHouse}, 4)
		return r.cardsResponse(cards, "🏷️ Casas en venta:",
			"Ver más casas", "Me interesa una", "Ver pisos", "Contactar")

	case "ver pisos", "pisos":
		cards := r.search(ctx, emblematic.SearchFilters{SubtypeID: emblematic.SubtypeFlat}, 4)
		return r.cardsResponse(cards, "🏠 Pisos disponibles:",
			"Solo alquiler", "Solo venta", "Me interesa uno", "Contactar")

	case "ver casas", "casas":
		cards := r.search(ctx, emblematic.SearchFilters{SubtypeID: emblematic.SubtypeHouse}, 4)
		return r.cardsResponse(cards, "🏡 Casas disponibles:",
			"Solo alquiler", "Solo venta", "Me interesa una", "Contactar")

	case "ver destacados", "ver propiedades destacadas", "destacados", "propiedades destacadas":
		cards := r.featured(ctx, 4)
		if len(cards) == 0 {
			return &Response{
				Message:     "Actualmente no hay propiedades destacadas. Te muestro las más recientes.",
				Properties:  r.search(ctx, emblematic.SearchFilters{}, 4),
				Suggestions: []string{"Me interesa una", "Ver pisos", "Ver casas", "Contactar"},
			}
		}
		return r.cardsResponse(cards, "⭐ Propiedades destacadas:",
			"Me interesa una", "Ver pisos", "Ver casas", "Contactar")

	case "hablar con un agente", "contactar", "contactar con agente", "contactar con un agente":
		msg := r.contactMessage("Estaremos encantados de atenderte personalmente.\n\n",
			"\n¿Quieres que te llamemos? Déjame tu teléfono o email.")
		return &Response{
			Message:       msg,
			Suggestions:   []string{"Dejar mis datos", "Ver propiedades", "Ver horarios"},
			AskForContact: true,
		}

	case "ver más opciones", "ver mas opciones", "ver más propiedades", "ver mas propiedades",
		"ver más", "ver mas", "más opciones":
		cards := r.search(ctx, emblematic.SearchFilters{}, 6)
		return r.cardsResponse(cards, "Más propiedades disponibles:",
			"Solo alquiler", "Solo venta", "Me interesa una", "Contactar")

	case "solo alquiler", "ver todo en alquiler", "todo en alquiler":
		cards := r.search(ctx, emblematic.SearchFilters{Operation: emblematic.OperationRent}, 4)
		return r.cardsResponse(cards, "🔑 Propiedades en alquiler:",
			"Ver pisos", "Ver casas", "Me interesa una", "Contactar")

	case "solo venta", "ver todo en venta", "todo en venta":
		cards := r.search(ctx, emblematic.SearchFilters{Operation: emblematic.OperationSale}, 4)
		return r.cardsResponse(cards, "🏷️ Propiedades en venta:",
			"Ver pisos", "Ver casas", "Me interesa una", "Contactar")

	case "me interesa una", "me interesa uno", "me interesa", "me gusta":
		return &Response{
			Message: "¡Estupendo! 🎉\n\nPara enviarte información detallada y coordinar una visita, " +
				"necesito tus datos de contacto.\n\n¿Puedes indicarme tu teléfono o email?",
			AskForContact: true,
			Suggestions:   []string{"Prefiero llamar yo", "Ver más propiedades"},
		}

	case "dejar mis datos", "dejar datos", "mis datos":
		return &Response{
			Message: "Perfecto, indícame tu teléfono o email y un agente se pondrá en contacto " +
				"contigo lo antes posible.",
			AskForContact: true,
			Suggestions:   []string{"Prefiero llamar yo", "Ver propiedades primero"},
		}

	case "prefiero llamar yo", "llamar yo", "llamo yo":
		phone := r.companyProfile().Phone
		if phone == "" {
			phone = "nuestro teléfono de contacto"
		}
		return &Response{
			Message:     "¡Por supuesto! Puedes llamarnos al " + phone + ".\n\nEstaremos encantados de atenderte.",
			Suggestions: []string{"Ver propiedades", "Ver horarios", "Gracias"},
		}

	case "ver propiedades", "ver propiedades primero", "buscar propiedades", "buscar más propiedades":
		cards := r.search(ctx, emblematic.SearchFilters{}, 4)
		return r.cardsResponse(cards, "🏠 Propiedades disponibles:",
			"Pisos en alquiler", "Casas en venta", "Me interesa una", "Contactar")

	case "ver horarios", "horarios", "información de horarios", "informacion de horarios":
		return &Response{
			Message:     "📅 Nuestro horario de atención:\n\n" + r.companySchedule(),
			Suggestions: []string{"Ver propiedades", "Contactar", "Gracias"},
		}

	case "programar una visita", "programar visita", "sí, programar cita", "si, programar cita":
		return &Response{
			Message: "Para programar una visita, necesito tus datos de contacto. Un agente te llamará " +
				"para acordar el día y hora que mejor te venga.\n\n¿Cuál es tu teléfono o email?",
			AskForContact: true,
			Suggestions:   []string{"Prefiero llamar yo", "Ver propiedades primero"},
		}

	case "eso es todo", "eso es todo, gracias", "eso es todo gracias", "nada más":
		return &Response{
			Message: "¡Perfecto! Ha sido un placer ayudarte. Si necesitas algo más, aquí estaré. " +
				"¡Que tengas un excelente día! 👋",
			Suggestions: []string{"Ver propiedades", "Contactar"},
		}

	case "gracias", "muchas gracias", "ok gracias":
		return &Response{
			Message:     "¡De nada! 😊 ¿Hay algo más en lo que pueda ayudarte?",
			Suggestions: []string{"Ver propiedades", "Contactar", "Eso es todo"},
		}

	case "no, gracias", "no gracias", "ahora no":
		return &Response{
			Message:     "De acuerdo. Si cambias de opinión, aquí estaré para ayudarte. 😊",
			Suggestions: []string{"Ver propiedades", "Ver destacados", "Contactar"},
		}

	case "cambiar filtros", "otros filtros":
		return &Response{
			Message:     "¿Qué tipo de propiedad te interesa?",
			Suggestions: []string{"Pisos en alquiler", "Casas en venta", "Ver todo", "Contactar"},
		}

	case "cualquier tipo", "ver todo", "ver todas las opciones":
		cards := r.search(ctx, emblematic.SearchFilters{}, 6)
		return r.cardsResponse(cards, "Todas las propiedades disponibles:",
			"Solo alquiler", "Solo venta", "Me interesa una", "Contactar")

	case "busco para comprar", "quiero comprar", "quiero comprar una casa":
		cards := r.search(ctx, emblematic.SearchFilters{Operation: emblematic.OperationSale}, 4)
		return r.cardsResponse(cards, "🏷️ Propiedades en venta:",
			"Ver pisos", "Ver casas", "Me interesa una", "Contactar")

	case "busco para alquilar", "busco piso en alquiler":
		cards := r.search(ctx, emblematic.SearchFilters{Operation: emblematic.OperationRent}, 4)
		return r.cardsResponse(cards, "🔑 Propiedades en alquiler:",
			"Ver pisos", "Ver casas", "Me interesa una", "Contactar")
	}

	return nil
}

// keywordClass answers free-form messages by intent class. The length
// limits on greetings, thanks and yes/no keep short courtesy words from
// hijacking longer messages that happen to contain them.
func (r *Responder) keywordClass(ctx context.Context, message, lower string) *Response {
	switch {
	case containsKeyword(message, greetingWords) && utf8.RuneCountInString(message) < 30:
		return &Response{
			Message: "¡Hola! 👋 Bienvenido a Korvalia. Soy tu asistente virtual y estoy aquí para " +
				"ayudarte a encontrar la propiedad ideal.\n\n¿Qué estás buscando?",
			Suggestions: []string{"Pisos en alquiler", "Casas en venta", "Ver destacados", "Hablar con un agente"},
		}

	case containsKeyword(message, goodbyeWords):
		return &Response{
			Message: "¡Hasta pronto! 👋 Ha sido un placer atenderte. Si tienes más preguntas, " +
				"aquí estaré. ¡Que tengas un excelente día!",
		}

	case containsKeyword(message, thanksWords) && utf8.RuneCountInString(message) < 50:
		return &Response{
			Message:     "¡De nada! 😊 ¿Hay algo más en lo que pueda ayudarte?",
			Suggestions: []string{"Ver propiedades", "Contactar", "Eso es todo"},
		}

	case containsKeyword(message, scheduleWords):
		return &Response{
			Message:     "📅 Nuestro horario de atención:\n\n" + r.companySchedule() + "\n\n¿Te gustaría programar una cita?",
			Suggestions: []string{"Programar visita", "Ver propiedades", "No, gracias"},
		}

	case containsKeyword(message, contactWords) || containsKeyword(message, visitWords):
		msg := r.contactMessage("Estaremos encantados de atenderte.\n\n", "\n¿Quieres que te llamemos?")
		return &Response{
			Message:       msg,
			Suggestions:   []string{"Dejar mis datos", "Ver propiedades", "Ver horarios"},
			AskForContact: true,
		}

	case containsKeyword(message, servicesWords):
		return &Response{
			Message: "En Korvalia te ayudamos con:\n\n🏠 Compra y venta de viviendas\n" +
				"🔑 Alquiler de pisos y casas\n📋 Valoración de inmuebles\n" +
				"🤝 Asesoramiento personalizado\n\n¿En qué puedo ayudarte?",
			Suggestions: []string{"Busco para comprar", "Busco para alquilar", "Contactar"},
		}

	case strings.Contains(lower, "destacad") || strings.Contains(lower, "recomend"):
		cards := r.featured(ctx, 4)
		if len(cards) == 0 {
			return &Response{
				Message:     "Te muestro nuestras propiedades más recientes.",
				Properties:  r.search(ctx, emblematic.SearchFilters{}, 4),
				Suggestions: []string{"Me interesa una", "Ver pisos", "Ver casas", "Contactar"},
			}
		}
		return r.cardsResponse(cards, "⭐ Propiedades destacadas:",
			"Me interesa una", "Ver pisos", "Ver casas", "Contactar")

	case containsKeyword(message, rentWords) || containsKeyword(message, saleWords) ||
		containsKeyword(message, interestWords) || detectPropertyType(message) != "":
		return r.searchFromText(ctx, message)

	case containsKeyword(message, priceWords):
		return &Response{
			Message:     "Los precios varían según el tipo y ubicación. ¿Qué buscas y cuál es tu presupuesto?",
			Suggestions: []string{"Pisos en alquiler", "Casas en venta", "Ver todo"},
		}

	case containsKeyword(message, locationWords):
		return &Response{
			Message:     "Trabajamos en Sanlúcar de Barrameda y alrededores. ¿Qué tipo de propiedad buscas?",
			Suggestions: []string{"Ver pisos", "Ver casas", "Contactar"},
		}
	}

	return nil
}

// searchFromText builds feed filters out of whatever the message mentions:
// operation, property type, bedroom count and budget.
func (r *Responder) searchFromText(ctx context.Context, message string) *Response {
	var filters emblematic.SearchFilters

	if containsKeyword(message, rentWords) {
		filters.Operation = emblematic.OperationRent
	} else if containsKeyword(message, saleWords) {
		filters.Operation = emblematic.OperationSale
	}

	if category := detectPropertyType(message); category != "" {
		filters.SubtypeID = categorySubtypes[category]
	}

	bedrooms := extractBedrooms(message)
	filters.Rooms = bedrooms

	budget := extractPriceRange(message)
	filters.PriceMin = int(budget.min)
	filters.PriceMax = int(budget.max)

	cards := r.search(ctx, filters, 4)

	intro := "🏠 Propiedades"
	switch filters.Operation {
	case emblematic.OperationRent:
		intro = "🔑 En alquiler"
	case emblematic.OperationSale:
		intro = "🏷️ En venta"
	}
	if bedrooms > 0 {
		intro += spanishPrinter.Sprintf(" (%d+ hab.)", bedrooms)
	}
	intro += ":"

	if len(cards) == 0 {
		return &Response{
			Message:     "No encontré propiedades con esos criterios exactos. ¿Ampliamos la búsqueda?",
			Suggestions: []string{"Ver todo", "Cambiar filtros", "Contactar"},
		}
	}
	return r.cardsResponse(cards, intro, "Ver más opciones", "Me interesa una", "Contactar")
}

// captureOrFallback is the tail of the table: contact details capture the
// lead, short yes/no answers get acknowledged, anything else gets the help
// menu.
func (r *Responder) captureOrFallback(conv *models.ChatConversation, message string) *Response {
	info := extractContactInfo(message)

	if info.Email != "" || info.Phone != "" {
		if err := r.conversations.CaptureContact(conv.ID, info.Name, info.Email, info.Phone); err != nil {
			return &Response{
				Message: "Ha habido un problema al guardar tus datos. ¿Puedes intentarlo de nuevo " +
					"o llamarnos directamente?",
				Suggestions: []string{"Prefiero llamar yo", "Ver propiedades"},
			}
		}
		greeting := "¡Perfecto"
		if info.Name != "" {
			greeting += ", " + info.Name
		}
		return &Response{
			Message:     greeting + "! ✅\n\nHe registrado tus datos. Un agente te contactará pronto.\n\n¿Algo más?",
			Suggestions: []string{"Ver propiedades", "Ver horarios", "Eso es todo"},
		}
	}

	if containsKeyword(message, yesWords) && utf8.RuneCountInString(message) < 20 {
		return &Response{
			Message:     "¡Perfecto! ¿En qué puedo ayudarte?",
			Suggestions: []string{"Ver propiedades", "Contactar", "Ver destacados"},
		}
	}
	if containsKeyword(message, noWords) && utf8.RuneCountInString(message) < 25 {
		return &Response{
			Message:     "De acuerdo. Si necesitas algo, aquí estaré. 😊",
			Suggestions: []string{"Ver propiedades", "Ver destacados", "Contactar"},
		}
	}

	return &Response{
		Message:     "Disculpa, no he entendido bien. ¿Puedo ayudarte con alguna de estas opciones?",
		Suggestions: []string{"Pisos en alquiler", "Casas en venta", "Ver destacados", "Contactar"},
	}
}

func (r *Responder) cardsResponse(cards []PropertyCard, intro string, suggestions ...string) *Response {
	return &Response{
		Message:     formatCardsMessage(cards, intro),
		Properties:  cards,
		Suggestions: suggestions,
	}
}

// contactMessage assembles the agency's contact block from whatever profile
// fields are filled in.
func (r *Responder) contactMessage(header, footer string) string {
	settings := r.companyProfile()

	var b strings.Builder
	b.WriteString(header)
	if settings.Phone != "" {
		b.WriteString("📞 Teléfono: " + settings.Phone + "\n")
	}
	if settings.Email != "" {
		b.WriteString("📧 Email: " + settings.Email + "\n")
	}
	if settings.Address != "" {
		b.WriteString("📍 Oficina: " + settings.Address + "\n")
	}
	b.WriteString(footer)
	return b.String()
}
