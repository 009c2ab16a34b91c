package chatbot

import "github.com/masahu84/Korvalia-backend/internal/emblematic"

// Keyword classes checked against normalized (lowercased, accent-stripped)
// message text. Order of evaluation lives in responder.go; these tables only
// define vocabulary.

var greetingWords = []string{
	"hola", "buenas", "buenos días", "buenos dias", "buenas tardes",
	"buenas noches", "hey", "saludos", "qué tal", "que tal",
}

var goodbyeWords = []string{
	"adiós", "adios", "hasta luego", "chao", "bye", "nos vemos",
	"hasta pronto", "me voy",
}

var thanksWords = []string{
	"gracias", "muchas gracias", "te lo agradezco", "genial", "perfecto",
	"estupendo", "excelente",
}

var yesWords = []string{"sí", "si", "claro", "por supuesto", "vale", "ok", "de acuerdo", "adelante"}

var noWords = []string{"no", "no gracias", "ahora no", "quizás luego", "mejor no"}

var rentWords = []string{
	"alquiler", "alquilar", "arrendar", "renta", "rentar", "alquilo",
	"para alquilar", "en alquiler",
}

var saleWords = []string{
	"comprar", "compra", "venta", "vender", "adquirir", "compro",
	"para comprar", "en venta",
}

var contactWords = []string{
	"contacto", "contactar", "llamar", "teléfono", "telefono", "email",
	"correo", "whatsapp", "hablar con", "agente", "asesor", "comercial",
}

var visitWords = []string{
	"visita", "visitar", "ver el piso", "ver la casa", "ver la vivienda",
	"conocer", "enseñar", "mostrar", "cita", "quedar",
}

var scheduleWords = []string{
	"horario", "hora", "abren", "abierto", "cerrado", "cuando", "cuándo",
	"atienden", "disponibilidad",
}

var priceWords = []string{
	"precio", "precios", "costar", "cuesta", "cuestan", "vale", "valen",
	"presupuesto", "económico", "barato", "caro",
}

var locationWords = []string{
	"ubicación", "ubicacion", "zona", "barrio", "donde", "dónde",
	"localización", "localizacion", "dirección", "direccion", "calle",
}

var interestWords = []string{
	"interesa", "interesado", "interesada", "me gusta", "quiero",
	"quisiera", "gustaría", "gustaria", "necesito", "busco",
}

var servicesWords = []string{
	"servicios", "qué hacéis", "que haceis", "a qué os dedicáis",
	"qué ofrecéis", "ayuda", "ayudar",
}

// propertyTypeWord maps one Spanish term to a normalized category. Kept as
// an ordered slice so detection is deterministic.
type propertyTypeWord struct {
	word     string
	category string
}

var propertyTypeWords = []propertyTypeWord{
	{"piso", "FLAT"},
	{"pisos", "FLAT"},
	{"apartamento", "APARTMENT"},
	{"apartamentos", "APARTMENT"},
	{"casa", "HOUSE"},
	{"casas", "HOUSE"},
	{"chalet", "HOUSE"},
	{"chalets", "HOUSE"},
	{"vivienda", "FLAT"},
	{"viviendas", "FLAT"},
	{"ático", "PENTHOUSE"},
	{"atico", "PENTHOUSE"},
	{"áticos", "PENTHOUSE"},
	{"aticos", "PENTHOUSE"},
	{"dúplex", "DUPLEX"},
	{"duplex", "DUPLEX"},
	{"terreno", "LAND"},
	{"terrenos", "LAND"},
	{"parcela", "LAND"},
	{"parcelas", "LAND"},
	{"local", "COMMERCIAL"},
	{"locales", "COMMERCIAL"},
	{"nave", "COMMERCIAL"},
	{"garaje", "GARAGE"},
	{"garajes", "GARAGE"},
	{"parking", "GARAGE"},
	{"plaza de garaje", "GARAGE"},
}

// categorySubtypes translates normalized categories to the feed's subtype
// identifiers.
var categorySubtypes = map[string]int{
	"FLAT":       emblematic.SubtypeFlat,
	"APARTMENT":  emblematic.SubtypeApartment,
	"HOUSE":      emblematic.SubtypeHouse,
	"PENTHOUSE":  emblematic.SubtypePenthouse,
	"DUPLEX":     emblematic.SubtypeDuplex,
	"LAND":       emblematic.SubtypeLand,
	"COMMERCIAL": emblematic.SubtypeCommercial,
	"GARAGE":     emblematic.SubtypeGarage,
}
