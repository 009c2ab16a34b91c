package chatbot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/masahu84/Korvalia-backend/internal/emblematic"
	"github.com/masahu84/Korvalia-backend/internal/models"
)

// fakeStore is an in-memory ConversationStore and SettingsStore.
type fakeStore struct {
	conversations map[string]*models.ChatConversation
	messages      map[uint][]models.ChatMessage
	nextID        uint
	settings      *models.CompanySettings
	captureErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: make(map[string]*models.ChatConversation),
		messages:      make(map[uint][]models.ChatMessage),
		nextID:        1,
	}
}

func (s *fakeStore) FindBySession(sessionID string) (*models.ChatConversation, error) {
	return s.conversations[sessionID], nil
}

func (s *fakeStore) Create(conv *models.ChatConversation) error {
	conv.ID = s.nextID
	s.nextID++
	s.conversations[conv.SessionID] = conv
	return nil
}

func (s *fakeStore) SaveMessage(msg *models.ChatMessage) error {
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], *msg)
	return nil
}

func (s *fakeStore) CaptureContact(conversationID uint, name, email, phone string) error {
	if s.captureErr != nil {
		return s.captureErr
	}
	for _, conv := range s.conversations {
		if conv.ID != conversationID {
			continue
		}
		if name != "" {
			conv.VisitorName = name
		}
		if email != "" {
			conv.VisitorEmail = email
		}
		if phone != "" {
			conv.VisitorPhone = phone
		}
		conv.Status = models.ChatStatusLeadCaptured
		return nil
	}
	return errors.New("conversation not found")
}

func (s *fakeStore) History(sessionID string) ([]models.ChatMessage, error) {
	conv := s.conversations[sessionID]
	if conv == nil {
		return []models.ChatMessage{}, nil
	}
	return s.messages[conv.ID], nil
}

func (s *fakeStore) Settings() (*models.CompanySettings, error) {
	return s.settings, nil
}

// fakeListings is an in-memory PropertySource.
type fakeListings struct {
	properties  []emblematic.Property
	featured    []emblematic.Property
	latest      []emblematic.Property
	lastFilters emblematic.SearchFilters
	searchErr   error
}

func (f *fakeListings) SearchProperties(ctx context.Context, filters emblematic.SearchFilters) (*emblematic.PropertyPage, error) {
	f.lastFilters = filters
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &emblematic.PropertyPage{
		Total:      len(f.properties),
		Properties: f.properties,
	}, nil
}

func (f *fakeListings) FeaturedProperties(ctx context.Context) (*emblematic.FeaturedProperties, error) {
	return &emblematic.FeaturedProperties{
		Featured: f.featured,
		Latest:   f.latest,
	}, nil
}

func sampleProperty(ref, title string) emblematic.Property {
	return emblematic.Property{
		Reference:       ref,
		Title:           title,
		Price:           125000,
		Operation:       emblematic.OperationSale,
		PropertySubtype: "Piso",
		City:            "Sanlúcar de Barrameda",
		Slug:            "piso-en-sanlucar-de-barrameda",
		CanonicalURL:    "/" + ref + "/piso-en-sanlucar-de-barrameda",
	}
}

func newTestResponder(store *fakeStore, listings *fakeListings) *Responder {
	return NewResponder(store, store, listings)
}

func TestProcessMessagePersistsBothTurns(t *testing.T) {
	store := newFakeStore()
	responder := newTestResponder(store, &fakeListings{})

	resp, err := responder.ProcessMessage(context.Background(), "s1", "qwertyuiop", "")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if !strings.Contains(resp.Message, "no he entendido") {
		t.Errorf("unmatched message should get the fallback, got %q", resp.Message)
	}

	conv := store.conversations["s1"]
	if conv == nil {
		t.Fatal("conversation was not created")
	}
	if conv.Source != "widget" || conv.Status != models.ChatStatusActive {
		t.Errorf("conversation defaults wrong: %+v", conv)
	}

	transcript := store.messages[conv.ID]
	if len(transcript) != 2 {
		t.Fatalf("transcript has %d messages; want user and bot turns", len(transcript))
	}
	if transcript[0].Role != models.RoleUser || transcript[0].Content != "qwertyuiop" {
		t.Errorf("first turn = %+v", transcript[0])
	}
	if transcript[1].Role != models.RoleBot || transcript[1].Content != resp.Message {
		t.Errorf("second turn = %+v", transcript[1])
	}
}

func TestProcessMessagePropertyPageSource(t *testing.T) {
	store := newFakeStore()
	responder := newTestResponder(store, &fakeListings{})

	if _, err := responder.ProcessMessage(context.Background(), "s2", "hola", "REF-9"); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	conv := store.conversations["s2"]
	if conv.Source != "property_page" || conv.PropertyRef != "REF-9" {
		t.Errorf("conversation = %+v; want property_page source", conv)
	}
}

func TestRentalChipSearchesRentalFlats(t *testing.T) {
	store := newFakeStore()
	listings := &fakeListings{properties: []emblematic.Property{
		sampleProperty("R1", "Piso uno"),
		sampleProperty("R2", "Piso dos"),
	}}
	responder := newTestResponder(store, listings)

	resp, err := responder.ProcessMessage(context.Background(), "s3", "Pisos en alquiler", "")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if listings.lastFilters.Operation != emblematic.OperationRent {
		t.Errorf("Operation = %s; want RENT", listings.lastFilters.Operation)
	}
	if listings.lastFilters.SubtypeID != emblematic.SubtypeFlat {
		t.Errorf("SubtypeID = %d; want the flat subtype", listings.lastFilters.SubtypeID)
	}
	if len(resp.Properties) != 2 {
		t.Fatalf("cards = %d; want 2", len(resp.Properties))
	}
	if !strings.Contains(resp.Message, "🔑 Pisos en alquiler:") {
		t.Errorf("message = %q; want rental intro", resp.Message)
	}

	// Bot turn carries the cards as metadata
	conv := store.conversations["s3"]
	botTurn := store.messages[conv.ID][1]
	if !strings.Contains(botTurn.Metadata, `"properties"`) {
		t.Errorf("bot metadata = %q; want serialized cards", botTurn.Metadata)
	}
}

func TestFreeTextSearchBuildsFilters(t *testing.T) {
	store := newFakeStore()
	listings := &fakeListings{properties: []emblematic.Property{sampleProperty("R1", "Piso uno")}}
	responder := newTestResponder(store, listings)

	resp, err := responder.ProcessMessage(context.Background(),
		"s4", "busco un atico en alquiler de 3 habitaciones hasta 900 euros", "")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	got := listings.lastFilters
	if got.Operation != emblematic.OperationRent {
		t.Errorf("Operation = %s; want RENT", got.Operation)
	}
	if got.SubtypeID != emblematic.SubtypePenthouse {
		t.Errorf("SubtypeID = %d; want the penthouse subtype", got.SubtypeID)
	}
	if got.Rooms != 3 {
		t.Errorf("Rooms = %d; want 3", got.Rooms)
	}
	if got.PriceMax != 900 || got.PriceMin != 0 {
		t.Errorf("price bounds = %d..%d; want 0..900", got.PriceMin, got.PriceMax)
	}
	if !strings.HasPrefix(resp.Message, "🔑 En alquiler (3+ hab.):") {
		t.Errorf("intro = %q", resp.Message)
	}
}

func TestEmptySearchSuggestsWidening(t *testing.T) {
	store := newFakeStore()
	responder := newTestResponder(store, &fakeListings{})

	resp, err := responder.ProcessMessage(context.Background(), "s5", "busco un castillo piso de 9 habitaciones", "")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if !strings.Contains(resp.Message, "¿Ampliamos la búsqueda?") {
		t.Errorf("message = %q; want the widening prompt", resp.Message)
	}
}

func TestSearchErrorDegradesToEmpty(t *testing.T) {
	store := newFakeStore()
	listings := &fakeListings{searchErr: errors.New("upstream down")}
	responder := newTestResponder(store, listings)

	resp, err := responder.ProcessMessage(context.Background(), "s6", "pisos en venta", "")
	if err != nil {
		t.Fatalf("ProcessMessage: %v; feed errors must not fail the conversation", err)
	}
	if len(resp.Properties) != 0 {
		t.Errorf("cards = %v; want none", resp.Properties)
	}
}

func TestContactCaptureMarksLead(t *testing.T) {
	store := newFakeStore()
	responder := newTestResponder(store, &fakeListings{})

	ctx := context.Background()
	if _, err := responder.ProcessMessage(ctx, "s7", "hola", ""); err != nil {
		t.Fatalf("first turn: %v", err)
	}

	resp, err := responder.ProcessMessage(ctx, "s7", "soy Juan, juan@test.com", "")
	if err != nil {
		t.Fatalf("capture turn: %v", err)
	}

	if !strings.Contains(resp.Message, "¡Perfecto, Juan! ✅") {
		t.Errorf("message = %q; want personalized confirmation", resp.Message)
	}

	conv := store.conversations["s7"]
	if conv.Status != models.ChatStatusLeadCaptured {
		t.Errorf("Status = %s; want LEAD_CAPTURED", conv.Status)
	}
	if conv.VisitorName != "Juan" || conv.VisitorEmail != "juan@test.com" {
		t.Errorf("visitor = %q/%q", conv.VisitorName, conv.VisitorEmail)
	}
}

func TestContactCaptureStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.captureErr = errors.New("db down")
	responder := newTestResponder(store, &fakeListings{})

	resp, err := responder.ProcessMessage(context.Background(), "s8", "apunta: 612345678", "")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if !strings.Contains(resp.Message, "problema al guardar") {
		t.Errorf("message = %q; want the retry prompt", resp.Message)
	}
}

func TestExactPhraseWinsOverKeywords(t *testing.T) {
	store := newFakeStore()
	listings := &fakeListings{properties: []emblematic.Property{sampleProperty("R1", "Piso uno")}}
	responder := newTestResponder(store, listings)

	// "gracias" is also a thanks keyword; the chip branch must answer
	resp, err := responder.ProcessMessage(context.Background(), "s9", "Gracias", "")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if !strings.Contains(resp.Message, "¿Hay algo más en lo que pueda ayudarte?") {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestGreetingLengthGuard(t *testing.T) {
	store := newFakeStore()
	listings := &fakeListings{properties: []emblematic.Property{sampleProperty("R1", "Piso uno")}}
	responder := newTestResponder(store, listings)

	ctx := context.Background()

	short, err := responder.ProcessMessage(ctx, "s10", "hola!", "")
	if err != nil {
		t.Fatalf("short greeting: %v", err)
	}
	if !strings.Contains(short.Message, "¡Hola!") {
		t.Errorf("short greeting answered %q", short.Message)
	}

	// A long message containing "hola" must not land on the greeting branch
	long, err := responder.ProcessMessage(ctx, "s10",
		"hola, estoy buscando un piso en venta de dos habitaciones por la zona del centro", "")
	if err != nil {
		t.Fatalf("long message: %v", err)
	}
	if strings.Contains(long.Message, "asistente virtual") {
		t.Errorf("long message hijacked by greeting: %q", long.Message)
	}
}

func TestScheduleUsesCompanyProfile(t *testing.T) {
	store := newFakeStore()
	store.settings = &models.CompanySettings{Schedule: "Solo con cita previa"}
	responder := newTestResponder(store, &fakeListings{})

	resp, err := responder.ProcessMessage(context.Background(), "s11", "ver horarios", "")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if !strings.Contains(resp.Message, "Solo con cita previa") {
		t.Errorf("message = %q; want configured schedule", resp.Message)
	}
}

func TestScheduleDefaultWhenUnconfigured(t *testing.T) {
	store := newFakeStore()
	responder := newTestResponder(store, &fakeListings{})

	resp, err := responder.ProcessMessage(context.Background(), "s12", "ver horarios", "")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if !strings.Contains(resp.Message, "Lunes a Viernes") {
		t.Errorf("message = %q; want default schedule", resp.Message)
	}
}

func TestFeaturedDedupesByReference(t *testing.T) {
	store := newFakeStore()
	listings := &fakeListings{
		featured: []emblematic.Property{sampleProperty("F1", "Destacado")},
		latest:   []emblematic.Property{sampleProperty("F1", "Destacado"), sampleProperty("L2", "Reciente")},
	}
	responder := newTestResponder(store, listings)

	resp, err := responder.ProcessMessage(context.Background(), "s13", "ver destacados", "")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if len(resp.Properties) != 2 {
		t.Fatalf("cards = %d; want 2 after dedupe", len(resp.Properties))
	}
	if resp.Properties[0].Reference != "F1" || resp.Properties[1].Reference != "L2" {
		t.Errorf("cards = %v; want featured first", resp.Properties)
	}
}

func TestFormatPriceSpanish(t *testing.T) {
	tests := []struct {
		price float64
		want  string
	}{
		{950, "950"},
		{125000, "125.000"},
		{1500000, "1.500.000"},
	}

	for _, tt := range tests {
		if got := formatPrice(tt.price); got != tt.want {
			t.Errorf("formatPrice(%v) = %q; want %q", tt.price, got, tt.want)
		}
	}
}

func TestFormatCardsMessageRentSuffix(t *testing.T) {
	rental := sampleProperty("R1", "Ático céntrico")
	rental.Operation = emblematic.OperationRent
	rental.Price = 950
	card := cardFromProperty(&rental)

	msg := formatCardsMessage([]PropertyCard{card}, "🔑 En alquiler:")
	if !strings.Contains(msg, "💰 950 €/mes") {
		t.Errorf("message = %q; want rental price suffix", msg)
	}
	if !strings.Contains(msg, "📍 Sanlúcar de Barrameda • Alquiler") {
		t.Errorf("message = %q; want city and operation line", msg)
	}
}
