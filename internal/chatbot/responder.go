package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/masahu84/Korvalia-backend/internal/emblematic"
	"github.com/masahu84/Korvalia-backend/internal/models"
)

// Response is one bot turn: message text, optional suggestion chips,
// optional property cards, and whether the widget should open the contact
// prompt.
type Response struct {
	Message       string         `json:"message"`
	Suggestions   []string       `json:"suggestions,omitempty"`
	Properties    []PropertyCard `json:"properties,omitempty"`
	AskForContact bool           `json:"askForContact,omitempty"`
}

// Responder drives the rule-based chat assistant. Intent detection is
// keyword matching over normalized text; listing answers come from the
// feed client, contact and schedule answers from the company profile.
type Responder struct {
	conversations ConversationStore
	settings      SettingsStore
	listings      PropertySource
}

func NewResponder(conversations ConversationStore, settings SettingsStore, listings PropertySource) *Responder {
	return &Responder{
		conversations: conversations,
		settings:      settings,
		listings:      listings,
	}
}

// ProcessMessage records the visitor turn, routes it through the rule
// table, and records the bot turn. Both turns are persisted whatever branch
// answers, so the transcript is always complete.
func (r *Responder) ProcessMessage(ctx context.Context, sessionID, userMessage, propertyRef string) (*Response, error) {
	message := strings.TrimSpace(userMessage)

	conv, err := r.conversations.FindBySession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	if conv == nil {
		source := "widget"
		if propertyRef != "" {
			source = "property_page"
		}
		conv = &models.ChatConversation{
			SessionID:   sessionID,
			Status:      models.ChatStatusActive,
			Source:      source,
			PropertyRef: propertyRef,
		}
		if err := r.conversations.Create(conv); err != nil {
			return nil, fmt.Errorf("creating conversation: %w", err)
		}
	}

	if err := r.conversations.SaveMessage(&models.ChatMessage{
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        message,
	}); err != nil {
		return nil, fmt.Errorf("saving visitor message: %w", err)
	}

	response := r.respond(ctx, conv, message)

	botMsg := &models.ChatMessage{
		ConversationID: conv.ID,
		Role:           models.RoleBot,
		Content:        response.Message,
	}
	if len(response.Properties) > 0 {
		if metadata, err := json.Marshal(map[string]interface{}{"properties": response.Properties}); err == nil {
			botMsg.Metadata = string(metadata)
		}
	}
	if err := r.conversations.SaveMessage(botMsg); err != nil {
		return nil, fmt.Errorf("saving bot message: %w", err)
	}

	return response, nil
}

// History returns the full transcript of a session, oldest first. An
// unknown session yields an empty slice.
func (r *Responder) History(sessionID string) ([]models.ChatMessage, error) {
	return r.conversations.History(sessionID)
}

// SaveVisitorContact stores contact data submitted through the widget's
// form rather than free text.
func (r *Responder) SaveVisitorContact(sessionID, name, email, phone string) error {
	conv, err := r.conversations.FindBySession(sessionID)
	if err != nil {
		return err
	}
	if conv == nil {
		return fmt.Errorf("chatbot: unknown session %s", sessionID)
	}
	return r.conversations.CaptureContact(conv.ID, name, email, phone)
}

// search queries the feed and converts the first results to cards. Feed
// failures degrade to an empty result so the conversation keeps flowing.
func (r *Responder) search(ctx context.Context, filters emblematic.SearchFilters, limit int) []PropertyCard {
	filters.Page = 1
	page, err := r.listings.SearchProperties(ctx, filters)
	if err != nil {
		log.Printf("[Chatbot] property search failed: %v", err)
		return nil
	}

	cards := make([]PropertyCard, 0, limit)
	for i := range page.Properties {
		if len(cards) == limit {
			break
		}
		cards = append(cards, cardFromProperty(&page.Properties[i]))
	}
	return cards
}

// featured merges the featured and latest segments, featured first,
// deduplicated by reference.
func (r *Responder) featured(ctx context.Context, limit int) []PropertyCard {
	bundle, err := r.listings.FeaturedProperties(ctx)
	if err != nil {
		log.Printf("[Chatbot] featured lookup failed: %v", err)
		return nil
	}

	seen := make(map[string]bool)
	cards := make([]PropertyCard, 0, limit)
	for _, segment := range [][]emblematic.Property{bundle.Featured, bundle.Latest} {
		for i := range segment {
			if len(cards) == limit {
				return cards
			}
			ref := segment[i].Reference
			if seen[ref] {
				continue
			}
			seen[ref] = true
			cards = append(cards, cardFromProperty(&segment[i]))
		}
	}
	return cards
}

// companyProfile never fails: on store errors the caller gets an empty
// profile and the reply falls back to generic wording.
func (r *Responder) companyProfile() *models.CompanySettings {
	settings, err := r.settings.Settings()
	if err != nil || settings == nil {
		log.Printf("[Chatbot] company settings unavailable: %v", err)
		return &models.CompanySettings{}
	}
	return settings
}

const defaultSchedule = "Lunes a Viernes: 9:00 - 14:00 y 17:00 - 20:00\nSábados: 10:00 - 14:00"

func (r *Responder) companySchedule() string {
	if s := r.companyProfile().Schedule; s != "" {
		return s
	}
	return defaultSchedule
}
