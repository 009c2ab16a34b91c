package chatbot

import (
	"context"

	"github.com/masahu84/Korvalia-backend/internal/emblematic"
	"github.com/masahu84/Korvalia-backend/internal/models"
)

// ConversationStore persists chat sessions and their turns. FindBySession
// returns (nil, nil) when the session has no conversation yet.
type ConversationStore interface {
	FindBySession(sessionID string) (*models.ChatConversation, error)
	Create(conv *models.ChatConversation) error
	SaveMessage(msg *models.ChatMessage) error
	CaptureContact(conversationID uint, name, email, phone string) error
	History(sessionID string) ([]models.ChatMessage, error)
}

// SettingsStore surfaces the company profile the responder quotes in
// contact and schedule replies.
type SettingsStore interface {
	Settings() (*models.CompanySettings, error)
}

// PropertySource is the listing lookup the responder searches against.
// Satisfied by the feed client.
type PropertySource interface {
	SearchProperties(ctx context.Context, filters emblematic.SearchFilters) (*emblematic.PropertyPage, error)
	FeaturedProperties(ctx context.Context) (*emblematic.FeaturedProperties, error)
}
