package models

import "time"

// ChatStatus is the lifecycle state of a chat conversation.
type ChatStatus string

const (
	ChatStatusActive       ChatStatus = "ACTIVE"
	ChatStatusLeadCaptured ChatStatus = "LEAD_CAPTURED"
	ChatStatusClosed       ChatStatus = "CLOSED"
	ChatStatusEscalated    ChatStatus = "ESCALATED"
)

// ChatConversation groups the messages of one visitor session. Visitor
// contact fields stay empty until the responder captures them.
type ChatConversation struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string `gorm:"type:varchar(64);not null;uniqueIndex" json:"session_id"`

	VisitorName  string `gorm:"type:varchar(120)" json:"visitor_name,omitempty"`
	VisitorEmail string `gorm:"type:varchar(255);index" json:"visitor_email,omitempty"`
	VisitorPhone string `gorm:"type:varchar(32)" json:"visitor_phone,omitempty"`

	Status ChatStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`

	// Source identifies where the widget was opened: "widget" for the
	// floating assistant, "property_page" when opened from a listing.
	Source      string `gorm:"type:varchar(30);not null;default:'widget'" json:"source"`
	PropertyRef string `gorm:"type:varchar(32)" json:"property_ref,omitempty"`

	Messages []ChatMessage `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime;index" json:"updated_at"`
}

func (ChatConversation) TableName() string {
	return "chat_conversations"
}

// HasContact reports whether the visitor left a reachable address.
func (c *ChatConversation) HasContact() bool {
	return c.VisitorEmail != "" || c.VisitorPhone != ""
}
