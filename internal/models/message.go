package models

import "time"

// MessageRole distinguishes visitor turns from responder turns.
type MessageRole string

const (
	RoleUser MessageRole = "USER"
	RoleBot  MessageRole = "BOT"
)

// ChatMessage is one turn of a conversation. Metadata holds the attached
// property cards as JSON text when the bot replied with listings.
type ChatMessage struct {
	ID             uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint        `gorm:"not null;index" json:"conversation_id"`
	Role           MessageRole `gorm:"type:varchar(10);not null" json:"role"`
	Content        string      `gorm:"type:text;not null" json:"content"`
	Metadata       string      `gorm:"type:text" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
