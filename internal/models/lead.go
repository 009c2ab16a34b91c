package models

import (
	"errors"
	"regexp"
	"time"
)

// ErrInvalidEmail is returned by the lead stores when the submitted email
// does not look like an address.
var ErrInvalidEmail = errors.New("invalid email address")

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether the value passes the lead capture format
// check: one @, no whitespace, a dot in the domain.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// LeadStatus tracks a captured contact through the follow-up pipeline.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "NEW"
	LeadStatusContacted LeadStatus = "CONTACTED"
	LeadStatusConverted LeadStatus = "CONVERTED"
	LeadStatusDiscarded LeadStatus = "DISCARDED"
)

// Lead is a captured contact, either from a site form or from the chat
// responder. Emails are stored lowercased so re-submissions dedupe.
type Lead struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email string `gorm:"type:varchar(255);not null;index" json:"email"`
	Name  string `gorm:"type:varchar(120)" json:"name,omitempty"`
	Phone string `gorm:"type:varchar(32)" json:"phone,omitempty"`

	// Source names the capture point: cta_home, chatbot, contact_form.
	Source string     `gorm:"type:varchar(30);not null;default:'cta_home'" json:"source"`
	Status LeadStatus `gorm:"type:varchar(20);not null;default:'NEW';index" json:"status"`
	Notes  string     `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Lead) TableName() string {
	return "leads"
}
