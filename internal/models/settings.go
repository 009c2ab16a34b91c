package models

import "time"

// CompanySettings is the singleton row holding the public site's branding
// and contact data. The store upserts a default row so reads never fail.
type CompanySettings struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CompanyName string `gorm:"type:varchar(120)" json:"company_name,omitempty"`
	Slogan      string `gorm:"type:varchar(255)" json:"slogan,omitempty"`
	LogoURL     string `gorm:"type:text" json:"logo_url,omitempty"`

	HeroTitle    string `gorm:"type:varchar(255)" json:"hero_title,omitempty"`
	HeroSubtitle string `gorm:"type:varchar(255)" json:"hero_subtitle,omitempty"`

	Phone    string `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Email    string `gorm:"type:varchar(255)" json:"email,omitempty"`
	Address  string `gorm:"type:varchar(255)" json:"address,omitempty"`
	Schedule string `gorm:"type:text" json:"schedule,omitempty"`
	AboutUs  string `gorm:"type:text" json:"about_us,omitempty"`

	InstagramURL   string `gorm:"type:text" json:"instagram_url,omitempty"`
	FacebookURL    string `gorm:"type:text" json:"facebook_url,omitempty"`
	LinkedinURL    string `gorm:"type:text" json:"linkedin_url,omitempty"`
	WhatsappNumber string `gorm:"type:varchar(32)" json:"whatsapp_number,omitempty"`

	LegalNoticeURL   string `gorm:"type:text" json:"legal_notice_url,omitempty"`
	PrivacyPolicyURL string `gorm:"type:text" json:"privacy_policy_url,omitempty"`
	CookiesPolicyURL string `gorm:"type:text" json:"cookies_policy_url,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (CompanySettings) TableName() string {
	return "company_settings"
}
