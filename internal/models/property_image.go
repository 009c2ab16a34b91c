package models

import "time"

// PropertyImage is one photo of a managed listing, ordered within the
// listing's gallery. Exactly one image per listing should be primary.
type PropertyImage struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID uint   `gorm:"not null;index" json:"property_id"`
	URL        string `gorm:"type:text;not null" json:"url"`
	Alt        string `gorm:"type:varchar(255)" json:"alt,omitempty"`
	Order      int    `gorm:"column:sort_order;not null;default:0" json:"order"`
	IsPrimary  bool   `gorm:"not null;default:false" json:"is_primary"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (PropertyImage) TableName() string {
	return "property_images"
}
