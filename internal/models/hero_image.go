package models

import "time"

// HeroImage is one slide of a page's hero carousel, scoped by page key so
// different landing pages keep independent rotations.
type HeroImage struct {
	ID      uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	URL     string `gorm:"type:text;not null" json:"url"`
	PageKey string `gorm:"type:varchar(40);not null;default:'home';index" json:"page_key"`
	Order   int    `gorm:"column:sort_order;not null;default:0" json:"order"`
	Active  bool   `gorm:"not null;default:true;index" json:"active"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (HeroImage) TableName() string {
	return "hero_images"
}
