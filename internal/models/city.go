package models

import "time"

// City is a managed geographic area the agency operates in. The slug is
// derived from the name and kept unique by the store.
type City struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"type:varchar(120);not null" json:"name"`
	Slug     string `gorm:"type:varchar(140);not null;uniqueIndex" json:"slug"`
	Province string `gorm:"type:varchar(120)" json:"province,omitempty"`
	Active   bool   `gorm:"not null;default:true;index" json:"active"`

	Latitude  *float64 `gorm:"type:decimal(10,7)" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"type:decimal(10,7)" json:"longitude,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (City) TableName() string {
	return "cities"
}
