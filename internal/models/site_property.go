package models

import "time"

// SitePropertyStatus is the publication state of a managed listing.
type SitePropertyStatus string

const (
	SitePropertyActive   SitePropertyStatus = "ACTIVE"
	SitePropertyReserved SitePropertyStatus = "RESERVED"
	SitePropertySold     SitePropertyStatus = "SOLD"
	SitePropertyInactive SitePropertyStatus = "INACTIVE"
)

// SiteProperty is a listing managed directly in the local catalog, as
// opposed to listings synced from the CRM feed. Operation and PropertyType
// use the same normalized vocabulary as the feed properties so the site can
// render both uniformly.
type SiteProperty struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Slug        string `gorm:"type:varchar(280);not null;uniqueIndex" json:"slug"`

	Operation    string  `gorm:"type:varchar(10);not null;index" json:"operation"`
	PropertyType string  `gorm:"type:varchar(20);not null;index" json:"property_type"`
	Price        float64 `gorm:"type:decimal(12,2);not null;index" json:"price"`
	Currency     string  `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`

	CityID       uint   `gorm:"not null;index" json:"city_id"`
	City         *City  `gorm:"foreignKey:CityID" json:"city,omitempty"`
	Neighborhood string `gorm:"type:varchar(120)" json:"neighborhood,omitempty"`
	Address      string `gorm:"type:varchar(255)" json:"address,omitempty"`

	Latitude  *float64 `gorm:"type:decimal(10,7)" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"type:decimal(10,7)" json:"longitude,omitempty"`

	Bedrooms  *int     `gorm:"type:int;index" json:"bedrooms,omitempty"`
	Bathrooms *int     `gorm:"type:int" json:"bathrooms,omitempty"`
	AreaM2    *float64 `gorm:"type:decimal(10,2)" json:"area_m2,omitempty"`
	BuiltYear *int     `gorm:"type:int" json:"built_year,omitempty"`
	Floor     *int     `gorm:"type:int" json:"floor,omitempty"`

	HasElevator bool `gorm:"not null;default:false" json:"has_elevator"`
	HasParking  bool `gorm:"not null;default:false" json:"has_parking"`
	HasPool     bool `gorm:"not null;default:false" json:"has_pool"`
	HasTerrace  bool `gorm:"not null;default:false" json:"has_terrace"`
	HasGarden   bool `gorm:"not null;default:false" json:"has_garden"`
	Furnished   bool `gorm:"not null;default:false" json:"furnished"`
	PetsAllowed bool `gorm:"not null;default:false" json:"pets_allowed"`

	EnergyRating string `gorm:"type:varchar(2)" json:"energy_rating,omitempty"`

	Status     SitePropertyStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	IsFeatured bool               `gorm:"not null;default:false;index" json:"is_featured"`

	Images []PropertyImage `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"images,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (SiteProperty) TableName() string {
	return "site_properties"
}

// PrimaryImage returns the URL marked primary, or the first by order.
func (p *SiteProperty) PrimaryImage() string {
	for i := range p.Images {
		if p.Images[i].IsPrimary {
			return p.Images[i].URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}
