package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/masahu84/Korvalia-backend/internal/emblematic"
	"github.com/masahu84/Korvalia-backend/internal/models"
)

// Managed catalog: cities, locally published listings and hero images.

// ---- Cities ----

func (gdb *GormDB) ListCities(activeOnly bool) ([]models.City, error) {
	query := gdb.db.Order("name ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var cities []models.City
	err := query.Find(&cities).Error
	return cities, err
}

func (gdb *GormDB) CityByID(id uint) (*models.City, error) {
	var city models.City
	if err := gdb.db.First(&city, id).Error; err != nil {
		return nil, err
	}
	return &city, nil
}

func (gdb *GormDB) CityBySlug(slug string) (*models.City, error) {
	var city models.City
	if err := gdb.db.Where("slug = ?", slug).First(&city).Error; err != nil {
		return nil, err
	}
	return &city, nil
}

func (gdb *GormDB) CreateCity(city *models.City) error {
	slug, err := gdb.uniqueSlug(&models.City{}, emblematic.Slugify(city.Name))
	if err != nil {
		return err
	}
	city.Slug = slug
	return gdb.db.Create(city).Error
}

func (gdb *GormDB) UpdateCity(city *models.City) error {
	return gdb.db.Save(city).Error
}

// DeleteCity refuses to remove a city that still has listings attached.
func (gdb *GormDB) DeleteCity(id uint) error {
	var count int64
	if err := gdb.db.Model(&models.SiteProperty{}).Where("city_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("database: city %d has %d properties", id, count)
	}
	return gdb.db.Delete(&models.City{}, id).Error
}

// ---- Site properties ----

// SitePropertyFilters narrows the managed catalog listing.
type SitePropertyFilters struct {
	Operation    string
	PropertyType string
	CityID       uint
	CitySlug     string
	Bedrooms     int
	PriceMin     float64
	PriceMax     float64
	Status       models.SitePropertyStatus
	FeaturedOnly bool
	OrderBy      string
	Limit        int
	Offset       int
}

func (gdb *GormDB) ListSiteProperties(filters SitePropertyFilters) ([]models.SiteProperty, int64, error) {
	query := gdb.db.Model(&models.SiteProperty{})

	if filters.Operation != "" {
		query = query.Where("operation = ?", filters.Operation)
	}
	if filters.PropertyType != "" {
		query = query.Where("property_type = ?", filters.PropertyType)
	}
	if filters.CityID != 0 {
		query = query.Where("city_id = ?", filters.CityID)
	}
	if filters.CitySlug != "" {
		city, err := gdb.CityBySlug(filters.CitySlug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []models.SiteProperty{}, 0, nil
			}
			return nil, 0, err
		}
		query = query.Where("city_id = ?", city.ID)
	}
	if filters.Bedrooms > 0 {
		query = query.Where("bedrooms >= ?", filters.Bedrooms)
	}
	if filters.PriceMin > 0 {
		query = query.Where("price >= ?", filters.PriceMin)
	}
	if filters.PriceMax > 0 {
		query = query.Where("price <= ?", filters.PriceMax)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.FeaturedOnly {
		query = query.Where("is_featured = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orderClause string
	switch filters.OrderBy {
	case "price_asc":
		orderClause = "price ASC"
	case "price_desc":
		orderClause = "price DESC"
	case "oldest":
		orderClause = "created_at ASC"
	default:
		orderClause = "created_at DESC"
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}

	var properties []models.SiteProperty
	err := query.Preload("City").Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).Order(orderClause).Limit(limit).Offset(filters.Offset).Find(&properties).Error
	return properties, total, err
}

func (gdb *GormDB) SitePropertyByID(id uint) (*models.SiteProperty, error) {
	var property models.SiteProperty
	err := gdb.db.Preload("City").Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).First(&property, id).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

func (gdb *GormDB) SitePropertyBySlug(slug string) (*models.SiteProperty, error) {
	var property models.SiteProperty
	err := gdb.db.Preload("City").Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).Where("slug = ?", slug).First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

func (gdb *GormDB) CreateSiteProperty(property *models.SiteProperty) error {
	slug, err := gdb.uniqueSlug(&models.SiteProperty{}, emblematic.Slugify(property.Title))
	if err != nil {
		return err
	}
	property.Slug = slug
	if property.Status == "" {
		property.Status = models.SitePropertyActive
	}
	return gdb.db.Create(property).Error
}

func (gdb *GormDB) UpdateSiteProperty(property *models.SiteProperty) error {
	return gdb.db.Session(&gorm.Session{FullSaveAssociations: false}).Save(property).Error
}

func (gdb *GormDB) DeleteSiteProperty(id uint) error {
	return gdb.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ?", id).Delete(&models.PropertyImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.SiteProperty{}, id).Error
	})
}

// ReplacePropertyImages swaps a listing's gallery atomically. The first
// image becomes primary when none is marked.
func (gdb *GormDB) ReplacePropertyImages(propertyID uint, images []models.PropertyImage) error {
	hasPrimary := false
	for i := range images {
		images[i].PropertyID = propertyID
		if images[i].IsPrimary {
			hasPrimary = true
		}
	}
	if !hasPrimary && len(images) > 0 {
		images[0].IsPrimary = true
	}

	return gdb.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ?", propertyID).Delete(&models.PropertyImage{}).Error; err != nil {
			return err
		}
		if len(images) == 0 {
			return nil
		}
		return tx.Create(&images).Error
	})
}

// ---- Hero images ----

func (gdb *GormDB) HeroImages(pageKey string, activeOnly bool) ([]models.HeroImage, error) {
	if pageKey == "" {
		pageKey = "home"
	}
	query := gdb.db.Where("page_key = ?", pageKey)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var images []models.HeroImage
	err := query.Order("sort_order ASC").Find(&images).Error
	return images, err
}

func (gdb *GormDB) CreateHeroImage(image *models.HeroImage) error {
	if image.PageKey == "" {
		image.PageKey = "home"
	}
	return gdb.db.Create(image).Error
}

func (gdb *GormDB) UpdateHeroImage(image *models.HeroImage) error {
	return gdb.db.Save(image).Error
}

func (gdb *GormDB) DeleteHeroImage(id uint) error {
	return gdb.db.Delete(&models.HeroImage{}, id).Error
}

// uniqueSlug appends a counter until the slug is free in the model's table.
func (gdb *GormDB) uniqueSlug(model interface{}, base string) (string, error) {
	if base == "" {
		base = "sin-titulo"
	}
	slug := base
	for counter := 2; ; counter++ {
		var count int64
		if err := gdb.db.Model(model).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}
