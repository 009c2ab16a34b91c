package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/masahu84/Korvalia-backend/internal/models"
)

type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host, port, user, password, dbname string) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(
		&models.ChatConversation{},
		&models.ChatMessage{},
		&models.Lead{},
		&models.City{},
		&models.SiteProperty{},
		&models.PropertyImage{},
		&models.CompanySettings{},
		&models.HeroImage{},
	)
}

// ---- Conversations ----

// FindBySession returns the conversation for a widget session, or (nil, nil)
// when the session is new.
func (gdb *GormDB) FindBySession(sessionID string) (*models.ChatConversation, error) {
	var conv models.ChatConversation
	err := gdb.db.Where("session_id = ?", sessionID).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (gdb *GormDB) Create(conv *models.ChatConversation) error {
	if conv.Status == "" {
		conv.Status = models.ChatStatusActive
	}
	if conv.Source == "" {
		conv.Source = "widget"
	}
	return gdb.db.Create(conv).Error
}

// SaveMessage appends a turn and touches the conversation so the admin
// listing sorts by latest activity.
func (gdb *GormDB) SaveMessage(msg *models.ChatMessage) error {
	return gdb.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.ChatConversation{}).
			Where("id = ?", msg.ConversationID).
			Update("updated_at", time.Now()).Error
	})
}

// CaptureContact records the visitor's data and flips the conversation to
// LEAD_CAPTURED. Empty fields leave previously captured values intact.
func (gdb *GormDB) CaptureContact(conversationID uint, name, email, phone string) error {
	updates := map[string]interface{}{
		"status": models.ChatStatusLeadCaptured,
	}
	if name != "" {
		updates["visitor_name"] = name
	}
	if email != "" {
		updates["visitor_email"] = email
	}
	if phone != "" {
		updates["visitor_phone"] = phone
	}
	return gdb.db.Model(&models.ChatConversation{}).
		Where("id = ?", conversationID).
		Updates(updates).Error
}

// History returns a session's transcript, oldest first. Unknown sessions
// yield an empty slice.
func (gdb *GormDB) History(sessionID string) ([]models.ChatMessage, error) {
	conv, err := gdb.FindBySession(sessionID)
	if err != nil || conv == nil {
		return []models.ChatMessage{}, err
	}

	var messages []models.ChatMessage
	err = gdb.db.Where("conversation_id = ?", conv.ID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// ConversationFilters narrows the admin listing.
type ConversationFilters struct {
	Status     models.ChatStatus
	HasContact bool
	Limit      int
	Offset     int
}

// ConversationSummary is one row of the admin listing.
type ConversationSummary struct {
	models.ChatConversation
	LastMessage  string `json:"last_message"`
	MessageCount int64  `json:"message_count"`
}

// ListConversations returns recent conversations, newest activity first.
func (gdb *GormDB) ListConversations(filters ConversationFilters) ([]ConversationSummary, int64, error) {
	query := gdb.db.Model(&models.ChatConversation{})
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.HasContact {
		query = query.Where("visitor_email <> '' OR visitor_phone <> ''")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}

	var conversations []models.ChatConversation
	if err := query.Order("updated_at DESC").Limit(limit).Offset(filters.Offset).Find(&conversations).Error; err != nil {
		return nil, 0, err
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		summary := ConversationSummary{ChatConversation: conv}

		var last models.ChatMessage
		err := gdb.db.Where("conversation_id = ?", conv.ID).
			Order("created_at DESC").
			First(&last).Error
		if err == nil {
			summary.LastMessage = last.Content
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, err
		}

		if err := gdb.db.Model(&models.ChatMessage{}).
			Where("conversation_id = ?", conv.ID).
			Count(&summary.MessageCount).Error; err != nil {
			return nil, 0, err
		}

		summaries = append(summaries, summary)
	}

	return summaries, total, nil
}

// GetConversation loads one conversation with its full transcript.
func (gdb *GormDB) GetConversation(id uint) (*models.ChatConversation, error) {
	var conv models.ChatConversation
	err := gdb.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).First(&conv, id).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (gdb *GormDB) UpdateConversationStatus(id uint, status models.ChatStatus) error {
	return gdb.db.Model(&models.ChatConversation{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// CloseStaleConversations closes ACTIVE conversations with no activity since
// the cutoff. Returns how many were closed.
func (gdb *GormDB) CloseStaleConversations(cutoff time.Time) (int64, error) {
	result := gdb.db.Model(&models.ChatConversation{}).
		Where("status = ? AND updated_at < ?", models.ChatStatusActive, cutoff).
		Update("status", models.ChatStatusClosed)
	return result.RowsAffected, result.Error
}

// DeleteConversationsBefore removes closed conversations older than the
// cutoff, transcripts included. Captured leads are kept whatever their age.
func (gdb *GormDB) DeleteConversationsBefore(cutoff time.Time) (int64, error) {
	var ids []uint
	err := gdb.db.Model(&models.ChatConversation{}).
		Where("status = ? AND updated_at < ?", models.ChatStatusClosed, cutoff).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, err
	}

	err = gdb.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id IN ?", ids).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.ChatConversation{}).Error
	})
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

// ---- Leads ----

// CreateLead registers a contact, deduplicating by lowercased email: a
// repeat submission only refreshes the existing row.
func (gdb *GormDB) CreateLead(email, name, phone, source string) (*models.Lead, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !models.ValidEmail(email) {
		return nil, models.ErrInvalidEmail
	}
	if source == "" {
		source = "cta_home"
	}

	var existing models.Lead
	err := gdb.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		if updateErr := gdb.db.Model(&existing).Update("updated_at", time.Now()).Error; updateErr != nil {
			return nil, updateErr
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	lead := &models.Lead{
		Email:  email,
		Name:   name,
		Phone:  phone,
		Source: source,
		Status: models.LeadStatusNew,
	}
	if err := gdb.db.Create(lead).Error; err != nil {
		return nil, err
	}
	return lead, nil
}

func (gdb *GormDB) ListLeads() ([]models.Lead, error) {
	var leads []models.Lead
	err := gdb.db.Order("created_at DESC").Find(&leads).Error
	return leads, err
}

func (gdb *GormDB) UpdateLeadStatus(id uint, status models.LeadStatus, notes string) error {
	updates := map[string]interface{}{"status": status}
	if notes != "" {
		updates["notes"] = notes
	}
	return gdb.db.Model(&models.Lead{}).Where("id = ?", id).Updates(updates).Error
}

// ---- Company settings ----

const (
	defaultHeroTitle    = "Bienvenido a nuestra inmobiliaria"
	defaultHeroSubtitle = "Encuentra la propiedad de tus sueños"
)

// Settings returns the singleton company profile, creating a default row on
// first access so reads never fail.
func (gdb *GormDB) Settings() (*models.CompanySettings, error) {
	var settings models.CompanySettings
	err := gdb.db.First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.CompanySettings{
			HeroTitle:    defaultHeroTitle,
			HeroSubtitle: defaultHeroSubtitle,
		}
		if err := gdb.db.Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (gdb *GormDB) UpdateSettings(settings *models.CompanySettings) error {
	current, err := gdb.Settings()
	if err != nil {
		return err
	}
	settings.ID = current.ID
	settings.CreatedAt = current.CreatedAt
	return gdb.db.Save(settings).Error
}
