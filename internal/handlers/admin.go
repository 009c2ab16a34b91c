package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/masahu84/Korvalia-backend/internal/cleanup"
	"github.com/masahu84/Korvalia-backend/internal/config"
	"github.com/masahu84/Korvalia-backend/internal/database"
	"github.com/masahu84/Korvalia-backend/internal/models"
	"github.com/masahu84/Korvalia-backend/internal/scheduler"
	"github.com/masahu84/Korvalia-backend/internal/search"
)

// AdminHandler handles admin-related requests
type AdminHandler struct {
	db             *database.GormDB
	scheduler      *scheduler.Scheduler
	cleanupService *cleanup.Service
	searchClient   *search.SearchClient
	config         *config.Config
}

// NewAdminHandler creates a new admin handler. The search client may be nil
// when search is disabled.
func NewAdminHandler(db *database.GormDB, sched *scheduler.Scheduler, searchClient *search.SearchClient, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		db:             db,
		scheduler:      sched,
		cleanupService: cleanup.NewService(db.DB()),
		searchClient:   searchClient,
		config:         cfg,
	}
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	// Conversation counts by status
	retention, err := h.cleanupService.Stats()
	if err != nil {
		log.Printf("[Admin] Failed to get conversation stats: %v", err)
	} else {
		stats["conversations"] = retention
	}

	// Lead counts by status
	var leadCounts []struct {
		Status string
		Count  int64
	}
	err = h.db.DB().Model(&models.Lead{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&leadCounts).Error
	if err == nil {
		leadMap := make(map[string]int64)
		var total int64
		for _, lc := range leadCounts {
			leadMap[lc.Status] = lc.Count
			total += lc.Count
		}
		stats["leads"] = map[string]interface{}{
			"total":     total,
			"by_status": leadMap,
		}
	}

	// Recent activity (last 24 hours)
	last24h := time.Now().AddDate(0, 0, -1)
	var recentConversations, recentLeads int64
	h.db.DB().Model(&models.ChatConversation{}).Where("created_at >= ?", last24h).Count(&recentConversations)
	h.db.DB().Model(&models.Lead{}).Where("created_at >= ?", last24h).Count(&recentLeads)
	stats["recent_activity"] = map[string]interface{}{
		"conversations_last_24h": recentConversations,
		"leads_last_24h":         recentLeads,
	}

	// Catalog size
	var catalogCount int64
	h.db.DB().Model(&models.SiteProperty{}).Where("status = ?", models.SitePropertyActive).Count(&catalogCount)
	stats["catalog"] = map[string]interface{}{
		"active_listings": catalogCount,
	}

	c.JSON(http.StatusOK, stats)
}

// ListConversations returns recent conversations for the admin panel
func (h *AdminHandler) ListConversations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filters := database.ConversationFilters{
		Status:     models.ChatStatus(c.Query("status")),
		HasContact: c.Query("has_contact") == "true",
		Limit:      limit,
		Offset:     offset,
	}

	conversations, total, err := h.db.ListConversations(filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversations": conversations,
		"total":         total,
	})
}

// GetConversation returns one conversation with its full transcript
func (h *AdminHandler) GetConversation(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	conversation, err := h.db.GetConversation(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, conversation)
}

// UpdateConversationStatus moves a conversation through its lifecycle
func (h *AdminHandler) UpdateConversationStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	var req struct {
		Status models.ChatStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Status {
	case models.ChatStatusActive, models.ChatStatusLeadCaptured, models.ChatStatusClosed, models.ChatStatusEscalated:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	if err := h.db.UpdateConversationStatus(uint(id), req.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

// ListLeads returns captured leads, newest first
func (h *AdminHandler) ListLeads(c *gin.Context) {
	leads, err := h.db.ListLeads()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leads": leads,
		"count": len(leads),
	})
}

// UpdateLeadStatus moves a lead through the follow-up pipeline
func (h *AdminHandler) UpdateLeadStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead id"})
		return
	}

	var req struct {
		Status models.LeadStatus `json:"status" binding:"required"`
		Notes  string            `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.UpdateLeadStatus(uint(id), req.Status, req.Notes); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

// UpdateSettings replaces the company profile
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var settings models.CompanySettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.UpdateSettings(&settings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// TriggerMaintenance manually runs the daily maintenance job
func (h *AdminHandler) TriggerMaintenance(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Scheduler not available",
		})
		return
	}

	log.Println("[Admin] Manual maintenance trigger requested")

	// Run in goroutine to avoid blocking
	go func() {
		if err := h.scheduler.RunNow(); err != nil {
			log.Printf("[Admin] Manual maintenance failed: %v", err)
		} else {
			log.Println("[Admin] Manual maintenance completed successfully")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Maintenance job started",
		"status":  "running",
	})
}

// RunCleanup executes conversation retention on demand
func (h *AdminHandler) RunCleanup(c *gin.Context) {
	var req struct {
		StaleAfterHours  int  `json:"stale_after_hours"`
		RetentionDays    int  `json:"retention_days"`
		MaxDeletionCount int  `json:"max_deletion_count"`
		DryRun           bool `json:"dry_run"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Set defaults
	cfg := cleanup.DefaultConfig()
	if req.StaleAfterHours > 0 {
		cfg.StaleAfterHours = req.StaleAfterHours
	}
	if req.RetentionDays > 0 {
		cfg.RetentionDays = req.RetentionDays
	}
	if req.MaxDeletionCount > 0 {
		cfg.MaxDeletionCount = req.MaxDeletionCount
	}
	cfg.DryRun = req.DryRun

	log.Printf("[Admin] Running cleanup (stale: %dh, retention: %d days, dry-run: %v)",
		cfg.StaleAfterHours, cfg.RetentionDays, cfg.DryRun)

	result, err := h.cleanupService.Run(cfg)
	if err != nil {
		log.Printf("[Admin] Cleanup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ---- Managed catalog ----

// CreateSiteProperty publishes a new listing in the local catalog
func (h *AdminHandler) CreateSiteProperty(c *gin.Context) {
	var property models.SiteProperty
	if err := c.ShouldBindJSON(&property); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if property.Title == "" || property.CityID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and city_id are required"})
		return
	}

	if err := h.db.CreateSiteProperty(&property); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.indexProperty(&property)
	c.JSON(http.StatusCreated, property)
}

// UpdateSiteProperty updates an existing catalog listing
func (h *AdminHandler) UpdateSiteProperty(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
		return
	}

	existing, err := h.db.SitePropertyByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var property models.SiteProperty
	if err := c.ShouldBindJSON(&property); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	property.ID = existing.ID
	property.Slug = existing.Slug
	property.CreatedAt = existing.CreatedAt

	if err := h.db.UpdateSiteProperty(&property); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.indexProperty(&property)
	c.JSON(http.StatusOK, property)
}

// DeleteSiteProperty removes a catalog listing and its gallery
func (h *AdminHandler) DeleteSiteProperty(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
		return
	}

	if err := h.db.DeleteSiteProperty(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.searchClient != nil {
		if err := h.searchClient.RemoveProperty(uint(id)); err != nil {
			log.Printf("[Admin] Failed to deindex property %d: %v", id, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ReplacePropertyImages swaps a listing's gallery
func (h *AdminHandler) ReplacePropertyImages(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
		return
	}

	var images []models.PropertyImage
	if err := c.ShouldBindJSON(&images); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.ReplacePropertyImages(uint(id), images); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"property_id": id, "count": len(images)})
}

// ---- Cities ----

func (h *AdminHandler) CreateCity(c *gin.Context) {
	var city models.City
	if err := c.ShouldBindJSON(&city); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if city.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	city.Active = true

	if err := h.db.CreateCity(&city); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, city)
}

func (h *AdminHandler) UpdateCity(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid city id"})
		return
	}

	existing, err := h.db.CityByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "city not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var city models.City
	if err := c.ShouldBindJSON(&city); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	city.ID = existing.ID
	city.Slug = existing.Slug
	city.CreatedAt = existing.CreatedAt

	if err := h.db.UpdateCity(&city); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, city)
}

func (h *AdminHandler) DeleteCity(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid city id"})
		return
	}

	if err := h.db.DeleteCity(uint(id)); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ---- Hero images ----

func (h *AdminHandler) ListHeroImages(c *gin.Context) {
	images, err := h.db.HeroImages(c.DefaultQuery("page_key", "home"), false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

func (h *AdminHandler) CreateHeroImage(c *gin.Context) {
	var image models.HeroImage
	if err := c.ShouldBindJSON(&image); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if image.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	image.Active = true

	if err := h.db.CreateHeroImage(&image); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, image)
}

func (h *AdminHandler) UpdateHeroImage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image id"})
		return
	}

	var image models.HeroImage
	if err := c.ShouldBindJSON(&image); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	image.ID = uint(id)

	if err := h.db.UpdateHeroImage(&image); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, image)
}

func (h *AdminHandler) DeleteHeroImage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image id"})
		return
	}

	if err := h.db.DeleteHeroImage(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *AdminHandler) indexProperty(property *models.SiteProperty) {
	if h.searchClient == nil {
		return
	}
	// Reload with city and images so the document is complete
	full, err := h.db.SitePropertyByID(property.ID)
	if err == nil {
		property = full
	}
	if err := h.searchClient.IndexProperty(property); err != nil {
		log.Printf("[Admin] Failed to index property %d: %v", property.ID, err)
	}
}
