package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/masahu84/Korvalia-backend/internal/chatbot"
	"github.com/masahu84/Korvalia-backend/internal/config"
	"github.com/masahu84/Korvalia-backend/internal/database"
	"github.com/masahu84/Korvalia-backend/internal/emblematic"
	"github.com/masahu84/Korvalia-backend/internal/handlers"
	"github.com/masahu84/Korvalia-backend/internal/models"
	"github.com/masahu84/Korvalia-backend/internal/ratelimit"
	"github.com/masahu84/Korvalia-backend/internal/scheduler"
	"github.com/masahu84/Korvalia-backend/internal/search"
)

var (
	gormDB         *database.GormDB
	pgDB           *database.DB
	searchClient   *search.SearchClient
	appConfig      *config.Config
	feedClient     *emblematic.Client
	chatResponder  *chatbot.Responder
	visitorLimiter *ratelimit.VisitorLimiter
	appScheduler   *scheduler.Scheduler
)

func main() {
	// Local development secrets live in .env
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Load configuration
	configPath := getEnv("CONFIG_PATH", "config/app.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// Initialize database based on configuration
	dbType := appConfig.Database.Type
	if dbType == "" {
		dbType = getEnv("DB_TYPE", "mysql")
	}

	if dbType == "postgres" {
		log.Println("Using PostgreSQL")
		pgCfg := appConfig.Database.Postgres

		portStr := ""
		if pgCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", pgCfg.Port)
		}

		pgDB, err = database.NewDB(
			getEnvOrConfig(pgCfg.Host, "DB_HOST", "db"),
			getEnvOrConfig(portStr, "DB_PORT", "5432"),
			getEnvOrConfig(pgCfg.User, "DB_USER", "korvalia_user"),
			getEnvOrConfig(pgCfg.Password, "DB_PASSWORD", "korvalia_pass"),
			getEnvOrConfig(pgCfg.Database, "DB_NAME", "korvalia_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer pgDB.Close()

		if err := pgDB.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	} else {
		log.Println("Using MySQL with GORM")
		mysqlCfg := appConfig.Database.MySQL

		portStr := ""
		if mysqlCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", mysqlCfg.Port)
		}

		gormDB, err = database.NewGormDB(
			getEnvOrConfig(mysqlCfg.Host, "DB_HOST", "mysql"),
			getEnvOrConfig(portStr, "DB_PORT", "3306"),
			getEnvOrConfig(mysqlCfg.User, "DB_USER", "korvalia_user"),
			getEnvOrConfig(mysqlCfg.Password, "DB_PASSWORD", "korvalia_pass"),
			getEnvOrConfig(mysqlCfg.Database, "DB_NAME", "korvalia_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
		defer gormDB.Close()

		if err := gormDB.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	}

	// Initialize Meilisearch (MySQL catalog only)
	if appConfig.Search.Enabled && gormDB != nil {
		meilisearchHost := appConfig.Search.Meilisearch.Host
		if meilisearchHost == "" {
			meilisearchHost = getEnv("MEILISEARCH_HOST", "http://meilisearch:7700")
		}
		meilisearchKey := appConfig.Search.Meilisearch.APIKey
		if meilisearchKey == "" {
			meilisearchKey = getEnv("MEILISEARCH_KEY", "")
		}

		searchClient = search.NewSearchClient(meilisearchHost, meilisearchKey)
		if err := searchClient.InitIndex(); err != nil {
			log.Printf("Warning: Failed to initialize search index: %v", err)
		}
	}

	// CRM feed client
	feedClient = emblematic.NewClient(emblematic.ClientConfig{
		BaseURL: appConfig.Emblematic.BaseURL,
		Token:   appConfig.Emblematic.Token,
		Timeout: appConfig.Emblematic.GetTimeout(),
	})
	if !feedClient.IsConfigured() {
		log.Println("Warning: EMBLEMATIC_TOKEN not set, feed endpoints will return 503")
	}

	// Chat responder over whichever backend is active
	if gormDB != nil {
		chatResponder = chatbot.NewResponder(gormDB, gormDB, feedClient)
	} else {
		chatResponder = chatbot.NewResponder(pgDB, pgDB, feedClient)
	}

	// Per-visitor rate limiter for the public write endpoints
	visitorLimiter = ratelimit.NewVisitorLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)
	log.Printf("Rate limiter initialized: %d req/min, %d req/hour (enabled: %v)",
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)

	// Maintenance scheduler (MySQL only)
	if gormDB != nil && appConfig.Scheduler.Enabled {
		appScheduler = scheduler.NewScheduler(gormDB.DB(), searchClient, visitorLimiter, appConfig)
		if err := appScheduler.Start(); err != nil {
			log.Printf("Warning: Failed to start scheduler: %v", err)
		}
		defer appScheduler.Stop()
	}

	// Setup Gin router
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	// Routes
	r.GET("/health", healthCheck)

	// CRM feed (live listings)
	r.GET("/api/emblematic/status", getFeedStatus)
	r.GET("/api/emblematic/properties", getFeedProperties)
	r.GET("/api/emblematic/properties/featured", getFeedFeatured)
	r.GET("/api/emblematic/properties/:reference", getFeedProperty)
	r.GET("/api/emblematic/cities", getFeedCities)
	r.GET("/api/emblematic/lists", getFeedLists)

	// Chatbot
	r.POST("/api/chatbot/message", rateLimitMiddleware(), postChatMessage)
	r.GET("/api/chatbot/history/:sessionId", getChatHistory)

	// Leads
	r.POST("/api/leads", rateLimitMiddleware(), createLead)

	// Company profile
	r.GET("/api/settings", getSettings)

	// Managed catalog (MySQL only)
	if gormDB != nil {
		r.GET("/api/properties", getCatalogProperties)
		r.GET("/api/properties/:slug", getCatalogProperty)
		r.GET("/api/cities", getCities)
		r.GET("/api/hero-images", getHeroImages)
		r.GET("/api/search", searchCatalog)
	}

	// Admin API routes (requires authentication in production)
	if gormDB != nil {
		adminHandler := handlers.NewAdminHandler(gormDB, appScheduler, searchClient, appConfig)

		admin := r.Group("/api/admin")
		{
			// Statistics
			admin.GET("/stats", adminHandler.GetStats)

			// Conversations
			admin.GET("/conversations", adminHandler.ListConversations)
			admin.GET("/conversations/:id", adminHandler.GetConversation)
			admin.PUT("/conversations/:id/status", adminHandler.UpdateConversationStatus)

			// Leads
			admin.GET("/leads", adminHandler.ListLeads)
			admin.PUT("/leads/:id/status", adminHandler.UpdateLeadStatus)

			// Company profile
			admin.PUT("/settings", adminHandler.UpdateSettings)

			// Maintenance
			admin.POST("/maintenance/run", adminHandler.TriggerMaintenance)
			admin.POST("/cleanup/run", adminHandler.RunCleanup)

			// Catalog management
			admin.POST("/properties", adminHandler.CreateSiteProperty)
			admin.PUT("/properties/:id", adminHandler.UpdateSiteProperty)
			admin.DELETE("/properties/:id", adminHandler.DeleteSiteProperty)
			admin.PUT("/properties/:id/images", adminHandler.ReplacePropertyImages)

			// Cities
			admin.POST("/cities", adminHandler.CreateCity)
			admin.PUT("/cities/:id", adminHandler.UpdateCity)
			admin.DELETE("/cities/:id", adminHandler.DeleteCity)

			// Hero images
			admin.GET("/hero-images", adminHandler.ListHeroImages)
			admin.POST("/hero-images", adminHandler.CreateHeroImage)
			admin.PUT("/hero-images/:id", adminHandler.UpdateHeroImage)
			admin.DELETE("/hero-images/:id", adminHandler.DeleteHeroImage)
		}

		log.Println("Admin API routes registered at /api/admin/*")
	}

	port := strconv.Itoa(appConfig.Server.Port)
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

// ---- CRM feed endpoints ----

func getFeedStatus(c *gin.Context) {
	status, err := feedClient.CheckStatus(c.Request.Context())
	if err != nil {
		respondFeedError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func getFeedProperties(c *gin.Context) {
	filters := emblematic.SearchFilters{}

	switch c.Query("operation") {
	case "sale", "SALE":
		filters.Operation = emblematic.OperationSale
	case "rent", "RENT":
		filters.Operation = emblematic.OperationRent
	}

	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filters.Page = v
	}
	if v, err := strconv.Atoi(c.Query("subtype_id")); err == nil {
		filters.SubtypeID = v
	}
	if v, err := strconv.Atoi(c.Query("rooms")); err == nil {
		filters.Rooms = v
	}
	if v, err := strconv.Atoi(c.Query("bathrooms")); err == nil {
		filters.Bathrooms = v
	}
	if v, err := strconv.Atoi(c.Query("price_min")); err == nil {
		filters.PriceMin = v
	}
	if v, err := strconv.Atoi(c.Query("price_max")); err == nil {
		filters.PriceMax = v
	}

	page, err := feedClient.SearchProperties(c.Request.Context(), filters)
	if err != nil {
		respondFeedError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func getFeedFeatured(c *gin.Context) {
	featured, err := feedClient.FeaturedProperties(c.Request.Context())
	if err != nil {
		respondFeedError(c, err)
		return
	}
	c.JSON(http.StatusOK, featured)
}

func getFeedProperty(c *gin.Context) {
	property, err := feedClient.PropertyByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondFeedError(c, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

func getFeedCities(c *gin.Context) {
	cities, err := feedClient.AvailableCities(c.Request.Context())
	if err != nil {
		respondFeedError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

func getFeedLists(c *gin.Context) {
	params := emblematic.ListsParams{
		Lists: c.QueryArray("list"),
	}
	if v, err := strconv.Atoi(c.Query("country_id")); err == nil {
		params.CountryID = v
	}
	if v, err := strconv.Atoi(c.Query("region_id")); err == nil {
		params.RegionID = v
	}
	if v, err := strconv.Atoi(c.Query("city_id")); err == nil {
		params.CityID = v
	}

	lists, err := feedClient.Lists(c.Request.Context(), params)
	if err != nil {
		respondFeedError(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}

// respondFeedError maps feed client errors to HTTP responses. Upstream
// details never leak to the caller beyond a generic unavailable message.
func respondFeedError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, emblematic.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
	case errors.Is(err, emblematic.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Listing feed is not configured"})
	default:
		log.Printf("[Feed] upstream error: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Listing feed is temporarily unavailable"})
	}
}

// ---- Chatbot endpoints ----

func postChatMessage(c *gin.Context) {
	var req struct {
		SessionID   string `json:"sessionId"`
		Message     string `json:"message" binding:"required"`
		PropertyRef string `json:"propertyRef"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	response, err := chatResponder.ProcessMessage(c.Request.Context(), req.SessionID, req.Message, req.PropertyRef)
	if err != nil {
		log.Printf("[Chatbot] Failed to process message: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId":     req.SessionID,
		"message":       response.Message,
		"suggestions":   response.Suggestions,
		"properties":    response.Properties,
		"askForContact": response.AskForContact,
	})
}

func getChatHistory(c *gin.Context) {
	messages, err := chatResponder.History(c.Param("sessionId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// ---- Leads ----

func createLead(c *gin.Context) {
	var req struct {
		Email  string `json:"email" binding:"required,email"`
		Name   string `json:"name"`
		Phone  string `json:"phone"`
		Source string `json:"source"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var lead *models.Lead
	var err error
	if gormDB != nil {
		lead, err = gormDB.CreateLead(req.Email, req.Name, req.Phone, req.Source)
	} else {
		lead, err = pgDB.CreateLead(req.Email, req.Name, req.Phone, req.Source)
	}
	if errors.Is(err, models.ErrInvalidEmail) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email inválido"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, lead)
}

// ---- Company profile ----

func getSettings(c *gin.Context) {
	var settings *models.CompanySettings
	var err error
	if gormDB != nil {
		settings, err = gormDB.Settings()
	} else {
		settings, err = pgDB.Settings()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// ---- Managed catalog endpoints ----

func getCatalogProperties(c *gin.Context) {
	filters := database.SitePropertyFilters{
		Operation:    c.Query("operation"),
		PropertyType: c.Query("property_type"),
		CitySlug:     c.Query("city"),
		OrderBy:      c.DefaultQuery("sort", "recent"),
		FeaturedOnly: c.Query("featured") == "true",
	}

	if v, err := strconv.Atoi(c.Query("bedrooms")); err == nil {
		filters.Bedrooms = v
	}
	if v, err := strconv.ParseFloat(c.Query("price_min"), 64); err == nil {
		filters.PriceMin = v
	}
	if v, err := strconv.ParseFloat(c.Query("price_max"), 64); err == nil {
		filters.PriceMax = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && v > 0 {
		filters.Limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		filters.Offset = v
	}

	// Public listing only shows active properties
	filters.Status = models.SitePropertyActive

	properties, total, err := gormDB.ListSiteProperties(filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": properties,
		"total":      total,
	})
}

func getCatalogProperty(c *gin.Context) {
	property, err := gormDB.SitePropertyBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, property)
}

func getCities(c *gin.Context) {
	cities, err := gormDB.ListCities(c.DefaultQuery("active", "true") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

func getHeroImages(c *gin.Context) {
	images, err := gormDB.HeroImages(c.DefaultQuery("page_key", "home"), true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

func searchCatalog(c *gin.Context) {
	if searchClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search is not enabled"})
		return
	}

	params := search.FilterParams{
		Query:        c.Query("q"),
		Operation:    c.Query("operation"),
		CitySlug:     c.Query("city"),
		SortBy:       c.Query("sort"),
		FeaturedOnly: c.Query("featured") == "true",
	}

	if types := c.QueryArray("property_type"); len(types) > 0 {
		params.PropertyTypes = types
	}
	if v, err := strconv.ParseFloat(c.Query("price_min"), 64); err == nil {
		params.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(c.Query("price_max"), 64); err == nil {
		params.MaxPrice = &v
	}
	if v, err := strconv.Atoi(c.Query("bedrooms")); err == nil {
		params.MinBedrooms = &v
	}
	if v, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64); err == nil && v > 0 {
		params.Limit = v
	}

	hits, err := searchClient.FilterSearch(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hits":  hits,
		"count": len(hits),
	})
}

// ---- Helpers ----

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}

// rateLimitMiddleware returns a Gin middleware that enforces per-visitor rate limiting
func rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !visitorLimiter.Allow(key) {
			stats := visitorLimiter.GetStats(key)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests. Please try again later.",
				"stats":   stats,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
