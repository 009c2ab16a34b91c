package scheduler

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/masahu84/Korvalia-backend/internal/cleanup"
	"github.com/masahu84/Korvalia-backend/internal/config"
	"github.com/masahu84/Korvalia-backend/internal/database"
	"github.com/masahu84/Korvalia-backend/internal/models"
	"github.com/masahu84/Korvalia-backend/internal/ratelimit"
	"github.com/masahu84/Korvalia-backend/internal/search"
)

// Scheduler runs the daily maintenance job: conversation retention, search
// reindexing of the managed catalog and rate limiter pruning.
type Scheduler struct {
	cron      *cron.Cron
	db        *gorm.DB
	cleanup   *cleanup.Service
	search    *search.SearchClient
	limiter   *ratelimit.VisitorLimiter
	config    *config.Config
	isRunning bool
}

// NewScheduler creates a new scheduler. The search client may be nil when
// search is disabled.
func NewScheduler(db *gorm.DB, searchClient *search.SearchClient, limiter *ratelimit.VisitorLimiter, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		db:      db,
		cleanup: cleanup.NewService(db),
		search:  searchClient,
		limiter: limiter,
		config:  cfg,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Scheduler.Enabled {
		log.Println("Scheduler: Daily maintenance is disabled in configuration")
		return nil
	}

	// Parse daily run time (HH:MM format in config)
	cronSpec := s.parseDailyRunTime(s.config.Scheduler.DailyRunTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		log.Println("Scheduler: Starting daily maintenance job...")
		if err := s.runMaintenance(); err != nil {
			log.Printf("Scheduler: Daily maintenance failed: %v", err)
		} else {
			log.Println("Scheduler: Daily maintenance completed successfully")
		}
	})
	if err != nil {
		return err
	}

	// Hourly limiter pruning keeps the per-visitor map bounded
	if s.limiter != nil {
		_, err = s.cron.AddFunc("@hourly", func() {
			if pruned := s.limiter.Prune(); pruned > 0 {
				log.Printf("Scheduler: Pruned %d idle rate limiter entries", pruned)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: Started with daily run at %s (cron: %s)", s.config.Scheduler.DailyRunTime, cronSpec)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}

// runMaintenance executes the daily maintenance routine
func (s *Scheduler) runMaintenance() error {
	if s.config.Scheduler.CleanupOnRun {
		cfg := cleanup.Config{
			StaleAfterHours:  s.config.Chatbot.StaleAfterHours,
			RetentionDays:    s.config.Chatbot.RetentionDays,
			MaxDeletionCount: s.config.Scheduler.MaxDeletionCount,
			DryRun:           s.config.Scheduler.CleanupDryRun,
		}
		result, err := s.cleanup.Run(cfg)
		if err != nil {
			return fmt.Errorf("conversation cleanup: %w", err)
		}
		log.Printf("Scheduler: Cleanup closed %d, deleted %d conversations", result.ClosedCount, result.DeletedCount)
	}

	if s.config.Scheduler.ReindexOnRun && s.search != nil {
		if err := s.reindexCatalog(); err != nil {
			return fmt.Errorf("catalog reindex: %w", err)
		}
	}

	return nil
}

// reindexCatalog pushes the full managed catalog into the search index in
// batches.
func (s *Scheduler) reindexCatalog() error {
	gdb := database.NewGormDBFromDB(s.db)

	const batchSize = 200
	indexed := 0
	for offset := 0; ; offset += batchSize {
		properties, _, err := gdb.ListSiteProperties(database.SitePropertyFilters{
			Status: models.SitePropertyActive,
			Limit:  batchSize,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		if len(properties) == 0 {
			break
		}
		if err := s.search.IndexProperties(properties); err != nil {
			return err
		}
		indexed += len(properties)
		if len(properties) < batchSize {
			break
		}
	}

	log.Printf("Scheduler: Reindexed %d catalog listings", indexed)
	return nil
}

// RunNow immediately executes the maintenance job (for manual trigger)
func (s *Scheduler) RunNow() error {
	log.Println("Scheduler: Manual trigger - starting maintenance job...")
	return s.runMaintenance()
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "03:00" -> "0 3 * * *" (run at 3:00 AM every day)
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	// Default to 3:00 AM if parsing fails
	log.Printf("Scheduler: Failed to parse time '%s', using default 03:00", timeStr)
	return "0 3 * * *"
}
