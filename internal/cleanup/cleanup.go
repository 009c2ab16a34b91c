package cleanup

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/masahu84/Korvalia-backend/internal/models"
)

// Service handles retention of chat conversations: closing stale sessions
// and physically deleting closed ones past the retention window.
type Service struct {
	db *gorm.DB
}

// NewService creates a new cleanup service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Config holds retention settings for cleanup runs
type Config struct {
	StaleAfterHours  int  // Hours of inactivity before an ACTIVE conversation is closed (default: 24)
	RetentionDays    int  // Days to keep closed conversations before physical deletion (default: 90)
	MaxDeletionCount int  // Maximum number of conversations to delete in one run (safety limit)
	DryRun           bool // If true, only log what would be deleted without actually deleting
}

// DefaultConfig returns default retention settings
func DefaultConfig() Config {
	return Config{
		StaleAfterHours:  24,
		RetentionDays:    90,
		MaxDeletionCount: 10000,
		DryRun:           false,
	}
}

// Result holds the outcome of one cleanup run
type Result struct {
	ClosedCount  int64     `json:"closed_count"`  // ACTIVE conversations closed for inactivity
	TargetCount  int64     `json:"target_count"`  // Closed conversations past retention
	DeletedCount int64     `json:"deleted_count"` // Conversations actually deleted
	DryRun       bool      `json:"dry_run"`
	ExecutedAt   time.Time `json:"executed_at"`
}

// Run closes stale conversations and deletes expired ones. Conversations
// with captured leads keep their LEAD_CAPTURED status and are never touched.
func (s *Service) Run(config Config) (*Result, error) {
	result := &Result{
		DryRun:     config.DryRun,
		ExecutedAt: time.Now(),
	}

	staleCutoff := time.Now().Add(-time.Duration(config.StaleAfterHours) * time.Hour)
	retentionCutoff := time.Now().AddDate(0, 0, -config.RetentionDays)

	// 1. Close stale ACTIVE conversations
	if config.DryRun {
		var staleCount int64
		err := s.db.Model(&models.ChatConversation{}).
			Where("status = ? AND updated_at < ?", models.ChatStatusActive, staleCutoff).
			Count(&staleCount).Error
		if err != nil {
			return nil, err
		}
		result.ClosedCount = staleCount
		log.Printf("[Cleanup] [DRY-RUN] Would close %d stale conversations", staleCount)
	} else {
		closed := s.db.Model(&models.ChatConversation{}).
			Where("status = ? AND updated_at < ?", models.ChatStatusActive, staleCutoff).
			Update("status", models.ChatStatusClosed)
		if closed.Error != nil {
			return nil, closed.Error
		}
		result.ClosedCount = closed.RowsAffected
	}

	// 2. Find closed conversations past retention
	var expiredIDs []uint
	err := s.db.Model(&models.ChatConversation{}).
		Where("status = ? AND updated_at < ?", models.ChatStatusClosed, retentionCutoff).
		Pluck("id", &expiredIDs).Error
	if err != nil {
		return nil, err
	}
	result.TargetCount = int64(len(expiredIDs))

	if result.TargetCount == 0 {
		log.Printf("[Cleanup] Closed %d stale conversations, nothing past retention", result.ClosedCount)
		return result, nil
	}

	// Safety check: abort if too many conversations would be deleted
	if len(expiredIDs) > config.MaxDeletionCount {
		return nil, errors.New("cleanup: expired conversations exceed max deletion limit")
	}

	if config.DryRun {
		log.Printf("[Cleanup] [DRY-RUN] Would delete %d conversations past %d-day retention",
			result.TargetCount, config.RetentionDays)
		result.DeletedCount = result.TargetCount
		return result, nil
	}

	// 3. Delete transcripts and conversations atomically
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id IN ?", expiredIDs).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", expiredIDs).Delete(&models.ChatConversation{}).Error
	})
	if err != nil {
		return nil, err
	}
	result.DeletedCount = result.TargetCount

	log.Printf("[Cleanup] Closed %d stale, deleted %d expired conversations (retention: %d days)",
		result.ClosedCount, result.DeletedCount, config.RetentionDays)

	return result, nil
}

// Stats returns retention statistics for the admin dashboard
func (s *Service) Stats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var byStatus []struct {
		Status string
		Count  int64
	}
	if err := s.db.Model(&models.ChatConversation{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}

	statusMap := make(map[string]int64)
	for _, sc := range byStatus {
		statusMap[sc.Status] = sc.Count
	}
	stats["by_status"] = statusMap

	var totalMessages int64
	if err := s.db.Model(&models.ChatMessage{}).Count(&totalMessages).Error; err != nil {
		return nil, err
	}
	stats["total_messages"] = totalMessages

	var leadsLast30 int64
	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	if err := s.db.Model(&models.ChatConversation{}).
		Where("status = ? AND updated_at >= ?", models.ChatStatusLeadCaptured, thirtyDaysAgo).
		Count(&leadsLast30).Error; err != nil {
		return nil, err
	}
	stats["leads_last_30_days"] = leadsLast30

	cutoff := time.Now().AddDate(0, 0, -DefaultConfig().RetentionDays)
	var expired int64
	if err := s.db.Model(&models.ChatConversation{}).
		Where("status = ? AND updated_at < ?", models.ChatStatusClosed, cutoff).
		Count(&expired).Error; err != nil {
		return nil, err
	}
	stats["expired_ready_for_deletion"] = expired

	return stats, nil
}
