package services

import (
	"fmt"
	"time"

	"github.com/kaiac/backend/internal/database"
	"github.com/kaiac/backend/internal/models"
	"gorm.io/gorm"
)

// StorageAccountingService aggregates per-website storage usage into
// append-only subscription usage records
type StorageAccountingService struct {
	db    *gorm.DB
	cache *database.UsageCache
}

func NewStorageAccountingService(db *gorm.DB, cache *database.UsageCache) *StorageAccountingService {
	return &StorageAccountingService{db: db, cache: cache}
}

// RecordUsage sums storage across the subscription's active websites, compares
// the total against the plan limit and appends an immutable snapshot. Prior
// records are never touched.
func (s *StorageAccountingService) RecordUsage(subscriptionID uint) (*models.StorageUsageRecord, error) {
	var record *models.StorageUsageRecord

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		record, err = recordUsageTx(tx, subscriptionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cacheSnapshot(record)
	return record, nil
}

// AddBackupSize adds a completed backup's size to the website's running total
// and re-aggregates the owning subscription. The increment and the aggregation
// run in one transaction so the sum never reads a stale total.
func (s *StorageAccountingService) AddBackupSize(websiteID uint, sizeMB int64) (*models.StorageUsageRecord, error) {
	var record *models.StorageUsageRecord

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		record, err = addBackupSizeTx(tx, websiteID, sizeMB)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cacheSnapshot(record)
	return record, nil
}

// addBackupSizeTx performs the increment and re-aggregation inside the
// caller's transaction
func addBackupSizeTx(tx *gorm.DB, websiteID uint, sizeMB int64) (*models.StorageUsageRecord, error) {
	var website models.Website
	if err := tx.First(&website, websiteID).Error; err != nil {
		return nil, fmt.Errorf("website %d not found: %w", websiteID, err)
	}

	if err := tx.Model(&website).
		UpdateColumn("used_storage_mb", gorm.Expr("used_storage_mb + ?", sizeMB)).Error; err != nil {
		return nil, err
	}

	return recordUsageTx(tx, website.SubscriptionID)
}

// recordUsageTx performs the aggregate-and-append inside the caller's
// transaction. Only active websites count toward the total.
func recordUsageTx(tx *gorm.DB, subscriptionID uint) (*models.StorageUsageRecord, error) {
	var subscription models.Subscription
	if err := tx.Preload("Plan").First(&subscription, subscriptionID).Error; err != nil {
		return nil, fmt.Errorf("subscription %d not found: %w", subscriptionID, err)
	}

	// A subscription without a plan is a data-integrity violation, never a
	// silent "not exceeded"
	if subscription.Plan == nil {
		return nil, fmt.Errorf("subscription %d has no associated plan", subscriptionID)
	}

	var total int64
	if err := tx.Model(&models.Website{}).
		Where("subscription_id = ? AND is_active = ?", subscriptionID, true).
		Select("COALESCE(SUM(used_storage_mb), 0)").
		Scan(&total).Error; err != nil {
		return nil, err
	}

	record := &models.StorageUsageRecord{
		SubscriptionID:    subscriptionID,
		UsedStorageMB:     total,
		IncludedStorageMB: subscription.Plan.IncludedStorageMB,
		ThresholdExceeded: total > subscription.Plan.IncludedStorageMB,
		MeasuredAt:        time.Now().UTC(),
	}
	if err := tx.Create(record).Error; err != nil {
		return nil, err
	}

	return record, nil
}

// LatestUsage returns the most recent snapshot for a subscription, serving
// from the Redis cache when possible
func (s *StorageAccountingService) LatestUsage(subscriptionID uint) (*models.StorageUsageRecord, error) {
	if cached := s.cache.Get(subscriptionID); cached != nil {
		return &models.StorageUsageRecord{
			SubscriptionID:    cached.SubscriptionID,
			UsedStorageMB:     cached.UsedStorageMB,
			IncludedStorageMB: cached.IncludedStorageMB,
			ThresholdExceeded: cached.ThresholdExceeded,
			MeasuredAt:        cached.MeasuredAt,
		}, nil
	}

	var record models.StorageUsageRecord
	if err := s.db.Where("subscription_id = ?", subscriptionID).
		Order("measured_at DESC").First(&record).Error; err != nil {
		return nil, err
	}

	s.cacheSnapshot(&record)
	return &record, nil
}

// UsageHistory returns snapshots newest first
func (s *StorageAccountingService) UsageHistory(subscriptionID uint, limit int) ([]models.StorageUsageRecord, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var records []models.StorageUsageRecord
	err := s.db.Where("subscription_id = ?", subscriptionID).
		Order("measured_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

func (s *StorageAccountingService) cacheSnapshot(record *models.StorageUsageRecord) {
	if record == nil {
		return
	}
	s.cache.Set(&database.CachedUsage{
		SubscriptionID:    record.SubscriptionID,
		UsedStorageMB:     record.UsedStorageMB,
		IncludedStorageMB: record.IncludedStorageMB,
		ThresholdExceeded: record.ThresholdExceeded,
		MeasuredAt:        record.MeasuredAt,
	})
}
