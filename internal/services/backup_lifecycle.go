package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/kaiac/backend/internal/archive"
	"github.com/kaiac/backend/internal/models"
	"gorm.io/gorm"
)

// BackupService records backup attempts, drives status transitions and applies
// retention cleanup
type BackupService struct {
	db         *gorm.DB
	accounting *StorageAccountingService
	archives   map[string]archive.Store
}

func NewBackupService(db *gorm.DB, accounting *StorageAccountingService, stores ...archive.Store) *BackupService {
	archives := make(map[string]archive.Store, len(stores))
	for _, store := range stores {
		archives[store.Name()] = store
	}
	return &BackupService{db: db, accounting: accounting, archives: archives}
}

// CreateParams describes a new backup attempt
type CreateParams struct {
	WebsiteID    uint
	Type         models.BackupType
	IsAutomatic  bool
	RestorePoint bool
}

// Create records a new pending backup for a website
func (s *BackupService) Create(params CreateParams) (*models.BackupRecord, error) {
	switch params.Type {
	case models.BackupTypeFull, models.BackupTypeDatabase, models.BackupTypeFiles:
	default:
		return nil, fmt.Errorf("invalid backup type %q", params.Type)
	}

	var website models.Website
	if err := s.db.First(&website, params.WebsiteID).Error; err != nil {
		return nil, fmt.Errorf("website %d not found: %w", params.WebsiteID, err)
	}

	record := &models.BackupRecord{
		WebsiteID:    params.WebsiteID,
		Type:         params.Type,
		Status:       models.BackupStatusPending,
		IsAutomatic:  params.IsAutomatic,
		RestorePoint: params.RestorePoint,
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, err
	}

	return record, nil
}

// UploadArchive streams a pending backup's archive to the named store and
// records its location. The agent uploads first, then reports completion;
// the location survives a completion call that carries none.
func (s *BackupService) UploadArchive(ctx context.Context, recordID uint, storeName string, content io.Reader, size int64) (*models.BackupRecord, error) {
	var record models.BackupRecord
	if err := s.db.First(&record, recordID).Error; err != nil {
		return nil, fmt.Errorf("backup record %d not found: %w", recordID, err)
	}

	if record.Status != models.BackupStatusPending {
		return nil, fmt.Errorf("backup %d: archive upload requires status pending, got %s", recordID, record.Status)
	}

	store, ok := s.archives[storeName]
	if !ok {
		return nil, fmt.Errorf("unknown archive store %q", storeName)
	}

	path := fmt.Sprintf("websites/%d/backup-%d.tar.gz", record.WebsiteID, record.ID)
	if err := store.Upload(ctx, path, content, size); err != nil {
		return nil, fmt.Errorf("backup %d: archive upload failed: %w", recordID, err)
	}

	if err := s.db.Model(&record).Updates(map[string]interface{}{
		"archive_store": storeName,
		"archive_path":  path,
	}).Error; err != nil {
		return nil, err
	}
	record.ArchiveStore = storeName
	record.ArchivePath = path

	return &record, nil
}

// CompleteParams carries the outcome details for a finished backup
type CompleteParams struct {
	SizeMB       *int64
	ArchiveStore string
	ArchivePath  string
	ErrorMessage string
}

// allowedTransitions maps a status to the statuses it may move to
var allowedTransitions = map[models.BackupStatus][]models.BackupStatus{
	models.BackupStatusPending:   {models.BackupStatusCompleted, models.BackupStatusFailed},
	models.BackupStatusCompleted: {models.BackupStatusRestoring},
	models.BackupStatusRestoring: {models.BackupStatusCompleted},
	models.BackupStatusFailed:    {},
}

// Transition moves a backup record to a new status. Repeating "completed" on
// an already-completed record is a no-op so a duplicated completion
// notification never double-counts storage.
func (s *BackupService) Transition(recordID uint, newStatus models.BackupStatus, params CompleteParams) (*models.BackupRecord, error) {
	var record models.BackupRecord
	if err := s.db.First(&record, recordID).Error; err != nil {
		return nil, fmt.Errorf("backup record %d not found: %w", recordID, err)
	}

	if record.Status == models.BackupStatusCompleted && newStatus == models.BackupStatusCompleted {
		return &record, nil
	}

	if !transitionAllowed(record.Status, newStatus) {
		return nil, fmt.Errorf("backup %d: transition %s -> %s not allowed", recordID, record.Status, newStatus)
	}

	previous := record.Status
	record.Status = newStatus

	switch newStatus {
	case models.BackupStatusCompleted:
		if previous == models.BackupStatusPending {
			now := time.Now().UTC()
			record.CompletedAt = &now
			record.SizeMB = params.SizeMB
			// A pre-uploaded archive location survives an empty completion
			if params.ArchiveStore != "" {
				record.ArchiveStore = params.ArchiveStore
				record.ArchivePath = params.ArchivePath
			}
		}
	case models.BackupStatusFailed:
		record.ErrorMessage = params.ErrorMessage
	}

	// The status save and the storage accounting commit together: a failed
	// aggregation rolls the record back so the redelivered completion can
	// retry instead of hitting the completed no-op
	var usage *models.StorageUsageRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&record).Error; err != nil {
			return err
		}

		// Storage is counted exactly once, on the first pending -> completed
		// transition of a full backup with a known size
		if newStatus == models.BackupStatusCompleted && previous == models.BackupStatusPending &&
			record.Type == models.BackupTypeFull && record.SizeMB != nil {
			var err error
			usage, err = addBackupSizeTx(tx, record.WebsiteID, *record.SizeMB)
			if err != nil {
				return fmt.Errorf("backup %d completed but storage accounting failed: %w", recordID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.accounting.cacheSnapshot(usage)

	return &record, nil
}

func transitionAllowed(from, to models.BackupStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Cleanup deletes non-restore-point records older than the retention cutoff.
// Restore points are permanently exempt. Re-running with the same cutoff is a
// no-op, not an error.
func (s *BackupService) Cleanup(websiteID uint, retentionDays int) (int64, error) {
	if retentionDays < 1 {
		return 0, fmt.Errorf("retention days must be positive, got %d", retentionDays)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	var expired []models.BackupRecord
	if err := s.db.Where("website_id = ? AND restore_point = ? AND created_at < ?",
		websiteID, false, cutoff).Find(&expired).Error; err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	ids := make([]uint, 0, len(expired))
	for _, record := range expired {
		ids = append(ids, record.ID)
	}

	result := s.db.Where("id IN ?", ids).Delete(&models.BackupRecord{})
	if result.Error != nil {
		return 0, result.Error
	}

	// Best effort: drop the remote archives too. A failed remote delete does
	// not undo the row deletion; the object expires with the bucket policy.
	s.deleteArchives(expired)

	return result.RowsAffected, nil
}

// TrimToLimit keeps only the newest maxBackups non-restore-point records for a
// website, deleting the oldest surplus
func (s *BackupService) TrimToLimit(websiteID uint, maxBackups int) (int64, error) {
	if maxBackups < 1 {
		return 0, fmt.Errorf("max backups must be positive, got %d", maxBackups)
	}

	var records []models.BackupRecord
	if err := s.db.Where("website_id = ? AND restore_point = ?", websiteID, false).
		Order("created_at DESC").Find(&records).Error; err != nil {
		return 0, err
	}
	if len(records) <= maxBackups {
		return 0, nil
	}
	surplus := records[maxBackups:]

	ids := make([]uint, 0, len(surplus))
	for _, record := range surplus {
		ids = append(ids, record.ID)
	}

	result := s.db.Where("id IN ?", ids).Delete(&models.BackupRecord{})
	if result.Error != nil {
		return 0, result.Error
	}

	s.deleteArchives(surplus)

	return result.RowsAffected, nil
}

func (s *BackupService) deleteArchives(records []models.BackupRecord) {
	ctx := context.Background()
	for _, record := range records {
		if record.ArchivePath == "" {
			continue
		}
		store, ok := s.archives[record.ArchiveStore]
		if !ok {
			continue
		}
		if err := store.Delete(ctx, record.ArchivePath); err != nil {
			log.Printf("Backup cleanup: failed to delete archive %s on %s: %v",
				record.ArchivePath, record.ArchiveStore, err)
		}
	}
}

// List returns a website's backup records newest first
func (s *BackupService) List(websiteID uint, limit int) ([]models.BackupRecord, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var records []models.BackupRecord
	err := s.db.Where("website_id = ?", websiteID).
		Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}
