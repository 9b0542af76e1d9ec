package handlers

import (
	"bytes"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/kaiac/backend/internal/models"
	"github.com/kaiac/backend/internal/services"
)

type BackupHandler struct {
	db         *gorm.DB
	policies   *services.BackupPolicyService
	backups    *services.BackupService
	accounting *services.StorageAccountingService
	notifier   *services.Notifier
}

func NewBackupHandler(db *gorm.DB, policies *services.BackupPolicyService, backups *services.BackupService,
	accounting *services.StorageAccountingService, notifier *services.Notifier) *BackupHandler {
	return &BackupHandler{db: db, policies: policies, backups: backups, accounting: accounting, notifier: notifier}
}

// GetPolicy returns a website's backup policy, creating the default on first
// access
func (h *BackupHandler) GetPolicy(c *fiber.Ctx) error {
	websiteID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid website id",
		})
	}

	policy, err := h.policies.GetOrCreate(uint(websiteID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    policy,
	})
}

// UpdatePolicy edits the schedule; next_run_at is recomputed when the
// frequency or time of day changed
func (h *BackupHandler) UpdatePolicy(c *fiber.Ctx) error {
	websiteID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid website id",
		})
	}

	var update services.PolicyUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	policy, err := h.policies.Update(uint(websiteID), update, time.Now().UTC())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    policy,
	})
}

// ListRecords returns a website's backups newest first
func (h *BackupHandler) ListRecords(c *fiber.Ctx) error {
	websiteID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid website id",
		})
	}
	limit := c.QueryInt("limit", 100)

	records, err := h.backups.List(uint(websiteID), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load backups",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    records,
	})
}

// CreateRecordRequest represents a new backup attempt
type CreateRecordRequest struct {
	Type         models.BackupType `json:"type"`
	IsAutomatic  bool              `json:"is_automatic"`
	RestorePoint bool              `json:"restore_point"`
}

// CreateRecord records a new pending backup. The external scheduler calls
// this when next_run_at fires; manual backups come from the panel.
func (h *BackupHandler) CreateRecord(c *fiber.Ctx) error {
	websiteID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid website id",
		})
	}

	var req CreateRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	record, err := h.backups.Create(services.CreateParams{
		WebsiteID:    uint(websiteID),
		Type:         req.Type,
		IsAutomatic:  req.IsAutomatic,
		RestorePoint: req.RestorePoint,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	// An automatic run advances the schedule
	if req.IsAutomatic {
		if err := h.policies.MarkRun(uint(websiteID), time.Now().UTC()); err != nil {
			log.Printf("Backup: failed to advance schedule for website %d: %v", websiteID, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    record,
	})
}

// UploadArchive receives a pending backup's archive from the hosting agent
// and streams it to the selected store
func (h *BackupHandler) UploadArchive(c *fiber.Ctx) error {
	recordID, err := c.ParamsInt("recordId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid backup record id",
		})
	}

	body := c.Body()
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Archive body is empty",
		})
	}

	storeName := c.Query("store", "s3")

	record, err := h.backups.UploadArchive(c.Context(), uint(recordID), storeName,
		bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    record,
	})
}

// TransitionRequest carries a status change for a backup record
type TransitionRequest struct {
	Status       models.BackupStatus `json:"status"`
	SizeMB       *int64              `json:"size_mb"`
	ArchiveStore string              `json:"archive_store"`
	ArchivePath  string              `json:"archive_path"`
	ErrorMessage string              `json:"error_message"`
}

// TransitionRecord moves a backup to completed, failed or restoring
func (h *BackupHandler) TransitionRecord(c *fiber.Ctx) error {
	recordID, err := c.ParamsInt("recordId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid backup record id",
		})
	}

	var req TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	record, err := h.backups.Transition(uint(recordID), req.Status, services.CompleteParams{
		SizeMB:       req.SizeMB,
		ArchiveStore: req.ArchiveStore,
		ArchivePath:  req.ArchivePath,
		ErrorMessage: req.ErrorMessage,
	})
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	// A completed full backup may have pushed the subscription over its plan
	// limit; the alert goes out here, after the accounting write committed
	if record.Status == models.BackupStatusCompleted && record.Type == models.BackupTypeFull {
		var website models.Website
		if err := h.db.First(&website, record.WebsiteID).Error; err == nil {
			if usage, err := h.accounting.LatestUsage(website.SubscriptionID); err == nil && usage.ThresholdExceeded {
				var subscription models.Subscription
				if err := h.db.First(&subscription, website.SubscriptionID).Error; err == nil {
					if err := h.notifier.NotifyThresholdExceeded(&subscription, usage); err != nil {
						log.Printf("Backup: threshold alert failed for subscription %d: %v",
							subscription.ID, err)
					}
				}
			}
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    record,
	})
}

// Cleanup applies the website's retention policy: expired non-restore-point
// records are deleted, then the count limit is enforced
func (h *BackupHandler) Cleanup(c *fiber.Ctx) error {
	websiteID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid website id",
		})
	}

	policy, err := h.policies.GetOrCreate(uint(websiteID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	expired, err := h.backups.Cleanup(uint(websiteID), policy.RetentionDays)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	trimmed, err := h.backups.TrimToLimit(uint(websiteID), policy.MaxBackups)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"expired_deleted": expired,
			"trimmed_deleted": trimmed,
		},
	})
}
