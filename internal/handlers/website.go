package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/kaiac/backend/internal/middleware"
	"github.com/kaiac/backend/internal/models"
	"github.com/kaiac/backend/internal/services"
)

type WebsiteHandler struct {
	db         *gorm.DB
	accounting *services.StorageAccountingService
	notifier   *services.Notifier
}

func NewWebsiteHandler(db *gorm.DB, accounting *services.StorageAccountingService, notifier *services.Notifier) *WebsiteHandler {
	return &WebsiteHandler{db: db, accounting: accounting, notifier: notifier}
}

// List returns the websites under the user's subscriptions
func (h *WebsiteHandler) List(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	var websites []models.Website
	query := h.db.Joins("JOIN subscriptions ON subscriptions.id = websites.subscription_id").
		Where("subscriptions.user_id = ?", user.ID)
	if user.Role == models.RoleAdmin {
		query = h.db
	}

	if err := query.Order("websites.created_at DESC").Find(&websites).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load websites",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    websites,
	})
}

// Get returns a single website
func (h *WebsiteHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")

	var website models.Website
	if err := h.db.Preload("BackupPolicy").First(&website, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Website not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    website,
	})
}

// CreateWebsiteRequest represents a new website
type CreateWebsiteRequest struct {
	SubscriptionID uint   `json:"subscription_id"`
	Name           string `json:"name"`
	Domain         string `json:"domain"`
}

// Create adds a website to a subscription
func (h *WebsiteHandler) Create(c *fiber.Ctx) error {
	var req CreateWebsiteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.Name == "" || req.Domain == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Name and domain are required",
		})
	}

	var subscription models.Subscription
	if err := h.db.First(&subscription, req.SubscriptionID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Subscription not found",
		})
	}

	website := models.Website{
		SubscriptionID: req.SubscriptionID,
		Name:           req.Name,
		Domain:         req.Domain,
		IsActive:       true,
	}
	if err := h.db.Create(&website).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Domain already in use",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    website,
	})
}

// UpdateStorageRequest carries a new storage measurement
type UpdateStorageRequest struct {
	UsedStorageMB int64 `json:"used_storage_mb"`
}

// UpdateStorage sets a website's measured storage and re-aggregates the
// subscription usage. The threshold alert goes out here, after the write
// committed, so the trigger order stays explicit.
func (h *WebsiteHandler) UpdateStorage(c *fiber.Ctx) error {
	id := c.Params("id")

	var req UpdateStorageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.UsedStorageMB < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Storage cannot be negative",
		})
	}

	var website models.Website
	if err := h.db.First(&website, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Website not found",
		})
	}

	if err := h.db.Model(&website).Update("used_storage_mb", req.UsedStorageMB).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update storage",
		})
	}

	record, err := h.accounting.RecordUsage(website.SubscriptionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	if record.ThresholdExceeded {
		var subscription models.Subscription
		if err := h.db.First(&subscription, website.SubscriptionID).Error; err == nil {
			if err := h.notifier.NotifyThresholdExceeded(&subscription, record); err != nil {
				log.Printf("Website: threshold alert failed for subscription %d: %v",
					subscription.ID, err)
			}
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"website": website,
			"usage":   record,
		},
	})
}

// UpdateWebsiteRequest represents editable website fields
type UpdateWebsiteRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

// Update edits a website; flipping is_active re-aggregates usage since only
// active websites count toward the total
func (h *WebsiteHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")

	var req UpdateWebsiteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	var website models.Website
	if err := h.db.First(&website, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Website not found",
		})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	activeChanged := req.IsActive != nil && *req.IsActive != website.IsActive
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := h.db.Model(&website).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to update website",
			})
		}
	}

	if activeChanged {
		if _, err := h.accounting.RecordUsage(website.SubscriptionID); err != nil {
			log.Printf("Website: usage re-aggregation failed for subscription %d: %v",
				website.SubscriptionID, err)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    website,
	})
}

// Delete removes a website along with its backup policy and records
func (h *WebsiteHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")

	var website models.Website
	if err := h.db.First(&website, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Website not found",
		})
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("website_id = ?", website.ID).Delete(&models.BackupPolicy{}).Error; err != nil {
			return err
		}
		if err := tx.Where("website_id = ?", website.ID).Delete(&models.BackupRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&website).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete website",
		})
	}

	if _, err := h.accounting.RecordUsage(website.SubscriptionID); err != nil {
		log.Printf("Website: usage re-aggregation failed for subscription %d: %v",
			website.SubscriptionID, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Website deleted",
	})
}
