package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/kaiac/backend/internal/middleware"
	"github.com/kaiac/backend/internal/models"
	"github.com/kaiac/backend/internal/services"
)

type SubscriptionHandler struct {
	db         *gorm.DB
	accounting *services.StorageAccountingService
}

func NewSubscriptionHandler(db *gorm.DB, accounting *services.StorageAccountingService) *SubscriptionHandler {
	return &SubscriptionHandler{db: db, accounting: accounting}
}

// List returns the user's subscriptions
func (h *SubscriptionHandler) List(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	query := h.db.Preload("Plan").Where("user_id = ?", user.ID)
	if user.Role == models.RoleAdmin {
		query = h.db.Preload("Plan")
	}

	var subscriptions []models.Subscription
	if err := query.Order("created_at DESC").Find(&subscriptions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load subscriptions",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    subscriptions,
	})
}

// Get returns one subscription with its plan and websites
func (h *SubscriptionHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")

	var subscription models.Subscription
	if err := h.db.Preload("Plan").Preload("Websites").First(&subscription, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Subscription not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    subscription,
	})
}

// Usage returns the latest storage snapshot, served from cache when fresh
func (h *SubscriptionHandler) Usage(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid subscription id",
		})
	}

	usage, err := h.accounting.LatestUsage(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "No usage recorded for this subscription",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    usage,
	})
}

// UsageHistory returns past snapshots newest first
func (h *SubscriptionHandler) UsageHistory(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid subscription id",
		})
	}
	limit := c.QueryInt("limit", 100)

	records, err := h.accounting.UsageHistory(uint(id), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load usage history",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    records,
	})
}

// RecordUsage forces a fresh aggregation for a subscription
func (h *SubscriptionHandler) RecordUsage(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid subscription id",
		})
	}

	record, err := h.accounting.RecordUsage(uint(id))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    record,
	})
}
