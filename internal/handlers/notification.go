package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/kaiac/backend/internal/middleware"
	"github.com/kaiac/backend/internal/models"
)

type NotificationHandler struct {
	db *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{db: db}
}

// List returns the user's in-app notifications newest first
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	unreadOnly := c.QueryBool("unread", false)
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := h.db.Where("user_id = ?", user.ID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load notifications",
		})
	}

	var unreadCount int64
	h.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).Count(&unreadCount)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    notifications,
		"meta": fiber.Map{
			"unread": unreadCount,
		},
	})
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	id := c.Params("id")

	var notification models.Notification
	if err := h.db.Where("user_id = ?", user.ID).First(&notification, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Notification not found",
		})
	}

	now := time.Now().UTC()
	if err := h.db.Model(&notification).Updates(map[string]interface{}{
		"is_read": true,
		"read_at": now,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to mark notification as read",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Notification marked as read",
	})
}

// MarkAllRead marks every unread notification as read
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	now := time.Now().UTC()
	result := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to mark notifications as read",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"marked": result.RowsAffected,
		},
	})
}
