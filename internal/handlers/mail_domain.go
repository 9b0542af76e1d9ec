package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/kaiac/backend/internal/middleware"
	"github.com/kaiac/backend/internal/models"
)

// MailDomainHandler exposes provisioning state tracked by the queue worker
type MailDomainHandler struct {
	db *gorm.DB
}

func NewMailDomainHandler(db *gorm.DB) *MailDomainHandler {
	return &MailDomainHandler{db: db}
}

// List returns the user's mail domains with their provisioning status
func (h *MailDomainHandler) List(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	query := h.db.Where("user_id = ?", user.ID)
	if user.Role == models.RoleAdmin {
		query = h.db
	}

	var domains []models.MailDomain
	if err := query.Order("created_at DESC").Find(&domains).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load mail domains",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    domains,
	})
}

// Get returns one mail domain
func (h *MailDomainHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")

	var domain models.MailDomain
	if err := h.db.First(&domain, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Mail domain not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    domain,
	})
}
