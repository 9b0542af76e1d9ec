package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kaiac/backend/internal/middleware"
	"github.com/kaiac/backend/internal/models"
	"github.com/kaiac/backend/internal/services"
)

type AlertHandler struct {
	alerts *services.AlertService
}

func NewAlertHandler(alerts *services.AlertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// List returns the user's five alert settings rows
func (h *AlertHandler) List(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	settings, err := h.alerts.GetAll(user.ID)
	if err != nil {
		// A partial set is corrupted account data, not an empty default
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    settings,
	})
}

// Update edits one category's preference flags
func (h *AlertHandler) Update(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	category := models.AlertCategory(c.Params("category"))

	var update services.SettingsUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	settings, err := h.alerts.Update(user.ID, category, update)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    settings,
	})
}
