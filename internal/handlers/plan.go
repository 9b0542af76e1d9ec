package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/kaiac/backend/internal/models"
)

type PlanHandler struct {
	db *gorm.DB
}

func NewPlanHandler(db *gorm.DB) *PlanHandler {
	return &PlanHandler{db: db}
}

// List returns active plans
func (h *PlanHandler) List(c *fiber.Ctx) error {
	var plans []models.Plan
	if err := h.db.Where("is_active = ?", true).Order("price ASC").Find(&plans).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load plans",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    plans,
	})
}

// Get returns one plan
func (h *PlanHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")

	var plan models.Plan
	if err := h.db.First(&plan, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Plan not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    plan,
	})
}
