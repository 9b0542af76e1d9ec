package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kaiac/backend/internal/middleware"
	"github.com/kaiac/backend/internal/models"
)

type InvoiceHandler struct {
	db *gorm.DB
}

func NewInvoiceHandler(db *gorm.DB) *InvoiceHandler {
	return &InvoiceHandler{db: db}
}

// List returns invoices, paginated
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 25)
	status := c.Query("status", "")

	if page < 1 {
		page = 1
	}
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	query := h.db.Model(&models.Invoice{}).Preload("Items")
	if user.Role != models.RoleAdmin {
		query = query.Where("user_id = ?", user.ID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var invoices []models.Invoice
	query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&invoices)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    invoices,
		"meta": fiber.Map{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// Get returns a single invoice
func (h *InvoiceHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")

	var invoice models.Invoice
	if err := h.db.Preload("Items").First(&invoice, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Invoice not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    invoice,
	})
}

// Create creates a new invoice for a subscription
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	type ItemRequest struct {
		Description string  `json:"description"`
		Quantity    int     `json:"quantity"`
		UnitPrice   float64 `json:"unit_price"`
	}

	type CreateRequest struct {
		SubscriptionID uint          `json:"subscription_id"`
		DueDate        string        `json:"due_date"`
		Notes          string        `json:"notes"`
		Items          []ItemRequest `json:"items"`
	}

	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invoice needs at least one item",
		})
	}

	var subscription models.Subscription
	if err := h.db.First(&subscription, req.SubscriptionID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Subscription not found",
		})
	}

	dueDate := time.Now().UTC().AddDate(0, 0, 14)
	if req.DueDate != "" {
		if parsed, err := time.Parse("2006-01-02", req.DueDate); err == nil {
			dueDate = parsed
		}
	}

	invoice := models.Invoice{
		InvoiceNumber:  fmt.Sprintf("INV-%s", uuid.New().String()[:8]),
		UserID:         subscription.UserID,
		SubscriptionID: subscription.ID,
		Status:         models.PaymentStatusPending,
		DueDate:        dueDate,
		Notes:          req.Notes,
	}

	for _, item := range req.Items {
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		lineTotal := float64(item.Quantity) * item.UnitPrice
		invoice.Items = append(invoice.Items, models.InvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       lineTotal,
		})
		invoice.SubTotal += lineTotal
	}
	invoice.Total = invoice.SubTotal + invoice.Tax

	if err := h.db.Create(&invoice).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create invoice",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    invoice,
	})
}
