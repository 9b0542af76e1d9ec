package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentStatus represents the status of an invoice payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Invoice represents an invoice issued for a subscription
type Invoice struct {
	ID             uint          `gorm:"column:id;primaryKey" json:"id"`
	InvoiceNumber  string        `gorm:"column:invoice_number;size:50;uniqueIndex;not null" json:"invoice_number"`
	UserID         uint          `gorm:"column:user_id;not null;index" json:"user_id"`
	User           *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	SubscriptionID uint          `gorm:"column:subscription_id;not null;index" json:"subscription_id"`
	Subscription   *Subscription `gorm:"foreignKey:SubscriptionID" json:"subscription,omitempty"`

	// Amounts
	SubTotal float64 `gorm:"column:sub_total;type:decimal(15,2)" json:"sub_total"`
	Tax      float64 `gorm:"column:tax;type:decimal(15,2);default:0" json:"tax"`
	Total    float64 `gorm:"column:total;type:decimal(15,2);not null" json:"total"`

	// Status
	Status   PaymentStatus `gorm:"column:status;size:20;default:pending;index" json:"status"`
	DueDate  time.Time     `gorm:"column:due_date" json:"due_date"`
	PaidDate *time.Time    `gorm:"column:paid_date" json:"paid_date"`

	Notes string        `gorm:"column:notes;type:text" json:"notes"`
	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`

	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

// InvoiceItem represents one line on an invoice
type InvoiceItem struct {
	ID          uint    `gorm:"column:id;primaryKey" json:"id"`
	InvoiceID   uint    `gorm:"column:invoice_id;not null;index" json:"invoice_id"`
	Description string  `gorm:"column:description;size:255;not null" json:"description"`
	Quantity    int     `gorm:"column:quantity;default:1" json:"quantity"`
	UnitPrice   float64 `gorm:"column:unit_price;type:decimal(15,2);not null" json:"unit_price"`
	Total       float64 `gorm:"column:total;type:decimal(15,2);not null" json:"total"`
}

func (Invoice) TableName() string {
	return "invoices"
}

func (InvoiceItem) TableName() string {
	return "invoice_items"
}
