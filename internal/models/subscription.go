package models

import (
	"time"

	"gorm.io/gorm"
)

// SubscriptionStatus represents the status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// Subscription represents a user's active purchase of a plan
type Subscription struct {
	ID     uint               `gorm:"column:id;primaryKey" json:"id"`
	UserID uint               `gorm:"column:user_id;not null;index" json:"user_id"`
	User   *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PlanID uint               `gorm:"column:plan_id;not null;index" json:"plan_id"`
	Plan   *Plan              `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Status SubscriptionStatus `gorm:"column:status;size:20;default:active;index" json:"status"`

	// Billing cycle
	BillingCycle string     `gorm:"column:billing_cycle;size:20;default:monthly" json:"billing_cycle"` // monthly, yearly
	StartsAt     time.Time  `gorm:"column:starts_at" json:"starts_at"`
	ExpiresAt    *time.Time `gorm:"column:expires_at" json:"expires_at"`

	Websites []Website `gorm:"foreignKey:SubscriptionID" json:"websites,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
