package models

import (
	"time"

	"gorm.io/gorm"
)

// Website represents a hosted site under a subscription
type Website struct {
	ID             uint          `gorm:"column:id;primaryKey" json:"id"`
	SubscriptionID uint          `gorm:"column:subscription_id;not null;index" json:"subscription_id"`
	Subscription   *Subscription `gorm:"foreignKey:SubscriptionID" json:"subscription,omitempty"`

	Name   string `gorm:"column:name;size:100;not null" json:"name"`
	Domain string `gorm:"column:domain;size:255;uniqueIndex;not null" json:"domain"`

	UsedStorageMB int64 `gorm:"column:used_storage_mb;default:0" json:"used_storage_mb"`
	IsActive      bool  `gorm:"column:is_active;default:true;index" json:"is_active"`

	BackupPolicy *BackupPolicy `gorm:"foreignKey:WebsiteID" json:"backup_policy,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Website) TableName() string {
	return "websites"
}
