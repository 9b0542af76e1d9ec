package models

import (
	"time"

	"gorm.io/gorm"
)

// Plan represents a priced hosting tier and its resource limits
type Plan struct {
	ID    uint    `gorm:"column:id;primaryKey" json:"id"`
	Name  string  `gorm:"column:name;size:100;uniqueIndex;not null" json:"name"`
	Code  string  `gorm:"column:code;size:50;uniqueIndex;not null" json:"code"`
	Price float64 `gorm:"column:price;type:decimal(15,2);not null" json:"price"`

	// Resource limits
	IncludedStorageMB int64 `gorm:"column:included_storage_mb;not null" json:"included_storage_mb"`
	IncludedWebsites  int   `gorm:"column:included_websites;default:1" json:"included_websites"`
	IncludedDomains   int   `gorm:"column:included_domains;default:1" json:"included_domains"`
	IncludedMailboxes int   `gorm:"column:included_mailboxes;default:5" json:"included_mailboxes"`

	IsActive bool `gorm:"column:is_active;default:true" json:"is_active"`

	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Plan) TableName() string {
	return "plans"
}
