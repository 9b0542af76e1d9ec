package models

import "time"

// Notification represents an in-app notification delivered to a user
type Notification struct {
	ID       uint          `gorm:"column:id;primaryKey" json:"id"`
	UserID   uint          `gorm:"column:user_id;not null;index" json:"user_id"`
	Category AlertCategory `gorm:"column:category;size:20;not null" json:"category"`

	Title   string `gorm:"column:title;size:255;not null" json:"title"`
	Message string `gorm:"column:message;size:1000" json:"message"`

	IsRead bool       `gorm:"column:is_read;default:false;index" json:"is_read"`
	ReadAt *time.Time `gorm:"column:read_at" json:"read_at"`

	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
