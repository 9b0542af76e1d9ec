package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole represents the role of a panel user
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleCustomer UserRole = "customer"
	RoleSupport  UserRole = "support"
)

// User represents a panel account
type User struct {
	ID           uint     `gorm:"column:id;primaryKey" json:"id"`
	Email        string   `gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"column:password_hash;size:255;not null" json:"-"`
	FirstName    string   `gorm:"column:first_name;size:100" json:"first_name"`
	LastName     string   `gorm:"column:last_name;size:100" json:"last_name"`
	Role         UserRole `gorm:"column:role;size:20;default:customer;index" json:"role"`
	IsActive     bool     `gorm:"column:is_active;default:true" json:"is_active"`

	// 2FA
	TwoFactorEnabled bool   `gorm:"column:two_factor_enabled;default:false" json:"two_factor_enabled"`
	TwoFactorSecret  string `gorm:"column:two_factor_secret;size:64" json:"-"`

	LastLoginAt *time.Time `gorm:"column:last_login_at" json:"last_login_at"`

	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
