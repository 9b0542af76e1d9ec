package models

import (
	"time"

	"gorm.io/gorm"
)

// MailDomainStatus represents provisioning state of a mail domain
type MailDomainStatus string

const (
	MailDomainPending      MailDomainStatus = "pending"
	MailDomainProvisioning MailDomainStatus = "provisioning"
	MailDomainActive       MailDomainStatus = "active"
	MailDomainFailed       MailDomainStatus = "failed"
)

// MailDomain represents a mail domain provisioned through the external mail API.
// The queue worker moves rows from pending to active; redeliveries are safe
// because provisioning is idempotent on the domain name.
type MailDomain struct {
	ID     uint  `gorm:"column:id;primaryKey" json:"id"`
	UserID uint  `gorm:"column:user_id;not null;index" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Domain string           `gorm:"column:domain;size:255;uniqueIndex;not null" json:"domain"`
	Status MailDomainStatus `gorm:"column:status;size:20;default:pending;index" json:"status"`

	LastError     string     `gorm:"column:last_error;size:500" json:"last_error"`
	ProvisionedAt *time.Time `gorm:"column:provisioned_at" json:"provisioned_at"`

	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (MailDomain) TableName() string {
	return "mail_domains"
}
