package models

import (
	"log"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	if err := db.AutoMigrate(
		&User{},
		&Plan{},
		&Subscription{},
		&Website{},
		&BackupPolicy{},
		&BackupRecord{},
		&StorageUsageRecord{},
		&AlertSettings{},
		&Notification{},
		&Invoice{},
		&InvoiceItem{},
		&MailDomain{},
	); err != nil {
		return err
	}

	log.Println("Database migrations completed successfully")
	return nil
}
