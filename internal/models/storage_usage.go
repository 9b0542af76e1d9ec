package models

import "time"

// StorageUsageRecord is an immutable snapshot of a subscription's storage usage.
// Rows are append-only; never updated in place.
type StorageUsageRecord struct {
	ID             uint `gorm:"column:id;primaryKey" json:"id"`
	SubscriptionID uint `gorm:"column:subscription_id;not null;index" json:"subscription_id"`

	UsedStorageMB     int64 `gorm:"column:used_storage_mb;not null" json:"used_storage_mb"`
	IncludedStorageMB int64 `gorm:"column:included_storage_mb;not null" json:"included_storage_mb"`
	ThresholdExceeded bool  `gorm:"column:threshold_exceeded;default:false" json:"threshold_exceeded"`

	MeasuredAt time.Time `gorm:"column:measured_at;index" json:"measured_at"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (StorageUsageRecord) TableName() string {
	return "storage_usage_records"
}
