package models

import (
	"time"

	"gorm.io/gorm"
)

// BackupFrequency represents how often automatic backups run
type BackupFrequency string

const (
	FrequencyHourly  BackupFrequency = "hourly"
	FrequencyDaily   BackupFrequency = "daily"
	FrequencyWeekly  BackupFrequency = "weekly"
	FrequencyMonthly BackupFrequency = "monthly"
	FrequencyNone    BackupFrequency = "none"
)

// BackupType represents what a backup covers
type BackupType string

const (
	BackupTypeFull     BackupType = "full"
	BackupTypeDatabase BackupType = "database"
	BackupTypeFiles    BackupType = "files"
)

// BackupStatus represents the lifecycle state of a backup record
type BackupStatus string

const (
	BackupStatusPending   BackupStatus = "pending"
	BackupStatusCompleted BackupStatus = "completed"
	BackupStatusFailed    BackupStatus = "failed"
	BackupStatusRestoring BackupStatus = "restoring"
)

// BackupPolicy represents a website's automatic backup configuration.
// One policy per website; next_run_at is read by the external scheduler.
type BackupPolicy struct {
	ID        uint `gorm:"column:id;primaryKey" json:"id"`
	WebsiteID uint `gorm:"column:website_id;uniqueIndex;not null" json:"website_id"`

	Frequency  BackupFrequency `gorm:"column:frequency;size:20;default:none" json:"frequency"`
	BackupHour int             `gorm:"column:backup_hour;default:2" json:"backup_hour"`     // 0-23
	BackupMin  int             `gorm:"column:backup_minute;default:0" json:"backup_minute"` // 0-59
	DayOfWeek  int             `gorm:"column:day_of_week;default:0" json:"day_of_week"`     // 0=Sunday (weekly)
	DayOfMonth int             `gorm:"column:day_of_month;default:1" json:"day_of_month"`   // 1-28 (monthly)

	// Retention limits
	RetentionDays int `gorm:"column:retention_days;default:30" json:"retention_days"`
	MaxBackups    int `gorm:"column:max_backups;default:10" json:"max_backups"`

	LastRunAt *time.Time `gorm:"column:last_run_at" json:"last_run_at"`
	NextRunAt *time.Time `gorm:"column:next_run_at" json:"next_run_at"`

	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

// BackupRecord represents one backup attempt for a website
type BackupRecord struct {
	ID        uint     `gorm:"column:id;primaryKey" json:"id"`
	WebsiteID uint     `gorm:"column:website_id;not null;index" json:"website_id"`
	Website   *Website `gorm:"foreignKey:WebsiteID" json:"website,omitempty"`

	Type   BackupType   `gorm:"column:type;size:20;default:full" json:"type"`
	Status BackupStatus `gorm:"column:status;size:20;default:pending;index" json:"status"`

	SizeMB       *int64 `gorm:"column:size_mb" json:"size_mb"` // null until completion
	IsAutomatic  bool   `gorm:"column:is_automatic;default:false" json:"is_automatic"`
	RestorePoint bool   `gorm:"column:restore_point;default:false" json:"restore_point"` // exempt from retention cleanup

	// Archive location once uploaded
	ArchiveStore string `gorm:"column:archive_store;size:20" json:"archive_store"` // s3, ftp
	ArchivePath  string `gorm:"column:archive_path;size:500" json:"archive_path"`

	ErrorMessage string     `gorm:"column:error_message;size:500" json:"error_message"`
	CompletedAt  *time.Time `gorm:"column:completed_at" json:"completed_at"`

	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (BackupPolicy) TableName() string {
	return "backup_policies"
}

func (BackupRecord) TableName() string {
	return "backup_records"
}
