package models

import "time"

// AlertCategory represents a notification preference category
type AlertCategory string

const (
	AlertCategorySubscription AlertCategory = "subscription"
	AlertCategoryAccount      AlertCategory = "account"
	AlertCategoryPlatform     AlertCategory = "platform"
	AlertCategoryUpdates      AlertCategory = "updates"
	AlertCategoryOffers       AlertCategory = "offers"
)

// AlertCategories lists every category a user must have a settings row for.
// The five rows are created together at account setup.
var AlertCategories = []AlertCategory{
	AlertCategorySubscription,
	AlertCategoryAccount,
	AlertCategoryPlatform,
	AlertCategoryUpdates,
	AlertCategoryOffers,
}

// AlertChannel represents a notification delivery channel
type AlertChannel string

const (
	ChannelEmail AlertChannel = "email"
	ChannelInApp AlertChannel = "in_app"
	ChannelSMS   AlertChannel = "sms"
)

// AlertSettings represents a user's notification preferences for one category
type AlertSettings struct {
	ID       uint          `gorm:"column:id;primaryKey" json:"id"`
	UserID   uint          `gorm:"column:user_id;not null;uniqueIndex:idx_alert_user_category" json:"user_id"`
	Category AlertCategory `gorm:"column:category;size:20;not null;uniqueIndex:idx_alert_user_category" json:"category"`

	NotifyByEmail bool `gorm:"column:notify_by_email;default:true" json:"notify_by_email"`
	NotifyInApp   bool `gorm:"column:notify_in_app;default:true" json:"notify_in_app"`
	NotifyBySMS   bool `gorm:"column:notify_by_sms;default:false" json:"notify_by_sms"`

	// MuteAll overrides every per-channel flag
	MuteAll bool `gorm:"column:mute_all;default:false" json:"mute_all"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (AlertSettings) TableName() string {
	return "alert_settings"
}
