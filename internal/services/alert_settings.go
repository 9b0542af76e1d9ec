package services

import (
	"errors"
	"fmt"

	"github.com/kaiac/backend/internal/models"
	"gorm.io/gorm"
)

// ShouldNotify reports whether a notification may go out on the given channel.
// mute_all wins over every per-channel flag.
func ShouldNotify(settings *models.AlertSettings, channel models.AlertChannel) bool {
	if settings == nil || settings.MuteAll {
		return false
	}

	switch channel {
	case models.ChannelEmail:
		return settings.NotifyByEmail
	case models.ChannelInApp:
		return settings.NotifyInApp
	case models.ChannelSMS:
		return settings.NotifyBySMS
	default:
		return false
	}
}

// AlertService manages per-user notification preferences
type AlertService struct {
	db *gorm.DB
}

func NewAlertService(db *gorm.DB) *AlertService {
	return &AlertService{db: db}
}

// EnsureDefaults creates the five category rows for a user. Called at account
// setup; safe to re-run.
func (s *AlertService) EnsureDefaults(userID uint) error {
	for _, category := range models.AlertCategories {
		settings := models.AlertSettings{UserID: userID, Category: category}
		err := s.db.Where("user_id = ? AND category = ?", userID, category).
			Attrs(models.AlertSettings{
				UserID:        userID,
				Category:      category,
				NotifyByEmail: true,
				NotifyInApp:   true,
				NotifyBySMS:   false,
			}).
			FirstOrCreate(&settings).Error
		if err != nil {
			return fmt.Errorf("failed to create %s alert settings for user %d: %w", category, userID, err)
		}
	}
	return nil
}

// Get returns the user's settings row for one category. A missing row is a
// data-integrity error, never a silent default.
func (s *AlertService) Get(userID uint, category models.AlertCategory) (*models.AlertSettings, error) {
	var settings models.AlertSettings
	err := s.db.Where("user_id = ? AND category = ?", userID, category).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("alert settings missing for user %d category %s", userID, category)
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// GetAll returns every category row for a user
func (s *AlertService) GetAll(userID uint) ([]models.AlertSettings, error) {
	var settings []models.AlertSettings
	if err := s.db.Where("user_id = ?", userID).Order("category").Find(&settings).Error; err != nil {
		return nil, err
	}
	if len(settings) != len(models.AlertCategories) {
		return nil, fmt.Errorf("user %d has %d alert settings rows, expected %d",
			userID, len(settings), len(models.AlertCategories))
	}
	return settings, nil
}

// SettingsUpdate carries the editable preference flags
type SettingsUpdate struct {
	NotifyByEmail bool `json:"notify_by_email"`
	NotifyInApp   bool `json:"notify_in_app"`
	NotifyBySMS   bool `json:"notify_by_sms"`
	MuteAll       bool `json:"mute_all"`
}

// Update changes one category row for a user
func (s *AlertService) Update(userID uint, category models.AlertCategory, update SettingsUpdate) (*models.AlertSettings, error) {
	settings, err := s.Get(userID, category)
	if err != nil {
		return nil, err
	}

	settings.NotifyByEmail = update.NotifyByEmail
	settings.NotifyInApp = update.NotifyInApp
	settings.NotifyBySMS = update.NotifyBySMS
	settings.MuteAll = update.MuteAll

	if err := s.db.Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// ShouldNotifyUser looks up the category row and evaluates the channel flag
func (s *AlertService) ShouldNotifyUser(userID uint, category models.AlertCategory, channel models.AlertChannel) (bool, error) {
	settings, err := s.Get(userID, category)
	if err != nil {
		return false, err
	}
	return ShouldNotify(settings, channel), nil
}
