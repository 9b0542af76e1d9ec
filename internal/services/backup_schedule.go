package services

import (
	"fmt"
	"time"

	"github.com/kaiac/backend/internal/models"
	"gorm.io/gorm"
)

// ValidatePolicy rejects out-of-range schedule fields before any computation.
// Invalid values are never clamped.
func ValidatePolicy(policy *models.BackupPolicy) error {
	switch policy.Frequency {
	case models.FrequencyHourly, models.FrequencyDaily, models.FrequencyWeekly,
		models.FrequencyMonthly, models.FrequencyNone:
	default:
		return fmt.Errorf("invalid backup frequency %q", policy.Frequency)
	}

	if policy.BackupHour < 0 || policy.BackupHour > 23 {
		return fmt.Errorf("backup hour %d out of range 0-23", policy.BackupHour)
	}
	if policy.BackupMin < 0 || policy.BackupMin > 59 {
		return fmt.Errorf("backup minute %d out of range 0-59", policy.BackupMin)
	}

	if policy.Frequency == models.FrequencyWeekly {
		if policy.DayOfWeek < 0 || policy.DayOfWeek > 6 {
			return fmt.Errorf("day of week %d out of range 0-6", policy.DayOfWeek)
		}
	}
	if policy.Frequency == models.FrequencyMonthly {
		// Capped at 28 so every month has the scheduled day
		if policy.DayOfMonth < 1 || policy.DayOfMonth > 28 {
			return fmt.Errorf("day of month %d out of range 1-28", policy.DayOfMonth)
		}
	}

	if policy.RetentionDays < 1 {
		return fmt.Errorf("retention days must be positive, got %d", policy.RetentionDays)
	}
	if policy.MaxBackups < 1 {
		return fmt.Errorf("max backups must be positive, got %d", policy.MaxBackups)
	}

	return nil
}

// ComputeNextRun calculates the next scheduled run strictly after now.
// Returns nil for frequency "none". The result is always in the future: if the
// scheduler was down for several periods, missed runs are skipped rather than
// replayed.
func ComputeNextRun(policy *models.BackupPolicy, now time.Time) (*time.Time, error) {
	if err := ValidatePolicy(policy); err != nil {
		return nil, err
	}

	if policy.Frequency == models.FrequencyNone {
		return nil, nil
	}

	next := time.Date(now.Year(), now.Month(), now.Day(),
		policy.BackupHour, policy.BackupMin, 0, 0, now.Location())

	switch policy.Frequency {
	case models.FrequencyHourly:
		for !next.After(now) {
			next = next.Add(time.Hour)
		}
	case models.FrequencyDaily:
		for !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
	case models.FrequencyWeekly:
		// Next occurrence of the selected weekday, never today
		days := (7 - int(now.Weekday()) + policy.DayOfWeek) % 7
		if days == 0 {
			days = 7
		}
		next = next.AddDate(0, 0, days)
	case models.FrequencyMonthly:
		next = time.Date(now.Year(), now.Month()+1, policy.DayOfMonth,
			policy.BackupHour, policy.BackupMin, 0, 0, now.Location())
	}

	return &next, nil
}

// BackupPolicyService manages per-website backup policies
type BackupPolicyService struct {
	db *gorm.DB
}

func NewBackupPolicyService(db *gorm.DB) *BackupPolicyService {
	return &BackupPolicyService{db: db}
}

// GetOrCreate returns the website's policy, creating the default (frequency
// none) if none exists yet
func (s *BackupPolicyService) GetOrCreate(websiteID uint) (*models.BackupPolicy, error) {
	var website models.Website
	if err := s.db.First(&website, websiteID).Error; err != nil {
		return nil, fmt.Errorf("website %d not found: %w", websiteID, err)
	}

	var policy models.BackupPolicy
	err := s.db.Where("website_id = ?", websiteID).
		Attrs(models.BackupPolicy{
			WebsiteID:     websiteID,
			Frequency:     models.FrequencyNone,
			BackupHour:    2,
			BackupMin:     0,
			DayOfMonth:    1,
			RetentionDays: 30,
			MaxBackups:    10,
		}).
		FirstOrCreate(&policy).Error
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// PolicyUpdate carries the editable schedule fields
type PolicyUpdate struct {
	Frequency     models.BackupFrequency `json:"frequency"`
	BackupHour    int                    `json:"backup_hour"`
	BackupMin     int                    `json:"backup_minute"`
	DayOfWeek     int                    `json:"day_of_week"`
	DayOfMonth    int                    `json:"day_of_month"`
	RetentionDays int                    `json:"retention_days"`
	MaxBackups    int                    `json:"max_backups"`
}

// Update applies schedule changes and recomputes next_run_at exactly when the
// frequency or time of day changed. The stored value persists otherwise.
func (s *BackupPolicyService) Update(websiteID uint, update PolicyUpdate, now time.Time) (*models.BackupPolicy, error) {
	policy, err := s.GetOrCreate(websiteID)
	if err != nil {
		return nil, err
	}

	scheduleChanged := policy.Frequency != update.Frequency ||
		policy.BackupHour != update.BackupHour ||
		policy.BackupMin != update.BackupMin ||
		policy.DayOfWeek != update.DayOfWeek ||
		policy.DayOfMonth != update.DayOfMonth

	policy.Frequency = update.Frequency
	policy.BackupHour = update.BackupHour
	policy.BackupMin = update.BackupMin
	policy.DayOfWeek = update.DayOfWeek
	policy.DayOfMonth = update.DayOfMonth
	policy.RetentionDays = update.RetentionDays
	policy.MaxBackups = update.MaxBackups

	if err := ValidatePolicy(policy); err != nil {
		return nil, err
	}

	if scheduleChanged {
		next, err := ComputeNextRun(policy, now)
		if err != nil {
			return nil, err
		}
		policy.NextRunAt = next
	}

	if err := s.db.Save(policy).Error; err != nil {
		return nil, err
	}
	return policy, nil
}

// MarkRun records a triggered run and advances next_run_at. Called by the
// backup lifecycle when the external scheduler fires an automatic backup.
func (s *BackupPolicyService) MarkRun(websiteID uint, now time.Time) error {
	var policy models.BackupPolicy
	if err := s.db.Where("website_id = ?", websiteID).First(&policy).Error; err != nil {
		return err
	}

	next, err := ComputeNextRun(&policy, now)
	if err != nil {
		return err
	}

	return s.db.Model(&policy).Updates(map[string]interface{}{
		"last_run_at": now,
		"next_run_at": next,
	}).Error
}
