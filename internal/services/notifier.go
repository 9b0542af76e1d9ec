package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/kaiac/backend/internal/models"
	"gorm.io/gorm"
)

// EmailSender delivers a notification by email. The transport lives outside
// this service.
type EmailSender interface {
	SendEmail(userID uint, subject, body string) error
}

// SMSSender delivers a notification by SMS
type SMSSender interface {
	SendSMS(userID uint, body string) error
}

// Notifier dispatches notifications across channels, gated per channel by the
// user's alert settings. In-app notifications are stored directly; email and
// SMS go through the injected senders.
type Notifier struct {
	db     *gorm.DB
	alerts *AlertService
	email  EmailSender
	sms    SMSSender
}

func NewNotifier(db *gorm.DB, alerts *AlertService, email EmailSender, sms SMSSender) *Notifier {
	return &Notifier{db: db, alerts: alerts, email: email, sms: sms}
}

// Notify sends one notification on every channel the user's settings allow
func (n *Notifier) Notify(userID uint, category models.AlertCategory, title, message string) error {
	settings, err := n.alerts.Get(userID, category)
	if err != nil {
		return err
	}

	var failures []string

	if ShouldNotify(settings, models.ChannelInApp) {
		notification := models.Notification{
			UserID:   userID,
			Category: category,
			Title:    title,
			Message:  message,
		}
		if err := n.db.Create(&notification).Error; err != nil {
			failures = append(failures, fmt.Sprintf("in_app: %v", err))
			log.Printf("Notifier: in-app notification failed for user %d: %v", userID, err)
		}
	}

	if n.email != nil && ShouldNotify(settings, models.ChannelEmail) {
		if err := n.email.SendEmail(userID, title, message); err != nil {
			failures = append(failures, fmt.Sprintf("email: %v", err))
			log.Printf("Notifier: email notification failed for user %d: %v", userID, err)
		}
	}

	if n.sms != nil && ShouldNotify(settings, models.ChannelSMS) {
		if err := n.sms.SendSMS(userID, message); err != nil {
			failures = append(failures, fmt.Sprintf("sms: %v", err))
			log.Printf("Notifier: SMS notification failed for user %d: %v", userID, err)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("notification partially failed: %s", strings.Join(failures, "; "))
	}
	return nil
}

// NotifyThresholdExceeded alerts the subscription owner when a usage snapshot
// crossed the plan limit. Called by the owner of the write, after it
// committed, so trigger order stays visible.
func (n *Notifier) NotifyThresholdExceeded(subscription *models.Subscription, record *models.StorageUsageRecord) error {
	if record == nil || !record.ThresholdExceeded {
		return nil
	}

	title := "Storage limit exceeded"
	message := fmt.Sprintf("Your subscription is using %d MB of the %d MB included in your plan.",
		record.UsedStorageMB, record.IncludedStorageMB)

	return n.Notify(subscription.UserID, models.AlertCategorySubscription, title, message)
}
