package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaiac/backend/internal/models"
)

type fakeEmailSender struct {
	sent []string
	err  error
}

func (f *fakeEmailSender) SendEmail(userID uint, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, subject)
	return nil
}

type fakeSMSSender struct {
	sent []string
}

func (f *fakeSMSSender) SendSMS(userID uint, body string) error {
	f.sent = append(f.sent, body)
	return nil
}

func TestNotifyRespectsChannelFlags(t *testing.T) {
	db := newTestDB(t)
	alerts := NewAlertService(db)
	require.NoError(t, alerts.EnsureDefaults(1))

	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	notifier := NewNotifier(db, alerts, email, sms)

	require.NoError(t, notifier.Notify(1, models.AlertCategoryPlatform, "Maintenance", "Scheduled maintenance tonight"))

	// Defaults: email and in-app on, SMS off
	assert.Len(t, email.sent, 1)
	assert.Empty(t, sms.sent)

	var notifications []models.Notification
	require.NoError(t, db.Where("user_id = ?", 1).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Maintenance", notifications[0].Title)
	assert.False(t, notifications[0].IsRead)
}

func TestNotifyMuteAllSendsNothing(t *testing.T) {
	db := newTestDB(t)
	alerts := NewAlertService(db)
	require.NoError(t, alerts.EnsureDefaults(1))

	_, err := alerts.Update(1, models.AlertCategoryOffers, SettingsUpdate{
		NotifyByEmail: true,
		NotifyInApp:   true,
		MuteAll:       true,
	})
	require.NoError(t, err)

	email := &fakeEmailSender{}
	notifier := NewNotifier(db, alerts, email, nil)

	require.NoError(t, notifier.Notify(1, models.AlertCategoryOffers, "Sale", "Half price"))

	assert.Empty(t, email.sent)

	var count int64
	db.Model(&models.Notification{}).Where("user_id = ?", 1).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestNotifyMissingSettingsIsError(t *testing.T) {
	db := newTestDB(t)
	alerts := NewAlertService(db)
	notifier := NewNotifier(db, alerts, nil, nil)

	err := notifier.Notify(42, models.AlertCategoryAccount, "Hello", "World")
	require.Error(t, err)
}

func TestNotifyCollectsSenderFailures(t *testing.T) {
	db := newTestDB(t)
	alerts := NewAlertService(db)
	require.NoError(t, alerts.EnsureDefaults(1))

	email := &fakeEmailSender{err: errors.New("smtp down")}
	notifier := NewNotifier(db, alerts, email, nil)

	err := notifier.Notify(1, models.AlertCategoryAccount, "Password changed", "Your password was changed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")

	// The in-app notification still went through
	var count int64
	db.Model(&models.Notification{}).Where("user_id = ?", 1).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestNotifyThresholdExceeded(t *testing.T) {
	db := newTestDB(t)
	alerts := NewAlertService(db)
	subscription := seedSubscription(t, db, 100)
	require.NoError(t, alerts.EnsureDefaults(subscription.UserID))

	email := &fakeEmailSender{}
	notifier := NewNotifier(db, alerts, email, nil)

	// Under the limit nothing happens
	require.NoError(t, notifier.NotifyThresholdExceeded(subscription, &models.StorageUsageRecord{
		SubscriptionID:    subscription.ID,
		UsedStorageMB:     90,
		IncludedStorageMB: 100,
	}))
	assert.Empty(t, email.sent)

	require.NoError(t, notifier.NotifyThresholdExceeded(subscription, &models.StorageUsageRecord{
		SubscriptionID:    subscription.ID,
		UsedStorageMB:     130,
		IncludedStorageMB: 100,
		ThresholdExceeded: true,
	}))
	require.Len(t, email.sent, 1)
	assert.Equal(t, "Storage limit exceeded", email.sent[0])
}
