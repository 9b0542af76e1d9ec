package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaiac/backend/internal/models"
)

func TestGetOrCreateDefaultsToDisabled(t *testing.T) {
	db := newTestDB(t)
	service := NewBackupPolicyService(db)
	subscription := seedSubscription(t, db, 100)
	website := seedWebsite(t, db, subscription.ID, "a.example.com", 0, true)

	policy, err := service.GetOrCreate(website.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FrequencyNone, policy.Frequency)
	assert.Nil(t, policy.NextRunAt)

	again, err := service.GetOrCreate(website.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.ID, again.ID)
}

func TestGetOrCreateUnknownWebsite(t *testing.T) {
	db := newTestDB(t)
	service := NewBackupPolicyService(db)

	_, err := service.GetOrCreate(9999)
	require.Error(t, err)
}

func TestUpdateRecomputesNextRunOnScheduleChange(t *testing.T) {
	db := newTestDB(t)
	service := NewBackupPolicyService(db)
	subscription := seedSubscription(t, db, 100)
	website := seedWebsite(t, db, subscription.ID, "a.example.com", 0, true)

	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

	policy, err := service.Update(website.ID, PolicyUpdate{
		Frequency:     models.FrequencyDaily,
		BackupHour:    2,
		BackupMin:     0,
		DayOfMonth:    1,
		RetentionDays: 30,
		MaxBackups:    10,
	}, now)
	require.NoError(t, err)
	require.NotNil(t, policy.NextRunAt)
	assert.Equal(t, time.Date(2024, 3, 14, 2, 0, 0, 0, time.UTC), policy.NextRunAt.UTC())

	firstNext := *policy.NextRunAt

	// Changing only retention must not move the schedule
	policy, err = service.Update(website.ID, PolicyUpdate{
		Frequency:     models.FrequencyDaily,
		BackupHour:    2,
		BackupMin:     0,
		DayOfMonth:    1,
		RetentionDays: 7,
		MaxBackups:    10,
	}, now.Add(6*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, policy.NextRunAt)
	assert.True(t, policy.NextRunAt.Equal(firstNext))
	assert.Equal(t, 7, policy.RetentionDays)
}

func TestUpdateRejectsInvalidSchedule(t *testing.T) {
	db := newTestDB(t)
	service := NewBackupPolicyService(db)
	subscription := seedSubscription(t, db, 100)
	website := seedWebsite(t, db, subscription.ID, "a.example.com", 0, true)

	_, err := service.Update(website.ID, PolicyUpdate{
		Frequency:     models.FrequencyMonthly,
		BackupHour:    2,
		DayOfMonth:    31,
		RetentionDays: 30,
		MaxBackups:    10,
	}, time.Now().UTC())
	require.Error(t, err)

	// The stored policy keeps its previous values
	policy, err := service.GetOrCreate(website.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FrequencyNone, policy.Frequency)
}

func TestUpdateToNoneClearsNextRun(t *testing.T) {
	db := newTestDB(t)
	service := NewBackupPolicyService(db)
	subscription := seedSubscription(t, db, 100)
	website := seedWebsite(t, db, subscription.ID, "a.example.com", 0, true)

	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

	_, err := service.Update(website.ID, PolicyUpdate{
		Frequency:     models.FrequencyDaily,
		BackupHour:    2,
		DayOfMonth:    1,
		RetentionDays: 30,
		MaxBackups:    10,
	}, now)
	require.NoError(t, err)

	policy, err := service.Update(website.ID, PolicyUpdate{
		Frequency:     models.FrequencyNone,
		BackupHour:    2,
		DayOfMonth:    1,
		RetentionDays: 30,
		MaxBackups:    10,
	}, now)
	require.NoError(t, err)
	assert.Nil(t, policy.NextRunAt)
}

func TestMarkRunAdvancesSchedule(t *testing.T) {
	db := newTestDB(t)
	service := NewBackupPolicyService(db)
	subscription := seedSubscription(t, db, 100)
	website := seedWebsite(t, db, subscription.ID, "a.example.com", 0, true)

	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

	_, err := service.Update(website.ID, PolicyUpdate{
		Frequency:     models.FrequencyDaily,
		BackupHour:    2,
		DayOfMonth:    1,
		RetentionDays: 30,
		MaxBackups:    10,
	}, now)
	require.NoError(t, err)

	runAt := time.Date(2024, 3, 14, 2, 0, 5, 0, time.UTC)
	require.NoError(t, service.MarkRun(website.ID, runAt))

	policy, err := service.GetOrCreate(website.ID)
	require.NoError(t, err)
	require.NotNil(t, policy.LastRunAt)
	assert.True(t, policy.LastRunAt.Equal(runAt))
	require.NotNil(t, policy.NextRunAt)
	assert.Equal(t, time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC), policy.NextRunAt.UTC())
}
