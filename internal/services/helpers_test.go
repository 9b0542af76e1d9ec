package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kaiac/backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	return db
}

func seedSubscription(t *testing.T, db *gorm.DB, includedStorageMB int64) *models.Subscription {
	t.Helper()

	user := models.User{
		Email:        "customer@example.com",
		PasswordHash: "x",
		Role:         models.RoleCustomer,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)

	plan := models.Plan{
		Name:              "Starter",
		Code:              "starter",
		Price:             9.99,
		IncludedStorageMB: includedStorageMB,
	}
	require.NoError(t, db.Create(&plan).Error)

	subscription := models.Subscription{
		UserID: user.ID,
		PlanID: plan.ID,
		Status: models.SubscriptionStatusActive,
	}
	require.NoError(t, db.Create(&subscription).Error)

	return &subscription
}

func seedWebsite(t *testing.T, db *gorm.DB, subscriptionID uint, domain string, usedMB int64, active bool) *models.Website {
	t.Helper()

	website := models.Website{
		SubscriptionID: subscriptionID,
		Name:           domain,
		Domain:         domain,
		UsedStorageMB:  usedMB,
		IsActive:       active,
	}
	require.NoError(t, db.Create(&website).Error)
	// GORM's Create skips zero-value fields carrying a `default` tag, so
	// active=false would silently store true; write the column explicitly.
	require.NoError(t, db.Model(&website).UpdateColumn("is_active", active).Error)

	return &website
}
