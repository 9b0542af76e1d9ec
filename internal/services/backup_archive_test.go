package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaiac/backend/internal/models"
)

type fakeArchiveStore struct {
	name      string
	uploads   map[string][]byte
	deleted   []string
	uploadErr error
}

func newFakeArchiveStore(name string) *fakeArchiveStore {
	return &fakeArchiveStore{name: name, uploads: map[string][]byte{}}
}

func (f *fakeArchiveStore) Name() string {
	return f.name
}

func (f *fakeArchiveStore) Upload(ctx context.Context, path string, content io.Reader, size int64) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	f.uploads[path] = data
	return nil
}

func (f *fakeArchiveStore) Delete(ctx context.Context, path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}

func TestUploadArchiveStoresAndRecordsLocation(t *testing.T) {
	db := newTestDB(t)
	store := newFakeArchiveStore("s3")
	service := NewBackupService(db, NewStorageAccountingService(db, nil), store)

	subscription := seedSubscription(t, db, 1000)
	website := seedWebsite(t, db, subscription.ID, "a.example.com", 0, true)

	record, err := service.Create(CreateParams{WebsiteID: website.ID, Type: models.BackupTypeFull})
	require.NoError(t, err)

	content := "archive-bytes"
	record, err = service.UploadArchive(context.Background(), record.ID, "s3",
		strings.NewReader(content), int64(len(content)))
	require.NoError(t, err)

	wantPath := fmt.Sprintf("websites/%d/backup-%d.tar.gz", website.ID, record.ID)
	assert.Equal(t, "s3", record.ArchiveStore)
	assert.Equal(t, wantPath, record.ArchivePath)
	assert.Equal(t, []byte(content), store.uploads[wantPath])

	var stored models.BackupRecord
	require.NoError(t, db.First(&stored, record.ID).Error)
	assert.Equal(t, wantPath, stored.ArchivePath)
	assert.Equal(t, models.BackupStatusPending, stored.Status)
}

func TestUploadArchiveRejectsUnknownStore(t *testing.T) {
	db := newTestDB(t)
	service := NewBackupService(db, NewStorageAccountingService(db, nil), newFakeArchiveStore("s3"))

	subscription := seedSubscription(t, db, 1000)
	website := seedWebsite(t, db, subscription.ID, "a.example.com", 0, true)

	record, err := service.Create(CreateParams{WebsiteID: website.ID, Type: models.BackupTypeFull})
	require.NoError(t, err)

	_, err = service.UploadArchive(context.Background(), record.ID, "glacier",
		strings.NewReader("x"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown archive store "glacier"`)
}

func TestUploadArchiveRequiresPending(t *testing.T) {
	db := newTestDB(t)
	store := newFakeArchiveStore("s3")
	service := NewBackupService(db, NewStorageAccountingService(db, nil), store)

	subscription := seedSubscription(t, db, 1000)
	website := seedWebsite(t, db, subscription.ID, "a.example.com", 0, true)

	record, err := service.Create(CreateParams{WebsiteID: website.ID, Type: models.BackupTypeFiles})
	require.NoError(t, err)

	_, err = service.Transition(record.ID, models.BackupStatusCompleted, CompleteParams{})
	require.NoError(t, err)

	_, err = service.UploadArchive(context.Background(), record.ID, "s3",
		strings.NewReader("late"), 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires status pending")
	assert.Empty(t, store.uploads)
}

func TestUploadArchiveFailureLeavesRecordUntouched(t *testing.T) {
	db := newTestDB(t)
	store := newFakeArchiveStore("s3")
	store.uploadErr = fmt.Errorf("bucket unavailable")
	service := NewBackupService(db, NewStorageAccountingService(db, nil), store)

	subscription := seedSubscription(t, db, 1000)
	website := seedWebsite(t, db, subscription.ID, "a.example.com", 0, true)

	record, err := service.Create(CreateParams{WebsiteID: website.ID, Type: models.BackupTypeFull})
	require.NoError(t, err)

	_, err = service.UploadArchive(context.Background(), record.ID, "s3",
		strings.NewReader("x"), 1)
	require.Error(t, err)

	var stored models.BackupRecord
	require.NoError(t, db.First(&stored, record.ID).Error)
	assert.Empty(t, stored.ArchiveStore)
	assert.Empty(t, stored.ArchivePath)
}

func TestCompletionKeepsUploadedLocation(t *testing.T) {
	db := newTestDB(t)
	store := newFakeArchiveStore("s3")
	service := NewBackupService(db, NewStorageAccountingService(db, nil), store)

	subscription := seedSubscription(t, db, 1000)
	website := seedWebsite(t, db, subscription.ID, "a.example.com", 0, true)

	record, err := service.Create(CreateParams{WebsiteID: website.ID, Type: models.BackupTypeFull})
	require.NoError(t, err)

	record, err = service.UploadArchive(context.Background(), record.ID, "s3",
		strings.NewReader("archive-bytes"), 13)
	require.NoError(t, err)
	uploadedPath := record.ArchivePath

	// The agent's completion call carries no location of its own
	record, err = service.Transition(record.ID, models.BackupStatusCompleted, CompleteParams{
		SizeMB: int64Ptr(13),
	})
	require.NoError(t, err)
	assert.Equal(t, "s3", record.ArchiveStore)
	assert.Equal(t, uploadedPath, record.ArchivePath)
}

func TestCleanupDeletesUploadedArchives(t *testing.T) {
	db := newTestDB(t)
	store := newFakeArchiveStore("s3")
	service := NewBackupService(db, NewStorageAccountingService(db, nil), store)

	subscription := seedSubscription(t, db, 1000)
	website := seedWebsite(t, db, subscription.ID, "a.example.com", 0, true)

	old := time.Now().UTC().AddDate(0, 0, -40)
	record := models.BackupRecord{
		WebsiteID:    website.ID,
		Type:         models.BackupTypeFull,
		Status:       models.BackupStatusCompleted,
		ArchiveStore: "s3",
		ArchivePath:  "websites/1/backup-1.tar.gz",
		CreatedAt:    old,
	}
	require.NoError(t, db.Create(&record).Error)

	deleted, err := service.Cleanup(website.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, []string{"websites/1/backup-1.tar.gz"}, store.deleted)
}
