package archive

import (
	"context"
	"io"
)

// Store persists and removes backup archives on a remote destination
type Store interface {
	// Name identifies the store in BackupRecord.ArchiveStore ("s3", "ftp")
	Name() string
	Upload(ctx context.Context, path string, content io.Reader, size int64) error
	Delete(ctx context.Context, path string) error
}
