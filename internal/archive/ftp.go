package archive

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/kaiac/backend/internal/config"
)

// FTPStore stores backup archives on a plain FTP server. Connections are
// opened per operation; FTP servers routinely drop idle control channels.
type FTPStore struct {
	addr     string
	username string
	password string
	basePath string
}

func NewFTPStore(cfg *config.Config) *FTPStore {
	return &FTPStore{
		addr:     fmt.Sprintf("%s:%d", cfg.FTPHost, cfg.FTPPort),
		username: cfg.FTPUsername,
		password: cfg.FTPPassword,
		basePath: cfg.FTPPath,
	}
}

func (s *FTPStore) Name() string {
	return "ftp"
}

func (s *FTPStore) connect() (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(s.addr, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("FTP connection failed: %w", err)
	}

	if err := conn.Login(s.username, s.password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("FTP login failed: %w", err)
	}

	if s.basePath != "" && s.basePath != "/" {
		if err := conn.ChangeDir(s.basePath); err != nil {
			// Try to create the directory first
			conn.MakeDir(s.basePath)
			if err := conn.ChangeDir(s.basePath); err != nil {
				conn.Quit()
				return nil, fmt.Errorf("FTP directory change failed: %w", err)
			}
		}
	}

	return conn, nil
}

func (s *FTPStore) Upload(ctx context.Context, path string, content io.Reader, size int64) error {
	conn, err := s.connect()
	if err != nil {
		return err
	}
	defer conn.Quit()

	if err := conn.Stor(path, content); err != nil {
		return fmt.Errorf("FTP upload failed: %w", err)
	}

	log.Printf("Archive: uploaded %s to FTP %s", path, s.addr)
	return nil
}

func (s *FTPStore) Delete(ctx context.Context, path string) error {
	conn, err := s.connect()
	if err != nil {
		return err
	}
	defer conn.Quit()

	if err := conn.Delete(path); err != nil {
		return fmt.Errorf("FTP delete failed: %w", err)
	}

	log.Printf("Archive: deleted %s from FTP %s", path, s.addr)
	return nil
}
