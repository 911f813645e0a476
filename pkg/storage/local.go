package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/richxcame/ride-reputation/pkg/logger"
)

// LocalStorage implements Storage on the local filesystem. Suited to
// development and single-node deployments; presigned URLs degrade to plain
// file URLs since there is nothing to sign.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a local storage instance rooted at basePath.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if basePath == "" {
		basePath = "./uploads"
	}

	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}

	return &LocalStorage{basePath: basePath}, nil
}

// resolve maps a storage key onto the base path, rejecting keys that would
// escape it.
func (l *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(l.basePath, clean), nil
}

// Upload writes a file under the base path
func (l *LocalStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*UploadResult, error) {
	target, err := l.resolve(key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", key, err)
	}
	defer file.Close()

	written, err := io.Copy(file, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to write file %s: %w", key, err)
	}

	logger.Info("File stored locally", zap.String("key", key), zap.Int64("size", written))

	return &UploadResult{
		Key:        key,
		URL:        l.GetURL(key),
		Size:       written,
		MimeType:   contentType,
		UploadedAt: time.Now(),
	}, nil
}

// Download opens a stored file
func (l *LocalStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	target, err := l.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", key, err)
	}
	return file, nil
}

// Delete removes a stored file
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	target, err := l.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(target); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", key, err)
	}
	return nil
}

// GetURL returns a file URL for the key
func (l *LocalStorage) GetURL(key string) string {
	return fmt.Sprintf("file://%s", filepath.ToSlash(filepath.Join(l.basePath, filepath.FromSlash(key))))
}

// GetPresignedUploadURL returns a plain file URL; local storage has no
// signing authority.
func (l *LocalStorage) GetPresignedUploadURL(ctx context.Context, key string, contentType string, expiresIn time.Duration) (*PresignedURLResult, error) {
	return &PresignedURLResult{
		URL:       l.GetURL(key),
		Method:    "PUT",
		ExpiresAt: time.Now().Add(expiresIn),
	}, nil
}

// GetPresignedDownloadURL returns a plain file URL; local storage has no
// signing authority.
func (l *LocalStorage) GetPresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (*PresignedURLResult, error) {
	target, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(target); err != nil {
		return nil, fmt.Errorf("file %s not found: %w", key, err)
	}

	return &PresignedURLResult{
		URL:       l.GetURL(key),
		Method:    "GET",
		ExpiresAt: time.Now().Add(expiresIn),
	}, nil
}

// Exists checks whether a file is present
func (l *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	target, err := l.resolve(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Copy duplicates a stored file
func (l *LocalStorage) Copy(ctx context.Context, sourceKey, destKey string) error {
	src, err := l.Download(ctx, sourceKey)
	if err != nil {
		return err
	}
	defer src.Close()

	target, err := l.resolve(destKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", destKey, err)
	}

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", destKey, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", sourceKey, destKey, err)
	}
	return nil
}
