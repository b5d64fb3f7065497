package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Storage is an interface for uploading files.
type Storage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader) error
}

// LocalStorage writes files under Root, replacing any existing file.
type LocalStorage struct {
	Root string
}

func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{Root: root}
}

func (s *LocalStorage) UploadFile(_ context.Context, objectName string, reader io.Reader) error {
	path := filepath.Join(s.Root, objectName)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory for '%s': %w", path, err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create '%s': %w", path, err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close '%s': %w", path, err)
	}

	log.Debug().Str("path", path).Msg("File written")
	return nil
}
