package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps files below Root and serves them from URLPrefix
type LocalStore struct {
	Root      string
	URLPrefix string
}

func NewLocalStore(root, urlPrefix string) *LocalStore {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &LocalStore{Root: root, URLPrefix: urlPrefix}
}

func (s *LocalStore) Save(ctx context.Context, dir, name, contentType string, body io.ReadSeeker) (string, error) {
	if err := os.MkdirAll(filepath.Join(s.Root, filepath.FromSlash(dir)), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	stored, err := firstFree(dir, name, func(p string) (bool, error) {
		_, err := os.Stat(filepath.Join(s.Root, filepath.FromSlash(p)))
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return err == nil, err
	})
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(filepath.Join(s.Root, filepath.FromSlash(stored)), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	return stored, nil
}

func (s *LocalStore) Delete(ctx context.Context, storedPath string) error {
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(storedPath)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}

func (s *LocalStore) URL(storedPath string) string {
	if storedPath == "" {
		return ""
	}
	return s.URLPrefix + storedPath
}
