// Package storage persists uploaded media. Stored objects are addressed by
// a relative path such as "posts/photo.gif"; URL turns that path into a
// link templates can render.
package storage

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store saves uploaded files
type Store interface {
	// Save writes body under dir using name, or a suffixed variant of name
	// when that path is taken, and returns the stored path.
	Save(ctx context.Context, dir, name, contentType string, body io.ReadSeeker) (string, error)
	URL(storedPath string) string
	// Delete removes a stored file. A path that is already gone is not an error.
	Delete(ctx context.Context, storedPath string) error
}

// cleanName strips directories and characters that do not belong in a key.
func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, name)
	if name == "" || name == "." || name == ".." {
		name = "upload"
	}
	return name
}

// alternate returns dir/name with a short random suffix before the extension
func alternate(dir, name string) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return path.Join(dir, stem+"_"+uuid.NewString()[:7]+ext)
}

// firstFree tries dir/name, then suffixed variants, until exists says no.
func firstFree(dir, name string, exists func(string) (bool, error)) (string, error) {
	candidate := path.Join(dir, cleanName(name))
	for i := 0; i < 8; i++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = alternate(dir, cleanName(name))
	}
	return alternate(dir, cleanName(name)), nil
}
