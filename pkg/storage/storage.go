package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrWrite is returned when a crop cannot be persisted
var ErrWrite = errors.New("failed to write image")

// Sink persists encoded images. Put returns the location of the stored
// object: a filesystem path for local sinks, a URL for remote ones.
type Sink interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// LocalSink writes images to the filesystem. Keys are paths; relative keys
// are resolved against Root when it is set.
type LocalSink struct {
	Root string
}

// NewLocalSink creates a filesystem sink rooted at root
func NewLocalSink(root string) *LocalSink {
	return &LocalSink{Root: root}
}

// Put writes data to key, creating parent directories as needed
func (s *LocalSink) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := key
	if s.Root != "" && !filepath.IsAbs(key) {
		path = filepath.Join(s.Root, key)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("%w: create directory %s: %w", ErrWrite, dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}

	return path, nil
}

// GenerateKey builds a unique object key for an uploaded file name
func GenerateKey(prefix, filename string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "image"
	}
	id := uuid.New().String()[:8]

	key := fmt.Sprintf("%s_%d_%s%s", name, time.Now().Unix(), id, ext)
	if prefix != "" {
		key = strings.TrimSuffix(prefix, "/") + "/" + key
	}
	return key
}
