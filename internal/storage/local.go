// Package storage persists uploaded invoice images on the local filesystem
// and serves them back by URL.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Local writes uploads under a per-shop directory below the base dir.
type Local struct {
	baseDir string
	baseURL string
}

// NewLocal builds the store, creating the base directory when missing.
func NewLocal(baseDir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create base dir: %w", err)
	}
	return &Local{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save streams the upload to disk and returns its serving URL. The stored
// name is regenerated to keep uploads collision-free and path-safe.
func (l *Local) Save(_ context.Context, shopID int64, filename string, r io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	if len(ext) > 8 {
		ext = ""
	}
	name := fmt.Sprintf("%d-%s%s", time.Now().Unix(), uuid.NewString(), ext)
	dir := filepath.Join(l.baseDir, fmt.Sprintf("shop-%d", shopID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create shop dir: %w", err)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return fmt.Sprintf("%s/shop-%d/%s", l.baseURL, shopID, name), nil
}

// Dir exposes the base directory for the static file server.
func (l *Local) Dir() string {
	return l.baseDir
}
