package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// localStorage stores files on the local filesystem and serves them under baseURL
type localStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates a new localStorage instance
func NewLocalStorage(basePath, baseURL string) *localStorage {
	return &localStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// generatePath builds the full file path from folder and file id.
// Underscores in folder become path separators.
func (s *localStorage) generatePath(id, folder string) string {
	typePath := strings.ReplaceAll(folder, "_", string(filepath.Separator))
	return filepath.Join(s.basePath, typePath, filepath.Base(id))
}

// Create creates a new file and returns a WriteCloser
func (s *localStorage) Create(id, folder string) (io.WriteCloser, error) {
	path := s.generatePath(id, folder)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return os.Create(path)
}

// Open opens a file for reading and returns a ReadCloser
func (s *localStorage) Open(id, folder string) (io.ReadCloser, error) {
	return os.Open(s.generatePath(id, folder))
}

// Put writes the content to a new file and returns its public URL
func (s *localStorage) Put(ctx context.Context, folder, id string, reader io.Reader, size int64, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	writeCloser, err := s.Create(id, folder)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(writeCloser, reader); err != nil {
		writeCloser.Close()
		os.Remove(s.generatePath(id, folder))
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := writeCloser.Close(); err != nil {
		os.Remove(s.generatePath(id, folder))
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return s.URL(folder, id), nil
}

// URL returns the public URL of a stored file
func (s *localStorage) URL(folder, id string) string {
	typePath := strings.ReplaceAll(folder, "_", "/")
	return fmt.Sprintf("%s/%s/%s", s.baseURL, typePath, url.PathEscape(id))
}
