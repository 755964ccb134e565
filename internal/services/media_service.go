package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/domcourse/backend/internal/imaging"
	"github.com/domcourse/backend/internal/storage"
	"go.uber.org/zap"
)

const (
	// MaxImageSize is the largest accepted upload in bytes
	MaxImageSize = 5 * 1024 * 1024
	// ImageFolder is the storage folder uploads are written to
	ImageFolder = "images"
)

// Upload validation errors
var (
	ErrNoFileSelected     = errors.New("no file selected")
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrFileTooLarge       = errors.New("file too large")
	// ErrImageNotProcessed is returned when a raster upload cannot be decoded or re-encoded
	ErrImageNotProcessed = errors.New("image not processed")
	// ErrImageNotStored is returned when the storage backend rejects the upload
	ErrImageNotStored = errors.New("image not stored")
)

var allowedImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".svg":  true,
}

var rasterImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// Storage defines the interface for file storage operations
type Storage interface {
	// Put stores the content under folder/id and returns its public URL
	Put(ctx context.Context, folder, id string, reader io.Reader, size int64, contentType string) (string, error)
}

// mediaService validates, normalizes and stores uploaded lesson images
type mediaService struct {
	storage Storage
	logger  *zap.Logger
}

// NewMediaService creates a new media service
func NewMediaService(storage Storage, logger *zap.Logger) *mediaService {
	return &mediaService{
		storage: storage,
		logger:  logger,
	}
}

// ValidateImage checks the client file name and size before the content is read
func (s *mediaService) ValidateImage(filename string, size int64) error {
	if filename == "" {
		return ErrNoFileSelected
	}
	if !allowedImageExtensions[strings.ToLower(filepath.Ext(filename))] {
		return ErrFileTypeNotAllowed
	}
	if size > MaxImageSize {
		return ErrFileTooLarge
	}
	return nil
}

// UploadImage stores an image and returns its public URL.
// Raster images are re-encoded as JPEG. Content that does not decode as an image is never stored.
func (s *mediaService) UploadImage(ctx context.Context, filename string, reader io.Reader) (string, error) {
	content, err := io.ReadAll(io.LimitReader(reader, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(content) > MaxImageSize {
		return "", ErrFileTooLarge
	}

	uniqueName := storage.UniqueFileName(filename)
	ext := strings.ToLower(filepath.Ext(filename))
	contentType := contentTypeByExtension(ext)

	if rasterImageExtensions[ext] {
		converted, err := imaging.ToJPEG(content)
		if err != nil {
			s.logger.Warn("failed to process image", zap.String("filename", filename), zap.Error(err))
			return "", fmt.Errorf("%w: %w", ErrImageNotProcessed, err)
		}
		content = converted
		uniqueName = storage.ReplaceExtension(uniqueName, ".jpg")
		contentType = "image/jpeg"
	}

	url, err := s.storage.Put(ctx, ImageFolder, uniqueName, bytes.NewReader(content), int64(len(content)), contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrImageNotStored, err)
	}

	s.logger.Info("image uploaded", zap.String("file", uniqueName), zap.Int("size", len(content)))
	return url, nil
}

func contentTypeByExtension(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}
