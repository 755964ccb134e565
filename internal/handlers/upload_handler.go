package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/domcourse/backend/internal/middleware"
	"github.com/domcourse/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	// maxMultipartMemory is the part of a multipart body kept in memory, the rest spills to disk
	maxMultipartMemory = 8 << 20
	// maxUploadRequestSize leaves room for the multipart envelope around the largest accepted image
	maxUploadRequestSize = services.MaxImageSize + 1<<20
)

// MediaService is the interface that wraps methods for lesson image uploads.
type MediaService interface {
	// Method ValidateImage checks the client file name and declared size before the file is read.
	//
	// Returns services.ErrNoFileSelected, services.ErrFileTypeNotAllowed or services.ErrFileTooLarge.
	ValidateImage(filename string, size int64) error
	// Method UploadImage stores an image and returns its public URL.
	//
	// "filename" is the client file name, "reader" is the file content.
	// Raster images are re-encoded as JPEG; content that does not decode yields an error
	// wrapping services.ErrImageNotProcessed. If the storage backend fails,
	// an error wrapping services.ErrImageNotStored will be returned together with an empty URL.
	UploadImage(ctx context.Context, filename string, reader io.Reader) (string, error)
}

// UploadHandler handles image uploads from the lesson editor
type UploadHandler struct {
	BaseHandler
	media    MediaService
	sessions middleware.AdminChecker
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(media MediaService, sessions middleware.AdminChecker, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		media:       media,
		sessions:    sessions,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers the upload route.
// The handler enforces its own body limit, so the route must stay outside the global size limit.
func (h *UploadHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAdminJSON(h.sessions)).Post("/bod/upload_image", h.UploadImage)
}

// UploadImage handles POST /bod/upload_image
// @Summary Upload lesson image
// @Description Upload an image for lesson theory. Requires the admin session cookie. Raster images are stored as JPEG, SVG as is.
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image (png, jpg, jpeg, webp, svg; up to 5MB)"
// @Success 200 {object} map[string]string "Public image URL"
// @Failure 400 {object} map[string]string "No file provided, No file selected, File type not allowed, File too large or Invalid image file"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to upload image or Upload failed"
// @Router /bod/upload_image [post]
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxUploadRequestSize {
		h.respondError(w, http.StatusBadRequest, "File too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadRequestSize)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusBadRequest, "File too large")
			return
		}
		h.logger.Error("failed to parse multipart form", zap.Error(err))
		h.respondError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		// a file input submitted without a selection arrives as a plain value
		if _, ok := r.MultipartForm.Value["file"]; ok {
			h.respondError(w, http.StatusBadRequest, "No file selected")
			return
		}
		h.respondError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if err := h.media.ValidateImage(header.Filename, header.Size); err != nil {
		h.respondUploadError(w, err)
		return
	}

	url, err := h.media.UploadImage(r.Context(), header.Filename, file)
	if err != nil {
		h.respondUploadError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *UploadHandler) respondUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNoFileSelected):
		h.respondError(w, http.StatusBadRequest, "No file selected")
	case errors.Is(err, services.ErrFileTypeNotAllowed):
		h.respondError(w, http.StatusBadRequest, "File type not allowed")
	case errors.Is(err, services.ErrFileTooLarge):
		h.respondError(w, http.StatusBadRequest, "File too large")
	case errors.Is(err, services.ErrImageNotProcessed):
		h.respondError(w, http.StatusBadRequest, "Invalid image file")
	case errors.Is(err, services.ErrImageNotStored):
		h.logger.Error("failed to store image", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to upload image")
	default:
		h.logger.Error("image upload failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Upload failed")
	}
}
