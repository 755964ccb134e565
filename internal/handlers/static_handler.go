package handlers

import (
	"errors"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FileOpener opens uploaded files kept on the local filesystem
type FileOpener interface {
	Open(id, folder string) (io.ReadCloser, error)
}

// StaticHandler serves the embedded site assets and locally stored uploads
type StaticHandler struct {
	BaseHandler
	assets      fs.FS
	files       FileOpener
	filesPrefix string
}

// NewStaticHandler creates a new static handler.
// "files" may be nil when uploads are kept in object storage.
func NewStaticHandler(assets fs.FS, files FileOpener, filesPrefix string, logger *zap.Logger) *StaticHandler {
	return &StaticHandler{
		assets:      assets,
		files:       files,
		filesPrefix: strings.TrimRight(filesPrefix, "/"),
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers the asset routes and, for local storage, the uploads route
func (h *StaticHandler) RegisterRoutes(r chi.Router) {
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(h.assets))))
	if h.files != nil && strings.HasPrefix(h.filesPrefix, "/") {
		r.Get(h.filesPrefix+"/{folder:[a-z]+}/{id}", h.ServeFile)
	}
}

// ServeFile handles GET {uploads prefix}/{folder}/{id}
func (h *StaticHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	folder := chi.URLParam(r, "folder")
	id := chi.URLParam(r, "id")

	file, err := h.files.Open(id, folder)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.respondText(w, http.StatusNotFound, "File not found")
			return
		}
		h.logger.Error("failed to open uploaded file", zap.String("id", id), zap.Error(err))
		h.respondText(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	defer file.Close()

	if contentType := mime.TypeByExtension(filepath.Ext(id)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, file); err != nil {
		h.logger.Error("failed to send uploaded file", zap.String("id", id), zap.Error(err))
	}
}
