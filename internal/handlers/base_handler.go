package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type BaseHandler struct {
	logger   *zap.Logger
	renderer *Renderer
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends an error JSON response
func (h *BaseHandler) respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// respondText sends a plain text response
func (h *BaseHandler) respondText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(message))
}

// render executes a page template into a buffer so a template error never produces a half-written page
func (h *BaseHandler) render(w http.ResponseWriter, status int, page string, data any) {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, page, data); err != nil {
		h.logger.Error("failed to render page", zap.String("page", page), zap.Error(err))
		h.respondText(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("failed to write page", zap.String("page", page), zap.Error(err))
	}
}

// redirect sends a 303 so that a POST is followed by a GET
func (h *BaseHandler) redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}
