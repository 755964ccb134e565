package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/domcourse/backend/internal/models"
	"github.com/domcourse/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HierarchyService is the interface that wraps methods for reading the course tree.
type HierarchyService interface {
	// Method Tree retrieve every level with its sections and lessons, ordered by order index.
	//
	// "ctx" is the context for the request.
	// An unreachable store results in an empty tree, never in an error.
	Tree(ctx context.Context) []models.LevelNode
	// Method LevelByOrder retrieve one level with its sections and lessons.
	//
	// "ctx" is the context for the request.
	// "order" is the order index of the level.
	// If no level has that order index, services.ErrLevelNotFound will be returned together with "nil" value.
	LevelByOrder(ctx context.Context, order int) (*models.LevelNode, error)
	// Method ResolveLessonPath retrieve a lesson addressed by the order indexes of its level, section and itself.
	//
	// "ctx" is the context for the request.
	// The returned error tells which segment was missing: services.ErrLevelNotFound,
	// services.ErrSectionNotFound or services.ErrLessonNotFound.
	ResolveLessonPath(ctx context.Context, levelOrder, sectionOrder, lessonOrder int) (*services.LessonPage, error)
}

// Bootstrapper is the interface that wraps the sample content seeding.
type Bootstrapper interface {
	// Method EnsureSampleData creates the sample level, section and lesson when no level exists.
	//
	// "ctx" is the context for the request.
	// Returns true if anything was created.
	EnsureSampleData(ctx context.Context) bool
}

// SiteHandler handles the public course pages
type SiteHandler struct {
	BaseHandler
	hierarchy HierarchyService
	bootstrap Bootstrapper
}

type indexPage struct {
	Levels []models.LevelNode
}

type levelPage struct {
	Level *models.LevelNode
}

// NewSiteHandler creates a new public site handler
func NewSiteHandler(hierarchy HierarchyService, bootstrap Bootstrapper, renderer *Renderer, logger *zap.Logger) *SiteHandler {
	return &SiteHandler{
		hierarchy:   hierarchy,
		bootstrap:   bootstrap,
		BaseHandler: BaseHandler{logger: logger, renderer: renderer},
	}
}

// RegisterRoutes registers all public page routes
func (h *SiteHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/level-{level:[0-9]+}", h.Level)
	r.Get("/level-{level:[0-9]+}/section-{section:[0-9]+}-{sectionSlug}/lesson-{lesson:[0-9]+}-{lessonSlug}", h.Lesson)
}

// Index handles GET /
func (h *SiteHandler) Index(w http.ResponseWriter, r *http.Request) {
	if h.bootstrap.EnsureSampleData(r.Context()) {
		h.logger.Info("sample content created on first visit")
	}
	h.render(w, http.StatusOK, pageIndex, indexPage{Levels: h.hierarchy.Tree(r.Context())})
}

// Level handles GET /level-{level}
func (h *SiteHandler) Level(w http.ResponseWriter, r *http.Request) {
	order, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil {
		h.respondText(w, http.StatusNotFound, "Level not found")
		return
	}

	level, err := h.hierarchy.LevelByOrder(r.Context(), order)
	if err != nil {
		h.respondNotFound(w, err)
		return
	}

	h.render(w, http.StatusOK, pageLevel, levelPage{Level: level})
}

// Lesson handles GET /level-{level}/section-{section}-{slug}/lesson-{lesson}-{slug}
func (h *SiteHandler) Lesson(w http.ResponseWriter, r *http.Request) {
	levelOrder, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil {
		h.respondText(w, http.StatusNotFound, "Level not found")
		return
	}
	sectionOrder, err := strconv.Atoi(chi.URLParam(r, "section"))
	if err != nil {
		h.respondText(w, http.StatusNotFound, "Section not found")
		return
	}
	lessonOrder, err := strconv.Atoi(chi.URLParam(r, "lesson"))
	if err != nil {
		h.respondText(w, http.StatusNotFound, "Lesson not found")
		return
	}

	page, err := h.hierarchy.ResolveLessonPath(r.Context(), levelOrder, sectionOrder, lessonOrder)
	if err != nil {
		h.respondNotFound(w, err)
		return
	}

	h.render(w, http.StatusOK, pageLesson, page)
}

func (h *SiteHandler) respondNotFound(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSectionNotFound):
		h.respondText(w, http.StatusNotFound, "Section not found")
	case errors.Is(err, services.ErrLessonNotFound):
		h.respondText(w, http.StatusNotFound, "Lesson not found")
	default:
		h.respondText(w, http.StatusNotFound, "Level not found")
	}
}
