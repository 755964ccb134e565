package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/domcourse/backend/internal/middleware"
	"github.com/domcourse/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	loginPath     = "/bod"
	dashboardPath = "/bod/dashboard"
	// loginAttemptsPerMinute limits credential guessing per client IP
	loginAttemptsPerMinute = 10
	loginFailedMessage     = "Неверный логин или пароль"
)

// CatalogService is the interface that wraps methods for managing course content.
type CatalogService interface {
	// Method CreateLevel append a new level after the existing ones.
	//
	// "ctx" is the context for the request.
	// "title" is trimmed; an empty title creates nothing and returns "nil".
	CreateLevel(ctx context.Context, title string) *models.Level
	// Method CreateSection append a new section to a level.
	//
	// "levelID" is the ID of the parent level. Please reference CreateLevel method for "title" handling.
	CreateSection(ctx context.Context, levelID int, title string) *models.Section
	// Method CreateLesson append a new lesson to a section.
	//
	// "sectionID" is the ID of the parent section. The first lesson of a section receives the sample content.
	CreateLesson(ctx context.Context, sectionID int, title string) *models.Lesson
	// Method RenameLevel change the title of a level. Returns "nil" if nothing was changed.
	RenameLevel(ctx context.Context, id int, title string) *models.Level
	// Method RenameSection change the title of a section. Returns "nil" if nothing was changed.
	RenameSection(ctx context.Context, id int, title string) *models.Section
	// Method GetLesson retrieve a lesson by its ID. Returns "nil" if it does not exist or the store is unavailable.
	GetLesson(ctx context.Context, id int) *models.Lesson
	// Method UpdateLesson replace the title and content of a lesson.
	//
	// An empty title in "req" keeps the current title. Returns "nil" if nothing was changed.
	UpdateLesson(ctx context.Context, id int, req *models.UpdateLessonRequest) *models.Lesson
	// Method DeleteLevel remove a level together with its sections and lessons.
	DeleteLevel(ctx context.Context, id int) bool
	// Method DeleteSection remove a section together with its lessons.
	DeleteSection(ctx context.Context, id int) bool
	// Method DeleteLesson remove a lesson.
	DeleteLesson(ctx context.Context, id int) bool
}

// Authenticator checks admin credentials
type Authenticator interface {
	// Method Authenticate reports whether "login" and "password" match the configured admin credentials.
	Authenticate(login, password string) bool
}

// SessionManager is the interface that wraps the admin session cookie handling.
type SessionManager interface {
	middleware.AdminChecker
	// Method Login start an admin session. "remember" makes the cookie persist for 30 days.
	Login(w http.ResponseWriter, r *http.Request, remember bool) error
	// Method Logout end the admin session of the request.
	Logout(w http.ResponseWriter, r *http.Request)
	// Method SetFlash store a message shown once on the next page.
	SetFlash(w http.ResponseWriter, message string)
	// Method PopFlash return the pending message and clear it.
	PopFlash(w http.ResponseWriter, r *http.Request) string
}

// AdminHandler handles the admin panel under /bod
type AdminHandler struct {
	BaseHandler
	catalog   CatalogService
	hierarchy HierarchyService
	auth      Authenticator
	sessions  SessionManager
	validate  *validator.Validate
}

type loginPage struct {
	Flash string
}

type dashboardPage struct {
	Levels []models.LevelNode
}

type editLessonPage struct {
	Lesson *models.Lesson
}

// NewAdminHandler creates a new admin panel handler
func NewAdminHandler(
	catalog CatalogService,
	hierarchy HierarchyService,
	auth Authenticator,
	sessions SessionManager,
	renderer *Renderer,
	logger *zap.Logger,
) *AdminHandler {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &AdminHandler{
		catalog:     catalog,
		hierarchy:   hierarchy,
		auth:        auth,
		sessions:    sessions,
		validate:    validate,
		BaseHandler: BaseHandler{logger: logger, renderer: renderer},
	}
}

// RegisterRoutes registers all admin panel routes
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/bod", func(r chi.Router) {
		r.Get("/", h.LoginPage)
		r.With(httprate.LimitByIP(loginAttemptsPerMinute, time.Minute)).Post("/login", h.Login)
		r.Get("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(h.sessions, loginPath))

			r.Get("/dashboard", h.Dashboard)
			r.Post("/create_level", h.CreateLevel)
			r.Post("/update_level/{id:[0-9]+}", h.UpdateLevel)
			r.Post("/delete_level/{id:[0-9]+}", h.DeleteLevel)
			r.Post("/create_section/{id:[0-9]+}", h.CreateSection)
			r.Post("/update_section/{id:[0-9]+}", h.UpdateSection)
			r.Post("/delete_section/{id:[0-9]+}", h.DeleteSection)
			r.Post("/create_lesson/{id:[0-9]+}", h.CreateLesson)
			r.Get("/edit_lesson/{id:[0-9]+}", h.EditLesson)
			r.Post("/update_lesson/{id:[0-9]+}", h.UpdateLesson)
			r.Post("/delete_lesson/{id:[0-9]+}", h.DeleteLesson)
		})
	})
}

// LoginPage handles GET /bod
func (h *AdminHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.sessions.IsAdmin(r) {
		h.redirect(w, r, dashboardPath)
		return
	}
	h.render(w, http.StatusOK, pageLogin, loginPage{Flash: h.sessions.PopFlash(w, r)})
}

// Login handles POST /bod/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Error("failed to parse login form", zap.Error(err))
	}

	if !h.auth.Authenticate(r.PostFormValue("login"), r.PostFormValue("password")) {
		h.logger.Warn("failed admin login", zap.String("ip", r.RemoteAddr))
		h.sessions.SetFlash(w, loginFailedMessage)
		h.redirect(w, r, loginPath)
		return
	}

	if err := h.sessions.Login(w, r, r.PostFormValue("remember") == "on"); err != nil {
		h.logger.Error("failed to start admin session", zap.Error(err))
		h.sessions.SetFlash(w, loginFailedMessage)
		h.redirect(w, r, loginPath)
		return
	}

	h.logger.Info("admin logged in")
	h.redirect(w, r, dashboardPath)
}

// Logout handles GET /bod/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(w, r)
	h.redirect(w, r, loginPath)
}

// Dashboard handles GET /bod/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, pageDashboard, dashboardPage{Levels: h.hierarchy.Tree(r.Context())})
}

// CreateLevel handles POST /bod/create_level
func (h *AdminHandler) CreateLevel(w http.ResponseWriter, r *http.Request) {
	h.catalog.CreateLevel(r.Context(), r.FormValue("title"))
	h.redirect(w, r, dashboardPath)
}

// UpdateLevel handles POST /bod/update_level/{id}
func (h *AdminHandler) UpdateLevel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.catalog.RenameLevel(r.Context(), id, r.FormValue("title"))
	h.redirect(w, r, dashboardPath)
}

// DeleteLevel handles POST /bod/delete_level/{id}
func (h *AdminHandler) DeleteLevel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.catalog.DeleteLevel(r.Context(), id)
	h.redirect(w, r, dashboardPath)
}

// CreateSection handles POST /bod/create_section/{level_id}
func (h *AdminHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	levelID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.catalog.CreateSection(r.Context(), levelID, r.FormValue("title"))
	h.redirect(w, r, dashboardPath)
}

// UpdateSection handles POST /bod/update_section/{id}
func (h *AdminHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.catalog.RenameSection(r.Context(), id, r.FormValue("title"))
	h.redirect(w, r, dashboardPath)
}

// DeleteSection handles POST /bod/delete_section/{id}
func (h *AdminHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.catalog.DeleteSection(r.Context(), id)
	h.redirect(w, r, dashboardPath)
}

// CreateLesson handles POST /bod/create_lesson/{section_id}
func (h *AdminHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.catalog.CreateLesson(r.Context(), sectionID, r.FormValue("title"))
	h.redirect(w, r, dashboardPath)
}

// EditLesson handles GET /bod/edit_lesson/{id}
func (h *AdminHandler) EditLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	lesson := h.catalog.GetLesson(r.Context(), id)
	if lesson == nil {
		h.respondText(w, http.StatusNotFound, "Lesson not found")
		return
	}

	h.render(w, http.StatusOK, pageEditLesson, editLessonPage{Lesson: lesson})
}

// UpdateLesson handles POST /bod/update_lesson/{id}
// A JSON body is answered with JSON, a form submission with a redirect to the dashboard.
// @Summary Update lesson
// @Description Replace the title, theory, quiz and tasks of a lesson. Requires the admin session cookie.
// @Description Form submissions (quiz_{i}_question, task_{i} fields) are redirected to the dashboard instead.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param lesson body models.UpdateLessonRequest true "Lesson content"
// @Success 200 {object} models.Lesson
// @Failure 400 {object} map[string]interface{} "Invalid request body or Invalid lesson data with failing fields"
// @Failure 303 "Redirect to /bod when not signed in"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Router /bod/update_lesson/{id} [post]
func (h *AdminHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if isJSONRequest(r) {
		h.updateLessonJSON(w, r, id)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.logger.Error("failed to parse lesson form", zap.Int("lessonID", id), zap.Error(err))
		h.redirect(w, r, dashboardPath)
		return
	}

	h.catalog.UpdateLesson(r.Context(), id, parseLessonForm(r.PostForm))
	h.redirect(w, r, dashboardPath)
}

func (h *AdminHandler) updateLessonJSON(w http.ResponseWriter, r *http.Request, id int) {
	var req models.UpdateLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			fields := make(map[string]string, len(validationErrs))
			for _, fe := range validationErrs {
				fields[fe.Namespace()] = fe.Tag()
			}
			h.respondJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "Invalid lesson data",
				"fields": fields,
			})
			return
		}
		h.respondError(w, http.StatusBadRequest, "Invalid lesson data")
		return
	}

	lesson := h.catalog.UpdateLesson(r.Context(), id, &req)
	if lesson == nil {
		h.respondError(w, http.StatusNotFound, "Lesson not found")
		return
	}

	h.respondJSON(w, http.StatusOK, lesson)
}

// DeleteLesson handles POST /bod/delete_lesson/{id}
func (h *AdminHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.catalog.DeleteLesson(r.Context(), id)
	h.redirect(w, r, dashboardPath)
}

// pathID reads the {id} URL parameter and answers 404 if it is not a valid integer
func (h *AdminHandler) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// parseLessonForm builds the lesson edit from the indexed form fields of the editor.
// Indexes are collected from every key and sorted, so a removed question leaves no hole.
// Empty questions and tasks are skipped, an invalid correct answer falls back to 0.
func parseLessonForm(form url.Values) *models.UpdateLessonRequest {
	req := &models.UpdateLessonRequest{
		Title:  form.Get("title"),
		Theory: form.Get("theory"),
		Quiz:   []models.QuizItem{},
		Tasks:  []string{},
	}

	var quizIndexes, taskIndexes []int
	for key := range form {
		if i, ok := indexedKey(key, "quiz_", "_question"); ok {
			quizIndexes = append(quizIndexes, i)
		} else if i, ok := indexedKey(key, "task_", ""); ok {
			taskIndexes = append(taskIndexes, i)
		}
	}
	sort.Ints(quizIndexes)
	sort.Ints(taskIndexes)

	for _, i := range quizIndexes {
		prefix := "quiz_" + strconv.Itoa(i)
		question := form.Get(prefix + "_question")
		if strings.TrimSpace(question) == "" {
			continue
		}

		options := make([]string, models.QuizOptionsCount)
		for j := range options {
			options[j] = form.Get(prefix + "_option_" + strconv.Itoa(j))
		}

		correct, err := strconv.Atoi(form.Get(prefix + "_correct"))
		if err != nil || correct < 0 || correct >= models.QuizOptionsCount {
			correct = 0
		}

		req.Quiz = append(req.Quiz, models.QuizItem{
			Question:      question,
			Options:       options,
			CorrectAnswer: correct,
		})
	}

	for _, i := range taskIndexes {
		task := form.Get("task_" + strconv.Itoa(i))
		if strings.TrimSpace(task) == "" {
			continue
		}
		req.Tasks = append(req.Tasks, task)
	}

	return req
}

// indexedKey parses keys of the form prefix + <non-negative int> + suffix.
// Only the canonical spelling of the index is accepted, so "quiz_01_question" is not index 1.
func indexedKey(key, prefix, suffix string) (int, bool) {
	rest, ok := strings.CutPrefix(key, prefix)
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, suffix)
	if !ok || rest == "" {
		return 0, false
	}
	if len(rest) > 1 && rest[0] == '0' {
		return 0, false
	}
	for _, c := range rest {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return i, true
}
