package handlers

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/domcourse/backend/internal/models"
	"github.com/domcourse/backend/internal/services"
	"github.com/domcourse/backend/internal/web"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	renderer, err := NewRenderer(web.FS)
	require.NoError(t, err)
	return renderer
}

func newTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	return logger
}

// sampleTree returns one level with one section holding three lessons
func sampleTree() []models.LevelNode {
	section := models.Section{ID: 10, LevelID: 1, Title: "Введение в DOM", OrderIndex: 1, CreatedAt: testTime, UpdatedAt: testTime}
	return []models.LevelNode{
		{
			Level: models.Level{ID: 1, Title: "Основы DOM", OrderIndex: 1, CreatedAt: testTime, UpdatedAt: testTime},
			Sections: []models.SectionNode{
				{
					Section: section,
					Lessons: []models.Lesson{
						{ID: 100, SectionID: 10, Title: "Что такое DOM", OrderIndex: 1},
						{ID: 101, SectionID: 10, Title: "Поиск элементов", OrderIndex: 2},
						{ID: 102, SectionID: 10, Title: "События", OrderIndex: 3},
					},
				},
			},
		},
	}
}

// mockHierarchy is a mock implementation of HierarchyService
type mockHierarchy struct {
	tree     []models.LevelNode
	level    *models.LevelNode
	levelErr error
	page     *services.LessonPage
	pageErr  error

	lastLevelOrder int
	lastPath       [3]int
}

func (m *mockHierarchy) Tree(ctx context.Context) []models.LevelNode {
	return m.tree
}

func (m *mockHierarchy) LevelByOrder(ctx context.Context, order int) (*models.LevelNode, error) {
	m.lastLevelOrder = order
	if m.levelErr != nil {
		return nil, m.levelErr
	}
	return m.level, nil
}

func (m *mockHierarchy) ResolveLessonPath(ctx context.Context, levelOrder, sectionOrder, lessonOrder int) (*services.LessonPage, error) {
	m.lastPath = [3]int{levelOrder, sectionOrder, lessonOrder}
	if m.pageErr != nil {
		return nil, m.pageErr
	}
	return m.page, nil
}

// mockBootstrapper is a mock implementation of Bootstrapper
type mockBootstrapper struct {
	created bool
	calls   int
}

func (m *mockBootstrapper) EnsureSampleData(ctx context.Context) bool {
	m.calls++
	return m.created
}

// mockCatalog is a mock implementation of CatalogService recording every call
type mockCatalog struct {
	mu     sync.Mutex
	calls  []string
	titles []string
	ids    []int
	lesson *models.Lesson
	update *models.UpdateLessonRequest
}

func (m *mockCatalog) record(call string, id int, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	m.ids = append(m.ids, id)
	m.titles = append(m.titles, title)
}

func (m *mockCatalog) CreateLevel(ctx context.Context, title string) *models.Level {
	m.record("CreateLevel", 0, title)
	return &models.Level{ID: 1, Title: title, OrderIndex: 1}
}

func (m *mockCatalog) CreateSection(ctx context.Context, levelID int, title string) *models.Section {
	m.record("CreateSection", levelID, title)
	return &models.Section{ID: 1, LevelID: levelID, Title: title, OrderIndex: 1}
}

func (m *mockCatalog) CreateLesson(ctx context.Context, sectionID int, title string) *models.Lesson {
	m.record("CreateLesson", sectionID, title)
	return &models.Lesson{ID: 1, SectionID: sectionID, Title: title, OrderIndex: 1}
}

func (m *mockCatalog) RenameLevel(ctx context.Context, id int, title string) *models.Level {
	m.record("RenameLevel", id, title)
	return &models.Level{ID: id, Title: title}
}

func (m *mockCatalog) RenameSection(ctx context.Context, id int, title string) *models.Section {
	m.record("RenameSection", id, title)
	return &models.Section{ID: id, Title: title}
}

func (m *mockCatalog) GetLesson(ctx context.Context, id int) *models.Lesson {
	m.record("GetLesson", id, "")
	if m.lesson == nil || m.lesson.ID != id {
		return nil
	}
	return m.lesson
}

func (m *mockCatalog) UpdateLesson(ctx context.Context, id int, req *models.UpdateLessonRequest) *models.Lesson {
	m.record("UpdateLesson", id, req.Title)
	m.update = req
	if m.lesson == nil || m.lesson.ID != id {
		return nil
	}
	updated := *m.lesson
	if req.Title != "" {
		updated.Title = req.Title
	}
	updated.Content = req.Content()
	return &updated
}

func (m *mockCatalog) DeleteLevel(ctx context.Context, id int) bool {
	m.record("DeleteLevel", id, "")
	return true
}

func (m *mockCatalog) DeleteSection(ctx context.Context, id int) bool {
	m.record("DeleteSection", id, "")
	return true
}

func (m *mockCatalog) DeleteLesson(ctx context.Context, id int) bool {
	m.record("DeleteLesson", id, "")
	return true
}

// mockAuth is a mock implementation of Authenticator
type mockAuth struct {
	login    string
	password string
}

func (m *mockAuth) Authenticate(login, password string) bool {
	return login == m.login && password == m.password
}

// mockSessions is a mock implementation of SessionManager
type mockSessions struct {
	admin     bool
	loginErr  error
	flash     string
	loggedIn  bool
	remember  bool
	loggedOut bool
	flashSet  string
}

func (m *mockSessions) IsAdmin(r *http.Request) bool {
	return m.admin
}

func (m *mockSessions) Login(w http.ResponseWriter, r *http.Request, remember bool) error {
	if m.loginErr != nil {
		return m.loginErr
	}
	m.loggedIn = true
	m.remember = remember
	return nil
}

func (m *mockSessions) Logout(w http.ResponseWriter, r *http.Request) {
	m.loggedOut = true
}

func (m *mockSessions) SetFlash(w http.ResponseWriter, message string) {
	m.flashSet = message
}

func (m *mockSessions) PopFlash(w http.ResponseWriter, r *http.Request) string {
	flash := m.flash
	m.flash = ""
	return flash
}

// mockMedia is a mock implementation of MediaService
type mockMedia struct {
	validateErr error
	uploadErr   error
	url         string
	uploaded    string
}

func (m *mockMedia) ValidateImage(filename string, size int64) error {
	return m.validateErr
}

func (m *mockMedia) UploadImage(ctx context.Context, filename string, reader io.Reader) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	if _, err := io.ReadAll(reader); err != nil {
		return "", err
	}
	m.uploaded = filename
	return m.url, nil
}

// mockHealth is a mock implementation of HealthChecker
type mockHealth struct {
	connected bool
}

func (m *mockHealth) IsConnected(ctx context.Context) bool {
	return m.connected
}

type routeRegistrar interface {
	RegisterRoutes(r chi.Router)
}

func setupTestRouter(handlers ...routeRegistrar) *chi.Mux {
	r := chi.NewRouter()
	for _, h := range handlers {
		h.RegisterRoutes(r)
	}
	return r
}
