package integration

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/domcourse/backend/internal/config"
	"github.com/domcourse/backend/internal/handlers"
	"github.com/domcourse/backend/internal/models"
	"github.com/domcourse/backend/internal/repositories"
	"github.com/domcourse/backend/internal/services"
	"github.com/domcourse/backend/internal/session"
	"github.com/domcourse/backend/internal/web"
	"github.com/go-chi/chi/v5"
	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testDB     *sql.DB
	testConfig *config.Config
	testLogger *zap.Logger
)

// skipWithoutDatabase skips integration tests in short mode or without a test database
func skipWithoutDatabase(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	if testDB == nil {
		t.Skip("Skipping integration tests: no test database configured")
	}
}

// cleanupTestData removes all content and resets the id sequences
func cleanupTestData(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec("TRUNCATE lessons, sections, levels RESTART IDENTITY CASCADE")
	require.NoError(t, err, "Failed to cleanup test data")
}

// setupTestRouter creates a test router with all handlers
func setupTestRouter(t *testing.T, db *sql.DB, logger *zap.Logger) chi.Router {
	t.Helper()
	store := services.NewContentStore(
		repositories.NewLevelRepository(db),
		repositories.NewSectionRepository(db),
		repositories.NewLessonRepository(db),
		logger,
	)
	catalog := services.NewCatalogService(store, services.NewOrderingManager(), logger)
	hierarchy := services.NewHierarchyService(store)
	bootstrap := services.NewBootstrapper(store, logger)
	auth := services.NewAuthService(testConfig.Admin.Login, testConfig.Admin.Password, logger)
	sessions := session.NewManager(session.NewTokenStore(testConfig.Session.Secret), false, logger)

	renderer, err := handlers.NewRenderer(web.FS)
	require.NoError(t, err)

	r := chi.NewRouter()
	handlers.NewHealthHandler(store, logger).RegisterRoutes(r)
	handlers.NewSiteHandler(hierarchy, bootstrap, renderer, logger).RegisterRoutes(r)
	handlers.NewAdminHandler(catalog, hierarchy, auth, sessions, renderer, logger).RegisterRoutes(r)

	return r
}

// login signs in as the admin and returns the session cookie
func login(t *testing.T, router http.Handler) *http.Cookie {
	t.Helper()
	form := url.Values{"login": {testConfig.Admin.Login}, "password": {testConfig.Admin.Password}}
	req := httptest.NewRequest(http.MethodPost, "/bod/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, "/bod/dashboard", w.Header().Get("Location"))

	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func adminPost(t *testing.T, router http.Handler, cookie *http.Cookie, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func orderIndexes(t *testing.T, db *sql.DB, query string, args ...any) []int {
	t.Helper()
	rows, err := db.Query(query, args...)
	require.NoError(t, err)
	defer rows.Close()

	var result []int
	for rows.Next() {
		var order int
		require.NoError(t, rows.Scan(&order))
		result = append(result, order)
	}
	require.NoError(t, rows.Err())
	return result
}

// TestMain sets up and tears down the test environment
func TestMain(m *testing.M) {
	// Initialize logger
	var err error
	testLogger, err = zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	testConfig, err = config.LoadTestConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load test config: %v", err))
	}

	if testConfig.HasDatabase() {
		db, err := sql.Open("pgx", testConfig.DSN())
		if err != nil {
			panic(fmt.Sprintf("Failed to open test database: %v", err))
		}
		if err := db.Ping(); err != nil {
			testLogger.Warn("test database is unreachable, integration tests are skipped", zap.Error(err))
			db.Close()
		} else {
			if err := setupTestSchema(db); err != nil {
				panic(fmt.Sprintf("Failed to migrate test database: %v", err))
			}
			testDB = db
		}
	}

	// Run tests
	code := m.Run()

	// Cleanup
	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

// setupTestSchema applies the migrations of the repository
func setupTestSchema(db *sql.DB) error {
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(testConfig.Migrations.Path, "pgx5", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func TestIntegration_Bootstrap(t *testing.T) {
	skipWithoutDatabase(t)
	cleanupTestData(t, testDB)
	defer cleanupTestData(t, testDB)

	router := setupTestRouter(t, testDB, testLogger)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Основы DOM")
	}

	for _, table := range []string{"levels", "sections", "lessons"} {
		var count int
		require.NoError(t, testDB.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
		assert.Equal(t, 1, count, table)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/level-1/section-1-x/lesson-1-y", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Что такое DOM")
}

func TestIntegration_OrderingAndCascade(t *testing.T) {
	skipWithoutDatabase(t)
	cleanupTestData(t, testDB)
	defer cleanupTestData(t, testDB)

	router := setupTestRouter(t, testDB, testLogger)
	cookie := login(t, router)

	w := adminPost(t, router, cookie, "/bod/create_level", url.Values{"title": {"Level"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	var levelID int
	require.NoError(t, testDB.QueryRow("SELECT id FROM levels").Scan(&levelID))

	for _, title := range []string{"A", "B", "C"} {
		adminPost(t, router, cookie, fmt.Sprintf("/bod/create_section/%d", levelID), url.Values{"title": {title}})
	}
	assert.Equal(t, []int{1, 2, 3}, orderIndexes(t, testDB, "SELECT order_index FROM sections ORDER BY order_index"))

	var sectionB int
	require.NoError(t, testDB.QueryRow("SELECT id FROM sections WHERE title = 'B'").Scan(&sectionB))
	adminPost(t, router, cookie, fmt.Sprintf("/bod/delete_section/%d", sectionB), nil)
	assert.Equal(t, []int{1, 3}, orderIndexes(t, testDB, "SELECT order_index FROM sections ORDER BY order_index"))

	var sectionA int
	require.NoError(t, testDB.QueryRow("SELECT id FROM sections WHERE title = 'A'").Scan(&sectionA))
	adminPost(t, router, cookie, fmt.Sprintf("/bod/create_lesson/%d", sectionA), url.Values{"title": {"First"}})
	adminPost(t, router, cookie, fmt.Sprintf("/bod/create_lesson/%d", sectionA), url.Values{"title": {"Second"}})

	var quizCount int
	require.NoError(t, testDB.QueryRow(
		"SELECT jsonb_array_length(content->'quiz') FROM lessons WHERE title = 'First'",
	).Scan(&quizCount))
	assert.Equal(t, 3, quizCount, "first lesson of a section gets the sample content")

	adminPost(t, router, cookie, fmt.Sprintf("/bod/delete_level/%d", levelID), nil)
	for _, table := range []string{"levels", "sections", "lessons"} {
		var count int
		require.NoError(t, testDB.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
		assert.Equal(t, 0, count, table)
	}
}

func TestIntegration_UpdateLessonRoundTrip(t *testing.T) {
	skipWithoutDatabase(t)
	cleanupTestData(t, testDB)
	defer cleanupTestData(t, testDB)

	router := setupTestRouter(t, testDB, testLogger)
	cookie := login(t, router)

	adminPost(t, router, cookie, "/bod/create_level", url.Values{"title": {"Level"}})
	adminPost(t, router, cookie, "/bod/create_section/1", url.Values{"title": {"Section"}})
	adminPost(t, router, cookie, "/bod/create_lesson/1", url.Values{"title": {"Lesson"}})

	body := `{"title":"Updated","theory":"<p>Новая теория</p>","quiz":[{"question":"Q?","options":["a","b","c","d"],"correct_answer":2}],"tasks":["t1","t2"]}`
	req := httptest.NewRequest(http.MethodPost, "/bod/update_lesson/1", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var raw []byte
	require.NoError(t, testDB.QueryRow("SELECT content FROM lessons WHERE id = 1").Scan(&raw))
	var content models.LessonContent
	require.NoError(t, json.Unmarshal(raw, &content))
	assert.Equal(t, models.LessonContent{
		Theory: "<p>Новая теория</p>",
		Quiz:   []models.QuizItem{{Question: "Q?", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 2}},
		Tasks:  []string{"t1", "t2"},
	}, content)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/level-1/section-1-section/lesson-1-updated", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<p>Новая теория</p>")
	assert.Contains(t, w.Body.String(), "Q?")
}

func TestIntegration_Health(t *testing.T) {
	skipWithoutDatabase(t)

	router := setupTestRouter(t, testDB, testLogger)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":true}`, w.Body.String())
}
