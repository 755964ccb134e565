package services

import (
	"context"
	"errors"

	"github.com/domcourse/backend/internal/models"
	"github.com/domcourse/backend/internal/repositories"
	"go.uber.org/zap"
)

// LevelRepository defines methods for level data access
type LevelRepository interface {
	// GetAll retrieves all levels sorted by order index
	//
	// "ctx" is the context for the request.
	//
	// Returns a list of levels and an error if any.
	GetAll(ctx context.Context) ([]models.Level, error)
	// GetByID retrieves a level by ID
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the level.
	//
	// Returns the level and an error if any.
	GetByID(ctx context.Context, id int) (*models.Level, error)
	// GetByOrder retrieves a level by its order index
	//
	// "ctx" is the context for the request.
	// "order" is the order index of the level.
	//
	// Returns the level and an error if any.
	GetByOrder(ctx context.Context, order int) (*models.Level, error)
	// Count returns the number of levels
	Count(ctx context.Context) (int, error)
	// Create creates a new level
	//
	// "ctx" is the context for the request.
	// "level" is the level to create.
	//
	// Returns an error if any.
	Create(ctx context.Context, level *models.Level) error
	// UpdateTitle updates the title of a level
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the level.
	// "title" is the new title.
	//
	// Returns the updated level and an error if any.
	UpdateTitle(ctx context.Context, id int, title string) (*models.Level, error)
	// Delete deletes a level
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the level.
	//
	// Returns an error if any.
	Delete(ctx context.Context, id int) error
	// Ping checks that the store is reachable
	Ping(ctx context.Context) error
}

// SectionRepository defines methods for section data access
type SectionRepository interface {
	// GetByLevelID retrieves sections of a level sorted by order index
	//
	// "ctx" is the context for the request.
	// "levelID" is the ID of the level.
	//
	// Returns a list of sections and an error if any.
	GetByLevelID(ctx context.Context, levelID int) ([]models.Section, error)
	// GetByID retrieves a section by ID
	GetByID(ctx context.Context, id int) (*models.Section, error)
	// GetByOrder retrieves a section of a level by its order index
	//
	// "ctx" is the context for the request.
	// "levelID" is the ID of the level.
	// "order" is the order index of the section.
	//
	// Returns the section and an error if any.
	GetByOrder(ctx context.Context, levelID, order int) (*models.Section, error)
	// CountByLevelID returns the number of sections in a level
	CountByLevelID(ctx context.Context, levelID int) (int, error)
	// Create creates a new section
	Create(ctx context.Context, section *models.Section) error
	// UpdateTitle updates the title of a section
	UpdateTitle(ctx context.Context, id int, title string) (*models.Section, error)
	// Delete deletes a section
	Delete(ctx context.Context, id int) error
}

// LessonRepository defines methods for lesson data access
type LessonRepository interface {
	// GetBySectionID retrieves lessons of a section sorted by order index
	//
	// "ctx" is the context for the request.
	// "sectionID" is the ID of the section.
	//
	// Returns a list of lessons and an error if any.
	GetBySectionID(ctx context.Context, sectionID int) ([]models.Lesson, error)
	// GetByID retrieves a lesson by ID
	GetByID(ctx context.Context, id int) (*models.Lesson, error)
	// GetByOrder retrieves a lesson of a section by its order index
	GetByOrder(ctx context.Context, sectionID, order int) (*models.Lesson, error)
	// CountBySectionID returns the number of lessons in a section
	CountBySectionID(ctx context.Context, sectionID int) (int, error)
	// Create creates a new lesson
	//
	// "ctx" is the context for the request.
	// "lesson" is the lesson to create.
	// "content" is the initial content (optional, if nil, the column default is used).
	//
	// Returns an error if any.
	Create(ctx context.Context, lesson *models.Lesson, content *models.LessonContent) error
	// Update replaces the title and content of a lesson
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the lesson.
	// "title" is the new title (an empty title keeps the stored one).
	// "content" is the new content.
	//
	// Returns the updated lesson and an error if any.
	Update(ctx context.Context, id int, title string, content models.LessonContent) (*models.Lesson, error)
	// Delete deletes a lesson
	Delete(ctx context.Context, id int) error
}

// contentStore wraps the repositories and never lets a backend error escape.
// Lists degrade to empty, lookups and writes to nil, deletes to false.
type contentStore struct {
	levels   LevelRepository
	sections SectionRepository
	lessons  LessonRepository
	logger   *zap.Logger
}

// NewContentStore creates a new fail-soft content store.
// Passing nil repositories yields a disconnected store that serves empty results.
func NewContentStore(
	levels LevelRepository,
	sections SectionRepository,
	lessons LessonRepository,
	logger *zap.Logger,
) *contentStore {
	return &contentStore{
		levels:   levels,
		sections: sections,
		lessons:  lessons,
		logger:   logger,
	}
}

func (s *contentStore) connected() bool {
	if s.levels == nil || s.sections == nil || s.lessons == nil {
		s.logger.Warn("content store is not connected to a database")
		return false
	}
	return true
}

// logFailure logs a repository error. Absent rows are expected and logged at debug level.
func (s *contentStore) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if errors.Is(err, repositories.ErrNotFound) {
		s.logger.Debug(msg, fields...)
		return
	}
	s.logger.Error(msg, fields...)
}

// IsConnected performs a trivial read to verify the database is reachable
func (s *contentStore) IsConnected(ctx context.Context) bool {
	if !s.connected() {
		return false
	}
	if err := s.levels.Ping(ctx); err != nil {
		s.logger.Error("database connection test failed", zap.Error(err))
		return false
	}
	return true
}

// ListLevels returns all levels sorted by order index
func (s *contentStore) ListLevels(ctx context.Context) []models.Level {
	if !s.connected() {
		return []models.Level{}
	}
	levels, err := s.levels.GetAll(ctx)
	if err != nil {
		s.logFailure("failed to get levels", err)
		return []models.Level{}
	}
	if levels == nil {
		return []models.Level{}
	}
	return levels
}

// ListSections returns the sections of a level sorted by order index
func (s *contentStore) ListSections(ctx context.Context, levelID int) []models.Section {
	if !s.connected() {
		return []models.Section{}
	}
	sections, err := s.sections.GetByLevelID(ctx, levelID)
	if err != nil {
		s.logFailure("failed to get sections", err, zap.Int("levelID", levelID))
		return []models.Section{}
	}
	if sections == nil {
		return []models.Section{}
	}
	return sections
}

// ListLessons returns the lessons of a section sorted by order index
func (s *contentStore) ListLessons(ctx context.Context, sectionID int) []models.Lesson {
	if !s.connected() {
		return []models.Lesson{}
	}
	lessons, err := s.lessons.GetBySectionID(ctx, sectionID)
	if err != nil {
		s.logFailure("failed to get lessons", err, zap.Int("sectionID", sectionID))
		return []models.Lesson{}
	}
	if lessons == nil {
		return []models.Lesson{}
	}
	return lessons
}

// GetLevel returns a level by ID or nil
func (s *contentStore) GetLevel(ctx context.Context, id int) *models.Level {
	if !s.connected() {
		return nil
	}
	level, err := s.levels.GetByID(ctx, id)
	if err != nil {
		s.logFailure("failed to get level", err, zap.Int("levelID", id))
		return nil
	}
	return level
}

// GetLevelByOrder returns the level with the given order index or nil
func (s *contentStore) GetLevelByOrder(ctx context.Context, order int) *models.Level {
	if !s.connected() {
		return nil
	}
	level, err := s.levels.GetByOrder(ctx, order)
	if err != nil {
		s.logFailure("failed to get level by order", err, zap.Int("order", order))
		return nil
	}
	return level
}

// GetSection returns a section by ID or nil
func (s *contentStore) GetSection(ctx context.Context, id int) *models.Section {
	if !s.connected() {
		return nil
	}
	section, err := s.sections.GetByID(ctx, id)
	if err != nil {
		s.logFailure("failed to get section", err, zap.Int("sectionID", id))
		return nil
	}
	return section
}

// GetSectionByOrder returns the section of a level with the given order index or nil
func (s *contentStore) GetSectionByOrder(ctx context.Context, levelID, order int) *models.Section {
	if !s.connected() {
		return nil
	}
	section, err := s.sections.GetByOrder(ctx, levelID, order)
	if err != nil {
		s.logFailure("failed to get section by order", err, zap.Int("levelID", levelID), zap.Int("order", order))
		return nil
	}
	return section
}

// GetLesson returns a lesson by ID or nil
func (s *contentStore) GetLesson(ctx context.Context, id int) *models.Lesson {
	if !s.connected() {
		return nil
	}
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		s.logFailure("failed to get lesson", err, zap.Int("lessonID", id))
		return nil
	}
	return lesson
}

// GetLessonByOrder returns the lesson of a section with the given order index or nil
func (s *contentStore) GetLessonByOrder(ctx context.Context, sectionID, order int) *models.Lesson {
	if !s.connected() {
		return nil
	}
	lesson, err := s.lessons.GetByOrder(ctx, sectionID, order)
	if err != nil {
		s.logFailure("failed to get lesson by order", err, zap.Int("sectionID", sectionID), zap.Int("order", order))
		return nil
	}
	return lesson
}

// CountLevels returns the number of levels, zero on failure
func (s *contentStore) CountLevels(ctx context.Context) int {
	if !s.connected() {
		return 0
	}
	count, err := s.levels.Count(ctx)
	if err != nil {
		s.logFailure("failed to count levels", err)
		return 0
	}
	return count
}

// CountSections returns the number of sections in a level, zero on failure
func (s *contentStore) CountSections(ctx context.Context, levelID int) int {
	if !s.connected() {
		return 0
	}
	count, err := s.sections.CountByLevelID(ctx, levelID)
	if err != nil {
		s.logFailure("failed to count sections", err, zap.Int("levelID", levelID))
		return 0
	}
	return count
}

// CountLessons returns the number of lessons in a section, zero on failure
func (s *contentStore) CountLessons(ctx context.Context, sectionID int) int {
	if !s.connected() {
		return 0
	}
	count, err := s.lessons.CountBySectionID(ctx, sectionID)
	if err != nil {
		s.logFailure("failed to count lessons", err, zap.Int("sectionID", sectionID))
		return 0
	}
	return count
}

// CreateLevel inserts a level and returns it, or nil on failure
func (s *contentStore) CreateLevel(ctx context.Context, title string, orderIndex int) *models.Level {
	if !s.connected() {
		return nil
	}
	level := &models.Level{Title: title, OrderIndex: orderIndex}
	if err := s.levels.Create(ctx, level); err != nil {
		s.logFailure("failed to create level", err, zap.String("title", title))
		return nil
	}
	return level
}

// CreateSection inserts a section and returns it, or nil on failure
func (s *contentStore) CreateSection(ctx context.Context, levelID int, title string, orderIndex int) *models.Section {
	if !s.connected() {
		return nil
	}
	section := &models.Section{LevelID: levelID, Title: title, OrderIndex: orderIndex}
	if err := s.sections.Create(ctx, section); err != nil {
		s.logFailure("failed to create section", err, zap.Int("levelID", levelID), zap.String("title", title))
		return nil
	}
	return section
}

// CreateLesson inserts a lesson and returns it, or nil on failure.
// A nil content leaves the stored default (empty theory, quiz and tasks).
func (s *contentStore) CreateLesson(ctx context.Context, sectionID int, title string, orderIndex int, content *models.LessonContent) *models.Lesson {
	if !s.connected() {
		return nil
	}
	lesson := &models.Lesson{SectionID: sectionID, Title: title, OrderIndex: orderIndex}
	if err := s.lessons.Create(ctx, lesson, content); err != nil {
		s.logFailure("failed to create lesson", err, zap.Int("sectionID", sectionID), zap.String("title", title))
		return nil
	}
	return lesson
}

// UpdateLevel renames a level and returns it, or nil on failure
func (s *contentStore) UpdateLevel(ctx context.Context, id int, title string) *models.Level {
	if !s.connected() {
		return nil
	}
	level, err := s.levels.UpdateTitle(ctx, id, title)
	if err != nil {
		s.logFailure("failed to update level", err, zap.Int("levelID", id))
		return nil
	}
	return level
}

// UpdateSection renames a section and returns it, or nil on failure
func (s *contentStore) UpdateSection(ctx context.Context, id int, title string) *models.Section {
	if !s.connected() {
		return nil
	}
	section, err := s.sections.UpdateTitle(ctx, id, title)
	if err != nil {
		s.logFailure("failed to update section", err, zap.Int("sectionID", id))
		return nil
	}
	return section
}

// UpdateLesson replaces the title and content of a lesson and returns it, or nil on failure
func (s *contentStore) UpdateLesson(ctx context.Context, id int, title string, content models.LessonContent) *models.Lesson {
	if !s.connected() {
		return nil
	}
	lesson, err := s.lessons.Update(ctx, id, title, content)
	if err != nil {
		s.logFailure("failed to update lesson", err, zap.Int("lessonID", id))
		return nil
	}
	return lesson
}

// DeleteLevel deletes a level. It reports success whenever the statement ran,
// even if no row matched.
func (s *contentStore) DeleteLevel(ctx context.Context, id int) bool {
	if !s.connected() {
		return false
	}
	err := s.levels.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		s.logger.Info("deleted level had no rows", zap.Int("levelID", id))
		return true
	}
	if err != nil {
		s.logFailure("failed to delete level", err, zap.Int("levelID", id))
		return false
	}
	s.logger.Info("level deleted", zap.Int("levelID", id))
	return true
}

// DeleteSection deletes a section. It reports success only if a row was removed.
func (s *contentStore) DeleteSection(ctx context.Context, id int) bool {
	if !s.connected() {
		return false
	}
	if err := s.sections.Delete(ctx, id); err != nil {
		s.logFailure("failed to delete section", err, zap.Int("sectionID", id))
		return false
	}
	s.logger.Info("section deleted", zap.Int("sectionID", id))
	return true
}

// DeleteLesson deletes a lesson. It reports success only if a row was removed.
func (s *contentStore) DeleteLesson(ctx context.Context, id int) bool {
	if !s.connected() {
		return false
	}
	if err := s.lessons.Delete(ctx, id); err != nil {
		s.logFailure("failed to delete lesson", err, zap.Int("lessonID", id))
		return false
	}
	s.logger.Info("lesson deleted", zap.Int("lessonID", id))
	return true
}
