package services

import (
	"context"
	"strings"

	"github.com/domcourse/backend/internal/models"
	"go.uber.org/zap"
)

// ContentStore defines the fail-soft content operations used by the services
type ContentStore interface {
	IsConnected(ctx context.Context) bool
	ListLevels(ctx context.Context) []models.Level
	ListSections(ctx context.Context, levelID int) []models.Section
	ListLessons(ctx context.Context, sectionID int) []models.Lesson
	GetLevel(ctx context.Context, id int) *models.Level
	GetLevelByOrder(ctx context.Context, order int) *models.Level
	GetSection(ctx context.Context, id int) *models.Section
	GetSectionByOrder(ctx context.Context, levelID, order int) *models.Section
	GetLesson(ctx context.Context, id int) *models.Lesson
	GetLessonByOrder(ctx context.Context, sectionID, order int) *models.Lesson
	CountLevels(ctx context.Context) int
	CountSections(ctx context.Context, levelID int) int
	CountLessons(ctx context.Context, sectionID int) int
	CreateLevel(ctx context.Context, title string, orderIndex int) *models.Level
	CreateSection(ctx context.Context, levelID int, title string, orderIndex int) *models.Section
	CreateLesson(ctx context.Context, sectionID int, title string, orderIndex int, content *models.LessonContent) *models.Lesson
	UpdateLevel(ctx context.Context, id int, title string) *models.Level
	UpdateSection(ctx context.Context, id int, title string) *models.Section
	UpdateLesson(ctx context.Context, id int, title string, content models.LessonContent) *models.Lesson
	DeleteLevel(ctx context.Context, id int) bool
	DeleteSection(ctx context.Context, id int) bool
	DeleteLesson(ctx context.Context, id int) bool
}

// catalogService implements the admin mutations of the content hierarchy
type catalogService struct {
	store    ContentStore
	ordering *orderingManager
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store ContentStore, ordering *orderingManager, logger *zap.Logger) *catalogService {
	return &catalogService{
		store:    store,
		ordering: ordering,
		logger:   logger,
	}
}

// CreateLevel appends a level at the end of the level list.
// An empty title skips the mutation and returns nil.
func (s *catalogService) CreateLevel(ctx context.Context, title string) *models.Level {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	return appendChild(s.ordering, levelsKey(),
		func() int { return s.store.CountLevels(ctx) },
		func(orderIndex int) *models.Level {
			return s.store.CreateLevel(ctx, title, orderIndex)
		},
	)
}

// CreateSection appends a section at the end of a level
func (s *catalogService) CreateSection(ctx context.Context, levelID int, title string) *models.Section {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	if s.store.GetLevel(ctx, levelID) == nil {
		s.logger.Warn("section parent level not found", zap.Int("levelID", levelID))
		return nil
	}
	return appendChild(s.ordering, sectionsKey(levelID),
		func() int { return s.store.CountSections(ctx, levelID) },
		func(orderIndex int) *models.Section {
			return s.store.CreateSection(ctx, levelID, title, orderIndex)
		},
	)
}

// CreateLesson appends a lesson at the end of a section.
// The first lesson of a section is seeded with the sample content.
func (s *catalogService) CreateLesson(ctx context.Context, sectionID int, title string) *models.Lesson {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	if s.store.GetSection(ctx, sectionID) == nil {
		s.logger.Warn("lesson parent section not found", zap.Int("sectionID", sectionID))
		return nil
	}
	return appendChild(s.ordering, lessonsKey(sectionID),
		func() int { return s.store.CountLessons(ctx, sectionID) },
		func(orderIndex int) *models.Lesson {
			var content *models.LessonContent
			if orderIndex == 1 {
				sample := SampleLessonContent()
				content = &sample
			}
			return s.store.CreateLesson(ctx, sectionID, title, orderIndex, content)
		},
	)
}

// RenameLevel changes the title of a level; an empty title is ignored
func (s *catalogService) RenameLevel(ctx context.Context, id int, title string) *models.Level {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	return s.store.UpdateLevel(ctx, id, title)
}

// RenameSection changes the title of a section; an empty title is ignored
func (s *catalogService) RenameSection(ctx context.Context, id int, title string) *models.Section {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	return s.store.UpdateSection(ctx, id, title)
}

// GetLesson returns a lesson for editing or nil
func (s *catalogService) GetLesson(ctx context.Context, id int) *models.Lesson {
	return s.store.GetLesson(ctx, id)
}

// UpdateLesson replaces the content of a lesson. An empty title keeps the stored one.
func (s *catalogService) UpdateLesson(ctx context.Context, id int, req *models.UpdateLessonRequest) *models.Lesson {
	lesson := s.store.UpdateLesson(ctx, id, strings.TrimSpace(req.Title), req.Content())
	if lesson != nil {
		s.logger.Info("lesson updated",
			zap.Int("lessonID", id),
			zap.Int("quizCount", len(lesson.Content.Quiz)),
			zap.Int("taskCount", len(lesson.Content.Tasks)),
		)
	}
	return lesson
}

// DeleteLevel deletes a level with its sections and lessons
func (s *catalogService) DeleteLevel(ctx context.Context, id int) bool {
	return s.store.DeleteLevel(ctx, id)
}

// DeleteSection deletes a section with its lessons
func (s *catalogService) DeleteSection(ctx context.Context, id int) bool {
	return s.store.DeleteSection(ctx, id)
}

// DeleteLesson deletes a lesson
func (s *catalogService) DeleteLesson(ctx context.Context, id int) bool {
	return s.store.DeleteLesson(ctx, id)
}
