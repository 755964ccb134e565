package services

import (
	"context"
	"errors"

	"github.com/domcourse/backend/internal/models"
)

var (
	// ErrLevelNotFound is returned when no level has the requested order index
	ErrLevelNotFound = errors.New("level not found")
	// ErrSectionNotFound is returned when no section of the level has the requested order index
	ErrSectionNotFound = errors.New("section not found")
	// ErrLessonNotFound is returned when no lesson of the section has the requested order index
	ErrLessonNotFound = errors.New("lesson not found")
)

// LessonPage is everything the lesson view needs
type LessonPage struct {
	Level   models.Level
	Section models.Section
	Lesson  models.Lesson
	Lessons []models.Lesson
	Prev    *models.Lesson
	Next    *models.Lesson
}

// hierarchyService assembles the Level -> Section -> Lesson tree on every call
type hierarchyService struct {
	store ContentStore
}

// NewHierarchyService creates a new hierarchy service
func NewHierarchyService(store ContentStore) *hierarchyService {
	return &hierarchyService{
		store: store,
	}
}

// Tree returns every level with its sections and lessons
func (s *hierarchyService) Tree(ctx context.Context) []models.LevelNode {
	return s.Assemble(ctx, s.store.ListLevels(ctx))
}

// Assemble attaches the sections and lessons to the given levels, keeping their order
func (s *hierarchyService) Assemble(ctx context.Context, levels []models.Level) []models.LevelNode {
	nodes := make([]models.LevelNode, 0, len(levels))
	for _, level := range levels {
		nodes = append(nodes, s.AssembleLevel(ctx, level))
	}
	return nodes
}

// AssembleLevel attaches the sections and lessons to one level
func (s *hierarchyService) AssembleLevel(ctx context.Context, level models.Level) models.LevelNode {
	sections := s.store.ListSections(ctx, level.ID)
	node := models.LevelNode{
		Level:    level,
		Sections: make([]models.SectionNode, 0, len(sections)),
	}
	for _, section := range sections {
		node.Sections = append(node.Sections, models.SectionNode{
			Section: section,
			Lessons: s.store.ListLessons(ctx, section.ID),
		})
	}
	return node
}

// LevelByOrder returns the assembled level with the given order index
func (s *hierarchyService) LevelByOrder(ctx context.Context, order int) (*models.LevelNode, error) {
	level := s.store.GetLevelByOrder(ctx, order)
	if level == nil {
		return nil, ErrLevelNotFound
	}
	node := s.AssembleLevel(ctx, *level)
	return &node, nil
}

// ResolveLessonPath looks up a lesson by the order indexes of its level, section and itself.
// The returned error names the first missing segment.
func (s *hierarchyService) ResolveLessonPath(ctx context.Context, levelOrder, sectionOrder, lessonOrder int) (*LessonPage, error) {
	level := s.store.GetLevelByOrder(ctx, levelOrder)
	if level == nil {
		return nil, ErrLevelNotFound
	}

	section := s.store.GetSectionByOrder(ctx, level.ID, sectionOrder)
	if section == nil {
		return nil, ErrSectionNotFound
	}

	lesson := s.store.GetLessonByOrder(ctx, section.ID, lessonOrder)
	if lesson == nil {
		return nil, ErrLessonNotFound
	}

	lessons := s.store.ListLessons(ctx, section.ID)
	prev, next := LessonNeighbours(lessons, lesson.ID)
	return &LessonPage{
		Level:   *level,
		Section: *section,
		Lesson:  *lesson,
		Lessons: lessons,
		Prev:    prev,
		Next:    next,
	}, nil
}

// LessonNeighbours locates the lesson with currentID in the ordered list and returns
// the lessons before and after it. Either is nil at a boundary or if the lesson is absent.
func LessonNeighbours(lessons []models.Lesson, currentID int) (prev, next *models.Lesson) {
	for i := range lessons {
		if lessons[i].ID != currentID {
			continue
		}
		if i > 0 {
			prev = &lessons[i-1]
		}
		if i < len(lessons)-1 {
			next = &lessons[i+1]
		}
		return prev, next
	}
	return nil, nil
}
