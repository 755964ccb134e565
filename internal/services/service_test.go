package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/domcourse/backend/internal/models"
)

// memoryStore is an in-memory ContentStore that orders lists like the SQL queries do
type memoryStore struct {
	mu       sync.Mutex
	nextID   int
	levels   map[int]models.Level
	sections map[int]models.Section
	lessons  map[int]models.Lesson
	failing  bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		levels:   make(map[int]models.Level),
		sections: make(map[int]models.Section),
		lessons:  make(map[int]models.Lesson),
	}
}

func (m *memoryStore) id() int {
	m.nextID++
	return m.nextID
}

func (m *memoryStore) IsConnected(ctx context.Context) bool {
	return !m.failing
}

func (m *memoryStore) ListLevels(ctx context.Context) []models.Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	levels := []models.Level{}
	if m.failing {
		return levels
	}
	for _, l := range m.levels {
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].OrderIndex != levels[j].OrderIndex {
			return levels[i].OrderIndex < levels[j].OrderIndex
		}
		return levels[i].ID < levels[j].ID
	})
	return levels
}

func (m *memoryStore) ListSections(ctx context.Context, levelID int) []models.Section {
	m.mu.Lock()
	defer m.mu.Unlock()
	sections := []models.Section{}
	if m.failing {
		return sections
	}
	for _, s := range m.sections {
		if s.LevelID == levelID {
			sections = append(sections, s)
		}
	}
	sort.Slice(sections, func(i, j int) bool {
		if sections[i].OrderIndex != sections[j].OrderIndex {
			return sections[i].OrderIndex < sections[j].OrderIndex
		}
		return sections[i].ID < sections[j].ID
	})
	return sections
}

func (m *memoryStore) ListLessons(ctx context.Context, sectionID int) []models.Lesson {
	m.mu.Lock()
	defer m.mu.Unlock()
	lessons := []models.Lesson{}
	if m.failing {
		return lessons
	}
	for _, l := range m.lessons {
		if l.SectionID == sectionID {
			lessons = append(lessons, l)
		}
	}
	sort.Slice(lessons, func(i, j int) bool {
		if lessons[i].OrderIndex != lessons[j].OrderIndex {
			return lessons[i].OrderIndex < lessons[j].OrderIndex
		}
		return lessons[i].ID < lessons[j].ID
	})
	return lessons
}

func (m *memoryStore) GetLevel(ctx context.Context, id int) *models.Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.levels[id]; ok && !m.failing {
		return &l
	}
	return nil
}

func (m *memoryStore) GetLevelByOrder(ctx context.Context, order int) *models.Level {
	for _, l := range m.ListLevels(ctx) {
		if l.OrderIndex == order {
			return &l
		}
	}
	return nil
}

func (m *memoryStore) GetSection(ctx context.Context, id int) *models.Section {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sections[id]; ok && !m.failing {
		return &s
	}
	return nil
}

func (m *memoryStore) GetSectionByOrder(ctx context.Context, levelID, order int) *models.Section {
	for _, s := range m.ListSections(ctx, levelID) {
		if s.OrderIndex == order {
			return &s
		}
	}
	return nil
}

func (m *memoryStore) GetLesson(ctx context.Context, id int) *models.Lesson {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.lessons[id]; ok && !m.failing {
		return &l
	}
	return nil
}

func (m *memoryStore) GetLessonByOrder(ctx context.Context, sectionID, order int) *models.Lesson {
	for _, l := range m.ListLessons(ctx, sectionID) {
		if l.OrderIndex == order {
			return &l
		}
	}
	return nil
}

func (m *memoryStore) CountLevels(ctx context.Context) int {
	return len(m.ListLevels(ctx))
}

func (m *memoryStore) CountSections(ctx context.Context, levelID int) int {
	return len(m.ListSections(ctx, levelID))
}

func (m *memoryStore) CountLessons(ctx context.Context, sectionID int) int {
	return len(m.ListLessons(ctx, sectionID))
}

func (m *memoryStore) CreateLevel(ctx context.Context, title string, orderIndex int) *models.Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil
	}
	now := time.Now()
	l := models.Level{ID: m.id(), Title: title, OrderIndex: orderIndex, CreatedAt: now, UpdatedAt: now}
	m.levels[l.ID] = l
	return &l
}

func (m *memoryStore) CreateSection(ctx context.Context, levelID int, title string, orderIndex int) *models.Section {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil
	}
	now := time.Now()
	s := models.Section{ID: m.id(), LevelID: levelID, Title: title, OrderIndex: orderIndex, CreatedAt: now, UpdatedAt: now}
	m.sections[s.ID] = s
	return &s
}

func (m *memoryStore) CreateLesson(ctx context.Context, sectionID int, title string, orderIndex int, content *models.LessonContent) *models.Lesson {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil
	}
	now := time.Now()
	l := models.Lesson{ID: m.id(), SectionID: sectionID, Title: title, OrderIndex: orderIndex, CreatedAt: now, UpdatedAt: now}
	if content != nil {
		l.Content = *content
	}
	m.lessons[l.ID] = l
	return &l
}

func (m *memoryStore) UpdateLevel(ctx context.Context, id int, title string) *models.Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.levels[id]
	if !ok || m.failing {
		return nil
	}
	l.Title = title
	l.UpdatedAt = time.Now()
	m.levels[id] = l
	return &l
}

func (m *memoryStore) UpdateSection(ctx context.Context, id int, title string) *models.Section {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sections[id]
	if !ok || m.failing {
		return nil
	}
	s.Title = title
	s.UpdatedAt = time.Now()
	m.sections[id] = s
	return &s
}

func (m *memoryStore) UpdateLesson(ctx context.Context, id int, title string, content models.LessonContent) *models.Lesson {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lessons[id]
	if !ok || m.failing {
		return nil
	}
	if title != "" {
		l.Title = title
	}
	l.Content = content
	l.UpdatedAt = time.Now()
	m.lessons[id] = l
	return &l
}

func (m *memoryStore) DeleteLevel(ctx context.Context, id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return false
	}
	delete(m.levels, id)
	for sid, s := range m.sections {
		if s.LevelID == id {
			m.deleteSectionLocked(sid)
		}
	}
	return true
}

func (m *memoryStore) deleteSectionLocked(id int) {
	delete(m.sections, id)
	for lid, l := range m.lessons {
		if l.SectionID == id {
			delete(m.lessons, lid)
		}
	}
}

func (m *memoryStore) DeleteSection(ctx context.Context, id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sections[id]; !ok || m.failing {
		return false
	}
	m.deleteSectionLocked(id)
	return true
}

func (m *memoryStore) DeleteLesson(ctx context.Context, id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lessons[id]; !ok || m.failing {
		return false
	}
	delete(m.lessons, id)
	return true
}
