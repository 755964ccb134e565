package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/domcourse/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCatalog(t *testing.T) (*catalogService, *memoryStore) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	store := newMemoryStore()
	return NewCatalogService(store, NewOrderingManager(), logger), store
}

func orderIndexes[T any](items []T, order func(T) int) []int {
	indexes := make([]int, 0, len(items))
	for _, item := range items {
		indexes = append(indexes, order(item))
	}
	return indexes
}

func TestNextOrderIndex(t *testing.T) {
	assert.Equal(t, 1, NextOrderIndex(0))
	assert.Equal(t, 4, NextOrderIndex(3))
}

func TestCatalogService_CreateAppendsInOrder(t *testing.T) {
	svc, store := newTestCatalog(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		level := svc.CreateLevel(ctx, fmt.Sprintf("Level %d", i))
		require.NotNil(t, level)
		assert.Equal(t, i, level.OrderIndex)
	}

	levels := store.ListLevels(ctx)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, orderIndexes(levels, func(l models.Level) int { return l.OrderIndex }))

	levelID := levels[0].ID
	for i := 0; i < 3; i++ {
		require.NotNil(t, svc.CreateSection(ctx, levelID, fmt.Sprintf("Section %d", i)))
	}
	sections := store.ListSections(ctx, levelID)
	assert.Equal(t, []int{1, 2, 3}, orderIndexes(sections, func(s models.Section) int { return s.OrderIndex }))
	assert.Empty(t, store.ListSections(ctx, levels[1].ID))
}

func TestCatalogService_ConcurrentCreates(t *testing.T) {
	svc, store := newTestCatalog(t)
	ctx := context.Background()
	level := svc.CreateLevel(ctx, "Level")
	require.NotNil(t, level)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc.CreateSection(ctx, level.ID, fmt.Sprintf("Section %d", i))
		}(i)
	}
	wg.Wait()

	sections := store.ListSections(ctx, level.ID)
	require.Len(t, sections, n)
	for i, s := range sections {
		assert.Equal(t, i+1, s.OrderIndex)
	}
}

func TestCatalogService_DeleteLeavesGap(t *testing.T) {
	svc, store := newTestCatalog(t)
	ctx := context.Background()
	level := svc.CreateLevel(ctx, "Level")
	require.NotNil(t, level)

	var ids []int
	for i := 0; i < 3; i++ {
		section := svc.CreateSection(ctx, level.ID, fmt.Sprintf("Section %d", i+1))
		require.NotNil(t, section)
		ids = append(ids, section.ID)
	}

	assert.True(t, svc.DeleteSection(ctx, ids[1]))

	sections := store.ListSections(ctx, level.ID)
	assert.Equal(t, []int{1, 3}, orderIndexes(sections, func(s models.Section) int { return s.OrderIndex }))

	// count + 1 after a gap lands on an index that is already taken
	section := svc.CreateSection(ctx, level.ID, "Section 4")
	require.NotNil(t, section)
	assert.Equal(t, 3, section.OrderIndex)
}

func TestCatalogService_EmptyTitleSkipsMutation(t *testing.T) {
	svc, store := newTestCatalog(t)
	ctx := context.Background()
	level := svc.CreateLevel(ctx, "Level")
	require.NotNil(t, level)

	tests := []struct {
		name   string
		mutate func() bool
	}{
		{name: "create level", mutate: func() bool { return svc.CreateLevel(ctx, "") != nil }},
		{name: "create section", mutate: func() bool { return svc.CreateSection(ctx, level.ID, "   ") != nil }},
		{name: "create lesson", mutate: func() bool { return svc.CreateLesson(ctx, 99, "") != nil }},
		{name: "rename level", mutate: func() bool { return svc.RenameLevel(ctx, level.ID, "") != nil }},
		{name: "rename section", mutate: func() bool { return svc.RenameSection(ctx, 1, "\t") != nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.mutate())
		})
	}

	assert.Len(t, store.ListLevels(ctx), 1)
	assert.Equal(t, "Level", store.GetLevel(ctx, level.ID).Title)
}

func TestCatalogService_CreateUnderMissingParent(t *testing.T) {
	svc, store := newTestCatalog(t)
	ctx := context.Background()

	assert.Nil(t, svc.CreateSection(ctx, 42, "Orphan section"))
	assert.Nil(t, svc.CreateLesson(ctx, 42, "Orphan lesson"))
	assert.Empty(t, store.ListSections(ctx, 42))
	assert.Empty(t, store.ListLessons(ctx, 42))
}

func TestCatalogService_FirstLessonGetsSampleContent(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()
	level := svc.CreateLevel(ctx, "Level")
	section := svc.CreateSection(ctx, level.ID, "Section")
	require.NotNil(t, section)

	first := svc.CreateLesson(ctx, section.ID, "First")
	second := svc.CreateLesson(ctx, section.ID, "Second")

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, SampleLessonContent(), first.Content)
	assert.Equal(t, models.LessonContent{}, second.Content)
	assert.Equal(t, 2, second.OrderIndex)
}

func TestCatalogService_UpdateLessonRoundTrip(t *testing.T) {
	svc, store := newTestCatalog(t)
	ctx := context.Background()
	lesson := store.CreateLesson(ctx, 1, "Lesson", 1, nil)

	req := &models.UpdateLessonRequest{
		Title:  "Events",
		Theory: "<p>addEventListener</p>",
		Quiz: []models.QuizItem{
			{Question: "Q1", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 3},
			{Question: "Q2", Options: []string{"e", "f", "g", "h"}, CorrectAnswer: 0},
		},
		Tasks: []string{"t1", "t2"},
	}

	updated := svc.UpdateLesson(ctx, lesson.ID, req)
	require.NotNil(t, updated)

	got := svc.GetLesson(ctx, lesson.ID)
	require.NotNil(t, got)
	assert.Equal(t, "Events", got.Title)
	assert.Equal(t, req.Content(), got.Content)

	kept := svc.UpdateLesson(ctx, lesson.ID, &models.UpdateLessonRequest{})
	require.NotNil(t, kept)
	assert.Equal(t, "Events", kept.Title)
	assert.Empty(t, kept.Content.Quiz)
	assert.NotNil(t, kept.Content.Quiz)

	assert.Nil(t, svc.UpdateLesson(ctx, 999, req))
}

func TestCatalogService_DeleteLevelCascades(t *testing.T) {
	svc, store := newTestCatalog(t)
	ctx := context.Background()
	level := svc.CreateLevel(ctx, "Level")
	section := svc.CreateSection(ctx, level.ID, "Section")
	lesson := svc.CreateLesson(ctx, section.ID, "Lesson")
	require.NotNil(t, lesson)

	assert.True(t, svc.DeleteLevel(ctx, level.ID))
	assert.Nil(t, store.GetSection(ctx, section.ID))
	assert.Nil(t, store.GetLesson(ctx, lesson.ID))
	assert.False(t, svc.DeleteLesson(ctx, lesson.ID))
}

func TestKeyedMutex_ReleasesKeys(t *testing.T) {
	var k keyedMutex
	unlock := k.lock("a")
	assert.Len(t, k.locks, 1)
	unlock()
	assert.Empty(t, k.locks)
}
