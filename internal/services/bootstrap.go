package services

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// bootstrapper seeds one level, section and lesson when the store holds no levels
type bootstrapper struct {
	store  ContentStore
	logger *zap.Logger
	mu     sync.Mutex
}

// NewBootstrapper creates a new sample content bootstrapper
func NewBootstrapper(store ContentStore, logger *zap.Logger) *bootstrapper {
	return &bootstrapper{
		store:  store,
		logger: logger,
	}
}

// EnsureSampleData creates the sample hierarchy if the level list is empty.
// It reports whether anything was created. Failures are logged and stop the chain.
func (b *bootstrapper) EnsureSampleData(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.store.ListLevels(ctx)) > 0 {
		return false
	}

	b.logger.Info("creating sample data")
	level := b.store.CreateLevel(ctx, sampleLevelTitle, 1)
	if level == nil {
		b.logger.Error("failed to create sample level")
		return false
	}

	section := b.store.CreateSection(ctx, level.ID, sampleSectionTitle, 1)
	if section == nil {
		b.logger.Error("failed to create sample section", zap.Int("levelID", level.ID))
		return true
	}

	content := SampleLessonContent()
	if lesson := b.store.CreateLesson(ctx, section.ID, sampleLessonTitle, 1, &content); lesson == nil {
		b.logger.Error("failed to create sample lesson", zap.Int("sectionID", section.ID))
	}
	return true
}
