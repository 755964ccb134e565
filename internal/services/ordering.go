package services

import (
	"fmt"
	"sync"
)

// NextOrderIndex returns the order index for a new sibling appended after the existing ones.
// Indexes are never reused or compacted, so gaps left by deletions persist.
func NextOrderIndex(siblings int) int {
	return siblings + 1
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per key and drops it once nobody holds or waits on it
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// orderingManager serializes "count siblings, then insert" per parent within this process
type orderingManager struct {
	locks keyedMutex
}

// NewOrderingManager creates a new ordering manager
func NewOrderingManager() *orderingManager {
	return &orderingManager{}
}

func levelsKey() string { return "levels" }
func sectionsKey(levelID int) string { return fmt.Sprintf("level:%d", levelID) }
func lessonsKey(sectionID int) string { return fmt.Sprintf("section:%d", sectionID) }

// appendChild counts the siblings under key and creates the new child with the next order index
func appendChild[T any](m *orderingManager, key string, count func() int, create func(orderIndex int) *T) *T {
	unlock := m.locks.lock(key)
	defer unlock()
	return create(NextOrderIndex(count()))
}
