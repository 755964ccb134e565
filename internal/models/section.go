package models

import "time"

// Section represents a group of lessons inside a level
type Section struct {
	ID         int       `json:"id"`
	LevelID    int       `json:"level_id"`
	Title      string    `json:"title"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SectionNode is a section with its lessons attached
type SectionNode struct {
	Section
	Lessons []Lesson `json:"lessons"`
}
