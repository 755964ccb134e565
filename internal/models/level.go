package models

import "time"

// Level represents a top-level grouping of course content
type Level struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LevelNode is a level with its sections and their lessons attached
type LevelNode struct {
	Level
	Sections []SectionNode `json:"sections"`
}
