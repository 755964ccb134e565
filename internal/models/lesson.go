package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// QuizOptionsCount is the number of answer options every quiz question carries
const QuizOptionsCount = 4

// Lesson represents a leaf content unit inside a section
type Lesson struct {
	ID         int           `json:"id"`
	SectionID  int           `json:"section_id"`
	Title      string        `json:"title"`
	OrderIndex int           `json:"order_index"`
	Content    LessonContent `json:"content"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// QuizItem is a single multiple-choice question of a lesson quiz
type QuizItem struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"len=4"`
	CorrectAnswer int      `json:"correct_answer" validate:"min=0,max=3"`
}

// LessonContent is the structured body of a lesson, stored as JSONB
type LessonContent struct {
	Theory string     `json:"theory"`
	Quiz   []QuizItem `json:"quiz" validate:"dive"`
	Tasks  []string   `json:"tasks"`
}

// Value implements driver.Valuer so the content can be written into a JSONB column.
// Theory HTML is kept unescaped.
func (c LessonContent) Value() (driver.Value, error) {
	if c.Quiz == nil {
		c.Quiz = []QuizItem{}
	}
	if c.Tasks == nil {
		c.Tasks = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Scan implements sql.Scanner for JSONB content. NULL scans into empty content.
func (c *LessonContent) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*c = LessonContent{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported lesson content type")
	}
	if len(raw) == 0 {
		*c = LessonContent{}
		return nil
	}
	return json.Unmarshal(raw, c)
}

// UpdateLessonRequest is the explicit ordered representation of a lesson edit
type UpdateLessonRequest struct {
	Title  string     `json:"title"`
	Theory string     `json:"theory"`
	Quiz   []QuizItem `json:"quiz" validate:"dive"`
	Tasks  []string   `json:"tasks" validate:"dive,required"`
}

// Content builds lesson content from the request
func (r *UpdateLessonRequest) Content() LessonContent {
	quiz := r.Quiz
	if quiz == nil {
		quiz = []QuizItem{}
	}
	tasks := r.Tasks
	if tasks == nil {
		tasks = []string{}
	}
	return LessonContent{
		Theory: r.Theory,
		Quiz:   quiz,
		Tasks:  tasks,
	}
}
