package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/domcourse/backend/internal/models"
)

const lessonColumns = `id, section_id, title, order_index, content, created_at, updated_at`

type lessonRepository struct {
	db *sql.DB
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db *sql.DB) *lessonRepository {
	return &lessonRepository{
		db: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLesson(row rowScanner) (models.Lesson, error) {
	var lesson models.Lesson
	err := row.Scan(
		&lesson.ID,
		&lesson.SectionID,
		&lesson.Title,
		&lesson.OrderIndex,
		&lesson.Content,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	return lesson, err
}

// GetBySectionID retrieves all lessons of a section, sorted by order index
func (r *lessonRepository) GetBySectionID(ctx context.Context, sectionID int) ([]models.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE section_id = $1
		ORDER BY order_index, id
	`

	rows, err := r.db.QueryContext(ctx, query, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return lessons, nil
}

// GetByID retrieves a lesson by its ID
func (r *lessonRepository) GetByID(ctx context.Context, id int) (*models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1 LIMIT 1`

	lesson, err := scanLesson(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lesson %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson by id: %w", err)
	}

	return &lesson, nil
}

// GetByOrder retrieves the first lesson of a section with the given order index
func (r *lessonRepository) GetByOrder(ctx context.Context, sectionID, order int) (*models.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE section_id = $1 AND order_index = $2
		ORDER BY id
		LIMIT 1
	`

	lesson, err := scanLesson(r.db.QueryRowContext(ctx, query, sectionID, order))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lesson %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson by order: %w", err)
	}

	return &lesson, nil
}

// CountBySectionID returns the number of lessons in a section
func (r *lessonRepository) CountBySectionID(ctx context.Context, sectionID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lessons WHERE section_id = $1`, sectionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

// Create inserts a lesson. A nil content leaves the column default in place.
func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson, content *models.LessonContent) error {
	columns := []string{"section_id", "title", "order_index"}
	placeholders := []string{"$1", "$2", "$3"}
	args := []any{lesson.SectionID, lesson.Title, lesson.OrderIndex}
	if content != nil {
		columns = append(columns, "content")
		placeholders = append(placeholders, "$4::jsonb")
		args = append(args, *content)
	}

	query := fmt.Sprintf(`
		INSERT INTO lessons (%s)
		VALUES (%s)
		RETURNING content, id, created_at, updated_at
	`, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&lesson.Content,
		&lesson.ID,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}

	return nil
}

// Update replaces the title and content of a lesson and stamps updated_at.
// An empty title keeps the stored one.
func (r *lessonRepository) Update(ctx context.Context, id int, title string, content models.LessonContent) (*models.Lesson, error) {
	query := `
		UPDATE lessons
		SET title = COALESCE(NULLIF($1, ''), title), content = $2::jsonb, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + lessonColumns

	lesson, err := scanLesson(r.db.QueryRowContext(ctx, query, title, content, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lesson %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}

	return &lesson, nil
}

// Delete removes a lesson by ID
func (r *lessonRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("lesson %w", ErrNotFound)
	}

	return nil
}
