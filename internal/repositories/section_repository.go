package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/domcourse/backend/internal/models"
)

const sectionColumns = `id, level_id, title, order_index, created_at, updated_at`

type sectionRepository struct {
	db *sql.DB
}

// NewSectionRepository creates a new section repository
func NewSectionRepository(db *sql.DB) *sectionRepository {
	return &sectionRepository{
		db: db,
	}
}

// GetByLevelID retrieves all sections of a level, sorted by order index
func (r *sectionRepository) GetByLevelID(ctx context.Context, levelID int) ([]models.Section, error) {
	query := `
		SELECT ` + sectionColumns + `
		FROM sections
		WHERE level_id = $1
		ORDER BY order_index, id
	`

	rows, err := r.db.QueryContext(ctx, query, levelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sections: %w", err)
	}
	defer rows.Close()

	var sections []models.Section
	for rows.Next() {
		var section models.Section
		err := rows.Scan(
			&section.ID,
			&section.LevelID,
			&section.Title,
			&section.OrderIndex,
			&section.CreatedAt,
			&section.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		sections = append(sections, section)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return sections, nil
}

// GetByID retrieves a section by its ID
func (r *sectionRepository) GetByID(ctx context.Context, id int) (*models.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections WHERE id = $1 LIMIT 1`
	return r.getOne(ctx, query, id)
}

// GetByOrder retrieves the first section of a level with the given order index
func (r *sectionRepository) GetByOrder(ctx context.Context, levelID, order int) (*models.Section, error) {
	query := `
		SELECT ` + sectionColumns + `
		FROM sections
		WHERE level_id = $1 AND order_index = $2
		ORDER BY id
		LIMIT 1
	`
	return r.getOne(ctx, query, levelID, order)
}

func (r *sectionRepository) getOne(ctx context.Context, query string, args ...any) (*models.Section, error) {
	var section models.Section
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&section.ID,
		&section.LevelID,
		&section.Title,
		&section.OrderIndex,
		&section.CreatedAt,
		&section.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("section %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get section: %w", err)
	}

	return &section, nil
}

// CountByLevelID returns the number of sections in a level
func (r *sectionRepository) CountByLevelID(ctx context.Context, levelID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sections WHERE level_id = $1`, levelID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sections: %w", err)
	}
	return count, nil
}

// Create inserts a section and fills in the store-assigned fields
func (r *sectionRepository) Create(ctx context.Context, section *models.Section) error {
	query := `
		INSERT INTO sections (level_id, title, order_index)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, section.LevelID, section.Title, section.OrderIndex).Scan(
		&section.ID,
		&section.CreatedAt,
		&section.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create section: %w", err)
	}

	return nil
}

// UpdateTitle changes the title of a section and stamps updated_at
func (r *sectionRepository) UpdateTitle(ctx context.Context, id int, title string) (*models.Section, error) {
	query := `
		UPDATE sections
		SET title = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + sectionColumns

	var section models.Section
	err := r.db.QueryRowContext(ctx, query, title, id).Scan(
		&section.ID,
		&section.LevelID,
		&section.Title,
		&section.OrderIndex,
		&section.CreatedAt,
		&section.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("section %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update section: %w", err)
	}

	return &section, nil
}

// Delete removes a section. Its lessons are removed by the ON DELETE CASCADE constraint.
func (r *sectionRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete section: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("section %w", ErrNotFound)
	}

	return nil
}
