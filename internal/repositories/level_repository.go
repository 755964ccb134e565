package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/domcourse/backend/internal/models"
)

const levelColumns = `id, title, order_index, created_at, updated_at`

type levelRepository struct {
	db *sql.DB
}

// NewLevelRepository creates a new level repository
func NewLevelRepository(db *sql.DB) *levelRepository {
	return &levelRepository{
		db: db,
	}
}

// GetAll retrieves all levels sorted by order index
func (r *levelRepository) GetAll(ctx context.Context) ([]models.Level, error) {
	query := `
		SELECT ` + levelColumns + `
		FROM levels
		ORDER BY order_index, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query levels: %w", err)
	}
	defer rows.Close()

	var levels []models.Level
	for rows.Next() {
		var level models.Level
		if err := rows.Scan(&level.ID, &level.Title, &level.OrderIndex, &level.CreatedAt, &level.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan level: %w", err)
		}
		levels = append(levels, level)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return levels, nil
}

// GetByID retrieves a level by its ID
func (r *levelRepository) GetByID(ctx context.Context, id int) (*models.Level, error) {
	query := `SELECT ` + levelColumns + ` FROM levels WHERE id = $1 LIMIT 1`
	return r.getOne(ctx, query, id)
}

// GetByOrder retrieves the first level with the given order index
func (r *levelRepository) GetByOrder(ctx context.Context, order int) (*models.Level, error) {
	query := `SELECT ` + levelColumns + ` FROM levels WHERE order_index = $1 ORDER BY id LIMIT 1`
	return r.getOne(ctx, query, order)
}

func (r *levelRepository) getOne(ctx context.Context, query string, arg any) (*models.Level, error) {
	var level models.Level
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&level.ID,
		&level.Title,
		&level.OrderIndex,
		&level.CreatedAt,
		&level.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("level %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get level: %w", err)
	}

	return &level, nil
}

// Count returns the number of levels
func (r *levelRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM levels`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count levels: %w", err)
	}
	return count, nil
}

// Create inserts a level and fills in the store-assigned fields
func (r *levelRepository) Create(ctx context.Context, level *models.Level) error {
	query := `
		INSERT INTO levels (title, order_index)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, level.Title, level.OrderIndex).Scan(
		&level.ID,
		&level.CreatedAt,
		&level.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create level: %w", err)
	}

	return nil
}

// UpdateTitle changes the title of a level and stamps updated_at
func (r *levelRepository) UpdateTitle(ctx context.Context, id int, title string) (*models.Level, error) {
	query := `
		UPDATE levels
		SET title = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + levelColumns

	var level models.Level
	err := r.db.QueryRowContext(ctx, query, title, id).Scan(
		&level.ID,
		&level.Title,
		&level.OrderIndex,
		&level.CreatedAt,
		&level.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("level %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update level: %w", err)
	}

	return &level, nil
}

// Delete removes a level. Sections and lessons are removed by the ON DELETE CASCADE constraints.
func (r *levelRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM levels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete level: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("level %w", ErrNotFound)
	}

	return nil
}

// Ping performs a trivial read to check that the levels table is reachable
func (r *levelRepository) Ping(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `SELECT 1 FROM levels LIMIT 1`)
	if err != nil {
		return fmt.Errorf("failed to reach levels table: %w", err)
	}
	defer rows.Close()
	return rows.Err()
}
