package postgres

import (
	"context"
	"errors"
	"fmt"

	"voucherbox/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CategoryRepo implements ports.CategoryRepository.
type CategoryRepo struct {
	pool Pool
}

// NewCategoryRepo creates a new CategoryRepo.
func NewCategoryRepo(pool Pool) *CategoryRepo {
	return &CategoryRepo{pool: pool}
}

// Create inserts a new category into the database.
func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	query := `INSERT INTO categories (id, user_id, name, created_at) VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query, c.ID, c.UserID, c.Name, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetByID fetches a category by UUID.
func (r *CategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := `SELECT id, user_id, name, created_at FROM categories WHERE id = $1`

	c := &domain.Category{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category by id: %w", err)
	}
	return c, nil
}

// ListByUser fetches a user's categories ordered by name.
func (r *CategoryRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Category, error) {
	query := `SELECT id, user_id, name, created_at FROM categories WHERE user_id = $1 ORDER BY name`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		c := domain.Category{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return categories, nil
}

// Delete detaches the category from its vouchers and removes it.
func (r *CategoryRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	_, err := r.pool.Exec(ctx, `UPDATE vouchers SET category_id = NULL WHERE category_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("detach category from vouchers: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete category: %w", err)
	}
	return tag.RowsAffected(), nil
}
