package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// CategoryRepository implements port.CategoryRepository
type CategoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *sql.DB, logger *zap.Logger) port.CategoryRepository {
	return &CategoryRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*entity.ExpenseCategory, error) {
	query := `SELECT id, company_id, name, is_active, created_at FROM expense_categories WHERE id = ?`

	var category entity.ExpenseCategory
	err := pickExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.CompanyID,
		&category.Name,
		&category.IsActive,
		&category.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get category", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("get category: %w", err)
	}

	return &category, nil
}

// ListActive retrieves the company's active categories
func (r *CategoryRepository) ListActive(ctx context.Context, companyID int64) ([]*entity.ExpenseCategory, error) {
	query := `
		SELECT id, company_id, name, is_active, created_at
		FROM expense_categories
		WHERE company_id = ? AND is_active = 1
		ORDER BY name
	`

	rows, err := pickExecutor(ctx, r.db).QueryContext(ctx, query, companyID)
	if err != nil {
		r.logger.Error("Failed to list categories", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []*entity.ExpenseCategory
	for rows.Next() {
		var category entity.ExpenseCategory
		if err := rows.Scan(
			&category.ID,
			&category.CompanyID,
			&category.Name,
			&category.IsActive,
			&category.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, &category)
	}

	return categories, rows.Err()
}

// Verify interface compliance
var _ port.CategoryRepository = (*CategoryRepository)(nil)
