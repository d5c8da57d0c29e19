package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// LineItemRepository implements port.LineItemRepository
type LineItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLineItemRepository creates a new line item repository
func NewLineItemRepository(db *sql.DB, logger *zap.Logger) port.LineItemRepository {
	return &LineItemRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts one line item row
func (r *LineItemRepository) Create(ctx context.Context, item *entity.ExpenseLineItem) error {
	query := `
		INSERT INTO expense_line_items (expense_id, description, quantity, unit_price, amount)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := pickExecutor(ctx, r.db).ExecContext(ctx, query,
		item.ExpenseID,
		item.Description,
		item.Quantity,
		item.UnitPrice,
		item.Amount,
	)
	if err != nil {
		r.logger.Error("Failed to create line item", zap.Int64("expense_id", item.ExpenseID), zap.Error(err))
		return fmt.Errorf("create line item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	item.ID = id
	return nil
}

// GetByExpenseID retrieves the expense's line items
func (r *LineItemRepository) GetByExpenseID(ctx context.Context, expenseID int64) ([]*entity.ExpenseLineItem, error) {
	query := `
		SELECT id, expense_id, description, quantity, unit_price, amount
		FROM expense_line_items
		WHERE expense_id = ?
		ORDER BY id
	`

	rows, err := pickExecutor(ctx, r.db).QueryContext(ctx, query, expenseID)
	if err != nil {
		r.logger.Error("Failed to list line items", zap.Int64("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()

	var items []*entity.ExpenseLineItem
	for rows.Next() {
		var item entity.ExpenseLineItem
		if err := rows.Scan(
			&item.ID,
			&item.ExpenseID,
			&item.Description,
			&item.Quantity,
			&item.UnitPrice,
			&item.Amount,
		); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

// Verify interface compliance
var _ port.LineItemRepository = (*LineItemRepository)(nil)
