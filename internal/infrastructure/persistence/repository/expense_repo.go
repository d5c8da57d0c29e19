package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// ExpenseRepository implements port.ExpenseRepository. The mutating
// methods are single guarded UPDATE statements so the approval action
// transaction never read-modify-writes counters outside the store.
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) port.ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new expense row
func (r *ExpenseRepository) Create(ctx context.Context, expense *entity.Expense) error {
	query := `
		INSERT INTO expenses (
			company_id, employee_id, category_id, amount, currency, converted_amount,
			description, expense_date, merchant_name, receipt_url,
			status, current_approval_step, total_approval_steps, director_override, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := pickExecutor(ctx, r.db).ExecContext(ctx, query,
		expense.CompanyID,
		expense.EmployeeID,
		expense.CategoryID,
		expense.Amount,
		expense.Currency,
		expense.ConvertedAmount,
		expense.Description,
		expense.ExpenseDate,
		expense.MerchantName,
		expense.ReceiptURL,
		expense.Status,
		expense.CurrentApprovalStep,
		expense.TotalApprovalSteps,
		expense.DirectorOverride,
		expense.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.Error(err))
		return fmt.Errorf("create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	expense.ID = id
	return nil
}

// GetByID retrieves an expense by ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	query := `
		SELECT id, company_id, employee_id, category_id, amount, currency, converted_amount,
			description, expense_date, merchant_name, receipt_url,
			status, current_approval_step, total_approval_steps,
			final_approved_at, final_approved_by, director_override, created_at
		FROM expenses
		WHERE id = ?
	`

	expense, err := scanExpense(pickExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("get expense: %w", err)
	}

	return expense, nil
}

// SetTotalSteps fixes the chain length after the chain is materialized
func (r *ExpenseRepository) SetTotalSteps(ctx context.Context, id int64, total int) error {
	query := `UPDATE expenses SET total_approval_steps = ? WHERE id = ?`

	if _, err := pickExecutor(ctx, r.db).ExecContext(ctx, query, total, id); err != nil {
		r.logger.Error("Failed to set total steps", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("set total steps: %w", err)
	}
	return nil
}

// MarkRejected sets the expense status to rejected
func (r *ExpenseRepository) MarkRejected(ctx context.Context, id int64) error {
	query := `UPDATE expenses SET status = ? WHERE id = ?`

	if _, err := pickExecutor(ctx, r.db).ExecContext(ctx, query, entity.ExpenseStatusRejected, id); err != nil {
		r.logger.Error("Failed to mark expense rejected", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("mark rejected: %w", err)
	}
	return nil
}

// Finalize settles the expense as approved with final attribution and
// snaps current_approval_step to total_approval_steps
func (r *ExpenseRepository) Finalize(ctx context.Context, id int64, approverID int64, override bool, at time.Time) error {
	query := `
		UPDATE expenses
		SET status = ?, final_approved_at = ?, final_approved_by = ?,
			director_override = ?, current_approval_step = total_approval_steps
		WHERE id = ?
	`

	if _, err := pickExecutor(ctx, r.db).ExecContext(ctx, query,
		entity.ExpenseStatusApproved, at, approverID, override, id); err != nil {
		r.logger.Error("Failed to finalize expense", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("finalize expense: %w", err)
	}
	return nil
}

// AdvanceStep increments the current approval step. The guard keeps the
// counter inside 1..total even under concurrent approvals.
func (r *ExpenseRepository) AdvanceStep(ctx context.Context, id int64) error {
	query := `
		UPDATE expenses
		SET current_approval_step = current_approval_step + 1
		WHERE id = ? AND current_approval_step < total_approval_steps
	`

	if _, err := pickExecutor(ctx, r.db).ExecContext(ctx, query, id); err != nil {
		r.logger.Error("Failed to advance approval step", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("advance step: %w", err)
	}
	return nil
}

const summarySelect = `
	SELECT e.id, e.company_id, e.employee_id, e.category_id, e.amount, e.currency, e.converted_amount,
		e.description, e.expense_date, e.merchant_name, e.receipt_url,
		e.status, e.current_approval_step, e.total_approval_steps,
		e.final_approved_at, e.final_approved_by, e.director_override, e.created_at,
		u.first_name || ' ' || u.last_name, u.email, c.name,
		(SELECT COUNT(*) FROM approval_requests ar2 WHERE ar2.expense_id = e.id AND ar2.status = 'approved')
	FROM expenses e
	JOIN users u ON e.employee_id = u.id
	JOIN expense_categories c ON e.category_id = c.id
`

// ListByCompany retrieves all company expenses, newest first. A limit
// of zero means no limit.
func (r *ExpenseRepository) ListByCompany(ctx context.Context, companyID int64, limit int) ([]*port.ExpenseSummary, error) {
	query := summarySelect + ` WHERE e.company_id = ? ORDER BY e.created_at DESC`
	args := []interface{}{companyID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.listSummaries(ctx, query, args...)
}

// ListByEmployee retrieves an employee's own expenses, newest first
func (r *ExpenseRepository) ListByEmployee(ctx context.Context, employeeID int64, limit int) ([]*port.ExpenseSummary, error) {
	query := summarySelect + ` WHERE e.employee_id = ? ORDER BY e.created_at DESC`
	args := []interface{}{employeeID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.listSummaries(ctx, query, args...)
}

// ListForApprover retrieves company expenses the approver is involved
// in: their direct reports' submissions or chains containing them.
func (r *ExpenseRepository) ListForApprover(ctx context.Context, companyID, approverID int64, limit int) ([]*port.ExpenseSummary, error) {
	query := summarySelect + `
		WHERE e.company_id = ?
		AND (u.manager_id = ?
			OR EXISTS (SELECT 1 FROM approval_requests ar WHERE ar.expense_id = e.id AND ar.approver_id = ?)
			OR e.employee_id = ?)
		ORDER BY e.created_at DESC`
	args := []interface{}{companyID, approverID, approverID, approverID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.listSummaries(ctx, query, args...)
}

func (r *ExpenseRepository) listSummaries(ctx context.Context, query string, args ...interface{}) ([]*port.ExpenseSummary, error) {
	rows, err := pickExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var summaries []*port.ExpenseSummary
	for rows.Next() {
		var summary port.ExpenseSummary
		var finalApprovedAt sql.NullTime
		var finalApprovedBy sql.NullInt64
		var merchantName, receiptURL sql.NullString

		e := &summary.Expense
		if err := rows.Scan(
			&e.ID, &e.CompanyID, &e.EmployeeID, &e.CategoryID, &e.Amount, &e.Currency, &e.ConvertedAmount,
			&e.Description, &e.ExpenseDate, &merchantName, &receiptURL,
			&e.Status, &e.CurrentApprovalStep, &e.TotalApprovalSteps,
			&finalApprovedAt, &finalApprovedBy, &e.DirectorOverride, &e.CreatedAt,
			&summary.EmployeeName, &summary.EmployeeEmail, &summary.CategoryName,
			&summary.ApprovedCount,
		); err != nil {
			return nil, fmt.Errorf("scan expense summary: %w", err)
		}

		e.MerchantName = merchantName.String
		e.ReceiptURL = receiptURL.String
		if finalApprovedAt.Valid {
			e.FinalApprovedAt = &finalApprovedAt.Time
		}
		if finalApprovedBy.Valid {
			e.FinalApprovedBy = &finalApprovedBy.Int64
		}

		summaries = append(summaries, &summary)
	}

	return summaries, rows.Err()
}

// CompanyStats aggregates company-wide expense figures
func (r *ExpenseRepository) CompanyStats(ctx context.Context, companyID int64) (*port.CompanyExpenseStats, error) {
	query := `
		SELECT COUNT(*),
			COALESCE(SUM(converted_amount), 0),
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'approved' THEN converted_amount ELSE 0 END), 0)
		FROM expenses
		WHERE company_id = ?
	`

	var stats port.CompanyExpenseStats
	err := pickExecutor(ctx, r.db).QueryRowContext(ctx, query, companyID).Scan(
		&stats.TotalCount,
		&stats.TotalAmount,
		&stats.PendingCount,
		&stats.ApprovedCount,
		&stats.ApprovedAmount,
	)
	if err != nil {
		r.logger.Error("Failed to aggregate company stats", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("company stats: %w", err)
	}

	return &stats, nil
}

// EmployeeStats aggregates one employee's expense figures
func (r *ExpenseRepository) EmployeeStats(ctx context.Context, employeeID int64) (*port.EmployeeExpenseStats, error) {
	query := `
		SELECT COUNT(*),
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0)
		FROM expenses
		WHERE employee_id = ?
	`

	var stats port.EmployeeExpenseStats
	err := pickExecutor(ctx, r.db).QueryRowContext(ctx, query, employeeID).Scan(
		&stats.TotalCount,
		&stats.TotalAmount,
		&stats.PendingCount,
		&stats.ApprovedCount,
	)
	if err != nil {
		r.logger.Error("Failed to aggregate employee stats", zap.Int64("employee_id", employeeID), zap.Error(err))
		return nil, fmt.Errorf("employee stats: %w", err)
	}

	return &stats, nil
}

// scanExpense scans a single expense row
func scanExpense(row *sql.Row) (*entity.Expense, error) {
	var expense entity.Expense
	var finalApprovedAt sql.NullTime
	var finalApprovedBy sql.NullInt64
	var merchantName, receiptURL sql.NullString

	err := row.Scan(
		&expense.ID,
		&expense.CompanyID,
		&expense.EmployeeID,
		&expense.CategoryID,
		&expense.Amount,
		&expense.Currency,
		&expense.ConvertedAmount,
		&expense.Description,
		&expense.ExpenseDate,
		&merchantName,
		&receiptURL,
		&expense.Status,
		&expense.CurrentApprovalStep,
		&expense.TotalApprovalSteps,
		&finalApprovedAt,
		&finalApprovedBy,
		&expense.DirectorOverride,
		&expense.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	expense.MerchantName = merchantName.String
	expense.ReceiptURL = receiptURL.String
	if finalApprovedAt.Valid {
		expense.FinalApprovedAt = &finalApprovedAt.Time
	}
	if finalApprovedBy.Valid {
		expense.FinalApprovedBy = &finalApprovedBy.Int64
	}

	return &expense, nil
}

// Verify interface compliance
var _ port.ExpenseRepository = (*ExpenseRepository)(nil)
