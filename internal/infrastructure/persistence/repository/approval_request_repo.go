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

// ApprovalRequestRepository implements port.ApprovalRequestRepository
type ApprovalRequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalRequestRepository creates a new approval request repository
func NewApprovalRequestRepository(db *sql.DB, logger *zap.Logger) port.ApprovalRequestRepository {
	return &ApprovalRequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts one approval request row
func (r *ApprovalRequestRepository) Create(ctx context.Context, request *entity.ApprovalRequest) error {
	query := `
		INSERT INTO approval_requests (expense_id, approver_id, step_order, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := pickExecutor(ctx, r.db).ExecContext(ctx, query,
		request.ExpenseID,
		request.ApproverID,
		request.StepOrder,
		request.Status,
		request.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create approval request",
			zap.Int64("expense_id", request.ExpenseID),
			zap.Int("step_order", request.StepOrder),
			zap.Error(err))
		return fmt.Errorf("create approval request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	request.ID = id
	return nil
}

// GetByID retrieves an approval request by ID
func (r *ApprovalRequestRepository) GetByID(ctx context.Context, id int64) (*entity.ApprovalRequest, error) {
	query := `
		SELECT id, expense_id, approver_id, step_order, status, comments, approved_at, created_at
		FROM approval_requests
		WHERE id = ?
	`
	return r.scanOne(ctx, query, id)
}

// GetByIDForApprover retrieves the request only if the approver owns it
func (r *ApprovalRequestRepository) GetByIDForApprover(ctx context.Context, id, approverID int64) (*entity.ApprovalRequest, error) {
	query := `
		SELECT id, expense_id, approver_id, step_order, status, comments, approved_at, created_at
		FROM approval_requests
		WHERE id = ? AND approver_id = ?
	`
	return r.scanOne(ctx, query, id, approverID)
}

// Decide settles one request out of pending. The status guard makes the
// transition single-shot: a second settle attempt, or the loser of a
// concurrent race, affects zero rows and returns false.
func (r *ApprovalRequestRepository) Decide(ctx context.Context, id int64, status, comments string, at time.Time) (bool, error) {
	query := `
		UPDATE approval_requests
		SET status = ?, comments = ?, approved_at = ?
		WHERE id = ? AND status = 'pending'
	`

	result, err := pickExecutor(ctx, r.db).ExecContext(ctx, query, status, comments, at, id)
	if err != nil {
		r.logger.Error("Failed to settle approval request", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("settle approval request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected == 1, nil
}

// CascadeReject settles every still-pending request of the expense as
// rejected in one statement, with no individual approver attribution
func (r *ApprovalRequestRepository) CascadeReject(ctx context.Context, expenseID int64) error {
	query := `
		UPDATE approval_requests
		SET status = 'rejected'
		WHERE expense_id = ? AND status = 'pending'
	`

	if _, err := pickExecutor(ctx, r.db).ExecContext(ctx, query, expenseID); err != nil {
		r.logger.Error("Failed to cascade reject", zap.Int64("expense_id", expenseID), zap.Error(err))
		return fmt.Errorf("cascade reject: %w", err)
	}
	return nil
}

// OverrideApprove settles every still-pending request of the expense as
// approved with the system override comment
func (r *ApprovalRequestRepository) OverrideApprove(ctx context.Context, expenseID int64, comment string, at time.Time) error {
	query := `
		UPDATE approval_requests
		SET status = 'approved', comments = ?, approved_at = ?
		WHERE expense_id = ? AND status = 'pending'
	`

	if _, err := pickExecutor(ctx, r.db).ExecContext(ctx, query, comment, at, expenseID); err != nil {
		r.logger.Error("Failed to override approve", zap.Int64("expense_id", expenseID), zap.Error(err))
		return fmt.Errorf("override approve: %w", err)
	}
	return nil
}

// StatsByExpense recomputes aggregate counts over all requests of the
// expense
func (r *ApprovalRequestRepository) StatsByExpense(ctx context.Context, expenseID int64) (entity.ApprovalStats, error) {
	query := `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0)
		FROM approval_requests
		WHERE expense_id = ?
	`

	var stats entity.ApprovalStats
	err := pickExecutor(ctx, r.db).QueryRowContext(ctx, query, expenseID).Scan(
		&stats.Total,
		&stats.Approved,
		&stats.Pending,
	)
	if err != nil {
		r.logger.Error("Failed to aggregate approval stats", zap.Int64("expense_id", expenseID), zap.Error(err))
		return entity.ApprovalStats{}, fmt.Errorf("approval stats: %w", err)
	}

	return stats, nil
}

// ListByExpense retrieves the expense's requests in step order with
// approver identity
func (r *ApprovalRequestRepository) ListByExpense(ctx context.Context, expenseID int64) ([]*port.ApprovalStep, error) {
	query := `
		SELECT ar.id, ar.expense_id, ar.approver_id, ar.step_order, ar.status, ar.comments, ar.approved_at, ar.created_at,
			u.first_name || ' ' || u.last_name, u.email, u.role
		FROM approval_requests ar
		JOIN users u ON ar.approver_id = u.id
		WHERE ar.expense_id = ?
		ORDER BY ar.step_order
	`

	rows, err := pickExecutor(ctx, r.db).QueryContext(ctx, query, expenseID)
	if err != nil {
		r.logger.Error("Failed to list approval steps", zap.Int64("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("list approval steps: %w", err)
	}
	defer rows.Close()

	var steps []*port.ApprovalStep
	for rows.Next() {
		var step port.ApprovalStep
		var comments sql.NullString
		var approvedAt sql.NullTime

		req := &step.Request
		if err := rows.Scan(
			&req.ID, &req.ExpenseID, &req.ApproverID, &req.StepOrder, &req.Status, &comments, &approvedAt, &req.CreatedAt,
			&step.ApproverName, &step.ApproverEmail, &step.ApproverRole,
		); err != nil {
			return nil, fmt.Errorf("scan approval step: %w", err)
		}

		req.Comments = comments.String
		if approvedAt.Valid {
			req.ApprovedAt = &approvedAt.Time
		}

		steps = append(steps, &step)
	}

	return steps, rows.Err()
}

// pendingForApproverWhere scopes requests to the approver's actionable
// queue: pending request, pending expense, in-order step.
const pendingForApproverWhere = `
	WHERE ar.approver_id = ?
	AND ar.status = 'pending'
	AND e.status = 'pending'
	AND ar.step_order = e.current_approval_step
`

// ListPendingForApprover retrieves the approver's actionable queue,
// newest first
func (r *ApprovalRequestRepository) ListPendingForApprover(ctx context.Context, approverID int64) ([]*port.PendingApproval, error) {
	query := `
		SELECT ar.id, ar.expense_id, ar.approver_id, ar.step_order, ar.status, ar.comments, ar.approved_at, ar.created_at,
			e.id, e.company_id, e.employee_id, e.category_id, e.amount, e.currency, e.converted_amount,
			e.description, e.expense_date, e.merchant_name, e.receipt_url,
			e.status, e.current_approval_step, e.total_approval_steps,
			e.final_approved_at, e.final_approved_by, e.director_override, e.created_at,
			u.first_name || ' ' || u.last_name, c.name
		FROM approval_requests ar
		JOIN expenses e ON ar.expense_id = e.id
		JOIN users u ON e.employee_id = u.id
		JOIN expense_categories c ON e.category_id = c.id
	` + pendingForApproverWhere + `
		ORDER BY ar.created_at DESC
	`

	rows, err := pickExecutor(ctx, r.db).QueryContext(ctx, query, approverID)
	if err != nil {
		r.logger.Error("Failed to list pending approvals", zap.Int64("approver_id", approverID), zap.Error(err))
		return nil, fmt.Errorf("list pending approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*port.PendingApproval
	for rows.Next() {
		var approval port.PendingApproval
		var reqComments sql.NullString
		var reqApprovedAt, finalApprovedAt sql.NullTime
		var finalApprovedBy sql.NullInt64
		var merchantName, receiptURL sql.NullString

		req := &approval.Request
		e := &approval.Expense
		if err := rows.Scan(
			&req.ID, &req.ExpenseID, &req.ApproverID, &req.StepOrder, &req.Status, &reqComments, &reqApprovedAt, &req.CreatedAt,
			&e.ID, &e.CompanyID, &e.EmployeeID, &e.CategoryID, &e.Amount, &e.Currency, &e.ConvertedAmount,
			&e.Description, &e.ExpenseDate, &merchantName, &receiptURL,
			&e.Status, &e.CurrentApprovalStep, &e.TotalApprovalSteps,
			&finalApprovedAt, &finalApprovedBy, &e.DirectorOverride, &e.CreatedAt,
			&approval.EmployeeName, &approval.CategoryName,
		); err != nil {
			return nil, fmt.Errorf("scan pending approval: %w", err)
		}

		req.Comments = reqComments.String
		if reqApprovedAt.Valid {
			req.ApprovedAt = &reqApprovedAt.Time
		}
		e.MerchantName = merchantName.String
		e.ReceiptURL = receiptURL.String
		if finalApprovedAt.Valid {
			e.FinalApprovedAt = &finalApprovedAt.Time
		}
		if finalApprovedBy.Valid {
			e.FinalApprovedBy = &finalApprovedBy.Int64
		}

		approvals = append(approvals, &approval)
	}

	return approvals, rows.Err()
}

// CountPendingForApprover counts the approver's actionable queue
func (r *ApprovalRequestRepository) CountPendingForApprover(ctx context.Context, approverID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM approval_requests ar
		JOIN expenses e ON ar.expense_id = e.id
	` + pendingForApproverWhere

	var count int
	if err := pickExecutor(ctx, r.db).QueryRowContext(ctx, query, approverID).Scan(&count); err != nil {
		r.logger.Error("Failed to count pending approvals", zap.Int64("approver_id", approverID), zap.Error(err))
		return 0, fmt.Errorf("count pending approvals: %w", err)
	}

	return count, nil
}

func (r *ApprovalRequestRepository) scanOne(ctx context.Context, query string, args ...interface{}) (*entity.ApprovalRequest, error) {
	var request entity.ApprovalRequest
	var comments sql.NullString
	var approvedAt sql.NullTime

	err := pickExecutor(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(
		&request.ID,
		&request.ExpenseID,
		&request.ApproverID,
		&request.StepOrder,
		&request.Status,
		&comments,
		&approvedAt,
		&request.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to query approval request", zap.Error(err))
		return nil, fmt.Errorf("query approval request: %w", err)
	}

	request.Comments = comments.String
	if approvedAt.Valid {
		request.ApprovedAt = &approvedAt.Time
	}

	return &request, nil
}

// Verify interface compliance
var _ port.ApprovalRequestRepository = (*ApprovalRequestRepository)(nil)
