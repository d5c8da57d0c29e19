package port

import (
	"context"
	"time"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// TransactionManager runs a function within a database transaction.
// Nested calls reuse the surrounding transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// DirectoryEntry is a company user enriched with the manager's display
// name for directory listings.
type DirectoryEntry struct {
	User        entity.User `json:"user"`
	ManagerName string      `json:"manager_name,omitempty"`
}

// UserRepository defines persistence operations over users, including
// the role directory queries the chain builder depends on.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)

	// FindManagerOf returns the direct manager of an employee, or nil
	// if no manager is assigned.
	FindManagerOf(ctx context.Context, employeeID int64) (*entity.User, error)

	// FindActiveRoleHolder returns the lowest-id active user holding
	// the role within the company, or nil if the role is unstaffed.
	FindActiveRoleHolder(ctx context.Context, companyID int64, role string) (*entity.User, error)

	// ListDirectory returns the company's users, newest first.
	ListDirectory(ctx context.Context, companyID int64) ([]*DirectoryEntry, error)

	// UpdateDirectory sets the role, manager and active flag of a user
	// scoped to the company. Returns false when no such user exists.
	UpdateDirectory(ctx context.Context, companyID, userID int64, role string, managerID *int64, isActive bool) (bool, error)
}

// CompanyRepository defines persistence operations for companies
type CompanyRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Company, error)
}

// CategoryRepository defines persistence operations for expense categories
type CategoryRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.ExpenseCategory, error)
	ListActive(ctx context.Context, companyID int64) ([]*entity.ExpenseCategory, error)
}

// ExpenseSummary is an expense row enriched with display fields for
// listings and reports.
type ExpenseSummary struct {
	Expense       entity.Expense `json:"expense"`
	EmployeeName  string         `json:"employee_name"`
	EmployeeEmail string         `json:"employee_email"`
	CategoryName  string         `json:"category_name"`
	ApprovedCount int            `json:"approved_count"`
}

// CompanyExpenseStats aggregates company-wide expense figures
type CompanyExpenseStats struct {
	TotalCount     int     `json:"total_count"`
	TotalAmount    float64 `json:"total_amount"`
	PendingCount   int     `json:"pending_count"`
	ApprovedCount  int     `json:"approved_count"`
	ApprovedAmount float64 `json:"approved_amount"`
}

// EmployeeExpenseStats aggregates one employee's expense figures
type EmployeeExpenseStats struct {
	TotalCount    int     `json:"total_count"`
	TotalAmount   float64 `json:"total_amount"`
	PendingCount  int     `json:"pending_count"`
	ApprovedCount int     `json:"approved_count"`
}

// ExpenseRepository defines persistence operations for expenses.
// The state-mutating methods are written as guarded single UPDATEs so
// the action processor can run them race-free inside a transaction.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *entity.Expense) error
	GetByID(ctx context.Context, id int64) (*entity.Expense, error)

	// SetTotalSteps fixes the chain length after the chain is built
	SetTotalSteps(ctx context.Context, id int64, total int) error

	// MarkRejected sets status=rejected
	MarkRejected(ctx context.Context, id int64) error

	// Finalize sets status=approved, the final approval attribution and
	// current_approval_step = total_approval_steps.
	Finalize(ctx context.Context, id int64, approverID int64, override bool, at time.Time) error

	// AdvanceStep increments current_approval_step, guarded by
	// current_approval_step < total_approval_steps.
	AdvanceStep(ctx context.Context, id int64) error

	ListByCompany(ctx context.Context, companyID int64, limit int) ([]*ExpenseSummary, error)
	ListByEmployee(ctx context.Context, employeeID int64, limit int) ([]*ExpenseSummary, error)
	ListForApprover(ctx context.Context, companyID, approverID int64, limit int) ([]*ExpenseSummary, error)

	CompanyStats(ctx context.Context, companyID int64) (*CompanyExpenseStats, error)
	EmployeeStats(ctx context.Context, employeeID int64) (*EmployeeExpenseStats, error)
}

// LineItemRepository defines persistence operations for expense line items
type LineItemRepository interface {
	Create(ctx context.Context, item *entity.ExpenseLineItem) error
	GetByExpenseID(ctx context.Context, expenseID int64) ([]*entity.ExpenseLineItem, error)
}

// ApprovalStep is an approval request enriched with approver identity
// for expense detail views.
type ApprovalStep struct {
	Request       entity.ApprovalRequest `json:"request"`
	ApproverName  string                 `json:"approver_name"`
	ApproverEmail string                 `json:"approver_email"`
	ApproverRole  string                 `json:"approver_role"`
}

// PendingApproval is a pending request joined with its expense for the
// approver's work queue.
type PendingApproval struct {
	Request      entity.ApprovalRequest `json:"request"`
	Expense      entity.Expense         `json:"expense"`
	EmployeeName string                 `json:"employee_name"`
	CategoryName string                 `json:"category_name"`
}

// ApprovalRequestRepository defines persistence operations for approval
// requests. Decide is the single-transition guard: it only applies when
// the row is still pending and reports whether it did.
type ApprovalRequestRepository interface {
	Create(ctx context.Context, request *entity.ApprovalRequest) error
	GetByID(ctx context.Context, id int64) (*entity.ApprovalRequest, error)

	// GetByIDForApprover returns the request only if it is owned by the
	// given approver; nil otherwise.
	GetByIDForApprover(ctx context.Context, id, approverID int64) (*entity.ApprovalRequest, error)

	// Decide transitions one request out of pending. Returns false if
	// the row was already settled.
	Decide(ctx context.Context, id int64, status, comments string, at time.Time) (bool, error)

	// CascadeReject settles every still-pending request of the expense
	// as rejected in one statement.
	CascadeReject(ctx context.Context, expenseID int64) error

	// OverrideApprove settles every still-pending request of the
	// expense as approved with the system override comment.
	OverrideApprove(ctx context.Context, expenseID int64, comment string, at time.Time) error

	// StatsByExpense recomputes aggregate counts over all requests of
	// the expense.
	StatsByExpense(ctx context.Context, expenseID int64) (entity.ApprovalStats, error)

	ListByExpense(ctx context.Context, expenseID int64) ([]*ApprovalStep, error)
	ListPendingForApprover(ctx context.Context, approverID int64) ([]*PendingApproval, error)
	CountPendingForApprover(ctx context.Context, approverID int64) (int, error)
}

// RuleRepository defines persistence operations for approval rules
type RuleRepository interface {
	Create(ctx context.Context, rule *entity.ApprovalRule) error
	ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error)
}

// AuditLogRepository defines append-only persistence for audit records
type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
}
