package entity

// Role constants for users within a company
const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleFinance  = "finance"
	RoleDirector = "director"
	RoleAdmin    = "admin"
)

// ValidRoles contains all assignable user roles
var ValidRoles = map[string]bool{
	RoleEmployee: true,
	RoleManager:  true,
	RoleFinance:  true,
	RoleDirector: true,
	RoleAdmin:    true,
}

// Expense status constants
const (
	ExpenseStatusPending  = "pending"
	ExpenseStatusApproved = "approved"
	ExpenseStatusRejected = "rejected"
)

// ApprovalRequest status constants
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)

// Approval action constants
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Audit log action constants
const (
	AuditExpenseSubmitted = "EXPENSE_SUBMITTED"
	AuditExpenseApproved  = "EXPENSE_APPROVED"
	AuditExpenseRejected  = "EXPENSE_REJECTED"
	AuditRuleCreated      = "APPROVAL_RULE_CREATED"
	AuditUserUpdated      = "USER_UPDATED"
)

// OverrideComment is written on approval requests that are auto-closed
// by a director override.
const OverrideComment = "Auto-approved via Director override"
