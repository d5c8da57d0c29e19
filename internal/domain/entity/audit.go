package entity

import "time"

// AuditLog is an append-only record of a state transition or admin
// action. ExpenseID is nil for actions not tied to a single expense.
type AuditLog struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	UserID    int64     `json:"user_id"`
	ExpenseID *int64    `json:"expense_id,omitempty"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
