package entity

import "time"

// ApprovalRequest is one step of an expense's approval chain. Exactly
// one request exists per (expense, step order); each request
// transitions at most once out of pending.
type ApprovalRequest struct {
	ID         int64      `json:"id"`
	ExpenseID  int64      `json:"expense_id"`
	ApproverID int64      `json:"approver_id"`
	StepOrder  int        `json:"step_order"`
	Status     string     `json:"status"`
	Comments   string     `json:"comments,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsPending reports whether the request can still be acted on
func (r *ApprovalRequest) IsPending() bool {
	return r.Status == ApprovalStatusPending
}

// ApprovalChainEntry is a transient step produced by the chain builder
// and materialized into an ApprovalRequest at submission time.
type ApprovalChainEntry struct {
	ApproverID int64 `json:"approver_id"`
	StepOrder  int   `json:"step_order"`
}

// ApprovalStats are aggregate request counts for one expense, computed
// inside the action transaction to decide finalization.
type ApprovalStats struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
}

// AllApproved reports whether every step of the chain has been satisfied
func (s ApprovalStats) AllApproved() bool {
	return s.Pending == 0 && s.Approved == s.Total
}
