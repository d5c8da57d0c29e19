package entity

import "time"

// Expense is a submitted reimbursement request. Status is terminal once
// approved or rejected; while pending, CurrentApprovalStep tracks the
// step order currently eligible to act.
type Expense struct {
	ID                  int64      `json:"id"`
	CompanyID           int64      `json:"company_id"`
	EmployeeID          int64      `json:"employee_id"`
	CategoryID          int64      `json:"category_id"`
	Amount              float64    `json:"amount"`
	Currency            string     `json:"currency"`
	ConvertedAmount     float64    `json:"converted_amount"`
	Description         string     `json:"description"`
	ExpenseDate         time.Time  `json:"expense_date"`
	MerchantName        string     `json:"merchant_name,omitempty"`
	ReceiptURL          string     `json:"receipt_url,omitempty"`
	Status              string     `json:"status"`
	CurrentApprovalStep int        `json:"current_approval_step"`
	TotalApprovalSteps  int        `json:"total_approval_steps"`
	FinalApprovedAt     *time.Time `json:"final_approved_at,omitempty"`
	FinalApprovedBy     *int64     `json:"final_approved_by,omitempty"`
	DirectorOverride    bool       `json:"director_override"`
	CreatedAt           time.Time  `json:"created_at"`
}

// IsTerminal reports whether the expense can no longer change state
func (e *Expense) IsTerminal() bool {
	return e.Status != ExpenseStatusPending
}

// ExpenseLineItem is a single line of an expense, owned by it.
type ExpenseLineItem struct {
	ID          int64   `json:"id"`
	ExpenseID   int64   `json:"expense_id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}

// ExpenseCategory classifies expenses within a company.
type ExpenseCategory struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
