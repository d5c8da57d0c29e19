package entity

import "time"

// Approval rule type constants
const (
	RuleTypePercentage = "percentage"
	RuleTypeSpecific   = "specific_approver"
	RuleTypeHybrid     = "hybrid"
)

// ApprovalRule is an admin-defined threshold rule. Rules are stored for
// configuration purposes; the runtime chain is derived from the
// organizational hierarchy, not from rules.
type ApprovalRule struct {
	ID                  int64              `json:"id"`
	CompanyID           int64              `json:"company_id"`
	RuleName            string             `json:"rule_name"`
	IsManagerApprover   bool               `json:"is_manager_approver"`
	ApprovalType        string             `json:"approval_type"`
	PercentageThreshold *float64           `json:"percentage_threshold,omitempty"`
	SpecificApproverID  *int64             `json:"specific_approver_id,omitempty"`
	MinAmount           float64            `json:"min_amount"`
	MaxAmount           float64            `json:"max_amount"`
	Steps               []ApprovalRuleStep `json:"steps,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
}

// ApprovalRuleStep is one ordered approver slot within a rule.
type ApprovalRuleStep struct {
	ID           int64  `json:"id"`
	RuleID       int64  `json:"rule_id"`
	StepOrder    int    `json:"step_order"`
	ApproverID   int64  `json:"approver_id"`
	ApproverRole string `json:"approver_role"`
}
