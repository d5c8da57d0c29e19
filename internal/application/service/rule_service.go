package service

import (
	"context"
	"fmt"
	"time"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// RuleStepInput is one ordered approver slot of a rule
type RuleStepInput struct {
	ApproverID   int64  `json:"approver_id"`
	ApproverRole string `json:"approver_role"`
}

// CreateRuleInput carries an admin-defined approval rule
type CreateRuleInput struct {
	RuleName            string          `json:"rule_name"`
	IsManagerApprover   bool            `json:"is_manager_approver"`
	ApprovalType        string          `json:"approval_type"`
	PercentageThreshold *float64        `json:"percentage_threshold"`
	SpecificApproverID  *int64          `json:"specific_approver_id"`
	MinAmount           float64         `json:"min_amount"`
	MaxAmount           float64         `json:"max_amount"`
	Steps               []RuleStepInput `json:"steps"`
}

// RuleService manages admin-configured approval rules. Rules define
// thresholds for reporting and future routing; the runtime chain is
// built from the organizational hierarchy and does not consult them.
type RuleService interface {
	Create(ctx context.Context, principal entity.Principal, input CreateRuleInput) (int64, error)
	List(ctx context.Context, principal entity.Principal) ([]*entity.ApprovalRule, error)
}

type ruleServiceImpl struct {
	ruleRepo     port.RuleRepository
	auditService AuditService
	txManager    port.TransactionManager
	logger       Logger
}

// NewRuleService creates a new RuleService
func NewRuleService(ruleRepo port.RuleRepository, auditService AuditService, txManager port.TransactionManager, logger Logger) RuleService {
	return &ruleServiceImpl{
		ruleRepo:     ruleRepo,
		auditService: auditService,
		txManager:    txManager,
		logger:       logger,
	}
}

// Create persists a rule with its ordered steps and audits the change
func (s *ruleServiceImpl) Create(ctx context.Context, principal entity.Principal, input CreateRuleInput) (int64, error) {
	if input.RuleName == "" {
		return 0, fmt.Errorf("%w: rule name is required", ErrValidation)
	}
	if input.ApprovalType == "" {
		return 0, fmt.Errorf("%w: approval type is required", ErrValidation)
	}

	rule := &entity.ApprovalRule{
		CompanyID:           principal.CompanyID,
		RuleName:            input.RuleName,
		IsManagerApprover:   input.IsManagerApprover,
		ApprovalType:        input.ApprovalType,
		PercentageThreshold: input.PercentageThreshold,
		SpecificApproverID:  input.SpecificApproverID,
		MinAmount:           input.MinAmount,
		MaxAmount:           input.MaxAmount,
		CreatedAt:           time.Now(),
	}
	for i, step := range input.Steps {
		rule.Steps = append(rule.Steps, entity.ApprovalRuleStep{
			StepOrder:    i + 1,
			ApproverID:   step.ApproverID,
			ApproverRole: step.ApproverRole,
		})
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ruleRepo.Create(txCtx, rule); err != nil {
			return fmt.Errorf("create rule: %w", err)
		}
		return s.auditService.Record(txCtx, principal.CompanyID, principal.UserID, nil,
			entity.AuditRuleCreated, map[string]interface{}{
				"rule_name":     input.RuleName,
				"approval_type": input.ApprovalType,
				"min_amount":    input.MinAmount,
				"max_amount":    input.MaxAmount,
			})
	})
	if err != nil {
		s.logger.Error("Failed to create approval rule",
			"company_id", principal.CompanyID,
			"error", err)
		return 0, err
	}

	s.logger.Info("Approval rule created",
		"rule_id", rule.ID,
		"company_id", principal.CompanyID)
	return rule.ID, nil
}

// List returns the company's rules with their steps
func (s *ruleServiceImpl) List(ctx context.Context, principal entity.Principal) ([]*entity.ApprovalRule, error) {
	rules, err := s.ruleRepo.ListByCompany(ctx, principal.CompanyID)
	if err != nil {
		s.logger.Error("Failed to list approval rules",
			"company_id", principal.CompanyID,
			"error", err)
		return nil, err
	}
	return rules, nil
}
