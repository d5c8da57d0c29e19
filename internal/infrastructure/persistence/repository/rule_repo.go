package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// RuleRepository implements port.RuleRepository
type RuleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRuleRepository creates a new approval rule repository
func NewRuleRepository(db *sql.DB, logger *zap.Logger) port.RuleRepository {
	return &RuleRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a rule with its ordered steps. Callers wrap this in a
// transaction so the rule and steps commit together.
func (r *RuleRepository) Create(ctx context.Context, rule *entity.ApprovalRule) error {
	query := `
		INSERT INTO approval_rules (
			company_id, rule_name, is_manager_approver, approval_type,
			percentage_threshold, specific_approver_id, min_amount, max_amount, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := pickExecutor(ctx, r.db).ExecContext(ctx, query,
		rule.CompanyID,
		rule.RuleName,
		rule.IsManagerApprover,
		rule.ApprovalType,
		nullableFloat(rule.PercentageThreshold),
		nullableInt(rule.SpecificApproverID),
		rule.MinAmount,
		rule.MaxAmount,
		rule.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create approval rule", zap.String("rule_name", rule.RuleName), zap.Error(err))
		return fmt.Errorf("create approval rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	rule.ID = id

	stepQuery := `
		INSERT INTO approval_rule_steps (rule_id, step_order, approver_id, approver_role)
		VALUES (?, ?, ?, ?)
	`
	for i := range rule.Steps {
		step := &rule.Steps[i]
		step.RuleID = id
		stepResult, err := pickExecutor(ctx, r.db).ExecContext(ctx, stepQuery,
			id, step.StepOrder, step.ApproverID, step.ApproverRole)
		if err != nil {
			return fmt.Errorf("create rule step %d: %w", step.StepOrder, err)
		}
		if step.ID, err = stepResult.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
	}

	return nil
}

// ListByCompany retrieves the company's rules with steps, ordered by
// amount threshold
func (r *RuleRepository) ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	query := `
		SELECT id, company_id, rule_name, is_manager_approver, approval_type,
			percentage_threshold, specific_approver_id, min_amount, max_amount, created_at
		FROM approval_rules
		WHERE company_id = ?
		ORDER BY min_amount
	`

	rows, err := pickExecutor(ctx, r.db).QueryContext(ctx, query, companyID)
	if err != nil {
		r.logger.Error("Failed to list approval rules", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("list approval rules: %w", err)
	}
	defer rows.Close()

	var rules []*entity.ApprovalRule
	for rows.Next() {
		var rule entity.ApprovalRule
		var threshold sql.NullFloat64
		var specificApprover sql.NullInt64

		if err := rows.Scan(
			&rule.ID,
			&rule.CompanyID,
			&rule.RuleName,
			&rule.IsManagerApprover,
			&rule.ApprovalType,
			&threshold,
			&specificApprover,
			&rule.MinAmount,
			&rule.MaxAmount,
			&rule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan approval rule: %w", err)
		}

		if threshold.Valid {
			rule.PercentageThreshold = &threshold.Float64
		}
		if specificApprover.Valid {
			rule.SpecificApproverID = &specificApprover.Int64
		}

		rules = append(rules, &rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rule := range rules {
		steps, err := r.listSteps(ctx, rule.ID)
		if err != nil {
			return nil, err
		}
		rule.Steps = steps
	}

	return rules, nil
}

func (r *RuleRepository) listSteps(ctx context.Context, ruleID int64) ([]entity.ApprovalRuleStep, error) {
	query := `
		SELECT id, rule_id, step_order, approver_id, approver_role
		FROM approval_rule_steps
		WHERE rule_id = ?
		ORDER BY step_order
	`

	rows, err := pickExecutor(ctx, r.db).QueryContext(ctx, query, ruleID)
	if err != nil {
		return nil, fmt.Errorf("list rule steps: %w", err)
	}
	defer rows.Close()

	var steps []entity.ApprovalRuleStep
	for rows.Next() {
		var step entity.ApprovalRuleStep
		if err := rows.Scan(&step.ID, &step.RuleID, &step.StepOrder, &step.ApproverID, &step.ApproverRole); err != nil {
			return nil, fmt.Errorf("scan rule step: %w", err)
		}
		steps = append(steps, step)
	}

	return steps, rows.Err()
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// Verify interface compliance
var _ port.RuleRepository = (*RuleRepository)(nil)
