package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"github.com/expenseflow/expenseflow/internal/domain/workflow"
)

// ActionResult reports the outcome of an approval action
type ActionResult struct {
	ExpenseID        int64  `json:"expense_id"`
	Action           string `json:"action"`
	ExpenseStatus    string `json:"expense_status"`
	DirectorOverride bool   `json:"director_override"`
}

// ApprovalService is the approval action state machine. Act consumes an
// approve/reject from a specific approver and decides, inside one
// transaction, whether the parent expense advances, finalizes, rejects,
// or short-circuits through a director override.
//
// Act deliberately does not require the request's step order to match
// the expense's current step; ownership of the request is the only
// authorization check, matching the system this replaces. The pending
// listing surfaces only in-order work, so out-of-order actions are an
// edge case, not the normal path.
type ApprovalService interface {
	Act(ctx context.Context, principal entity.Principal, requestID int64, action, comments string) (*ActionResult, error)
	ListPending(ctx context.Context, principal entity.Principal) ([]*port.PendingApproval, error)
}

type approvalServiceImpl struct {
	requestRepo  port.ApprovalRequestRepository
	expenseRepo  port.ExpenseRepository
	auditService AuditService
	notifier     NotificationService
	txManager    port.TransactionManager
	logger       Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	requestRepo port.ApprovalRequestRepository,
	expenseRepo port.ExpenseRepository,
	auditService AuditService,
	notifier NotificationService,
	txManager port.TransactionManager,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		requestRepo:  requestRepo,
		expenseRepo:  expenseRepo,
		auditService: auditService,
		notifier:     notifier,
		txManager:    txManager,
		logger:       logger,
	}
}

// Act applies one approve/reject action. All mutations run inside a
// single transaction; the audit row commits with them. Notifications
// fire after commit and are swallowed on failure.
func (s *approvalServiceImpl) Act(ctx context.Context, principal entity.Principal, requestID int64, action, comments string) (*ActionResult, error) {
	if action != entity.ActionApprove && action != entity.ActionReject {
		return nil, fmt.Errorf("%w: action must be approve or reject", ErrValidation)
	}

	var result *ActionResult

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		request, err := s.requestRepo.GetByIDForApprover(txCtx, requestID, principal.UserID)
		if err != nil {
			return fmt.Errorf("get approval request: %w", err)
		}
		if request == nil {
			return fmt.Errorf("%w: approval request %d", ErrNotFound, requestID)
		}

		expense, err := s.expenseRepo.GetByID(txCtx, request.ExpenseID)
		if err != nil {
			return fmt.Errorf("get expense: %w", err)
		}
		if expense == nil {
			return fmt.Errorf("expense %d missing for request %d", request.ExpenseID, requestID)
		}

		newStatus, err := s.transitionRequest(request, action)
		if err != nil {
			return err
		}

		// Guarded single-row update: losing a race to another settle of
		// the same request surfaces as InvalidActionState, not a
		// double transition.
		applied, err := s.requestRepo.Decide(txCtx, requestID, newStatus, comments, time.Now())
		if err != nil {
			return fmt.Errorf("settle approval request: %w", err)
		}
		if !applied {
			return fmt.Errorf("%w: approval request %d", ErrInvalidActionState, requestID)
		}

		result, err = s.transitionExpense(txCtx, principal, expense, request, action)
		if err != nil {
			return err
		}

		auditAction := entity.AuditExpenseApproved
		if action == entity.ActionReject {
			auditAction = entity.AuditExpenseRejected
		}
		if err := s.auditService.Record(txCtx, principal.CompanyID, principal.UserID, &expense.ID,
			auditAction, map[string]interface{}{
				"comments": comments,
				"step":     request.StepOrder,
				"role":     principal.Role,
			}); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		return nil
	})

	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidActionState) {
			s.logger.Error("Approval action failed",
				"request_id", requestID,
				"approver_id", principal.UserID,
				"error", err)
		}
		return nil, err
	}

	s.logger.Info("Approval action processed",
		"request_id", requestID,
		"expense_id", result.ExpenseID,
		"action", action,
		"expense_status", result.ExpenseStatus,
		"director_override", result.DirectorOverride)

	if err := s.notifier.NotifyDecision(ctx, result.ExpenseID, action, comments, principal.UserID); err != nil {
		s.logger.Warn("Decision notification failed",
			"expense_id", result.ExpenseID,
			"error", err)
	}

	return result, nil
}

// transitionRequest validates the request-level transition and returns
// the target status.
func (s *approvalServiceImpl) transitionRequest(request *entity.ApprovalRequest, action string) (string, error) {
	machine, err := workflow.ForRequest(workflow.State(request.Status))
	if err != nil {
		return "", fmt.Errorf("request %d: %w", request.ID, err)
	}

	trigger := workflow.TriggerApprove
	if action == entity.ActionReject {
		trigger = workflow.TriggerReject
	}

	if err := machine.Fire(trigger); err != nil {
		if errors.Is(err, workflow.ErrTerminalState) {
			return "", fmt.Errorf("%w: approval request %d is %s", ErrInvalidActionState, request.ID, request.Status)
		}
		return "", err
	}

	return machine.State().String(), nil
}

// transitionExpense applies the expense-level consequence of the action.
func (s *approvalServiceImpl) transitionExpense(ctx context.Context, principal entity.Principal, expense *entity.Expense, request *entity.ApprovalRequest, action string) (*ActionResult, error) {
	machine, err := workflow.ForExpense(workflow.State(expense.Status))
	if err != nil {
		return nil, fmt.Errorf("expense %d: %w", expense.ID, err)
	}

	result := &ActionResult{
		ExpenseID:     expense.ID,
		Action:        action,
		ExpenseStatus: expense.Status,
	}

	now := time.Now()

	if action == entity.ActionReject {
		if err := machine.Fire(workflow.TriggerReject); err != nil {
			return nil, s.mapExpenseTransitionErr(expense, err)
		}
		if err := s.expenseRepo.MarkRejected(ctx, expense.ID); err != nil {
			return nil, fmt.Errorf("mark expense rejected: %w", err)
		}
		// Bulk cascade: every remaining pending step settles rejected
		// in one statement, without individual approver attribution.
		if err := s.requestRepo.CascadeReject(ctx, expense.ID); err != nil {
			return nil, fmt.Errorf("cascade reject: %w", err)
		}
		result.ExpenseStatus = entity.ExpenseStatusRejected
		return result, nil
	}

	if principal.Role == entity.RoleDirector {
		// Director override bypasses ordering entirely regardless of
		// the director's own position in the chain.
		if err := machine.Fire(workflow.TriggerOverride); err != nil {
			return nil, s.mapExpenseTransitionErr(expense, err)
		}
		if err := s.expenseRepo.Finalize(ctx, expense.ID, principal.UserID, true, now); err != nil {
			return nil, fmt.Errorf("finalize expense: %w", err)
		}
		if err := s.requestRepo.OverrideApprove(ctx, expense.ID, entity.OverrideComment, now); err != nil {
			return nil, fmt.Errorf("override remaining requests: %w", err)
		}
		result.ExpenseStatus = entity.ExpenseStatusApproved
		result.DirectorOverride = true
		return result, nil
	}

	stats, err := s.requestRepo.StatsByExpense(ctx, expense.ID)
	if err != nil {
		return nil, fmt.Errorf("recount approvals: %w", err)
	}

	if stats.AllApproved() {
		if err := machine.Fire(workflow.TriggerFinalize); err != nil {
			return nil, s.mapExpenseTransitionErr(expense, err)
		}
		if err := s.expenseRepo.Finalize(ctx, expense.ID, principal.UserID, false, now); err != nil {
			return nil, fmt.Errorf("finalize expense: %w", err)
		}
		result.ExpenseStatus = entity.ExpenseStatusApproved
		return result, nil
	}

	if expense.CurrentApprovalStep < expense.TotalApprovalSteps {
		if err := s.expenseRepo.AdvanceStep(ctx, expense.ID); err != nil {
			return nil, fmt.Errorf("advance approval step: %w", err)
		}
	}
	// Already at the last step with approvals outstanding: the state
	// holds until the remaining approvers act.

	return result, nil
}

func (s *approvalServiceImpl) mapExpenseTransitionErr(expense *entity.Expense, err error) error {
	if errors.Is(err, workflow.ErrTerminalState) {
		return fmt.Errorf("%w: expense %d is %s", ErrInvalidActionState, expense.ID, expense.Status)
	}
	return err
}

// ListPending returns the principal's actionable queue: their pending
// requests on pending expenses whose step order is the expense's
// current step.
func (s *approvalServiceImpl) ListPending(ctx context.Context, principal entity.Principal) ([]*port.PendingApproval, error) {
	approvals, err := s.requestRepo.ListPendingForApprover(ctx, principal.UserID)
	if err != nil {
		s.logger.Error("Failed to list pending approvals",
			"approver_id", principal.UserID,
			"error", err)
		return nil, err
	}
	return approvals, nil
}
