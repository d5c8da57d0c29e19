package service

import (
	"context"
	"fmt"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// NotificationService sends workflow emails. Every method is
// best-effort: callers log failures and move on, the workflow never
// rolls back over a lost email.
type NotificationService interface {
	// NotifySubmission confirms the submission to the employee and
	// alerts the step-1 approver, if one exists.
	NotifySubmission(ctx context.Context, expenseID int64) error

	// NotifyDecision informs the employee of an approve/reject action.
	NotifyDecision(ctx context.Context, expenseID int64, action, comments string, actorID int64) error
}

type notificationServiceImpl struct {
	expenseRepo  port.ExpenseRepository
	requestRepo  port.ApprovalRequestRepository
	userRepo     port.UserRepository
	categoryRepo port.CategoryRepository
	mailSender   port.MailSender
	logger       Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	expenseRepo port.ExpenseRepository,
	requestRepo port.ApprovalRequestRepository,
	userRepo port.UserRepository,
	categoryRepo port.CategoryRepository,
	mailSender port.MailSender,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		expenseRepo:  expenseRepo,
		requestRepo:  requestRepo,
		userRepo:     userRepo,
		categoryRepo: categoryRepo,
		mailSender:   mailSender,
		logger:       logger,
	}
}

// NotifySubmission sends the submission confirmation and the first
// approver alert.
func (s *notificationServiceImpl) NotifySubmission(ctx context.Context, expenseID int64) error {
	expense, employee, categoryName, err := s.loadExpenseContext(ctx, expenseID)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: #667eea; padding: 30px; text-align: center;">
    <h1 style="color: white; margin: 0;">ExpenseFlow</h1>
  </div>
  <div style="padding: 30px; background: #f9f9f9;">
    <h2 style="color: #333;">Expense Submitted Successfully!</h2>
    <p style="color: #666;">Hi %s,</p>
    <p style="color: #666;">Your expense has been submitted.</p>
    <div style="background: white; padding: 20px; border-radius: 8px; margin: 20px 0;">
      <p style="margin: 8px 0;"><strong>Amount:</strong> %s %.2f</p>
      <p style="margin: 8px 0;"><strong>Category:</strong> %s</p>
    </div>
  </div>
</div>`, employee.FirstName, expense.Currency, expense.Amount, categoryName)

	if err := s.mailSender.Send(ctx, employee.Email, "Expense Submitted Successfully - ExpenseFlow", body); err != nil {
		return fmt.Errorf("send submission confirmation: %w", err)
	}

	// Alert the step-1 approver if the chain is non-empty.
	steps, err := s.requestRepo.ListByExpense(ctx, expenseID)
	if err != nil {
		return fmt.Errorf("list approval steps: %w", err)
	}
	for _, step := range steps {
		if step.Request.StepOrder != 1 {
			continue
		}
		alert := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: #f59e0b; padding: 30px; text-align: center;">
    <h1 style="color: white;">New Expense Requires Approval</h1>
  </div>
  <div style="padding: 30px; background: #f9f9f9;">
    <p>New expense from %s</p>
    <p><strong>Amount:</strong> %s %.2f</p>
  </div>
</div>`, employee.FullName(), expense.Currency, expense.Amount)

		if err := s.mailSender.Send(ctx, step.ApproverEmail, "New Expense Awaiting Your Approval - ExpenseFlow", alert); err != nil {
			return fmt.Errorf("send approver alert: %w", err)
		}
		break
	}

	return nil
}

// NotifyDecision tells the employee their expense was acted on
func (s *notificationServiceImpl) NotifyDecision(ctx context.Context, expenseID int64, action, comments string, actorID int64) error {
	_, employee, _, err := s.loadExpenseContext(ctx, expenseID)
	if err != nil {
		return err
	}

	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("get actor: %w", err)
	}
	actorName, actorRole := "an approver", ""
	if actor != nil {
		actorName, actorRole = actor.FirstName, actor.Role
	}

	status, color := "Approved", "#10b981"
	if action == entity.ActionReject {
		status, color = "Rejected", "#ef4444"
	}

	commentBlock := ""
	if comments != "" {
		commentBlock = fmt.Sprintf("<p><strong>Comments:</strong> %s</p>", comments)
	}

	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: %s; padding: 30px; text-align: center;">
    <h1 style="color: white;">Expense %s</h1>
  </div>
  <div style="padding: 30px; background: #f9f9f9;">
    <p>Hi %s,</p>
    <p>Your expense has been %sd by %s (%s).</p>
    %s
  </div>
</div>`, color, status, employee.FirstName, action, actorName, actorRole, commentBlock)

	if err := s.mailSender.Send(ctx, employee.Email, fmt.Sprintf("Expense %s - ExpenseFlow", status), body); err != nil {
		return fmt.Errorf("send decision notification: %w", err)
	}

	return nil
}

func (s *notificationServiceImpl) loadExpenseContext(ctx context.Context, expenseID int64) (*entity.Expense, *entity.User, string, error) {
	expense, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, nil, "", fmt.Errorf("get expense: %w", err)
	}
	if expense == nil {
		return nil, nil, "", fmt.Errorf("expense %d not found", expenseID)
	}

	employee, err := s.userRepo.GetByID(ctx, expense.EmployeeID)
	if err != nil {
		return nil, nil, "", fmt.Errorf("get employee: %w", err)
	}
	if employee == nil {
		return nil, nil, "", fmt.Errorf("employee %d not found", expense.EmployeeID)
	}

	categoryName := ""
	if category, err := s.categoryRepo.GetByID(ctx, expense.CategoryID); err == nil && category != nil {
		categoryName = category.Name
	}

	return expense, employee, categoryName, nil
}
