package service

import (
	"context"
	"fmt"
	"time"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// LineItemInput is one supplied expense line
type LineItemInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}

// SubmitExpenseInput carries the attributes of a new expense
type SubmitExpenseInput struct {
	CategoryID   int64           `json:"category_id"`
	Amount       float64         `json:"amount"`
	Currency     string          `json:"currency"`
	Description  string          `json:"description"`
	ExpenseDate  time.Time       `json:"expense_date"`
	MerchantName string          `json:"merchant_name"`
	ReceiptURL   string          `json:"receipt_url"`
	LineItems    []LineItemInput `json:"line_items"`
}

// SubmitExpenseResult reports the created expense and its chain length
type SubmitExpenseResult struct {
	ExpenseID     int64 `json:"expense_id"`
	ApprovalSteps int   `json:"approval_steps"`
}

// ExpenseDetail is a full expense view: the expense, its ordered
// approval steps and its line items.
type ExpenseDetail struct {
	Expense   *port.ExpenseSummary      `json:"expense"`
	Approvals []*port.ApprovalStep      `json:"approvals"`
	LineItems []*entity.ExpenseLineItem `json:"line_items"`
}

// ExpenseService coordinates expense submission and read access.
// Submission is one atomic transaction: expense, line items, the
// materialized approval chain and the audit entry all commit together.
type ExpenseService interface {
	Submit(ctx context.Context, principal entity.Principal, input SubmitExpenseInput) (*SubmitExpenseResult, error)
	List(ctx context.Context, principal entity.Principal) ([]*port.ExpenseSummary, error)
	Get(ctx context.Context, principal entity.Principal, expenseID int64) (*ExpenseDetail, error)
	Recent(ctx context.Context, principal entity.Principal, limit int) ([]*port.ExpenseSummary, error)
}

type expenseServiceImpl struct {
	expenseRepo  port.ExpenseRepository
	lineItemRepo port.LineItemRepository
	requestRepo  port.ApprovalRequestRepository
	companyRepo  port.CompanyRepository
	categoryRepo port.CategoryRepository
	chainService ChainService
	auditService AuditService
	notifier     NotificationService
	converter    port.CurrencyConverter
	txManager    port.TransactionManager
	logger       Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	expenseRepo port.ExpenseRepository,
	lineItemRepo port.LineItemRepository,
	requestRepo port.ApprovalRequestRepository,
	companyRepo port.CompanyRepository,
	categoryRepo port.CategoryRepository,
	chainService ChainService,
	auditService AuditService,
	notifier NotificationService,
	converter port.CurrencyConverter,
	txManager port.TransactionManager,
	logger Logger,
) ExpenseService {
	return &expenseServiceImpl{
		expenseRepo:  expenseRepo,
		lineItemRepo: lineItemRepo,
		requestRepo:  requestRepo,
		companyRepo:  companyRepo,
		categoryRepo: categoryRepo,
		chainService: chainService,
		auditService: auditService,
		notifier:     notifier,
		converter:    converter,
		txManager:    txManager,
		logger:       logger,
	}
}

// Submit creates the expense and its approval requests atomically, then
// dispatches best-effort notifications after commit.
func (s *expenseServiceImpl) Submit(ctx context.Context, principal entity.Principal, input SubmitExpenseInput) (*SubmitExpenseResult, error) {
	if err := s.validate(ctx, principal, input); err != nil {
		return nil, err
	}

	company, err := s.companyRepo.GetByID(ctx, principal.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	if company == nil {
		return nil, fmt.Errorf("%w: company %d", ErrNotFound, principal.CompanyID)
	}

	// Best-effort conversion into the company default currency. A rate
	// lookup failure falls back to the raw amount and never blocks the
	// submission.
	converted, err := s.converter.Convert(ctx, input.Amount, input.Currency, company.DefaultCurrency)
	if err != nil {
		s.logger.Warn("Currency conversion failed, using unconverted amount",
			"from", input.Currency,
			"to", company.DefaultCurrency,
			"error", err)
		converted = input.Amount
	}

	expense := &entity.Expense{
		CompanyID:           principal.CompanyID,
		EmployeeID:          principal.UserID,
		CategoryID:          input.CategoryID,
		Amount:              input.Amount,
		Currency:            input.Currency,
		ConvertedAmount:     converted,
		Description:         input.Description,
		ExpenseDate:         input.ExpenseDate,
		MerchantName:        input.MerchantName,
		ReceiptURL:          input.ReceiptURL,
		Status:              entity.ExpenseStatusPending,
		CurrentApprovalStep: 1,
		CreatedAt:           time.Now(),
	}

	var chain []entity.ApprovalChainEntry

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.expenseRepo.Create(txCtx, expense); err != nil {
			return fmt.Errorf("create expense: %w", err)
		}

		for _, item := range input.LineItems {
			lineItem := &entity.ExpenseLineItem{
				ExpenseID:   expense.ID,
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Amount:      item.Amount,
			}
			if err := s.lineItemRepo.Create(txCtx, lineItem); err != nil {
				return fmt.Errorf("create line item: %w", err)
			}
		}

		chain, err = s.chainService.BuildChain(txCtx, principal.CompanyID, principal.UserID)
		if err != nil {
			return fmt.Errorf("build approval chain: %w", err)
		}

		expense.TotalApprovalSteps = len(chain)
		if err := s.expenseRepo.SetTotalSteps(txCtx, expense.ID, len(chain)); err != nil {
			return fmt.Errorf("set total steps: %w", err)
		}

		for _, entry := range chain {
			request := &entity.ApprovalRequest{
				ExpenseID:  expense.ID,
				ApproverID: entry.ApproverID,
				StepOrder:  entry.StepOrder,
				Status:     entity.ApprovalStatusPending,
				CreatedAt:  time.Now(),
			}
			if err := s.requestRepo.Create(txCtx, request); err != nil {
				return fmt.Errorf("create approval request: %w", err)
			}
		}

		if err := s.auditService.Record(txCtx, principal.CompanyID, principal.UserID, &expense.ID,
			entity.AuditExpenseSubmitted, map[string]interface{}{
				"amount":      input.Amount,
				"currency":    input.Currency,
				"category_id": input.CategoryID,
				"steps":       len(chain),
			}); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		return nil
	})

	if err != nil {
		s.logger.Error("Failed to submit expense",
			"error", err,
			"employee_id", principal.UserID)
		return nil, err
	}

	s.logger.Info("Expense submitted",
		"expense_id", expense.ID,
		"employee_id", principal.UserID,
		"approval_steps", len(chain))

	// Notifications fire only after commit and never fail the submission.
	if err := s.notifier.NotifySubmission(ctx, expense.ID); err != nil {
		s.logger.Warn("Submission notification failed",
			"expense_id", expense.ID,
			"error", err)
	}

	return &SubmitExpenseResult{
		ExpenseID:     expense.ID,
		ApprovalSteps: len(chain),
	}, nil
}

func (s *expenseServiceImpl) validate(ctx context.Context, principal entity.Principal, input SubmitExpenseInput) error {
	if input.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if input.Currency == "" {
		return fmt.Errorf("%w: currency is required", ErrValidation)
	}
	if input.CategoryID == 0 {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	if input.ExpenseDate.IsZero() {
		return fmt.Errorf("%w: expense date is required", ErrValidation)
	}

	category, err := s.categoryRepo.GetByID(ctx, input.CategoryID)
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	if category == nil || category.CompanyID != principal.CompanyID {
		return fmt.Errorf("%w: unknown category %d", ErrValidation, input.CategoryID)
	}

	return nil
}

// List returns expenses visible to the principal: the whole company for
// admins, chain involvement for approver roles, own expenses otherwise.
func (s *expenseServiceImpl) List(ctx context.Context, principal entity.Principal) ([]*port.ExpenseSummary, error) {
	return s.listScoped(ctx, principal, 0)
}

// Recent returns the newest visible expenses, capped at limit
func (s *expenseServiceImpl) Recent(ctx context.Context, principal entity.Principal, limit int) ([]*port.ExpenseSummary, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.listScoped(ctx, principal, limit)
}

func (s *expenseServiceImpl) listScoped(ctx context.Context, principal entity.Principal, limit int) ([]*port.ExpenseSummary, error) {
	switch principal.Role {
	case entity.RoleAdmin:
		return s.expenseRepo.ListByCompany(ctx, principal.CompanyID, limit)
	case entity.RoleManager, entity.RoleFinance, entity.RoleDirector:
		return s.expenseRepo.ListForApprover(ctx, principal.CompanyID, principal.UserID, limit)
	default:
		return s.expenseRepo.ListByEmployee(ctx, principal.UserID, limit)
	}
}

// Get returns the expense with its approval steps and line items.
// Cross-company access resolves to not found.
func (s *expenseServiceImpl) Get(ctx context.Context, principal entity.Principal, expenseID int64) (*ExpenseDetail, error) {
	expense, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if expense == nil || expense.CompanyID != principal.CompanyID {
		return nil, fmt.Errorf("%w: expense %d", ErrNotFound, expenseID)
	}

	approvals, err := s.requestRepo.ListByExpense(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}

	lineItems, err := s.lineItemRepo.GetByExpenseID(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}

	category, err := s.categoryRepo.GetByID(ctx, expense.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}

	summary := &port.ExpenseSummary{Expense: *expense}
	if category != nil {
		summary.CategoryName = category.Name
	}

	return &ExpenseDetail{
		Expense:   summary,
		Approvals: approvals,
		LineItems: lineItems,
	}, nil
}
