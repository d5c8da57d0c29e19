package service

import (
	"context"
	"fmt"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// DashboardStats is the role-scoped stats payload. Only the fields for
// the principal's role are populated.
type DashboardStats struct {
	// Admin scope
	Company *port.CompanyExpenseStats `json:"company,omitempty"`

	// Approver scope
	PendingApprovals *int `json:"pending_approvals,omitempty"`

	// Employee scope
	Mine *port.EmployeeExpenseStats `json:"mine,omitempty"`
}

// DashboardService serves role-scoped dashboard figures
type DashboardService interface {
	Stats(ctx context.Context, principal entity.Principal) (*DashboardStats, error)
}

type dashboardServiceImpl struct {
	expenseRepo port.ExpenseRepository
	requestRepo port.ApprovalRequestRepository
	logger      Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(expenseRepo port.ExpenseRepository, requestRepo port.ApprovalRequestRepository, logger Logger) DashboardService {
	return &dashboardServiceImpl{
		expenseRepo: expenseRepo,
		requestRepo: requestRepo,
		logger:      logger,
	}
}

// Stats returns the figures for the principal's role: company-wide
// totals for admins, the actionable queue size for approver roles, own
// expense counts for employees.
func (s *dashboardServiceImpl) Stats(ctx context.Context, principal entity.Principal) (*DashboardStats, error) {
	switch principal.Role {
	case entity.RoleAdmin:
		company, err := s.expenseRepo.CompanyStats(ctx, principal.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("company stats: %w", err)
		}
		return &DashboardStats{Company: company}, nil

	case entity.RoleManager, entity.RoleFinance, entity.RoleDirector:
		pending, err := s.requestRepo.CountPendingForApprover(ctx, principal.UserID)
		if err != nil {
			return nil, fmt.Errorf("pending approvals count: %w", err)
		}
		return &DashboardStats{PendingApprovals: &pending}, nil

	default:
		mine, err := s.expenseRepo.EmployeeStats(ctx, principal.UserID)
		if err != nil {
			return nil, fmt.Errorf("employee stats: %w", err)
		}
		return &DashboardStats{Mine: mine}, nil
	}
}
