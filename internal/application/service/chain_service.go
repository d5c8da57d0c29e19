package service

import (
	"context"
	"fmt"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// ChainService builds the ordered approver chain a new expense must
// traverse: the employee's manager, then the company's finance,
// director and admin role holders. Every stage is optional; step orders
// stay contiguous over the stages that resolve.
type ChainService interface {
	BuildChain(ctx context.Context, companyID, employeeID int64) ([]entity.ApprovalChainEntry, error)
}

type chainServiceImpl struct {
	userRepo port.UserRepository
	logger   Logger
}

// NewChainService creates a new ChainService
func NewChainService(userRepo port.UserRepository, logger Logger) ChainService {
	return &chainServiceImpl{
		userRepo: userRepo,
		logger:   logger,
	}
}

// chainRoles are the functional stages that follow the manager stage,
// in chain order.
var chainRoles = []string{entity.RoleFinance, entity.RoleDirector, entity.RoleAdmin}

// BuildChain resolves the approval chain for an employee. An empty
// chain is valid: submission still succeeds and the expense carries
// zero approval steps.
func (s *chainServiceImpl) BuildChain(ctx context.Context, companyID, employeeID int64) ([]entity.ApprovalChainEntry, error) {
	var chain []entity.ApprovalChainEntry
	stepOrder := 1

	manager, err := s.userRepo.FindManagerOf(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("find manager: %w", err)
	}
	if manager != nil {
		chain = append(chain, entity.ApprovalChainEntry{ApproverID: manager.ID, StepOrder: stepOrder})
		stepOrder++
	}

	for _, role := range chainRoles {
		holder, err := s.userRepo.FindActiveRoleHolder(ctx, companyID, role)
		if err != nil {
			return nil, fmt.Errorf("find %s role holder: %w", role, err)
		}
		if holder == nil {
			continue
		}
		chain = append(chain, entity.ApprovalChainEntry{ApproverID: holder.ID, StepOrder: stepOrder})
		stepOrder++
	}

	if len(chain) == 0 {
		s.logger.Warn("Approval chain is empty",
			"company_id", companyID,
			"employee_id", employeeID)
	}

	return chain, nil
}
