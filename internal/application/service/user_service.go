package service

import (
	"context"
	"fmt"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// UpdateUserInput carries the directory attributes an admin may change.
// IsActive defaults to true when omitted.
type UpdateUserInput struct {
	Role      string `json:"role"`
	ManagerID *int64 `json:"manager_id"`
	IsActive  *bool  `json:"is_active"`
}

// UserService exposes the company user directory. Role, manager and
// active-flag changes flow into future approval chains; chains already
// materialized as approval requests are unaffected.
type UserService interface {
	Directory(ctx context.Context, principal entity.Principal) ([]*port.DirectoryEntry, error)
	Update(ctx context.Context, principal entity.Principal, userID int64, input UpdateUserInput) error
}

type userServiceImpl struct {
	userRepo     port.UserRepository
	auditService AuditService
	txManager    port.TransactionManager
	logger       Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo port.UserRepository, auditService AuditService, txManager port.TransactionManager, logger Logger) UserService {
	return &userServiceImpl{
		userRepo:     userRepo,
		auditService: auditService,
		txManager:    txManager,
		logger:       logger,
	}
}

// Directory returns the company's users, newest first
func (s *userServiceImpl) Directory(ctx context.Context, principal entity.Principal) ([]*port.DirectoryEntry, error) {
	entries, err := s.userRepo.ListDirectory(ctx, principal.CompanyID)
	if err != nil {
		s.logger.Error("Failed to list user directory",
			"company_id", principal.CompanyID,
			"error", err)
		return nil, err
	}
	return entries, nil
}

// Update changes a user's role, manager and active flag, and audits
// the change
func (s *userServiceImpl) Update(ctx context.Context, principal entity.Principal, userID int64, input UpdateUserInput) error {
	if !entity.ValidRoles[input.Role] {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, input.Role)
	}
	if input.ManagerID != nil && *input.ManagerID == userID {
		return fmt.Errorf("%w: a user cannot manage themselves", ErrValidation)
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		updated, err := s.userRepo.UpdateDirectory(txCtx, principal.CompanyID, userID, input.Role, input.ManagerID, isActive)
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if !updated {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return s.auditService.Record(txCtx, principal.CompanyID, principal.UserID, nil,
			entity.AuditUserUpdated, map[string]interface{}{
				"user_id":    userID,
				"role":       input.Role,
				"manager_id": input.ManagerID,
				"is_active":  isActive,
			})
	})
	if err != nil {
		s.logger.Error("Failed to update user",
			"user_id", userID,
			"company_id", principal.CompanyID,
			"error", err)
		return err
	}

	s.logger.Info("User updated",
		"user_id", userID,
		"role", input.Role,
		"company_id", principal.CompanyID)
	return nil
}
