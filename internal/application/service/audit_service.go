package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// AuditService appends state transition records to the audit log.
// It is write-only from the workflow's point of view.
type AuditService interface {
	Record(ctx context.Context, companyID, actorID int64, expenseID *int64, action string, details map[string]interface{}) error
}

type auditServiceImpl struct {
	auditRepo port.AuditLogRepository
	logger    Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(auditRepo port.AuditLogRepository, logger Logger) AuditService {
	return &auditServiceImpl{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Record appends one audit row. Callers invoke it inside the mutating
// transaction so the audit entry commits or rolls back with the
// transition it describes.
func (s *auditServiceImpl) Record(ctx context.Context, companyID, actorID int64, expenseID *int64, action string, details map[string]interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	log := &entity.AuditLog{
		CompanyID: companyID,
		UserID:    actorID,
		ExpenseID: expenseID,
		Action:    action,
		Details:   string(payload),
		CreatedAt: time.Now(),
	}

	if err := s.auditRepo.Create(ctx, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}

	return nil
}
