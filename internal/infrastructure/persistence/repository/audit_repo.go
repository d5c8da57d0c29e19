package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// AuditLogRepository implements port.AuditLogRepository. The table is
// append-only; no update or delete paths exist.
type AuditLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *sql.DB, logger *zap.Logger) port.AuditLogRepository {
	return &AuditLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends one audit row
func (r *AuditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	query := `
		INSERT INTO audit_logs (company_id, user_id, expense_id, action, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var expenseID interface{}
	if log.ExpenseID != nil {
		expenseID = *log.ExpenseID
	}

	result, err := pickExecutor(ctx, r.db).ExecContext(ctx, query,
		log.CompanyID,
		log.UserID,
		expenseID,
		log.Action,
		log.Details,
		log.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create audit log",
			zap.String("action", log.Action),
			zap.Error(err))
		return fmt.Errorf("create audit log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	log.ID = id
	return nil
}

// Verify interface compliance
var _ port.AuditLogRepository = (*AuditLogRepository)(nil)
