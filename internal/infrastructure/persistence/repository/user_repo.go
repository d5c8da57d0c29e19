package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `
		SELECT id, company_id, email, first_name, last_name, role, manager_id, is_active, created_at
		FROM users
		WHERE id = ?
	`
	return r.scanOne(ctx, query, id)
}

// FindManagerOf returns the direct manager of an employee, or nil if
// none is assigned
func (r *UserRepository) FindManagerOf(ctx context.Context, employeeID int64) (*entity.User, error) {
	query := `
		SELECT m.id, m.company_id, m.email, m.first_name, m.last_name, m.role, m.manager_id, m.is_active, m.created_at
		FROM users u
		JOIN users m ON u.manager_id = m.id
		WHERE u.id = ?
	`
	return r.scanOne(ctx, query, employeeID)
}

// FindActiveRoleHolder returns the lowest-id active holder of the role
// in the company. ORDER BY id is the deterministic tie-break when a
// role is staffed more than once.
func (r *UserRepository) FindActiveRoleHolder(ctx context.Context, companyID int64, role string) (*entity.User, error) {
	query := `
		SELECT id, company_id, email, first_name, last_name, role, manager_id, is_active, created_at
		FROM users
		WHERE company_id = ? AND role = ? AND is_active = 1
		ORDER BY id
		LIMIT 1
	`
	return r.scanOne(ctx, query, companyID, role)
}

// ListDirectory returns the company's users, newest first, with the
// manager's display name resolved
func (r *UserRepository) ListDirectory(ctx context.Context, companyID int64) ([]*port.DirectoryEntry, error) {
	query := `
		SELECT u.id, u.company_id, u.email, u.first_name, u.last_name, u.role, u.manager_id, u.is_active, u.created_at,
		       COALESCE(m.first_name || ' ' || m.last_name, '')
		FROM users u
		LEFT JOIN users m ON u.manager_id = m.id
		WHERE u.company_id = ?
		ORDER BY u.created_at DESC, u.id DESC
	`
	rows, err := pickExecutor(ctx, r.db).QueryContext(ctx, query, companyID)
	if err != nil {
		r.logger.Error("Failed to list user directory", zap.Error(err))
		return nil, fmt.Errorf("list user directory: %w", err)
	}
	defer rows.Close()

	var entries []*port.DirectoryEntry
	for rows.Next() {
		var entry port.DirectoryEntry
		var managerID sql.NullInt64
		err := rows.Scan(
			&entry.User.ID,
			&entry.User.CompanyID,
			&entry.User.Email,
			&entry.User.FirstName,
			&entry.User.LastName,
			&entry.User.Role,
			&managerID,
			&entry.User.IsActive,
			&entry.User.CreatedAt,
			&entry.ManagerName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan directory entry: %w", err)
		}
		if managerID.Valid {
			entry.User.ManagerID = &managerID.Int64
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// UpdateDirectory sets the role, manager and active flag of a user
// scoped to the company
func (r *UserRepository) UpdateDirectory(ctx context.Context, companyID, userID int64, role string, managerID *int64, isActive bool) (bool, error) {
	query := `
		UPDATE users
		SET role = ?, manager_id = ?, is_active = ?
		WHERE id = ? AND company_id = ?
	`
	result, err := pickExecutor(ctx, r.db).ExecContext(ctx, query, role, managerID, isActive, userID, companyID)
	if err != nil {
		r.logger.Error("Failed to update user", zap.Int64("user_id", userID), zap.Error(err))
		return false, fmt.Errorf("update user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update user rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *UserRepository) scanOne(ctx context.Context, query string, args ...interface{}) (*entity.User, error) {
	var user entity.User
	var managerID sql.NullInt64

	err := pickExecutor(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.CompanyID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&managerID,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to query user", zap.Error(err))
		return nil, fmt.Errorf("query user: %w", err)
	}

	if managerID.Valid {
		user.ManagerID = &managerID.Int64
	}
	return &user, nil
}

// Verify interface compliance
var _ port.UserRepository = (*UserRepository)(nil)
