package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

func newUserFixture() (UserService, *mockUserRepo, *mockAuditRepo) {
	managerID := int64(2)
	userRepo := &mockUserRepo{
		users: map[int64]*entity.User{
			2:  {ID: 2, CompanyID: 1, FirstName: "Max", LastName: "Lin", Role: entity.RoleManager, IsActive: true},
			10: {ID: 10, CompanyID: 1, FirstName: "Dana", LastName: "Lee", Role: entity.RoleEmployee, ManagerID: &managerID, IsActive: true},
			30: {ID: 30, CompanyID: 9, FirstName: "Remy", LastName: "Cho", Role: entity.RoleEmployee, IsActive: true},
		},
	}
	auditRepo := &mockAuditRepo{}
	svc := NewUserService(userRepo, NewAuditService(auditRepo, nopLogger{}), &mockTxManager{}, nopLogger{})
	return svc, userRepo, auditRepo
}

func TestUserDirectory(t *testing.T) {
	svc, _, _ := newUserFixture()

	entries, err := svc.Directory(context.Background(), admin())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	names := map[int64]string{}
	for _, entry := range entries {
		names[entry.User.ID] = entry.ManagerName
	}
	assert.Equal(t, "Max Lin", names[10])
	assert.Empty(t, names[2])
}

func TestUpdateUser(t *testing.T) {
	svc, userRepo, auditRepo := newUserFixture()

	err := svc.Update(context.Background(), admin(), 10, UpdateUserInput{Role: entity.RoleFinance})
	require.NoError(t, err)

	user := userRepo.users[10]
	assert.Equal(t, entity.RoleFinance, user.Role)
	assert.Nil(t, user.ManagerID)
	assert.True(t, user.IsActive, "is_active defaults to true when omitted")

	require.Len(t, auditRepo.logs, 1)
	assert.Equal(t, entity.AuditUserUpdated, auditRepo.logs[0].Action)
}

func TestUpdateUser_Deactivate(t *testing.T) {
	svc, userRepo, _ := newUserFixture()

	inactive := false
	err := svc.Update(context.Background(), admin(), 10, UpdateUserInput{
		Role:     entity.RoleEmployee,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.False(t, userRepo.users[10].IsActive)
}

func TestUpdateUser_Validation(t *testing.T) {
	svc, _, auditRepo := newUserFixture()

	err := svc.Update(context.Background(), admin(), 10, UpdateUserInput{Role: "intern"})
	assert.ErrorIs(t, err, ErrValidation)

	self := int64(10)
	err = svc.Update(context.Background(), admin(), 10, UpdateUserInput{
		Role:      entity.RoleEmployee,
		ManagerID: &self,
	})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, auditRepo.logs)
}

func TestUpdateUser_NotFound(t *testing.T) {
	svc, _, auditRepo := newUserFixture()

	err := svc.Update(context.Background(), admin(), 999, UpdateUserInput{Role: entity.RoleEmployee})
	assert.ErrorIs(t, err, ErrNotFound)

	// A user of another company is indistinguishable from a missing one.
	err = svc.Update(context.Background(), admin(), 30, UpdateUserInput{Role: entity.RoleEmployee})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, auditRepo.logs)
}
