package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

func TestDashboardStats_ByRole(t *testing.T) {
	expenseRepo := newMockExpenseRepo()
	expenseRepo.companyStats = &port.CompanyExpenseStats{TotalCount: 12, ApprovedAmount: 840.5}
	expenseRepo.employeeStats = &port.EmployeeExpenseStats{TotalCount: 3, PendingCount: 1}

	requestRepo := newMockRequestRepo()
	requestRepo.pendingCount = 4

	svc := NewDashboardService(expenseRepo, requestRepo, nopLogger{})
	ctx := context.Background()

	t.Run("admin sees company totals", func(t *testing.T) {
		stats, err := svc.Stats(ctx, entity.Principal{UserID: 5, CompanyID: 1, Role: entity.RoleAdmin})
		require.NoError(t, err)
		require.NotNil(t, stats.Company)
		assert.Equal(t, 12, stats.Company.TotalCount)
		assert.Nil(t, stats.PendingApprovals)
		assert.Nil(t, stats.Mine)
	})

	t.Run("approver sees queue size", func(t *testing.T) {
		for _, role := range []string{entity.RoleManager, entity.RoleFinance, entity.RoleDirector} {
			stats, err := svc.Stats(ctx, entity.Principal{UserID: 2, CompanyID: 1, Role: role})
			require.NoError(t, err)
			require.NotNil(t, stats.PendingApprovals)
			assert.Equal(t, 4, *stats.PendingApprovals)
			assert.Nil(t, stats.Company)
		}
	})

	t.Run("employee sees own counts", func(t *testing.T) {
		stats, err := svc.Stats(ctx, entity.Principal{UserID: 10, CompanyID: 1, Role: entity.RoleEmployee})
		require.NoError(t, err)
		require.NotNil(t, stats.Mine)
		assert.Equal(t, 3, stats.Mine.TotalCount)
	})
}
