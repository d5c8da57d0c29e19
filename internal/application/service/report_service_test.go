package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

func TestExportExpenses(t *testing.T) {
	expenseRepo := newMockExpenseRepo()
	expenseRepo.summaries = []*port.ExpenseSummary{
		{
			Expense: entity.Expense{
				ID:                  1,
				Amount:              120,
				Currency:            "EUR",
				ConvertedAmount:     132,
				Status:              entity.ExpenseStatusApproved,
				CurrentApprovalStep: 3,
				TotalApprovalSteps:  3,
				ExpenseDate:         time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
				CreatedAt:           time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC),
			},
			EmployeeName: "Dana Lee",
			CategoryName: "Travel",
		},
		{
			Expense: entity.Expense{
				ID:       2,
				Amount:   40,
				Currency: "USD",
				Status:   entity.ExpenseStatusPending,
			},
			EmployeeName: "Sam Roe",
			CategoryName: "Meals",
		},
	}

	svc := NewReportService(expenseRepo, nopLogger{})

	filename, data, err := svc.ExportExpenses(context.Background(),
		entity.Principal{UserID: 5, CompanyID: 1, Role: entity.RoleAdmin})
	require.NoError(t, err)
	assert.Contains(t, filename, "expenses_1_")
	assert.Contains(t, filename, ".xlsx")

	// The payload is a readable workbook with a header row plus one row
	// per expense.
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer workbook.Close()

	rows, err := workbook.GetRows("Expenses")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Dana Lee", rows[1][1])
	assert.Equal(t, "Travel", rows[1][2])
	assert.Equal(t, "approved", rows[1][6])
	assert.Equal(t, "Sam Roe", rows[2][1])
}

func TestExportExpenses_EmptyCompany(t *testing.T) {
	svc := NewReportService(newMockExpenseRepo(), nopLogger{})

	_, data, err := svc.ExportExpenses(context.Background(),
		entity.Principal{UserID: 5, CompanyID: 1, Role: entity.RoleAdmin})
	require.NoError(t, err)

	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer workbook.Close()

	rows, err := workbook.GetRows("Expenses")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
