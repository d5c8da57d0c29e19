package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// ReportService exports company expense data for offline review
type ReportService interface {
	// ExportExpenses renders all company expenses as an .xlsx workbook
	ExportExpenses(ctx context.Context, principal entity.Principal) (filename string, data []byte, err error)
}

type reportServiceImpl struct {
	expenseRepo port.ExpenseRepository
	logger      Logger
}

// NewReportService creates a new ReportService
func NewReportService(expenseRepo port.ExpenseRepository, logger Logger) ReportService {
	return &reportServiceImpl{
		expenseRepo: expenseRepo,
		logger:      logger,
	}
}

var reportHeaders = []string{
	"ID", "Employee", "Category", "Amount", "Currency", "Converted Amount",
	"Status", "Current Step", "Total Steps", "Director Override", "Expense Date", "Submitted At",
}

// ExportExpenses writes one worksheet of company expenses
func (s *reportServiceImpl) ExportExpenses(ctx context.Context, principal entity.Principal) (string, []byte, error) {
	expenses, err := s.expenseRepo.ListByCompany(ctx, principal.CompanyID, 0)
	if err != nil {
		return "", nil, fmt.Errorf("list expenses: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Expenses"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", nil, fmt.Errorf("rename sheet: %w", err)
	}

	for col, header := range reportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return "", nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return "", nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, summary := range expenses {
		e := summary.Expense
		row := []interface{}{
			e.ID,
			summary.EmployeeName,
			summary.CategoryName,
			e.Amount,
			e.Currency,
			e.ConvertedAmount,
			e.Status,
			e.CurrentApprovalStep,
			e.TotalApprovalSteps,
			e.DirectorOverride,
			e.ExpenseDate.Format("2006-01-02"),
			e.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", nil, fmt.Errorf("row cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return "", nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return "", nil, fmt.Errorf("write workbook: %w", err)
	}

	filename := fmt.Sprintf("expenses_%d_%s.xlsx", principal.CompanyID, time.Now().Format("20060102"))

	s.logger.Info("Expense report exported",
		"company_id", principal.CompanyID,
		"rows", len(expenses))

	return filename, buf.Bytes(), nil
}
