package service

import (
	"context"
	"sync"
	"time"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// nopLogger satisfies Logger for tests
type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// mockTxManager serializes transactions with a mutex so concurrency
// tests see the same one-at-a-time semantics SQLite gives writers.
type mockTxManager struct {
	mu sync.Mutex
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

type mockUserRepo struct {
	users       map[int64]*entity.User
	managers    map[int64]*entity.User
	roleHolders map[string]*entity.User
	err         error
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users[id], nil
}

func (m *mockUserRepo) FindManagerOf(_ context.Context, employeeID int64) (*entity.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.managers[employeeID], nil
}

func (m *mockUserRepo) FindActiveRoleHolder(_ context.Context, _ int64, role string) (*entity.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.roleHolders[role], nil
}

func (m *mockUserRepo) ListDirectory(_ context.Context, companyID int64) ([]*port.DirectoryEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	var entries []*port.DirectoryEntry
	for _, user := range m.users {
		if user.CompanyID != companyID {
			continue
		}
		entry := &port.DirectoryEntry{User: *user}
		if user.ManagerID != nil {
			if manager, ok := m.users[*user.ManagerID]; ok {
				entry.ManagerName = manager.FullName()
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (m *mockUserRepo) UpdateDirectory(_ context.Context, companyID, userID int64, role string, managerID *int64, isActive bool) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	user, ok := m.users[userID]
	if !ok || user.CompanyID != companyID {
		return false, nil
	}
	user.Role = role
	user.ManagerID = managerID
	user.IsActive = isActive
	return true, nil
}

type mockCompanyRepo struct {
	companies map[int64]*entity.Company
	err       error
}

func (m *mockCompanyRepo) GetByID(_ context.Context, id int64) (*entity.Company, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.companies[id], nil
}

type mockCategoryRepo struct {
	categories map[int64]*entity.ExpenseCategory
	err        error
}

func (m *mockCategoryRepo) GetByID(_ context.Context, id int64) (*entity.ExpenseCategory, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.categories[id], nil
}

func (m *mockCategoryRepo) ListActive(_ context.Context, companyID int64) ([]*entity.ExpenseCategory, error) {
	if m.err != nil {
		return nil, m.err
	}
	var active []*entity.ExpenseCategory
	for _, cat := range m.categories {
		if cat.CompanyID == companyID && cat.IsActive {
			active = append(active, cat)
		}
	}
	return active, nil
}

// mockExpenseRepo keeps expenses in a map and applies the same guarded
// mutations the SQL implementation does.
type mockExpenseRepo struct {
	mu        sync.Mutex
	expenses  map[int64]*entity.Expense
	nextID    int64
	createErr error
	getErr    error

	companyStats  *port.CompanyExpenseStats
	employeeStats *port.EmployeeExpenseStats
	summaries     []*port.ExpenseSummary
}

func newMockExpenseRepo() *mockExpenseRepo {
	return &mockExpenseRepo{expenses: map[int64]*entity.Expense{}, nextID: 1}
}

func (m *mockExpenseRepo) Create(_ context.Context, expense *entity.Expense) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	expense.ID = m.nextID
	m.nextID++
	copied := *expense
	m.expenses[expense.ID] = &copied
	return nil
}

func (m *mockExpenseRepo) GetByID(_ context.Context, id int64) (*entity.Expense, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	expense, ok := m.expenses[id]
	if !ok {
		return nil, nil
	}
	copied := *expense
	return &copied, nil
}

func (m *mockExpenseRepo) SetTotalSteps(_ context.Context, id int64, total int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses[id].TotalApprovalSteps = total
	return nil
}

func (m *mockExpenseRepo) MarkRejected(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses[id].Status = entity.ExpenseStatusRejected
	return nil
}

func (m *mockExpenseRepo) Finalize(_ context.Context, id int64, approverID int64, override bool, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	expense := m.expenses[id]
	expense.Status = entity.ExpenseStatusApproved
	expense.FinalApprovedAt = &at
	expense.FinalApprovedBy = &approverID
	expense.DirectorOverride = override
	expense.CurrentApprovalStep = expense.TotalApprovalSteps
	return nil
}

func (m *mockExpenseRepo) AdvanceStep(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	expense := m.expenses[id]
	if expense.CurrentApprovalStep < expense.TotalApprovalSteps {
		expense.CurrentApprovalStep++
	}
	return nil
}

func (m *mockExpenseRepo) ListByCompany(_ context.Context, _ int64, _ int) ([]*port.ExpenseSummary, error) {
	return m.summaries, nil
}

func (m *mockExpenseRepo) ListByEmployee(_ context.Context, _ int64, _ int) ([]*port.ExpenseSummary, error) {
	return m.summaries, nil
}

func (m *mockExpenseRepo) ListForApprover(_ context.Context, _, _ int64, _ int) ([]*port.ExpenseSummary, error) {
	return m.summaries, nil
}

func (m *mockExpenseRepo) CompanyStats(_ context.Context, _ int64) (*port.CompanyExpenseStats, error) {
	return m.companyStats, nil
}

func (m *mockExpenseRepo) EmployeeStats(_ context.Context, _ int64) (*port.EmployeeExpenseStats, error) {
	return m.employeeStats, nil
}

// mockRequestRepo mirrors the guarded Decide semantics of the SQL
// implementation: the transition applies only while the row is pending.
type mockRequestRepo struct {
	mu       sync.Mutex
	requests map[int64]*entity.ApprovalRequest
	nextID   int64

	pending      []*port.PendingApproval
	pendingCount int
	steps        []*port.ApprovalStep
	createErr    error
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{requests: map[int64]*entity.ApprovalRequest{}, nextID: 1}
}

func (m *mockRequestRepo) add(request entity.ApprovalRequest) *entity.ApprovalRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	request.ID = m.nextID
	m.nextID++
	m.requests[request.ID] = &request
	return &request
}

func (m *mockRequestRepo) Create(_ context.Context, request *entity.ApprovalRequest) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	request.ID = m.nextID
	m.nextID++
	copied := *request
	m.requests[request.ID] = &copied
	return nil
}

func (m *mockRequestRepo) GetByID(_ context.Context, id int64) (*entity.ApprovalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *request
	return &copied, nil
}

func (m *mockRequestRepo) GetByIDForApprover(_ context.Context, id, approverID int64) (*entity.ApprovalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[id]
	if !ok || request.ApproverID != approverID {
		return nil, nil
	}
	copied := *request
	return &copied, nil
}

func (m *mockRequestRepo) Decide(_ context.Context, id int64, status, comments string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[id]
	if !ok || request.Status != entity.ApprovalStatusPending {
		return false, nil
	}
	request.Status = status
	request.Comments = comments
	request.ApprovedAt = &at
	return true, nil
}

func (m *mockRequestRepo) CascadeReject(_ context.Context, expenseID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, request := range m.requests {
		if request.ExpenseID == expenseID && request.Status == entity.ApprovalStatusPending {
			request.Status = entity.ApprovalStatusRejected
		}
	}
	return nil
}

func (m *mockRequestRepo) OverrideApprove(_ context.Context, expenseID int64, comment string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, request := range m.requests {
		if request.ExpenseID == expenseID && request.Status == entity.ApprovalStatusPending {
			request.Status = entity.ApprovalStatusApproved
			request.Comments = comment
			request.ApprovedAt = &at
		}
	}
	return nil
}

func (m *mockRequestRepo) StatsByExpense(_ context.Context, expenseID int64) (entity.ApprovalStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stats entity.ApprovalStats
	for _, request := range m.requests {
		if request.ExpenseID != expenseID {
			continue
		}
		stats.Total++
		switch request.Status {
		case entity.ApprovalStatusApproved:
			stats.Approved++
		case entity.ApprovalStatusPending:
			stats.Pending++
		}
	}
	return stats, nil
}

func (m *mockRequestRepo) ListByExpense(_ context.Context, _ int64) ([]*port.ApprovalStep, error) {
	return m.steps, nil
}

func (m *mockRequestRepo) ListPendingForApprover(_ context.Context, _ int64) ([]*port.PendingApproval, error) {
	return m.pending, nil
}

func (m *mockRequestRepo) CountPendingForApprover(_ context.Context, _ int64) (int, error) {
	return m.pendingCount, nil
}

type mockLineItemRepo struct {
	mu    sync.Mutex
	items []*entity.ExpenseLineItem
	err   error
}

func (m *mockLineItemRepo) Create(_ context.Context, item *entity.ExpenseLineItem) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *item
	m.items = append(m.items, &copied)
	return nil
}

func (m *mockLineItemRepo) GetByExpenseID(_ context.Context, expenseID int64) ([]*entity.ExpenseLineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*entity.ExpenseLineItem
	for _, item := range m.items {
		if item.ExpenseID == expenseID {
			items = append(items, item)
		}
	}
	return items, nil
}

type mockAuditRepo struct {
	mu   sync.Mutex
	logs []*entity.AuditLog
	err  error
}

func (m *mockAuditRepo) Create(_ context.Context, log *entity.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *log
	m.logs = append(m.logs, &copied)
	return nil
}

type mockRuleRepo struct {
	mu     sync.Mutex
	rules  []*entity.ApprovalRule
	nextID int64
	err    error
}

func (m *mockRuleRepo) Create(_ context.Context, rule *entity.ApprovalRule) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rule.ID = m.nextID
	copied := *rule
	m.rules = append(m.rules, &copied)
	return nil
}

func (m *mockRuleRepo) ListByCompany(_ context.Context, _ int64) ([]*entity.ApprovalRule, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rules, nil
}

type mockConverter struct {
	factor float64
	err    error
}

func (m *mockConverter) Convert(_ context.Context, amount float64, _, _ string) (float64, error) {
	if m.err != nil {
		return amount, m.err
	}
	if m.factor == 0 {
		return amount, nil
	}
	return amount * m.factor, nil
}

func (m *mockConverter) Currencies(_ context.Context) ([]string, error) {
	return []string{"USD", "EUR"}, nil
}

type mockMailSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *mockMailSender) Send(_ context.Context, to, subject, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to+": "+subject)
	return nil
}

type mockNotifier struct {
	submissions []int64
	decisions   []int64
	err         error
}

func (m *mockNotifier) NotifySubmission(_ context.Context, expenseID int64) error {
	m.submissions = append(m.submissions, expenseID)
	return m.err
}

func (m *mockNotifier) NotifyDecision(_ context.Context, expenseID int64, _, _ string, _ int64) error {
	m.decisions = append(m.decisions, expenseID)
	return m.err
}
