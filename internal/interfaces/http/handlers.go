package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/application/service"
	"github.com/expenseflow/expenseflow/internal/infrastructure/storage"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	expenseService   service.ExpenseService
	approvalService  service.ApprovalService
	ruleService      service.RuleService
	dashboardService service.DashboardService
	reportService    service.ReportService
	userService      service.UserService
	categoryRepo     port.CategoryRepository
	converter        port.CurrencyConverter
	receipts         port.ReceiptStore
	logger           Logger
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ActionRequest is the body of an approve/reject action
type ActionRequest struct {
	Action   string `json:"action" binding:"required"`
	Comments string `json:"comments"`
}

// SubmitExpenseRequest is the body of an expense submission. Multipart
// submissions carry line items as a JSON-encoded form field and may
// attach the receipt file inline; JSON submissions reference a receipt
// uploaded beforehand through POST /api/receipts.
type SubmitExpenseRequest struct {
	CategoryID   int64                   `json:"category_id" form:"category_id" binding:"required"`
	Amount       float64                 `json:"amount" form:"amount" binding:"required"`
	Currency     string                  `json:"currency" form:"currency" binding:"required"`
	Description  string                  `json:"description" form:"description" binding:"required"`
	ExpenseDate  string                  `json:"expense_date" form:"expense_date" binding:"required"`
	MerchantName string                  `json:"merchant_name" form:"merchant_name"`
	ReceiptURL   string                  `json:"receipt_url" form:"-"`
	LineItems    []service.LineItemInput `json:"line_items" form:"-"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// SubmitExpense handles POST /api/expenses
func (h *Handlers) SubmitExpense(c *gin.Context) {
	var req SubmitExpenseRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if raw := c.PostForm("line_items"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.LineItems); err != nil {
				respondBadRequest(c, "line_items must be a JSON array")
				return
			}
		}
		if file, err := c.FormFile("receipt"); err == nil {
			url, ok := h.storeReceipt(c, file)
			if !ok {
				return
			}
			req.ReceiptURL = url
		}
	}

	expenseDate, err := time.Parse("2006-01-02", req.ExpenseDate)
	if err != nil {
		respondBadRequest(c, "expense_date must be YYYY-MM-DD")
		return
	}

	result, err := h.expenseService.Submit(c.Request.Context(), principalFrom(c), service.SubmitExpenseInput{
		CategoryID:   req.CategoryID,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Description:  req.Description,
		ExpenseDate:  expenseDate,
		MerchantName: req.MerchantName,
		ReceiptURL:   req.ReceiptURL,
		LineItems:    req.LineItems,
	})
	if err != nil {
		h.respondServiceError(c, "submit expense", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: result})
}

// ListExpenses handles GET /api/expenses
func (h *Handlers) ListExpenses(c *gin.Context) {
	expenses, err := h.expenseService.List(c.Request.Context(), principalFrom(c))
	if err != nil {
		h.respondServiceError(c, "list expenses", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expenses})
}

// RecentExpenses handles GET /api/dashboard/recent-expenses
func (h *Handlers) RecentExpenses(c *gin.Context) {
	limit := 5
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 50 {
			respondBadRequest(c, "limit must be between 1 and 50")
			return
		}
		limit = parsed
	}

	expenses, err := h.expenseService.Recent(c.Request.Context(), principalFrom(c), limit)
	if err != nil {
		h.respondServiceError(c, "list recent expenses", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expenses})
}

// GetExpense handles GET /api/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	expenseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.expenseService.Get(c.Request.Context(), principalFrom(c), expenseID)
	if err != nil {
		h.respondServiceError(c, "get expense", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: detail})
}

// UploadReceipt handles POST /api/receipts
func (h *Handlers) UploadReceipt(c *gin.Context) {
	file, err := c.FormFile("receipt")
	if err != nil {
		respondBadRequest(c, "receipt file is required")
		return
	}

	url, ok := h.storeReceipt(c, file)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: gin.H{"receipt_url": url}})
}

// storeReceipt validates and persists an uploaded receipt file. It
// writes the error response itself and reports success via ok.
func (h *Handlers) storeReceipt(c *gin.Context, file *multipart.FileHeader) (url string, ok bool) {
	if file.Size > storage.MaxReceiptSize {
		respondBadRequest(c, "receipt exceeds maximum size")
		return "", false
	}

	src, err := file.Open()
	if err != nil {
		h.respondServiceError(c, "open receipt upload", err)
		return "", false
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		h.respondServiceError(c, "read receipt upload", err)
		return "", false
	}

	url, err = h.receipts.Save(c.Request.Context(), file.Filename, data)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidReceipt) {
			respondBadRequest(c, err.Error())
			return "", false
		}
		h.respondServiceError(c, "store receipt", err)
		return "", false
	}
	return url, true
}

// ListPendingApprovals handles GET /api/approvals/pending
func (h *Handlers) ListPendingApprovals(c *gin.Context) {
	pending, err := h.approvalService.ListPending(c.Request.Context(), principalFrom(c))
	if err != nil {
		h.respondServiceError(c, "list pending approvals", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: pending})
}

// ActOnApproval handles POST /api/approvals/:id/action
func (h *Handlers) ActOnApproval(c *gin.Context) {
	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	result, err := h.approvalService.Act(c.Request.Context(), principalFrom(c), requestID, req.Action, req.Comments)
	if err != nil {
		h.respondServiceError(c, "process approval action", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// CreateRule handles POST /api/approval-rules
func (h *Handlers) CreateRule(c *gin.Context) {
	var input service.CreateRuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	ruleID, err := h.ruleService.Create(c.Request.Context(), principalFrom(c), input)
	if err != nil {
		h.respondServiceError(c, "create approval rule", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: gin.H{"rule_id": ruleID}})
}

// ListRules handles GET /api/approval-rules
func (h *Handlers) ListRules(c *gin.Context) {
	rules, err := h.ruleService.List(c.Request.Context(), principalFrom(c))
	if err != nil {
		h.respondServiceError(c, "list approval rules", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: rules})
}

// ListUsers handles GET /api/users
func (h *Handlers) ListUsers(c *gin.Context) {
	entries, err := h.userService.Directory(c.Request.Context(), principalFrom(c))
	if err != nil {
		h.respondServiceError(c, "list users", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// UpdateUser handles PUT /api/users/:id
func (h *Handlers) UpdateUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input service.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if err := h.userService.Update(c.Request.Context(), principalFrom(c), userID, input); err != nil {
		h.respondServiceError(c, "update user", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ListCategories handles GET /api/categories
func (h *Handlers) ListCategories(c *gin.Context) {
	categories, err := h.categoryRepo.ListActive(c.Request.Context(), principalFrom(c).CompanyID)
	if err != nil {
		h.respondServiceError(c, "list categories", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: categories})
}

// ListCurrencies handles GET /api/currencies
func (h *Handlers) ListCurrencies(c *gin.Context) {
	currencies, err := h.converter.Currencies(c.Request.Context())
	if err != nil {
		// The converter falls back to a static list, so an error here
		// still carries usable data.
		h.logger.Error("Failed to list currencies", "error", err)
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: currencies})
}

// DashboardStats handles GET /api/dashboard/stats
func (h *Handlers) DashboardStats(c *gin.Context) {
	stats, err := h.dashboardService.Stats(c.Request.Context(), principalFrom(c))
	if err != nil {
		h.respondServiceError(c, "load dashboard stats", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: stats})
}

// ExportExpenseReport handles GET /api/reports/expenses
func (h *Handlers) ExportExpenseReport(c *gin.Context) {
	filename, data, err := h.reportService.ExportExpenses(c.Request.Context(), principalFrom(c))
	if err != nil {
		h.respondServiceError(c, "export expense report", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondBadRequest(c, "invalid "+name+" parameter")
		return 0, false
	}
	return id, true
}

func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// respondServiceError translates service sentinel errors to HTTP
// statuses. Everything unexpected is logged and masked as a 500.
func (h *Handlers) respondServiceError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrInvalidActionState):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed",
			"operation", op,
			"user_id", principalFrom(c).UserID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal server error"})
	}
}
