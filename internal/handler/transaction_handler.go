package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vanguardmoney/services/internal/ledger"
	"github.com/vanguardmoney/services/internal/middleware"
	"github.com/vanguardmoney/services/internal/models"
)

// Ledger defines the operations TransactionHandler maps onto HTTP.
type Ledger interface {
	RecordIncome(ctx context.Context, in ledger.RecordInput) (*models.Income, error)
	RecordExpense(ctx context.Context, in ledger.RecordInput) (*models.Expense, error)
	ListIncomes(ctx context.Context, userID string) ([]models.Income, error)
	ListExpenses(ctx context.Context, userID string) ([]models.Expense, error)
	Summary(ctx context.Context, userID string) (*models.SummaryView, error)
}

type TransactionHandler struct {
	ledger Ledger
}

func NewTransactionHandler(ledger Ledger) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

type RecordEntryRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Date   string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time   string  `json:"time" validate:"required,datetime=15:04:05"`
	Place  string  `json:"place" validate:"required,max=255"`
}

func (h *TransactionHandler) RecordIncome(c *gin.Context) {
	in, ok := h.bindEntry(c)
	if !ok {
		return
	}

	income, err := h.ledger.RecordIncome(c.Request.Context(), in)
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "TRANSACTION_FAILED", "Failed to record income")
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Income recorded successfully",
		Data:    income,
	})
}

func (h *TransactionHandler) RecordExpense(c *gin.Context) {
	in, ok := h.bindEntry(c)
	if !ok {
		return
	}

	expense, err := h.ledger.RecordExpense(c.Request.Context(), in)
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "TRANSACTION_FAILED", "Failed to record expense")
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Expense recorded successfully",
		Data:    expense,
	})
}

func (h *TransactionHandler) ListIncomes(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	incomes, err := h.ledger.ListIncomes(c.Request.Context(), userID)
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "TRANSACTION_FETCH_FAILED", "Failed to list incomes")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Incomes fetched successfully",
		Data:    gin.H{"incomes": incomes},
	})
}

func (h *TransactionHandler) ListExpenses(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	expenses, err := h.ledger.ListExpenses(c.Request.Context(), userID)
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "TRANSACTION_FETCH_FAILED", "Failed to list expenses")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Expenses fetched successfully",
		Data:    gin.H{"expenses": expenses},
	})
}

func (h *TransactionHandler) GetSummary(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	summary, err := h.ledger.Summary(c.Request.Context(), userID)
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "SUMMARY_FETCH_FAILED", "Failed to fetch summary")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Summary fetched successfully",
		Data:    summary,
	})
}

// bindEntry validates the shared income/expense body and injects the caller
// identity from the verified token.
func (h *TransactionHandler) bindEntry(c *gin.Context) (ledger.RecordInput, bool) {
	var req RecordEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return ledger.RecordInput{}, false
	}
	if details := middleware.ValidateRequest(req); details != nil {
		middleware.RespondWithValidationError(c, details)
		return ledger.RecordInput{}, false
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "NO_TOKEN", "Authorization token required")
		return ledger.RecordInput{}, false
	}

	return ledger.RecordInput{
		UserID: userID,
		Amount: req.Amount,
		Date:   req.Date,
		Time:   req.Time,
		Place:  req.Place,
	}, true
}
