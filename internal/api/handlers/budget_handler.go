package handlers

import (
	"context"

	"finelytics/internal/dto"
	"finelytics/internal/models"
	"finelytics/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type BudgetService interface {
	UpdateBudget(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.Budget, error)
	GetBudgetStatus(ctx context.Context, userID, accountID uuid.UUID) (*service.BudgetStatus, error)
}

type BudgetHandler struct {
	budgetService BudgetService
	logger        *zap.Logger
}

func NewBudgetHandler(budgetService BudgetService, logger *zap.Logger) *BudgetHandler {
	return &BudgetHandler{
		budgetService: budgetService,
		logger:        logger,
	}
}

// GetBudget godoc
// @Summary Get the monthly budget and this month's expenses of an account
// @Tags budget
// @Produce json
// @Param accountId query string true "Account ID"
// @Security Bearer
// @Success 200 {object} dto.BudgetStatusResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/budget [get]
func (h *BudgetHandler) GetBudget(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	accountID, err := uuid.Parse(c.Query("accountId"))
	if err != nil {
		return badRequest(c, "Invalid accountId")
	}

	status, err := h.budgetService.GetBudgetStatus(c.Context(), userID, accountID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load budget")
	}
	return c.JSON(dto.BudgetStatusResponse{
		Budget:          dto.NewBudgetResponse(status.Budget),
		CurrentExpenses: status.CurrentExpenses,
		PercentageUsed:  status.PercentageUsed,
	})
}

// UpdateBudget godoc
// @Summary Set the monthly budget
// @Tags budget
// @Accept json
// @Produce json
// @Param request body dto.UpdateBudgetRequest true "Budget"
// @Security Bearer
// @Success 200 {object} dto.BudgetResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/budget [put]
func (h *BudgetHandler) UpdateBudget(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.UpdateBudgetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	budget, err := h.budgetService.UpdateBudget(c.Context(), userID, req.Amount)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update budget")
	}
	return c.JSON(dto.NewBudgetResponse(budget))
}
