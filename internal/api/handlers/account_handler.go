package handlers

import (
	"context"

	"finelytics/internal/dto"
	"finelytics/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AccountService interface {
	CreateAccount(ctx context.Context, userID uuid.UUID, req *dto.CreateAccountRequest) (*models.Account, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]*models.Account, error)
	SetDefaultAccount(ctx context.Context, userID, accountID uuid.UUID) (*models.Account, error)
	GetAccountWithTransactions(ctx context.Context, userID, accountID uuid.UUID, limit, offset int) (*models.Account, []*models.Transaction, error)
}

type AccountHandler struct {
	accountService AccountService
	logger         *zap.Logger
}

func NewAccountHandler(accountService AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// CreateAccount godoc
// @Summary Create an account
// @Description The first account of a user becomes the default account
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body dto.CreateAccountRequest true "Account"
// @Security Bearer
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/v1/accounts [post]
func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	account, err := h.accountService.CreateAccount(c.Context(), userID, &req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to create account")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewAccountResponse(account))
}

// ListAccounts godoc
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.AccountResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/v1/accounts [get]
func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	accounts, err := h.accountService.ListAccounts(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list accounts")
	}

	resp := make([]dto.AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, dto.NewAccountResponse(a))
	}
	return c.JSON(resp)
}

// GetAccount godoc
// @Summary Get an account with its transactions
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Param limit query int false "Limit" default(50)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {object} dto.AccountDetailResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	accountID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid account id")
	}

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	account, txs, err := h.accountService.GetAccountWithTransactions(c.Context(), userID, accountID, limit, offset)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load account")
	}
	return c.JSON(dto.AccountDetailResponse{
		AccountResponse: dto.NewAccountResponse(account),
		Transactions:    dto.NewTransactionResponses(txs),
	})
}

// SetDefaultAccount godoc
// @Summary Make an account the default account
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Security Bearer
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/accounts/{id}/default [put]
func (h *AccountHandler) SetDefaultAccount(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	accountID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid account id")
	}

	account, err := h.accountService.SetDefaultAccount(c.Context(), userID, accountID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update default account")
	}
	return c.JSON(dto.NewAccountResponse(account))
}
