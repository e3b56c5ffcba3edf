package handlers

import (
	"errors"

	"finelytics/internal/jobs"
	"finelytics/internal/models"
	"finelytics/internal/repository"
	"finelytics/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return userID, nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

// respondError maps domain errors to HTTP statuses; anything unknown is
// logged and reported as failedMsg.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error, failedMsg string) error {
	switch {
	case errors.Is(err, models.ErrValidation):
		return badRequest(c, err.Error())
	case errors.Is(err, models.ErrNotFound), errors.Is(err, jobs.ErrUnknownJob):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, repository.ErrSerialization):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Concurrent update, please retry",
		})
	}
	logger.Error(failedMsg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": failedMsg,
	})
}
