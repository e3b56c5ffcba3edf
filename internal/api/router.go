package api

import (
	"finelytics/docs"
	"finelytics/internal/api/handlers"
	"finelytics/pkg/auth"
	"finelytics/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

type Handlers struct {
	Accounts     *handlers.AccountHandler
	Transactions *handlers.TransactionHandler
	Budget       *handlers.BudgetHandler
	Jobs         *handlers.JobHandler
}

func SetupRouter(
	h Handlers,
	jwtManager *auth.JWTManager,
	users middleware.UserResolver,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, users, appLogger))

	accounts := protected.Group("/accounts")
	accounts.Post("", h.Accounts.CreateAccount)
	accounts.Get("", h.Accounts.ListAccounts)
	accounts.Get("/:id", h.Accounts.GetAccount)
	accounts.Put("/:id/default", h.Accounts.SetDefaultAccount)

	protected.Post("/transactions", h.Transactions.CreateTransaction)

	budget := protected.Group("/budget")
	budget.Get("", h.Budget.GetBudget)
	budget.Put("", h.Budget.UpdateBudget)

	jobs := protected.Group("/jobs", middleware.RequireRole(auth.RoleAdmin))
	jobs.Get("", h.Jobs.ListJobs)
	jobs.Post("/:name/run", h.Jobs.RunJob)

	return app
}
