package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bankvault/bankvault/internal/bank"
	"github.com/bankvault/bankvault/internal/config"
	"github.com/bankvault/bankvault/internal/custody"
	"github.com/bankvault/bankvault/internal/events"
	"github.com/bankvault/bankvault/internal/ledger"
	"github.com/bankvault/bankvault/internal/middleware"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg       config.Config
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Publisher events.Publisher
	Connector custody.Connector
	Logger    *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	var vault ledger.Vault
	if d.DB != nil {
		vault = ledger.NewPostgres(d.DB)
	} else {
		vault = ledger.NewInMemory()
	}

	publisher := d.Publisher
	if publisher == nil {
		publisher = events.NewLogPublisher(d.Logger)
	}

	bankSvc := bank.NewService(vault, publisher)
	custodySvc, err := custody.NewService(vault, d.Connector, publisher, d.Cfg.ProgramID)
	if err != nil {
		return err
	}

	bankHandler := bank.NewHandler(bankSvc)
	custodyHandler := custody.NewHandler(custodySvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	api.Get("/vault", bankHandler.Info)
	api.Get("/vault/authority", custodyHandler.Authority)
	api.Get("/vault/reserves/:owner", bankHandler.Reserve)
	api.Get("/vault/reserves/:owner/tokens/:mint", bankHandler.TokenReserve)

	// Signed routes
	signed := api.Group("", middleware.CallerAuth(), middleware.MutationRateLimit(d.Cache, 30), middleware.Audit(d.Logger))
	RegisterVaultRoutes(signed, bankHandler)
	RegisterCustodyRoutes(signed, custodyHandler)

	return nil
}
