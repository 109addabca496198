package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	apiv1 "github.com/ManuelReschke/PixelProof/internal/api/v1"
	"github.com/ManuelReschke/PixelProof/internal/pkg/env"
)

// ApiRouter mounts the JSON API used by the gallery front end.
type ApiRouter struct {
	// RequestsPerMinute limits each client address; zero uses 120.
	RequestsPerMinute int
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{RequestsPerMinute: env.GetEnvInt("API_RATE_LIMIT", 120)}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	limit := h.RequestsPerMinute
	if limit <= 0 {
		limit = 120
	}
	api := app.Group("/api",
		cors.New(cors.Config{
			AllowOrigins:     env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"),
			AllowCredentials: true,
		}),
		limiter.New(limiter.Config{Max: limit, Expiration: time.Minute}),
	)
	api.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"versions": []string{"v1"}, "docs": "/docs/api/"})
	})

	apiv1.RegisterHandlers(api.Group("/v1"), apiv1.NewAPIServer())
}
