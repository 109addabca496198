package router

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/ManuelReschke/PixelProof/app/controllers"
	"github.com/ManuelReschke/PixelProof/internal/pkg/health"
	"github.com/ManuelReschke/PixelProof/internal/pkg/oauth"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/health", health.Handler)

	// Social OAuth for the photographer
	if oauth.Enabled() {
		app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
		app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
	}
}
