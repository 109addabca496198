package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixelProof/internal/pkg/middleware"
	"github.com/ManuelReschke/PixelProof/internal/pkg/oauth"
	"github.com/ManuelReschke/PixelProof/internal/pkg/session"
)

type HttpRouter struct {
	// SkipSessionSetup keeps an already installed session store, e.g. the
	// in-memory one of handler tests.
	SkipSessionSetup bool
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	if !h.SkipSessionSetup {
		// init session
		session.NewSessionStore()

		// init oauth providers
		oauth.Setup()
	}

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
