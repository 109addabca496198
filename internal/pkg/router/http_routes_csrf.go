package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/PixelProof/app/controllers"
	"github.com/ManuelReschke/PixelProof/internal/pkg/env"
)

const (
	csrfFormKey   = "_csrf"
	csrfHeaderKey = "X-Csrf-Token"
)

// csrfExtractor accepts the token from the header the upload script sends
// or from the hidden form field.
func csrfExtractor(c *fiber.Ctx) (string, error) {
	if token := c.Get(csrfHeaderKey); token != "" {
		return token, nil
	}
	return csrf.CsrfFromForm(csrfFormKey)(c)
}

// loginLimiter slows down guessing of event codes and passwords.
func loginLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() != fiber.MethodPost
		},
	})
}

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		Extractor:      csrfExtractor,
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Path(), "/auth/")
		},
	}

	group := app.Group("", csrf.New(csrfConf))

	// Client gallery
	group.Get("/", controllers.HandleStart)
	group.Post("/login", loginLimiter(), controllers.HandleGalleryLogin)
	group.Post("/logout", controllers.HandleGalleryLogout)
	group.Get("/gallery", controllers.HandleGallery)
	group.Post("/gallery/:action", controllers.HandleGalleryAction)
	group.Get("/review", controllers.HandleReview)
	group.Post("/review/draft", controllers.HandleReviewDraft)
	group.Post("/review/submit", controllers.HandleReviewSubmit)

	h.registerAdminRoutes(group)
}
