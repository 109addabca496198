package middleware

import (
	"github.com/gofiber/fiber/v2"

	icuser "github.com/ManuelReschke/PixelProof/internal/pkg/usercontext"
)

// LoginPath is where RequireAdmin sends anonymous visitors.
const LoginPath = "/admin/login"

// RequireAdmin ensures a logged-in photographer; redirects to the admin
// login otherwise.
func RequireAdmin(c *fiber.Ctx) error {
	if !icuser.IsAdmin(c) {
		return c.Redirect(LoginPath, fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAdminAPI is RequireAdmin for JSON endpoints: a 401 instead of a
// redirect.
func RequireAdminAPI(c *fiber.Ctx) error {
	if !icuser.IsAdmin(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}
