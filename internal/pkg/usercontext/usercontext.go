package usercontext

import "github.com/gofiber/fiber/v2"

// UserContext describes who sent the request. Gallery clients are
// anonymous; only the photographer logs in.
type UserContext struct {
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	IsLoggedIn bool   `json:"is_logged_in"`
	IsAdmin    bool   `json:"is_admin"`
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(KeyContext).(UserContext); ok {
		return ctx
	}
	return UserContext{}
}

// Set stores uc on the request and mirrors the flags into the plain locals
// the templates read.
func Set(c *fiber.Ctx, uc UserContext) {
	c.Locals(KeyContext, uc)
	c.Locals(KeyFromProtected, uc.IsLoggedIn)
	c.Locals(KeyIsAdmin, uc.IsAdmin)
	c.Locals(KeyAdminName, uc.Username)
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// IsAdmin checks if the current user is an admin
func IsAdmin(c *fiber.Ctx) bool {
	return GetUserContext(c).IsAdmin
}

// GetUsername returns the current user's name, or empty string if not logged in
func GetUsername(c *fiber.Ctx) string {
	return GetUserContext(c).Username
}
