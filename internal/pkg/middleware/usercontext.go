package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixelProof/internal/pkg/session"
	"github.com/ManuelReschke/PixelProof/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the user context for every request. Gallery
// visitors stay anonymous; the photographer is recognized by the admin keys
// in the session.
func UserContextMiddleware(c *fiber.Ctx) error {
	// Goth keeps its own session store on /auth/*, stay out of its way.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	store := session.GetSessionStore()
	if store == nil {
		usercontext.Set(c, usercontext.UserContext{})
		return c.Next()
	}
	sess, err := store.Get(c)
	if err != nil {
		usercontext.Set(c, usercontext.UserContext{})
		return c.Next()
	}

	isAdmin, _ := sess.Get(usercontext.KeyIsAdmin).(bool)
	if !isAdmin {
		usercontext.Set(c, usercontext.UserContext{})
		return c.Next()
	}

	name, _ := sess.Get(usercontext.KeyAdminName).(string)
	email, _ := sess.Get(usercontext.KeyAdminEmail).(string)
	usercontext.Set(c, usercontext.UserContext{
		Username:   name,
		Email:      email,
		IsLoggedIn: true,
		IsAdmin:    true,
	})
	return c.Next()
}
