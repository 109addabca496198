package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	fsession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelProof/internal/pkg/session"
	"github.com/ManuelReschke/PixelProof/internal/pkg/usercontext"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store := fsession.New(fsession.Config{KeyLookup: "cookie:" + session.CookieName})
	session.SetSessionStore(store)
	t.Cleanup(func() { session.SetSessionStore(nil) })

	app := fiber.New()
	app.Use(UserContextMiddleware)
	app.Get("/login-as-admin", func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}
		sess.Set(usercontext.KeyIsAdmin, true)
		sess.Set(usercontext.KeyAdminName, "anna")
		return sess.Save()
	})
	app.Get("/admin", RequireAdmin, func(c *fiber.Ctx) error {
		return c.SendString(usercontext.GetUsername(c))
	})
	app.Get("/api/admin", RequireAdminAPI, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func sessionCookie(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/login-as-admin", nil))
	require.NoError(t, err)
	for _, ck := range resp.Cookies() {
		if ck.Name == session.CookieName {
			return ck.Value
		}
	}
	t.Fatal("no session cookie")
	return ""
}

func TestRequireAdmin_RedirectsAnonymous(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, LoginPath, resp.Header.Get("Location"))

	resp, err = app.Test(httptest.NewRequest("GET", "/api/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAdmin_AllowsAdminSession(t *testing.T) {
	app := newTestApp(t)
	cookie := sessionCookie(t, app)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Cookie", session.CookieName+"="+cookie)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/admin", nil)
	req.Header.Set("Cookie", session.CookieName+"="+cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestUserContextMiddleware_SkipsAuthRoutes(t *testing.T) {
	app := newTestApp(t)
	app.Get("/auth/google", func(c *fiber.Ctx) error {
		assert.Nil(t, c.Locals(usercontext.KeyContext))
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/auth/google", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
