package session

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_IssuesCookieAndStaysStable(t *testing.T) {
	SetSessionStore(session.New(session.Config{KeyLookup: "cookie:" + CookieName}))
	t.Cleanup(func() { SetSessionStore(nil) })

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		id, err := ID(c)
		if err != nil {
			return err
		}
		return c.SendString(id)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	var cookie string
	for _, ck := range resp.Cookies() {
		if ck.Name == CookieName {
			cookie = ck.Value
		}
	}
	require.NotEmpty(t, cookie)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", CookieName+"="+cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, cookie, string(body))
}

func TestID_NoStore(t *testing.T) {
	SetSessionStore(nil)
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		_, err := ID(c)
		assert.Error(t, err)
		return c.SendStatus(fiber.StatusNoContent)
	})
	_, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
}
