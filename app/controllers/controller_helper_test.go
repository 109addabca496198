package controllers

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(clientIP(c)) })

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"cloudflare wins", map[string]string{"CF-Connecting-IP": "203.0.113.7", "X-Forwarded-For": "198.51.100.1"}, "203.0.113.7"},
		{"first forwarded hop", map[string]string{"X-Forwarded-For": " 198.51.100.1, 10.0.0.1"}, "198.51.100.1"},
		{"mapped v4 is unwrapped", map[string]string{"X-Forwarded-For": "::ffff:192.0.2.9"}, "192.0.2.9"},
		{"ipv6", map[string]string{"CF-Connecting-IP": "2001:db8::1"}, "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(body))
		})
	}
}

func TestParamUint(t *testing.T) {
	app := fiber.New()
	app.Get("/:id", func(c *fiber.Ctx) error {
		id, ok := paramUint(c, "id")
		if !ok {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.JSON(id)
	})

	for path, status := range map[string]int{"/12": 200, "/0": 404, "/-3": 404, "/abc": 404} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, status, resp.StatusCode, path)
	}
}
