package controllers

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/template/html/v2"

	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/internal/pkg/env"
	"github.com/ManuelReschke/PixelProof/internal/pkg/flash"
	"github.com/ManuelReschke/PixelProof/internal/pkg/usercontext"
	"github.com/ManuelReschke/PixelProof/internal/pkg/viewmodel"
)

const (
	layoutPublic = "layouts/main"
	layoutAdmin  = "layouts/admin"
)

// NewViewEngine loads the html templates under dir with the helpers the
// views use.
func NewViewEngine(dir string, reload bool) *html.Engine {
	engine := html.New(dir, ".html")
	engine.AddFunc("add", func(a, b int) int { return a + b })
	engine.AddFunc("humanBytes", func(n int64) string {
		if n <= 0 {
			return "-"
		}
		return humanize.Bytes(uint64(n))
	})
	engine.Reload(reload)
	return engine
}

func csrfToken(c *fiber.Ctx) string {
	if token, ok := c.Locals("csrf").(string); ok {
		return token
	}
	return ""
}

// layout collects what every page shows around its content
func layout(c *fiber.Ctx, page string) viewmodel.Layout {
	settings := models.GetAppSettings()
	uc := usercontext.GetUserContext(c)
	return viewmodel.Layout{
		Page:          page,
		SiteTitle:     settings.GetSiteTitle(),
		FromProtected: uc.IsLoggedIn,
		IsAdmin:       uc.IsAdmin,
		Username:      uc.Username,
		Msg:           flash.Get(c),
		CSRF:          csrfToken(c),
		IsDev:         env.IsDev(),
	}
}

// render renders an html template inside the given layout. data gets the
// layout under "Layout".
func render(c *fiber.Ctx, name, page, layoutName string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["Layout"] = layout(c, page)
	return c.Render(name, data, layoutName)
}

// renderComponent writes a templ fragment
func renderComponent(c *fiber.Ctx, component templ.Component) error {
	handler := adaptor.HTTPHandler(templ.Handler(component))
	return handler(c)
}

// jsonError is the error shape of every JSON endpoint
func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

func paramUint(c *fiber.Ctx, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

func wantsJSON(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON) ||
		strings.HasPrefix(c.Path(), "/api/")
}

// clientIP is the address of the visitor as reported by the proxy in
// front of the app, falling back to the socket address.
func clientIP(c *fiber.Ctx) string {
	raw := c.Get("CF-Connecting-IP")
	if raw == "" {
		raw, _, _ = strings.Cut(c.Get(fiber.HeaderXForwardedFor), ",")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = c.IP()
	}
	if addr, err := netip.ParseAddr(raw); err == nil {
		return addr.Unmap().String()
	}
	return raw
}
