package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
	"github.com/ManuelReschke/PixelProof/internal/pkg/session"
)

// newGalleryPageApp mounts the html gallery on the real templates.
func newGalleryPageApp(t *testing.T, source *fakeSource) *fiber.App {
	t.Helper()
	setupSessions(t)
	Initialize(&Dependencies{Catalog: source})

	app := fiber.New(fiber.Config{Views: NewViewEngine("../../views", false)})
	app.Post("/login", func(c *fiber.Ctx) error { return APIGalleryLogin(c, c.Query("code")) })
	app.Get("/state", APIGalleryState)
	app.Get("/gallery", HandleGallery)
	app.Post("/gallery/:action", HandleGalleryAction)
	return app
}

func galleryLogin(t *testing.T, app *fiber.App, code string) string {
	t.Helper()
	resp, cookie := call(t, app, "POST", "/login?code="+code, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotEmpty(t, cookie)
	return cookie
}

func galleryAction(t *testing.T, app *fiber.App, cookie, action string, form url.Values) {
	t.Helper()
	req := httptest.NewRequest("POST", "/gallery/"+action, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	req.Header.Set("Cookie", session.CookieName+"="+cookie)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, pathGallery, resp.Header.Get("Location"))
}

func galleryPage(t *testing.T, app *fiber.App, cookie, target string) string {
	t.Helper()
	resp, _ := call(t, app, "GET", target, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func lightboxState(t *testing.T, app *fiber.App, cookie string) gallery.LightboxView {
	t.Helper()
	resp, _ := call(t, app, "GET", "/state", cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return decodeGallery(t, resp).State.Lightbox
}

func TestGalleryPage_PrevWrapsFromFirstPhoto(t *testing.T) {
	app := newGalleryPageApp(t, newFakeSource())
	cookie := galleryLogin(t, app, "SHOOT1")

	galleryAction(t, app, cookie, "open", url.Values{"id": {"p1"}})
	body := galleryPage(t, app, cookie, "/gallery")
	assert.Contains(t, body, "1 / 3")
	assert.Contains(t, body, `<button type="submit">Previous</button>`)
	assert.Contains(t, body, `<button type="submit">Next</button>`)
	assert.NotContains(t, body, "disabled>Previous")

	galleryAction(t, app, cookie, "prev", nil)
	lb := lightboxState(t, app, cookie)
	assert.True(t, lb.Open)
	assert.Equal(t, 2, lb.Index)
	require.NotNil(t, lb.Photo)
	assert.Equal(t, "p3", lb.Photo.ID)
	assert.Contains(t, galleryPage(t, app, cookie, "/gallery"), "3 / 3")
}

func TestGalleryPage_NextWrapsFromLastPhoto(t *testing.T) {
	app := newGalleryPageApp(t, newFakeSource())
	cookie := galleryLogin(t, app, "SHOOT1")

	galleryAction(t, app, cookie, "open", url.Values{"id": {"p3"}})
	body := galleryPage(t, app, cookie, "/gallery")
	assert.Contains(t, body, "3 / 3")
	assert.NotContains(t, body, "disabled>Next")

	galleryAction(t, app, cookie, "next", nil)
	lb := lightboxState(t, app, cookie)
	assert.Equal(t, 0, lb.Index)
	require.NotNil(t, lb.Photo)
	assert.Equal(t, "p1", lb.Photo.ID)
}

func TestGalleryPage_CarriesLightboxKeys(t *testing.T) {
	app := newGalleryPageApp(t, newFakeSource())
	cookie := galleryLogin(t, app, "SHOOT1")

	body := galleryPage(t, app, cookie, "/gallery")
	assert.Contains(t, body, "data-lightbox-keys=")
	assert.Contains(t, body, "&#34;Enter&#34;:true")
	assert.Contains(t, body, "&#34;ArrowLeft&#34;:false")

	script, err := os.ReadFile("../../public/assets/js/gallery.js")
	require.NoError(t, err)
	assert.Contains(t, string(script), "root.dataset.lightboxKeys")
	assert.NotContains(t, string(script), "['ArrowLeft'")
}

func TestGalleryPage_SecondOfTwoPages(t *testing.T) {
	app := newGalleryPageApp(t, newFakeSource())
	cookie := galleryLogin(t, app, "LARGE1")

	body := galleryPage(t, app, cookie, "/gallery?page=2")
	assert.Contains(t, body, "Showing 41-45 of 45")
	assert.Contains(t, body, "<strong>2</strong>")
	assert.Contains(t, body, `href="/gallery?page=1">Previous</a>`)
	assert.NotContains(t, body, ">Next</a>")
	assert.Contains(t, body, "img44.jpg")
	assert.NotContains(t, body, "img00.jpg")
	assert.Contains(t, body, "scroll_to_top")

	// reloading the same page is not a page change
	body = galleryPage(t, app, cookie, "/gallery?page=2")
	assert.Contains(t, body, "<strong>2</strong>")
	assert.NotContains(t, body, "scroll_to_top")
}

func TestRefreshGalleries(t *testing.T) {
	source := newFakeSource()
	app := newGalleryPageApp(t, source)
	cookie := galleryLogin(t, app, "SHOOT1")
	galleryAction(t, app, cookie, "select-all", nil)

	source.photos["SHOOT1"] = source.photos["SHOOT1"][:2]
	refreshGalleries(context.Background(), "SHOOT1")

	resp, _ := call(t, app, "GET", "/state", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decodeGallery(t, resp).State
	assert.Equal(t, 2, state.TotalPhotos)
	assert.Equal(t, 2, state.SelectedCount)

	refreshGalleries(context.Background(), "MISSING")
	assert.Equal(t, 2, decodeGallery(t, mustGet(t, app, "/state", cookie)).State.TotalPhotos)
}

func mustGet(t *testing.T, app *fiber.App, target, cookie string) *http.Response {
	t.Helper()
	resp, _ := call(t, app, "GET", target, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return resp
}
