package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	fsession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/app/repository"
	"github.com/ManuelReschke/PixelProof/internal/pkg/catalog"
	"github.com/ManuelReschke/PixelProof/internal/pkg/database"
	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
	"github.com/ManuelReschke/PixelProof/internal/pkg/session"
	"github.com/ManuelReschke/PixelProof/internal/pkg/submission"
)

type fakeSource struct {
	events map[string]gallery.Event
	photos map[string][]gallery.Photo
}

func (f *fakeSource) GetEventDetails(_ context.Context, code string) (gallery.Event, error) {
	ev, ok := f.events[code]
	if !ok {
		return gallery.Event{}, catalog.ErrNotFound
	}
	return ev, nil
}

func (f *fakeSource) GetPhotos(_ context.Context, code string) ([]gallery.Photo, error) {
	if _, ok := f.events[code]; !ok {
		return nil, catalog.ErrNotFound
	}
	return f.photos[code], nil
}

type recordingSink struct {
	mu       sync.Mutex
	requests []submission.Request
}

func (s *recordingSink) Submit(_ context.Context, req submission.Request) (*submission.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return &submission.Receipt{Reference: "R1", PhotoCount: len(req.Photos)}, nil
}

func newFakeSource() *fakeSource {
	large := make([]gallery.Photo, 45)
	for i := range large {
		large[i] = gallery.Photo{ID: fmt.Sprintf("l%02d", i), Name: fmt.Sprintf("img%02d.jpg", i), Timestamp: int64(i)}
	}
	return &fakeSource{
		events: map[string]gallery.Event{
			"SHOOT1": {ID: "1", Name: "Wedding", Code: "SHOOT1"},
			"LARGE1": {ID: "2", Name: "Conference", Code: "LARGE1"},
		},
		photos: map[string][]gallery.Photo{
			"SHOOT1": {
				{ID: "p1", Name: "a.jpg", URL: "/a.jpg", Timestamp: 3},
				{ID: "p2", Name: "b.jpg", URL: "/b.jpg", Timestamp: 2},
				{ID: "p3", Name: "c.jpg", URL: "/c.jpg", Timestamp: 1},
			},
			"LARGE1": large,
		},
	}
}

func setupSessions(t *testing.T) {
	t.Helper()
	session.SetSessionStore(fsession.New(fsession.Config{KeyLookup: "cookie:" + session.CookieName}))
	t.Cleanup(func() { session.SetSessionStore(nil) })
}

// newGalleryApp mounts the JSON gallery handlers without the API layer.
func newGalleryApp(t *testing.T, sink submission.Sink) *fiber.App {
	t.Helper()
	setupSessions(t)
	Initialize(&Dependencies{Catalog: newFakeSource(), Submissions: sink})

	app := fiber.New()
	app.Post("/login", func(c *fiber.Ctx) error { return APIGalleryLogin(c, c.Query("code")) })
	app.Get("/state", APIGalleryState)
	app.Put("/sort", func(c *fiber.Ctx) error { return APIGallerySort(c, c.Query("sort")) })
	app.Post("/toggle", func(c *fiber.Ctx) error { return APIGalleryToggle(c, c.Query("id")) })
	app.Post("/submit", func(c *fiber.Ctx) error {
		return APIGallerySubmit(c, c.Query("name"), c.Query("notes"), "")
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, target, cookie string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if cookie != "" {
		req.Header.Set("Cookie", session.CookieName+"="+cookie)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	for _, ck := range resp.Cookies() {
		if ck.Name == session.CookieName {
			cookie = ck.Value
		}
	}
	return resp, cookie
}

func decodeGallery(t *testing.T, resp *http.Response) GalleryResponse {
	t.Helper()
	var out GalleryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestAPIGallery_LoginSelectSubmit(t *testing.T) {
	sink := &recordingSink{}
	app := newGalleryApp(t, sink)

	resp, cookie := call(t, app, "POST", "/login?code=SHOOT1", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotEmpty(t, cookie)
	state := decodeGallery(t, resp)
	assert.True(t, state.State.LoggedIn)
	assert.Equal(t, 3, state.State.TotalPhotos)

	resp, _ = call(t, app, "POST", "/toggle?id=p2", cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decodeGallery(t, resp).State.SelectedCount)

	resp, _ = call(t, app, "POST", "/toggle?id=nope", cookie)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = call(t, app, "POST", "/submit?name=Anna&notes=thanks", cookie)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var submitted SubmitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitted))
	assert.Equal(t, 1, submitted.Receipt.PhotoCount)
	assert.Contains(t, submitted.ClipboardText, "b.jpg")

	require.Len(t, sink.requests, 1)
	assert.Equal(t, "SHOOT1", sink.requests[0].Event.Code)
	assert.Equal(t, "Anna", sink.requests[0].ClientName)
}

func TestAPIGallery_UnknownCode(t *testing.T) {
	app := newGalleryApp(t, &recordingSink{})

	resp, cookie := call(t, app, "POST", "/login?code=MISSING", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = call(t, app, "GET", "/state", cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	state := decodeGallery(t, resp)
	assert.False(t, state.State.LoggedIn)
	assert.Contains(t, state.State.Error, "Event not found")
}

func TestAPIGallery_SortValidation(t *testing.T) {
	app := newGalleryApp(t, &recordingSink{})

	resp, _ := call(t, app, "PUT", "/sort?sort=name_asc", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	_, cookie := call(t, app, "POST", "/login?code=SHOOT1", "")
	resp, _ = call(t, app, "PUT", "/sort?sort=sideways", cookie)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = call(t, app, "PUT", "/sort?sort=name_asc", cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	state := decodeGallery(t, resp)
	assert.True(t, state.Changed)
	require.NotEmpty(t, state.State.Items)
	assert.Equal(t, "a.jpg", state.State.Items[0].Photo.Name)
}

func TestAPIGallery_SubmitWithoutSelection(t *testing.T) {
	sink := &recordingSink{}
	app := newGalleryApp(t, sink)

	_, cookie := call(t, app, "POST", "/login?code=SHOOT1", "")
	resp, _ := call(t, app, "POST", "/submit?name=Anna", cookie)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Empty(t, sink.requests)
}

// newAdminApp wires the admin handlers to an in-memory database.
func newAdminApp(t *testing.T) (*fiber.App, *repository.Repositories) {
	t.Helper()
	setupSessions(t)
	db, err := database.OpenMemory()
	require.NoError(t, err)
	repos := repository.NewRepositories(db)

	Initialize(&Dependencies{Repos: repos})

	app := fiber.New()
	app.Post("/admin/events", HandleAdminEventCreate)
	app.Post("/admin/events/:id/delete", HandleAdminEventDelete)
	app.Post("/admin/events/:id/uploads/presign", HandleAdminUploadPresign)
	app.Get("/admin/submissions/:id/download", HandleAdminSubmissionDownload)
	return app, repos
}

func postForm(t *testing.T, app *fiber.App, target string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAdminEventCreate_GeneratesCode(t *testing.T) {
	app, repos := newAdminApp(t)

	resp := postForm(t, app, "/admin/events", url.Values{"name": {"Anna & Ben"}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin/events/1", resp.Header.Get("Location"))

	event, err := repos.Event.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, "Anna & Ben", event.Name)
	assert.NotEmpty(t, event.Code)
}

func TestAdminEventCreate_RejectsTakenCode(t *testing.T) {
	app, repos := newAdminApp(t)
	require.NoError(t, repos.Event.Create(&models.Event{Name: "First", Code: "SUMMER24"}))

	resp := postForm(t, app, "/admin/events", url.Values{"name": {"Second"}, "code": {" SUMMER24 "}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, pathAdminEvents, resp.Header.Get("Location"))

	count, err := repos.Event.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestAdminEventDelete_RemovesPhotos(t *testing.T) {
	app, repos := newAdminApp(t)
	event := &models.Event{Name: "Garden party", Code: "GARDEN1"}
	require.NoError(t, repos.Event.Create(event))
	require.NoError(t, repos.Photo.Create(&models.Photo{EventID: event.ID, Name: "a.jpg", ObjectKey: "k/a.jpg", URL: "/uploads/k/a.jpg"}))

	resp := postForm(t, app, "/admin/events/1/delete", url.Values{})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, pathAdminEvents, resp.Header.Get("Location"))

	_, err := repos.Event.GetByID(event.ID)
	assert.Error(t, err)
	count, err := repos.Photo.CountByEventID(event.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAdminUploadPresign_NeedsBucket(t *testing.T) {
	app, repos := newAdminApp(t)
	require.NoError(t, repos.Event.Create(&models.Event{Name: "Studio", Code: "STUDIO1"}))

	req := httptest.NewRequest("POST", "/admin/events/1/uploads/presign",
		strings.NewReader(`{"file_name":"a.jpg","size":10,"content_type":"image/jpeg"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/admin/events/99/uploads/presign", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAdminSubmissionDownload(t *testing.T) {
	app, repos := newAdminApp(t)
	event := &models.Event{Name: "Wedding", Code: "WED2024"}
	require.NoError(t, repos.Event.Create(event))
	photo := &models.Photo{EventID: event.ID, Name: "kiss.jpg", ObjectKey: "k/kiss.jpg", URL: "/uploads/k/kiss.jpg"}
	require.NoError(t, repos.Photo.Create(photo))
	sub := &models.Submission{
		EventID:          event.ID,
		ClientName:       "Anna Smith",
		Notes:            "Please retouch",
		SelectedPhotoIDs: models.StringList{photo.UUID, "gone"},
	}
	require.NoError(t, repos.Submission.Create(sub))

	resp, err := app.Test(httptest.NewRequest("GET", "/admin/submissions/1/download", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "Anna_Smith_selection.txt")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Event: Wedding")
	assert.Contains(t, string(body), "kiss.jpg")
	assert.Contains(t, string(body), "gone")

	resp, err = app.Test(httptest.NewRequest("GET", "/admin/submissions/42/download", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

type fakeCache struct {
	keys    []string
	deleted []string
}

func (f *fakeCache) FindKeysByPatterns(_ context.Context, patterns []string) ([]string, error) {
	return f.keys, nil
}

func (f *fakeCache) GetTTL(context.Context, string) (time.Duration, error) {
	return time.Minute, nil
}

func (f *fakeCache) DeleteKeys(_ context.Context, keys []string) (int64, error) {
	f.deleted = append(f.deleted, keys...)
	return int64(len(keys)), nil
}

func TestAdminCacheFlush(t *testing.T) {
	cache := &fakeCache{keys: []string{"catalog:photos:WED2024", "statistics:dashboard"}}
	Initialize(&Dependencies{Cache: cache})
	app := fiber.New()
	app.Post("/admin/cache/flush", HandleAdminCacheFlush)

	resp := postForm(t, app, "/admin/cache/flush", url.Values{})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, pathAdminJobs, resp.Header.Get("Location"))
	assert.Equal(t, cache.keys, cache.deleted)
}
