package controllers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
	"github.com/ManuelReschke/PixelProof/internal/pkg/viewmodel"
)

const (
	pathStart   = "/"
	pathGallery = "/gallery"
	pathReview  = "/review"
)

// HandleStart shows the code form, or the gallery once an event is open.
func HandleStart(c *fiber.Ctx) error {
	s, err := currentGallery(c)
	if err != nil {
		return err
	}
	snap := snapshot(s)
	if snap.LoggedIn {
		return c.Redirect(pathGallery, fiber.StatusSeeOther)
	}
	s.TakeEffects()
	return render(c, "gallery/login", "Welcome", layoutPublic, fiber.Map{
		"State": snap,
	})
}

// HandleGalleryLogin opens the event for the submitted code. Errors are
// kept on the gallery session and shown by the code form.
func HandleGalleryLogin(c *fiber.Ctx) error {
	s, err := currentGallery(c)
	if err != nil {
		return err
	}
	if _, err := loginGallery(c.UserContext(), s, c.FormValue("code")); err != nil && !isStale(err) {
		return c.Redirect(pathStart, fiber.StatusSeeOther)
	}
	return c.Redirect(pathGallery, fiber.StatusSeeOther)
}

// HandleGalleryLogout closes the event and drops the selection.
func HandleGalleryLogout(c *fiber.Ctx) error {
	s, err := currentGallery(c)
	if err != nil {
		return err
	}
	s.Logout()
	s.TakeEffects()
	return c.Redirect(pathStart, fiber.StatusSeeOther)
}

// HandleGallery renders the photo grid. ?sort= and ?page= are applied
// before rendering so plain links work for paging.
func HandleGallery(c *fiber.Ctx) error {
	s, err := currentGallery(c)
	if err != nil {
		return err
	}
	if _, ok := s.Event(); !ok {
		return c.Redirect(pathStart, fiber.StatusSeeOther)
	}

	if raw := c.Query("sort"); raw != "" {
		if opt, err := gallery.ParseSortOption(raw); err == nil {
			s.SetSort(opt)
		}
	}
	if raw := c.Query("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil {
			s.SetPage(page)
		}
	}

	snap := snapshot(s)
	effects := s.TakeEffects()
	settings := models.GetAppSettings()
	title := "Gallery"
	if snap.Event != nil {
		title = snap.Event.Name
	}
	return render(c, "gallery/index", title, layoutPublic, fiber.Map{
		"State":         snap,
		"Effects":       effects,
		"SortChoices":   viewmodel.SortChoices(snap.Sort),
		"ShowWatermark": settings.ShowWatermark,
		"Watermark":     settings.WatermarkText,
		"LightboxKeys":  lightboxKeys,
	})
}

// lightboxKeys is the key map gallery.js forwards, as JSON.
var lightboxKeys = func() string {
	raw, err := json.Marshal(gallery.LightboxKeys())
	if err != nil {
		panic(err)
	}
	return string(raw)
}()

// HandleGalleryAction applies one form action and redirects back to the grid.
func HandleGalleryAction(c *fiber.Ctx) error {
	s, err := currentGallery(c)
	if err != nil {
		return err
	}
	if _, ok := s.Event(); !ok {
		return c.Redirect(pathStart, fiber.StatusSeeOther)
	}

	action := c.Params("action")
	if err := applyGalleryAction(s, action, c.FormValue("id"), c.FormValue("value")); err != nil {
		log.Debugf("[Gallery] Action %s rejected: %v", action, err)
	}
	return c.Redirect(pathGallery, fiber.StatusSeeOther)
}

var errUnknownAction = errors.New("unknown gallery action")

// applyGalleryAction maps the action names shared by forms and the JSON API
// onto the session.
func applyGalleryAction(s *gallery.Session, action, id, value string) error {
	switch action {
	case "sort":
		opt, err := gallery.ParseSortOption(value)
		if err != nil {
			return err
		}
		s.SetSort(opt)
	case "page":
		page, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		s.SetPage(page)
	case "toggle":
		_, err := s.Toggle(id)
		return err
	case "select-all":
		s.SelectAll()
	case "deselect-all":
		s.DeselectAll()
	case "open":
		if !s.OpenLightbox(id) {
			return gallery.ErrUnknownPhoto
		}
	case "next":
		s.NextPhoto()
	case "prev":
		s.PrevPhoto()
	case "close":
		s.CloseLightbox()
	case "toggle-current":
		_, err := s.ToggleCurrent()
		return err
	default:
		return errUnknownAction
	}
	return nil
}
