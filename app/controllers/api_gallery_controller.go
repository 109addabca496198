package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixelProof/internal/pkg/catalog"
	"github.com/ManuelReschke/PixelProof/internal/pkg/draft"
	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
	"github.com/ManuelReschke/PixelProof/internal/pkg/submission"
)

// GalleryResponse is returned by every state changing gallery call. Effects
// are the view side effects the client applies in order.
type GalleryResponse struct {
	Changed bool             `json:"changed"`
	State   gallery.Snapshot `json:"state"`
	Effects []gallery.Effect `json:"effects"`
}

// KeyResponse adds the outcome of a key press.
type KeyResponse struct {
	GalleryResponse
	Action         string `json:"action"`
	PreventDefault bool   `json:"prevent_default"`
}

// ReviewResponse is the review screen.
type ReviewResponse struct {
	Event         gallery.Event   `json:"event"`
	Photos        []gallery.Photo `json:"photos"`
	ClipboardText string          `json:"clipboard_text"`
}

// SubmitResponse confirms a submission.
type SubmitResponse struct {
	Receipt       submission.Receipt `json:"receipt"`
	ClipboardText string             `json:"clipboard_text"`
	WhatsAppURL   string             `json:"whatsapp_url"`
}

func galleryResponse(s *gallery.Session, changed bool) GalleryResponse {
	effects := s.TakeEffects()
	if effects == nil {
		effects = []gallery.Effect{}
	}
	return GalleryResponse{Changed: changed, State: snapshot(s), Effects: effects}
}

// apiGallery returns the session and, when requireEvent is set, answers
// 401 for visitors without an open event.
func apiGallery(c *fiber.Ctx, requireEvent bool) (*gallery.Session, bool, error) {
	s, err := currentGallery(c)
	if err != nil {
		return nil, false, jsonError(c, fiber.StatusInternalServerError, "session_unavailable", "Session could not be loaded")
	}
	if requireEvent {
		if _, ok := s.Event(); !ok {
			return nil, false, jsonError(c, fiber.StatusUnauthorized, "no_event", "Open an event with its code first")
		}
	}
	return s, true, nil
}

// APIGalleryLogin opens the event for code.
func APIGalleryLogin(c *fiber.Ctx, code string) error {
	s, ok, err := apiGallery(c, false)
	if !ok {
		return err
	}
	if _, err := loginGallery(c.UserContext(), s, code); err != nil {
		if isStale(err) {
			return jsonError(c, fiber.StatusConflict, "superseded", "A newer login replaced this one")
		}
		return c.Status(catalog.StatusCode(err)).JSON(fiber.Map{
			"error":   "login_failed",
			"message": catalog.UserMessage(err),
			"state":   snapshot(s),
		})
	}
	return c.JSON(galleryResponse(s, true))
}

// APIGalleryLogout closes the event.
func APIGalleryLogout(c *fiber.Ctx) error {
	s, ok, err := apiGallery(c, false)
	if !ok {
		return err
	}
	s.Logout()
	return c.JSON(galleryResponse(s, true))
}

// APIGalleryState returns the current view.
func APIGalleryState(c *fiber.Ctx) error {
	s, ok, err := apiGallery(c, false)
	if !ok {
		return err
	}
	return c.JSON(galleryResponse(s, false))
}

// APIGallerySort changes the sort order. Unknown options are a 400.
func APIGallerySort(c *fiber.Ctx, raw string) error {
	s, ok, err := apiGallery(c, true)
	if !ok {
		return err
	}
	opt, err := gallery.ParseSortOption(raw)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_sort", err.Error())
	}
	return c.JSON(galleryResponse(s, s.SetSort(opt)))
}

// APIGalleryPage moves to page. Out of range pages leave the state alone
// and report changed=false.
func APIGalleryPage(c *fiber.Ctx, page int) error {
	s, ok, err := apiGallery(c, true)
	if !ok {
		return err
	}
	return c.JSON(galleryResponse(s, s.SetPage(page)))
}

// APIGalleryToggle toggles one photo.
func APIGalleryToggle(c *fiber.Ctx, id string) error {
	s, ok, err := apiGallery(c, true)
	if !ok {
		return err
	}
	if _, err := s.Toggle(id); err != nil {
		return jsonError(c, fiber.StatusNotFound, "unknown_photo", err.Error())
	}
	return c.JSON(galleryResponse(s, true))
}

// APIGallerySelectAll selects every photo of the event.
func APIGallerySelectAll(c *fiber.Ctx) error {
	s, ok, err := apiGallery(c, true)
	if !ok {
		return err
	}
	s.SelectAll()
	return c.JSON(galleryResponse(s, true))
}

// APIGalleryDeselectAll empties the selection.
func APIGalleryDeselectAll(c *fiber.Ctx) error {
	s, ok, err := apiGallery(c, true)
	if !ok {
		return err
	}
	s.DeselectAll()
	return c.JSON(galleryResponse(s, true))
}

// APIGalleryLightbox runs open, next, prev, close or toggle.
func APIGalleryLightbox(c *fiber.Ctx, action, id string) error {
	s, ok, err := apiGallery(c, true)
	if !ok {
		return err
	}
	var changed bool
	switch action {
	case "open":
		changed = s.OpenLightbox(id)
		if !changed {
			return jsonError(c, fiber.StatusNotFound, "unknown_photo", gallery.ErrUnknownPhoto.Error())
		}
	case "next":
		changed = s.NextPhoto()
	case "prev":
		changed = s.PrevPhoto()
	case "close":
		changed = s.CloseLightbox()
	case "toggle":
		changed, err = s.ToggleCurrent()
		if err != nil {
			return jsonError(c, fiber.StatusNotFound, "unknown_photo", err.Error())
		}
	default:
		return jsonError(c, fiber.StatusNotFound, "unknown_action", "Unknown lightbox action")
	}
	return c.JSON(galleryResponse(s, changed))
}

// APIGalleryKey applies a key press to the open lightbox.
func APIGalleryKey(c *fiber.Ctx, key string) error {
	s, ok, err := apiGallery(c, true)
	if !ok {
		return err
	}
	action, prevent, err := s.HandleKey(key)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "unknown_photo", err.Error())
	}
	return c.JSON(KeyResponse{
		GalleryResponse: galleryResponse(s, action != gallery.ActionNone),
		Action:          action.String(),
		PreventDefault:  prevent,
	})
}

// APIGalleryReview lists the selection in display order.
func APIGalleryReview(c *fiber.Ctx) error {
	s, ok, err := apiGallery(c, true)
	if !ok {
		return err
	}
	event, _ := s.Event()
	photos := s.Review()
	return c.JSON(ReviewResponse{
		Event:         event,
		Photos:        photos,
		ClipboardText: submission.ClipboardText(photos),
	})
}

// APIGalleryDraft generates a message draft. It never fails once name and
// notes are given; generator problems yield the fallback text.
func APIGalleryDraft(c *fiber.Ctx, clientName, notes string) error {
	s, ok, err := apiGallery(c, true)
	if !ok {
		return err
	}
	text, err := draftMessage(c.UserContext(), s, clientName, notes)
	if errors.Is(err, draft.ErrMissingInput) {
		return jsonError(c, fiber.StatusBadRequest, "missing_input", draftInputMessage)
	}
	return c.JSON(fiber.Map{"message": text})
}

// APIGallerySubmit hands the selection to the submission sink.
func APIGallerySubmit(c *fiber.Ctx, clientName, notes, aiMessage string) error {
	s, ok, err := apiGallery(c, true)
	if !ok {
		return err
	}
	receipt, photos, err := submitSelection(c.UserContext(), s, clientName, notes, aiMessage)
	if err != nil {
		var verr *submission.ValidationError
		status := fiber.StatusBadGateway
		switch {
		case errors.Is(err, submission.ErrEmptySelection), errors.As(err, &verr):
			status = fiber.StatusUnprocessableEntity
		case errors.Is(err, submission.ErrUnknownEvent):
			status = fiber.StatusConflict
		}
		return jsonError(c, status, "submit_failed", submission.UserMessage(err))
	}
	d := delivery(receipt, clientName, notes, photos)
	return c.Status(fiber.StatusCreated).JSON(SubmitResponse{
		Receipt:       *receipt,
		ClipboardText: d.ClipboardText,
		WhatsAppURL:   d.WhatsAppURL,
	})
}
