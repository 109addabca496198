package controllers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixelProof/internal/pkg/catalog"
	"github.com/ManuelReschke/PixelProof/internal/pkg/draft"
	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
	"github.com/ManuelReschke/PixelProof/internal/pkg/session"
	"github.com/ManuelReschke/PixelProof/internal/pkg/shortener"
	"github.com/ManuelReschke/PixelProof/internal/pkg/submission"
)

// currentGallery returns the gallery session bound to the browser session.
func currentGallery(c *fiber.Ctx) (*gallery.Session, error) {
	id, err := session.ID(c)
	if err != nil {
		return nil, err
	}
	return deps.Registry.Get(id), nil
}

// loginGallery runs the login sequence: begin, load details and photos
// concurrently, then install them unless a newer login started meanwhile.
func loginGallery(ctx context.Context, s *gallery.Session, rawCode string) (gallery.Event, error) {
	code := shortener.NormalizeEventCode(rawCode)
	ticket := s.BeginLogin(code)

	ctx, cancel := context.WithTimeout(ctx, deps.LoginTimeout)
	defer cancel()

	res, err := catalog.Load(ctx, deps.Catalog, deps.Catalog, code)
	if err != nil {
		if s.FailLogin(ticket, err) {
			log.Infof("[Gallery] Login for code %q failed: %v", code, err)
		}
		return gallery.Event{}, err
	}
	if err := s.CompleteLogin(ticket, res.Event, res.Photos); err != nil {
		return gallery.Event{}, err
	}

	if id, err := strconv.ParseUint(res.Event.ID, 10, 64); err == nil {
		deps.CountView(uint(id))
	}
	log.Infof("[Gallery] Event %s opened with %d photos", res.Event.Code, len(res.Photos))
	return res.Event, nil
}

// refreshGalleries reloads the photos of code into every open gallery of
// that event.
func refreshGalleries(ctx context.Context, code string) {
	if deps.Catalog == nil || code == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, deps.LoginTimeout)
	defer cancel()

	res, err := catalog.Load(ctx, deps.Catalog, deps.Catalog, code)
	if err != nil {
		log.Warnf("[Gallery] Reloading event %s failed: %v", code, err)
		return
	}
	if n := deps.Registry.RefreshEvent(res.Event, res.Photos); n > 0 {
		log.Infof("[Gallery] Refreshed %d open galleries of event %s", n, code)
	}
}

// snapshot renders the state with login errors mapped to user text.
func snapshot(s *gallery.Session) gallery.Snapshot {
	return s.Snapshot(catalog.UserMessage)
}

// draftMessage asks the generator for a message about the current selection.
func draftMessage(ctx context.Context, s *gallery.Session, clientName, notes string) (string, error) {
	if err := draft.Validate(clientName, notes); err != nil {
		return "", err
	}
	return deps.Drafts.Generate(ctx, clientName, len(s.Review()), notes), nil
}

// submitSelection hands the reviewed selection to the sink.
func submitSelection(ctx context.Context, s *gallery.Session, clientName, notes, aiMessage string) (*submission.Receipt, []gallery.Photo, error) {
	event, ok := s.Event()
	if !ok {
		return nil, nil, gallery.ErrNoActiveEvent
	}
	photos := s.Review()
	if len(photos) == 0 {
		return nil, nil, submission.ErrEmptySelection
	}
	req := submission.Request{
		Event:      event,
		ClientName: clientName,
		Notes:      notes,
		AIMessage:  aiMessage,
		Photos:     photos,
	}
	receipt, err := deps.Submissions.Submit(ctx, req)
	if err != nil {
		return nil, photos, err
	}
	log.Infof("[Submission] %d photos of event %s submitted", receipt.PhotoCount, event.Code)
	return receipt, photos, nil
}

// isStale reports an outdated login that a newer request replaced.
func isStale(err error) bool {
	return errors.Is(err, gallery.ErrStaleLogin) || errors.Is(err, gallery.ErrSessionClosed)
}
