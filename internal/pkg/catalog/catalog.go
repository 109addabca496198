// Package catalog loads the event and photo list a client logs in to. It
// defines the Event Lookup and Photo Listing contracts and ships database,
// Google Drive and Redis cached implementations.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
)

// MaxPhotos caps every listing.
const MaxPhotos = 1000

var (
	ErrNotFound     = errors.New("event not found")
	ErrAccessDenied = errors.New("access to event denied")
	ErrEmptyCode    = errors.New("event code is empty")
)

// FetchError is a transport or listing failure that is neither a missing
// event nor a denied one.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// EventLookup resolves an access code to an event.
type EventLookup interface {
	GetEventDetails(ctx context.Context, code string) (gallery.Event, error)
}

// PhotoListing lists the photos of an event. An event without photos yields
// an empty list, not an error.
type PhotoListing interface {
	GetPhotos(ctx context.Context, code string) ([]gallery.Photo, error)
}

// Source provides both halves of a login.
type Source interface {
	EventLookup
	PhotoListing
}

// Result is a completed login load.
type Result struct {
	Event  gallery.Event
	Photos []gallery.Photo
}

// Load fetches event details and photos concurrently and returns once both
// are done or one of them failed. The failing call cancels the other.
func Load(ctx context.Context, lookup EventLookup, listing PhotoListing, code string) (Result, error) {
	if code == "" {
		return Result{}, ErrEmptyCode
	}

	var res Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ev, err := lookup.GetEventDetails(gctx, code)
		if err != nil {
			return err
		}
		res.Event = ev
		return nil
	})
	g.Go(func() error {
		photos, err := listing.GetPhotos(gctx, code)
		if err != nil {
			return err
		}
		res.Photos = capPhotos(photos)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if res.Photos == nil {
		res.Photos = []gallery.Photo{}
	}
	return res, nil
}

func capPhotos(photos []gallery.Photo) []gallery.Photo {
	if len(photos) > MaxPhotos {
		return photos[:MaxPhotos]
	}
	return photos
}

// UserMessage turns a login error into the inline message shown on the
// login form.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyCode):
		return "Please enter your event code."
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAccessDenied):
		return "Event not found or access denied. Check the code you received from your photographer."
	case errors.Is(err, context.DeadlineExceeded):
		return "Loading the gallery took too long. Please try again."
	default:
		return "The gallery could not be loaded. Please try again."
	}
}

// StatusCode maps a login error to the HTTP status of the JSON API.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrEmptyCode):
		return 400
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrAccessDenied):
		return 403
	case errors.Is(err, context.DeadlineExceeded):
		return 504
	default:
		return 502
	}
}
