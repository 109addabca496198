package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/app/repository"
	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
)

// DatabaseSource serves events uploaded through the admin panel.
type DatabaseSource struct {
	events repository.EventRepository
	photos repository.PhotoRepository
}

// NewDatabaseSource creates a source backed by the repositories.
func NewDatabaseSource(events repository.EventRepository, photos repository.PhotoRepository) *DatabaseSource {
	return &DatabaseSource{events: events, photos: photos}
}

func (s *DatabaseSource) event(ctx context.Context, code string) (*models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ev, err := s.events.GetByCode(code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &FetchError{Op: "load event", Err: err}
	}
	return ev, nil
}

// GetEventDetails implements EventLookup.
func (s *DatabaseSource) GetEventDetails(ctx context.Context, code string) (gallery.Event, error) {
	ev, err := s.event(ctx, code)
	if err != nil {
		return gallery.Event{}, err
	}
	return ev.ToGallery(), nil
}

// GetPhotos implements PhotoListing. Photos still being processed are listed
// with their original image.
func (s *DatabaseSource) GetPhotos(ctx context.Context, code string) ([]gallery.Photo, error) {
	ev, err := s.event(ctx, code)
	if err != nil {
		return nil, err
	}
	photos, err := s.photos.GetByEventID(ev.ID, MaxPhotos)
	if err != nil {
		return nil, &FetchError{Op: "list photos", Err: err}
	}
	return models.PhotosToGallery(photos), nil
}
