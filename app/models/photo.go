package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
)

const (
	PHOTO_STATUS_PENDING    = "pending"
	PHOTO_STATUS_PROCESSING = "processing"
	PHOTO_STATUS_COMPLETED  = "completed"
	PHOTO_STATUS_FAILED     = "failed"
)

// Photo is an uploaded image of an event.
type Photo struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UUID         string     `gorm:"size:36;uniqueIndex;not null" json:"uuid"`
	EventID      uint       `gorm:"index;not null" json:"event_id"`
	Name         string     `gorm:"size:255;not null" json:"name" validate:"required,max=255"`
	ObjectKey    string     `gorm:"size:512;not null" json:"object_key"`
	URL          string     `gorm:"size:1024;not null" json:"url"`
	ThumbnailKey string     `gorm:"size:512" json:"-"`
	ThumbnailURL string     `gorm:"size:1024" json:"thumbnail_url"`
	ContentType  string     `gorm:"size:100" json:"content_type"`
	FileSize     int64      `json:"file_size"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	CameraModel  *string    `gorm:"size:255" json:"camera_model"`
	TakenAt      *time.Time `json:"taken_at"`
	Status       string     `gorm:"size:20;default:'pending'" json:"status"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Photo) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = PHOTO_STATUS_PENDING
	}
	return nil
}

// Timestamp is the capture time when the EXIF data had one, the upload time
// otherwise.
func (p *Photo) Timestamp() time.Time {
	if p.TakenAt != nil && !p.TakenAt.IsZero() {
		return *p.TakenAt
	}
	return p.CreatedAt
}

// ToGallery converts the row into the type the gallery works with. The UUID
// is the stable photo id clients see.
func (p *Photo) ToGallery() gallery.Photo {
	return gallery.Photo{
		ID:           p.UUID,
		URL:          p.URL,
		ThumbnailURL: p.ThumbnailURL,
		Name:         p.Name,
		Timestamp:    p.Timestamp().UnixMilli(),
		EventID:      strconv.FormatUint(uint64(p.EventID), 10),
	}
}

// PhotosToGallery converts a list of rows.
func PhotosToGallery(photos []Photo) []gallery.Photo {
	out := make([]gallery.Photo, len(photos))
	for i := range photos {
		out[i] = photos[i].ToGallery()
	}
	return out
}
