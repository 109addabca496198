package models

import (
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
)

// eventCodePattern also admits Google Drive folder ids.
var eventCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Event is a photo shoot clients get access to with its code.
type Event struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UUID      string         `gorm:"size:36;uniqueIndex;not null" json:"uuid"`
	Name      string         `gorm:"size:255;not null" json:"name" validate:"required,min=3,max=255"`
	Code      string         `gorm:"size:64;uniqueIndex;not null" json:"code" validate:"required,min=4,max=64,eventcode"`
	ViewCount int            `gorm:"default:0" json:"view_count"`
	Photos    []Photo        `gorm:"foreignKey:EventID" json:"photos,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == "" {
		e.UUID = uuid.New().String()
	}
	return nil
}

func (e *Event) Validate() error {
	return newValidator().Struct(e)
}

// ToGallery converts the row into the type the gallery works with.
func (e *Event) ToGallery() gallery.Event {
	return gallery.Event{
		ID:        strconv.FormatUint(uint64(e.ID), 10),
		Name:      e.Name,
		Code:      e.Code,
		CreatedAt: e.CreatedAt.UnixMilli(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("eventcode", func(fl validator.FieldLevel) bool {
		return eventCodePattern.MatchString(fl.Field().String())
	})
	return v
}
