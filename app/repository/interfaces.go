package repository

import (
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelProof/app/models"
)

// EventRepository defines the interface for event-related database operations
type EventRepository interface {
	Create(event *models.Event) error
	GetByID(id uint) (*models.Event, error)
	GetByCode(code string) (*models.Event, error)
	CodeExists(code string) (bool, error)
	List(offset, limit int) ([]EventWithStats, error)
	Count() (int64, error)
	Update(event *models.Event) error
	Delete(id uint) error
	IncrementViewCount(id uint, delta int64) error
	TotalViews() (int64, error)
}

// PhotoRepository defines the interface for photo-related database operations
type PhotoRepository interface {
	Create(photo *models.Photo) error
	GetByID(id uint) (*models.Photo, error)
	GetByUUID(uuid string) (*models.Photo, error)
	GetByEventID(eventID uint, limit int) ([]models.Photo, error)
	CountByEventID(eventID uint) (int64, error)
	Update(photo *models.Photo) error
	Rename(id uint, name string) error
	Delete(id uint) (*models.Photo, error)
	DeleteByIDs(eventID uint, ids []uint) ([]models.Photo, error)
	DeleteByEventID(eventID uint) ([]models.Photo, error)
	Count() (int64, error)
	TotalSize() (int64, error)
}

// SubmissionRepository defines the interface for client submissions
type SubmissionRepository interface {
	Create(submission *models.Submission) error
	GetByID(id uint) (*models.Submission, error)
	GetByEventID(eventID uint) ([]models.Submission, error)
	GetRecent(limit int) ([]models.Submission, error)
	Count() (int64, error)
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// EventWithStats is an event row plus the counters shown in the admin list.
type EventWithStats struct {
	models.Event
	PhotoCount      int64
	SubmissionCount int64
}

// Repositories struct holds all repository instances
type Repositories struct {
	Event      EventRepository
	Photo      PhotoRepository
	Submission SubmissionRepository
	Setting    SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Event:      NewEventRepository(db),
		Photo:      NewPhotoRepository(db),
		Submission: NewSubmissionRepository(db),
		Setting:    NewSettingRepository(db),
	}
}
