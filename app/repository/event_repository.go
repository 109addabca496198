package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelProof/app/models"
)

// eventRepository implements the EventRepository interface
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository instance
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Create validates and stores a new event
func (r *eventRepository) Create(event *models.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	return r.db.Create(event).Error
}

// GetByID retrieves an event by its ID
func (r *eventRepository) GetByID(id uint) (*models.Event, error) {
	var event models.Event
	if err := r.db.First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// GetByCode retrieves an event by its access code
func (r *eventRepository) GetByCode(code string) (*models.Event, error) {
	var event models.Event
	if err := r.db.Where("code = ?", code).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// CodeExists reports whether an event (including deleted ones) uses code
func (r *eventRepository) CodeExists(code string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.Event{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// List returns events newest first with their photo and submission counts
func (r *eventRepository) List(offset, limit int) ([]EventWithStats, error) {
	var events []models.Event
	if err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}

	out := make([]EventWithStats, 0, len(events))
	for _, e := range events {
		row := EventWithStats{Event: e}
		if err := r.db.Model(&models.Photo{}).Where("event_id = ?", e.ID).Count(&row.PhotoCount).Error; err != nil {
			return nil, err
		}
		if err := r.db.Model(&models.Submission{}).Where("event_id = ?", e.ID).Count(&row.SubmissionCount).Error; err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// Count returns the number of events
func (r *eventRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Event{}).Count(&count).Error
	return count, err
}

// Update saves an existing event
func (r *eventRepository) Update(event *models.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	return r.db.Save(event).Error
}

// Delete soft-deletes an event
func (r *eventRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Event{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementViewCount adds delta to the view counter
func (r *eventRepository) IncrementViewCount(id uint, delta int64) error {
	if delta <= 0 {
		return errors.New("delta must be positive")
	}
	return r.db.Model(&models.Event{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", delta)).Error
}

// TotalViews sums the gallery views of all events
func (r *eventRepository) TotalViews() (int64, error) {
	var total int64
	err := r.db.Model(&models.Event{}).Select("COALESCE(SUM(view_count), 0)").Scan(&total).Error
	return total, err
}
