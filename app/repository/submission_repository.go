package repository

import (
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelProof/app/models"
)

// submissionRepository implements the SubmissionRepository interface
type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository creates a new submission repository instance
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// Create validates and stores a submission
func (r *submissionRepository) Create(submission *models.Submission) error {
	if err := submission.Validate(); err != nil {
		return err
	}
	return r.db.Create(submission).Error
}

// GetByID retrieves a submission by its ID
func (r *submissionRepository) GetByID(id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := r.db.First(&submission, id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

// GetByEventID returns the submissions of an event, newest first
func (r *submissionRepository) GetByEventID(eventID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.Where("event_id = ?", eventID).Order("submitted_at DESC").Find(&submissions).Error
	return submissions, err
}

// GetRecent returns the latest submissions across all events
func (r *submissionRepository) GetRecent(limit int) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.Order("submitted_at DESC").Limit(limit).Find(&submissions).Error
	return submissions, err
}

// Count returns the number of submissions
func (r *submissionRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Submission{}).Count(&count).Error
	return count, err
}
