package repository

import (
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelProof/app/models"
)

// photoRepository implements the PhotoRepository interface
type photoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository creates a new photo repository instance
func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

// Create stores a new photo
func (r *photoRepository) Create(photo *models.Photo) error {
	return r.db.Create(photo).Error
}

// GetByID retrieves a photo by its ID
func (r *photoRepository) GetByID(id uint) (*models.Photo, error) {
	var photo models.Photo
	if err := r.db.First(&photo, id).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

// GetByUUID retrieves a photo by its UUID
func (r *photoRepository) GetByUUID(uuid string) (*models.Photo, error) {
	var photo models.Photo
	if err := r.db.Where("uuid = ?", uuid).First(&photo).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

// GetByEventID returns the photos of an event in upload order. limit <= 0
// returns all photos.
func (r *photoRepository) GetByEventID(eventID uint, limit int) ([]models.Photo, error) {
	var photos []models.Photo
	q := r.db.Where("event_id = ?", eventID).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&photos).Error
	return photos, err
}

// CountByEventID returns the number of photos of an event
func (r *photoRepository) CountByEventID(eventID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Photo{}).Where("event_id = ?", eventID).Count(&count).Error
	return count, err
}

// Update saves an existing photo
func (r *photoRepository) Update(photo *models.Photo) error {
	return r.db.Save(photo).Error
}

// Rename changes the display name of a photo
func (r *photoRepository) Rename(id uint, name string) error {
	res := r.db.Model(&models.Photo{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a photo row and returns it so the caller can clean up storage
func (r *photoRepository) Delete(id uint) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&photo, id).Error; err != nil {
			return err
		}
		return tx.Delete(&photo).Error
	})
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// DeleteByIDs removes the given photos of one event and returns the removed rows
func (r *photoRepository) DeleteByIDs(eventID uint, ids []uint) ([]models.Photo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var photos []models.Photo
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ? AND id IN ?", eventID, ids).Find(&photos).Error; err != nil {
			return err
		}
		if len(photos) == 0 {
			return nil
		}
		return tx.Delete(&photos).Error
	})
	return photos, err
}

// DeleteByEventID clears the gallery of an event
func (r *photoRepository) DeleteByEventID(eventID uint) ([]models.Photo, error) {
	var photos []models.Photo
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Find(&photos).Error; err != nil {
			return err
		}
		return tx.Where("event_id = ?", eventID).Delete(&models.Photo{}).Error
	})
	return photos, err
}

// Count returns the number of photos
func (r *photoRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Photo{}).Count(&count).Error
	return count, err
}

// TotalSize returns the sum of all photo sizes in bytes
func (r *photoRepository) TotalSize() (int64, error) {
	var total int64
	err := r.db.Model(&models.Photo{}).Select("COALESCE(SUM(file_size), 0)").Scan(&total).Error
	return total, err
}
