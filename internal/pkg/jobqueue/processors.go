package jobqueue

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/app/repository"
	"github.com/ManuelReschke/PixelProof/internal/pkg/imageprocessor"
	"github.com/ManuelReschke/PixelProof/internal/pkg/objectstore"
)

// MaxOriginalSize caps how much of an original the processor reads.
const MaxOriginalSize = 64 << 20

// Dependencies are the collaborators the job processors need.
type Dependencies struct {
	Photos repository.PhotoRepository
	Store  objectstore.Store
	// PhotoProcessed runs after a photo got its thumbnail, e.g. to drop
	// cached listings of the event.
	PhotoProcessed func(eventID uint)
}

func (q *Queue) registerProcessors() {
	q.Handle(JobTypePhotoProcessing, q.processPhotoProcessingJob)
	q.Handle(JobTypeStorageDelete, q.processStorageDeleteJob)
}

// EnqueuePhotoProcessing queues thumbnail and EXIF extraction for a photo.
func (q *Queue) EnqueuePhotoProcessing(photo *models.Photo) (*Job, error) {
	if photo == nil || photo.UUID == "" {
		return nil, errors.New("photo without uuid cannot be processed")
	}
	return q.Enqueue(context.Background(), JobTypePhotoProcessing, PhotoProcessingJobPayload{
		PhotoID:   photo.ID,
		PhotoUUID: photo.UUID,
		EventID:   photo.EventID,
		ObjectKey: photo.ObjectKey,
	})
}

// EnqueueStorageDelete queues removal of the stored objects of deleted
// photos. It returns the number of jobs that could be queued. Delete jobs
// run once; a failure is logged and kept on the jobs page.
func (q *Queue) EnqueueStorageDelete(photos []models.Photo) int {
	queued := 0
	for _, p := range photos {
		if p.ObjectKey == "" && p.ThumbnailKey == "" {
			continue
		}
		payload := StorageDeleteJobPayload{
			PhotoUUID:    p.UUID,
			ObjectKey:    p.ObjectKey,
			ThumbnailKey: p.ThumbnailKey,
		}
		if _, err := q.enqueue(context.Background(), JobTypeStorageDelete, payload, 0); err != nil {
			log.Errorf("[JobQueue] Failed to enqueue storage delete for photo %s: %v", p.UUID, err)
			continue
		}
		queued++
	}
	return queued
}

// processPhotoProcessingJob renders the thumbnail of an uploaded photo
func (q *Queue) processPhotoProcessingJob(ctx context.Context, job *Job) error {
	var payload PhotoProcessingJobPayload
	if err := job.Decode(&payload); err != nil {
		return fmt.Errorf("decode photo processing payload: %w", err)
	}
	deps := q.dependencies()
	if deps.Photos == nil || deps.Store == nil {
		return fmt.Errorf("photo processing is not configured")
	}

	photo, err := deps.Photos.GetByUUID(payload.PhotoUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Infof("[JobQueue] Photo %s was deleted before processing", payload.PhotoUUID)
			return nil
		}
		return fmt.Errorf("failed to load photo %s: %w", payload.PhotoUUID, err)
	}

	if err := ProcessPhoto(ctx, deps, photo); err != nil {
		photo.Status = models.PHOTO_STATUS_FAILED
		if uerr := deps.Photos.Update(photo); uerr != nil {
			log.Errorf("[JobQueue] Failed to mark photo %s as failed: %v", photo.UUID, uerr)
		}
		return fmt.Errorf("photo processing failed for %s: %w", photo.UUID, err)
	}

	if deps.PhotoProcessed != nil {
		deps.PhotoProcessed(photo.EventID)
	}
	log.Infof("[JobQueue] Photo processing completed for %s", photo.UUID)
	return nil
}

// ProcessPhoto downloads the original, stores the thumbnail and saves the
// dimensions and capture time on the photo row.
func ProcessPhoto(ctx context.Context, deps Dependencies, photo *models.Photo) error {
	photo.Status = models.PHOTO_STATUS_PROCESSING
	if err := deps.Photos.Update(photo); err != nil {
		log.Warnf("[JobQueue] Failed to mark photo %s as processing: %v", photo.UUID, err)
	}

	rc, err := deps.Store.Get(ctx, photo.ObjectKey)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(io.LimitReader(rc, MaxOriginalSize))
	rc.Close()
	if err != nil {
		return fmt.Errorf("failed to read original: %w", err)
	}

	res, err := imageprocessor.Process(data)
	if err != nil {
		return err
	}

	thumbKey := imageprocessor.ThumbnailKey(photo.ObjectKey, res.ThumbnailContentType)
	stored, err := deps.Store.Put(ctx, thumbKey, bytes.NewReader(res.Thumbnail), int64(len(res.Thumbnail)), res.ThumbnailContentType)
	if err != nil {
		return err
	}

	photo.Width = res.Width
	photo.Height = res.Height
	photo.ThumbnailKey = stored.Key
	photo.ThumbnailURL = stored.URL
	if res.Metadata.TakenAt != nil {
		photo.TakenAt = res.Metadata.TakenAt
	}
	if res.Metadata.CameraModel != nil {
		photo.CameraModel = res.Metadata.CameraModel
	}
	photo.Status = models.PHOTO_STATUS_COMPLETED
	if err := deps.Photos.Update(photo); err != nil {
		return fmt.Errorf("failed to save photo %s: %w", photo.UUID, err)
	}
	return nil
}

// processStorageDeleteJob removes the objects of a deleted photo.
func (q *Queue) processStorageDeleteJob(ctx context.Context, job *Job) error {
	var payload StorageDeleteJobPayload
	if err := job.Decode(&payload); err != nil {
		return fmt.Errorf("decode storage delete payload: %w", err)
	}
	deps := q.dependencies()
	if deps.Store == nil {
		return fmt.Errorf("storage is not configured")
	}

	var errs []error
	for _, key := range []string{payload.ObjectKey, payload.ThumbnailKey} {
		if key == "" {
			continue
		}
		if err := deps.Store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	log.Debugf("[JobQueue] Removed stored objects of photo %s", payload.PhotoUUID)
	return nil
}
