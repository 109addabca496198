package jobqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/app/repository"
	"github.com/ManuelReschke/PixelProof/internal/pkg/database"
	"github.com/ManuelReschke/PixelProof/internal/pkg/objectstore"
)

type processorFixture struct {
	repos *repository.Repositories
	store *objectstore.LocalStore
	event *models.Event
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	repos := repository.NewRepositories(db)
	store, err := objectstore.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	ev := &models.Event{Name: "Processing", Code: "PROC01"}
	require.NoError(t, repos.Event.Create(ev))
	return &processorFixture{repos: repos, store: store, event: ev}
}

func (f *processorFixture) uploadPhoto(t *testing.T, data []byte) *models.Photo {
	t.Helper()
	res, err := f.store.Upload(context.Background(), bytes.NewReader(data), int64(len(data)), "a.jpg", "image/jpeg", "events/e")
	require.NoError(t, err)
	photo := &models.Photo{EventID: f.event.ID, Name: "a.jpg", ObjectKey: res.Key, URL: res.URL}
	require.NoError(t, f.repos.Photo.Create(photo))
	return photo
}

func payloadJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), imaging.JPEG))
	return buf.Bytes()
}

func TestProcessPhoto(t *testing.T) {
	f := newProcessorFixture(t)
	photo := f.uploadPhoto(t, jpegBytes(t, 800, 600))

	deps := Dependencies{Photos: f.repos.Photo, Store: f.store}
	require.NoError(t, ProcessPhoto(context.Background(), deps, photo))

	stored, err := f.repos.Photo.GetByUUID(photo.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.PHOTO_STATUS_COMPLETED, stored.Status)
	assert.Equal(t, 800, stored.Width)
	assert.Equal(t, 600, stored.Height)
	assert.NotEmpty(t, stored.ThumbnailURL)

	ok, err := f.store.Exists(context.Background(), stored.ThumbnailKey)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProcessPhotoJob_MarksFailures(t *testing.T) {
	f := newProcessorFixture(t)
	photo := f.uploadPhoto(t, []byte("not an image"))

	q := &Queue{}
	q.SetDependencies(Dependencies{Photos: f.repos.Photo, Store: f.store})
	job := &Job{Type: JobTypePhotoProcessing, Payload: payloadJSON(t, PhotoProcessingJobPayload{PhotoUUID: photo.UUID})}

	assert.Error(t, q.processPhotoProcessingJob(context.Background(), job))
	stored, err := f.repos.Photo.GetByUUID(photo.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.PHOTO_STATUS_FAILED, stored.Status)
}

func TestProcessPhotoJob_DeletedPhotoIsDone(t *testing.T) {
	f := newProcessorFixture(t)
	q := &Queue{}
	q.SetDependencies(Dependencies{Photos: f.repos.Photo, Store: f.store})
	job := &Job{Type: JobTypePhotoProcessing, Payload: payloadJSON(t, PhotoProcessingJobPayload{PhotoUUID: "gone"})}
	assert.NoError(t, q.processPhotoProcessingJob(context.Background(), job))
}

func TestProcessPhotoJob_NotifiesEvent(t *testing.T) {
	f := newProcessorFixture(t)
	photo := f.uploadPhoto(t, jpegBytes(t, 20, 20))

	var notified []uint
	q := &Queue{}
	q.SetDependencies(Dependencies{
		Photos:         f.repos.Photo,
		Store:          f.store,
		PhotoProcessed: func(id uint) { notified = append(notified, id) },
	})
	job := &Job{Type: JobTypePhotoProcessing, Payload: payloadJSON(t, PhotoProcessingJobPayload{PhotoUUID: photo.UUID})}
	require.NoError(t, q.processPhotoProcessingJob(context.Background(), job))
	assert.Equal(t, []uint{f.event.ID}, notified)
}

func TestProcessPhotoJob_Unconfigured(t *testing.T) {
	q := &Queue{}
	job := &Job{Type: JobTypePhotoProcessing, Payload: payloadJSON(t, PhotoProcessingJobPayload{PhotoUUID: "x"})}
	assert.Error(t, q.processPhotoProcessingJob(context.Background(), job))
}

func TestStorageDeleteJob(t *testing.T) {
	f := newProcessorFixture(t)
	photo := f.uploadPhoto(t, jpegBytes(t, 10, 10))

	q := &Queue{}
	q.SetDependencies(Dependencies{Store: f.store})
	job := &Job{Type: JobTypeStorageDelete, Payload: payloadJSON(t, StorageDeleteJobPayload{
		PhotoUUID: photo.UUID,
		ObjectKey: photo.URL,
	})}
	require.NoError(t, q.processStorageDeleteJob(context.Background(), job))

	ok, err := f.store.Exists(context.Background(), photo.ObjectKey)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting again is fine, missing objects are not an error.
	assert.NoError(t, q.processStorageDeleteJob(context.Background(), job))
}
